package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cepro/plantsim/solar"
)

// A plant is configured through a folder of JSON descriptor files:
//
//	site.json   - site metadata (name, coordinates, altitude, tz)
//	plant.json  - PV setup (module, inverter, mount)
//	arrays.json - per-array wiring, optional
//	grid.json   - power grid description, optional
const (
	SiteFile   = "site.json"
	PlantFile  = "plant.json"
	ArraysFile = "arrays.json"
	GridFile   = "grid.json"
)

// Error reports a malformed or missing configuration input. Configuration errors are
// fatal to a whole simulation run.
type Error struct {
	File string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.File, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Site describes where the plant is located.
type Site struct {
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
	Altitude    float64     `json:"altitude"`
	TZ          string      `json:"tz"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location resolves the site's IANA timezone.
func (s Site) Location() (*time.Location, error) {
	if s.TZ == "" {
		return nil, fmt.Errorf("site has no timezone")
	}
	return time.LoadLocation(s.TZ)
}

// Solar returns the site's solar geometry.
func (s Site) Solar() solar.Location {
	return solar.Location{
		Latitude:  s.Coordinates.Lat,
		Longitude: s.Coordinates.Lon,
		Altitude:  s.Altitude,
	}
}

// ComponentDescriptor is the opaque module or inverter payload of plant.json. Origin
// selects how the electrical parameters are resolved (catalog lookup, custom inline
// payload, or a simplified AC model); the Model payload is passed through untouched for
// the component resolver to decode.
type ComponentDescriptor struct {
	Origin string                 `json:"origin"`
	Name   string                 `json:"name"`
	Model  map[string]interface{} `json:"model"`
}

// Mount describes the mechanical mounting of the modules.
type Mount struct {
	Type   string                 `json:"type"`
	Params map[string]interface{} `json:"params"`
}

// Plant is the PV setup shared by every array of the plant.
type Plant struct {
	Name     string              `json:"name"`
	Module   ComponentDescriptor `json:"module"`
	Inverter ComponentDescriptor `json:"inverter"`
	Mount    Mount               `json:"mount"`
}

// ArrayWiring holds the per-array electrical wiring.
type ArrayWiring struct {
	ModulesPerString   int `json:"modules_per_string"`
	StringsPerInverter int `json:"strings_per_inverter"`
}

// ReadSite loads site.json from the plant folder.
func ReadSite(dir string) (Site, error) {
	var site Site
	if err := readJSON(filepath.Join(dir, SiteFile), &site); err != nil {
		return Site{}, err
	}
	if site.TZ == "" {
		return Site{}, &Error{File: SiteFile, Err: fmt.Errorf("missing tz")}
	}
	return site, nil
}

// ReadPlant loads plant.json and validates that the module, inverter and mount needed to
// build any array are present.
func ReadPlant(dir string) (Plant, error) {
	var plant Plant
	if err := readJSON(filepath.Join(dir, PlantFile), &plant); err != nil {
		return Plant{}, err
	}
	if plant.Module.Origin == "" {
		return Plant{}, &Error{File: PlantFile, Err: fmt.Errorf("missing module origin")}
	}
	if plant.Inverter.Origin == "" {
		return Plant{}, &Error{File: PlantFile, Err: fmt.Errorf("missing inverter origin")}
	}
	if plant.Mount.Type == "" {
		return Plant{}, &Error{File: PlantFile, Err: fmt.Errorf("missing mount type")}
	}
	return plant, nil
}

// ReadArrays loads arrays.json. When the file is absent the plant defaults to a single
// array with one module per string and one string per inverter; found reports whether the
// file existed.
func ReadArrays(dir string) (arrays map[int]ArrayWiring, found bool, err error) {
	path := filepath.Join(dir, ArraysFile)
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return map[int]ArrayWiring{0: {ModulesPerString: 1, StringsPerInverter: 1}}, false, nil
	}

	var raw map[string]ArrayWiring
	if err := readJSON(path, &raw); err != nil {
		return nil, true, err
	}

	arrays = make(map[int]ArrayWiring, len(raw))
	for key, wiring := range raw {
		id, convErr := strconv.Atoi(key)
		if convErr != nil {
			return nil, true, &Error{File: ArraysFile, Err: fmt.Errorf("array id %q is not an integer", key)}
		}
		if wiring.ModulesPerString <= 0 {
			wiring.ModulesPerString = 1
		}
		if wiring.StringsPerInverter <= 0 {
			wiring.StringsPerInverter = 1
		}
		arrays[id] = wiring
	}
	return arrays, true, nil
}

// HasGrid reports whether the plant folder carries a grid description.
func HasGrid(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, GridFile))
	return err == nil
}

func readJSON(path string, v interface{}) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return &Error{File: filepath.Base(path), Err: err}
	}
	if err := json.Unmarshal(content, v); err != nil {
		return &Error{File: filepath.Base(path), Err: fmt.Errorf("unmarshal: %w", err)}
	}
	return nil
}
