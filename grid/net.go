package grid

import (
	"encoding/json"
	"fmt"
	"os"
)

// Net describes the plant's electrical network: buses, the lines between them, the static
// generators that the PV arrays feed into, local loads, and the external grid connection
// that balances the network.
type Net struct {
	Name     string    `json:"name"`
	Buses    []Bus     `json:"buses"`
	Lines    []Line    `json:"lines"`
	SGens    []SGen    `json:"sgens"`
	Loads    []Load    `json:"loads"`
	ExtGrids []ExtGrid `json:"ext_grids"`
}

type Bus struct {
	Index int     `json:"index"`
	Name  string  `json:"name"`
	VnKV  float64 `json:"vn_kv"`
}

type Line struct {
	Index    int     `json:"index"`
	Name     string  `json:"name"`
	FromBus  int     `json:"from_bus"`
	ToBus    int     `json:"to_bus"`
	LengthKM float64 `json:"length_km"`
}

// SGen is a static generator. Its index is the generator id that the per-array generation
// profile is keyed by.
type SGen struct {
	Index int     `json:"index"`
	Name  string  `json:"name"`
	Bus   int     `json:"bus"`
	PMW   float64 `json:"p_mw"`
}

type Load struct {
	Index int     `json:"index"`
	Name  string  `json:"name"`
	Bus   int     `json:"bus"`
	PMW   float64 `json:"p_mw"`
}

type ExtGrid struct {
	Index int     `json:"index"`
	Name  string  `json:"name"`
	Bus   int     `json:"bus"`
	VmPU  float64 `json:"vm_pu"`
}

// FromFile loads a network description from a JSON file.
func FromFile(path string) (*Net, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grid file: %w", err)
	}
	var net Net
	if err := json.Unmarshal(content, &net); err != nil {
		return nil, fmt.Errorf("unmarshal grid file: %w", err)
	}
	return &net, nil
}

// Validate checks the prerequisites for a power flow run and returns a list of error
// strings. An empty list means the network can be run.
func (n *Net) Validate() []string {
	var errs []string

	if len(n.Buses) == 0 {
		errs = append(errs, "network has no buses")
	}
	if len(n.ExtGrids) == 0 {
		errs = append(errs, "network has no external grid connection")
	}

	buses := make(map[int]bool, len(n.Buses))
	for _, b := range n.Buses {
		if buses[b.Index] {
			errs = append(errs, fmt.Sprintf("duplicate bus index %d", b.Index))
		}
		buses[b.Index] = true
	}
	for _, sg := range n.SGens {
		if !buses[sg.Bus] {
			errs = append(errs, fmt.Sprintf("sgen %d references unknown bus %d", sg.Index, sg.Bus))
		}
	}
	for _, ld := range n.Loads {
		if !buses[ld.Bus] {
			errs = append(errs, fmt.Sprintf("load %d references unknown bus %d", ld.Index, ld.Bus))
		}
	}
	for _, eg := range n.ExtGrids {
		if !buses[eg.Bus] {
			errs = append(errs, fmt.Sprintf("ext grid %d references unknown bus %d", eg.Index, eg.Bus))
		}
	}
	for _, ln := range n.Lines {
		if ln.FromBus == ln.ToBus {
			errs = append(errs, fmt.Sprintf("line %d connects bus %d to itself", ln.Index, ln.FromBus))
		}
		if !buses[ln.FromBus] || !buses[ln.ToBus] {
			errs = append(errs, fmt.Sprintf("line %d references an unknown bus", ln.Index))
		}
	}
	return errs
}
