package simulator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cepro/plantsim/config"
	"github.com/cepro/plantsim/pvmodel"
	timeutils "github.com/cepro/plantsim/time_utils"
)

const testSiteJSON = `{
	"name": "Test Site",
	"coordinates": {"lat": 45.0, "lon": 9.0},
	"altitude": 120,
	"tz": "Europe/Rome"
}`

const testPlantJSON = `{
	"name": "Test Plant",
	"module": {"origin": "cecmod", "name": "Canadian_Solar_CS5P_220M"},
	"inverter": {"origin": "sandiainverter", "name": "SMA_America_SB5000US"},
	"mount": {"type": "fixed", "params": {"tilt": 30, "azimuth": 180}}
}`

const testArraysJSON = `{
	"1": {"modules_per_string": 2, "strings_per_inverter": 1},
	"2": {"modules_per_string": 10, "strings_per_inverter": 2}
}`

// testGridJSON matches the array ids of testArraysJSON: one sgen per array.
const testGridJSON = `{
	"name": "test grid",
	"buses": [{"index": 0, "vn_kv": 20}, {"index": 1, "vn_kv": 0.4}],
	"lines": [{"index": 0, "from_bus": 0, "to_bus": 1, "length_km": 0.5}],
	"sgens": [{"index": 1, "bus": 1}, {"index": 2, "bus": 1}],
	"ext_grids": [{"index": 0, "bus": 0, "vm_pu": 1.0}]
}`

func writePlantDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Could not write %s: %v", name, err)
		}
	}
	return dir
}

func testTimes(t *testing.T) *timeutils.TimeIndex {
	t.Helper()
	base := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, 24)
	for i := range times {
		times[i] = base.Add(time.Duration(i) * time.Hour)
	}
	index, err := timeutils.New(times, "test_day")
	require.NoError(t, err)
	return &index
}

func TestRunFailsOnMissingConfiguration(t *testing.T) {

	sim := New(t.TempDir())
	assert.False(t, sim.Run(nil), "a loading failure is fatal")
}

func TestRunFailsFatallyOnUnsupportedInverter(t *testing.T) {

	// the inverter is plant-level configuration shared by every array: an unsupported
	// cecinverter must fail the whole run during loading, not skip arrays one by one
	plantJSON := `{
		"name": "Test Plant",
		"module": {"origin": "cecmod", "name": "Canadian_Solar_CS5P_220M"},
		"inverter": {"origin": "cecinverter", "name": "ABB_MICRO_0_25_I_OUTD_US_208"},
		"mount": {"type": "fixed", "params": {"tilt": 30, "azimuth": 180}}
	}`
	dir := writePlantDir(t, map[string]string{
		config.SiteFile:   testSiteJSON,
		config.PlantFile:  plantJSON,
		config.ArraysFile: testArraysJSON,
	})

	sim := New(dir)
	assert.False(t, sim.Run(testTimes(t)))

	// the run never reached the per-array loop
	assert.Empty(t, sim.Statuses())
	_, statErr := os.Stat(sim.ResultPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunIsolatesPerArrayFailures(t *testing.T) {

	dir := writePlantDir(t, map[string]string{
		config.SiteFile:   testSiteJSON,
		config.PlantFile:  testPlantJSON,
		config.ArraysFile: testArraysJSON,
	})

	sim := New(dir)

	// array 1 (modules_per_string 2) fails to build, array 2 succeeds
	defaultBuild := sim.buildModel
	sim.buildModel = func(plant config.Plant, wiring config.ArrayWiring) (*pvmodel.Model, error) {
		if wiring.ModulesPerString == 2 {
			return nil, fmt.Errorf("forced build failure")
		}
		return defaultBuild(plant, wiring)
	}

	assert.True(t, sim.Run(testTimes(t)), "one array's failure must not fail the run")

	// only array 2's rows made it into the cumulative table
	table := sim.Table()
	require.NoError(t, table.Err)
	require.Greater(t, table.Nrow(), 0)
	for _, rec := range table.Col("array_id").Records() {
		assert.Equal(t, "2", rec)
	}

	// exactly one array-level error was recorded
	statuses := sim.Statuses()
	require.Len(t, statuses, 2)
	failed := 0
	for _, status := range statuses {
		if !status.OK() {
			failed++
			assert.Equal(t, 1, status.ArrayID)
		}
	}
	assert.Equal(t, 1, failed)

	summary := sim.Summary()
	assert.Equal(t, 2, summary.Arrays)
	assert.Equal(t, 1, summary.Simulated)
	assert.Equal(t, 1, summary.Skipped)
}

func TestRunWithoutGridHasNoGridColumns(t *testing.T) {

	dir := writePlantDir(t, map[string]string{
		config.SiteFile:   testSiteJSON,
		config.PlantFile:  testPlantJSON,
		config.ArraysFile: testArraysJSON,
	})

	sim := New(dir)
	require.True(t, sim.Run(testTimes(t)))

	assert.False(t, sim.Summary().GridMerged)
	for _, name := range sim.Table().Names() {
		assert.False(t, strings.HasPrefix(name, "("), "unexpected grid column %q", name)
	}

	// the cumulative table was persisted
	_, err := os.Stat(sim.ResultPath())
	assert.NoError(t, err)
}

func TestRunMergesGridVariables(t *testing.T) {

	dir := writePlantDir(t, map[string]string{
		config.SiteFile:   testSiteJSON,
		config.PlantFile:  testPlantJSON,
		config.ArraysFile: testArraysJSON,
		config.GridFile:   testGridJSON,
	})

	sim := New(dir)
	require.True(t, sim.Run(testTimes(t)))

	assert.True(t, sim.Summary().GridMerged)
	assert.Contains(t, sim.Table().Names(), "(res_ext_grid, p_mw, 0)")
	assert.Contains(t, sim.Table().Names(), "(res_sgen, p_mw, 1)")
}

func TestRunKeepsPVResultsWhenGridErrors(t *testing.T) {

	// a grid without an external connection fails validation
	brokenGrid := `{
		"name": "broken",
		"buses": [{"index": 0, "vn_kv": 20}],
		"sgens": [{"index": 1, "bus": 0}, {"index": 2, "bus": 0}]
	}`
	dir := writePlantDir(t, map[string]string{
		config.SiteFile:   testSiteJSON,
		config.PlantFile:  testPlantJSON,
		config.ArraysFile: testArraysJSON,
		config.GridFile:   brokenGrid,
	})

	sim := New(dir)
	require.True(t, sim.Run(testTimes(t)), "a grid failure must not fail the run")

	assert.False(t, sim.Summary().GridMerged)
	table := sim.Table()
	require.Greater(t, table.Nrow(), 0, "PV-only rows must survive a failed grid run")
	for _, name := range table.Names() {
		assert.False(t, strings.HasPrefix(name, "("), "unexpected grid column %q", name)
	}
}

func TestRunWarnsOnEmptyResults(t *testing.T) {

	dir := writePlantDir(t, map[string]string{
		config.SiteFile:  testSiteJSON,
		config.PlantFile: testPlantJSON,
	})

	sim := New(dir)
	sim.buildModel = func(config.Plant, config.ArrayWiring) (*pvmodel.Model, error) {
		return nil, fmt.Errorf("forced build failure")
	}

	assert.True(t, sim.Run(testTimes(t)), "the run contract is about configuration, not array success")
	assert.Equal(t, 0, sim.Summary().Rows)

	// nothing was persisted
	_, statErr := os.Stat(sim.ResultPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunDefaultsTimesToHourlyYear(t *testing.T) {

	dir := writePlantDir(t, map[string]string{
		config.SiteFile:  testSiteJSON,
		config.PlantFile: testPlantJSON,
	})

	sim := New(dir)
	// skip the model work, this test is about the default time index
	sim.buildModel = func(config.Plant, config.ArrayWiring) (*pvmodel.Model, error) {
		return nil, fmt.Errorf("skip")
	}
	require.True(t, sim.Run(nil))
	assert.Equal(t, timeutils.DefaultPeriodName, sim.Summary().Period)
}
