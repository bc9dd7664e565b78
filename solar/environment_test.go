package solar

import (
	"errors"
	"math"
	"testing"
	"time"

	timeutils "github.com/cepro/plantsim/time_utils"
)

var testSite = Location{Latitude: 45.0, Longitude: 9.0, Altitude: 120}

func hourlyDay(t *testing.T, day time.Time, hours int) timeutils.TimeIndex {
	times := make([]time.Time, hours)
	for i := range times {
		times[i] = day.Add(time.Duration(i) * time.Hour)
	}
	index, err := timeutils.New(times, "test_day")
	if err != nil {
		t.Fatalf("Could not build time index: %v", err)
	}
	return index
}

func TestEnvironmentRequiresNonEmptyIndex(t *testing.T) {
	_, err := NewEnvironment(testSite, timeutils.TimeIndex{})
	if err == nil {
		t.Fatal("Expected an error for an empty time index")
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected a ConfigurationError, got %T: %v", err, err)
	}
}

func TestIrradianceBounds(t *testing.T) {

	// a full year, hourly, covers every combination of day length and sun height
	index := hourlyDay(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 365*24)
	env, err := NewEnvironment(testSite, index)
	if err != nil {
		t.Fatalf("Could not build environment: %v", err)
	}

	for i := range index.Times {
		if env.GHI[i] < 0 || env.GHI[i] > 1000 {
			t.Fatalf("GHI out of [0, 1000] at %v: %v", index.Times[i], env.GHI[i])
		}
		if env.DNI[i] < 0 || env.DNI[i] > 1000 {
			t.Fatalf("DNI out of [0, 1000] at %v: %v", index.Times[i], env.DNI[i])
		}
		if env.DHI[i] < 0 {
			t.Fatalf("DHI negative at %v: %v", index.Times[i], env.DHI[i])
		}
	}
}

func TestNightHasNoIrradiance(t *testing.T) {

	index := hourlyDay(t, time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC), 24)
	env, err := NewEnvironment(testSite, index)
	if err != nil {
		t.Fatalf("Could not build environment: %v", err)
	}

	night := 0
	for i, pos := range env.Positions {
		if pos.ApparentElevation > 0 {
			continue
		}
		night++
		if env.GHI[i] != 0 {
			t.Errorf("GHI not zero below the horizon at %v: %v", index.Times[i], env.GHI[i])
		}
		if env.DNI[i] != 0 {
			t.Errorf("DNI not zero below the horizon at %v: %v", index.Times[i], env.DNI[i])
		}
	}
	if night == 0 {
		t.Fatal("Expected at least one night hour in a 24h window")
	}
}

func TestWeatherIsDeterministic(t *testing.T) {

	index := hourlyDay(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 48)
	env, err := NewEnvironment(testSite, index)
	if err != nil {
		t.Fatalf("Could not build environment: %v", err)
	}

	first := env.Weather(25, 1, 42)
	second := env.Weather(25, 1, 42)
	for i := range first.TempAir {
		if first.TempAir[i] != second.TempAir[i] {
			t.Fatalf("temp_air differs between identical calls at position %d", i)
		}
	}
}

func TestWeatherIgnoresTempAirArgument(t *testing.T) {

	index := hourlyDay(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 24)
	env, err := NewEnvironment(testSite, index)
	if err != nil {
		t.Fatalf("Could not build environment: %v", err)
	}

	// the tempAir argument is documented as inert: the seasonal profile always wins
	weather := env.Weather(99, 3, 7)
	for i, ts := range index.Times {
		doy := float64(ts.YearDay())
		want := 20 + 10*math.Sin(2*math.Pi*(doy-80)/365)
		if math.Abs(weather.TempAir[i]-want) > 1e-9 {
			t.Fatalf("temp_air at %v: got %v, want seasonal %v", ts, weather.TempAir[i], want)
		}
		if weather.WindSpeed[i] != 3 {
			t.Fatalf("wind_speed at %v: got %v, want passthrough 3", ts, weather.WindSpeed[i])
		}
	}
}

func TestPOAIsNonNegativeAndBounded(t *testing.T) {

	index := hourlyDay(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 24)
	env, err := NewEnvironment(testSite, index)
	if err != nil {
		t.Fatalf("Could not build environment: %v", err)
	}

	poa := env.POA(30, 180)
	for i := range index.Times {
		if poa.Global[i] < 0 || poa.Direct[i] < 0 || poa.SkyDiffuse[i] < 0 || poa.GroundDiffuse[i] < 0 {
			t.Fatalf("negative POA component at %v", index.Times[i])
		}
		sum := poa.Direct[i] + poa.SkyDiffuse[i] + poa.GroundDiffuse[i]
		if math.Abs(poa.Global[i]-sum) > 1e-9 {
			t.Fatalf("POA global is not the sum of its components at %v", index.Times[i])
		}
	}
}

func TestRelativeAirmassAtZenith(t *testing.T) {
	am := RelativeAirmass(0)
	if math.Abs(am-1.0) > 0.01 {
		t.Fatalf("airmass at zenith 0: got %v, want ~1", am)
	}
	if RelativeAirmass(60) <= am {
		t.Fatal("airmass should grow with zenith angle")
	}
}
