package solar

import (
	"math"
	"math/rand"

	timeutils "github.com/cepro/plantsim/time_utils"
)

// ConfigurationError reports an unusable environment input, such as an empty time index.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "environment configuration: " + e.Reason
}

// Environment is a lightweight synthetic environment model: given a site's solar geometry
// and a time index it derives solar position, extraterrestrial irradiance and a
// semi-empirical GHI/DNI/DHI triplet. The sky model is intentionally coarse, it stands in
// for real measurements when no weather feed is configured.
type Environment struct {
	Site  Location
	Index timeutils.TimeIndex

	Positions []Position
	DNIExtra  []float64

	// synthetic horizontal irradiance components, W/m², aligned to Index
	GHI []float64
	DNI []float64
	DHI []float64
}

// NewEnvironment computes the environment for every timestamp of the index.
func NewEnvironment(site Location, index timeutils.TimeIndex) (*Environment, error) {
	if index.Len() == 0 {
		return nil, &ConfigurationError{Reason: "time index must not be empty"}
	}

	n := index.Len()
	e := &Environment{
		Site:      site,
		Index:     index,
		Positions: make([]Position, n),
		DNIExtra:  make([]float64, n),
		GHI:       make([]float64, n),
		DNI:       make([]float64, n),
		DHI:       make([]float64, n),
	}
	for i, t := range index.Times {
		e.Positions[i] = PositionAt(t, site)
		e.DNIExtra[i] = ExtraRadiation(t)
	}
	e.computeIrradiance()
	return e, nil
}

// computeIrradiance derives the synthetic GHI/DNI/DHI triplet from solar position:
// GHI grows with apparent elevation and is capped at 1000 W/m², DNI follows from GHI
// through an airmass-dependent transmittance, and DHI is the horizontal residual.
func (e *Environment) computeIrradiance() {
	for i, pos := range e.Positions {
		elevRad := degToRad(math.Max(pos.ApparentElevation, 0))
		ghi := clip(1000*math.Sin(elevRad), 0, 1000)

		// clip the zenith below the horizon so the airmass and the cosine stay finite
		zenithClipped := math.Min(pos.Zenith, 89.9)
		airmass := RelativeAirmass(zenithClipped)
		transmittance := math.Min(math.Exp(-0.14*(airmass-1)), 1)

		dni := clip(ghi/math.Cos(degToRad(zenithClipped))*transmittance, 0, 1000)
		dhi := math.Max(ghi-dni*math.Cos(degToRad(pos.Zenith)), 0)

		e.GHI[i] = ghi
		e.DNI[i] = dni
		e.DHI[i] = dhi
	}
}

// Weather is a synthetic weather frame aligned to the environment's time index.
type Weather struct {
	Index     timeutils.TimeIndex
	GHI       []float64
	DNI       []float64
	DHI       []float64
	TempAir   []float64 // °C
	WindSpeed []float64 // m/s
}

// Weather assembles the synthetic weather frame.
//
// The tempAir argument is accepted for interface compatibility but is deliberately inert:
// air temperature always follows the seasonal profile 20 + 10*sin(2π*(doy-80)/365).
// windSpeed is passed through unchanged for every timestamp. seed currently only primes a
// reserved random source for a future stochastic wind model, it has no effect on the output.
func (e *Environment) Weather(tempAir, windSpeed float64, seed int64) Weather {
	rng := rand.New(rand.NewSource(seed))
	_ = rng // reserved for stochastic wind sampling

	n := e.Index.Len()
	temp := make([]float64, n)
	wind := make([]float64, n)
	for i, t := range e.Index.Times {
		doy := float64(t.YearDay())
		temp[i] = 20 + 10*math.Sin(2*math.Pi*(doy-80)/365)
		wind[i] = windSpeed
	}

	return Weather{
		Index:     e.Index,
		GHI:       e.GHI,
		DNI:       e.DNI,
		DHI:       e.DHI,
		TempAir:   temp,
		WindSpeed: wind,
	}
}

func clip(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}
