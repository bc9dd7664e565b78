package pvmodel

import (
	"fmt"
	"math"

	"github.com/cepro/plantsim/config"
	"github.com/cepro/plantsim/results"
	"github.com/cepro/plantsim/solar"
)

// stcIrradiance is the reference plane-of-array irradiance in W/m² that the module's
// nameplate power is quoted at.
const stcIrradiance = 1000.0

// stcCellTemp is the reference cell temperature in °C.
const stcCellTemp = 25.0

// Model is the handle for one array's electrical model: the resolved components plus the
// array's wiring. Built once per array, executed once per run.
type Model struct {
	Name     string
	Module   ModuleParams
	Inverter InverterParams
	Mount    MountConfig

	ModulesPerString   int
	StringsPerInverter int
}

// ResolveComponents resolves a plant's module, inverter and mount descriptors. The
// components are plant-level configuration shared by every array, so an unresolvable
// descriptor (including the unsupported cecinverter origin) fails the whole plant, not a
// single array.
func ResolveComponents(plant config.Plant) (ModuleParams, InverterParams, MountConfig, error) {
	module, err := ResolveModule(plant.Module)
	if err != nil {
		return ModuleParams{}, InverterParams{}, MountConfig{}, fmt.Errorf("resolve module: %w", err)
	}
	inverter, err := ResolveInverter(plant.Inverter)
	if err != nil {
		return ModuleParams{}, InverterParams{}, MountConfig{}, fmt.Errorf("resolve inverter: %w", err)
	}
	mount, err := ResolveMount(plant.Mount)
	if err != nil {
		return ModuleParams{}, InverterParams{}, MountConfig{}, fmt.Errorf("resolve mount: %w", err)
	}
	return module, inverter, mount, nil
}

// Build resolves the plant's opaque component descriptors and couples them with one
// array's wiring into an executable model handle.
func Build(plant config.Plant, wiring config.ArrayWiring) (*Model, error) {
	module, inverter, mount, err := ResolveComponents(plant)
	if err != nil {
		return nil, err
	}

	modulesPerString := wiring.ModulesPerString
	if modulesPerString <= 0 {
		modulesPerString = 1
	}
	strings := wiring.StringsPerInverter
	if strings <= 0 {
		strings = 1
	}

	return &Model{
		Name:               plant.Name,
		Module:             module,
		Inverter:           inverter,
		Mount:              mount,
		ModulesPerString:   modulesPerString,
		StringsPerInverter: strings,
	}, nil
}

// Execute runs the model over the weather frame and returns the result bundle: a DC-stage
// sub-table (p_mp, v_mp, i_mp), an AC-stage sub-table (p_mp), the effective irradiance and
// cell temperature sub-series, and a copy of the weather input. The caller is free to
// inspect the bundle by role, no fixed schema is promised beyond the stage tags.
func (m *Model) Execute(env *solar.Environment, weather solar.Weather) (results.Bundle, error) {
	n := weather.Index.Len()
	if n == 0 {
		return results.Bundle{}, fmt.Errorf("execute model: empty weather frame")
	}
	if env.Index.Len() != n {
		return results.Bundle{}, fmt.Errorf("execute model: weather frame and environment are misaligned")
	}

	poa := env.POA(m.Mount.Tilt, m.Mount.Azimuth)

	moduleCount := float64(m.ModulesPerString * m.StringsPerInverter)

	effective := make([]float64, n)
	cellTemp := make([]float64, n)
	dcP := make([]float64, n)
	dcV := make([]float64, n)
	dcI := make([]float64, n)
	acP := make([]float64, n)

	for i := 0; i < n; i++ {
		effective[i] = poa.Global[i]

		// NOCT cell temperature model
		cellTemp[i] = weather.TempAir[i] + (m.Module.NOCT-20)/800*poa.Global[i]

		// PVWatts-style temperature-corrected DC power
		perModule := m.Module.PDC0 * (poa.Global[i] / stcIrradiance) *
			(1 + m.Module.GammaPDC*(cellTemp[i]-stcCellTemp))
		dcP[i] = math.Max(perModule, 0) * moduleCount

		dcV[i] = m.Module.VMP0 * float64(m.ModulesPerString)
		if dcV[i] > 0 {
			dcI[i] = dcP[i] / dcV[i]
		}

		acP[i] = m.acPower(dcP[i])
	}

	index := weather.Index
	var bundle results.Bundle
	bundle.AddTable("dc", results.StageDC, index,
		results.Column{Name: "p_mp", Values: dcP},
		results.Column{Name: "v_mp", Values: dcV},
		results.Column{Name: "i_mp", Values: dcI},
	)
	bundle.AddTable("ac", results.StageAC, index,
		results.Column{Name: "p_mp", Values: acP},
	)
	bundle.AddSeries("effective_irradiance", index, effective)
	bundle.AddSeries("cell_temperature", index, cellTemp)
	bundle.AddTable("weather", results.StageNone, index,
		results.Column{Name: "ghi", Values: weather.GHI},
		results.Column{Name: "dni", Values: weather.DNI},
		results.Column{Name: "dhi", Values: weather.DHI},
		results.Column{Name: "temp_air", Values: weather.TempAir},
		results.Column{Name: "wind_speed", Values: weather.WindSpeed},
	)
	return bundle, nil
}

// acPower converts DC power to AC: efficiency from the part-load curve when one is
// configured, flat nominal efficiency otherwise, clipped at the inverter's nameplate.
func (m *Model) acPower(dcP float64) float64 {
	eta := m.Inverter.Eta
	if len(m.Inverter.EtaCurve.Points) >= 2 && m.Inverter.PAC0 > 0 {
		loadRatio := dcP / m.Inverter.PAC0
		if v := m.Inverter.EtaCurve.ValueAt(loadRatio); !math.IsNaN(v) {
			eta = v
		}
	}
	ac := dcP * eta
	if m.Inverter.PAC0 > 0 && ac > m.Inverter.PAC0 {
		ac = m.Inverter.PAC0
	}
	return ac
}
