package pvmodel

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/cepro/plantsim/cartesian"
	"github.com/cepro/plantsim/config"
)

// ModuleParams holds the simplified electrical model of one PV module.
type ModuleParams struct {
	Name     string  `mapstructure:"name"`
	PDC0     float64 `mapstructure:"pdc0"`      // nameplate DC power at STC, W
	GammaPDC float64 `mapstructure:"gamma_pdc"` // power temperature coefficient, 1/°C
	VMP0     float64 `mapstructure:"v_mp"`      // maximum power point voltage at STC, V
	NOCT     float64 `mapstructure:"noct"`      // nominal operating cell temperature, °C
}

// InverterParams holds the simplified AC conversion model of one inverter. When EtaCurve is
// set the conversion efficiency is interpolated from it at the DC load ratio, otherwise the
// flat nominal Eta applies.
type InverterParams struct {
	Name     string          `mapstructure:"name"`
	PAC0     float64         `mapstructure:"pac0"` // AC nameplate power, W
	Eta      float64         `mapstructure:"eta"`  // nominal conversion efficiency
	EtaCurve cartesian.Curve `mapstructure:"eta_curve"`
}

// moduleCatalog stands in for an external component database, keyed by origin then name.
var moduleCatalog = map[string]map[string]ModuleParams{
	"cecmod": {
		"Canadian_Solar_CS5P_220M": {Name: "Canadian_Solar_CS5P_220M", PDC0: 220, GammaPDC: -0.0045, VMP0: 48.3, NOCT: 46},
		"Trina_TSM_300DEG5C":       {Name: "Trina_TSM_300DEG5C", PDC0: 300, GammaPDC: -0.0039, VMP0: 32.6, NOCT: 44},
	},
	"sandiamod": {
		"SunPower_SPR_E20_327": {Name: "SunPower_SPR_E20_327", PDC0: 327, GammaPDC: -0.0035, VMP0: 54.7, NOCT: 45},
	},
}

var inverterCatalog = map[string]map[string]InverterParams{
	"sandiainverter": {
		"ABB_MICRO_0_25_I_OUTD_US_208": {Name: "ABB_MICRO_0_25_I_OUTD_US_208", PAC0: 250, Eta: 0.96},
		"SMA_America_SB5000US":         {Name: "SMA_America_SB5000US", PAC0: 5000, Eta: 0.97},
	},
}

// ResolveModule turns an opaque module descriptor into electrical parameters: either a
// catalog lookup by origin/name or a custom inline payload.
func ResolveModule(d config.ComponentDescriptor) (ModuleParams, error) {
	origin := strings.ToLower(d.Origin)

	if origin == "custom" {
		var params ModuleParams
		if err := decodePayload(d, &params); err != nil {
			return ModuleParams{}, fmt.Errorf("custom module: %w", err)
		}
		if params.PDC0 <= 0 {
			return ModuleParams{}, fmt.Errorf("custom module: pdc0 must be positive")
		}
		return params, nil
	}

	catalog, ok := moduleCatalog[origin]
	if !ok {
		return ModuleParams{}, fmt.Errorf("unknown module origin %q", d.Origin)
	}
	params, ok := catalog[d.Name]
	if !ok {
		return ModuleParams{}, fmt.Errorf("module %q not found in %s database", d.Name, d.Origin)
	}
	return params, nil
}

// ResolveInverter turns an opaque inverter descriptor into conversion parameters.
// AC-side catalog inverter models are a documented unsupported combination and fail fast
// here rather than being attempted.
func ResolveInverter(d config.ComponentDescriptor) (InverterParams, error) {
	origin := strings.ToLower(d.Origin)

	if origin == "cecinverter" {
		return InverterParams{}, fmt.Errorf("cecinverter models are not supported, use a pvwatts or custom inverter")
	}

	if origin == "custom" || origin == "pvwatts" {
		var params InverterParams
		if err := decodePayload(d, &params); err != nil {
			return InverterParams{}, fmt.Errorf("%s inverter: %w", origin, err)
		}
		if params.PAC0 <= 0 {
			return InverterParams{}, fmt.Errorf("%s inverter: pac0 must be positive", origin)
		}
		if params.Eta <= 0 || params.Eta > 1 {
			params.Eta = 0.96
		}
		return params, nil
	}

	catalog, ok := inverterCatalog[origin]
	if !ok {
		return InverterParams{}, fmt.Errorf("unknown inverter origin %q", d.Origin)
	}
	params, ok := catalog[d.Name]
	if !ok {
		return InverterParams{}, fmt.Errorf("inverter %q not found in %s database", d.Name, d.Origin)
	}
	return params, nil
}

// MountConfig is the resolved mechanical mounting of the modules.
type MountConfig struct {
	Type    string
	Tilt    float64 `mapstructure:"tilt"`    // degrees from horizontal
	Azimuth float64 `mapstructure:"azimuth"` // degrees clockwise from north
}

// ResolveMount decodes the mount descriptor. Only fixed mounts are supported.
func ResolveMount(m config.Mount) (MountConfig, error) {
	if strings.ToLower(m.Type) != "fixed" {
		return MountConfig{}, fmt.Errorf("unsupported mount type %q", m.Type)
	}
	mount := MountConfig{Type: "fixed"}
	if err := mapstructure.Decode(m.Params, &mount); err != nil {
		return MountConfig{}, fmt.Errorf("decode mount params: %w", err)
	}
	if mount.Tilt < 0 || mount.Tilt > 90 {
		return MountConfig{}, fmt.Errorf("mount tilt %v out of range [0, 90]", mount.Tilt)
	}
	return mount, nil
}

func decodePayload(d config.ComponentDescriptor, out interface{}) error {
	if d.Model == nil {
		return fmt.Errorf("missing model payload")
	}
	if err := mapstructure.Decode(d.Model, out); err != nil {
		return fmt.Errorf("decode model payload: %w", err)
	}
	return nil
}
