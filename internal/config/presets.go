package config

import "sort"

var Presets = map[string]*Config{
	"classic": {
		Model:         "isothermal",
		Tank:          TankConfig{Height: 1.0, Diameter: 0.3, OutletDiameter: 0.02},
		Initial:       InitialConfig{Pressure: 2e5, FillRatio: 0.8},
		DtFactor:      0.01,
		FlowThreshold: DefaultFlowThreshold,
	},
	"reference": {
		Model:         "isothermal",
		Tank:          TankConfig{Height: 1.0, Diameter: 0.3, OutletDiameter: 0.02},
		Initial:       InitialConfig{Pressure: 2e5, Level: 0.5},
		DtFactor:      1e-4,
		FlowThreshold: DefaultFlowThreshold,
	},
	"bottle": {
		Model:         "isothermal",
		Tank:          TankConfig{Height: 1.0, Diameter: 0.09, OutletDiameter: 0.01},
		Initial:       InitialConfig{Pressure: 3e5, FillRatio: 0.33},
		DtFactor:      1e-5,
		FlowThreshold: DefaultFlowThreshold,
	},
	"bottle_adiabatic": {
		Model:         "adiabatic",
		Tank:          TankConfig{Height: 1.0, Diameter: 0.09, OutletDiameter: 0.01},
		Initial:       InitialConfig{Pressure: 3e5, FillRatio: 0.33},
		DtFactor:      1e-5,
		FlowThreshold: DefaultFlowThreshold,
	},
	"quick": {
		Model:         "adiabatic",
		Tank:          TankConfig{Height: 1.0, Diameter: 0.3, OutletDiameter: 0.02},
		Initial:       InitialConfig{Pressure: 4e5, FillRatio: 0.5},
		DtFactor:      1e-3,
		FlowThreshold: DefaultFlowThreshold,
		FinalTime:     30,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
