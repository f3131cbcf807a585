package config

import "sort"

var Presets = map[string]*Config{
	"baseline": {
		EntropyScale: 1.0, LengthScale: 10.0, FlowConstant: 1.0, VelocityScale: 1.0,
		GridResolution: 100, Derivative: "analytic",
	},
	"dwarf": {
		EntropyScale: 0.6, LengthScale: 2.0, FlowConstant: 0.4, VelocityScale: 60.0,
		GridResolution: 80, GridMaxRadius: 10.0, Derivative: "analytic",
	},
	"spiral": {
		EntropyScale: 0.9, LengthScale: 8.0, FlowConstant: 2.5, VelocityScale: 220.0,
		GridResolution: 200, GridMaxRadius: 40.0, Derivative: "analytic",
	},
	"overturned": {
		EntropyScale: 2.5, LengthScale: 5.0, FlowConstant: 1.0, VelocityScale: 1.0,
		GridResolution: 150, GridMaxRadius: 60.0, Derivative: "analytic",
	},
}

// GetPreset returns a copy of the named preset, or nil when it is unknown.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
