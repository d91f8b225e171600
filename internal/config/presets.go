package config

import "sort"

// presets reproduce the three classic runs: a stable weave at 4.6 m/s, a
// slowly growing weave at 4.1 m/s and a damped run at 6 m/s.
var presets = map[string]float64{
	"fig1": 4.6,
	"fig2": 4.1,
	"fig3": 6.0,
}

// Preset returns a fresh copy of a named preset, or nil.
func Preset(name string) *Config {
	speed, ok := presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Name = name
	cfg.Initial.Speed = speed
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
