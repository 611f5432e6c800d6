package config

import "sort"

// Presets reproduce the classic lesson runs, keyed by scenario then name.
var Presets = map[string]map[string]*Config{
	"projectile": {
		"euler": {
			Scenario: "projectile", Scheme: "euler", Dt: 0.1, Stop: "ground",
		},
		"midpoint": {
			Scenario: "projectile", Scheme: "midpoint", Dt: 0.1, Stop: "ground",
		},
		"steep": {
			Scenario: "projectile", Scheme: "rk4", Dt: 0.01, Stop: "ground",
			Init: []float64{0, 0, 5, 20},
		},
	},
	"pendulum": {
		"euler": {
			Scenario: "pendulum", Scheme: "euler", Dt: 0.025, Steps: 20,
		},
		"midpoint": {
			Scenario: "pendulum", Scheme: "midpoint", Dt: 0.025, Steps: 20,
		},
		"rk4": {
			Scenario: "pendulum", Scheme: "rk4", Dt: 0.025, Steps: 20,
		},
		"large": {
			Scenario: "pendulum", Scheme: "rk4", Dt: 0.01, Steps: 2000,
			Init: []float64{2.5, 0},
		},
	},
	"rolling": {
		"sphere": {
			Scenario: "rolling", Scheme: "midpoint", Dt: 0.05, Steps: 75,
		},
		"ball": {
			Scenario: "rolling", Scheme: "midpoint", Dt: 0.05, Stop: "bottom",
			Params: map[string]float64{"inertia": 0.4},
		},
	},
	"orbit": {
		"sun_earth": {
			Scenario: "orbit", Scheme: "midpoint", Dt: 3170, Steps: 10010,
		},
		"sun_earth_lagged": {
			Scenario: "orbit", Scheme: "midpoint_lagged", Dt: 3170, Steps: 10010,
		},
		"sun_earth_verlet": {
			Scenario: "orbit", Scheme: "verlet", Dt: 3170, Steps: 10010,
		},
	},
	"moon": {
		"earth_moon": {
			Scenario: "moon", Scheme: "midpoint", Dt: 3170, Steps: 1000,
		},
	},
	"string": {
		"fundamental": {
			Scenario: "string", Scheme: "midpoint", Dt: 0.2, Steps: 16,
		},
		"fine": {
			Scenario: "string", Scheme: "rk4", Dt: 0.02, Steps: 315,
			Params: map[string]float64{"points": 41},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scenario, preset string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the preset names of a scenario in sorted order.
func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
