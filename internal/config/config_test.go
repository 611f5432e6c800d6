package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/dynstep/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scenario != "pendulum" {
		t.Errorf("expected scenario pendulum, got %s", cfg.Scenario)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no scenario", func(c *Config) { c.Scenario = "" }},
		{"no scheme", func(c *Config) { c.Scheme = "" }},
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"inf dt", func(c *Config) { c.Dt = math.Inf(1) }},
		{"negative steps", func(c *Config) { c.Steps = -5 }},
		{"nan init", func(c *Config) { c.Init = []float64{0, math.NaN()} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := GetPreset("rolling", "ball")
	cfg.Output.States = "states.csv"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Scenario != "rolling" || loaded.Stop != "bottom" {
		t.Errorf("unexpected round trip: %+v", loaded)
	}
	if loaded.Params["inertia"] != 0.4 {
		t.Errorf("expected inertia 0.4, got %v", loaded.Params)
	}
	if loaded.Output.States != "states.csv" {
		t.Errorf("expected states output, got %q", loaded.Output.States)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("scenario: orbit\ndt: 3170\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scheme != DefaultScheme || cfg.Steps != DefaultSteps {
		t.Errorf("expected defaults for unset fields, got %+v", cfg)
	}
	if cfg.Dt != 3170 {
		t.Errorf("expected dt 3170, got %f", cfg.Dt)
	}
}

func TestLoadOverPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("steps: 40\nparams:\n  mass: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	base := GetPreset("pendulum", "midpoint")
	if base == nil {
		t.Fatal("missing pendulum midpoint preset")
	}
	base.Params = map[string]float64{"length": 2}

	cfg, err := LoadOver(path, base)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Steps != 40 {
		t.Errorf("expected file steps 40, got %d", cfg.Steps)
	}
	if cfg.Dt != base.Dt || cfg.Scheme != base.Scheme {
		t.Errorf("expected preset dt and scheme, got dt=%g scheme=%s", cfg.Dt, cfg.Scheme)
	}
	if cfg.Params["length"] != 2 || cfg.Params["mass"] != 3 {
		t.Errorf("expected merged params, got %v", cfg.Params)
	}
	if _, ok := base.Params["mass"]; ok {
		t.Error("LoadOver modified its base")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("dt: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("pendulum", "midpoint")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Dt != 0.025 || cfg.Steps != 20 {
		t.Errorf("expected dt 0.025 x 20, got %f x %d", cfg.Dt, cfg.Steps)
	}
}

func TestGetPresetIsACopy(t *testing.T) {
	cfg := GetPreset("rolling", "ball")
	cfg.Params["inertia"] = 1
	cfg.Dt = 1

	again := GetPreset("rolling", "ball")
	if again.Params["inertia"] != 0.4 || again.Dt != 0.05 {
		t.Error("modifying a preset copy changed the preset")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("pendulum", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "small") != nil {
		t.Error("expected nil for nonexistent scenario")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("pendulum")
	want := []string{"euler", "large", "midpoint", "rk4"}
	if len(presets) != len(want) {
		t.Fatalf("expected %v, got %v", want, presets)
	}
	for i := range want {
		if presets[i] != want[i] {
			t.Errorf("expected %v, got %v", want, presets)
		}
	}

	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent scenario")
	}
}

func TestPresetsValidate(t *testing.T) {
	for scenario, presets := range Presets {
		for name, cfg := range presets {
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", scenario, name, err)
			}
			if cfg.Scenario != scenario {
				t.Errorf("%s/%s: scenario field is %q", scenario, name, cfg.Scenario)
			}
		}
	}
}
