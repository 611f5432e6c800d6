package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynstep/internal/dynamo"
)

const (
	DefaultScenario = "pendulum"
	DefaultScheme   = "rk4"
	DefaultDt       = 0.01
	DefaultSteps    = 1000
)

// Config describes one run. Init and Params override the scenario defaults
// when present.
type Config struct {
	Scenario string             `yaml:"scenario"`
	Scheme   string             `yaml:"scheme"`
	Dt       float64            `yaml:"dt"`
	Steps    int                `yaml:"steps"`
	Stop     string             `yaml:"stop,omitempty"`
	Init     []float64          `yaml:"init,omitempty"`
	Params   map[string]float64 `yaml:"params,omitempty"`
	Output   OutputConfig       `yaml:"output,omitempty"`
}

// OutputConfig names the CSV files written during a run. Empty means skip.
type OutputConfig struct {
	States   string `yaml:"states,omitempty"`
	Energies string `yaml:"energies,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario: DefaultScenario,
		Scheme:   DefaultScheme,
		Dt:       DefaultDt,
		Steps:    DefaultSteps,
	}
}

// Load reads a YAML run file on top of DefaultConfig.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML run file on top of base, which is left untouched.
// Fields absent from the file keep base's values and params are merged.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that do not depend on the scenario registry.
func (c *Config) Validate() error {
	switch {
	case c.Scenario == "":
		return fmt.Errorf("%w: scenario is required", dynamo.ErrInvalidConfig)
	case c.Scheme == "":
		return fmt.Errorf("%w: scheme is required", dynamo.ErrInvalidConfig)
	case c.Dt <= 0 || math.IsNaN(c.Dt) || math.IsInf(c.Dt, 0):
		return fmt.Errorf("%w: dt must be positive and finite, got %g", dynamo.ErrInvalidConfig, c.Dt)
	case c.Steps < 0:
		return fmt.Errorf("%w: steps must not be negative, got %d", dynamo.ErrInvalidConfig, c.Steps)
	}
	for i, v := range c.Init {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: init[%d] is not finite", dynamo.ErrInvalidConfig, i)
		}
	}
	return nil
}

// Clone returns a deep copy so presets can be modified safely.
func (c *Config) Clone() *Config {
	out := *c
	if c.Init != nil {
		out.Init = append([]float64(nil), c.Init...)
	}
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	return &out
}
