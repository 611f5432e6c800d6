package experiment

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynstep/internal/config"
	"github.com/san-kum/dynstep/internal/dynamo"
	"github.com/san-kum/dynstep/internal/physics"
)

func TestRegistryScenarios(t *testing.T) {
	reg := NewRegistry()
	names := reg.ListScenarios()
	assert.Equal(t, []string{"decay", "moon", "orbit", "oscillator", "pendulum", "projectile", "rolling", "string"}, names)

	for _, name := range names {
		sys, err := reg.GetSystem(name)
		require.NoError(t, err, name)

		d, ok := sys.(Defaulter)
		require.True(t, ok, "%s has no default state", name)
		assert.Len(t, d.DefaultState(), sys.Dim(), name)

		s, _ := reg.GetScenario(name)
		if s.Labels != nil {
			assert.Len(t, s.Labels, sys.Dim(), name)
		}
	}

	_, err := reg.GetSystem("cartpole")
	assert.Error(t, err)
}

func TestRegistrySteppersAreFresh(t *testing.T) {
	reg := NewRegistry()
	a, err := reg.GetStepper("midpoint_lagged")
	require.NoError(t, err)
	b, err := reg.GetStepper("midpoint_lagged")
	require.NoError(t, err)
	assert.NotSame(t, a, b)

	_, err = reg.GetStepper("rk45")
	assert.Error(t, err)
}

func TestRegistryStops(t *testing.T) {
	reg := NewRegistry()
	sys, _ := reg.GetSystem("rolling")

	stop, err := reg.GetStop("rolling", "bottom", sys)
	require.NoError(t, err)
	length := sys.(*physics.RollingDisk).SlopeLength()
	assert.True(t, stop(dynamo.State{length, 0, 0, 0}, 0))
	assert.False(t, stop(dynamo.State{length / 2, 0, 0, 0}, 0))

	stop, err = reg.GetStop("rolling", "", sys)
	require.NoError(t, err)
	assert.Nil(t, stop)

	_, err = reg.GetStop("pendulum", "ground", sys)
	assert.Error(t, err)
}

func TestDefaultMetrics(t *testing.T) {
	reg := NewRegistry()

	sys, _ := reg.GetSystem("pendulum")
	assert.Len(t, reg.DefaultMetrics("pendulum", sys), 3)

	sys, _ = reg.GetSystem("decay")
	assert.Len(t, reg.DefaultMetrics("decay", sys), 1)
}

func TestExperimentProjectilePreset(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := config.GetPreset("projectile", "midpoint")
	exp := New(cfg, NewRegistry(), logger)
	require.NoError(t, exp.Setup())

	tr, err := exp.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, tr.Stopped)
	assert.Less(t, tr.Last()[1], 0.0)
	assert.Contains(t, tr.Metrics, "stability")
	assert.Contains(t, tr.Metrics, "energy_drift")
	assert.Contains(t, logs.String(), "run complete")

	_, err = exp.Run(context.Background())
	assert.Error(t, err)
}

func TestExperimentOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario = "pendulum"
	cfg.Steps = 10
	cfg.Init = []float64{0.1, 0}
	cfg.Params = map[string]float64{"length": 2}

	exp := New(cfg, NewRegistry(), nil)
	require.NoError(t, exp.Setup())

	assert.Equal(t, dynamo.State{0.1, 0}, exp.InitialState())
	assert.Equal(t, 2.0, exp.System().(*physics.Pendulum).Length)
	assert.Equal(t, []string{"theta", "omega"}, exp.Labels())

	tr, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, tr.Len())
}

func TestExperimentParamsDeterministic(t *testing.T) {
	var first dynamo.State
	for i := 0; i < 100; i++ {
		cfg := config.DefaultConfig()
		cfg.Scenario = "orbit"
		cfg.Params = map[string]float64{"radius": 2e11, "speed": 1000, "mu": physics.GravConst * physics.SunMass}

		exp := New(cfg, NewRegistry(), nil)
		require.NoError(t, exp.Setup())
		x0 := exp.InitialState()
		if first == nil {
			first = x0
		}
		require.Equal(t, first, x0, "setup %d", i)
	}
	assert.Equal(t, 1000.0, first[2])
	assert.Equal(t, 2e11, first[1])
}

func TestExperimentSetupErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown scenario", func(c *config.Config) { c.Scenario = "cartpole" }},
		{"unknown scheme", func(c *config.Config) { c.Scheme = "rk45" }},
		{"bad param", func(c *config.Config) { c.Params = map[string]float64{"length": -1} }},
		{"unknown param", func(c *config.Config) { c.Params = map[string]float64{"damping": 1} }},
		{"unknown stop", func(c *config.Config) { c.Stop = "ground" }},
		{"bad dt", func(c *config.Config) { c.Dt = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, New(cfg, NewRegistry(), nil).Setup())
		})
	}
}

func TestExperimentRunBeforeSetup(t *testing.T) {
	_, err := New(config.DefaultConfig(), NewRegistry(), nil).Run(context.Background())
	assert.Error(t, err)
}

func TestExperimentWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	cfg := config.GetPreset("pendulum", "midpoint")
	cfg.Output.States = filepath.Join(dir, "results.csv")
	cfg.Output.Energies = filepath.Join(dir, "energies.csv")

	exp := New(cfg, NewRegistry(), nil)
	require.NoError(t, exp.Setup())
	tr, err := exp.Run(context.Background())
	require.NoError(t, err)

	states, err := os.ReadFile(cfg.Output.States)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(states)), "\n")
	assert.Equal(t, "step,time,theta,omega", lines[0])
	assert.Len(t, lines, tr.Len()+1)

	energies, err := os.ReadFile(cfg.Output.Energies)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(energies), "step,time,Ep,Ek,E\n"))
}

func TestExperimentEnergiesNeedSplit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scenario = "decay"
	cfg.Output.Energies = filepath.Join(t.TempDir(), "energies.csv")

	exp := New(cfg, NewRegistry(), nil)
	require.NoError(t, exp.Setup())
	_, err := exp.Run(context.Background())
	assert.True(t, errors.Is(err, dynamo.ErrInvalidConfig))
}

func TestExperimentPartialRun(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Scenario{
		Name: "blowup",
		New: func() dynamo.System {
			return dynamo.FromFunc(1, func(x dynamo.State, t float64) (dynamo.State, error) {
				if t > 0.5 {
					return dynamo.State{math.Inf(1)}, nil
				}
				return dynamo.State{1}, nil
			})
		},
	})

	cfg := config.DefaultConfig()
	cfg.Scenario = "blowup"
	cfg.Scheme = "euler"
	cfg.Dt = 0.1
	cfg.Init = []float64{0}
	cfg.Output.States = filepath.Join(t.TempDir(), "results.csv")

	exp := New(cfg, reg, nil)
	require.NoError(t, exp.Setup())
	tr, err := exp.Run(context.Background())
	require.ErrorIs(t, err, dynamo.ErrNonFinite)
	require.NotNil(t, tr)

	states, err := os.ReadFile(cfg.Output.States)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(states)), "\n")
	assert.Len(t, lines, tr.Len()+1)
}
