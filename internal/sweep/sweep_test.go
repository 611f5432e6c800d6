package sweep

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynstep/internal/config"
	"github.com/san-kum/dynstep/internal/experiment"
)

func TestSweepValues(t *testing.T) {
	s := &ParamSweep{Min: 1, Max: 2, Points: 3}
	assert.Equal(t, []float64{1, 1.5, 2}, s.Values())

	s.Points = 1
	assert.Equal(t, []float64{1}, s.Values())
}

func TestParamSweep(t *testing.T) {
	base := &config.Config{Scenario: "pendulum", Scheme: "rk4", Dt: 0.01, Steps: 100}
	s := &ParamSweep{Base: base, Param: "mass", Min: 1, Max: 3, Points: 3}

	points, err := s.Run(context.Background(), experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.Len(t, points, 3)

	for i, p := range points {
		require.NoError(t, p.Err)
		assert.Equal(t, float64(i+1), p.Value)
		assert.Equal(t, 100, p.Steps)
		assert.LessOrEqual(t, p.EnergyMin, p.EnergyMax)
	}
	// energy scales with mass, the motion does not
	assert.InDelta(t, 3*points[0].EnergyMax, points[2].EnergyMax, 1e-9)
	assert.InDeltaSlice(t, points[0].Final, points[2].Final, 1e-12)

	assert.Nil(t, base.Params, "base config must not be modified")
}

func TestParamSweepRecordsFailures(t *testing.T) {
	base := &config.Config{Scenario: "oscillator", Scheme: "euler", Dt: 0.1, Steps: 10}
	s := &ParamSweep{Base: base, Param: "m", Min: 0, Max: 1, Points: 2}

	points, err := s.Run(context.Background(), experiment.NewRegistry(), nil)
	require.NoError(t, err)
	assert.Error(t, points[0].Err)
	assert.NoError(t, points[1].Err)
	assert.Equal(t, 10, points[1].Steps)
}

func TestParamSweepValidates(t *testing.T) {
	reg := experiment.NewRegistry()
	_, err := (&ParamSweep{Param: "k", Points: 2}).Run(context.Background(), reg, nil)
	assert.Error(t, err)

	base := config.DefaultConfig()
	_, err = (&ParamSweep{Base: base, Points: 2}).Run(context.Background(), reg, nil)
	assert.Error(t, err)
	_, err = (&ParamSweep{Base: base, Param: "k", Points: 0}).Run(context.Background(), reg, nil)
	assert.Error(t, err)
}

func TestGridSearch(t *testing.T) {
	// explicit Euler gains energy faster for stiffer springs
	base := &config.Config{Scenario: "oscillator", Scheme: "euler", Dt: 0.01, Steps: 100}
	g, err := NewGridSearch([]string{"k", "m"}, [][]float64{{4, 1, 9}, {1}})
	require.NoError(t, err)

	best, val, err := g.Search(context.Background(), base, experiment.NewRegistry(), "energy_drift", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"k": 1, "m": 1}, best)
	assert.Greater(t, val, 0.0)

	_, _, err = g.Search(context.Background(), base, experiment.NewRegistry(), "no_such_metric", nil)
	assert.Error(t, err)
}

func TestNewGridSearchValidates(t *testing.T) {
	_, err := NewGridSearch(nil, nil)
	assert.Error(t, err)
	_, err = NewGridSearch([]string{"k"}, [][]float64{{}})
	assert.Error(t, err)
	_, err = NewGridSearch([]string{"k", "m"}, [][]float64{{1}})
	assert.Error(t, err)
}

func TestPerturb(t *testing.T) {
	base := &config.Config{Scenario: "decay", Scheme: "rk4", Dt: 0.1, Steps: 10}
	p := &Perturb{Base: base, Amplitude: 0.1, Trials: 5, Seed: 7}

	trials, err := p.Run(context.Background(), experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.Len(t, trials, 5)
	for _, tr := range trials {
		require.NoError(t, tr.Err)
		assert.InDelta(t, 1.0, tr.Init[0], 0.1)
		assert.True(t, tr.Stable)
		assert.Less(t, tr.Final[0], tr.Init[0])
	}

	stable, unstable := Stats(trials)
	assert.Equal(t, 5, stable)
	assert.Zero(t, unstable)

	again, err := p.Run(context.Background(), experiment.NewRegistry(), nil)
	require.NoError(t, err)
	assert.Equal(t, trials[0].Init, again[0].Init, "same seed, same starts")
}

func TestPerturbUnstable(t *testing.T) {
	base := &config.Config{Scenario: "decay", Scheme: "rk4", Dt: 0.1, Steps: 10}
	p := &Perturb{Base: base, Amplitude: 0.1, Trials: 3, Seed: 1, Bound: 0.01}

	trials, err := p.Run(context.Background(), experiment.NewRegistry(), nil)
	require.NoError(t, err)
	stable, unstable := Stats(trials)
	assert.Zero(t, stable)
	assert.Equal(t, 3, unstable)
}

const planYAML = `name: lesson 3
runs:
  - scenario: pendulum
    scheme: euler
    dt: 0.025
    steps: 20
  - scenario: cartpole
  - scenario: decay
    params:
      rate: 2
`

func TestPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(planYAML), 0644))

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, "lesson 3", plan.Name)
	require.Len(t, plan.Runs, 3)
	assert.Equal(t, 0.025, plan.Runs[0].Dt)
	// omitted fields fall back to defaults
	assert.Equal(t, config.DefaultScheme, plan.Runs[2].Scheme)
	assert.Equal(t, config.DefaultSteps, plan.Runs[2].Steps)

	outcomes, err := RunPlan(context.Background(), plan, experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, 21, outcomes[0].Trajectory.Len())
	assert.ErrorContains(t, outcomes[1].Err, "unknown scenario")
	assert.Nil(t, outcomes[1].Trajectory)
	assert.NoError(t, outcomes[2].Err)
	assert.Equal(t, 2.0, outcomes[2].Config.Params["rate"])
}

func TestLoadPlanEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: empty\n"), 0644))

	_, err := LoadPlan(path)
	assert.Error(t, err)
}

func TestRunPlanCanceled(t *testing.T) {
	plan := &Plan{Runs: []config.Config{*config.DefaultConfig()}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := RunPlan(ctx, plan, experiment.NewRegistry(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, outcomes)
}
