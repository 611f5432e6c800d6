// Package sweep runs families of experiments: scripted plans from YAML,
// one-parameter sweeps, grid searches over scenario parameters and
// randomly perturbed starts.
package sweep

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynstep/internal/config"
	"github.com/san-kum/dynstep/internal/dynamo"
	"github.com/san-kum/dynstep/internal/experiment"
)

// Plan is a scripted sequence of runs.
type Plan struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Runs        []config.Config `yaml:"runs"`
}

// Outcome is the result of one run of a plan. Trajectory may be partial
// when Err is set, and nil when the run never started.
type Outcome struct {
	Config     *config.Config
	Trajectory *dynamo.Trajectory
	Err        error
}

// LoadPlan reads a plan file. Every run is layered over config.DefaultConfig.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Name        string      `yaml:"name"`
		Description string      `yaml:"description"`
		Runs        []yaml.Node `yaml:"runs"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(raw.Runs) == 0 {
		return nil, fmt.Errorf("%w: plan %s has no runs", dynamo.ErrInvalidConfig, path)
	}

	plan := &Plan{Name: raw.Name, Description: raw.Description}
	for i := range raw.Runs {
		cfg := config.DefaultConfig()
		if err := raw.Runs[i].Decode(cfg); err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}
		plan.Runs = append(plan.Runs, *cfg)
	}
	return plan, nil
}

// RunPlan executes the runs in order. A failing run is recorded in its
// Outcome and the plan moves on; only cancellation stops it early.
func RunPlan(ctx context.Context, plan *Plan, reg *experiment.Registry, logger *slog.Logger) ([]Outcome, error) {
	logger = orDiscard(logger)
	outcomes := make([]Outcome, 0, len(plan.Runs))

	for i := range plan.Runs {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		cfg := plan.Runs[i].Clone()
		logger.Info("plan step", "plan", plan.Name, "step", i+1, "of", len(plan.Runs), "scenario", cfg.Scenario, "scheme", cfg.Scheme)

		tr, _, err := runOne(ctx, cfg, reg, logger)
		outcomes = append(outcomes, Outcome{Config: cfg, Trajectory: tr, Err: err})
	}
	return outcomes, nil
}

// runOne sets up and runs a single experiment.
func runOne(ctx context.Context, cfg *config.Config, reg *experiment.Registry, logger *slog.Logger) (*dynamo.Trajectory, *experiment.Experiment, error) {
	exp := experiment.New(cfg, reg, logger)
	if err := exp.Setup(); err != nil {
		return nil, nil, err
	}
	tr, err := exp.Run(ctx)
	return tr, exp, err
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}
