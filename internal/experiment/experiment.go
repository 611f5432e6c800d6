// Package experiment turns a run configuration into a configured simulation:
// scenario lookup, parameter and initial-state overrides, stop predicates,
// metrics and CSV outputs.
package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/san-kum/dynstep/internal/config"
	"github.com/san-kum/dynstep/internal/dynamo"
	"github.com/san-kum/dynstep/internal/sink"
)

type Experiment struct {
	cfg      *config.Config
	reg      *Registry
	logger   *slog.Logger
	scenario Scenario

	sys       dynamo.System
	simulator *dynamo.Simulator
	x0        dynamo.State
	runCfg    dynamo.Config
	ran       bool
}

// New returns an experiment for cfg. A nil logger discards diagnostics.
func New(cfg *config.Config, reg *Registry, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Experiment{
		cfg:    cfg,
		reg:    reg,
		logger: logger,
	}
}

// Setup resolves the configuration against the registry. It must be called
// before Run.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	scenario, err := e.reg.GetScenario(e.cfg.Scenario)
	if err != nil {
		return err
	}
	e.scenario = scenario
	e.sys = scenario.New()

	if len(e.cfg.Params) > 0 {
		c, ok := e.sys.(dynamo.Configurable)
		if !ok {
			return fmt.Errorf("scenario %s has no parameters", e.cfg.Scenario)
		}
		for _, name := range slices.Sorted(maps.Keys(e.cfg.Params)) {
			if err := c.SetParam(name, e.cfg.Params[name]); err != nil {
				return fmt.Errorf("%w: %w", dynamo.ErrInvalidConfig, err)
			}
		}
	}

	switch {
	case len(e.cfg.Init) > 0:
		e.x0 = dynamo.State(e.cfg.Init).Clone()
	default:
		d, ok := e.sys.(Defaulter)
		if !ok {
			return fmt.Errorf("%w: scenario %s needs an explicit init state", dynamo.ErrInvalidConfig, e.cfg.Scenario)
		}
		e.x0 = d.DefaultState()
	}

	stepper, err := e.reg.GetStepper(e.cfg.Scheme)
	if err != nil {
		return err
	}

	until, err := e.reg.GetStop(e.cfg.Scenario, e.cfg.Stop, e.sys)
	if err != nil {
		return err
	}

	e.runCfg = dynamo.Config{
		Dt:    e.cfg.Dt,
		Steps: e.cfg.Steps,
		Until: until,
	}

	e.simulator = dynamo.New(e.sys, stepper)
	for _, m := range e.reg.DefaultMetrics(e.cfg.Scenario, e.sys) {
		e.simulator.AddMetric(m)
	}

	e.logger.Debug("experiment ready",
		"scenario", e.cfg.Scenario,
		"scheme", e.cfg.Scheme,
		"dt", e.cfg.Dt,
		"steps", e.cfg.Steps,
		"stop", e.cfg.Stop,
		"dim", e.sys.Dim())
	return nil
}

// AddObserver attaches an observer for the next Run. Call after Setup.
func (e *Experiment) AddObserver(o dynamo.Observer) {
	e.simulator.AddObserver(o)
}

func (e *Experiment) System() dynamo.System      { return e.sys }
func (e *Experiment) InitialState() dynamo.State { return e.x0.Clone() }
func (e *Experiment) Config() *config.Config     { return e.cfg }

// Labels names the state components for output headers.
func (e *Experiment) Labels() []string {
	if e.scenario.Labels != nil && len(e.scenario.Labels) == e.sys.Dim() {
		return e.scenario.Labels
	}
	return sink.ComponentLabels(e.sys.Dim())
}

// Run integrates the configured scenario once and writes any CSV outputs. On a
// mid-run failure the partial trajectory is returned with the error, and the
// outputs hold every state recorded before it.
func (e *Experiment) Run(ctx context.Context) (*dynamo.Trajectory, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	if e.ran {
		return nil, fmt.Errorf("experiment already run")
	}
	e.ran = true

	outputs, err := e.openOutputs()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tr, runErr := e.simulator.Run(ctx, e.x0, e.runCfg)

	var outErr error
	for _, out := range outputs {
		if err := out.close(); err != nil && outErr == nil {
			outErr = fmt.Errorf("write %s: %w", out.path, err)
		}
	}

	if runErr != nil {
		e.logger.Warn("run failed", "scenario", e.cfg.Scenario, "scheme", e.cfg.Scheme, "err", runErr)
		return tr, runErr
	}

	e.logger.Info("run complete",
		"scenario", e.cfg.Scenario,
		"scheme", e.cfg.Scheme,
		"steps", tr.StepsTaken,
		"stopped", tr.Stopped,
		"energy_drift", tr.EnergyDrift,
		"elapsed", time.Since(start))
	return tr, outErr
}

type output struct {
	path  string
	file  *os.File
	flush func() error
}

func (o output) close() error {
	ferr := o.flush()
	cerr := o.file.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}

// openOutputs creates the configured CSV files and attaches their sinks.
func (e *Experiment) openOutputs() ([]output, error) {
	var outputs []output

	if path := e.cfg.Output.States; path != "" {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		s := sink.NewStateCSV(f, e.Labels())
		e.simulator.AddObserver(s)
		outputs = append(outputs, output{path: path, file: f, flush: s.Flush})
	}

	if path := e.cfg.Output.Energies; path != "" {
		split, ok := e.sys.(sink.EnergySplit)
		if !ok {
			for _, o := range outputs {
				o.file.Close()
			}
			return nil, fmt.Errorf("%w: scenario %s has no energy split", dynamo.ErrInvalidConfig, e.cfg.Scenario)
		}
		f, err := os.Create(path)
		if err != nil {
			for _, o := range outputs {
				o.file.Close()
			}
			return nil, err
		}
		s := sink.NewEnergyCSV(f, split)
		e.simulator.AddObserver(s)
		outputs = append(outputs, output{path: path, file: f, flush: s.Flush})
	}

	e.logger.Debug("outputs opened", "count", len(outputs))
	return outputs, nil
}
