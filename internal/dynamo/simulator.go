package dynamo

import (
	"context"
	"fmt"
	"math"
)

type Simulator struct {
	sys       System
	stepper   Stepper
	metrics   []Metric
	observers []Observer
}

func New(sys System, stepper Stepper) *Simulator {
	return &Simulator{
		sys:       sys,
		stepper:   stepper,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run is the functional form of Simulator.Run. onStep may be nil.
func Run(ctx context.Context, sys System, stepper Stepper, x0 State, cfg Config, onStep ObserverFunc) (*Trajectory, error) {
	s := New(sys, stepper)
	if onStep != nil {
		s.AddObserver(onStep)
	}
	return s.Run(ctx, x0, cfg)
}

// Run integrates from x0 and returns the trajectory. On a mid-run failure the
// trajectory recorded so far is returned together with the error.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Trajectory, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	limit := cfg.Steps
	if cfg.Until != nil && limit == 0 {
		limit = DefaultMaxSteps
	}

	probe := cfg.Probe
	if probe == nil {
		if h, ok := s.sys.(Hamiltonian); ok {
			probe = h.Energy
		}
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	if r, ok := s.stepper.(Resetter); ok {
		r.Reset()
	}

	capHint := limit + 1
	if cfg.Until != nil || capHint > 1<<16 {
		capHint = 1 << 10
	}
	tr := &Trajectory{
		States:  make([]State, 0, capHint),
		Times:   make([]float64, 0, capHint),
		Metrics: make(map[string]float64),
	}
	defer s.finish(tr)

	record := func(step int, t float64, x State) {
		tr.States = append(tr.States, x)
		tr.Times = append(tr.Times, t)
		if probe != nil {
			tr.Energies = append(tr.Energies, probe(x))
		}
		for _, m := range s.metrics {
			m.Observe(step, t, x)
		}
		for _, obs := range s.observers {
			obs.OnStep(step, t, x)
		}
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt

	record(0, t, x)
	if cfg.Until != nil && cfg.Until(x, t) {
		tr.Stopped = true
		return tr, nil
	}

	for i := 0; i < limit; i++ {
		select {
		case <-ctx.Done():
			return tr, &SimulationError{Step: i + 1, Time: t, State: x, Wrapped: fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())}
		default:
		}

		newX, err := s.stepper.Step(s.sys, x, t, dt)
		if err != nil {
			return tr, &SimulationError{Step: i + 1, Time: t, State: x, Wrapped: err}
		}
		if len(newX) != len(x) {
			err := fmt.Errorf("%w: stepper returned %d components, want %d", ErrDimensionMismatch, len(newX), len(x))
			return tr, &SimulationError{Step: i + 1, Time: t, State: x, Wrapped: err}
		}
		if !newX.IsValid() {
			return tr, &SimulationError{Step: i + 1, Time: t, State: x, Wrapped: ErrNonFinite}
		}

		x = newX
		// multiply rather than accumulate so times stay exact multiples of dt
		t = float64(i+1) * dt
		tr.StepsTaken++
		record(i+1, t, x)

		if cfg.Until != nil && cfg.Until(x, t) {
			tr.Stopped = true
			return tr, nil
		}
	}

	if cfg.Until != nil {
		return tr, &SimulationError{Step: limit, Time: t, State: x, Wrapped: ErrStepLimit}
	}
	return tr, nil
}

func (s *Simulator) finish(tr *Trajectory) {
	if n := len(tr.Energies); n > 1 {
		e0, e1 := tr.Energies[0], tr.Energies[n-1]
		if e0 != 0 {
			tr.EnergyDrift = math.Abs(e1-e0) / math.Abs(e0)
		} else {
			tr.EnergyDrift = math.Abs(e1 - e0)
		}
	}
	for _, m := range s.metrics {
		tr.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validate(x0 State, cfg Config) error {
	if s.sys == nil {
		return configErr("system", "must not be nil")
	}
	if s.stepper == nil {
		return configErr("stepper", "must not be nil")
	}
	if cfg.Dt <= 0 || math.IsNaN(cfg.Dt) || math.IsInf(cfg.Dt, 0) {
		return configErr("dt", "must be positive and finite, got %g", cfg.Dt)
	}
	if cfg.Steps < 0 {
		return configErr("steps", "must not be negative, got %d", cfg.Steps)
	}
	if dim := s.sys.Dim(); len(x0) != dim {
		return &ConfigError{
			Field:  "initial state",
			Reason: fmt.Sprintf("has %d components, system expects %d", len(x0), dim),
			Err:    ErrDimensionMismatch,
		}
	}
	if !x0.IsValid() {
		return configErr("initial state", "contains NaN or Inf")
	}
	return nil
}
