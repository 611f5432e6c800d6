package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/dynstep/internal/config"
	"github.com/san-kum/dynstep/internal/dynamo"
	"github.com/san-kum/dynstep/internal/experiment"
)

// ParamSweep varies one scenario parameter over Points evenly spaced values
// in [Min, Max], leaving the rest of Base untouched.
type ParamSweep struct {
	Base   *config.Config
	Param  string
	Min    float64
	Max    float64
	Points int
}

// SweepPoint summarises one run of a sweep.
type SweepPoint struct {
	Value     float64
	Steps     int
	Stopped   bool
	Final     dynamo.State
	EnergyMin float64
	EnergyMax float64
	Metrics   map[string]float64
	Err       error
}

func (s *ParamSweep) Values() []float64 {
	if s.Points == 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.Points-1)
	values := make([]float64, s.Points)
	for i := range values {
		values[i] = s.Min + float64(i)*step
	}
	values[len(values)-1] = s.Max
	return values
}

// Run executes the sweep concurrently. Results are in value order; failed
// runs carry their error and do not stop the others.
func (s *ParamSweep) Run(ctx context.Context, reg *experiment.Registry, logger *slog.Logger) ([]SweepPoint, error) {
	if s.Base == nil {
		return nil, fmt.Errorf("%w: sweep has no base config", dynamo.ErrInvalidConfig)
	}
	if s.Param == "" {
		return nil, fmt.Errorf("%w: sweep needs a parameter name", dynamo.ErrInvalidConfig)
	}
	if s.Points < 1 {
		return nil, fmt.Errorf("%w: sweep needs at least one point, got %d", dynamo.ErrInvalidConfig, s.Points)
	}
	logger = orDiscard(logger)

	values := s.Values()
	points := make([]SweepPoint, len(values))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, v := range values {
		g.Go(func() error {
			cfg := s.Base.Clone()
			if cfg.Params == nil {
				cfg.Params = make(map[string]float64, 1)
			}
			cfg.Params[s.Param] = v

			tr, _, err := runOne(ctx, cfg, reg, logger)
			points[i] = summarize(v, tr, err)
			logger.Debug("sweep point", "param", s.Param, "value", v, "err", err)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return points, err
	}
	return points, nil
}

func summarize(value float64, tr *dynamo.Trajectory, err error) SweepPoint {
	p := SweepPoint{Value: value, Err: err}
	if tr == nil {
		return p
	}
	p.Steps = tr.StepsTaken
	p.Stopped = tr.Stopped
	p.Final = tr.Last()
	p.Metrics = tr.Metrics
	if len(tr.Energies) > 0 {
		p.EnergyMin, p.EnergyMax = tr.Energies[0], tr.Energies[0]
		for _, e := range tr.Energies {
			p.EnergyMin = min(p.EnergyMin, e)
			p.EnergyMax = max(p.EnergyMax, e)
		}
	}
	return p
}
