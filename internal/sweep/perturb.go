package sweep

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/san-kum/dynstep/internal/config"
	"github.com/san-kum/dynstep/internal/dynamo"
	"github.com/san-kum/dynstep/internal/experiment"
)

// Perturb reruns Base from Trials randomly shifted initial states. Each
// component moves uniformly within ±Amplitude. A trial is stable when every
// component of its final state stays within Bound.
type Perturb struct {
	Base      *config.Config
	Amplitude float64
	Trials    int
	Seed      uint64
	Bound     float64
}

type Trial struct {
	Init   dynamo.State
	Final  dynamo.State
	Stable bool
	Err    error
}

func (p *Perturb) Run(ctx context.Context, reg *experiment.Registry, logger *slog.Logger) ([]Trial, error) {
	logger = orDiscard(logger)

	// resolve the unperturbed start, including scenario defaults and params
	probe := experiment.New(p.Base.Clone(), reg, logger)
	if err := probe.Setup(); err != nil {
		return nil, err
	}
	base := probe.InitialState()

	rng := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))
	bound := p.Bound
	if bound <= 0 {
		bound = 1e6
	}

	trials := make([]Trial, 0, p.Trials)
	for i := 0; i < p.Trials; i++ {
		x0 := base.Clone()
		for j := range x0 {
			x0[j] += (rng.Float64()*2 - 1) * p.Amplitude
		}

		cfg := p.Base.Clone()
		cfg.Init = x0
		tr, _, err := runOne(ctx, cfg, reg, logger)

		trial := Trial{Init: x0, Err: err}
		if tr != nil {
			trial.Final = tr.Last()
			trial.Stable = err == nil && trial.Final.MaxAbs() <= bound
		}
		trials = append(trials, trial)

		if err := ctx.Err(); err != nil {
			return trials, err
		}
	}
	logger.Info("perturbation trials complete", "trials", p.Trials)
	return trials, nil
}

// Stats counts stable and unstable trials.
func Stats(trials []Trial) (stable, unstable int) {
	for _, t := range trials {
		if t.Stable {
			stable++
		} else {
			unstable++
		}
	}
	return
}
