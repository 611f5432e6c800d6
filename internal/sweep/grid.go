package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math"

	"github.com/san-kum/dynstep/internal/config"
	"github.com/san-kum/dynstep/internal/dynamo"
	"github.com/san-kum/dynstep/internal/experiment"
)

// GridSearch tries every combination of parameter values and keeps the one
// with the smallest value of a metric.
type GridSearch struct {
	paramNames []string
	values     [][]float64
}

func NewGridSearch(params []string, values [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(values) {
		return nil, fmt.Errorf("%w: %d parameter names for %d value lists", dynamo.ErrInvalidConfig, len(params), len(values))
	}
	for i, vs := range values {
		if len(vs) == 0 {
			return nil, fmt.Errorf("%w: no values for %s", dynamo.ErrInvalidConfig, params[i])
		}
	}
	return &GridSearch{paramNames: params, values: values}, nil
}

// Search runs base once per grid point. Runs that fail or do not report
// metricName are skipped. It is an error if none succeed.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, reg *experiment.Registry, metricName string, logger *slog.Logger) (map[string]float64, float64, error) {
	logger = orDiscard(logger)
	best := math.Inf(1)
	var bestParams map[string]float64

	var search func(depth int, current map[string]float64) error
	search = func(depth int, current map[string]float64) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if depth == len(g.paramNames) {
			cfg := base.Clone()
			if cfg.Params == nil {
				cfg.Params = make(map[string]float64, len(current))
			}
			maps.Copy(cfg.Params, current)

			tr, _, err := runOne(ctx, cfg, reg, logger)
			if err != nil {
				logger.Debug("grid point failed", "params", current, "err", err)
				return nil
			}
			val, ok := tr.Metrics[metricName]
			if !ok {
				return nil
			}
			if val < best {
				best = val
				bestParams = maps.Clone(current)
			}
			return nil
		}

		name := g.paramNames[depth]
		for _, v := range g.values[depth] {
			next := maps.Clone(current)
			next[name] = v
			if err := search(depth+1, next); err != nil {
				return err
			}
		}
		return nil
	}

	if err := search(0, make(map[string]float64)); err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, fmt.Errorf("no grid point produced metric %q", metricName)
	}
	return bestParams, best, nil
}
