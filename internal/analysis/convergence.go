package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/dynstep/internal/dynamo"
)

// ExactFunc is a closed-form solution x(t) from x0 at t=0.
type ExactFunc func(x0 dynamo.State, t float64) dynamo.State

// GlobalError integrates from x0 to duration with step dt and returns the
// infinity-norm distance from the exact solution at the final time.
// newStepper is called once per run so stateful schemes never share a carry.
func GlobalError[S dynamo.Stepper](ctx context.Context, sys dynamo.System, newStepper func() S, x0 dynamo.State, exact ExactFunc, dt, duration float64) (float64, error) {
	steps, err := stepsFor(dt, duration)
	if err != nil {
		return 0, err
	}

	tr, err := dynamo.Run(ctx, sys, newStepper(), x0, dynamo.Config{Dt: dt, Steps: steps}, nil)
	if err != nil {
		return 0, err
	}
	tEnd := tr.Times[tr.Len()-1]
	return tr.Last().Sub(exact(x0, tEnd)).MaxAbs(), nil
}

// EstimateOrder compares the global error at dt and dt/2 and returns
// log2(err(dt) / err(dt/2)).
func EstimateOrder[S dynamo.Stepper](ctx context.Context, sys dynamo.System, newStepper func() S, x0 dynamo.State, exact ExactFunc, dt, duration float64) (float64, error) {
	rows, err := Convergence(ctx, sys, newStepper, x0, exact, []float64{dt, dt / 2}, duration)
	if err != nil {
		return 0, err
	}
	return rows[1].Order, nil
}

// ConvergenceRow is one line of a convergence table. Ratio and Order compare
// against the previous row and are zero on the first.
type ConvergenceRow struct {
	Dt    float64
	Steps int
	Error float64
	Ratio float64
	Order float64
}

// Convergence runs the scheme at every step size concurrently and tabulates
// the global error. dts should be decreasing.
func Convergence[S dynamo.Stepper](ctx context.Context, sys dynamo.System, newStepper func() S, x0 dynamo.State, exact ExactFunc, dts []float64, duration float64) ([]ConvergenceRow, error) {
	jobs := make([]dynamo.Job, len(dts))
	rows := make([]ConvergenceRow, len(dts))
	for i, dt := range dts {
		steps, err := stepsFor(dt, duration)
		if err != nil {
			return nil, err
		}
		rows[i] = ConvergenceRow{Dt: dt, Steps: steps}
		jobs[i] = dynamo.Job{
			System:  sys,
			Stepper: newStepper(),
			X0:      x0,
			Config:  dynamo.Config{Dt: dt, Steps: steps},
		}
	}

	results, err := dynamo.RunBatch(ctx, jobs)
	if err != nil {
		return nil, fmt.Errorf("convergence run: %w", err)
	}

	for i, tr := range results {
		tEnd := tr.Times[tr.Len()-1]
		rows[i].Error = tr.Last().Sub(exact(x0, tEnd)).MaxAbs()
		if i > 0 && rows[i].Error > 0 {
			rows[i].Ratio = rows[i-1].Error / rows[i].Error
			rows[i].Order = math.Log2(rows[i].Ratio) / math.Log2(rows[i-1].Dt/rows[i].Dt)
		}
	}
	return rows, nil
}

// stepsFor requires duration to be a whole number of steps so every run
// ends at the same time.
func stepsFor(dt, duration float64) (int, error) {
	if dt <= 0 || duration <= 0 {
		return 0, fmt.Errorf("dt and duration must be positive, got dt=%g duration=%g", dt, duration)
	}
	n := math.Round(duration / dt)
	if math.Abs(n*dt-duration) > 1e-9*duration {
		return 0, fmt.Errorf("duration %g is not a multiple of dt %g", duration, dt)
	}
	return int(n), nil
}
