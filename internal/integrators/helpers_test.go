package integrators

import (
	"errors"
	"math"

	"github.com/san-kum/dynstep/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) Dim() int { return 2 }

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	return dynamo.State{x[1], -x[0]}, nil
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

type decay struct{}

func (d *decay) Dim() int { return 1 }

func (d *decay) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	return dynamo.State{-x[0]}, nil
}

type counting struct {
	dynamo.System
	calls int
	times []float64
}

func (c *counting) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	c.calls++
	c.times = append(c.times, t)
	return c.System.Derive(x, t)
}

var errDegenerate = errors.New("degenerate configuration")

type failing struct{ after int }

func (f *failing) Dim() int { return 1 }

func (f *failing) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	if f.after == 0 {
		return nil, errDegenerate
	}
	f.after--
	return dynamo.State{-x[0]}, nil
}

func decayError(stepper dynamo.Stepper, dt, duration float64) float64 {
	dyn := &decay{}
	x := dynamo.State{1.0}
	steps := int(math.Round(duration / dt))
	for i := 0; i < steps; i++ {
		var err error
		x, err = stepper.Step(dyn, x, float64(i)*dt, dt)
		if err != nil {
			panic(err)
		}
	}
	return math.Abs(x[0] - math.Exp(-duration))
}
