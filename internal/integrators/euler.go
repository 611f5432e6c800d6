package integrators

import "github.com/san-kum/dynstep/internal/dynamo"

// Euler is the explicit (forward) Euler method: one stage, first order.
// In conservative systems its energy error grows step after step.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	k1, err := dynamo.Evaluate(sys, x, t, 1)
	if err != nil {
		return nil, err
	}
	return x.AddScaled(dt, k1), nil
}
