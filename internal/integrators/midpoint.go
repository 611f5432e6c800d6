package integrators

import (
	"fmt"

	"github.com/san-kum/dynstep/internal/dynamo"
)

// Midpoint is the explicit midpoint method (RK2). The midpoint slope is
// always evaluated from the current step's state:
//
//	k1 = f(x, t)
//	k2 = f(x + dt/2*k1, t + dt/2)
//	x' = x + dt*k2
type Midpoint struct{}

func NewMidpoint() *Midpoint {
	return &Midpoint{}
}

func (m *Midpoint) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	half := dt * 0.5

	k1, err := dynamo.Evaluate(sys, x, t, 1)
	if err != nil {
		return nil, err
	}
	k2, err := dynamo.Evaluate(sys, x.AddScaled(half, k1), t+half, 2)
	if err != nil {
		return nil, err
	}
	return x.AddScaled(dt, k2), nil
}

// LaggedMidpoint reproduces the one-step-lagged midpoint ordering used by the
// orbital lesson. The state must be laid out as [positions..., rates...].
// Positions advance with the half-step rate computed in the previous step
// (zero on the first step), rates advance with the full-step derivative:
//
//	p' = p + dt*h_prev
//	h  = f_p(x) + dt/2*f_v(x)
//	v' = v + dt*f_v(x)
//
// It keeps h between calls, so each run needs its own instance. It is first
// order in dt and exists only for comparison with Midpoint.
type LaggedMidpoint struct {
	carry dynamo.State
}

func NewLaggedMidpoint() *LaggedMidpoint {
	return &LaggedMidpoint{}
}

func (l *LaggedMidpoint) Reset() {
	l.carry = nil
}

func (l *LaggedMidpoint) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	n := len(x)
	if n%2 != 0 {
		return nil, fmt.Errorf("%w: lagged midpoint needs an even state length, got %d", dynamo.ErrDimensionMismatch, n)
	}
	half := n / 2
	if len(l.carry) != half {
		l.carry = make(dynamo.State, half)
	}

	k, err := dynamo.Evaluate(sys, x, t, 1)
	if err != nil {
		return nil, err
	}

	result := make(dynamo.State, n)
	next := make(dynamo.State, half)
	for i := 0; i < half; i++ {
		result[i] = x[i] + dt*l.carry[i]
		next[i] = k[i] + 0.5*dt*k[half+i]
		result[half+i] = x[half+i] + dt*k[half+i]
	}
	l.carry = next

	return result, nil
}
