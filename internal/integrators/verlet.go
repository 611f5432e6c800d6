package integrators

import (
	"fmt"

	"github.com/san-kum/dynstep/internal/dynamo"
)

// Verlet is velocity Verlet for second-order systems laid out as
// [positions..., velocities...]. The lower half of the derivative must be the
// velocities and the upper half the accelerations. Accelerations that depend
// on velocity (drag) are evaluated with the old velocity at the second stage.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	n := len(x)
	if n%2 != 0 {
		return nil, fmt.Errorf("%w: verlet needs an even state length, got %d", dynamo.ErrDimensionMismatch, n)
	}
	half := n / 2

	dx, err := dynamo.Evaluate(sys, x, t, 1)
	if err != nil {
		return nil, err
	}

	result := make(dynamo.State, n)
	dt2 := dt * dt
	for i := 0; i < half; i++ {
		result[i] = x[i] + x[half+i]*dt + 0.5*dx[half+i]*dt2
		result[half+i] = x[half+i]
	}

	dxNew, err := dynamo.Evaluate(sys, result, t+dt, 2)
	if err != nil {
		return nil, err
	}

	halfDt := 0.5 * dt
	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + (dx[half+i]+dxNew[half+i])*halfDt
	}
	return result, nil
}
