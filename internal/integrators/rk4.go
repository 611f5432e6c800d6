package integrators

import "github.com/san-kum/dynstep/internal/dynamo"

// RK4 is the classical four-stage Runge-Kutta method. Each stage advances the
// whole state, so coupled channels (angle and angular velocity, say) always
// see the same offset.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	half := dt * 0.5

	k1, err := dynamo.Evaluate(sys, x, t, 1)
	if err != nil {
		return nil, err
	}
	k2, err := dynamo.Evaluate(sys, x.AddScaled(half, k1), t+half, 2)
	if err != nil {
		return nil, err
	}
	k3, err := dynamo.Evaluate(sys, x.AddScaled(half, k2), t+half, 3)
	if err != nil {
		return nil, err
	}
	k4, err := dynamo.Evaluate(sys, x.AddScaled(dt, k3), t+dt, 4)
	if err != nil {
		return nil, err
	}

	n := len(x)
	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return result, nil
}
