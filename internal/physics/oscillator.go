package physics

import (
	"math"

	"github.com/san-kum/dynstep/internal/dynamo"
)

// Oscillator is an undamped mass on a spring, x” = -(k/m) x.
// State: [x, v].
type Oscillator struct {
	K float64
	M float64
}

func NewOscillator() *Oscillator {
	return &Oscillator{K: 1.0, M: 1.0}
}

func (o *Oscillator) Dim() int { return 2 }

func (o *Oscillator) Derive(x dynamo.State, _ float64) (dynamo.State, error) {
	return dynamo.State{x[1], -o.K / o.M * x[0]}, nil
}

func (o *Oscillator) DefaultState() dynamo.State { return dynamo.State{1, 0} }

func (o *Oscillator) Kinetic(x dynamo.State) float64   { return 0.5 * o.M * x[1] * x[1] }
func (o *Oscillator) Potential(x dynamo.State) float64 { return 0.5 * o.K * x[0] * x[0] }

func (o *Oscillator) Energy(x dynamo.State) float64 {
	return o.Kinetic(x) + o.Potential(x)
}

// Exact returns the analytic state at time t starting from x0 at t=0.
func (o *Oscillator) Exact(x0 dynamo.State, t float64) dynamo.State {
	w := math.Sqrt(o.K / o.M)
	c, s := math.Cos(w*t), math.Sin(w*t)
	return dynamo.State{
		x0[0]*c + x0[1]/w*s,
		-x0[0]*w*s + x0[1]*c,
	}
}

func (o *Oscillator) params() []param {
	return []param{
		{name: "k", ptr: &o.K, positive: true},
		{name: "m", ptr: &o.M, positive: true},
	}
}

func (o *Oscillator) GetParams() map[string]float64 { return getParams(o.params()) }

func (o *Oscillator) SetParam(name string, value float64) error {
	return setParam(o.params(), name, value)
}

// Decay is exponential decay, x' = -Rate x, in any number of components.
type Decay struct {
	Rate float64
	N    int
}

func NewDecay() *Decay { return &Decay{Rate: 1.0, N: 1} }

func (d *Decay) Dim() int { return d.N }

func (d *Decay) Derive(x dynamo.State, _ float64) (dynamo.State, error) {
	return x.Scale(-d.Rate), nil
}

func (d *Decay) DefaultState() dynamo.State {
	x := make(dynamo.State, d.N)
	for i := range x {
		x[i] = 1
	}
	return x
}

func (d *Decay) Exact(x0 dynamo.State, t float64) dynamo.State {
	return x0.Scale(math.Exp(-d.Rate * t))
}

func (d *Decay) GetParams() map[string]float64 {
	return map[string]float64{"rate": d.Rate}
}

func (d *Decay) SetParam(name string, value float64) error {
	return setParam([]param{{name: "rate", ptr: &d.Rate}}, name, value)
}

// Exact is implemented by systems with a closed-form solution.
type Exact interface {
	Exact(x0 dynamo.State, t float64) dynamo.State
}

var (
	_ Exact = (*Oscillator)(nil)
	_ Exact = (*Decay)(nil)
)
