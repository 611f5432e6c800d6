package physics

import (
	"math"

	"github.com/san-kum/dynstep/internal/dynamo"
)

// Pendulum is an undamped simple pendulum, θ” = -(g/r) sin θ.
// State: [theta, omega].
type Pendulum struct {
	Mass    float64
	Length  float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:    1.0,
		Length:  1.0,
		Gravity: 10,
	}
}

func (p *Pendulum) Dim() int { return 2 }

func (p *Pendulum) Derive(x dynamo.State, _ float64) (dynamo.State, error) {
	theta, omega := x[0], x[1]
	alpha := -p.Gravity / p.Length * math.Sin(theta)
	return dynamo.State{omega, alpha}, nil
}

// DefaultState releases the bob from rest at 45 degrees.
func (p *Pendulum) DefaultState() dynamo.State {
	return dynamo.State{math.Pi / 4, 0}
}

func (p *Pendulum) Kinetic(x dynamo.State) float64 {
	v := p.Length * x[1]
	return 0.5 * p.Mass * v * v
}

// Potential is measured from the lowest point of the swing.
func (p *Pendulum) Potential(x dynamo.State) float64 {
	return p.Mass * p.Gravity * p.Length * (1.0 - math.Cos(x[0]))
}

func (p *Pendulum) Energy(x dynamo.State) float64 {
	return p.Kinetic(x) + p.Potential(x)
}

// Bob returns the bob position with the pivot at the origin.
func (p *Pendulum) Bob(x dynamo.State) (float64, float64) {
	return p.Length * math.Sin(x[0]), -p.Length * math.Cos(x[0])
}

func (p *Pendulum) params() []param {
	return []param{
		{name: "mass", ptr: &p.Mass, positive: true},
		{name: "length", ptr: &p.Length, positive: true},
		{name: "gravity", ptr: &p.Gravity},
	}
}

func (p *Pendulum) GetParams() map[string]float64 { return getParams(p.params()) }

func (p *Pendulum) SetParam(name string, value float64) error {
	return setParam(p.params(), name, value)
}
