package physics

import "github.com/san-kum/dynstep/internal/dynamo"

// Projectile is a point mass under uniform gravity with linear drag:
//
//	a = (m*g - k*v) / m
//
// State: [x, y, vx, vy]. Gravity is signed; the default points down.
type Projectile struct {
	Mass    float64
	Drag    float64
	Gravity float64
}

func NewProjectile() *Projectile {
	return &Projectile{
		Mass:    0.6,
		Drag:    1.05,
		Gravity: -10,
	}
}

func (p *Projectile) Dim() int { return 4 }

func (p *Projectile) Derive(x dynamo.State, _ float64) (dynamo.State, error) {
	vx, vy := x[2], x[3]
	ax := -p.Drag * vx / p.Mass
	ay := (p.Mass*p.Gravity - p.Drag*vy) / p.Mass
	return dynamo.State{vx, vy, ax, ay}, nil
}

func (p *Projectile) DefaultState() dynamo.State {
	return dynamo.State{0, 0, 10, 10}
}

func (p *Projectile) Kinetic(x dynamo.State) float64 {
	return 0.5 * p.Mass * (x[2]*x[2] + x[3]*x[3])
}

func (p *Projectile) Potential(x dynamo.State) float64 {
	return -p.Mass * p.Gravity * x[1]
}

// Energy is not conserved: drag dissipates it.
func (p *Projectile) Energy(x dynamo.State) float64 {
	return p.Kinetic(x) + p.Potential(x)
}

func (p *Projectile) params() []param {
	return []param{
		{name: "mass", ptr: &p.Mass, positive: true},
		{name: "drag", ptr: &p.Drag},
		{name: "gravity", ptr: &p.Gravity},
	}
}

func (p *Projectile) GetParams() map[string]float64 { return getParams(p.params()) }

func (p *Projectile) SetParam(name string, value float64) error {
	return setParam(p.params(), name, value)
}
