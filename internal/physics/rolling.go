package physics

import (
	"math"

	"github.com/san-kum/dynstep/internal/dynamo"
)

// RollingDisk is a round body rolling without slipping down an incline.
// InertiaCoef is I/(m r²): 1/2 for a solid disk, 2/3 for a hollow sphere.
// State: [s, beta, v, omega] where s is distance travelled along the slope
// and beta the rotation angle.
type RollingDisk struct {
	Mass        float64
	Radius      float64
	Incline     float64 // radians
	Height      float64 // starting height of the contact point
	Gravity     float64
	InertiaCoef float64
}

func NewRollingDisk() *RollingDisk {
	return &RollingDisk{
		Mass:        1.0,
		Radius:      2.0,
		Incline:     math.Pi / 4,
		Height:      20,
		Gravity:     10,
		InertiaCoef: 2.0 / 3.0,
	}
}

func (r *RollingDisk) Dim() int { return 4 }

// Acceleration is constant. Midpoint and RK4 reproduce s = a t²/2 up to
// rounding, while Euler lags it by a dt t/2.
func (r *RollingDisk) Acceleration() float64 {
	return r.Gravity * math.Sin(r.Incline) / (1 + r.InertiaCoef)
}

func (r *RollingDisk) Derive(x dynamo.State, _ float64) (dynamo.State, error) {
	a := r.Acceleration()
	return dynamo.State{x[2], x[3], a, a / r.Radius}, nil
}

func (r *RollingDisk) DefaultState() dynamo.State {
	return dynamo.State{0, 0, 0, 0}
}

// SlopeLength is the distance along the incline from the start to the ground.
func (r *RollingDisk) SlopeLength() float64 {
	return r.Height / math.Sin(r.Incline)
}

func (r *RollingDisk) Kinetic(x dynamo.State) float64 {
	v, omega := x[2], x[3]
	rot := 0.5 * r.InertiaCoef * r.Mass * r.Radius * r.Radius * omega * omega
	return 0.5*r.Mass*v*v + rot
}

func (r *RollingDisk) Potential(x dynamo.State) float64 {
	return r.Mass * r.Gravity * (r.Height - x[0]*math.Sin(r.Incline))
}

func (r *RollingDisk) Energy(x dynamo.State) float64 {
	return r.Kinetic(x) + r.Potential(x)
}

func (r *RollingDisk) params() []param {
	return []param{
		{name: "mass", ptr: &r.Mass, positive: true},
		{name: "radius", ptr: &r.Radius, positive: true},
		{name: "incline", ptr: &r.Incline},
		{name: "height", ptr: &r.Height},
		{name: "gravity", ptr: &r.Gravity},
		{name: "inertia", ptr: &r.InertiaCoef},
	}
}

func (r *RollingDisk) GetParams() map[string]float64 { return getParams(r.params()) }

func (r *RollingDisk) SetParam(name string, value float64) error {
	return setParam(r.params(), name, value)
}
