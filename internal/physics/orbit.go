package physics

import (
	"math"

	"github.com/san-kum/dynstep/internal/dynamo"
)

// GravConst is the Newtonian gravitational constant in SI units.
const GravConst = 6.66743e-11

const (
	SunMass    = 1.989e30
	EarthMass  = 5.972e24
	SunEarth   = 1.5e11
	EarthMoon  = 3.844e8
	OrbitStepS = 3170.0 // step that resolves one year in ~10^4 steps
)

// Attractor is a fixed point mass with gravitational parameter Mu = G*M.
type Attractor struct {
	X, Y float64
	Mu   float64
}

// Orbit is a test body moving in the field of fixed attractors:
//
//	a = Σ -Mu (r - r_i) / |r - r_i|³
//
// State: [x, y, vx, vy]. Energies are per unit mass of the test body.
type Orbit struct {
	Attractors []Attractor
	// Radius and Speed describe the default circular start: the body sits at
	// (0, Radius) relative to the first attractor moving along +x at Speed.
	Radius float64
	Speed  float64

	// speedSet pins Speed once it was given explicitly.
	speedSet bool
}

// NewOrbit returns a body on a circular orbit of the given radius around a
// single attractor at the origin.
func NewOrbit(mu, radius float64) *Orbit {
	return &Orbit{
		Attractors: []Attractor{{Mu: mu}},
		Radius:     radius,
		Speed:      math.Sqrt(mu / radius),
	}
}

// NewSunEarth models the Earth around a fixed Sun.
func NewSunEarth() *Orbit { return NewOrbit(GravConst*SunMass, SunEarth) }

// NewEarthMoon models the Moon around a fixed Earth.
func NewEarthMoon() *Orbit { return NewOrbit(GravConst*EarthMass, EarthMoon) }

func (o *Orbit) Dim() int { return 4 }

func (o *Orbit) Derive(x dynamo.State, _ float64) (dynamo.State, error) {
	var ax, ay float64
	for _, a := range o.Attractors {
		rx, ry := x[0]-a.X, x[1]-a.Y
		r2 := rx*rx + ry*ry
		r3 := r2 * math.Sqrt(r2)
		ax -= a.Mu * rx / r3
		ay -= a.Mu * ry / r3
	}
	return dynamo.State{x[2], x[3], ax, ay}, nil
}

func (o *Orbit) DefaultState() dynamo.State {
	var cx, cy float64
	if len(o.Attractors) > 0 {
		cx, cy = o.Attractors[0].X, o.Attractors[0].Y
	}
	return dynamo.State{cx, cy + o.Radius, o.Speed, 0}
}

// Period is the circular-orbit period around the first attractor.
func (o *Orbit) Period() float64 {
	return 2 * math.Pi * o.Radius / o.Speed
}

func (o *Orbit) Kinetic(x dynamo.State) float64 {
	return 0.5 * (x[2]*x[2] + x[3]*x[3])
}

func (o *Orbit) Potential(x dynamo.State) float64 {
	pe := 0.0
	for _, a := range o.Attractors {
		pe -= a.Mu / math.Hypot(x[0]-a.X, x[1]-a.Y)
	}
	return pe
}

func (o *Orbit) Energy(x dynamo.State) float64 {
	return o.Kinetic(x) + o.Potential(x)
}

// AngularMomentum about the first attractor, per unit mass.
func (o *Orbit) AngularMomentum(x dynamo.State) float64 {
	var cx, cy float64
	if len(o.Attractors) > 0 {
		cx, cy = o.Attractors[0].X, o.Attractors[0].Y
	}
	return (x[0]-cx)*x[3] - (x[1]-cy)*x[2]
}

func (o *Orbit) GetParams() map[string]float64 {
	p := map[string]float64{
		"radius": o.Radius,
		"speed":  o.Speed,
	}
	if len(o.Attractors) > 0 {
		p["mu"] = o.Attractors[0].Mu
	}
	return p
}

// SetParam changes the start radius or speed, or the first attractor's mu.
// Changing mu or radius resets speed to the circular value unless speed was
// set explicitly, so the result does not depend on the order of calls.
func (o *Orbit) SetParam(name string, value float64) error {
	switch name {
	case "mu":
		if len(o.Attractors) == 0 {
			o.Attractors = []Attractor{{}}
		}
		ps := []param{{name: "mu", ptr: &o.Attractors[0].Mu, positive: true}}
		if err := setParam(ps, name, value); err != nil {
			return err
		}
		o.circularSpeed()
		return nil
	case "radius":
		if err := setParam([]param{{name: "radius", ptr: &o.Radius, positive: true}}, name, value); err != nil {
			return err
		}
		o.circularSpeed()
		return nil
	}
	if err := setParam([]param{{name: "speed", ptr: &o.Speed}}, name, value); err != nil {
		return err
	}
	o.speedSet = true
	return nil
}

func (o *Orbit) circularSpeed() {
	if o.speedSet || len(o.Attractors) == 0 {
		return
	}
	o.Speed = math.Sqrt(o.Attractors[0].Mu / o.Radius)
}
