package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/dynstep/internal/dynamo"
)

// String is a vibrating string with fixed ends discretised into Points
// nodes over [0, Length], y_tt = c² y_xx. The end nodes never move.
//
// State: [y_0..y_{n-1}, v_0..v_{n-1}].
type String struct {
	Points int
	Length float64
	Speed  float64 // wave speed c
}

func NewString() *String {
	return &String{
		Points: 11,
		Length: math.Pi,
		Speed:  1.0,
	}
}

func (s *String) Dim() int { return 2 * s.Points }

// Dx is the node spacing.
func (s *String) Dx() float64 {
	return s.Length / float64(s.Points-1)
}

func (s *String) Derive(x dynamo.State, _ float64) (dynamo.State, error) {
	n := s.Points
	dx := s.Dx()
	k := s.Speed * s.Speed / (dx * dx)
	deriv := make(dynamo.State, 2*n)

	for i := 1; i < n-1; i++ {
		deriv[i] = x[n+i]
		deriv[n+i] = k * (x[i-1] - 2*x[i] + x[i+1])
	}
	return deriv, nil
}

// DefaultState is the fundamental mode y = sin(πx/L) released from rest.
func (s *String) DefaultState() dynamo.State {
	n := s.Points
	state := make(dynamo.State, 2*n)
	dx := s.Dx()
	for i := 1; i < n-1; i++ {
		state[i] = math.Sin(math.Pi * float64(i) * dx / s.Length)
	}
	return state
}

func (s *String) Kinetic(x dynamo.State) float64 {
	n := s.Points
	sum := 0.0
	for i := 0; i < n; i++ {
		v := x[n+i]
		sum += v * v
	}
	return s.Dx() / 2 * sum
}

func (s *String) Potential(x dynamo.State) float64 {
	sum := 0.0
	for i := 0; i+1 < s.Points; i++ {
		d := x[i+1] - x[i]
		sum += d * d
	}
	return s.Speed * s.Speed / (2 * s.Dx()) * sum
}

func (s *String) Energy(x dynamo.State) float64 {
	return s.Kinetic(x) + s.Potential(x)
}

func (s *String) GetParams() map[string]float64 {
	return map[string]float64{
		"points": float64(s.Points),
		"length": s.Length,
		"speed":  s.Speed,
	}
}

func (s *String) SetParam(name string, value float64) error {
	if name == "points" {
		if value < 3 || value != math.Trunc(value) {
			return fmt.Errorf("param points must be an integer >= 3, got %g", value)
		}
		s.Points = int(value)
		return nil
	}
	return setParam([]param{
		{name: "length", ptr: &s.Length, positive: true},
		{name: "speed", ptr: &s.Speed},
	}, name, value)
}
