package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/dynstep/internal/dynamo"
)

func TestRK4Accuracy(t *testing.T) {
	dyn := &harmonicOscillator{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		var err error
		x, err = integ.Step(dyn, x, float64(i)*dt, dt)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-8 {
		t.Errorf("position error too large: got %.10f, expected %.10f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-8 {
		t.Errorf("velocity error too large: got %.10f, expected %.10f", x[1], expectedV)
	}
}

func TestRK4SingleStepMatchesTaylor(t *testing.T) {
	h := 0.1
	x, err := NewRK4().Step(&harmonicOscillator{}, dynamo.State{1, 0}, 0, h)
	if err != nil {
		t.Fatal(err)
	}

	wantX := 1 - h*h/2 + h*h*h*h/24
	wantV := -h + h*h*h/6
	if math.Abs(x[0]-wantX) > 1e-15 || math.Abs(x[1]-wantV) > 1e-15 {
		t.Errorf("got %v, want [%v %v]", x, wantX, wantV)
	}
}

func TestRK4EnergyConservation(t *testing.T) {
	dyn := &harmonicOscillator{}
	integ := NewRK4()
	x := dynamo.State{1.0, 0.0}
	e0 := dyn.Energy(x)
	dt := 0.01

	for i := 0; i < 1000; i++ {
		x, _ = integ.Step(dyn, x, float64(i)*dt, dt)
		if drift := math.Abs(dyn.Energy(x) - e0); drift > 1e-4 {
			t.Fatalf("energy drift %e at step %d", drift, i)
		}
	}
}

func TestRK4StageOffsets(t *testing.T) {
	c := &counting{System: &harmonicOscillator{}}
	if _, err := NewRK4().Step(c, dynamo.State{1, 0}, 2.0, 0.5); err != nil {
		t.Fatal(err)
	}

	want := []float64{2.0, 2.25, 2.25, 2.5}
	if c.calls != 4 {
		t.Fatalf("expected 4 evaluations, got %d", c.calls)
	}
	for i := range want {
		if c.times[i] != want[i] {
			t.Errorf("stage %d evaluated at t=%v, want %v", i+1, c.times[i], want[i])
		}
	}
}
