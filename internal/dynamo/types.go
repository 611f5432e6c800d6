package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// MaxAbs returns the infinity norm.
func (s State) MaxAbs() float64 {
	m := 0.0
	for _, v := range s {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] - other[i]
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

// AddScaled returns s + h*k as a new state. Both operands must have the same length.
func (s State) AddScaled(h float64, k State) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] + h*k[i]
	}
	return result
}

// System is a derivative law dX/dt = f(X, t). Derive must not modify x and
// must return a fresh slice of length Dim().
type System interface {
	Derive(x State, t float64) (State, error)
	Dim() int
}

// DerivativeFunc is the plain-function form of System.Derive.
type DerivativeFunc func(x State, t float64) (State, error)

type funcSystem struct {
	dim int
	fn  DerivativeFunc
}

func (f funcSystem) Derive(x State, t float64) (State, error) { return f.fn(x, t) }
func (f funcSystem) Dim() int                                 { return f.dim }

// FromFunc adapts a derivative function of a dim-component state to a System.
func FromFunc(dim int, fn DerivativeFunc) System {
	return funcSystem{dim: dim, fn: fn}
}

// Evaluate calls sys.Derive and checks the result shape. Failures come back
// as *EvaluationError tagged with the stage number.
func Evaluate(sys System, x State, t float64, stage int) (State, error) {
	k, err := sys.Derive(x, t)
	if err != nil {
		return nil, &EvaluationError{Stage: stage, Time: t, Err: err}
	}
	if len(k) != len(x) {
		return nil, &EvaluationError{
			Stage: stage,
			Time:  t,
			Err:   fmt.Errorf("%w: derivative has %d components, state has %d", ErrDimensionMismatch, len(k), len(x)),
		}
	}
	return k, nil
}

type Hamiltonian interface {
	Energy(x State) float64
}

// Stepper advances x by one step of size dt starting at time t. The result is
// a new slice; x is left untouched.
type Stepper interface {
	Step(sys System, x State, t, dt float64) (State, error)
}

// Resetter is implemented by steppers that carry data between steps. The
// driver resets them before each run.
type Resetter interface {
	Reset()
}

type Observer interface {
	OnStep(step int, t float64, x State)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(step int, t float64, x State)

func (f ObserverFunc) OnStep(step int, t float64, x State) { f(step, t, x) }

type Metric interface {
	Name() string
	Observe(step int, t float64, x State)
	Value() float64
	Reset()
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// StopFunc reports whether the run should end at state x, time t.
type StopFunc func(x State, t float64) bool

// Probe maps a state to a scalar invariant, usually total energy.
type Probe func(x State) float64

// DefaultMaxSteps caps predicate-terminated runs that set no explicit Steps.
const DefaultMaxSteps = 1 << 20

type Config struct {
	Dt float64
	// Steps is the iteration count, or the cap when Until is set (0 = DefaultMaxSteps).
	Steps int
	Until StopFunc
	// Probe overrides the system's Hamiltonian energy, if any.
	Probe Probe
}

func DefaultConfig() Config {
	return Config{
		Dt:    0.01,
		Steps: 1000,
	}
}

// Trajectory is the append-only record of a run. Energies is parallel to
// States when a probe is available, and empty otherwise.
type Trajectory struct {
	States      []State
	Times       []float64
	Energies    []float64
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
	Stopped     bool
}

func (tr *Trajectory) Len() int { return len(tr.States) }

// Last returns the final recorded state, or nil for an empty trajectory.
func (tr *Trajectory) Last() State {
	if len(tr.States) == 0 {
		return nil
	}
	return tr.States[len(tr.States)-1]
}

// Component extracts the i-th component of every state.
func (tr *Trajectory) Component(i int) []float64 {
	out := make([]float64, 0, len(tr.States))
	for _, s := range tr.States {
		if i < len(s) {
			out = append(out, s[i])
		}
	}
	return out
}
