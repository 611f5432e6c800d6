package metrics

import (
	"math"

	"github.com/san-kum/dynstep/internal/dynamo"
)

// EnergyDrift tracks the largest relative departure of the probe from its
// initial value. When the initial value is zero the drift is absolute.
type EnergyDrift struct {
	name          string
	probe         dynamo.Probe
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(probe dynamo.Probe) *EnergyDrift {
	return &EnergyDrift{
		name:  "energy_drift",
		probe: probe,
	}
}

// ForSystem returns an EnergyDrift over the system's Hamiltonian, or nil when
// the system has no energy.
func ForSystem(sys dynamo.System) *EnergyDrift {
	h, ok := sys.(dynamo.Hamiltonian)
	if !ok {
		return nil
	}
	return NewEnergyDrift(h.Energy)
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(_ int, _ float64, x dynamo.State) {
	energy := e.probe(x)
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	drift := math.Abs(energy - e.initialEnergy)
	if e.initialEnergy != 0 {
		drift /= math.Abs(e.initialEnergy)
	}
	e.maxDrift = math.Max(e.maxDrift, drift)
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// EnergyGrowth is the fraction of steps on which the probe increased.
// Explicit Euler on an oscillator scores 1.0.
type EnergyGrowth struct {
	name   string
	probe  dynamo.Probe
	last   float64
	rises  int
	steps  int
	primed bool
}

func NewEnergyGrowth(probe dynamo.Probe) *EnergyGrowth {
	return &EnergyGrowth{
		name:  "energy_growth",
		probe: probe,
	}
}

func (g *EnergyGrowth) Name() string { return g.name }

func (g *EnergyGrowth) Observe(_ int, _ float64, x dynamo.State) {
	energy := g.probe(x)
	if g.primed {
		g.steps++
		if energy > g.last {
			g.rises++
		}
	}
	g.last = energy
	g.primed = true
}

func (g *EnergyGrowth) Value() float64 {
	if g.steps == 0 {
		return 0
	}
	return float64(g.rises) / float64(g.steps)
}

func (g *EnergyGrowth) Reset() {
	g.last = 0
	g.rises = 0
	g.steps = 0
	g.primed = false
}
