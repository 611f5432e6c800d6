package metrics

import (
	"github.com/san-kum/dynstep/internal/dynamo"
)

// Stability is the fraction of recorded states whose infinity norm stays
// within bound. It also remembers the first step that left the bound.
type Stability struct {
	bound   float64
	inside  int
	samples int
	first   int
}

func NewStability(bound float64) *Stability {
	s := &Stability{bound: bound}
	s.Reset()
	return s
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(step int, _ float64, x dynamo.State) {
	s.samples++
	if x.MaxAbs() <= s.bound {
		s.inside++
		return
	}
	if s.first < 0 {
		s.first = step
	}
}

// Value is 1 for a run that never left the bound, including an empty one.
func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1
	}
	return float64(s.inside) / float64(s.samples)
}

// FirstViolation is the first step outside the bound, or -1.
func (s *Stability) FirstViolation() int { return s.first }

func (s *Stability) Reset() {
	s.inside, s.samples, s.first = 0, 0, -1
}

var (
	_ dynamo.Metric = (*EnergyDrift)(nil)
	_ dynamo.Metric = (*EnergyGrowth)(nil)
	_ dynamo.Metric = (*Stability)(nil)
)
