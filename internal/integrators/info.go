package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/dynstep/internal/dynamo"
)

// Info describes a scheme: derivative evaluations per step and global order.
type Info struct {
	Name   string
	Stages int
	Order  int
	// Stateful schemes carry data between steps and need one instance per run.
	Stateful bool
	// Pairs schemes split the state into [positions, velocities] halves.
	Pairs bool
	New   func() dynamo.Stepper
}

// Supports reports whether the scheme can step a state of length dim.
func (i Info) Supports(dim int) bool {
	return !i.Pairs || dim%2 == 0
}

var schemes = map[string]Info{
	"euler":           {Name: "euler", Stages: 1, Order: 1, New: func() dynamo.Stepper { return NewEuler() }},
	"midpoint":        {Name: "midpoint", Stages: 2, Order: 2, New: func() dynamo.Stepper { return NewMidpoint() }},
	"midpoint_lagged": {Name: "midpoint_lagged", Stages: 1, Order: 1, Stateful: true, Pairs: true, New: func() dynamo.Stepper { return NewLaggedMidpoint() }},
	"rk4":             {Name: "rk4", Stages: 4, Order: 4, New: func() dynamo.Stepper { return NewRK4() }},
	"verlet":          {Name: "verlet", Stages: 2, Order: 2, Pairs: true, New: func() dynamo.Stepper { return NewVerlet() }},
}

// Lookup returns the scheme registered under name.
func Lookup(name string) (Info, error) {
	info, ok := schemes[name]
	if !ok {
		return Info{}, fmt.Errorf("unknown integrator: %s", name)
	}
	return info, nil
}

// Names lists registered schemes in sorted order.
func Names() []string {
	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NamesFor lists the schemes that can step a state of length dim.
func NamesFor(dim int) []string {
	var names []string
	for _, name := range Names() {
		if schemes[name].Supports(dim) {
			names = append(names, name)
		}
	}
	return names
}
