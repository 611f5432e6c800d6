package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/dynstep/internal/dynamo"
	"github.com/san-kum/dynstep/internal/integrators"
	"github.com/san-kum/dynstep/internal/metrics"
	"github.com/san-kum/dynstep/internal/physics"
)

// Defaulter is implemented by systems with a canonical starting state.
type Defaulter interface {
	DefaultState() dynamo.State
}

// StopFactory builds a stop predicate for a configured system, so stops can
// depend on parameters such as slope length or orbital period.
type StopFactory func(sys dynamo.System) dynamo.StopFunc

type Scenario struct {
	Name        string
	Description string
	New         func() dynamo.System
	// Labels name the state components; nil falls back to x0..xn.
	Labels []string
	Stops  map[string]StopFactory
	// Bound is the magnitude the stability metric checks against.
	Bound float64
}

type Registry struct {
	scenarios map[string]Scenario
}

func NewRegistry() *Registry {
	r := &Registry{scenarios: make(map[string]Scenario)}

	r.Register(Scenario{
		Name:        "projectile",
		Description: "2D projectile with linear drag",
		New:         func() dynamo.System { return physics.NewProjectile() },
		Labels:      []string{"x", "y", "vx", "vy"},
		Stops: map[string]StopFactory{
			"ground": func(dynamo.System) dynamo.StopFunc { return physics.BelowGround(1) },
		},
		Bound: 1e3,
	})
	r.Register(Scenario{
		Name:        "pendulum",
		Description: "simple pendulum",
		New:         func() dynamo.System { return physics.NewPendulum() },
		Labels:      []string{"theta", "omega"},
		Bound:       1e2,
	})
	r.Register(Scenario{
		Name:        "rolling",
		Description: "body rolling down an incline without slipping",
		New:         func() dynamo.System { return physics.NewRollingDisk() },
		Labels:      []string{"s", "beta", "v", "omega"},
		Stops: map[string]StopFactory{
			"bottom": func(sys dynamo.System) dynamo.StopFunc {
				return physics.PastDistance(0, sys.(*physics.RollingDisk).SlopeLength())
			},
		},
		Bound: 1e4,
	})
	orbitStops := map[string]StopFactory{
		"period": func(sys dynamo.System) dynamo.StopFunc {
			return physics.AfterTime(sys.(*physics.Orbit).Period())
		},
	}
	r.Register(Scenario{
		Name:        "orbit",
		Description: "Earth around a fixed Sun",
		New:         func() dynamo.System { return physics.NewSunEarth() },
		Labels:      []string{"x", "y", "vx", "vy"},
		Stops:       orbitStops,
		Bound:       1e12,
	})
	r.Register(Scenario{
		Name:        "moon",
		Description: "Moon around a fixed Earth",
		New:         func() dynamo.System { return physics.NewEarthMoon() },
		Labels:      []string{"x", "y", "vx", "vy"},
		Stops:       orbitStops,
		Bound:       1e10,
	})
	r.Register(Scenario{
		Name:        "string",
		Description: "vibrating string with fixed ends",
		New:         func() dynamo.System { return physics.NewString() },
		Bound:       1e2,
	})
	r.Register(Scenario{
		Name:        "oscillator",
		Description: "undamped harmonic oscillator",
		New:         func() dynamo.System { return physics.NewOscillator() },
		Labels:      []string{"x", "v"},
		Bound:       1e2,
	})
	r.Register(Scenario{
		Name:        "decay",
		Description: "exponential decay",
		New:         func() dynamo.System { return physics.NewDecay() },
		Bound:       1e2,
	})

	return r
}

// Register adds or replaces a scenario.
func (r *Registry) Register(s Scenario) {
	r.scenarios[s.Name] = s
}

func (r *Registry) GetScenario(name string) (Scenario, error) {
	s, ok := r.scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario: %s", name)
	}
	return s, nil
}

func (r *Registry) GetSystem(name string) (dynamo.System, error) {
	s, err := r.GetScenario(name)
	if err != nil {
		return nil, err
	}
	return s.New(), nil
}

// GetStepper returns a fresh instance of the named scheme.
func (r *Registry) GetStepper(name string) (dynamo.Stepper, error) {
	info, err := integrators.Lookup(name)
	if err != nil {
		return nil, err
	}
	return info.New(), nil
}

// GetStop resolves a named stop for a configured system. "" means none.
func (r *Registry) GetStop(scenario, name string, sys dynamo.System) (dynamo.StopFunc, error) {
	if name == "" {
		return nil, nil
	}
	s, err := r.GetScenario(scenario)
	if err != nil {
		return nil, err
	}
	fn, ok := s.Stops[name]
	if !ok {
		return nil, fmt.Errorf("unknown stop %q for scenario %s", name, scenario)
	}
	return fn(sys), nil
}

func (r *Registry) ListScenarios() []string {
	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StopNames lists the named stops of a scenario in sorted order.
func (s Scenario) StopNames() []string {
	names := make([]string, 0, len(s.Stops))
	for name := range s.Stops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns fresh metrics suited to the scenario.
func (r *Registry) DefaultMetrics(scenario string, sys dynamo.System) []dynamo.Metric {
	bound := 1e6
	if s, err := r.GetScenario(scenario); err == nil && s.Bound > 0 {
		bound = s.Bound
	}
	ms := []dynamo.Metric{metrics.NewStability(bound)}
	if h, ok := sys.(dynamo.Hamiltonian); ok {
		ms = append(ms,
			metrics.NewEnergyDrift(h.Energy),
			metrics.NewEnergyGrowth(h.Energy),
		)
	}
	return ms
}
