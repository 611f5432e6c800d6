// Package dynamo provides the time-stepping engine for dynamical systems.
//
// A simulation advances a [State] under a [System] (dX/dt = f(X, t)) with a
// fixed step size, using a [Stepper] to combine derivative evaluations:
//
//   - [State]: vector of real-valued components, fixed length for a run
//   - [System]: derivative law; the only scenario-specific plug-in point
//   - [Stepper]: explicit integration scheme (see package integrators)
//   - [Simulator]: driver loop producing a [Trajectory]
//   - [RunBatch]: independent runs executed concurrently
//
// # Example
//
//	sys := physics.NewOscillator()
//	sim := dynamo.New(sys, integrators.NewRK4())
//	tr, err := sim.Run(ctx, sys.DefaultState(), dynamo.Config{Dt: 0.01, Steps: 1000})
//
// # Termination
//
// With [Config.Until] unset the loop takes exactly Config.Steps steps and the
// trajectory holds Steps+1 states. With Until set the predicate is checked on
// every recorded state, the initial one included, and the state that fires it
// is the last one recorded.
//
// # Thread Safety
//
// A Simulator holds no per-run state besides its metrics, so one Simulator
// must not run twice concurrently. Stateless steppers may be shared freely.
package dynamo
