// Package physics provides the scenario models driven by the integrators.
//
// Each model implements [dynamo.System] with its state laid out as
// [positions..., rates...], so the second-order schemes (Verlet, lagged
// midpoint) can split it in half:
//
//   - [Projectile]: 2D projectile with linear drag
//   - [Pendulum]: simple pendulum
//   - [RollingDisk]: body rolling without slipping down an incline
//   - [Orbit]: reduced two-body motion around fixed attractors
//   - [String]: vibrating string with fixed ends (finite differences)
//   - [Oscillator], [Decay]: reference problems with exact solutions
//
// Physical constants are plain fields, read on every Derive call; change them
// through [dynamo.Configurable] between runs, never during one.
//
// # Energy
//
// Models with a meaningful mechanical energy implement [dynamo.Hamiltonian]
// and split it into Kinetic and Potential parts:
//
//	p := physics.NewPendulum()
//	e := p.Kinetic(x) + p.Potential(x) // == p.Energy(x)
package physics
