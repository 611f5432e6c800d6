// Package analysis provides accuracy and phase-space tools for trajectories.
//
//   - [GlobalError]: end-point error against a closed-form solution
//   - [EstimateOrder]: observed convergence order from step halving
//   - [Convergence]: error table over a ladder of step sizes
//   - [NewPhasePortrait]: two components of a trajectory as a curve
//   - [PoincareSectionOf]: crossings of a threshold along a trajectory
//
// # Convergence
//
// Halving dt divides the global error of an order-p scheme by about 2^p:
//
//	p, err := analysis.EstimateOrder(ctx, sys, integrators.NewRK4, x0, sys.Exact, 0.05, 1)
//	// p ≈ 4
package analysis
