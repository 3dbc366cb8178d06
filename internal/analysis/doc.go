// Package analysis characterises Lorenz trajectories.
//
//   - [PowerSpectrum]: FFT magnitude of a sampled coordinate
//   - [Divergence]: separation of nearby states and the largest Lyapunov exponent
//   - [RhoSweep]: z maxima across a range of rho, the Lorenz map bifurcation
//   - [PoincareSection]: crossings of the plane z = rho-1
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	res := analysis.Divergence(dynamo.DefaultParams(), x0, 1e-8, 50000)
//	if res.Lyapunov > 0 {
//	    // chaotic
//	}
//
// With the classic parameters the estimate is close to 0.9.
package analysis
