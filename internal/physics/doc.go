// Package physics provides the Lorenz vector field as a [dynamo.System].
//
// The field is kept separate from the integrator hot path so generic
// steppers and analysis code can evaluate it directly:
//
//	f := physics.FromParams(params)
//	dx := f.Derive(state)
package physics
