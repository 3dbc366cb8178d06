package physics

import "github.com/san-kum/lorenzsim/internal/dynamo"

// Lorenz is the vector field (σ(y−x), x(ρ−z)−y, xy−βz).
type Lorenz struct{ Sigma, Beta, Rho float64 }

func NewLorenz() *Lorenz { return &Lorenz{10.0, 8.0 / 3.0, 28.0} }

// FromParams builds the field for the current ensemble parameters.
func FromParams(p dynamo.Params) *Lorenz { return &Lorenz{p.Sigma, p.Beta, p.Rho} }

// Derive calculates the Lorenz attractor derivatives.
func (l *Lorenz) Derive(s dynamo.State) dynamo.State {
	return dynamo.State{l.Sigma * (s[1] - s[0]), s[0]*(l.Rho-s[2]) - s[1], s[0]*s[1] - l.Beta*s[2]}
}

func (l *Lorenz) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }
