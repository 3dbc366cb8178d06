package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/lorenzsim/internal/dynamo"
	"github.com/san-kum/lorenzsim/internal/integrators"
)

type DivergenceResult struct {
	// Separation is the distance between the state and its free-running
	// twin after each step.
	Separation []float64
	// Lyapunov estimates the largest exponent from a second twin that is
	// pulled back to distance eps after every step.
	Lyapunov float64
}

// Divergence steps s and two twins offset by eps along x. The free twin
// shows raw divergence until it saturates at the attractor's size; the
// renormalised twin gives the exponent.
func Divergence(p dynamo.Params, s dynamo.State, eps float64, steps int) DivergenceResult {
	res := DivergenceResult{Separation: make([]float64, 0, steps)}
	if eps <= 0 || steps <= 0 || p.StepSize <= 0 {
		return res
	}

	x := s
	free := s
	free[0] += eps
	renorm := free

	sumLog := 0.0
	for i := 0; i < steps; i++ {
		integrators.Advance(&x, p.StepSize, p.Sigma, p.Beta, p.Rho)
		integrators.Advance(&free, p.StepSize, p.Sigma, p.Beta, p.Rho)
		integrators.Advance(&renorm, p.StepSize, p.Sigma, p.Beta, p.Rho)

		res.Separation = append(res.Separation, distance(x, free))

		d := distance(x, renorm)
		if d == 0 {
			continue
		}
		sumLog += math.Log(d / eps)
		renorm = x.Add(renorm.Sub(x).Scale(eps / d))
	}
	res.Lyapunov = sumLog / (float64(steps) * p.StepSize)
	return res
}

func distance(a, b dynamo.State) float64 {
	return floats.Distance(a.Slice(), b.Slice(), 2)
}
