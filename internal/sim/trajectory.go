package sim

import (
	"github.com/san-kum/lorenzsim/internal/dynamo"
	"github.com/san-kum/lorenzsim/internal/integrators"
)

// Trajectory is one evolving Lorenz state and the number of steps taken.
type Trajectory struct {
	state dynamo.State
	tick  uint64
}

func NewTrajectory(s dynamo.State) Trajectory {
	return Trajectory{state: s}
}

// Step advances the state by one RK4 step using p.
func (t *Trajectory) Step(p dynamo.Params) {
	integrators.Advance(&t.state, p.StepSize, p.Sigma, p.Beta, p.Rho)
	t.tick++
}

func (t Trajectory) State() dynamo.State { return t.state }
func (t Trajectory) Tick() uint64        { return t.tick }
