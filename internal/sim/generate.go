package sim

import (
	"math/rand"

	"github.com/san-kum/lorenzsim/internal/dynamo"
)

// spawnExtent is the side of the cube random trajectories start in.
const spawnExtent = 50.0

// Generate returns a state with each axis uniform in [-25, 25).
func Generate(r *rand.Rand) dynamo.State {
	return dynamo.State{
		(r.Float64() - 0.5) * spawnExtent,
		(r.Float64() - 0.5) * spawnExtent,
		(r.Float64() - 0.5) * spawnExtent,
	}
}

// Populate adds random trajectories, then clones of existing ones chosen at
// random. Clones of an empty ensemble fail with dynamo.ErrEmptyEnsemble.
func Populate(e *Ensemble, random, clones int) error {
	for i := 0; i < random; i++ {
		if _, err := e.AddRandom(); err != nil {
			return err
		}
	}
	for i := 0; i < clones; i++ {
		if _, err := e.Clone(nil); err != nil {
			return err
		}
	}
	return nil
}
