package integrators

import "github.com/san-kum/lorenzsim/internal/dynamo"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(sys dynamo.System, x dynamo.State, dt float64) dynamo.State {
	return x.Add(sys.Derive(x).Scale(dt))
}

// ByName returns the stepper registered under name.
func ByName(name string) (Stepper, bool) {
	switch name {
	case "rk4":
		return NewRK4(), true
	case "euler":
		return NewEuler(), true
	}
	return nil, false
}
