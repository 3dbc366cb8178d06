package dynamo

import (
	"fmt"
	"math"
)

// State is the position of one trajectory in (x, y, z).
type State [3]float64

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	return math.Sqrt(s[0]*s[0] + s[1]*s[1] + s[2]*s[2])
}

func (s State) Add(o State) State     { return State{s[0] + o[0], s[1] + o[1], s[2] + o[2]} }
func (s State) Sub(o State) State     { return State{s[0] - o[0], s[1] - o[1], s[2] - o[2]} }
func (s State) Scale(f float64) State { return State{s[0] * f, s[1] * f, s[2] * f} }
func (s State) Slice() []float64      { return []float64{s[0], s[1], s[2]} }
func (s State) String() string        { return fmt.Sprintf("(%.4f, %.4f, %.4f)", s[0], s[1], s[2]) }

// System is a time-invariant vector field dX/dt = f(X).
type System interface {
	Derive(x State) State
}

// Parameter names accepted by SetParam.
const (
	ParamSigma         = "sigma"
	ParamBeta          = "beta"
	ParamRho           = "rho"
	ParamStepSize      = "step_size"
	ParamStepsPerFrame = "steps_per_frame"
)

// ParamNames lists the tunable parameters in display order.
var ParamNames = []string{ParamSigma, ParamBeta, ParamRho, ParamStepSize, ParamStepsPerFrame}

// Params holds the simulation parameters shared by every trajectory of an
// ensemble.
type Params struct {
	Sigma         float64
	Beta          float64
	Rho           float64
	StepSize      float64
	StepsPerFrame int
	Paused        bool
}

func DefaultParams() Params {
	return Params{
		Sigma:         10,
		Beta:          8.0 / 3.0,
		Rho:           28,
		StepSize:      0.002,
		StepsPerFrame: 3,
	}
}

func (p Params) Validate() error {
	if p.StepSize <= 0 {
		return fmt.Errorf("step_size must be positive, got %g: %w", p.StepSize, ErrParameterBounds)
	}
	if p.StepsPerFrame < 1 {
		return fmt.Errorf("steps_per_frame must be at least 1, got %d: %w", p.StepsPerFrame, ErrParameterBounds)
	}
	return nil
}

// Get returns the named parameter as a float.
func (p Params) Get(name string) (float64, error) {
	switch name {
	case ParamSigma:
		return p.Sigma, nil
	case ParamBeta:
		return p.Beta, nil
	case ParamRho:
		return p.Rho, nil
	case ParamStepSize:
		return p.StepSize, nil
	case ParamStepsPerFrame:
		return float64(p.StepsPerFrame), nil
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownParam)
}

// With returns a copy of p with the named parameter replaced. Each name maps
// to exactly one field; p is returned unchanged on error.
func (p Params) With(name string, v float64) (Params, error) {
	switch name {
	case ParamSigma:
		p.Sigma = v
	case ParamBeta:
		p.Beta = v
	case ParamRho:
		p.Rho = v
	case ParamStepSize:
		p.StepSize = v
	case ParamStepsPerFrame:
		p.StepsPerFrame = int(math.Round(v))
	default:
		return p, fmt.Errorf("%q: %w", name, ErrUnknownParam)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
