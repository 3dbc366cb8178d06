package integrators

import "github.com/san-kum/lorenzsim/internal/dynamo"

// Stepper advances a state of a generic system by one fixed step.
type Stepper interface {
	Name() string
	Step(sys dynamo.System, x dynamo.State, dt float64) dynamo.State
}

// Advance replaces s with the next Lorenz state after one classical RK4 step
// of size dt. It does not allocate and does not guard against non-finite
// input.
func Advance(s *dynamo.State, dt, sigma, beta, rho float64) {
	x, y, z := s[0], s[1], s[2]

	k1x := sigma * (y - x)
	k1y := x*(rho-z) - y
	k1z := x*y - beta*z

	h := dt * 0.5
	ax, ay, az := x+h*k1x, y+h*k1y, z+h*k1z
	k2x := sigma * (ay - ax)
	k2y := ax*(rho-az) - ay
	k2z := ax*ay - beta*az

	ax, ay, az = x+h*k2x, y+h*k2y, z+h*k2z
	k3x := sigma * (ay - ax)
	k3y := ax*(rho-az) - ay
	k3z := ax*ay - beta*az

	ax, ay, az = x+dt*k3x, y+dt*k3y, z+dt*k3z
	k4x := sigma * (ay - ax)
	k4y := ax*(rho-az) - ay
	k4z := ax*ay - beta*az

	dt6 := dt / 6.0
	s[0] = x + dt6*(k1x+2*k2x+2*k3x+k4x)
	s[1] = y + dt6*(k1y+2*k2y+2*k3y+k4y)
	s[2] = z + dt6*(k1z+2*k2z+2*k3z+k4z)
}

type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Step(sys dynamo.System, x dynamo.State, dt float64) dynamo.State {
	k1 := sys.Derive(x)
	k2 := sys.Derive(x.Add(k1.Scale(dt * 0.5)))
	k3 := sys.Derive(x.Add(k2.Scale(dt * 0.5)))
	k4 := sys.Derive(x.Add(k3.Scale(dt)))

	var result dynamo.State
	dt6 := dt / 6.0
	for i := range result {
		result[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return result
}
