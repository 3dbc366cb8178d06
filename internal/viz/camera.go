package viz

import (
	"math"

	"github.com/san-kum/lorenzsim/internal/dynamo"
)

const (
	defaultScale = 1.0 / 25
	spinDamping  = 0.96
	// attractorCenter is subtracted from z so the butterfly sits mid-screen.
	attractorCenter = 25.0
)

// Camera is an orthographic view of Lorenz space with rotation about the
// x, y and z axes. Spin is added to Rot every frame and decays while
// Damping is set.
type Camera struct {
	Rot     [3]float64
	Spin    [3]float64
	Scale   float64
	Damping bool
}

func NewCamera() *Camera {
	return &Camera{
		Rot:     [3]float64{1.65, 3.08, -0.93},
		Scale:   defaultScale,
		Damping: true,
	}
}

// Nudge adds d radians per frame of spin about axis.
func (c *Camera) Nudge(axis int, d float64) { c.Spin[axis] += d }

func (c *Camera) ZoomIn()  { c.Scale = math.Min(1, c.Scale*1.1) }
func (c *Camera) ZoomOut() { c.Scale = math.Max(0.001, c.Scale*0.95) }

// Advance applies one frame of spin.
func (c *Camera) Advance() {
	for i := range c.Rot {
		c.Rot[i] += c.Spin[i]
		if c.Damping {
			c.Spin[i] *= spinDamping
		}
	}
}

// RotatePoint rotates p about x, then y, then z.
func (c *Camera) RotatePoint(p dynamo.State) dynamo.State {
	cx, sx := math.Cos(c.Rot[0]), math.Sin(c.Rot[0])
	p[1], p[2] = p[1]*cx-p[2]*sx, p[1]*sx+p[2]*cx
	cy, sy := math.Cos(c.Rot[1]), math.Sin(c.Rot[1])
	p[0], p[2] = p[0]*cy+p[2]*sy, -p[0]*sy+p[2]*cy
	cz, sz := math.Cos(c.Rot[2]), math.Sin(c.Rot[2])
	p[0], p[1] = p[0]*cz-p[1]*sz, p[0]*sz+p[1]*cz
	return p
}

// Project maps a state to dot coordinates on a sw x sh dot screen and
// reports whether the point is visible.
func (c *Camera) Project(s dynamo.State, sw, sh int) (int, int, bool) {
	s[2] -= attractorCenter
	rot := c.RotatePoint(s.Scale(c.Scale))
	half := float64(sh) / 2
	if w := float64(sw) / 2; w < half {
		half = w
	}
	x := int(rot[0]*half) + sw/2
	y := int(-rot[1]*half) + sh/2
	return x, y, x >= 0 && x < sw && y >= 0 && y < sh
}
