package analysis

import (
	"github.com/san-kum/lorenzsim/internal/dynamo"
	"github.com/san-kum/lorenzsim/internal/integrators"
)

// BifurcationPoint holds the distinct local maxima of z seen for one rho.
type BifurcationPoint struct {
	Rho    float64
	Maxima []float64
}

// RhoSweep steps x0 for each of n rho values in [from, to], discards the
// first transient steps and records the local maxima of z over the next
// record steps. Maxima closer than 1e-3 collapse into one.
func RhoSweep(p dynamo.Params, x0 dynamo.State, from, to float64, n, transient, record int) []BifurcationPoint {
	if n <= 0 {
		return nil
	}
	step := 0.0
	if n > 1 {
		step = (to - from) / float64(n-1)
	}

	results := make([]BifurcationPoint, 0, n)
	for i := 0; i < n; i++ {
		rho := from + float64(i)*step
		x := x0
		for t := 0; t < transient; t++ {
			integrators.Advance(&x, p.StepSize, p.Sigma, p.Beta, rho)
		}

		seen := make(map[int]bool)
		var maxima []float64
		prev, cur := x[2], x[2]
		for t := 0; t < record; t++ {
			integrators.Advance(&x, p.StepSize, p.Sigma, p.Beta, rho)
			next := x[2]
			if t > 0 && cur > prev && cur >= next {
				key := int(cur * 1000)
				if !seen[key] {
					seen[key] = true
					maxima = append(maxima, cur)
				}
			}
			prev, cur = cur, next
		}
		results = append(results, BifurcationPoint{Rho: rho, Maxima: maxima})
	}
	return results
}

// BifurcationToASCII plots rho on the horizontal axis against z maxima.
func BifurcationToASCII(data []BifurcationPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}
	var pts []Point
	for i, p := range data {
		for _, v := range p.Maxima {
			pts = append(pts, Point{X: float64(i), Y: v})
		}
	}
	if len(pts) == 0 {
		return ""
	}
	return plotASCII(pts, width, height, 0, float64(len(data)-1))
}
