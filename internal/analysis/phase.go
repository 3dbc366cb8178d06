package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/lorenzsim/internal/dynamo"
	"github.com/san-kum/lorenzsim/internal/integrators"
)

type Point struct{ X, Y float64 }

// PoincareSection records (x, y) each time the trajectory crosses the plane
// z = rho-1 upwards, the height of the two non-trivial fixed points.
func PoincareSection(p dynamo.Params, x0 dynamo.State, steps int) []Point {
	plane := p.Rho - 1
	x := x0
	var pts []Point
	for i := 0; i < steps; i++ {
		prev := x
		integrators.Advance(&x, p.StepSize, p.Sigma, p.Beta, p.Rho)
		if prev[2] < plane && x[2] >= plane {
			frac := (plane - prev[2]) / (x[2] - prev[2])
			if math.IsNaN(frac) || math.IsInf(frac, 0) {
				frac = 0.5
			}
			pts = append(pts, Point{
				X: prev[0] + frac*(x[0]-prev[0]),
				Y: prev[1] + frac*(x[1]-prev[1]),
			})
		}
	}
	return pts
}

// PointsToASCII scatters points on a width x height character grid.
func PointsToASCII(pts []Point, width, height int) string {
	if len(pts) == 0 || width <= 0 || height <= 0 {
		return "No crossings detected"
	}
	minX, maxX := pts[0].X, pts[0].X
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
	}
	return plotASCII(pts, width, height, minX, maxX)
}

func plotASCII(pts []Point, width, height int, minX, maxX float64) string {
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	for _, p := range pts {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
