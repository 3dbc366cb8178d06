package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a braille pixel grid of Width x Height cells, so Width*2 by
// Height*4 dots. Each cell remembers the pen of the last dot drawn in it.
type Canvas struct {
	Width, Height int
	Grid          [][]rune

	pen   int
	ink   [][]int
	heads [][]bool
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h}
	c.Grid = make([][]rune, h)
	c.ink = make([][]int, h)
	c.heads = make([][]bool, h)
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.ink[i] = make([]int, w)
		c.heads[i] = make([]bool, w)
	}
	c.Clear()
	return c
}

// SetPen selects the palette index used by subsequent dots.
func (c *Canvas) SetPen(i int) { c.pen = i }

func (c *Canvas) cell(x, y int) (row, col int, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, false
	}
	col, row = x/2, y/4
	return row, col, col < c.Width && row < c.Height
}

// Set sets the dot at (x, y) in dot coordinates.
func (c *Canvas) Set(x, y int) {
	row, col, ok := c.cell(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	c.ink[row][col] = c.pen
}

// Mark sets a 2x2 dot block at (x, y) and flags its cells as heads.
func (c *Canvas) Mark(x, y int) {
	for dy := 0; dy < 2; dy++ {
		for dx := 0; dx < 2; dx++ {
			c.Set(x+dx, y+dy)
			if row, col, ok := c.cell(x+dx, y+dy); ok {
				c.heads[row][col] = true
			}
		}
	}
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.ink[i][j] = -1
			c.heads[i][j] = false
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render colours each run of cells sharing a pen with palette[pen % len].
// Head cells use head instead.
func (c *Canvas) Render(palette []lipgloss.Style, head lipgloss.Style) string {
	var b strings.Builder
	for r, row := range c.Grid {
		start := 0
		for col := 1; col <= len(row); col++ {
			if col < len(row) && c.key(r, col) == c.key(r, start) {
				continue
			}
			b.WriteString(c.style(r, start, palette, head).Render(string(row[start:col])))
			start = col
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// key identifies the style of a cell; heads sort below every pen.
func (c *Canvas) key(row, col int) int {
	if c.heads[row][col] {
		return -2
	}
	if c.Grid[row][col] == blank {
		return -1
	}
	return c.ink[row][col]
}

func (c *Canvas) style(row, col int, palette []lipgloss.Style, head lipgloss.Style) lipgloss.Style {
	switch k := c.key(row, col); {
	case k == -2:
		return head
	case k < 0 || len(palette) == 0:
		return lipgloss.NewStyle()
	default:
		return palette[k%len(palette)]
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
