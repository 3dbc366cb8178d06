package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/lorenzsim/internal/dynamo"
)

// Projector maps a state to pixel coordinates on a width x height image.
type Projector interface {
	Project(s dynamo.State, width, height int) (x, y int, visible bool)
}

// TailsToSVG draws each tail as a path, oldest to newest, with a dot at the
// head. Tail i uses colors[i % len(colors)]. Points the projector reports
// as off-image break the path.
func TailsToSVG(tails [][]dynamo.State, p Projector, width, height int, colors []string) string {
	if len(colors) == 0 {
		colors = []string{"#00ff00"}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for i, tail := range tails {
		if len(tail) == 0 {
			continue
		}
		color := colors[i%len(colors)]

		var d strings.Builder
		pen := false
		for _, s := range tail {
			x, y, ok := p.Project(s, width, height)
			if !ok {
				pen = false
				continue
			}
			if pen {
				d.WriteString(fmt.Sprintf(" L%d,%d", x, y))
			} else {
				d.WriteString(fmt.Sprintf(" M%d,%d", x, y))
				pen = true
			}
		}
		if d.Len() > 0 {
			sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1" d="%s"/>
`, color, strings.TrimSpace(d.String())))
		}
		if x, y, ok := p.Project(tail[len(tail)-1], width, height); ok {
			sb.WriteString(fmt.Sprintf(`<circle cx="%d" cy="%d" r="2.5" fill="%s"/>
`, x, y, color))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}
