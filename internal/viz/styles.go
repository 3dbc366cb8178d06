package viz

import "github.com/charmbracelet/lipgloss"

// palette is the trajectory colour cycle.
var palette = []lipgloss.Color{
	"#8dd3c7", "#ffffb3", "#bebada", "#fb8072", "#80b1d3", "#fdb462",
	"#b3de69", "#fccde5", "#d9d9d9", "#bc80bd", "#ccebc5", "#ffed6f",
	"#ffffff",
}

var (
	canvasStyle      = lipgloss.NewStyle().Padding(1, 2)
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(panelWidth)
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	headStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)

	statusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	statusPaused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))

	trajectoryStyles = func() []lipgloss.Style {
		s := make([]lipgloss.Style, len(palette))
		for i, c := range palette {
			s[i] = lipgloss.NewStyle().Foreground(c)
		}
		return s
	}()
)

// PaletteHex returns the trajectory colours as hex strings.
func PaletteHex() []string {
	out := make([]string, len(palette))
	for i, c := range palette {
		out[i] = string(c)
	}
	return out
}
