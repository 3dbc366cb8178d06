package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/lorenzsim/internal/config"
	"github.com/san-kum/lorenzsim/internal/dynamo"
	"github.com/san-kum/lorenzsim/internal/sim"
)

const (
	width        = 80
	height       = 24
	panelWidth   = 45
	zHistoryLen  = 120
	spinPerPress = 0.005
)

// tunable lists the parameters cycled with tab.
var tunable = []string{
	dynamo.ParamSigma,
	dynamo.ParamBeta,
	dynamo.ParamRho,
	dynamo.ParamStepSize,
	dynamo.ParamStepsPerFrame,
}

type TickMsg time.Time

// Model is the live viewer. It owns nothing but view state; the simulation
// lives in the scheduler's ensemble.
type Model struct {
	sched  *sim.Scheduler
	camera *Camera
	canvas *Canvas

	interval  time.Duration
	selected  int
	showHeads bool
	showHelp  bool
	zHistory  []float64
	last      sim.FrameDelta
	err       error
}

// NewModel builds a viewer ticking fps times a second.
func NewModel(s *sim.Scheduler, fps int) Model {
	if fps < 1 {
		fps = config.DefaultFPS
	}
	return Model{
		sched:     s,
		camera:    NewCamera(),
		canvas:    NewCanvas(width, height),
		interval:  time.Second / time.Duration(fps),
		showHeads: true,
		zHistory:  make([]float64, 0, zHistoryLen),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w := max(msg.Width-panelWidth-8, 20)
		h := max(msg.Height-2, 10)
		m.canvas = NewCanvas(w, h)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		m.last = m.sched.Tick(time.Time(msg))
		m.camera.Advance()
		m.recordZ()
		m.draw()
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.sched.Ensemble()
	m.err = nil
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "a":
		_, m.err = e.AddRandom()
	case "c":
		_, m.err = e.Clone(nil)
	case "C":
		e.Clear()
		m.zHistory = m.zHistory[:0]
	case " ":
		e.TogglePaused()
	case "[":
		m.err = e.SetTailCapacity(config.HalveTail(e.TailCapacity()))
	case "]":
		m.err = e.SetTailCapacity(config.DoubleTail(e.TailCapacity()))
	case "tab":
		m.selected = (m.selected + 1) % len(tunable)
	case "up", "k":
		m.err = m.adjustParam(1)
	case "down", "j":
		m.err = m.adjustParam(-1)
	case "h":
		m.showHeads = !m.showHeads
	case "d":
		m.camera.Damping = !m.camera.Damping
	case "x":
		m.camera.Nudge(0, spinPerPress)
	case "X":
		m.camera.Nudge(0, -spinPerPress)
	case "y":
		m.camera.Nudge(1, spinPerPress)
	case "Y":
		m.camera.Nudge(1, -spinPerPress)
	case "z":
		m.camera.Nudge(2, spinPerPress)
	case "Z":
		m.camera.Nudge(2, -spinPerPress)
	case "+", "=":
		m.camera.ZoomIn()
	case "-", "_":
		m.camera.ZoomOut()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// adjustParam moves the selected parameter 5% in dir, or by one step for
// steps_per_frame.
func (m Model) adjustParam(dir int) error {
	e := m.sched.Ensemble()
	name := tunable[m.selected]
	v, err := e.Params().Get(name)
	if err != nil {
		return err
	}
	if name == dynamo.ParamStepsPerFrame {
		v += float64(dir)
	} else {
		v *= 1 + 0.05*float64(dir)
	}
	return e.SetParam(name, v)
}

func (m *Model) recordZ() {
	if len(m.last.Trajectories) == 0 || m.last.Paused {
		return
	}
	m.zHistory = append(m.zHistory, m.last.Trajectories[0].Head[2])
	if len(m.zHistory) > zHistoryLen {
		m.zHistory = m.zHistory[1:]
	}
}

// draw redraws every tail from the tail buffer, newest point first.
func (m *Model) draw() {
	m.canvas.Clear()
	e := m.sched.Ensemble()
	buf := e.Buffer()
	k := m.last.Capacity
	sw, sh := m.canvas.Width*2, m.canvas.Height*4

	for _, td := range m.last.Trajectories {
		h, err := e.History(td.Index)
		if err != nil || td.Filled == 0 || k != h.Capacity() {
			continue
		}
		m.canvas.SetPen(td.Index)
		newest := h.WriteIndex() - 1
		px, py, _ := m.camera.Project(buf.Point(td.Index, mod(newest, k)), sw, sh)
		for j := 1; j < td.Filled; j++ {
			x, y, _ := m.camera.Project(buf.Point(td.Index, mod(newest-j, k)), sw, sh)
			m.canvas.DrawLine(px, py, x, y)
			px, py = x, y
		}
		if m.showHeads {
			if x, y, ok := m.camera.Project(td.Head, sw, sh); ok {
				m.canvas.Mark(x, y)
			}
		}
	}
}

func mod(x, n int) int {
	return ((x % n) + n) % n
}

// View renders the TUI interface.
func (m Model) View() string {
	e := m.sched.Ensemble()
	p := e.Params()

	var s strings.Builder
	s.WriteString(headerStyle.Render("LORENZ") + "\n")
	if p.Paused {
		s.WriteString(statusPaused.Render("PAUSED"))
	} else {
		s.WriteString(statusRunning.Render("RUNNING"))
	}
	s.WriteString(fmt.Sprintf("  %d @ %d fps\n\n", e.TrajectoryCount(), m.sched.FPS()))

	if len(m.zHistory) > 1 {
		chart := asciigraph.Plot(m.zHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("z of trajectory 0"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Tail") + valueStyle.Render(fmt.Sprintf("%d", e.TailCapacity())) + "\n")
	s.WriteString(labelStyle.Render("Frame") + valueStyle.Render(fmt.Sprintf("%d", m.last.Frame)) + "\n")
	s.WriteString("\nPARAMETERS\n")
	for i, name := range tunable {
		v, _ := p.Get(name)
		line := fmt.Sprintf("%-16s %.4g", name, v)
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}
	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("\n─────────────────────\nA:Add C:Clone ⇧C:Clear\nSP:Pause [ ]:Tail ?:Help Q:Quit"))

	canvasView := canvasStyle.Render(m.canvas.Render(trajectoryStyles, headStyle))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  A        - Add random trajectory    ║
║  C        - Clone a trajectory       ║
║  Shift+C  - Clear all trajectories   ║
║  Space    - Pause/Resume             ║
║  [ / ]    - Halve/double tail length ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  H        - Toggle heads             ║
║  X/Y/Z    - Spin (shift reverses)    ║
║  D        - Toggle spin damping      ║
║  + / -    - Zoom                     ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// Run starts the viewer on the alternate screen and blocks until it quits.
func Run(s *sim.Scheduler, fps int) error {
	_, err := tea.NewProgram(NewModel(s, fps), tea.WithAltScreen()).Run()
	return err
}
