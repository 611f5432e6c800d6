package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/dynstep/internal/dynamo"
)

const (
	width  = 60
	height = 20

	frameRate = 30
	maxSpeed  = 1 << 12
)

type TickMsg time.Time

// Model plays back a finished trajectory.
type Model struct {
	title   string
	tr      *dynamo.Trajectory
	labels  []string
	scene   Scene
	canvas  *Canvas
	view    Viewport
	frame   int
	speed   int
	running bool
	runErr  error
}

// NewModel prepares playback of tr. runErr, if any, is shown once playback
// reaches the last recorded state.
func NewModel(title string, sys dynamo.System, tr *dynamo.Trajectory, labels []string, runErr error) Model {
	canvas := NewCanvas(width, height)
	scene := SceneFor(sys)
	minX, maxX, minY, maxY := scene.Bounds(tr)

	// aim for roughly ten seconds of playback
	speed := max(1, tr.Len()/(10*frameRate))

	return Model{
		title:   title,
		tr:      tr,
		labels:  labels,
		scene:   scene,
		canvas:  canvas,
		view:    Fit(canvas, minX, maxX, minY, maxY),
		speed:   min(speed, maxSpeed),
		running: true,
		runErr:  runErr,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

// Frame is the index of the state on screen.
func (m Model) Frame() int { return m.frame }

// Update handles keys and advances playback on ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	last := m.tr.Len() - 1

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.frame = 0
			m.running = true
		case "[":
			m.running = false
			m.frame = max(0, m.frame-1)
		case "]":
			m.running = false
			m.frame = min(last, m.frame+1)
		case "+", "=":
			m.speed = min(maxSpeed, m.speed*2)
		case "-", "_":
			m.speed = max(1, m.speed/2)
		}
	case TickMsg:
		if m.running {
			m.frame = min(last, m.frame+m.speed)
			if m.frame == last {
				m.running = false
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	m.canvas.Clear()
	m.scene.Draw(m.canvas, m.view, m.tr, m.frame)
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.title)) + "\n\n")

	last := m.tr.Len() - 1
	status := GoodStyle.Render("PLAYING")
	switch {
	case m.frame == last && m.runErr != nil:
		status = ErrorStyle.Render("FAILED")
	case m.frame == last:
		status = Subtle.Render("DONE")
	case !m.running:
		status = WarnStyle.Render("PAUSED")
	}
	s.WriteString(status + fmt.Sprintf("  x%d\n\n", m.speed))

	if len(m.tr.Energies) > 1 {
		hist := m.tr.Energies[:m.frame+1]
		if len(hist) > 1 {
			s.WriteString(graphStyle.Render(Plot(hist, "energy", 30, 4)) + "\n")
		}
	}

	s.WriteString(KeyValue("step", fmt.Sprintf("%d / %d", m.frame, last)) + "\n")
	s.WriteString(KeyValue("time", fmt.Sprintf("%.4g", m.tr.Times[m.frame])) + "\n")
	if len(m.tr.Energies) > m.frame {
		s.WriteString(KeyValue("energy", fmt.Sprintf("%.6g", m.tr.Energies[m.frame])) + "\n")
	}

	x := m.tr.States[m.frame]
	for i, v := range x {
		if i >= 6 {
			s.WriteString(Subtle.Render(fmt.Sprintf("  ... %d more", len(x)-i)) + "\n")
			break
		}
		label := fmt.Sprintf("x%d", i)
		if i < len(m.labels) {
			label = m.labels[i]
		}
		s.WriteString(KeyValue(label, fmt.Sprintf("%.6g", v)) + "\n")
	}

	if m.frame == last && m.runErr != nil {
		s.WriteString("\n" + ErrorStyle.Render(m.runErr.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause R:Restart Q:Quit\n[ ]:Step  + -:Speed"))
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}
