package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cbegin/polysynth-go/internal/engine"
)

// DefaultHold is how long a key sounds before its note-off is sent.
// Terminals report presses but not releases.
const DefaultHold = 400 * time.Millisecond

const refresh = 50 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Width(10).Foreground(lipgloss.Color("244"))
	keyStyle   = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder())
	litStyle   = keyStyle.Copy().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("42"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type (
	tickMsg    time.Time
	releaseMsg struct{ note int }
	notifyMsg  engine.Notification
)

// Model is the bubbletea model for the interactive keyboard.
type Model struct {
	ctl      Controller
	keys     *Keys
	gate     gate
	hold     time.Duration
	notes    <-chan engine.Notification
	meter    progress.Model
	velocity float64
	freq     float64
	lastNote int
	voices   int
	status   string
}

// NewModel builds a model that plays through ctl. notes may be nil; when
// set, the velocity and frequency meters follow it.
func NewModel(ctl Controller, notes <-chan engine.Notification, hold time.Duration) *Model {
	if hold <= 0 {
		hold = DefaultHold
	}
	return &Model{
		ctl:      ctl,
		keys:     NewKeys(),
		hold:     hold,
		notes:    notes,
		meter:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(32), progress.WithoutPercentage()),
		lastNote: -1,
		status:   "ready",
	}
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(ctl Controller, notes <-chan engine.Notification, hold time.Duration) error {
	_, err := tea.NewProgram(NewModel(ctl, notes, hold), tea.WithAltScreen()).Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitNotification())
}

func tick() tea.Cmd {
	return tea.Tick(refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) waitNotification() tea.Cmd {
	if m.notes == nil {
		return nil
	}
	ch := m.notes
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notifyMsg(n)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.voices = m.ctl.ActiveVoices()
		return m, tick()

	case releaseMsg:
		if m.gate.release(msg.note) {
			m.ctl.NoteOff(Channel, msg.note, 0)
		}
		return m, nil

	case notifyMsg:
		switch msg.Kind {
		case engine.NotifyVelocity:
			m.velocity = float64(msg.Value)
		case engine.NotifyFrequency:
			m.freq = float64(msg.Value)
		}
		return m, m.waitNotification()

	case tea.KeyMsg:
		res := m.keys.Press(m.ctl, msg.String())
		if res.Quit {
			return m, tea.Quit
		}
		if res.Status != "" {
			m.status = res.Status
		}
		if res.Note >= 0 {
			m.gate.press(res.Note)
			m.lastNote = res.Note
			note := res.Note
			return m, tea.Tick(m.hold, func(time.Time) tea.Msg { return releaseMsg{note} })
		}
	}
	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder
	p := m.ctl.Parameters()
	b.WriteString(titleStyle.Render("polysynth"))
	b.WriteString("\n\n")

	var keys []string
	for _, k := range []string{"a", "w", "s", "e", "d", "f", "t", "g", "y", "h", "u", "j", "k"} {
		style := keyStyle
		if n, ok := m.keys.Note(k); ok && m.gate.holding(n) {
			style = litStyle
		}
		keys = append(keys, style.Render(k))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, keys...))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("wave", p.Waveform.String())
	row("tremolo", fmt.Sprintf("%t  rate %.2f  depth %.2f", p.Tremolo, p.TremoloRate, p.TremoloDepth))
	row("gain", fmt.Sprintf("%.1f dB", p.GainDB))
	row("octave", fmt.Sprintf("%+d", m.keys.Octave))
	row("voices", fmt.Sprintf("%d", m.voices))
	row("velocity", m.meter.ViewAs(m.velocity))
	row("frequency", m.meter.ViewAs(freqLevel(m.freq))+fmt.Sprintf("  %.0f", m.freq))
	row("note", noteName(m.lastNote))
	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("a-k play  z/x octave  1-4 wave  space tremolo  -/= gain  0 silence  q quit"))
	return b.String()
}

// freqLevel scales a frequency notification onto [0, 1] against the
// value reported for the highest MIDI note.
func freqLevel(v float64) float64 {
	top := engine.DerivedFrequency(440 * math.Pow(2, float64(127-69)/12))
	if v <= 0 {
		return 0
	}
	return math.Min(1, math.Log(1+v)/math.Log(1+top))
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func noteName(n int) string {
	if n < 0 || n > 127 {
		return "-"
	}
	return fmt.Sprintf("%s%d", noteNames[n%12], n/12-1)
}
