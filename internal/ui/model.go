package ui

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"scrollwatch/internal/config"
	"scrollwatch/internal/eventbus"
	"scrollwatch/internal/scroll"
	"scrollwatch/internal/tracker"
)

// Surface is the name the document is tracked under
const Surface = "document"

const documentZone = "document"

// Layout rows taken by everything around the document viewport: title, the
// document border, the stats panel and the status and help lines.
const chromeHeight = 11

const recentSamples = 5

// Model is the bubbletea host that scrolls a document and samples its position
type Model struct {
	bus      eventbus.EventBus
	tracker  *tracker.Tracker
	settings config.UISettings
	interval time.Duration

	vp      viewport.Model
	help    help.Model
	keys    keyMap
	styles  *Styles
	zones   *zone.Manager
	lines   []string
	widest  int
	xOffset int

	width  int
	height int
	ready  bool

	update   func() scroll.VelocityState
	state    scroll.VelocityState
	hasState bool

	status    string
	statusErr bool

	copyToClipboard func(string) error
	pager           *PagerOps
	e2e             bool
}

// NewModel creates a new UI model that records through t
func NewModel(bus eventbus.EventBus, t *tracker.Tracker, cfg *config.Config) *Model {
	m := &Model{
		bus:             bus,
		tracker:         t,
		settings:        cfg.UISettings,
		interval:        cfg.SampleInterval(),
		help:            help.New(),
		keys:            newKeyMap(),
		styles:          NewStyles(),
		zones:           zone.New(),
		lines:           generateDocument(cfg.UISettings.DocumentLines),
		copyToClipboard: clipboard.WriteAll,
		e2e:             os.Getenv("SCROLLWATCH_E2E_TEST") == "1",
	}
	m.widest = maxLineWidth(m.lines)
	m.vp = viewport.New(0, 0)
	m.vp.MouseWheelEnabled = false
	m.update = t.Attach(Surface, m.position)
	return m
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.pager = NewPagerOps(p)
}

// position reports the current scroll offsets of the document
func (m *Model) position() scroll.Position {
	return scroll.Position{X: float64(m.xOffset), Y: float64(m.vp.YOffset)}
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		if !m.ready {
			m.ready = true
			m.sample()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.zones.Get(documentZone).InBounds(msg) {
			m.handleWheel(msg)
		}
		return m, nil

	case tickMsg:
		m.sample()
		return m, m.tick()

	case EventMsg:
		m.handleEvent(msg.Event)
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Copy failed: %v", msg.err))
		} else {
			m.setStatus("Copied state to clipboard")
		}
		return m, nil

	case historyPagerMsg:
		if msg.err != nil {
			log.Printf("History pager failed: %v", msg.err)
			m.setError(fmt.Sprintf("Pager failed: %v", msg.err))
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize(m.width, m.height)
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.scrollBy(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.scrollBy(0, 1)
	case key.Matches(msg, m.keys.Left):
		m.scrollBy(-m.settings.HorizontalStep, 0)
	case key.Matches(msg, m.keys.Right):
		m.scrollBy(m.settings.HorizontalStep, 0)
	case key.Matches(msg, m.keys.PageUp):
		m.scrollBy(0, -m.vp.Height)
	case key.Matches(msg, m.keys.PageDown):
		m.scrollBy(0, m.vp.Height)
	case key.Matches(msg, m.keys.Top):
		m.scrollBy(0, -m.vp.YOffset)
	case key.Matches(msg, m.keys.Bottom):
		m.scrollBy(0, len(m.lines))
	case key.Matches(msg, m.keys.Reset):
		m.tracker.Reset(Surface)
		m.hasState = false
		m.state = scroll.VelocityState{}
		m.setStatus("Tracking reset")
	case key.Matches(msg, m.keys.Copy):
		return m, m.copyState()
	case key.Matches(msg, m.keys.History):
		return m, m.showHistory()
	}
	return m, nil
}

// handleWheel scrolls the document for wheel events. Shift turns vertical wheel
// motion into horizontal motion.
func (m *Model) handleWheel(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress {
		return
	}

	step := m.settings.WheelStep
	hstep := m.settings.HorizontalStep
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if msg.Shift {
			m.scrollBy(-hstep, 0)
		} else {
			m.scrollBy(0, -step)
		}
	case tea.MouseButtonWheelDown:
		if msg.Shift {
			m.scrollBy(hstep, 0)
		} else {
			m.scrollBy(0, step)
		}
	case tea.MouseButtonWheelLeft:
		m.scrollBy(-hstep, 0)
	case tea.MouseButtonWheelRight:
		m.scrollBy(hstep, 0)
	}
}

// scrollBy moves the document and samples the new position if it changed
func (m *Model) scrollBy(dx, dy int) {
	before := m.position()

	if dx != 0 {
		m.xOffset = clamp(m.xOffset+dx, 0, m.maxXOffset())
		m.vp.SetContent(cutLines(m.lines, m.xOffset, m.vp.Width))
	}
	if dy != 0 {
		m.vp.SetYOffset(m.vp.YOffset + dy)
	}

	if m.position() != before {
		m.sample()
	}
}

func (m *Model) maxXOffset() int {
	return max(m.widest-m.vp.Width, 0)
}

// sample feeds the current position through the tracker
func (m *Model) sample() {
	m.state = m.update()
	m.hasState = true
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width

	extra := 0
	if m.help.ShowAll {
		extra += 3
	}
	if m.settings.ShowHistory {
		extra++
	}

	// The document border takes two columns
	m.vp.Width = max(width-2, 1)
	m.vp.Height = max(height-chromeHeight-extra, 1)
	m.xOffset = clamp(m.xOffset, 0, m.maxXOffset())
	m.vp.SetContent(cutLines(m.lines, m.xOffset, m.vp.Width))
}

func (m *Model) handleEvent(event eventbus.DomainEvent) {
	switch e := event.(type) {
	case eventbus.ConfigChangedEvent:
		if e.Settings.SampleInterval > 0 {
			m.interval = e.Settings.SampleInterval
		}
		m.setStatus(fmt.Sprintf("Config reloaded: window %s", e.Settings.Window))
	case eventbus.ErrorEvent:
		m.setError(e.Message)
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

func (m *Model) copyState() tea.Cmd {
	if !m.hasState {
		m.setError("Nothing to copy yet")
		return nil
	}
	content, err := stateJSON(Surface, m.state)
	if err != nil {
		m.setError(err.Error())
		return nil
	}
	write := m.copyToClipboard
	return func() tea.Msg {
		return copiedMsg{err: write(content)}
	}
}

func (m *Model) showHistory() tea.Cmd {
	if m.pager == nil {
		m.setError("Pager not available")
		return nil
	}
	content := renderHistory(Surface, m.tracker.Settings().Window, m.state)
	pager := m.pager
	return func() tea.Msg {
		return historyPagerMsg{err: pager.Show(content)}
	}
}

// View renders the UI
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("scrollwatch"))
	b.WriteString(m.styles.Status.Render(fmt.Sprintf("  line %d/%d  col %d", m.vp.YOffset+1, len(m.lines), m.xOffset)))
	b.WriteString("\n")
	b.WriteString(m.zones.Mark(documentZone, m.styles.Document.Render(m.vp.View())))
	b.WriteString("\n")
	b.WriteString(m.renderStats())
	b.WriteString("\n")

	switch {
	case m.status == "":
		b.WriteString(m.styles.Status.Render(" "))
	case m.statusErr:
		b.WriteString(m.styles.StatusErr.Render(m.status))
	default:
		b.WriteString(m.styles.Status.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))

	if m.e2e {
		b.WriteString("\n__READY__")
	}

	return m.zones.Scan(b.String())
}

func (m *Model) renderStats() string {
	s := m.state
	label := m.styles.Label.Render
	value := m.styles.Value.Render

	rows := []string{
		fmt.Sprintf("%s %s  %s %s",
			label("position"), value(fmt.Sprintf("x=%-6g y=%-6g", s.Position.X, s.Position.Y)),
			label("delta"), value(fmt.Sprintf("dx=%-6g dy=%-6g", s.Delta.X, s.Delta.Y))),
		fmt.Sprintf("%s %s %s",
			label("direction"), m.styles.Direction(orNone(s.Direction.X)), m.styles.Direction(orNone(s.Direction.Y))),
		fmt.Sprintf("%s %s %s  %s %s",
			label("velocity"), m.rate("vx", s.Velocity.X), m.rate("vy", s.Velocity.Y),
			label("history"), value(fmt.Sprintf("%d", len(s.History)))),
	}
	if m.settings.ShowHistory {
		rows = append(rows, fmt.Sprintf("%s %s", label("recent"), value(recentPositions(s.History, recentSamples))))
	}
	return m.styles.Panel.Width(max(m.width-2, 0)).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) rate(name string, v *float64) string {
	if v == nil {
		return m.styles.Unknown.Render(name + "=unknown")
	}
	return m.styles.Value.Render(fmt.Sprintf("%s=%.4f/ms", name, *v))
}

// recentPositions lists the newest n positions of history, oldest first
func recentPositions(history []scroll.Sample, n int) string {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	parts := make([]string, len(history))
	for i, h := range history {
		parts[i] = fmt.Sprintf("(%g,%g)", h.Position.X, h.Position.Y)
	}
	return strings.Join(parts, " ")
}

func orNone(d scroll.Direction) scroll.Direction {
	if d == "" {
		return scroll.None
	}
	return d
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
