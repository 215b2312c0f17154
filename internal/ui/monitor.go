package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/keytap/internal/input"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// EventMsg carries one captured event into the monitor
type EventMsg input.Event

// StreamClosedMsg reports that the event source was closed
type StreamClosedMsg struct{}

// WaitForEvent reads the next event from ch as a message
func WaitForEvent(ch <-chan input.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return StreamClosedMsg{}
		}
		return EventMsg(e)
	}
}

const defaultMonitorRows = 200

// MonitorModel is a live table of captured events
type MonitorModel struct {
	source  <-chan input.Event
	mode    string
	dropped func() uint64

	table   table.Model
	spinner spinner.Model
	rows    []table.Row // newest first
	maxRows int

	counts    map[input.EventKind]int
	total     int
	paused    bool
	showMoves bool
	closed    bool
	width     int
}

// NewMonitorModel creates a monitor reading from source. dropped may be nil.
func NewMonitorModel(source <-chan input.Event, mode string, dropped func() uint64) *MonitorModel {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: SpinnerDot,
		FPS:    time.Second / 10,
	}
	s.Style = SpinnerStyle

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Time", Width: 12},
			{Title: "Event", Width: 30},
			{Title: "Text", Width: 6},
			{Title: "Code", Width: 8},
			{Title: "HID", Width: 6},
		}),
		table.WithHeight(15),
		table.WithFocused(false),
	)
	styles := table.DefaultStyles()
	styles.Header = TableHeaderStyle
	styles.Cell = TableCellStyle
	styles.Selected = lipgloss.NewStyle()
	t.SetStyles(styles)

	return &MonitorModel{
		source:  source,
		mode:    mode,
		dropped: dropped,
		table:   t,
		spinner: s,
		maxRows: defaultMonitorRows,
		counts:  make(map[input.EventKind]int),
	}
}

// Init implements tea.Model
func (m *MonitorModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, WaitForEvent(m.source))
}

// Update implements tea.Model
func (m *MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "p":
			m.paused = !m.paused
		case "c":
			m.rows = nil
			m.counts = make(map[input.EventKind]int)
			m.total = 0
			m.table.SetRows(nil)
		case "m":
			m.showMoves = !m.showMoves
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetWidth(msg.Width)
		if h := msg.Height - 8; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case EventMsg:
		m.record(input.Event(msg))
		return m, WaitForEvent(m.source)

	case StreamClosedMsg:
		m.closed = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *MonitorModel) record(e input.Event) {
	m.counts[e.Type.Kind]++
	m.total++

	if m.paused {
		return
	}
	if e.Type.Kind == input.KindMouseMove && !m.showMoves {
		return
	}

	m.rows = append([]table.Row{eventRow(e)}, m.rows...)
	if len(m.rows) > m.maxRows {
		m.rows = m.rows[:m.maxRows]
	}
	m.table.SetRows(m.rows)
}

func eventRow(e input.Event) table.Row {
	var text, hid string
	if e.Unicode != nil {
		text = fmt.Sprintf("%q", e.Unicode.Name)
	}
	if e.USBHID != 0 {
		hid = fmt.Sprintf("0x%02x", e.USBHID)
	}
	ts := "-"
	if !e.Time.IsZero() {
		ts = e.Time.Format("15:04:05.000")
	}
	return table.Row{ts, e.Type.String(), text, fmt.Sprint(e.PlatformCode), hid}
}

// View implements tea.Model
func (m *MonitorModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("KEYTAP"))
	b.WriteString(" ")
	switch {
	case m.closed:
		b.WriteString(FormatStatus(false, "capture ended"))
	case m.paused:
		b.WriteString(FormatStatus(false, WarningStyle.Render("paused")))
	default:
		b.WriteString(FormatStatus(true, m.spinner.View()+" "+m.mode))
	}
	b.WriteString("\n\n")

	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	kinds := []input.EventKind{
		input.KindKeyPress, input.KindKeyRelease,
		input.KindButtonPress, input.KindButtonRelease,
		input.KindMouseMove, input.KindWheel,
	}
	var counts []string
	for _, k := range kinds {
		counts = append(counts, KindStyle(k).Render(fmt.Sprintf("%s %d", k, m.counts[k])))
	}
	b.WriteString(strings.Join(counts, "  "))
	b.WriteString("\n")

	summary := fmt.Sprintf("total %d", m.total)
	if m.dropped != nil {
		if d := m.dropped(); d > 0 {
			summary += WarningStyle.Render(fmt.Sprintf("  dropped %d", d))
		}
	}
	b.WriteString(SubtleStyle.Render(summary))
	b.WriteString("\n\n")

	moves := "show moves"
	if m.showMoves {
		moves = "hide moves"
	}
	b.WriteString(strings.Join([]string{
		FormatControl("p", "pause"),
		FormatControl("c", "clear"),
		FormatControl("m", moves),
		FormatControl("q", "quit"),
	}, "  "))
	b.WriteString("\n")
	return b.String()
}
