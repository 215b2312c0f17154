package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/bnema/keytap/internal/input"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m *MonitorModel, msg tea.Msg) tea.Cmd {
	t.Helper()
	updated, cmd := m.Update(msg)
	require.Same(t, m, updated)
	return cmd
}

func TestMonitorRecordsEvents(t *testing.T) {
	ch := make(chan input.Event, 1)
	m := NewMonitorModel(ch, "listen", nil)

	e := input.Event{
		Type:         input.KeyPress(input.KeyA),
		Time:         time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.Local),
		Unicode:      &input.UnicodeInfo{Name: "a"},
		PlatformCode: 30,
		USBHID:       4,
	}
	cmd := send(t, m, EventMsg(e))
	require.NotNil(t, cmd, "the monitor keeps reading the source")

	require.Len(t, m.rows, 1)
	assert.Equal(t, []string{"03:04:05.006", "KeyPress(A)", `"a"`, "30", "0x04"}, []string(m.rows[0]))
	assert.Equal(t, 1, m.counts[input.KindKeyPress])

	send(t, m, EventMsg(input.Event{Type: input.KeyRelease(input.KeyA)}))
	require.Len(t, m.rows, 2)
	assert.Equal(t, "KeyRelease(A)", m.rows[0][1], "newest first")
	assert.Equal(t, "-", m.rows[0][0])
}

func TestMonitorWaitForEvent(t *testing.T) {
	ch := make(chan input.Event, 1)
	ch <- input.Event{Type: input.Wheel(0, 1)}

	msg := WaitForEvent(ch)()
	assert.Equal(t, EventMsg(input.Event{Type: input.Wheel(0, 1)}), msg)

	close(ch)
	assert.Equal(t, StreamClosedMsg{}, WaitForEvent(ch)())
}

func TestMonitorHidesMovesByDefault(t *testing.T) {
	m := NewMonitorModel(nil, "listen", nil)

	send(t, m, EventMsg(input.Event{Type: input.MouseMove(1, 2)}))
	assert.Empty(t, m.rows)
	assert.Equal(t, 1, m.counts[input.KindMouseMove])

	send(t, m, keyMsg("m"))
	send(t, m, EventMsg(input.Event{Type: input.MouseMove(3, 4)}))
	require.Len(t, m.rows, 1)
	assert.Equal(t, "MouseMove{x: 3.0, y: 4.0}", m.rows[0][1])
}

func TestMonitorPauseAndClear(t *testing.T) {
	m := NewMonitorModel(nil, "grab", nil)

	send(t, m, keyMsg("p"))
	send(t, m, EventMsg(input.Event{Type: input.ButtonPress(input.ButtonLeft)}))
	assert.Empty(t, m.rows)
	assert.Equal(t, 1, m.total, "paused monitors keep counting")
	assert.Contains(t, m.View(), "paused")

	send(t, m, keyMsg("p"))
	send(t, m, EventMsg(input.Event{Type: input.ButtonPress(input.ButtonLeft)}))
	assert.Len(t, m.rows, 1)

	send(t, m, keyMsg("c"))
	assert.Empty(t, m.rows)
	assert.Equal(t, 0, m.total)
	assert.Empty(t, m.counts)
}

func TestMonitorRowLimit(t *testing.T) {
	m := NewMonitorModel(nil, "listen", nil)
	m.maxRows = 3

	for i := 0; i < 5; i++ {
		send(t, m, EventMsg(input.Event{Type: input.Wheel(0, int64(i))}))
	}
	require.Len(t, m.rows, 3)
	assert.Equal(t, "Wheel{dx: 0, dy: 4}", m.rows[0][1])
	assert.Equal(t, 5, m.total)
}

func TestMonitorQuit(t *testing.T) {
	for _, k := range []tea.KeyMsg{keyMsg("q"), {Type: tea.KeyCtrlC}, {Type: tea.KeyEsc}} {
		m := NewMonitorModel(nil, "listen", nil)
		cmd := send(t, m, k)
		require.NotNil(t, cmd, k.String())
		assert.Equal(t, tea.Quit(), cmd())
	}
}

func TestMonitorView(t *testing.T) {
	var dropped uint64 = 3
	m := NewMonitorModel(nil, "listen (keyboard only)", func() uint64 { return dropped })
	send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	send(t, m, EventMsg(input.Event{Type: input.KeyPress(input.KeyEscape)}))

	view := m.View()
	for _, want := range []string{"KEYTAP", "listen (keyboard only)", "KeyPress(Escape)", "KeyPress 1", "dropped 3", "quit"} {
		assert.True(t, strings.Contains(view, want), "view is missing %q", want)
	}

	send(t, m, StreamClosedMsg{})
	assert.Contains(t, m.View(), "capture ended")
}
