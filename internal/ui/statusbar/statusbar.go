package statusbar

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appmsg "github.com/sadopc/oraterm/internal/msg"
	"github.com/sadopc/oraterm/internal/theme"
)

// clearDelay is how long a status message stays before the key hints
// return.
var clearDelay = 5 * time.Second

// ClearStatusMsg is sent after a timeout to revert the status bar to key
// hints. Gen ties the timer to the message that started it.
type ClearStatusMsg struct {
	Gen int
}

// Model is the status bar component.
type Model struct {
	width     int
	user      string
	dsn       string
	schema    string
	state     string
	pane      appmsg.Pane
	queryTime time.Duration
	message   string
	isError   bool
	connected bool
	gen       int
}

// New creates a new status bar.
func New() Model {
	return Model{}
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case appmsg.StatusMsg:
		m.message = msg.Text
		m.isError = msg.IsError
		m.queryTime = msg.Duration
		m.gen++
		gen := m.gen
		return m, tea.Tick(clearDelay, func(time.Time) tea.Msg {
			return ClearStatusMsg{Gen: gen}
		})

	case ClearStatusMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		m.queryTime = 0
		m.message = ""
		m.isError = false

	case appmsg.FocusMsg:
		m.pane = msg.Pane
	}

	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	th := theme.Current

	var left string
	if m.connected {
		left = th.StatusBarKey.Render(fmt.Sprintf("%s@%s", m.user, m.dsn))
	} else {
		left = th.StatusBarKey.Render("disconnected")
	}

	var center string
	switch {
	case m.message != "" && m.isError:
		center = th.StatusBarError.Render(" " + truncate(m.message, m.width/2) + " ")
	case m.message != "":
		text := m.message
		if m.queryTime > 0 {
			text += " in " + formatDuration(m.queryTime)
		}
		center = th.StatusBarSuccess.Render(" " + truncate(text, m.width/2) + " ")
	default:
		hintKey := th.StatusBarValue
		hintSep := th.StatusBar
		for _, h := range [][2]string{{"q", "Quit"}, {"/", "Search"}, {"1-5", "Types"}, {"s", "Schema"}, {"ctrl+e", "SQL"}, {"F1", "Help"}} {
			center += hintKey.Render(h[0]) + hintSep.Render(" "+h[1]+" ")
		}
	}

	right := th.StatusBarKey.Render(m.pane.String())
	if m.schema != "" {
		right = th.StatusBarValue.Render(m.schema) + right
	}
	if m.state != "" {
		right = th.StatusBarValue.Render(m.state) + right
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(center)-lipgloss.Width(right), 0)
	leftGap := gap / 2

	bar := left +
		th.StatusBar.Render(strings.Repeat(" ", leftGap)) +
		center +
		th.StatusBar.Render(strings.Repeat(" ", gap-leftGap)) +
		right

	return th.StatusBar.Width(m.width).MaxHeight(1).Render(bar)
}

// SetSize sets the status bar width.
func (m *Model) SetSize(width int) {
	m.width = width
}

// SetConnection shows who is connected where. An empty user means
// disconnected.
func (m *Model) SetConnection(user, dsn string) {
	m.user = user
	m.dsn = dsn
	m.connected = user != ""
}

// SetSession shows the session state and active schema.
func (m *Model) SetSession(state, schemaName string) {
	m.state = state
	m.schema = schemaName
}

// Message returns the displayed message.
func (m Model) Message() (string, bool) {
	return m.message, m.isError
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 3 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
