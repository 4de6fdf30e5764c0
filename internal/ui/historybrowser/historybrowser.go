// Package historybrowser is the modal listing previously executed
// statements; picking one loads it into the SQL panel.
package historybrowser

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/sadopc/oraterm/internal/history"
	"github.com/sadopc/oraterm/internal/theme"
)

const (
	recallLimit = 200
	// title, search, two blanks, count and help plus the border
	chromeLines = 8
)

// Store is the part of the history store the browser reads.
type Store interface {
	Search(pattern string, limit int) ([]history.Entry, error)
	Recent(limit int) ([]history.Entry, error)
}

// SelectQueryMsg is sent when the user picks a history entry.
type SelectQueryMsg struct {
	Query string
}

// Model is the history browser modal.
type Model struct {
	store   Store
	loaded  []history.Entry
	entries []history.Entry // loaded, narrowed to the schema when scoped
	err     error

	schema string
	scoped bool

	cursor  int
	offset  int
	visible bool
	width   int
	height  int
	input   textinput.Model
}

// New creates a hidden browser. A nil store shows an empty list.
func New(store Store) Model {
	ti := textinput.New()
	ti.Placeholder = "Search statements..."
	ti.Prompt = "  > "
	ti.Width = 50
	return Model{store: store, input: ti}
}

// SetSchema sets the schema that ctrl+a narrows the list to.
func (m *Model) SetSchema(name string) {
	m.schema = name
	if m.visible {
		m.applyScope()
	}
}

// Show opens the browser with an empty search and the latest statements.
func (m *Model) Show() {
	m.visible = true
	m.cursor, m.offset = 0, 0
	m.input.SetValue("")
	m.input.Focus()
	m.reload()
}

// Hide closes the browser.
func (m *Model) Hide() {
	m.visible = false
	m.input.Blur()
}

// Visible reports whether the browser is shown.
func (m Model) Visible() bool { return m.visible }

// SetSize sets the screen size the modal is centered in.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles keys while the browser is shown.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "esc", "ctrl+o":
		m.Hide()
		return m, nil
	case "up", "ctrl+p":
		m.move(-1)
		return m, nil
	case "down", "ctrl+n":
		m.move(1)
		return m, nil
	case "pgup":
		m.move(-m.pageSize())
		return m, nil
	case "pgdown":
		m.move(m.pageSize())
		return m, nil
	case "ctrl+a":
		m.scoped = !m.scoped
		m.applyScope()
		return m, nil
	case "enter":
		if m.cursor >= len(m.entries) {
			return m, nil
		}
		q := m.entries[m.cursor].Query
		m.Hide()
		return m, func() tea.Msg { return SelectQueryMsg{Query: q} }
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	if m.input.Value() != before {
		m.cursor, m.offset = 0, 0
		m.reload()
	}
	return m, cmd
}

// View renders the modal, or nothing while hidden.
func (m Model) View() string {
	if !m.visible {
		return ""
	}
	th := theme.Current
	w := m.dialogWidth()

	scope := "all schemas"
	if m.scoped && m.schema != "" {
		scope = m.schema
	}
	title := th.DialogTitle.Render("  SQL History") + th.MutedText.Render("  ("+scope+")")

	var lines []string
	end := min(m.offset+m.pageSize(), len(m.entries))
	for i := m.offset; i < end; i++ {
		e := m.entries[i]
		line := formatEntry(e, w-6)
		switch {
		case i == m.cursor:
			lines = append(lines, th.PickerSelected.Render(line))
		case e.IsError:
			lines = append(lines, th.ErrorText.Render("  "+line))
		default:
			lines = append(lines, "  "+line)
		}
	}
	switch {
	case m.err != nil:
		lines = append(lines, th.ErrorText.Render("  "+m.err.Error()))
	case len(m.entries) == 0:
		lines = append(lines, th.MutedText.Render("  No history entries"))
	}

	count := fmt.Sprintf("  %d statements", len(m.entries))
	if len(m.entries) != len(m.loaded) {
		count = fmt.Sprintf("  %d of %d statements", len(m.entries), len(m.loaded))
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"  "+m.input.View(),
		"",
		strings.Join(lines, "\n"),
		"",
		th.MutedText.Render(count),
		th.MutedText.Render("  enter:load  ctrl+a:this schema/all  esc:close"),
	)
	return th.DialogBorder.Width(w).Render(content)
}

// Entries returns the statements currently listed.
func (m Model) Entries() []history.Entry {
	return m.entries
}

func (m Model) dialogWidth() int {
	if m.width > 0 {
		return min(90, m.width-4)
	}
	return 90
}

func (m Model) pageSize() int {
	return max(m.height-chromeLines, 3)
}

func (m *Model) move(delta int) {
	if len(m.entries) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.entries)-1)
	page := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
}

func (m *Model) reload() {
	m.loaded, m.err = nil, nil
	if m.store != nil {
		if term := strings.TrimSpace(m.input.Value()); term != "" {
			m.loaded, m.err = m.store.Search(history.ContainsPattern(term), recallLimit)
		} else {
			m.loaded, m.err = m.store.Recent(recallLimit)
		}
	}
	m.applyScope()
}

func (m *Model) applyScope() {
	m.entries = m.loaded
	if m.scoped && m.schema != "" {
		m.entries = nil
		for _, e := range m.loaded {
			if strings.EqualFold(e.Schema, m.schema) {
				m.entries = append(m.entries, e)
			}
		}
	}
	m.cursor = min(m.cursor, max(len(m.entries)-1, 0))
	m.offset = min(m.offset, m.cursor)
}

// formatEntry lays out one statement: its first line, then schema, row
// count, duration and age.
func formatEntry(e history.Entry, width int) string {
	queryW := max(width-34, 10)
	query := runewidth.FillRight(runewidth.Truncate(firstLine(e.Query), queryW, "..."), queryW)

	var meta []string
	if e.Schema != "" {
		meta = append(meta, e.Schema)
	}
	if e.IsError {
		meta = append(meta, "failed")
	} else {
		meta = append(meta, fmt.Sprintf("%d rows", e.RowCount))
	}
	if e.DurationMS > 0 {
		meta = append(meta, formatDuration(e.DurationMS))
	}
	meta = append(meta, RelativeTime(e.ExecutedAt))
	return query + "  " + strings.Join(meta, " | ")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i]) + " ..."
	}
	return strings.Join(strings.Fields(s), " ")
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}

// RelativeTime formats t as an age such as "5m ago" or "yesterday".
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}
