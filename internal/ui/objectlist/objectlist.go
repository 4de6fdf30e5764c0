// Package objectlist renders the visible catalog entries of the active
// schema and turns cursor movement into selection requests.
package objectlist

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	appmsg "github.com/sadopc/oraterm/internal/msg"
	"github.com/sadopc/oraterm/internal/schema"
	"github.com/sadopc/oraterm/internal/theme"
)

// useSimpleIcons returns true when running inside Neovim's terminal emulator,
// which has emoji width rendering issues in libvterm.
var useSimpleIcons = os.Getenv("NVIM") != ""

// Model is the object list pane.
type Model struct {
	entries []schema.Entry
	total   int // catalog size before filtering
	schema  string
	cursor  int
	offset  int
	width   int
	height  int
	focused bool
	loading bool
}

// New creates an empty list.
func New() Model {
	return Model{}
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update moves the cursor. Every move that lands on a different entry asks
// for that entry to be selected.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !m.focused || len(m.entries) == 0 {
		return m, nil
	}

	prev := m.cursor
	switch key.String() {
	case "up", "k":
		m.cursor--
	case "down", "j":
		m.cursor++
	case "pgup":
		m.cursor -= m.pageSize()
	case "pgdown":
		m.cursor += m.pageSize()
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.entries) - 1
	case "enter":
		return m, m.selectCmd()
	default:
		return m, nil
	}
	m.clamp()
	m.ensureVisible()
	if m.cursor == prev {
		return m, nil
	}
	return m, m.selectCmd()
}

func (m Model) selectCmd() tea.Cmd {
	e, ok := m.Current()
	if !ok {
		return nil
	}
	return func() tea.Msg { return appmsg.SelectEntryMsg{Entry: e} }
}

// View renders the list inside a border.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	th := theme.Current

	innerW := max(m.width-2, 1)
	innerH := max(m.height-2, 1)

	title := fmt.Sprintf(" Objects (%d/%d) ", len(m.entries), m.total)
	if m.schema != "" {
		title = fmt.Sprintf(" %s (%d/%d) ", m.schema, len(m.entries), m.total)
	}
	titleStyle := th.ListTitle
	if m.focused {
		titleStyle = titleStyle.Underline(true)
	}
	titleLine := titleStyle.Width(innerW).Render(title)

	switch {
	case m.loading:
		content := titleLine + "\n\n" + th.MutedText.Render("  Loading objects...")
		return m.borderStyle().Width(innerW).Height(innerH).Render(content)
	case len(m.entries) == 0:
		content := titleLine + "\n\n" + th.MutedText.Render("  No objects found.")
		return m.borderStyle().Width(innerW).Height(innerH).Render(content)
	}

	contentHeight := max(innerH-1, 1)
	end := min(m.offset+contentHeight, len(m.entries))

	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderEntry(m.entries[i], i == m.cursor, innerW, th))
	}

	content := titleLine + "\n" + strings.Join(lines, "\n")
	return m.borderStyle().Width(innerW).Height(innerH).Render(content)
}

func (m Model) renderEntry(e schema.Entry, selected bool, width int, th *theme.Theme) string {
	line := icon(e.Type) + e.Name
	if e.Type != schema.ObjectTable {
		line += " [" + e.Type.String() + "]"
	}

	line = runewidth.Truncate(line, width, "…")
	line = runewidth.FillRight(line, width)

	switch {
	case selected:
		return th.ListSelected.Render(line)
	case e.Type == schema.ObjectTable:
		return th.ListTable.Render(line)
	default:
		return th.ListProgram.Render(line)
	}
}

func icon(t schema.ObjectType) string {
	if useSimpleIcons {
		if t == schema.ObjectTable {
			return "◆ "
		}
		return "λ "
	}
	switch t {
	case schema.ObjectTable:
		return "📊 "
	case schema.ObjectPackage, schema.ObjectPackageBody:
		return "📦 "
	default:
		return "⚙ "
	}
}

func (m Model) borderStyle() lipgloss.Style {
	th := theme.Current
	if m.focused {
		return th.FocusedBorder
	}
	return th.UnfocusedBorder
}

func (m Model) pageSize() int {
	return max(m.height-3, 1)
}

func (m *Model) clamp() {
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) ensureVisible() {
	contentHeight := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+contentHeight {
		m.offset = m.cursor - contentHeight + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// SetEntries replaces the visible entries and moves the cursor onto
// selected when it is among them.
func (m *Model) SetEntries(schemaName string, entries []schema.Entry, total int, selected *schema.Entry) {
	m.schema = schemaName
	m.entries = entries
	m.total = total
	m.cursor = 0
	if selected != nil {
		for i, e := range entries {
			if e == *selected {
				m.cursor = i
				break
			}
		}
	}
	m.clamp()
	m.ensureVisible()
}

// Current returns the entry under the cursor.
func (m Model) Current() (schema.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return schema.Entry{}, false
	}
	return m.entries[m.cursor], true
}

// Len returns the number of listed entries.
func (m Model) Len() int { return len(m.entries) }

// SetSize sets the pane dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.ensureVisible()
}

// Focus focuses the list.
func (m *Model) Focus() { m.focused = true }

// Blur unfocuses the list.
func (m *Model) Blur() { m.focused = false }

// Focused returns whether the list is focused.
func (m Model) Focused() bool { return m.focused }

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) { m.loading = loading }
