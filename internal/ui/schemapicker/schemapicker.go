// Package schemapicker is the modal used to switch the active schema. The
// typed text fuzzy-filters the schema list.
package schemapicker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	appmsg "github.com/sadopc/oraterm/internal/msg"
	"github.com/sadopc/oraterm/internal/theme"
)

// Model is the schema picker modal.
type Model struct {
	schemas []string
	current string
	matches fuzzy.Matches
	cursor  int
	offset  int
	visible bool
	width   int
	height  int
	input   textinput.Model
}

// New creates a hidden picker.
func New() Model {
	ti := textinput.New()
	ti.Placeholder = "Filter schemas..."
	ti.Prompt = "  > "
	ti.Width = 40
	return Model{input: ti}
}

// Show opens the picker over schemas with the cursor on current.
func (m *Model) Show(schemas []string, current string) tea.Cmd {
	m.schemas = schemas
	m.current = current
	m.visible = true
	m.input.SetValue("")
	m.filter()
	for i, mt := range m.matches {
		if mt.Str == current {
			m.cursor = i
		}
	}
	m.ensureVisible()
	return m.input.Focus()
}

// SetSchemas replaces the list while the picker is open.
func (m *Model) SetSchemas(schemas []string) {
	m.schemas = schemas
	m.filter()
}

// Hide closes the picker.
func (m *Model) Hide() {
	m.visible = false
	m.input.Blur()
}

// Visible returns whether the picker is shown.
func (m Model) Visible() bool { return m.visible }

// SetSize sets the available space.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles keys while the picker is open.
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
	case "esc":
		m.Hide()
		return m, nil
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
			m.ensureVisible()
		}
		return m, nil
	case "down", "ctrl+n":
		if m.cursor < len(m.matches)-1 {
			m.cursor++
			m.ensureVisible()
		}
		return m, nil
	case "enter":
		if m.cursor >= len(m.matches) {
			return m, nil
		}
		name := m.matches[m.cursor].Str
		m.Hide()
		return m, func() tea.Msg { return appmsg.SelectSchemaMsg{Schema: name} }
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	if m.input.Value() != prev {
		m.filter()
	}
	return m, cmd
}

// filter recomputes matches. An empty pattern lists every schema in order.
func (m *Model) filter() {
	m.cursor = 0
	m.offset = 0
	pattern := strings.ToUpper(strings.TrimSpace(m.input.Value()))
	if pattern == "" {
		m.matches = make(fuzzy.Matches, len(m.schemas))
		for i, s := range m.schemas {
			m.matches[i] = fuzzy.Match{Str: s, Index: i}
		}
		return
	}
	m.matches = fuzzy.Find(pattern, m.schemas)
}

// Matches returns the schemas that pass the filter, best first.
func (m Model) Matches() []string {
	out := make([]string, len(m.matches))
	for i, mt := range m.matches {
		out[i] = mt.Str
	}
	return out
}

// View renders the picker.
func (m Model) View() string {
	if !m.visible {
		return ""
	}

	th := theme.Current
	w := m.dialogWidth()

	title := th.DialogTitle.Render("  Select Schema  ")

	visible := m.visibleCount()
	end := min(m.offset+visible, len(m.matches))
	var lines []string
	for i := m.offset; i < end; i++ {
		mt := m.matches[i]
		label := renderMatch(mt, th)
		marker := ""
		if mt.Str == m.current {
			marker = "  (active)"
			label += th.MutedText.Render(marker)
		}
		if i == m.cursor {
			lines = append(lines, th.PickerSelected.Render("▸ "+mt.Str+marker))
		} else {
			lines = append(lines, th.PickerItem.Render("  "+label))
		}
	}
	if len(m.matches) == 0 {
		lines = append(lines, th.MutedText.Render("  No matching schema"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.input.View(),
		"",
		strings.Join(lines, "\n"),
		"",
		th.MutedText.Render(fmt.Sprintf("  %d of %d schemas", len(m.matches), len(m.schemas))),
		th.MutedText.Render("  enter:select  esc:close  up/down:navigate"),
	)
	return th.DialogBorder.Width(w).Render(content)
}

// renderMatch emphasises the runes the pattern matched.
func renderMatch(mt fuzzy.Match, th *theme.Theme) string {
	if len(mt.MatchedIndexes) == 0 {
		return mt.Str
	}
	hit := make(map[int]bool, len(mt.MatchedIndexes))
	for _, i := range mt.MatchedIndexes {
		hit[i] = true
	}
	var b strings.Builder
	for i, r := range mt.Str {
		if hit[i] {
			b.WriteString(th.PickerMatch.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (m Model) dialogWidth() int {
	w := 50
	if m.width > 0 && w > m.width-4 {
		w = m.width - 4
	}
	return w
}

// visibleCount returns how many schemas fit between the dialog chrome.
func (m Model) visibleCount() int {
	return max(m.height-10, 3)
}

func (m *Model) ensureVisible() {
	visible := m.visibleCount()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}
