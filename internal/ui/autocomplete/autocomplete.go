// Package autocomplete is the suggestion popup of the SQL panel.
package autocomplete

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/sadopc/oraterm/internal/completion"
	"github.com/sadopc/oraterm/internal/theme"
)

const maxVisible = 5

// SelectedMsg is sent when a suggestion is accepted. The editor replaces
// the PrefixLen runes before the cursor with Text.
type SelectedMsg struct {
	Text      string
	PrefixLen int
}

// DismissMsg is sent when the popup is closed without a choice.
type DismissMsg struct{}

// Model is the popup.
type Model struct {
	items    []completion.Item
	selected int
	visible  bool
	prefix   string
	engine   *completion.Engine
	width    int
}

// New creates a hidden popup backed by engine.
func New(engine *completion.Engine) Model {
	return Model{
		engine: engine,
		width:  40,
	}
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles navigation while the popup is visible.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "ctrl+p":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "ctrl+n":
		if m.selected < len(m.items)-1 {
			m.selected++
		}
	case "enter", "tab":
		if m.selected < len(m.items) {
			sel := SelectedMsg{
				Text:      m.items[m.selected].Label,
				PrefixLen: len([]rune(m.prefix)),
			}
			m.visible = false
			return m, func() tea.Msg { return sel }
		}
	case "esc":
		m.visible = false
		return m, func() tea.Msg { return DismissMsg{} }
	}
	return m, nil
}

// View renders the popup, or nothing while hidden.
func (m Model) View() string {
	if !m.visible || len(m.items) == 0 {
		return ""
	}
	th := theme.Current

	offset := 0
	if m.selected >= maxVisible {
		offset = m.selected - maxVisible + 1
	}
	end := min(offset+maxVisible, len(m.items))

	inner := max(m.width-2, 8)
	lines := make([]string, 0, end-offset)
	for i := offset; i < end; i++ {
		item := m.items[i]
		label := item.Kind.Icon() + " " + item.Label
		if item.Detail != "" {
			label += "  " + item.Detail
		}
		label = runewidth.FillRight(runewidth.Truncate(label, inner, "..."), inner)
		if i == m.selected {
			lines = append(lines, th.AutocompleteSelected.Render(label))
		} else {
			lines = append(lines, th.AutocompleteItem.Render(label))
		}
	}
	return th.AutocompleteBorder.Render(strings.Join(lines, "\n"))
}

// Trigger shows suggestions for the word before cursorPos while typing.
// Nothing is offered between words, except right after a dot.
func (m *Model) Trigger(text string, cursorPos int) {
	cursorPos = clamp(cursorPos, len(text))
	before := text[:cursorPos]
	if extractPrefix(text, cursorPos) == "" && !strings.HasSuffix(before, ".") {
		m.visible = false
		return
	}
	m.show(text, cursorPos)
}

// TriggerForced shows suggestions even with no word typed.
func (m *Model) TriggerForced(text string, cursorPos int) {
	m.show(text, clamp(cursorPos, len(text)))
}

func (m *Model) show(text string, cursorPos int) {
	if m.engine == nil {
		m.visible = false
		return
	}
	items := m.engine.Complete(text, cursorPos)
	if len(items) == 0 {
		m.visible = false
		return
	}
	m.items = items
	m.selected = 0
	m.visible = true
	m.prefix = extractPrefix(text, cursorPos)
}

// Dismiss hides the popup.
func (m *Model) Dismiss() {
	m.visible = false
}

// Visible reports whether the popup is shown.
func (m Model) Visible() bool {
	return m.visible
}

// Items returns the current suggestions.
func (m Model) Items() []completion.Item {
	return m.items
}

// SetWidth sets the popup width, border included.
func (m *Model) SetWidth(w int) {
	m.width = w
}

func clamp(pos, n int) int {
	return min(max(pos, 0), n)
}

// extractPrefix returns the identifier part before cursorPos that a
// suggestion replaces.
func extractPrefix(text string, cursorPos int) string {
	before := text[:clamp(cursorPos, len(text))]
	i := len(before) - 1
	for i >= 0 && !isWordBreak(before[i]) {
		i--
	}
	return before[i+1:]
}

func isWordBreak(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '(', ')', ',', ';', '.', '=', '<', '>', '\'', '|', '+', '-', '*', '/', '"':
		return true
	}
	return false
}
