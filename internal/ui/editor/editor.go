// Package editor provides the SQL panel input: a textarea with statement
// history recall and a highlighted read-only view when blurred.
package editor

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/oraterm/internal/theme"
	"github.com/sadopc/oraterm/internal/ui/highlight"
)

// Model wraps a textarea. Up on the first line and down on the last line
// walk through previously executed statements.
type Model struct {
	textarea    textarea.Model
	highlighter *highlight.Highlighter
	width       int
	height      int
	focused     bool

	history []string // newest first
	histPos int      // -1 while editing a fresh statement
	draft   string   // text typed before recall started
}

// New creates an editor.
func New() Model {
	ta := textarea.New()
	ta.Placeholder = "Enter SQL, ctrl+r or F5 to run..."
	ta.ShowLineNumbers = true
	ta.CharLimit = 0

	th := theme.Current
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Prompt = th.EditorLineNumber
	ta.FocusedStyle.Text = lipgloss.NewStyle()
	ta.BlurredStyle.Prompt = th.EditorLineNumber
	ta.BlurredStyle.Text = lipgloss.NewStyle()

	ta.Blur()

	return Model{
		textarea:    ta,
		highlighter: highlight.New(),
		histPos:     -1,
	}
}

// Init returns the textarea blink command so the cursor blinks when focused.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update processes messages while focused.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyUp:
			if m.textarea.Line() == 0 && m.recall(1) {
				return m, nil
			}
		case tea.KeyDown:
			if m.textarea.Line() >= m.textarea.LineCount()-1 && m.recall(-1) {
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// recall moves through history by step (1 = older). It reports whether the
// text changed.
func (m *Model) recall(step int) bool {
	if len(m.history) == 0 {
		return false
	}
	next := m.histPos + step
	if next >= len(m.history) || next < -1 {
		return false
	}
	if m.histPos == -1 {
		m.draft = m.textarea.Value()
	}
	m.histPos = next
	if next == -1 {
		m.textarea.SetValue(m.draft)
	} else {
		m.textarea.SetValue(m.history[next])
	}
	return true
}

// View renders the editor. When focused the textarea is shown; when
// blurred the content is highlighted with line numbers.
func (m Model) View() string {
	th := theme.Current

	border := th.UnfocusedBorder
	if m.focused {
		border = th.FocusedBorder
	}

	innerW := max(m.width-2, 1)
	innerH := max(m.height-2, 1)

	var content string
	switch {
	case m.focused:
		content = m.textarea.View()
	case m.textarea.Value() == "":
		content = th.MutedText.Render(m.textarea.Placeholder)
	default:
		content = m.highlighter.Numbered(m.textarea.Value(), th, 0, innerH)
	}

	return border.Width(innerW).Height(innerH).Render(content)
}

// Value returns the raw text content of the editor.
func (m Model) Value() string {
	return m.textarea.Value()
}

// SetValue replaces the editor content and leaves history recall.
func (m *Model) SetValue(s string) {
	m.textarea.SetValue(s)
	m.histPos = -1
}

// SetHistory replaces the recall list, newest first.
func (m *Model) SetHistory(queries []string) {
	m.history = queries
	m.histPos = -1
}

// Remember puts q at the head of the recall list.
func (m *Model) Remember(q string) {
	q = strings.TrimSpace(q)
	if q == "" {
		return
	}
	out := []string{q}
	for _, h := range m.history {
		if h != q {
			out = append(out, h)
		}
	}
	m.history = out
	m.histPos = -1
}

// CursorOffset returns the byte offset of the cursor in Value.
func (m Model) CursorOffset() int {
	lines := strings.Split(m.textarea.Value(), "\n")
	row := min(m.textarea.Line(), len(lines)-1)
	off := 0
	for _, l := range lines[:row] {
		off += len(l) + 1
	}
	info := m.textarea.LineInfo()
	line := []rune(lines[row])
	col := min(info.StartColumn+info.ColumnOffset, len(line))
	return off + len(string(line[:col]))
}

// Complete replaces the prefixLen runes before the cursor with text. The
// editor must be focused.
func (m *Model) Complete(text string, prefixLen int) {
	for range prefixLen {
		m.textarea, _ = m.textarea.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m.textarea.InsertString(text)
	m.histPos = -1
}

// History returns the recall list, newest first.
func (m Model) History() []string {
	return m.history
}

// SetSize updates the editor dimensions, border included.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.textarea.SetWidth(max(w-2, 1))
	m.textarea.SetHeight(max(h-2, 1))
}

// Focus gives input focus to the editor.
func (m *Model) Focus() tea.Cmd {
	m.focused = true
	return m.textarea.Focus()
}

// Blur removes input focus from the editor.
func (m *Model) Blur() {
	m.focused = false
	m.textarea.Blur()
}

// Focused reports whether the editor currently has input focus.
func (m Model) Focused() bool {
	return m.focused
}
