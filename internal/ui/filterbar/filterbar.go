// Package filterbar renders the schema name, the object type toggles and
// the search input above the object list.
package filterbar

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/oraterm/internal/catalog"
	appmsg "github.com/sadopc/oraterm/internal/msg"
	"github.com/sadopc/oraterm/internal/schema"
	"github.com/sadopc/oraterm/internal/theme"
)

// Model is the filter bar component.
type Model struct {
	schema    string
	filters   catalog.FilterSet
	input     textinput.Model
	searching bool
	width     int
}

// New creates a filter bar showing the given filters.
func New(filters catalog.FilterSet) Model {
	ti := textinput.New()
	ti.Placeholder = "search objects"
	ti.Prompt = ""
	ti.CharLimit = 128
	return Model{filters: filters, input: ti}
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update edits the search term while the input has focus. Every change of
// the text is published as a SetSearchMsg; enter and esc leave the input
// and keep the term.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.searching {
		return m, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.StopSearch()
			return m, nil
		}
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != prev {
		return m, tea.Batch(cmd, func() tea.Msg { return appmsg.SetSearchMsg{Term: v} })
	}
	return m, cmd
}

// Toggle returns the message that flips type t.
func (m Model) Toggle(t schema.ObjectType) tea.Cmd {
	enabled := !m.filters.Has(t)
	return func() tea.Msg { return appmsg.ToggleFilterMsg{Type: t, Enabled: enabled} }
}

// View renders the bar on a single line.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	th := theme.Current

	name := m.schema
	if name == "" {
		name = "-"
	}
	parts := []string{th.FilterLabel.Render("Schema: " + name)}

	for i, t := range schema.ObjectTypes {
		label := fmt.Sprintf("%d %s", i+1, t)
		if m.filters.Has(t) {
			parts = append(parts, th.FilterOn.Render(label))
		} else {
			parts = append(parts, th.FilterOff.Render(label))
		}
	}

	search := m.input.Value()
	switch {
	case m.searching:
		search = m.input.View()
	case search == "":
		search = th.MutedText.Render("/ to search")
	}
	parts = append(parts, th.SearchPrompt.Render(" Search: ")+search)

	bar := lipgloss.JoinHorizontal(lipgloss.Center, parts...)
	return th.FilterBar.Width(m.width).MaxHeight(1).Render(bar)
}

// StartSearch focuses the search input.
func (m *Model) StartSearch() tea.Cmd {
	m.searching = true
	return m.input.Focus()
}

// StopSearch leaves the search input.
func (m *Model) StopSearch() {
	m.searching = false
	m.input.Blur()
}

// ClearSearch empties the input and returns the message resetting the term.
func (m *Model) ClearSearch() tea.Cmd {
	if m.input.Value() == "" {
		return nil
	}
	m.input.SetValue("")
	return func() tea.Msg { return appmsg.SetSearchMsg{} }
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool { return m.searching }

// Term returns the text of the search input.
func (m Model) Term() string { return m.input.Value() }

// SetSchema sets the displayed schema.
func (m *Model) SetSchema(name string) { m.schema = name }

// SetFilters sets the displayed toggles.
func (m *Model) SetFilters(f catalog.FilterSet) { m.filters = f }

// Filters returns the displayed toggles.
func (m Model) Filters() catalog.FilterSet { return m.filters }

// SetSize sets the bar width.
func (m *Model) SetSize(width int) {
	m.width = width
	m.input.Width = max(width/4, 10)
}
