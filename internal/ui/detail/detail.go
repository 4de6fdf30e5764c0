// Package detail renders the selected object: column metadata and sample
// rows for tables, highlighted source for stored programs.
package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/oraterm/internal/explorer"
	"github.com/sadopc/oraterm/internal/render"
	"github.com/sadopc/oraterm/internal/theme"
	"github.com/sadopc/oraterm/internal/ui/highlight"
	"github.com/sadopc/oraterm/internal/ui/results"
)

// Tab selects the table sub-view.
type Tab int

const (
	TabColumns Tab = iota
	TabData
)

func (t Tab) String() string {
	if t == TabData {
		return "Data"
	}
	return "Columns"
}

// Model is the detail pane.
type Model struct {
	detail      explorer.Detail
	tab         Tab
	columns     results.Model
	data        results.Model
	code        viewport.Model
	spinner     spinner.Model
	highlighter *highlight.Highlighter
	width       int
	height      int
	focused     bool
}

// New creates an empty detail pane.
func New() Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	cols := results.New(false)
	cols.SetEmptyText("No columns")
	data := results.New(false)
	data.SetEmptyText("No columns, rows skipped")

	return Model{
		columns:     cols,
		data:        data,
		code:        viewport.New(0, 0),
		spinner:     sp,
		highlighter: highlight.New(),
	}
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles spinner ticks and, when focused, navigation keys.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.detail.Kind != explorer.DetailLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if !m.focused {
			return m, nil
		}
		switch m.detail.Kind {
		case explorer.DetailTable:
			switch msg.String() {
			case "left", "h", "c":
				m.SetTab(TabColumns)
				return m, nil
			case "right", "l", "d":
				m.SetTab(TabData)
				return m, nil
			}
			var cmd tea.Cmd
			if m.tab == TabData {
				m.data, cmd = m.data.Update(msg)
			} else {
				m.columns, cmd = m.columns.Update(msg)
			}
			return m, cmd
		case explorer.DetailCode:
			var cmd tea.Cmd
			m.code, cmd = m.code.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// SetDetail shows d. A loading detail starts the spinner.
func (m *Model) SetDetail(d explorer.Detail) tea.Cmd {
	same := d.Kind == m.detail.Kind && d.Entry == m.detail.Entry && d.Schema == m.detail.Schema
	prevKind := m.detail.Kind
	m.detail = d

	switch d.Kind {
	case explorer.DetailTable:
		if !same {
			m.columns.SetGrid(d.Table.Columns)
			m.data.SetGrid(d.Table.Data)
			m.data.SetFooter(fmt.Sprintf("sample of %s", d.Table.Title()))
		}
	case explorer.DetailCode:
		if !same {
			m.code.SetContent(m.highlighter.Numbered(d.Code, theme.Current, 0, 0))
			m.code.GotoTop()
		}
	case explorer.DetailLoading:
		if prevKind != explorer.DetailLoading {
			return m.spinner.Tick
		}
	}
	return nil
}

// Detail returns the displayed detail.
func (m Model) Detail() explorer.Detail { return m.detail }

// SetTab switches the table sub-view.
func (m *Model) SetTab(t Tab) {
	m.tab = t
	m.syncFocus()
}

// ActiveTab returns the table sub-view.
func (m Model) ActiveTab() Tab { return m.tab }

// DataGrid returns the sample rows of the displayed table.
func (m Model) DataGrid() (render.Grid, bool) {
	if m.detail.Kind != explorer.DetailTable {
		return render.Grid{}, false
	}
	return m.detail.Table.Data, true
}

// View renders the pane inside a border.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	th := theme.Current
	innerW := max(m.width-2, 1)
	innerH := max(m.height-2, 1)

	border := th.UnfocusedBorder
	if m.focused {
		border = th.FocusedBorder
	}

	var body string
	switch m.detail.Kind {
	case explorer.DetailEmpty:
		body = th.MutedText.Render("  Select an object to see its details.")
	case explorer.DetailLoading:
		body = m.title() + "\n\n  " + m.spinner.View() + " Loading " + m.detail.Entry.Name + "..."
	case explorer.DetailError:
		msg := "unknown error"
		if m.detail.Err != nil {
			msg = m.detail.Err.Error()
		}
		body = m.title() + "\n\n" + th.ErrorText.Width(innerW-2).Render("  Error: "+msg)
	case explorer.DetailTable:
		active := m.columns
		if m.tab == TabData {
			active = m.data
		}
		body = lipgloss.JoinVertical(lipgloss.Left, m.title(), m.tabBar(), active.View())
	case explorer.DetailCode:
		body = lipgloss.JoinVertical(lipgloss.Left, m.title(), m.code.View())
	}

	return border.Width(innerW).Height(innerH).MaxHeight(m.height).Render(body)
}

func (m Model) title() string {
	th := theme.Current
	name := m.detail.Schema + "." + m.detail.Entry.Name
	return th.DetailTitle.Render(name) + " " + th.MutedText.Render(m.detail.Entry.Type.String())
}

func (m Model) tabBar() string {
	th := theme.Current
	var tabs []string
	for _, t := range []Tab{TabColumns, TabData} {
		label := t.String()
		switch t {
		case TabColumns:
			label += fmt.Sprintf(" (%d)", len(m.detail.Table.Columns.Rows))
		case TabData:
			label += fmt.Sprintf(" (%d)", len(m.detail.Table.Data.Rows))
		}
		if t == m.tab {
			tabs = append(tabs, th.TabActive.Render(label))
		} else {
			tabs = append(tabs, th.TabInactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
}

// SetSize sets the pane dimensions, border included.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	innerW := max(width-2, 1)
	innerH := max(height-2, 1)

	// title (1) + tab bar (2 with its border)
	m.columns.SetSize(innerW, max(innerH-3, 1))
	m.data.SetSize(innerW, max(innerH-3, 1))
	m.code.Width = innerW
	m.code.Height = max(innerH-1, 1)
}

// Focus focuses the pane.
func (m *Model) Focus() {
	m.focused = true
	m.syncFocus()
}

// Blur unfocuses the pane.
func (m *Model) Blur() {
	m.focused = false
	m.syncFocus()
}

// Focused returns whether the pane is focused.
func (m Model) Focused() bool { return m.focused }

func (m *Model) syncFocus() {
	m.columns.Blur()
	m.data.Blur()
	if !m.focused {
		return
	}
	if m.tab == TabData {
		m.data.Focus()
	} else {
		m.columns.Focus()
	}
}

// Summary is a one-line description of what the pane shows, for the
// status bar.
func (m Model) Summary() string {
	switch m.detail.Kind {
	case explorer.DetailTable:
		return fmt.Sprintf("%s: %d columns, %d rows", m.detail.Table.Title(),
			len(m.detail.Table.Columns.Rows), len(m.detail.Table.Data.Rows))
	case explorer.DetailCode:
		return fmt.Sprintf("%s.%s: %d lines", m.detail.Schema, m.detail.Entry.Name,
			strings.Count(m.detail.Code, "\n")+1)
	}
	return ""
}
