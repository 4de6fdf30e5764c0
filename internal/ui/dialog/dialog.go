// Package dialog renders the modal boxes of the explorer: the help/about
// screen and confirmations. Bodies longer than the terminal scroll.
package dialog

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/sadopc/oraterm/internal/theme"
)

const preferredWidth = 64

// Button represents a dialog button.
type Button struct {
	Label  string
	Action func() tea.Msg
}

// Model is a reusable modal dialog component.
type Model struct {
	title     string
	body      string
	buttons   []Button
	active    int
	visible   bool
	width     int
	maxWidth  int
	maxHeight int
	vp        viewport.Model
}

// New creates a new dialog.
func New(title, body string, buttons ...Button) Model {
	m := Model{
		title:    title,
		body:     body,
		buttons:  buttons,
		maxWidth: preferredWidth,
		vp:       viewport.New(preferredWidth-4, 10),
	}
	m.layout()
	return m
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles dialog messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "left", "shift+tab":
			if m.active > 0 {
				m.active--
			}
		case "right", "tab":
			if m.active < len(m.buttons)-1 {
				m.active++
			}
		case "up", "k":
			m.vp.ScrollUp(1)
		case "down", "j":
			m.vp.ScrollDown(1)
		case "pgup":
			m.vp.HalfPageUp()
		case "pgdown":
			m.vp.HalfPageDown()
		case "enter":
			if m.active < len(m.buttons) && m.buttons[m.active].Action != nil {
				m.visible = false
				return m, m.buttons[m.active].Action
			}
			m.visible = false
		case "esc", "f1", "q":
			m.visible = false
		}
	}

	return m, nil
}

// View renders the dialog box.
func (m Model) View() string {
	if !m.visible {
		return ""
	}

	th := theme.Current

	title := th.DialogTitle.Render(m.title)

	var btns []string
	for i, btn := range m.buttons {
		style := th.DialogButton
		if i == m.active {
			style = th.DialogButtonActive
		}
		btns = append(btns, style.Render(btn.Label))
	}
	buttonRow := lipgloss.JoinHorizontal(lipgloss.Center, btns...)
	buttonRow = lipgloss.NewStyle().Width(m.innerWidth()).Align(lipgloss.Center).Render(buttonRow)

	parts := []string{title, "", m.vp.View()}
	if !m.vp.AtTop() || !m.vp.AtBottom() {
		parts = append(parts, th.MutedText.Render("up/down to scroll"))
	}
	if len(m.buttons) > 0 {
		parts = append(parts, "", buttonRow)
	}

	return th.DialogBorder.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// Show makes the dialog visible.
func (m *Model) Show() {
	m.visible = true
	m.active = 0
	m.vp.GotoTop()
}

// Hide makes the dialog invisible.
func (m *Model) Hide() {
	m.visible = false
}

// Visible returns whether the dialog is shown.
func (m Model) Visible() bool {
	return m.visible
}

// SetBody replaces the dialog text.
func (m *Model) SetBody(body string) {
	m.body = body
	m.layout()
}

// Body returns the dialog text.
func (m Model) Body() string { return m.body }

// SetSize sets the available space for centering.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.maxHeight = height
	m.maxWidth = min(preferredWidth, width-4)
	m.layout()
}

func (m Model) innerWidth() int {
	w := m.maxWidth - 4
	if w < 10 {
		w = 10
	}
	return w
}

// layout wraps the body to the dialog width and sizes the viewport so the
// whole box fits the terminal.
func (m *Model) layout() {
	wrapped := lipgloss.NewStyle().Width(m.innerWidth()).Render(m.body)
	lines := strings.Count(wrapped, "\n") + 1

	// border, padding, title, gap, gap, buttons, scroll hint
	avail := lines
	if m.maxHeight > 0 {
		limit := m.maxHeight - 10
		if limit < 3 {
			limit = 3
		}
		if avail > limit {
			avail = limit
		}
	}
	m.vp.Width = m.innerWidth()
	m.vp.Height = avail
	m.vp.SetContent(wrapped)
}

// Overlay renders the dialog centered over the given background content.
// Background lines may carry ANSI styling.
func (m Model) Overlay(background string) string {
	if !m.visible {
		return background
	}

	dialog := m.View()
	bgLines := strings.Split(background, "\n")
	dlgLines := strings.Split(dialog, "\n")

	dlgW := lipgloss.Width(dialog)
	startY := (len(bgLines) - len(dlgLines)) / 2
	startX := (m.width - dlgW) / 2
	if startY < 0 {
		startY = 0
	}
	if startX < 0 {
		startX = 0
	}

	for i, dlgLine := range dlgLines {
		y := startY + i
		if y >= len(bgLines) {
			break
		}
		line := bgLines[y]
		lineW := ansi.StringWidth(line)

		prefix := ansi.Truncate(line, startX, "")
		if lineW < startX {
			prefix += strings.Repeat(" ", startX-lineW)
		}
		suffix := ""
		endX := startX + ansi.StringWidth(dlgLine)
		if endX < lineW {
			suffix = ansi.TruncateLeft(line, endX, "")
		}
		bgLines[y] = prefix + dlgLine + suffix
	}

	return strings.Join(bgLines, "\n")
}
