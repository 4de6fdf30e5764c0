// Package results provides the table component that shows column metadata,
// sample rows and ad-hoc query results. Rows arrive fully materialized as a
// render.Grid; the component only handles layout and the cursor.
package results

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/sadopc/oraterm/internal/render"
	"github.com/sadopc/oraterm/internal/theme"
)

// maxColWidth caps a single column so one long value cannot push the rest
// off screen.
const maxColWidth = 50

// Model is the results table component. It wraps bubbles/table for cursor
// handling and renders rows itself with zebra striping.
type Model struct {
	table     table.Model
	grid      render.Grid
	tableCols []table.Column
	viewTop   int
	width     int
	height    int
	focused   bool
	loading   bool
	bordered  bool
	message   string
	footer    string
	empty     string
	queryTime time.Duration
	err       error
}

// New creates a results model. Bordered models draw their own frame.
func New(bordered bool) Model {
	t := table.New(
		table.WithFocused(false),
		table.WithHeight(10),
	)
	m := Model{table: t, bordered: bordered, empty: "No rows"}
	m.applyStyles()
	return m
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update moves the cursor when focused.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.updateViewTop()
	return m, cmd
}

// View renders the component.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	th := theme.Current
	contentHeight := max(m.innerHeight(), 1)

	switch {
	case m.loading && len(m.grid.Rows) == 0:
		return m.wrap(th.MutedText.Render("  Executing..."), contentHeight)
	case m.err != nil:
		return m.wrap(th.ErrorText.Render("  Error: "+m.err.Error()), contentHeight)
	case m.message != "" && len(m.grid.Headers) == 0:
		return m.wrap(th.SuccessText.Render("  "+m.message), contentHeight)
	case len(m.grid.Headers) == 0:
		return m.wrap(th.MutedText.Render("  "+m.empty), contentHeight)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, m.renderTable(), m.buildFooter())
	return m.wrap(content, 0)
}

// SetGrid replaces the displayed rows.
func (m *Model) SetGrid(g render.Grid) {
	m.err = nil
	m.loading = false
	m.message = ""
	m.grid = g
	m.viewTop = 0
	m.rebuildTable()
	m.table.GotoTop()
}

// SetResult shows the outcome of an ad-hoc statement.
func (m *Model) SetResult(g render.Grid, message string, d time.Duration) {
	m.SetGrid(g)
	m.message = message
	m.queryTime = d
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
	if loading {
		m.err = nil
	}
}

// SetError sets the error state.
func (m *Model) SetError(err error) {
	m.err = err
	m.loading = false
}

// SetMessage shows a message instead of rows.
func (m *Model) SetMessage(msg string) {
	m.grid = render.Grid{}
	m.message = msg
	m.err = nil
	m.loading = false
	m.rebuildTable()
}

// SetFooter sets extra text shown after the row count.
func (m *Model) SetFooter(s string) { m.footer = s }

// SetEmptyText sets the placeholder shown when there is nothing to display.
func (m *Model) SetEmptyText(s string) { m.empty = s }

// Clear drops rows, message and error.
func (m *Model) Clear() {
	m.grid = render.Grid{}
	m.message = ""
	m.footer = ""
	m.err = nil
	m.loading = false
	m.queryTime = 0
	m.rebuildTable()
}

// SetSize updates the component dimensions and recalculates the layout.
func (m *Model) SetSize(w, h int) {
	if m.width == w && m.height == h {
		return
	}
	m.width = w
	m.height = h
	m.table.SetWidth(m.contentWidth())
	m.table.SetHeight(max(m.innerHeight(), 1))
	if len(m.grid.Headers) > 0 {
		m.tableCols = autoSizeColumns(m.grid, m.contentWidth())
		m.table.SetColumns(m.tableCols)
	}
}

// Focus gives the table keyboard focus.
func (m *Model) Focus() {
	m.focused = true
	m.table.Focus()
}

// Blur removes keyboard focus from the table.
func (m *Model) Blur() {
	m.focused = false
	m.table.Blur()
}

// Focused reports whether the table is focused.
func (m Model) Focused() bool { return m.focused }

// Grid returns the displayed rows.
func (m Model) Grid() render.Grid { return m.grid }

// Err returns the displayed error.
func (m Model) Err() error { return m.err }

// Message returns the displayed message.
func (m Model) Message() string { return m.message }

// SelectedRow returns the row under the cursor, or nil.
func (m Model) SelectedRow() []string {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.grid.Rows) {
		return nil
	}
	return m.grid.Rows[c]
}

func (m *Model) rebuildTable() {
	m.tableCols = autoSizeColumns(m.grid, m.contentWidth())
	// bubbles/table indexes every row by column; clear rows before the
	// column count changes.
	m.table.SetRows(nil)
	m.table.SetColumns(m.tableCols)
	rows := make([]table.Row, len(m.grid.Rows))
	for i, r := range m.grid.Rows {
		row := make(table.Row, len(m.tableCols))
		copy(row, r)
		rows[i] = row
	}
	m.table.SetRows(rows)
}

func (m Model) frame() int {
	if m.bordered {
		return 2
	}
	return 0
}

func (m Model) contentWidth() int {
	return max(m.width-m.frame(), 10)
}

// innerHeight is the height left for header, rows and footer.
func (m Model) innerHeight() int {
	return m.height - m.frame() - 1
}

// visibleDataHeight excludes the header row and its rule.
func (m Model) visibleDataHeight() int {
	return max(m.innerHeight()-2, 1)
}

func (m *Model) updateViewTop() {
	cursor := m.table.Cursor()
	visH := m.visibleDataHeight()
	if cursor < m.viewTop {
		m.viewTop = cursor
	}
	if cursor >= m.viewTop+visH {
		m.viewTop = cursor - visH + 1
	}
	if m.viewTop < 0 {
		m.viewTop = 0
	}
}

func (m Model) renderTable() string {
	if len(m.tableCols) == 0 {
		return ""
	}

	th := theme.Current
	contentW := m.contentWidth()
	visH := m.visibleDataHeight()

	var sb strings.Builder
	sb.WriteString(m.renderHeader(th, contentW))
	sb.WriteByte('\n')
	sb.WriteString(strings.Repeat("─", contentW))
	sb.WriteByte('\n')

	cursor := m.table.Cursor()
	for i := 0; i < visH; i++ {
		rowIdx := m.viewTop + i
		if rowIdx >= len(m.grid.Rows) {
			sb.WriteString(strings.Repeat(" ", contentW))
		} else {
			sb.WriteString(m.renderDataRow(th, rowIdx, m.focused && rowIdx == cursor, contentW))
		}
		if i < visH-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (m Model) renderHeader(th *theme.Theme, totalWidth int) string {
	var sb strings.Builder
	used := 0
	for _, col := range m.tableCols {
		text := runewidth.FillRight(runewidth.Truncate(col.Title, col.Width, "…"), col.Width)
		sb.WriteString(th.ResultsHeader.Render(text))
		used += col.Width + 2
	}
	if used < totalWidth {
		sb.WriteString(th.ResultsHeader.Padding(0).Render(strings.Repeat(" ", totalWidth-used)))
	}
	return sb.String()
}

func (m Model) renderDataRow(th *theme.Theme, rowIdx int, selected bool, totalWidth int) string {
	var cellStyle lipgloss.Style
	switch {
	case selected:
		cellStyle = th.ResultsSelectedRow
	case rowIdx%2 == 1:
		cellStyle = th.ResultsCellAlt
	default:
		cellStyle = th.ResultsCell
	}

	row := m.grid.Rows[rowIdx]
	var sb strings.Builder
	used := 0
	for j, col := range m.tableCols {
		var val string
		if j < len(row) {
			val = row[j]
		}
		val = strings.ReplaceAll(val, "\n", " ")
		text := runewidth.FillRight(runewidth.Truncate(val, col.Width, "…"), col.Width)
		style := cellStyle
		if val == "NULL" && !selected {
			style = cellStyle.Inherit(th.ResultsNull)
		}
		sb.WriteString(style.Render(text))
		used += col.Width + 2
	}
	if used < totalWidth {
		sb.WriteString(cellStyle.Padding(0).Render(strings.Repeat(" ", totalWidth-used)))
	}
	return sb.String()
}

func (m Model) buildFooter() string {
	parts := []string{fmt.Sprintf("%d rows", len(m.grid.Rows))}
	if m.queryTime > 0 {
		parts = append(parts, formatDuration(m.queryTime))
	}
	if m.message != "" {
		parts = append(parts, m.message)
	}
	if m.footer != "" {
		parts = append(parts, m.footer)
	}
	return theme.Current.MutedText.Render("  " + strings.Join(parts, " | "))
}

func (m Model) wrap(content string, minHeight int) string {
	if !m.bordered {
		return lipgloss.NewStyle().Width(m.contentWidth()).Render(content)
	}
	th := theme.Current
	style := th.UnfocusedBorder
	if m.focused {
		style = th.FocusedBorder
	}
	style = style.Width(max(m.width-2, 0))
	if minHeight > 0 {
		style = style.Height(minHeight)
	}
	return style.Render(content)
}

func (m *Model) applyStyles() {
	th := theme.Current
	s := table.DefaultStyles()
	s.Header = th.ResultsHeader
	s.Cell = th.ResultsCell
	s.Selected = th.ResultsSelectedRow
	m.table.SetStyles(s)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%d us", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%d ms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2f s", d.Seconds())
	default:
		return fmt.Sprintf("%.1f min", d.Minutes())
	}
}

// autoSizeColumns sizes columns from header and sampled cell widths,
// scaling them down proportionally when they do not fit maxWidth.
func autoSizeColumns(g render.Grid, maxWidth int) []table.Column {
	numCols := len(g.Headers)
	if numCols == 0 {
		return nil
	}

	widths := make([]int, numCols)
	for i, h := range g.Headers {
		widths[i] = max(runewidth.StringWidth(h), 4)
	}

	sample := min(len(g.Rows), 100)
	for i := 0; i < sample; i++ {
		for j := 0; j < numCols && j < len(g.Rows[i]); j++ {
			widths[j] = max(widths[j], runewidth.StringWidth(g.Rows[i][j]))
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], maxColWidth)
	}

	// Cell padding adds one column on each side.
	paddingWidth := numCols * 2
	totalDesired := paddingWidth
	for _, w := range widths {
		totalDesired += w
	}
	if totalDesired > maxWidth {
		available := max(maxWidth-paddingWidth, numCols)
		totalColWidth := totalDesired - paddingWidth
		for i := range widths {
			widths[i] = max(widths[i]*available/totalColWidth, 2)
		}
	}

	cols := make([]table.Column, numCols)
	for i, h := range g.Headers {
		cols[i] = table.Column{Title: h, Width: widths[i]}
	}
	return cols
}
