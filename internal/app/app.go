// Package app is the root bubbletea model of the explorer. It owns the
// widgets, routes keys to them and forwards every intent to the
// explorer session, then copies the session state back into the widgets.
package app

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"

	"github.com/sadopc/oraterm/internal/adapter/oracle"
	"github.com/sadopc/oraterm/internal/audit"
	"github.com/sadopc/oraterm/internal/catalog"
	"github.com/sadopc/oraterm/internal/completion"
	"github.com/sadopc/oraterm/internal/config"
	"github.com/sadopc/oraterm/internal/explorer"
	"github.com/sadopc/oraterm/internal/history"
	appmsg "github.com/sadopc/oraterm/internal/msg"
	"github.com/sadopc/oraterm/internal/render"
	"github.com/sadopc/oraterm/internal/schema"
	"github.com/sadopc/oraterm/internal/theme"
	"github.com/sadopc/oraterm/internal/ui/autocomplete"
	"github.com/sadopc/oraterm/internal/ui/detail"
	"github.com/sadopc/oraterm/internal/ui/dialog"
	"github.com/sadopc/oraterm/internal/ui/editor"
	"github.com/sadopc/oraterm/internal/ui/filterbar"
	"github.com/sadopc/oraterm/internal/ui/historybrowser"
	"github.com/sadopc/oraterm/internal/ui/objectlist"
	"github.com/sadopc/oraterm/internal/ui/results"
	"github.com/sadopc/oraterm/internal/ui/schemapicker"
	"github.com/sadopc/oraterm/internal/ui/statusbar"
)

const (
	defaultListWidth = 32
	defaultSQLHeight = 40 // percent of the area below the filter bar
	sqlEditorHeight  = 7
	historyRecall    = 200
)

// Options configure the root model.
type Options struct {
	Config     *config.Config
	Connection oracle.Config
	History    *history.History
	Audit      *audit.Logger
	Logger     zerolog.Logger
	Version    string

	// Connect replaces the Oracle connector in tests.
	Connect explorer.Connector
	// Clipboard replaces the system clipboard in tests.
	Clipboard func(string) error
	// ExportDir is where exported files go; empty means the working directory.
	ExportDir string
}

// Model is the root application model.
type Model struct {
	// Layout
	width     int
	height    int
	listWidth int
	sqlHeight int
	showSQL   bool

	// Focus
	focusedPane Pane

	// Components
	filterbar filterbar.Model
	list      objectlist.Model
	detail    detail.Model
	editor    editor.Model
	sqlOut    results.Model
	statusbar statusbar.Model
	picker    schemapicker.Model
	histView  historybrowser.Model
	helpBox   dialog.Model
	help      help.Model
	autocomp  autocomplete.Model

	compEngine *completion.Engine

	session *explorer.Session
	running bool     // SQL output shows the loading state
	schemas []string // list shown by the picker

	cfg       *config.Config
	dsn       string
	version   string
	history   *history.History
	audit     *audit.Logger
	log       zerolog.Logger
	clipboard func(string) error
	exportDir string

	keyMap   KeyMap
	quitting bool
}

// New creates the root model. The connection is opened by Init.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	theme.Current = theme.Get(cfg.Theme)

	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	engine := completion.NewEngine()
	m := Model{
		listWidth:   defaultListWidth,
		sqlHeight:   defaultSQLHeight,
		focusedPane: PaneList,

		list:      objectlist.New(),
		detail:    detail.New(),
		editor:    editor.New(),
		sqlOut:    results.New(true),
		statusbar: statusbar.New(),
		picker:    schemapicker.New(),
		help:      help.New(),
		autocomp:  autocomplete.New(engine),

		compEngine: engine,

		cfg:       cfg,
		dsn:       opts.Connection.DSN,
		version:   opts.Version,
		history:   opts.History,
		audit:     opts.Audit,
		log:       opts.Logger,
		clipboard: copyFn,
		exportDir: opts.ExportDir,
		keyMap:    DefaultKeyMap(),
	}

	filters := catalog.ParseFilters(cfg.DefaultFilters)
	m.session = explorer.New(explorer.Options{
		Config:   opts.Connection,
		Connect:  opts.Connect,
		RowLimit: cfg.RowLimit,
		Filters:  filters,
		Logger:   opts.Logger,
		OnQuery:  m.recordQuery(strings.ToUpper(opts.Connection.User)),
	})
	m.filterbar = filterbar.New(m.session.Filters())

	// A nil *History must not become a non-nil Store.
	var store historybrowser.Store
	if opts.History != nil {
		store = opts.History
		if qs, err := opts.History.Queries(historyRecall); err == nil {
			m.editor.SetHistory(qs)
		} else {
			m.log.Warn().Err(err).Msg("load statement history")
		}
	}
	m.histView = historybrowser.New(store)
	m.helpBox = dialog.New("  oraterm - Help", "", dialog.Button{Label: "Close"})
	m.sqlOut.SetEmptyText("Run a statement with F5 or Ctrl+G")

	m.list.Focus()
	m.sync()
	return m
}

// recordQuery returns the hook the session calls after every ad-hoc
// statement: it lands in the history store and in the audit log.
func (m *Model) recordQuery(user string) func(explorer.QueryRecord) {
	hist, auditLog, log := m.history, m.audit, m.log
	dsn := m.dsn
	return func(rec explorer.QueryRecord) {
		if hist != nil {
			err := hist.Add(history.Entry{
				Query:      rec.Query,
				Schema:     rec.Schema,
				ExecutedAt: time.Now(),
				DurationMS: rec.Duration.Milliseconds(),
				RowCount:   int64(rec.RowCount),
				IsError:    rec.Err != nil,
			})
			if err != nil {
				log.Warn().Err(err).Msg("save statement history")
			}
		}
		e := audit.Entry{
			Source:     audit.SourceTUI,
			User:       user,
			Schema:     rec.Schema,
			DSN:        dsn,
			Query:      rec.Query,
			DurationMS: rec.Duration.Milliseconds(),
			RowCount:   int64(rec.RowCount),
		}
		if rec.Err != nil {
			e.Error = rec.Err.Error()
		}
		auditLog.Log(e)
	}
}

// Init opens the connection.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return appmsg.ConnectMsg{} }
}

// Session returns the explorer session behind the model.
func (m Model) Session() *explorer.Session {
	return m.session
}

// Close releases the connection. It is safe to call more than once.
func (m Model) Close() error {
	return m.session.Close()
}

// Run runs m as a full-screen program. The connection is closed however the
// program ends.
func Run(m Model, opts ...tea.ProgramOption) error {
	defer m.Close()
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case StatusMsg, statusbar.ClearStatusMsg:
		var cmd tea.Cmd
		m.statusbar, cmd = m.statusbar.Update(msg)
		return m, cmd

	case historybrowser.SelectQueryMsg:
		m.editor.SetValue(msg.Query)
		m.showSQL = true
		m.updateLayout()
		cmds = append(cmds, m.setFocus(PaneSQL))

	case ExecuteQueryMsg:
		m.editor.Remember(msg.Query)
		cmds = append(cmds, m.session.Update(msg))

	case CopyRequestMsg:
		cmds = append(cmds, m.copyCurrent())

	case CopyDoneMsg:
		if msg.Err != nil {
			cmds = append(cmds, status("Copy failed: "+msg.Err.Error(), true))
		} else {
			cmds = append(cmds, status("Copied "+msg.What+" to clipboard", false))
		}

	case autocomplete.SelectedMsg:
		m.editor.Complete(msg.Text, msg.PrefixLen)

	case autocomplete.DismissMsg:

	case ExportRequestMsg:
		cmds = append(cmds, m.exportCurrent(msg.Format))

	case ExportCompleteMsg:
		cmds = append(cmds, status(fmt.Sprintf("Exported %d rows to %s", msg.RowCount, msg.Path), false))

	case ExportErrMsg:
		cmds = append(cmds, status("Export failed: "+msg.Err.Error(), true))

	default:
		// Intents from the widgets and results of background work.
		cmds = append(cmds, m.session.Update(msg))
		switch msg.(type) {
		case explorer.SchemasLoadedMsg, explorer.CatalogLoadedMsg, explorer.DetailLoadedMsg:
			m.feedCompletion()
		}

		var cmd tea.Cmd
		m.filterbar, cmd = m.filterbar.Update(msg)
		cmds = append(cmds, cmd)
		m.editor, cmd = m.editor.Update(msg)
		cmds = append(cmds, cmd)
		m.picker, cmd = m.picker.Update(msg)
		cmds = append(cmds, cmd)
		m.histView, cmd = m.histView.Update(msg)
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, m.sync())
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd

	// Overlays take every key while shown.
	switch {
	case m.helpBox.Visible():
		m.helpBox, cmd = m.helpBox.Update(msg)
		return cmd
	case m.picker.Visible():
		m.picker, cmd = m.picker.Update(msg)
		return cmd
	case m.histView.Visible():
		m.histView, cmd = m.histView.Update(msg)
		return cmd
	case m.filterbar.Searching():
		if msg.String() == "ctrl+q" {
			return m.quit()
		}
		m.filterbar, cmd = m.filterbar.Update(msg)
		return cmd
	}

	if m.autocomp.Visible() {
		switch msg.String() {
		case "up", "down", "ctrl+p", "ctrl+n", "enter", "tab", "esc":
			m.autocomp, cmd = m.autocomp.Update(msg)
			return cmd
		}
	}

	if cmd, ok := m.handleGlobalKeys(msg); ok {
		m.autocomp.Dismiss()
		return cmd
	}
	return m.handleFocusedPaneKey(msg)
}

// feedCompletion hands the session's catalog to the completion engine.
// Columns accumulate for every table opened in the detail pane.
func (m *Model) feedCompletion() {
	s := m.session
	m.compEngine.SetSchemas(s.Schemas())
	m.compEngine.SetObjects(s.Schema(), s.Entries())
	if d := s.Detail(); d.Kind == explorer.DetailTable && d.Schema == s.Schema() {
		m.compEngine.SetColumns(d.Entry.Name, d.Columns)
	}
}

// handleGlobalKeys applies application shortcuts. Plain character keys are
// left to the SQL editor while it has focus.
func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	km := m.keyMap
	typing := m.focusedPane == PaneSQL
	plain := len(msg.Runes) > 0 && msg.Type == tea.KeyRunes

	switch {
	case key.Matches(msg, km.Quit):
		if plain && typing {
			return nil, false
		}
		return m.quit(), true

	case key.Matches(msg, km.Help):
		m.helpBox.SetBody(m.helpText())
		m.helpBox.Show()
		return nil, true

	case key.Matches(msg, km.CancelQuery):
		if m.session.Query().Running {
			return func() tea.Msg { return appmsg.CancelQueryMsg{} }, true
		}
		return nil, true

	case key.Matches(msg, km.FocusNext):
		return m.cycleFocus(1), true

	case key.Matches(msg, km.FocusPrev):
		return m.cycleFocus(-1), true

	case key.Matches(msg, km.ToggleSQL):
		return m.toggleSQL(), true

	case key.Matches(msg, km.History):
		m.histView.SetSize(m.width, m.height)
		m.histView.SetSchema(m.session.Schema())
		m.histView.Show()
		return nil, true

	case key.Matches(msg, km.Copy):
		return func() tea.Msg { return CopyRequestMsg{} }, true

	case key.Matches(msg, km.Export):
		return func() tea.Msg { return ExportRequestMsg{Format: results.FormatCSV} }, true

	case key.Matches(msg, km.OnlyPrograms):
		return setFilters(schema.ObjectProcedure, schema.ObjectFunction), true

	case key.Matches(msg, km.OnlyPackages):
		return setFilters(schema.ObjectPackage, schema.ObjectPackageBody), true

	case key.Matches(msg, km.Close):
		if m.filterbar.Term() != "" {
			return m.filterbar.ClearSearch(), true
		}
		if typing {
			return m.setFocus(PaneList), true
		}
		return nil, true
	}

	if typing && plain {
		return nil, false
	}

	switch {
	case key.Matches(msg, km.Search):
		return m.filterbar.StartSearch(), true

	case key.Matches(msg, km.Refresh):
		return func() tea.Msg { return appmsg.RefreshMsg{} }, true

	case key.Matches(msg, km.PickSchema):
		m.picker.SetSize(m.width, m.height)
		m.schemas = m.session.Schemas()
		cmd := m.picker.Show(m.schemas, m.session.Schema())
		if len(m.schemas) <= 1 {
			cmd = tea.Batch(cmd, func() tea.Msg { return appmsg.LoadSchemasMsg{} })
		}
		return cmd, true
	}

	if t, ok := km.typeForKey(msg.String()); ok {
		return m.filterbar.Toggle(t), true
	}
	return nil, false
}

func (m *Model) handleFocusedPaneKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focusedPane {
	case PaneList:
		m.list, cmd = m.list.Update(msg)
	case PaneDetail:
		m.detail, cmd = m.detail.Update(msg)
	case PaneSQL:
		if key.Matches(msg, m.keyMap.ExecuteQuery) {
			q := strings.TrimSpace(m.editor.Value())
			if q == "" {
				return nil
			}
			m.autocomp.Dismiss()
			return func() tea.Msg { return ExecuteQueryMsg{Query: q} }
		}
		if key.Matches(msg, m.keyMap.Complete) {
			m.autocomp.TriggerForced(m.editor.Value(), m.editor.CursorOffset())
			return nil
		}
		m.editor, cmd = m.editor.Update(msg)
		if isTypingKey(msg) {
			m.autocomp.Trigger(m.editor.Value(), m.editor.CursorOffset())
		} else {
			m.autocomp.Dismiss()
		}
	}
	return cmd
}

func isTypingKey(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyRunes, tea.KeyBackspace:
		return true
	}
	return false
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	if err := m.session.Close(); err != nil {
		m.log.Warn().Err(err).Msg("close connection")
	}
	return tea.Quit
}

func (m *Model) toggleSQL() tea.Cmd {
	m.showSQL = !m.showSQL
	m.updateLayout()
	if !m.showSQL {
		return m.setFocus(PaneList)
	}
	if q := m.session.PreviewQuery(); q != "" {
		m.editor.SetValue(q)
	}
	return m.setFocus(PaneSQL)
}

func setFilters(types ...schema.ObjectType) tea.Cmd {
	return func() tea.Msg { return appmsg.SetFiltersMsg{Types: types} }
}

func status(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return StatusMsg{Text: text, IsError: isError} }
}

// sync copies the session state into the widgets.
func (m *Model) sync() tea.Cmd {
	s := m.session

	m.filterbar.SetSchema(s.Schema())
	m.filterbar.SetFilters(s.Filters())

	var sel *schema.Entry
	if e, ok := s.Selected(); ok {
		sel = &e
	}
	m.list.SetEntries(s.Schema(), s.Visible(), s.CatalogSize(), sel)
	m.list.SetLoading(s.State() == explorer.StateSchemaLoading)

	if s.Connected() {
		m.statusbar.SetConnection(s.User(), m.dsn)
	}
	m.statusbar.SetSession(s.State().String(), s.Schema())

	if schemas := s.Schemas(); m.picker.Visible() && !slices.Equal(schemas, m.schemas) {
		m.picker.SetSchemas(schemas)
		m.schemas = schemas
	}

	q := s.Query()
	switch {
	case q.Running && !m.running:
		m.running = true
		m.sqlOut.SetLoading(true)
	case !q.Running && m.running:
		m.running = false
		switch {
		case q.Err != nil:
			m.sqlOut.SetError(q.Err)
		case q.Result != nil:
			m.sqlOut.SetResult(render.ResultGrid(q.Result), q.Result.Message, q.Result.Duration)
		default:
			m.sqlOut.SetMessage("Statement cancelled")
		}
	}

	return m.detail.SetDetail(s.Detail())
}

func (m *Model) copyCurrent() tea.Cmd {
	var text, what string
	if m.focusedPane == PaneSQL && !m.sqlOut.Grid().Empty() {
		text, what = render.Markdown(m.sqlOut.Grid()), "query result"
	} else if t, ok := m.session.CopyText(); ok {
		text, what = t, m.detail.Summary()
	}
	if text == "" {
		return status("Nothing to copy", true)
	}
	copyFn := m.clipboard
	return func() tea.Msg {
		return CopyDoneMsg{What: what, Err: copyFn(text)}
	}
}

func (m *Model) exportCurrent(format string) tea.Cmd {
	var (
		g    render.Grid
		name string
	)
	if m.focusedPane == PaneSQL {
		g, name = m.sqlOut.Grid(), "query"
	} else if dg, ok := m.detail.DataGrid(); ok {
		d := m.detail.Detail()
		g, name = dg, d.Schema+"_"+d.Entry.Name
	}
	if len(g.Headers) == 0 {
		return func() tea.Msg {
			return ExportErrMsg{Err: fmt.Errorf("no rows to export")}
		}
	}

	dir := m.exportDir
	return func() tea.Msg {
		if dir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return ExportErrMsg{Err: err}
			}
			dir = wd
		}
		path := results.ExportPath(dir, name, format, time.Now())
		if err := results.Export(path, format, g); err != nil {
			return ExportErrMsg{Err: err}
		}
		return ExportCompleteMsg{Path: path, RowCount: len(g.Rows)}
	}
}

func (m *Model) helpText() string {
	var b strings.Builder
	b.WriteString(m.help.FullHelpView(m.keyMap.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString("Objects: up/down or j/k to move, enter to reload.\n")
	b.WriteString("Detail: left/right or c/d to switch Columns and Data.\n")
	b.WriteString("SQL panel: up/down on the first or last line recall history.\n\n")

	conn := "not connected"
	if m.session.Connected() {
		conn = m.session.User() + "@" + m.dsn
	}
	fmt.Fprintf(&b, "oraterm %s\n%s, schema %s", m.version, conn, m.session.Schema())
	return b.String()
}

// View renders the entire application.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), m.detail.View())
	parts := []string{m.filterbar.View(), top}
	if m.showSQL {
		ed := m.editor.View()
		if popup := m.autocomp.View(); popup != "" {
			ed = overlayBottom(ed, popup)
		}
		parts = append(parts, ed, m.sqlOut.View())
	}
	parts = append(parts, m.statusbar.View())
	view := lipgloss.JoinVertical(lipgloss.Left, parts...)

	switch {
	case m.picker.Visible():
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.picker.View())
	case m.histView.Visible():
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.histView.View())
	case m.helpBox.Visible():
		return m.helpBox.Overlay(view)
	}
	return view
}

// overlayBottom draws popup over the last lines of base, left aligned.
func overlayBottom(base, popup string) string {
	baseLines := strings.Split(base, "\n")
	popLines := strings.Split(popup, "\n")
	start := max(len(baseLines)-len(popLines), 0)
	for i, pl := range popLines {
		row := start + i
		if row >= len(baseLines) {
			break
		}
		rest := ""
		if w := lipgloss.Width(pl); lipgloss.Width(baseLines[row]) > w {
			rest = ansi.Cut(baseLines[row], w, lipgloss.Width(baseLines[row]))
		}
		baseLines[row] = pl + rest
	}
	return strings.Join(baseLines, "\n")
}

func (m *Model) updateLayout() {
	m.filterbar.SetSize(m.width)
	m.autocomp.SetWidth(min(max(m.width/2, 30), 60))
	m.statusbar.SetSize(m.width)
	m.helpBox.SetSize(m.width, m.height)
	m.picker.SetSize(m.width, m.height)
	m.histView.SetSize(m.width, m.height)

	mainH := max(m.height-2, 3) // filter bar + status bar
	topH := mainH
	if m.showSQL {
		sqlH := max(mainH*m.sqlHeight/100, sqlEditorHeight+3)
		topH = max(mainH-sqlH, 3)
		m.editor.SetSize(m.width, sqlEditorHeight)
		m.sqlOut.SetSize(m.width, max(sqlH-sqlEditorHeight, 3))
	}

	listW := min(m.listWidth, m.width/2)
	m.list.SetSize(listW, topH)
	m.detail.SetSize(max(m.width-listW, 10), topH)
}

func (m *Model) cycleFocus(direction int) tea.Cmd {
	panes := []Pane{PaneList, PaneDetail}
	if m.showSQL {
		panes = append(panes, PaneSQL)
	}

	current := 0
	for i, p := range panes {
		if p == m.focusedPane {
			current = i
			break
		}
	}

	next := (current + direction + len(panes)) % len(panes)
	return m.setFocus(panes[next])
}

func (m *Model) setFocus(pane Pane) tea.Cmd {
	switch m.focusedPane {
	case PaneList:
		m.list.Blur()
	case PaneDetail:
		m.detail.Blur()
	case PaneSQL:
		m.editor.Blur()
		m.sqlOut.Blur()
		m.autocomp.Dismiss()
	}

	m.focusedPane = pane
	m.statusbar, _ = m.statusbar.Update(FocusMsg{Pane: pane})

	switch pane {
	case PaneList:
		m.list.Focus()
	case PaneDetail:
		m.detail.Focus()
	case PaneSQL:
		return m.editor.Focus()
	}
	return nil
}
