// Package explorer implements the interactive browsing session: one
// connection, one active schema, the object catalog, the visible list and
// the detail of the selected object. The session never blocks; every
// database round trip is returned as a tea.Cmd and its result comes back
// through Update.
package explorer

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/sadopc/oraterm/internal/adapter"
	"github.com/sadopc/oraterm/internal/adapter/oracle"
	"github.com/sadopc/oraterm/internal/catalog"
	"github.com/sadopc/oraterm/internal/errs"
	appmsg "github.com/sadopc/oraterm/internal/msg"
	"github.com/sadopc/oraterm/internal/schema"
)

// DefaultRowLimit is the number of sample rows fetched for a table detail.
const DefaultRowLimit = 50

// State is the lifecycle state of a session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateSchemaLoading
	StateBrowsing
	StateDetailLoading
	StateError
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSchemaLoading:
		return "loading schema"
	case StateBrowsing:
		return "browsing"
	case StateDetailLoading:
		return "loading detail"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

// Catalog is the subset of catalog access functions the session uses.
type Catalog interface {
	catalog.Source
	ListSchemas(ctx context.Context) ([]string, error)
	DescribeTable(ctx context.Context, owner, table string) ([]schema.Column, error)
	FetchRows(ctx context.Context, owner, table string, limit int) (*adapter.ResultSet, error)
	FetchSource(ctx context.Context, owner, name, objectType string) (string, error)
	ExecuteAdHoc(ctx context.Context, query string, maxRows int) (*adapter.ResultSet, error)
	Close() error
}

// Connector opens a catalog for cfg.
type Connector func(ctx context.Context, cfg oracle.Config) (Catalog, error)

// OracleConnector opens a real Oracle connection.
func OracleConnector(log zerolog.Logger) Connector {
	return func(ctx context.Context, cfg oracle.Config) (Catalog, error) {
		c, err := oracle.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c.SetLogger(log)
		return c, nil
	}
}

// QueryRecord describes one finished ad-hoc statement.
type QueryRecord struct {
	Query    string
	Schema   string
	Duration time.Duration
	RowCount int
	Err      error
}

// Options configure a session.
type Options struct {
	Config   oracle.Config
	Connect  Connector
	RowLimit int
	Filters  catalog.FilterSet
	Logger   zerolog.Logger

	// OnQuery is called for every ad-hoc statement that was not superseded.
	OnQuery func(QueryRecord)
}

// Query is the state of the SQL panel.
type Query struct {
	Text    string
	Running bool
	Result  *adapter.ResultSet
	Err     error
}

// Session is the explorer state machine. It is driven from a single
// goroutine (the bubbletea loop) and needs no locking.
type Session struct {
	cfg      oracle.Config
	connect  Connector
	rowLimit int
	log      zerolog.Logger
	onQuery  func(QueryRecord)

	state State
	err   error
	db    Catalog

	schema  string
	schemas []string
	cache   *catalog.Cache
	filters catalog.FilterSet
	search  string
	visible []schema.Entry

	selected    schema.Entry
	hasSelected bool
	detail      Detail

	catalogGen   uint64
	detailGen    uint64
	detailCancel context.CancelFunc

	query       Query
	queryGen    uint64
	queryCancel context.CancelFunc
}

// New creates a disconnected session.
func New(opts Options) *Session {
	if opts.RowLimit <= 0 {
		opts.RowLimit = DefaultRowLimit
	}
	if opts.Filters == 0 {
		opts.Filters = catalog.DefaultFilters()
	}
	if opts.Connect == nil {
		opts.Connect = OracleConnector(opts.Logger)
	}
	return &Session{
		cfg:      opts.Config,
		connect:  opts.Connect,
		rowLimit: opts.RowLimit,
		log:      opts.Logger,
		onQuery:  opts.OnQuery,
		schema:   opts.Config.Schema,
		cache:    catalog.New(),
		filters:  opts.Filters,
	}
}

// Update applies an intent or a finished background operation and returns
// the follow-up work.
func (s *Session) Update(m tea.Msg) tea.Cmd {
	switch m := m.(type) {
	case appmsg.ConnectMsg:
		return s.Connect()
	case appmsg.LoadSchemasMsg:
		return s.LoadSchemas()
	case appmsg.SelectSchemaMsg:
		return s.SelectSchema(m.Schema)
	case appmsg.ToggleFilterMsg:
		return s.SetFilter(m.Type, m.Enabled)
	case appmsg.SetFiltersMsg:
		return s.SetFilters(m.Types)
	case appmsg.SetSearchMsg:
		return s.SetSearch(m.Term)
	case appmsg.SelectEntryMsg:
		return s.SelectEntry(m.Entry)
	case appmsg.RefreshMsg:
		return s.Refresh()
	case appmsg.ExecuteQueryMsg:
		return s.ExecuteQuery(m.Query)
	case appmsg.CancelQueryMsg:
		return s.CancelQuery()

	case ConnectedMsg:
		return s.handleConnected(m)
	case SchemasLoadedMsg:
		return s.handleSchemas(m)
	case CatalogLoadedMsg:
		return s.handleCatalog(m)
	case DetailLoadedMsg:
		return s.handleDetail(m)
	case QueryResultMsg:
		return s.handleQuery(m)
	}
	return nil
}

// Connect makes the single connection attempt of this session.
func (s *Session) Connect() tea.Cmd {
	if s.state != StateDisconnected {
		return nil
	}
	cfg, err := s.cfg.Resolve()
	if err != nil {
		s.fail(err)
		return status("Connection failed: "+err.Error(), true)
	}
	s.cfg = cfg
	s.schema = cfg.Schema
	s.state = StateConnecting

	connect := s.connect
	return tea.Batch(
		status("Connecting to "+cfg.DSN+"...", false),
		func() tea.Msg {
			c, err := connect(context.Background(), cfg)
			return ConnectedMsg{Catalog: c, Err: err}
		},
	)
}

func (s *Session) handleConnected(m ConnectedMsg) tea.Cmd {
	if s.state == StateClosed {
		if m.Catalog != nil {
			m.Catalog.Close()
		}
		return nil
	}
	if m.Err != nil {
		s.fail(m.Err)
		return status("Connection failed: "+m.Err.Error(), true)
	}
	s.db = m.Catalog
	s.log.Info().Str("user", s.cfg.User).Str("schema", s.schema).Msg("connected")
	return tea.Batch(
		status(fmt.Sprintf("Connected as %s", strings.ToUpper(s.cfg.User)), false),
		s.loadCatalog(),
		s.LoadSchemas(),
	)
}

// LoadSchemas fetches the schema list for the picker.
func (s *Session) LoadSchemas() tea.Cmd {
	if s.db == nil {
		return nil
	}
	db := s.db
	return func() tea.Msg {
		list, err := db.ListSchemas(context.Background())
		return SchemasLoadedMsg{Schemas: list, Err: err}
	}
}

func (s *Session) handleSchemas(m SchemasLoadedMsg) tea.Cmd {
	if m.Err != nil {
		s.log.Warn().Err(m.Err).Msg("list schemas")
		return status("Listing schemas failed: "+m.Err.Error(), true)
	}
	s.schemas = m.Schemas
	return nil
}

// SelectSchema switches the active schema. Selecting the active schema
// again does nothing.
func (s *Session) SelectSchema(name string) tea.Cmd {
	n, err := oracle.NormalizeIdentifier(name)
	if err != nil {
		return status("Select schema: "+err.Error(), true)
	}
	if n == s.schema {
		return nil
	}
	s.schema = n
	if s.db == nil {
		return nil
	}
	s.log.Debug().Str("schema", n).Msg("switch schema")
	return tea.Batch(status("Schema "+n, false), s.reload())
}

// SetFilter shows or hides one object type.
func (s *Session) SetFilter(t schema.ObjectType, enabled bool) tea.Cmd {
	s.filters = s.filters.With(t, enabled)
	return s.recompute()
}

// SetFilters replaces the visible types.
func (s *Session) SetFilters(types []schema.ObjectType) tea.Cmd {
	s.filters = catalog.NewFilterSet(types...)
	return s.recompute()
}

// SetSearch replaces the search term. No statement is issued.
func (s *Session) SetSearch(term string) tea.Cmd {
	s.search = term
	return s.recompute()
}

// SelectEntry abandons any pending detail load and starts one for entry.
func (s *Session) SelectEntry(entry schema.Entry) tea.Cmd {
	if s.db == nil || !s.cache.LoadedFor(s.schema) {
		return nil
	}
	s.abandonDetail()

	s.detailGen++
	gen := s.detailGen
	ctx, cancel := context.WithCancel(context.Background())
	s.detailCancel = cancel
	s.selected = entry
	s.hasSelected = true
	s.detail = Detail{Kind: DetailLoading, Schema: s.schema, Entry: entry}
	s.state = StateDetailLoading

	db, owner, limit := s.db, s.schema, s.rowLimit
	return func() tea.Msg {
		d, err := loadDetail(ctx, db, owner, entry, limit)
		return DetailLoadedMsg{Gen: gen, Schema: owner, Entry: entry, Detail: d, Err: err}
	}
}

// Refresh reloads the catalog of the active schema.
func (s *Session) Refresh() tea.Cmd {
	if s.db == nil {
		return nil
	}
	return tea.Batch(status("Refreshing "+s.schema+"...", false), s.reload())
}

// ExecuteQuery runs an ad-hoc statement from the SQL panel. A running
// statement is superseded.
func (s *Session) ExecuteQuery(q string) tea.Cmd {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	if s.db == nil {
		return status("Query failed: "+adapter.ErrNotConnected.Error(), true)
	}
	if s.queryCancel != nil {
		s.queryCancel()
	}
	s.queryGen++
	runID := s.queryGen
	ctx, cancel := context.WithCancel(context.Background())
	s.queryCancel = cancel
	s.query = Query{Text: q, Running: true}

	db := s.db
	return tea.Batch(
		status("Executing...", false),
		func() tea.Msg {
			rs, err := db.ExecuteAdHoc(ctx, q, oracle.MaxAdHocRows)
			return QueryResultMsg{RunID: runID, Query: q, Result: rs, Err: err}
		},
	)
}

// CancelQuery abandons the running ad-hoc statement.
func (s *Session) CancelQuery() tea.Cmd {
	if !s.query.Running {
		return nil
	}
	s.queryCancel()
	s.queryCancel = nil
	s.queryGen++
	s.query.Running = false
	return status("Query cancelled", false)
}

func (s *Session) handleQuery(m QueryResultMsg) tea.Cmd {
	if m.RunID != s.queryGen {
		s.log.Debug().Uint64("run", m.RunID).Msg("discard stale query result")
		return nil
	}
	if s.queryCancel != nil {
		s.queryCancel()
		s.queryCancel = nil
	}
	s.query.Running = false
	s.query.Result = m.Result
	s.query.Err = m.Err

	rec := QueryRecord{Query: m.Query, Schema: s.schema, Err: m.Err}
	if m.Result != nil {
		rec.Duration = m.Result.Duration
		rec.RowCount = m.Result.RowCount()
	}
	if s.onQuery != nil {
		s.onQuery(rec)
	}

	if m.Err != nil {
		return status("Query failed: "+m.Err.Error(), true)
	}
	text := m.Result.Message
	if text == "" {
		text = fmt.Sprintf("%d row(s)", m.Result.RowCount())
		if m.Result.Truncated {
			text += fmt.Sprintf(" (first %d shown)", oracle.MaxAdHocRows)
		}
	}
	return func() tea.Msg {
		return appmsg.StatusMsg{Text: text, Duration: m.Result.Duration}
	}
}

// Close abandons pending work and releases the connection. It is safe to
// call more than once.
func (s *Session) Close() error {
	if s.state == StateClosed {
		return nil
	}
	s.abandonDetail()
	if s.queryCancel != nil {
		s.queryCancel()
		s.queryCancel = nil
	}
	s.state = StateClosed
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// reload invalidates the cache and starts a catalog load for the active
// schema.
func (s *Session) reload() tea.Cmd {
	s.cache.Invalidate()
	s.visible = nil
	s.abandonDetail()
	s.clearSelection()
	return s.loadCatalog()
}

func (s *Session) loadCatalog() tea.Cmd {
	s.catalogGen++
	gen := s.catalogGen
	s.state = StateSchemaLoading
	s.err = nil

	db, owner := s.db, s.schema
	return func() tea.Msg {
		entries, err := catalog.Fetch(context.Background(), db, owner)
		return CatalogLoadedMsg{Gen: gen, Schema: owner, Entries: entries, Err: err}
	}
}

func (s *Session) handleCatalog(m CatalogLoadedMsg) tea.Cmd {
	if m.Gen != s.catalogGen || m.Schema != s.schema {
		s.log.Debug().Str("schema", m.Schema).Msg("discard stale catalog")
		return nil
	}
	if m.Err != nil {
		s.fail(m.Err)
		s.visible = nil
		return status("Loading "+m.Schema+" failed: "+m.Err.Error(), true)
	}
	s.cache.Install(m.Schema, m.Entries)
	s.state = StateBrowsing
	s.log.Debug().Str("schema", m.Schema).Int("objects", s.cache.Len()).Msg("catalog loaded")
	return tea.Batch(
		status(fmt.Sprintf("%s: %d objects", m.Schema, s.cache.Len()), false),
		s.recompute(),
	)
}

func (s *Session) handleDetail(m DetailLoadedMsg) tea.Cmd {
	if m.Gen != s.detailGen || errs.IsCancelled(m.Err) {
		s.log.Debug().Str("object", m.Entry.Name).Msg("discard superseded detail")
		return nil
	}
	if !s.hasSelected || m.Entry != s.selected || m.Schema != s.schema {
		s.log.Debug().Str("object", m.Entry.Name).Msg("discard detail for old selection")
		return nil
	}
	if s.detailCancel != nil {
		s.detailCancel()
		s.detailCancel = nil
	}
	s.state = StateBrowsing

	if m.Err != nil {
		s.detail = Detail{Kind: DetailError, Schema: m.Schema, Entry: m.Entry, Err: m.Err}
		s.log.Debug().Err(m.Err).Str("object", m.Entry.Name).Msg("detail load failed")
		return status(m.Err.Error(), true)
	}
	s.detail = m.Detail
	return nil
}

// recompute derives the visible list and selects its first entry.
func (s *Session) recompute() tea.Cmd {
	if !s.cache.LoadedFor(s.schema) {
		s.visible = nil
		return nil
	}
	s.visible = s.cache.Visible(s.filters, s.search)
	if len(s.visible) == 0 {
		s.abandonDetail()
		s.clearSelection()
		return nil
	}
	return s.SelectEntry(s.visible[0])
}

// abandonDetail drops interest in the pending detail load. The statement
// may still complete; its result carries an outdated generation.
func (s *Session) abandonDetail() {
	if s.detailCancel != nil {
		s.detailCancel()
		s.detailCancel = nil
	}
	s.detailGen++
	if s.state == StateDetailLoading {
		s.state = StateBrowsing
	}
	if s.detail.Kind == DetailLoading {
		s.detail = Detail{}
	}
}

func (s *Session) clearSelection() {
	s.selected = schema.Entry{}
	s.hasSelected = false
	s.detail = Detail{}
}

func (s *Session) fail(err error) {
	s.state = StateError
	s.err = err
	s.log.Error().Err(err).Msg("session error")
}

func status(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return appmsg.StatusMsg{Text: text, IsError: isError}
	}
}

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// Err returns the error behind StateError.
func (s *Session) Err() error { return s.err }

// Connected reports whether a connection is open.
func (s *Session) Connected() bool { return s.db != nil }

// User returns the login user.
func (s *Session) User() string { return strings.ToUpper(s.cfg.User) }

// Schema returns the active schema.
func (s *Session) Schema() string { return s.schema }

// Filters returns the active type filters.
func (s *Session) Filters() catalog.FilterSet { return s.filters }

// Search returns the search term.
func (s *Session) Search() string { return s.search }

// Visible returns the visible list.
func (s *Session) Visible() []schema.Entry { return s.visible }

// CatalogSize returns the number of cached objects.
func (s *Session) CatalogSize() int { return s.cache.Len() }

// Selected returns the selected entry.
func (s *Session) Selected() (schema.Entry, bool) { return s.selected, s.hasSelected }

// Detail returns the detail of the selected entry.
func (s *Session) Detail() Detail { return s.detail }

// Query returns the SQL panel state.
func (s *Session) Query() Query { return s.query }

// Entries returns every cached object of the active schema, unfiltered.
func (s *Session) Entries() []schema.Entry { return s.cache.Entries() }

// RowLimit returns the sample row count of table details.
func (s *Session) RowLimit() int { return s.rowLimit }

// Schemas returns the schema list, with the active schema added when the
// login user cannot see it in the dictionary.
func (s *Session) Schemas() []string {
	out := slices.Clone(s.schemas)
	if s.schema != "" && !slices.Contains(out, s.schema) {
		out = append(out, s.schema)
		slices.Sort(out)
	}
	return out
}

// CopyText returns the current detail as markdown.
func (s *Session) CopyText() (string, bool) {
	return s.detail.Text()
}

// PreviewQuery returns a starter statement for the selected table.
func (s *Session) PreviewQuery() string {
	if !s.hasSelected || s.selected.Type != schema.ObjectTable {
		return ""
	}
	return fmt.Sprintf("SELECT * FROM %s.%s WHERE ROWNUM <= %d", s.schema, s.selected.Name, s.rowLimit)
}
