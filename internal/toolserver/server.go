// Package toolserver exposes the catalog access functions as MCP tools over
// stdio. All handlers share one explicit Session holding the connection and
// the default schema.
package toolserver

import (
	"context"
	"io"
	stdlog "log"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/sadopc/oraterm/internal/adapter"
	"github.com/sadopc/oraterm/internal/adapter/oracle"
	"github.com/sadopc/oraterm/internal/audit"
	"github.com/sadopc/oraterm/internal/schema"
)

const serverName = "oraterm"

// CellWidth bounds every cell printed by a tool.
const CellWidth = 100

// Catalog is the set of catalog access functions served as tools.
type Catalog interface {
	ListSchemas(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context, owner string) ([]string, error)
	ListObjects(ctx context.Context, owner string, types []string) ([]string, error)
	DescribeTable(ctx context.Context, owner, table string) ([]schema.Column, error)
	FetchRows(ctx context.Context, owner, table string, limit int) (*adapter.ResultSet, error)
	ExecuteReadQuery(ctx context.Context, query string, limit int) (*adapter.ResultSet, error)
	FetchSource(ctx context.Context, owner, name, objectType string) (string, error)
	TableStats(ctx context.Context, owner, table string) (schema.TableStats, error)
	Relationships(ctx context.Context, owner, table string) (schema.Relationships, error)
	Indexes(ctx context.Context, owner, table string) ([]schema.Index, error)
	Constraints(ctx context.Context, owner, table string) ([]schema.Constraint, error)
	RelatedTables(ctx context.Context, owner, table string, depth int) ([]schema.RelatedTable, error)
	SearchTables(ctx context.Context, owner, keyword, in string) ([]schema.SearchMatch, error)
	Triggers(ctx context.Context, owner, table string) ([]schema.Trigger, error)
}

var _ Catalog = (*oracle.Catalog)(nil)

// Options configure a Session.
type Options struct {
	Catalog Catalog
	Schema  string
	User    string
	DSN     string
	Audit   *audit.Logger
	Logger  zerolog.Logger
}

// Session is the state shared by every tool call: the connection and the
// schema used when a call does not name one.
type Session struct {
	db     Catalog
	schema string
	user   string
	dsn    string
	audit  *audit.Logger
	log    zerolog.Logger
}

// NewSession validates the default schema and returns a session.
func NewSession(opts Options) (*Session, error) {
	s, err := oracle.NormalizeIdentifier(opts.Schema)
	if err != nil {
		return nil, err
	}
	return &Session{
		db:     opts.Catalog,
		schema: s,
		user:   opts.User,
		dsn:    opts.DSN,
		audit:  opts.Audit,
		log:    opts.Logger,
	}, nil
}

// Schema returns the default schema.
func (s *Session) Schema() string {
	return s.schema
}

// NewServer creates an MCP server with every tool registered and tool calls
// logged through hooks.
func NewServer(version string, sess *Session) *server.MCPServer {
	srv := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
		server.WithHooks(toolCallHooks(sess.log)),
	)
	RegisterTools(srv, sess)
	return srv
}

// Serve runs srv over in and out until ctx is done or in is closed.
func Serve(ctx context.Context, srv *server.MCPServer, in io.Reader, out io.Writer, log zerolog.Logger) error {
	stdio := server.NewStdioServer(srv)
	stdio.SetErrorLogger(stdlog.New(log, "", 0))
	return stdio.Listen(ctx, in, out)
}
