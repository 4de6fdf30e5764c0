package toolserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sadopc/oraterm/internal/adapter/oracle"
	"github.com/sadopc/oraterm/internal/audit"
	"github.com/sadopc/oraterm/internal/errs"
	"github.com/sadopc/oraterm/internal/render"
	"github.com/sadopc/oraterm/internal/schema"
)

// Default limits of the row returning tools.
const (
	DefaultQueryTableLimit = 10
	DefaultExecuteLimit    = 100
)

var programTypes = []string{"PACKAGE", "PACKAGE BODY", "PROCEDURE", "FUNCTION"}

type toolDef struct {
	tool    mcp.Tool
	handler server.ToolHandlerFunc
}

func schemaParam() mcp.ToolOption {
	return mcp.WithString("schema",
		mcp.Description("Schema name (optional, defaults to the configured schema)"),
	)
}

func tableParam() mcp.ToolOption {
	return mcp.WithString("table_name",
		mcp.Required(),
		mcp.Description("Table name"),
	)
}

// tools lists every tool with its handler.
func (s *Session) tools() []toolDef {
	search := mcp.NewTool("search_tables",
		mcp.WithDescription("Search table names or column names for a keyword (case-insensitive substring)"),
		mcp.WithString("keyword", mcp.Required(), mcp.Description("Keyword to search for")),
		mcp.WithString("search_in",
			mcp.Description("Where to search: table_name, column_name or both (default both)"),
			mcp.Enum(oracle.SearchTableName, oracle.SearchColumnName, oracle.SearchBoth),
		),
		schemaParam(),
	)
	searchAlias := search
	searchAlias.Name = "get_search_tables"

	return []toolDef{
		{
			mcp.NewTool("list_schemas",
				mcp.WithDescription("List the schemas that own at least one object"),
			),
			s.listSchemas,
		},
		{
			mcp.NewTool("list_tables",
				mcp.WithDescription("List all tables of an Oracle schema"),
				schemaParam(),
			),
			s.listTables,
		},
		{
			mcp.NewTool("describe_table",
				mcp.WithDescription("Show the columns of a table with type, length, precision, scale, nullability and default"),
				tableParam(),
				schemaParam(),
			),
			s.describeTable,
		},
		{
			mcp.NewTool("query_table",
				mcp.WithDescription("Fetch the first N rows of a table"),
				tableParam(),
				mcp.WithNumber("limit", mcp.Description("Maximum number of rows (default 10)")),
				schemaParam(),
			),
			s.queryTable,
		},
		{
			mcp.NewTool("execute_sql",
				mcp.WithDescription("Run a SELECT statement. Other statements are rejected; a ROWNUM cap is added when the query has none"),
				mcp.WithString("query", mcp.Required(), mcp.Description("SQL query (SELECT only)")),
				mcp.WithNumber("limit", mcp.Description("Maximum number of rows (default 100)")),
			),
			s.executeSQL,
		},
		{
			mcp.NewTool("list_objects",
				mcp.WithDescription("List PL/SQL objects of a schema (packages, package bodies, procedures, functions)"),
				mcp.WithString("object_type",
					mcp.Description("Object type (default PACKAGE)"),
					mcp.Enum(programTypes...),
				),
				schemaParam(),
			),
			s.listObjects,
		},
		{
			mcp.NewTool("get_source",
				mcp.WithDescription("Fetch the source code of a PL/SQL object"),
				mcp.WithString("object_name", mcp.Required(), mcp.Description("Object name")),
				mcp.WithString("object_type",
					mcp.Required(),
					mcp.Description("Object type"),
					mcp.Enum(programTypes...),
				),
				schemaParam(),
			),
			s.getSource,
		},
		{
			mcp.NewTool("get_table_stats",
				mcp.WithDescription("Row count and segment size of a table"),
				tableParam(),
				schemaParam(),
			),
			s.tableStats,
		},
		{
			mcp.NewTool("get_table_relationships",
				mcp.WithDescription("Foreign keys of a table (parent tables) and foreign keys pointing at it (child tables)"),
				tableParam(),
				schemaParam(),
			),
			s.relationships,
		},
		{
			mcp.NewTool("get_table_indexes",
				mcp.WithDescription("List the indexes of a table with their columns"),
				tableParam(),
				schemaParam(),
			),
			s.indexes,
		},
		{
			mcp.NewTool("get_table_constraints",
				mcp.WithDescription("List the constraints of a table (primary key, unique, foreign key, check)"),
				tableParam(),
				schemaParam(),
			),
			s.constraints,
		},
		{
			mcp.NewTool("get_related_tables",
				mcp.WithDescription("Find tables related to a table through foreign keys, walking outward level by level"),
				tableParam(),
				mcp.WithNumber("depth", mcp.Description(fmt.Sprintf("Levels to walk, 1 to %d (default 1)", oracle.MaxRelatedDepth))),
				schemaParam(),
			),
			s.relatedTables,
		},
		{search, s.searchTables},
		{searchAlias, s.searchTables},
		{
			mcp.NewTool("get_table_triggers",
				mcp.WithDescription("List the triggers defined on a table"),
				tableParam(),
				schemaParam(),
			),
			s.triggers,
		},
	}
}

// RegisterTools adds every tool of sess to srv.
func RegisterTools(srv *server.MCPServer, sess *Session) {
	for _, d := range sess.tools() {
		srv.AddTool(d.tool, d.handler)
	}
}

// resolveSchema returns the schema argument, or the session default.
func (s *Session) resolveSchema(req mcp.CallToolRequest) (string, error) {
	name := req.GetString("schema", "")
	if strings.TrimSpace(name) == "" {
		return s.schema, nil
	}
	return oracle.NormalizeIdentifier(name)
}

// tableArgs returns the schema and the table_name argument.
func (s *Session) tableArgs(req mcp.CallToolRequest) (string, string, error) {
	owner, err := s.resolveSchema(req)
	if err != nil {
		return "", "", err
	}
	table, err := req.RequireString("table_name")
	if err != nil {
		return "", "", errs.Wrap(errs.KindInvalidArgument, "", err)
	}
	table, err = oracle.NormalizeIdentifier(table)
	if err != nil {
		return "", "", err
	}
	return owner, table, nil
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

func grid(g render.Grid) string {
	return render.Markdown(g.Truncate(CellWidth))
}

func (s *Session) listSchemas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.db.ListSchemas(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(render.NameList("Schemas", names)), nil
}

func (s *Session) listTables(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := s.resolveSchema(req)
	if err != nil {
		return toolError(err), nil
	}
	tables, err := s.db.ListTables(ctx, owner)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(render.NameList("Tables in "+owner, tables)), nil
}

func (s *Session) describeTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, table, err := s.tableArgs(req)
	if err != nil {
		return toolError(err), nil
	}
	cols, err := s.db.DescribeTable(ctx, owner, table)
	if err != nil {
		return toolError(err), nil
	}
	if len(cols) == 0 {
		return toolError(errs.Newf(errs.KindNotFound, "describe table", "table %s.%s not found", owner, table)), nil
	}
	text := fmt.Sprintf("# Table %s.%s\n\n%s", owner, table, grid(render.ColumnGrid(cols)))
	return mcp.NewToolResultText(text), nil
}

func (s *Session) queryTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, table, err := s.tableArgs(req)
	if err != nil {
		return toolError(err), nil
	}
	rs, err := s.db.FetchRows(ctx, owner, table, req.GetInt("limit", DefaultQueryTableLimit))
	if err != nil {
		return toolError(err), nil
	}
	if rs.RowCount() == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Table %s.%s has no rows.", owner, table)), nil
	}
	text := fmt.Sprintf("# %s.%s (first %d rows)\n\n%s", owner, table, rs.RowCount(), grid(render.ResultGrid(rs)))
	return mcp.NewToolResultText(text), nil
}

func (s *Session) executeSQL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return toolError(errs.Wrap(errs.KindInvalidArgument, "execute sql", err)), nil
	}
	limit := req.GetInt("limit", DefaultExecuteLimit)

	start := time.Now()
	rs, err := s.db.ExecuteReadQuery(ctx, query, limit)
	entry := audit.Entry{
		Source:     audit.SourceMCP,
		User:       strings.ToUpper(s.user),
		Schema:     s.schema,
		DSN:        s.dsn,
		Query:      query,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Error = err.Error()
		if errs.Is(err, errs.KindSecurityRejected) {
			entry.Outcome = audit.OutcomeRejected
		}
		s.audit.Log(entry)
		return toolError(err), nil
	}
	entry.RowCount = int64(rs.RowCount())
	s.audit.Log(entry)

	if rs.RowCount() == 0 {
		return mcp.NewToolResultText("The query returned no rows."), nil
	}
	text := fmt.Sprintf("# Query result (%d rows)\n\n```sql\n%s\n```\n\n%s", rs.RowCount(), rs.Query, grid(render.ResultGrid(rs)))
	return mcp.NewToolResultText(text), nil
}

func (s *Session) listObjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := s.resolveSchema(req)
	if err != nil {
		return toolError(err), nil
	}
	typ := objectTypeArg(req.GetString("object_type", "PACKAGE"))
	names, err := s.db.ListObjects(ctx, owner, []string{typ})
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(render.NameList(fmt.Sprintf("%s objects in %s", typ, owner), names)), nil
}

func (s *Session) getSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := s.resolveSchema(req)
	if err != nil {
		return toolError(err), nil
	}
	name, err := req.RequireString("object_name")
	if err != nil {
		return toolError(errs.Wrap(errs.KindInvalidArgument, "get source", err)), nil
	}
	rawType, err := req.RequireString("object_type")
	if err != nil {
		return toolError(errs.Wrap(errs.KindInvalidArgument, "get source", err)), nil
	}
	typ := objectTypeArg(rawType)
	src, err := s.db.FetchSource(ctx, owner, name, typ)
	if err != nil {
		return toolError(err), nil
	}
	text := fmt.Sprintf("# %s %s.%s\n\n%s", typ, owner, strings.ToUpper(strings.TrimSpace(name)), render.CodeMarkdown(strings.TrimSpace(src)))
	return mcp.NewToolResultText(text), nil
}

// objectTypeArg accepts PACKAGE_BODY for PACKAGE BODY. Unknown names are
// passed on for the catalog to reject.
func objectTypeArg(s string) string {
	if t, ok := schema.ParseObjectType(s); ok && t.IsProgram() {
		return t.String()
	}
	return s
}

func (s *Session) tableStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, table, err := s.tableArgs(req)
	if err != nil {
		return toolError(err), nil
	}
	st, err := s.db.TableStats(ctx, owner, table)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(grid(render.StatsGrid(owner, table, st))), nil
}

func (s *Session) relationships(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, table, err := s.tableArgs(req)
	if err != nil {
		return toolError(err), nil
	}
	rel, err := s.db.Relationships(ctx, owner, table)
	if err != nil {
		return toolError(err), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Relationships of %s.%s\n\n", owner, table)
	fmt.Fprintf(&b, "## Parent tables (%d)\n\n%s\n\n", len(rel.Parents), grid(render.ForeignKeyGrid(rel.Parents, "Parent table")))
	fmt.Fprintf(&b, "## Child tables (%d)\n\n%s\n", len(rel.Children), grid(render.ForeignKeyGrid(rel.Children, "Child table")))
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Session) indexes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, table, err := s.tableArgs(req)
	if err != nil {
		return toolError(err), nil
	}
	idx, err := s.db.Indexes(ctx, owner, table)
	if err != nil {
		return toolError(err), nil
	}
	text := fmt.Sprintf("# Indexes of %s.%s (%d)\n\n%s", owner, table, len(idx), grid(render.IndexGrid(idx)))
	return mcp.NewToolResultText(text), nil
}

func (s *Session) constraints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, table, err := s.tableArgs(req)
	if err != nil {
		return toolError(err), nil
	}
	cons, err := s.db.Constraints(ctx, owner, table)
	if err != nil {
		return toolError(err), nil
	}
	text := fmt.Sprintf("# Constraints of %s.%s (%d)\n\n%s", owner, table, len(cons), grid(render.ConstraintGrid(cons)))
	return mcp.NewToolResultText(text), nil
}

func (s *Session) relatedTables(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, table, err := s.tableArgs(req)
	if err != nil {
		return toolError(err), nil
	}
	depth := req.GetInt("depth", 1)
	rel, err := s.db.RelatedTables(ctx, owner, table, depth)
	if err != nil {
		return toolError(err), nil
	}
	text := fmt.Sprintf("# Tables related to %s.%s (depth %d, %d found)\n\n%s", owner, table, depth, len(rel), grid(render.RelatedGrid(rel)))
	return mcp.NewToolResultText(text), nil
}

func (s *Session) searchTables(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, err := s.resolveSchema(req)
	if err != nil {
		return toolError(err), nil
	}
	keyword, err := req.RequireString("keyword")
	if err != nil {
		return toolError(errs.Wrap(errs.KindInvalidArgument, "search tables", err)), nil
	}
	matches, err := s.db.SearchTables(ctx, owner, keyword, req.GetString("search_in", oracle.SearchBoth))
	if err != nil {
		return toolError(err), nil
	}
	text := fmt.Sprintf("# Search %q in %s (%d matches)\n\n%s", keyword, owner, len(matches), grid(render.SearchGrid(matches)))
	return mcp.NewToolResultText(text), nil
}

func (s *Session) triggers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, table, err := s.tableArgs(req)
	if err != nil {
		return toolError(err), nil
	}
	tr, err := s.db.Triggers(ctx, owner, table)
	if err != nil {
		return toolError(err), nil
	}
	text := fmt.Sprintf("# Triggers of %s.%s (%d)\n\n%s", owner, table, len(tr), grid(render.TriggerGrid(tr)))
	return mcp.NewToolResultText(text), nil
}
