package toolserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/oraterm/internal/adapter"
	"github.com/sadopc/oraterm/internal/adapter/oracle"
	"github.com/sadopc/oraterm/internal/audit"
	"github.com/sadopc/oraterm/internal/errs"
	"github.com/sadopc/oraterm/internal/schema"
)

// --- mock Catalog ---

type mockCatalog struct {
	owners   []string // owner argument of every call
	lastArgs []any
	err      error
	cols     []schema.Column
	rows     *adapter.ResultSet
}

func (m *mockCatalog) seen(owner string, args ...any) {
	m.owners = append(m.owners, owner)
	m.lastArgs = args
}

func (m *mockCatalog) ListSchemas(context.Context) ([]string, error) {
	return []string{"HR", "SCOTT"}, m.err
}

func (m *mockCatalog) ListTables(_ context.Context, owner string) ([]string, error) {
	m.seen(owner)
	return []string{"DEPT", "EMP"}, m.err
}

func (m *mockCatalog) ListObjects(_ context.Context, owner string, types []string) ([]string, error) {
	m.seen(owner, types)
	return []string{"PKG_A"}, m.err
}

func (m *mockCatalog) DescribeTable(_ context.Context, owner, table string) ([]schema.Column, error) {
	m.seen(owner, table)
	return m.cols, m.err
}

func (m *mockCatalog) FetchRows(_ context.Context, owner, table string, limit int) (*adapter.ResultSet, error) {
	m.seen(owner, table, limit)
	return m.rows, m.err
}

func (m *mockCatalog) ExecuteReadQuery(_ context.Context, query string, limit int) (*adapter.ResultSet, error) {
	m.seen("", query, limit)
	return m.rows, m.err
}

func (m *mockCatalog) FetchSource(_ context.Context, owner, name, objectType string) (string, error) {
	m.seen(owner, name, objectType)
	return "PACKAGE pkg_a IS\nEND;\n", m.err
}

func (m *mockCatalog) TableStats(_ context.Context, owner, table string) (schema.TableStats, error) {
	m.seen(owner, table)
	return schema.TableStats{RowCount: 14, SizeMB: 0.06, SizeKnown: true}, m.err
}

func (m *mockCatalog) Relationships(_ context.Context, owner, table string) (schema.Relationships, error) {
	m.seen(owner, table)
	return schema.Relationships{
		Parents:  []schema.ForeignKey{{Constraint: "FK_DEPT", Column: "DEPTNO", Table: "DEPT", RefColumn: "DEPTNO"}},
		Children: nil,
	}, m.err
}

func (m *mockCatalog) Indexes(_ context.Context, owner, table string) ([]schema.Index, error) {
	m.seen(owner, table)
	return []schema.Index{{Name: "PK_EMP", Type: "NORMAL", Unique: true, Columns: []string{"EMPNO"}}}, m.err
}

func (m *mockCatalog) Constraints(_ context.Context, owner, table string) ([]schema.Constraint, error) {
	m.seen(owner, table)
	return []schema.Constraint{{Name: "PK_EMP", Type: "P", Columns: []string{"EMPNO"}, Status: "ENABLED"}}, m.err
}

func (m *mockCatalog) RelatedTables(_ context.Context, owner, table string, depth int) ([]schema.RelatedTable, error) {
	m.seen(owner, table, depth)
	return []schema.RelatedTable{{Table: "DEPT", Relationship: "PARENT", Level: 1}}, m.err
}

func (m *mockCatalog) SearchTables(_ context.Context, owner, keyword, in string) ([]schema.SearchMatch, error) {
	m.seen(owner, keyword, in)
	return []schema.SearchMatch{{Table: "EMP", Column: "EMPNO", Match: "COLUMN"}}, m.err
}

func (m *mockCatalog) Triggers(_ context.Context, owner, table string) ([]schema.Trigger, error) {
	m.seen(owner, table)
	return []schema.Trigger{{Name: "TRG_EMP", Type: "BEFORE EACH ROW", Event: "INSERT", Status: "ENABLED"}}, m.err
}

// --- helpers ---

func newTestSession(t *testing.T, db Catalog, auditLog *audit.Logger) *Session {
	t.Helper()
	s, err := NewSession(Options{
		Catalog: db,
		Schema:  "hr",
		User:    "hr",
		DSN:     "hr/secret@db:1521/XEPDB1",
		Audit:   auditLog,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	return s
}

func callTool(t *testing.T, s *Session, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	for _, d := range s.tools() {
		if d.tool.Name != name {
			continue
		}
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args
		res, err := d.handler(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, res)
		return res
	}
	t.Fatalf("tool %q is not registered", name)
	return nil
}

func toolText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return ""
	}
	return tc.Text
}

// --- tests ---

func TestNewSession_RejectsBadSchema(t *testing.T) {
	_, err := NewSession(Options{Catalog: &mockCatalog{}, Schema: "hr; drop"})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindInvalidIdentifier))
}

func TestTools_Registered(t *testing.T) {
	s := newTestSession(t, &mockCatalog{}, nil)
	var names []string
	for _, d := range s.tools() {
		names = append(names, d.tool.Name)
		assert.NotNil(t, d.handler, d.tool.Name)
	}
	for _, want := range []string{
		"list_tables", "describe_table", "query_table", "execute_sql",
		"list_objects", "get_source", "get_table_stats", "get_table_relationships",
		"get_table_indexes", "get_table_constraints", "get_related_tables",
		"search_tables", "get_search_tables", "get_table_triggers", "list_schemas",
	} {
		assert.Contains(t, names, want)
	}
}

func TestTools_SchemaDefaultAndOverride(t *testing.T) {
	m := &mockCatalog{}
	s := newTestSession(t, m, nil)

	res := callTool(t, s, "list_tables", nil)
	assert.False(t, res.IsError)
	assert.Contains(t, toolText(res), "Tables in HR (2)")
	assert.Contains(t, toolText(res), "- EMP")

	callTool(t, s, "list_tables", map[string]any{"schema": "scott"})
	assert.Equal(t, []string{"HR", "SCOTT"}, m.owners)

	res = callTool(t, s, "list_tables", map[string]any{"schema": "1bad"})
	assert.True(t, res.IsError)
	assert.Len(t, m.owners, 2, "invalid schema must not reach the catalog")
}

func TestTools_DescribeTable(t *testing.T) {
	prec := int64(4)
	m := &mockCatalog{cols: []schema.Column{
		{ID: 1, Name: "EMPNO", DataType: "NUMBER", Length: 22, Precision: &prec, Nullable: false},
		{ID: 2, Name: "ENAME", DataType: "VARCHAR2", Length: 10, Nullable: true},
	}}
	s := newTestSession(t, m, nil)

	res := callTool(t, s, "describe_table", map[string]any{"table_name": "emp"})
	require.False(t, res.IsError, toolText(res))
	text := toolText(res)
	assert.Contains(t, text, "# Table HR.EMP")
	assert.Less(t, strings.Index(text, "EMPNO"), strings.Index(text, "ENAME"), "columns keep dictionary order")

	m.cols = nil
	res = callTool(t, s, "describe_table", map[string]any{"table_name": "missing"})
	assert.True(t, res.IsError)
	assert.Contains(t, toolText(res), "not found")

	res = callTool(t, s, "describe_table", nil)
	assert.True(t, res.IsError, "table_name is required")
}

func TestTools_QueryTable(t *testing.T) {
	long := strings.Repeat("x", 250)
	m := &mockCatalog{rows: &adapter.ResultSet{
		Columns: []string{"ID", "NOTE"},
		Rows: [][]adapter.Value{
			{adapter.Text("1"), adapter.Null},
			{adapter.Text("2"), adapter.Text(long)},
		},
	}}
	s := newTestSession(t, m, nil)

	res := callTool(t, s, "query_table", map[string]any{"table_name": "emp"})
	require.False(t, res.IsError, toolText(res))
	text := toolText(res)
	assert.Contains(t, text, "NULL")
	assert.NotContains(t, text, long, "cells are truncated")
	assert.Equal(t, []any{"EMP", DefaultQueryTableLimit}, m.lastArgs)

	callTool(t, s, "query_table", map[string]any{"table_name": "emp", "limit": float64(3)})
	assert.Equal(t, []any{"EMP", 3}, m.lastArgs)

	m.rows = &adapter.ResultSet{Columns: []string{"ID"}}
	res = callTool(t, s, "query_table", map[string]any{"table_name": "emp"})
	assert.Contains(t, toolText(res), "has no rows")
}

func TestTools_ListObjectsAndSource(t *testing.T) {
	m := &mockCatalog{}
	s := newTestSession(t, m, nil)

	res := callTool(t, s, "list_objects", nil)
	assert.Contains(t, toolText(res), "PACKAGE objects in HR")
	assert.Equal(t, []any{[]string{"PACKAGE"}}, m.lastArgs)

	callTool(t, s, "list_objects", map[string]any{"object_type": "package_body"})
	assert.Equal(t, []any{[]string{"PACKAGE BODY"}}, m.lastArgs)

	res = callTool(t, s, "get_source", map[string]any{"object_name": "pkg_a", "object_type": "PACKAGE"})
	require.False(t, res.IsError, toolText(res))
	assert.Contains(t, toolText(res), "# PACKAGE HR.PKG_A")
	assert.Contains(t, toolText(res), "```sql\nPACKAGE pkg_a IS\nEND;\n```")

	m.err = errs.New(errs.KindNotFound, "fetch source of PACKAGE HR.NOPE", "no source found")
	res = callTool(t, s, "get_source", map[string]any{"object_name": "nope", "object_type": "PACKAGE"})
	assert.True(t, res.IsError)
	assert.Contains(t, toolText(res), "no source found")
}

func TestTools_Metadata(t *testing.T) {
	m := &mockCatalog{}
	s := newTestSession(t, m, nil)
	args := map[string]any{"table_name": "emp"}

	tests := []struct {
		tool string
		want []string
	}{
		{"get_table_stats", []string{"HR.EMP", "14", "0.06 MB"}},
		{"get_table_relationships", []string{"Parent tables (1)", "FK_DEPT", "Child tables (0)"}},
		{"get_table_indexes", []string{"PK_EMP", "UNIQUE", "EMPNO"}},
		{"get_table_constraints", []string{"PK_EMP", "PRIMARY KEY"}},
		{"get_related_tables", []string{"DEPT", "PARENT"}},
		{"get_table_triggers", []string{"TRG_EMP", "INSERT"}},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			res := callTool(t, s, tt.tool, args)
			require.False(t, res.IsError, toolText(res))
			for _, w := range tt.want {
				assert.Contains(t, toolText(res), w)
			}
		})
	}

	callTool(t, s, "get_related_tables", map[string]any{"table_name": "emp", "depth": float64(2)})
	assert.Equal(t, []any{"EMP", 2}, m.lastArgs)
}

func TestTools_SearchAlias(t *testing.T) {
	m := &mockCatalog{}
	s := newTestSession(t, m, nil)

	for _, name := range []string{"search_tables", "get_search_tables"} {
		res := callTool(t, s, name, map[string]any{"keyword": "emp", "search_in": "column_name"})
		require.False(t, res.IsError, toolText(res))
		assert.Contains(t, toolText(res), "EMPNO")
		assert.Equal(t, []any{"emp", "column_name"}, m.lastArgs)
	}

	callTool(t, s, "search_tables", map[string]any{"keyword": "emp"})
	assert.Equal(t, []any{"emp", oracle.SearchBoth}, m.lastArgs)
}

func TestTools_CatalogError(t *testing.T) {
	m := &mockCatalog{err: errors.New("ORA-03113: end-of-file on communication channel")}
	s := newTestSession(t, m, nil)

	res := callTool(t, s, "get_table_indexes", map[string]any{"table_name": "emp"})
	assert.True(t, res.IsError)
	assert.Contains(t, toolText(res), "ORA-03113")
}

func readAudit(t *testing.T, path string) []audit.Entry {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out []audit.Entry
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var e audit.Entry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		out = append(out, e)
	}
	return out
}

func TestExecuteSQL_AgainstCatalog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	path := filepath.Join(t.TempDir(), "audit.jsonl")
	auditLog, err := audit.New(path, 0)
	require.NoError(t, err)
	defer auditLog.Close()

	s := newTestSession(t, oracle.New(db, "hr"), auditLog)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM (select ename from emp) WHERE ROWNUM <= 100")).
		WillReturnRows(sqlmock.NewRows([]string{"ENAME"}).AddRow("KING").AddRow(nil))

	res := callTool(t, s, "execute_sql", map[string]any{"query": "select ename from emp"})
	require.False(t, res.IsError, toolText(res))
	assert.Contains(t, toolText(res), "KING")
	assert.Contains(t, toolText(res), "NULL")
	assert.Contains(t, toolText(res), "Query result (2 rows)")

	res = callTool(t, s, "execute_sql", map[string]any{"query": "DELETE FROM emp"})
	assert.True(t, res.IsError)
	assert.Contains(t, toolText(res), "only SELECT")

	res = callTool(t, s, "execute_sql", map[string]any{"query": "select 1 from dual", "limit": float64(0)})
	assert.True(t, res.IsError)

	assert.NoError(t, mock.ExpectationsWereMet(), "rejected statements must not run")

	entries := readAudit(t, path)
	require.Len(t, entries, 3)
	assert.Equal(t, audit.OutcomeOK, entries[0].Outcome)
	assert.EqualValues(t, 2, entries[0].RowCount)
	assert.Equal(t, audit.OutcomeRejected, entries[1].Outcome)
	assert.Equal(t, audit.OutcomeError, entries[2].Outcome)
	for _, e := range entries {
		assert.Equal(t, audit.SourceMCP, e.Source)
		assert.NotContains(t, e.DSN, "secret")
	}
}

func TestListTables_AgainstCatalog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := newTestSession(t, oracle.New(db, "hr"), nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM all_tables")).
		WithArgs(sql.Named("owner", "SCOTT")).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("BONUS"))

	res := callTool(t, s, "list_tables", map[string]any{"schema": " scott "})
	require.False(t, res.IsError, toolText(res))
	assert.Contains(t, toolText(res), "- BONUS")
	assert.NoError(t, mock.ExpectationsWereMet())
}
