package toolserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveOne(t *testing.T, m *mockCatalog, call string) []map[string]any {
	t.Helper()
	var buf bytes.Buffer
	s, err := NewSession(Options{Catalog: m, Schema: "hr", User: "hr", Logger: zerolog.New(&buf)})
	require.NoError(t, err)

	srv := NewServer("test", s)
	resp := srv.HandleMessage(context.Background(), json.RawMessage(call))
	require.NotNil(t, resp)

	var lines []map[string]any
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		lines = append(lines, line)
	}
	return lines
}

func TestHooks_LogToolCall(t *testing.T) {
	lines := serveOne(t, &mockCatalog{},
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_tables","arguments":{}}}`)

	require.Len(t, lines, 1)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "tool call", lines[0]["message"])
	assert.Equal(t, "list_tables", lines[0]["tool"])
	assert.Contains(t, lines[0], "duration")
}

func TestHooks_LogToolError(t *testing.T) {
	m := &mockCatalog{err: errors.New("ORA-00942: table or view does not exist")}
	lines := serveOne(t, m,
		`{"jsonrpc":"2.0","id":"a","method":"tools/call","params":{"name":"list_tables","arguments":{}}}`)

	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "list_tables", lines[0]["tool"])
	assert.Contains(t, lines[0]["error"], "ORA-00942")
}

func TestHooks_UnknownTool(t *testing.T) {
	lines := serveOne(t, &mockCatalog{},
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"drop_table","arguments":{}}}`)

	require.Len(t, lines, 1)
	assert.Equal(t, "error", lines[0]["level"])
	assert.Equal(t, "drop_table", lines[0]["tool"])
}
