package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLogWritesJSONLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	l, err := New(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	l.Log(Entry{
		Timestamp:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Source:     SourceMCP,
		User:       "HR",
		Schema:     "HR",
		DSN:        "hr/secret@db:1521/XEPDB1",
		Query:      "SELECT 1 FROM dual",
		DurationMS: 5,
		RowCount:   1,
	})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("invalid JSON line: %v\ndata: %s", err, data)
	}
	if e.Query != "SELECT 1 FROM dual" {
		t.Errorf("query = %q, want %q", e.Query, "SELECT 1 FROM dual")
	}
	if e.Source != SourceMCP {
		t.Errorf("source = %q, want %q", e.Source, SourceMCP)
	}
	if e.Outcome != OutcomeOK {
		t.Errorf("outcome = %q, want %q", e.Outcome, OutcomeOK)
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		t.Errorf("id %q is not a uuid: %v", e.ID, err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("password written to audit log: %s", data)
	}
}

func TestLogOutcomeFromError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	l, err := New(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	l.Log(Entry{Query: "SELEC 1", Error: "ORA-00900: invalid SQL statement"})
	l.Log(Entry{Query: "DELETE FROM t", Outcome: OutcomeRejected, Error: "only SELECT statements are allowed"})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{OutcomeError, OutcomeRejected}
	for i, line := range lines {
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatal(err)
		}
		if e.Outcome != want[i] {
			t.Errorf("line %d outcome = %q, want %q", i, e.Outcome, want[i])
		}
		if e.Timestamp.IsZero() {
			t.Errorf("line %d has no timestamp", i)
		}
	}
}

func TestMultipleEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	l, err := New(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	for i := range 5 {
		l.Log(Entry{
			Query:  "SELECT " + string(rune('a'+i)) + " FROM dual",
			Source: SourceTUI,
		})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 {
		t.Errorf("got %d lines, want 5", len(lines))
	}
	ids := map[string]bool{}
	for _, line := range lines {
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatal(err)
		}
		ids[e.ID] = true
	}
	if len(ids) != 5 {
		t.Errorf("got %d distinct ids, want 5", len(ids))
	}
}

func TestNilReceiver(t *testing.T) {
	var l *Logger
	// Should not panic
	l.Log(Entry{Query: "SELECT 1 FROM dual"})
	if err := l.Close(); err != nil {
		t.Errorf("Close on nil logger returned error: %v", err)
	}
}

func TestRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	l, err := New(path, 1) // 1 MB
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	bigQuery := strings.Repeat("x", 10000)
	for range 120 {
		l.Log(Entry{Query: bigQuery, Source: SourceTUI})
	}

	if _, err := os.Stat(path + ".1"); os.IsNotExist(err) {
		t.Error("rotation backup file does not exist")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() > 1024*1024 {
		t.Errorf("current file size %d exceeds 1 MB after rotation", info.Size())
	}
}

func TestFilePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	l, err := New(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	l.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file permissions = %o, want 600", perm)
	}
}

func TestDirectoryCreation(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")
	l, err := New(filepath.Join(nested, "audit.jsonl"), 0)
	if err != nil {
		t.Fatal(err)
	}
	l.Close()

	info, err := os.Stat(nested)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Error("nested directory was not created")
	}
}

func TestSanitizeDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{
			name: "url with credentials",
			dsn:  "oracle://hr:s3cret@db:1521/XEPDB1",
			want: "oracle://%2A%2A%2A@db:1521/XEPDB1",
		},
		{
			name: "url without credentials",
			dsn:  "oracle://db:1521/XEPDB1",
			want: "oracle://db:1521/XEPDB1",
		},
		{
			name: "ezconnect with credentials",
			dsn:  "hr/s3cret@db:1521/XEPDB1",
			want: "***@db:1521/XEPDB1",
		},
		{
			name: "plain ezconnect",
			dsn:  "db:1521/XEPDB1",
			want: "db:1521/XEPDB1",
		},
		{
			name: "empty dsn",
			dsn:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeDSN(tt.dsn); got != tt.want {
				t.Errorf("SanitizeDSN(%q) = %q, want %q", tt.dsn, got, tt.want)
			}
		})
	}
}
