package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Theme != "default" {
		t.Errorf("Theme = %q, want %q", cfg.Theme, "default")
	}
	if cfg.RowLimit != 50 {
		t.Errorf("RowLimit = %d, want %d", cfg.RowLimit, 50)
	}
	if !reflect.DeepEqual(cfg.DefaultFilters, []string{"TABLE"}) {
		t.Errorf("DefaultFilters = %v, want [TABLE]", cfg.DefaultFilters)
	}
	if !cfg.Audit.Enabled {
		t.Error("Audit.Enabled = false, want true")
	}
	if _, ok := cfg.StoredConnection(); ok {
		t.Error("default config reports a stored connection")
	}
}

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `connection:
  user: hr
  password: secret
  dsn: db.example.com:1521/XEPDB1
  schema: HR
theme: monokai
row_limit: 20
default_filters: [TABLE, FUNCTION]
history_size: 200
audit:
  enabled: false
  path: /tmp/oraterm-audit.jsonl
  max_size_mb: 5
debug: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	conn, ok := cfg.StoredConnection()
	if !ok {
		t.Fatal("StoredConnection() ok = false, want true")
	}
	want := ConnectionConfig{User: "hr", Password: "secret", DSN: "db.example.com:1521/XEPDB1", Schema: "HR"}
	if conn != want {
		t.Errorf("StoredConnection() = %+v, want %+v", conn, want)
	}
	if cfg.Theme != "monokai" {
		t.Errorf("Theme = %q, want %q", cfg.Theme, "monokai")
	}
	if cfg.RowLimit != 20 {
		t.Errorf("RowLimit = %d, want 20", cfg.RowLimit)
	}
	if !reflect.DeepEqual(cfg.DefaultFilters, []string{"TABLE", "FUNCTION"}) {
		t.Errorf("DefaultFilters = %v", cfg.DefaultFilters)
	}
	if cfg.Audit.Enabled || cfg.Audit.MaxSizeMB != 5 {
		t.Errorf("Audit = %+v", cfg.Audit)
	}
	if got := cfg.AuditPath("/ignored"); got != "/tmp/oraterm-audit.jsonl" {
		t.Errorf("AuditPath() = %q", got)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for missing file", err)
	}

	def := DefaultConfig()
	if !reflect.DeepEqual(cfg, def) {
		t.Errorf("Load(missing) = %+v, want DefaultConfig %+v", cfg, def)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")

	content := "connection: [\ninvalid:\n  - {broken\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	cfg, err := Load(path)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Load(invalid YAML) error = %v, want ErrMalformed", err)
	}
	if cfg == nil {
		t.Fatal("Load(invalid YAML) returned nil config")
	}
	if _, ok := cfg.StoredConnection(); ok {
		t.Error("malformed file yields a stored connection")
	}
}

func TestLoadIncompleteConnection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")

	yaml := `connection:
  user: hr
  dsn: localhost:1521/XEPDB1
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	conn, ok := cfg.StoredConnection()
	if ok {
		t.Error("StoredConnection() ok = true for a section without password and schema")
	}
	if conn.User != "hr" {
		t.Errorf("User = %q, want partial values kept", conn.User)
	}
	if cfg.RowLimit != 50 || cfg.HistorySize != 1000 {
		t.Errorf("defaults lost: row_limit %d history_size %d", cfg.RowLimit, cfg.HistorySize)
	}
}

func TestLoadZeroValuesFallBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zero.yaml")
	if err := os.WriteFile(path, []byte("row_limit: 0\ndefault_filters: []\ntheme: \"\"\n"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RowLimit != 50 || cfg.Theme != "default" || len(cfg.DefaultFilters) != 1 {
		t.Errorf("Load() = %+v, want defaults for zero values", cfg)
	}
}

func TestSaveAndLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.yaml")

	original := &Config{
		Connection: ConnectionConfig{
			User:     "scott",
			Password: "t!ger",
			DSN:      "oracle://db.prod.internal:1522/ORCL",
			Schema:   "SCOTT",
		},
		Theme:          "light",
		RowLimit:       100,
		DefaultFilters: []string{"TABLE", "PACKAGE"},
		HistorySize:    50,
		Audit:          AuditConfig{Enabled: true, MaxSizeMB: 1},
	}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !Exists(path) {
		t.Fatal("Exists() = false after Save")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !reflect.DeepEqual(original, loaded) {
		t.Errorf("roundtrip mismatch:\n  saved:  %+v\n  loaded: %+v", original, loaded)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config permissions = %o, want 600", perm)
	}
}

func TestSaveDefaultAndLoadDefault(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpHome, ".config"))

	cfg := DefaultConfig()
	cfg.Connection = ConnectionConfig{User: "hr", Password: "pw", DSN: "localhost/XE", Schema: "HR"}

	if err := cfg.SaveDefault(); err != nil {
		t.Fatalf("SaveDefault() error = %v", err)
	}

	loaded, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error = %v", err)
	}
	if loaded.Connection != cfg.Connection {
		t.Errorf("Connection = %+v, want %+v", loaded.Connection, cfg.Connection)
	}
}

func TestConnectionMerge(t *testing.T) {
	flags := ConnectionConfig{Schema: "SCOTT"}
	env := ConnectionConfig{User: "env_user", Schema: "ENV"}
	stored := ConnectionConfig{User: "hr", Password: "pw", DSN: "db/XE", Schema: "HR"}

	got := flags.Merge(env).Merge(stored)
	want := ConnectionConfig{User: "env_user", Password: "pw", DSN: "db/XE", Schema: "SCOTT"}
	if got != want {
		t.Errorf("Merge() = %+v, want %+v", got, want)
	}
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		EnvUser:     "hr",
		EnvPassword: "pw",
		EnvDSN:      "localhost:1521/XEPDB1",
	}
	got := FromEnv(func(k string) string { return env[k] })
	want := ConnectionConfig{User: "hr", Password: "pw", DSN: "localhost:1521/XEPDB1"}
	if got != want {
		t.Errorf("FromEnv() = %+v, want %+v", got, want)
	}
}

func TestDisplayString(t *testing.T) {
	c := ConnectionConfig{User: "hr", Password: "secret", DSN: "db:1521/XE"}
	if got := c.DisplayString(); got != "hr@db:1521/XE" {
		t.Errorf("DisplayString() = %q", got)
	}
	if got := (ConnectionConfig{DSN: "db/XE"}).DisplayString(); got != "db/XE" {
		t.Errorf("DisplayString() without user = %q", got)
	}
}
