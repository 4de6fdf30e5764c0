// Package history keeps the statements run from the SQL panel in a local
// SQLite database so they can be recalled across sessions.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sadopc/oraterm/internal/config"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	query       TEXT NOT NULL,
	schema_name TEXT,
	user_name   TEXT,
	executed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	duration_ms INTEGER,
	row_count   INTEGER,
	is_error    BOOLEAN DEFAULT FALSE
)`

// Entry represents a single executed statement in the history log.
type Entry struct {
	ID         int64
	Query      string
	Schema     string
	User       string
	ExecutedAt time.Time
	DurationMS int64
	RowCount   int64
	IsError    bool
}

// History provides SQLite-backed query history storage.
type History struct {
	db         *sql.DB
	maxEntries int
}

// New opens (or creates) the history database at ConfigDir()/history.db.
// maxEntries bounds the number of kept rows; zero keeps everything.
func New(maxEntries int) (*History, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("history: config dir: %w", err)
	}
	return Open(filepath.Join(dir, "history.db"), maxEntries)
}

// Open opens (or creates) the history database at path and ensures the
// schema exists.
func Open(path string, maxEntries int) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create table: %w", err)
	}

	return &History{db: db, maxEntries: maxEntries}, nil
}

// Add inserts a new history entry and drops the oldest rows beyond the
// configured size.
func (h *History) Add(entry Entry) error {
	if entry.ExecutedAt.IsZero() {
		entry.ExecutedAt = time.Now()
	}
	_, err := h.db.Exec(
		`INSERT INTO history (query, schema_name, user_name, executed_at, duration_ms, row_count, is_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Query,
		entry.Schema,
		entry.User,
		entry.ExecutedAt,
		entry.DurationMS,
		entry.RowCount,
		entry.IsError,
	)
	if err != nil {
		return fmt.Errorf("history add: %w", err)
	}
	if h.maxEntries > 0 {
		if _, err := h.db.Exec(
			`DELETE FROM history WHERE id NOT IN (
				SELECT id FROM history ORDER BY executed_at DESC, id DESC LIMIT ?
			)`, h.maxEntries); err != nil {
			return fmt.Errorf("history prune: %w", err)
		}
	}
	return nil
}

// ContainsPattern returns a LIKE pattern matching statements that contain
// term literally. Wildcards in term are escaped with a backslash.
func ContainsPattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

// Search returns history entries whose query text matches the given LIKE
// pattern, backslash being the escape character. Results are ordered by
// most recent first, limited to limit rows.
func (h *History) Search(pattern string, limit int) ([]Entry, error) {
	rows, err := h.db.Query(
		`SELECT id, query, schema_name, user_name, executed_at, duration_ms, row_count, is_error
		 FROM history
		 WHERE query LIKE ? ESCAPE '\'
		 ORDER BY executed_at DESC, id DESC
		 LIMIT ?`,
		pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history search: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Recent returns the most recent history entries, limited to limit rows.
func (h *History) Recent(limit int) ([]Entry, error) {
	rows, err := h.db.Query(
		`SELECT id, query, schema_name, user_name, executed_at, duration_ms, row_count, is_error
		 FROM history
		 ORDER BY executed_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history recent: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Queries returns distinct statement texts, most recently run first, for
// recall in the SQL panel.
func (h *History) Queries(limit int) ([]string, error) {
	rows, err := h.db.Query(
		`SELECT query FROM history
		 GROUP BY query
		 ORDER BY MAX(id) DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history queries: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return out, nil
}

// Clear deletes all history entries.
func (h *History) Clear() error {
	if _, err := h.db.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("history clear: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	return h.db.Close()
}

// scanEntries reads all rows from the result set into a slice of Entry.
func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var schemaName, userName sql.NullString
		if err := rows.Scan(
			&e.ID,
			&e.Query,
			&schemaName,
			&userName,
			&e.ExecutedAt,
			&e.DurationMS,
			&e.RowCount,
			&e.IsError,
		); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		e.Schema = schemaName.String
		e.User = userName.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return entries, nil
}
