// Package oracle implements the catalog access functions against the Oracle
// data dictionary. Every identifier is normalized and validated before it is
// used, and every statement runs on a single pooled connection.
package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	go_ora "github.com/sijms/go-ora/v2"

	"github.com/sadopc/oraterm/internal/errs"
)

// DefaultPort is the listener port used when the DSN does not name one.
const DefaultPort = 1521

// Config holds resolved connection credentials. Schema is always stored
// normalized.
type Config struct {
	User     string
	Password string
	DSN      string
	Schema   string
}

// Complete reports whether all four fields are present.
func (c Config) Complete() bool {
	return c.User != "" && c.Password != "" && c.DSN != "" && c.Schema != ""
}

// Resolve fills an empty schema with the user name and normalizes it.
func (c Config) Resolve() (Config, error) {
	schema := c.Schema
	if strings.TrimSpace(schema) == "" {
		schema = c.User
	}
	return c.WithSchema(schema)
}

// WithSchema returns a copy of c with schema normalized and replaced.
func (c Config) WithSchema(schema string) (Config, error) {
	s, err := NormalizeIdentifier(schema)
	if err != nil {
		return c, withOp("set schema", err)
	}
	c.Schema = s
	return c, nil
}

// BuildURL converts an EZConnect DSN (host[:port]/service) into a go-ora
// connection URL. A DSN that already is an oracle:// URL is kept, with the
// credentials filled in when it carries none.
func BuildURL(cfg Config) (string, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if strings.HasPrefix(dsn, "oracle://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		if u.User == nil && cfg.User != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		}
		return u.String(), nil
	}

	dsn = strings.TrimPrefix(dsn, "//")
	hostPort, service, ok := strings.Cut(dsn, "/")
	if !ok || hostPort == "" || service == "" {
		return "", fmt.Errorf("dsn %q must look like host[:port]/service", cfg.DSN)
	}
	host := hostPort
	port := DefaultPort
	if h, p, found := strings.Cut(hostPort, ":"); found {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return "", fmt.Errorf("dsn %q has an invalid port", cfg.DSN)
		}
		host, port = h, n
	}
	return go_ora.BuildUrl(host, port, service, cfg.User, cfg.Password, nil), nil
}

// Catalog runs dictionary queries over one exclusive connection.
type Catalog struct {
	db   *sql.DB
	user string
	log  zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

// New wraps an open database handle. user is the login user, used to pick
// the cheapest segment view for size statistics.
func New(db *sql.DB, user string) *Catalog {
	db.SetMaxOpenConns(1)
	return &Catalog{
		db:   db,
		user: strings.ToUpper(strings.TrimSpace(user)),
		log:  zerolog.Nop(),
	}
}

// Open connects with cfg and pings once. Failures are reported as
// connection failures and are not retried.
func Open(ctx context.Context, cfg Config) (*Catalog, error) {
	const op = "connect"
	dsn, err := BuildURL(cfg)
	if err != nil {
		return nil, errs.Wrap(errs.KindConnectionFailure, op, err)
	}
	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.KindConnectionFailure, op, err)
	}
	c := New(db, cfg.User)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.KindConnectionFailure, op, err)
	}
	return c, nil
}

// SetLogger attaches a logger for best-effort failures that are absorbed.
func (c *Catalog) SetLogger(l zerolog.Logger) {
	c.log = l
}

// User returns the normalized login user.
func (c *Catalog) User() string {
	return c.user
}

// Close releases the connection. Further calls return the first result.
func (c *Catalog) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.db.Close()
	})
	return c.closeErr
}

// queryStrings runs a query returning a single text column.
func (c *Catalog) queryStrings(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
