package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sadopc/oraterm/internal/adapter/oracle"
	"github.com/sadopc/oraterm/internal/config"
	"github.com/sadopc/oraterm/internal/errs"
)

var errAborted = errors.New("aborted")

// prompter asks the user for missing values.
type prompter interface {
	// Prompt reads one line. An empty answer yields def.
	Prompt(label, def string) (string, error)
	// Password reads one line without echo.
	Password(label string) (string, error)
	Close() error
}

type readlinePrompter struct {
	rl *readline.Instance
}

// newPrompter returns a readline prompter, or nil when stdin is not a
// terminal and nobody could answer.
func newPrompter() (prompter, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, nil
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("initialize prompt: %w", err)
	}
	return &readlinePrompter{rl: rl}, nil
}

func (p *readlinePrompter) Prompt(label, def string) (string, error) {
	if def != "" {
		p.rl.SetPrompt(fmt.Sprintf("%s [%s]: ", label, def))
	} else {
		p.rl.SetPrompt(label + ": ")
	}
	line, err := p.rl.Readline()
	if err != nil {
		return "", readErr(err)
	}
	if line = strings.TrimSpace(line); line == "" {
		return def, nil
	}
	return line, nil
}

func (p *readlinePrompter) Password(label string) (string, error) {
	b, err := p.rl.ReadPassword(label + ": ")
	if err != nil {
		return "", readErr(err)
	}
	return string(b), nil
}

func (p *readlinePrompter) Close() error {
	return p.rl.Close()
}

func readErr(err error) error {
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return errAborted
	}
	return err
}

// loadConfig reads the config file named by --config or the default one.
// A malformed file is reported as a warning and replaced by defaults.
func (g *globalFlags) loadConfig(stderr io.Writer) (*config.Config, string, error) {
	path := g.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, "", err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: could not load config: %v\n", err)
	}
	return cfg, path, nil
}

// resolveConnection layers flags over the environment over the stored
// connection, then asks for whatever is still missing. prompted reports
// whether the user typed anything. With a nil prompter missing values are
// an error.
func resolveConnection(flags, env, stored config.ConnectionConfig, p prompter) (conn config.ConnectionConfig, prompted bool, err error) {
	conn = flags.Merge(env).Merge(stored)

	if p == nil {
		var missing []string
		if conn.User == "" {
			missing = append(missing, "user")
		}
		if conn.Password == "" {
			missing = append(missing, "password")
		}
		if conn.DSN == "" {
			missing = append(missing, "dsn")
		}
		if len(missing) > 0 {
			return conn, false, errs.Newf(errs.KindInvalidArgument, "resolve connection",
				"missing %s; run 'oraterm configure' or pass --user, --password and --dsn", strings.Join(missing, ", "))
		}
		return conn, false, nil
	}

	ask := func(dst *string, label, def string) error {
		if *dst != "" {
			return nil
		}
		v, err := p.Prompt(label, def)
		if err != nil {
			return err
		}
		*dst = v
		prompted = true
		return nil
	}
	if err := ask(&conn.User, "Oracle username", ""); err != nil {
		return conn, prompted, err
	}
	if conn.Password == "" {
		pw, err := p.Password("Oracle password")
		if err != nil {
			return conn, prompted, err
		}
		conn.Password = pw
		prompted = true
	}
	if err := ask(&conn.DSN, "Oracle DSN (e.g., localhost:1521/XEPDB1)", ""); err != nil {
		return conn, prompted, err
	}
	if err := ask(&conn.Schema, "Default schema", strings.ToUpper(conn.User)); err != nil {
		return conn, prompted, err
	}
	return conn, prompted, nil
}

// resolved is a fully validated connection plus the config it came from.
type resolved struct {
	cfg  *config.Config
	path string
	conn oracle.Config
}

// resolve loads the config and resolves the connection. interactive allows
// prompting when stdin is a terminal. Credentials typed by the user are
// saved when no config file existed yet.
func (g *globalFlags) resolve(cmd *cobra.Command, interactive bool) (*resolved, error) {
	stderr := cmd.ErrOrStderr()
	cfg, path, err := g.loadConfig(stderr)
	if err != nil {
		return nil, err
	}
	existed := config.Exists(path)

	var stored config.ConnectionConfig
	if c, ok := cfg.StoredConnection(); ok {
		stored = c
	}

	var p prompter
	if interactive {
		if p, err = newPrompter(); err != nil {
			return nil, err
		}
		if p != nil {
			defer p.Close()
		}
	}

	conn, prompted, err := resolveConnection(g.conn, config.FromEnv(os.Getenv), stored, p)
	if err != nil {
		return nil, err
	}
	oc, err := oracle.Config{
		User:     strings.TrimSpace(conn.User),
		Password: conn.Password,
		DSN:      strings.TrimSpace(conn.DSN),
		Schema:   conn.Schema,
	}.Resolve()
	if err != nil {
		return nil, err
	}

	if prompted && !existed {
		cfg.Connection = config.ConnectionConfig{User: oc.User, Password: oc.Password, DSN: oc.DSN, Schema: oc.Schema}
		if err := cfg.Save(path); err != nil {
			fmt.Fprintf(stderr, "Warning: could not save config: %v\n", err)
		} else {
			fmt.Fprintf(stderr, "Connection details saved to: %s\n", path)
		}
	}
	return &resolved{cfg: cfg, path: path, conn: oc}, nil
}

// withCatalog resolves the connection, opens it and runs fn against it.
func withCatalog(cmd *cobra.Command, g *globalFlags, fn func(ctx context.Context, cat *oracle.Catalog, r *resolved) error) error {
	r, err := g.resolve(cmd, true)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cat, err := oracle.Open(ctx, r.conn)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer cat.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "Connected: %s@%s (schema: %s)\n", r.conn.User, r.conn.DSN, r.conn.Schema)
	return fn(ctx, cat, r)
}
