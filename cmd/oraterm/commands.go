package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sadopc/oraterm/internal/adapter/oracle"
	"github.com/sadopc/oraterm/internal/app"
	"github.com/sadopc/oraterm/internal/audit"
	"github.com/sadopc/oraterm/internal/config"
	"github.com/sadopc/oraterm/internal/errs"
	"github.com/sadopc/oraterm/internal/history"
	"github.com/sadopc/oraterm/internal/logger"
	"github.com/sadopc/oraterm/internal/render"
	"github.com/sadopc/oraterm/internal/toolserver"
)

// objectTypeAliases maps command line type names to dictionary types.
var objectTypeAliases = map[string]string{
	"package":      "PACKAGE",
	"package-body": "PACKAGE BODY",
	"procedure":    "PROCEDURE",
	"function":     "FUNCTION",
}

func objectTypeNames() []string {
	names := make([]string, 0, len(objectTypeAliases))
	for n := range objectTypeAliases {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func lookupObjectType(name string) (string, error) {
	t, ok := objectTypeAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", errs.Newf(errs.KindInvalidArgument, "", "unknown object type %q (available: %s)",
			name, strings.Join(objectTypeNames(), ", "))
	}
	return t, nil
}

type tuiFlags struct {
	limit int
	debug bool
}

func newTUICmd(g *globalFlags) *cobra.Command {
	var f tuiFlags
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive explorer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("limit") && f.limit < 1 {
				return errs.Newf(errs.KindInvalidArgument, "", "--limit must be at least 1, got %d", f.limit)
			}
			return runTUI(cmd, g, f)
		},
	}
	cmd.Flags().IntVarP(&f.limit, "limit", "l", 0, "Rows shown in table previews (default from config, 50)")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Write a debug log to the config directory")
	return cmd
}

func runTUI(cmd *cobra.Command, g *globalFlags, f tuiFlags) error {
	stderr := cmd.ErrOrStderr()
	r, err := g.resolve(cmd, true)
	if err != nil {
		return err
	}
	cfg := r.cfg
	if f.limit > 0 {
		cfg.RowLimit = f.limit
	}

	log := logger.Nop()
	if f.debug || cfg.Debug {
		l, closer, path, err := openDebugLog()
		if err != nil {
			fmt.Fprintf(stderr, "Warning: could not open debug log: %v\n", err)
		} else {
			defer closer.Close()
			log = l
			fmt.Fprintf(stderr, "Debug log: %s\n", path)
		}
	}

	hist, err := history.New(cfg.HistorySize)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: could not open history: %v\n", err)
	}
	if hist != nil {
		defer hist.Close()
	}

	auditLog := openAudit(cfg, stderr)
	if auditLog != nil {
		defer auditLog.Close()
	}

	model := app.New(app.Options{
		Config:     cfg,
		Connection: r.conn,
		History:    hist,
		Audit:      auditLog,
		Logger:     log,
		Version:    version,
	})

	if err := app.Run(model); err != nil {
		return fmt.Errorf("error running application: %w", err)
	}
	return nil
}

func openDebugLog() (zerolog.Logger, io.Closer, string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return logger.Nop(), nil, "", err
	}
	path := filepath.Join(dir, "logs", "debug.log")
	l, closer, err := logger.OpenFile(path, "debug")
	return l, closer, path, err
}

// openAudit opens the audit log when enabled. Failures are warnings.
func openAudit(cfg *config.Config, stderr io.Writer) *audit.Logger {
	if !cfg.Audit.Enabled {
		return nil
	}
	dir, err := config.ConfigDir()
	if err != nil && cfg.Audit.Path == "" {
		fmt.Fprintf(stderr, "Warning: could not open audit log: %v\n", err)
		return nil
	}
	l, err := audit.New(cfg.AuditPath(dir), cfg.Audit.MaxSizeMB)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: could not open audit log: %v\n", err)
		return nil
	}
	return l
}

func newConfigureCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Save Oracle connection details for later use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := g.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			p, err := newPrompter()
			if err != nil {
				return err
			}
			if p == nil {
				return errs.New(errs.KindInvalidArgument, "configure", "configure needs an interactive terminal")
			}
			defer p.Close()

			existing, ok := cfg.StoredConnection()
			conn, err := configureConnection(existing, ok, p)
			if err != nil {
				return err
			}
			cfg.Connection = conn
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connection details saved: %s\n", path)
			return nil
		},
	}
}

// configureConnection asks for all four connection values. With a stored
// connection an empty answer keeps the current value, which is never
// echoed back.
func configureConnection(existing config.ConnectionConfig, hasExisting bool, p prompter) (config.ConnectionConfig, error) {
	ask := func(label, current, def string) (string, error) {
		if hasExisting && current != "" {
			v, err := p.Prompt(label+" (leave empty to keep current)", "")
			if err != nil || v != "" {
				return v, err
			}
			return current, nil
		}
		v, err := p.Prompt(label, def)
		if err != nil {
			return "", err
		}
		if v == "" {
			return "", errs.Newf(errs.KindInvalidArgument, "configure", "%s cannot be empty", label)
		}
		return v, nil
	}

	var conn config.ConnectionConfig
	var err error
	if conn.User, err = ask("Oracle username", existing.User, ""); err != nil {
		return conn, err
	}

	pw, err := p.Password("Oracle password (leave empty to keep existing)")
	if err != nil {
		return conn, err
	}
	switch {
	case pw != "":
		conn.Password = pw
	case hasExisting:
		conn.Password = existing.Password
	default:
		return conn, errs.New(errs.KindInvalidArgument, "configure", "password cannot be empty")
	}

	if conn.DSN, err = ask("Oracle DSN (e.g., localhost:1521/XEPDB1)", existing.DSN, ""); err != nil {
		return conn, err
	}
	schema, err := ask("Default schema", existing.Schema, strings.ToUpper(conn.User))
	if err != nil {
		return conn, err
	}
	if conn.Schema, err = oracle.NormalizeIdentifier(schema); err != nil {
		return conn, err
	}
	return conn, nil
}

func newListTablesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list-tables",
		Short: "List all tables in the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, g, func(ctx context.Context, cat *oracle.Catalog, r *resolved) error {
				tables, err := cat.ListTables(ctx, r.conn.Schema)
				if err != nil {
					return err
				}
				printNames(cmd.OutOrStdout(), fmt.Sprintf("Tables (%s)", r.conn.Schema), "Table Name", tables, "No tables found.")
				return nil
			})
		},
	}
}

// printNames prints a one-column table, or empty when there are no names.
func printNames(w io.Writer, title, header string, names []string, empty string) {
	if len(names) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	g := render.Grid{Headers: []string{header}}
	for _, n := range names {
		g.Rows = append(g.Rows, []string{n})
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, render.Text(g))
}

func newDescribeTableCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "describe-table TABLE",
		Short: "Show column information for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, g, func(ctx context.Context, cat *oracle.Catalog, r *resolved) error {
				cols, err := cat.DescribeTable(ctx, r.conn.Schema, args[0])
				if err != nil {
					return err
				}
				name := strings.ToUpper(strings.TrimSpace(args[0]))
				if len(cols) == 0 {
					return errs.Newf(errs.KindNotFound, "describe table", "table %s not found in schema %s", name, r.conn.Schema)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Columns: %s\n%s\n", name, render.Text(render.ColumnGrid(cols)))
				return nil
			})
		},
	}
}

func newPreviewTableCmd(g *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "preview-table TABLE",
		Short: "Preview table data with sample rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return errs.Newf(errs.KindInvalidArgument, "", "--limit must be at least 1, got %d", limit)
			}
			return withCatalog(cmd, g, func(ctx context.Context, cat *oracle.Catalog, r *resolved) error {
				rs, err := cat.FetchRows(ctx, r.conn.Schema, args[0], limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(rs.Rows) == 0 {
					fmt.Fprintln(out, "No rows found.")
					return nil
				}
				name := strings.ToUpper(strings.TrimSpace(args[0]))
				fmt.Fprintf(out, "%s - first %d rows\n%s\n", name, limit, render.Text(render.ResultGrid(rs)))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Number of rows to display")
	return cmd
}

func newListPackagesCmd(g *globalFlags) *cobra.Command {
	var withBody bool
	cmd := &cobra.Command{
		Use:   "list-packages",
		Short: "List packages, optionally with package bodies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types := []string{"PACKAGE"}
			if withBody {
				types = append(types, "PACKAGE BODY")
			}
			return withCatalog(cmd, g, func(ctx context.Context, cat *oracle.Catalog, r *resolved) error {
				names, err := cat.ListObjects(ctx, r.conn.Schema, types)
				if err != nil {
					return err
				}
				printNames(cmd.OutOrStdout(), "Packages", "Name", names, "No packages found.")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&withBody, "with-body", false, "Include package bodies")
	return cmd
}

func newListProgramsCmd(g *globalFlags) *cobra.Command {
	var programType string
	cmd := &cobra.Command{
		Use:   "list-programs",
		Short: "List procedures and functions in the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := programTypes(programType)
			if err != nil {
				return err
			}
			return withCatalog(cmd, g, func(ctx context.Context, cat *oracle.Catalog, r *resolved) error {
				names, err := cat.ListObjects(ctx, r.conn.Schema, types)
				if err != nil {
					return err
				}
				title := "Procedures and functions"
				if len(types) == 1 {
					title = titleCase(types[0]) + "s"
				}
				printNames(cmd.OutOrStdout(), title, "Name", names, "No "+strings.ToLower(title)+" found.")
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&programType, "type", "t", "", "Program type: procedure or function (both when empty)")
	return cmd
}

// programTypes maps the --type flag of list-programs to dictionary types.
func programTypes(flag string) ([]string, error) {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "":
		return []string{"PROCEDURE", "FUNCTION"}, nil
	case "procedure":
		return []string{"PROCEDURE"}, nil
	case "function":
		return []string{"FUNCTION"}, nil
	}
	return nil, errs.Newf(errs.KindInvalidArgument, "", "--type must be procedure or function, got %q", flag)
}

func titleCase(s string) string {
	s = strings.ToLower(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func newShowSourceCmd(g *globalFlags) *cobra.Command {
	var (
		typeName string
		body     bool
	)
	cmd := &cobra.Command{
		Use:   "show-source NAME",
		Short: "Print the PL/SQL source of a package, procedure or function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if typeName == "" {
				p, err := newPrompter()
				if err != nil {
					return err
				}
				if p == nil {
					return errs.Newf(errs.KindInvalidArgument, "", "--type is required (%s)", strings.Join(objectTypeNames(), ", "))
				}
				typeName, err = p.Prompt("Object type ("+strings.Join(objectTypeNames(), ", ")+")", "")
				p.Close()
				if err != nil {
					return err
				}
			}
			objectType, err := sourceType(typeName, body)
			if err != nil {
				return err
			}
			return withCatalog(cmd, g, func(ctx context.Context, cat *oracle.Catalog, r *resolved) error {
				src, err := cat.FetchSource(ctx, r.conn.Schema, args[0], objectType)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return printSource(out, src, isTerminal(out))
			})
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "Object type: "+strings.Join(objectTypeNames(), ", "))
	cmd.Flags().BoolVar(&body, "body", false, "Show the package body (packages only)")
	return cmd
}

// sourceType resolves the --type and --body flags of show-source.
func sourceType(typeName string, body bool) (string, error) {
	t, err := lookupObjectType(typeName)
	if err != nil {
		return "", err
	}
	if body {
		if t != "PACKAGE" {
			return "", errs.New(errs.KindInvalidArgument, "", "--body only applies to packages")
		}
		t = "PACKAGE BODY"
	}
	return t, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminalFd(f.Fd())
}

func newUseSchemaCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "use-schema SCHEMA",
		Short: "Make SCHEMA the default schema of the stored connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := g.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			s, err := useSchema(cfg, args[0])
			if err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema changed to: %s\n", s)
			return nil
		},
	}
}

// useSchema replaces the schema of the stored connection.
func useSchema(cfg *config.Config, name string) (string, error) {
	s, err := oracle.NormalizeIdentifier(name)
	if err != nil {
		return "", err
	}
	if _, ok := cfg.StoredConnection(); !ok {
		return "", errs.New(errs.KindInvalidArgument, "use schema", "no stored connection; run 'oraterm configure' first")
	}
	cfg.Connection.Schema = s
	return s, nil
}

func newMCPCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the schema catalog as MCP tools over stdio",
		Long: `mcp starts a Model Context Protocol server on stdin/stdout so that AI
tools can list tables, describe them, read source and run read-only
queries. Logs go to stderr.

Client configuration:
  {"mcpServers": {"oraterm": {"command": "oraterm", "args": ["mcp"]}}}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdin carries the protocol, so nothing may be prompted.
			r, err := g.resolve(cmd, false)
			if err != nil {
				return err
			}
			level := "info"
			if r.cfg.Debug {
				level = "debug"
			}
			log := logger.New(logger.Config{Level: level, Output: cmd.ErrOrStderr()})

			auditLog := openAudit(r.cfg, cmd.ErrOrStderr())
			if auditLog != nil {
				defer auditLog.Close()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cat, err := oracle.Open(ctx, r.conn)
			if err != nil {
				return fmt.Errorf("connection failed: %w", err)
			}
			defer cat.Close()
			cat.SetLogger(log)

			sess, err := toolserver.NewSession(toolserver.Options{
				Catalog: cat,
				Schema:  r.conn.Schema,
				User:    r.conn.User,
				DSN:     r.conn.DSN,
				Audit:   auditLog,
				Logger:  log,
			})
			if err != nil {
				return err
			}
			log.Info().Str("user", r.conn.User).Str("schema", sess.Schema()).Msg("mcp server listening on stdio")
			return toolserver.Serve(ctx, toolserver.NewServer(version, sess), cmd.InOrStdin(), cmd.OutOrStdout(), log)
		},
	}
}
