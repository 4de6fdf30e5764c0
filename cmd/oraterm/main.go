package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sadopc/oraterm/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	conn       config.ConnectionConfig
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "oraterm",
		Short: "An Oracle schema explorer for the terminal",
		Long: `oraterm browses the tables, packages, procedures and functions of an
Oracle schema, previews table data and shows PL/SQL source.

Examples:
  oraterm configure                                 # Save connection details
  oraterm                                           # Launch the explorer
  oraterm --dsn db:1521/ORCLPDB1 -u scott list-tables
  oraterm show-source EMP_PKG --type package --body
  oraterm mcp                                       # Serve the catalog as MCP tools`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, g, tuiFlags{})
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Config file path")
	pf.StringVarP(&g.conn.User, "user", "u", "", "Oracle user")
	pf.StringVarP(&g.conn.Password, "password", "P", "", "Oracle password")
	pf.StringVarP(&g.conn.DSN, "dsn", "d", "", "Oracle DSN, e.g. localhost:1521/XEPDB1")
	pf.StringVarP(&g.conn.Schema, "schema", "s", "", "Default schema (the user when empty)")

	rootCmd.AddCommand(
		newTUICmd(g),
		newConfigureCmd(g),
		newListTablesCmd(g),
		newDescribeTableCmd(g),
		newPreviewTableCmd(g),
		newListPackagesCmd(g),
		newListProgramsCmd(g),
		newShowSourceCmd(g),
		newUseSchemaCmd(g),
		newMCPCmd(g),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "oraterm %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
