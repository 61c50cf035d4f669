// Package cli defines the cobra command tree for the sqlpilot CLI.
package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/sqlpilot/sqlpilot/internal/config"
)

var (
	dbPath     string
	jsonOutput bool
)

// configPath is the path to the config file, settable for testing.
var configPath = config.Path()

// cfg holds the loaded configuration; populated in PersistentPreRun.
var cfg = &config.Config{}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "scans.db"
	}
	return filepath.Join(home, ".sqlpilot", "scans.db")
}

// rootCmd is the top-level sqlpilot command.
var rootCmd = &cobra.Command{
	Use:   "sqlpilot",
	Short: "sqlpilot - adaptive wrapper around sqlmap scans",
	Long: `sqlpilot launches sqlmap against a target, watches its live output for
known failure signatures (WAF blocks, server errors), and suggests or records
parameter adjustments while the scan runs. Every run is persisted as a
session with its full suggestion history.

Data is stored in a SQLite database at ~/.sqlpilot/scans.db (configurable via
--db flag or sqlpilot config db_path). Read commands support --json for
machine-readable output.`,
	Example: `  # Run an adaptive scan
  sqlpilot scan "http://target.example/page.php?id=1"

  # Review past runs
  sqlpilot sessions --since 7d
  sqlpilot report session_1772366400

  # Inspect the pattern table and local tamper scripts
  sqlpilot catalog
  sqlpilot tampers`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loaded, err := config.LoadFrom(configPath)
		if err != nil {
			return
		}
		cfg = loaded
		if cfg.DBPath != "" && !cmd.Flags().Changed("db") {
			dbPath = cfg.DBPath
		}
		if cfg.DefaultFormat == "json" && !cmd.Flags().Changed("json") {
			jsonOutput = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "path to SQLite scan history database")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
