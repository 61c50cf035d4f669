package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sqlpilot/sqlpilot/internal/tamper"
)

var tampersDir string

var tampersCmd = &cobra.Command{
	Use:   "tampers",
	Short: "List sqlmap tamper scripts available on this host",
	Long: `Tampers scans the sqlmap tamper script directory and lists the script
names usable with --tamper. When the directory is unavailable a small
built-in list is shown instead.`,
	Example: `  sqlpilot tampers
  sqlpilot tampers --dir /opt/sqlmap/tamper
  sqlpilot tampers --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := pick(tampersDir, cfg.TamperDir, tamper.DefaultDir)
		names, fellBack := tamper.Discover(dir)
		if fellBack {
			fmt.Fprintf(os.Stderr, "warning: tamper directory %s unavailable, showing built-in list\n", dir)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(names)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

func init() {
	tampersCmd.Flags().StringVar(&tampersDir, "dir", "", "tamper script directory")
	rootCmd.AddCommand(tampersCmd)
}
