package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/sqlpilot/sqlpilot/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show summary statistics about stored scan history",
	Example: `  sqlpilot stats
  sqlpilot stats --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.New(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		st, err := s.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}

		fmt.Printf("Sessions:    %d\n", st.TotalSessions)
		fmt.Printf("Suggestions: %d\n", st.TotalSuggestions)
		if st.TotalSessions > 0 {
			fmt.Printf("Range:       %s - %s\n",
				st.Earliest.Local().Format(time.DateOnly),
				st.Latest.Local().Format(time.DateOnly))
		}
		fmt.Printf("Last 24h:    %d\n", st.Last24h)
		fmt.Printf("Last 7d:     %d\n", st.Last7d)
		fmt.Printf("Last 30d:    %d\n", st.Last30d)

		if len(st.TopClasses) > 0 {
			fmt.Println("\nTop failure classes:")
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, nc := range st.TopClasses {
				fmt.Fprintf(w, "  %s\t%d\n", nc.Name, nc.Count)
			}
			w.Flush()
		}
		if len(st.ByState) > 0 {
			fmt.Println("\nSessions by state:")
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, nc := range st.ByState {
				fmt.Fprintf(w, "  %s\t%d\n", nc.Name, nc.Count)
			}
			w.Flush()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
