package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/sqlpilot/sqlpilot/internal/store"
)

var (
	sessionsSince string
	sessionsState string
	sessionsLimit int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded scan sessions",
	Long: `Sessions displays a table of past scan runs, newest first, with their
terminal state and how many optimization suggestions each produced.`,
	Example: `  sqlpilot sessions
  sqlpilot sessions --since 7d
  sqlpilot sessions --state aborted --limit 20
  sqlpilot sessions --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.New(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		opts := store.ListOpts{
			State: sessionsState,
			Limit: sessionsLimit,
		}
		if sessionsSince != "" {
			d, err := parseDuration(sessionsSince)
			if err != nil {
				return fmt.Errorf("invalid --since value %q: %w", sessionsSince, err)
			}
			opts.Since = time.Now().Add(-d)
		}

		sessions, err := s.ListSessions(context.Background(), opts)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(sessions)
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tSTARTED\tSTATE\tSUGGESTIONS\tTARGET")
		for _, row := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				row.ID,
				row.StartedAt.Local().Format(time.DateTime),
				row.State,
				row.SuggestionCount,
				truncate(row.TargetURL, 50),
			)
		}
		return w.Flush()
	},
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsSince, "since", "", "show sessions within this duration (e.g., 30m, 24h, 7d)")
	sessionsCmd.Flags().StringVar(&sessionsState, "state", "", "filter by terminal state (completed, aborted)")
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 50, "maximum number of results")
	rootCmd.AddCommand(sessionsCmd)
}

// parseDuration parses a duration string that supports d (days), h (hours), m (minutes), s (seconds).
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	// Handle "d" suffix for days, which time.ParseDuration doesn't support.
	if strings.HasSuffix(s, "d") {
		numStr := s[:len(s)-1]
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", numStr)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// truncate shortens a string to max characters, appending "..." if truncated.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
