package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/sqlpilot/sqlpilot/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report <session-id>",
	Short: "Show the suggestion history of a stored session",
	Long: `Report prints a stored session: target, final command, terminal state,
and every optimization suggestion its run produced, in arrival order.`,
	Example: `  sqlpilot report session_1772366400
  sqlpilot report session_1772366400 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.New(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		sess, err := s.GetSession(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		if sess == nil {
			return fmt.Errorf("unknown session %q", args[0])
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(sess)
		}

		fmt.Printf("Session:  %s\n", sess.ID)
		fmt.Printf("Target:   %s\n", sess.TargetURL)
		fmt.Printf("State:    %s\n", sess.State)
		fmt.Printf("Started:  %s\n", sess.StartedAt.Local().Format(time.DateTime))
		if !sess.FinishedAt.IsZero() {
			fmt.Printf("Finished: %s\n", sess.FinishedAt.Local().Format(time.DateTime))
		}
		fmt.Printf("Command:  %s\n\n", strings.Join(sess.Command, " "))

		if len(sess.Suggestions) == 0 {
			fmt.Println("No suggestions recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tCLASS\tTAMPERS\tPARAMS")
		for _, sug := range sess.Suggestions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				sug.Timestamp.Local().Format(time.TimeOnly),
				sug.ClassID,
				strings.Join(sug.Remedy.Tampers, ","),
				strings.Join(append(append([]string{}, sug.Remedy.Params...), sug.Remedy.Advanced...), " "),
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
