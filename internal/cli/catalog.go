package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/sqlpilot/sqlpilot/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the built-in failure-class pattern table",
	Long: `Catalog prints the failure classes a scan starts with: their trigger
patterns and the command adjustments suggested when one fires. Classes
learned during a run exist only for that run.`,
	Example: `  sqlpilot catalog
  sqlpilot catalog --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		classes := catalog.New().Classes()

		if jsonOutput {
			type entry struct {
				ID       string   `json:"id"`
				Triggers []string `json:"triggers"`
				Tampers  []string `json:"tampers"`
				Params   []string `json:"params"`
				Advanced []string `json:"advanced,omitempty"`
				Learned  bool     `json:"learned"`
			}
			out := make([]entry, 0, len(classes))
			for _, fc := range classes {
				out = append(out, entry{
					ID:       fc.ID,
					Triggers: fc.TriggerStrings(),
					Tampers:  fc.Remedy.Tampers,
					Params:   fc.Remedy.Params,
					Advanced: fc.Remedy.Advanced,
					Learned:  fc.Learned,
				})
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CLASS\tLEARNED\tTRIGGERS\tTAMPERS")
		for _, fc := range classes {
			fmt.Fprintf(w, "%s\t%v\t%s\t%s\n",
				fc.ID,
				fc.Learned,
				strings.Join(fc.TriggerStrings(), "  "),
				strings.Join(fc.Remedy.Tampers, ","),
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
