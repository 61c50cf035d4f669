package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/sqlpilot/sqlpilot/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Show or modify configuration",
	Long: `View or change sqlpilot configuration stored in ~/.sqlpilot/config.toml.

With no arguments, shows all configuration settings.
With one argument, shows the value of that key.
With two arguments, sets the key to the given value.

Settings:
  db_path         Path to the SQLite scan history database
  reports_dir     Directory for per-session report files
  logs_dir        Directory for per-session sqlmap output
  sqlmap_path     Path to the sqlmap executable
  wafw00f_path    Path to the wafw00f executable
  proxy_file      File with one proxy URL per line
  tamper_dir      Directory with sqlmap tamper scripts
  default_format  Default output format: "table" or "json"`,
	Example: `  sqlpilot config
  sqlpilot config sqlmap_path
  sqlpilot config sqlmap_path /opt/sqlmap/sqlmap.py
  sqlpilot config proxy_file /etc/sqlpilot/proxies.txt
  sqlpilot config default_format json`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadFrom(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		switch len(args) {
		case 0:
			return showConfig(loaded)
		case 1:
			return getConfig(loaded, args[0])
		default:
			return setConfig(loaded, args[0], args[1])
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func showConfig(c *config.Config) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE")
	for _, key := range config.ValidKeys() {
		val, _ := c.Get(key)
		if val == "" {
			val = "(not set)"
		}
		fmt.Fprintf(w, "%s\t%s\n", key, val)
	}
	return w.Flush()
}

func getConfig(c *config.Config, key string) error {
	val, err := c.Get(key)
	if err != nil {
		return err
	}
	if val == "" {
		return nil
	}
	fmt.Println(val)
	return nil
}

func setConfig(c *config.Config, key, value string) error {
	if err := c.Set(key, value); err != nil {
		return err
	}
	if err := c.SaveTo(configPath); err != nil {
		return err
	}
	fmt.Printf("%s = %s\n", key, value)
	return nil
}
