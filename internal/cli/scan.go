package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/sqlpilot/sqlpilot/internal/catalog"
	"github.com/sqlpilot/sqlpilot/internal/classify"
	"github.com/sqlpilot/sqlpilot/internal/control"
	"github.com/sqlpilot/sqlpilot/internal/fingerprint"
	"github.com/sqlpilot/sqlpilot/internal/model"
	"github.com/sqlpilot/sqlpilot/internal/proxy"
	"github.com/sqlpilot/sqlpilot/internal/report"
	"github.com/sqlpilot/sqlpilot/internal/runner"
	"github.com/sqlpilot/sqlpilot/internal/scancmd"
	"github.com/sqlpilot/sqlpilot/internal/store"
	"github.com/sqlpilot/sqlpilot/internal/tamper"
)

var (
	scanSqlmapPath    string
	scanWafw00fPath   string
	scanProxyFile     string
	scanTamperDir     string
	scanReportsDir    string
	scanLogsDir       string
	scanNoFingerprint bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <target-url>",
	Short: "Run an adaptive sqlmap scan against a target URL",
	Long: `Scan launches sqlmap against the target and analyzes its output in real
time. Lines matching known failure signatures produce optimization
suggestions; a Cloudflare detection pauses the loop and asks whether the
suggested parameters should be recorded onto the session command.

The external process keeps running during a confirmation prompt; recorded
parameter changes describe what a follow-up run should use, they do not
restart the scan in flight.

On completion or interrupt the session and its suggestion history are written
to the reports directory and the scan history database.`,
	Example: `  sqlpilot scan "http://target.example/page.php?id=1"
  sqlpilot scan --sqlmap /opt/sqlmap/sqlmap.py --proxy-file proxies.txt "http://target.example/?id=1"
  sqlpilot scan --no-fingerprint "http://target.example/?id=1"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]
		u, err := url.Parse(target)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid target URL %q: want an absolute http(s) URL", target)
		}
		return runScan(target)
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanSqlmapPath, "sqlmap", "", "path to the sqlmap executable")
	scanCmd.Flags().StringVar(&scanWafw00fPath, "wafw00f", "", "path to the wafw00f executable")
	scanCmd.Flags().StringVar(&scanProxyFile, "proxy-file", "", "file with one proxy URL per line")
	scanCmd.Flags().StringVar(&scanTamperDir, "tamper-dir", "", "directory with sqlmap tamper scripts")
	scanCmd.Flags().StringVar(&scanReportsDir, "reports-dir", "", "directory for per-session report files")
	scanCmd.Flags().StringVar(&scanLogsDir, "logs-dir", "", "directory for per-session sqlmap output")
	scanCmd.Flags().BoolVar(&scanNoFingerprint, "no-fingerprint", false, "skip WAF fingerprinting before the scan")
	rootCmd.AddCommand(scanCmd)
}

// pick returns the first non-empty value: flag, config, fallback.
func pick(flag, conf, fallback string) string {
	if flag != "" {
		return flag
	}
	if conf != "" {
		return conf
	}
	return fallback
}

func runScan(target string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Host environment: proxies and tamper scripts, with built-in fallbacks.
	proxyFile := pick(scanProxyFile, cfg.ProxyFile, "proxy_list.txt")
	pool, fellBack := proxy.Load(proxyFile)
	if fellBack {
		fmt.Fprintf(os.Stderr, "warning: proxy list %s unavailable, using default proxy\n", proxyFile)
	}
	tamperDir := pick(scanTamperDir, cfg.TamperDir, tamper.DefaultDir)
	tampers, fellBack := tamper.Discover(tamperDir)
	if fellBack {
		fmt.Fprintf(os.Stderr, "warning: tamper directory %s unavailable, using built-in list\n", tamperDir)
	}

	// Best-effort WAF fingerprint to pre-seed the command.
	fp := fingerprint.Unknown
	if !scanNoFingerprint {
		fmt.Fprintf(os.Stderr, "fingerprinting target WAF...\n")
		fp = fingerprint.Detect(ctx, pick(scanWafw00fPath, cfg.Wafw00fPath, ""), target)
	}

	cat := catalog.New()
	sess := model.NewSession(target, time.Now())

	cfTampers := []string{"randomcase", "space2plus"}
	for _, fc := range cat.Classes() {
		if fc.ID == "cloudflare" {
			cfTampers = fc.Remedy.Tampers
		}
	}
	sess.Command = scancmd.Build(target, sess.ID, scancmd.Options{
		Binary:      pick(scanSqlmapPath, cfg.SqlmapPath, ""),
		LogsDir:     pick(scanLogsDir, cfg.LogsDir, "./logs"),
		Fingerprint: fp,
		Tampers:     availableOnly(cfTampers, tampers),
		Proxies:     pool,
	})

	flusher := newSessionFlusher(
		report.NewWriter(pick(scanReportsDir, cfg.ReportsDir, report.DefaultDir)),
		dbPath,
	)

	proc, err := runner.Start(sess.Command)
	if err != nil {
		var le *runner.LaunchError
		if errors.As(err, &le) {
			// The session exists: flush an empty history before failing.
			sess.State = model.StateAborted
			if path, ferr := flusher.Flush(sess); ferr == nil {
				fmt.Fprintf(os.Stderr, "report written: %s\n", path)
			}
		}
		return err
	}

	fmt.Fprintf(os.Stderr, "session %s started: %s\n", sess.ID, target)
	ctrl := control.New(
		classify.New(cat, pool),
		pool,
		stdinConfirmer{},
		flusher,
		colorNotice{},
		os.Stdout,
	)

	res, err := ctrl.Run(ctx, sess, proc)
	if res.ReportPath != "" {
		fmt.Fprintf(os.Stderr, "report written: %s\n", res.ReportPath)
	}
	if err != nil {
		return err
	}

	switch res.State {
	case model.StateAborted:
		fmt.Fprintf(os.Stderr, "scan aborted; %d suggestion(s) collected\n", len(sess.Suggestions))
	default:
		fmt.Fprintf(os.Stderr, "scan completed (sqlmap exit %d); %d suggestion(s) collected\n",
			res.ExitCode, len(sess.Suggestions))
	}
	return nil
}

// availableOnly filters wanted down to tamper scripts present on the host,
// preserving order. If none are available the original selection is kept;
// sqlmap itself will complain about what is truly missing.
func availableOnly(wanted, available []string) []string {
	have := make(map[string]bool, len(available))
	for _, a := range available {
		have[a] = true
	}
	var out []string
	for _, w := range wanted {
		if have[w] {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return wanted
	}
	return out
}

// newSessionFlusher builds the end-of-run flusher: the HTML report plus the
// scan history database. Store failures degrade to a warning so the report
// file always wins.
func newSessionFlusher(w *report.Writer, dbPath string) *sessionFlusher {
	return &sessionFlusher{writer: w, dbPath: dbPath}
}

type sessionFlusher struct {
	writer *report.Writer
	dbPath string
}

func (f *sessionFlusher) Flush(sess *model.Session) (string, error) {
	path, err := f.writer.Flush(sess)

	s, serr := store.New(f.dbPath)
	if serr != nil {
		fmt.Fprintf(os.Stderr, "warning: open scan history database: %v\n", serr)
		return path, err
	}
	defer s.Close()
	if serr := s.SaveSession(context.Background(), sess); serr != nil {
		fmt.Fprintf(os.Stderr, "warning: save session history: %v\n", serr)
	}
	return path, err
}
