// Package scancmd assembles the external sqlmap command line for a session.
package scancmd

import (
	"path/filepath"
	"strings"

	"github.com/sqlpilot/sqlpilot/internal/fingerprint"
	"github.com/sqlpilot/sqlpilot/internal/proxy"
)

// DefaultBinary is the scanner executable when none is configured.
const DefaultBinary = "sqlmap"

// Options control command assembly for one session.
type Options struct {
	Binary      string // scanner executable; DefaultBinary if empty
	LogsDir     string // parent of the per-session output dir
	Fingerprint string // WAF fingerprint result, may be fingerprint.Unknown
	Tampers     []string
	Proxies     *proxy.Pool
}

// Build returns the initial argv for a scan of url under the given session
// id. When the fingerprint names Cloudflare, the cloudflare remedy's tampers,
// a delay, and a randomly drawn proxy are appended before first start.
func Build(url, sessionID string, opts Options) []string {
	bin := opts.Binary
	if bin == "" {
		bin = DefaultBinary
	}
	logs := opts.LogsDir
	if logs == "" {
		logs = "./logs"
	}

	argv := []string{
		bin, "-u", url,
		"--batch",
		"--output-dir", filepath.Join(logs, sessionID),
		"--csv", "--dump-format=JSON",
	}

	if fingerprint.IsCloudflare(opts.Fingerprint) {
		argv = append(argv,
			"--tamper", strings.Join(opts.Tampers, ","),
			"--delay", "5",
		)
		if opts.Proxies != nil {
			argv = append(argv, "--proxy", opts.Proxies.Pick())
		}
	}
	return argv
}
