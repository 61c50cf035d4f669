// Package report serializes a session's suggestion history into a
// human-readable summary file at the end of a run.
package report

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/sqlpilot/sqlpilot/internal/model"
)

// DefaultDir is where per-session report files land when unconfigured.
const DefaultDir = "./reports"

// Writer flushes session reports into a reports directory, one file per
// session named by session id.
type Writer struct {
	dir string
}

// NewWriter returns a report writer rooted at dir (DefaultDir if empty).
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	return &Writer{dir: dir}
}

// Flush writes the report for sess and returns the file path. Every
// suggestion in the session history appears, in order; a session with no
// suggestions still produces a report carrying the session id and target.
// Flush is called exactly once per run; a second call would overwrite the
// file, which is acceptable.
func (w *Writer) Flush(sess *model.Session) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}

	var b strings.Builder
	b.WriteString("<h1>sqlpilot scan report</h1>\n")
	fmt.Fprintf(&b, "<p>Session: %s</p>\n", html.EscapeString(sess.ID))
	fmt.Fprintf(&b, "<p>Target: %s</p>\n", html.EscapeString(sess.TargetURL))
	fmt.Fprintf(&b, "<p>Command: %s</p>\n", html.EscapeString(strings.Join(sess.Command, " ")))
	fmt.Fprintf(&b, "<p>State: %s</p>\n", html.EscapeString(sess.State))
	fmt.Fprintf(&b, "<h2>Suggestions (%d)</h2>\n", len(sess.Suggestions))

	for _, s := range sess.Suggestions {
		remedy, err := json.Marshal(s.Remedy)
		if err != nil {
			return "", fmt.Errorf("marshal remedy for %s: %w", s.ClassID, err)
		}
		fmt.Fprintf(&b, "<p><b>%s</b> [%s]: %s</p>\n",
			html.EscapeString(s.ClassID),
			s.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			html.EscapeString(string(remedy)),
		)
	}

	path := filepath.Join(w.dir, sess.ID+"_report.html")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
