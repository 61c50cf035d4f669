//go:build integration

// Package integration provides end-to-end tests that exercise the compiled
// sqlpilot binary. Tests in this package are excluded from normal
// `go test ./...` runs and require the build tag:
// go test -tags integration ./internal/integration/
//
// TestMain builds the sqlpilot binary once into a temporary directory and
// makes it available via pilotBin for all tests. Each test creates an isolated
// pilotEnv with its own HOME, config, database, and a stub sqlmap script so no
// real scanner is ever launched.
package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// pilotBin holds the path to the compiled sqlpilot binary, set once in TestMain.
var pilotBin string

// TestMain builds the sqlpilot binary and runs all integration tests.
func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "sqlpilot-integration-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "integration: create temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(tmp)

	bin := filepath.Join(tmp, "sqlpilot")
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/sqlpilot")
	cmd.Dir = filepath.Join(modRoot())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "integration: build sqlpilot binary: %v\n", err)
		os.Exit(1)
	}

	pilotBin = bin
	os.Exit(m.Run())
}

// modRoot returns the module root directory by walking up from this file's
// directory until go.mod is found.
func modRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("integration: getwd: %v", err))
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("integration: could not find go.mod in any parent directory")
		}
		dir = parent
	}
}

// pilotEnv is an isolated test environment for running sqlpilot commands. Each
// instance has its own HOME directory, config file, database, reports and logs
// directories. Tests should create one via newEnv(t).
type pilotEnv struct {
	t          *testing.T
	home       string // isolated HOME directory
	cfgPath    string // path to config.toml
	dbPath     string // path to scans.db
	reportsDir string
	logsDir    string
}

// newEnv creates an isolated pilotEnv for a single test. The environment has
// its own HOME so that sqlpilot's default paths (~/.sqlpilot/) are sandboxed.
// The config is pre-seeded to point at the test database.
func newEnv(t *testing.T) *pilotEnv {
	t.Helper()
	home := t.TempDir()

	dir := filepath.Join(home, ".sqlpilot")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create .sqlpilot dir: %v", err)
	}

	dbPath := filepath.Join(dir, "scans.db")
	cfgPath := filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf("db_path = %q\n", dbPath)
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &pilotEnv{
		t:          t,
		home:       home,
		cfgPath:    cfgPath,
		dbPath:     dbPath,
		reportsDir: filepath.Join(home, "reports"),
		logsDir:    filepath.Join(home, "logs"),
	}
}

// run executes `sqlpilot <args>` in the test environment and returns stdout,
// stderr, and any error. stdin can be provided as a byte slice (nil for no
// input, which resolves confirmation prompts to their default).
func (e *pilotEnv) run(stdin []byte, args ...string) (stdout, stderr string, err error) {
	e.t.Helper()
	cmd := exec.Command(pilotBin, args...)
	cmd.Env = append(os.Environ(),
		"HOME="+e.home,
		"NO_COLOR=1",
	)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

// mustRun is like run but calls t.Fatal if the command fails.
func (e *pilotEnv) mustRun(stdin []byte, args ...string) (stdout, stderr string) {
	e.t.Helper()
	stdout, stderr, err := e.run(stdin, args...)
	if err != nil {
		e.t.Fatalf("sqlpilot %v failed: %v\nstdout: %s\nstderr: %s", args, err, stdout, stderr)
	}
	return stdout, stderr
}

// stubScanner writes an executable shell script that plays the role of sqlmap:
// it prints the given lines to stdout and exits with the given code.
func (e *pilotEnv) stubScanner(lines []string, exitCode int) string {
	e.t.Helper()
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "echo '%s'\n", l)
	}
	fmt.Fprintf(&b, "exit %d\n", exitCode)

	path := filepath.Join(e.home, "fake-sqlmap")
	if err := os.WriteFile(path, []byte(b.String()), 0o755); err != nil {
		e.t.Fatalf("write stub scanner: %v", err)
	}
	return path
}

// scanArgs returns the common flag set for a sandboxed scan run.
func (e *pilotEnv) scanArgs(scanner, target string) []string {
	return []string{
		"scan",
		"--sqlmap", scanner,
		"--no-fingerprint",
		"--reports-dir", e.reportsDir,
		"--logs-dir", e.logsDir,
		"--proxy-file", filepath.Join(e.home, "no-proxies.txt"),
		"--tamper-dir", filepath.Join(e.home, "no-tampers"),
		target,
	}
}

var sessionIDPattern = regexp.MustCompile(`session_\d+`)

// sessionID extracts the session id announced on stderr during a scan.
func sessionID(t *testing.T, stderr string) string {
	t.Helper()
	id := sessionIDPattern.FindString(stderr)
	if id == "" {
		t.Fatalf("no session id in stderr: %s", stderr)
	}
	return id
}
