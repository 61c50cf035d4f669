package runner

import (
	"errors"
	"io"
	"testing"
)

func drain(t *testing.T, p *Process) []string {
	t.Helper()
	var lines []string
	for {
		line, err := p.NextLine()
		if err == io.EOF {
			return lines
		}
		if err != nil {
			t.Fatalf("NextLine: %v", err)
		}
		lines = append(lines, line)
	}
}

func TestStartMissingBinary(t *testing.T) {
	_, err := Start([]string{"definitely-not-a-real-binary-xyz"})
	if err == nil {
		t.Fatal("expected launch error")
	}
	var le *LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("error type %T, want *LaunchError", err)
	}
}

func TestStartEmptyCommand(t *testing.T) {
	if _, err := Start(nil); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestCombinedOutputAndEOF(t *testing.T) {
	p, err := Start([]string{"sh", "-c", "echo out; echo err 1>&2; echo done"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	lines := drain(t, p)
	if len(lines) != 3 {
		t.Fatalf("got %d lines %v, want 3", len(lines), lines)
	}
	// stderr is merged into the same stream.
	found := false
	for _, l := range lines {
		if l == "err" {
			found = true
		}
	}
	if !found {
		t.Errorf("stderr line missing from combined output: %v", lines)
	}
	if code := p.ExitCode(); code != 0 {
		t.Errorf("ExitCode = %d, want 0", code)
	}
}

func TestExitCodeNonZero(t *testing.T) {
	p, err := Start([]string{"sh", "-c", "echo failing; exit 3"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	drain(t, p)
	if code := p.ExitCode(); code != 3 {
		t.Errorf("ExitCode = %d, want 3", code)
	}
}

func TestTerminate(t *testing.T) {
	p, err := Start([]string{"sh", "-c", "echo started; sleep 60"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	line, err := p.NextLine()
	if err != nil || line != "started" {
		t.Fatalf("NextLine = %q, %v", line, err)
	}

	if err := p.Terminate(); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	// Stream ends once the child is gone.
	for {
		if _, err := p.NextLine(); err != nil {
			break
		}
	}
	if code := p.ExitCode(); code == 0 {
		t.Errorf("ExitCode = %d, want non-zero after kill", code)
	}
}
