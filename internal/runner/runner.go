// Package runner launches the external scan process and exposes its combined
// stdout/stderr as a sequential line source.
package runner

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// LaunchError means the external executable could not be started at all
// (not found, permission denied). No further operations occur on the run.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Process is a handle on a running scan. NextLine blocks for the next line of
// combined output and returns io.EOF once the process has exited and the
// buffer is drained.
type Process struct {
	cmd     *exec.Cmd
	scanner *bufio.Scanner
	pipe    io.ReadCloser

	waitOnce sync.Once
	exitCode int
}

// Start spawns argv with stdout and stderr merged into one stream. The argv
// slice must be non-empty; argv[0] is the executable.
func Start(argv []string) (*Process, error) {
	if len(argv) == 0 {
		return nil, &LaunchError{Command: "", Err: fmt.Errorf("empty command")}
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &LaunchError{Command: argv[0], Err: err}
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		pipe.Close()
		return nil, &LaunchError{Command: argv[0], Err: err}
	}

	sc := bufio.NewScanner(pipe)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Process{cmd: cmd, scanner: sc, pipe: pipe}, nil
}

// NextLine blocks until the next line of combined output is available.
// Returns io.EOF when the process has exited and no buffered output remains.
func (p *Process) NextLine() (string, error) {
	if p.scanner.Scan() {
		return p.scanner.Text(), nil
	}
	p.wait()
	if err := p.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// ExitCode returns the process exit status. Only meaningful after NextLine
// has returned io.EOF.
func (p *Process) ExitCode() int {
	p.wait()
	return p.exitCode
}

// Terminate asks the child process to stop. Safe to call at any point after
// Start; errors from an already-exited process are ignored by callers.
func (p *Process) Terminate() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// wait reaps the child exactly once and records its exit code.
func (p *Process) wait() {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()
		if exitErr, ok := err.(*exec.ExitError); ok {
			p.exitCode = exitErr.ExitCode()
			return
		}
		if err != nil {
			p.exitCode = -1
			return
		}
		p.exitCode = 0
	})
}
