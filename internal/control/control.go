// Package control drives the adaptive scan loop: it consumes external
// scanner output line by line, feeds it through the classifier, reacts to
// suggestions, and flushes the session report on completion or abort.
package control

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sqlpilot/sqlpilot/internal/classify"
	"github.com/sqlpilot/sqlpilot/internal/model"
	"github.com/sqlpilot/sqlpilot/internal/proxy"
)

// cloudflareClass is the distinguished class that suspends the loop for
// operator confirmation before the command is mutated.
const cloudflareClass = "cloudflare"

// LineSource is a sequential source of scanner output lines. NextLine blocks
// and returns io.EOF once the underlying process has exited with no buffered
// output remaining; ExitCode is meaningful only after that.
type LineSource interface {
	NextLine() (string, error)
	ExitCode() int
	Terminate() error
}

// Confirmer obtains a yes/no decision from the operator. Implementations
// must treat anything other than an explicit negative as yes.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Flusher persists the session summary at end of run.
type Flusher interface {
	Flush(sess *model.Session) (string, error)
}

// Highlighter renders operator-facing notices (suggestions, prompts) apart
// from the raw pass-through scanner output.
type Highlighter interface {
	Noticef(w io.Writer, format string, a ...any)
}

// Controller runs the single-threaded adaptive control loop. All blocking
// happens at two points: waiting for the next output line and waiting for
// operator confirmation; both honor context cancellation.
type Controller struct {
	classifier *classify.Classifier
	proxies    *proxy.Pool
	confirm    Confirmer
	flusher    Flusher
	notice     Highlighter
	out        io.Writer
}

// Result summarizes a finished run.
type Result struct {
	State      string // model.StateCompleted or model.StateAborted
	ExitCode   int    // external process exit status; meaningful when Completed
	ReportPath string
}

// New assembles a controller. out receives the verbatim pass-through of
// every scanner line plus operator notices.
func New(cl *classify.Classifier, pool *proxy.Pool, confirm Confirmer, flusher Flusher, notice Highlighter, out io.Writer) *Controller {
	return &Controller{
		classifier: cl,
		proxies:    pool,
		confirm:    confirm,
		flusher:    flusher,
		notice:     notice,
		out:        out,
	}
}

type lineEvent struct {
	line string
	err  error
}

// Run consumes src until end of stream, classifying every non-empty line and
// appending resulting suggestions to sess. Cloudflare suggestions suspend
// the loop for confirmation; an affirmative answer extends the recorded
// command (the running process is not restarted). Cancellation of ctx aborts
// the run: the child is asked to terminate and the partial history is still
// flushed. Flush happens exactly once, on the transition into the terminal
// state.
func (c *Controller) Run(ctx context.Context, sess *model.Session, src LineSource) (Result, error) {
	sess.State = model.StateRunning

	// Single reader goroutine keeps the blocking NextLine cancellable; the
	// control loop itself stays sequential.
	events := make(chan lineEvent)
	go func() {
		for {
			line, err := src.NextLine()
			select {
			case events <- lineEvent{line: line, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			src.Terminate()
			return c.finish(sess, model.StateAborted, 0, nil)

		case ev := <-events:
			if ev.err == io.EOF {
				return c.finish(sess, model.StateCompleted, src.ExitCode(), nil)
			}
			if ev.err != nil {
				// Unexpected stream failure: end as aborted, but still flush.
				src.Terminate()
				return c.finish(sess, model.StateAborted, 0, fmt.Errorf("read scanner output: %w", ev.err))
			}

			fmt.Fprintln(c.out, ev.line)
			if strings.TrimSpace(ev.line) == "" {
				continue
			}

			for _, sug := range c.classifier.Classify(ev.line) {
				sess.Append(sug)
				c.notice.Noticef(c.out, "optimize: %s detected, remedy tampers=%s params=%s\n",
					sug.ClassID, strings.Join(sug.Remedy.Tampers, ","), strings.Join(sug.Remedy.Params, " "))

				if sug.ClassID != cloudflareClass {
					continue
				}

				sess.State = model.StateSuspended
				yes, aborted := c.confirmOrAbort(ctx, "WAF detected. Apply optimization automatically? [Y/n]: ")
				if aborted {
					src.Terminate()
					return c.finish(sess, model.StateAborted, 0, nil)
				}
				sess.State = model.StateRunning
				if yes {
					args := c.mutationArgs(sug.Remedy)
					sess.ExtendCommand(args...)
					c.notice.Noticef(c.out, "recorded new parameters: %s\n", strings.Join(args, " "))
				}
			}
		}
	}
}

// confirmOrAbort asks the operator for a decision while still honoring
// cancellation; an abort during the prompt wins over any later answer.
func (c *Controller) confirmOrAbort(ctx context.Context, prompt string) (yes, aborted bool) {
	answer := make(chan bool, 1)
	go func() { answer <- c.confirm.Confirm(prompt) }()
	select {
	case <-ctx.Done():
		return false, true
	case v := <-answer:
		return v, false
	}
}

// mutationArgs builds the command extension from a remedy: its tamper
// selection, its delay parameter, and a freshly drawn proxy.
func (c *Controller) mutationArgs(r model.Remedy) []string {
	args := []string{"--tamper=" + strings.Join(r.Tampers, ",")}
	for _, p := range r.Params {
		if strings.HasPrefix(p, "--delay") {
			args = append(args, p)
		}
	}
	return append(args, "--proxy="+c.proxies.Pick())
}

// finish moves the session into its terminal state and flushes exactly once.
// A flush failure is reported but does not mask a run error.
func (c *Controller) finish(sess *model.Session, state string, exitCode int, runErr error) (Result, error) {
	sess.State = state
	sess.FinishedAt = time.Now()
	res := Result{State: state, ExitCode: exitCode}

	path, err := c.flusher.Flush(sess)
	if err != nil {
		if runErr == nil {
			runErr = fmt.Errorf("flush report: %w", err)
		} else {
			c.notice.Noticef(c.out, "flush report failed: %v\n", err)
		}
	}
	res.ReportPath = path
	return res, runErr
}
