// Package model defines core types for sqlpilot: failure classes (known WAF
// and server-error signatures), remedies (command-line adjustments), and scan
// sessions with their suggestion history.
package model

import (
	"fmt"
	"regexp"
	"time"
)

// Session states.
const (
	StateIdle      = "idle"
	StateRunning   = "running"
	StateSuspended = "suspended"
	StateCompleted = "completed"
	StateAborted   = "aborted"
)

// Remedy is an ordered set of command-line adjustments believed to mitigate a
// failure class. Params and Advanced may contain a {proxy} placeholder that is
// resolved when a Suggestion snapshot is built.
type Remedy struct {
	Tampers  []string `json:"tampers"`
	Params   []string `json:"params"`
	Advanced []string `json:"advanced,omitempty"`
}

// Clone returns a deep copy of the remedy so a resolved snapshot never shares
// backing arrays with the catalog entry.
func (r Remedy) Clone() Remedy {
	c := Remedy{
		Tampers: append([]string(nil), r.Tampers...),
		Params:  append([]string(nil), r.Params...),
	}
	if r.Advanced != nil {
		c.Advanced = append([]string(nil), r.Advanced...)
	}
	return c
}

// FailureClass is a named category of adverse scan response with its trigger
// patterns and remedy. Triggers are append-only during a run.
type FailureClass struct {
	ID       string           `json:"id"`
	Triggers []*regexp.Regexp `json:"-"`
	Remedy   Remedy           `json:"remedy"`
	Learned  bool             `json:"learned"`
}

// TriggerStrings returns the source expressions of the class triggers, mainly
// for display and persistence.
func (f *FailureClass) TriggerStrings() []string {
	out := make([]string, len(f.Triggers))
	for i, t := range f.Triggers {
		out[i] = t.String()
	}
	return out
}

// Suggestion is one classifier output event: a matched line tied to a failure
// class and a resolved remedy snapshot. Immutable once created.
type Suggestion struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	Timestamp time.Time `json:"timestamp"`
	Remedy    Remedy    `json:"remedy"`
}

// Session is one end-to-end adaptive run against one target. It exclusively
// owns its suggestion history and live command argument list.
type Session struct {
	ID          string       `json:"id"`
	TargetURL   string       `json:"target_url"`
	Command     []string     `json:"command"`
	State       string       `json:"state"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at,omitzero"`
	Suggestions []Suggestion `json:"suggestions"`
}

// NewSession creates a session for targetURL starting now. The session id is
// derived from the start time.
func NewSession(targetURL string, now time.Time) *Session {
	return &Session{
		ID:        fmt.Sprintf("session_%d", now.Unix()),
		TargetURL: targetURL,
		State:     StateIdle,
		StartedAt: now,
	}
}

// Append adds a suggestion to the session history. History is append-only and
// ordered by arrival.
func (s *Session) Append(sug Suggestion) {
	s.Suggestions = append(s.Suggestions, sug)
}

// ExtendCommand appends arguments to the recorded command list. This affects
// only the recorded representation for reporting; an already-running external
// process is not restarted.
func (s *Session) ExtendCommand(args ...string) {
	s.Command = append(s.Command, args...)
}
