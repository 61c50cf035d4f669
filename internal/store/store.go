// Package store defines the persistence interface for sqlpilot scan history.
package store

import (
	"context"
	"time"

	"github.com/sqlpilot/sqlpilot/internal/model"
)

// Store is the persistence interface for sessions and their suggestions.
type Store interface {
	// SaveSession persists a finished session and its suggestion history.
	SaveSession(ctx context.Context, sess *model.Session) error

	// GetSession returns a session with its suggestions, or nil if unknown.
	GetSession(ctx context.Context, id string) (*model.Session, error)

	// ListSessions returns stored sessions matching the given filter options,
	// newest first. Suggestion histories are not populated; each row carries
	// its suggestion count instead.
	ListSessions(ctx context.Context, opts ListOpts) ([]SessionRow, error)

	// Stats returns summary statistics about stored scan history.
	Stats(ctx context.Context) (Stats, error)

	// Close releases any resources held by the store.
	Close() error
}

// ListOpts controls filtering for ListSessions.
type ListOpts struct {
	Since time.Time // Only sessions started after this time.
	State string    // Filter by terminal state ("completed", "aborted").
	Limit int       // Maximum results; 0 means no limit.
}

// SessionRow is a session listing entry: the session header plus how many
// suggestions its run produced.
type SessionRow struct {
	ID              string    `json:"id"`
	TargetURL       string    `json:"target_url"`
	State           string    `json:"state"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at,omitzero"`
	SuggestionCount int       `json:"suggestion_count"`
}

// NameCount pairs a name (failure class id or state) with its count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats holds summary statistics about stored scan history.
type Stats struct {
	TotalSessions    int         `json:"total_sessions"`
	TotalSuggestions int         `json:"total_suggestions"`
	TopClasses       []NameCount `json:"top_classes"`
	ByState          []NameCount `json:"by_state"`
	Earliest         time.Time   `json:"earliest"`
	Latest           time.Time   `json:"latest"`
	Last24h          int         `json:"last_24h"`
	Last7d           int         `json:"last_7d"`
	Last30d          int         `json:"last_30d"`
}
