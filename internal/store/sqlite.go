// SQLite-backed implementation of the scan history store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sqlpilot/sqlpilot/internal/model"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// SQLiteStore implements Store using a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at dbPath. It auto-creates the
// parent directory (e.g. ~/.sqlpilot/) and runs schema migrations.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection for WAL mode simplicity.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// migrate runs schema migrations up to the current version.
func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}

	var ver int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&ver)
	if err == sql.ErrNoRows {
		ver = 0
	} else if err != nil {
		return fmt.Errorf("read version: %w", err)
	}

	if ver < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) migrateV1() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id          TEXT PRIMARY KEY,
			target_url  TEXT NOT NULL,
			command     TEXT NOT NULL,
			state       TEXT NOT NULL,
			started_at  TEXT NOT NULL,
			finished_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_state ON sessions(state)`,
		`CREATE TABLE IF NOT EXISTS suggestions (
			id         TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			seq        INTEGER NOT NULL,
			class_id   TEXT NOT NULL,
			remedy     TEXT NOT NULL,
			timestamp  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_session_id ON suggestions(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_class_id ON suggestions(class_id)`,
		`INSERT OR REPLACE INTO schema_version (version) VALUES (1)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate v1: %w", err)
		}
	}
	return nil
}

// SaveSession persists a finished session and its suggestion history in one
// transaction. Suggestions keep their arrival order via the seq column.
func (s *SQLiteStore) SaveSession(ctx context.Context, sess *model.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (id, target_url, command, state, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID,
		sess.TargetURL,
		strings.Join(sess.Command, " "),
		sess.State,
		sess.StartedAt.UTC().Format(time.RFC3339Nano),
		nullableTime(sess.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for i, sug := range sess.Suggestions {
		remedy, err := json.Marshal(sug.Remedy)
		if err != nil {
			return fmt.Errorf("marshal remedy: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO suggestions (id, session_id, seq, class_id, remedy, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			sug.ID, sess.ID, i, sug.ClassID, string(remedy),
			sug.Timestamp.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert suggestion: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetSession returns a session with its full suggestion history, or nil if
// the id is unknown.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var sess model.Session
	var command, startedAt string
	var finishedAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, target_url, command, state, started_at, finished_at FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.TargetURL, &command, &sess.State, &startedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if command != "" {
		sess.Command = strings.Fields(command)
	}
	sess.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	if finishedAt.Valid {
		sess.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt.String)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, class_id, remedy, timestamp FROM suggestions WHERE session_id = ? ORDER BY seq`,
		id)
	if err != nil {
		return nil, fmt.Errorf("get suggestions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sug model.Suggestion
		var remedy, ts string
		if err := rows.Scan(&sug.ID, &sug.ClassID, &remedy, &ts); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		if err := json.Unmarshal([]byte(remedy), &sug.Remedy); err != nil {
			return nil, fmt.Errorf("parse remedy %q: %w", remedy, err)
		}
		sug.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		sess.Suggestions = append(sess.Suggestions, sug)
	}
	return &sess, rows.Err()
}

// ListSessions returns stored sessions matching opts, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, opts ListOpts) ([]SessionRow, error) {
	query := `SELECT s.id, s.target_url, s.state, s.started_at, s.finished_at,
		(SELECT COUNT(*) FROM suggestions WHERE session_id = s.id)
		FROM sessions s WHERE 1=1`
	var args []any

	if !opts.Since.IsZero() {
		query += " AND s.started_at >= ?"
		args = append(args, opts.Since.UTC().Format(time.RFC3339Nano))
	}
	if opts.State != "" {
		query += " AND s.state = ?"
		args = append(args, opts.State)
	}
	query += " ORDER BY s.started_at DESC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRow
	for rows.Next() {
		var row SessionRow
		var startedAt string
		var finishedAt sql.NullString
		if err := rows.Scan(&row.ID, &row.TargetURL, &row.State, &startedAt, &finishedAt, &row.SuggestionCount); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		row.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		if finishedAt.Valid {
			row.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt.String)
		}
		sessions = append(sessions, row)
	}
	return sessions, rows.Err()
}

// Stats returns summary statistics about stored scan history.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&st.TotalSessions); err != nil {
		return st, fmt.Errorf("count sessions: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM suggestions").Scan(&st.TotalSuggestions); err != nil {
		return st, fmt.Errorf("count suggestions: %w", err)
	}

	// Top failure classes (top 5).
	classRows, err := s.db.QueryContext(ctx,
		"SELECT class_id, COUNT(*) as cnt FROM suggestions GROUP BY class_id ORDER BY cnt DESC LIMIT 5")
	if err != nil {
		return st, fmt.Errorf("top classes: %w", err)
	}
	defer classRows.Close()

	for classRows.Next() {
		var nc NameCount
		if err := classRows.Scan(&nc.Name, &nc.Count); err != nil {
			return st, fmt.Errorf("scan class: %w", err)
		}
		st.TopClasses = append(st.TopClasses, nc)
	}
	if err := classRows.Err(); err != nil {
		return st, err
	}

	// Sessions by terminal state.
	stateRows, err := s.db.QueryContext(ctx,
		"SELECT state, COUNT(*) FROM sessions GROUP BY state ORDER BY COUNT(*) DESC")
	if err != nil {
		return st, fmt.Errorf("by state: %w", err)
	}
	defer stateRows.Close()

	for stateRows.Next() {
		var nc NameCount
		if err := stateRows.Scan(&nc.Name, &nc.Count); err != nil {
			return st, fmt.Errorf("scan state: %w", err)
		}
		st.ByState = append(st.ByState, nc)
	}
	if err := stateRows.Err(); err != nil {
		return st, err
	}

	// Date range.
	if st.TotalSessions > 0 {
		var earliest, latest string
		if err := s.db.QueryRowContext(ctx,
			"SELECT MIN(started_at), MAX(started_at) FROM sessions").Scan(&earliest, &latest); err != nil {
			return st, fmt.Errorf("date range: %w", err)
		}
		st.Earliest, _ = time.Parse(time.RFC3339Nano, earliest)
		st.Latest, _ = time.Parse(time.RFC3339Nano, latest)
	}

	// Time-window counts.
	now := time.Now().UTC()
	for _, w := range []struct {
		dur time.Duration
		dst *int
	}{
		{24 * time.Hour, &st.Last24h},
		{7 * 24 * time.Hour, &st.Last7d},
		{30 * 24 * time.Hour, &st.Last30d},
	} {
		since := now.Add(-w.dur).Format(time.RFC3339Nano)
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sessions WHERE started_at >= ?", since).Scan(w.dst); err != nil {
			return st, fmt.Errorf("count since %v: %w", w.dur, err)
		}
	}

	return st, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// nullableTime returns nil for zero times, otherwise RFC3339Nano text.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
