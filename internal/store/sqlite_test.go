package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sqlpilot/sqlpilot/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSession(id string, started time.Time) *model.Session {
	sess := &model.Session{
		ID:        id,
		TargetURL: "http://target.example/?id=1",
		Command:   []string{"sqlmap", "-u", "http://target.example/?id=1", "--batch"},
		State:     model.StateCompleted,
		StartedAt: started,
	}
	sess.FinishedAt = started.Add(2 * time.Minute)
	return sess
}

func TestNewCreatesDir(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")
	s, err := New(filepath.Join(nested, "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	if _, err := os.Stat(nested); err != nil {
		t.Errorf("expected directory %s to exist: %v", nested, err)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s1, err := New(dbPath)
	if err != nil {
		t.Fatalf("first New: %v", err)
	}
	s1.Close()

	s2, err := New(dbPath)
	if err != nil {
		t.Fatalf("second New: %v", err)
	}
	s2.Close()
}

func TestSaveAndGetSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	sess := testSession("session_1772366400", started)
	sess.Append(model.Suggestion{
		ID: "sug-1", ClassID: "500", Timestamp: started.Add(10 * time.Second),
		Remedy: model.Remedy{Tampers: []string{"between"}, Params: []string{"--level=3"}},
	})
	sess.Append(model.Suggestion{
		ID: "sug-2", ClassID: "cloudflare", Timestamp: started.Add(20 * time.Second),
		Remedy: model.Remedy{
			Tampers:  []string{"randomcase", "space2plus"},
			Params:   []string{"--delay=7", "--proxy=http://10.0.0.1:8080"},
			Advanced: []string{"--flush-session"},
		},
	})

	if err := s.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got == nil {
		t.Fatal("GetSession returned nil")
	}
	if got.TargetURL != sess.TargetURL || got.State != model.StateCompleted {
		t.Errorf("session = %+v", got)
	}
	if len(got.Suggestions) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(got.Suggestions))
	}
	// Stored history keeps arrival order.
	if got.Suggestions[0].ClassID != "500" || got.Suggestions[1].ClassID != "cloudflare" {
		t.Errorf("order = %q, %q", got.Suggestions[0].ClassID, got.Suggestions[1].ClassID)
	}
	if got.Suggestions[1].Remedy.Advanced[0] != "--flush-session" {
		t.Errorf("remedy round-trip lost advanced params: %+v", got.Suggestions[1].Remedy)
	}
}

func TestGetSessionUnknown(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetSession(context.Background(), "session_0")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestListSessionsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	old := testSession("session_a", base)
	recent := testSession("session_b", base.Add(48*time.Hour))
	aborted := testSession("session_c", base.Add(72*time.Hour))
	aborted.State = model.StateAborted
	aborted.Append(model.Suggestion{ID: "s1", ClassID: "500", Timestamp: base})

	for _, sess := range []*model.Session{old, recent, aborted} {
		if err := s.SaveSession(ctx, sess); err != nil {
			t.Fatalf("SaveSession(%s): %v", sess.ID, err)
		}
	}

	all, err := s.ListSessions(ctx, ListOpts{})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d sessions, want 3", len(all))
	}
	// Newest first.
	if all[0].ID != "session_c" || all[2].ID != "session_a" {
		t.Errorf("order = %v", []string{all[0].ID, all[1].ID, all[2].ID})
	}
	if all[0].SuggestionCount != 1 {
		t.Errorf("suggestion count = %d, want 1", all[0].SuggestionCount)
	}

	since, err := s.ListSessions(ctx, ListOpts{Since: base.Add(24 * time.Hour)})
	if err != nil {
		t.Fatalf("ListSessions since: %v", err)
	}
	if len(since) != 2 {
		t.Errorf("since filter: got %d, want 2", len(since))
	}

	abortedOnly, err := s.ListSessions(ctx, ListOpts{State: model.StateAborted})
	if err != nil {
		t.Fatalf("ListSessions state: %v", err)
	}
	if len(abortedOnly) != 1 || abortedOnly[0].ID != "session_c" {
		t.Errorf("state filter: %+v", abortedOnly)
	}

	limited, err := s.ListSessions(ctx, ListOpts{Limit: 1})
	if err != nil {
		t.Fatalf("ListSessions limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit filter: got %d, want 1", len(limited))
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	sess := testSession("session_x", now.Add(-time.Hour))
	for i, class := range []string{"500", "500", "cloudflare"} {
		sess.Append(model.Suggestion{
			ID: string(rune('a' + i)), ClassID: class, Timestamp: now,
			Remedy: model.Remedy{Tampers: []string{"between"}, Params: []string{"--level=2"}},
		})
	}
	if err := s.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalSessions != 1 || st.TotalSuggestions != 3 {
		t.Errorf("totals = %d sessions, %d suggestions", st.TotalSessions, st.TotalSuggestions)
	}
	if len(st.TopClasses) == 0 || st.TopClasses[0].Name != "500" || st.TopClasses[0].Count != 2 {
		t.Errorf("top classes = %+v", st.TopClasses)
	}
	if st.Last24h != 1 {
		t.Errorf("last24h = %d, want 1", st.Last24h)
	}
}
