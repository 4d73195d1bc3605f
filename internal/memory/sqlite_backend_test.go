package memory

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestBackend(t *testing.T) *SQLiteBackend {
	t.Helper()
	backend, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestSQLiteBackend_AppendAndList(t *testing.T) {
	b := newTestBackend(t)

	now := time.Now().Truncate(time.Second)
	for i := int64(1); i <= 3; i++ {
		err := b.AppendLog("s1", Entry{
			ID:        i,
			Tier:      TierOutgoing,
			Timestamp: now.Add(time.Duration(i) * time.Second),
			Payload:   "msg",
			SourceTag: "user",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	entries, err := b.ListLog("s1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].ID != 1 || entries[2].ID != 3 {
		t.Errorf("entries not oldest-first: %v", entries)
	}

	// Limit keeps the newest.
	limited, err := b.ListLog("s1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 || limited[0].ID != 2 {
		t.Errorf("unexpected limited result: %v", limited)
	}
}

func TestSQLiteBackend_AppendIdempotent(t *testing.T) {
	b := newTestBackend(t)

	e := Entry{ID: 1, Tier: TierOutgoing, Timestamp: time.Now(), Payload: "once", SourceTag: "user"}
	if err := b.AppendLog("s1", e); err != nil {
		t.Fatal(err)
	}
	// A retried mirror of the same entry must not duplicate it.
	if err := b.AppendLog("s1", e); err != nil {
		t.Fatal(err)
	}

	entries, err := b.ListLog("s1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after duplicate append, got %d", len(entries))
	}
}

func TestSQLiteBackend_SessionPartitioning(t *testing.T) {
	b := newTestBackend(t)

	b.AppendLog("s1", Entry{ID: 1, Tier: TierOutgoing, Timestamp: time.Now(), Payload: "from s1", SourceTag: "user"})
	b.AppendLog("s2", Entry{ID: 1, Tier: TierOutgoing, Timestamp: time.Now(), Payload: "from s2", SourceTag: "user"})

	e, ok, err := b.GetLogEntry("s1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || e.Payload != "from s1" {
		t.Errorf("cross-session leak: %+v", e)
	}

	entries, _ := b.ListLog("s2", 10)
	if len(entries) != 1 || entries[0].Payload != "from s2" {
		t.Errorf("unexpected s2 log: %v", entries)
	}
}

func TestSQLiteBackend_Search(t *testing.T) {
	b := newTestBackend(t)

	b.AppendLog("s1", Entry{ID: 1, Tier: TierOutgoing, Timestamp: time.Now(), Payload: "I like algebra", SourceTag: "user"})
	b.AppendLog("s1", Entry{ID: 2, Tier: TierIncoming, Timestamp: time.Now(), Payload: "Geometry is fun", SourceTag: "edge"})
	b.AppendLog("s1", Entry{ID: 3, Tier: TierOutgoing, Timestamp: time.Now(), Payload: "Algebra homework", SourceTag: "user"})

	results, err := b.SearchLog("s1", "algebra")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestSQLiteBackend_WorkingMap(t *testing.T) {
	b := newTestBackend(t)

	b.SetWorking("s1", "k", "v1")
	b.SetWorking("s1", "k", "v2")
	b.SetWorking("s1", "other", "x")

	working, err := b.GetWorking("s1")
	if err != nil {
		t.Fatal(err)
	}
	if working["k"] != "v2" {
		t.Errorf("expected last write to win, got %q", working["k"])
	}
	if len(working) != 2 {
		t.Errorf("expected 2 keys, got %d", len(working))
	}
}

func TestSQLiteBackend_ListSessions(t *testing.T) {
	b := newTestBackend(t)

	b.AppendLog("old-session", Entry{ID: 1, Tier: TierOutgoing, Timestamp: time.Now(), Payload: "a", SourceTag: "user"})
	b.AppendLog("new-session", Entry{ID: 1, Tier: TierOutgoing, Timestamp: time.Now(), Payload: "b", SourceTag: "user"})

	ids, err := b.ListSessions(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "new-session" {
		t.Errorf("expected most recent first, got %v", ids)
	}
}

func TestSQLiteBackend_ReopenSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "restart.db")

	b1, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatal(err)
	}
	b1.AppendLog("s1", Entry{ID: 1, Tier: TierOutgoing, Timestamp: time.Now(), Payload: "durable", SourceTag: "user"})
	b1.SetWorking("s1", "k", "v")
	b1.Close()

	b2, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b2.Close()

	e, ok, err := b2.GetLogEntry("s1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || e.Payload != "durable" {
		t.Error("log did not survive reopen")
	}
	working, _ := b2.GetWorking("s1")
	if working["k"] != "v" {
		t.Error("working map did not survive reopen")
	}
}
