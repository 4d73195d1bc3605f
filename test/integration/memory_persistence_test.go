//go:build integration

package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/haven-oss/haven/internal/config"
	"github.com/haven-oss/haven/internal/memory"
	"github.com/haven-oss/haven/internal/session"
)

func TestDurableMemoryAcrossSessions(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "haven.db")

	cfg := config.DefaultConfig()
	cfg.Session.TransportPriority = []string{"local"}
	cfg.Session.StorageMode = "durable"
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.Path = dbPath

	// --- Session 1: send two messages, close ---
	first, err := session.Open(session.Options{Config: cfg})
	if err != nil {
		t.Fatal(err)
	}
	firstID := first.ID()

	for _, msg := range []string{"help me with my homework", "explain long division"} {
		if _, err := first.Send(context.Background(), msg, nil); err != nil {
			t.Fatal(err)
		}
	}
	first.Close()
	time.Sleep(10 * time.Millisecond) // ensure DB is flushed

	// --- Session 2: prior context must be visible ---
	second, err := session.Open(session.Options{Config: cfg})
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	prior, err := second.PreviousContext(10)
	if err != nil {
		t.Fatal(err)
	}

	entries := prior[firstID]
	if len(entries) != 4 {
		t.Fatalf("prior entries = %d, want 4 (2 outgoing + 2 incoming)", len(entries))
	}
	for _, e := range entries {
		if e.Tier == memory.TierOutgoing && e.SourceTag != "user" {
			t.Errorf("outgoing entry tagged %q", e.SourceTag)
		}
	}
}
