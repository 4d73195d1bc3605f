package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestJSONFileExporter_Export(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".haven", "metrics.jsonl")

	exporter, err := NewJSONFileExporter(path)
	if err != nil {
		t.Fatal(err)
	}
	defer exporter.Close()

	snapshot := MetricsSnapshot{
		Timestamp: time.Now(),
		Event:     "message.sent",
		Metrics: map[string]interface{}{
			"messages_sent":   int64(5),
			"local_fallbacks": int64(2),
		},
		Labels: map[string]string{
			"session": "abc123",
		},
	}

	if err := exporter.Export(snapshot); err != nil {
		t.Fatal(err)
	}

	// Write another snapshot
	snapshot.Event = "session.closed"
	if err := exporter.Export(snapshot); err != nil {
		t.Fatal(err)
	}

	exporter.Close()

	// Read and verify
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSONL lines, got %d", len(lines))
	}

	var parsed MetricsSnapshot
	if err := json.Unmarshal([]byte(lines[0]), &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.Event != "message.sent" {
		t.Errorf("expected event 'message.sent', got %q", parsed.Event)
	}
}

func TestMetrics_FlushWithExporter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metrics.jsonl")

	exporter, err := NewJSONFileExporter(path)
	if err != nil {
		t.Fatal(err)
	}

	m := NewMetrics()
	m.SetExporter(exporter)
	m.IncMessagesSent()
	m.IncTransportFailures()
	m.IncLocalFallbacks()

	m.Flush("message.sent", map[string]string{"session": "s1"})
	exporter.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var parsed MetricsSnapshot
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.Metrics["messages_sent"].(float64) != 1 {
		t.Errorf("expected 1 message sent, got %v", parsed.Metrics["messages_sent"])
	}
	if parsed.Labels["session"] != "s1" {
		t.Errorf("expected session label s1, got %q", parsed.Labels["session"])
	}
}

func TestMetrics_Summary(t *testing.T) {
	m := NewMetrics()
	m.IncMessagesSent()
	m.IncMessagesSent()
	m.IncLocalFallbacks()
	m.SessionOpened()
	m.RecordSendDuration(20 * time.Millisecond)
	m.RecordSendDuration(40 * time.Millisecond)

	summary := m.GetSummary()
	if summary["messages_sent"].(int64) != 2 {
		t.Errorf("expected 2 messages sent, got %v", summary["messages_sent"])
	}
	if summary["local_fallbacks"].(int64) != 1 {
		t.Errorf("expected 1 local fallback, got %v", summary["local_fallbacks"])
	}
	if summary["active_sessions"].(int64) != 1 {
		t.Errorf("expected 1 active session, got %v", summary["active_sessions"])
	}
	if summary["avg_send_duration_ms"].(int64) != 30 {
		t.Errorf("expected avg 30ms, got %v", summary["avg_send_duration_ms"])
	}

	m.Reset()
	summary = m.GetSummary()
	if summary["messages_sent"].(int64) != 0 {
		t.Error("expected counters reset to zero")
	}
}
