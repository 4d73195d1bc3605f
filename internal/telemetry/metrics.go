package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects runtime metrics for the session core.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	MessagesSent      int64
	RemoteReplies     int64
	LocalFallbacks    int64
	TransportFailures int64
	PersistRetries    int64
	EntriesAppended   int64
	TierFolds         int64

	// Gauges
	ActiveSessions int64

	// Histograms (simplified)
	sendDurations    []time.Duration
	channelLatencies []time.Duration

	// Exporter (optional)
	exporter MetricsExporter
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		sendDurations:    make([]time.Duration, 0, 1000),
		channelLatencies: make([]time.Duration, 0, 1000),
	}
}

// IncMessagesSent increments the messages sent counter.
func (m *Metrics) IncMessagesSent() {
	atomic.AddInt64(&m.MessagesSent, 1)
}

// IncRemoteReplies increments the remote replies counter.
func (m *Metrics) IncRemoteReplies() {
	atomic.AddInt64(&m.RemoteReplies, 1)
}

// IncLocalFallbacks increments the local fallback counter.
func (m *Metrics) IncLocalFallbacks() {
	atomic.AddInt64(&m.LocalFallbacks, 1)
}

// IncTransportFailures increments the per-channel failure counter.
func (m *Metrics) IncTransportFailures() {
	atomic.AddInt64(&m.TransportFailures, 1)
}

// IncPersistRetries increments the durable mirror retry counter.
func (m *Metrics) IncPersistRetries() {
	atomic.AddInt64(&m.PersistRetries, 1)
}

// IncEntriesAppended increments the appended entry counter.
func (m *Metrics) IncEntriesAppended() {
	atomic.AddInt64(&m.EntriesAppended, 1)
}

// IncTierFolds increments the pattern fold counter.
func (m *Metrics) IncTierFolds() {
	atomic.AddInt64(&m.TierFolds, 1)
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	atomic.AddInt64(&m.ActiveSessions, 1)
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	atomic.AddInt64(&m.ActiveSessions, -1)
}

// RecordSendDuration records an end-to-end Send duration.
func (m *Metrics) RecordSendDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendDurations = append(m.sendDurations, d)
}

// RecordChannelLatency records a single transport attempt latency.
func (m *Metrics) RecordChannelLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channelLatencies = append(m.channelLatencies, d)
}

// GetSummary returns a summary of collected metrics.
func (m *Metrics) GetSummary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := map[string]interface{}{
		"messages_sent":      atomic.LoadInt64(&m.MessagesSent),
		"remote_replies":     atomic.LoadInt64(&m.RemoteReplies),
		"local_fallbacks":    atomic.LoadInt64(&m.LocalFallbacks),
		"transport_failures": atomic.LoadInt64(&m.TransportFailures),
		"persist_retries":    atomic.LoadInt64(&m.PersistRetries),
		"entries_appended":   atomic.LoadInt64(&m.EntriesAppended),
		"tier_folds":         atomic.LoadInt64(&m.TierFolds),
		"active_sessions":    atomic.LoadInt64(&m.ActiveSessions),
	}

	if len(m.sendDurations) > 0 {
		var total time.Duration
		for _, d := range m.sendDurations {
			total += d
		}
		summary["avg_send_duration_ms"] = total.Milliseconds() / int64(len(m.sendDurations))
	}

	if len(m.channelLatencies) > 0 {
		var total time.Duration
		for _, d := range m.channelLatencies {
			total += d
		}
		summary["avg_channel_latency_ms"] = total.Milliseconds() / int64(len(m.channelLatencies))
	}

	return summary
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	atomic.StoreInt64(&m.MessagesSent, 0)
	atomic.StoreInt64(&m.RemoteReplies, 0)
	atomic.StoreInt64(&m.LocalFallbacks, 0)
	atomic.StoreInt64(&m.TransportFailures, 0)
	atomic.StoreInt64(&m.PersistRetries, 0)
	atomic.StoreInt64(&m.EntriesAppended, 0)
	atomic.StoreInt64(&m.TierFolds, 0)
	atomic.StoreInt64(&m.ActiveSessions, 0)

	m.sendDurations = m.sendDurations[:0]
	m.channelLatencies = m.channelLatencies[:0]
}

// SetExporter attaches a metrics exporter.
func (m *Metrics) SetExporter(e MetricsExporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exporter = e
}

// Flush exports the current metrics snapshot with the given event label.
func (m *Metrics) Flush(event string, labels map[string]string) {
	m.mu.RLock()
	exporter := m.exporter
	m.mu.RUnlock()

	if exporter == nil {
		return
	}

	snapshot := MetricsSnapshot{
		Timestamp: time.Now(),
		Event:     event,
		Metrics:   m.GetSummary(),
		Labels:    labels,
	}
	// Best-effort export.
	_ = exporter.Export(snapshot)
}
