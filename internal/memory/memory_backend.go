package memory

import (
	"sort"
	"strings"
	"sync"
)

// MemoryBackend is an in-memory Backend. It is the degraded-mode fallback
// when the sqlite backend cannot be opened, and the test double.
type MemoryBackend struct {
	mu      sync.RWMutex
	logs    map[string][]Entry           // session id -> log
	working map[string]map[string]string // session id -> working map
	order   []string                     // session ids by first activity
}

// NewMemoryBackend creates a new in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		logs:    make(map[string][]Entry),
		working: make(map[string]map[string]string),
	}
}

// AppendLog persists an entry under the session. Idempotent per entry id.
func (b *MemoryBackend) AppendLog(sessionID string, e Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.logs[sessionID] {
		if existing.ID == e.ID {
			return nil
		}
	}
	if _, ok := b.logs[sessionID]; !ok {
		b.order = append(b.order, sessionID)
	}
	b.logs[sessionID] = append(b.logs[sessionID], e)
	return nil
}

// GetLogEntry returns the entry with the given store-assigned id.
func (b *MemoryBackend) GetLogEntry(sessionID string, id int64) (Entry, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, e := range b.logs[sessionID] {
		if e.ID == id {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

// ListLog returns the most recent n entries for the session, oldest first.
func (b *MemoryBackend) ListLog(sessionID string, n int) ([]Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	log := b.logs[sessionID]
	sorted := make([]Entry, len(log))
	copy(sorted, log)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted, nil
}

// SearchLog returns entries whose payload contains the pattern, oldest first.
func (b *MemoryBackend) SearchLog(sessionID string, pattern string) ([]Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	lower := strings.ToLower(pattern)
	var results []Entry
	for _, e := range b.logs[sessionID] {
		if strings.Contains(strings.ToLower(e.Payload), lower) {
			results = append(results, e)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

// SetWorking upserts a working-tier value.
func (b *MemoryBackend) SetWorking(sessionID, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.working[sessionID] == nil {
		b.working[sessionID] = make(map[string]string)
	}
	b.working[sessionID][key] = value
	return nil
}

// GetWorking returns a copy of the working map for the session.
func (b *MemoryBackend) GetWorking(sessionID string) (map[string]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]string, len(b.working[sessionID]))
	for k, v := range b.working[sessionID] {
		out[k] = v
	}
	return out, nil
}

// ListSessions returns session ids, most recently started first.
func (b *MemoryBackend) ListSessions(limit int) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.order))
	for i := len(b.order) - 1; i >= 0 && len(ids) < limit; i-- {
		ids = append(ids, b.order[i])
	}
	return ids, nil
}

// Close closes the backend (no-op for memory).
func (b *MemoryBackend) Close() error {
	return nil
}
