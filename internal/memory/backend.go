package memory

// Backend persists session memory on the local device. Implementations
// hold two logical namespaces: an append-only message log and a key-value
// working map. The handle is process-wide; entries are partitioned by
// session id and no cross-session mutation is permitted.
type Backend interface {
	// AppendLog persists an entry under the session. The entry keeps the
	// id the store assigned; the backend's own log key auto-increments
	// independently.
	AppendLog(sessionID string, e Entry) error

	// GetLogEntry returns the entry with the given store-assigned id,
	// or ok=false if absent.
	GetLogEntry(sessionID string, id int64) (Entry, bool, error)

	// ListLog returns the most recent n entries for the session, oldest first.
	ListLog(sessionID string, n int) ([]Entry, error)

	// SearchLog returns entries whose payload matches the pattern
	// (case-insensitive contains), oldest first.
	SearchLog(sessionID string, pattern string) ([]Entry, error)

	// SetWorking upserts a working-tier value, last write wins.
	SetWorking(sessionID, key, value string) error

	// GetWorking returns the full working map for the session.
	GetWorking(sessionID string) (map[string]string, error)

	// ListSessions returns ids of sessions with logged entries, most
	// recently active first.
	ListSessions(limit int) ([]string, error)

	// Close releases any resources held by the backend.
	Close() error
}
