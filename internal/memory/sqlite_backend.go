package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteBackend persists session memory in a SQLite database on the local
// device. No network synchronization.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) the database at path.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}

	b := &SQLiteBackend{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate memory database: %w", err)
	}

	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS session_log (
		log_id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		entry_id INTEGER NOT NULL,
		tier TEXT NOT NULL,
		source_tag TEXT NOT NULL,
		payload TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_session_log_entry ON session_log(session_id, entry_id);
	CREATE INDEX IF NOT EXISTS idx_session_log_timestamp ON session_log(session_id, timestamp);

	CREATE TABLE IF NOT EXISTS working_memory (
		session_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (session_id, key)
	);
	`
	_, err := b.db.Exec(schema)
	return err
}

// AppendLog persists an entry under the session. The unique index on
// (session_id, entry_id) makes the at-least-once mirror idempotent:
// a retried entry that already committed is ignored.
func (b *SQLiteBackend) AppendLog(sessionID string, e Entry) error {
	_, err := b.db.Exec(`
		INSERT OR IGNORE INTO session_log (session_id, entry_id, tier, source_tag, payload, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sessionID, e.ID, string(e.Tier), e.SourceTag, e.Payload, e.Timestamp)
	return err
}

// GetLogEntry returns the entry with the given store-assigned id.
func (b *SQLiteBackend) GetLogEntry(sessionID string, id int64) (Entry, bool, error) {
	var e Entry
	var tier string
	err := b.db.QueryRow(`
		SELECT entry_id, tier, source_tag, payload, timestamp
		FROM session_log
		WHERE session_id = ? AND entry_id = ?
	`, sessionID, id).Scan(&e.ID, &tier, &e.SourceTag, &e.Payload, &e.Timestamp)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	e.Tier = Tier(tier)
	return e, true, nil
}

// ListLog returns the most recent n entries for the session, oldest first.
func (b *SQLiteBackend) ListLog(sessionID string, n int) ([]Entry, error) {
	rows, err := b.db.Query(`
		SELECT entry_id, tier, source_tag, payload, timestamp
		FROM session_log
		WHERE session_id = ?
		ORDER BY entry_id DESC
		LIMIT ?
	`, sessionID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}

	// Reverse so oldest is first (we queried DESC for LIMIT).
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// SearchLog returns entries whose payload matches the pattern (case-insensitive LIKE).
func (b *SQLiteBackend) SearchLog(sessionID string, pattern string) ([]Entry, error) {
	rows, err := b.db.Query(`
		SELECT entry_id, tier, source_tag, payload, timestamp
		FROM session_log
		WHERE session_id = ? AND payload LIKE ?
		ORDER BY entry_id ASC
	`, sessionID, "%"+pattern+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var tier string
		if err := rows.Scan(&e.ID, &tier, &e.SourceTag, &e.Payload, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Tier = Tier(tier)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SetWorking upserts a working-tier value, last write wins.
func (b *SQLiteBackend) SetWorking(sessionID, key, value string) error {
	_, err := b.db.Exec(`
		INSERT OR REPLACE INTO working_memory (session_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, key, value, time.Now())
	return err
}

// GetWorking returns the full working map for the session.
func (b *SQLiteBackend) GetWorking(sessionID string) (map[string]string, error) {
	rows, err := b.db.Query(`
		SELECT key, value FROM working_memory WHERE session_id = ?
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	working := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		working[k] = v
	}
	return working, rows.Err()
}

// ListSessions returns session ids ordered by most recent activity.
func (b *SQLiteBackend) ListSessions(limit int) ([]string, error) {
	rows, err := b.db.Query(`
		SELECT session_id FROM session_log
		GROUP BY session_id
		ORDER BY MAX(log_id) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database connection.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
