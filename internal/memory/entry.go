package memory

import "time"

// Tier names the partition an entry was recorded under.
type Tier string

const (
	TierImmediate Tier = "immediate"
	TierOutgoing  Tier = "outgoing"
	TierIncoming  Tier = "incoming"
)

// Entry is one immutable record in the immediate tier. Corrections are new
// entries, never in-place edits.
type Entry struct {
	ID        int64     `json:"id"`
	Tier      Tier      `json:"tier"`
	Timestamp time.Time `json:"timestamp"`
	Payload   string    `json:"payload"`
	SourceTag string    `json:"source_tag"` // user, edge, peer, local-fallback
}

// PatternSummary is an aggregate produced by folding old immediate entries.
// It carries statistics and detected motifs, never raw content.
type PatternSummary struct {
	ID         int64          `json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	EntryCount int            `json:"entry_count"`
	FirstID    int64          `json:"first_id"`
	LastID     int64          `json:"last_id"`
	From       time.Time      `json:"from"`
	To         time.Time      `json:"to"`
	ByTier     map[Tier]int   `json:"by_tier"`
	BySource   map[string]int `json:"by_source"`
	Motifs     []string       `json:"motifs,omitempty"` // most frequent content words
}

// Context is a point-in-time snapshot of the three tiers, fed to the
// response synthesizer.
type Context struct {
	SessionID string            `json:"session_id"`
	Immediate []Entry           `json:"immediate"`
	Patterns  []PatternSummary  `json:"patterns"`
	Working   map[string]string `json:"working"`
}
