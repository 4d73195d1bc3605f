package memory

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haven-oss/haven/internal/event"
	"github.com/haven-oss/haven/internal/telemetry"
)

// Options configures a Store.
type Options struct {
	SessionID      string
	Backend        Backend       // nil for memory-only operation
	ImmediateLimit int           // immediate tier bound before folding
	MirrorRetries  int           // durable mirror attempts per entry
	FoldInterval   time.Duration // background fold period, 0 disables
	Bus            *event.Bus
	Logger         *telemetry.Logger
	Metrics        *telemetry.Metrics
}

// Store is the tiered session memory: a bounded append-only immediate tier,
// a mutable key-value working tier, and pattern summaries folded from old
// immediate entries. Accepted entries are mirrored to the durable backend
// asynchronously; mirroring never blocks Append past the immediate-tier
// commit.
type Store struct {
	sessionID string
	backend   Backend
	limit     int
	retries   int
	bus       *event.Bus
	logger    *telemetry.Logger
	metrics   *telemetry.Metrics

	mu        sync.Mutex
	closed    bool
	nextID    int64
	patternID int64
	immediate []Entry
	patterns  []PatternSummary
	working   map[string]string

	degraded atomic.Bool

	mirrorCh chan Entry
	stop     chan struct{}
	wg       sync.WaitGroup
}

// NewStore creates a tiered store for one session. The backend handle is
// borrowed, not owned: Close flushes pending mirrors but leaves the backend
// open for other sessions.
func NewStore(opts Options) *Store {
	if opts.ImmediateLimit < 2 {
		opts.ImmediateLimit = 50
	}
	if opts.MirrorRetries < 1 {
		opts.MirrorRetries = 3
	}

	s := &Store{
		sessionID: opts.SessionID,
		backend:   opts.Backend,
		limit:     opts.ImmediateLimit,
		retries:   opts.MirrorRetries,
		bus:       opts.Bus,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		nextID:    1,
		working:   make(map[string]string),
		mirrorCh:  make(chan Entry, 4096),
		stop:      make(chan struct{}),
	}

	// Bootstrap the working tier from durable storage. Empty for a fresh
	// session id; restores counters when a caller reuses one.
	if s.backend != nil {
		if persisted, err := s.backend.GetWorking(s.sessionID); err == nil {
			for k, v := range persisted {
				s.working[k] = v
			}
		}
	}

	s.wg.Add(1)
	go s.mirrorLoop()

	if opts.FoldInterval > 0 {
		s.wg.Add(1)
		go s.foldLoop(opts.FoldInterval)
	}

	return s
}

// Append records a new entry: assigns a monotonically increasing id and
// timestamp, commits it to the immediate tier synchronously, and schedules
// durable mirroring. Returns the zero Entry after Close.
func (s *Store) Append(tier Tier, payload, sourceTag string) (Entry, bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Entry{}, false
	}

	e := Entry{
		ID:        s.nextID,
		Tier:      tier,
		Timestamp: time.Now(),
		Payload:   payload,
		SourceTag: sourceTag,
	}
	s.nextID++
	s.immediate = append(s.immediate, e)
	folded := s.foldLocked()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.IncEntriesAppended()
	}
	s.emitFold(folded)

	// Schedule the durable mirror without blocking the caller.
	select {
	case s.mirrorCh <- e:
	default:
		go func() {
			select {
			case s.mirrorCh <- e:
			case <-s.stop:
			}
		}()
	}

	return e, true
}

// GetByID returns an entry by id: the immediate tier first, then the
// durable log. Folded entries remain reachable through the backend.
func (s *Store) GetByID(id int64) (Entry, bool) {
	s.mu.Lock()
	for _, e := range s.immediate {
		if e.ID == id {
			s.mu.Unlock()
			return e, true
		}
	}
	s.mu.Unlock()

	if s.backend == nil {
		return Entry{}, false
	}
	e, ok, err := s.backend.GetLogEntry(s.sessionID, id)
	if err != nil || !ok {
		return Entry{}, false
	}
	return e, true
}

// GetContext returns a point-in-time snapshot: the newest depth immediate
// entries, all pattern summaries, and the full working map. Entries
// appended after the snapshot never appear in it.
func (s *Store) GetContext(depth int) Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	immediate := s.immediate
	if depth >= 0 && len(immediate) > depth {
		immediate = immediate[len(immediate)-depth:]
	}
	ctx := Context{
		SessionID: s.sessionID,
		Immediate: make([]Entry, len(immediate)),
		Patterns:  make([]PatternSummary, len(s.patterns)),
		Working:   make(map[string]string, len(s.working)),
	}
	copy(ctx.Immediate, immediate)
	copy(ctx.Patterns, s.patterns)
	for k, v := range s.working {
		ctx.Working[k] = v
	}
	return ctx
}

// Update sets a working-tier value, last write wins. The value is written
// through to durable storage best-effort.
func (s *Store) Update(key, value string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.working[key] = value
	backend := s.backend
	s.mu.Unlock()

	if backend != nil {
		// Best-effort persist; working-tier state is reconstructible.
		_ = backend.SetWorking(s.sessionID, key, value)
	}
}

// Get returns a working-tier value.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.working[key]
	return v, ok
}

// Search returns immediate-tier and durable-log entries whose payload
// contains the pattern.
func (s *Store) Search(pattern string) []Entry {
	seen := make(map[int64]bool)
	var results []Entry

	if s.backend != nil {
		if persisted, err := s.backend.SearchLog(s.sessionID, pattern); err == nil {
			for _, e := range persisted {
				results = append(results, e)
				seen[e.ID] = true
			}
		}
	}

	lower := strings.ToLower(pattern)
	s.mu.Lock()
	for _, e := range s.immediate {
		if !seen[e.ID] && strings.Contains(strings.ToLower(e.Payload), lower) {
			results = append(results, e)
		}
	}
	s.mu.Unlock()

	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results
}

// FoldToPatternTier summarizes the oldest immediate entries into a pattern
// record and removes them from the immediate tier when the tier exceeds its
// bound. The durable log keeps the full raw entries independently; folding
// never touches it.
func (s *Store) FoldToPatternTier() {
	s.mu.Lock()
	folded := s.foldLocked()
	s.mu.Unlock()
	s.emitFold(folded)
}

// foldLocked folds down to half the bound so appends don't fold one entry
// at a time. Caller holds s.mu. Returns the new summary, or nil.
func (s *Store) foldLocked() *PatternSummary {
	if len(s.immediate) <= s.limit {
		return nil
	}
	return s.foldDownLocked(s.limit / 2)
}

// foldDownLocked folds all but keep entries into a pattern summary. Caller
// holds s.mu. Returns the new summary, or nil when the tier already fits.
func (s *Store) foldDownLocked(keep int) *PatternSummary {
	if len(s.immediate) <= keep {
		return nil
	}

	old := s.immediate[:len(s.immediate)-keep]
	summary := s.summarize(old)

	remaining := make([]Entry, keep)
	copy(remaining, s.immediate[len(s.immediate)-keep:])
	s.immediate = remaining
	s.patterns = append(s.patterns, summary)

	return &summary
}

func (s *Store) emitFold(summary *PatternSummary) {
	if summary == nil {
		return
	}
	if s.metrics != nil {
		s.metrics.IncTierFolds()
	}
	if s.logger != nil {
		s.logger.Debug("folded immediate entries into pattern tier",
			"session", s.sessionID,
			"entries", summary.EntryCount,
			"first_id", summary.FirstID,
			"last_id", summary.LastID,
		)
	}
	s.bus.Emit(event.NewEvent(event.MemoryFolded, map[string]interface{}{
		"session":  s.sessionID,
		"entries":  summary.EntryCount,
		"first_id": summary.FirstID,
		"last_id":  summary.LastID,
	}))
}

// summarize aggregates statistics and motifs from entries. Raw content is
// never carried into the summary. Caller holds s.mu.
func (s *Store) summarize(entries []Entry) PatternSummary {
	summary := PatternSummary{
		ID:         s.patternID + 1,
		CreatedAt:  time.Now(),
		EntryCount: len(entries),
		ByTier:     make(map[Tier]int),
		BySource:   make(map[string]int),
	}
	s.patternID++

	if len(entries) > 0 {
		summary.FirstID = entries[0].ID
		summary.LastID = entries[len(entries)-1].ID
		summary.From = entries[0].Timestamp
		summary.To = entries[len(entries)-1].Timestamp
	}

	counts := make(map[string]int)
	for _, e := range entries {
		summary.ByTier[e.Tier]++
		summary.BySource[e.SourceTag]++
		for _, word := range strings.Fields(strings.ToLower(e.Payload)) {
			word = strings.Trim(word, ".,!?;:'\"()")
			if len(word) >= 4 && !stopwords[word] {
				counts[word]++
			}
		}
	}
	summary.Motifs = topMotifs(counts, 5)

	return summary
}

var stopwords = map[string]bool{
	"this": true, "that": true, "with": true, "have": true, "what": true,
	"your": true, "about": true, "would": true, "could": true, "should": true,
	"them": true, "they": true, "then": true, "than": true, "when": true,
	"from": true, "were": true, "there": true, "here": true, "just": true,
}

func topMotifs(counts map[string]int, n int) []string {
	type wc struct {
		word  string
		count int
	}
	all := make([]wc, 0, len(counts))
	for w, c := range counts {
		if c >= 2 {
			all = append(all, wc{w, c})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].word < all[j].word
	})
	if len(all) > n {
		all = all[:n]
	}
	motifs := make([]string, len(all))
	for i, w := range all {
		motifs[i] = w.word
	}
	return motifs
}

// Degraded reports whether durable mirroring has exhausted its retries for
// at least one entry this session.
func (s *Store) Degraded() bool {
	return s.degraded.Load()
}

// Len returns the immediate tier size.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.immediate)
}

// Close stops background work, flushes pending mirrors, and wipes the
// in-memory tiers. The durable backend is left open and intact for later
// sessions to read as previous-session context.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	// mirrorCh is never closed: a racing Append may still be sending on it.
	// Workers stop via the stop signal; mirrorLoop drains the queue first.
	close(s.stop)
	s.wg.Wait()

	s.mu.Lock()
	s.immediate = nil
	s.patterns = nil
	s.working = nil
	s.mu.Unlock()
}

// mirrorLoop drains the mirror queue in order, preserving the durable log
// as a consistent copy of the append sequence. On shutdown it flushes
// whatever is already queued before returning.
func (s *Store) mirrorLoop() {
	defer s.wg.Done()
	for {
		select {
		case e := <-s.mirrorCh:
			s.mirrorEntry(e)
		case <-s.stop:
			for {
				select {
				case e := <-s.mirrorCh:
					s.mirrorEntry(e)
				default:
					return
				}
			}
		}
	}
}

// foldLoop compacts the immediate tier on a fixed interval, independent of
// append pressure, so long-idle sessions still shed old raw entries. It
// folds down to half the bound, the same resting size appends fold to.
func (s *Store) foldLoop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			folded := s.foldDownLocked(s.limit / 2)
			s.mu.Unlock()
			s.emitFold(folded)
		case <-s.stop:
			return
		}
	}
}

// mirrorEntry writes one entry to the durable backend with bounded retries.
// After exhaustion the in-memory copy is kept and a degraded signal is
// surfaced; the entry is not lost for the remainder of the session.
func (s *Store) mirrorEntry(e Entry) {
	if s.backend == nil {
		return
	}

	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		if attempt > 0 {
			if s.metrics != nil {
				s.metrics.IncPersistRetries()
			}
			time.Sleep(mirrorBackoff(attempt))
		}
		if err := s.backend.AppendLog(s.sessionID, e); err != nil {
			lastErr = err
			continue
		}
		return
	}

	s.degraded.Store(true)
	if s.logger != nil {
		s.logger.Warn("durable mirror exhausted retries, keeping in-memory copy",
			"session", s.sessionID,
			"entry_id", e.ID,
			"error", lastErr,
		)
	}
	s.bus.Emit(event.NewEvent(event.PersistenceDegraded, map[string]interface{}{
		"session":  s.sessionID,
		"entry_id": e.ID,
	}))
}

const (
	mirrorInitialBackoff = 50 * time.Millisecond
	mirrorMaxBackoff     = 2 * time.Second
	mirrorJitterFraction = 0.2
)

// mirrorBackoff computes the delay before retry attempt n: exponential with
// jitter so a struggling backend isn't hit in lockstep.
func mirrorBackoff(attempt int) time.Duration {
	backoff := float64(mirrorInitialBackoff) * math.Pow(2, float64(attempt-1))
	if backoff > float64(mirrorMaxBackoff) {
		backoff = float64(mirrorMaxBackoff)
	}
	jitter := backoff * mirrorJitterFraction * (2*rand.Float64() - 1)
	return time.Duration(backoff + jitter)
}
