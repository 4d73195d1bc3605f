// Package session orchestrates one conversation: ephemeral key material,
// the tiered memory store, and the transport fallback chain. A session is
// the only object callers interact with; everything underneath is wired at
// Open and torn down at Close.
package session

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haven-oss/haven/internal/config"
	"github.com/haven-oss/haven/internal/crypto"
	havenErrors "github.com/haven-oss/haven/internal/errors"
	"github.com/haven-oss/haven/internal/event"
	"github.com/haven-oss/haven/internal/memory"
	"github.com/haven-oss/haven/internal/synth"
	"github.com/haven-oss/haven/internal/telemetry"
	"github.com/haven-oss/haven/internal/transport"
)

// Options carries the collaborators a session is built from. Backend and
// Link are optional; the session degrades rather than failing when the
// durable backend is unavailable.
type Options struct {
	Config  *config.Config
	Backend memory.Backend     // shared durable backend; nil means open one per config
	Link    transport.PeerLink // established peer link, nil when none
	Bus     *event.Bus
	Logger  *telemetry.Logger
	Metrics *telemetry.Metrics
}

// Reply is the outcome of a Send. Channel names the channel that produced
// the text; Local marks synthesized replies, whether from the local channel
// or the total-failure fallback.
type Reply struct {
	Text      string
	Channel   string
	Local     bool
	Timestamp time.Time
}

// Session is an ephemeral conversation scope. Key material and in-memory
// tiers live exactly as long as the session; the durable log outlives it.
type Session struct {
	id        string
	createdAt time.Time
	cfg       *config.Config

	keys     *crypto.Keypair
	store    *memory.Store
	synth    *synth.Synthesizer
	channels []transport.Channel

	backend    memory.Backend
	ownBackend bool

	bus     *event.Bus
	logger  *telemetry.Logger
	metrics *telemetry.Metrics

	sendMu sync.Mutex // serializes Send; ids observe call order

	mu           sync.Mutex
	closed       bool
	initDegraded bool
}

// Open creates a session: generates the session id and (when encryption is
// enabled) an ephemeral keypair, opens or degrades the durable backend, and
// builds the channel chain in configured priority order. A failing durable
// backend is a warning, not an abort: the session runs memory-only with
// Degraded() reporting true.
func Open(opts Options) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewLogger(false)
	}

	s := &Session{
		id:        uuid.New().String(),
		createdAt: time.Now(),
		cfg:       cfg,
		backend:   opts.Backend,
		bus:       opts.Bus,
		logger:    logger,
		metrics:   opts.Metrics,
	}

	if cfg.Session.UseEncryption {
		keys, err := crypto.GenerateSessionKeys()
		if err != nil {
			return nil, havenErrors.Wrap(havenErrors.CodeInitFailed, "failed to generate session keys", err)
		}
		s.keys = keys
	}

	if s.backend == nil && cfg.Session.StorageMode == "durable" {
		switch cfg.Storage.Driver {
		case "sqlite":
			backend, err := memory.NewSQLiteBackend(cfg.Storage.Path)
			if err != nil {
				initErr := havenErrors.Wrap(havenErrors.CodeInitFailed, "durable storage unavailable, running memory-only", err).
					WithSuggestion("Check the storage path in haven.yaml and its directory permissions")
				logger.Warn("session degraded at open", "error", initErr.Error(), "path", cfg.Storage.Path)
				s.initDegraded = true
			} else {
				s.backend = backend
				s.ownBackend = true
			}
		default:
			s.backend = memory.NewMemoryBackend()
			s.ownBackend = true
		}
	}

	s.store = memory.NewStore(memory.Options{
		SessionID:      s.id,
		Backend:        s.backend,
		ImmediateLimit: cfg.Memory.ImmediateLimit,
		MirrorRetries:  cfg.Memory.MirrorRetries,
		FoldInterval:   cfg.FoldInterval(),
		Bus:            opts.Bus,
		Logger:         logger,
		Metrics:        opts.Metrics,
	})
	s.synth = synth.New(s.store, cfg.Session.ContextDepth)
	s.channels = buildChannels(cfg, opts.Link, s.synth)

	if s.metrics != nil {
		s.metrics.SessionOpened()
	}
	s.emit(event.SessionOpened, map[string]interface{}{
		"session":    s.id,
		"encryption": cfg.Session.UseEncryption,
		"storage":    cfg.Session.StorageMode,
	})
	if s.initDegraded {
		s.emit(event.SessionDegraded, map[string]interface{}{
			"session": s.id,
			"reason":  "durable storage unavailable",
		})
	}

	return s, nil
}

// ID returns the locally generated session id.
func (s *Session) ID() string {
	return s.id
}

// Degraded reports whether the session lost durability, either at open or
// after mirror retries were exhausted mid-session.
func (s *Session) Degraded() bool {
	s.mu.Lock()
	init := s.initDegraded
	s.mu.Unlock()
	return init || s.store.Degraded()
}

// Store exposes the session's memory store for context queries.
func (s *Session) Store() *memory.Store {
	return s.store
}

type sendOutcome struct {
	result transport.AttemptResult
}

// Send delivers one message and always produces a reply: transport faults
// are consumed by the fallback chain and, past the last channel, by local
// synthesis. The outgoing entry is recorded in plaintext before any
// transmission so memory never depends on transport.
func (s *Session) Send(ctx context.Context, content string, metadata map[string]interface{}) (*Reply, error) {
	if strings.TrimSpace(content) == "" {
		return nil, havenErrors.New(havenErrors.CodeMalformedInput, "message content is empty").
			WithSuggestion("Provide non-empty message content")
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, havenErrors.New(havenErrors.CodeSessionClosed, "session is closed")
	}
	s.mu.Unlock()

	started := time.Now()
	if s.metrics != nil {
		s.metrics.IncMessagesSent()
	}

	env := transport.NewEnvelope(content, s.id, metadata)
	s.store.Append(memory.TierOutgoing, content, "user")
	s.bumpMessageCount()
	s.emit(event.MessageSent, map[string]interface{}{
		"session": s.id,
		"bytes":   len(content),
	})

	wire := env
	if s.keys != nil {
		ciphertext, err := crypto.Encrypt([]byte(content), s.keys.Public)
		if err != nil {
			return nil, havenErrors.Wrap(havenErrors.CodeCryptoFailed, "failed to encrypt message", err)
		}
		wire = env.WithContent(ciphertext)
	}

	timeout := s.cfg.ChannelTimeout()
	var reply *Reply
	for _, ch := range s.channels {
		attemptEnv := wire
		if ch.Kind() == transport.KindLocal {
			// The local responder works on plaintext; ciphertext never
			// reaches it.
			attemptEnv = env
		}

		res, err := s.attempt(ctx, ch, attemptEnv, timeout)
		if err != nil {
			return nil, err
		}
		if res.Succeeded {
			reply = s.replyFrom(res, started)
			break
		}

		if s.metrics != nil {
			s.metrics.IncTransportFailures()
		}
		s.emit(event.TransportFailed, map[string]interface{}{
			"session": s.id,
			"channel": res.Channel,
			"kind":    res.ErrKind,
		})
		s.emit(event.TransportFallback, map[string]interface{}{
			"session": s.id,
			"from":    res.Channel,
		})
		s.logger.Debug("channel attempt failed", "channel", res.Channel, "kind", res.ErrKind)
	}

	if reply == nil {
		// Every configured channel failed; synthesize the reply directly.
		r := s.synth.Respond(content)
		reply = &Reply{
			Text:      r.Text,
			Channel:   transport.KindLocal,
			Local:     true,
			Timestamp: time.Now(),
		}
		if s.metrics != nil {
			s.metrics.IncLocalFallbacks()
		}
	}

	tag := sourceTag(reply)
	s.store.Append(memory.TierIncoming, reply.Text, tag)
	s.emit(event.MessageReceived, map[string]interface{}{
		"session": s.id,
		"channel": reply.Channel,
		"source":  tag,
	})
	if s.metrics != nil {
		s.metrics.RecordSendDuration(time.Since(started))
	}

	return reply, nil
}

// attempt runs one channel probe. The probe itself is never abandoned
// mid-flight: on caller cancellation it finishes in the background and its
// result is discarded, keeping the store consistent with what actually went
// out on the wire.
func (s *Session) attempt(ctx context.Context, ch transport.Channel, env *transport.Envelope, timeout time.Duration) (transport.AttemptResult, error) {
	done := make(chan sendOutcome, 1)
	probeStart := time.Now()

	go func() {
		res := transport.Attempt(context.WithoutCancel(ctx), ch, env, timeout)
		done <- sendOutcome{result: res}
	}()

	select {
	case out := <-done:
		if s.metrics != nil {
			s.metrics.RecordChannelLatency(time.Since(probeStart))
		}
		return out.result, nil
	case <-ctx.Done():
		return transport.AttemptResult{}, ctx.Err()
	}
}

func (s *Session) replyFrom(res transport.AttemptResult, started time.Time) *Reply {
	local := res.Channel == transport.KindLocal
	if s.metrics != nil {
		if local {
			s.metrics.IncLocalFallbacks()
		} else {
			s.metrics.IncRemoteReplies()
		}
	}
	return &Reply{
		Text:      res.Payload,
		Channel:   res.Channel,
		Local:     local,
		Timestamp: time.Now(),
	}
}

func sourceTag(r *Reply) string {
	switch r.Channel {
	case transport.KindEdge:
		return "edge"
	case transport.KindPeer:
		return "peer"
	default:
		return "local-fallback"
	}
}

// bumpMessageCount advances the running message counter in the working
// tier. It survives in the durable copy, so a reused session id resumes
// counting where it left off.
func (s *Session) bumpMessageCount() {
	n := 0
	if v, ok := s.store.Get("message_count"); ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			n = parsed
		}
	}
	s.store.Update("message_count", strconv.Itoa(n+1))
}

// SetMood records the caller's self-reported mood in working memory. The
// synthesizer shades locally produced replies with it.
func (s *Session) SetMood(mood string) {
	s.store.Update("mood", mood)
}

// Context returns a point-in-time snapshot of the session's memory.
func (s *Session) Context(depth int) memory.Context {
	return s.store.GetContext(depth)
}

// PreviousContext reads the durable log of earlier sessions for continuity.
// It returns up to n entries per prior session, most recent sessions first,
// and nothing at all when the session runs without a durable backend.
func (s *Session) PreviousContext(n int) (map[string][]memory.Entry, error) {
	if s.backend == nil {
		return map[string][]memory.Entry{}, nil
	}

	sessions, err := s.backend.ListSessions(10)
	if err != nil {
		return nil, havenErrors.Wrap(havenErrors.CodePersistDegraded, "failed to list prior sessions", err)
	}

	out := make(map[string][]memory.Entry)
	for _, id := range sessions {
		if id == s.id {
			continue
		}
		entries, err := s.backend.ListLog(id, n)
		if err != nil {
			return nil, havenErrors.Wrap(havenErrors.CodePersistDegraded, "failed to read prior session log", err)
		}
		out[id] = entries
	}
	return out, nil
}

// Close wipes the key material and in-memory tiers. The durable log is left
// intact as previous-session context. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.keys != nil {
		s.keys.Wipe()
	}
	s.store.Close()

	if s.ownBackend && s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.Warn("failed to close storage backend", "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.SessionClosed()
	}
	s.emit(event.SessionClosed, map[string]interface{}{
		"session": s.id,
	})
	return nil
}

func (s *Session) emit(t event.EventType, data map[string]interface{}) {
	if s.bus == nil {
		return
	}
	s.bus.Emit(event.NewEvent(t, data))
}
