// Package haven provides a public API for embedding the session core.
//
// Example usage:
//
//	import "github.com/haven-oss/haven/pkg/haven"
//
//	// One-shot question with default config
//	reply, err := haven.Ask(context.Background(), "explain fractions")
//
//	// Longer-lived session
//	sess, err := haven.Open(".")
//	defer sess.Close()
//	reply, err := sess.Send(ctx, "help me factor x^2-4", nil)
package haven

import (
	"context"

	"github.com/haven-oss/haven/internal/config"
	"github.com/haven-oss/haven/internal/memory"
	"github.com/haven-oss/haven/internal/session"
	"github.com/haven-oss/haven/internal/telemetry"
)

// Reply is the outcome of a Send.
type Reply = session.Reply

// Entry is one durable memory record.
type Entry = memory.Entry

// Session is an open conversation scope.
type Session = session.Session

// Open loads configuration from dir (haven.yaml, or defaults when absent)
// and opens a session.
func Open(dir string) (*Session, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	return OpenWithConfig(cfg)
}

// OpenWithConfig opens a session over an explicit configuration.
func OpenWithConfig(cfg *config.Config) (*Session, error) {
	return session.Open(session.Options{
		Config: cfg,
		Logger: telemetry.NewLogger(false),
	})
}

// Ask opens a throwaway memory-only session, sends one message, and closes.
// Useful for scripts that want a single answer without durable state.
func Ask(ctx context.Context, message string) (*Reply, error) {
	cfg := config.DefaultConfig()
	cfg.Session.StorageMode = "local"

	sess, err := OpenWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	return sess.Send(ctx, message, nil)
}
