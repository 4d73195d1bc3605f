// Package transport provides the channel fallback primitives: a uniform
// send contract over the edge endpoint, an established peer link, or local
// synthesis. The fallback loop in the session package operates only on the
// Channel interface.
package transport

import (
	"context"
	"errors"
	"time"
)

// Channel kinds, in the conventional most-private/most-capable order.
const (
	KindEdge  = "edge"
	KindPeer  = "peer"
	KindLocal = "local"
)

// Error kinds recorded on a failed attempt.
const (
	ErrKindTimeout  = "timeout"
	ErrKindNoPeer   = "peer_unavailable"
	ErrKindNetwork  = "network"
	ErrKindProtocol = "protocol"
	ErrKindCanceled = "canceled"
)

// Channel is one delivery mechanism. Send either returns the remote reply
// payload or an error; there is no partial-success state.
type Channel interface {
	// Kind returns the channel kind (edge, peer, local).
	Kind() string

	// Send delivers the envelope and returns the reply payload.
	Send(ctx context.Context, env *Envelope) (string, error)
}

// AttemptResult is the tagged outcome of a single channel attempt. It only
// drives fallback decisions and is never persisted.
type AttemptResult struct {
	Channel   string
	Succeeded bool
	Payload   string
	ErrKind   string
	Err       error
}

// Attempt runs a single bounded send on a channel: one attempt, no
// per-channel retry. Timeouts and errors are uniformly failures.
func Attempt(ctx context.Context, ch Channel, env *Envelope, timeout time.Duration) AttemptResult {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := ch.Send(attemptCtx, env)
	if err != nil {
		return AttemptResult{
			Channel: ch.Kind(),
			ErrKind: classify(err),
			Err:     err,
		}
	}
	return AttemptResult{
		Channel:   ch.Kind(),
		Succeeded: true,
		Payload:   payload,
	}
}

func classify(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrKindTimeout
	case errors.Is(err, context.Canceled):
		return ErrKindCanceled
	case errors.Is(err, ErrNoPeerLink):
		return ErrKindNoPeer
	default:
		return ErrKindNetwork
	}
}
