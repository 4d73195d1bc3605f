package transport

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoPeerLink is returned when no peer link is currently established.
// The fallback loop treats it as an instant failure with no network cost.
var ErrNoPeerLink = errors.New("no peer link established")

// PeerLink is an already-negotiated connection to a nearby peer device.
// Link setup and discovery happen outside this package; the channel only
// consumes an established link.
type PeerLink interface {
	// Connected reports whether the link is currently usable.
	Connected() bool

	// Exchange sends a payload and waits for the peer's reply.
	Exchange(ctx context.Context, payload []byte) ([]byte, error)
}

// PeerChannel relays envelopes over an established peer link.
type PeerChannel struct {
	link PeerLink
}

// NewPeerChannel creates a peer channel. A nil link is valid and simply
// means every send fails with ErrNoPeerLink.
func NewPeerChannel(link PeerLink) *PeerChannel {
	return &PeerChannel{link: link}
}

// Kind returns the channel kind.
func (c *PeerChannel) Kind() string {
	return KindPeer
}

// Send relays the envelope over the peer link. It fails fast, without any
// attempt, when no link is active.
func (c *PeerChannel) Send(ctx context.Context, env *Envelope) (string, error) {
	if c.link == nil || !c.link.Connected() {
		return "", ErrNoPeerLink
	}

	payload, err := env.MarshalWire()
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}

	reply, err := c.link.Exchange(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("peer exchange failed: %w", err)
	}

	return string(reply), nil
}
