package transport

import (
	"context"
)

// Responder produces a reply from a message without leaving the device.
// The synthesizer satisfies this.
type Responder interface {
	Respond(message string) (string, error)
}

// LocalChannel answers from the on-device responder. It is the terminal
// fallback: it never touches the network and never fails.
type LocalChannel struct {
	responder Responder
}

// NewLocalChannel creates a local channel over the given responder.
func NewLocalChannel(r Responder) *LocalChannel {
	return &LocalChannel{responder: r}
}

// Kind returns the channel kind.
func (c *LocalChannel) Kind() string {
	return KindLocal
}

// Send answers locally. The envelope content is always plaintext here;
// ciphertext never reaches the local channel.
func (c *LocalChannel) Send(ctx context.Context, env *Envelope) (string, error) {
	return c.responder.Respond(env.Content)
}
