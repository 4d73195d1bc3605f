package transport

import (
	"encoding/json"
	"time"
)

// deniedMetadata lists fields that are always nulled in an envelope,
// regardless of caller-supplied values: network address, client signature,
// geolocation.
var deniedMetadata = []string{"ip", "userAgent", "location"}

// Envelope is the canonical message record exchanged between the
// orchestrator and a transport channel. Content may be plaintext or
// base64 ciphertext depending on session encryption.
type Envelope struct {
	Content   string                 `json:"content"`
	Timestamp int64                  `json:"timestamp"` // unix milliseconds
	SessionID string                 `json:"sessionId"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// NewEnvelope builds an envelope with canonicalized metadata: the denylist
// fields are present and explicitly null so downstream consumers can't
// distinguish "stripped" from "never sent".
func NewEnvelope(content, sessionID string, metadata map[string]interface{}) *Envelope {
	canonical := make(map[string]interface{}, len(metadata)+len(deniedMetadata))
	for k, v := range metadata {
		canonical[k] = v
	}
	for _, k := range deniedMetadata {
		canonical[k] = nil
	}

	return &Envelope{
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
		SessionID: sessionID,
		Metadata:  canonical,
	}
}

// MarshalWire serializes the envelope for transports that carry raw bytes.
func (e *Envelope) MarshalWire() ([]byte, error) {
	return json.Marshal(e)
}

// WithContent returns a copy carrying different content (e.g. the
// encrypted form for transmission) and the same identity and metadata.
func (e *Envelope) WithContent(content string) *Envelope {
	clone := *e
	clone.Content = content
	return &clone
}
