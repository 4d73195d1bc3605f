package event

import "time"

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	// Session lifecycle
	SessionOpened   EventType = "session.opened"
	SessionDegraded EventType = "session.degraded"
	SessionClosed   EventType = "session.closed"

	// Message lifecycle
	MessageSent     EventType = "message.sent"
	MessageReceived EventType = "message.received"

	// Transport
	TransportFailed   EventType = "transport.failed"
	TransportFallback EventType = "transport.fallback"

	// Memory
	PersistenceDegraded EventType = "persistence.degraded"
	MemoryFolded        EventType = "memory.folded"
)

// Event carries data about a lifecycle occurrence.
//
// Data never contains message plaintext or key material; entry ids,
// session ids, channel names and counts only.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]interface{}) Event {
	return Event{
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
	}
}
