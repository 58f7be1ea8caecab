package journal

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one journaled event.
type Entry struct {
	// Seq is the Redis stream ID. Assigned on append; empty on entries
	// that have not been written yet.
	Seq string `json:"seq,omitempty"`

	// Event is the stable event name, e.g. "GraphCommitted".
	Event string `json:"event"`

	// Revision is the store revision at the time the event was published.
	Revision uint64 `json:"revision"`

	// Payload is the JSON-encoded event.
	Payload json.RawMessage `json:"payload"`

	// At is the Unix timestamp in milliseconds when the entry was created.
	At int64 `json:"at"`
}

// IsValid checks that the entry has all required fields populated.
func (e *Entry) IsValid() error {
	if e.Event == "" {
		return fmt.Errorf("event name is required")
	}
	if len(e.Payload) == 0 {
		return fmt.Errorf("payload is required")
	}
	if e.At <= 0 {
		return fmt.Errorf("at must be positive, got %d", e.At)
	}
	return nil
}

// Age returns the duration since the entry was created.
func (e *Entry) Age() time.Duration {
	if e.At <= 0 {
		return 0
	}
	now := time.Now().UnixMilli()
	return time.Duration(now-e.At) * time.Millisecond
}
