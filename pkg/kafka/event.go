package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope written to every storefront topic. Key is the
// partition key; events sharing a key keep their order.
type Event struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Key           string            `json:"key"`
	Source        string            `json:"source"`
	OccurredAt    time.Time         `json:"occurred_at"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
}

// EventOption sets optional envelope fields.
type EventOption func(*Event)

// WithCorrelationID ties the event to the request that caused it. Empty ids
// are ignored.
func WithCorrelationID(id string) EventOption {
	return func(e *Event) {
		if id != "" {
			e.CorrelationID = id
		}
	}
}

// WithAttribute adds a string attribute, also sent as a message header.
func WithAttribute(key, value string) EventOption {
	return func(e *Event) {
		if e.Attributes == nil {
			e.Attributes = make(map[string]string)
		}
		e.Attributes[key] = value
	}
}

// NewEvent builds an event with a fresh id and the current UTC time.
func NewEvent(source, eventType, key string, payload any, opts ...EventOption) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	e := &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Key:        key,
		Source:     source,
		OccurredAt: time.Now().UTC(),
		Payload:    data,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}
