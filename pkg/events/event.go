package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "ASSISTANT_INTERACTION").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the common implementation backing concrete event constructors.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewInteractionEvent builds the event emitted when a user acts on a
// recommended item. The session id is the identity of the session that
// produced the displayed results, not necessarily the live one.
func NewInteractionEvent(sessionID, interactionType string, occurredAt time.Time) Event {
	return BaseEvent{
		Type: "ASSISTANT_INTERACTION",
		Data: map[string]interface{}{
			"session_id":       sessionID,
			"interaction_type": interactionType,
			"occurred_at":      occurredAt.Format(time.RFC3339),
		},
		OccurredAt: occurredAt,
	}
}
