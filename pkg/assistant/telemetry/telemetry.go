package telemetry

import (
	"context"
	"time"
)

// InteractionType classifies what the user did with a displayed result.
type InteractionType string

const (
	InteractionClick           InteractionType = "click"
	InteractionAddToCollection InteractionType = "add_to_collection"
)

func (t InteractionType) Valid() bool {
	return t == InteractionClick || t == InteractionAddToCollection
}

// Interaction is one telemetry event. SessionID is the identity of the
// session that produced the result set the user interacted with, which is
// not necessarily the live session at interaction time.
type Interaction struct {
	SessionID  string          `json:"session_id"`
	Type       InteractionType `json:"interaction_type"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Reporter delivers interactions to the telemetry endpoint. Delivery is
// best-effort: callers log failures and never retry or surface them.
type Reporter interface {
	Report(ctx context.Context, interaction Interaction) error
}
