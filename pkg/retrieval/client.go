package retrieval

import (
	"context"

	"watchfolio-be/pkg/store"
)

// Request is the body sent to the retrieval endpoint for both modes.
type Request struct {
	Message             string       `json:"message"`
	SessionID           string       `json:"session_id"`
	ConversationHistory []store.Turn `json:"conversation_history"`
	Mode                store.Mode   `json:"mode"`
}

// Response is the union of the two mode-specific payloads. Information mode
// fills Message (plus optional Intent/Metadata); recommendation mode fills
// Results.
type Response struct {
	Message  string                 `json:"message,omitempty"`
	Intent   string                 `json:"intent,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Results  []store.ContentRef     `json:"results,omitempty"`
}

// Client is the retrieval endpoint contract consumed by the session
// controller.
type Client interface {
	Retrieve(ctx context.Context, req Request) (*Response, error)
}
