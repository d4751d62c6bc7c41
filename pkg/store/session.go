package store

import "time"

// Mode is the operating context of an assistant session. A session's mode is
// fixed at creation; switching modes always starts a new session identity.
type Mode string

const (
	// ModeInformation is free-form Q&A accumulating turns in one session.
	ModeInformation Mode = "information"
	// ModeRecommendation is structured retrieval; every query mints its own session.
	ModeRecommendation Mode = "recommendation"
)

func (m Mode) Valid() bool {
	return m == ModeInformation || m == ModeRecommendation
}

const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"
)

// Turn is one entry of a session transcript. Transcripts are append-only:
// turns are never reordered or mutated in place.
type Turn struct {
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Intent    string                 `json:"intent,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// ContentRef points at a movie or TV entry in the catalog.
type ContentRef struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	MediaType string  `json:"media_type"` // "movie" | "tv"
	Year      int     `json:"year,omitempty"`
	PosterURL string  `json:"poster_url,omitempty"`
	Score     float32 `json:"score,omitempty"`
}

// ResultSet is the outcome of one recommendation query. SessionID is the
// identity of the session that produced the results; interaction telemetry is
// tagged with this identity, not with whatever session is live when the user
// eventually clicks.
type ResultSet struct {
	SessionID string       `json:"session_id"`
	Query     string       `json:"query"`
	Items     []ContentRef `json:"items"`
}
