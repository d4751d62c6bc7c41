package dto

import (
	"time"

	"watchfolio-be/pkg/store"
)

type SendMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

type SendMessageResponse struct {
	SessionId string           `json:"session_id"`
	Mode      store.Mode       `json:"mode"`
	Revealing bool             `json:"revealing"`
	Results   *store.ResultSet `json:"results,omitempty"`
	ErrorTurn *store.Turn      `json:"error_turn,omitempty"`
}

type SwitchModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=information recommendation"`
}

type SwitchModeResponse struct {
	Mode store.Mode `json:"mode"`
}

type TrackInteractionRequest struct {
	InteractionType string `json:"interaction_type" validate:"required,oneof=click add_to_collection"`
}

type SessionSummaryResponse struct {
	SessionId string     `json:"session_id"`
	Mode      store.Mode `json:"mode"`
	Title     string     `json:"title"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type SessionDetailResponse struct {
	SessionId string           `json:"session_id"`
	Mode      store.Mode       `json:"mode"`
	Title     string           `json:"title"`
	Messages  []store.Turn     `json:"messages"`
	Results   *store.ResultSet `json:"results,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type ControllerStateResponse struct {
	State     string           `json:"state"`
	Mode      store.Mode       `json:"mode"`
	SessionId string           `json:"session_id,omitempty"`
	Messages  []store.Turn     `json:"messages"`
	Results   *store.ResultSet `json:"results,omitempty"`
	Revealed  string           `json:"revealed,omitempty"`
}
