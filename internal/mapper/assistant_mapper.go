package mapper

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"watchfolio-be/internal/entity"
	"watchfolio-be/internal/model"
	"watchfolio-be/pkg/store"
)

type AssistantMapper struct{}

func NewAssistantMapper() *AssistantMapper {
	return &AssistantMapper{}
}

func (m *AssistantMapper) SessionToEntity(s *model.AssistantSession) (*entity.AssistantSession, error) {
	if s == nil {
		return nil, nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	e := &entity.AssistantSession{
		Id:        s.Id,
		UserId:    s.UserId,
		Mode:      store.Mode(s.Mode),
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: s.DeletedAt.Valid,
	}

	if len(s.Messages) > 0 {
		if err := json.Unmarshal(s.Messages, &e.Messages); err != nil {
			return nil, fmt.Errorf("failed to decode session messages: %w", err)
		}
	}
	if len(s.Results) > 0 {
		if err := json.Unmarshal(s.Results, &e.Results); err != nil {
			return nil, fmt.Errorf("failed to decode session results: %w", err)
		}
	}
	if len(s.Metadata) > 0 {
		if err := json.Unmarshal(s.Metadata, &e.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode session metadata: %w", err)
		}
	}

	return e, nil
}

func (m *AssistantMapper) SessionToModel(e *entity.AssistantSession) (*model.AssistantSession, error) {
	if e == nil {
		return nil, nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	} else if e.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	s := &model.AssistantSession{
		Id:        e.Id,
		UserId:    e.UserId,
		Mode:      string(e.Mode),
		Title:     e.Title,
		CreatedAt: e.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}

	messages, err := json.Marshal(e.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session messages: %w", err)
	}
	s.Messages = datatypes.JSON(messages)

	if e.Results != nil {
		results, err := json.Marshal(e.Results)
		if err != nil {
			return nil, fmt.Errorf("failed to encode session results: %w", err)
		}
		s.Results = datatypes.JSON(results)
	}
	if e.Metadata != nil {
		metadata, err := json.Marshal(e.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode session metadata: %w", err)
		}
		s.Metadata = datatypes.JSON(metadata)
	}

	return s, nil
}
