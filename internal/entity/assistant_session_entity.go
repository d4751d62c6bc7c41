package entity

import (
	"time"

	"github.com/google/uuid"

	"watchfolio-be/pkg/store"
)

type AssistantSession struct {
	Id        string
	UserId    uuid.UUID
	Mode      store.Mode
	Title     string
	Messages  []store.Turn
	Results   *store.ResultSet
	Metadata  map[string]interface{}
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
