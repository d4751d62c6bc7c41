package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AssistantSession struct {
	Id        string         `gorm:"type:text;primaryKey"` // opaque client-minted identity
	UserId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Mode      string         `gorm:"type:varchar(32);not null"`
	Title     string         `gorm:"type:text;not null"`
	Messages  datatypes.JSON `gorm:"type:jsonb"`
	Results   datatypes.JSON `gorm:"type:jsonb"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (AssistantSession) TableName() string {
	return "assistant_sessions"
}
