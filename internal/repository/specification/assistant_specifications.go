package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"watchfolio-be/pkg/store"
)

type OwnedBy struct {
	UserId uuid.UUID
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserId)
}

type ByMode struct {
	Mode store.Mode
}

func (s ByMode) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("mode = ?", string(s.Mode))
}

// MostRecentFirst orders sessions by last activity for history listings.
type MostRecentFirst struct{}

func (s MostRecentFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("updated_at DESC")
}
