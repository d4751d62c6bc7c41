package contract

import (
	"context"

	"watchfolio-be/internal/entity"
	"watchfolio-be/internal/repository/specification"

	"github.com/google/uuid"
)

type AssistantSessionRepository interface {
	Upsert(ctx context.Context, session *entity.AssistantSession) error
	Delete(ctx context.Context, id string) error
	DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error // Hard delete all
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AssistantSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AssistantSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
