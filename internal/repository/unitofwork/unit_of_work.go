package unitofwork

import (
	"context"

	"watchfolio-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AssistantSessionRepository() contract.AssistantSessionRepository
}
