package service

import (
	"context"
	"time"

	"watchfolio-be/internal/entity"
	"watchfolio-be/internal/repository/specification"
	"watchfolio-be/internal/repository/unitofwork"
	"watchfolio-be/pkg/assistant"
	"watchfolio-be/pkg/assistant/snapshot"
	"watchfolio-be/pkg/store"

	"github.com/google/uuid"
)

// userSessionStore adapts the repository layer to the controller's session
// store, scoped to a single user. Every query carries the owner filter so one
// user can never load or delete another user's sessions.
type userSessionStore struct {
	uowFactory unitofwork.RepositoryFactory
	userId     uuid.UUID
}

func newUserSessionStore(uowFactory unitofwork.RepositoryFactory, userId uuid.UUID) assistant.SessionStore {
	return &userSessionStore{
		uowFactory: uowFactory,
		userId:     userId,
	}
}

func (s *userSessionStore) Upsert(ctx context.Context, snap snapshot.Snapshot) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session := &entity.AssistantSession{
		Id:       snap.SessionID,
		UserId:   s.userId,
		Mode:     snap.Mode,
		Title:    snap.Title,
		Messages: snap.Messages,
		Results:  snap.Results,
		Metadata: snap.Metadata,
	}
	return uow.AssistantSessionRepository().Upsert(ctx, session)
}

func (s *userSessionStore) FindByID(ctx context.Context, id string) (*snapshot.Stored, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.AssistantSessionRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{UserId: s.userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	return toStored(session), nil
}

func (s *userSessionStore) List(ctx context.Context, mode store.Mode) ([]*snapshot.Stored, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	specs := []specification.Specification{
		specification.OwnedBy{UserId: s.userId},
		specification.MostRecentFirst{},
	}
	if mode != "" {
		specs = append(specs, specification.ByMode{Mode: mode})
	}
	sessions, err := uow.AssistantSessionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	stored := make([]*snapshot.Stored, 0, len(sessions))
	for _, session := range sessions {
		stored = append(stored, toStored(session))
	}
	return stored, nil
}

func (s *userSessionStore) Delete(ctx context.Context, id string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.AssistantSessionRepository()

	session, err := repo.FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{UserId: s.userId},
	)
	if err != nil {
		return err
	}
	if session == nil {
		return assistant.ErrSessionNotFound
	}
	return repo.Delete(ctx, id)
}

func toStored(session *entity.AssistantSession) *snapshot.Stored {
	var updatedAt time.Time
	if session.UpdatedAt != nil {
		updatedAt = *session.UpdatedAt
	} else {
		updatedAt = session.CreatedAt
	}
	return &snapshot.Stored{
		Snapshot: snapshot.Snapshot{
			SessionID: session.Id,
			Mode:      session.Mode,
			Title:     session.Title,
			Messages:  session.Messages,
			Results:   session.Results,
			Metadata:  session.Metadata,
		},
		UpdatedAt: updatedAt,
	}
}
