package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchfolio-be/internal/dto"
	"watchfolio-be/internal/entity"
	"watchfolio-be/internal/pkg/logger"
	"watchfolio-be/internal/repository/contract"
	"watchfolio-be/internal/repository/memory"
	"watchfolio-be/internal/repository/specification"
	"watchfolio-be/internal/repository/unitofwork"
	"watchfolio-be/pkg/assistant"
	"watchfolio-be/pkg/retrieval"
	"watchfolio-be/pkg/store"
)

// fakeSessionRepo keeps sessions in memory and interprets the specification
// types the service layer actually uses.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*entity.AssistantSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*entity.AssistantSession)}
}

func (r *fakeSessionRepo) Upsert(_ context.Context, session *entity.AssistantSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	copied := *session
	copied.UpdatedAt = &now
	if existing, ok := r.sessions[session.Id]; ok {
		copied.CreatedAt = existing.CreatedAt
	} else {
		copied.CreatedAt = now
	}
	r.sessions[session.Id] = &copied
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteAllByUserIdUnscoped(_ context.Context, userId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.UserId == userId {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) matches(s *entity.AssistantSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch v := spec.(type) {
		case specification.ByID:
			if s.Id != v.ID {
				return false
			}
		case specification.OwnedBy:
			if s.UserId != v.UserId {
				return false
			}
		case specification.ByMode:
			if s.Mode != v.Mode {
				return false
			}
		case specification.MostRecentFirst:
			// ordering, handled in FindAll
		}
	}
	return true
}

func (r *fakeSessionRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.AssistantSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if r.matches(s, specs) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.AssistantSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.AssistantSession
	for _, s := range r.sessions {
		if r.matches(s, specs) {
			copied := *s
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(*result[j].UpdatedAt)
	})
	return result, nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

// fakeUowFactory hands out units of work over one shared fake repo.
type fakeUowFactory struct {
	repo *fakeSessionRepo
}

func (f *fakeUowFactory) NewUnitOfWork(_ context.Context) unitofwork.UnitOfWork {
	return &fakeUow{repo: f.repo}
}

type fakeUow struct {
	repo *fakeSessionRepo
}

func (u *fakeUow) Begin(context.Context) error { return nil }
func (u *fakeUow) Commit() error               { return nil }
func (u *fakeUow) Rollback() error             { return nil }
func (u *fakeUow) AssistantSessionRepository() contract.AssistantSessionRepository {
	return u.repo
}

type fakeRetriever struct{}

func (f *fakeRetriever) Retrieve(_ context.Context, req retrieval.Request) (*retrieval.Response, error) {
	if req.Mode == store.ModeRecommendation {
		return &retrieval.Response{
			Results: []store.ContentRef{{ID: "tt1", Title: "Stalker", MediaType: "movie", Year: 1979}},
		}, nil
	}
	return &retrieval.Response{Message: "answer to: " + req.Message}, nil
}

type fakeDelivery struct {
	mu        sync.Mutex
	completes []string
	done      chan struct{}
}

func (d *fakeDelivery) SendRevealTick(uuid.UUID, string, string) {}

func (d *fakeDelivery) SendRevealComplete(_ uuid.UUID, sessionId, _ string) {
	d.mu.Lock()
	d.completes = append(d.completes, sessionId)
	d.mu.Unlock()
	select {
	case d.done <- struct{}{}:
	default:
	}
}

func newTestService(t *testing.T) (IAssistantService, *fakeSessionRepo, *fakeDelivery) {
	t.Helper()
	repo := newFakeSessionRepo()
	delivery := &fakeDelivery{done: make(chan struct{}, 8)}
	svc := NewAssistantService(
		&fakeUowFactory{repo: repo},
		memory.NewControllerRegistry(),
		&fakeRetriever{},
		nil,
		delivery,
		logger.Nop(),
		30*time.Millisecond,
		time.Millisecond,
	)
	return svc, repo, delivery
}

func waitForComplete(t *testing.T, delivery *fakeDelivery) {
	t.Helper()
	select {
	case <-delivery.done:
	case <-time.After(2 * time.Second):
		t.Fatal("reveal never completed")
	}
}

func TestAssistantService_SendMessageInformation(t *testing.T) {
	svc, repo, delivery := newTestService(t)
	userId := uuid.New()

	res, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{
		Message: "Who directed Heat?",
	})
	require.NoError(t, err)
	assert.True(t, res.Revealing)
	assert.NotEmpty(t, res.SessionId)
	assert.Equal(t, store.ModeInformation, res.Mode)

	waitForComplete(t, delivery)
	time.Sleep(100 * time.Millisecond) // debounced save

	repo.mu.Lock()
	saved, ok := repo.sessions[res.SessionId]
	repo.mu.Unlock()
	require.True(t, ok, "session should be persisted after the debounce window")
	assert.Equal(t, userId, saved.UserId)
	assert.Len(t, saved.Messages, 2)
}

func TestAssistantService_SessionsAreUserScoped(t *testing.T) {
	svc, _, delivery := newTestService(t)
	userA := uuid.New()
	userB := uuid.New()

	resA, err := svc.SendMessage(context.Background(), userA, &dto.SendMessageRequest{Message: "hello"})
	require.NoError(t, err)
	waitForComplete(t, delivery)
	time.Sleep(100 * time.Millisecond)

	// B sees no history and cannot load or delete A's session.
	listB, err := svc.GetSessions(context.Background(), userB, "")
	require.NoError(t, err)
	assert.Empty(t, listB)

	_, err = svc.LoadSession(context.Background(), userB, resA.SessionId)
	assert.ErrorIs(t, err, assistant.ErrSessionNotFound)

	err = svc.DeleteSession(context.Background(), userB, resA.SessionId)
	assert.ErrorIs(t, err, assistant.ErrSessionNotFound)

	listA, err := svc.GetSessions(context.Background(), userA, "")
	require.NoError(t, err)
	require.Len(t, listA, 1)
	assert.Equal(t, resA.SessionId, listA[0].SessionId)
}

func TestAssistantService_RecommendationFlow(t *testing.T) {
	svc, _, _ := newTestService(t)
	userId := uuid.New()

	_, err := svc.SwitchMode(context.Background(), userId, &dto.SwitchModeRequest{Mode: "recommendation"})
	require.NoError(t, err)

	res, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{
		Message: "slow burn sci-fi",
	})
	require.NoError(t, err)
	assert.False(t, res.Revealing)
	require.NotNil(t, res.Results)
	assert.Equal(t, res.SessionId, res.Results.SessionID)
	require.Len(t, res.Results.Items, 1)
	assert.Equal(t, "Stalker", res.Results.Items[0].Title)
}

func TestAssistantService_StateReflectsController(t *testing.T) {
	svc, _, delivery := newTestService(t)
	userId := uuid.New()

	state, err := svc.GetState(context.Background(), userId)
	require.NoError(t, err)
	assert.Equal(t, "idle", state.State)
	assert.Equal(t, store.ModeInformation, state.Mode)
	assert.Empty(t, state.SessionId)

	res, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{Message: "hi"})
	require.NoError(t, err)
	waitForComplete(t, delivery)

	state, err = svc.GetState(context.Background(), userId)
	require.NoError(t, err)
	assert.Equal(t, res.SessionId, state.SessionId)
	assert.Len(t, state.Messages, 2)
}

func TestAssistantService_TrackWithoutContextIsNoop(t *testing.T) {
	svc, _, _ := newTestService(t)
	userId := uuid.New()

	// No recommendation results exist; tracking must not error.
	err := svc.TrackInteraction(context.Background(), userId, &dto.TrackInteractionRequest{
		InteractionType: "click",
	})
	assert.NoError(t, err)
}
