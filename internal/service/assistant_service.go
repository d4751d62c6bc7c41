package service

import (
	"context"
	"sync"
	"time"

	"watchfolio-be/internal/dto"
	"watchfolio-be/internal/pkg/logger"
	"watchfolio-be/internal/repository/memory"
	"watchfolio-be/internal/repository/unitofwork"
	"watchfolio-be/pkg/assistant"
	"watchfolio-be/pkg/assistant/telemetry"
	"watchfolio-be/pkg/retrieval"
	"watchfolio-be/pkg/store"

	"github.com/google/uuid"
)

// RevealDelivery defines how reveal progress reaches connected clients.
// Typically implemented by the WebSocket Hub.
type RevealDelivery interface {
	SendRevealTick(userId uuid.UUID, sessionId, revealed string)
	SendRevealComplete(userId uuid.UUID, sessionId, fullText string)
}

type IAssistantService interface {
	SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	SwitchMode(ctx context.Context, userId uuid.UUID, req *dto.SwitchModeRequest) (*dto.SwitchModeResponse, error)
	NewSession(ctx context.Context, userId uuid.UUID) (*dto.ControllerStateResponse, error)
	GetState(ctx context.Context, userId uuid.UUID) (*dto.ControllerStateResponse, error)
	GetSessions(ctx context.Context, userId uuid.UUID, mode store.Mode) ([]*dto.SessionSummaryResponse, error)
	LoadSession(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.SessionDetailResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId string) error
	TrackInteraction(ctx context.Context, userId uuid.UUID, req *dto.TrackInteractionRequest) error
}

type assistantService struct {
	uowFactory unitofwork.RepositoryFactory
	registry   *memory.ControllerRegistry
	retriever  retrieval.Client
	reporter   telemetry.Reporter
	delivery   RevealDelivery
	log        logger.ILogger

	debounceDelay  time.Duration
	revealInterval time.Duration

	// Guards controller creation; lookups go straight to the registry.
	mu sync.Mutex
}

func NewAssistantService(
	uowFactory unitofwork.RepositoryFactory,
	registry *memory.ControllerRegistry,
	retriever retrieval.Client,
	reporter telemetry.Reporter,
	delivery RevealDelivery,
	log logger.ILogger,
	debounceDelay time.Duration,
	revealInterval time.Duration,
) IAssistantService {
	return &assistantService{
		uowFactory:     uowFactory,
		registry:       registry,
		retriever:      retriever,
		reporter:       reporter,
		delivery:       delivery,
		log:            log,
		debounceDelay:  debounceDelay,
		revealInterval: revealInterval,
	}
}

func (s *assistantService) controllerFor(userId uuid.UUID) (*assistant.Controller, error) {
	if ctrl, ok := s.registry.Get(userId.String()); ok {
		return ctrl, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctrl, ok := s.registry.Get(userId.String()); ok {
		return ctrl, nil
	}

	hooks := assistant.Hooks{}
	if s.delivery != nil {
		hooks.OnRevealTick = func(sessionId, revealed string) {
			s.delivery.SendRevealTick(userId, sessionId, revealed)
		}
		hooks.OnRevealComplete = func(sessionId, fullText string) {
			s.delivery.SendRevealComplete(userId, sessionId, fullText)
		}
	}

	ctrl, err := assistant.NewController(assistant.Config{
		Retriever:      s.retriever,
		Store:          newUserSessionStore(s.uowFactory, userId),
		Reporter:       s.reporter,
		Logger:         s.log,
		DebounceDelay:  s.debounceDelay,
		RevealInterval: s.revealInterval,
		Hooks:          hooks,
	})
	if err != nil {
		return nil, err
	}

	// Resume the newest saved conversation, if any. Best-effort: a store
	// error leaves the user with a fresh controller.
	if stored, err := ctrl.LoadMostRecent(context.Background(), ctrl.Mode()); err != nil {
		s.log.Warn("Assistant", "Could not resume most recent session", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
	} else if stored != nil {
		s.log.Info("Assistant", "Resumed most recent session", map[string]interface{}{
			"user_id":    userId.String(),
			"session_id": stored.SessionID,
		})
	}

	s.registry.Save(userId.String(), ctrl)
	return ctrl, nil
}

func (s *assistantService) SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	ctrl, err := s.controllerFor(userId)
	if err != nil {
		return nil, err
	}

	result, err := ctrl.Submit(ctx, req.Message)
	if err != nil {
		return nil, err
	}

	return &dto.SendMessageResponse{
		SessionId: result.SessionID,
		Mode:      result.Mode,
		Revealing: result.Revealing,
		Results:   result.Results,
		ErrorTurn: result.ErrorTurn,
	}, nil
}

func (s *assistantService) SwitchMode(ctx context.Context, userId uuid.UUID, req *dto.SwitchModeRequest) (*dto.SwitchModeResponse, error) {
	ctrl, err := s.controllerFor(userId)
	if err != nil {
		return nil, err
	}

	if err := ctrl.SwitchMode(ctx, store.Mode(req.Mode)); err != nil {
		return nil, err
	}

	return &dto.SwitchModeResponse{Mode: ctrl.Mode()}, nil
}

func (s *assistantService) NewSession(ctx context.Context, userId uuid.UUID) (*dto.ControllerStateResponse, error) {
	ctrl, err := s.controllerFor(userId)
	if err != nil {
		return nil, err
	}

	ctrl.NewSession(ctx)
	return stateResponse(ctrl), nil
}

func (s *assistantService) GetState(ctx context.Context, userId uuid.UUID) (*dto.ControllerStateResponse, error) {
	ctrl, err := s.controllerFor(userId)
	if err != nil {
		return nil, err
	}
	return stateResponse(ctrl), nil
}

func (s *assistantService) GetSessions(ctx context.Context, userId uuid.UUID, mode store.Mode) ([]*dto.SessionSummaryResponse, error) {
	sessions, err := newUserSessionStore(s.uowFactory, userId).List(ctx, mode)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.SessionSummaryResponse, 0, len(sessions))
	for _, session := range sessions {
		result = append(result, &dto.SessionSummaryResponse{
			SessionId: session.SessionID,
			Mode:      session.Mode,
			Title:     session.Title,
			UpdatedAt: session.UpdatedAt,
		})
	}
	return result, nil
}

func (s *assistantService) LoadSession(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.SessionDetailResponse, error) {
	ctrl, err := s.controllerFor(userId)
	if err != nil {
		return nil, err
	}

	stored, err := ctrl.LoadSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	return &dto.SessionDetailResponse{
		SessionId: stored.SessionID,
		Mode:      stored.Mode,
		Title:     stored.Title,
		Messages:  stored.Messages,
		Results:   stored.Results,
		UpdatedAt: stored.UpdatedAt,
	}, nil
}

func (s *assistantService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId string) error {
	ctrl, err := s.controllerFor(userId)
	if err != nil {
		return err
	}
	return ctrl.DeleteSession(ctx, sessionId)
}

func (s *assistantService) TrackInteraction(ctx context.Context, userId uuid.UUID, req *dto.TrackInteractionRequest) error {
	ctrl, err := s.controllerFor(userId)
	if err != nil {
		return err
	}
	ctrl.Track(telemetry.InteractionType(req.InteractionType))
	return nil
}

func stateResponse(ctrl *assistant.Controller) *dto.ControllerStateResponse {
	return &dto.ControllerStateResponse{
		State:     string(ctrl.State()),
		Mode:      ctrl.Mode(),
		SessionId: ctrl.SessionID(),
		Messages:  ctrl.Transcript(),
		Results:   ctrl.Results(),
		Revealed:  ctrl.Revealed(),
	}
}
