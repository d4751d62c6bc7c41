package assistant

import (
	"context"
	"errors"
	"sync"
	"time"

	"watchfolio-be/internal/pkg/logger"
	"watchfolio-be/pkg/assistant/identity"
	"watchfolio-be/pkg/assistant/persist"
	"watchfolio-be/pkg/assistant/reveal"
	"watchfolio-be/pkg/assistant/snapshot"
	"watchfolio-be/pkg/assistant/telemetry"
	"watchfolio-be/pkg/retrieval"
	"watchfolio-be/pkg/store"
)

// State is the controller's position in the request lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateAwaiting  State = "awaiting"
	StateRevealing State = "revealing"
	StateErrored   State = "error"
)

var (
	ErrBusy            = errors.New("a request is already in flight")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidMode     = errors.New("invalid assistant mode")
	ErrEmptyMessage    = errors.New("message must not be empty")
)

// titleRunes is how much of the originating query becomes the session title.
const titleRunes = 50

// SessionStore is the session persistence endpoint as consumed by the
// controller. Upsert also serves the debounced persistence channel.
type SessionStore interface {
	persist.Store
	FindByID(ctx context.Context, id string) (*snapshot.Stored, error)
	List(ctx context.Context, mode store.Mode) ([]*snapshot.Stored, error)
	Delete(ctx context.Context, id string) error
}

// Hooks receive reveal progress so a transport (the websocket hub) can push
// it to connected clients. Hooks run on the reveal goroutine and must not
// call back into the controller.
type Hooks struct {
	OnRevealTick     func(sessionID, revealed string)
	OnRevealComplete func(sessionID, fullText string)
}

// Config wires a controller's collaborators.
type Config struct {
	Retriever retrieval.Client
	Store     SessionStore
	Reporter  telemetry.Reporter
	Logger    logger.ILogger

	// Zero values fall back to persist.DefaultDelay / reveal.DefaultInterval.
	DebounceDelay  time.Duration
	RevealInterval time.Duration

	Hooks Hooks
}

// SubmitResult is what a completed submit call reports back to transport.
// In information mode the assistant reply arrives through the reveal hooks,
// not here; Revealing marks that it is on its way.
type SubmitResult struct {
	SessionID string
	Mode      store.Mode
	Revealing bool
	Results   *store.ResultSet
	ErrorTurn *store.Turn
}

// Controller owns one user's assistant conversation: current mode, session
// identity, transcript, result set, and the pending reveal. All entry points
// and timer callbacks are serialized behind one mutex, the Go rendition of
// the single cooperative timeline the feature was designed for.
type Controller struct {
	retriever retrieval.Client
	sessions  SessionStore
	reporter  telemetry.Reporter
	log       logger.ILogger
	channel   *persist.Channel
	reveal    *reveal.Scheduler
	hooks     Hooks

	mu sync.Mutex
	// gen is bumped whenever local state is cleared or replaced wholesale,
	// and at the start of every exchange. Long-lived callbacks (reveal
	// ticks, in-flight retrievals) capture the generation at start and
	// no-op if it has moved on, so a cancelled reveal that fires anyway
	// cannot touch the state of the exchange that superseded it.
	gen uint64

	mode       store.Mode
	sessionID  string // empty until the first submission mints one
	title      string
	transcript []store.Turn
	results    *store.ResultSet
	revealed   string
	state      State
}

func NewController(cfg Config) (*Controller, error) {
	if cfg.Retriever == nil {
		return nil, errors.New("assistant: retriever is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("assistant: session store is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("assistant: logger is required")
	}

	return &Controller{
		retriever: cfg.Retriever,
		sessions:  cfg.Store,
		reporter:  cfg.Reporter,
		log:       cfg.Logger,
		channel:   persist.NewChannel(cfg.Store, cfg.Logger, cfg.DebounceDelay),
		reveal:    reveal.NewScheduler(cfg.RevealInterval),
		hooks:     cfg.Hooks,
		mode:      store.ModeInformation,
		state:     StateIdle,
	}, nil
}

// Submit runs one exchange in the current mode. Duplicate submissions while
// a request is in flight are rejected with ErrBusy.
func (c *Controller) Submit(ctx context.Context, text string) (*SubmitResult, error) {
	if text == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.state == StateAwaiting {
		c.mu.Unlock()
		return nil, ErrBusy
	}

	switch c.mode {
	case store.ModeRecommendation:
		return c.submitRecommendationLocked(ctx, text)
	default:
		return c.submitInformationLocked(ctx, text)
	}
}

// submitInformationLocked appends the user turn synchronously, performs the
// retrieval, and hands the reply to the reveal scheduler. The assistant turn
// is appended only when the reveal completes, atomically with the full text.
// Expects c.mu held; releases it.
func (c *Controller) submitInformationLocked(ctx context.Context, text string) (*SubmitResult, error) {
	if c.sessionID == "" {
		c.sessionID = identity.NewID()
		c.title = deriveTitle(text)
	}
	// Invalidate callbacks of the previous exchange before the lock drops:
	// a reveal tick racing past Cancel below must not append the old answer
	// after the new user turn.
	c.gen++
	gen := c.gen
	sessionID := c.sessionID

	c.transcript = append(c.transcript, store.Turn{
		Role:      store.TurnRoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})
	history := append([]store.Turn(nil), c.transcript...)
	c.revealed = ""
	c.state = StateAwaiting
	c.mu.Unlock()

	// A reveal still animating a previous answer is cancelled outright; its
	// partial text is discarded, never appended.
	c.reveal.Cancel()

	resp, err := c.retriever.Retrieve(ctx, retrieval.Request{
		Message:             text,
		SessionID:           sessionID,
		ConversationHistory: history,
		Mode:                store.ModeInformation,
	})

	c.mu.Lock()
	if gen != c.gen {
		// Local state was replaced while the request was in flight.
		c.mu.Unlock()
		return &SubmitResult{SessionID: sessionID, Mode: store.ModeInformation}, nil
	}

	if err != nil {
		c.log.Error("Assistant", "Information retrieval failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		errTurn := store.Turn{
			Role:      store.TurnRoleAssistant,
			Content:   "Sorry, I could not answer that right now. Please try again.",
			Timestamp: time.Now(),
		}
		c.transcript = append(c.transcript, errTurn)
		c.state = StateErrored
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.channel.Schedule(snap)
		return &SubmitResult{SessionID: sessionID, Mode: store.ModeInformation, ErrorTurn: &errTurn}, nil
	}

	c.state = StateRevealing
	c.mu.Unlock()

	c.reveal.Start(resp.Message,
		func(revealed string) { c.handleRevealTick(gen, sessionID, revealed) },
		func(fullText string) { c.handleRevealComplete(gen, sessionID, fullText, resp.Intent, resp.Metadata) },
	)

	return &SubmitResult{SessionID: sessionID, Mode: store.ModeInformation, Revealing: true}, nil
}

// submitRecommendationLocked mints a fresh identity for the query, performs
// the retrieval, and replaces the current result context. Every
// recommendation query is its own session. The identity is committed only
// together with its result set: a failed query leaves the previous session
// and results intact, so a later flush cannot pair the new id with the old
// result set. Expects c.mu held; releases it.
func (c *Controller) submitRecommendationLocked(ctx context.Context, text string) (*SubmitResult, error) {
	c.gen++
	gen := c.gen
	sessionID := identity.NewID()
	c.state = StateAwaiting
	c.mu.Unlock()

	resp, err := c.retriever.Retrieve(ctx, retrieval.Request{
		Message:   text,
		SessionID: sessionID,
		Mode:      store.ModeRecommendation,
	})

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return &SubmitResult{SessionID: sessionID, Mode: store.ModeRecommendation}, nil
	}

	if err != nil || resp.Results == nil {
		if err == nil {
			err = errors.New("retrieval response missing results payload")
		}
		// No transcript exists in recommendation mode, so nothing is
		// surfaced there. The previous result set stays displayed.
		c.log.Error("Assistant", "Recommendation retrieval failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		c.state = StateErrored
		c.mu.Unlock()
		return nil, err
	}

	results := &store.ResultSet{
		SessionID: sessionID,
		Query:     text,
		Items:     resp.Results,
	}
	c.sessionID = sessionID
	c.title = deriveTitle(text)
	c.results = results
	c.state = StateIdle
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.channel.Schedule(snap)

	return &SubmitResult{SessionID: sessionID, Mode: store.ModeRecommendation, Results: results}, nil
}

func (c *Controller) handleRevealTick(gen uint64, sessionID, revealed string) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.revealed = revealed
	c.mu.Unlock()

	if c.hooks.OnRevealTick != nil {
		c.hooks.OnRevealTick(sessionID, revealed)
	}
}

func (c *Controller) handleRevealComplete(gen uint64, sessionID, fullText, intent string, metadata map[string]interface{}) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	// The assistant turn exists in the transcript before the persistence
	// snapshot is taken.
	c.transcript = append(c.transcript, store.Turn{
		Role:      store.TurnRoleAssistant,
		Content:   fullText,
		Intent:    intent,
		Metadata:  metadata,
		Timestamp: time.Now(),
	})
	c.revealed = ""
	c.state = StateIdle
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.channel.Schedule(snap)

	if c.hooks.OnRevealComplete != nil {
		c.hooks.OnRevealComplete(sessionID, fullText)
	}
}

// SwitchMode flushes the outgoing mode's snapshot, then clears local state.
// The flush happens before anything is cleared: a pending debounced write
// captured the old mode's data and must not be abandoned. No identity is
// minted until the first submission in the new mode.
func (c *Controller) SwitchMode(ctx context.Context, mode store.Mode) error {
	if !mode.Valid() {
		return ErrInvalidMode
	}

	c.mu.Lock()
	if mode == c.mode {
		c.mu.Unlock()
		return nil
	}

	if c.sessionID != "" {
		// Synchronous on the controller timeline: flush-then-clear, never
		// clear-then-flush.
		c.channel.Flush(ctx, c.snapshotLocked())
	}

	c.gen++
	c.mode = mode
	c.clearSessionLocked()
	c.mu.Unlock()

	c.reveal.Cancel()
	return nil
}

// NewSession starts a fresh, unsaved conversation in the current mode. Any
// pending write for the outgoing session is flushed, not dropped.
func (c *Controller) NewSession(ctx context.Context) {
	c.mu.Lock()
	if c.sessionID != "" {
		c.channel.Flush(ctx, c.snapshotLocked())
	}
	c.gen++
	c.clearSessionLocked()
	c.mu.Unlock()

	c.reveal.Cancel()
}

// LoadSession replaces identity, mode, transcript and result set wholesale
// from the store. Loading is not a mutation: it does not go through the
// debounce channel. A pending write for the previous session carries its own
// snapshot by value and fires unaffected.
func (c *Controller) LoadSession(ctx context.Context, id string) (*snapshot.Stored, error) {
	stored, err := c.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrSessionNotFound
	}

	c.mu.Lock()
	c.gen++
	c.mode = stored.Mode
	c.sessionID = stored.SessionID
	c.title = stored.Title
	c.transcript = append([]store.Turn(nil), stored.Messages...)
	c.results = stored.Results
	c.revealed = ""
	c.state = StateIdle
	c.mu.Unlock()

	c.reveal.Cancel()
	return stored, nil
}

// LoadMostRecent loads the newest persisted session for mode, if any.
func (c *Controller) LoadMostRecent(ctx context.Context, mode store.Mode) (*snapshot.Stored, error) {
	sessions, err := c.sessions.List(ctx, mode)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return c.LoadSession(ctx, sessions[0].SessionID)
}

// DeleteSession removes a persisted session. Local state is not touched
// until the delete succeeds. Deleting the current session is a hard reset:
// pending writes tied to the deleted identity are discarded, not flushed,
// and no identity is minted until the next submission.
func (c *Controller) DeleteSession(ctx context.Context, id string) error {
	if err := c.sessions.Delete(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	wasCurrent := id == c.sessionID && id != ""
	if wasCurrent {
		c.channel.Discard()
		c.gen++
		c.clearSessionLocked()
	}
	c.mu.Unlock()

	if wasCurrent {
		c.reveal.Cancel()
	}
	return nil
}

// Track reports a result interaction tagged with the identity of the session
// that produced the displayed result set, which may differ from the live
// identity if the user has queried again or left recommendation mode. No-ops
// when there is no recommendation context.
func (c *Controller) Track(interactionType telemetry.InteractionType) {
	if !interactionType.Valid() {
		c.log.Warn("Tracker", "Unknown interaction type, skipping", map[string]interface{}{
			"interaction_type": string(interactionType),
		})
		return
	}

	c.mu.Lock()
	results := c.results
	c.mu.Unlock()

	if results == nil || results.SessionID == "" {
		c.log.Info("Tracker", "No recommendation context, interaction not tracked", map[string]interface{}{
			"interaction_type": string(interactionType),
		})
		return
	}
	if c.reporter == nil {
		return
	}

	interaction := telemetry.Interaction{
		SessionID:  results.SessionID,
		Type:       interactionType,
		OccurredAt: time.Now(),
	}

	// Fire-and-forget: failure is logged, never surfaced, never retried.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.reporter.Report(ctx, interaction); err != nil {
			c.log.Error("Tracker", "Interaction report failed", map[string]interface{}{
				"session_id": interaction.SessionID,
				"error":      err.Error(),
			})
		}
	}()
}

// Close flushes any pending write and stops the reveal. Used when the owning
// user's controller is evicted.
func (c *Controller) Close(ctx context.Context) {
	c.mu.Lock()
	if c.sessionID != "" {
		c.channel.Flush(ctx, c.snapshotLocked())
	}
	c.gen++
	c.mu.Unlock()

	c.reveal.Cancel()
}

// Accessors

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Mode() store.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Controller) Transcript() []store.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]store.Turn(nil), c.transcript...)
}

func (c *Controller) Results() *store.ResultSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		return nil
	}
	rs := *c.results
	rs.Items = append([]store.ContentRef(nil), c.results.Items...)
	return &rs
}

// Revealed returns the partial text of an in-progress reveal, for clients
// reconnecting mid-animation.
func (c *Controller) Revealed() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revealed
}

func (c *Controller) snapshotLocked() snapshot.Snapshot {
	return snapshot.Snapshot{
		SessionID: c.sessionID,
		Mode:      c.mode,
		Title:     c.title,
		Messages:  append([]store.Turn(nil), c.transcript...),
		Results:   c.results,
	}
}

func (c *Controller) clearSessionLocked() {
	c.sessionID = ""
	c.title = ""
	c.transcript = nil
	c.results = nil
	c.revealed = ""
	c.state = StateIdle
}

func deriveTitle(query string) string {
	runes := []rune(query)
	if len(runes) <= titleRunes {
		return query
	}
	return string(runes[:titleRunes])
}
