package persist

import (
	"context"
	"sync"
	"time"

	"watchfolio-be/internal/pkg/logger"
	"watchfolio-be/pkg/assistant/snapshot"
)

// DefaultDelay is the quiet period before a scheduled snapshot is written.
const DefaultDelay = 1 * time.Second

const upsertTimeout = 10 * time.Second

// Store is the upsert half of the session persistence endpoint.
type Store interface {
	Upsert(ctx context.Context, snap snapshot.Snapshot) error
}

// Channel batches local session mutations into at most one upsert per quiet
// period. Schedule is a trailing debounce: within a burst only the most
// recent snapshot is ever sent. Flush bypasses the delay for mode
// transitions, where an abandoned timer would otherwise lose the outgoing
// mode's data. Both paths share one deduplication gate, so no caller can
// produce a double write for equivalent content.
type Channel struct {
	store Store
	log   logger.ILogger
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *snapshot.Snapshot

	// Canonical form of the last snapshot handed to the store. Updated
	// synchronously before the upsert resolves, and never rolled back on
	// failure: persistence is at-most-once best-effort.
	lastIssued string
}

func NewChannel(store Store, log logger.ILogger, delay time.Duration) *Channel {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Channel{
		store: store,
		log:   log,
		delay: delay,
	}
}

// Schedule arms the delay timer with snap. A snapshot already pending is
// superseded, not queued; its timer is cancelled and re-armed.
func (c *Channel) Schedule(snap snapshot.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	pending := snap
	c.pending = &pending
	c.timer = time.AfterFunc(c.delay, c.fire)
}

// Flush cancels any pending timer and, subject to the deduplication gate,
// issues the upsert synchronously. The caller's snapshot supersedes whatever
// was pending: it is always at least as recent.
func (c *Channel) Flush(ctx context.Context, snap snapshot.Snapshot) {
	c.mu.Lock()
	c.clearPendingLocked()
	if !c.markIssuedLocked(snap) {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.upsert(ctx, snap)
}

// Discard drops any pending snapshot without writing it. Used when the
// session it belongs to has been deleted.
func (c *Channel) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearPendingLocked()
}

func (c *Channel) fire() {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return
	}
	snap := *c.pending
	c.clearPendingLocked()
	if !c.markIssuedLocked(snap) {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), upsertTimeout)
	defer cancel()
	c.upsert(ctx, snap)
}

func (c *Channel) clearPendingLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = nil
}

// markIssuedLocked runs the deduplication gate and records the snapshot as
// issued before the network call goes out. Marking first means a slow
// response can never let a second equivalent write slip through.
func (c *Channel) markIssuedLocked(snap snapshot.Snapshot) bool {
	if !snapshot.ShouldPersist(snap, c.lastIssued) {
		return false
	}
	c.lastIssued = snap.Canonical()
	return true
}

func (c *Channel) upsert(ctx context.Context, snap snapshot.Snapshot) {
	if err := c.store.Upsert(ctx, snap); err != nil {
		// Not retried: the marker stays, local state that still differs from
		// the server is picked up by the next differing mutation.
		c.log.Error("PersistChannel", "Session upsert failed", map[string]interface{}{
			"session_id": snap.SessionID,
			"mode":       string(snap.Mode),
			"error":      err.Error(),
		})
	}
}
