package persist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"watchfolio-be/internal/pkg/logger"
	"watchfolio-be/pkg/assistant/snapshot"
	"watchfolio-be/pkg/store"
)

type fakeStore struct {
	mu      sync.Mutex
	upserts []snapshot.Snapshot
	err     error
}

func (f *fakeStore) Upsert(ctx context.Context, snap snapshot.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, snap)
	return f.err
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

func (f *fakeStore) last() snapshot.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts[len(f.upserts)-1]
}

func infoSnap(sessionID string, turns ...string) snapshot.Snapshot {
	snap := snapshot.Snapshot{
		SessionID: sessionID,
		Mode:      store.ModeInformation,
	}
	for _, content := range turns {
		snap.Messages = append(snap.Messages, store.Turn{Role: store.TurnRoleUser, Content: content})
	}
	return snap
}

func TestScheduleTrailingDebounce(t *testing.T) {
	fs := &fakeStore{}
	ch := NewChannel(fs, logger.Nop(), 30*time.Millisecond)

	// Rapid burst of mutations within the debounce window.
	ch.Schedule(infoSnap("s1", "a"))
	ch.Schedule(infoSnap("s1", "a", "b"))
	ch.Schedule(infoSnap("s1", "a", "b", "c"))

	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, 1, fs.count(), "burst must collapse to exactly one write")
	assert.Len(t, fs.last().Messages, 3, "the write must carry the last mutation's snapshot")
}

func TestScheduleDeduplicatesEqualSnapshots(t *testing.T) {
	fs := &fakeStore{}
	ch := NewChannel(fs, logger.Nop(), 10*time.Millisecond)

	ch.Schedule(infoSnap("s1", "a"))
	time.Sleep(80 * time.Millisecond)

	// Same content, different object identity.
	ch.Schedule(infoSnap("s1", "a"))
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, 1, fs.count(), "equal snapshot must not be written twice")
}

func TestFlushBypassesDelay(t *testing.T) {
	fs := &fakeStore{}
	ch := NewChannel(fs, logger.Nop(), 5*time.Second)

	ch.Flush(context.Background(), infoSnap("s1", "a"))

	assert.Equal(t, 1, fs.count(), "flush must write synchronously")
}

func TestFlushSupersedesPendingTimer(t *testing.T) {
	fs := &fakeStore{}
	ch := NewChannel(fs, logger.Nop(), 40*time.Millisecond)

	ch.Schedule(infoSnap("s1", "a"))
	ch.Flush(context.Background(), infoSnap("s1", "a", "b"))

	time.Sleep(150 * time.Millisecond)

	// The armed timer must not fire a second write on top of the flush.
	assert.Equal(t, 1, fs.count())
	assert.Len(t, fs.last().Messages, 2)
}

func TestFlushSharesDeduplicationGate(t *testing.T) {
	fs := &fakeStore{}
	ch := NewChannel(fs, logger.Nop(), 10*time.Millisecond)

	snap := infoSnap("s1", "a")
	ch.Schedule(snap)
	time.Sleep(80 * time.Millisecond)

	// A near-simultaneous flush for equivalent content must pass through the
	// same gate and be suppressed.
	ch.Flush(context.Background(), infoSnap("s1", "a"))

	assert.Equal(t, 1, fs.count())
}

func TestDiscardDropsPendingWrite(t *testing.T) {
	fs := &fakeStore{}
	ch := NewChannel(fs, logger.Nop(), 30*time.Millisecond)

	ch.Schedule(infoSnap("s1", "a"))
	ch.Discard()

	time.Sleep(120 * time.Millisecond)

	assert.Equal(t, 0, fs.count(), "discarded snapshot must never be written")
}

func TestFailedUpsertIsNotRetried(t *testing.T) {
	fs := &fakeStore{err: context.DeadlineExceeded}
	ch := NewChannel(fs, logger.Nop(), 10*time.Millisecond)

	snap := infoSnap("s1", "a")
	ch.Schedule(snap)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, fs.count())

	// Re-scheduling the same content after a failure must still be
	// suppressed: the issued marker is not rolled back.
	ch.Schedule(infoSnap("s1", "a"))
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1, fs.count())

	// The next differing mutation writes again.
	ch.Schedule(infoSnap("s1", "a", "b"))
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 2, fs.count())
}
