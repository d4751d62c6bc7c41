package reveal

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	mu        sync.Mutex
	ticks     []string
	completes []string
}

func (r *recorder) onTick(revealed string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, revealed)
}

func (r *recorder) onComplete(full string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completes = append(r.completes, full)
}

func (r *recorder) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ticks...), append([]string(nil), r.completes...)
}

func waitForComplete(t *testing.T, r *recorder) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, completes := r.snapshot()
		if len(completes) > 0 {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("reveal did not complete in time")
}

func TestRevealGrowingPrefixThenComplete(t *testing.T) {
	s := NewScheduler(time.Millisecond)
	r := &recorder{}

	s.Start("héllo", r.onTick, r.onComplete)
	waitForComplete(t, r)

	ticks, completes := r.snapshot()

	assert.Equal(t, []string{"h", "hé", "hél", "héll"}, ticks, "ticks must be strictly growing rune prefixes")
	assert.Equal(t, []string{"héllo"}, completes, "onComplete must fire exactly once with the full text")
	assert.False(t, s.Active())
}

func TestCancelStopsAllCallbacks(t *testing.T) {
	s := NewScheduler(time.Millisecond)
	r := &recorder{}

	s.Start(strings.Repeat("x", 10000), r.onTick, r.onComplete)
	time.Sleep(10 * time.Millisecond)
	s.Cancel()

	ticks, _ := r.snapshot()
	seen := len(ticks)

	time.Sleep(50 * time.Millisecond)

	ticks, completes := r.snapshot()
	assert.Equal(t, seen, len(ticks), "no ticks may arrive after Cancel returns")
	assert.Empty(t, completes, "onComplete must not fire after Cancel")
	assert.False(t, s.Active())
}

func TestCancelIsIdempotent(t *testing.T) {
	s := NewScheduler(time.Millisecond)

	// Cancelling with nothing active is a no-op, not an error.
	s.Cancel()
	s.Cancel()

	r := &recorder{}
	s.Start("ab", r.onTick, r.onComplete)
	s.Cancel()
	s.Cancel()
	assert.False(t, s.Active())
}

func TestStartSupersedesActiveReveal(t *testing.T) {
	s := NewScheduler(time.Millisecond)
	first := &recorder{}
	second := &recorder{}

	s.Start(strings.Repeat("a", 10000), first.onTick, first.onComplete)
	time.Sleep(10 * time.Millisecond)
	s.Start("bb", second.onTick, second.onComplete)

	waitForComplete(t, second)
	time.Sleep(20 * time.Millisecond)

	_, firstCompletes := first.snapshot()
	assert.Empty(t, firstCompletes, "superseded reveal must never complete")

	secondTicks, secondCompletes := second.snapshot()
	assert.Equal(t, []string{"b"}, secondTicks)
	assert.Equal(t, []string{"bb"}, secondCompletes)

	// No interleaved ticks from the first reveal among the second's.
	for _, tick := range secondTicks {
		assert.NotContains(t, tick, "a")
	}
}

func TestEmptyTextCompletesImmediately(t *testing.T) {
	s := NewScheduler(time.Millisecond)
	r := &recorder{}

	s.Start("", r.onTick, r.onComplete)
	waitForComplete(t, r)

	ticks, completes := r.snapshot()
	assert.Empty(t, ticks)
	assert.Equal(t, []string{""}, completes)
}
