package reveal

import (
	"sync"
	"time"
)

// DefaultInterval is the per-character reveal tick. Fast but observable, not
// real typing speed.
const DefaultInterval = 5 * time.Millisecond

// Scheduler simulates incremental display of an already-fully-received text
// payload. At most one reveal is active at any instant; starting a new one
// cancels the prior one first. After Cancel returns, no further callbacks
// fire.
//
// Callbacks are delivered while holding the task's delivery lock, which is
// what makes the cancellation guarantee strict. Callers must not invoke
// Cancel or Start from inside a callback, and must not hold a lock taken by
// their callbacks while calling Cancel.
type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	active   *task
}

type task struct {
	mu        sync.Mutex
	cancelled bool
}

func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{interval: interval}
}

// Start begins revealing fullText one rune per tick. onTick receives each
// strictly growing prefix short of the whole text; onComplete receives the
// full text exactly once when the reveal finishes naturally.
func (s *Scheduler) Start(fullText string, onTick func(revealed string), onComplete func(fullText string)) {
	s.mu.Lock()
	if s.active != nil {
		s.active.cancel()
	}
	t := &task{}
	s.active = t
	s.mu.Unlock()

	go s.run(t, fullText, onTick, onComplete)
}

// Cancel halts the active reveal immediately. Cancelling when nothing is
// active is a no-op.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	t := s.active
	s.active = nil
	s.mu.Unlock()

	if t != nil {
		t.cancel()
	}
}

// Active reports whether a reveal is currently running.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

func (s *Scheduler) run(t *task, fullText string, onTick func(string), onComplete func(string)) {
	runes := []rune(fullText)
	if len(runes) == 0 {
		s.complete(t, fullText, onComplete)
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for i := 1; i <= len(runes); i++ {
		<-ticker.C

		if i == len(runes) {
			s.complete(t, fullText, onComplete)
			return
		}

		t.mu.Lock()
		if t.cancelled {
			t.mu.Unlock()
			return
		}
		onTick(string(runes[:i]))
		t.mu.Unlock()
	}
}

func (s *Scheduler) complete(t *task, fullText string, onComplete func(string)) {
	// Detach before completing so a concurrent Start sees no active task to
	// cancel.
	s.mu.Lock()
	if s.active == t {
		s.active = nil
	}
	s.mu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return
	}
	t.cancelled = true // completion also ends delivery
	onComplete(fullText)
}

func (t *task) cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
}
