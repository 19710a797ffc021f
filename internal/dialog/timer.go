package dialog

import (
	"log/slog"
	"sync"
	"time"
)

// idleTimer schedules one expiry callback per conversation. Rescheduling a
// key replaces its previous timer.
type idleTimer struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newIdleTimer() *idleTimer {
	return &idleTimer{timers: make(map[string]*time.Timer)}
}

// Reset schedules fn to run after delay, replacing any timer for the key.
func (t *idleTimer) Reset(key string, delay time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.timers[key]; ok {
		prev.Stop()
	}
	t.timers[key] = time.AfterFunc(delay, func() {
		t.mu.Lock()
		delete(t.timers, key)
		t.mu.Unlock()
		slog.Debug("idleTimer firing expiry", "conversation", key)
		fn()
	})
}

// Cancel stops the timer for the key if one is pending.
func (t *idleTimer) Cancel(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
}

// Stop cancels all pending timers.
func (t *idleTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	slog.Debug("idleTimer stopping all timers", "count", len(t.timers))
	for key, timer := range t.timers {
		timer.Stop()
		delete(t.timers, key)
	}
}
