package async

import (
	"sync"
	"time"
)

// Timer fires a callback after a duration unless stopped or reset first.
// It is safe for concurrent use.
type Timer struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewTimer starts a timer that calls onFire in its own goroutine after d.
//
// Precondition: onFire must not be nil.
func NewTimer(d time.Duration, onFire func()) *Timer {
	t := &Timer{}
	t.Reset(d, onFire)
	return t
}

// Reset cancels any pending fire and schedules onFire after d. A callback
// scheduled before Reset never runs, even if its deadline already passed.
func (t *Timer) Reset(d time.Duration, onFire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		current := gen == t.gen
		t.mu.Unlock()
		if current {
			onFire()
		}
	})
}

// Stop prevents any scheduled callback from running. Safe to call repeatedly.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
	}
}
