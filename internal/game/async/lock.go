package async

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InterfaceLock tells other systems that the world is busy: an AI turn is
// playing out or a combat-start delay is running. Each hold is keyed by an
// owner label; the lock is idle when no owner holds it.
type InterfaceLock struct {
	mu      sync.Mutex
	holders map[string]*Timer
	idle    chan struct{}
}

// NewInterfaceLock returns an idle lock.
func NewInterfaceLock() *InterfaceLock {
	idle := make(chan struct{})
	close(idle)
	return &InterfaceLock{holders: make(map[string]*Timer), idle: idle}
}

func (l *InterfaceLock) acquireLocked(owner string) {
	if len(l.holders) == 0 {
		l.idle = make(chan struct{})
	}
	if _, ok := l.holders[owner]; !ok {
		l.holders[owner] = nil
	}
}

// Hold locks for owner until d elapses. Holding again extends the deadline.
func (l *InterfaceLock) Hold(owner string, d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquireLocked(owner)
	release := func() { l.Release(owner) }
	if t := l.holders[owner]; t != nil {
		t.Reset(d, release)
		return
	}
	l.holders[owner] = NewTimer(d, release)
}

// HoldUntil locks for owner until p settles.
func (l *InterfaceLock) HoldUntil(owner string, p *Pending) {
	l.mu.Lock()
	l.acquireLocked(owner)
	l.mu.Unlock()
	go func() {
		<-p.Done()
		l.Release(owner)
	}()
}

// Release drops owner's hold; unknown owners are ignored.
func (l *InterfaceLock) Release(owner string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.holders[owner]
	if !ok {
		return
	}
	if t != nil {
		t.Stop()
	}
	delete(l.holders, owner)
	if len(l.holders) == 0 {
		close(l.idle)
	}
}

// Locked reports whether any owner holds the lock.
func (l *InterfaceLock) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.holders) > 0
}

// Owners returns the current holders in sorted order.
func (l *InterfaceLock) Owners() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.holders))
	for owner := range l.holders {
		out = append(out, owner)
	}
	sort.Strings(out)
	return out
}

// WaitIdle blocks until no owner holds the lock or ctx ends.
func (l *InterfaceLock) WaitIdle(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
