// Package async runs animated actions as cancellable background tasks and
// hands their results back through single-shot completion signals.
package async

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrInterrupted is reported by Wait when the action was interrupted before
// it took effect.
var ErrInterrupted = errors.New("async: action interrupted")

// Outcome is the result carried by a Pending.
type Outcome struct {
	// Hit reports whether the action landed (attacks) or succeeded (turns).
	Hit bool
	// Interrupted is set when the action was cancelled before taking effect.
	Interrupted bool
}

// Neutral is the outcome of an action that had no effect.
var Neutral = Outcome{}

// Pending is a handle on an in-flight action. It has exactly one producer
// and any number of waiters.
//
// Invariant: once Done is closed, Outcome never changes.
type Pending struct {
	ID    uuid.UUID
	Label string

	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

// NewPending creates an unsettled Pending.
func NewPending(label string) *Pending {
	return &Pending{ID: uuid.New(), Label: label, done: make(chan struct{})}
}

// Settled returns a Pending already completed with o.
func Settled(label string, o Outcome) *Pending {
	p := NewPending(label)
	p.Settle(o)
	return p
}

// Settle completes p with o. Only the first call has any effect; it reports
// whether this call settled p.
func (p *Pending) Settle(o Outcome) bool {
	settled := false
	p.once.Do(func() {
		p.outcome = o
		settled = true
		close(p.done)
	})
	return settled
}

// Interrupt settles p with an interrupted neutral outcome.
func (p *Pending) Interrupt() bool {
	return p.Settle(Outcome{Interrupted: true})
}

// Done is closed when p settles.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Completed reports whether p has settled.
func (p *Pending) Completed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Outcome returns the settled outcome, or the zero Outcome while in flight.
func (p *Pending) Outcome() Outcome {
	if !p.Completed() {
		return Outcome{}
	}
	return p.outcome
}

// Wait blocks until p settles or ctx ends.
//
// Postcondition: err is ctx.Err() when ctx ended first, ErrInterrupted when
// the action was interrupted, and nil otherwise.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		if p.outcome.Interrupted {
			return p.outcome, ErrInterrupted
		}
		return p.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// WaitAll blocks until every pending settles or ctx ends. Interrupted
// actions do not count as failures.
func WaitAll(ctx context.Context, ps ...*Pending) error {
	for _, p := range ps {
		if p == nil {
			continue
		}
		if _, err := p.Wait(ctx); err != nil && !errors.Is(err, ErrInterrupted) {
			return err
		}
	}
	return nil
}

// AnyHit reports whether any settled pending hit.
func AnyHit(ps ...*Pending) bool {
	for _, p := range ps {
		if p != nil && p.Outcome().Hit {
			return true
		}
	}
	return false
}
