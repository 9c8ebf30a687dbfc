package async

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Task is the effect of an action. It runs after any animation delay and its
// outcome settles the action's Pending.
type Task func(ctx context.Context) Outcome

// Coordinator schedules animated actions. Interrupt cancels every action that
// has not yet taken effect; a task that has started runs to completion, so an
// action has either its whole effect or none.
type Coordinator struct {
	logger *zap.Logger
	lock   *InterfaceLock

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	inflight map[uuid.UUID]*Pending
	wg       sync.WaitGroup
}

// NewCoordinator creates a Coordinator. A nil logger disables logging.
func NewCoordinator(logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		logger:   logger,
		lock:     NewInterfaceLock(),
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[uuid.UUID]*Pending),
	}
}

// Lock returns the interface lock supervising AI turns and combat start.
func (c *Coordinator) Lock() *InterfaceLock { return c.lock }

// RunAnimated schedules task to take effect after estimated has elapsed and
// returns immediately. Cancelling ctx or calling Interrupt before the task
// starts settles the Pending as interrupted.
func (c *Coordinator) RunAnimated(ctx context.Context, label string, estimated time.Duration, task Task) *Pending {
	p := NewPending(label)
	c.mu.Lock()
	gen := c.ctx
	c.inflight[p.ID] = p
	c.wg.Add(1)
	c.mu.Unlock()

	runCtx, cancel := context.WithCancel(gen)
	stop := context.AfterFunc(ctx, cancel)
	go func() {
		defer c.wg.Done()
		defer c.forget(p.ID)
		defer cancel()
		defer stop()

		if estimated > 0 {
			t := time.NewTimer(estimated)
			select {
			case <-t.C:
			case <-runCtx.Done():
				t.Stop()
			}
		}
		if runCtx.Err() != nil {
			c.logger.Debug("animated action interrupted", zap.String("action", label))
			p.Interrupt()
			return
		}
		p.Settle(c.run(runCtx, label, task))
	}()
	return p
}

// RunImmediate executes task inline and returns its outcome.
func (c *Coordinator) RunImmediate(ctx context.Context, label string, task Task) Outcome {
	if ctx.Err() != nil {
		return Outcome{Interrupted: true}
	}
	return c.run(ctx, label, task)
}

// After schedules fn to run once delay has elapsed, unless interrupted first.
func (c *Coordinator) After(ctx context.Context, label string, delay time.Duration, fn func(ctx context.Context)) *Pending {
	return c.RunAnimated(ctx, label, delay, func(ctx context.Context) Outcome {
		fn(ctx)
		return Outcome{Hit: true}
	})
}

func (c *Coordinator) run(ctx context.Context, label string, task Task) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("action task panicked",
				zap.String("action", label),
				zap.String("panic", fmt.Sprint(r)),
			)
			out = Neutral
		}
	}()
	return task(ctx)
}

func (c *Coordinator) forget(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, id)
}

// InFlight returns the number of actions that have not settled.
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

// Interrupt cancels every in-flight action that has not yet taken effect and
// returns how many actions were in flight.
//
// Postcondition: no action scheduled before the call leaves a waiter blocked.
func (c *Coordinator) Interrupt() int {
	c.mu.Lock()
	n := len(c.inflight)
	c.cancel()
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.mu.Unlock()
	if n > 0 {
		c.logger.Info("interrupted in-flight actions", zap.Int("count", n))
	}
	return n
}

// Drain waits until every scheduled action has finished or ctx ends.
func (c *Coordinator) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
