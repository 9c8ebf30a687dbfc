package async_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/hexcombat/internal/game/async"
)

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestPending_SingleShot(t *testing.T) {
	p := async.NewPending("attack")
	assert.False(t, p.Completed())
	assert.Equal(t, async.Outcome{}, p.Outcome())
	assert.True(t, p.Settle(async.Outcome{Hit: true}))
	assert.False(t, p.Settle(async.Outcome{}))
	assert.False(t, p.Interrupt())
	assert.True(t, p.Outcome().Hit)
}

func TestPending_ManyWaiters(t *testing.T) {
	p := async.NewPending("attack")
	var wg sync.WaitGroup
	var hits atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := p.Wait(context.Background())
			if err == nil && out.Hit {
				hits.Add(1)
			}
		}()
	}
	p.Settle(async.Outcome{Hit: true})
	wg.Wait()
	assert.Equal(t, int32(8), hits.Load())
}

func TestPending_WaitContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := async.NewPending("x").Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAnimated_SettlesWithTaskOutcome(t *testing.T) {
	c := async.NewCoordinator(nil)
	p := c.RunAnimated(context.Background(), "swing", time.Millisecond, func(context.Context) async.Outcome {
		return async.Outcome{Hit: true}
	})
	out, err := p.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.True(t, out.Hit)
	require.NoError(t, c.Drain(waitCtx(t)))
	assert.Zero(t, c.InFlight())
}

func TestRunAnimated_InterruptBeforeEffect(t *testing.T) {
	c := async.NewCoordinator(nil)
	var ran atomic.Bool
	p := c.RunAnimated(context.Background(), "swing", time.Hour, func(context.Context) async.Outcome {
		ran.Store(true)
		return async.Outcome{Hit: true}
	})
	assert.Equal(t, 1, c.Interrupt())
	out, err := p.Wait(waitCtx(t))
	assert.ErrorIs(t, err, async.ErrInterrupted)
	assert.False(t, out.Hit)
	require.NoError(t, c.Drain(waitCtx(t)))
	assert.False(t, ran.Load())
}

func TestRunAnimated_CallerContextCancels(t *testing.T) {
	c := async.NewCoordinator(nil)
	ctx, cancel := context.WithCancel(context.Background())
	p := c.RunAnimated(ctx, "swing", time.Hour, func(context.Context) async.Outcome {
		return async.Outcome{Hit: true}
	})
	cancel()
	out, _ := p.Wait(waitCtx(t))
	assert.True(t, out.Interrupted)
}

func TestRunAnimated_WorksAfterInterrupt(t *testing.T) {
	c := async.NewCoordinator(nil)
	c.Interrupt()
	p := c.RunAnimated(context.Background(), "swing", 0, func(context.Context) async.Outcome {
		return async.Outcome{Hit: true}
	})
	out, err := p.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.True(t, out.Hit)
}

func TestRunAnimated_PanicSettlesNeutral(t *testing.T) {
	c := async.NewCoordinator(nil)
	p := c.RunAnimated(context.Background(), "broken", 0, func(context.Context) async.Outcome {
		panic("boom")
	})
	out, err := p.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, async.Neutral, out)
}

func TestRunImmediate(t *testing.T) {
	c := async.NewCoordinator(nil)
	out := c.RunImmediate(context.Background(), "touch", func(context.Context) async.Outcome {
		return async.Outcome{Hit: true}
	})
	assert.True(t, out.Hit)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out = c.RunImmediate(ctx, "touch", func(context.Context) async.Outcome {
		return async.Outcome{Hit: true}
	})
	assert.True(t, out.Interrupted)
}

func TestAfter_RunsCallback(t *testing.T) {
	c := async.NewCoordinator(nil)
	var ran atomic.Bool
	p := c.After(context.Background(), "start combat", time.Millisecond, func(context.Context) { ran.Store(true) })
	_, err := p.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.True(t, ran.Load())
}

func TestWaitAllAndAnyHit(t *testing.T) {
	a := async.Settled("a", async.Outcome{})
	b := async.Settled("b", async.Outcome{Interrupted: true})
	c := async.Settled("c", async.Outcome{Hit: true})
	require.NoError(t, async.WaitAll(waitCtx(t), a, b, nil, c))
	assert.True(t, async.AnyHit(a, b, c))
	assert.False(t, async.AnyHit(a, b))
}

func TestInterfaceLock_TimedHold(t *testing.T) {
	l := async.NewInterfaceLock()
	assert.False(t, l.Locked())
	l.Hold("combat-start", 5*time.Millisecond)
	assert.True(t, l.Locked())
	assert.Equal(t, []string{"combat-start"}, l.Owners())
	require.NoError(t, l.WaitIdle(waitCtx(t)))
	assert.False(t, l.Locked())
}

func TestInterfaceLock_HoldUntilPending(t *testing.T) {
	l := async.NewInterfaceLock()
	p := async.NewPending("ai")
	l.HoldUntil("ai", p)
	l.Hold("delay", time.Hour)
	assert.Equal(t, []string{"ai", "delay"}, l.Owners())
	p.Settle(async.Neutral)
	l.Release("delay")
	require.NoError(t, l.WaitIdle(waitCtx(t)))
	l.Release("unknown")
	assert.False(t, l.Locked())
}

func TestTimer_ResetSupersedes(t *testing.T) {
	var first, second atomic.Bool
	done := make(chan struct{})
	tm := async.NewTimer(time.Hour, func() { first.Store(true) })
	tm.Reset(time.Millisecond, func() {
		second.Store(true)
		close(done)
	})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timer did not fire")
	}
	assert.False(t, first.Load())
	assert.True(t, second.Load())
	tm.Stop()
	tm.Stop()
}
