package sim

import (
	"context"
	"testing"
	"time"
)

func TestEagerSignalFireWaitRoundTrip(t *testing.T) {
	s := NewEagerSignal()
	s.Fire()
	if !s.Wait(time.Second) {
		t.Fatalf("expected a pending fire to be observed")
	}
}

func TestEagerSignalWaitTimesOutWithoutFire(t *testing.T) {
	s := NewEagerSignal()
	if s.Wait(10 * time.Millisecond) {
		t.Fatalf("expected wait to time out without a fire")
	}
}

func TestEagerSignalRearmClearsPendingFire(t *testing.T) {
	s := NewEagerSignal()
	s.Fire()
	s.Rearm()
	if s.Wait(10 * time.Millisecond) {
		t.Fatalf("expected rearm to clear the pending fire")
	}
}

func TestEagerSignalWaitNonPositiveDeadlineReturnsFalse(t *testing.T) {
	s := NewEagerSignal()
	s.Fire()
	if s.Wait(0) {
		t.Fatalf("expected a non-positive deadline to return false immediately")
	}
}

func TestLoopRunStopsWhenTickReportsEnded(t *testing.T) {
	loop := NewLoop(10*time.Millisecond, false)
	calls := 0
	loop.Run(context.Background(), func(ctx context.Context) bool {
		calls++
		return calls >= 3
	})
	if calls != 3 {
		t.Fatalf("expected exactly 3 ticks before ended, got %d", calls)
	}
}

func TestLoopRunStopsOnContextCancel(t *testing.T) {
	loop := NewLoop(50*time.Millisecond, false)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan struct{})
	go func() {
		loop.Run(ctx, func(ctx context.Context) bool {
			calls++
			if calls == 1 {
				cancel()
			}
			return false
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected loop to return promptly after context cancellation")
	}
	if calls < 1 {
		t.Fatalf("expected at least one tick to run before cancellation took effect")
	}
}

func TestLoopEagerBroadcastCutsSleepShort(t *testing.T) {
	loop := NewLoop(time.Second, true)
	calls := 0
	start := time.Now()
	loop.Run(context.Background(), func(ctx context.Context) bool {
		calls++
		if calls == 1 {
			go loop.Eager.Fire()
		}
		return calls >= 2
	})
	if time.Since(start) >= time.Second {
		t.Fatalf("expected eager broadcast to cut the sleep well short of the full interval")
	}
}

func TestLoopOnOverrunCalledWhenTickExceedsInterval(t *testing.T) {
	loop := NewLoop(time.Millisecond, false)
	overran := false
	loop.OnOverrun = func(elapsed, budget time.Duration) { overran = true }

	calls := 0
	loop.Run(context.Background(), func(ctx context.Context) bool {
		calls++
		time.Sleep(5 * time.Millisecond)
		return calls >= 2
	})
	if !overran {
		t.Fatalf("expected OnOverrun to fire when the tick exceeds the interval")
	}
}
