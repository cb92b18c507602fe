package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewLimiter_NegativeInterval(t *testing.T) {
	l := NewLimiter(-time.Second, zerolog.Nop())
	if l.Interval() != 0 {
		t.Errorf("Interval() = %v, want 0", l.Interval())
	}
}

func TestLimiter_ZeroIntervalNeverBlocks(t *testing.T) {
	l := NewLimiter(0, zerolog.Nop())
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("100 waits with zero interval took %v", elapsed)
	}
}

func TestLimiter_SpacesRequests(t *testing.T) {
	interval := 30 * time.Millisecond
	l := NewLimiter(interval, zerolog.Nop())
	ctx := context.Background()

	var starts []time.Time
	for i := 0; i < 4; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		starts = append(starts, time.Now())
	}

	// Allow a little scheduler slack below the nominal interval.
	minGap := interval - 5*time.Millisecond
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < minGap {
			t.Errorf("gap between request %d and %d = %v, want >= %v", i-1, i, gap, minGap)
		}
	}
}

func TestLimiter_FirstWaitImmediate(t *testing.T) {
	l := NewLimiter(time.Hour, zerolog.Nop())

	start := time.Now()
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("first Wait() blocked for %v", elapsed)
	}
}

func TestLimiter_WaitHonoursCancellation(t *testing.T) {
	l := NewLimiter(time.Hour, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	cancel()
	err := l.Wait(ctx)
	if err == nil {
		t.Fatal("Wait() on cancelled context returned nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}
