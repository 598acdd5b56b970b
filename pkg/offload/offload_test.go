package offload_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/go-camtext/pkg/offload"
)

func TestDoReturnsResult(t *testing.T) {
	pool := offload.New(time.Second, 0)

	got, err := offload.Do(context.Background(), pool, func(ctx context.Context) (string, error) {
		return "hello", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Errorf("Do() = %q, want hello", got)
	}
}

func TestDoPropagatesError(t *testing.T) {
	pool := offload.New(0, 0)
	want := errors.New("boom")

	_, err := offload.Do(context.Background(), pool, func(ctx context.Context) (int, error) {
		return 0, want
	})
	if !errors.Is(err, want) {
		t.Errorf("Do() error = %v, want %v", err, want)
	}
}

func TestDoBudgetExceeded(t *testing.T) {
	pool := offload.New(20*time.Millisecond, 0)
	release := make(chan struct{})
	finished := make(chan struct{})

	start := time.Now()
	_, err := offload.Do(context.Background(), pool, func(ctx context.Context) (int, error) {
		defer close(finished)
		<-release
		return 1, nil
	})

	if !errors.Is(err, offload.ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("ErrBudgetExceeded should match context.DeadlineExceeded")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Do() returned after %v, budget not enforced", elapsed)
	}

	// The abandoned call still runs to completion.
	if pool.InFlight() != 1 {
		t.Errorf("InFlight() = %d, want 1 while abandoned call runs", pool.InFlight())
	}
	close(release)
	<-finished
	time.Sleep(10 * time.Millisecond)
	if pool.InFlight() != 0 {
		t.Errorf("InFlight() = %d, want 0 after completion", pool.InFlight())
	}
}

func TestDoCallerCancel(t *testing.T) {
	pool := offload.New(0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := offload.Do(ctx, pool, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDoCallerDeadline(t *testing.T) {
	pool := offload.New(time.Second, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	release := make(chan struct{})
	defer close(release)

	_, err := offload.Do(ctx, pool, func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if errors.Is(err, offload.ErrBudgetExceeded) {
		t.Error("caller deadline should not be reported as ErrBudgetExceeded")
	}
}

func TestDoRecoversPanic(t *testing.T) {
	pool := offload.New(time.Second, 0)

	_, err := offload.Do(context.Background(), pool, func(ctx context.Context) (int, error) {
		panic("opencv exploded")
	})

	var pe *offload.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PanicError, got %v", err)
	}
	if pe.Value != "opencv exploded" {
		t.Errorf("panic value = %v", pe.Value)
	}
}

func TestDoLimit(t *testing.T) {
	pool := offload.New(time.Second, 2)

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			offload.Do(context.Background(), pool, func(ctx context.Context) (struct{}, error) {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				running.Add(-1)
				return struct{}{}, nil
			})
		}()
	}
	wg.Wait()

	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}
