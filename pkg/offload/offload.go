// Package offload runs blocking calls (frame reads, OCR, speech synthesis)
// on their own goroutine under a time budget.
//
// The caller waits for the result, its own context, or the budget,
// whichever ends first. A call that is abandoned keeps running until it
// returns; its result is dropped.
//
//	pool := offload.New(30*time.Second, 0)
//	text, err := offload.Do(ctx, pool, func(ctx context.Context) (string, error) {
//	    return recognizer.Recognize(ctx, frame.Data)
//	})
package offload

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrBudgetExceeded is returned when a call outlives the pool budget.
// It matches context.DeadlineExceeded with errors.Is.
var ErrBudgetExceeded = fmt.Errorf("offload: budget exceeded: %w", context.DeadlineExceeded)

// PanicError carries a panic raised inside an offloaded call.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("offload: call panicked: %v", e.Value)
}

// Pool bounds offloaded calls by time and, optionally, by count.
// The zero value is not usable; use New.
type Pool struct {
	budget time.Duration
	sem    *semaphore.Weighted

	inflight atomic.Int64
}

// New creates a pool. A zero budget means calls are bounded only by the
// caller's context. A limit of 0 leaves concurrency unbounded.
func New(budget time.Duration, limit int64) *Pool {
	p := &Pool{budget: budget}
	if limit > 0 {
		p.sem = semaphore.NewWeighted(limit)
	}
	return p
}

// Budget returns the per-call time budget.
func (p *Pool) Budget() time.Duration {
	return p.budget
}

// InFlight returns the number of calls currently running, including
// abandoned ones that have not returned yet.
func (p *Pool) InFlight() int64 {
	return p.inflight.Load()
}

// Do runs fn on a worker goroutine and waits for it under p's budget.
// fn receives a context that is cancelled once Do returns.
func Do[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if p.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, p.budget, ErrBudgetExceeded)
		defer cancel()
	}

	if p.sem != nil {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return zero, ctxErr(ctx, err)
		}
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)

	p.inflight.Add(1)
	go func() {
		defer p.inflight.Add(-1)
		if p.sem != nil {
			defer p.sem.Release(1)
		}
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: &PanicError{Value: r}}
			}
		}()

		v, err := fn(ctx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctxErr(ctx, ctx.Err())
	}
}

// ctxErr reports ErrBudgetExceeded only when the pool's own timer fired.
// A deadline or cancellation from the caller is returned unchanged.
func ctxErr(ctx context.Context, err error) error {
	if errors.Is(context.Cause(ctx), ErrBudgetExceeded) {
		return ErrBudgetExceeded
	}
	if err == nil {
		return ctx.Err()
	}
	return err
}
