// Package telemetry holds background delivery helpers shared by the visit recorder.
package telemetry

import (
	"context"
	"sync"
	"time"

	"portfolio-cms/backend/internal/logging"
)

const (
	// DefaultTaskTimeout bounds a single background task.
	DefaultTaskTimeout = 5 * time.Second
	// DefaultMaxInFlight caps how many tasks run at once.
	DefaultMaxInFlight = 64
)

// Async runs best-effort tasks off the request path and lets shutdown wait for them.
// At most a fixed number run at once; tasks offered beyond that are dropped.
type Async struct {
	timeout time.Duration
	slots   chan struct{}
	wg      sync.WaitGroup
}

// NewAsync returns an Async whose tasks each get timeout (DefaultTaskTimeout if <= 0),
// limited to DefaultMaxInFlight concurrent tasks.
func NewAsync(timeout time.Duration) *Async {
	return NewBoundedAsync(timeout, DefaultMaxInFlight)
}

// NewBoundedAsync is NewAsync with an explicit concurrency cap (DefaultMaxInFlight if <= 0).
func NewBoundedAsync(timeout time.Duration, maxInFlight int) *Async {
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &Async{timeout: timeout, slots: make(chan struct{}, maxInFlight)}
}

// Go runs fn in a goroutine with a fresh context bounded by the task timeout, so a finished or
// cancelled request does not abort it. Errors are logged with name. It reports false, without
// running fn, when every slot is busy. A nil Async runs nothing.
func (a *Async) Go(name string, fn func(ctx context.Context) error) bool {
	if a == nil || fn == nil {
		return false
	}
	select {
	case a.slots <- struct{}{}:
	default:
		logging.Debug().Str("task", name).Msg("background task dropped")
		return false
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() { <-a.slots }()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logging.Warn().Err(err).Str("task", name).Msg("background task failed")
		}
	}()
	return true
}

// Wait blocks until every started task returns or ctx is done.
func (a *Async) Wait(ctx context.Context) error {
	if a == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
