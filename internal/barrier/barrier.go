// Package barrier holds the point between asynchronous leaf hashing and the
// synchronous directory fold: nothing folds until every leaf has resolved.
package barrier

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ProgressFunc receives periodic snapshots while Wait blocks.
type ProgressFunc func(resolved, submitted int64)

// Barrier counts submitted leaf tasks and their resolutions. A failed task
// resolves like a successful one so a bad file cannot stall the run.
type Barrier struct {
	pending   sync.WaitGroup
	submitted atomic.Int64
	resolved  atomic.Int64
}

// New returns an empty barrier.
func New() *Barrier {
	return &Barrier{}
}

// Add records one submitted task. All Add calls must happen before Wait.
func (b *Barrier) Add() {
	b.submitted.Add(1)
	b.pending.Add(1)
}

// Resolve records one finished task.
func (b *Barrier) Resolve() {
	b.resolved.Add(1)
	b.pending.Done()
}

// Snapshot returns the current counters.
func (b *Barrier) Snapshot() (resolved, submitted int64) {
	return b.resolved.Load(), b.submitted.Load()
}

// Fraction is resolved/submitted, 1 when nothing was submitted.
func (b *Barrier) Fraction() float64 {
	resolved, submitted := b.Snapshot()
	if submitted == 0 {
		return 1
	}
	return float64(resolved) / float64(submitted)
}

// Wait blocks until every submitted task has resolved or ctx is done. While
// waiting, progress (if non-nil) is called every interval and once more on
// completion.
func (b *Barrier) Wait(ctx context.Context, interval time.Duration, progress ProgressFunc) error {
	done := make(chan struct{})
	go func() {
		b.pending.Wait()
		close(done)
	}()

	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			if progress != nil {
				progress(b.Snapshot())
			}
			return nil
		case <-ticker.C:
			if progress != nil {
				progress(b.Snapshot())
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
