// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pool implements a bounded concurrency gate used to dispatch
// Task.Run calls across the deployment planner and reconciliation
// planner without letting fan-out exceed the configured worker count.
package pool

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many goroutines dispatched through Go may run at
// once. A single Pool is shared across a whole push/reconcile run so
// independent DagNodes can make progress without unbounded fan-out.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// New creates a Pool that runs at most size goroutines concurrently.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size))}
}

// Go blocks until a slot is free (or ctx is done), then runs fn on a
// new goroutine. The error from acquiring a slot is returned; fn's own
// result is the caller's responsibility to collect.
func (p *Pool) Go(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		fn()
	}()
	return nil
}

// Wait blocks until every goroutine dispatched via Go has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}
