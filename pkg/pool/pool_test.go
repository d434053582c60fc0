// SPDX-License-Identifier: AGPL-3.0-or-later

package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_BoundsConcurrency(t *testing.T) {
	p := New(2)
	var current, maxSeen int64

	for i := 0; i < 8; i++ {
		err := p.Go(context.Background(), func() {
			n := atomic.AddInt64(&current, 1)
			for {
				old := atomic.LoadInt64(&maxSeen)
				if n <= old || atomic.CompareAndSwapInt64(&maxSeen, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&current, -1)
		})
		if err != nil {
			t.Fatalf("Go() error = %v", err)
		}
	}

	p.Wait()
	if got := atomic.LoadInt64(&maxSeen); got > 2 {
		t.Errorf("max concurrent goroutines = %d, want <= 2", got)
	}
}

func TestPool_GoRespectsContextCancellation(t *testing.T) {
	p := New(1)
	block := make(chan struct{})
	defer close(block)

	if err := p.Go(context.Background(), func() { <-block }); err != nil {
		t.Fatalf("Go() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Go(ctx, func() {}); err == nil {
		t.Error("expected Go() to fail once the context is canceled")
	}
}
