package limiter

import (
	"context"
	"sync"
	"sync/atomic"
)

// Limiter is a counting semaphore bounding how many operations run at once.
// It records the highest number of simultaneous holders it has seen.
type Limiter struct {
	ch       chan struct{}
	inFlight atomic.Int64
	peak     atomic.Int64
}

// New creates a limiter with the given capacity. Capacities below one are
// treated as one.
func New(capacity int) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	return &Limiter{
		ch: make(chan struct{}, capacity),
	}
}

// Capacity returns the maximum number of concurrent holders.
func (l *Limiter) Capacity() int {
	return cap(l.ch)
}

// Acquire acquires a slot, blocking until one frees or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	n := l.inFlight.Add(1)
	for {
		p := l.peak.Load()
		if n <= p || l.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return nil
}

// Release releases a slot
func (l *Limiter) Release() {
	l.inFlight.Add(-1)
	<-l.ch
}

// InFlight reports the number of slots currently held.
func (l *Limiter) InFlight() int {
	return int(l.inFlight.Load())
}

// Peak reports the highest number of slots ever held at once.
func (l *Limiter) Peak() int {
	return int(l.peak.Load())
}

// Map runs fn for every item with at most Capacity calls in flight and
// returns once every call has finished. Results keep the order of items.
// Items that could not acquire a slot because ctx ended get onCancel's value.
func Map[T, R any](ctx context.Context, l *Limiter, items []T, fn func(context.Context, T) R, onCancel func(T, error) R) []R {
	out := make([]R, len(items))
	var wg sync.WaitGroup

	for i, item := range items {
		if err := l.Acquire(ctx); err != nil {
			for j := i; j < len(items); j++ {
				out[j] = onCancel(items[j], err)
			}
			break
		}

		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			defer l.Release()
			out[i] = fn(ctx, item)
		}(i, item)
	}

	wg.Wait()
	return out
}
