package anyeval

import (
	"context"
	"sync"
)

// resultQueue is an unbounded FIFO of episode returns with
// many producers and one consumer.
//
// Pushes never block.
// Once the queue is closed, pushes are rejected.
type resultQueue struct {
	lock   sync.Mutex
	items  []float64
	closed bool

	// ready holds a token whenever items may be available.
	ready chan struct{}
}

func newResultQueue() *resultQueue {
	return &resultQueue{ready: make(chan struct{}, 1)}
}

// Push adds a result.
// It returns false if the queue has been closed.
func (r *resultQueue) Push(x float64) bool {
	r.lock.Lock()
	if r.closed {
		r.lock.Unlock()
		return false
	}
	r.items = append(r.items, x)
	r.lock.Unlock()

	select {
	case r.ready <- struct{}{}:
	default:
	}
	return true
}

// TryPop removes the oldest result, if there is one.
func (r *resultQueue) TryPop() (float64, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(r.items) == 0 {
		return 0, false
	}
	x := r.items[0]
	r.items = r.items[1:]
	return x, true
}

// Pop waits for the oldest result.
//
// If exited is closed and the queue is empty, Pop returns
// false, since no producer is left to push.
func (r *resultQueue) Pop(ctx context.Context, exited <-chan struct{}) (float64, bool,
	error) {
	for {
		if x, ok := r.TryPop(); ok {
			return x, true, nil
		}
		select {
		case <-r.ready:
		case <-exited:
			x, ok := r.TryPop()
			return x, ok, nil
		case <-ctx.Done():
			return 0, false, ctx.Err()
		}
	}
}

// Close rejects future pushes and returns every result
// which was still queued.
func (r *resultQueue) Close() []float64 {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.closed = true
	rest := r.items
	r.items = nil
	return rest
}
