package engine

import (
	"sync"
)

// deliveryQueue is a FIFO of pending subscriber deliveries.
//
// Items are pushed by the goroutine holding the engine's delivery lock, so
// the queue only ever holds that goroutine's deliveries, in engine lock
// order. A mutation made from inside a subscriber callback pushes onto the
// queue being drained; its items run after the current one.
type deliveryQueue struct {
	mu    sync.Mutex
	items []func()
}

func newDeliveryQueue() *deliveryQueue {
	return &deliveryQueue{
		items: make([]func(), 0, 16),
	}
}

// push appends a delivery.
func (q *deliveryQueue) push(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, fn)
}

// next pops the front delivery.
func (q *deliveryQueue) next() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}

	fn := q.items[0]
	// Release the closure so the batch it captured can be collected.
	q.items[0] = nil
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return fn, true
}

// drain runs queued deliveries until the queue is empty, including items
// pushed by the deliveries themselves.
//
// A panicking delivery does not hold back the rest: every remaining item
// still runs, then drain panics again with the first panic value.
func (q *deliveryQueue) drain() {
	var (
		first    any
		panicked bool
	)
	for {
		fn, ok := q.next()
		if !ok {
			break
		}
		if r, p := runDelivery(fn); p && !panicked {
			first, panicked = r, true
		}
	}
	if panicked {
		panic(first)
	}
}

func runDelivery(fn func()) (r any, panicked bool) {
	defer func() {
		if r = recover(); r != nil {
			panicked = true
		}
	}()
	fn()
	return nil, false
}

// Len returns the number of pending deliveries.
func (q *deliveryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
