package engine

import (
	"slices"
	"sync"
)

// Publisher broadcasts values to every current subscriber, in subscription
// order. A subscriber added after a Publish never sees that value.
//
// Thread-safety: all methods may be called from any goroutine, including
// from inside a subscriber callback. Callbacks run without the publisher's
// lock held.
type Publisher[T any] struct {
	mu   sync.Mutex
	seq  uint64
	subs []subscriber[T]
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// NewPublisher creates a publisher with no subscribers.
func NewPublisher[T any]() *Publisher[T] {
	return &Publisher[T]{}
}

// Subscribe registers fn and returns a function that removes it.
// Calling the cancel function more than once is a no-op.
func (p *Publisher[T]) Subscribe(fn func(T)) (cancel func()) {
	p.mu.Lock()
	p.seq++
	id := p.seq
	p.subs = append(p.subs, subscriber[T]{id: id, fn: fn})
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.remove(id)
		})
	}
}

func (p *Publisher[T]) remove(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = slices.DeleteFunc(p.subs, func(s subscriber[T]) bool {
		return s.id == id
	})
}

// Publish delivers v to the subscribers registered when Publish was called.
func (p *Publisher[T]) Publish(v T) {
	p.mu.Lock()
	subs := slices.Clone(p.subs)
	p.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of subscribers.
func (p *Publisher[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Chan subscribes a channel with the given buffer size.
//
// Sends block when the buffer is full, which stalls the delivering
// goroutine until the consumer catches up; batches are never dropped.
// A consumer that mutates the same document must keep up, since its
// mutation waits for the stalled delivery. The channel is not closed by
// cancel.
func (p *Publisher[T]) Chan(buffer int) (<-chan T, func()) {
	ch := make(chan T, buffer)
	cancel := p.Subscribe(func(v T) {
		ch <- v
	})
	return ch, cancel
}
