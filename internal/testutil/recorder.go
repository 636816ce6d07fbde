// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"slices"
	"sync"
)

// Recorder collects batches delivered to a publisher subscription.
//
// Pass r.Sink to Publisher.Subscribe. Each delivered batch is copied, so
// later mutation of the slice by the publisher's caller is not observed.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Recorder[T any] struct {
	mu      sync.Mutex
	batches [][]T
}

// NewRecorder creates an empty recorder.
func NewRecorder[T any]() *Recorder[T] {
	return &Recorder[T]{}
}

// Sink records one batch.
func (r *Recorder[T]) Sink(batch []T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, slices.Clone(batch))
}

// Batches returns every recorded batch in delivery order.
func (r *Recorder[T]) Batches() [][]T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.batches)
}

// Count returns the number of recorded batches.
func (r *Recorder[T]) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

// Sizes returns the length of each recorded batch.
// Returns an empty, non-nil slice when nothing was recorded.
func (r *Recorder[T]) Sizes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	sizes := make([]int, len(r.batches))
	for i, b := range r.batches {
		sizes[i] = len(b)
	}
	return sizes
}

// Flat returns every recorded item, batches concatenated.
func (r *Recorder[T]) Flat() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []T
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

// Reset discards everything recorded.
//
// Used for test reuse within one subscription.
func (r *Recorder[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = nil
}
