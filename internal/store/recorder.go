package store

import (
	"context"
	"sync"

	"github.com/roach88/patchwire/internal/ir"
)

// Recorder journals every batch it receives under one document name.
// Subscribe Record to a document publisher.
//
// Subscriber callbacks cannot return errors, so the first write failure is
// kept and later batches are skipped; check Err when the run is over.
type Recorder struct {
	store    *Store
	ctx      context.Context
	document string

	mu      sync.Mutex
	err     error
	batches int
}

// NewRecorder creates a recorder writing to s under document.
func (s *Store) NewRecorder(ctx context.Context, document string) *Recorder {
	return &Recorder{store: s, ctx: ctx, document: document}
}

// Record journals one batch.
func (r *Recorder) Record(batch []ir.Patch) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return
	}
	if _, err := r.store.WriteBatch(r.ctx, r.document, batch); err != nil {
		r.err = err
		return
	}
	r.batches++
}

// Err returns the first write failure, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Batches returns the number of batches journaled.
func (r *Recorder) Batches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches
}
