package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/patchwire/internal/ir"
)

// Source is the document engine an Engine observes.
//
// Heads names the current state. Difference returns the change records
// applied between two states, in application order.
type Source interface {
	Heads() ir.Heads
	Difference(before, after ir.Heads) ([]ir.Patch, error)
}

// Engine diffs a Source after each mutation and delivers the result to
// subscribers. One Engine serves one document.
//
// Thread-safety model:
//   - every method is safe from any goroutine
//   - every method is safe from inside a subscriber callback
//   - deliveries run synchronously on the goroutine whose AfterMutation or
//     End flushed them, and have finished when that call returns
//   - deliveries for one document never overlap; they run in the order the
//     mutations that produced them acquired the engine lock
//
// A mutation from another goroutine waits while a delivery is running, so a
// subscriber callback must not block on a goroutine that mutates the same
// document.
type Engine struct {
	src      Source
	logger   *slog.Logger
	metrics  *Metrics
	delivery *ownerLock
	queue    *deliveryQueue

	mu         sync.Mutex
	started    bool
	published  ir.Heads
	depth      int
	pendingDoc []ir.Patch
	pendingObj []ir.Patch

	docPub   *Publisher[[]ir.Patch]
	objPubs  map[ir.ObjID]*Publisher[[]ir.Patch]
	mapPubs  map[ir.ObjID]*Publisher[[]ir.MapPatch]
	listPubs map[ir.ObjID]*Publisher[[]ir.ListPatch]
	textPubs map[ir.ObjID]*Publisher[[]ir.TextPatch]
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics sink. Default: none.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine observing src.
//
// Nothing is diffed until the first subscription; from then on only
// changes made after that subscription are delivered.
func New(src Source, opts ...Option) *Engine {
	e := &Engine{
		src:      src,
		logger:   slog.Default(),
		delivery: newOwnerLock(),
		queue:    newDeliveryQueue(),
		objPubs:  make(map[ir.ObjID]*Publisher[[]ir.Patch]),
		mapPubs:  make(map[ir.ObjID]*Publisher[[]ir.MapPatch]),
		listPubs: make(map[ir.ObjID]*Publisher[[]ir.ListPatch]),
		textPubs: make(map[ir.ObjID]*Publisher[[]ir.TextPatch]),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Patches returns the publisher of whole-document batches.
// Every call returns the same publisher.
func (e *Engine) Patches() *Publisher[[]ir.Patch] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.docPub == nil {
		e.startLocked()
		e.docPub = NewPublisher[[]ir.Patch]()
		e.logger.Debug("document publisher created")
	}
	return e.docPub
}

// ObjectPatches returns the publisher of batches touching object id.
// Every call with the same id returns the same publisher.
func (e *Engine) ObjectPatches(id ir.ObjID) *Publisher[[]ir.Patch] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.objectPublisherLocked(id)
}

func (e *Engine) objectPublisherLocked(id ir.ObjID) *Publisher[[]ir.Patch] {
	if pub, ok := e.objPubs[id]; ok {
		return pub
	}
	e.startLocked()
	pub := NewPublisher[[]ir.Patch]()
	e.objPubs[id] = pub
	e.logger.Debug("object publisher created", "obj", id)
	return pub
}

// startLocked pins the published heads at the first subscription.
func (e *Engine) startLocked() {
	if e.started {
		return
	}
	e.started = true
	e.published = e.src.Heads()
}

// Observed reports whether any document or object publisher exists.
func (e *Engine) Observed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.observedLocked()
}

func (e *Engine) observedLocked() bool {
	return e.docPub != nil || len(e.objPubs) > 0
}

// Subscriptions returns the number of publishers: the document publisher
// plus one per observed object.
func (e *Engine) Subscriptions() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.objPubs)
	if e.docPub != nil {
		n++
	}
	return n
}

// Published returns the heads of the last state handed to subscribers.
func (e *Engine) Published() ir.Heads {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.published.Clone()
}

// AfterMutation diffs the Source against the last published state and
// delivers the result, or buffers it while a group is open.
//
// Call it after every successful mutation of the Source. It returns a
// *DiffError when the Source cannot compute the difference; the published
// state is then unchanged and nothing is delivered.
//
// Called from inside a subscriber callback, it queues its deliveries behind
// the one in progress; they run before the outermost call returns.
func (e *Engine) AfterMutation() error {
	if !e.Observed() {
		return nil
	}

	nested := e.delivery.lock()
	defer e.delivery.unlock()

	e.mu.Lock()
	current := e.src.Heads()
	if current.Equal(e.published) {
		e.mu.Unlock()
		return nil
	}

	start := time.Now()
	patches, err := e.src.Difference(e.published, current)
	e.metrics.diffed(time.Since(start), len(patches), err)
	if err != nil {
		de := &DiffError{Before: e.published.Clone(), After: current, Err: err}
		e.mu.Unlock()
		e.logger.Error("diff failed", "before", de.Before.String(), "after", current.String(), "error", err)
		return de
	}

	e.published = current
	e.pendingDoc = append(e.pendingDoc, patches...)
	e.pendingObj = append(e.pendingObj, patches...)

	if e.depth > 0 {
		e.mu.Unlock()
		return nil
	}

	e.flushLocked()
	e.mu.Unlock()
	if !nested {
		e.queue.drain()
	}
	return nil
}
