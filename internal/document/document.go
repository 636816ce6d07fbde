// Package document is the user-facing API: a Document with Map, List and
// Text handles whose every mutation is reported to subscribers.
//
// A handle is a small value (document pointer plus object id) and is cheap
// to copy. Mutations apply to the underlying crdt.Doc and then run the
// engine's diff-and-dispatch step, so by the time a mutation returns its
// patches have been delivered, unless a Group is open.
package document

import (
	"log/slog"

	"github.com/roach88/patchwire/internal/crdt"
	"github.com/roach88/patchwire/internal/engine"
	"github.com/roach88/patchwire/internal/ir"
)

// Document is one observable document.
type Document struct {
	doc    *crdt.Doc
	engine *engine.Engine
}

type config struct {
	actor   string
	logger  *slog.Logger
	metrics *engine.Metrics
}

// Option configures a Document.
type Option func(*config)

// WithActor fixes the actor id, making object ids and heads reproducible.
func WithActor(actor string) Option {
	return func(c *config) {
		c.actor = actor
	}
}

// WithLogger sets the logger used by the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics sets the engine's metrics sink.
func WithMetrics(m *engine.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// New creates an empty document.
func New(opts ...Option) *Document {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	var docOpts []crdt.Option
	if cfg.actor != "" {
		docOpts = append(docOpts, crdt.WithActor(cfg.actor))
	}
	doc := crdt.New(docOpts...)

	return &Document{
		doc: doc,
		engine: engine.New(doc,
			engine.WithLogger(cfg.logger.With("actor", doc.Actor())),
			engine.WithMetrics(cfg.metrics),
		),
	}
}

// Root returns the document's root map.
func (d *Document) Root() Map {
	return Map{doc: d, id: ir.Root}
}

// Actor returns the document's actor id.
func (d *Document) Actor() string {
	return d.doc.Actor()
}

// Heads returns the snapshot marker for the current state.
func (d *Document) Heads() ir.Heads {
	return d.doc.Heads()
}

// Engine exposes the patch engine, for callers that need Begin/End or
// introspection.
func (d *Document) Engine() *engine.Engine {
	return d.engine
}

// Group runs fn with delivery deferred: every patch fn causes is delivered
// after fn returns, as one document batch and one batch per object run.
func (d *Document) Group(fn func() error) error {
	return d.engine.Group(fn)
}

// Patches returns the publisher of whole-document batches.
func (d *Document) Patches() *engine.Publisher[[]ir.Patch] {
	return d.engine.Patches()
}

// ObjectPatches returns the publisher of raw batches for object id.
func (d *Document) ObjectPatches(id ir.ObjID) *engine.Publisher[[]ir.Patch] {
	return d.engine.ObjectPatches(id)
}

// Object returns the value for an existing object id, for resolving ids
// that arrive in patches.
func (d *Document) Object(id ir.ObjID) (Value, error) {
	typ, err := d.doc.ObjectType(id)
	if err != nil {
		return Value{}, err
	}
	return Value{doc: d, raw: ir.ObjectValue{ID: id, Type: typ}}, nil
}

// mutated runs the engine hook after a successful mutation.
func (d *Document) mutated(err error) error {
	if err != nil {
		return err
	}
	return d.engine.AfterMutation()
}

// Value is a slot's content: a scalar or a nested container.
type Value struct {
	doc *Document
	raw ir.Value
}

// Raw returns the underlying value.
func (v Value) Raw() ir.Value {
	return v.raw
}

// Scalar returns the value as a scalar.
func (v Value) Scalar() (ir.ScalarValue, bool) {
	s, ok := v.raw.(ir.ScalarValue)
	return s, ok
}

// AsMap returns a handle if the value is a map.
func (v Value) AsMap() (Map, bool) {
	if ref, ok := v.raw.(ir.ObjectValue); ok && ref.Type == ir.ObjTypeMap {
		return Map{doc: v.doc, id: ref.ID}, true
	}
	return Map{}, false
}

// AsList returns a handle if the value is a list.
func (v Value) AsList() (List, bool) {
	if ref, ok := v.raw.(ir.ObjectValue); ok && ref.Type == ir.ObjTypeList {
		return List{doc: v.doc, id: ref.ID}, true
	}
	return List{}, false
}

// AsText returns a handle if the value is a text object.
func (v Value) AsText() (Text, bool) {
	if ref, ok := v.raw.(ir.ObjectValue); ok && ref.Type == ir.ObjTypeText {
		return Text{doc: v.doc, id: ref.ID}, true
	}
	return Text{}, false
}

// String renders the value for display.
func (v Value) String() string {
	return ir.FormatValue(v.raw)
}
