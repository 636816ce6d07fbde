// Package crdt is a small in-memory document engine.
//
// It is the reference implementation of engine.Source: every mutation is
// recorded as one change in a linear, content-addressed history, and
// Difference replays the change records between two snapshot markers.
// Merging, sync and persistence are not implemented; a Doc has exactly one
// actor and its history never branches.
//
// Text is stored as Unicode scalars, so every text index and length counts
// runes.
//
// Thread-safety: all methods are safe for concurrent use.
package crdt

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/patchwire/internal/ir"
)

var (
	ErrUnknownObject     = errors.New("crdt: unknown object")
	ErrWrongType         = errors.New("crdt: wrong object type")
	ErrIndexOutOfRange   = errors.New("crdt: index out of range")
	ErrNotCounter        = errors.New("crdt: value is not a counter")
	ErrUnknownHeads      = errors.New("crdt: heads not found in history")
	ErrReverseDifference = errors.New("crdt: difference runs backwards")
)

// Option configures a Doc.
type Option func(*Doc)

// WithActor fixes the actor id. Object ids and change hashes derive from it,
// so a fixed actor makes a document's history reproducible.
func WithActor(actor string) Option {
	return func(d *Doc) {
		d.actor = actor
	}
}

type object struct {
	typ     ir.ObjType
	entries map[string]ir.Value
	items   []ir.Value
	text    []rune
	marks   []ir.Mark
}

type change struct {
	hash    ir.ChangeHash
	patches []ir.Patch
}

// Doc is one document: a tree of containers rooted at ir.Root plus the
// history of changes that built it.
type Doc struct {
	mu      sync.Mutex
	actor   string
	counter uint64
	objects map[ir.ObjID]*object
	history []change
	index   map[ir.ChangeHash]int
}

// New creates an empty document whose root is a map.
// The actor defaults to a fresh UUIDv7 without hyphens.
func New(opts ...Option) *Doc {
	d := &Doc{
		objects: map[ir.ObjID]*object{
			ir.Root: newObject(ir.ObjTypeMap),
		},
		index: make(map[ir.ChangeHash]int),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.actor == "" {
		d.actor = strings.ReplaceAll(uuid.Must(uuid.NewV7()).String(), "-", "")
	}
	return d
}

func newObject(typ ir.ObjType) *object {
	o := &object{typ: typ}
	if typ == ir.ObjTypeMap {
		o.entries = make(map[string]ir.Value)
	}
	return o
}

// Actor returns the document's actor id.
func (d *Doc) Actor() string {
	return d.actor
}

// ObjectType returns the kind of container behind id.
func (d *Doc) ObjectType(id ir.ObjID) (ir.ObjType, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.objects[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	return o.typ, nil
}

// Length returns the number of entries, elements or scalars in id.
func (d *Doc) Length(id ir.ObjID) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.objects[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	switch o.typ {
	case ir.ObjTypeMap:
		return uint64(len(o.entries)), nil
	case ir.ObjTypeList:
		return uint64(len(o.items)), nil
	default:
		return uint64(len(o.text)), nil
	}
}

// lookup returns the object behind id, checking its kind.
// Caller must hold d.mu.
func (d *Doc) lookup(id ir.ObjID, want ir.ObjType) (*object, error) {
	o, ok := d.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	if o.typ != want {
		return nil, fmt.Errorf("%w: %s is a %s, not a %s", ErrWrongType, id, o.typ, want)
	}
	return o, nil
}

// create mints a new container and registers it.
// Caller must hold d.mu.
func (d *Doc) create(typ ir.ObjType) (ir.ObjID, ir.ObjectValue) {
	d.counter++
	id := ir.ObjID(fmt.Sprintf("%d@%s", d.counter, d.actor))
	d.objects[id] = newObject(typ)
	return id, ir.ObjectValue{ID: id, Type: typ}
}
