package document

import (
	"fmt"

	"github.com/roach88/patchwire/internal/crdt"
	"github.com/roach88/patchwire/internal/engine"
	"github.com/roach88/patchwire/internal/ir"
)

// List is a handle to a list object.
type List struct {
	doc *Document
	id  ir.ObjID
}

// ID returns the object id.
func (l List) ID() ir.ObjID {
	return l.id
}

// Insert places v at index.
func (l List) Insert(index uint64, v ir.ScalarValue) error {
	return l.doc.mutated(l.doc.doc.Insert(l.id, index, v))
}

// Append places v after the last element.
func (l List) Append(v ir.ScalarValue) error {
	n, err := l.doc.doc.Length(l.id)
	if err != nil {
		return err
	}
	return l.Insert(n, v)
}

// InsertMap creates an empty map at index.
func (l List) InsertMap(index uint64) (Map, error) {
	id, err := l.insertObject(index, ir.ObjTypeMap)
	return Map{doc: l.doc, id: id}, err
}

// InsertList creates an empty list at index.
func (l List) InsertList(index uint64) (List, error) {
	id, err := l.insertObject(index, ir.ObjTypeList)
	return List{doc: l.doc, id: id}, err
}

// InsertText creates an empty text object at index.
func (l List) InsertText(index uint64) (Text, error) {
	id, err := l.insertObject(index, ir.ObjTypeText)
	return Text{doc: l.doc, id: id}, err
}

func (l List) insertObject(index uint64, typ ir.ObjType) (ir.ObjID, error) {
	id, err := l.doc.doc.InsertObject(l.id, index, typ)
	if err != nil {
		return "", err
	}
	return id, l.doc.mutated(nil)
}

// Set replaces the element at index.
func (l List) Set(index uint64, v ir.ScalarValue) error {
	return l.doc.mutated(l.doc.doc.Set(l.id, index, v))
}

// Get returns the element at index.
func (l List) Get(index uint64) (Value, bool, error) {
	v, ok, err := l.doc.doc.GetAt(l.id, index)
	if err != nil || !ok {
		return Value{}, false, err
	}
	return Value{doc: l.doc, raw: v}, true, nil
}

// Len returns the number of elements.
func (l List) Len() (uint64, error) {
	return l.doc.doc.Length(l.id)
}

// Values returns every element in order.
func (l List) Values() ([]Value, error) {
	raw, err := l.doc.doc.Values(l.id)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(raw))
	for i, v := range raw {
		out[i] = Value{doc: l.doc, raw: v}
	}
	return out, nil
}

// ReplaceRange replaces the elements in [start, end) with vals.
func (l List) ReplaceRange(start, end uint64, vals []ir.ScalarValue) error {
	if end < start {
		return fmt.Errorf("replace %d..<%d: %w", start, end, crdt.ErrIndexOutOfRange)
	}
	return l.doc.mutated(l.doc.doc.Splice(l.id, start, end-start, vals))
}

// Remove deletes the element at index.
func (l List) Remove(index uint64) error {
	return l.doc.mutated(l.doc.doc.DeleteAt(l.id, index))
}

// Increment adds by to the counter at index.
func (l List) Increment(index uint64, by int64) error {
	return l.doc.mutated(l.doc.doc.IncrementAt(l.id, index, by))
}

// EnsureMap returns the map at index, replacing whatever else is there.
// forceReplace always installs a fresh map.
func (l List) EnsureMap(index uint64, forceReplace bool) (Map, error) {
	if !forceReplace {
		if v, ok, err := l.Get(index); err != nil {
			return Map{}, err
		} else if existing, ok2 := v.AsMap(); ok && ok2 {
			return existing, nil
		}
	}
	id, err := l.setObject(index, ir.ObjTypeMap)
	return Map{doc: l.doc, id: id}, err
}

// EnsureList returns the list at index, replacing whatever else is there.
// forceReplace always installs a fresh list.
func (l List) EnsureList(index uint64, forceReplace bool) (List, error) {
	if !forceReplace {
		if v, ok, err := l.Get(index); err != nil {
			return List{}, err
		} else if existing, ok2 := v.AsList(); ok && ok2 {
			return existing, nil
		}
	}
	id, err := l.setObject(index, ir.ObjTypeList)
	return List{doc: l.doc, id: id}, err
}

// EnsureText returns the text at index, replacing whatever else is there.
// forceReplace always installs a fresh text object.
func (l List) EnsureText(index uint64, forceReplace bool) (Text, error) {
	if !forceReplace {
		if v, ok, err := l.Get(index); err != nil {
			return Text{}, err
		} else if existing, ok2 := v.AsText(); ok && ok2 {
			return existing, nil
		}
	}
	id, err := l.setObject(index, ir.ObjTypeText)
	return Text{doc: l.doc, id: id}, err
}

func (l List) setObject(index uint64, typ ir.ObjType) (ir.ObjID, error) {
	id, err := l.doc.doc.SetObject(l.id, index, typ)
	if err != nil {
		return "", err
	}
	return id, l.doc.mutated(nil)
}

// Patches returns the publisher of list patches for this list.
func (l List) Patches() *engine.Publisher[[]ir.ListPatch] {
	return l.doc.engine.ListPatches(l.id)
}

// ObjectPatches returns the publisher of raw batches for this list.
func (l List) ObjectPatches() *engine.Publisher[[]ir.Patch] {
	return l.doc.engine.ObjectPatches(l.id)
}
