package document

import (
	"github.com/roach88/patchwire/internal/engine"
	"github.com/roach88/patchwire/internal/ir"
)

// Map is a handle to a map object.
type Map struct {
	doc *Document
	id  ir.ObjID
}

// Entry is one key/value pair of a map.
type Entry struct {
	Key   string
	Value Value
}

// ID returns the object id.
func (m Map) ID() ir.ObjID {
	return m.id
}

// Put sets key to a scalar.
func (m Map) Put(key string, v ir.ScalarValue) error {
	return m.doc.mutated(m.doc.doc.Put(m.id, key, v))
}

// PutMap creates an empty map under key.
func (m Map) PutMap(key string) (Map, error) {
	id, err := m.putObject(key, ir.ObjTypeMap)
	return Map{doc: m.doc, id: id}, err
}

// PutList creates an empty list under key.
func (m Map) PutList(key string) (List, error) {
	id, err := m.putObject(key, ir.ObjTypeList)
	return List{doc: m.doc, id: id}, err
}

// PutText creates an empty text object under key.
func (m Map) PutText(key string) (Text, error) {
	id, err := m.putObject(key, ir.ObjTypeText)
	return Text{doc: m.doc, id: id}, err
}

func (m Map) putObject(key string, typ ir.ObjType) (ir.ObjID, error) {
	id, err := m.doc.doc.PutObject(m.id, key, typ)
	if err != nil {
		return "", err
	}
	return id, m.doc.mutated(nil)
}

// EnsureMap returns the map under key, creating it when the key is missing
// or holds something else. forceReplace always creates a fresh map.
func (m Map) EnsureMap(key string, forceReplace bool) (Map, error) {
	if !forceReplace {
		if v, ok, err := m.Get(key); err != nil {
			return Map{}, err
		} else if ok {
			if existing, ok := v.AsMap(); ok {
				return existing, nil
			}
		}
	}
	return m.PutMap(key)
}

// EnsureList returns the list under key, creating it when the key is
// missing or holds something else. forceReplace always creates a fresh list.
func (m Map) EnsureList(key string, forceReplace bool) (List, error) {
	if !forceReplace {
		if v, ok, err := m.Get(key); err != nil {
			return List{}, err
		} else if ok {
			if existing, ok := v.AsList(); ok {
				return existing, nil
			}
		}
	}
	return m.PutList(key)
}

// EnsureText returns the text under key, creating it when the key is
// missing or holds something else. forceReplace always creates a fresh text.
func (m Map) EnsureText(key string, forceReplace bool) (Text, error) {
	if !forceReplace {
		if v, ok, err := m.Get(key); err != nil {
			return Text{}, err
		} else if ok {
			if existing, ok := v.AsText(); ok {
				return existing, nil
			}
		}
	}
	return m.PutText(key)
}

// Get returns the value under key.
func (m Map) Get(key string) (Value, bool, error) {
	v, ok, err := m.doc.doc.Get(m.id, key)
	if err != nil || !ok {
		return Value{}, false, err
	}
	return Value{doc: m.doc, raw: v}, true, nil
}

// Keys returns the keys in sorted order.
func (m Map) Keys() ([]string, error) {
	return m.doc.doc.Keys(m.id)
}

// Len returns the number of keys.
func (m Map) Len() (int, error) {
	n, err := m.doc.doc.Length(m.id)
	return int(n), err
}

// Entries returns every key/value pair in key order.
func (m Map) Entries() ([]Entry, error) {
	keys, err := m.Keys()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		v, ok, err := m.Get(k)
		if err != nil {
			return nil, err
		}
		if ok {
			entries = append(entries, Entry{Key: k, Value: v})
		}
	}
	return entries, nil
}

// Delete removes key.
func (m Map) Delete(key string) error {
	return m.doc.mutated(m.doc.doc.Delete(m.id, key))
}

// Increment adds by to the counter under key.
func (m Map) Increment(key string, by int64) error {
	return m.doc.mutated(m.doc.doc.Increment(m.id, key, by))
}

// Patches returns the publisher of map patches for this map.
func (m Map) Patches() *engine.Publisher[[]ir.MapPatch] {
	return m.doc.engine.MapPatches(m.id)
}

// ObjectPatches returns the publisher of raw batches for this map.
func (m Map) ObjectPatches() *engine.Publisher[[]ir.Patch] {
	return m.doc.engine.ObjectPatches(m.id)
}
