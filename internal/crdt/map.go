package crdt

import (
	"fmt"
	"slices"

	"github.com/roach88/patchwire/internal/ir"
)

// Put sets key in map obj to a scalar.
func (d *Doc) Put(obj ir.ObjID, key string, v ir.ScalarValue) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeMap)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	o.entries[key] = v
	return d.commit(ir.Put{ObjID: obj, Prop: ir.Key(key), Value: v})
}

// PutObject creates a container of kind typ under key in map obj.
func (d *Doc) PutObject(obj ir.ObjID, key string, typ ir.ObjType) (ir.ObjID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeMap)
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}
	id, ref := d.create(typ)
	o.entries[key] = ref
	if err := d.commit(ir.Put{ObjID: obj, Prop: ir.Key(key), Value: ref}); err != nil {
		return "", err
	}
	return id, nil
}

// Delete removes key from map obj. Deleting a missing key records nothing.
func (d *Doc) Delete(obj ir.ObjID, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeMap)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	if _, ok := o.entries[key]; !ok {
		return nil
	}
	delete(o.entries, key)
	return d.commit(ir.DeleteMap{ObjID: obj, Key: key})
}

// Increment adds by to the counter under key in map obj. It is recorded as a
// Put of the new counter value.
func (d *Doc) Increment(obj ir.ObjID, key string, by int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeMap)
	if err != nil {
		return fmt.Errorf("increment %q: %w", key, err)
	}
	c, ok := o.entries[key].(ir.Counter)
	if !ok {
		return fmt.Errorf("increment %q: %w", key, ErrNotCounter)
	}
	next := c + ir.Counter(by)
	o.entries[key] = next
	return d.commit(ir.Put{ObjID: obj, Prop: ir.Key(key), Value: next})
}

// Get returns the value under key in map obj.
func (d *Doc) Get(obj ir.ObjID, key string) (ir.Value, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeMap)
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	v, ok := o.entries[key]
	return v, ok, nil
}

// Keys returns the keys of map obj in sorted order.
func (d *Doc) Keys(obj ir.ObjID) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeMap)
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	keys := make([]string, 0, len(o.entries))
	for k := range o.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}
