package crdt

import (
	"fmt"
	"slices"

	"github.com/roach88/patchwire/internal/ir"
)

// Insert places v at index in list obj, shifting later elements right.
func (d *Doc) Insert(obj ir.ObjID, index uint64, v ir.ScalarValue) error {
	return d.Splice(obj, index, 0, []ir.ScalarValue{v})
}

// InsertObject creates a container of kind typ at index in list obj.
func (d *Doc) InsertObject(obj ir.ObjID, index uint64, typ ir.ObjType) (ir.ObjID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeList)
	if err != nil {
		return "", fmt.Errorf("insert object at %d: %w", index, err)
	}
	if index > uint64(len(o.items)) {
		return "", fmt.Errorf("insert object at %d of %d: %w", index, len(o.items), ErrIndexOutOfRange)
	}
	id, ref := d.create(typ)
	o.items = slices.Insert(o.items, int(index), ir.Value(ref))
	if err := d.commit(ir.Insert{ObjID: obj, Index: index, Values: []ir.Value{ref}}); err != nil {
		return "", err
	}
	return id, nil
}

// Set replaces the element at index in list obj. The overwrite is recorded
// as a one-element delete followed by an insert at the same index.
func (d *Doc) Set(obj ir.ObjID, index uint64, v ir.ScalarValue) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeList)
	if err != nil {
		return fmt.Errorf("set %d: %w", index, err)
	}
	if index >= uint64(len(o.items)) {
		return fmt.Errorf("set %d of %d: %w", index, len(o.items), ErrIndexOutOfRange)
	}
	return d.replaceAt(o, obj, index, v)
}

// SetObject replaces the element at index in list obj with a new container
// of kind typ.
func (d *Doc) SetObject(obj ir.ObjID, index uint64, typ ir.ObjType) (ir.ObjID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeList)
	if err != nil {
		return "", fmt.Errorf("set object %d: %w", index, err)
	}
	if index >= uint64(len(o.items)) {
		return "", fmt.Errorf("set object %d of %d: %w", index, len(o.items), ErrIndexOutOfRange)
	}
	id, ref := d.create(typ)
	if err := d.replaceAt(o, obj, index, ref); err != nil {
		return "", err
	}
	return id, nil
}

// Splice deletes del elements starting at start in list obj, then inserts
// vals at start. It records a delete and an insert as separate patches.
func (d *Doc) Splice(obj ir.ObjID, start, del uint64, vals []ir.ScalarValue) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeList)
	if err != nil {
		return fmt.Errorf("splice at %d: %w", start, err)
	}
	n := uint64(len(o.items))
	if start > n || del > n-start {
		return fmt.Errorf("splice %d..<%d of %d: %w", start, start+del, n, ErrIndexOutOfRange)
	}

	var patches []ir.Patch
	if del > 0 {
		o.items = slices.Delete(o.items, int(start), int(start+del))
		patches = append(patches, ir.DeleteSeq{ObjID: obj, Index: start, Length: del})
	}
	if len(vals) > 0 {
		inserted := make([]ir.Value, len(vals))
		for i, v := range vals {
			inserted[i] = v
		}
		o.items = slices.Insert(o.items, int(start), inserted...)
		patches = append(patches, ir.Insert{ObjID: obj, Index: start, Values: inserted})
	}
	return d.commit(patches...)
}

// DeleteAt removes the element at index in list obj.
func (d *Doc) DeleteAt(obj ir.ObjID, index uint64) error {
	return d.Splice(obj, index, 1, nil)
}

// replaceAt overwrites the element at index, which must be in range.
// Caller must hold d.mu.
func (d *Doc) replaceAt(o *object, obj ir.ObjID, index uint64, v ir.Value) error {
	o.items[index] = v
	return d.commit(
		ir.DeleteSeq{ObjID: obj, Index: index, Length: 1},
		ir.Insert{ObjID: obj, Index: index, Values: []ir.Value{v}},
	)
}

// IncrementAt adds by to the counter at index in list obj. It is recorded
// like Set, with the new counter value.
func (d *Doc) IncrementAt(obj ir.ObjID, index uint64, by int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeList)
	if err != nil {
		return fmt.Errorf("increment %d: %w", index, err)
	}
	if index >= uint64(len(o.items)) {
		return fmt.Errorf("increment %d of %d: %w", index, len(o.items), ErrIndexOutOfRange)
	}
	c, ok := o.items[index].(ir.Counter)
	if !ok {
		return fmt.Errorf("increment %d: %w", index, ErrNotCounter)
	}
	return d.replaceAt(o, obj, index, c+ir.Counter(by))
}

// GetAt returns the element at index in list obj.
func (d *Doc) GetAt(obj ir.ObjID, index uint64) (ir.Value, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeList)
	if err != nil {
		return nil, false, fmt.Errorf("get %d: %w", index, err)
	}
	if index >= uint64(len(o.items)) {
		return nil, false, nil
	}
	return o.items[index], true, nil
}

// Values returns a copy of every element of list obj.
func (d *Doc) Values(obj ir.ObjID) ([]ir.Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeList)
	if err != nil {
		return nil, fmt.Errorf("values: %w", err)
	}
	return slices.Clone(o.items), nil
}
