package crdt

import (
	"fmt"
	"slices"

	"github.com/roach88/patchwire/internal/ir"
)

// SpliceText deletes del scalars starting at start in text obj, then
// inserts s at start.
func (d *Doc) SpliceText(obj ir.ObjID, start, del uint64, s string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeText)
	if err != nil {
		return fmt.Errorf("splice text at %d: %w", start, err)
	}
	n := uint64(len(o.text))
	if start > n || del > n-start {
		return fmt.Errorf("splice text %d..<%d of %d: %w", start, start+del, n, ErrIndexOutOfRange)
	}
	return d.commit(o.spliceText(obj, start, del, []rune(s))...)
}

// UpdateText replaces the whole content of text obj with s, recording only
// the span between the common prefix and the common suffix.
func (d *Doc) UpdateText(obj ir.ObjID, s string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeText)
	if err != nil {
		return fmt.Errorf("update text: %w", err)
	}

	old, repl := o.text, []rune(s)
	prefix := 0
	for prefix < len(old) && prefix < len(repl) && old[prefix] == repl[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(old)-prefix && suffix < len(repl)-prefix &&
		old[len(old)-1-suffix] == repl[len(repl)-1-suffix] {
		suffix++
	}

	del := uint64(len(old) - prefix - suffix)
	ins := repl[prefix : len(repl)-suffix]
	return d.commit(o.spliceText(obj, uint64(prefix), del, ins)...)
}

// Mark applies a formatting span to [start, end) of text obj.
func (d *Doc) Mark(obj ir.ObjID, start, end uint64, name string, v ir.ScalarValue) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeText)
	if err != nil {
		return fmt.Errorf("mark %q: %w", name, err)
	}
	if start >= end || end > uint64(len(o.text)) {
		return fmt.Errorf("mark %q %d..<%d of %d: %w", name, start, end, len(o.text), ErrIndexOutOfRange)
	}
	m := ir.Mark{Start: start, End: end, Name: name, Value: v}
	o.marks = append(o.marks, m)
	return d.commit(ir.Marks{ObjID: obj, Marks: []ir.Mark{m}})
}

// Text returns the content of text obj.
func (d *Doc) Text(obj ir.ObjID) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeText)
	if err != nil {
		return "", fmt.Errorf("text: %w", err)
	}
	return string(o.text), nil
}

// Marks returns the formatting spans of text obj in the order applied.
func (d *Doc) Marks(obj ir.ObjID) ([]ir.Mark, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, err := d.lookup(obj, ir.ObjTypeText)
	if err != nil {
		return nil, fmt.Errorf("marks: %w", err)
	}
	return slices.Clone(o.marks), nil
}

// spliceText edits the scalars and mark spans of o and returns the patches
// describing the edit. Bounds are checked by the caller.
func (o *object) spliceText(obj ir.ObjID, start, del uint64, ins []rune) []ir.Patch {
	var patches []ir.Patch
	if del > 0 {
		o.text = slices.Delete(o.text, int(start), int(start+del))
		o.shiftMarksDeleted(start, del)
		patches = append(patches, ir.DeleteSeq{ObjID: obj, Index: start, Length: del})
	}
	if len(ins) > 0 {
		active := o.marksAt(start)
		o.text = slices.Insert(o.text, int(start), ins...)
		o.shiftMarksInserted(start, uint64(len(ins)))
		patches = append(patches, ir.SpliceText{ObjID: obj, Index: start, Value: string(ins), Marks: active})
	}
	return patches
}

// marksAt returns the marks an insertion at pos inherits: those whose span
// strictly contains pos. Later marks with the same name win.
func (o *object) marksAt(pos uint64) map[string]ir.Value {
	var active map[string]ir.Value
	for _, m := range o.marks {
		if m.Start < pos && pos < m.End {
			if active == nil {
				active = make(map[string]ir.Value)
			}
			active[m.Name] = m.Value
		}
	}
	return active
}

func (o *object) shiftMarksInserted(pos, n uint64) {
	for i := range o.marks {
		m := &o.marks[i]
		if m.Start >= pos {
			m.Start += n
		}
		if m.End > pos {
			m.End += n
		}
	}
}

func (o *object) shiftMarksDeleted(pos, n uint64) {
	shift := func(x uint64) uint64 {
		switch {
		case x <= pos:
			return x
		case x <= pos+n:
			return pos
		default:
			return x - n
		}
	}
	kept := o.marks[:0]
	for _, m := range o.marks {
		m.Start, m.End = shift(m.Start), shift(m.End)
		if m.Start < m.End {
			kept = append(kept, m)
		}
	}
	o.marks = kept
}
