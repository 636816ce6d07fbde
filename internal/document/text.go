package document

import (
	"fmt"

	"github.com/rivo/uniseg"

	"github.com/roach88/patchwire/internal/crdt"
	"github.com/roach88/patchwire/internal/engine"
	"github.com/roach88/patchwire/internal/ir"
)

// Text is a handle to a text object. Offsets and lengths count Unicode
// scalars unless a method says otherwise.
type Text struct {
	doc *Document
	id  ir.ObjID
}

// ID returns the object id.
func (t Text) ID() ir.ObjID {
	return t.id
}

// String returns the current content.
func (t Text) String() (string, error) {
	return t.doc.doc.Text(t.id)
}

// SetString replaces the content with s. Only the span between the common
// prefix and suffix of old and new content is recorded.
func (t Text) SetString(s string) error {
	return t.doc.mutated(t.doc.doc.UpdateText(t.id, s))
}

// Len returns the number of scalars.
func (t Text) Len() (uint64, error) {
	return t.doc.doc.Length(t.id)
}

// ReplaceRange replaces the scalars in [start, end) with s.
func (t Text) ReplaceRange(start, end uint64, s string) error {
	if end < start {
		return fmt.Errorf("replace text %d..<%d: %w", start, end, crdt.ErrIndexOutOfRange)
	}
	return t.doc.mutated(t.doc.doc.SpliceText(t.id, start, end-start, s))
}

// Insert places s at scalar offset at.
func (t Text) Insert(at uint64, s string) error {
	return t.ReplaceRange(at, at, s)
}

// GraphemeCount returns the number of user-perceived characters.
func (t Text) GraphemeCount() (int, error) {
	s, err := t.String()
	if err != nil {
		return 0, err
	}
	return uniseg.GraphemeClusterCount(s), nil
}

// ReplaceGraphemes replaces grapheme clusters [start, end) with s. The
// cluster offsets are converted to scalar offsets before editing, so the
// recorded patches use scalar addressing like every other text edit.
func (t Text) ReplaceGraphemes(start, end int, s string) error {
	cur, err := t.String()
	if err != nil {
		return err
	}
	offsets := graphemeOffsets(cur)
	if start < 0 || end < start || end >= len(offsets) {
		return fmt.Errorf("replace graphemes %d..<%d of %d: %w", start, end, len(offsets)-1, crdt.ErrIndexOutOfRange)
	}
	return t.ReplaceRange(offsets[start], offsets[end], s)
}

// graphemeOffsets returns the scalar offset where each grapheme cluster
// starts, plus a final entry holding the total scalar count.
func graphemeOffsets(s string) []uint64 {
	offsets := []uint64{0}
	var pos uint64
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		pos += uint64(len(gr.Runes()))
		offsets = append(offsets, pos)
	}
	return offsets
}

// Mark applies a formatting span to scalars [start, end).
func (t Text) Mark(start, end uint64, name string, v ir.ScalarValue) error {
	return t.doc.mutated(t.doc.doc.Mark(t.id, start, end, name, v))
}

// Marks returns the formatting spans.
func (t Text) Marks() ([]ir.Mark, error) {
	return t.doc.doc.Marks(t.id)
}

// Patches returns the publisher of text patches for this text.
func (t Text) Patches() *engine.Publisher[[]ir.TextPatch] {
	return t.doc.engine.TextPatches(t.id)
}

// ObjectPatches returns the publisher of raw batches for this text.
func (t Text) ObjectPatches() *engine.Publisher[[]ir.Patch] {
	return t.doc.engine.ObjectPatches(t.id)
}
