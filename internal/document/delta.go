package document

import (
	"github.com/fmpwizard/go-quilljs-delta/delta"

	"github.com/roach88/patchwire/internal/ir"
)

// TextDelta renders a text batch as one Quill delta.
//
// Each patch in the batch is relative to the text left by the previous
// one, so each becomes a single-edit delta and the edits are composed in
// order. Composing the result onto a delta holding the text before the
// batch yields the text after it. Mark values are encoded with
// ir.EncodeValue.
func TextDelta(batch []ir.TextPatch) *delta.Delta {
	out := delta.New(nil)
	for _, p := range batch {
		out = out.Compose(*editDelta(p))
	}
	return out
}

func editDelta(p ir.TextPatch) *delta.Delta {
	d := delta.New(nil)
	switch v := p.(type) {
	case ir.TextInsert:
		d = retain(d, v.At).Insert(v.Value, attributes(v.Marks))
	case ir.TextDelete:
		d = retain(d, v.Range.Start).Delete(int(v.Range.Len()))
	case ir.TextMarks:
		for _, m := range v.Marks {
			md := retain(delta.New(nil), m.Start).Retain(int(m.End-m.Start), map[string]interface{}{
				m.Name: ir.EncodeValue(m.Value),
			})
			d = d.Compose(*md)
		}
	}
	return d
}

// retain skips n scalars. A zero-length retain is left out.
func retain(d *delta.Delta, n uint64) *delta.Delta {
	if n == 0 {
		return d
	}
	return d.Retain(int(n), nil)
}

func attributes(marks map[string]ir.Value) map[string]interface{} {
	if len(marks) == 0 {
		return nil
	}
	attrs := make(map[string]interface{}, len(marks))
	for k, v := range marks {
		attrs[k] = ir.EncodeValue(v)
	}
	return attrs
}
