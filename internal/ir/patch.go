package ir

import "fmt"

// PatchKind tags each change record variant.
type PatchKind string

const (
	KindPut        PatchKind = "put"
	KindInsert     PatchKind = "insert"
	KindSpliceText PatchKind = "splice_text"
	KindIncrement  PatchKind = "increment"
	KindDeleteMap  PatchKind = "delete_map"
	KindDeleteSeq  PatchKind = "delete_seq"
	KindMarks      PatchKind = "marks"
	KindConflict   PatchKind = "conflict"
)

// Patch is one change record produced by the engine's diff primitive.
// Every record names the container it affects.
//
// Sealed: only the variants in this file implement it.
type Patch interface {
	Obj() ObjID
	Kind() PatchKind
	patch()
}

// Put sets a map key or list slot to a value.
type Put struct {
	ObjID ObjID
	Prop  Prop
	Value Value
}

// Insert adds values to a list starting at Index.
type Insert struct {
	ObjID  ObjID
	Index  uint64
	Values []Value
}

// SpliceText inserts a string into a text object at a scalar offset.
// Marks holds the formatting active at the insertion point.
type SpliceText struct {
	ObjID ObjID
	Index uint64
	Value string
	Marks map[string]Value
}

// Increment adds By to a counter.
type Increment struct {
	ObjID ObjID
	Prop  Prop
	By    int64
}

// DeleteMap removes a map key.
type DeleteMap struct {
	ObjID ObjID
	Key   string
}

// DeleteSeq removes Length elements of a list or text starting at Index.
type DeleteSeq struct {
	ObjID  ObjID
	Index  uint64
	Length uint64
}

// Marks reports formatting spans added to a text object.
type Marks struct {
	ObjID ObjID
	Marks []Mark
}

// Conflict reports that a slot now holds concurrent values.
type Conflict struct {
	ObjID ObjID
	Prop  Prop
}

func (p Put) Obj() ObjID        { return p.ObjID }
func (p Insert) Obj() ObjID     { return p.ObjID }
func (p SpliceText) Obj() ObjID { return p.ObjID }
func (p Increment) Obj() ObjID  { return p.ObjID }
func (p DeleteMap) Obj() ObjID  { return p.ObjID }
func (p DeleteSeq) Obj() ObjID  { return p.ObjID }
func (p Marks) Obj() ObjID      { return p.ObjID }
func (p Conflict) Obj() ObjID   { return p.ObjID }

func (Put) Kind() PatchKind        { return KindPut }
func (Insert) Kind() PatchKind     { return KindInsert }
func (SpliceText) Kind() PatchKind { return KindSpliceText }
func (Increment) Kind() PatchKind  { return KindIncrement }
func (DeleteMap) Kind() PatchKind  { return KindDeleteMap }
func (DeleteSeq) Kind() PatchKind  { return KindDeleteSeq }
func (Marks) Kind() PatchKind      { return KindMarks }
func (Conflict) Kind() PatchKind   { return KindConflict }

func (Put) patch()        {}
func (Insert) patch()     {}
func (SpliceText) patch() {}
func (Increment) patch()  {}
func (DeleteMap) patch()  {}
func (DeleteSeq) patch()  {}
func (Marks) patch()      {}
func (Conflict) patch()   {}

// EncodePatch returns a JSON-shaped tree for a change record.
// The tree always carries "kind" and "obj".
func EncodePatch(p Patch) map[string]any {
	out := map[string]any{
		"kind": string(p.Kind()),
		"obj":  string(p.Obj()),
	}
	switch v := p.(type) {
	case Put:
		encodeProp(out, v.Prop)
		out["value"] = EncodeValue(v.Value)
	case Insert:
		out["index"] = v.Index
		out["values"] = EncodeValues(v.Values)
	case SpliceText:
		out["index"] = v.Index
		out["value"] = v.Value
		if len(v.Marks) > 0 {
			out["marks"] = EncodeMarkSet(v.Marks)
		}
	case Increment:
		encodeProp(out, v.Prop)
		out["by"] = v.By
	case DeleteMap:
		out["key"] = v.Key
	case DeleteSeq:
		out["index"] = v.Index
		out["length"] = v.Length
	case Marks:
		out["marks"] = EncodeMarks(v.Marks)
	case Conflict:
		encodeProp(out, v.Prop)
	}
	return out
}

func encodeProp(out map[string]any, p Prop) {
	switch v := p.(type) {
	case Key:
		out["key"] = string(v)
	case Index:
		out["index"] = uint64(v)
	}
}

// MarshalPatch returns the canonical JSON for a change record.
func MarshalPatch(p Patch) ([]byte, error) {
	data, err := MarshalCanonical(EncodePatch(p))
	if err != nil {
		return nil, fmt.Errorf("marshal %s patch: %w", p.Kind(), err)
	}
	return data, nil
}

// FormatPatch renders a change record on one line for text output.
func FormatPatch(p Patch) string {
	switch v := p.(type) {
	case Put:
		return fmt.Sprintf("put %s[%s] = %s", v.ObjID, v.Prop, FormatValue(v.Value))
	case Insert:
		return fmt.Sprintf("insert %s[%d] %d value(s)", v.ObjID, v.Index, len(v.Values))
	case SpliceText:
		return fmt.Sprintf("splice_text %s[%d] %q", v.ObjID, v.Index, v.Value)
	case Increment:
		return fmt.Sprintf("increment %s[%s] by %d", v.ObjID, v.Prop, v.By)
	case DeleteMap:
		return fmt.Sprintf("delete_map %s[%s]", v.ObjID, v.Key)
	case DeleteSeq:
		return fmt.Sprintf("delete_seq %s[%d..<%d]", v.ObjID, v.Index, v.Index+v.Length)
	case Marks:
		return fmt.Sprintf("marks %s %d span(s)", v.ObjID, len(v.Marks))
	case Conflict:
		return fmt.Sprintf("conflict %s[%s]", v.ObjID, v.Prop)
	default:
		return fmt.Sprintf("%v", p)
	}
}
