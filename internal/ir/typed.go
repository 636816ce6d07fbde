package ir

// MapPatch is a change to one map, as seen by a map observer.
// Sealed: MapPut, MapDelete, MapConflict.
type MapPatch interface {
	mapPatch()
}

// MapPut reports that Key now holds Value.
type MapPut struct {
	Key   string
	Value Value
}

// MapDelete reports that Key was removed.
type MapDelete struct {
	Key string
}

// MapConflict reports concurrent values under Key.
type MapConflict struct {
	Key string
}

func (MapPut) mapPatch()      {}
func (MapDelete) mapPatch()   {}
func (MapConflict) mapPatch() {}

// ListPatch is a change to one list, as seen by a list observer.
// Sealed: ListInsert, ListDelete, ListConflict. Overwriting an element
// arrives as a ListDelete of it followed by a ListInsert at the same index.
type ListPatch interface {
	listPatch()
}

// ListInsert reports Values inserted starting at Index.
type ListInsert struct {
	Index  uint64
	Values []Value
}

// ListDelete reports the elements in Range were removed.
type ListDelete struct {
	Range Range
}

// ListConflict reports concurrent values at Index.
type ListConflict struct {
	Index uint64
}

func (ListInsert) listPatch()   {}
func (ListDelete) listPatch()   {}
func (ListConflict) listPatch() {}

// TextPatch is a change to one text object, as seen by a text observer.
// Offsets count Unicode scalars.
// Sealed: TextInsert, TextDelete, TextMarks.
type TextPatch interface {
	textPatch()
}

// TextInsert reports Value inserted at scalar offset At.
type TextInsert struct {
	At    uint64
	Value string
	Marks map[string]Value
}

// TextDelete reports the scalars in Range were removed.
type TextDelete struct {
	Range Range
}

// TextMarks reports formatting spans were added.
type TextMarks struct {
	Marks []Mark
}

func (TextInsert) textPatch() {}
func (TextDelete) textPatch() {}
func (TextMarks) textPatch()  {}

// EncodeMapPatch returns a JSON-shaped tree for a map patch.
func EncodeMapPatch(p MapPatch) map[string]any {
	switch v := p.(type) {
	case MapPut:
		return map[string]any{"kind": "put", "key": v.Key, "value": EncodeValue(v.Value)}
	case MapDelete:
		return map[string]any{"kind": "delete", "key": v.Key}
	case MapConflict:
		return map[string]any{"kind": "conflict", "key": v.Key}
	default:
		return map[string]any{"kind": "unknown"}
	}
}

// EncodeListPatch returns a JSON-shaped tree for a list patch.
func EncodeListPatch(p ListPatch) map[string]any {
	switch v := p.(type) {
	case ListInsert:
		return map[string]any{"kind": "insert", "index": v.Index, "values": EncodeValues(v.Values)}
	case ListDelete:
		return map[string]any{"kind": "delete", "start": v.Range.Start, "end": v.Range.End}
	case ListConflict:
		return map[string]any{"kind": "conflict", "index": v.Index}
	default:
		return map[string]any{"kind": "unknown"}
	}
}

// EncodeTextPatch returns a JSON-shaped tree for a text patch.
func EncodeTextPatch(p TextPatch) map[string]any {
	switch v := p.(type) {
	case TextInsert:
		out := map[string]any{"kind": "insert", "at": v.At, "value": v.Value}
		if len(v.Marks) > 0 {
			out["marks"] = EncodeMarkSet(v.Marks)
		}
		return out
	case TextDelete:
		return map[string]any{"kind": "delete", "start": v.Range.Start, "end": v.Range.End}
	case TextMarks:
		return map[string]any{"kind": "marks", "marks": EncodeMarks(v.Marks)}
	default:
		return map[string]any{"kind": "unknown"}
	}
}
