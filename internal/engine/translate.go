package engine

import (
	"github.com/roach88/patchwire/internal/ir"
)

// ToMapPatch converts a change record for map id into a MapPatch.
// Only Put, DeleteMap and Conflict addressed by key are valid; anything else
// yields a *ConsistencyError.
func ToMapPatch(id ir.ObjID, p ir.Patch) (ir.MapPatch, error) {
	if p.Obj() != id {
		return nil, objectMismatch(id, ir.ObjTypeMap, p)
	}
	switch v := p.(type) {
	case ir.Put:
		if k, ok := v.Prop.(ir.Key); ok {
			return ir.MapPut{Key: string(k), Value: v.Value}, nil
		}
		return nil, propMismatch(id, ir.ObjTypeMap, p)
	case ir.DeleteMap:
		return ir.MapDelete{Key: v.Key}, nil
	case ir.Conflict:
		if k, ok := v.Prop.(ir.Key); ok {
			return ir.MapConflict{Key: string(k)}, nil
		}
		return nil, propMismatch(id, ir.ObjTypeMap, p)
	default:
		return nil, kindMismatch(id, ir.ObjTypeMap, p)
	}
}

// ToListPatch converts a change record for list id into a ListPatch.
// Only Insert, DeleteSeq and Conflict addressed by index are valid; anything
// else yields a *ConsistencyError.
func ToListPatch(id ir.ObjID, p ir.Patch) (ir.ListPatch, error) {
	if p.Obj() != id {
		return nil, objectMismatch(id, ir.ObjTypeList, p)
	}
	switch v := p.(type) {
	case ir.Insert:
		return ir.ListInsert{Index: v.Index, Values: v.Values}, nil
	case ir.DeleteSeq:
		return ir.ListDelete{Range: ir.Range{Start: v.Index, End: v.Index + v.Length}}, nil
	case ir.Conflict:
		if i, ok := v.Prop.(ir.Index); ok {
			return ir.ListConflict{Index: uint64(i)}, nil
		}
		return nil, propMismatch(id, ir.ObjTypeList, p)
	default:
		return nil, kindMismatch(id, ir.ObjTypeList, p)
	}
}

// ToTextPatch converts a change record for text id into a TextPatch.
// Records a text object cannot hold yield a *ConsistencyError.
func ToTextPatch(id ir.ObjID, p ir.Patch) (ir.TextPatch, error) {
	if p.Obj() != id {
		return nil, objectMismatch(id, ir.ObjTypeText, p)
	}
	switch v := p.(type) {
	case ir.SpliceText:
		return ir.TextInsert{At: v.Index, Value: v.Value, Marks: v.Marks}, nil
	case ir.DeleteSeq:
		return ir.TextDelete{Range: ir.Range{Start: v.Index, End: v.Index + v.Length}}, nil
	case ir.Marks:
		return ir.TextMarks{Marks: v.Marks}, nil
	default:
		return nil, kindMismatch(id, ir.ObjTypeText, p)
	}
}

// TranslateMap converts a whole batch, stopping at the first violation.
func TranslateMap(id ir.ObjID, batch []ir.Patch) ([]ir.MapPatch, error) {
	return translate(id, batch, ToMapPatch)
}

// TranslateList converts a whole batch, stopping at the first violation.
func TranslateList(id ir.ObjID, batch []ir.Patch) ([]ir.ListPatch, error) {
	return translate(id, batch, ToListPatch)
}

// TranslateText converts a whole batch, stopping at the first violation.
func TranslateText(id ir.ObjID, batch []ir.Patch) ([]ir.TextPatch, error) {
	return translate(id, batch, ToTextPatch)
}

func translate[T any](id ir.ObjID, batch []ir.Patch, conv func(ir.ObjID, ir.Patch) (T, error)) ([]T, error) {
	out := make([]T, 0, len(batch))
	for _, p := range batch {
		t, err := conv(id, p)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
