package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchwire/internal/ir"
)

func TestSplitRuns(t *testing.T) {
	var patches []ir.Patch
	for _, obj := range []ir.ObjID{"m2", "m1", "m1", "m2", "m1", "m1", "m2"} {
		patches = append(patches, put(obj, "k", 1))
	}

	runs := SplitRuns(patches)

	var objs []ir.ObjID
	var sizes []int
	for _, r := range runs {
		objs = append(objs, r.Obj)
		sizes = append(sizes, len(r.Patches))
	}
	assert.Equal(t, []ir.ObjID{"m2", "m1", "m2", "m1", "m2"}, objs)
	assert.Equal(t, []int{1, 2, 1, 2, 1}, sizes)
	assert.Empty(t, SplitRuns(nil))
}

func TestToMapPatch(t *testing.T) {
	const id ir.ObjID = "1@aa"
	tests := []struct {
		name  string
		patch ir.Patch
		want  ir.MapPatch
		code  ConsistencyErrorCode
	}{
		{"put", put(id, "a", 1), ir.MapPut{Key: "a", Value: ir.Int(1)}, ""},
		{"delete", ir.DeleteMap{ObjID: id, Key: "a"}, ir.MapDelete{Key: "a"}, ""},
		{"conflict", ir.Conflict{ObjID: id, Prop: ir.Key("a")}, ir.MapConflict{Key: "a"}, ""},
		{"counter put", ir.Put{ObjID: id, Prop: ir.Key("c"), Value: ir.Counter(3)}, ir.MapPut{Key: "c", Value: ir.Counter(3)}, ""},
		{"increment", ir.Increment{ObjID: id, Prop: ir.Key("c"), By: 3}, nil, ErrCodeKindMismatch},
		{"put by index", ir.Put{ObjID: id, Prop: ir.Index(0), Value: ir.Int(1)}, nil, ErrCodePropMismatch},
		{"conflict by index", ir.Conflict{ObjID: id, Prop: ir.Index(0)}, nil, ErrCodePropMismatch},
		{"insert", ir.Insert{ObjID: id, Index: 0}, nil, ErrCodeKindMismatch},
		{"splice text", ir.SpliceText{ObjID: id, Value: "x"}, nil, ErrCodeKindMismatch},
		{"delete seq", ir.DeleteSeq{ObjID: id, Length: 1}, nil, ErrCodeKindMismatch},
		{"marks", ir.Marks{ObjID: id}, nil, ErrCodeKindMismatch},
		{"other object", put("2@aa", "a", 1), nil, ErrCodeObjectMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToMapPatch(id, tt.patch)
			assertTranslation(t, tt.want, tt.code, got, err)
		})
	}
}

func TestToListPatch(t *testing.T) {
	const id ir.ObjID = "1@aa"
	vals := []ir.Value{ir.Int(1), ir.Int(2)}
	tests := []struct {
		name  string
		patch ir.Patch
		want  ir.ListPatch
		code  ConsistencyErrorCode
	}{
		{"insert", ir.Insert{ObjID: id, Index: 2, Values: vals}, ir.ListInsert{Index: 2, Values: vals}, ""},
		{"delete", ir.DeleteSeq{ObjID: id, Index: 1, Length: 3}, ir.ListDelete{Range: ir.Range{Start: 1, End: 4}}, ""},
		{"conflict", ir.Conflict{ObjID: id, Prop: ir.Index(2)}, ir.ListConflict{Index: 2}, ""},
		{"put", ir.Put{ObjID: id, Prop: ir.Index(0), Value: ir.Int(9)}, nil, ErrCodeKindMismatch},
		{"increment", ir.Increment{ObjID: id, Prop: ir.Index(1), By: -1}, nil, ErrCodeKindMismatch},
		{"put by key", put(id, "a", 1), nil, ErrCodeKindMismatch},
		{"conflict by key", ir.Conflict{ObjID: id, Prop: ir.Key("a")}, nil, ErrCodePropMismatch},
		{"delete map", ir.DeleteMap{ObjID: id, Key: "a"}, nil, ErrCodeKindMismatch},
		{"splice text", ir.SpliceText{ObjID: id, Value: "x"}, nil, ErrCodeKindMismatch},
		{"marks", ir.Marks{ObjID: id}, nil, ErrCodeKindMismatch},
		{"other object", ir.Insert{ObjID: "2@aa"}, nil, ErrCodeObjectMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToListPatch(id, tt.patch)
			assertTranslation(t, tt.want, tt.code, got, err)
		})
	}
}

func TestToTextPatch(t *testing.T) {
	const id ir.ObjID = "1@aa"
	marks := []ir.Mark{{Start: 0, End: 1, Name: "bold", Value: ir.Bool(true)}}
	tests := []struct {
		name  string
		patch ir.Patch
		want  ir.TextPatch
		code  ConsistencyErrorCode
	}{
		{"splice", ir.SpliceText{ObjID: id, Index: 1, Value: "hi"}, ir.TextInsert{At: 1, Value: "hi"}, ""},
		{"delete", ir.DeleteSeq{ObjID: id, Index: 0, Length: 2}, ir.TextDelete{Range: ir.Range{Start: 0, End: 2}}, ""},
		{"marks", ir.Marks{ObjID: id, Marks: marks}, ir.TextMarks{Marks: marks}, ""},
		{"put", ir.Put{ObjID: id, Prop: ir.Index(0), Value: ir.String("x")}, nil, ErrCodeKindMismatch},
		{"insert", ir.Insert{ObjID: id}, nil, ErrCodeKindMismatch},
		{"delete map", ir.DeleteMap{ObjID: id, Key: "a"}, nil, ErrCodeKindMismatch},
		{"other object", ir.SpliceText{ObjID: "2@aa"}, nil, ErrCodeObjectMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToTextPatch(id, tt.patch)
			assertTranslation(t, tt.want, tt.code, got, err)
		})
	}
}

func assertTranslation[T any](t *testing.T, want T, code ConsistencyErrorCode, got T, err error) {
	t.Helper()
	if code == "" {
		require.NoError(t, err)
		assert.Equal(t, want, got)
		return
	}
	require.Error(t, err)
	var ce *ConsistencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, code, ce.Code)
	assert.Equal(t, ir.ObjID("1@aa"), ce.Obj)
}

func TestTranslateList_StopsAtFirstViolation(t *testing.T) {
	batch := []ir.Patch{
		ir.Insert{ObjID: "l", Index: 0, Values: []ir.Value{ir.Int(1)}},
		put("l", "oops", 1),
	}

	out, err := TranslateList("l", batch)
	assert.Nil(t, out)
	assert.True(t, IsConsistencyError(err))
	assert.Contains(t, err.Error(), "PROP_MISMATCH")
}

func TestTranslateMap_ListRecordIsViolation(t *testing.T) {
	batch := []ir.Patch{ir.Insert{ObjID: "m", Index: 0, Values: []ir.Value{ir.Int(1)}}}

	_, err := TranslateMap("m", batch)
	var ce *ConsistencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeKindMismatch, ce.Code)
	assert.Equal(t, ir.ObjTypeMap, ce.Want)
	assert.Equal(t, ir.KindInsert, ce.Got)
}
