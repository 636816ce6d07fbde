package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchwire/internal/ir"
)

func TestNew_DefaultActor(t *testing.T) {
	d := New()
	assert.Len(t, d.Actor(), 32)
	assert.NotContains(t, d.Actor(), "-")

	typ, err := d.ObjectType(ir.Root)
	require.NoError(t, err)
	assert.Equal(t, ir.ObjTypeMap, typ)
	assert.Nil(t, d.Heads())
}

func TestMap_PutGetDelete(t *testing.T) {
	d := New(WithActor("aa"))

	require.NoError(t, d.Put(ir.Root, "a", ir.Int(1)))
	require.NoError(t, d.Put(ir.Root, "b", ir.String("x")))

	v, ok, err := d.Get(ir.Root, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ir.Int(1), v)

	keys, err := d.Keys(ir.Root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, d.Delete(ir.Root, "a"))
	_, ok, err = d.Get(ir.Root, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := d.Length(ir.Root)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
	assert.Equal(t, 3, d.Changes())
}

func TestMap_DeleteMissingRecordsNothing(t *testing.T) {
	d := New(WithActor("aa"))
	require.NoError(t, d.Delete(ir.Root, "nope"))
	assert.Equal(t, 0, d.Changes())
}

func TestMap_Increment(t *testing.T) {
	d := New(WithActor("aa"))
	require.NoError(t, d.Put(ir.Root, "c", ir.Counter(1)))
	require.NoError(t, d.Increment(ir.Root, "c", 4))

	v, _, err := d.Get(ir.Root, "c")
	require.NoError(t, err)
	assert.Equal(t, ir.Counter(5), v)

	require.NoError(t, d.Put(ir.Root, "n", ir.Int(1)))
	err = d.Increment(ir.Root, "n", 1)
	assert.ErrorIs(t, err, ErrNotCounter)
}

func TestMap_IncrementRecordsPut(t *testing.T) {
	d := New(WithActor("aa"))
	require.NoError(t, d.Put(ir.Root, "c", ir.Counter(1)))
	before := d.Heads()
	require.NoError(t, d.Increment(ir.Root, "c", 4))

	patches, err := d.Difference(before, d.Heads())
	require.NoError(t, err)
	assert.Equal(t, []ir.Patch{
		ir.Put{ObjID: ir.Root, Prop: ir.Key("c"), Value: ir.Counter(5)},
	}, patches)
}

func TestPutObject_MintsIDs(t *testing.T) {
	d := New(WithActor("aa"))

	list, err := d.PutObject(ir.Root, "items", ir.ObjTypeList)
	require.NoError(t, err)
	text, err := d.PutObject(ir.Root, "body", ir.ObjTypeText)
	require.NoError(t, err)

	assert.Equal(t, ir.ObjID("1@aa"), list)
	assert.Equal(t, ir.ObjID("2@aa"), text)

	v, _, err := d.Get(ir.Root, "items")
	require.NoError(t, err)
	assert.Equal(t, ir.ObjectValue{ID: list, Type: ir.ObjTypeList}, v)
}

func TestLookup_Errors(t *testing.T) {
	d := New(WithActor("aa"))

	err := d.Put("9@zz", "a", ir.Int(1))
	assert.ErrorIs(t, err, ErrUnknownObject)

	err = d.Insert(ir.Root, 0, ir.Int(1))
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestList_Splice(t *testing.T) {
	d := New(WithActor("aa"))
	list, err := d.PutObject(ir.Root, "l", ir.ObjTypeList)
	require.NoError(t, err)

	require.NoError(t, d.Splice(list, 0, 0, []ir.ScalarValue{ir.Int(1), ir.Int(2), ir.Int(3)}))
	before := d.Heads()
	require.NoError(t, d.Splice(list, 0, 2, []ir.ScalarValue{ir.Int(9)}))

	vals, err := d.Values(list)
	require.NoError(t, err)
	assert.Equal(t, []ir.Value{ir.Int(9), ir.Int(3)}, vals)

	patches, err := d.Difference(before, d.Heads())
	require.NoError(t, err)
	assert.Equal(t, []ir.Patch{
		ir.DeleteSeq{ObjID: list, Index: 0, Length: 2},
		ir.Insert{ObjID: list, Index: 0, Values: []ir.Value{ir.Int(9)}},
	}, patches)
}

func TestList_SetIncrementDelete(t *testing.T) {
	d := New(WithActor("aa"))
	list, err := d.PutObject(ir.Root, "l", ir.ObjTypeList)
	require.NoError(t, err)

	require.NoError(t, d.Insert(list, 0, ir.Counter(0)))
	require.NoError(t, d.Insert(list, 1, ir.String("b")))
	require.NoError(t, d.IncrementAt(list, 0, 2))
	require.NoError(t, d.Set(list, 1, ir.String("c")))

	v, ok, err := d.GetAt(list, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ir.Counter(2), v)

	require.NoError(t, d.DeleteAt(list, 0))
	vals, err := d.Values(list)
	require.NoError(t, err)
	assert.Equal(t, []ir.Value{ir.String("c")}, vals)

	_, ok, err = d.GetAt(list, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestList_OverwritesRecordDeleteInsert(t *testing.T) {
	d := New(WithActor("aa"))
	list, err := d.PutObject(ir.Root, "l", ir.ObjTypeList)
	require.NoError(t, err)
	require.NoError(t, d.Splice(list, 0, 0, []ir.ScalarValue{ir.Counter(1), ir.String("b")}))

	before := d.Heads()
	require.NoError(t, d.IncrementAt(list, 0, 2))
	require.NoError(t, d.Set(list, 1, ir.String("c")))

	patches, err := d.Difference(before, d.Heads())
	require.NoError(t, err)
	assert.Equal(t, []ir.Patch{
		ir.DeleteSeq{ObjID: list, Index: 0, Length: 1},
		ir.Insert{ObjID: list, Index: 0, Values: []ir.Value{ir.Counter(3)}},
		ir.DeleteSeq{ObjID: list, Index: 1, Length: 1},
		ir.Insert{ObjID: list, Index: 1, Values: []ir.Value{ir.String("c")}},
	}, patches)
	for _, p := range patches {
		assert.NotEqual(t, ir.KindPut, p.Kind())
		assert.NotEqual(t, ir.KindIncrement, p.Kind())
	}
}

func TestList_OutOfRange(t *testing.T) {
	d := New(WithActor("aa"))
	list, err := d.PutObject(ir.Root, "l", ir.ObjTypeList)
	require.NoError(t, err)

	assert.ErrorIs(t, d.Insert(list, 1, ir.Int(1)), ErrIndexOutOfRange)
	assert.ErrorIs(t, d.Set(list, 0, ir.Int(1)), ErrIndexOutOfRange)
	assert.ErrorIs(t, d.DeleteAt(list, 0), ErrIndexOutOfRange)
	_, err = d.InsertObject(list, 2, ir.ObjTypeMap)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestText_SpliceAndUpdate(t *testing.T) {
	d := New(WithActor("aa"))
	text, err := d.PutObject(ir.Root, "t", ir.ObjTypeText)
	require.NoError(t, err)

	require.NoError(t, d.SpliceText(text, 0, 0, "hello"))
	before := d.Heads()
	require.NoError(t, d.UpdateText(text, "help!"))

	s, err := d.Text(text)
	require.NoError(t, err)
	assert.Equal(t, "help!", s)

	patches, err := d.Difference(before, d.Heads())
	require.NoError(t, err)
	assert.Equal(t, []ir.Patch{
		ir.DeleteSeq{ObjID: text, Index: 3, Length: 2},
		ir.SpliceText{ObjID: text, Index: 3, Value: "p!"},
	}, patches)
}

func TestText_UpdateUnchangedRecordsNothing(t *testing.T) {
	d := New(WithActor("aa"))
	text, err := d.PutObject(ir.Root, "t", ir.ObjTypeText)
	require.NoError(t, err)
	require.NoError(t, d.SpliceText(text, 0, 0, "same"))

	n := d.Changes()
	require.NoError(t, d.UpdateText(text, "same"))
	assert.Equal(t, n, d.Changes())
}

func TestText_CountsScalars(t *testing.T) {
	d := New(WithActor("aa"))
	text, err := d.PutObject(ir.Root, "t", ir.ObjTypeText)
	require.NoError(t, err)

	require.NoError(t, d.SpliceText(text, 0, 0, "\U0001F600\U0001F46E\U0001F3FF\u200D\u2640\uFE0F"))
	n, err := d.Length(text)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), n)
}

func TestText_MarksShiftWithEdits(t *testing.T) {
	d := New(WithActor("aa"))
	text, err := d.PutObject(ir.Root, "t", ir.ObjTypeText)
	require.NoError(t, err)
	require.NoError(t, d.SpliceText(text, 0, 0, "abcdef"))
	require.NoError(t, d.Mark(text, 1, 4, "bold", ir.Bool(true)))

	// inside the span: inherits the mark and widens it
	before := d.Heads()
	require.NoError(t, d.SpliceText(text, 2, 0, "XY"))
	patches, err := d.Difference(before, d.Heads())
	require.NoError(t, err)
	require.Len(t, patches, 1)
	assert.Equal(t, map[string]ir.Value{"bold": ir.Bool(true)}, patches[0].(ir.SpliceText).Marks)

	marks, err := d.Marks(text)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), marks[0].Start)
	assert.Equal(t, uint64(6), marks[0].End)

	// deleting the whole span drops it
	require.NoError(t, d.SpliceText(text, 1, 5, ""))
	marks, err = d.Marks(text)
	require.NoError(t, err)
	assert.Empty(t, marks)
}

func TestMark_Validates(t *testing.T) {
	d := New(WithActor("aa"))
	text, err := d.PutObject(ir.Root, "t", ir.ObjTypeText)
	require.NoError(t, err)
	require.NoError(t, d.SpliceText(text, 0, 0, "ab"))

	assert.ErrorIs(t, d.Mark(text, 1, 1, "b", ir.Bool(true)), ErrIndexOutOfRange)
	assert.ErrorIs(t, d.Mark(text, 0, 3, "b", ir.Bool(true)), ErrIndexOutOfRange)
}

func TestDifference(t *testing.T) {
	d := New(WithActor("aa"))
	empty := d.Heads()

	require.NoError(t, d.Put(ir.Root, "a", ir.Int(1)))
	mid := d.Heads()
	require.NoError(t, d.Put(ir.Root, "b", ir.Int(2)))
	end := d.Heads()

	t.Run("full history", func(t *testing.T) {
		patches, err := d.Difference(empty, end)
		require.NoError(t, err)
		assert.Len(t, patches, 2)
	})

	t.Run("suffix", func(t *testing.T) {
		patches, err := d.Difference(mid, end)
		require.NoError(t, err)
		assert.Equal(t, []ir.Patch{ir.Put{ObjID: ir.Root, Prop: ir.Key("b"), Value: ir.Int(2)}}, patches)
	})

	t.Run("equal heads", func(t *testing.T) {
		patches, err := d.Difference(end, end)
		require.NoError(t, err)
		assert.Empty(t, patches)
	})

	t.Run("reverse", func(t *testing.T) {
		_, err := d.Difference(end, mid)
		assert.ErrorIs(t, err, ErrReverseDifference)
	})

	t.Run("unknown heads", func(t *testing.T) {
		_, err := d.Difference(ir.NewHeads("deadbeef"), end)
		assert.ErrorIs(t, err, ErrUnknownHeads)
	})
}

func TestHeads_Reproducible(t *testing.T) {
	build := func() ir.Heads {
		d := New(WithActor("aa"))
		require.NoError(t, d.Put(ir.Root, "a", ir.Int(1)))
		require.NoError(t, d.Put(ir.Root, "b", ir.F64(0.5)))
		return d.Heads()
	}
	assert.Equal(t, build(), build())
}

func TestList_SetObject(t *testing.T) {
	d := New(WithActor("aa"))
	list, err := d.PutObject(ir.Root, "l", ir.ObjTypeList)
	require.NoError(t, err)
	require.NoError(t, d.Insert(list, 0, ir.Int(1)))

	child, err := d.SetObject(list, 0, ir.ObjTypeMap)
	require.NoError(t, err)

	v, ok, err := d.GetAt(list, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ir.ObjectValue{ID: child, Type: ir.ObjTypeMap}, v)

	_, err = d.SetObject(list, 3, ir.ObjTypeMap)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}
