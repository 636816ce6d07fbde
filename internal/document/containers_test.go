package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchwire/internal/crdt"
	"github.com/roach88/patchwire/internal/ir"
	"github.com/roach88/patchwire/internal/testutil"
)

func TestMap_Operations(t *testing.T) {
	doc := newDoc(t)
	root := doc.Root()

	rec := testutil.NewRecorder[ir.MapPatch]()
	root.Patches().Subscribe(rec.Sink)

	require.NoError(t, root.Put("name", ir.String("x")))
	require.NoError(t, root.Put("hits", ir.Counter(0)))
	require.NoError(t, root.Increment("hits", 5))
	require.NoError(t, root.Delete("name"))

	assert.Equal(t, []ir.MapPatch{
		ir.MapPut{Key: "name", Value: ir.String("x")},
		ir.MapPut{Key: "hits", Value: ir.Counter(0)},
		ir.MapPut{Key: "hits", Value: ir.Counter(5)},
		ir.MapDelete{Key: "name"},
	}, rec.Flat())

	entries, err := root.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hits", entries[0].Key)
	s, ok := entries[0].Value.Scalar()
	require.True(t, ok)
	assert.Equal(t, ir.Counter(5), s)

	n, err := root.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMap_Ensure(t *testing.T) {
	doc := newDoc(t)
	root := doc.Root()

	first, err := root.EnsureList("items", false)
	require.NoError(t, err)
	again, err := root.EnsureList("items", false)
	require.NoError(t, err)
	assert.Equal(t, first.ID(), again.ID())

	fresh, err := root.EnsureList("items", true)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), fresh.ID())

	// wrong kind under the key is replaced
	require.NoError(t, root.Put("body", ir.String("plain")))
	txt, err := root.EnsureText("body", false)
	require.NoError(t, err)
	v, _, err := root.Get("body")
	require.NoError(t, err)
	got, ok := v.AsText()
	require.True(t, ok)
	assert.Equal(t, txt.ID(), got.ID())

	m, err := root.EnsureMap("meta", false)
	require.NoError(t, err)
	keys, err := root.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"body", "items", "meta"}, keys)
	assert.NotEmpty(t, m.ID())
}

func TestList_ReplaceRangeProducesTwoPatches(t *testing.T) {
	doc := newDoc(t)
	l, err := doc.Root().PutList("l")
	require.NoError(t, err)
	require.NoError(t, l.ReplaceRange(0, 0, []ir.ScalarValue{ir.Int(1), ir.Int(2), ir.Int(3)}))

	rec := testutil.NewRecorder[ir.ListPatch]()
	l.Patches().Subscribe(rec.Sink)

	require.NoError(t, l.ReplaceRange(0, 2, []ir.ScalarValue{ir.String("a")}))

	assert.Equal(t, [][]ir.ListPatch{{
		ir.ListDelete{Range: ir.Range{Start: 0, End: 2}},
		ir.ListInsert{Index: 0, Values: []ir.Value{ir.String("a")}},
	}}, rec.Batches())

	vals, err := l.Values()
	require.NoError(t, err)
	require.Len(t, vals, 2)
	assert.Equal(t, ir.String("a"), vals[0].Raw())
	assert.Equal(t, ir.Int(3), vals[1].Raw())
}

func TestList_Operations(t *testing.T) {
	doc := newDoc(t)
	l, err := doc.Root().PutList("l")
	require.NoError(t, err)

	rec := testutil.NewRecorder[ir.ListPatch]()
	l.Patches().Subscribe(rec.Sink)

	require.NoError(t, l.Append(ir.Counter(1)))
	require.NoError(t, l.Insert(0, ir.String("head")))
	require.NoError(t, l.Increment(1, 2))
	require.NoError(t, l.Set(0, ir.String("new head")))
	require.NoError(t, l.Remove(1))

	assert.Equal(t, []ir.ListPatch{
		ir.ListInsert{Index: 0, Values: []ir.Value{ir.Counter(1)}},
		ir.ListInsert{Index: 0, Values: []ir.Value{ir.String("head")}},
		ir.ListDelete{Range: ir.Range{Start: 1, End: 2}},
		ir.ListInsert{Index: 1, Values: []ir.Value{ir.Counter(3)}},
		ir.ListDelete{Range: ir.Range{Start: 0, End: 1}},
		ir.ListInsert{Index: 0, Values: []ir.Value{ir.String("new head")}},
		ir.ListDelete{Range: ir.Range{Start: 1, End: 2}},
	}, rec.Flat())

	assert.Equal(t, []int{1, 1, 2, 2, 1}, rec.Sizes())

	n, err := l.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	assert.ErrorIs(t, l.ReplaceRange(1, 0, nil), crdt.ErrIndexOutOfRange)
}

func TestList_NestedContainers(t *testing.T) {
	doc := newDoc(t)
	l, err := doc.Root().PutList("l")
	require.NoError(t, err)

	m, err := l.InsertMap(0)
	require.NoError(t, err)
	require.NoError(t, m.Put("k", ir.Bool(true)))

	same, err := l.EnsureMap(0, false)
	require.NoError(t, err)
	assert.Equal(t, m.ID(), same.ID())

	txt, err := l.EnsureText(0, false)
	require.NoError(t, err)
	v, ok, err := l.Get(0)
	require.NoError(t, err)
	require.True(t, ok)
	got, ok := v.AsText()
	require.True(t, ok)
	assert.Equal(t, txt.ID(), got.ID())

	inner, err := l.InsertList(1)
	require.NoError(t, err)
	again, err := l.EnsureList(1, false)
	require.NoError(t, err)
	assert.Equal(t, inner.ID(), again.ID())

	_, err = l.EnsureList(5, false)
	assert.ErrorIs(t, err, crdt.ErrIndexOutOfRange)
}
