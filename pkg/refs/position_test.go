package refs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperast/hyperast-go/pkg/astmodel"
	"github.com/hyperast/hyperast-go/pkg/labelstore"
	"github.com/hyperast/hyperast-go/pkg/nodestore"
	"github.com/hyperast/hyperast-go/pkg/refs"
)

func TestResolve_WalksStepsToTarget(t *testing.T) {
	labels := labelstore.New()
	store := nodestore.New(labels)

	a, err := store.InsertLeaf(astmodel.KindIdentifier, labels.InternString("a"))
	require.NoError(t, err)

	b, err := store.InsertLeaf(astmodel.KindIdentifier, labels.InternString("b"))
	require.NoError(t, err)

	root, err := store.GetOrInsert(astmodel.KindBlock, labelstore.NoLabel, []nodestore.ID{a, b}, nil)
	require.NoError(t, err)

	path := refs.Path{{Ancestor: root, ChildIndex: 1}}

	got, err := refs.Resolve(store, root, path)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestResolve_EmptyPathIsScopeRoot(t *testing.T) {
	labels := labelstore.New()
	store := nodestore.New(labels)

	root, err := store.InsertLeaf(astmodel.KindIdentifier, labels.InternString("a"))
	require.NoError(t, err)

	got, err := refs.Resolve(store, root, nil)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestResolve_MismatchedAncestorErrors(t *testing.T) {
	labels := labelstore.New()
	store := nodestore.New(labels)

	a, err := store.InsertLeaf(astmodel.KindIdentifier, labels.InternString("a"))
	require.NoError(t, err)

	root, err := store.GetOrInsert(astmodel.KindBlock, labelstore.NoLabel, []nodestore.ID{a}, nil)
	require.NoError(t, err)

	path := refs.Path{{Ancestor: nodestore.ID(999), ChildIndex: 0}}

	_, err = refs.Resolve(store, root, path)
	assert.Error(t, err)
}

func TestResolve_OutOfRangeChildIndexErrors(t *testing.T) {
	labels := labelstore.New()
	store := nodestore.New(labels)

	a, err := store.InsertLeaf(astmodel.KindIdentifier, labels.InternString("a"))
	require.NoError(t, err)

	root, err := store.GetOrInsert(astmodel.KindBlock, labelstore.NoLabel, []nodestore.ID{a}, nil)
	require.NoError(t, err)

	path := refs.Path{{Ancestor: root, ChildIndex: 5}}

	_, err = refs.Resolve(store, root, path)
	assert.Error(t, err)
}

func TestPath_ParentAndLast(t *testing.T) {
	path := refs.Path{
		{Ancestor: 1, ChildIndex: 0},
		{Ancestor: 2, ChildIndex: 3},
	}

	last, ok := path.Last()
	require.True(t, ok)
	assert.Equal(t, nodestore.ID(2), last.Ancestor)
	assert.Equal(t, 3, last.ChildIndex)

	parent, ok := path.Parent()
	require.True(t, ok)
	assert.Equal(t, refs.Path{{Ancestor: 1, ChildIndex: 0}}, parent)
}

func TestPath_ParentOfEmptyPathIsFalse(t *testing.T) {
	var path refs.Path

	_, ok := path.Parent()
	assert.False(t, ok)

	_, ok = path.Last()
	assert.False(t, ok)
}
