package script_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperast/hyperast-go/pkg/astmodel"
	"github.com/hyperast/hyperast-go/pkg/diff/script"
	"github.com/hyperast/hyperast-go/pkg/labelstore"
	"github.com/hyperast/hyperast-go/pkg/nodestore"
)

func TestApply_Delete(t *testing.T) {
	labels := labelstore.New()
	store := nodestore.New(labels)

	root := buildBlock(t, store, labels, "a", "b")
	want := buildBlock(t, store, labels, "a")

	got, err := script.Apply(store, labels, root, []script.Action{
		{Op: script.OpDelete, Path: []int{1}},
	})
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestApply_Insert(t *testing.T) {
	labels := labelstore.New()
	store := nodestore.New(labels)

	root := buildBlock(t, store, labels, "a")
	bID, err := store.InsertLeaf(astmodel.KindIdentifier, labels.InternString("b"))
	require.NoError(t, err)

	want := buildBlock(t, store, labels, "a", "b")

	got, err := script.Apply(store, labels, root, []script.Action{
		{Op: script.OpInsert, Path: nil, Position: 1, NewSubtreeID: bID},
	})
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestApply_Update(t *testing.T) {
	labels := labelstore.New()
	store := nodestore.New(labels)

	root := buildBlock(t, store, labels, "a")
	want := buildBlock(t, store, labels, "z")

	got, err := script.Apply(store, labels, root, []script.Action{
		{Op: script.OpUpdate, Path: []int{0}, NewLabel: "z"},
	})
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestApply_Move(t *testing.T) {
	labels := labelstore.New()
	store := nodestore.New(labels)

	root := buildBlock(t, store, labels, "a", "b")
	want := buildBlock(t, store, labels, "b", "a")

	got, err := script.Apply(store, labels, root, []script.Action{
		{Op: script.OpMove, FromPath: []int{1}, ToParentPath: nil, Position: 0},
	})
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestApply_EmptyScriptIsIdentity(t *testing.T) {
	labels := labelstore.New()
	store := nodestore.New(labels)

	root := buildBlock(t, store, labels, "a", "b")

	got, err := script.Apply(store, labels, root, nil)
	require.NoError(t, err)

	assert.Equal(t, root, got)
}
