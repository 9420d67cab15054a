package bottomup_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperast/hyperast-go/pkg/astmodel"
	"github.com/hyperast/hyperast-go/pkg/decomp"
	"github.com/hyperast/hyperast-go/pkg/diff/bottomup"
	"github.com/hyperast/hyperast-go/pkg/diff/dmap"
	"github.com/hyperast/hyperast-go/pkg/labelstore"
	"github.com/hyperast/hyperast-go/pkg/nodestore"
)

func buildBlockView(t *testing.T, names ...string) (*decomp.Tree, *labelstore.Store) {
	t.Helper()

	labels := labelstore.New()
	store := nodestore.New(labels)

	children := make([]nodestore.ID, 0, len(names))

	for _, n := range names {
		id, err := store.InsertLeaf(astmodel.KindIdentifier, labels.InternString(n))
		require.NoError(t, err)

		children = append(children, id)
	}

	root, err := store.GetOrInsert(astmodel.KindBlock, labelstore.NoLabel, children, nil)
	require.NoError(t, err)

	tree, err := decomp.Build(store, root)
	require.NoError(t, err)

	return tree, labels
}

func TestMatch_ContainerMatchedOnPartialLeafOverlap(t *testing.T) {
	src, srcLabels := buildBlockView(t, "a", "b")
	dst, dstLabels := buildBlockView(t, "a", "b", "c")

	mapping := dmap.New(src.Len(), dst.Len())
	mapping.Link(0, 0) // "a" <-> "a"
	mapping.Link(1, 1) // "b" <-> "b"

	labelOf := func(tree *decomp.Tree, idx int) string {
		if tree == src {
			s, _ := srcLabels.ResolveString(tree.LabelID[idx])
			return s
		}

		s, _ := dstLabels.ResolveString(tree.LabelID[idx])

		return s
	}

	bottomup.Match(context.Background(), mapping, src, dst, bottomup.Options{LabelOf: labelOf})

	require.True(t, mapping.Validate())

	rootDst, ok := mapping.DstOf(src.RootIndex())
	require.True(t, ok)
	assert.Equal(t, dst.RootIndex(), rootDst)

	// The inserted "c" leaf has no source counterpart and stays unmapped.
	cIdx := 2
	assert.False(t, mapping.IsDstMapped(cIdx))
}

// buildNestedBlocks constructs Block[ Block[names0...], Block[names1...] ]
// and returns its view. Post-order indices are: names0 leaves, inner block 0,
// names1 leaves, inner block 1, root.
func buildNestedBlocks(t *testing.T, names0, names1 []string) *decomp.Tree {
	t.Helper()

	labels := labelstore.New()
	store := nodestore.New(labels)

	mkBlock := func(names []string) nodestore.ID {
		children := make([]nodestore.ID, 0, len(names))

		for _, n := range names {
			id, err := store.InsertLeaf(astmodel.KindIdentifier, labels.InternString(n))
			require.NoError(t, err)

			children = append(children, id)
		}

		id, err := store.GetOrInsert(astmodel.KindBlock, labelstore.NoLabel, children, nil)
		require.NoError(t, err)

		return id
	}

	blockA := mkBlock(names0)
	blockC := mkBlock(names1)

	root, err := store.GetOrInsert(astmodel.KindBlock, labelstore.NoLabel, []nodestore.ID{blockA, blockC}, nil)
	require.NoError(t, err)

	tree, err := decomp.Build(store, root)
	require.NoError(t, err)

	return tree
}

func TestMatch_BelowThresholdLeavesContainerUnmapped(t *testing.T) {
	src := buildNestedBlocks(t, []string{"a", "b"}, []string{"x"})
	dst := buildNestedBlocks(t, []string{"a", "z"}, []string{"x"})

	// Indices: 0=a,1=b,2=blockA,3=x,4=blockC,5=root (same layout on both sides).
	mapping := dmap.New(src.Len(), dst.Len())
	mapping.Link(0, 0) // "a" <-> "a"
	mapping.Link(1, 3) // "b" cross-mapped into the sibling block, diluting blockA's overlap
	mapping.Link(5, 5) // roots pre-mapped, so only the inner blocks are candidates for blockA

	bottomup.Match(context.Background(), mapping, src, dst, bottomup.Options{Threshold: 0.51})

	// jaccard(blockA, blockA') = 1/2 = 0.5, below the 0.51 threshold.
	const blockAIdx = 2

	assert.False(t, mapping.IsSrcMapped(blockAIdx))
}

func TestMatch_RecoveryPairsUniqueUnmatchedSibling(t *testing.T) {
	src, _ := buildBlockView(t, "a", "b")
	dst, _ := buildBlockView(t, "a", "z")

	mapping := dmap.New(src.Len(), dst.Len())
	mapping.Link(src.RootIndex(), dst.RootIndex())
	mapping.Link(0, 0) // "a" <-> "a"

	bottomup.Match(context.Background(), mapping, src, dst, bottomup.Options{EnableRecovery: true})

	require.True(t, mapping.Validate())
	assert.True(t, mapping.IsSrcMapped(1))

	recovered, ok := mapping.DstOf(1)
	require.True(t, ok)
	assert.Equal(t, 1, recovered)
}
