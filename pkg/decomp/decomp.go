// Package decomp builds decompressed post-order views of a stored subtree
// (spec.md §4.4), the layout the differ operates on. A view is a pure
// projection: building it never mutates the node store, and building it
// twice from the same root yields bit-identical arrays.
package decomp

import (
	"github.com/hyperast/hyperast-go/pkg/astmodel"
	"github.com/hyperast/hyperast-go/pkg/hyperast/herrors"
	"github.com/hyperast/hyperast-go/pkg/labelstore"
	"github.com/hyperast/hyperast-go/pkg/nodestore"
)

// noIndex marks the absence of a parent/sibling/child in the post-order
// arrays (the root's parent, a leaf's first child, the last sibling's next).
const noIndex = -1

// Tree is a post-order array layout of a subtree, indices 0..n-1 in post-
// order (spec.md §4.4). Index n-1 is always the root.
type Tree struct {
	Root nodestore.ID

	NodeID         []nodestore.ID
	Parent         []int
	FirstChild     []int
	NextSibling    []int
	Size           []uint32
	Kind           []astmodel.Kind
	LabelID        []labelstore.ID // the actual label handle, for the script generator's Update detection.
	Label          []uint64        // label hash, used by the matchers for bucket/equality checks.
	StructuralHash []uint64
}

// Len returns the number of nodes in the view.
func (t *Tree) Len() int { return len(t.NodeID) }

// RootIndex returns the post-order index of the root (always Len()-1 for a
// non-empty view).
func (t *Tree) RootIndex() int {
	return len(t.NodeID) - 1
}

// Children returns the post-order indices of node i's children, in order.
func (t *Tree) Children(i int) []int {
	var out []int

	for c := t.FirstChild[i]; c != noIndex; c = t.NextSibling[c] {
		out = append(out, c)
	}

	return out
}

// Build constructs a post-order [Tree] for root by walking the node store in
// a single traversal (spec.md §4.4). It never mutates store.
func Build(store *nodestore.Store, root nodestore.ID) (*Tree, error) {
	rootView, err := store.Resolve(root)
	if err != nil {
		return nil, err
	}

	n := int(rootView.Metrics.Size)

	tree := &Tree{
		Root:           root,
		NodeID:         make([]nodestore.ID, 0, n),
		Parent:         make([]int, 0, n),
		FirstChild:     make([]int, 0, n),
		NextSibling:    make([]int, 0, n),
		Size:           make([]uint32, 0, n),
		Kind:           make([]astmodel.Kind, 0, n),
		LabelID:        make([]labelstore.ID, 0, n),
		Label:          make([]uint64, 0, n),
		StructuralHash: make([]uint64, 0, n),
	}

	_, err = buildRecursive(store, tree, root, noIndex)
	if err != nil {
		return nil, err
	}

	return tree, nil
}

// buildRecursive appends node (and its subtree) to tree in post-order and
// returns node's post-order index. parentIdx is the caller's own index, or
// noIndex for the root call.
func buildRecursive(store *nodestore.Store, tree *Tree, id nodestore.ID, parentIdx int) (int, error) {
	view, err := store.Resolve(id)
	if err != nil {
		return 0, err
	}

	childIndices := make([]int, 0, len(view.Children))

	for _, childID := range view.Children {
		childIdx, err := buildRecursive(store, tree, childID, noIndex)
		if err != nil {
			return 0, err
		}

		childIndices = append(childIndices, childIdx)
	}

	selfIdx := len(tree.NodeID)

	tree.NodeID = append(tree.NodeID, id)
	tree.Parent = append(tree.Parent, noIndex)
	tree.Size = append(tree.Size, view.Metrics.Size)
	tree.Kind = append(tree.Kind, view.Kind)
	tree.LabelID = append(tree.LabelID, view.Label)
	tree.Label = append(tree.Label, view.Hashes.Label)
	tree.StructuralHash = append(tree.StructuralHash, view.Hashes.Structural)
	tree.FirstChild = append(tree.FirstChild, noIndex)
	tree.NextSibling = append(tree.NextSibling, noIndex)

	linkChildren(tree, selfIdx, childIndices)

	if parentIdx != noIndex {
		tree.Parent[selfIdx] = parentIdx
	}

	for _, childIdx := range childIndices {
		tree.Parent[childIdx] = selfIdx
	}

	return selfIdx, nil
}

func linkChildren(tree *Tree, selfIdx int, childIndices []int) {
	if len(childIndices) == 0 {
		return
	}

	tree.FirstChild[selfIdx] = childIndices[0]

	for i := 0; i+1 < len(childIndices); i++ {
		tree.NextSibling[childIndices[i]] = childIndices[i+1]
	}
}

// Height returns the height of node i (1 for a leaf), derived from Size and
// the post-order layout by walking the first-child chain; the differ only
// needs this for bucket ordering (spec.md §4.5) so it is computed lazily
// rather than stored per node.
func (t *Tree) Height(i int) int {
	height := 1
	for c := t.FirstChild[i]; c != noIndex; c = t.NextSibling[c] {
		if h := t.Height(c) + 1; h > height {
			height = h
		}
	}

	return height
}

// Heights precomputes the height of every node in one bottom-up pass
// (post-order indices are already children-before-parents).
func (t *Tree) Heights() []int {
	heights := make([]int, t.Len())

	for i := 0; i < t.Len(); i++ {
		height := 1

		for c := t.FirstChild[i]; c != noIndex; c = t.NextSibling[c] {
			if heights[c]+1 > height {
				height = heights[c] + 1
			}
		}

		heights[i] = height
	}

	return heights
}

// Path returns the sequence of child indices from the view's root down to
// node i, suitable for use as an Action.Path (spec.md §3).
func (t *Tree) Path(i int) ([]int, error) {
	var reversed []int

	for cur := i; cur != t.RootIndex(); {
		parent := t.Parent[cur]
		if parent == noIndex {
			return nil, herrors.ErrInternal
		}

		pos := childPosition(t, parent, cur)
		reversed = append(reversed, pos)
		cur = parent
	}

	path := make([]int, len(reversed))
	for i, v := range reversed {
		path[len(reversed)-1-i] = v
	}

	return path, nil
}

func childPosition(t *Tree, parent, child int) int {
	pos := 0

	for c := t.FirstChild[parent]; c != noIndex; c = t.NextSibling[c] {
		if c == child {
			return pos
		}

		pos++
	}

	return -1
}
