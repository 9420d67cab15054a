package script

import (
	"context"

	"github.com/hyperast/hyperast-go/pkg/astmodel"
	"github.com/hyperast/hyperast-go/pkg/decomp"
	"github.com/hyperast/hyperast-go/pkg/diff/dmap"
	"github.com/hyperast/hyperast-go/pkg/labelstore"
	"github.com/hyperast/hyperast-go/pkg/nodestore"
)

// wnode is a node of the working tree the generator mutates as it emits
// actions, so that each action's Path reflects the tree as reshaped by
// every action emitted before it (spec.md §4.7's path stability rule).
type wnode struct {
	parent   *wnode
	children []*wnode
	kind     astmodel.Kind
	label    labelstore.ID
}

func (w *wnode) path() []int {
	var reversed []int

	for cur := w; cur.parent != nil; cur = cur.parent {
		reversed = append(reversed, indexOf(cur.parent.children, cur))
	}

	path := make([]int, len(reversed))
	for i, v := range reversed {
		path[len(reversed)-1-i] = v
	}

	return path
}

func indexOf(children []*wnode, target *wnode) int {
	for i, c := range children {
		if c == target {
			return i
		}
	}

	return -1
}

func (w *wnode) removeFromParent() {
	if w.parent == nil {
		return
	}

	idx := indexOf(w.parent.children, w)
	if idx < 0 {
		return
	}

	w.parent.children = append(w.parent.children[:idx], w.parent.children[idx+1:]...)
	w.parent = nil
}

func (w *wnode) spliceInto(parent *wnode, position int) {
	if position < 0 || position > len(parent.children) {
		position = len(parent.children)
	}

	parent.children = append(parent.children, nil)
	copy(parent.children[position+1:], parent.children[position:])
	parent.children[position] = w
	w.parent = parent
}

// Generate converts mapping into an ordered edit script turning src into
// dst (spec.md §4.7). Both views must be the ones mapping was computed
// over; labels is used to resolve the actual UTF-8 text for Update/MovUpd.
// ctx is checked once per emitted delete and once per visited dst node
// (spec.md §5's iteration-boundary cancellation requirement).
func Generate(ctx context.Context, mapping *dmap.Mapping, src, dst *decomp.Tree, store *nodestore.Store, labels *labelstore.Store) ([]Action, error) {
	gen := &generator{
		mapping: mapping,
		src:     src,
		dst:     dst,
		store:   store,
		labels:  labels,
	}

	return gen.run(ctx)
}

type generator struct {
	mapping *dmap.Mapping
	src     *decomp.Tree
	dst     *decomp.Tree
	store   *nodestore.Store
	labels  *labelstore.Store

	actions []Action

	srcW []*wnode // src post-order index -> working node, nil once deleted.
	dstW []*wnode // dst post-order index -> working node, once realized.
}

func (g *generator) run(ctx context.Context) ([]Action, error) {
	g.srcW = make([]*wnode, g.src.Len())
	g.dstW = make([]*wnode, g.dst.Len())

	g.buildInitialWorkingTree(g.src.RootIndex())
	g.seedMappedDstNodes()

	if err := g.emitDeletes(ctx); err != nil {
		return nil, err
	}

	if err := g.emitInsertsMovesUpdates(ctx, g.dst.RootIndex()); err != nil {
		return nil, err
	}

	return g.actions, nil
}

func (g *generator) buildInitialWorkingTree(srcIdx int) *wnode {
	w := &wnode{kind: g.src.Kind[srcIdx], label: g.src.LabelID[srcIdx]}
	g.srcW[srcIdx] = w

	for _, c := range g.src.Children(srcIdx) {
		child := g.buildInitialWorkingTree(c)
		child.parent = w
		w.children = append(w.children, child)
	}

	return w
}

func (g *generator) seedMappedDstNodes() {
	for dstIdx := 0; dstIdx < g.dst.Len(); dstIdx++ {
		if srcIdx, ok := g.mapping.SrcOf(dstIdx); ok {
			g.dstW[dstIdx] = g.srcW[srcIdx]
		}
	}
}

// emitDeletes walks unmapped src nodes in ascending post-order index, which
// already visits children before their parents (spec.md §4.7's reverse
// post-order requirement for deletes), removing each from the working tree.
// The root is never deleted: the caller-level Diff facade only runs the
// differ over a pair of roots it considers comparable.
func (g *generator) emitDeletes(ctx context.Context) error {
	rootIdx := g.src.RootIndex()

	for srcIdx := 0; srcIdx < rootIdx; srcIdx++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if g.mapping.IsSrcMapped(srcIdx) {
			continue
		}

		w := g.srcW[srcIdx]
		if w == nil || w.parent == nil {
			continue // already removed along with an ancestor's own deletion bookkeeping.
		}

		g.actions = append(g.actions, Action{
			Op:   OpDelete,
			Path: w.path(),
			Kind: w.kind.String(),
		})

		w.removeFromParent()
		g.srcW[srcIdx] = nil
	}

	return nil
}

// emitInsertsMovesUpdates walks dst in pre-order (parents before children,
// spec.md §4.7's insert ordering), emitting Insert for unmapped nodes and
// Update/Move/MovUpd for mapped ones whose label or position changed.
// Because siblings are visited left-to-right and each is spliced at its
// final destination index immediately, ties at the same insertion index
// naturally resolve left-to-right (spec.md §4.7's tie-break rule).
func (g *generator) emitInsertsMovesUpdates(ctx context.Context, dstIdx int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if dstIdx != g.dst.RootIndex() {
		if err := g.emitForNode(dstIdx); err != nil {
			return err
		}
	}

	for _, c := range g.dst.Children(dstIdx) {
		if err := g.emitInsertsMovesUpdates(ctx, c); err != nil {
			return err
		}
	}

	return nil
}

func (g *generator) emitForNode(dstIdx int) error {
	parentDstIdx := g.dst.Parent[dstIdx]
	parentW := g.dstW[parentDstIdx]
	position := positionAmong(g.dst, parentDstIdx, dstIdx)

	srcIdx, mapped := g.mapping.SrcOf(dstIdx)
	if !mapped {
		return g.emitInsert(dstIdx, parentW, position)
	}

	g.emitUpdateOrMove(srcIdx, dstIdx, parentW, position)

	return nil
}

func (g *generator) emitInsert(dstIdx int, parentW *wnode, position int) error {
	newID, err := g.store.GetOrInsert(g.dst.Kind[dstIdx], g.dst.LabelID[dstIdx], nil, nil)
	if err != nil {
		return err
	}

	g.actions = append(g.actions, Action{
		Op:           OpInsert,
		Path:         parentW.path(),
		Position:     position,
		NewSubtreeID: newID,
		Kind:         g.dst.Kind[dstIdx].String(),
	})

	w := &wnode{kind: g.dst.Kind[dstIdx], label: g.dst.LabelID[dstIdx]}
	w.spliceInto(parentW, position)
	g.dstW[dstIdx] = w

	return nil
}

func (g *generator) emitUpdateOrMove(srcIdx, dstIdx int, parentW *wnode, position int) {
	w := g.srcW[srcIdx]

	moveNeeded := w.parent != parentW || indexOf(parentW.children, w) != position
	labelChanged := w.label != g.dst.LabelID[dstIdx]

	fromPath := w.path()

	switch {
	case moveNeeded && labelChanged:
		newLabel, _ := g.labels.ResolveString(g.dst.LabelID[dstIdx])
		g.actions = append(g.actions, Action{
			Op:           OpMovUpd,
			FromPath:     fromPath,
			ToParentPath: parentW.path(),
			Position:     position,
			NewLabel:     newLabel,
			Kind:         w.kind.String(),
		})
		w.removeFromParent()
		w.spliceInto(parentW, position)
		w.label = g.dst.LabelID[dstIdx]
	case moveNeeded:
		g.actions = append(g.actions, Action{
			Op:           OpMove,
			FromPath:     fromPath,
			ToParentPath: parentW.path(),
			Position:     position,
			Kind:         w.kind.String(),
		})
		w.removeFromParent()
		w.spliceInto(parentW, position)
	case labelChanged:
		newLabel, _ := g.labels.ResolveString(g.dst.LabelID[dstIdx])
		g.actions = append(g.actions, Action{
			Op:       OpUpdate,
			Path:     fromPath,
			NewLabel: newLabel,
			Kind:     w.kind.String(),
		})
		w.label = g.dst.LabelID[dstIdx]
	}
}

func positionAmong(tree *decomp.Tree, parent, target int) int {
	for i, c := range tree.Children(parent) {
		if c == target {
			return i
		}
	}

	return -1
}
