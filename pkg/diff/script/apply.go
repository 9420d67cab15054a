package script

import (
	"github.com/hyperast/hyperast-go/pkg/astmodel"
	"github.com/hyperast/hyperast-go/pkg/hyperast/herrors"
	"github.com/hyperast/hyperast-go/pkg/labelstore"
	"github.com/hyperast/hyperast-go/pkg/nodestore"
)

// anode is a fully materialized, mutable in-memory mirror of a subtree,
// used as the applier's working tree (spec.md §4.8). Unlike the generator's
// wnode it carries real children (not just parent pointers), since Apply
// must rebuild the final tree bottom-up through the node store.
type anode struct {
	kind     astmodel.Kind
	label    labelstore.ID
	children []*anode
}

// Apply replays actions against root, rebuilding every node on the path
// from each change up to the root via store.GetOrInsert so that unaffected
// subtrees keep their existing ids and affected ancestors dedup against any
// other equal subtree already in the store (spec.md §4.8). It returns the
// id of the resulting root. actions must be in the order Generate produced
// them; their paths are interpreted against the tree as reshaped by every
// preceding action.
func Apply(store *nodestore.Store, labels *labelstore.Store, root nodestore.ID, actions []Action) (nodestore.ID, error) {
	work, err := materialize(store, root)
	if err != nil {
		return 0, err
	}

	for _, a := range actions {
		if err := applyOne(store, labels, work, a); err != nil {
			return 0, err
		}
	}

	return rebuild(store, work)
}

func materialize(store *nodestore.Store, id nodestore.ID) (*anode, error) {
	v, err := store.Resolve(id)
	if err != nil {
		return nil, err
	}

	n := &anode{kind: v.Kind, label: v.Label}

	for _, c := range v.Children {
		child, err := materialize(store, c)
		if err != nil {
			return nil, err
		}

		n.children = append(n.children, child)
	}

	return n, nil
}

// rebuild walks work bottom-up, calling GetOrInsert at every level so that
// subtrees equal to ones already in the store come back as the existing id
// rather than a fresh one (spec.md's Identity invariant).
func rebuild(store *nodestore.Store, n *anode) (nodestore.ID, error) {
	childIDs := make([]nodestore.ID, 0, len(n.children))

	for _, c := range n.children {
		id, err := rebuild(store, c)
		if err != nil {
			return 0, err
		}

		childIDs = append(childIDs, id)
	}

	return store.GetOrInsert(n.kind, n.label, childIDs, nil)
}

func applyOne(store *nodestore.Store, labels *labelstore.Store, root *anode, a Action) error {
	switch a.Op {
	case OpDelete:
		return applyDelete(root, a)
	case OpInsert:
		return applyInsert(store, root, a)
	case OpUpdate:
		return applyUpdate(labels, root, a)
	case OpMove:
		return applyMove(root, a)
	case OpMovUpd:
		if err := applyMove(root, a); err != nil {
			return err
		}

		return applyUpdate(labels, root, Action{Path: a.ToParentPathWithPosition(), NewLabel: a.NewLabel})
	default:
		return herrors.ErrInvalidArgument
	}
}

// ToParentPathWithPosition addresses the node this Move/MovUpd action just
// relocated, for the follow-up label update a MovUpd applies after moving.
func (a Action) ToParentPathWithPosition() []int {
	return append(append([]int(nil), a.ToParentPath...), a.Position)
}

func navigate(root *anode, path []int) (*anode, error) {
	cur := root

	for _, idx := range path {
		if idx < 0 || idx >= len(cur.children) {
			return nil, herrors.ErrInvalidArgument
		}

		cur = cur.children[idx]
	}

	return cur, nil
}

func navigateParentAndIndex(root *anode, path []int) (*anode, int, error) {
	if len(path) == 0 {
		return nil, 0, herrors.ErrInvalidArgument
	}

	parent, err := navigate(root, path[:len(path)-1])
	if err != nil {
		return nil, 0, err
	}

	return parent, path[len(path)-1], nil
}

func applyDelete(root *anode, a Action) error {
	parent, idx, err := navigateParentAndIndex(root, a.Path)
	if err != nil {
		return err
	}

	parent.children = append(parent.children[:idx], parent.children[idx+1:]...)

	return nil
}

func applyInsert(store *nodestore.Store, root *anode, a Action) error {
	parent, err := navigate(root, a.Path)
	if err != nil {
		return err
	}

	newChild, err := materialize(store, a.NewSubtreeID)
	if err != nil {
		return err
	}

	position := a.Position
	if position < 0 || position > len(parent.children) {
		position = len(parent.children)
	}

	parent.children = append(parent.children, nil)
	copy(parent.children[position+1:], parent.children[position:])
	parent.children[position] = newChild

	return nil
}

func applyUpdate(labels *labelstore.Store, root *anode, a Action) error {
	target, err := navigate(root, a.Path)
	if err != nil {
		return err
	}

	target.label = labels.InternString(a.NewLabel)

	return nil
}

func applyMove(root *anode, a Action) error {
	fromParent, fromIdx, err := navigateParentAndIndex(root, a.FromPath)
	if err != nil {
		return err
	}

	moved := fromParent.children[fromIdx]
	fromParent.children = append(fromParent.children[:fromIdx], fromParent.children[fromIdx+1:]...)

	toParent, err := navigate(root, a.ToParentPath)
	if err != nil {
		return err
	}

	position := a.Position
	if position < 0 || position > len(toParent.children) {
		position = len(toParent.children)
	}

	toParent.children = append(toParent.children, nil)
	copy(toParent.children[position+1:], toParent.children[position:])
	toParent.children[position] = moved

	return nil
}
