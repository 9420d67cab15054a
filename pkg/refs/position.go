package refs

import (
	"github.com/hyperast/hyperast-go/pkg/hyperast/herrors"
	"github.com/hyperast/hyperast-go/pkg/nodestore"
)

// Step is one link of a stored position: the ancestor actually visited and
// the index of the child taken to descend further (spec.md §4.9's "stack of
// (ancestor_id, child_index)", spec.md §6's Path serialization).
type Step struct {
	Ancestor   nodestore.ID
	ChildIndex int
}

// Path anchors a node relative to a scope root: walking Ancestor/ChildIndex
// pairs in order and taking the final child reaches the addressed node.
// Unlike [decomp.Tree.Path], every step already carries the ancestor's id,
// so ascending needs no store lookups.
type Path []Step

// Resolve walks path from scopeRoot and returns the id it addresses, or
// [herrors.ErrInvalidArgument] if any step is out of range or an ancestor
// id doesn't match what the store actually holds at that point.
func Resolve(store *nodestore.Store, scopeRoot nodestore.ID, path Path) (nodestore.ID, error) {
	cur := scopeRoot

	for _, step := range path {
		if step.Ancestor != cur {
			return 0, herrors.ErrInvalidArgument
		}

		v, err := store.Resolve(cur)
		if err != nil {
			return 0, err
		}

		if step.ChildIndex < 0 || step.ChildIndex >= len(v.Children) {
			return 0, herrors.ErrInvalidArgument
		}

		cur = v.Children[step.ChildIndex]
	}

	return cur, nil
}

// Parent returns path with its last step removed, i.e. the position one
// level up the ancestor chain, and reports whether a parent exists.
func (p Path) Parent() (Path, bool) {
	if len(p) == 0 {
		return nil, false
	}

	return p[:len(p)-1], true
}

// Last returns the final step of the path, if any.
func (p Path) Last() (Step, bool) {
	if len(p) == 0 {
		return Step{}, false
	}

	return p[len(p)-1], true
}
