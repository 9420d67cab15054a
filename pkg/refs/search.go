package refs

import (
	"context"
	"strconv"
	"strings"

	"github.com/hyperast/hyperast-go/pkg/astmodel"
	"github.com/hyperast/hyperast-go/pkg/hyperast/herrors"
	"github.com/hyperast/hyperast-go/pkg/labelstore"
	"github.com/hyperast/hyperast-go/pkg/nodestore"
)

// Result is the outcome of a reference search: the deduplicated positions
// found plus a diagnostic describing why the search stopped (spec.md §4.9's
// "caller receives the set of found positions plus a diagnostic describing
// the stop cause"). A non-empty Diagnostic is not an error.
type Result struct {
	Positions  []Path
	Diagnostic string
}

const (
	diagExhausted = "reached scope root: no further ancestor to ascend into"
	diagLimit     = "reached caller-provided limit ancestor"
	diagNoOp      = "declaration kind has no associated search"
)

// invalidAncestor marks the absence of a caller-supplied limit ancestor.
const invalidAncestor nodestore.ID = 0

// Resolver runs reference searches against one node/label store pair. It
// owns a fresh [Store] scratch DAG per call to [Resolver.Search], matching
// spec.md §5's "owned by the partial-analysis scratchpad and discarded per
// reference search".
type Resolver struct {
	store  *nodestore.Store
	labels *labelstore.Store
}

// NewResolver creates a Resolver over the given stores.
func NewResolver(store *nodestore.Store, labels *labelstore.Store) *Resolver {
	return &Resolver{store: store, labels: labels}
}

// Search implements spec.md §4.9: dispatch by decl's kind, then run the
// matching algorithm appropriate to that kind. peers are additional
// positions (e.g. sibling package files, reached once ascent hits file
// scope) searched with the fully-qualified pattern. limitAncestor, if
// non-zero, is a node id on decl's own ancestor chain at which ascent stops.
// ctx is checked at each ascent step and before each subtree walk (spec.md
// §5's "each top-level call ... must check a caller-supplied cancel flag
// at each iteration boundary"); a canceled ctx returns ctx.Err(). The
// positions found so far come with it only when a type-declaration search
// sees the cancellation between two ascent steps; otherwise the Result is
// empty.
func (r *Resolver) Search(ctx context.Context, decl Path, scopeRoot nodestore.ID, peers []Path, limitAncestor nodestore.ID) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	declID, err := Resolve(r.store, scopeRoot, decl)
	if err != nil {
		return Result{}, err
	}

	declView, err := r.store.Resolve(declID)
	if err != nil {
		return Result{}, err
	}

	kind, ok := declView.Kind.(astmodel.GenericKind)
	if !ok {
		return Result{}, herrors.ErrUnsupported
	}

	refs := NewStore()

	switch astmodel.ClassifyForSearch(kind) {
	case astmodel.DeclSearchType:
		return r.typeDeclSearch(ctx, refs, decl, declView, scopeRoot, peers, limitAncestor)
	case astmodel.DeclSearchThis:
		return r.thisSearch(ctx, refs, decl, declID)
	case astmodel.DeclSearchField, astmodel.DeclSearchLocal:
		return r.localSearch(ctx, refs, decl, declView)
	default:
		return Result{Diagnostic: diagNoOp}, nil
	}
}

// typeDeclSearch implements spec.md §4.9's type-decl search. The qualified
// name is tracked as a plain chain of simple-name labels (outermost first)
// rather than rebasing RefsEnum values in place (the DAG is immutable); a
// fresh TypeIdentifier chain is folded from the chain whenever a pattern is
// needed. Each ascent step searches the ancestor's whole subtree rather than
// only the sibling branch not containing D: a deliberate over-approximation
// that keeps the ascent loop uniform across type bodies, files and
// directories, at the cost of re-visiting some already-searched nodes
// (harmless: occurrences are deduplicated by path).
func (r *Resolver) typeDeclSearch(ctx context.Context, refs *Store, decl Path, declView nodestore.View, scopeRoot nodestore.ID, peers []Path, limitAncestor nodestore.ID) (Result, error) {
	seen := make(map[string]bool)

	var out []Path

	chain := []labelstore.ID{declView.Label}

	parentPath, hasParent := decl.Parent()
	if hasParent {
		parentID := mustAncestor(decl)

		thisRef := refs.This(refs.MaybeMissing())
		qualRef := buildQualified(refs, chain)
		qualThis := refs.This(qualRef)

		for _, pattern := range []ID{thisRef, qualRef, qualThis} {
			if err := r.searchPattern(ctx, refs, parentPath, parentID, pattern, &out, seen); err != nil {
				return Result{}, err
			}
		}
	}

	cur := decl

	for {
		if err := ctx.Err(); err != nil {
			return Result{Positions: out}, err
		}

		last, ok := cur.Last()
		if !ok {
			return Result{Positions: out, Diagnostic: diagExhausted}, nil
		}

		ancestorID := last.Ancestor
		ancestorPath, _ := cur.Parent()

		ancestorView, err := r.store.Resolve(ancestorID)
		if err != nil {
			return Result{}, err
		}

		ancestorKind, _ := ancestorView.Kind.(astmodel.GenericKind)

		switch {
		case ancestorKind.IsTypeDeclaration():
			chain = prepend(ancestorView.Label, chain)

			qualRef := buildQualified(refs, chain)
			qualThis := refs.This(qualRef)

			for _, pattern := range []ID{qualRef, qualThis} {
				if err := r.searchPattern(ctx, refs, ancestorPath, ancestorID, pattern, &out, seen); err != nil {
					return Result{}, err
				}
			}

		case ancestorKind == astmodel.KindFile:
			qualRef := buildQualified(refs, chain)

			fqChain := chain
			if pkgLabel, found := r.findPackageLabel(ancestorView); found {
				fqChain = append(r.splitPackage(pkgLabel), chain...)
			}

			fqRef := buildQualified(refs, fqChain)

			for _, pattern := range []ID{qualRef, fqRef} {
				if err := r.searchPattern(ctx, refs, ancestorPath, ancestorID, pattern, &out, seen); err != nil {
					return Result{}, err
				}
			}

			for _, peer := range peers {
				peerID, err := Resolve(r.store, scopeRoot, peer)
				if err != nil {
					return Result{}, err
				}

				if err := r.searchPattern(ctx, refs, peer, peerID, fqRef, &out, seen); err != nil {
					return Result{}, err
				}
			}

			chain = fqChain

		case ancestorKind == astmodel.KindDirectory:
			fqRef := buildQualified(refs, chain)

			if err := r.searchPattern(ctx, refs, ancestorPath, ancestorID, fqRef, &out, seen); err != nil {
				return Result{}, err
			}
		}

		if limitAncestor != invalidAncestor && ancestorID == limitAncestor {
			return Result{Positions: out, Diagnostic: diagLimit}, nil
		}

		cur = ancestorPath
	}
}

// thisSearch implements spec.md §4.9's this-search: occurrences of `this`
// within the declaring type body.
func (r *Resolver) thisSearch(ctx context.Context, refs *Store, decl Path, declID nodestore.ID) (Result, error) {
	var out []Path

	seen := make(map[string]bool)
	pattern := refs.This(refs.MaybeMissing())

	if err := r.searchPattern(ctx, refs, decl, declID, pattern, &out, seen); err != nil {
		return Result{}, err
	}

	return Result{Positions: out, Diagnostic: diagExhausted}, nil
}

// localSearch implements spec.md §4.9's local search: from the declaring
// block, search every sibling subtree for the simple name; loop/resource
// headers ascend one extra step to also cover the loop body.
func (r *Resolver) localSearch(ctx context.Context, refs *Store, decl Path, declView nodestore.View) (Result, error) {
	ancestorPath, ok := decl.Parent()
	if !ok {
		return Result{Diagnostic: diagExhausted}, nil
	}

	ancestorID := mustAncestor(decl)

	var out []Path

	seen := make(map[string]bool)
	pattern := refs.ScopedIdentifier(refs.MaybeMissing(), declView.Label)

	if err := r.searchPattern(ctx, refs, ancestorPath, ancestorID, pattern, &out, seen); err != nil {
		return Result{}, err
	}

	ancestorView, err := r.store.Resolve(ancestorID)
	if err != nil {
		return Result{}, err
	}

	ancestorKind, _ := ancestorView.Kind.(astmodel.GenericKind)
	if ancestorKind == astmodel.KindFor || ancestorKind == astmodel.KindCatch {
		grandparentPath, ok := ancestorPath.Parent()
		if ok {
			grandparentID := mustAncestor(ancestorPath)

			if err := r.searchPattern(ctx, refs, grandparentPath, grandparentID, pattern, &out, seen); err != nil {
				return Result{}, err
			}
		}
	}

	return Result{Positions: out, Diagnostic: diagExhausted}, nil
}

// searchPattern is spec.md §4.9's matching primitive: it walks subtreeRoot,
// and at each instance-reference-capable node builds its RefsEnum
// expression and tests it against pattern via [Store.Equal]. basePath is
// the Path prefix addressing subtreeRoot itself (nil if subtreeRoot is the
// absolute scope root of the search). ctx is checked once per visited node
// (spec.md §5's iteration-boundary cancellation requirement).
func (r *Resolver) searchPattern(ctx context.Context, refs *Store, basePath Path, subtreeRoot nodestore.ID, pattern ID, out *[]Path, seen map[string]bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v, err := r.store.Resolve(subtreeRoot)
	if err != nil {
		return err
	}

	kind, ok := v.Kind.(astmodel.GenericKind)
	if ok && kind.IsInstanceRef() {
		candidate := r.exprRef(refs, subtreeRoot, v)
		if refs.Equal(candidate, pattern) {
			key := pathKey(basePath)

			if !seen[key] {
				seen[key] = true
				*out = append(*out, append(Path(nil), basePath...))
			}
		}
	}

	for i, c := range v.Children {
		childPath := append(append(Path(nil), basePath...), Step{Ancestor: subtreeRoot, ChildIndex: i})

		if err := r.searchPattern(ctx, refs, childPath, c, pattern, out, seen); err != nil {
			return err
		}
	}

	return nil
}

// exprRef builds the RefsEnum expression denoted by one instance-reference
// node, recursively resolving its qualifying object (the first child, for
// the kinds that have one).
func (r *Resolver) exprRef(refs *Store, id nodestore.ID, v nodestore.View) ID {
	kind, _ := v.Kind.(astmodel.GenericKind)

	object := func() ID {
		if len(v.Children) == 0 {
			return refs.MaybeMissing()
		}

		childID := v.Children[0]

		childView, err := r.store.Resolve(childID)
		if err != nil {
			return refs.MaybeMissing()
		}

		childKind, ok := childView.Kind.(astmodel.GenericKind)
		if !ok || !childKind.IsInstanceRef() {
			return refs.MaybeMissing()
		}

		return r.exprRef(refs, childID, childView)
	}

	switch kind {
	case astmodel.KindIdentifier:
		return refs.ScopedIdentifier(refs.MaybeMissing(), v.Label)
	case astmodel.KindScopedID:
		return refs.ScopedIdentifier(object(), v.Label)
	case astmodel.KindThis:
		return refs.This(object())
	case astmodel.KindSuper:
		return refs.Super(object())
	case astmodel.KindInvocation:
		return refs.Invocation(object(), v.Label, nil)
	case astmodel.KindCtorInvok:
		return refs.ConstructorInvocation(object(), nil)
	default:
		return refs.MaybeMissing()
	}
}

func buildQualified(refs *Store, chain []labelstore.ID) ID {
	ref := refs.MaybeMissing()

	for _, name := range chain {
		ref = refs.TypeIdentifier(ref, name)
	}

	return ref
}

func prepend(name labelstore.ID, chain []labelstore.ID) []labelstore.ID {
	out := make([]labelstore.ID, 0, len(chain)+1)
	out = append(out, name)
	out = append(out, chain...)

	return out
}

func (r *Resolver) findPackageLabel(fileView nodestore.View) (labelstore.ID, bool) {
	for _, c := range fileView.Children {
		v, err := r.store.Resolve(c)
		if err != nil {
			continue
		}

		if k, ok := v.Kind.(astmodel.GenericKind); ok && k == astmodel.KindPackage {
			return v.Label, true
		}
	}

	return labelstore.NoLabel, false
}

// splitPackage interns each dot-separated segment of a package label as its
// own label, producing an outermost-first chain.
func (r *Resolver) splitPackage(pkgLabel labelstore.ID) []labelstore.ID {
	text, ok := r.labels.ResolveString(pkgLabel)
	if !ok || text == "" {
		return nil
	}

	parts := strings.Split(text, ".")
	out := make([]labelstore.ID, 0, len(parts))

	for _, p := range parts {
		out = append(out, r.labels.InternString(p))
	}

	return out
}

func pathKey(p Path) string {
	var sb strings.Builder

	for _, s := range p {
		sb.WriteByte('/')
		sb.WriteString(strconv.FormatUint(uint64(s.Ancestor), 10))
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(s.ChildIndex))
	}

	return sb.String()
}

// mustAncestor returns the ancestor id of the node p addresses (p's own
// last step), for a non-empty p.
func mustAncestor(p Path) nodestore.ID {
	last, _ := p.Last()

	return last.Ancestor
}
