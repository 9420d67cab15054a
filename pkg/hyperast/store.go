// Package hyperast is the façade a front-end embeds: it wires the label
// store, node store, decompressed-view cache, differ and reference
// resolver behind the Ingest/Query surface of spec.md §6.
package hyperast

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyperast/hyperast-go/pkg/astmodel"
	"github.com/hyperast/hyperast-go/pkg/decomp"
	"github.com/hyperast/hyperast-go/pkg/diff"
	"github.com/hyperast/hyperast-go/pkg/diff/script"
	"github.com/hyperast/hyperast-go/pkg/hyperast/herrors"
	"github.com/hyperast/hyperast-go/pkg/labelstore"
	"github.com/hyperast/hyperast-go/pkg/nodestore"
	"github.com/hyperast/hyperast-go/pkg/refs"
)

var tracer = otel.Tracer("github.com/hyperast/hyperast-go/pkg/hyperast")

// Options configures a [Store] at construction.
type Options struct {
	// NodeCapacity bounds the node arena; 0 is unbounded.
	NodeCapacity int
	// ViewCacheEntries bounds the decompressed-view LRU cache; <= 0 uses
	// [decomp.DefaultCacheEntries].
	ViewCacheEntries int
}

// Store is the embeddable core: one label store, one node store, one
// decompressed-view cache, shared across every Ingest/Query call (spec.md
// §5's "Label Store and Node Store are shared, appendable structures").
type Store struct {
	labels *labelstore.Store
	nodes  *nodestore.Store
	views  *decomp.Cache
}

// New creates an empty Store.
func New(opts Options) *Store {
	labels := labelstore.New()

	var nodeOpts []nodestore.Option
	if opts.NodeCapacity > 0 {
		nodeOpts = append(nodeOpts, nodestore.WithCapacity(opts.NodeCapacity))
	}

	nodes := nodestore.New(labels, nodeOpts...)

	cacheEntries := opts.ViewCacheEntries
	if cacheEntries <= 0 {
		cacheEntries = decomp.DefaultCacheEntries
	}

	return &Store{
		labels: labels,
		nodes:  nodes,
		views:  decomp.NewCache(nodes, cacheEntries),
	}
}

// InternLabel implements the Ingest API's intern_label (spec.md §6).
func (s *Store) InternLabel(data []byte) labelstore.ID {
	return s.labels.Intern(data)
}

// InsertLeaf implements the Ingest API's insert_leaf (spec.md §6).
func (s *Store) InsertLeaf(kind astmodel.Kind, label labelstore.ID) (nodestore.ID, error) {
	return s.nodes.InsertLeaf(kind, label)
}

// InsertNode implements the Ingest API's insert_node (spec.md §6). roles,
// if supplied, must have one entry per child.
func (s *Store) InsertNode(kind astmodel.Kind, children []nodestore.ID, roles []astmodel.Role) (nodestore.ID, error) {
	return s.nodes.GetOrInsert(kind, labelstore.NoLabel, children, roles)
}

// Resolve implements the Query API's resolve (spec.md §6).
func (s *Store) Resolve(id nodestore.ID) (nodestore.View, error) {
	return s.nodes.Resolve(id)
}

// Diff implements the Query API's diff (spec.md §6).
func (s *Store) Diff(ctx context.Context, src, dst nodestore.ID, opts diff.Options) (diff.Result, error) {
	ctx, span := tracer.Start(ctx, "hyperast.Store.Diff", trace.WithAttributes(
		attribute.Int64("src_id", int64(src)),
		attribute.Int64("dst_id", int64(dst)),
	))
	defer span.End()

	return diff.Diff(ctx, s.nodes, s.labels, src, dst, opts)
}

// Apply replays an edit script produced by Diff against root, returning the
// resulting root id (spec.md §4.8).
func (s *Store) Apply(root nodestore.ID, actions []script.Action) (nodestore.ID, error) {
	return script.Apply(s.nodes, s.labels, root, actions)
}

// References implements the Query API's references (spec.md §6). ctx is
// forwarded to [refs.Resolver.Search], which checks it at every ascent step
// and subtree walk (spec.md §5's cancellation requirement).
func (s *Store) References(ctx context.Context, decl refs.Path, scopeRoot nodestore.ID, peers []refs.Path, limitAncestor nodestore.ID) (refs.Result, error) {
	ctx, span := tracer.Start(ctx, "hyperast.Store.References", trace.WithAttributes(
		attribute.Int64("scope_root", int64(scopeRoot)),
	))
	defer span.End()

	resolver := refs.NewResolver(s.nodes, s.labels)

	return resolver.Search(ctx, decl, scopeRoot, peers, limitAncestor)
}

// PositionOf computes the byte range [start, end) that path addresses,
// relative to scopeRoot (spec.md §6's Position output, {file, byte_range,
// path}). The range is derived purely from the bottom-up [nodestore.Metrics.ByteLength]
// already stored on every node: at each step, the preceding siblings'
// byte lengths accumulate into the start offset, and the addressed node's
// own byte length extends it to the end offset. Byte ranges are therefore
// never stored on a node itself (a node's range is a function of where it
// occurs, not of its content-addressed identity) — they are recomputed
// per path, consistently with the DAG sharing the same subtree at many
// positions.
func (s *Store) PositionOf(scopeRoot nodestore.ID, path refs.Path) ([2]uint32, error) {
	cur := scopeRoot

	var start uint32

	for _, step := range path {
		if step.Ancestor != cur {
			return [2]uint32{}, herrors.ErrInvalidArgument
		}

		v, err := s.nodes.Resolve(cur)
		if err != nil {
			return [2]uint32{}, err
		}

		if step.ChildIndex < 0 || step.ChildIndex >= len(v.Children) {
			return [2]uint32{}, herrors.ErrInvalidArgument
		}

		for _, sibling := range v.Children[:step.ChildIndex] {
			siblingView, err := s.nodes.Resolve(sibling)
			if err != nil {
				return [2]uint32{}, err
			}

			start += siblingView.Metrics.ByteLength
		}

		cur = v.Children[step.ChildIndex]
	}

	target, err := s.nodes.Resolve(cur)
	if err != nil {
		return [2]uint32{}, err
	}

	return [2]uint32{start, start + target.Metrics.ByteLength}, nil
}

// View returns the cached decompressed post-order view of root, building it
// on first access (spec.md §4.4).
func (s *Store) View(root nodestore.ID) (*decomp.Tree, error) {
	return s.views.Get(root)
}

// Labels exposes the underlying label store, e.g. for a front-end that
// needs to resolve a label's text outside of a Diff/References call.
func (s *Store) Labels() *labelstore.Store { return s.labels }

// Nodes exposes the underlying node store.
func (s *Store) Nodes() *nodestore.Store { return s.nodes }
