// Package diff orchestrates the two-phase matcher and edit-script generator
// into the single Diff operation of spec.md §6: top-down greedy subtree
// matching, then bottom-up container/leaf matching, then edit-script
// generation against the node store.
package diff

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hyperast/hyperast-go/pkg/decomp"
	"github.com/hyperast/hyperast-go/pkg/diff/bottomup"
	"github.com/hyperast/hyperast-go/pkg/diff/dmap"
	"github.com/hyperast/hyperast-go/pkg/diff/script"
	"github.com/hyperast/hyperast-go/pkg/diff/topdown"
	"github.com/hyperast/hyperast-go/pkg/hyperast/herrors"
	"github.com/hyperast/hyperast-go/pkg/labelstore"
	"github.com/hyperast/hyperast-go/pkg/nodestore"
)

var tracer = otel.Tracer("github.com/hyperast/hyperast-go/pkg/diff")

// Options configures a Diff run (spec.md §6's diff() options).
type Options struct {
	// MinHeight is the floor below which the top-down matcher stops; <= 0
	// uses [topdown.DefaultMinHeight].
	MinHeight int
	// BottomUpThreshold is the jaccard acceptance threshold for the
	// container matcher; <= 0 uses [bottomup.DefaultThreshold].
	BottomUpThreshold float64
	// EnableRecovery runs the bottom-up matcher's unique-sibling recovery pass.
	EnableRecovery bool
}

// DefaultOptions mirrors spec.md §6's documented defaults.
func DefaultOptions() Options {
	return Options{
		MinHeight:         topdown.DefaultMinHeight,
		BottomUpThreshold: bottomup.DefaultThreshold,
		EnableRecovery:    true,
	}
}

// Timings records the wall-clock cost of each phase, returned alongside the
// result for observability (spec.md §6's diff() return shape).
type Timings struct {
	TopDown  time.Duration
	BottomUp time.Duration
	Script   time.Duration
	Total    time.Duration
}

// Result is the outcome of a Diff call: the final injective mapping and the
// edit script that replays src into dst.
type Result struct {
	Mapping *dmap.Mapping
	Actions []script.Action
	Timings Timings
}

// Diff computes the structural difference between the subtrees rooted at
// src and dst (spec.md §4.5-§4.7). Both ids must resolve to kinds of the
// same language; a cross-language pair is rejected with
// [herrors.ErrUnsupported]. On any error the returned Result is zero-valued
// (spec.md §7's all-or-nothing propagation policy).
func Diff(ctx context.Context, store *nodestore.Store, labels *labelstore.Store, src, dst nodestore.ID, opts Options) (Result, error) {
	ctx, span := tracer.Start(ctx, "diff.Diff", trace.WithAttributes(
		attribute.Int64("src_id", int64(src)),
		attribute.Int64("dst_id", int64(dst)),
	))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	srcView, dstView, err := resolveRoots(store, src, dst)
	if err != nil {
		return Result{}, err
	}

	if srcView.Kind.Lang() != dstView.Kind.Lang() {
		return Result{}, herrors.ErrUnsupported
	}

	srcTree, err := decomp.Build(store, src)
	if err != nil {
		return Result{}, err
	}

	dstTree, err := decomp.Build(store, dst)
	if err != nil {
		return Result{}, err
	}

	labelOf := func(tree *decomp.Tree, idx int) string {
		s, _ := labels.ResolveString(tree.LabelID[idx])

		return s
	}

	topDownStart := time.Now()

	mapping, err := topdown.Match(ctx, srcTree, dstTree, opts.MinHeight)
	if err != nil {
		return Result{}, err
	}

	topDownElapsed := time.Since(topDownStart)

	bottomUpStart := time.Now()

	err = bottomup.Match(ctx, mapping, srcTree, dstTree, bottomup.Options{
		Threshold:      opts.BottomUpThreshold,
		EnableRecovery: opts.EnableRecovery,
		LabelOf:        labelOf,
	})
	if err != nil {
		return Result{}, err
	}

	bottomUpElapsed := time.Since(bottomUpStart)

	// The script generator edits the source root in place, so the two roots
	// are paired even when neither matcher linked them.
	if !mapping.IsSrcMapped(srcTree.RootIndex()) && !mapping.IsDstMapped(dstTree.RootIndex()) {
		mapping.Link(srcTree.RootIndex(), dstTree.RootIndex())
	}

	if !mapping.Validate() {
		return Result{}, herrors.ErrInternal
	}

	scriptStart := time.Now()

	actions, err := script.Generate(ctx, mapping, srcTree, dstTree, store, labels)
	if err != nil {
		return Result{}, err
	}

	scriptElapsed := time.Since(scriptStart)

	return Result{
		Mapping: mapping,
		Actions: actions,
		Timings: Timings{
			TopDown:  topDownElapsed,
			BottomUp: bottomUpElapsed,
			Script:   scriptElapsed,
			Total:    time.Since(start),
		},
	}, nil
}

func resolveRoots(store *nodestore.Store, src, dst nodestore.ID) (nodestore.View, nodestore.View, error) {
	srcView, err := store.Resolve(src)
	if err != nil {
		return nodestore.View{}, nodestore.View{}, err
	}

	dstView, err := store.Resolve(dst)
	if err != nil {
		return nodestore.View{}, nodestore.View{}, err
	}

	return srcView, dstView, nil
}
