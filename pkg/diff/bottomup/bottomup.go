// Package bottomup implements the container/statement matcher (spec.md
// §4.6): from the leaves up, it pairs unmapped containers whose mapped
// descendants overlap enough (a jaccard threshold), then runs an optimal
// leaf matcher on their direct-leaf children using label edit distance,
// and finally recovers unique same-kind siblings of already-mapped parents.
package bottomup

import (
	"context"
	"sort"

	"github.com/hyperast/hyperast-go/pkg/astmodel"
	"github.com/hyperast/hyperast-go/pkg/decomp"
	"github.com/hyperast/hyperast-go/pkg/diff/dmap"
	"github.com/hyperast/hyperast-go/pkg/levenshtein"
)

// DefaultThreshold is the minimum jaccard similarity of mapped descendants
// required to accept a container pairing (spec.md §4.6).
const DefaultThreshold = 0.5

// Options configures the bottom-up matcher.
type Options struct {
	// Threshold is the jaccard acceptance threshold; <= 0 uses [DefaultThreshold].
	Threshold float64
	// EnableRecovery runs the unmatched-unique-sibling recovery pass after
	// the container matching loop.
	EnableRecovery bool
	// LabelOf resolves a decompressed-view index to its label text, used
	// only by the optimal leaf matcher. A nil LabelOf disables label-aware
	// leaf matching (leaf children are then left unmapped by this package).
	LabelOf func(tree *decomp.Tree, idx int) string
}

// Match extends mapping in place with container and recovered leaf
// matches. src and dst must be the same views matching was seeded from.
// ctx is checked once per candidate container and once per recovery
// candidate (spec.md §5's iteration-boundary cancellation requirement); a
// canceled ctx stops early and returns ctx.Err(), leaving mapping extended
// with whatever was linked so far.
func Match(ctx context.Context, mapping *dmap.Mapping, src, dst *decomp.Tree, opts Options) error {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	if err := matchContainers(ctx, mapping, src, dst, threshold, opts.LabelOf); err != nil {
		return err
	}

	if opts.EnableRecovery {
		return recoverUniqueSiblings(ctx, mapping, src, dst)
	}

	return nil
}

type containerCandidate struct {
	srcIdx, dstIdx int
	jaccard        float64
}

// matchContainers implements spec.md §4.6's main loop: for every unmapped
// container with at least one mapped descendant, pick the best same-kind
// unmapped candidate above threshold.
func matchContainers(ctx context.Context, mapping *dmap.Mapping, src, dst *decomp.Tree, threshold float64, labelOf func(*decomp.Tree, int) string) error {
	srcContainers := containerIndices(src)
	dstContainers := containerIndices(dst)

	var dstIndex *dstCandidateIndex

	if len(srcContainers)*len(dstContainers) > lshCandidateThreshold {
		var err error

		dstIndex, err = buildDstCandidateIndex(dst, dstContainers, mapping, func(root int) []int {
			return mappedDescendants(mapping, dst, root, false)
		})
		if err != nil {
			// Fall back to exhaustive pairing; an index failure (e.g. a
			// malformed signature) should never block matching.
			dstIndex = nil
		}
	}

	var candidates []containerCandidate

	for _, si := range srcContainers {
		if mapping.IsSrcMapped(si) {
			continue
		}

		srcMapped := mappedDescendants(mapping, src, si, true)
		if len(srcMapped) == 0 {
			continue
		}

		dstPool := dstContainers

		if dstIndex != nil {
			if narrowed, err := dstIndex.candidates(src.Kind[si].String(), srcMapped); err == nil {
				dstPool = narrowed
			}
		}

		for _, di := range dstPool {
			if mapping.IsDstMapped(di) || src.Kind[si].String() != dst.Kind[di].String() {
				continue
			}

			j := jaccard(mapping, src, dst, si, di, srcMapped)
			if j >= threshold {
				candidates = append(candidates, containerCandidate{si, di, j})
			}
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].jaccard != candidates[b].jaccard {
			return candidates[a].jaccard > candidates[b].jaccard
		}

		if candidates[a].srcIdx != candidates[b].srcIdx {
			return candidates[a].srcIdx < candidates[b].srcIdx
		}

		return candidates[a].dstIdx < candidates[b].dstIdx
	})

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}

		if mapping.IsSrcMapped(c.srcIdx) || mapping.IsDstMapped(c.dstIdx) {
			continue
		}

		mapping.Link(c.srcIdx, c.dstIdx)
		matchLeaves(mapping, src, dst, c.srcIdx, c.dstIdx, labelOf)
	}

	return nil
}

func containerIndices(tree *decomp.Tree) []int {
	var out []int

	for i := 0; i < tree.Len(); i++ {
		if astmodel.IsContainer(tree.Kind[i]) {
			out = append(out, i)
		}
	}

	return out
}

// mappedDescendants returns the post-order indices, among root's strict
// descendants, that are already mapped. fromSrc selects which side of the
// mapping is queried.
func mappedDescendants(mapping *dmap.Mapping, tree *decomp.Tree, root int, fromSrc bool) []int {
	var out []int

	var walk func(int)

	walk = func(i int) {
		mapped := mapping.IsSrcMapped(i)
		if !fromSrc {
			mapped = mapping.IsDstMapped(i)
		}

		if mapped {
			out = append(out, i)
		}

		for _, c := range tree.Children(i) {
			walk(c)
		}
	}

	for _, c := range tree.Children(root) {
		walk(c)
	}

	return out
}

// jaccard computes |common mapped descendants| / |union| between src
// subtree srcRoot and dst subtree dstRoot (spec.md §4.6).
func jaccard(mapping *dmap.Mapping, src, dst *decomp.Tree, srcRoot, dstRoot int, srcMapped []int) float64 {
	dstMapped := mappedDescendants(mapping, dst, dstRoot, false)

	dstSet := make(map[int]bool, len(dstMapped))
	for _, j := range dstMapped {
		dstSet[j] = true
	}

	common := 0

	for _, si := range srcMapped {
		if d, ok := mapping.DstOf(si); ok && dstSet[d] {
			common++
		}
	}

	union := len(srcMapped) + len(dstMapped) - common
	if union == 0 {
		return 0
	}

	_ = src

	return float64(common) / float64(union)
}

// matchLeaves runs the optimal leaf matcher on the direct, unmapped leaf
// children of an accepted container pairing, using bounded-window label
// edit distance (spec.md §4.6).
func matchLeaves(mapping *dmap.Mapping, src, dst *decomp.Tree, srcRoot, dstRoot int, labelOf func(*decomp.Tree, int) string) {
	if labelOf == nil {
		return
	}

	srcLeaves := directLeafChildren(mapping, src, srcRoot, true)
	dstLeaves := directLeafChildren(mapping, dst, dstRoot, false)

	if len(srcLeaves) == 0 || len(dstLeaves) == 0 {
		return
	}

	var ctx levenshtein.Context

	type pair struct {
		si, di int
		dist   int
	}

	pairs := make([]pair, 0, len(srcLeaves)*len(dstLeaves))

	for _, si := range srcLeaves {
		for _, di := range dstLeaves {
			if src.Kind[si].String() != dst.Kind[di].String() {
				continue
			}

			d := ctx.Distance(labelOf(src, si), labelOf(dst, di))
			pairs = append(pairs, pair{si, di, d})
		}
	}

	sort.SliceStable(pairs, func(a, b int) bool {
		if pairs[a].dist != pairs[b].dist {
			return pairs[a].dist < pairs[b].dist
		}

		return pairs[a].si < pairs[b].si
	})

	usedSrc := make(map[int]bool)
	usedDst := make(map[int]bool)

	for _, p := range pairs {
		if usedSrc[p.si] || usedDst[p.di] || mapping.IsSrcMapped(p.si) || mapping.IsDstMapped(p.di) {
			continue
		}

		usedSrc[p.si] = true
		usedDst[p.di] = true

		mapping.Link(p.si, p.di)
	}
}

func directLeafChildren(mapping *dmap.Mapping, tree *decomp.Tree, root int, fromSrc bool) []int {
	var out []int

	for _, c := range tree.Children(root) {
		if len(tree.Children(c)) != 0 {
			continue
		}

		mapped := mapping.IsSrcMapped(c)
		if !fromSrc {
			mapped = mapping.IsDstMapped(c)
		}

		if !mapped {
			out = append(out, c)
		}
	}

	return out
}

// recoverUniqueSiblings walks unmatched nodes whose parent is mapped; if a
// unique same-kind unmapped sibling exists on the other side, it is matched
// (spec.md §4.6's recovery pass).
func recoverUniqueSiblings(ctx context.Context, mapping *dmap.Mapping, src, dst *decomp.Tree) error {
	for i := 0; i < src.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if mapping.IsSrcMapped(i) {
			continue
		}

		parent := src.Parent[i]
		if parent < 0 {
			continue
		}

		dstParent, ok := mapping.DstOf(parent)
		if !ok {
			continue
		}

		candidate := uniqueUnmappedSiblingOfKind(mapping, dst, dstParent, src.Kind[i])
		if candidate >= 0 {
			mapping.Link(i, candidate)
		}
	}

	return nil
}

func uniqueUnmappedSiblingOfKind(mapping *dmap.Mapping, tree *decomp.Tree, parent int, kind interface{ String() string }) int {
	found := -1

	for _, c := range tree.Children(parent) {
		if mapping.IsDstMapped(c) || tree.Kind[c].String() != kind.String() {
			continue
		}

		if found >= 0 {
			return -1 // more than one candidate: not unique.
		}

		found = c
	}

	return found
}
