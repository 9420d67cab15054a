// Package topdown implements the GumTree "greedy subtree matcher"
// (spec.md §4.5): it hashes identical subtrees and maps the maximal ones,
// breaking ties by ancestor similarity and finally by structural position.
// It never compares labels; unmapped leftovers are handed to the bottom-up
// matcher (pkg/diff/bottomup).
package topdown

import (
	"context"
	"sort"

	"github.com/hyperast/hyperast-go/pkg/decomp"
	"github.com/hyperast/hyperast-go/pkg/diff/dmap"
)

// DefaultMinHeight is the height below which the top-down matcher stops
// (spec.md §4.5), leaving shallow subtrees to the bottom-up matcher.
const DefaultMinHeight = 2

// candidatePair is an (src, dst) pairing awaiting a tie-break decision.
type candidatePair struct {
	src, dst int
	score    float64
}

// Match runs the greedy subtree matcher over src and dst, returning a
// partial injective mapping. minHeight <= 0 uses [DefaultMinHeight]. ctx is
// checked once per height level (spec.md §5's iteration-boundary
// cancellation requirement); a canceled ctx returns the mapping built so
// far alongside ctx.Err().
func Match(ctx context.Context, src, dst *decomp.Tree, minHeight int) (*dmap.Mapping, error) {
	if minHeight <= 0 {
		minHeight = DefaultMinHeight
	}

	mapping := dmap.New(src.Len(), dst.Len())

	srcHeights := src.Heights()
	dstHeights := dst.Heights()

	maxHeight := 0
	for _, h := range srcHeights {
		if h > maxHeight {
			maxHeight = h
		}
	}

	for h := maxHeight; h >= minHeight; h-- {
		if err := ctx.Err(); err != nil {
			return mapping, err
		}

		matchAtHeight(mapping, src, dst, srcHeights, dstHeights, h)
	}

	return mapping, nil
}

// matchAtHeight processes every hash bucket whose unmapped members have
// exactly the given height on both sides (spec.md §4.5 step 2).
func matchAtHeight(mapping *dmap.Mapping, src, dst *decomp.Tree, srcHeights, dstHeights []int, height int) {
	srcBuckets := bucketByHash(src, mapping.IsSrcMapped, srcHeights, height)
	dstBuckets := bucketByHash(dst, mapping.IsDstMapped, dstHeights, height)

	for hash, srcIdxs := range srcBuckets {
		dstIdxs, ok := dstBuckets[hash]
		if !ok {
			continue
		}

		resolveBucket(mapping, src, dst, srcIdxs, dstIdxs)
	}
}

func bucketByHash(tree *decomp.Tree, isMapped func(int) bool, heights []int, height int) map[uint64][]int {
	buckets := make(map[uint64][]int)

	for i := 0; i < tree.Len(); i++ {
		if heights[i] != height || isMapped(i) {
			continue
		}

		h := tree.StructuralHash[i]
		buckets[h] = append(buckets[h], i)
	}

	return buckets
}

// resolveBucket matches the candidates of one hash bucket. A unique
// candidate on both sides is an unambiguous match; otherwise pairs are
// ranked by ancestor similarity and assigned greedily, ties broken by
// structural position (spec.md §4.5 step 2's fallback).
func resolveBucket(mapping *dmap.Mapping, src, dst *decomp.Tree, srcIdxs, dstIdxs []int) {
	if len(srcIdxs) == 1 && len(dstIdxs) == 1 {
		linkSubtree(mapping, src, dst, srcIdxs[0], dstIdxs[0])

		return
	}

	pairs := make([]candidatePair, 0, len(srcIdxs)*len(dstIdxs))

	for _, si := range srcIdxs {
		for _, di := range dstIdxs {
			pairs = append(pairs, candidatePair{
				src:   si,
				dst:   di,
				score: ancestorSimilarity(mapping, src, dst, si, di),
			})
		}
	}

	sort.SliceStable(pairs, func(a, b int) bool {
		if pairs[a].score != pairs[b].score {
			return pairs[a].score > pairs[b].score
		}

		if pairs[a].src != pairs[b].src {
			return pairs[a].src < pairs[b].src
		}

		return pairs[a].dst < pairs[b].dst
	})

	usedSrc := make(map[int]bool, len(srcIdxs))
	usedDst := make(map[int]bool, len(dstIdxs))

	for _, p := range pairs {
		if usedSrc[p.src] || usedDst[p.dst] {
			continue
		}

		usedSrc[p.src] = true
		usedDst[p.dst] = true

		linkSubtree(mapping, src, dst, p.src, p.dst)
	}
}

// ancestorSimilarity scores a candidate pair by the dice coefficient of
// already-mapped descendants between their immediate parents (spec.md
// §4.5 step 2's ambiguity resolution).
func ancestorSimilarity(mapping *dmap.Mapping, src, dst *decomp.Tree, srcIdx, dstIdx int) float64 {
	srcParent := src.Parent[srcIdx]
	dstParent := dst.Parent[dstIdx]

	if srcParent < 0 || dstParent < 0 {
		return 0
	}

	common, total := 0, 0

	for _, sc := range descendantsOf(src, srcParent) {
		if d, ok := mapping.DstOf(sc); ok {
			total++

			for _, dc := range descendantsOf(dst, dstParent) {
				if d == dc {
					common++

					break
				}
			}
		}
	}

	total += len(descendantsOf(dst, dstParent))
	if total == 0 {
		return 0
	}

	return 2 * float64(common) / float64(total)
}

func descendantsOf(tree *decomp.Tree, idx int) []int {
	var out []int

	var walk func(int)

	walk = func(i int) {
		out = append(out, i)
		for _, c := range tree.Children(i) {
			walk(c)
		}
	}

	for _, c := range tree.Children(idx) {
		walk(c)
	}

	return out
}

// linkSubtree maps src to dst, then propagates the mapping to every
// descendant pair in parallel child order: two subtrees sharing a
// structural hash are isomorphic ignoring labels, so descendants line up
// positionally (spec.md §4.5's "propagate to all descendants").
func linkSubtree(mapping *dmap.Mapping, src, dst *decomp.Tree, srcIdx, dstIdx int) {
	if mapping.IsSrcMapped(srcIdx) || mapping.IsDstMapped(dstIdx) {
		return
	}

	mapping.Link(srcIdx, dstIdx)

	srcChildren := src.Children(srcIdx)
	dstChildren := dst.Children(dstIdx)

	for i := 0; i < len(srcChildren) && i < len(dstChildren); i++ {
		linkSubtree(mapping, src, dst, srcChildren[i], dstChildren[i])
	}
}
