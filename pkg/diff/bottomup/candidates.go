package bottomup

import (
	"strconv"

	"github.com/hyperast/hyperast-go/pkg/alg/lsh"
	"github.com/hyperast/hyperast-go/pkg/alg/minhash"
	"github.com/hyperast/hyperast-go/pkg/decomp"
)

// lshCandidateThreshold is the container-pair count above which
// matchContainers narrows dst candidates through an LSH index instead of
// scoring every same-kind pair exhaustively. Below it, exact pairwise
// jaccard scoring is cheap enough and exact.
const lshCandidateThreshold = 2000

// lshNumBands and lshNumRows parameterize the MinHash signatures built over
// each container's mapped-descendant set; their product is the number of
// hash functions per signature.
const (
	lshNumBands = 16
	lshNumRows  = 4
	lshNumHash  = lshNumBands * lshNumRows
)

// dstCandidateIndex narrows the dst containers a src container is compared
// against, for trees large enough that exhaustive same-kind pairing would
// be quadratic. It buckets dst containers by a MinHash signature of their
// mapped-descendant set and kind, so a query returns only containers
// sharing both kind and a similar descendant set.
type dstCandidateIndex struct {
	byKind map[string]*lsh.Index
}

func buildDstCandidateIndex(dst *decomp.Tree, dstContainers []int, mapping interface {
	IsDstMapped(int) bool
}, mappedOf func(root int) []int) (*dstCandidateIndex, error) {
	idx := &dstCandidateIndex{
		byKind: make(map[string]*lsh.Index),
	}

	for _, di := range dstContainers {
		if mapping.IsDstMapped(di) {
			continue
		}

		sig, err := signatureOf(mappedOf(di))
		if err != nil {
			return nil, err
		}

		kind := dst.Kind[di].String()

		bucket, ok := idx.byKind[kind]
		if !ok {
			bucket, err = lsh.New(lshNumBands, lshNumRows)
			if err != nil {
				return nil, err
			}

			idx.byKind[kind] = bucket
		}

		if err := bucket.Insert(strconv.Itoa(di), sig); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

// candidates returns the dst container indices worth jaccard-scoring
// against a src container with the given kind and mapped-descendant set.
func (idx *dstCandidateIndex) candidates(kind string, srcMapped []int) ([]int, error) {
	bucket, ok := idx.byKind[kind]
	if !ok {
		return nil, nil
	}

	sig, err := signatureOf(srcMapped)
	if err != nil {
		return nil, err
	}

	ids, err := bucket.Query(sig)
	if err != nil {
		return nil, err
	}

	out := make([]int, 0, len(ids))

	for _, id := range ids {
		di, convErr := strconv.Atoi(id)
		if convErr != nil {
			continue
		}

		out = append(out, di)
	}

	return out, nil
}

func signatureOf(indices []int) (*minhash.Signature, error) {
	sig, err := minhash.New(lshNumHash)
	if err != nil {
		return nil, err
	}

	for _, i := range indices {
		sig.Add(strconv.AppendInt(nil, int64(i), 10))
	}

	return sig, nil
}
