// Package dmap defines the Mapping type shared by the two matcher phases
// (topdown, bottomup) and the edit-script generator (spec.md §3, §4.5-§4.7).
// It is kept separate from the orchestrating pkg/diff package so that all
// three phase packages can depend on it without an import cycle.
package dmap

// Mapping is an injective partial correspondence between source and
// destination decompressed-view indices (spec.md §3). An index is mapped
// at most once on each side.
type Mapping struct {
	// SrcToDst[i] is the matched destination index for source index i, or -1.
	SrcToDst []int
	// DstToSrc[j] is the matched source index for destination index j, or -1.
	DstToSrc []int
}

const unmapped = -1

// New creates an empty mapping sized for a source view of srcLen nodes and
// a destination view of dstLen nodes, with every index initially unmapped.
func New(srcLen, dstLen int) *Mapping {
	m := &Mapping{
		SrcToDst: make([]int, srcLen),
		DstToSrc: make([]int, dstLen),
	}

	for i := range m.SrcToDst {
		m.SrcToDst[i] = unmapped
	}

	for j := range m.DstToSrc {
		m.DstToSrc[j] = unmapped
	}

	return m
}

// Link maps src to dst. Callers must ensure neither side is already mapped;
// Link does not check this itself (hot path in the matchers), but
// [Mapping.Validate] can assert injectivity after the fact.
func (m *Mapping) Link(src, dst int) {
	m.SrcToDst[src] = dst
	m.DstToSrc[dst] = src
}

// IsSrcMapped reports whether source index i is already mapped.
func (m *Mapping) IsSrcMapped(i int) bool {
	return i >= 0 && i < len(m.SrcToDst) && m.SrcToDst[i] != unmapped
}

// IsDstMapped reports whether destination index j is already mapped.
func (m *Mapping) IsDstMapped(j int) bool {
	return j >= 0 && j < len(m.DstToSrc) && m.DstToSrc[j] != unmapped
}

// DstOf returns the destination index mapped to source index i, or (-1, false).
func (m *Mapping) DstOf(i int) (int, bool) {
	if !m.IsSrcMapped(i) {
		return unmapped, false
	}

	return m.SrcToDst[i], true
}

// SrcOf returns the source index mapped to destination index j, or (-1, false).
func (m *Mapping) SrcOf(j int) (int, bool) {
	if !m.IsDstMapped(j) {
		return unmapped, false
	}

	return m.DstToSrc[j], true
}

// Validate reports whether the mapping is injective on both sides: every
// non-unmapped SrcToDst[i] points back via DstToSrc, and vice versa
// (spec.md §8 "Mapping injectivity").
func (m *Mapping) Validate() bool {
	for i, j := range m.SrcToDst {
		if j == unmapped {
			continue
		}

		if j < 0 || j >= len(m.DstToSrc) || m.DstToSrc[j] != i {
			return false
		}
	}

	for j, i := range m.DstToSrc {
		if i == unmapped {
			continue
		}

		if i < 0 || i >= len(m.SrcToDst) || m.SrcToDst[i] != j {
			return false
		}
	}

	return true
}

// Size returns the number of mapped pairs.
func (m *Mapping) Size() int {
	n := 0

	for _, j := range m.SrcToDst {
		if j != unmapped {
			n++
		}
	}

	return n
}
