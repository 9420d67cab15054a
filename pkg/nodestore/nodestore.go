// Package nodestore is the shared, content-addressed arena of structural
// AST nodes (spec.md §4.2-§4.3). It deduplicates identical subtrees and
// computes size/height/line/byte metrics and structural/label hashes
// bottom-up at insertion time, exactly once per distinct subtree.
package nodestore

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"sync"

	"github.com/hyperast/hyperast-go/pkg/astmodel"
	"github.com/hyperast/hyperast-go/pkg/hyperast/herrors"
	"github.com/hyperast/hyperast-go/pkg/labelstore"
	"github.com/hyperast/hyperast-go/pkg/mathutil"
	"github.com/hyperast/hyperast-go/pkg/safeconv"
)

// ID is an opaque, stable handle into a [Store]. The zero value is never a
// valid id returned by the store.
type ID uint32

const invalidID ID = 0

// Metrics are the precomputed, purely-functional attributes of a node
// (spec.md §4.3). They never change once a node is inserted.
type Metrics struct {
	Size       uint32
	Height     uint32
	LineCount  uint32
	ByteLength uint32
}

// Hashes are the precomputed structural and label hashes of a node
// (spec.md §4.3). StructuralHash ignores labels; LabelHash folds them in.
type Hashes struct {
	Structural uint64
	Label      uint64
}

// storedNode is the arena-resident representation of a node.
type storedNode struct {
	kind     astmodel.Kind
	label    labelstore.ID
	children []ID
	roles    []astmodel.Role
	metrics  Metrics
	hashes   Hashes
}

// View exposes a read-only projection of a stored node to callers, per the
// resolve() contract of spec.md §4.2/§6.
type View struct {
	Kind     astmodel.Kind
	Label    labelstore.ID
	Children []ID
	Roles    []astmodel.Role
	Metrics  Metrics
	Hashes   Hashes
}

// RoleAt returns the role assigned to child i, or astmodel.RoleNone if i is
// out of range or no role was recorded for that slot.
func (v View) RoleAt(i int) astmodel.Role {
	if i < 0 || i >= len(v.Roles) {
		return astmodel.RoleNone
	}

	return v.Roles[i]
}

// Store is the arena of structural nodes keyed by content hash (spec.md
// §4.2). get_or_insert/resolve are its only two operations; both are O(1)
// amortized beyond the O(k) cost of copying k children.
//
// Thread-safety mirrors [labelstore.Store]: reads take an RLock, writes
// serialize through a single mutex, and resolved views are plain values
// (not live pointers into the arena) so callers may hold them indefinitely.
type Store struct {
	mu      sync.RWMutex
	labels  *labelstore.Store
	nodes   []storedNode   // index 0 unused, real ids start at 1.
	index   map[string]ID  // identity key -> id, for get_or_insert dedup.
	maxSize int            // 0 = unbounded.
}

// Option configures a [Store] at construction.
type Option func(*Store)

// WithCapacity bounds the arena to at most n nodes; insertion beyond that
// returns [herrors.ErrCapacityExceeded]. Zero (the default) means unbounded.
func WithCapacity(n int) Option {
	return func(s *Store) { s.maxSize = n }
}

// New creates an empty node store backed by the given label store.
func New(labels *labelstore.Store, opts ...Option) *Store {
	s := &Store{
		labels: labels,
		nodes:  make([]storedNode, 1), // sentinel at index 0.
		index:  make(map[string]ID),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// GetOrInsert inserts a node with the given identifying fields, returning
// the existing id if an equal node was already stored (spec.md's Identity
// invariant), or allocating a new one otherwise. children must already
// exist in this store (bottom-up insertion, spec.md's Acyclicity
// invariant); roles, if non-nil, must have the same length as children.
func (s *Store) GetOrInsert(kind astmodel.Kind, label labelstore.ID, children []ID, roles []astmodel.Role) (ID, error) {
	if roles != nil && len(roles) != len(children) {
		return invalidID, herrors.ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range children {
		if !s.validLocked(c) {
			return invalidID, herrors.ErrInvalidArgument
		}
	}

	key := identityKey(kind, label, children, roles)
	if id, ok := s.index[key]; ok {
		return id, nil
	}

	if s.maxSize > 0 && len(s.nodes) > s.maxSize {
		return invalidID, herrors.ErrCapacityExceeded
	}

	node := storedNode{
		kind:     kind,
		label:    label,
		children: append([]ID(nil), children...),
		roles:    append([]astmodel.Role(nil), roles...),
	}
	node.metrics = s.computeMetricsLocked(kind, label, children)
	node.hashes = s.computeHashesLocked(kind, label, children)

	id := ID(safeconv.MustIntToUint32(len(s.nodes)))
	s.nodes = append(s.nodes, node)
	s.index[key] = id

	return id, nil
}

// InsertLeaf is a convenience wrapper around GetOrInsert for childless nodes.
func (s *Store) InsertLeaf(kind astmodel.Kind, label labelstore.ID) (ID, error) {
	return s.GetOrInsert(kind, label, nil, nil)
}

// Resolve returns a read-only view of id. Returns an error satisfying
// errors.Is(err, herrors.ErrInvalidArgument) for an unknown id.
func (s *Store) Resolve(id ID) (View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.validLocked(id) {
		return View{}, herrors.ErrInvalidArgument
	}

	n := s.nodes[id]

	return View{
		Kind:     n.kind,
		Label:    n.label,
		Children: append([]ID(nil), n.children...),
		Roles:    append([]astmodel.Role(nil), n.roles...),
		Metrics:  n.metrics,
		Hashes:   n.hashes,
	}, nil
}

// Len returns the number of distinct nodes currently stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.nodes) - 1
}

func (s *Store) validLocked(id ID) bool {
	return id != invalidID && int(id) < len(s.nodes)
}

// computeMetricsLocked implements spec.md §4.3's metric formulas. Callers
// must hold s.mu.
func (s *Store) computeMetricsLocked(_ astmodel.Kind, label labelstore.ID, children []ID) Metrics {
	var m Metrics

	m.Size = 1
	m.Height = 1

	for _, c := range children {
		cm := s.nodes[c].metrics
		m.Size += cm.Size
		m.LineCount += cm.LineCount
		m.ByteLength += cm.ByteLength

		m.Height = uint32(mathutil.Max(int(m.Height), int(cm.Height)+1)) //nolint:gosec // heights bounded by tree depth.
	}

	if data, ok := s.labels.Resolve(label); ok {
		for _, b := range data {
			if b == '\n' {
				m.LineCount++
			}
		}

		m.ByteLength += safeconv.MustIntToUint32(len(data))
	}

	return m
}

// computeHashesLocked implements spec.md §4.3's hash formulas: the
// structural hash folds kind+size+children's structural hashes (never
// labels); the label hash folds label bytes+children's label hashes. Both
// hashers consume data strictly in child order, which alone breaks
// commutativity without any extra mixing step. Callers must hold s.mu.
func (s *Store) computeHashesLocked(kind astmodel.Kind, label labelstore.ID, children []ID) Hashes {
	structHasher := fnv.New64a()
	labelHasher := fnv.New64a()

	writeString(structHasher, kind.Lang())
	writeString(structHasher, kind.String())

	size := uint64(1)
	for _, c := range children {
		size += uint64(s.nodes[c].metrics.Size)
	}

	writeUint64(structHasher, size)

	if data, ok := s.labels.Resolve(label); ok {
		labelHasher.Write(data)
	}

	for _, c := range children {
		ch := s.nodes[c].hashes
		writeUint64(structHasher, ch.Structural)
		writeUint64(labelHasher, ch.Label)
	}

	return Hashes{
		Structural: structHasher.Sum64(),
		Label:      labelHasher.Sum64(),
	}
}

func writeString(h hash.Hash64, s string) {
	_, _ = h.Write([]byte(s))
}

func writeUint64(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

// identityKey builds the deduplication key for GetOrInsert: it must be
// injective over (kind, label, children, roles) so that two calls with
// equal identifying fields always map to the same key, and calls with
// differing fields (almost) never collide. Unlike the structural/label
// hashes, this key is only ever used as a map key, never exposed, so a
// plain byte-exact encoding is preferable to a hash (no false-positive
// dedup risk).
func identityKey(kind astmodel.Kind, label labelstore.ID, children []ID, roles []astmodel.Role) string {
	buf := make([]byte, 0, 16+len(children)*5)

	buf = append(buf, kind.Lang()...)
	buf = append(buf, 0)
	buf = append(buf, kind.String()...)
	buf = append(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(label))

	for i, c := range children {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(c))

		if i < len(roles) {
			buf = append(buf, byte(len(roles[i])))
			buf = append(buf, roles[i]...)
		} else {
			buf = append(buf, 0)
		}
	}

	return string(buf)
}
