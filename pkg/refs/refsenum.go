// Package refs implements the reference resolver (spec.md §4.9): given a
// declaration's stored position, it finds every reference to it reachable
// from a scope root. The qualified-name algebra it reasons over (RefsEnum)
// is grounded on the original implementation's RefsEnum enum
// (gen/tree-sitter/java/src/impact/element.rs).
package refs

import (
	"encoding/binary"
	"sync"

	"github.com/hyperast/hyperast-go/pkg/labelstore"
	"github.com/hyperast/hyperast-go/pkg/safeconv"
)

// Kind tags a RefsEnum DAG node.
type Kind int

// RefsEnum variants (spec.md §4.9's "RefsEnum-DAG solver").
const (
	KindRoot Kind = iota
	KindMaybeMissing
	KindScopedIdentifier
	KindTypeIdentifier
	KindThis
	KindSuper
	KindArray
	KindArrayAccess
	KindInvocation
	KindConstructorInvocation
	KindMethodReference
	KindConstructorReference
	KindPrimitive
	KindMask
	KindOr
)

// ID is a handle into a [Store]. The zero value is never a valid id.
type ID uint32

const invalidID ID = 0

// node is the arena-resident representation of one RefsEnum value.
type node struct {
	kind   Kind
	object ID            // the qualifying scope ("Node" parameter); 0 = none.
	leaf   labelstore.ID // the simple name ("Leaf" parameter); 0 = none.
	args   []ID          // Invocation/ConstructorInvocation arguments.
	masked []ID          // Mask's "rest of refs masking it".
	alts   []ID          // Or's alternatives.
}

// Store interns RefsEnum values, giving structurally equal qualified-name
// expressions the same id (mirroring [nodestore.Store]'s content-addressing,
// scoped to one reference search's scratch DAG per spec.md §5's "owned by
// the partial-analysis scratchpad and discarded per reference search").
type Store struct {
	mu    sync.Mutex
	nodes []node
	index map[string]ID
	root  ID
	mm    ID
}

// NewStore creates an empty RefsEnum DAG, pre-seeding Root and MaybeMissing
// (both are singletons: the original enum carries no payload for either).
func NewStore() *Store {
	s := &Store{
		nodes: make([]node, 1), // sentinel at index 0.
		index: make(map[string]ID),
	}

	s.root = s.intern(node{kind: KindRoot})
	s.mm = s.intern(node{kind: KindMaybeMissing})

	return s
}

// Root returns the singleton Root reference.
func (s *Store) Root() ID { return s.root }

// MaybeMissing returns the singleton MaybeMissing reference, used as the
// qualifying object of an unqualified name (spec.md §4.9 step 1's `?`).
func (s *Store) MaybeMissing() ID { return s.mm }

// ScopedIdentifier interns `object.leaf` as a value reference.
func (s *Store) ScopedIdentifier(object ID, leaf labelstore.ID) ID {
	return s.intern(node{kind: KindScopedIdentifier, object: object, leaf: leaf})
}

// TypeIdentifier interns `object.leaf` as a type reference. Per the
// original's PartialEq impl, a TypeIdentifier and a ScopedIdentifier with
// the same object/leaf are considered equal by [Store.Equal] (a bare name
// can denote either a value or a type until resolved).
func (s *Store) TypeIdentifier(object ID, leaf labelstore.ID) ID {
	return s.intern(node{kind: KindTypeIdentifier, object: object, leaf: leaf})
}

// This interns `object.this`.
func (s *Store) This(object ID) ID {
	return s.intern(node{kind: KindThis, object: object})
}

// Super interns `object.super`.
func (s *Store) Super(object ID) ID {
	return s.intern(node{kind: KindSuper, object: object})
}

// Array interns an array type built on object.
func (s *Store) Array(object ID) ID {
	return s.intern(node{kind: KindArray, object: object})
}

// ArrayAccess interns an indexing expression on object.
func (s *Store) ArrayAccess(object ID) ID {
	return s.intern(node{kind: KindArrayAccess, object: object})
}

// Invocation interns a method call `object.leaf(args...)`.
func (s *Store) Invocation(object ID, leaf labelstore.ID, args []ID) ID {
	return s.intern(node{kind: KindInvocation, object: object, leaf: leaf, args: append([]ID(nil), args...)})
}

// ConstructorInvocation interns `new object(args...)`.
func (s *Store) ConstructorInvocation(object ID, args []ID) ID {
	return s.intern(node{kind: KindConstructorInvocation, object: object, args: append([]ID(nil), args...)})
}

// MethodReference interns `object::leaf` (a reference, not a call).
func (s *Store) MethodReference(object ID, leaf labelstore.ID) ID {
	return s.intern(node{kind: KindMethodReference, object: object, leaf: leaf})
}

// ConstructorReference interns `object::new`.
func (s *Store) ConstructorReference(object ID) ID {
	return s.intern(node{kind: KindConstructorReference, object: object})
}

// Primitive interns a Java-like primitive type name (int, boolean, ...).
func (s *Store) Primitive(name labelstore.ID) ID {
	return s.intern(node{kind: KindPrimitive, leaf: name})
}

// Mask interns "object, masked by every ref in masked" (spec.md §4.9's
// import/local/package-default masking rule for the matching primitive).
func (s *Store) Mask(object ID, masked []ID) ID {
	return s.intern(node{kind: KindMask, object: object, masked: append([]ID(nil), masked...)})
}

// Or interns a disjunction of candidate references (used when a name could
// resolve more than one way until further context narrows it).
func (s *Store) Or(alts []ID) ID {
	return s.intern(node{kind: KindOr, alts: append([]ID(nil), alts...)})
}

// Object returns the qualifying-scope id of ref, mirroring the original's
// `.object()` helper. Root, MaybeMissing, Primitive and Or carry none.
func (s *Store) Object(ref ID) (ID, bool) {
	n := s.nodes[ref]

	switch n.kind {
	case KindRoot, KindMaybeMissing, KindPrimitive, KindOr:
		return invalidID, false
	default:
		return n.object, true
	}
}

// Leaf returns the simple-name id of ref, if it carries one.
func (s *Store) Leaf(ref ID) (labelstore.ID, bool) {
	n := s.nodes[ref]

	switch n.kind {
	case KindScopedIdentifier, KindTypeIdentifier, KindInvocation, KindMethodReference, KindPrimitive:
		return n.leaf, true
	default:
		return labelstore.NoLabel, false
	}
}

// Kind returns ref's tag.
func (s *Store) Kind(ref ID) Kind { return s.nodes[ref].kind }

// Equal reports whether a and b denote the same reference, modulo the
// ScopedIdentifier/TypeIdentifier cross-equivalence of the original's
// PartialEq impl (ambiguous-until-resolved bare names). Mask/Or are
// transparent: a Mask equals its object with a lower priority tiebreak left
// to the caller, and an Or equals any of its alternatives.
func (s *Store) Equal(a, b ID) bool {
	if a == b {
		return true
	}

	na, nb := s.nodes[a], s.nodes[b]

	if na.kind == KindMask {
		return s.Equal(na.object, b)
	}

	if nb.kind == KindMask {
		return s.Equal(a, nb.object)
	}

	if na.kind == KindOr {
		for _, alt := range na.alts {
			if s.Equal(alt, b) {
				return true
			}
		}

		return false
	}

	if nb.kind == KindOr {
		for _, alt := range nb.alts {
			if s.Equal(a, alt) {
				return true
			}
		}

		return false
	}

	if !sameFamily(na.kind, nb.kind) {
		return false
	}

	if na.leaf != nb.leaf {
		return false
	}

	switch na.kind {
	case KindRoot, KindMaybeMissing:
		return true
	case KindPrimitive:
		return na.leaf == nb.leaf
	default:
		return s.Equal(na.object, nb.object)
	}
}

// sameFamily groups ScopedIdentifier and TypeIdentifier as equivalent
// (spec.md §4.9, grounded on the original enum's PartialEq impl); every
// other kind must match exactly.
func sameFamily(a, b Kind) bool {
	if a == b {
		return true
	}

	isIdentLike := func(k Kind) bool { return k == KindScopedIdentifier || k == KindTypeIdentifier }

	return isIdentLike(a) && isIdentLike(b)
}

func (s *Store) intern(n node) ID {
	key := identityKey(n)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.index[key]; ok {
		return id
	}

	id := ID(safeconv.MustIntToUint32(len(s.nodes)))
	s.nodes = append(s.nodes, n)
	s.index[key] = id

	return id
}

func identityKey(n node) string {
	buf := make([]byte, 0, 8+len(n.args)*4+len(n.masked)*4+len(n.alts)*4)

	buf = append(buf, byte(n.kind))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(n.object))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(n.leaf))

	for _, a := range n.args {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(a))
	}

	buf = append(buf, 0xff)

	for _, m := range n.masked {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(m))
	}

	buf = append(buf, 0xff)

	for _, a := range n.alts {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(a))
	}

	return string(buf)
}
