// Package labelstore interns the UTF-8 byte strings used as node labels
// (identifier and terminal text), returning small stable handles (spec.md
// §4.1). A Label, once interned, is never deallocated while the store lives.
package labelstore

import (
	"sync"

	"github.com/hyperast/hyperast-go/pkg/safeconv"
)

// ID is a small stable handle into a [Store]. The zero value, NoLabel,
// denotes "no label" and is never returned by Intern.
type ID uint32

// NoLabel is the ID of a node that carries no label.
const NoLabel ID = 0

// Store interns label byte strings and resolves handles back to bytes.
// Distinct handles correspond to distinct byte sequences (the intern
// invariant of spec.md §4.1). Safe for concurrent Resolve calls; Intern
// calls are serialized by an internal mutex, mirroring the teacher's
// single-writer-or-synchronized convention for shared append-only stores
// (pkg/cache.LRUBlobCache in the teacher repo takes the same stance).
type Store struct {
	mu      sync.RWMutex
	byBytes map[string]ID
	bytes   [][]byte // index 0 is a sentinel for NoLabel.
}

// New creates an empty label store. Index 0 is reserved for [NoLabel].
func New() *Store {
	return &Store{
		byBytes: make(map[string]ID),
		bytes:   [][]byte{nil},
	}
}

// Intern returns the handle for data, allocating a new one on first sight.
// Deterministic and O(1) amortized. The returned handle is stable for the
// lifetime of the store.
func (s *Store) Intern(data []byte) ID {
	if len(data) == 0 {
		return NoLabel
	}

	key := string(data)

	s.mu.RLock()
	if id, ok := s.byBytes[key]; ok {
		s.mu.RUnlock()

		return id
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byBytes[key]; ok {
		return id
	}

	owned := make([]byte, len(data))
	copy(owned, data)

	id := ID(safeconv.MustIntToUint32(len(s.bytes)))
	s.bytes = append(s.bytes, owned)
	s.byBytes[key] = id

	return id
}

// InternString is a convenience wrapper around Intern for string callers.
func (s *Store) InternString(str string) ID {
	return s.Intern([]byte(str))
}

// Resolve returns the bytes for id. The returned slice must not be mutated
// by the caller; it is a borrow valid for the store's lifetime. Returns
// (nil, false) for an unknown id.
func (s *Store) Resolve(id ID) ([]byte, bool) {
	if id == NoLabel {
		return nil, true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := int(id)
	if idx < 0 || idx >= len(s.bytes) {
		return nil, false
	}

	return s.bytes[idx], true
}

// ResolveString is a convenience wrapper around Resolve for string callers.
func (s *Store) ResolveString(id ID) (string, bool) {
	data, ok := s.Resolve(id)
	if !ok {
		return "", false
	}

	return string(data), true
}

// Len returns the number of distinct labels interned, excluding NoLabel.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.bytes) - 1
}
