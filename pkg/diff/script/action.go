// Package script converts a completed mapping into an ordered edit script
// (spec.md §4.7) and applies such a script back against the node store,
// preserving dedup (spec.md §4.8).
package script

import (
	"fmt"
	"strings"

	"github.com/hyperast/hyperast-go/pkg/nodestore"
)

// Op is the kind of an [Action].
type Op int

// Edit-script action kinds (spec.md §3).
const (
	OpInsert Op = iota
	OpDelete
	OpUpdate
	OpMove
	OpMovUpd
)

// String renders the op as the short mnemonic used by [Action.String] and
// the CLI (grounded on the original implementation's print_action).
func (op Op) String() string {
	switch op {
	case OpInsert:
		return "Ins"
	case OpDelete:
		return "Del"
	case OpUpdate:
		return "Upd"
	case OpMove:
		return "Mov"
	case OpMovUpd:
		return "MovUpd"
	default:
		return "?"
	}
}

// Action is one element of an edit script (spec.md §3). Not every field is
// meaningful for every Op: see the Op-specific constructors.
type Action struct {
	Op Op

	// Path addresses the acted-on node (Delete, Update) or, for Insert, the
	// parent the new node is spliced into. Expressed against the tree state
	// after all earlier actions in the script have been applied (spec.md
	// §4.7's path stability rule).
	Path []int

	// Position is the child index at which Insert splices, or the
	// destination index for Move/MovUpd.
	Position int

	// NewLabel carries the replacement label text for Update/MovUpd.
	NewLabel string

	// FromPath addresses the node being relocated, for Move/MovUpd.
	FromPath []int

	// ToParentPath addresses the new parent, for Move/MovUpd.
	ToParentPath []int

	// NewSubtreeID is the store id spliced in by Insert. It is already
	// present in the node store (spec.md §4.8); it is not re-inserted.
	NewSubtreeID nodestore.ID

	// Kind is a display-only hint (the acted-on node's grammar kind),
	// included for the String() rendering and for JSON consumers that want
	// a human label without a store round-trip.
	Kind string
}

// String renders a one-line, human-readable description of the action,
// grounded on the original implementation's print_action (action_vec.rs):
// "Upd <path> -> <label>", "Mov <from> -> <to>[<pos>]", etc.
func (a Action) String() string {
	switch a.Op {
	case OpDelete:
		return fmt.Sprintf("Del %s", formatPath(a.Path))
	case OpUpdate:
		return fmt.Sprintf("Upd %s -> %q", formatPath(a.Path), a.NewLabel)
	case OpInsert:
		return fmt.Sprintf("Ins %s at %s[%d]", a.Kind, formatPath(a.Path), a.Position)
	case OpMove:
		return fmt.Sprintf("Mov %s -> %s[%d]", formatPath(a.FromPath), formatPath(a.ToParentPath), a.Position)
	case OpMovUpd:
		return fmt.Sprintf("MovUpd %s -> %s[%d] (%q)", formatPath(a.FromPath), formatPath(a.ToParentPath), a.Position, a.NewLabel)
	default:
		return "?"
	}
}

func formatPath(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = fmt.Sprintf("%d", p)
	}

	return "[" + strings.Join(parts, ",") + "]"
}
