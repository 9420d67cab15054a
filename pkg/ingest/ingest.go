package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/hyperast/hyperast-go/pkg/astmodel"
	"github.com/hyperast/hyperast-go/pkg/hyperast"
	"github.com/hyperast/hyperast-go/pkg/hyperast/herrors"
	"github.com/hyperast/hyperast-go/pkg/labelstore"
	"github.com/hyperast/hyperast-go/pkg/nodestore"
	"github.com/hyperast/hyperast-go/pkg/textutil"
)

// schemaLoaderOnce compiles documentSchema exactly once; gojsonschema loaders
// are safe for concurrent Validate calls once built.
var (
	schemaLoaderOnce sync.Once
	schemaLoader     gojsonschema.JSONLoader
)

func compiledSchema() gojsonschema.JSONLoader {
	schemaLoaderOnce.Do(func() {
		schemaLoader = gojsonschema.NewStringLoader(documentSchema)
	})

	return schemaLoader
}

// wireNode is the JSON shape of one node in an ingest document.
type wireNode struct {
	Kind     string     `json:"kind"`
	Label    *string    `json:"label,omitempty"`
	Role     string     `json:"role,omitempty"`
	Children []wireNode `json:"children,omitempty"`
}

// wireDocument is the top-level ingest document: a single rooted tree.
type wireDocument struct {
	Root wireNode `json:"root"`
}

// Validate reports whether data satisfies the ingest document schema,
// without building anything in store. Errors are joined into one message,
// grounded on the teacher's cmd/uast validate command (compliance-report
// style output lives in cmd/hyperast, not here).
func Validate(data []byte) error {
	if textutil.IsBinary(data) {
		return fmt.Errorf("%w: document appears to be binary", herrors.ErrInvalidArgument)
	}

	var decoded any

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := dec.Decode(&decoded); err != nil {
		return fmt.Errorf("%w: invalid JSON: %w", herrors.ErrInvalidArgument, err)
	}

	result, err := gojsonschema.Validate(compiledSchema(), gojsonschema.NewGoLoader(decoded))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if !result.Valid() {
		return fmt.Errorf("%w: %s", herrors.ErrInvalidArgument, describeErrors(result.Errors()))
	}

	return nil
}

func describeErrors(errs []gojsonschema.ResultError) string {
	var buf bytes.Buffer

	for i, verr := range errs {
		if i > 0 {
			buf.WriteString("; ")
		}

		fmt.Fprintf(&buf, "%s: %s", verr.Field(), verr.Description())
	}

	return buf.String()
}

// Build validates data against the ingest schema, then inserts the tree it
// describes into store bottom-up (post-order: every child id exists in the
// node store before its parent is inserted, per spec.md §4.2's insertion
// order). It returns the id of the inserted root.
//
// Every "kind" string must name one of [astmodel.GenericKind]'s closed
// enum values; an unrecognized kind is rejected rather than silently
// admitted, since the store has no notion of an "unknown" node kind.
func Build(ctx context.Context, store *hyperast.Store, data []byte) (nodestore.ID, error) {
	if err := Validate(data); err != nil {
		return 0, err
	}

	var doc wireDocument

	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("%w: %w", herrors.ErrInvalidArgument, err)
	}

	return insertNode(ctx, store, doc.Root)
}

func insertNode(ctx context.Context, store *hyperast.Store, n wireNode) (nodestore.ID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	kind := astmodel.GenericKind(n.Kind)
	if !astmodel.IsKnownGenericKind(kind) {
		return 0, fmt.Errorf("%w: unknown kind %q", herrors.ErrInvalidArgument, n.Kind)
	}

	if len(n.Children) == 0 {
		label := labelOf(store, n.Label)

		return store.InsertLeaf(kind, label)
	}

	children := make([]nodestore.ID, 0, len(n.Children))
	roles := make([]astmodel.Role, 0, len(n.Children))

	for _, child := range n.Children {
		childID, err := insertNode(ctx, store, child)
		if err != nil {
			return 0, err
		}

		children = append(children, childID)
		roles = append(roles, astmodel.Role(child.Role))
	}

	return store.InsertNode(kind, children, roles)
}

func labelOf(store *hyperast.Store, label *string) labelstore.ID {
	if label == nil {
		return labelstore.NoLabel
	}

	return store.InternLabel([]byte(*label))
}
