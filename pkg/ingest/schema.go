// Package ingest decodes the wire-format JSON document a front-end submits
// (SPEC_FULL.md §B's parsed-CST ingest surface) into calls against a
// [github.com/hyperast/hyperast-go/pkg/hyperast.Store], validating the
// document against a JSON Schema before touching the store at all.
package ingest

// documentSchema is the JSON Schema (draft-07) a wire document must satisfy.
// A node is either a leaf (no "children", optional "label") or an internal
// node (a non-empty "children" array); "role" names the field the node
// occupies in its parent, mirroring [astmodel.Role].
const documentSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"$id": "https://hyperast.dev/schema/ingest-document.json",
	"title": "hyperast ingest document",
	"type": "object",
	"required": ["root"],
	"additionalProperties": false,
	"properties": {
		"root": { "$ref": "#/definitions/node" }
	},
	"definitions": {
		"node": {
			"type": "object",
			"required": ["kind"],
			"additionalProperties": false,
			"properties": {
				"kind": { "type": "string", "minLength": 1 },
				"label": { "type": "string" },
				"role": { "type": "string" },
				"children": {
					"type": "array",
					"items": { "$ref": "#/definitions/node" }
				}
			}
		}
	}
}`
