// Package astmodel defines the language-agnostic node model: the finite,
// per-language kind enumerations and the capability set every kind must
// implement, plus the Role type assigned to child slots by a grammar.
//
// A supported language registers a closed set of [Kind] values satisfying
// [Capabilities]. The store and differ never switch on a concrete language;
// they only ever call methods on the [Capabilities] interface. Crossing a
// language boundary (comparing or diffing kinds from two languages) is
// rejected by callers with [herrors.ErrUnsupported].
package astmodel

// Kind identifies the grammar category of a node within one language's
// closed enum (e.g. ClassDeclaration, Identifier). Two Kind values are only
// ever compared meaningfully within the same language; see [Lang].
type Kind interface {
	Capabilities

	// Lang returns the name of the language this kind belongs to.
	Lang() string
	// String returns the kind's grammar name, e.g. "ClassDeclaration".
	String() string
}

// Capabilities is the closed set of structural questions the store, the
// differ, and the reference resolver ask about a [Kind]. It mirrors
// hyper_ast::types::HyperType/TypeTrait in the original Rust implementation,
// expanded per SPEC_FULL.md §C.2 beyond the subset spec.md names explicitly.
type Capabilities interface {
	IsFile() bool
	IsDirectory() bool
	IsSpaces() bool
	IsHidden() bool
	IsNamed() bool
	IsSupertype() bool
	IsTypeBody() bool
	IsTypeDeclaration() bool
	IsBranch() bool

	// IsFork reports whether the kind can hold more than one child slot of
	// differing roles (as opposed to a pure sequence).
	IsFork() bool
	IsLiteral() bool
	IsPrimitive() bool
	IsIdentifier() bool
	IsInstanceRef() bool
	IsValueMember() bool
	IsExecutableMember() bool
	IsStatement() bool
	IsDeclarativeStatement() bool
	IsStructuralStatement() bool
	IsBlockRelated() bool
	IsSimpleStatement() bool
	IsLocalDeclare() bool
	IsParameter() bool
	IsParameterList() bool
	IsArgumentList() bool
	IsExpression() bool
	IsComment() bool

	// IsBlock reports whether the kind is a lexical block (used by the
	// bottom-up matcher's container selection, §4.6).
	IsBlock() bool
}

// Role is the grammar field name assigned to a child slot (a tree-sitter
// field name), e.g. "name", "body", "condition". The empty Role means the
// child slot carries no field name.
type Role string

// Common roles referenced by the reference resolver and the bottom-up
// matcher; languages may define additional roles beyond this set.
const (
	RoleName      Role = "name"
	RoleBody      Role = "body"
	RoleCondition Role = "condition"
	RoleValue     Role = "value"
	RoleKey       Role = "key"
	RoleParameter Role = "parameter"
	RoleArgument  Role = "argument"
	RoleScope     Role = "scope"
	RoleOperator  Role = "operator"
	RoleNone      Role = ""
)

// HasCapability reports whether kind satisfies a named predicate, looked up
// by string. It exists so generic code (e.g. the bottom-up matcher's
// container filter, which is configured via a predicate union such as
// "is_type_body | is_type_declaration | is_block") can be driven by a small
// DSL without a language-specific switch. Unknown names return false.
func HasCapability(kind Kind, name string) bool {
	switch name {
	case "is_file":
		return kind.IsFile()
	case "is_directory":
		return kind.IsDirectory()
	case "is_spaces":
		return kind.IsSpaces()
	case "is_hidden":
		return kind.IsHidden()
	case "is_named":
		return kind.IsNamed()
	case "is_supertype":
		return kind.IsSupertype()
	case "is_type_body":
		return kind.IsTypeBody()
	case "is_type_declaration":
		return kind.IsTypeDeclaration()
	case "is_branch":
		return kind.IsBranch()
	case "is_block":
		return kind.IsBlock()
	case "is_executable_member":
		return kind.IsExecutableMember()
	case "is_statement":
		return kind.IsStatement()
	case "is_comment":
		return kind.IsComment()
	default:
		return false
	}
}

// IsContainer reports whether kind is a candidate root for the bottom-up
// matcher of §4.6: a type body, a type declaration, a block, or an
// executable member.
func IsContainer(kind Kind) bool {
	return kind.IsTypeBody() || kind.IsTypeDeclaration() || kind.IsBlock() || kind.IsExecutableMember()
}
