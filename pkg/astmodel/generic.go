package astmodel

// GenericKind is a minimal, closed kind enum usable by tests, the CLI demo,
// and any front-end that doesn't need a richer language. Real language
// front-ends (tree-sitter grammar bindings) are out of scope per SPEC_FULL.md
// §1/§B; GenericKind exists only so the store and differ have a concrete
// [Kind] to exercise without depending on one.
//
// Naming follows the teacher's UAST type vocabulary (node.UASTFile,
// node.UASTClass, ...) so the ingest JSON wire format (pkg/ingest) reads
// naturally for anyone familiar with that convention.
type GenericKind string

// Closed enum of generic kinds.
const (
	KindFile       GenericKind = "File"
	KindDirectory  GenericKind = "Directory"
	KindPackage    GenericKind = "Package"
	KindImport     GenericKind = "Import"
	KindClass      GenericKind = "Class"
	KindInterface  GenericKind = "Interface"
	KindAnnotation GenericKind = "Annotation"
	KindTypeBody   GenericKind = "TypeBody"
	KindField      GenericKind = "Field"
	KindMethod     GenericKind = "Method"
	KindParamList  GenericKind = "ParameterList"
	KindParameter  GenericKind = "Parameter"
	KindArgList    GenericKind = "ArgumentList"
	KindBlock      GenericKind = "Block"
	KindLocalVar   GenericKind = "LocalVariable"
	KindIf         GenericKind = "If"
	KindFor        GenericKind = "For"
	KindCatch      GenericKind = "Catch"
	KindStatement  GenericKind = "Statement"
	KindExprStmt   GenericKind = "ExpressionStatement"
	KindInvocation GenericKind = "Invocation"
	KindCtorInvok  GenericKind = "ConstructorInvocation"
	KindIdentifier GenericKind = "Identifier"
	KindScopedID   GenericKind = "ScopedIdentifier"
	KindThis       GenericKind = "This"
	KindSuper      GenericKind = "Super"
	KindLiteral    GenericKind = "Literal"
	KindComment    GenericKind = "Comment"
	KindSpaces     GenericKind = "Spaces"
)

const genericLangName = "generic"

// Lang implements [Kind].
func (k GenericKind) Lang() string { return genericLangName }

// String implements [Kind] and fmt.Stringer.
func (k GenericKind) String() string { return string(k) }

// genericCapSet is a bitset of capability flags, one entry per GenericKind.
type genericCapSet uint32

const (
	capFile genericCapSet = 1 << iota
	capDirectory
	capSpaces
	capHidden
	capNamed
	capSupertype
	capTypeBody
	capTypeDeclaration
	capBranch
	capFork
	capLiteral
	capPrimitive
	capIdentifier
	capInstanceRef
	capValueMember
	capExecutableMember
	capStatement
	capDeclarativeStatement
	capStructuralStatement
	capBlockRelated
	capSimpleStatement
	capLocalDeclare
	capParameter
	capParameterList
	capArgumentList
	capExpression
	capComment
	capBlock
)

//nolint:gochecknoglobals // closed, immutable capability table for the demo language.
var genericCaps = map[GenericKind]genericCapSet{
	KindFile:       capFile | capNamed,
	KindDirectory:  capDirectory | capNamed,
	KindPackage:    capNamed | capDeclarativeStatement,
	KindImport:     capNamed | capDeclarativeStatement,
	KindClass:      capNamed | capTypeDeclaration | capDeclarativeStatement,
	KindInterface:  capNamed | capTypeDeclaration | capSupertype | capDeclarativeStatement,
	KindAnnotation: capNamed | capTypeDeclaration | capDeclarativeStatement,
	KindTypeBody:   capTypeBody | capBlockRelated,
	KindField:      capNamed | capValueMember | capLocalDeclare,
	KindMethod:     capNamed | capExecutableMember,
	KindParamList:  capParameterList | capFork,
	KindParameter:  capNamed | capParameter | capLocalDeclare,
	KindArgList:    capArgumentList | capFork,
	KindBlock:      capBlock | capBlockRelated | capFork,
	KindLocalVar:   capNamed | capLocalDeclare | capDeclarativeStatement,
	KindIf:         capBranch | capStructuralStatement | capStatement | capFork,
	KindFor:        capBranch | capStructuralStatement | capStatement | capBlockRelated | capFork,
	KindCatch:      capLocalDeclare | capBlockRelated | capFork,
	KindStatement:  capStatement | capSimpleStatement,
	KindExprStmt:   capStatement | capSimpleStatement | capExpression,
	KindInvocation: capExpression | capInstanceRef,
	KindCtorInvok:  capExpression | capInstanceRef,
	KindIdentifier: capNamed | capIdentifier | capInstanceRef | capExpression,
	KindScopedID:   capNamed | capIdentifier | capInstanceRef | capExpression,
	KindThis:       capInstanceRef | capExpression,
	KindSuper:      capInstanceRef | capExpression,
	KindLiteral:    capLiteral | capPrimitive | capExpression,
	KindComment:    capComment | capHidden,
	KindSpaces:     capSpaces | capHidden,
}

func (k GenericKind) has(flag genericCapSet) bool {
	return genericCaps[k]&flag != 0
}

// IsKnownGenericKind reports whether k is one of the closed enum's declared
// constants, for front-ends (e.g. pkg/ingest) that accept a kind name from
// untrusted wire input and must reject anything outside the enum.
func IsKnownGenericKind(k GenericKind) bool {
	_, ok := genericCaps[k]

	return ok
}

// IsFile implements Capabilities.
func (k GenericKind) IsFile() bool { return k.has(capFile) }

// IsDirectory implements Capabilities.
func (k GenericKind) IsDirectory() bool { return k.has(capDirectory) }

// IsSpaces implements Capabilities.
func (k GenericKind) IsSpaces() bool { return k.has(capSpaces) }

// IsHidden implements Capabilities.
func (k GenericKind) IsHidden() bool { return k.has(capHidden) }

// IsNamed implements Capabilities.
func (k GenericKind) IsNamed() bool { return k.has(capNamed) }

// IsSupertype implements Capabilities.
func (k GenericKind) IsSupertype() bool { return k.has(capSupertype) }

// IsTypeBody implements Capabilities.
func (k GenericKind) IsTypeBody() bool { return k.has(capTypeBody) }

// IsTypeDeclaration implements Capabilities.
func (k GenericKind) IsTypeDeclaration() bool { return k.has(capTypeDeclaration) }

// IsBranch implements Capabilities.
func (k GenericKind) IsBranch() bool { return k.has(capBranch) }

// IsFork implements Capabilities.
func (k GenericKind) IsFork() bool { return k.has(capFork) }

// IsLiteral implements Capabilities.
func (k GenericKind) IsLiteral() bool { return k.has(capLiteral) }

// IsPrimitive implements Capabilities.
func (k GenericKind) IsPrimitive() bool { return k.has(capPrimitive) }

// IsIdentifier implements Capabilities.
func (k GenericKind) IsIdentifier() bool { return k.has(capIdentifier) }

// IsInstanceRef implements Capabilities.
func (k GenericKind) IsInstanceRef() bool { return k.has(capInstanceRef) }

// IsValueMember implements Capabilities.
func (k GenericKind) IsValueMember() bool { return k.has(capValueMember) }

// IsExecutableMember implements Capabilities.
func (k GenericKind) IsExecutableMember() bool { return k.has(capExecutableMember) }

// IsStatement implements Capabilities.
func (k GenericKind) IsStatement() bool { return k.has(capStatement) }

// IsDeclarativeStatement implements Capabilities.
func (k GenericKind) IsDeclarativeStatement() bool { return k.has(capDeclarativeStatement) }

// IsStructuralStatement implements Capabilities.
func (k GenericKind) IsStructuralStatement() bool { return k.has(capStructuralStatement) }

// IsBlockRelated implements Capabilities.
func (k GenericKind) IsBlockRelated() bool { return k.has(capBlockRelated) }

// IsSimpleStatement implements Capabilities.
func (k GenericKind) IsSimpleStatement() bool { return k.has(capSimpleStatement) }

// IsLocalDeclare implements Capabilities.
func (k GenericKind) IsLocalDeclare() bool { return k.has(capLocalDeclare) }

// IsParameter implements Capabilities.
func (k GenericKind) IsParameter() bool { return k.has(capParameter) }

// IsParameterList implements Capabilities.
func (k GenericKind) IsParameterList() bool { return k.has(capParameterList) }

// IsArgumentList implements Capabilities.
func (k GenericKind) IsArgumentList() bool { return k.has(capArgumentList) }

// IsExpression implements Capabilities.
func (k GenericKind) IsExpression() bool { return k.has(capExpression) }

// IsComment implements Capabilities.
func (k GenericKind) IsComment() bool { return k.has(capComment) }

// IsBlock implements Capabilities.
func (k GenericKind) IsBlock() bool { return k.has(capBlock) }

// DeclSearchKind classifies a declaration kind into the dispatch buckets
// of the reference resolver (spec.md §4.9).
type DeclSearchKind int

// Reference-resolver dispatch buckets.
const (
	DeclSearchNone DeclSearchKind = iota
	DeclSearchType
	DeclSearchThis
	DeclSearchField
	DeclSearchLocal
)

// ClassifyForSearch maps a [GenericKind] to the reference-resolver dispatch
// bucket it belongs to, per spec.md §4.9.
func ClassifyForSearch(kind GenericKind) DeclSearchKind {
	switch kind {
	case KindClass, KindInterface, KindAnnotation:
		return DeclSearchType
	case KindTypeBody:
		return DeclSearchThis
	case KindField:
		return DeclSearchField
	case KindLocalVar, KindParameter, KindCatch, KindIdentifier:
		return DeclSearchLocal
	default:
		return DeclSearchNone
	}
}
