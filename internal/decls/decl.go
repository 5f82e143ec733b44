package decls

import (
	"expose/internal/foreign"
	"expose/internal/source"
	"expose/internal/types"
)

// DeclKind classifies a declaration node.
type DeclKind uint8

const (
	DeclInvalid DeclKind = iota
	DeclClass
	DeclProtocol
	DeclExtension
	DeclFunc
	DeclInit
	DeclDestructor
	DeclAccessor
	DeclVar
	DeclSubscript
)

func (k DeclKind) String() string {
	switch k {
	case DeclClass:
		return "class"
	case DeclProtocol:
		return "protocol"
	case DeclExtension:
		return "extension"
	case DeclFunc:
		return "function"
	case DeclInit:
		return "initializer"
	case DeclDestructor:
		return "destructor"
	case DeclAccessor:
		return "accessor"
	case DeclVar:
		return "property"
	case DeclSubscript:
		return "subscript"
	default:
		return "invalid"
	}
}

// IsFuncLike reports whether the declaration has a parameter list and can
// carry an error convention.
func (k DeclKind) IsFuncLike() bool {
	switch k {
	case DeclFunc, DeclInit, DeclAccessor:
		return true
	default:
		return false
	}
}

// AccessLevel mirrors the host language's access ladder.
type AccessLevel uint8

const (
	AccessPrivate AccessLevel = iota
	AccessFilePrivate
	AccessInternal
	AccessPublic
	AccessOpen
)

// AccessorKind distinguishes the accessor declarations hanging off storage.
type AccessorKind uint8

const (
	AccessorNone AccessorKind = iota
	AccessorGet
	AccessorSet
	AccessorWillSet
	AccessorDidSet
	AccessorAddress
	AccessorMutableAddress
)

// IsGetterOrSetter reports whether the accessor is a plain get or set.
func (k AccessorKind) IsGetterOrSetter() bool {
	return k == AccessorGet || k == AccessorSet
}

// ForeignClassKind describes how a class relates to the foreign runtime.
type ForeignClassKind uint8

const (
	// ForeignNormal: an ordinary class (native, or fully foreign-native).
	ForeignNormal ForeignClassKind = iota
	// ForeignRefCounted: a reference-counted foreign value handle with no
	// real class object; members cannot use selector dispatch.
	ForeignRefCounted
	// ForeignRuntimeOnly: a class visible to the foreign runtime only, with
	// no compile-time foreign declaration to attach members to.
	ForeignRuntimeOnly
)

// AncestryKind classifies a class hierarchy for exposure purposes.
type AncestryKind uint8

const (
	// AncestryNone: nothing in the hierarchy touches the foreign runtime.
	AncestryNone AncestryKind = iota
	// AncestryGeneric: the hierarchy is exposed but some class in it has
	// generic parameters, so only members can be exposed.
	AncestryGeneric
	// AncestryForeign: the hierarchy roots in a foreign-defined class.
	AncestryForeign
	// AncestryNativeRoot: the root is a native class that is itself marked
	// for exposure.
	AncestryNativeRoot
)

// Param is one parameter of a function-like declaration.
type Param struct {
	Label    source.StringID
	Type     types.TypeID
	Variadic bool
	InOut    bool
	Span     source.Span
}

// Decl is a node of the read-only declaration graph. This subsystem only
// annotates it: Exposed, Convention and the exposure attribute's name are
// each written at most once by the finalizer.
type Decl struct {
	Name   source.StringID
	Kind   DeclKind
	Span   source.Span
	File   source.FileID
	Access AccessLevel
	Parent DeclID // enclosing class/protocol/extension; NoDeclID = file scope

	Attrs    AttrSet
	Implicit bool
	Invalid  bool
	Operator bool

	// Classes and protocols.
	DeclaredType   types.TypeID
	Superclass     DeclID
	Generics       bool // declares its own generic parameters
	ForeignDefined bool // imported from the foreign runtime
	ForeignKind    ForeignClassKind

	// Extensions.
	Extended    DeclID
	Constrained bool // carries a generic constraint clause

	// Function-like declarations.
	Params     []Param
	Result     types.TypeID
	Throws     bool
	ThrowsSpan source.Span
	Instance   bool
	Failable   bool         // initializers only
	Accessor   AccessorKind // accessors only
	Storage    DeclID       // accessors: the backing var/subscript

	// Properties.
	Type       types.TypeID
	RefStorage bool // weak/unowned wrapper, looked through when checking

	// Subscripts.
	IndexType   types.TypeID
	ElementType types.TypeID

	Override  DeclID
	Witnesses []DeclID // requirement decls, in discovery order

	// Exposure state, written by the finalizer.
	Exposed    bool
	Convention *foreign.ErrorConvention
}

// IsInstanceMember reports whether the declaration dispatches on an instance.
func (d *Decl) IsInstanceMember() bool {
	return d.Instance
}
