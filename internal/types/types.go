package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindNever
	KindBool
	KindString
	KindInt
	KindUint
	KindFloat
	KindOptional
	KindPointer
	KindTuple
	KindFn
	KindClass
	KindStruct
	KindEnum
	KindProtocol
	KindExistential
	KindTypeParam
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindNever:
		return "never"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindOptional:
		return "optional"
	case KindPointer:
		return "pointer"
	case KindTuple:
		return "tuple"
	case KindFn:
		return "fn"
	case KindClass:
		return "class"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindProtocol:
		return "protocol"
	case KindExistential:
		return "existential"
	case KindTypeParam:
		return "type param"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers and floats.
type Width uint8

const (
	WidthAny Width = 0
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
)

// Type is a compact descriptor for any supported type. Structured kinds
// (tuple, fn, nominal, existential) keep their metadata in side tables
// addressed by Payload.
type Type struct {
	Kind    Kind
	Elem    TypeID // optional and pointer element
	Width   Width  // numeric primitives
	Payload uint32 // side-table slot for structured kinds
}

// MakeInt builds an integer descriptor of the given width.
func MakeInt(w Width) Type {
	return Type{Kind: KindInt, Width: w}
}

// MakeUint builds an unsigned integer descriptor of the given width.
func MakeUint(w Width) Type {
	return Type{Kind: KindUint, Width: w}
}

// MakeFloat builds a float descriptor of the given width.
func MakeFloat(w Width) Type {
	return Type{Kind: KindFloat, Width: w}
}

// MakeOptional wraps elem in a single optional level.
func MakeOptional(elem TypeID) Type {
	return Type{Kind: KindOptional, Elem: elem}
}

// MakePointer builds an out-pointer wrapper around elem.
func MakePointer(elem TypeID) Type {
	return Type{Kind: KindPointer, Elem: elem}
}
