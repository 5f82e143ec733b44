package types

import (
	"fmt"

	"fortio.org/safecast"

	"expose/internal/source"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Invalid TypeID
	Void    TypeID
	Never   TypeID
	Bool    TypeID
	String  TypeID
	Int     TypeID
	Float   TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
type Interner struct {
	types        []Type
	index        map[typeKey]TypeID
	builtins     Builtins
	tuples       []TupleInfo
	fns          []FnInfo
	nominals     []NominalInfo
	existentials []ExistentialInfo
	typeParams   []TypeParamInfo
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[typeKey]TypeID, 64),
	}
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Void = in.Intern(Type{Kind: KindVoid})
	in.builtins.Never = in.Intern(Type{Kind: KindNever})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	in.builtins.Int = in.Intern(MakeInt(Width64))
	in.builtins.Float = in.Intern(MakeFloat(Width64))
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	key := typeKey(t)
	in.index[key] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Optional returns the single-level optional wrapping of elem. Wrapping an
// optional keeps the nest at one level, per the normalization invariant.
func (in *Interner) Optional(elem TypeID) TypeID {
	if tt, ok := in.Lookup(elem); ok && tt.Kind == KindOptional {
		return elem
	}
	return in.Intern(MakeOptional(elem))
}

// OptionalObject unwraps one optional level. Returns NoTypeID when id is not
// an optional.
func (in *Interner) OptionalObject(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindOptional {
		return NoTypeID
	}
	return tt.Elem
}

// Pointer returns the out-pointer wrapping of elem.
func (in *Interner) Pointer(elem TypeID) TypeID {
	return in.Intern(MakePointer(elem))
}

// RegisterTypeParam creates a fresh generic placeholder type.
func (in *Interner) RegisterTypeParam(name source.StringID) TypeID {
	slot, err := safecast.Conv[uint32](len(in.typeParams))
	if err != nil {
		panic(fmt.Errorf("type param overflow: %w", err))
	}
	in.typeParams = append(in.typeParams, TypeParamInfo{Name: name})
	return in.internRaw(Type{Kind: KindTypeParam, Payload: slot})
}

// TypeParamInfo stores metadata for generic placeholder types.
type TypeParamInfo struct {
	Name source.StringID
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Width   Width
	Payload uint32
}
