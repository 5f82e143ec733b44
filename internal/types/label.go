package types

import (
	"fmt"
	"strings"

	"expose/internal/source"
)

// Label renders a human-readable form of the type for diagnostics.
func (in *Interner) Label(strs *source.Interner, id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	name := func(sid source.StringID) string {
		if strs == nil {
			return "?"
		}
		s, _ := strs.Lookup(sid)
		return s
	}
	switch tt.Kind {
	case KindVoid:
		return "Void"
	case KindNever:
		return "Never"
	case KindBool:
		return "Bool"
	case KindString:
		return "String"
	case KindInt:
		if tt.Width == WidthAny {
			return "Int"
		}
		return fmt.Sprintf("Int%d", tt.Width)
	case KindUint:
		if tt.Width == WidthAny {
			return "UInt"
		}
		return fmt.Sprintf("UInt%d", tt.Width)
	case KindFloat:
		return fmt.Sprintf("Float%d", tt.Width)
	case KindOptional:
		return in.Label(strs, tt.Elem) + "?"
	case KindPointer:
		return "OutPointer<" + in.Label(strs, tt.Elem) + ">"
	case KindTuple:
		info, _ := in.TupleInfo(id)
		parts := make([]string, 0, len(info.Elems))
		for _, e := range info.Elems {
			parts = append(parts, in.Label(strs, e))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindFn:
		info, _ := in.FnInfo(id)
		parts := make([]string, 0, len(info.Params))
		for _, p := range info.Params {
			parts = append(parts, in.Label(strs, p))
		}
		kw := "fn"
		if info.Throws {
			kw = "fn throws"
		}
		return kw + "(" + strings.Join(parts, ", ") + ") -> " + in.Label(strs, info.Result)
	case KindClass, KindStruct, KindEnum, KindProtocol:
		info, _ := in.NominalInfo(id)
		return name(info.Name)
	case KindExistential:
		info, _ := in.ExistentialInfo(id)
		if len(info.Protocols) == 0 && info.Superclass == NoTypeID {
			return "any"
		}
		parts := make([]string, 0, len(info.Protocols)+1)
		if info.Superclass != NoTypeID {
			parts = append(parts, in.Label(strs, info.Superclass))
		}
		for _, p := range info.Protocols {
			parts = append(parts, in.Label(strs, p))
		}
		return "any " + strings.Join(parts, " & ")
	case KindTypeParam:
		if int(tt.Payload) < len(in.typeParams) {
			return name(in.typeParams[tt.Payload].Name)
		}
		return "<type param>"
	default:
		return "<invalid>"
	}
}
