package expose

import (
	"fmt"

	"expose/internal/decls"
	"expose/internal/diag"
	"expose/internal/source"
	"expose/internal/types"
)

// Representable classifies how a type crosses the foreign boundary.
type Representable uint8

const (
	// NotRepresentable: the type cannot appear in an exposed signature.
	NotRepresentable Representable = iota
	// Trivial: passed directly, no conversion (scalars, out-pointers).
	Trivial
	// Object: passed as a foreign object reference.
	Object
	// Bridged: converted per value at the boundary.
	Bridged
	// StaticBridged: converted with a statically resolved conversion.
	StaticBridged
	// BridgedError: the error-existential conversion to the foreign error
	// class.
	BridgedError
)

func (r Representable) String() string {
	switch r {
	case Trivial:
		return "trivial"
	case Object:
		return "object"
	case Bridged:
		return "bridged"
	case StaticBridged:
		return "static bridged"
	case BridgedError:
		return "bridged error"
	default:
		return "not representable"
	}
}

// IsRepresentable reports any classification other than NotRepresentable.
func (r Representable) IsRepresentable() bool { return r != NotRepresentable }

// IsObjectLike reports a classification that produces an object reference at
// the boundary, the shape an optional may legally wrap.
func (r Representable) IsObjectLike() bool {
	switch r {
	case Object, Bridged, StaticBridged, BridgedError:
		return true
	default:
		return false
	}
}

// Classify is the representability oracle. It never reports; callers decide
// whether a NotRepresentable answer is an error.
func (c *Checker) Classify(t types.TypeID) Representable {
	tt, ok := c.types.Lookup(t)
	if !ok {
		return NotRepresentable
	}
	switch tt.Kind {
	case types.KindBool, types.KindInt, types.KindUint, types.KindFloat:
		return Trivial

	case types.KindVoid, types.KindNever:
		// Valid only in result position; callers special-case that.
		return NotRepresentable

	case types.KindOptional:
		// Optionals are representable only when nil maps to the foreign
		// runtime's nil object reference.
		if inner := c.Classify(tt.Elem); inner.IsObjectLike() {
			return inner
		}
		return NotRepresentable

	case types.KindPointer:
		if c.Classify(tt.Elem).IsRepresentable() {
			return Trivial
		}
		return NotRepresentable

	case types.KindClass:
		owner := c.graph.Get(c.graph.Owner(t))
		if owner != nil && (owner.Exposed || owner.ForeignDefined) {
			return Object
		}
		return NotRepresentable

	case types.KindString, types.KindStruct, types.KindEnum:
		if b, ok := c.graph.BridgeFor(t); ok {
			switch b.Kind {
			case decls.BridgeStatic:
				return StaticBridged
			case decls.BridgeError:
				return BridgedError
			default:
				return Bridged
			}
		}
		return NotRepresentable

	case types.KindProtocol:
		// A bare protocol reference behaves like the single-protocol
		// existential.
		if t == c.ErrorProtocolType() {
			return BridgedError
		}
		owner := c.graph.Get(c.graph.Owner(t))
		if owner != nil && (owner.Exposed || owner.ForeignDefined) {
			return Object
		}
		return NotRepresentable

	case types.KindExistential:
		return c.classifyExistential(t)

	case types.KindFn:
		return c.classifyFn(t)

	default:
		// Tuples, type parameters, invalid.
		return NotRepresentable
	}
}

// classifyExistential handles protocol compositions. A composition crosses
// the boundary as an object when every member protocol is exposed; the
// universal error protocol bridges the whole composition to the foreign
// error class instead.
func (c *Checker) classifyExistential(t types.TypeID) Representable {
	info, ok := c.types.ExistentialInfo(t)
	if !ok {
		return NotRepresentable
	}
	if len(info.Protocols) == 0 && info.Superclass == types.NoTypeID {
		// The unconstrained "any object" existential.
		return NotRepresentable
	}
	if info.Superclass != types.NoTypeID {
		if c.Classify(info.Superclass) != Object {
			return NotRepresentable
		}
	}
	sawError := false
	for _, p := range info.Protocols {
		if p == c.ErrorProtocolType() {
			sawError = true
			continue
		}
		owner := c.graph.Get(c.graph.Owner(p))
		if owner == nil || !(owner.Exposed || owner.ForeignDefined) {
			return NotRepresentable
		}
	}
	if sawError {
		return BridgedError
	}
	return Object
}

// classifyFn handles function types, which cross as runtime blocks. Throwing
// function types never do: the error convention exists only for declarations.
func (c *Checker) classifyFn(t types.TypeID) Representable {
	info, ok := c.types.FnInfo(t)
	if !ok || info.Throws {
		return NotRepresentable
	}
	for _, p := range info.Params {
		if !c.Classify(p).IsRepresentable() {
			return NotRepresentable
		}
	}
	if rt, ok := c.types.Lookup(info.Result); ok && rt.Kind != types.KindVoid {
		if !c.Classify(info.Result).IsRepresentable() {
			return NotRepresentable
		}
	}
	return Object
}

// IsBridgedToForeignClass reports whether values of the type become foreign
// object references at the boundary, by conversion or directly.
func (c *Checker) IsBridgedToForeignClass(t types.TypeID) bool {
	return c.Classify(t).IsObjectLike()
}

// explainNotRepresentable attaches the most specific note for why a type is
// not representable. The switch mirrors Classify; each arm names the category
// a user can act on.
func (c *Checker) explainNotRepresentable(b *diag.ReportBuilder, sp source.Span, t types.TypeID) *diag.ReportBuilder {
	tt, ok := c.types.Lookup(t)
	if !ok {
		return b.WithNote(sp, "type could not be resolved")
	}
	label := c.typeLabel(t)
	switch tt.Kind {
	case types.KindVoid:
		return b.WithNote(sp, "Void is only representable as a result type")
	case types.KindNever:
		return b.WithNote(sp, fmt.Sprintf("%s has no foreign counterpart", label))
	case types.KindTuple:
		return b.WithNote(sp, "tuples cannot be represented in the foreign runtime")
	case types.KindTypeParam:
		return b.WithNote(sp, fmt.Sprintf("generic parameter %s cannot be represented in the foreign runtime", label))
	case types.KindOptional:
		inner := c.Classify(tt.Elem)
		if inner == Trivial {
			return b.WithNote(sp, fmt.Sprintf("optional %s has no nil sentinel in the foreign runtime", c.typeLabel(tt.Elem)))
		}
		return c.explainNotRepresentable(b, sp, tt.Elem)
	case types.KindPointer:
		return c.explainNotRepresentable(b, sp, tt.Elem)
	case types.KindClass:
		return b.WithNote(sp, fmt.Sprintf("class %s is not exposed to the foreign runtime", label))
	case types.KindProtocol:
		return b.WithNote(sp, fmt.Sprintf("protocol %s is not exposed to the foreign runtime", label))
	case types.KindStruct, types.KindEnum, types.KindString:
		return b.WithNote(sp, fmt.Sprintf("%s does not bridge to a foreign class", label))
	case types.KindExistential:
		return c.explainExistential(b, sp, t, label)
	case types.KindFn:
		if info, ok := c.types.FnInfo(t); ok && info.Throws {
			return b.WithNote(sp, "throwing function values cannot be represented as foreign blocks")
		}
		return b.WithNote(sp, fmt.Sprintf("function type %s has a non-representable parameter or result", label))
	default:
		return b.WithNote(sp, fmt.Sprintf("%s cannot be represented in the foreign runtime", label))
	}
}

func (c *Checker) explainExistential(b *diag.ReportBuilder, sp source.Span, t types.TypeID, label string) *diag.ReportBuilder {
	info, ok := c.types.ExistentialInfo(t)
	if !ok {
		return b.WithNote(sp, fmt.Sprintf("%s cannot be represented in the foreign runtime", label))
	}
	if len(info.Protocols) == 0 && info.Superclass == types.NoTypeID {
		return b.WithNote(sp, "the unconstrained existential cannot be represented in the foreign runtime")
	}
	for _, p := range info.Protocols {
		if p == c.ErrorProtocolType() {
			continue
		}
		owner := c.graph.Get(c.graph.Owner(p))
		if owner == nil || !(owner.Exposed || owner.ForeignDefined) {
			name := c.typeLabel(p)
			return b.WithNote(sp, fmt.Sprintf("protocol %s in %s is not exposed to the foreign runtime", name, label))
		}
	}
	if info.Superclass != types.NoTypeID && c.Classify(info.Superclass) != Object {
		return b.WithNote(sp, fmt.Sprintf("superclass bound %s is not exposed to the foreign runtime", c.typeLabel(info.Superclass)))
	}
	return b.WithNote(sp, fmt.Sprintf("%s cannot be represented in the foreign runtime", label))
}
