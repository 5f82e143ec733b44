package expose

import (
	"fmt"

	"expose/internal/decls"
	"expose/internal/diag"
	"expose/internal/foreign"
	"expose/internal/types"
)

// synthesizeErrorConvention maps a throwing host signature onto the foreign
// runtime's sentinel-plus-out-parameter convention. The host result type
// picks the sentinel:
//
//	initializer            -> nil result signals failure
//	Void result            -> boolean sentinel, false signals failure
//	non-optional object    -> nil result signals failure
//	optional object        -> rejected: nil is already a valid success value
//	anything else          -> rejected
func (c *Checker) synthesizeErrorConvention(id decls.DeclID, d *decls.Decl, diagnose bool, r Reason) (*foreign.ErrorConvention, bool) {
	isInit := d.Kind == decls.DeclInit

	if isInit && d.Failable {
		if diagnose {
			b := diag.ReportError(c.reporter, diag.ExpThrowsFailingInit, d.ThrowsSpan.Cover(c.span(id)),
				fmt.Sprintf("a failable initializer cannot be %s and throw: the foreign runtime cannot distinguish failure from error", r.attrDescription()))
			c.describe(b, id, r).Emit()
		}
		return nil, false
	}

	var kind foreign.ConventionKind
	var sentinel types.TypeID
	switch {
	case isInit:
		kind = foreign.NilResult

	case c.resultIsVoid(d.Result):
		kind = foreign.ZeroResult
		sentinel = c.booleanSentinel()

	case !c.resultIsOptional(d.Result) && c.IsBridgedToForeignClass(d.Result):
		kind = foreign.NilResult

	default:
		if obj := c.types.OptionalObject(d.Result); obj != types.NoTypeID && c.IsBridgedToForeignClass(obj) {
			if diagnose {
				b := diag.ReportError(c.reporter, diag.ExpThrowsOptionalInNil, c.span(id),
					fmt.Sprintf("a throwing %s cannot be %s with optional result type %s: nil already means success",
						d.Kind, r.attrDescription(), c.typeLabel(d.Result)))
				c.describe(b, id, r).Emit()
			}
			return nil, false
		}
		if diagnose {
			b := diag.ReportError(c.reporter, diag.ExpThrowsBadResult, c.span(id),
				fmt.Sprintf("a throwing %s cannot be %s: result type %s has no failure sentinel",
					d.Kind, r.attrDescription(), c.typeLabel(d.Result)))
			b = c.explainNotRepresentable(b, c.span(id), d.Result)
			c.describe(b, id, r).Emit()
		}
		return nil, false
	}

	index, replaces := c.errorParameterIndex(id, d)

	conv := c.buildConvention(kind, index, replaces, sentinel)
	return &conv, true
}

// booleanSentinel picks the sentinel type for Void-result conventions: the
// foreign boolean typedef when the library provides it, the native Bool
// otherwise. Both missing means the standard library is broken; nothing
// downstream can recover from that, so panic.
func (c *Checker) booleanSentinel() types.TypeID {
	if t := c.ForeignBoolType(); t != types.NoTypeID {
		return t
	}
	if t := c.NativeBoolType(); t != types.NoTypeID {
		return t
	}
	panic("expose: no boolean type available for the error convention sentinel")
}

// errorParameterType builds the canonical injected-parameter type: an
// optional out-pointer to an optional foreign error object. NoTypeID when
// the foreign error class is unavailable.
func (c *Checker) errorParameterType() types.TypeID {
	errClass := c.ErrorClassType()
	if errClass == types.NoTypeID {
		return types.NoTypeID
	}
	return c.types.Optional(c.types.Pointer(c.types.Optional(errClass)))
}

// errorParameterIndex decides where the error out-parameter goes in the
// exploded foreign parameter list. An explicit selector piece named "error"
// (or a first piece ending in the word "Error") pins the slot; otherwise the
// parameter is appended after the last non-trailing-closure parameter. The
// slot replaces a host parameter only when the pinned piece maps onto an
// existing parameter of type Void.
func (c *Checker) errorParameterIndex(id decls.DeclID, d *decls.Decl) (index uint32, replaces bool) {
	if attr := d.Attrs.Get(decls.AttrExposed); attr != nil && attr.Name != nil && attr.Name.NumArgs > 0 {
		pieces := attr.Name.Pieces
		for i := len(pieces); i > 0; i-- {
			piece, _ := c.strings.Lookup(pieces[i-1])
			if piece == "error" {
				return uint32(i - 1), c.paramIsVoid(d, i-1)
			}
			if i == 1 && decls.LastWord(piece) == "Error" {
				return 0, c.paramIsVoid(d, 0)
			}
		}
	}

	n := len(d.Params)
	if c.graph.ZeroParamInitWithLongSelector(id, c.types) {
		n--
	}
	// Keep trailing closures trailing: the error slot goes before any suffix
	// of function-typed parameters (one optional level looked through).
	for n > 0 {
		t := d.Params[n-1].Type
		if obj := c.types.OptionalObject(t); obj != types.NoTypeID {
			t = obj
		}
		tt, ok := c.types.Lookup(t)
		if !ok || tt.Kind != types.KindFn {
			break
		}
		n--
	}
	return uint32(n), false
}

// buildConvention assembles the ErrorConvention for the chosen kind. The
// out-parameter is never owned by the callee here.
func (c *Checker) buildConvention(kind foreign.ConventionKind, index uint32, replaces bool, sentinel types.TypeID) foreign.ErrorConvention {
	paramType := c.errorParameterType()
	switch kind {
	case foreign.ZeroResult:
		return foreign.GetZeroResult(index, false, replaces, paramType, sentinel)
	case foreign.NonZeroResult:
		return foreign.GetNonZeroResult(index, false, replaces, paramType, sentinel)
	case foreign.ZeroPreservedResult:
		return foreign.GetZeroPreservedResult(index, false, replaces, paramType)
	default:
		return foreign.GetNilResult(index, false, replaces, paramType)
	}
}

// paramIsVoid reports whether the parameter at the given index exists and
// has type Void.
func (c *Checker) paramIsVoid(d *decls.Decl, index int) bool {
	if index < 0 || index >= len(d.Params) {
		return false
	}
	tt, ok := c.types.Lookup(d.Params[index].Type)
	return ok && tt.Kind == types.KindVoid
}

func (c *Checker) resultIsVoid(t types.TypeID) bool {
	tt, ok := c.types.Lookup(t)
	return ok && tt.Kind == types.KindVoid
}

func (c *Checker) resultIsOptional(t types.TypeID) bool {
	tt, ok := c.types.Lookup(t)
	return ok && tt.Kind == types.KindOptional
}
