package expose

import (
	"fmt"

	"expose/internal/decls"
	"expose/internal/diag"
	"expose/internal/foreign"
	"expose/internal/types"
)

// checkForeignClassContext rejects members of foreign classes that have no
// real class object to attach selector-dispatched members to. Two cases: the
// reference-counted value handle, and the runtime-only class that exists
// solely behind the runtime's name lookup.
func (c *Checker) checkForeignClassContext(id decls.DeclID, r Reason) bool {
	classID := c.graph.EnclosingClass(id)
	class := c.graph.Get(classID)
	if class == nil {
		return true
	}
	switch class.ForeignKind {
	case decls.ForeignRefCounted:
		if r.ShouldDiagnose(c.opts) {
			b := diag.ReportError(c.reporter, diag.ExpInForeignRefClass, c.span(id),
				fmt.Sprintf("%s cannot be %s: members of reference-counted foreign class %q do not use selector dispatch",
					c.graph.Get(id).Kind, r.attrDescription(), c.declName(classID)))
			c.describe(b, id, r).Emit()
		}
		return false
	case decls.ForeignRuntimeOnly:
		if r.ShouldDiagnose(c.opts) {
			b := diag.ReportError(c.reporter, diag.ExpInRuntimeOnlyClass, c.span(id),
				fmt.Sprintf("%s cannot be %s: class %q is only visible through the foreign runtime and cannot declare members at compile time",
					c.graph.Get(id).Kind, r.attrDescription(), c.declName(classID)))
			c.describe(b, id, r).Emit()
		}
		return false
	}
	return true
}

// checkExtensionContext rejects members declared in extensions that the
// runtime cannot realize: constrained extensions, and extensions of classes
// with generic ancestry unless the generic ancestor is foreign-defined (its
// generics are erased and invisible to the runtime).
func (c *Checker) checkExtensionContext(id decls.DeclID, diagnose bool) bool {
	d := c.graph.Get(id)
	parent := c.graph.Get(d.Parent)
	if parent == nil || parent.Kind != decls.DeclExtension {
		return true
	}
	if parent.Constrained {
		if diagnose {
			diag.ReportError(c.reporter, diag.ExpInConstrainedExtension, c.span(id),
				"members of constrained extensions cannot be exposed to the foreign runtime").
				WithNote(parent.Span, "extension constrained here").
				Emit()
		}
		return false
	}
	classID := parent.Extended
	if anc := c.graph.GenericAncestor(classID); anc.IsValid() {
		if ad := c.graph.Get(anc); ad != nil && !ad.ForeignDefined {
			if diagnose {
				diag.ReportError(c.reporter, diag.ExpInGenericExtension, c.span(id),
					fmt.Sprintf("members of extensions of generic class %q cannot be exposed to the foreign runtime", c.declName(anc))).
					WithNote(c.span(anc), "generic ancestor declared here").
					Emit()
			}
			return false
		}
	}
	return true
}

// checkGenericParams rejects function-like declarations with their own
// generic parameters.
func (c *Checker) checkGenericParams(id decls.DeclID, r Reason) bool {
	d := c.graph.Get(id)
	if !d.Generics {
		return true
	}
	if r.ShouldDiagnose(c.opts) {
		b := diag.ReportError(c.reporter, diag.ExpInvalidWithGenerics, c.span(id),
			fmt.Sprintf("%s cannot be %s because it has generic parameters", d.Kind, r.attrDescription()))
		c.describe(b, id, r).Emit()
	}
	return false
}

// paramListIsRepresentable checks every parameter. Variadic and inout
// parameters fail immediately regardless of diagnostics mode; a
// non-representable type fails but, when diagnosing, checking continues so
// every bad parameter is reported in one pass. A Void parameter is accepted
// when an overridden declaration's error convention replaced that slot.
func (c *Checker) paramListIsRepresentable(id decls.DeclID, r Reason) bool {
	d := c.graph.Get(id)
	diagnose := r.ShouldDiagnose(c.opts)
	ok := true
	for i, p := range d.Params {
		if p.Variadic {
			if diagnose {
				b := diag.ReportError(c.reporter, diag.ExpVariadicParam, p.Span,
					fmt.Sprintf("%s cannot be %s because variadic parameters cannot be represented in the foreign runtime",
						d.Kind, r.attrDescription()))
				c.describe(b, id, r).Emit()
			}
			return false
		}
		if p.InOut {
			if diagnose {
				b := diag.ReportError(c.reporter, diag.ExpInOutParam, p.Span,
					fmt.Sprintf("%s cannot be %s because inout parameters cannot be represented in the foreign runtime",
						d.Kind, r.attrDescription()))
				c.describe(b, id, r).Emit()
			}
			return false
		}
		if c.Classify(p.Type).IsRepresentable() {
			continue
		}
		if c.voidSlotReplacedByError(d, i, p.Type) {
			continue
		}
		ok = false
		if !diagnose {
			return false
		}
		b := diag.ReportError(c.reporter, diag.ExpParamNotRepresentable, p.Span,
			fmt.Sprintf("%s cannot be %s because the type of parameter %d cannot be represented in the foreign runtime",
				d.Kind, r.attrDescription(), i+1))
		b = c.explainNotRepresentable(b, p.Span, p.Type)
		c.describe(b, id, r).Emit()
	}
	return ok
}

// voidSlotReplacedByError accepts a Void parameter in a throwing override
// whose base convention put the error out-parameter in that slot.
func (c *Checker) voidSlotReplacedByError(d *decls.Decl, index int, t types.TypeID) bool {
	tt, ok := c.types.Lookup(t)
	if !ok || tt.Kind != types.KindVoid || !d.Throws || !d.Override.IsValid() {
		return false
	}
	base := c.graph.Get(d.Override)
	if base == nil || base.Convention == nil {
		return false
	}
	conv := base.Convention
	return conv.ErrorParameterReplacedWithVoid() && conv.ParamIndex == uint32(index)
}

// FuncIsRepresentable decides whether a function-like declaration can be
// exposed, reporting failures when the reason warrants it, and synthesizes
// the error convention for throwing signatures. The convention synthesizer
// still runs when parameter checking failed so its independent diagnostics
// surface, but a diagnosed result failure ends the check: the convention's
// sentinel depends on the result type that just failed.
func (c *Checker) FuncIsRepresentable(id decls.DeclID, r Reason) (*foreign.ErrorConvention, bool) {
	d := c.graph.Get(id)
	diagnose := r.ShouldDiagnose(c.opts)

	if !c.checkForeignClassContext(id, r) {
		return nil, false
	}
	if !c.checkGenericParams(id, r) {
		return nil, false
	}
	if !c.checkExtensionContext(id, diagnose) {
		return nil, false
	}

	if d.Operator {
		// Operators are rejected unconditionally; the protocol form gets its
		// own message because the fix differs (a named requirement).
		code := diag.ExpOperator
		msg := "operators cannot be exposed to the foreign runtime"
		if c.graph.EnclosingProtocol(id).IsValid() {
			code = diag.ExpOperatorInProtocol
			msg = "operator requirements of exposed protocols are not representable; declare a named requirement instead"
		}
		diag.ReportError(c.reporter, code, c.span(id), msg).Emit()
		return nil, false
	}

	if d.Kind == decls.DeclAccessor {
		return c.accessorIsRepresentable(id, d, r)
	}

	paramsOK := true
	if !c.graph.ZeroParamInitWithLongSelector(id, c.types) {
		paramsOK = c.paramListIsRepresentable(id, r)
		if !paramsOK && !diagnose {
			return nil, false
		}
	}

	if d.Kind == decls.DeclFunc && !c.resultIsRepresentable(id, d, r) {
		return nil, false
	}

	var conv *foreign.ErrorConvention
	if d.Throws {
		var convOK bool
		conv, convOK = c.synthesizeErrorConvention(id, d, diagnose, r)
		if !convOK {
			return nil, false
		}
	}
	return conv, paramsOK
}

// resultIsRepresentable checks a function's result type. Void and Never are
// both fine in result position; Never lowers to a non-returning Void method.
func (c *Checker) resultIsRepresentable(id decls.DeclID, d *decls.Decl, r Reason) bool {
	tt, ok := c.types.Lookup(d.Result)
	if ok && (tt.Kind == types.KindVoid || tt.Kind == types.KindNever) {
		return true
	}
	if c.Classify(d.Result).IsRepresentable() {
		return true
	}
	if r.ShouldDiagnose(c.opts) {
		b := diag.ReportError(c.reporter, diag.ExpResultNotRepresentable, c.span(id),
			fmt.Sprintf("%s cannot be %s because its result type cannot be represented in the foreign runtime",
				d.Kind, r.attrDescription()))
		b = c.explainNotRepresentable(b, c.span(id), d.Result)
		c.describe(b, id, r).Emit()
	}
	return false
}

// accessorIsRepresentable handles accessor declarations. Getters and setters
// of exposed storage are representable with no further signature checks; the
// storage's type was validated when the storage itself was checked. The
// other accessor kinds never cross the boundary.
func (c *Checker) accessorIsRepresentable(id decls.DeclID, d *decls.Decl, r Reason) (*foreign.ErrorConvention, bool) {
	storage := c.graph.Get(d.Storage)
	if r.Kind != ReasonWitness && (storage == nil || !storage.Exposed) {
		if r.ShouldDiagnose(c.opts) {
			b := diag.ReportError(c.reporter, diag.ExpAccessorStorage, c.span(id),
				fmt.Sprintf("accessor cannot be %s because its storage is not exposed to the foreign runtime", r.attrDescription()))
			if storage != nil {
				b = b.WithNote(storage.Span, "storage declared here")
			}
			c.describe(b, id, r).Emit()
		}
		return nil, false
	}
	switch d.Accessor {
	case decls.AccessorGet, decls.AccessorSet:
		return nil, true
	case decls.AccessorWillSet, decls.AccessorDidSet:
		if r.ShouldDiagnose(c.opts) {
			b := diag.ReportError(c.reporter, diag.ExpObservingAccessor, c.span(id),
				fmt.Sprintf("observing accessors cannot be %s", r.attrDescription()))
			c.describe(b, id, r).Emit()
		}
		return nil, false
	default:
		if r.ShouldDiagnose(c.opts) {
			b := diag.ReportError(c.reporter, diag.ExpAddressorAccessor, c.span(id),
				fmt.Sprintf("addressors cannot be %s", r.attrDescription()))
			c.describe(b, id, r).Emit()
		}
		return nil, false
	}
}

// VarIsRepresentable decides whether a property can be exposed. Reference
// storage wrappers (weak, unowned) are looked through: the runtime sees the
// referent type.
func (c *Checker) VarIsRepresentable(id decls.DeclID, r Reason) bool {
	d := c.graph.Get(id)
	if d.Invalid {
		return false
	}
	t := d.Type
	result := c.Classify(t).IsRepresentable()
	if result && !c.checkExtensionContext(id, r.ShouldDiagnose(c.opts)) {
		return false
	}
	if !c.checkForeignClassContext(id, r) {
		return false
	}
	if result || !r.ShouldDiagnose(c.opts) {
		return result
	}
	b := diag.ReportError(c.reporter, diag.ExpVarNotRepresentable, c.span(id),
		fmt.Sprintf("property cannot be %s because its type cannot be represented in the foreign runtime", r.attrDescription()))
	b = c.explainNotRepresentable(b, c.span(id), t)
	c.describe(b, id, r).Emit()
	return false
}

// SubscriptIsRepresentable decides whether a subscript can be exposed. The
// foreign runtime knows exactly two subscript shapes: keyed by an integer,
// or keyed by an object.
func (c *Checker) SubscriptIsRepresentable(id decls.DeclID, r Reason) bool {
	d := c.graph.Get(id)
	diagnose := r.ShouldDiagnose(c.opts)

	if !c.checkExtensionContext(id, diagnose) {
		return false
	}
	if !c.checkForeignClassContext(id, r) {
		return false
	}

	indexKind := c.Classify(d.IndexType)
	elementOK := c.Classify(d.ElementType).IsRepresentable()
	result := indexKind.IsRepresentable() && elementOK

	if !result {
		if diagnose {
			sp := c.span(id)
			bad := d.IndexType
			if indexKind.IsRepresentable() {
				bad = d.ElementType
			}
			b := diag.ReportError(c.reporter, diag.ExpSubscriptType, sp,
				fmt.Sprintf("subscript cannot be %s because its type cannot be represented in the foreign runtime", r.attrDescription()))
			b = c.explainNotRepresentable(b, sp, bad)
			c.describe(b, id, r).Emit()
		}
		return false
	}

	if !c.subscriptKeyStyle(d.IndexType, indexKind) {
		// Always diagnosed: the subscript looked exposable, so silence here
		// would hide the one thing the user must change.
		diag.ReportError(c.reporter, diag.ExpSubscriptKeyType, c.span(id),
			fmt.Sprintf("subscript key type %s must be an integer or an object type", c.typeLabel(d.IndexType))).
			Emit()
		return false
	}
	return true
}

// subscriptKeyStyle reports whether the key type fits one of the two foreign
// subscript shapes.
func (c *Checker) subscriptKeyStyle(t types.TypeID, kind Representable) bool {
	if kind.IsObjectLike() {
		return true
	}
	if c.IsForeignIntegerType(t) {
		return true
	}
	tt, ok := c.types.Lookup(t)
	return ok && (tt.Kind == types.KindInt || tt.Kind == types.KindUint)
}
