package expose

import (
	"fmt"

	"expose/internal/decls"
	"expose/internal/diag"
)

// InferReason decides whether a declaration should be exposed and why. It
// never checks representability; a returned reason is a request that the
// signature checks may still refuse. allowImplicit admits compiler-created
// declarations into implicit inference.
func (c *Checker) InferReason(id decls.DeclID, allowImplicit bool) (Reason, bool) {
	d := c.graph.Get(id)
	if d == nil {
		return Reason{}, false
	}
	if d.Kind == decls.DeclClass {
		return c.inferClassReason(id, d)
	}
	if d.Kind == decls.DeclDestructor {
		// Destructors of exposed classes participate in the runtime's
		// deallocation protocol; nothing else about them is checked.
		if class := c.graph.Get(c.graph.EnclosingClass(id)); class != nil && class.Exposed {
			return Reason{Kind: ReasonImplicit}, true
		}
		return Reason{}, false
	}
	return c.inferMemberReason(id, d, allowImplicit)
}

// inferClassReason handles classes. Only the hierarchy and the explicit
// attribute matter here; members are decided separately.
func (c *Checker) inferClassReason(id decls.DeclID, d *decls.Decl) (Reason, bool) {
	ancestry := c.graph.Ancestry(id)
	generic := d.Generics || ancestry == decls.AncestryGeneric

	if attr := d.Attrs.Get(decls.AttrExposed); attr != nil && !attr.Invalid && !attr.Implicit {
		if generic {
			if attr.Name != nil && !d.Generics {
				// The attribute's explicit name still pins the runtime name
				// of the class, even though the class itself stays native.
				d.Attrs.Add(decls.Attr{
					Kind:     decls.AttrRuntimeName,
					Span:     attr.Span,
					Name:     attr.Name,
					Implicit: true,
				})
				return Reason{}, false
			}
			diag.ReportError(c.reporter, diag.ExpAttrOnGenericClass, attr.Span,
				fmt.Sprintf("class %q cannot be exposed to the foreign runtime because it has generic ancestry", c.declName(id))).
				WithFix("remove the attribute", diag.FixEdit{Span: attr.Span}).
				Emit()
		}

		// Only foreign-rooted hierarchies may carry the attribute. The two
		// gates are independent and both may fire; either way the explicit
		// attribute still wins, for recovery.
		if ancestry == decls.AncestryNativeRoot {
			if c.opts.AttrRequiresForeignRoot {
				diag.ReportError(c.reporter, diag.ExpAttrNativeRooted, attr.Span,
					fmt.Sprintf("class %q cannot be marked for exposure because its hierarchy roots in a native class", c.declName(id))).
					WithFix("remove the attribute", diag.FixEdit{Span: attr.Span}).
					Emit()
			}
			if !c.opts.InteropEnabled {
				diag.ReportError(c.reporter, diag.ExpInteropDisabled, attr.Span,
					"foreign interop is disabled; the exposure attribute has no effect").
					WithFix("remove the attribute", diag.FixEdit{Span: attr.Span}).
					Emit()
			}
		}

		return Reason{Kind: ReasonExplicitAttr}, true
	}

	if ancestry == decls.AncestryForeign || ancestry == decls.AncestryNativeRoot {
		return Reason{Kind: ReasonImplicit}, true
	}
	return Reason{}, false
}

// inferMemberReason runs the member ladder. The order is observable: a
// declaration carrying both an opt-out and an explicit binding is decided by
// whichever rung comes first.
func (c *Checker) inferMemberReason(id decls.DeclID, d *decls.Decl, allowImplicit bool) (Reason, bool) {
	if d.Attrs.Has(decls.AttrExposed) {
		return Reason{Kind: ReasonExplicitAttr}, true
	}
	if d.Attrs.Has(decls.AttrOutlet) {
		return Reason{Kind: ReasonOutlet}, true
	}
	if d.Attrs.Has(decls.AttrAction) {
		return Reason{Kind: ReasonAction}, true
	}
	if d.Attrs.Has(decls.AttrInspectable) {
		return Reason{Kind: ReasonInspectable}, true
	}
	if d.Attrs.Has(decls.AttrGameInspectable) {
		return Reason{Kind: ReasonGameInspectable}, true
	}
	if d.Attrs.Has(decls.AttrManaged) {
		return Reason{Kind: ReasonManaged}, true
	}

	if proto := c.graph.Get(c.graph.EnclosingProtocol(id)); proto != nil {
		if proto.Exposed || proto.Attrs.Has(decls.AttrExposed) {
			return Reason{Kind: ReasonProtocolMember}, true
		}
		// Members of non-exposed protocols fall through; a later rung (the
		// dynamic attribute, say) can still claim them.
	}

	if d.Attrs.Has(decls.AttrNeverExpose) {
		return Reason{}, false
	}
	parent := c.graph.Get(d.Parent)
	inExtension := parent != nil && parent.Kind == decls.DeclExtension
	if inExtension && parent.Attrs.Has(decls.AttrNeverExpose) {
		return Reason{}, false
	}

	if inExtension && parent.Attrs.Has(decls.AttrExposed) {
		if ext := c.graph.Get(parent.Extended); ext != nil && ext.Kind == decls.DeclClass {
			return Reason{Kind: ReasonExtensionMember}, true
		}
	}

	classID := c.graph.EnclosingClass(id)
	class := c.graph.Get(classID)

	if class != nil && class.Attrs.Has(decls.AttrExposeMembers) &&
		c.canInferImplicit(d, allowImplicit) {
		return Reason{Kind: ReasonMembersClassMember}, true
	}

	if d.Override.IsValid() {
		if base := c.graph.Get(d.Override); base != nil && base.Exposed {
			return OverrideReason(d.Override), true
		}
	}

	if class != nil && len(d.Witnesses) > 0 {
		for _, req := range d.Witnesses {
			if r := c.graph.Get(req); r != nil && r.Exposed {
				return WitnessReason(req), true
			}
		}
	}

	if dyn := d.Attrs.Get(decls.AttrDynamic); dyn != nil && !dyn.Invalid {
		if dyn.Implicit {
			return Reason{Kind: ReasonImplicit}, true
		}
		if c.opts.LegacyInference {
			if c.opts.LegacyWarnings != LegacyWarnNone && !(d.Kind == decls.DeclAccessor && d.Accessor.IsGetterOrSetter()) {
				diag.ReportWarning(c.reporter, diag.ExpDynamicDeprecated, dyn.Span,
					"inferring exposure from the dynamic attribute is deprecated; mark the declaration for exposure explicitly").
					Emit()
			}
			return Reason{Kind: ReasonExplicitDynamic}, true
		}
		diag.ReportError(c.reporter, diag.ExpDynamicNeedsExposed, dyn.Span,
			"dynamic dispatch requires the declaration to be exposed to the foreign runtime").
			Emit()
		return Reason{Kind: ReasonImplicit}, true
	}

	// Legacy whole-hierarchy inference: every eligible member of a class
	// with foreign ancestry is exposed.
	if !c.opts.LegacyInference {
		return Reason{}, false
	}
	if !c.canInferImplicit(d, allowImplicit) {
		return Reason{}, false
	}
	if class == nil || class.ForeignDefined {
		return Reason{}, false
	}
	if c.graph.Ancestry(classID) == decls.AncestryNone {
		return Reason{}, false
	}
	if d.Implicit {
		return Reason{Kind: ReasonImplicit}, true
	}
	return Reason{Kind: ReasonSubclassMember}, true
}

// canInferImplicit gates inference rungs that were never asked for: invalid,
// operator, compiler-created (unless admitted) and file-private declarations
// stay native.
func (c *Checker) canInferImplicit(d *decls.Decl, allowImplicit bool) bool {
	if d.Invalid || d.Operator {
		return false
	}
	if d.Implicit && !allowImplicit {
		return false
	}
	return d.Access > decls.AccessFilePrivate
}
