package expose

import (
	"fmt"

	"expose/internal/decls"
	"expose/internal/diag"
	"expose/internal/foreign"
)

// MarkExposed records the outcome of checking on the declaration: the
// exposure flag, the error convention, the computed foreign name and the
// class/file registrations. reason == nil means the declaration stays
// native; the only work then is invalidating a stranded dynamic attribute.
// Calling it twice with the same outcome is harmless.
func (c *Checker) MarkExposed(id decls.DeclID, reason *Reason, conv *foreign.ErrorConvention) {
	d := c.graph.Get(id)
	if d == nil {
		return
	}

	if reason == nil {
		d.Exposed = false
		if dyn := d.Attrs.Get(decls.AttrDynamic); dyn != nil {
			dyn.Invalid = true
		}
		return
	}
	d.Exposed = true

	if never := d.Attrs.Get(decls.AttrNeverExpose); never != nil && !never.Invalid {
		// The opt-out lost. Silent reasons read as "implicitly exposed" in
		// the message; the real rung would only confuse.
		rsn := *reason
		if !rsn.ShouldDiagnose(c.opts) {
			rsn = Reason{Kind: ReasonImplicit}
		}
		b := diag.ReportError(c.reporter, diag.ExpNeverExposeConflict, never.Span,
			fmt.Sprintf("declaration is %s and cannot opt out of exposure", rsn.attrDescription()))
		c.describe(b, id, rsn).Emit()
		never.Invalid = true
	}

	if d.Kind != decls.DeclDestructor {
		c.checkBridgingSupport()
	}

	classID := c.graph.EnclosingClass(id)

	switch {
	case classID.IsValid() && d.Kind.IsFuncLike():
		if d.Throws {
			if base := c.graph.Get(d.Override); base != nil && base.Convention != nil {
				// Overrides inherit the base convention verbatim so callers
				// compiled against the base keep working.
				conv = base.Convention
			}
		}
		if conv != nil {
			d.Convention = conv
		}
		c.inferExposedName(id, d)
		sel := c.exposedSelector(id)
		c.graph.RecordClassMethod(classID, sel.String(c.strings), id)
		if !d.Instance {
			c.checkReservedSelector(id, d, sel)
		}

	case classID.IsValid() && (d.Kind == decls.DeclVar || d.Kind == decls.DeclSubscript):
		c.inferExposedName(id, d)

	case d.Kind.IsFuncLike() && conv != nil:
		d.Convention = conv
	}

	if d.Kind.IsFuncLike() {
		// Every exposed function-like declaration lands in the per-file
		// selector table, class member or not.
		c.graph.RecordFileMethod(d.File, c.exposedSelector(id).String(c.strings), id)
	}

	if reason.Kind == ReasonSubclassMember {
		c.recordLegacyInference(id, d)
	}
}

// exposedSelector returns the foreign name: the exposure attribute's name
// when one is set, the default derivation otherwise.
func (c *Checker) exposedSelector(id decls.DeclID) decls.Selector {
	if d := c.graph.Get(id); d != nil {
		if attr := d.Attrs.Get(decls.AttrExposed); attr != nil && attr.Name != nil {
			return *attr.Name
		}
	}
	return c.graph.DefaultSelector(id)
}

// inferExposedName computes the declaration's foreign name when none was
// authored, preferring the overridden declaration's name, then an exposed
// requirement it witnesses. An authored name that disagrees with the
// overridden one is diagnosed and corrected: the runtime dispatches through
// the base name.
func (c *Checker) inferExposedName(id decls.DeclID, d *decls.Decl) {
	if d.Kind == decls.DeclDestructor {
		return
	}
	attr := d.Attrs.Get(decls.AttrExposed)

	setName := func(sel decls.Selector) {
		if attr == nil {
			attr = d.Attrs.Add(decls.Attr{Kind: decls.AttrExposed, Implicit: true})
		}
		named := sel
		attr.Name = &named
		attr.NameImplicit = true
	}

	if base := c.graph.Get(d.Override); base != nil && base.Exposed {
		baseSel := c.exposedSelector(d.Override)
		if attr != nil && attr.Name != nil && !attr.Name.Equal(baseSel) {
			if !attr.NameImplicit {
				code := diag.ExpSelectorMismatch
				noun := "selector"
				if d.Kind == decls.DeclVar {
					code = diag.ExpPropertyNameMismatch
					noun = "foreign name"
				}
				diag.ReportError(c.reporter, code, attr.Span,
					fmt.Sprintf("%s %q conflicts with %q inherited from the overridden declaration",
						noun, attr.Name.String(c.strings), baseSel.String(c.strings))).
					WithNote(c.span(d.Override), "overridden declaration is here").
					WithFix(fmt.Sprintf("replace with %q", baseSel.String(c.strings)),
						diag.FixEdit{Span: attr.Span, NewText: baseSel.String(c.strings)}).
					Emit()
			}
			setName(baseSel)
			return
		}
		if attr == nil || attr.Name == nil {
			setName(baseSel)
		}
		return
	}

	if attr != nil && attr.Name != nil {
		return
	}

	var reqName *decls.Selector
	var firstReq decls.DeclID
	ambiguous := false
	for _, reqID := range d.Witnesses {
		req := c.graph.Get(reqID)
		if req == nil || !req.Exposed {
			continue
		}
		cand := c.exposedSelector(reqID)
		if reqName == nil {
			named := cand
			reqName = &named
			firstReq = reqID
			continue
		}
		if !reqName.Equal(cand) {
			diag.ReportError(c.reporter, diag.ExpAmbiguousNameInference, c.span(id),
				fmt.Sprintf("cannot infer a foreign name for %q: witnessed requirements disagree", c.declName(id))).
				WithNote(c.span(firstReq), fmt.Sprintf("requirement here uses %q", reqName.String(c.strings))).
				WithNote(c.span(reqID), fmt.Sprintf("requirement here uses %q", cand.String(c.strings))).
				WithFix("opt the declaration out of exposure",
					diag.FixEdit{Span: c.span(id), NewText: ""}).
				Emit()
			ambiguous = true
			break
		}
	}
	if reqName != nil && !ambiguous {
		setName(*reqName)
	}
}

// Class-side selectors the runtime claims for itself. Exposing a class
// method under one of them corrupts runtime bootstrapping.
func reservedClassSelector(sel decls.Selector, rendered string) bool {
	switch rendered {
	case "load", "alloc", "initialize":
		return sel.NumArgs == 0
	case "allocWithRegion:":
		return sel.NumArgs == 1
	}
	return false
}

// checkReservedSelector rejects class methods whose selector collides with
// the runtime's own entry points. Under legacy inference "initialize" is
// downgraded to a warning: existing code shipped with it.
func (c *Checker) checkReservedSelector(id decls.DeclID, d *decls.Decl, sel decls.Selector) {
	rendered := sel.String(c.strings)
	if !reservedClassSelector(sel, rendered) {
		return
	}
	msg := fmt.Sprintf("class method with selector %q collides with a reserved foreign runtime entry point", rendered)
	if rendered == "initialize" && c.opts.LegacyInference {
		diag.ReportWarning(c.reporter, diag.ExpReservedClassSelector, c.span(id), msg).Emit()
		return
	}
	diag.ReportError(c.reporter, diag.ExpReservedClassSelector, c.span(id), msg).Emit()
}

// recordLegacyInference synthesizes the exposure attribute on members that
// legacy whole-hierarchy inference exposed, so later phases see a uniform
// attribute surface, and optionally warns that the inference is going away.
func (c *Checker) recordLegacyInference(id decls.DeclID, d *decls.Decl) {
	if c.opts.LegacyWarnings == LegacyWarnComplete &&
		!(d.Kind == decls.DeclAccessor && d.Accessor.IsGetterOrSetter()) {
		diag.ReportWarning(c.reporter, diag.ExpLegacyMemberInference, c.span(id),
			fmt.Sprintf("%s is exposed to the foreign runtime only by legacy inference from its class hierarchy", d.Kind)).
			WithFix("expose the declaration explicitly", diag.FixEdit{Span: c.span(id), NewText: ""}).
			WithFix("keep the declaration native", diag.FixEdit{Span: c.span(id), NewText: ""}).
			Emit()
	}
	attr := d.Attrs.Get(decls.AttrExposed)
	if attr == nil {
		attr = d.Attrs.Add(decls.Attr{Kind: decls.AttrExposed, Implicit: true})
	}
	attr.LegacyInferred = true
}
