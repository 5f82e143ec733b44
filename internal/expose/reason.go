package expose

import (
	"fmt"

	"expose/internal/decls"
	"expose/internal/diag"
)

// ReasonKind tags why a declaration is (or should be) exposed to the foreign
// runtime. The tag decides both whether failures are diagnosed and how the
// "marked X" clause of a diagnostic reads.
type ReasonKind uint8

const (
	// ReasonExplicitAttr: the exposure attribute appears on the declaration.
	ReasonExplicitAttr ReasonKind = iota
	// ReasonExplicitDynamic: the dynamic-dispatch attribute appears.
	ReasonExplicitDynamic
	// ReasonOutlet: the UI connection-point attribute appears.
	ReasonOutlet
	// ReasonAction: the UI action attribute appears.
	ReasonAction
	// ReasonInspectable: the designer-editable attribute appears.
	ReasonInspectable
	// ReasonGameInspectable: the game-editor attribute appears.
	ReasonGameInspectable
	// ReasonManaged: the persistence-runtime attribute appears.
	ReasonManaged
	// ReasonProtocolMember: the declaration is a member of an exposed protocol.
	ReasonProtocolMember
	// ReasonExtensionMember: member of an exposure-marked class extension.
	ReasonExtensionMember
	// ReasonSubclassMember: legacy inference from a foreign-rooted class.
	// Failures are not diagnosed.
	ReasonSubclassMember
	// ReasonMembersClassMember: member of an expose-all-members class.
	// Failures are not diagnosed.
	ReasonMembersClassMember
	// ReasonOverride: overrides an already-exposed declaration.
	ReasonOverride
	// ReasonWitness: satisfies a requirement of an exposed protocol.
	ReasonWitness
	// ReasonImplicit: exposure implied by the declaration itself (foreign
	// ancestry, recovery paths).
	ReasonImplicit
	// ReasonAccessor: an accessor of exposed storage. Failures are not
	// diagnosed; the storage was already checked.
	ReasonAccessor
)

// Reason is an exposure reason with its payload: the overridden declaration
// for ReasonOverride, the witnessed requirement for ReasonWitness.
type Reason struct {
	Kind        ReasonKind
	Overridden  decls.DeclID
	Requirement decls.DeclID
}

// WitnessReason builds a ReasonWitness carrying the requirement satisfied.
func WitnessReason(req decls.DeclID) Reason {
	return Reason{Kind: ReasonWitness, Requirement: req}
}

// OverrideReason builds a ReasonOverride carrying the overridden declaration.
func OverrideReason(base decls.DeclID) Reason {
	return Reason{Kind: ReasonOverride, Overridden: base}
}

// ShouldDiagnose reports whether representability failures under this reason
// produce user-visible diagnostics. Inference-driven reasons fail silently:
// the member just is not exposed. The inspectable attributes are silent only
// under legacy whole-hierarchy inference, where they historically implied
// exposure without demanding it.
func (r Reason) ShouldDiagnose(opts LangOpts) bool {
	switch r.Kind {
	case ReasonSubclassMember, ReasonMembersClassMember, ReasonAccessor:
		return false
	case ReasonInspectable, ReasonGameInspectable:
		return !opts.LegacyInference
	default:
		return true
	}
}

// attrDescription renders the "marked X" clause for diagnostics. Panics on
// silent reasons: messages must never be built for them, so reaching here
// with one is a checker bug.
func (r Reason) attrDescription() string {
	switch r.Kind {
	case ReasonExplicitAttr:
		return "marked for exposure"
	case ReasonExplicitDynamic:
		return "marked dynamic"
	case ReasonOutlet:
		return "declared as an outlet"
	case ReasonAction:
		return "declared as an action"
	case ReasonInspectable:
		return "declared inspectable"
	case ReasonGameInspectable:
		return "declared game-inspectable"
	case ReasonManaged:
		return "declared as managed storage"
	case ReasonProtocolMember:
		return "a member of an exposed protocol"
	case ReasonExtensionMember:
		return "declared in an exposed extension"
	case ReasonOverride:
		return "an override of an exposed declaration"
	case ReasonWitness:
		return "a witness to an exposed protocol requirement"
	case ReasonImplicit:
		return "implicitly exposed"
	default:
		panic(fmt.Sprintf("expose: no description for silent reason %d", r.Kind))
	}
}

// describe attaches the reason's explanatory note to a diagnostic: where the
// protocol membership, override or witness relation comes from.
func (c *Checker) describe(b *diag.ReportBuilder, id decls.DeclID, r Reason) *diag.ReportBuilder {
	switch r.Kind {
	case ReasonProtocolMember:
		if proto := c.graph.EnclosingProtocol(id); proto.IsValid() {
			b = b.WithNote(c.span(proto), fmt.Sprintf("protocol %q is exposed to the foreign runtime", c.declName(proto)))
		}
	case ReasonOverride:
		if r.Overridden.IsValid() {
			b = b.WithNote(c.span(r.Overridden), fmt.Sprintf("overridden declaration %q is exposed here", c.declName(r.Overridden)))
		}
	case ReasonWitness:
		if r.Requirement.IsValid() {
			b = b.WithNote(c.span(r.Requirement), fmt.Sprintf("requirement %q of an exposed protocol is declared here", c.declName(r.Requirement)))
		}
	}
	return b
}
