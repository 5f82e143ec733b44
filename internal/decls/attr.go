package decls

import (
	"expose/internal/source"
)

// AttrKind enumerates the attribute categories this subsystem consults.
// Each category appears at most once per declaration.
type AttrKind uint8

const (
	AttrInvalid AttrKind = iota
	// AttrExposed is the explicit exposure attribute; may carry a selector.
	AttrExposed
	// AttrNeverExpose opts the declaration out of exposure.
	AttrNeverExpose
	// AttrExposeMembers exposes every eligible member of a class.
	AttrExposeMembers
	// AttrDynamic forces dynamic dispatch.
	AttrDynamic
	// AttrOutlet marks a UI connection point.
	AttrOutlet
	// AttrAction marks a UI action target.
	AttrAction
	// AttrInspectable marks a designer-editable property.
	AttrInspectable
	// AttrGameInspectable marks a game-editor-editable property.
	AttrGameInspectable
	// AttrManaged marks storage managed by the persistence runtime.
	AttrManaged
	// AttrRuntimeName pins the runtime name without full exposure.
	AttrRuntimeName
)

func (k AttrKind) String() string {
	switch k {
	case AttrExposed:
		return "exposed"
	case AttrNeverExpose:
		return "never_expose"
	case AttrExposeMembers:
		return "expose_members"
	case AttrDynamic:
		return "dynamic"
	case AttrOutlet:
		return "outlet"
	case AttrAction:
		return "action"
	case AttrInspectable:
		return "inspectable"
	case AttrGameInspectable:
		return "game_inspectable"
	case AttrManaged:
		return "managed"
	case AttrRuntimeName:
		return "runtime_name"
	default:
		return "invalid"
	}
}

// Attr is a single attribute occurrence on a declaration.
type Attr struct {
	Kind AttrKind
	Span source.Span
	// Name is the explicit selector on an exposure attribute, nil if absent.
	Name *Selector
	// NameImplicit marks a Name that was computed rather than authored.
	NameImplicit bool
	// Implicit marks the whole attribute as compiler-synthesized.
	Implicit bool
	// Invalid marks an attribute rejected during checking.
	Invalid bool
	// LegacyInferred marks an exposure attribute synthesized by the legacy
	// whole-hierarchy inference mode.
	LegacyInferred bool
}

// AttrSet holds a declaration's attributes, at most one per category.
type AttrSet struct {
	attrs []Attr
}

// Has reports whether an attribute of the category is present and valid.
func (s *AttrSet) Has(kind AttrKind) bool {
	a := s.Get(kind)
	return a != nil && !a.Invalid
}

// Get returns the attribute of the category, nil when absent. Invalidated
// attributes are still returned; callers needing validity use Has.
func (s *AttrSet) Get(kind AttrKind) *Attr {
	for i := range s.attrs {
		if s.attrs[i].Kind == kind {
			return &s.attrs[i]
		}
	}
	return nil
}

// Add inserts the attribute, replacing any previous one of the category.
func (s *AttrSet) Add(a Attr) *Attr {
	for i := range s.attrs {
		if s.attrs[i].Kind == a.Kind {
			s.attrs[i] = a
			return &s.attrs[i]
		}
	}
	s.attrs = append(s.attrs, a)
	return &s.attrs[len(s.attrs)-1]
}
