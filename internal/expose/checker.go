// Package expose decides whether, and how, declarations of a host module can
// be exported to the selector-based foreign object runtime. It classifies
// type representability, infers exposure reasons from attributes and
// relations, synthesizes error conventions for throwing signatures and
// finalizes the computed exposure on the declaration graph.
package expose

import (
	"sync"

	"expose/internal/decls"
	"expose/internal/diag"
	"expose/internal/source"
	"expose/internal/types"
)

// LegacyWarningMode controls how loudly the legacy whole-hierarchy inference
// mode announces itself.
type LegacyWarningMode uint8

const (
	LegacyWarnNone LegacyWarningMode = iota
	LegacyWarnMinimal
	LegacyWarnComplete
)

// LangOpts are the language-mode switches consulted by the checker.
type LangOpts struct {
	// LegacyInference enables whole-hierarchy implicit exposure inference.
	LegacyInference bool
	// LegacyWarnings selects deprecation warnings for legacy inference.
	LegacyWarnings LegacyWarningMode
	// AttrRequiresForeignRoot rejects the exposure attribute on classes whose
	// hierarchy roots in a native class.
	AttrRequiresForeignRoot bool
	// InteropEnabled reports whether foreign interop is available at all.
	InteropEnabled bool
}

// DefaultLangOpts returns the current-language-mode defaults.
func DefaultLangOpts() LangOpts {
	return LangOpts{InteropEnabled: true}
}

// LangOverrides layers optional language-mode settings over the options a
// fixture declares. Nil fields leave the fixture's value alone.
type LangOverrides struct {
	LegacyInference         *bool
	LegacyWarnings          *LegacyWarningMode
	AttrRequiresForeignRoot *bool
	InteropEnabled          *bool
}

// Apply returns opts with every set override substituted in.
func (o *LangOverrides) Apply(opts LangOpts) LangOpts {
	if o == nil {
		return opts
	}
	if o.LegacyInference != nil {
		opts.LegacyInference = *o.LegacyInference
	}
	if o.LegacyWarnings != nil {
		opts.LegacyWarnings = *o.LegacyWarnings
	}
	if o.AttrRequiresForeignRoot != nil {
		opts.AttrRequiresForeignRoot = *o.AttrRequiresForeignRoot
	}
	if o.InteropEnabled != nil {
		opts.InteropEnabled = *o.InteropEnabled
	}
	return opts
}

// Well-known module and type names resolved through the graph's
// module-qualified lookup.
const (
	ModuleStd     = "std"
	ModuleForeign = "foreign"

	nameObjectRoot    = "ObjectRoot"
	nameForeignError  = "ForeignError"
	nameForeignBool   = "ForeignBool"
	nameSelectorType  = "Selector"
	nameNativeBool    = "Bool"
	nameErrorProtocol = "Error"
)

// cIntegerAliases is the fixed list of standard-library aliases for foreign
// primitive integer types, looked up once to fill the integer cache.
var cIntegerAliases = []string{
	"CChar", "CSChar", "CUChar",
	"CShort", "CUShort",
	"CInt", "CUInt",
	"CLong", "CULong",
	"CLongLong", "CULongLong",
}

// Checker carries everything one exposure-checking pass needs. The two
// process-wide caches (foreign integer set, bridging-checked flag) live here
// as explicit fields with populate-once discipline instead of globals.
type Checker struct {
	graph    *decls.Graph
	types    *types.Interner
	strings  *source.Interner
	reporter diag.Reporter
	opts     LangOpts

	intOnce     sync.Once
	foreignInts map[types.TypeID]struct{}

	bridgeOnce    sync.Once
	bridgeChecked bool

	// Lazily resolved well-known library types.
	objectRoot    types.TypeID
	errorClass    types.TypeID
	foreignBool   types.TypeID
	nativeBool    types.TypeID
	errorProtocol types.TypeID
	selectorType  types.TypeID
}

// NewChecker binds a checker to a declaration graph and a reporter.
func NewChecker(g *decls.Graph, in *types.Interner, strs *source.Interner, rep diag.Reporter, opts LangOpts) *Checker {
	if rep == nil {
		rep = diag.NopReporter{}
	}
	return &Checker{
		graph:    g,
		types:    in,
		strings:  strs,
		reporter: rep,
		opts:     opts,
	}
}

// Opts returns the language options the checker runs under.
func (c *Checker) Opts() LangOpts { return c.opts }

// Graph returns the underlying declaration graph.
func (c *Checker) Graph() *decls.Graph { return c.graph }

// resolveCached performs a module-qualified type lookup, memoizing the hit.
func (c *Checker) resolveCached(cache *types.TypeID, module, name string) types.TypeID {
	if *cache != types.NoTypeID {
		return *cache
	}
	mod := c.strings.Intern(module)
	id := c.strings.Intern(name)
	if t, ok := c.graph.ResolveType(mod, id); ok {
		*cache = t
	}
	return *cache
}

// ObjectRootType returns the foreign runtime's root object type.
func (c *Checker) ObjectRootType() types.TypeID {
	return c.resolveCached(&c.objectRoot, ModuleForeign, nameObjectRoot)
}

// ErrorClassType returns the foreign error class used for the injected
// error out-parameter.
func (c *Checker) ErrorClassType() types.TypeID {
	return c.resolveCached(&c.errorClass, ModuleForeign, nameForeignError)
}

// ForeignBoolType returns the foreign boolean typedef.
func (c *Checker) ForeignBoolType() types.TypeID {
	return c.resolveCached(&c.foreignBool, ModuleForeign, nameForeignBool)
}

// NativeBoolType returns the host standard library's Bool.
func (c *Checker) NativeBoolType() types.TypeID {
	return c.resolveCached(&c.nativeBool, ModuleStd, nameNativeBool)
}

// ErrorProtocolType returns the host's universal error protocol type.
func (c *Checker) ErrorProtocolType() types.TypeID {
	return c.resolveCached(&c.errorProtocol, ModuleStd, nameErrorProtocol)
}

// SelectorType returns the foreign selector type.
func (c *Checker) SelectorType() types.TypeID {
	return c.resolveCached(&c.selectorType, ModuleForeign, nameSelectorType)
}

// IsForeignIntegerType reports whether the type is one of the standard
// library's foreign primitive integer aliases. The backing set is populated
// on first query and is a pure membership check afterwards.
func (c *Checker) IsForeignIntegerType(t types.TypeID) bool {
	c.intOnce.Do(func() {
		c.foreignInts = make(map[types.TypeID]struct{}, len(cIntegerAliases))
		mod := c.strings.Intern(ModuleStd)
		for _, alias := range cIntegerAliases {
			if id, ok := c.graph.ResolveType(mod, c.strings.Intern(alias)); ok {
				c.foreignInts[id] = struct{}{}
			}
		}
	})
	_, ok := c.foreignInts[t]
	return ok
}

// checkBridgingSupport verifies the registered bridging conversions once per
// checker; later calls are no-ops.
func (c *Checker) checkBridgingSupport() {
	c.bridgeOnce.Do(func() {
		// Touch the conversion targets so missing library types surface as
		// resolution failures here rather than during lowering.
		c.ErrorClassType()
		c.ObjectRootType()
		c.bridgeChecked = true
	})
}

// span returns the primary span for a declaration.
func (c *Checker) span(id decls.DeclID) source.Span {
	if d := c.graph.Get(id); d != nil {
		return d.Span
	}
	return source.Span{}
}

// declName renders a declaration's name for diagnostics.
func (c *Checker) declName(id decls.DeclID) string {
	d := c.graph.Get(id)
	if d == nil {
		return "<invalid>"
	}
	name, _ := c.strings.Lookup(d.Name)
	return name
}

// typeLabel renders a type for diagnostics.
func (c *Checker) typeLabel(t types.TypeID) string {
	return c.types.Label(c.strings, t)
}
