package decls

import (
	"fmt"
	"sync"

	"fortio.org/safecast"

	"expose/internal/source"
	"expose/internal/types"
)

// BridgeKind classifies a registered two-way conversion between a native
// type and its foreign counterpart.
type BridgeKind uint8

const (
	// BridgeValue: conversion applied per value at the boundary.
	BridgeValue BridgeKind = iota
	// BridgeStatic: conversion resolved statically, no runtime lookup.
	BridgeStatic
	// BridgeError: the error-existential conversion to the foreign error
	// class.
	BridgeError
)

// Bridge records a conversion target for a bridged native type.
type Bridge struct {
	Kind   BridgeKind
	Target types.TypeID
}

// Graph owns all declarations plus the module-level lookup tables this
// subsystem consults. Declarations are stored in a compact arena; index 0 is
// reserved for NoDeclID.
//
// The graph is read-only during checking except for the per-declaration
// exposure fields and the two registration tables, which take locks because
// independent declarations of one class or file may be checked concurrently.
type Graph struct {
	Strings *source.Interner

	decls  []Decl
	owners map[types.TypeID]DeclID

	modules map[source.StringID]map[source.StringID]types.TypeID
	bridges map[types.TypeID]Bridge

	methodsMu    sync.Mutex
	classMethods map[DeclID]map[string][]DeclID

	fileMu      sync.Mutex
	fileMethods map[source.FileID]map[string][]DeclID
}

// NewGraph creates an empty graph backed by the given string interner.
func NewGraph(strs *source.Interner) *Graph {
	return &Graph{
		Strings:      strs,
		decls:        make([]Decl, 1, 64), // index 0 reserved
		owners:       make(map[types.TypeID]DeclID),
		modules:      make(map[source.StringID]map[source.StringID]types.TypeID),
		bridges:      make(map[types.TypeID]Bridge),
		classMethods: make(map[DeclID]map[string][]DeclID),
		fileMethods:  make(map[source.FileID]map[string][]DeclID),
	}
}

// New appends a declaration and returns its ID.
func (g *Graph) New(d Decl) DeclID {
	value, err := safecast.Conv[uint32](len(g.decls))
	if err != nil {
		panic(fmt.Errorf("decl arena overflow: %w", err))
	}
	id := DeclID(value)
	g.decls = append(g.decls, d)
	if d.DeclaredType != types.NoTypeID {
		g.owners[d.DeclaredType] = id
	}
	return id
}

// Get returns the declaration pointer or nil if the ID is invalid.
func (g *Graph) Get(id DeclID) *Decl {
	if !id.IsValid() || int(id) >= len(g.decls) {
		return nil
	}
	return &g.decls[id]
}

// Len reports the number of declarations excluding the sentinel.
func (g *Graph) Len() int { return len(g.decls) - 1 }

// All returns every DeclID in declaration order.
func (g *Graph) All() []DeclID {
	out := make([]DeclID, 0, len(g.decls)-1)
	for i := 1; i < len(g.decls); i++ {
		out = append(out, DeclID(i))
	}
	return out
}

// BindType records declID as the owner of a declared type.
func (g *Graph) BindType(t types.TypeID, id DeclID) {
	g.owners[t] = id
}

// Owner returns the declaration owning a nominal or protocol type.
func (g *Graph) Owner(t types.TypeID) DeclID {
	return g.owners[t]
}

// RegisterModuleType publishes a type under a module-qualified name.
func (g *Graph) RegisterModuleType(module, name source.StringID, t types.TypeID) {
	mod, ok := g.modules[module]
	if !ok {
		mod = make(map[source.StringID]types.TypeID)
		g.modules[module] = mod
	}
	mod[name] = t
}

// ResolveType is the module-qualified lookup contract: module + name -> type.
func (g *Graph) ResolveType(module, name source.StringID) (types.TypeID, bool) {
	mod, ok := g.modules[module]
	if !ok {
		return types.NoTypeID, false
	}
	t, ok := mod[name]
	return t, ok
}

// RegisterBridge records a conversion for a native type.
func (g *Graph) RegisterBridge(from types.TypeID, b Bridge) {
	g.bridges[from] = b
}

// BridgeFor returns the registered conversion for a type, if any.
func (g *Graph) BridgeFor(t types.TypeID) (Bridge, bool) {
	b, ok := g.bridges[t]
	return b, ok
}

// EnclosingClass resolves the class context of a declaration: its parent
// class, or the class extended by its parent extension.
func (g *Graph) EnclosingClass(id DeclID) DeclID {
	d := g.Get(id)
	if d == nil {
		return NoDeclID
	}
	parent := g.Get(d.Parent)
	if parent == nil {
		return NoDeclID
	}
	switch parent.Kind {
	case DeclClass:
		return d.Parent
	case DeclExtension:
		if ext := g.Get(parent.Extended); ext != nil && ext.Kind == DeclClass {
			return parent.Extended
		}
	}
	return NoDeclID
}

// EnclosingProtocol returns the parent protocol, if the declaration is a
// protocol member.
func (g *Graph) EnclosingProtocol(id DeclID) DeclID {
	d := g.Get(id)
	if d == nil {
		return NoDeclID
	}
	if parent := g.Get(d.Parent); parent != nil && parent.Kind == DeclProtocol {
		return d.Parent
	}
	return NoDeclID
}

// Ancestry classifies the hierarchy of a class for exposure purposes,
// walking the superclass chain from the class itself to the root.
func (g *Graph) Ancestry(classID DeclID) AncestryKind {
	sawGeneric := false
	sawForeign := false
	sawExposedRoot := false
	for cur := classID; cur.IsValid(); {
		d := g.Get(cur)
		if d == nil {
			break
		}
		if d.Generics {
			sawGeneric = true
		}
		if d.ForeignDefined {
			sawForeign = true
		}
		if !d.Superclass.IsValid() && cur != classID &&
			(d.Exposed || d.Attrs.Has(AttrExposed)) {
			sawExposedRoot = true
		}
		cur = d.Superclass
	}
	if !sawForeign && !sawExposedRoot {
		return AncestryNone
	}
	if sawGeneric {
		return AncestryGeneric
	}
	if sawForeign {
		return AncestryForeign
	}
	return AncestryNativeRoot
}

// GenericAncestor returns the nearest class in the hierarchy (including the
// class itself) that declares generic parameters.
func (g *Graph) GenericAncestor(classID DeclID) DeclID {
	for cur := classID; cur.IsValid(); {
		d := g.Get(cur)
		if d == nil {
			break
		}
		if d.Generics {
			return cur
		}
		cur = d.Superclass
	}
	return NoDeclID
}

// ZeroParamInitWithLongSelector reports the special initializer shape: a
// single labeled parameter of type Void, which encodes a zero-argument
// foreign method with a selector longer than "init".
func (g *Graph) ZeroParamInitWithLongSelector(id DeclID, in *types.Interner) bool {
	d := g.Get(id)
	if d == nil || d.Kind != DeclInit || len(d.Params) != 1 {
		return false
	}
	p := d.Params[0]
	if p.Label == source.NoStringID {
		return false
	}
	tt, ok := in.Lookup(p.Type)
	return ok && tt.Kind == types.KindVoid
}

// DefaultSelector derives the foreign name from the declared name and the
// parameter labels. Full runtime-name computation lives with the name
// mangler; this default covers inference and the reserved-name checks.
func (g *Graph) DefaultSelector(id DeclID) Selector {
	d := g.Get(id)
	if d == nil {
		return Selector{}
	}
	switch d.Kind {
	case DeclVar, DeclSubscript:
		return MakeSelector(0, d.Name)
	case DeclFunc, DeclInit, DeclAccessor, DeclDestructor:
		if len(d.Params) == 0 {
			return MakeSelector(0, d.Name)
		}
		pieces := make([]source.StringID, 0, len(d.Params))
		pieces = append(pieces, d.Name)
		for _, p := range d.Params[1:] {
			pieces = append(pieces, p.Label)
		}
		return Selector{NumArgs: uint32(len(d.Params)), Pieces: pieces}
	default:
		return MakeSelector(0, d.Name)
	}
}

// RecordClassMethod registers a method under its class, keyed by rendered
// selector. Synchronized: sibling declarations may finalize concurrently.
func (g *Graph) RecordClassMethod(class DeclID, sel string, method DeclID) {
	g.methodsMu.Lock()
	defer g.methodsMu.Unlock()
	table, ok := g.classMethods[class]
	if !ok {
		table = make(map[string][]DeclID)
		g.classMethods[class] = table
	}
	for _, existing := range table[sel] {
		if existing == method {
			return
		}
	}
	table[sel] = append(table[sel], method)
}

// ClassMethods returns the methods registered under a selector.
func (g *Graph) ClassMethods(class DeclID, sel string) []DeclID {
	g.methodsMu.Lock()
	defer g.methodsMu.Unlock()
	return g.classMethods[class][sel]
}

// RecordFileMethod registers a declaration in the per-file selector table
// used for same-file collision diagnostics.
func (g *Graph) RecordFileMethod(file source.FileID, sel string, method DeclID) {
	g.fileMu.Lock()
	defer g.fileMu.Unlock()
	table, ok := g.fileMethods[file]
	if !ok {
		table = make(map[string][]DeclID)
		g.fileMethods[file] = table
	}
	for _, existing := range table[sel] {
		if existing == method {
			return
		}
	}
	table[sel] = append(table[sel], method)
}

// FileMethods returns the declarations registered under a selector in a file.
func (g *Graph) FileMethods(file source.FileID, sel string) []DeclID {
	g.fileMu.Lock()
	defer g.fileMu.Unlock()
	return g.fileMethods[file][sel]
}
