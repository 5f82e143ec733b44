package graphio

import (
	"fmt"
	"strings"

	"expose/internal/decls"
	"expose/internal/diag"
	"expose/internal/expose"
	"expose/internal/source"
	"expose/internal/types"
)

// Build is the loaded form of one fixture: a declaration graph plus the
// interners it references and the language mode it asked for.
type Build struct {
	Module  string
	Strings *source.Interner
	Types   *types.Interner
	Graph   *decls.Graph
	Opts    expose.LangOpts
	File    source.FileID
}

// cIntegerAliases mirrors the checker's fixed alias list; the prelude
// publishes each under std so the foreign-integer cache resolves them.
var cIntegerAliases = map[string]types.Type{
	"CChar":      types.MakeInt(types.Width8),
	"CSChar":     types.MakeInt(types.Width8),
	"CUChar":     types.MakeUint(types.Width8),
	"CShort":     types.MakeInt(types.Width16),
	"CUShort":    types.MakeUint(types.Width16),
	"CInt":       types.MakeInt(types.Width32),
	"CUInt":      types.MakeUint(types.Width32),
	"CLong":      types.MakeInt(types.Width64),
	"CULong":     types.MakeUint(types.Width64),
	"CLongLong":  types.MakeInt(types.Width64),
	"CULongLong": types.MakeUint(types.Width64),
}

// BuildGraph reads a fixture and assembles the declaration graph. Resolution
// problems are reported through rep with Load codes; the returned Build is
// usable when only recoverable problems occurred.
func BuildGraph(fs *source.FileSet, path string, rep diag.Reporter) (*Build, error) {
	m, fid, err := ReadManifest(fs, path)
	if err != nil {
		return nil, err
	}
	return buildFromManifest(m, fid, rep)
}

// BuildGraphBytes is BuildGraph for an in-memory fixture.
func BuildGraphBytes(fs *source.FileSet, name string, content []byte, rep diag.Reporter) (*Build, error) {
	m, fid, err := ReadManifestBytes(fs, name, content)
	if err != nil {
		return nil, err
	}
	return buildFromManifest(m, fid, rep)
}

func buildFromManifest(m *Manifest, fid source.FileID, rep diag.Reporter) (*Build, error) {
	strs := source.NewInterner()
	in := types.NewInterner()
	g := decls.NewGraph(strs)

	b := &builder{
		manifest: m,
		strs:     strs,
		in:       in,
		g:        g,
		rep:      rep,
		fid:      fid,
		module:   strs.Intern(m.Module),
		byID:     make(map[string]decls.DeclID),
		local:    make(map[string]types.TypeID),
	}
	b.installPrelude()

	opts, err := b.langOpts()
	if err != nil {
		return nil, err
	}
	b.declareTypes()
	b.declareDecls()
	b.resolveDecls()
	b.registerBridges()

	return &Build{
		Module:  m.Module,
		Strings: strs,
		Types:   in,
		Graph:   g,
		Opts:    opts,
		File:    fid,
	}, nil
}

type builder struct {
	manifest *Manifest
	strs     *source.Interner
	in       *types.Interner
	g        *decls.Graph
	rep      diag.Reporter
	fid      source.FileID
	module   source.StringID
	byID     map[string]decls.DeclID
	local    map[string]types.TypeID
}

// span gives each manifest entry a stable synthetic span so diagnostics sort
// deterministically and dedup correctly.
func (b *builder) span(ord int) source.Span {
	off := uint32(ord)
	return source.Span{File: b.fid, Start: off, End: off + 1}
}

// installPrelude publishes the library surface every fixture can assume: the
// foreign root and error classes, the boolean typedef, the selector type,
// std Bool, the universal error protocol and the foreign integer aliases.
func (b *builder) installPrelude() {
	foreignMod := b.strs.Intern("foreign")
	stdMod := b.strs.Intern("std")

	class := func(name string) {
		n := b.strs.Intern(name)
		t := b.in.RegisterNominal(types.KindClass, n, source.Span{})
		b.g.New(decls.Decl{
			Name: n, Kind: decls.DeclClass, DeclaredType: t,
			ForeignDefined: true, Exposed: true, Access: decls.AccessOpen,
		})
		b.g.RegisterModuleType(foreignMod, n, t)
	}
	class("ObjectRoot")
	class("ForeignError")

	b.g.RegisterModuleType(foreignMod, b.strs.Intern("ForeignBool"),
		b.in.Intern(types.MakeUint(types.Width8)))
	b.g.RegisterModuleType(foreignMod, b.strs.Intern("Selector"),
		b.in.RegisterNominal(types.KindStruct, b.strs.Intern("Selector"), source.Span{}))

	b.g.RegisterModuleType(stdMod, b.strs.Intern("Bool"), b.in.Builtins().Bool)
	errProto := b.in.RegisterNominal(types.KindProtocol, b.strs.Intern("Error"), source.Span{})
	b.g.New(decls.Decl{
		Name: b.strs.Intern("Error"), Kind: decls.DeclProtocol,
		DeclaredType: errProto, Exposed: true, Access: decls.AccessOpen,
	})
	b.g.RegisterModuleType(stdMod, b.strs.Intern("Error"), errProto)

	for name, t := range cIntegerAliases {
		b.g.RegisterModuleType(stdMod, b.strs.Intern(name), b.in.Intern(t))
	}
}

func (b *builder) langOpts() (expose.LangOpts, error) {
	o := b.manifest.Options
	opts := expose.LangOpts{
		LegacyInference:         o.LegacyInference,
		AttrRequiresForeignRoot: o.NativeRootAttr,
		InteropEnabled:          !o.InteropDisabled,
	}
	switch o.LegacyWarnings {
	case "", "none":
		opts.LegacyWarnings = expose.LegacyWarnNone
	case "minimal":
		opts.LegacyWarnings = expose.LegacyWarnMinimal
	case "complete":
		opts.LegacyWarnings = expose.LegacyWarnComplete
	default:
		return opts, fmt.Errorf("unknown legacy_warnings mode %q", o.LegacyWarnings)
	}
	return opts, nil
}

// resolveType implements the fixture scope: local names first, then the std
// and foreign preludes; qualified names go straight to the module table.
func (b *builder) resolveType(module, name string) (types.TypeID, bool) {
	if module != "" {
		return b.g.ResolveType(b.strs.Intern(module), b.strs.Intern(name))
	}
	if t, ok := b.local[name]; ok {
		return t, true
	}
	if t, ok := b.g.ResolveType(b.strs.Intern("std"), b.strs.Intern(name)); ok {
		return t, true
	}
	return b.g.ResolveType(b.strs.Intern("foreign"), b.strs.Intern(name))
}

func (b *builder) parseType(expr string, ord int) types.TypeID {
	if expr == "" {
		return b.in.Builtins().Void
	}
	t, err := ParseTypeExpr(expr, b.in, b.resolveType)
	if err != nil {
		diag.ReportError(b.rep, diag.LoadBadTypeExpr, b.span(ord), err.Error()).Emit()
		return types.NoTypeID
	}
	return t
}

// declareTypes mints the standalone nominal types and publishes them under
// the fixture module.
func (b *builder) declareTypes() {
	for i, entry := range b.manifest.Types {
		var kind types.Kind
		switch entry.Kind {
		case "struct", "":
			kind = types.KindStruct
		case "enum":
			kind = types.KindEnum
		default:
			diag.ReportError(b.rep, diag.LoadUnknownType, b.span(i),
				fmt.Sprintf("type %q has unknown kind %q", entry.Name, entry.Kind)).Emit()
			continue
		}
		if _, dup := b.local[entry.Name]; dup {
			diag.ReportError(b.rep, diag.LoadDuplicateModule, b.span(i),
				fmt.Sprintf("type %q declared twice", entry.Name)).Emit()
			continue
		}
		n := b.strs.Intern(entry.Name)
		t := b.in.RegisterNominal(kind, n, b.span(i))
		b.local[entry.Name] = t
		b.g.RegisterModuleType(b.module, n, t)
	}
}

// declareDecls creates declaration skeletons so later entries can refer to
// earlier and later ones by id. Classes and protocols mint declared types
// here; everything else is filled in by resolveDecls.
func (b *builder) declareDecls() {
	for i, entry := range b.manifest.Decls {
		key := entry.ID
		if key == "" {
			key = entry.Name
		}
		if _, dup := b.byID[key]; dup {
			diag.ReportError(b.rep, diag.LoadDuplicateModule, b.span(i),
				fmt.Sprintf("declaration id %q used twice", key)).Emit()
			continue
		}
		kind, ok := declKind(entry.Kind)
		if !ok {
			diag.ReportError(b.rep, diag.LoadBadManifest, b.span(i),
				fmt.Sprintf("declaration %q has unknown kind %q", key, entry.Kind)).Emit()
			continue
		}
		d := decls.Decl{
			Name:     b.strs.Intern(entry.Name),
			Kind:     kind,
			Span:     b.span(i),
			File:     b.fid,
			Access:   accessLevel(entry.Access),
			Implicit: entry.Implicit,
			Invalid:  entry.Invalid,
			Operator: entry.Operator,
			Generics: entry.Generics,
		}
		switch kind {
		case decls.DeclClass, decls.DeclProtocol:
			tk := types.KindClass
			if kind == decls.DeclProtocol {
				tk = types.KindProtocol
			}
			t := b.in.RegisterNominal(tk, d.Name, d.Span)
			d.DeclaredType = t
			d.ForeignDefined = entry.Foreign
			d.ForeignKind = foreignKind(entry.ForeignKind)
			b.local[entry.Name] = t
			b.g.RegisterModuleType(b.module, d.Name, t)
		case decls.DeclFunc, decls.DeclInit, decls.DeclDestructor, decls.DeclAccessor:
			d.Instance = !entry.Static
			d.Throws = entry.Throws
			d.Failable = entry.Failable
			d.Accessor = accessorKind(entry.Accessor)
			if entry.Throws {
				d.ThrowsSpan = d.Span
			}
		case decls.DeclVar, decls.DeclSubscript:
			d.Instance = !entry.Static
			d.RefStorage = entry.RefStorage
		case decls.DeclExtension:
			d.Constrained = entry.Constrained
		}
		b.byID[key] = b.g.New(d)
	}
}

// resolveDecls fills in everything that needs cross-references or type
// expressions: parents, hierarchies, signatures, attributes.
func (b *builder) resolveDecls() {
	for i, entry := range b.manifest.Decls {
		key := entry.ID
		if key == "" {
			key = entry.Name
		}
		id, ok := b.byID[key]
		if !ok {
			continue // skeleton creation already failed
		}
		d := b.g.Get(id)

		d.Parent = b.refDecl(entry.Parent, i)
		d.Superclass = b.refDecl(entry.Superclass, i)
		d.Extended = b.refDecl(entry.Extends, i)
		d.Override = b.refDecl(entry.Override, i)
		d.Storage = b.refDecl(entry.Storage, i)
		for _, w := range entry.Witnesses {
			if wid := b.refDecl(w, i); wid.IsValid() {
				d.Witnesses = append(d.Witnesses, wid)
			}
		}

		if len(entry.Params) > 0 {
			d.Params = make([]decls.Param, 0, len(entry.Params))
			for _, p := range entry.Params {
				d.Params = append(d.Params, decls.Param{
					Label:    b.strs.Intern(p.Label),
					Type:     b.parseType(p.Type, i),
					Variadic: p.Variadic,
					InOut:    p.InOut,
					Span:     d.Span,
				})
			}
		}
		if d.Kind.IsFuncLike() || d.Kind == decls.DeclDestructor {
			d.Result = b.parseType(entry.Result, i)
		}
		if d.Kind == decls.DeclVar {
			d.Type = b.parseType(entry.Type, i)
		}
		if d.Kind == decls.DeclSubscript {
			d.IndexType = b.parseType(entry.Index, i)
			d.ElementType = b.parseType(entry.Element, i)
		}

		for _, raw := range entry.Attrs {
			if attr, ok := b.parseAttr(raw, d.Span, i); ok {
				d.Attrs.Add(attr)
			}
		}
	}
}

// refDecl resolves a declaration reference; empty means absent.
func (b *builder) refDecl(ref string, ord int) decls.DeclID {
	if ref == "" {
		return decls.NoDeclID
	}
	if id, ok := b.byID[ref]; ok {
		return id
	}
	// Prelude declarations are addressable by name through their types.
	if t, ok := b.resolveType("", ref); ok {
		if id := b.g.Owner(t); id.IsValid() {
			return id
		}
	}
	diag.ReportError(b.rep, diag.LoadUnknownDecl, b.span(ord),
		fmt.Sprintf("unknown declaration %q", ref)).Emit()
	return decls.NoDeclID
}

// parseAttr decodes "exposed", "exposed(saveTo:error:)" and friends.
func (b *builder) parseAttr(raw string, sp source.Span, ord int) (decls.Attr, bool) {
	name := raw
	var sel *decls.Selector
	if open := strings.IndexByte(raw, '('); open >= 0 {
		if !strings.HasSuffix(raw, ")") {
			diag.ReportError(b.rep, diag.LoadBadAttr, b.span(ord),
				fmt.Sprintf("malformed attribute %q", raw)).Emit()
			return decls.Attr{}, false
		}
		name = raw[:open]
		text := raw[open+1 : len(raw)-1]
		parsed, ok := decls.ParseSelector(b.strs, text)
		if !ok {
			diag.ReportError(b.rep, diag.LoadBadSelector, b.span(ord),
				fmt.Sprintf("malformed selector %q in attribute", text)).Emit()
			return decls.Attr{}, false
		}
		sel = &parsed
	}
	kind, ok := attrKind(name)
	if !ok {
		diag.ReportError(b.rep, diag.LoadBadAttr, b.span(ord),
			fmt.Sprintf("unknown attribute %q", name)).Emit()
		return decls.Attr{}, false
	}
	return decls.Attr{Kind: kind, Span: sp, Name: sel}, true
}

func (b *builder) registerBridges() {
	for i, entry := range b.manifest.Bridges {
		t, ok := b.resolveType("", entry.Type)
		if !ok {
			diag.ReportError(b.rep, diag.LoadUnknownType, b.span(i),
				fmt.Sprintf("bridge source type %q not found", entry.Type)).Emit()
			continue
		}
		target, ok := b.resolveType("", entry.Target)
		if !ok && entry.Target != "" {
			diag.ReportError(b.rep, diag.LoadUnknownType, b.span(i),
				fmt.Sprintf("bridge target type %q not found", entry.Target)).Emit()
			continue
		}
		var kind decls.BridgeKind
		switch entry.Kind {
		case "value", "":
			kind = decls.BridgeValue
		case "static":
			kind = decls.BridgeStatic
		case "error":
			kind = decls.BridgeError
		default:
			diag.ReportError(b.rep, diag.LoadBadManifest, b.span(i),
				fmt.Sprintf("unknown bridge kind %q", entry.Kind)).Emit()
			continue
		}
		b.g.RegisterBridge(t, decls.Bridge{Kind: kind, Target: target})
	}
}

func declKind(s string) (decls.DeclKind, bool) {
	switch s {
	case "class":
		return decls.DeclClass, true
	case "protocol":
		return decls.DeclProtocol, true
	case "extension":
		return decls.DeclExtension, true
	case "func":
		return decls.DeclFunc, true
	case "init":
		return decls.DeclInit, true
	case "deinit":
		return decls.DeclDestructor, true
	case "accessor":
		return decls.DeclAccessor, true
	case "var":
		return decls.DeclVar, true
	case "subscript":
		return decls.DeclSubscript, true
	default:
		return decls.DeclInvalid, false
	}
}

func accessLevel(s string) decls.AccessLevel {
	switch s {
	case "private":
		return decls.AccessPrivate
	case "fileprivate":
		return decls.AccessFilePrivate
	case "public":
		return decls.AccessPublic
	case "open":
		return decls.AccessOpen
	default:
		return decls.AccessInternal
	}
}

func accessorKind(s string) decls.AccessorKind {
	switch s {
	case "get":
		return decls.AccessorGet
	case "set":
		return decls.AccessorSet
	case "willset":
		return decls.AccessorWillSet
	case "didset":
		return decls.AccessorDidSet
	case "address":
		return decls.AccessorAddress
	case "mutable_address":
		return decls.AccessorMutableAddress
	default:
		return decls.AccessorNone
	}
}

func foreignKind(s string) decls.ForeignClassKind {
	switch s {
	case "ref_counted":
		return decls.ForeignRefCounted
	case "runtime_only":
		return decls.ForeignRuntimeOnly
	default:
		return decls.ForeignNormal
	}
}

func attrKind(s string) (decls.AttrKind, bool) {
	switch s {
	case "exposed":
		return decls.AttrExposed, true
	case "never_expose":
		return decls.AttrNeverExpose, true
	case "expose_members":
		return decls.AttrExposeMembers, true
	case "dynamic":
		return decls.AttrDynamic, true
	case "outlet":
		return decls.AttrOutlet, true
	case "action":
		return decls.AttrAction, true
	case "inspectable":
		return decls.AttrInspectable, true
	case "game_inspectable":
		return decls.AttrGameInspectable, true
	case "managed":
		return decls.AttrManaged, true
	case "runtime_name":
		return decls.AttrRuntimeName, true
	default:
		return decls.AttrInvalid, false
	}
}
