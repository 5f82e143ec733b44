package expose

import (
	"testing"

	"expose/internal/decls"
	"expose/internal/diag"
	"expose/internal/foreign"
	"expose/internal/source"
	"expose/internal/types"
)

type env struct {
	strs *source.Interner
	in   *types.Interner
	g    *decls.Graph
	bag  *diag.Bag
	c    *Checker

	objectRoot decls.DeclID
	rootType   types.TypeID
	errorType  types.TypeID
	errorProto types.TypeID
	fboolType  types.TypeID
}

// newEnv builds a graph seeded with the minimal library surface the checker
// resolves through module lookup.
func newEnv(opts LangOpts) *env {
	strs := source.NewInterner()
	in := types.NewInterner()
	g := decls.NewGraph(strs)
	bag := diag.NewBag(64)
	e := &env{strs: strs, in: in, g: g, bag: bag}
	e.c = NewChecker(g, in, strs, diag.BagReporter{Bag: bag}, opts)

	foreignMod := strs.Intern(ModuleForeign)
	stdMod := strs.Intern(ModuleStd)

	e.objectRoot, e.rootType = e.newClass("ObjectRoot", decls.NoDeclID, func(d *decls.Decl) {
		d.ForeignDefined = true
		d.Exposed = true
	})
	g.RegisterModuleType(foreignMod, strs.Intern("ObjectRoot"), e.rootType)

	_, e.errorType = e.newClass("ForeignError", decls.NoDeclID, func(d *decls.Decl) {
		d.ForeignDefined = true
		d.Exposed = true
	})
	g.RegisterModuleType(foreignMod, strs.Intern("ForeignError"), e.errorType)

	e.fboolType = in.Intern(types.MakeUint(types.Width8))
	g.RegisterModuleType(foreignMod, strs.Intern("ForeignBool"), e.fboolType)
	g.RegisterModuleType(stdMod, strs.Intern("Bool"), in.Builtins().Bool)

	e.errorProto = in.RegisterNominal(types.KindProtocol, strs.Intern("Error"), source.Span{})
	g.RegisterModuleType(stdMod, strs.Intern("Error"), e.errorProto)
	return e
}

func (e *env) newClass(name string, super decls.DeclID, mut func(*decls.Decl)) (decls.DeclID, types.TypeID) {
	n := e.strs.Intern(name)
	t := e.in.RegisterNominal(types.KindClass, n, source.Span{})
	d := decls.Decl{
		Name: n, Kind: decls.DeclClass, DeclaredType: t,
		Superclass: super, Access: decls.AccessInternal,
	}
	if mut != nil {
		mut(&d)
	}
	return e.g.New(d), t
}

func (e *env) method(class decls.DeclID, name string, params []decls.Param, result types.TypeID, mut func(*decls.Decl)) decls.DeclID {
	d := decls.Decl{
		Name: e.strs.Intern(name), Kind: decls.DeclFunc, Parent: class,
		Params: params, Result: result, Instance: true,
		Access: decls.AccessInternal,
	}
	if mut != nil {
		mut(&d)
	}
	return e.g.New(d)
}

func (e *env) codes() []diag.Code {
	out := make([]diag.Code, 0, e.bag.Len())
	for _, d := range e.bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func (e *env) countCode(code diag.Code) int {
	n := 0
	for _, c := range e.codes() {
		if c == code {
			n++
		}
	}
	return n
}

func (e *env) hasCode(code diag.Code) bool { return e.countCode(code) > 0 }

var explicitReason = Reason{Kind: ReasonExplicitAttr}

func TestClassifyScalarsAndOptionals(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	intT := e.in.Builtins().Int

	if got := e.c.Classify(intT); got != Trivial {
		t.Fatalf("Int classified as %v", got)
	}
	if got := e.c.Classify(e.in.Optional(intT)); got != NotRepresentable {
		t.Fatalf("Int? classified as %v; no nil sentinel exists", got)
	}
	if got := e.c.Classify(e.rootType); got != Object {
		t.Fatalf("foreign class classified as %v", got)
	}
	if got := e.c.Classify(e.in.Optional(e.rootType)); got != Object {
		t.Fatalf("optional foreign class classified as %v", got)
	}

	_, hidden := e.newClass("Hidden", decls.NoDeclID, nil)
	if got := e.c.Classify(hidden); got != NotRepresentable {
		t.Fatalf("unexposed class classified as %v", got)
	}
}

func TestClassifyBridgedNominals(t *testing.T) {
	e := newEnv(DefaultLangOpts())

	point := e.in.RegisterNominal(types.KindStruct, e.strs.Intern("Point"), source.Span{})
	if got := e.c.Classify(point); got != NotRepresentable {
		t.Fatalf("unbridged struct classified as %v", got)
	}
	e.g.RegisterBridge(point, decls.Bridge{Kind: decls.BridgeValue, Target: e.rootType})
	if got := e.c.Classify(point); got != Bridged {
		t.Fatalf("bridged struct classified as %v", got)
	}

	url := e.in.RegisterNominal(types.KindStruct, e.strs.Intern("URL"), source.Span{})
	e.g.RegisterBridge(url, decls.Bridge{Kind: decls.BridgeStatic, Target: e.rootType})
	if got := e.c.Classify(url); got != StaticBridged {
		t.Fatalf("statically bridged struct classified as %v", got)
	}
}

func TestClassifyExistential(t *testing.T) {
	e := newEnv(DefaultLangOpts())

	protoT := e.in.RegisterNominal(types.KindProtocol, e.strs.Intern("Renderer"), source.Span{})
	protoID := e.g.New(decls.Decl{Name: e.strs.Intern("Renderer"), Kind: decls.DeclProtocol, DeclaredType: protoT, Exposed: true})
	_ = protoID

	comp := e.in.RegisterExistential([]types.TypeID{protoT}, types.NoTypeID)
	if got := e.c.Classify(comp); got != Object {
		t.Fatalf("exposed protocol composition classified as %v", got)
	}

	hiddenT := e.in.RegisterNominal(types.KindProtocol, e.strs.Intern("Internal"), source.Span{})
	e.g.New(decls.Decl{Name: e.strs.Intern("Internal"), Kind: decls.DeclProtocol, DeclaredType: hiddenT})
	mixed := e.in.RegisterExistential([]types.TypeID{protoT, hiddenT}, types.NoTypeID)
	if got := e.c.Classify(mixed); got != NotRepresentable {
		t.Fatalf("composition with unexposed member classified as %v", got)
	}

	errComp := e.in.RegisterExistential([]types.TypeID{e.errorProto}, types.NoTypeID)
	if got := e.c.Classify(errComp); got != BridgedError {
		t.Fatalf("error existential classified as %v", got)
	}
}

func TestClassifyFnTypes(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	intT := e.in.Builtins().Int

	plain := e.in.RegisterFn([]types.TypeID{intT}, e.in.Builtins().Void, false)
	if got := e.c.Classify(plain); got != Object {
		t.Fatalf("block type classified as %v", got)
	}
	throwing := e.in.RegisterFn([]types.TypeID{intT}, e.in.Builtins().Void, true)
	if got := e.c.Classify(throwing); got != NotRepresentable {
		t.Fatalf("throwing fn type classified as %v", got)
	}
}

func TestVariadicParamRejected(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Widget", e.objectRoot, func(d *decls.Decl) { d.Exposed = true })
	m := e.method(class, "log", []decls.Param{
		{Label: e.strs.Intern("items"), Type: e.in.Builtins().Int, Variadic: true},
	}, e.in.Builtins().Void, nil)

	if _, ok := e.c.FuncIsRepresentable(m, explicitReason); ok {
		t.Fatalf("variadic parameter accepted")
	}
	if !e.hasCode(diag.ExpVariadicParam) {
		t.Fatalf("missing variadic diagnostic, got %v", e.codes())
	}
}

func TestSilentReasonProducesNoDiagnostics(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Widget", e.objectRoot, func(d *decls.Decl) { d.Exposed = true })
	m := e.method(class, "log", []decls.Param{
		{Label: e.strs.Intern("items"), Type: e.in.Builtins().Int, InOut: true},
	}, e.in.Builtins().Void, nil)

	if _, ok := e.c.FuncIsRepresentable(m, Reason{Kind: ReasonSubclassMember}); ok {
		t.Fatalf("inout parameter accepted")
	}
	if e.bag.Len() != 0 {
		t.Fatalf("silent reason emitted diagnostics: %v", e.codes())
	}
}

func TestEveryBadParamDiagnosed(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Widget", e.objectRoot, func(d *decls.Decl) { d.Exposed = true })
	_, hidden := e.newClass("Hidden", decls.NoDeclID, nil)
	m := e.method(class, "update", []decls.Param{
		{Label: e.strs.Intern("a"), Type: hidden},
		{Label: e.strs.Intern("b"), Type: e.in.Builtins().Int},
		{Label: e.strs.Intern("c"), Type: hidden},
	}, e.in.Builtins().Void, nil)

	if _, ok := e.c.FuncIsRepresentable(m, explicitReason); ok {
		t.Fatalf("non-representable parameters accepted")
	}
	if got := e.countCode(diag.ExpParamNotRepresentable); got != 2 {
		t.Fatalf("expected 2 parameter diagnostics, got %d (%v)", got, e.codes())
	}
}

func TestResultNotRepresentable(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Widget", e.objectRoot, func(d *decls.Decl) { d.Exposed = true })
	tuple := e.in.RegisterTuple([]types.TypeID{e.in.Builtins().Int, e.in.Builtins().Int})
	m := e.method(class, "bounds", nil, tuple, nil)

	if _, ok := e.c.FuncIsRepresentable(m, explicitReason); ok {
		t.Fatalf("tuple result accepted")
	}
	if !e.hasCode(diag.ExpResultNotRepresentable) {
		t.Fatalf("missing result diagnostic, got %v", e.codes())
	}
}

func TestOperatorRejected(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Vec", e.objectRoot, func(d *decls.Decl) { d.Exposed = true })
	m := e.method(class, "+", []decls.Param{
		{Label: e.strs.Intern("rhs"), Type: e.in.Builtins().Int},
	}, e.in.Builtins().Int, func(d *decls.Decl) { d.Operator = true })

	if _, ok := e.c.FuncIsRepresentable(m, explicitReason); ok {
		t.Fatalf("operator accepted")
	}
	if !e.hasCode(diag.ExpOperator) {
		t.Fatalf("missing operator diagnostic, got %v", e.codes())
	}
}

func TestAccessorRules(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Widget", e.objectRoot, func(d *decls.Decl) { d.Exposed = true })
	storage := e.g.New(decls.Decl{
		Name: e.strs.Intern("title"), Kind: decls.DeclVar, Parent: class,
		Type: e.rootType, Exposed: true, Access: decls.AccessInternal,
	})

	getter := e.g.New(decls.Decl{
		Name: e.strs.Intern("title"), Kind: decls.DeclAccessor, Parent: class,
		Accessor: decls.AccessorGet, Storage: storage, Instance: true,
	})
	if _, ok := e.c.FuncIsRepresentable(getter, Reason{Kind: ReasonAccessor}); !ok {
		t.Fatalf("getter of exposed storage rejected")
	}

	observer := e.g.New(decls.Decl{
		Name: e.strs.Intern("title"), Kind: decls.DeclAccessor, Parent: class,
		Accessor: decls.AccessorWillSet, Storage: storage, Instance: true,
	})
	if _, ok := e.c.FuncIsRepresentable(observer, explicitReason); ok {
		t.Fatalf("observing accessor accepted")
	}
	if !e.hasCode(diag.ExpObservingAccessor) {
		t.Fatalf("missing observing accessor diagnostic, got %v", e.codes())
	}
}

func TestConstrainedExtensionRejected(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Widget", e.objectRoot, func(d *decls.Decl) { d.Exposed = true })
	ext := e.g.New(decls.Decl{Kind: decls.DeclExtension, Extended: class, Constrained: true})
	m := e.method(ext, "refresh", nil, e.in.Builtins().Void, nil)

	if _, ok := e.c.FuncIsRepresentable(m, explicitReason); ok {
		t.Fatalf("member of constrained extension accepted")
	}
	if !e.hasCode(diag.ExpInConstrainedExtension) {
		t.Fatalf("missing extension diagnostic, got %v", e.codes())
	}
}

func TestRefCountedForeignClassRejected(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Handle", decls.NoDeclID, func(d *decls.Decl) {
		d.ForeignDefined = true
		d.Exposed = true
		d.ForeignKind = decls.ForeignRefCounted
	})
	m := e.method(class, "retainCount", nil, e.in.Builtins().Int, nil)

	if _, ok := e.c.FuncIsRepresentable(m, explicitReason); ok {
		t.Fatalf("member of reference-counted foreign class accepted")
	}
	if !e.hasCode(diag.ExpInForeignRefClass) {
		t.Fatalf("missing ref-class diagnostic, got %v", e.codes())
	}
}

func TestConventionVoidResult(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Store", e.objectRoot, func(d *decls.Decl) { d.Exposed = true })
	m := e.method(class, "save", []decls.Param{
		{Label: e.strs.Intern("path"), Type: e.rootType},
	}, e.in.Builtins().Void, func(d *decls.Decl) { d.Throws = true })

	conv, ok := e.c.FuncIsRepresentable(m, explicitReason)
	if !ok || conv == nil {
		t.Fatalf("throwing Void method rejected: %v", e.codes())
	}
	if conv.Kind != foreign.ZeroResult {
		t.Fatalf("convention kind %v", conv.Kind)
	}
	if conv.ResultType != e.fboolType {
		t.Fatalf("sentinel %v, want foreign bool %v", conv.ResultType, e.fboolType)
	}
	if conv.ParamIndex != 1 {
		t.Fatalf("error parameter at %d, want appended at 1", conv.ParamIndex)
	}
	want := e.in.Optional(e.in.Pointer(e.in.Optional(e.errorType)))
	if conv.ParamType != want {
		t.Fatalf("error parameter type %s", e.in.Label(e.strs, conv.ParamType))
	}
}

func TestConventionInit(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Store", e.objectRoot, func(d *decls.Decl) { d.Exposed = true })

	init := e.g.New(decls.Decl{
		Name: e.strs.Intern("init"), Kind: decls.DeclInit, Parent: class,
		Throws: true, Instance: true, Access: decls.AccessInternal,
	})
	conv, ok := e.c.FuncIsRepresentable(init, explicitReason)
	if !ok || conv == nil || conv.Kind != foreign.NilResult {
		t.Fatalf("throwing init convention: %+v ok=%v", conv, ok)
	}

	failing := e.g.New(decls.Decl{
		Name: e.strs.Intern("init"), Kind: decls.DeclInit, Parent: class,
		Throws: true, Failable: true, Instance: true, Access: decls.AccessInternal,
	})
	if _, ok := e.c.FuncIsRepresentable(failing, explicitReason); ok {
		t.Fatalf("failable throwing init accepted")
	}
	if !e.hasCode(diag.ExpThrowsFailingInit) {
		t.Fatalf("missing failable init diagnostic, got %v", e.codes())
	}
}

func TestConventionOptionalResultRejected(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Store", e.objectRoot, func(d *decls.Decl) { d.Exposed = true })
	m := e.method(class, "find", nil, e.in.Optional(e.rootType), func(d *decls.Decl) { d.Throws = true })

	if _, ok := e.c.FuncIsRepresentable(m, explicitReason); ok {
		t.Fatalf("optional result on throwing method accepted")
	}
	if !e.hasCode(diag.ExpThrowsOptionalInNil) {
		t.Fatalf("missing optional-result diagnostic, got %v", e.codes())
	}
}

func TestThrowsBadResultDiagnosedOnce(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Store", e.objectRoot, func(d *decls.Decl) { d.Exposed = true })
	_, hidden := e.newClass("Hidden", decls.NoDeclID, nil)
	m := e.method(class, "load", nil, hidden, func(d *decls.Decl) { d.Throws = true })

	if _, ok := e.c.FuncIsRepresentable(m, explicitReason); ok {
		t.Fatalf("throwing method with bad result accepted")
	}
	if got := e.countCode(diag.ExpResultNotRepresentable); got != 1 {
		t.Fatalf("expected one result diagnostic, got %d (%v)", got, e.codes())
	}
	if e.hasCode(diag.ExpThrowsBadResult) {
		t.Fatalf("convention synthesized for the failed result: %v", e.codes())
	}
}

func TestConventionSelectorPinsErrorIndex(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Store", e.objectRoot, func(d *decls.Decl) { d.Exposed = true })
	m := e.method(class, "save", []decls.Param{
		{Label: e.strs.Intern("path"), Type: e.rootType},
	}, e.in.Builtins().Void, func(d *decls.Decl) {
		d.Throws = true
		sel := decls.MakeSelector(2, e.strs.Intern("savePath"), e.strs.Intern("error"))
		d.Attrs.Add(decls.Attr{Kind: decls.AttrExposed, Name: &sel})
	})

	conv, ok := e.c.FuncIsRepresentable(m, explicitReason)
	if !ok || conv == nil {
		t.Fatalf("rejected: %v", e.codes())
	}
	if conv.ParamIndex != 1 {
		t.Fatalf("error parameter at %d, want selector-pinned 1", conv.ParamIndex)
	}
	if conv.ErrorParameterReplacedWithVoid() {
		t.Fatalf("no host parameter was replaced")
	}
}

func TestConventionVoidSlotInOverride(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Store", e.objectRoot, func(d *decls.Decl) { d.Exposed = true })

	base := e.method(class, "save", []decls.Param{
		{Label: e.strs.Intern("path"), Type: e.rootType},
		{Label: e.strs.Intern("slot"), Type: e.in.Builtins().Void},
	}, e.in.Builtins().Void, func(d *decls.Decl) {
		d.Throws = true
		d.Exposed = true
	})
	baseConv := foreign.GetZeroResult(1, false, true, types.NoTypeID, e.fboolType)
	e.g.Get(base).Convention = &baseConv

	sub, _ := e.newClass("DiskStore", class, func(d *decls.Decl) { d.Exposed = true })
	m := e.method(sub, "save", []decls.Param{
		{Label: e.strs.Intern("path"), Type: e.rootType},
		{Label: e.strs.Intern("slot"), Type: e.in.Builtins().Void},
	}, e.in.Builtins().Void, func(d *decls.Decl) {
		d.Throws = true
		d.Override = base
	})

	if _, ok := e.c.FuncIsRepresentable(m, explicitReason); !ok {
		t.Fatalf("override with replaced Void slot rejected: %v", e.codes())
	}
}

func TestConventionSkipsTrailingClosure(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Store", e.objectRoot, func(d *decls.Decl) { d.Exposed = true })
	block := e.in.RegisterFn(nil, e.in.Builtins().Void, false)
	m := e.method(class, "fetch", []decls.Param{
		{Label: e.strs.Intern("key"), Type: e.rootType},
		{Label: e.strs.Intern("completion"), Type: block},
	}, e.in.Builtins().Void, func(d *decls.Decl) { d.Throws = true })

	conv, ok := e.c.FuncIsRepresentable(m, explicitReason)
	if !ok || conv == nil {
		t.Fatalf("rejected: %v", e.codes())
	}
	if conv.ParamIndex != 1 {
		t.Fatalf("error parameter at %d, want before trailing closure", conv.ParamIndex)
	}
}

func TestSubscriptKeyStyles(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Table", e.objectRoot, func(d *decls.Decl) { d.Exposed = true })

	byIndex := e.g.New(decls.Decl{
		Name: e.strs.Intern("subscript"), Kind: decls.DeclSubscript, Parent: class,
		IndexType: e.in.Builtins().Int, ElementType: e.rootType, Instance: true,
	})
	if !e.c.SubscriptIsRepresentable(byIndex, explicitReason) {
		t.Fatalf("integer-keyed subscript rejected: %v", e.codes())
	}

	byFloat := e.g.New(decls.Decl{
		Name: e.strs.Intern("subscript"), Kind: decls.DeclSubscript, Parent: class,
		IndexType: e.in.Builtins().Float, ElementType: e.rootType, Instance: true,
	})
	if e.c.SubscriptIsRepresentable(byFloat, explicitReason) {
		t.Fatalf("float-keyed subscript accepted")
	}
	if !e.hasCode(diag.ExpSubscriptKeyType) {
		t.Fatalf("missing key-style diagnostic, got %v", e.codes())
	}
}

func TestVarRepresentability(t *testing.T) {
	e := newEnv(DefaultLangOpts())
	class, _ := e.newClass("Widget", e.objectRoot, func(d *decls.Decl) { d.Exposed = true })

	weak := e.g.New(decls.Decl{
		Name: e.strs.Intern("delegate"), Kind: decls.DeclVar, Parent: class,
		Type: e.in.Optional(e.rootType), RefStorage: true,
		Access: decls.AccessInternal, Instance: true,
	})
	if !e.c.VarIsRepresentable(weak, explicitReason) {
		t.Fatalf("weak optional object property rejected: %v", e.codes())
	}

	tuple := e.in.RegisterTuple([]types.TypeID{e.in.Builtins().Int, e.in.Builtins().Int})
	bad := e.g.New(decls.Decl{
		Name: e.strs.Intern("origin"), Kind: decls.DeclVar, Parent: class,
		Type: tuple, Access: decls.AccessInternal, Instance: true,
	})
	if e.c.VarIsRepresentable(bad, explicitReason) {
		t.Fatalf("tuple property accepted")
	}
	if !e.hasCode(diag.ExpVarNotRepresentable) {
		t.Fatalf("missing property diagnostic, got %v", e.codes())
	}
}
