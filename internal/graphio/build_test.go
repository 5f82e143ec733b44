package graphio

import (
	"testing"

	"expose/internal/decls"
	"expose/internal/diag"
	"expose/internal/source"
	"expose/internal/types"
)

func TestParseTypeExpr(t *testing.T) {
	in := types.NewInterner()
	strs := source.NewInterner()
	g := decls.NewGraph(strs)
	point := in.RegisterNominal(types.KindStruct, strs.Intern("Point"), source.Span{})
	resolve := func(module, name string) (types.TypeID, bool) {
		if module == "" && name == "Point" {
			return point, true
		}
		return g.ResolveType(strs.Intern(module), strs.Intern(name))
	}

	cases := map[string]types.Kind{
		"Int":                   types.KindInt,
		"Int32":                 types.KindInt,
		"UInt8":                 types.KindUint,
		"Bool?":                 types.KindOptional,
		"OutPointer<Int>":       types.KindPointer,
		"(Int, Bool)":           types.KindTuple,
		"fn(Int) -> Bool":       types.KindFn,
		"fn throws() -> Int":    types.KindFn,
		"Point":                 types.KindStruct,
		"()":                    types.KindVoid,
	}
	for expr, want := range cases {
		id, err := ParseTypeExpr(expr, in, resolve)
		if err != nil {
			t.Fatalf("parse %q: %v", expr, err)
		}
		if tt, _ := in.Lookup(id); tt.Kind != want {
			t.Fatalf("parse %q: kind %v, want %v", expr, tt.Kind, want)
		}
	}

	throwing, _ := ParseTypeExpr("fn throws(Int) -> Bool", in, resolve)
	if info, ok := in.FnInfo(throwing); !ok || !info.Throws {
		t.Fatalf("throws flag lost")
	}

	if _, err := ParseTypeExpr("Missing", in, resolve); err == nil {
		t.Fatalf("unknown name accepted")
	}
	if _, err := ParseTypeExpr("Int garbage", in, resolve); err == nil {
		t.Fatalf("trailing input accepted")
	}
}

const sampleFixture = `
module = "app"

[options]
legacy_warnings = "none"

[[types]]
name = "Point"
kind = "struct"

[[bridges]]
type = "Point"
kind = "value"
target = "ObjectRoot"

[[decls]]
id = "Widget"
name = "Widget"
kind = "class"
superclass = "ObjectRoot"

[[decls]]
id = "Widget.title"
name = "title"
kind = "var"
parent = "Widget"
type = "foreign.ObjectRoot?"
attrs = ["exposed"]

[[decls]]
id = "Widget.move"
name = "move"
kind = "func"
parent = "Widget"
result = "Void"
throws = true
attrs = ["exposed(moveTo:error:)"]

  [[decls.params]]
  label = "to"
  type = "Point"
`

func TestBuildGraphFromManifest(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(16)
	b, err := BuildGraphBytes(fs, "sample.xg.toml", []byte(sampleFixture), diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if bag.HasErrors() {
		t.Fatalf("unexpected load diagnostics: %+v", bag.Items())
	}

	widgetT, ok := b.Graph.ResolveType(b.Strings.Intern("app"), b.Strings.Intern("Widget"))
	if !ok {
		t.Fatalf("Widget not registered under module app")
	}
	widget := b.Graph.Owner(widgetT)
	if !widget.IsValid() {
		t.Fatalf("Widget has no owner declaration")
	}
	if got := b.Graph.Ancestry(widget); got != decls.AncestryForeign {
		t.Fatalf("Widget ancestry %v", got)
	}

	var move *decls.Decl
	for _, id := range b.Graph.All() {
		d := b.Graph.Get(id)
		name, _ := b.Strings.Lookup(d.Name)
		if name == "move" {
			move = d
		}
	}
	if move == nil {
		t.Fatalf("move not loaded")
	}
	if !move.Throws || len(move.Params) != 1 {
		t.Fatalf("move signature: throws=%v params=%d", move.Throws, len(move.Params))
	}
	attr := move.Attrs.Get(decls.AttrExposed)
	if attr == nil || attr.Name == nil || attr.Name.String(b.Strings) != "moveTo:error:" {
		t.Fatalf("move selector not parsed")
	}

	point, _ := b.Graph.ResolveType(b.Strings.Intern("app"), b.Strings.Intern("Point"))
	if _, ok := b.Graph.BridgeFor(point); !ok {
		t.Fatalf("bridge not registered")
	}
}

func TestBuildReportsUnknownReferences(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(16)
	fixture := `
module = "app"

[[decls]]
name = "broken"
kind = "func"
parent = "Nowhere"
result = "Mystery"
`
	if _, err := BuildGraphBytes(fs, "broken.xg.toml", []byte(fixture), diag.BagReporter{Bag: bag}); err != nil {
		t.Fatalf("build: %v", err)
	}
	codes := map[diag.Code]bool{}
	for _, d := range bag.Items() {
		codes[d.Code] = true
	}
	if !codes[diag.LoadUnknownDecl] || !codes[diag.LoadBadTypeExpr] {
		t.Fatalf("missing load diagnostics: %+v", bag.Items())
	}
}
