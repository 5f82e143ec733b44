package types

import (
	"testing"

	"expose/internal/source"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Void == NoTypeID || b.Bool == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	void, _ := in.Lookup(b.Void)
	if void.Kind != KindVoid {
		t.Fatalf("expected void kind, got %v", void.Kind)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	opt1 := in.Optional(in.Builtins().String)
	opt2 := in.Optional(in.Builtins().String)
	if opt1 != opt2 {
		t.Fatalf("optional types should be deduplicated")
	}
}

func TestOptionalNormalizesToOneLevel(t *testing.T) {
	in := NewInterner()
	once := in.Optional(in.Builtins().Int)
	twice := in.Optional(once)
	if once != twice {
		t.Fatalf("optional wrapping must stay at one level")
	}
	if in.OptionalObject(once) != in.Builtins().Int {
		t.Fatalf("OptionalObject must unwrap to the element")
	}
}

func TestFnTypeIdentity(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	plain := in.RegisterFn([]TypeID{b.Int}, b.Void, false)
	throwing := in.RegisterFn([]TypeID{b.Int}, b.Void, true)
	if plain == throwing {
		t.Fatalf("throwing flag must be part of fn identity")
	}
	again := in.RegisterFn([]TypeID{b.Int}, b.Void, false)
	if plain != again {
		t.Fatalf("identical fn types must be deduplicated")
	}
}

func TestNominalsAreDistinct(t *testing.T) {
	in := NewInterner()
	strs := source.NewInterner()
	name := strs.Intern("Widget")
	a := in.RegisterNominal(KindClass, name, source.Span{})
	b := in.RegisterNominal(KindClass, name, source.Span{})
	if a == b {
		t.Fatalf("separate declarations must get separate nominal types")
	}
	if in.Label(strs, a) != "Widget" {
		t.Fatalf("label mismatch: %q", in.Label(strs, a))
	}
}
