package source

import "testing"

func TestInternerDeduplicates(t *testing.T) {
	in := NewInterner()
	a := in.Intern("viewWithTag")
	b := in.Intern("viewWithTag")
	if a != b {
		t.Fatalf("expected same ID for same string, got %d and %d", a, b)
	}
	if a == NoStringID {
		t.Fatalf("interned string must not collide with NoStringID")
	}
}

func TestInternerLookup(t *testing.T) {
	in := NewInterner()
	id := in.Intern("error")
	got, ok := in.Lookup(id)
	if !ok || got != "error" {
		t.Fatalf("lookup returned %q, %v", got, ok)
	}
	if s, ok := in.Lookup(NoStringID); !ok || s != "" {
		t.Fatalf("NoStringID must resolve to empty string")
	}
	if _, ok := in.Lookup(StringID(999)); ok {
		t.Fatalf("out-of-range ID must not resolve")
	}
}

func TestFileSetPositions(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("demo.xg.toml", []byte("one\ntwo\nthree"))
	path, lc := fs.Position(Span{File: id, Start: 4, End: 7})
	if path != "demo.xg.toml" {
		t.Fatalf("unexpected path %q", path)
	}
	if lc.Line != 2 || lc.Col != 1 {
		t.Fatalf("expected 2:1, got %d:%d", lc.Line, lc.Col)
	}
}
