package diag

import (
	"testing"

	"expose/internal/source"
)

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	for range 3 {
		b.Add(Diagnostic{Severity: SevError, Code: ExpVariadicParam})
	}
	if b.Len() != 2 {
		t.Fatalf("expected bag capped at 2, got %d", b.Len())
	}
}

func TestBagSortStable(t *testing.T) {
	b := NewBag(8)
	b.Add(Diagnostic{Code: ExpInOutParam, Primary: source.Span{File: 1, Start: 10}})
	b.Add(Diagnostic{Code: ExpVariadicParam, Primary: source.Span{File: 0, Start: 20}})
	b.Add(Diagnostic{Code: ExpVariadicParam, Primary: source.Span{File: 0, Start: 5}})
	b.Sort()
	items := b.Items()
	if items[0].Primary.Start != 5 || items[1].Primary.Start != 20 || items[2].Primary.File != 1 {
		t.Fatalf("unexpected order after sort: %+v", items)
	}
}

func TestBuilderEmitsOnce(t *testing.T) {
	b := NewBag(4)
	rb := ReportError(BagReporter{Bag: b}, ExpVariadicParam, source.Span{}, "variadic parameter")
	rb.WithNote(source.Span{}, "declared here")
	rb.Emit()
	rb.Emit()
	if b.Len() != 1 {
		t.Fatalf("builder must emit exactly once, got %d", b.Len())
	}
	if len(b.Items()[0].Notes) != 1 {
		t.Fatalf("expected one note")
	}
}
