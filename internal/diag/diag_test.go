package diag

import (
	"strings"
	"testing"
)

func TestBagSortDeterministic(t *testing.T) {
	b := NewBag(0)
	b.Add(New(SevWarning, EmitSkipped, Location{Namespace: "B", Type: "B.T"}, "skipped"))
	b.Add(NewError(MetaDanglingRef, Location{Namespace: "A", Type: "A.X", Member: "M"}, "dangling"))
	b.Add(New(SevWarning, MetaFilteredReference, Location{Namespace: "A", Type: "A.X", Member: "M"}, "filtered"))
	b.Sort()
	items := b.Items()
	if items[0].Code != MetaDanglingRef || items[1].Code != MetaFilteredReference || items[2].Code != EmitSkipped {
		t.Fatalf("unexpected order: %v", items)
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Fatalf("expected errors and warnings")
	}
}

func TestBagLimitAndMerge(t *testing.T) {
	b := NewBag(1)
	if !b.Add(NewError(MetaInvalidType, Location{Type: "A.B"}, "x")) {
		t.Fatalf("first add rejected")
	}
	if b.Add(NewError(MetaInvalidType, Location{Type: "A.C"}, "y")) {
		t.Fatalf("limit not enforced")
	}
	other := NewBag(0)
	other.Add(New(SevInfo, EmitUpToDate, Location{Module: "M"}, "up to date"))
	b.Merge(other)
	if b.Len() != 2 {
		t.Fatalf("merge lost items: %d", b.Len())
	}
}

func TestDedup(t *testing.T) {
	b := NewBag(0)
	d := NewError(MetaMissingDefaultInterface, Location{Type: "A.C"}, "no default")
	b.Add(d)
	b.Add(d)
	b.Dedup()
	if b.Len() != 1 {
		t.Fatalf("expected 1 item after dedup, got %d", b.Len())
	}

	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	r.Report(d.Code, d.Severity, d.Primary, d.Message, nil)
	r.Report(d.Code, d.Severity, d.Primary, d.Message, nil)
	if bag.Len() != 1 {
		t.Fatalf("dedup reporter forwarded duplicates")
	}
}

func TestFormatShort(t *testing.T) {
	d := NewError(MetaFilteredReference, Location{Type: "Test.Shapes.Shape", Member: "Move"}, "references excluded type Test.Hidden.Point").
		WithNote(Location{Type: "Test.Hidden.Point"}, "excluded here")
	got := FormatShort([]Diagnostic{d}, true)
	want := "ERROR META1007 Test.Shapes.Shape.Move: references excluded type Test.Hidden.Point\n" +
		"  note Test.Hidden.Point: excluded here\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if !strings.HasPrefix(d.Error(), "META1007 ") {
		t.Fatalf("unexpected error string %q", d.Error())
	}
}
