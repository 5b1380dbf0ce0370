package head

import (
	"strings"
	"testing"

	"github.com/markov2/go-mailbox/field"
	"github.com/markov2/go-mailbox/parser"
)

func f(name, body string) *field.Field {
	return field.Parse(parser.RawField{Name: strings.ToLower(name), Body: body})
}

func TestCompleteHeadGetSet(t *testing.T) {
	h := New()
	if err := h.Add(f("Subject", "hello")); err != nil {
		t.Fatal(err)
	}
	got, err := h.Get("subject")
	if err != nil || got == nil || got.Body() != "hello" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if !h.Modified() {
		t.Error("expected modified=true after Add")
	}
}

func TestSetReplacesAllOccurrences(t *testing.T) {
	h := NewComplete([]*field.Field{f("Received", "a"), f("Received", "b")})
	if n, _ := h.Count("received"); n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	if err := h.Set(f("Received", "c")); err != nil {
		t.Fatal(err)
	}
	if n, _ := h.Count("received"); n != 1 {
		t.Fatalf("count after Set = %d, want 1", n)
	}
}

func TestSubsetRealizesOnMiss(t *testing.T) {
	calls := 0
	realize := func() ([]*field.Field, error) {
		calls++
		return []*field.Field{f("Subject", "s"), f("From", "a@b")}, nil
	}
	h := NewSubset([]*field.Field{f("Subject", "s")}, realize)

	if got, _ := h.Get("subject"); got == nil {
		t.Fatal("subject missing")
	}
	if calls != 0 {
		t.Fatalf("realize called %d times for a known field, want 0", calls)
	}

	got, err := h.Get("from")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Body() != "a@b" {
		t.Fatalf("Get(from) after realize = %+v", got)
	}
	if calls != 1 {
		t.Fatalf("realize called %d times, want 1", calls)
	}
	if !h.IsComplete() {
		t.Error("expected head to be Complete after realisation")
	}
}

func TestDelayedRealizesOnAnyAccess(t *testing.T) {
	realize := func() ([]*field.Field, error) {
		return []*field.Field{f("Subject", "s")}, nil
	}
	h := NewDelayed(realize)
	names, err := h.Names()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "subject" {
		t.Fatalf("names = %v", names)
	}
}

func TestSetNoRealizePreservedAcrossRealisation(t *testing.T) {
	realize := func() ([]*field.Field, error) {
		return []*field.Field{f("Subject", "from disk"), f("From", "a@b")}, nil
	}
	h := NewSubset(nil, realize)
	h.SetNoRealize(f("Subject", "cached value"))

	got, err := h.Get("from") // forces realisation
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("from missing after realisation")
	}

	subj, err := h.Get("subject")
	if err != nil {
		t.Fatal(err)
	}
	if subj == nil || subj.Body() != "cached value" {
		t.Fatalf("subject = %+v, want the no-realize value to survive", subj)
	}
}

func TestStatusLabelsRoundTrip(t *testing.T) {
	h := New()
	if err := ApplyLabelsToStatus(h, map[string]bool{"seen": true, "old": true}); err != nil {
		t.Fatal(err)
	}
	labels, err := StatusLabels(h)
	if err != nil {
		t.Fatal(err)
	}
	if !labels["seen"] || !labels["old"] {
		t.Fatalf("labels = %v", labels)
	}
}

func TestPrintRendersBlankLineTerminator(t *testing.T) {
	h := NewComplete([]*field.Field{f("Subject", "hi")})
	var b strings.Builder
	if err := h.Print(&b); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(b.String(), "\n\n") {
		t.Errorf("Print output = %q, want trailing blank line", b.String())
	}
}
