package folder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/markov2/go-mailbox/field"
	"github.com/markov2/go-mailbox/head"
	"github.com/markov2/go-mailbox/parser"
)

func hf(name, body string) *field.Field {
	return field.Parse(parser.RawField{Name: strings.ToLower(name), Body: body})
}

func TestExtractAlwaysLazy(t *testing.T) {
	h := head.New()
	if !Always.ShouldExtract(h, 0) {
		t.Error("Always should always extract")
	}
	if Lazy.ShouldExtract(h, 1000) {
		t.Error("Lazy should never extract")
	}
}

func TestExtractSizeLimitUsesContentLength(t *testing.T) {
	h := head.NewComplete([]*field.Field{hf("Content-Length", "50")})
	if !SizeLimit(100).ShouldExtract(h, 0) {
		t.Error("expected extraction: 50 <= 100")
	}
	if SizeLimit(10).ShouldExtract(h, 0) {
		t.Error("expected no extraction: 50 > 10")
	}
}

func TestExtractSizeLimitFallsBackToLinesTimes40(t *testing.T) {
	h := head.New()
	if !SizeLimit(80).ShouldExtract(h, 2) {
		t.Error("expected extraction: 2*40 = 80 <= 80")
	}
	if SizeLimit(79).ShouldExtract(h, 2) {
		t.Error("expected no extraction: 80 > 79")
	}
}

func TestExtractPredicate(t *testing.T) {
	p := Predicate(func(h *head.Head) bool {
		f, _ := h.Get("subject")
		return f != nil && f.Body() == "urgent"
	})
	if !p.ShouldExtract(head.NewComplete([]*field.Field{hf("Subject", "urgent")}), 0) {
		t.Error("predicate should match urgent subject")
	}
	if p.ShouldExtract(head.NewComplete([]*field.Field{hf("Subject", "later")}), 0) {
		t.Error("predicate should not match other subjects")
	}
}

func TestDefaultFieldFilter(t *testing.T) {
	if !DefaultFieldFilter("Subject") {
		t.Error("Subject should pass the default filter")
	}
	if DefaultFieldFilter("X-Custom-Header") {
		t.Error("arbitrary headers should not pass the default filter")
	}
}

func TestListFilter(t *testing.T) {
	filter := ListFilter([]string{"Subject", "X-Custom"})
	if !filter("subject") || !filter("X-CUSTOM") {
		t.Error("ListFilter should be case-insensitive")
	}
	if filter("from") {
		t.Error("ListFilter should reject names not in the list")
	}
}

func TestResolvePathPassesThroughPlainPaths(t *testing.T) {
	if got := ResolvePath("/tmp/inbox", []string{"/var/mail"}); got != "/tmp/inbox" {
		t.Errorf("ResolvePath(plain) = %q", got)
	}
}

func TestResolvePathExpandsEquals(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "inbox"), 0o755); err != nil {
		t.Fatal(err)
	}
	got := ResolvePath("=inbox", []string{dir})
	want := filepath.Join(dir, "inbox")
	if got != want {
		t.Errorf("ResolvePath(=inbox) = %q, want %q", got, want)
	}
}
