package field

import (
	"testing"

	"github.com/markov2/go-mailbox/parser"
)

func raw(name, body string) parser.RawField {
	return parser.RawField{Name: name, Body: body}
}

func TestParseSimple(t *testing.T) {
	f := Parse(raw("Subject", "hello world"))
	if f.Name() != "subject" || f.Body() != "hello world" {
		t.Errorf("got name=%q body=%q", f.Name(), f.Body())
	}
}

func TestParseStripsComment(t *testing.T) {
	f := Parse(raw("Date", "Mon, 1 Jan 2001 00:00:00 +0000 (UTC)"))
	if f.Comment() != "UTC" {
		t.Errorf("comment = %q, want UTC", f.Comment())
	}
	if f.Body() != "Mon, 1 Jan 2001 00:00:00 +0000" {
		t.Errorf("body = %q", f.Body())
	}
}

func TestParseSimpleAttribute(t *testing.T) {
	f := Parse(raw("Content-Type", `text/plain; charset=utf-8`))
	if f.Body() != "text/plain" {
		t.Errorf("body = %q", f.Body())
	}
	v, ok := f.Attribute("charset")
	if !ok || v != "utf-8" {
		t.Errorf("charset attribute = %q, %v", v, ok)
	}
}

func TestParseQuotedAttribute(t *testing.T) {
	f := Parse(raw("Content-Disposition", `attachment; filename="a; b.txt"`))
	v, ok := f.Attribute("filename")
	if !ok || v != "a; b.txt" {
		t.Errorf("filename attribute = %q, %v", v, ok)
	}
}

func TestExtendedInitialAttribute(t *testing.T) {
	f := Parse(raw("Content-Disposition", `attachment; filename*=UTF-8''na%C3%AFve.txt`))
	v, ok := f.Attribute("filename")
	if !ok {
		t.Fatal("filename attribute missing")
	}
	if v != "naïve.txt" {
		t.Errorf("filename = %q, want naïve.txt", v)
	}
}

func TestContinuationAttributeReassembly(t *testing.T) {
	f := Parse(raw("Content-Type", `application/x-stuff; title*0*=us-ascii'en'This%20is%20; title*1*=really%20; title*2*=too%20much.`))
	v, ok := f.Attribute("title")
	if !ok {
		t.Fatal("title attribute missing")
	}
	if v != "This is really too much." {
		t.Errorf("title = %q", v)
	}
}

func TestContinuationAttributeMissingIndex(t *testing.T) {
	f := Parse(raw("Content-Type", `application/x-stuff; title*0=a; title*2=c`))
	v, _ := f.Attribute("title")
	if v != "a[continuation missing]c" {
		t.Errorf("title = %q", v)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	orig := Parse(raw("Subject", "a short subject"))
	rendered := orig.String()
	// Re-parse the rendered text's body half (skip "Subject: ").
	const prefix = "Subject: "
	if rendered[:len(prefix)] != prefix {
		t.Fatalf("rendered = %q", rendered)
	}
	reparsed := Parse(raw("Subject", rendered[len(prefix):]))
	if !orig.Equal(reparsed) {
		t.Errorf("round trip mismatch: orig=%+v reparsed=%+v", orig, reparsed)
	}
}

func TestFoldLongField(t *testing.T) {
	f := Parse(raw("To", "a1@example.com, a2@example.com, a3@example.com, a4@example.com, a5@example.com, a6@example.com"))
	rendered := f.String()
	lines := splitLinesForTest(rendered)
	for _, l := range lines {
		if len(l) > DefaultWrap+1 {
			t.Errorf("line too long (%d): %q", len(l), l)
		}
	}
	if len(lines) < 2 {
		t.Errorf("expected folding into multiple lines, got %q", rendered)
	}
}

func splitLinesForTest(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
