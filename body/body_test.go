package body

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/markov2/go-mailbox/buffer"
	"github.com/markov2/go-mailbox/parser"
)

func TestStringAndLinesAgree(t *testing.T) {
	b := NewString([]byte("a\nb\nc"), ContentInfo{MimeType: "text/plain"})
	lines, err := b.Lines()
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if string(lines[2].Content) != "c" || lines[2].EOL != parser.EOLNative {
		t.Errorf("last line = %+v", lines[2])
	}
}

func TestFileBodyRoundTrip(t *testing.T) {
	buf := buffer.MemoryBuffer{Slice: []byte("hello from file\n")}
	b := WrapBuffer(buf, ContentInfo{MimeType: "text/plain"})
	data, err := b.String()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello from file\n" {
		t.Errorf("data = %q", data)
	}
}

func TestDelayedRealizesOnFirstAccess(t *testing.T) {
	calls := 0
	delayed := NewDelayed(100, 140, func() (*Body, error) {
		calls++
		return NewString([]byte("realised"), ContentInfo{MimeType: "text/plain"}), nil
	})
	data, err := delayed.String()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "realised" {
		t.Errorf("data = %q", data)
	}
	if calls != 1 {
		t.Fatalf("realize called %d times, want 1", calls)
	}
	if delayed.IsDelayed() {
		t.Error("expected body to no longer be Delayed after access")
	}
}

func TestDecodeBase64(t *testing.T) {
	b := NewString([]byte("VGVzdA=="), ContentInfo{MimeType: "text/plain", TransferEncoding: "base64"})
	decoded, err := b.Decode()
	if err != nil {
		t.Fatal(err)
	}
	data, _ := decoded.String()
	if string(data) != "Test" {
		t.Errorf("decoded = %q", data)
	}
	if decoded.ContentInfo().TransferEncoding != "none" {
		t.Errorf("transfer_encoding = %q, want none", decoded.ContentInfo().TransferEncoding)
	}
}

func TestDecodeMalformedBase64DowngradesToNone(t *testing.T) {
	b := NewString([]byte("not-valid-base64-!!"), ContentInfo{MimeType: "text/plain", TransferEncoding: "base64"})
	decoded, err := b.Decode()
	if err == nil {
		t.Fatal("expected a MalformedBody error")
	}
	if decoded.ContentInfo().TransferEncoding != "none" {
		t.Errorf("transfer_encoding = %q, want none even on failure", decoded.ContentInfo().TransferEncoding)
	}
}

type fakePart struct{ content string }

func (p fakePart) Print(w io.Writer) error {
	_, err := w.Write([]byte(p.content))
	return err
}
func (p fakePart) Size() (int, error) { return len(p.content), nil }

func TestMultipartBoundaryRegeneratesOnCollision(t *testing.T) {
	parts := []Part{fakePart{content: "--fixed\nhello\n"}}
	b, err := NewMultipart(nil, parts, nil, "fixed", "multipart/mixed")
	if err != nil {
		t.Fatal(err)
	}
	if b.Boundary() == "fixed" {
		t.Error("expected boundary to be regenerated away from the colliding value")
	}

	var out bytes.Buffer
	if err := b.Print(&out); err != nil {
		t.Fatal(err)
	}
	marker := "--" + b.Boundary()
	count := strings.Count(out.String(), marker)
	if count < 2 {
		t.Errorf("expected at least opening+closing boundary markers, got %d in %q", count, out.String())
	}
}

func TestNestedPrint(t *testing.T) {
	b := NewNested(fakePart{content: "Subject: inner\n\nbody\n"})
	var out bytes.Buffer
	if err := b.Print(&out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "Subject: inner\n\nbody\n" {
		t.Errorf("got %q", out.String())
	}
}
