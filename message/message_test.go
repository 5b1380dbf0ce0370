package message

import (
	"strings"
	"testing"

	"github.com/markov2/go-mailbox/body"
	"github.com/markov2/go-mailbox/field"
	"github.com/markov2/go-mailbox/head"
	"github.com/markov2/go-mailbox/parser"
)

func f(name, b string) *field.Field {
	return field.Parse(parser.RawField{Name: strings.ToLower(name), Body: b})
}

func TestNewSynthesizesIDWhenMissing(t *testing.T) {
	h := head.NewComplete([]*field.Field{f("Subject", "hi")})
	b := body.NewString([]byte("body\n"), body.ContentInfo{MimeType: "text/plain"})
	m := New(h, b)
	if m.ID() == "" {
		t.Fatal("expected a synthesised id")
	}
}

func TestNewUsesHeaderID(t *testing.T) {
	h := head.NewComplete([]*field.Field{f("Message-Id", "<fixed@example.com>")})
	b := body.NewString(nil, body.ContentInfo{})
	m := New(h, b)
	if m.ID() != "fixed@example.com" {
		t.Errorf("id = %q, want fixed@example.com", m.ID())
	}
}

func TestSetLabelDeletedAlwaysAllowed(t *testing.T) {
	h := head.New()
	b := body.NewString(nil, body.ContentInfo{})
	m := New(h, b)
	m.SetReadOnly(true)

	if err := m.SetLabel(LabelFlagged, true); err == nil {
		t.Error("expected LabelsReadOnly for a non-deleted label on a read-only message")
	}
	if err := m.SetLabel(LabelDeleted, true); err != nil {
		t.Errorf("expected deleted to always be settable, got %v", err)
	}
	if !m.IsDeleted() {
		t.Error("IsDeleted should be true after SetLabel(deleted, true)")
	}
}

func TestDestructFreesHeadAndBody(t *testing.T) {
	h := head.New()
	b := body.NewString(nil, body.ContentInfo{})
	m := New(h, b)
	m.Destruct()

	if _, err := m.Head(); err == nil {
		t.Error("expected MessageAccessAfterDestruct from Head()")
	}
	if _, err := m.Body(); err == nil {
		t.Error("expected MessageAccessAfterDestruct from Body()")
	}
	// IsDeleted must remain legal after destruct.
	if m.IsDeleted() {
		t.Error("unexpected deleted state")
	}
}

func TestAttachDetach(t *testing.T) {
	h := head.New()
	b := body.NewString(nil, body.ContentInfo{})
	m := New(h, b)
	m.Attach("inbox", 3)
	if m.FolderID() != "inbox" || m.SeqNr() != 3 {
		t.Fatalf("Attach state = %q, %d", m.FolderID(), m.SeqNr())
	}
	m.Detach()
	if m.FolderID() != "" {
		t.Error("expected FolderID cleared after Detach")
	}
}
