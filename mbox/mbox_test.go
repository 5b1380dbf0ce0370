package mbox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/markov2/go-mailbox/field"
	"github.com/markov2/go-mailbox/folder"
	"github.com/markov2/go-mailbox/parser"
)

func f(name, body string) *field.Field {
	return field.Parse(parser.RawField{Name: strings.ToLower(name), Body: body})
}

func writeFixture(t *testing.T, dir string, messages []string) string {
	t.Helper()
	path := filepath.Join(dir, "mbox")
	if err := os.WriteFile(path, []byte(strings.Join(messages, "")), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func msg(fromLine, headers, body string) string {
	return fromLine + "\n" + headers + "\n" + body
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, []string{
		msg("From alice@example.com Mon Jan  2 15:04:05 2006", "Subject: hi\n", "body\n"),
	})
	if !Detect(path) {
		t.Fatal("expected Detect to recognise an Mbox file")
	}
}

func TestOpenParsesMessages(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, []string{
		msg("From alice@example.com Mon Jan  2 15:04:05 2006", "Subject: one\n", "first body\n"),
		msg("From bob@example.com Tue Jan  3 15:04:05 2006", "Subject: two\n", "second body\n"),
	})

	mb, err := Open(path, folder.Options{Access: folder.ReadOnly, Extract: folder.Always})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer mb.Close(folder.CloseOptions{})

	if len(mb.Messages()) != 2 {
		t.Fatalf("got %d messages, want 2", len(mb.Messages()))
	}
	h, err := mb.Messages()[0].Head()
	if err != nil {
		t.Fatal(err)
	}
	f, _ := h.Get("subject")
	if f == nil || f.Body() != "one" {
		t.Errorf("message 0 subject = %v, want one", f)
	}
}

func TestDeleteThenReplaceWrite(t *testing.T) {
	dir := t.TempDir()
	var fixtures []string
	for i := 0; i < 5; i++ {
		fixtures = append(fixtures, msg(
			"From sender@example.com Mon Jan  2 15:04:05 2006",
			"Subject: msg\nMessage-Id: <m"+string(rune('0'+i))+"@example.com>\n",
			"body\n",
		))
	}
	path := writeFixture(t, dir, fixtures)

	mb, err := Open(path, folder.Options{Access: folder.ReadWrite, Extract: folder.Always, LockType: "none"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := mb.DeleteMessage(1); err != nil {
		t.Fatal(err)
	}
	result, err := mb.Write(folder.Replace)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if result.Written != 4 || result.Deleted != 1 {
		t.Errorf("Write() result = %+v, want {4 1}", result)
	}
	if len(mb.Messages()) != 4 {
		t.Fatalf("got %d messages after write, want 4", len(mb.Messages()))
	}
	mb.Close(folder.CloseOptions{})

	reopened, err := Open(path, folder.Options{Access: folder.ReadOnly, Extract: folder.Always, LockType: "none"})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close(folder.CloseOptions{})
	if len(reopened.Messages()) != 4 {
		t.Fatalf("reopened has %d messages, want 4", len(reopened.Messages()))
	}
	h0, _ := reopened.Messages()[0].Head()
	id0, _ := h0.Get("message-id")
	if id0.Body() != "<m0@example.com>" {
		t.Errorf("message 0 id = %q, want <m0@example.com>", id0.Body())
	}
}

func TestInplaceWritePreservesEarlierDelayedMessages(t *testing.T) {
	dir := t.TempDir()
	var fixtures []string
	for i := 0; i < 3; i++ {
		fixtures = append(fixtures, msg(
			"From sender@example.com Mon Jan  2 15:04:05 2006",
			"Subject: msg\nMessage-Id: <m"+string(rune('0'+i))+"@example.com>\n",
			"body\n",
		))
	}
	path := writeFixture(t, dir, fixtures)

	mb, err := Open(path, folder.Options{Access: folder.ReadWrite, Extract: folder.Lazy, LockType: "none"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer mb.Close(folder.CloseOptions{})

	b0, err := mb.Messages()[0].Body()
	if err != nil {
		t.Fatal(err)
	}
	if !b0.IsDelayed() {
		t.Fatal("expected message 0's body to still be delayed before any write")
	}

	h2, err := mb.Messages()[2].Head()
	if err != nil {
		t.Fatal(err)
	}
	if err := h2.Add(f("X-Extra", "added")); err != nil {
		t.Fatal(err)
	}

	if _, err := mb.Write(folder.Inplace); err != nil {
		t.Fatalf("Write(Inplace) error = %v", err)
	}

	b0Again, err := mb.Messages()[0].Body()
	if err != nil {
		t.Fatal(err)
	}
	if !b0Again.IsDelayed() {
		t.Error("expected message 0's body to remain delayed after an INPLACE write that only touched message 2")
	}
}
