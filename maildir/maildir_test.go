package maildir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/markov2/go-mailbox/body"
	"github.com/markov2/go-mailbox/field"
	"github.com/markov2/go-mailbox/folder"
	"github.com/markov2/go-mailbox/head"
	"github.com/markov2/go-mailbox/message"
)

func makeMaildir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, sub := range []string{dirNew, dirCur, dirTmp} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func writeMail(t *testing.T, dir, sub, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, sub, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDetectRequiresAllThreeSubdirs(t *testing.T) {
	dir := makeMaildir(t)
	if !Detect(dir) {
		t.Fatal("expected Detect to recognise a full new/cur/tmp maildir")
	}
	os.RemoveAll(filepath.Join(dir, dirTmp))
	if Detect(dir) {
		t.Fatal("expected Detect to fail once tmp/ is missing")
	}
}

func TestOpenParsesNewAndCurWithFlags(t *testing.T) {
	dir := makeMaildir(t)
	writeMail(t, dir, dirNew, "1000.abc.host", "Subject: fresh\n\nbody\n")
	writeMail(t, dir, dirCur, "999.def.host:2,FS", "Subject: old\n\nbody\n")

	md, err := Open(dir, folder.Options{Access: folder.ReadOnly, Extract: folder.Always})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(md.Messages()) != 2 {
		t.Fatalf("got %d messages, want 2", len(md.Messages()))
	}

	var seenFlagged, seenRecent bool
	for _, m := range md.Messages() {
		if m.HasLabel("flagged") && m.HasLabel("seen") {
			seenFlagged = true
		}
		if m.HasLabel("recent") {
			seenRecent = true
		}
	}
	if !seenFlagged {
		t.Error("expected the cur/ message to carry flagged+seen labels from :2,FS")
	}
	if !seenRecent {
		t.Error("expected the new/ message to carry the recent label")
	}
}

func TestWriteRenamesOnFlagChange(t *testing.T) {
	dir := makeMaildir(t)
	writeMail(t, dir, dirCur, "1.uniq:2,", "Subject: x\n\nbody\n")

	md, err := Open(dir, folder.Options{Access: folder.ReadWrite, Extract: folder.Always})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := md.Messages()[0].SetLabel("seen", true); err != nil {
		t.Fatal(err)
	}

	if _, err := md.Write(folder.Replace); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, dirCur, "1.uniq:2,S")); err != nil {
		t.Errorf("expected file to be renamed with S flag: %v", err)
	}
}

func TestWriteDeliversNewMessageToCur(t *testing.T) {
	dir := makeMaildir(t)
	md, err := Open(dir, folder.Options{Access: folder.ReadWrite, Extract: folder.Always})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	h := head.New()
	if err := h.Add(field.New("Subject", "new message")); err != nil {
		t.Fatal(err)
	}
	m := message.New(h, body.NewString([]byte("body\n"), body.ContentInfo{MimeType: "text/plain"}))
	if _, err := md.AddMessage(m); err != nil {
		t.Fatal(err)
	}
	if _, err := md.Write(folder.Replace); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, dirCur))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 delivered file in cur/, got %d", len(entries))
	}
}

func TestAcceptMovesNewToCur(t *testing.T) {
	dir := makeMaildir(t)
	writeMail(t, dir, dirNew, "1.uniq", "Subject: x\n\nbody\n")

	md, err := Open(dir, folder.Options{Access: folder.ReadWrite, Extract: folder.Always})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := md.Accept(0); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, dirCur, "1.uniq:2,")); err != nil {
		t.Errorf("expected message moved into cur/: %v", err)
	}
}

func TestGuessTimestampFallsBackToLeadingInteger(t *testing.T) {
	if ts := guessTimestamp("1700000000.abc.host"); ts != 1700000000 {
		t.Errorf("guessTimestamp = %d, want 1700000000", ts)
	}
	if ts := guessTimestamp("no-digits-here"); ts != 0 {
		t.Errorf("guessTimestamp = %d, want 0", ts)
	}
}
