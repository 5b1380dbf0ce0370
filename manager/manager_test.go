package manager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/markov2/go-mailbox/body"
	"github.com/markov2/go-mailbox/field"
	"github.com/markov2/go-mailbox/folder"
	"github.com/markov2/go-mailbox/head"
	"github.com/markov2/go-mailbox/message"
	"github.com/markov2/go-mailbox/mh"
)

func newMsg(t *testing.T, subject string, extra ...*field.Field) *message.Message {
	t.Helper()
	h := head.New()
	if err := h.Add(field.New("Subject", subject)); err != nil {
		t.Fatal(err)
	}
	for _, f := range extra {
		if err := h.Add(f); err != nil {
			t.Fatal(err)
		}
	}
	return message.New(h, body.NewString([]byte("body\n"), body.ContentInfo{MimeType: "text/plain"}))
}

func TestOpenReturnsSameHandleOnReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inbox")
	m := New(nil, "mh")

	f1, err := m.Open(folder.Options{Path: dir, Access: folder.ReadWrite, Create: true, Extract: folder.Always})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	f2, err := m.Open(folder.Options{Path: dir, Access: folder.ReadWrite, Extract: folder.Always})
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	if f1 != f2 {
		t.Error("expected reopening an already-open folder to return the same handle")
	}
}

func TestOpenFallsBackToDefaultTypeOnCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "newfolder")
	m := New(nil, "mh")

	f, err := m.Open(folder.Options{Path: dir, Access: folder.ReadWrite, Create: true, Extract: folder.Always})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if f.Organization() != folder.DIRECTORY {
		t.Errorf("expected the default mh type to be used for a brand-new path")
	}
}

func TestRegisterTypeTakesPrecedenceOverBuiltins(t *testing.T) {
	m := New(nil, "mh")
	called := false
	m.RegisterType(FolderType{
		Name:   "always-mine",
		Detect: func(string) bool { called = true; return true },
		Open: func(path string, opts folder.Options) (folder.Folder, error) {
			return mh.Open(path, opts)
		},
	})

	dir := filepath.Join(t.TempDir(), "whatever")
	os.MkdirAll(dir, 0o755)
	if _, err := m.Open(folder.Options{Path: dir, Access: folder.ReadWrite, Extract: folder.Always}); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !called {
		t.Error("expected the user-registered type's Detect to be consulted before the built-ins")
	}
}

func TestAppendMessageWithoutOpenWritesDirectly(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "drop")
	m := New(nil, "mh")

	msg := newMsg(t, "hello")
	if err := m.AppendMessage(dir, true, msg); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	f, err := m.Open(folder.Options{Path: dir, Access: folder.ReadOnly, Extract: folder.Always})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(f.Messages()) != 1 {
		t.Fatalf("got %d messages after direct append, want 1", len(f.Messages()))
	}
}

func TestAppendMessageDelegatesToOpenFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inbox")
	m := New(nil, "mh")
	f, err := m.Open(folder.Options{Path: dir, Access: folder.ReadWrite, Create: true, Extract: folder.Always})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := m.AppendMessage(dir, false, newMsg(t, "hi")); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if len(f.Messages()) != 1 {
		t.Fatalf("expected the already-open handle to see the appended message, got %d", len(f.Messages()))
	}
}

func TestCopyAndMoveMessage(t *testing.T) {
	srcDir := filepath.Join(t.TempDir(), "src")
	dstDir := filepath.Join(t.TempDir(), "dst")
	m := New(nil, "mh")

	src, err := m.Open(folder.Options{Path: srcDir, Access: folder.ReadWrite, Create: true, Extract: folder.Always})
	if err != nil {
		t.Fatal(err)
	}
	dst, err := m.Open(folder.Options{Path: dstDir, Access: folder.ReadWrite, Create: true, Extract: folder.Always})
	if err != nil {
		t.Fatal(err)
	}

	msg := newMsg(t, "move me")
	added, err := src.AddMessage(msg)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.MoveMessage(dst, added); err != nil {
		t.Fatalf("MoveMessage() error = %v", err)
	}
	if !added.IsDeleted() {
		t.Error("expected the source message to be marked deleted after a move")
	}
	if len(dst.Messages()) != 1 {
		t.Fatalf("expected 1 message in dst after move, got %d", len(dst.Messages()))
	}
}

func TestThreadsCoversMultipleFolders(t *testing.T) {
	dirA := filepath.Join(t.TempDir(), "a")
	dirB := filepath.Join(t.TempDir(), "b")
	m := New(nil, "mh")

	a, err := m.Open(folder.Options{Path: dirA, Access: folder.ReadWrite, Create: true, Extract: folder.Always})
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Open(folder.Options{Path: dirB, Access: folder.ReadWrite, Create: true, Extract: folder.Always})
	if err != nil {
		t.Fatal(err)
	}

	root := newMsg(t, "root")
	reply := newMsg(t, "reply", field.New("In-Reply-To", "<"+root.ID()+">"))
	if _, err := a.AddMessage(root); err != nil {
		t.Fatal(err)
	}
	if _, err := b.AddMessage(reply); err != nil {
		t.Fatal(err)
	}

	tr := m.Threads(a, b)
	start := tr.ThreadStart(reply)
	if start == nil || start.ID() != root.ID() {
		t.Fatalf("ThreadStart(reply) = %v, want the root node across both folders", start)
	}

	tr2 := m.Threads(a, b)
	if tr2 != tr {
		t.Error("expected Threads to return the cached builder for the same folder set")
	}
}
