// Package message implements C6: the Head+Body pair plus labels,
// sequence number, and folder back-reference described by spec.md §3.
package message

import (
	"io"

	"github.com/markov2/go-mailbox/body"
	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/head"
	"github.com/markov2/go-mailbox/log"
)

// Message owns exactly one Head and one Body. Its back-reference to
// the owning Folder is an index (folder id + sequence number), not a
// pointer, per spec.md §9's "weak back-reference" note: dropping the
// Folder must not keep the Message's storage alive through this field.
type Message struct {
	id      string
	head    *head.Head
	body    *body.Body
	labels   map[string]string
	trusted  bool
	readOnly bool

	folderID string
	seq      int

	destructed bool

	journal *log.Journal
}

// New builds a Message in memory (not yet attached to any folder). If
// the head has no usable Message-Id, one is synthesised immediately,
// matching spec.md §6: "a new id is synthesised as ... on ingestion".
func New(h *head.Head, b *body.Body) *Message {
	m := &Message{
		head:    h,
		body:    b,
		labels:  map[string]string{},
		trusted: true,
		journal: log.NewJournal(log.DefaultLogger),
	}
	m.id = idFromHeaderOrNew(h)
	return m
}

// Attach records m's position within a folder: folderID identifies the
// folder (its normalised open name) and seq is m's index in the
// folder's message list. Used by folder.Folder when a message is
// added or loaded.
func (m *Message) Attach(folderID string, seq int) {
	m.folderID = folderID
	m.seq = seq
}

// Detach clears the weak folder back-reference, e.g. when the owning
// Folder is closed; the Message identity stub survives.
func (m *Message) Detach() {
	m.folderID = ""
}

func (m *Message) FolderID() string { return m.folderID }
func (m *Message) SeqNr() int       { return m.seq }
func (m *Message) ID() string       { return m.id }
func (m *Message) Trusted() bool    { return m.trusted }
func (m *Message) SetTrusted(v bool)  { m.trusted = v }
func (m *Message) SetReadOnly(v bool) { m.readOnly = v }
func (m *Message) ReadOnly() bool     { return m.readOnly }
func (m *Message) Journal() *log.Journal { return m.journal }

// Head returns the message's header, failing if the message has been
// destructed.
func (m *Message) Head() (*head.Head, error) {
	if m.destructed {
		return nil, exterrors.MessageAccessAfterDestruct("message.Head")
	}
	return m.head, nil
}

// Body returns the message's payload, failing if the message has been
// destructed.
func (m *Message) Body() (*body.Body, error) {
	if m.destructed {
		return nil, exterrors.MessageAccessAfterDestruct("message.Body")
	}
	return m.body, nil
}

// Modified reports whether either the head or the body has unwritten
// changes.
func (m *Message) Modified() bool {
	if m.destructed {
		return false
	}
	return m.head.Modified() || m.body.Modified()
}

// Print renders the full message (head, blank line, body) to w,
// implementing the body.Part interface so a Message can be embedded as
// a multipart child or a nested message/rfc822 body.
func (m *Message) Print(w io.Writer) error {
	if m.destructed {
		return exterrors.MessageAccessAfterDestruct("message.Print")
	}
	if err := m.head.Print(w); err != nil {
		return err
	}
	return m.body.Print(w)
}

// Size returns the rendered byte length of the whole message.
func (m *Message) Size() (int, error) {
	if m.destructed {
		return 0, exterrors.MessageAccessAfterDestruct("message.Size")
	}
	headSize, err := m.head.Size()
	if err != nil {
		return 0, err
	}
	bodySize, err := m.body.Size()
	if err != nil {
		return 0, err
	}
	return headSize + 1 + bodySize, nil
}
