package manager

import (
	"github.com/markov2/go-mailbox/body"
	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/field"
	"github.com/markov2/go-mailbox/folder"
	"github.com/markov2/go-mailbox/head"
	"github.com/markov2/go-mailbox/message"
	"github.com/markov2/go-mailbox/thread"
)

// AppendMessage implements spec.md §4.10's append_message: if path is
// already open, each message is handed to its add_message; otherwise
// the matching backend writes msgs straight to disk in an
// open-append-close cycle, without loading or reparsing any existing
// message already there.
func (m *Manager) AppendMessage(path string, create bool, msgs ...*message.Message) error {
	norm := m.normalize(path)
	if f, ok := m.openFolders[norm]; ok {
		for _, msg := range msgs {
			if _, err := f.AddMessage(msg); err != nil {
				return err
			}
		}
		return nil
	}

	ft := m.detect(norm)
	if ft == nil {
		if !create {
			return exterrors.UnknownFolderType(norm)
		}
		ft = m.typeByName(m.defaultFolderType)
		if ft == nil {
			return exterrors.UnknownFolderType(norm)
		}
	}
	return ft.AppendDirect(norm, msgs, create)
}

// cloneMessage builds a standalone in-memory copy of msg's header
// fields and body bytes, detached from msg's folder and byte-range
// state, so it can be added to a different Folder without the two
// messages sharing any lazy-realisation plumbing.
func cloneMessage(msg *message.Message) (*message.Message, error) {
	h, err := msg.Head()
	if err != nil {
		return nil, err
	}
	names, err := h.Names()
	if err != nil {
		return nil, err
	}
	var fields []*field.Field
	for _, name := range names {
		all, err := h.All(name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, all...)
	}
	newHead := head.NewComplete(fields)

	b, err := msg.Body()
	if err != nil {
		return nil, err
	}
	data, err := b.String()
	if err != nil {
		return nil, err
	}

	newMsg := message.New(newHead, body.NewString(data, b.ContentInfo()))
	for name, value := range msg.Labels() {
		_ = newMsg.SetLabel(name, value != "")
	}
	return newMsg, nil
}

// CopyMessage implements spec.md §4.10's copy_message: clones msg and
// adds the clone to dst, leaving msg and its original folder untouched.
func (m *Manager) CopyMessage(dst folder.Folder, msg *message.Message) (*message.Message, error) {
	clone, err := cloneMessage(msg)
	if err != nil {
		return nil, err
	}
	return dst.AddMessage(clone)
}

// MoveMessage implements spec.md §4.10's move_message: copy_message
// followed by marking msg deleted in its original folder. The caller
// still owns flushing msg's folder (a Write) for the deletion to
// become visible on disk.
func (m *Manager) MoveMessage(dst folder.Folder, msg *message.Message) (*message.Message, error) {
	copied, err := m.CopyMessage(dst, msg)
	if err != nil {
		return nil, err
	}
	if err := msg.SetLabel(message.LabelDeleted, true); err != nil {
		return nil, err
	}
	return copied, nil
}

// Threads implements spec.md §4.10's threads(folder_or_folders):
// builds (or returns the cached) Thread covering exactly the given
// folders, keyed by their normalised names joined in call order so
// the same folder set always hits the same cache entry.
func (m *Manager) Threads(folders ...folder.Folder) *thread.Thread {
	key := ""
	for _, f := range folders {
		key += f.Name() + "\x00"
	}
	if cached, ok := m.threads[key]; ok {
		return cached
	}

	tr := thread.New()
	for _, f := range folders {
		for _, msg := range f.Messages() {
			_ = tr.Ingest(msg)
		}
	}
	m.threads[key] = tr
	return tr
}
