package folder

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/log"
	"github.com/markov2/go-mailbox/message"
)

// Base implements the message-bookkeeping parts of Folder that are
// identical across backends (the in-memory slice, id lookup, label-only
// delete, subfolder listing) so Mbox/MH/Maildir only need to implement
// their own parsing and write path.
type Base struct {
	name     string
	access   Access
	opts     Options
	messages []*message.Message
	byID     map[string]int
	Journal  *log.Journal
}

func NewBase(name string, access Access, opts Options) *Base {
	return &Base{
		name:    name,
		access:  access,
		opts:    opts,
		byID:    make(map[string]int),
		Journal: log.NewJournal(log.DefaultLogger),
	}
}

func (b *Base) Name() string  { return b.name }
func (b *Base) Access() Access { return b.access }
func (b *Base) Options() Options { return b.opts }

func (b *Base) Messages() []*message.Message { return b.messages }

func (b *Base) Message(i int) (*message.Message, error) {
	if i < 0 || i >= len(b.messages) {
		return nil, exterrors.IoError("folder.Message", b.name, os.ErrNotExist)
	}
	return b.messages[i], nil
}

func (b *Base) MessageByID(id string) (*message.Message, error) {
	i, ok := b.byID[id]
	if !ok {
		return nil, exterrors.IoError("folder.MessageByID", id, os.ErrNotExist)
	}
	return b.messages[i], nil
}

// Append adds m to the in-memory list and attaches it, unless a
// message with the same id is already present, in which case the
// existing one is returned per spec.md §4.8's add_message contract.
func (b *Base) Append(m *message.Message) *message.Message {
	if i, ok := b.byID[m.ID()]; ok {
		return b.messages[i]
	}
	seq := len(b.messages)
	b.messages = append(b.messages, m)
	b.byID[m.ID()] = seq
	m.Attach(b.name, seq)
	return m
}

// ReplaceAll swaps the in-memory message list for messages, re-keying
// the id index and re-attaching every message to its new sequence
// number. Used after a write that drops or reorders messages.
func (b *Base) ReplaceAll(messages []*message.Message) {
	b.messages = messages
	b.byID = make(map[string]int, len(messages))
	for i, m := range messages {
		b.byID[m.ID()] = i
		m.Attach(b.name, i)
	}
}

func (b *Base) DeleteMessage(i int) error {
	m, err := b.Message(i)
	if err != nil {
		return err
	}
	return m.SetLabel(message.LabelDeleted, true)
}

func (b *Base) ListSubfolders() ([]string, error) {
	dir := b.name
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, exterrors.IoError("folder.ListSubfolders", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// ResolvePath expands a leading "=" against folderdirs, trying each in
// order, per spec.md §4.10's "=name" resolution; a bare path is
// returned unchanged.
func ResolvePath(path string, folderdirs []string) string {
	if !strings.HasPrefix(path, "=") {
		return path
	}
	name := strings.TrimPrefix(path, "=")
	for _, dir := range folderdirs {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if len(folderdirs) > 0 {
		return filepath.Join(folderdirs[0], name)
	}
	return name
}
