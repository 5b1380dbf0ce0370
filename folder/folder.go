// Package folder defines the capability set every mail-folder backend
// (mbox, MH, Maildir) implements, and the configuration surface shared
// across all of them, per spec.md §4.8/§4.11.
package folder

import (
	"github.com/markov2/go-mailbox/head"
	"github.com/markov2/go-mailbox/message"
)

// Organization is how a backend lays messages out on disk.
type Organization int

const (
	// FILE backends (Mbox) keep every message concatenated in one file.
	FILE Organization = iota
	// DIRECTORY backends (MH, Maildir) keep one file per message.
	DIRECTORY
)

func (o Organization) String() string {
	if o == DIRECTORY {
		return "directory"
	}
	return "file"
}

// Access is the read/write mode a folder was opened with.
type Access int

const (
	ReadOnly Access = iota
	ReadWrite
)

// WritePolicy controls how Folder.Write persists changes. Every
// backend accepts Replace; Mbox additionally honours Inplace, and any
// backend accepts Never (flush nothing, just log).
type WritePolicy int

const (
	// Replace writes a new file beside the old one and renames over
	// it atomically (spec.md §4.8's "write new content to folder.new,
	// then atomically rename").
	Replace WritePolicy = iota
	// Inplace rewrites bytes starting at the first modified message,
	// Mbox-only; other backends treat it the same as Replace.
	Inplace
	// Never flushes nothing; modifications are discarded from disk.
	Never
)

// Result summarises the outcome of a Write.
type Result struct {
	Written int
	Deleted int
}

// Folder is the common contract of every backend, per spec.md §4.8's
// operation table.
type Folder interface {
	Name() string
	Organization() Organization
	Access() Access

	Messages() []*message.Message
	Message(i int) (*message.Message, error)
	MessageByID(id string) (*message.Message, error)

	AddMessage(m *message.Message) (*message.Message, error)
	DeleteMessage(i int) error

	Write(policy WritePolicy) (Result, error)
	Close(opts CloseOptions) error

	ListSubfolders() ([]string, error)

	// DetermineBodyType picks the default body realisation class for
	// a freshly parsed message, given its head.
	DetermineBodyType(h *head.Head) string
}

// CloseOptions configures Folder.Close.
type CloseOptions struct {
	// Write, when true, flushes modifications before unlocking.
	// Mirrors Options.SaveOnExit but lets a caller override it once.
	Write  bool
	Policy WritePolicy
}
