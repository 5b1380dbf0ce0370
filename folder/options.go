package folder

import (
	"time"

	"github.com/markov2/go-mailbox/body"
	"github.com/markov2/go-mailbox/head"
	"github.com/markov2/go-mailbox/lock"
)

// Options is the plain configuration struct every Folder.Open consults,
// per spec.md §6's "Configuration options" and SPEC_FULL.md §4.11 — one
// field per enumerated effect, no config-file DSL.
type Options struct {
	// Path is either an absolute/relative folder path or, when it
	// starts with "=", a name resolved against FolderDir.
	Path      string
	FolderDir string

	Access Access
	Create bool

	KeepIndex  bool
	SaveOnExit bool

	LockType string // "dotlock" | "flock" | "nfs" | "multi" | "none"
	// LockSubtypes lists the strategies combined when LockType ==
	// "multi", acquired in order and rolled back in reverse.
	LockSubtypes []string
	LockTimeout  time.Duration
	LockWait     time.Duration

	// Extract decides when a parsed message's body is loaded eagerly;
	// nil defaults to LAZY. See extract.go.
	Extract ExtractPolicy

	// FieldFilter decides which header fields are kept in a message's
	// Subset head; nil defaults to DefaultFieldFilter.
	FieldFilter FieldFilter

	// HeadType/BodyType let a caller inject a custom realisation by
	// wrapping head.Head/body.Body; nil uses the built-in ones.
	// message_type from spec.md §6 folds into these two, since Go has
	// no subtype relation to hang a separate override off of.
	HeadType func() *head.Head
	BodyType func() *body.Body
}

// BuildLocker turns o's LockType/LockSubtypes into a concrete Locker,
// composing lock.New and lock.NewMulti for the "multi" strategy.
func (o Options) BuildLocker(path string) (lock.Locker, error) {
	opts := lock.Options{Wait: o.LockWait, StaleAge: o.LockTimeout}
	if o.LockType == "multi" {
		lockers := make([]lock.Locker, 0, len(o.LockSubtypes))
		for _, name := range o.LockSubtypes {
			l, err := lock.New(name, path, opts)
			if err != nil {
				return nil, err
			}
			lockers = append(lockers, l)
		}
		return lock.NewMulti(lockers...), nil
	}
	return lock.New(o.LockType, path, opts)
}
