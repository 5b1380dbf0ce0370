package mbox

import (
	"os"

	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/message"
)

// AppendDirect writes msgs to the end of the mbox file at path without
// parsing its existing content, per spec.md §4.10's manager-level
// append_message contract for a folder that is not currently open: it
// opens the file in append mode, writes each message's synthesised or
// verbatim From line followed by the message itself, and closes.
func AppendDirect(path string, msgs []*message.Message, create bool) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if !create {
		flags = os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return exterrors.IoError("mbox.AppendDirect", path, err)
	}
	defer f.Close()

	for _, m := range msgs {
		h, err := m.Head()
		if err != nil {
			return err
		}
		if _, err := f.WriteString(synthesizeFromLine(h) + "\n"); err != nil {
			return exterrors.IoError("mbox.AppendDirect", path, err)
		}
		if err := m.Print(f); err != nil {
			return err
		}
	}
	return nil
}
