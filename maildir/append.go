package maildir

import (
	"os"
	"path/filepath"

	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/message"
)

// AppendDirect delivers msgs straight into dir's new/ subdirectory
// using the standard tmp-write-then-atomic-rename sequence, without
// loading or reparsing any existing message — spec.md §4.10's
// manager-level append_message contract for a folder that is not
// currently open. A message delivered this way carries no flags yet,
// matching ordinary mail delivery into new/.
func AppendDirect(dir string, msgs []*message.Message, create bool) error {
	if create {
		for _, sub := range []string{dirNew, dirCur, dirTmp} {
			if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
				return exterrors.IoError("maildir.AppendDirect", dir, err)
			}
		}
	}

	for _, m := range msgs {
		uniq := newUniq()
		tmpPath := filepath.Join(dir, dirTmp, uniq)
		out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err != nil {
			return exterrors.IoError("maildir.AppendDirect", tmpPath, err)
		}
		if err := m.Print(out); err != nil {
			out.Close()
			os.Remove(tmpPath)
			return err
		}
		if err := out.Close(); err != nil {
			os.Remove(tmpPath)
			return exterrors.IoError("maildir.AppendDirect", tmpPath, err)
		}
		finalPath := filepath.Join(dir, dirNew, uniq)
		if err := os.Rename(tmpPath, finalPath); err != nil {
			os.Remove(tmpPath)
			return exterrors.IoError("maildir.AppendDirect", finalPath, err)
		}
	}
	return nil
}
