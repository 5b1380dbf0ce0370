package maildir

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/folder"
	"github.com/markov2/go-mailbox/message"
)

var labelToFlag = map[string]byte{
	"draft":   'D',
	"flagged": 'F',
	"replied": 'R',
	"seen":    'S',
	"deleted": 'T',
}

// flagsFor renders m's current labels as a canonical-order flag
// string, per spec.md §4.8's "FLAGS alphabetic, rendered in ASCII
// order" rule.
func flagsFor(m *message.Message) string {
	var b strings.Builder
	for _, f := range flagOrder {
		label := flagToLabel[f]
		if m.HasLabel(label) {
			b.WriteByte(f)
		}
	}
	return b.String()
}

// Accept moves message i from new/ into cur/ without altering its
// flags, the maildir delivery protocol's "this MUA has now seen the
// message exists" step, per spec.md §4.8. A message already in cur/
// is left untouched.
func (md *Maildir) Accept(i int) error {
	if i < 0 || i >= len(md.slots) || md.slots[i] == nil {
		return exterrors.IoError("maildir.Accept", md.dir, os.ErrNotExist)
	}
	sl := md.slots[i]
	if sl.inCur {
		return nil
	}
	oldPath := sl.path()
	sl.inCur = true
	if err := os.Rename(oldPath, sl.path()); err != nil {
		sl.inCur = false
		return exterrors.IoError("maildir.Accept", oldPath, err)
	}
	return nil
}

// Write persists label changes (via an atomic rename to reflect new
// flags) and writes out any newly added message, straight into cur/
// with its current flags — a message this library created was never
// "new" to begin with. Per spec.md §4.5, maildir needs no folder lock:
// every mutation is a single atomic filesystem rename.
func (md *Maildir) Write(policy folder.WritePolicy) (folder.Result, error) {
	if policy == folder.Never {
		md.Journal.Noticef("maildir: write skipped (policy=never)")
		return folder.Result{}, nil
	}

	messages := md.Messages()
	var result folder.Result
	var kept []*message.Message
	var keptSlots []*slot

	for i, m := range messages {
		sl := (*slot)(nil)
		if i < len(md.slots) {
			sl = md.slots[i]
		}

		if m.IsDeleted() {
			result.Deleted++
			if sl != nil {
				os.Remove(sl.path())
			}
			continue
		}

		if sl == nil {
			newSlot, err := md.deliver(m)
			if err != nil {
				return folder.Result{}, err
			}
			sl = newSlot
		} else if err := md.restate(m, sl); err != nil {
			return folder.Result{}, err
		}

		kept = append(kept, m)
		keptSlots = append(keptSlots, sl)
		result.Written++
	}

	md.slots = keptSlots
	md.ReplaceAll(kept)
	return result, nil
}

// restate renames sl's file into cur/ if m's flags no longer match what
// is encoded in its filename or if the file still sits in new/; a cur/
// file whose flags already match is left alone.
func (md *Maildir) restate(m *message.Message, sl *slot) error {
	wantFlags := flagsFor(m)
	if sl.inCur && sl.flags == wantFlags {
		return nil
	}
	old := sl.path()
	sl.inCur = true
	sl.flags = wantFlags
	if err := os.Rename(old, sl.path()); err != nil {
		return exterrors.IoError("maildir.Write", old, err)
	}
	return nil
}

// deliver writes a brand-new in-memory message straight to cur/ with
// its current label-derived flags, using a freshly generated <uniq>.
func (md *Maildir) deliver(m *message.Message) (*slot, error) {
	sl := &slot{dir: md.dir, uniq: newUniq(), inCur: true, flags: flagsFor(m)}
	tmpPath := filepath.Join(md.dir, dirTmp, sl.uniq)
	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, exterrors.IoError("maildir.Write", tmpPath, err)
	}
	if err := m.Print(out); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return nil, err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, exterrors.IoError("maildir.Write", tmpPath, err)
	}
	if err := os.Rename(tmpPath, sl.path()); err != nil {
		os.Remove(tmpPath)
		return nil, exterrors.IoError("maildir.Write", sl.path(), err)
	}
	return sl, nil
}
