package mh

import (
	"os"

	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/message"
)

// AppendDirect writes msgs to dir as freshly numbered files above the
// current maximum, without loading or reparsing any existing message —
// spec.md §4.10's manager-level append_message contract for a folder
// that is not currently open. It leaves .mh_sequences untouched: an
// appended message absent from "unseen" is, per the existing reader,
// implicitly seen.
func AppendDirect(dir string, msgs []*message.Message, create bool) error {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) && create {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return exterrors.IoError("mh.AppendDirect", dir, mkErr)
			}
		} else {
			return exterrors.IoError("mh.AppendDirect", dir, err)
		}
	}

	nums, err := listMessageFiles(dir)
	if err != nil {
		return err
	}
	next := 1
	if len(nums) > 0 {
		next = nums[len(nums)-1] + 1
	}

	for _, m := range msgs {
		sl := &slot{num: next, dir: dir}
		out, err := os.OpenFile(sl.path(), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err != nil {
			return exterrors.IoError("mh.AppendDirect", sl.path(), err)
		}
		err = m.Print(out)
		closeErr := out.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return exterrors.IoError("mh.AppendDirect", sl.path(), closeErr)
		}
		next++
	}
	return nil
}
