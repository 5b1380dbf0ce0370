package mh

import (
	"os"

	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/folder"
	"github.com/markov2/go-mailbox/message"
)

// Write persists every message to its own numbered file, per spec.md
// §4.8's MH write path, and rewrites .mh_sequences to match the
// current label state. Deleted messages are removed from disk, unlike
// Mbox's drop-from-the-rendered-file approach, since each message here
// already owns a discrete file.
func (mh *MH) Write(policy folder.WritePolicy) (folder.Result, error) {
	if policy == folder.Never {
		mh.Journal.Noticef("mh: write skipped (policy=never)")
		return folder.Result{}, nil
	}

	messages := mh.Messages()
	var result folder.Result
	var kept []*message.Message
	var keptSlots []*slot
	var toRemove []string

	for i, m := range messages {
		if m.IsDeleted() {
			result.Deleted++
			if i < len(mh.slots) && mh.slots[i] != nil {
				toRemove = append(toRemove, mh.slots[i].path())
			}
			continue
		}
		kept = append(kept, m)
		if i < len(mh.slots) {
			keptSlots = append(keptSlots, mh.slots[i])
		} else {
			keptSlots = append(keptSlots, nil)
		}
	}

	nextNum := 1
	if !mh.renumber {
		for _, s := range keptSlots {
			if s != nil && s.num >= nextNum {
				nextNum = s.num + 1
			}
		}
	}

	finalSlots := make([]*slot, len(kept))
	for i, m := range kept {
		sl := keptSlots[i]
		var num int
		switch {
		case mh.renumber:
			num = i + 1
		case sl != nil:
			num = sl.num
		default:
			num = nextNum
			nextNum++
		}

		if sl != nil && sl.num == num && !m.Modified() {
			// Unmodified message keeping its filename: nothing to do.
			finalSlots[i] = sl
			result.Written++
			continue
		}

		newSlot := &slot{num: num, dir: mh.dir}
		if err := mh.persist(m, sl, newSlot); err != nil {
			return folder.Result{}, err
		}
		finalSlots[i] = newSlot
		result.Written++
	}

	for _, p := range toRemove {
		os.Remove(p)
	}

	if mh.renumber {
		// Remove any leftover file above len(kept) from a previous,
		// longer numbering (renumbering never leaves holes).
		if nums, err := listMessageFiles(mh.dir); err == nil {
			for _, n := range nums {
				if n > len(kept) {
					os.Remove((&slot{num: n, dir: mh.dir}).path())
				}
			}
		}
	}

	numbered := make(map[int]*message.Message, len(kept))
	for i, m := range kept {
		numbered[finalSlots[i].num] = m
	}
	if err := writeSequences(mh.dir, buildSequences(numbered)); err != nil {
		return folder.Result{}, err
	}
	if mh.keepIndex {
		if err := writeIndex(mh.dir, numbered); err != nil {
			return folder.Result{}, err
		}
	}

	mh.slots = finalSlots
	mh.ReplaceAll(kept)
	return result, nil
}

// persist writes m's current head+body to newSlot's file. If sl names
// a different, still-existing file and m was not modified, persist
// renames instead of re-rendering, per spec.md §4.8's "unmodified
// messages are renamed, not rewritten" write-cost rule.
func (mh *MH) persist(m *message.Message, sl, newSlot *slot) error {
	if sl != nil && !m.Modified() {
		if err := os.Rename(sl.path(), newSlot.path()); err == nil {
			return nil
		}
		// Fall through to a full render if the rename failed (e.g. sl
		// was never actually written to disk yet).
	}

	// MH keeps message state in .mh_sequences, not in a Status header,
	// so the head is rendered exactly as it stands.
	out, err := os.OpenFile(newSlot.path(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return exterrors.IoError("mh.Write", newSlot.path(), err)
	}
	defer out.Close()
	if err := m.Print(out); err != nil {
		return err
	}
	return nil
}
