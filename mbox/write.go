package mbox

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/folder"
	"github.com/markov2/go-mailbox/head"
	"github.com/markov2/go-mailbox/message"
)

// SetKeepDeleted suppresses the default Write behaviour of omitting
// messages carrying the deleted label, per spec.md §4.8. It is a
// backend-specific knob rather than a folder.Options field since only
// Mbox drops messages from a rendered file on write (MH/Maildir remove
// each deleted message's own file instead).
func (mb *Mbox) SetKeepDeleted(v bool) { mb.keepDeleted = v }

func (mb *Mbox) Write(policy folder.WritePolicy) (folder.Result, error) {
	switch policy {
	case folder.Never:
		mb.Journal.Noticef("mbox: write skipped (policy=never)")
		return folder.Result{}, nil
	case folder.Inplace:
		return mb.writeInplace()
	default:
		return mb.writeReplace()
	}
}

type countingWriter struct {
	io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.Writer.Write(p)
	c.n += int64(n)
	return n, err
}

// writeReplace rebuilds the whole file from the in-memory message
// list, writes it to a sidecar and renames it over the original,
// implementing spec.md §4.8's REPLACE policy and §7's "new file is
// built beside the old and atomically renamed" propagation policy.
func (mb *Mbox) writeReplace() (folder.Result, error) {
	tmpPath := mb.path + ".new"
	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return folder.Result{}, exterrors.IoError("mbox.Write", tmpPath, err)
	}
	cw := &countingWriter{Writer: bufio.NewWriter(out)}
	bw := cw.Writer.(*bufio.Writer)

	result, kept, entries, err := mb.renderRange(cw, mb.Messages(), mb.entries)
	if err != nil {
		out.Close()
		os.Remove(tmpPath)
		return folder.Result{}, err
	}
	if err := bw.Flush(); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return folder.Result{}, exterrors.IoError("mbox.Write", tmpPath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return folder.Result{}, exterrors.IoError("mbox.Write", tmpPath, err)
	}
	if err := os.Rename(tmpPath, mb.path); err != nil {
		return folder.Result{}, exterrors.IoError("mbox.Write", mb.path, err)
	}

	mb.reopenAfterWrite(kept, entries)
	return result, nil
}

// writeInplace copies the byte range of every unmodified, not-deleted,
// not-newly-added message verbatim from the existing file and only
// re-renders from the first message that changed, per spec.md §4.8's
// INPLACE contract.
func (mb *Mbox) writeInplace() (folder.Result, error) {
	mb.fillBodyEnds()
	first := mb.firstDirtyIndex()

	tmpPath := mb.path + ".new"
	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return folder.Result{}, exterrors.IoError("mbox.Write", tmpPath, err)
	}
	cw := &countingWriter{Writer: bufio.NewWriter(out)}
	bw := cw.Writer.(*bufio.Writer)

	messages := mb.Messages()
	var result folder.Result
	var kept []*message.Message
	var entries []*entry

	for i := 0; i < first && i < len(messages); i++ {
		m := messages[i]
		ent := mb.entries[i]
		start := cw.n
		if _, err := mb.f.Seek(ent.msgBegin, io.SeekStart); err != nil {
			out.Close()
			os.Remove(tmpPath)
			return folder.Result{}, exterrors.IoError("mbox.Write", mb.path, err)
		}
		if _, err := io.CopyN(cw, mb.f, ent.bodyEnd-ent.msgBegin); err != nil {
			out.Close()
			os.Remove(tmpPath)
			return folder.Result{}, exterrors.IoError("mbox.Write", mb.path, err)
		}
		shift := start - ent.msgBegin
		entries = append(entries, &entry{
			fromLine:  ent.fromLine,
			msgBegin:  start,
			headBegin: ent.headBegin + shift,
			headEnd:   ent.headEnd + shift,
			bodyEnd:   cw.n,
		})
		kept = append(kept, m)
		result.Written++
	}

	tailFrom := min(first, len(messages))
	var tailOrigEntries []*entry
	if tailFrom < len(mb.entries) {
		tailOrigEntries = mb.entries[tailFrom:]
	}
	tailResult, tailKept, tailEntries, err := mb.renderRange(cw, messages[tailFrom:], tailOrigEntries)
	if err != nil {
		out.Close()
		os.Remove(tmpPath)
		return folder.Result{}, err
	}
	result.Written += tailResult.Written
	result.Deleted += tailResult.Deleted
	kept = append(kept, tailKept...)
	entries = append(entries, tailEntries...)

	if err := bw.Flush(); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return folder.Result{}, exterrors.IoError("mbox.Write", tmpPath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return folder.Result{}, exterrors.IoError("mbox.Write", tmpPath, err)
	}
	if err := os.Rename(tmpPath, mb.path); err != nil {
		return folder.Result{}, exterrors.IoError("mbox.Write", mb.path, err)
	}

	mb.reopenAfterWrite(kept, entries)
	return result, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// renderRange writes every non-deleted message (or all, if
// mb.keepDeleted) in messages from scratch to cw, returning the
// messages actually written and their new byte-range entries in the
// same order.
func (mb *Mbox) renderRange(cw *countingWriter, messages []*message.Message, origEntries []*entry) (folder.Result, []*message.Message, []*entry, error) {
	var result folder.Result
	var kept []*message.Message
	var entries []*entry

	for i, m := range messages {
		if m.IsDeleted() && !mb.keepDeleted {
			result.Deleted++
			continue
		}
		var orig *entry
		if i < len(origEntries) {
			orig = origEntries[i]
		}
		ent, err := mb.renderOne(cw, m, orig)
		if err != nil {
			return folder.Result{}, nil, nil, err
		}
		kept = append(kept, m)
		entries = append(entries, ent)
		result.Written++
	}
	return result, kept, entries, nil
}

func (mb *Mbox) renderOne(cw *countingWriter, m *message.Message, orig *entry) (*entry, error) {
	h, err := m.Head()
	if err != nil {
		return nil, err
	}

	labels := map[string]bool{"seen": m.HasLabel("seen"), "old": m.HasLabel("old")}
	if err := head.ApplyLabelsToStatus(h, labels); err != nil {
		return nil, err
	}

	fromLine := mb.fromLineFor(m, h, orig)
	begin := cw.n
	if _, err := fmt.Fprintf(cw, "%s\n", fromLine); err != nil {
		return nil, exterrors.IoError("mbox.Write", mb.path, err)
	}
	headBegin := cw.n
	if err := h.Print(cw); err != nil {
		return nil, err
	}
	headEnd := cw.n
	if err := mb.printBodyEscaped(cw, m); err != nil {
		return nil, err
	}
	end := cw.n
	return &entry{fromLine: fromLine, msgBegin: begin, headBegin: headBegin, headEnd: headEnd, bodyEnd: end}, nil
}

func (mb *Mbox) printBodyEscaped(w io.Writer, m *message.Message) error {
	b, err := m.Body()
	if err != nil {
		return err
	}
	if !mb.EscapeFrom {
		return b.Print(w)
	}
	raw, err := b.String()
	if err != nil {
		return err
	}
	return escapeFromLines(w, raw)
}

// fillBodyEnds resolves any entry whose bodyEnd is still unknown
// (a lazily-extracted message that was never realised) using the
// contiguous-layout invariant: a message's body ends exactly where
// the next message's From line begins, or at EOF for the last one.
func (mb *Mbox) fillBodyEnds() {
	for i, ent := range mb.entries {
		if ent.bodyEnd >= 0 {
			continue
		}
		if i+1 < len(mb.entries) {
			ent.bodyEnd = mb.entries[i+1].msgBegin
		} else if info, err := mb.f.Stat(); err == nil {
			ent.bodyEnd = info.Size()
		}
	}
}

// firstDirtyIndex returns the smallest index whose message was
// modified, deleted, or lacks a corresponding on-disk entry (i.e. was
// appended since open). Everything before it is byte-identical to
// what's already on disk and can be copied verbatim.
func (mb *Mbox) firstDirtyIndex() int {
	messages := mb.Messages()
	for i, m := range messages {
		if i >= len(mb.entries) {
			return i
		}
		if m.Modified() || m.IsDeleted() {
			return i
		}
	}
	return len(messages)
}

// reopenAfterWrite points the Mbox at the freshly written file and
// replaces the in-memory message/entry bookkeeping with what was
// actually persisted — deleted messages are dropped for good, matching
// Mbox's "expunge on write" semantics.
func (mb *Mbox) reopenAfterWrite(kept []*message.Message, entries []*entry) {
	mb.f.Close()
	f, err := os.OpenFile(mb.path, os.O_RDWR, 0o644)
	if err != nil {
		mb.Journal.Errorf("mbox: reopen after write failed: %v", err)
		return
	}
	mb.f = f
	mb.p = newParser(f)
	mb.entries = entries
	mb.ReplaceAll(kept)
}
