package mh

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/field"
	"github.com/markov2/go-mailbox/head"
	"github.com/markov2/go-mailbox/message"
	"github.com/markov2/go-mailbox/parser"
)

// indexEntry is one cached header snapshot from .index: the head as it
// stood at the last Write that had KeepIndex set, plus the file size
// it was captured from so a later Open can tell whether the message
// file has since changed underneath it.
type indexEntry struct {
	num  int
	size int64
	head *head.Head
}

// readIndex loads dir/.index, discarding any entry whose recorded
// X-MailBox-Size no longer matches the message file's current size —
// per spec.md §4.8, a stale snapshot is worse than none, so it is
// simply dropped rather than trusted.
func readIndex(dir string) (map[int]*head.Head, error) {
	path := dir + string(os.PathSeparator) + indexFile
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, exterrors.IoError("mh.readIndex", path, err)
	}
	defer f.Close()

	p := parser.New(f)
	out := map[int]*head.Head{}
	for {
		raw, _, _, err := p.ReadHeader()
		if err != nil {
			break
		}
		if len(raw) == 0 {
			break
		}
		var num int
		var size int64
		var kept []*field.Field
		for _, rf := range raw {
			switch rf.Name {
			case "x-mailbox-filename":
				num, _ = strconv.Atoi(rf.Body)
			case "x-mailbox-size":
				size, _ = strconv.ParseInt(rf.Body, 10, 64)
			default:
				kept = append(kept, field.Parse(rf))
			}
		}
		if num == 0 {
			continue
		}
		info, err := os.Stat((&slot{num: num, dir: dir}).path())
		if err != nil || info.Size() != size {
			continue
		}
		out[num] = head.NewComplete(kept)
	}
	return out, nil
}

// writeIndex rebuilds dir/.index from numbered, snapshotting every
// message's complete header behind an injected X-MailBox-Filename/
// X-MailBox-Size pair.
func writeIndex(dir string, numbered map[int]*message.Message) error {
	nums := make([]int, 0, len(numbered))
	for n := range numbered {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var buf bytes.Buffer
	for _, n := range nums {
		m := numbered[n]
		sl := &slot{num: n, dir: dir}
		info, err := os.Stat(sl.path())
		if err != nil {
			continue
		}
		h, err := m.Head()
		if err != nil {
			return err
		}
		fmt.Fprintf(&buf, "X-MailBox-Filename: %d\n", n)
		fmt.Fprintf(&buf, "X-MailBox-Size: %d\n", info.Size())
		if err := h.Print(&buf); err != nil {
			return err
		}
	}

	path := dir + string(os.PathSeparator) + indexFile
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return exterrors.IoError("mh.writeIndex", path, err)
	}
	return nil
}
