// Package mh implements the MH folder backend (one RFC-5322 message
// per numerically named file, labels recorded in .mh_sequences), per
// spec.md §4.8.
package mh

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/markov2/go-mailbox/body"
	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/field"
	"github.com/markov2/go-mailbox/folder"
	"github.com/markov2/go-mailbox/head"
	"github.com/markov2/go-mailbox/lock"
	"github.com/markov2/go-mailbox/message"
	"github.com/markov2/go-mailbox/metrics"
	"github.com/markov2/go-mailbox/parser"
)

const sequencesFile = ".mh_sequences"
const indexFile = ".index"

// slot tracks the current on-disk filename of one message, shared
// with its delayed Head/Body realize closures so a later renumbering
// (see write.go) keeps lazy reads pointed at the right file.
type slot struct {
	num  int
	dir  string
}

func (s *slot) path() string { return filepath.Join(s.dir, strconv.Itoa(s.num)) }

// MH is a Folder backed by a directory of single-message files.
type MH struct {
	*folder.Base

	dir      string
	locker   lock.Locker
	renumber bool
	keepIndex bool

	slots []*slot // parallel to Base.Messages()
}

// Detect reports whether path is an MH directory: it contains
// .mh_sequences, or at least one numerically-named file.
func Detect(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	if _, err := os.Stat(filepath.Join(path, sequencesFile)); err == nil {
		return true
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if _, err := strconv.Atoi(e.Name()); err == nil {
			return true
		}
	}
	return false
}

func (m *MH) SetRenumber(v bool)  { m.renumber = v }
func (m *MH) Organization() folder.Organization { return folder.DIRECTORY }

// Open parses dir as an MH folder: every numerically-named file
// becomes a message, positioned by .mh_sequences' cur/unseen/custom
// labels.
func Open(dir string, opts folder.Options) (*MH, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) && opts.Create {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return nil, exterrors.IoError("mh.Open", dir, mkErr)
			}
		} else {
			return nil, exterrors.IoError("mh.Open", dir, err)
		}
	} else if !info.IsDir() {
		return nil, exterrors.IoError("mh.Open", dir, os.ErrInvalid)
	}

	var locker lock.Locker
	if opts.Access == folder.ReadWrite {
		o := opts
		if o.LockType == "" {
			o.LockType = "dotlock"
		}
		locker, err = o.BuildLocker(filepath.Join(dir, "mh"))
		if err != nil {
			return nil, err
		}
		ok, err := locker.Lock()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, exterrors.LockFailed("mh.Open", "timed out acquiring folder lock")
		}
	}

	mh := &MH{
		Base:      folder.NewBase(dir, opts.Access, opts),
		dir:       dir,
		locker:    locker,
		keepIndex: opts.KeepIndex,
	}

	nums, err := listMessageFiles(dir)
	if err != nil {
		mh.unlockQuietly()
		return nil, err
	}
	seqs, _ := readSequences(dir)
	if dropped := normalizeCur(seqs); dropped > 0 {
		mh.Journal.Warnf("mh: .mh_sequences cur: named %d extra message(s), keeping only the lowest-numbered one", dropped)
	}

	var cached map[int]*head.Head
	if opts.KeepIndex {
		cached, _ = readIndex(dir)
	}

	filter := opts.FieldFilter
	if filter == nil {
		filter = folder.DefaultFieldFilter
	}
	extract := opts.Extract
	if extract == nil {
		extract = folder.Lazy
	}

	for _, n := range nums {
		sl := &slot{num: n, dir: dir}
		var m *message.Message
		var err error
		if h, ok := cached[n]; ok {
			m, err = mh.loadMessageWithHead(sl, h, extract)
		} else {
			m, err = mh.loadMessage(sl, filter, extract)
		}
		if err != nil {
			mh.unlockQuietly()
			return nil, err
		}
		applySequenceLabels(m, n, seqs)
		mh.Append(m)
		mh.slots = append(mh.slots, sl)
	}
	return mh, nil
}

func (mh *MH) unlockQuietly() {
	if mh.locker != nil {
		mh.locker.Unlock()
	}
}

func listMessageFiles(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, exterrors.IoError("mh.Open", dir, err)
	}
	var nums []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n, err := strconv.Atoi(e.Name()); err == nil {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	return nums, nil
}

func (mh *MH) loadMessage(sl *slot, filter folder.FieldFilter, extract folder.ExtractPolicy) (*message.Message, error) {
	f, err := os.Open(sl.path())
	if err != nil {
		return nil, exterrors.IoError("mh.Open", sl.path(), err)
	}
	defer f.Close()

	p := parser.New(f)
	rawFields, headBegin, headEnd, err := p.ReadHeader()
	if err != nil {
		return nil, err
	}

	var kept []*field.Field
	all := make([]*field.Field, 0, len(rawFields))
	for _, rf := range rawFields {
		fl := field.Parse(rf)
		all = append(all, fl)
		if filter(rf.Name) {
			kept = append(kept, fl)
		}
	}

	var h *head.Head
	if len(kept) == len(all) {
		h = head.NewComplete(all)
	} else {
		h = head.NewSubset(kept, mh.realizeHead(sl, headBegin))
	}
	_ = headEnd

	contentLength, linesHint := guessHints(h)
	var bd *body.Body
	if extract.ShouldExtract(h, linesHint) {
		lines, bBegin, bEnd, err := p.BodyAsLines(contentLength, linesHint)
		if err != nil {
			return nil, err
		}
		bd = body.NewLines(lines, contentInfo(h), bBegin, bEnd)
	} else {
		bd = body.NewDelayed(headEnd, 0, mh.realizeBody(sl, headEnd, h))
	}

	return message.New(h, bd), nil
}

// loadMessageWithHead skips header parsing in favour of cachedHead (a
// snapshot read from .index): it still has to open the file to find
// where the header ends, but the header's fields need no reparsing.
func (mh *MH) loadMessageWithHead(sl *slot, cachedHead *head.Head, extract folder.ExtractPolicy) (*message.Message, error) {
	f, err := os.Open(sl.path())
	if err != nil {
		return nil, exterrors.IoError("mh.Open", sl.path(), err)
	}
	defer f.Close()

	p := parser.New(f)
	if _, _, headEnd, err := p.ReadHeader(); err != nil {
		return nil, err
	} else {
		contentLength, linesHint := guessHints(cachedHead)
		var bd *body.Body
		if extract.ShouldExtract(cachedHead, linesHint) {
			lines, bBegin, bEnd, err := p.BodyAsLines(contentLength, linesHint)
			if err != nil {
				return nil, err
			}
			bd = body.NewLines(lines, contentInfo(cachedHead), bBegin, bEnd)
		} else {
			bd = body.NewDelayed(headEnd, 0, mh.realizeBody(sl, headEnd, cachedHead))
		}
		return message.New(cachedHead, bd), nil
	}
}

func (mh *MH) realizeHead(sl *slot, begin int64) head.RealizeFunc {
	return func() ([]*field.Field, error) {
		metrics.DelayedRealisations.WithLabelValues("head").Inc()
		f, err := os.Open(sl.path())
		if err != nil {
			return nil, exterrors.IoError("mh.realizeHead", sl.path(), err)
		}
		defer f.Close()
		p := parser.New(f)
		if err := p.SeekTo(begin); err != nil {
			return nil, err
		}
		raw, _, _, err := p.ReadHeader()
		if err != nil {
			return nil, err
		}
		fields := make([]*field.Field, 0, len(raw))
		for _, rf := range raw {
			fields = append(fields, field.Parse(rf))
		}
		return fields, nil
	}
}

func (mh *MH) realizeBody(sl *slot, begin int64, h *head.Head) body.RealizeFunc {
	return func() (*body.Body, error) {
		metrics.DelayedRealisations.WithLabelValues("body").Inc()
		f, err := os.Open(sl.path())
		if err != nil {
			return nil, exterrors.IoError("mh.realizeBody", sl.path(), err)
		}
		defer f.Close()
		p := parser.New(f)
		if err := p.SeekTo(begin); err != nil {
			return nil, err
		}
		contentLength, linesHint := guessHints(h)
		lines, bBegin, bEnd, err := p.BodyAsLines(contentLength, linesHint)
		if err != nil {
			return nil, err
		}
		return body.NewLines(lines, contentInfo(h), bBegin, bEnd), nil
	}
}

func guessHints(h *head.Head) (contentLength, lines int) {
	if f, err := h.Get("content-length"); err == nil && f != nil {
		contentLength = atoiDefault(f.Body())
	}
	if f, err := h.Get("lines"); err == nil && f != nil {
		lines = atoiDefault(f.Body())
	}
	return
}

func atoiDefault(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func contentInfo(h *head.Head) body.ContentInfo {
	ci := body.ContentInfo{MimeType: "text/plain", TransferEncoding: "7bit"}
	if f, err := h.Get("content-type"); err == nil && f != nil {
		ci.MimeType = f.Body()
		if cs, ok := f.Attribute("charset"); ok {
			ci.Charset = cs
		}
	}
	if f, err := h.Get("content-transfer-encoding"); err == nil && f != nil {
		ci.TransferEncoding = f.Body()
	}
	return ci
}

func (mh *MH) DetermineBodyType(h *head.Head) string {
	if f, err := h.Get("content-type"); err == nil && f != nil && len(f.Body()) > 10 && f.Body()[:10] == "multipart/" {
		return "multipart"
	}
	return "lines"
}

// AddMessage appends m to the folder; it is assigned a filename only
// on Write, per spec.md §4.8's "holes are allowed" — an unwritten
// message simply has no slot yet.
func (mh *MH) AddMessage(m *message.Message) (*message.Message, error) {
	before := len(mh.Messages())
	added := mh.Append(m)
	if len(mh.Messages()) > before {
		mh.slots = append(mh.slots, nil)
	}
	return added, nil
}

func (mh *MH) Close(opts folder.CloseOptions) error {
	var err error
	if opts.Write {
		_, err = mh.Write(opts.Policy)
	}
	mh.unlockQuietly()
	return err
}
