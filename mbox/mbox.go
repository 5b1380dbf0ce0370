// Package mbox implements the single-file, "From "-separated folder
// backend described by spec.md §4.8.
package mbox

import (
	"os"
	"regexp"
	"strings"

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

// separatorRe matches the "From sender date" line that opens each
// message, per spec.md §6: `/^From (\S+) (.*)$/`.
var separatorRe = regexp.MustCompile(`^From (\S+) (.*)$`)

// entry tracks the byte ranges and verbatim From-line text for one
// message, so a write can decide whether to reuse or regenerate them.
type entry struct {
	fromLine  string
	msgBegin  int64
	headBegin int64
	headEnd   int64
	bodyEnd   int64
}

// Mbox is a Folder backed by one concatenated file.
type Mbox struct {
	*folder.Base

	path   string
	f      *os.File
	p      *parser.Parser
	locker lock.Locker

	// EscapeFrom controls whether body lines starting with "From "
	// are escaped on write. Default false, per DESIGN.md's Open
	// Question decision.
	EscapeFrom  bool
	keepDeleted bool

	entries []*entry
}

func newParser(f *os.File) *parser.Parser {
	p := parser.New(f)
	p.PushSeparator(separatorRe)
	return p
}

// Detect reports whether path looks like an Mbox file: a plain file
// whose first line matches the From-line pattern, per spec.md §4.8.
func Detect(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	buf := make([]byte, 1024)
	n, _ := f.Read(buf)
	if n == 0 {
		return false
	}
	line := buf[:n]
	for i, c := range line {
		if c == '\n' {
			line = line[:i]
			break
		}
	}
	return separatorRe.Match(line)
}

// Open parses path as an Mbox, acquiring a lock per opts and streaming
// every message into memory (bodies loaded per opts.Extract).
func Open(path string, opts folder.Options) (*Mbox, error) {
	flags := os.O_RDONLY
	if opts.Access == folder.ReadWrite {
		flags = os.O_RDWR
	}
	if opts.Create {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, exterrors.IoError("mbox.Open", path, err)
	}

	var locker lock.Locker
	if opts.Access == folder.ReadWrite {
		locker, err = buildLocker(opts, path)
		if err != nil {
			f.Close()
			return nil, err
		}
		ok, err := locker.Lock()
		if err != nil {
			f.Close()
			return nil, err
		}
		if !ok {
			f.Close()
			return nil, exterrors.LockFailed("mbox.Open", "timed out acquiring folder lock")
		}
	}

	mb := &Mbox{
		Base:   folder.NewBase(path, opts.Access, opts),
		path:   path,
		f:      f,
		p:      newParser(f),
		locker: locker,
	}

	if err := mb.parseAll(opts); err != nil {
		mb.unlockQuietly()
		f.Close()
		return nil, err
	}
	return mb, nil
}

func buildLocker(opts folder.Options, path string) (lock.Locker, error) {
	lt := opts.LockType
	if lt == "" {
		lt = "dotlock"
	}
	o := opts
	o.LockType = lt
	return o.BuildLocker(path)
}

func (mb *Mbox) unlockQuietly() {
	if mb.locker != nil {
		mb.locker.Unlock()
	}
}

func (mb *Mbox) parseAll(opts folder.Options) error {
	extract := opts.Extract
	if extract == nil {
		extract = folder.Lazy
	}
	filter := opts.FieldFilter
	if filter == nil {
		filter = folder.DefaultFieldFilter
	}

	offset, line, err := mb.p.ReadSeparator()
	for err == nil {
		msgBegin := offset
		ent := &entry{fromLine: line, msgBegin: msgBegin}

		rawFields, headBegin, headEnd, herr := mb.p.ReadHeader()
		if herr != nil {
			return herr
		}
		ent.headBegin, ent.headEnd = headBegin, headEnd

		var kept []*field.Field
		all := make([]*field.Field, 0, len(rawFields))
		for _, rf := range rawFields {
			fl := field.Parse(rf)
			all = append(all, fl)
			if filter(rf.Name) {
				kept = append(kept, fl)
			}
		}
		h := mb.buildHead(kept, all, headBegin)

		contentLength, linesHint := guessHints(h)
		shouldExtract := extract.ShouldExtract(h, linesHint)

		var bd *body.Body
		if shouldExtract {
			lines, bBegin, bEnd, berr := mb.p.BodyAsLines(contentLength, linesHint)
			if berr != nil {
				return berr
			}
			bd = body.NewLines(lines, contentInfo(h), bBegin, bEnd)
			ent.bodyEnd = bEnd
		} else {
			bodyBegin := headEnd
			bd = body.NewDelayed(bodyBegin, 0, mb.realizeBody(bodyBegin, h))
			// Bound the entry by scanning ahead for the next separator
			// without losing our place: peek via a throwaway parser
			// would duplicate I/O, so bodyEnd is finalised lazily the
			// first time Write needs it, via fillBodyEnds.
			ent.bodyEnd = -1
		}

		labels, _ := head.StatusLabels(h)
		m := message.New(h, bd)
		if labels != nil {
			m.SetLabels(labels)
		}
		mb.Append(m)
		mb.entries = append(mb.entries, ent)

		offset, line, err = mb.p.ReadSeparator()
	}
	return nil
}

func (mb *Mbox) buildHead(kept, all []*field.Field, begin int64) *head.Head {
	if len(kept) == len(all) {
		return head.NewComplete(all)
	}
	return head.NewSubset(kept, mb.realizeHead(begin))
}

func (mb *Mbox) realizeHead(begin int64) head.RealizeFunc {
	return func() ([]*field.Field, error) {
		metrics.DelayedRealisations.WithLabelValues("head").Inc()
		if err := mb.p.SeekTo(begin); err != nil {
			return nil, err
		}
		raw, _, _, err := mb.p.ReadHeader()
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

func (mb *Mbox) realizeBody(begin int64, h *head.Head) body.RealizeFunc {
	return func() (*body.Body, error) {
		metrics.DelayedRealisations.WithLabelValues("body").Inc()
		if err := mb.p.SeekTo(begin); err != nil {
			return nil, err
		}
		contentLength, linesHint := guessHints(h)
		lines, bBegin, bEnd, err := mb.p.BodyAsLines(contentLength, linesHint)
		if err != nil {
			return nil, err
		}
		return body.NewLines(lines, contentInfo(h), bBegin, bEnd), nil
	}
}

func guessHints(h *head.Head) (contentLength, lines int) {
	if f, err := h.Get("content-length"); err == nil && f != nil {
		contentLength = atoiDefault(f.Body(), 0)
	}
	if f, err := h.Get("lines"); err == nil && f != nil {
		lines = atoiDefault(f.Body(), 0)
	}
	return
}

func contentInfo(h *head.Head) body.ContentInfo {
	ci := body.ContentInfo{MimeType: "text/plain", TransferEncoding: "7bit"}
	if f, err := h.Get("content-type"); err == nil && f != nil {
		ci.MimeType = f.Body()
		if charset, ok := f.Attribute("charset"); ok {
			ci.Charset = charset
		}
	}
	if f, err := h.Get("content-transfer-encoding"); err == nil && f != nil {
		ci.TransferEncoding = f.Body()
	}
	return ci
}

func atoiDefault(s string, def int) int {
	n := 0
	any := false
	for _, c := range s {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
		any = true
	}
	if !any {
		return def
	}
	return n
}

func (mb *Mbox) Organization() folder.Organization { return folder.FILE }

// AddMessage appends m, coercing it into this folder per spec.md
// §4.8's add_message contract (an existing message with the same id
// is returned unchanged instead of being duplicated).
func (mb *Mbox) AddMessage(m *message.Message) (*message.Message, error) {
	before := len(mb.Messages())
	added := mb.Append(m)
	if len(mb.Messages()) > before {
		mb.entries = append(mb.entries, nil)
	}
	return added, nil
}

func (mb *Mbox) DetermineBodyType(h *head.Head) string {
	if f, err := h.Get("content-type"); err == nil && f != nil && strings.HasPrefix(f.Body(), "multipart/") {
		return "multipart"
	}
	return "lines"
}

func (mb *Mbox) Close(opts folder.CloseOptions) error {
	var err error
	if opts.Write {
		_, err = mb.Write(opts.Policy)
	}
	mb.unlockQuietly()
	mb.f.Close()
	return err
}
