// Package maildir implements the lock-free, new/cur/tmp directory
// folder backend described by spec.md §4.8.
package maildir

import (
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markov2/go-mailbox/body"
	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/field"
	"github.com/markov2/go-mailbox/folder"
	"github.com/markov2/go-mailbox/head"
	"github.com/markov2/go-mailbox/message"
	"github.com/markov2/go-mailbox/metrics"
	"github.com/markov2/go-mailbox/parser"
)

const (
	dirNew = "new"
	dirCur = "cur"
	dirTmp = "tmp"
)

// flagOrder is the canonical ASCII order maildir flag letters render
// in, per spec.md §4.8: Draft, Flagged, Replied, Seen, Trashed.
var flagOrder = []byte{'D', 'F', 'R', 'S', 'T'}

var flagToLabel = map[byte]string{
	'D': "draft",
	'F': "flagged",
	'R': "replied",
	'S': "seen",
	'T': "deleted",
}

// slot tracks one message's current location: which of new/cur it
// lives in, its <uniq> identity, and its flags, so a label mutation or
// accept() can rename the file without losing track of it.
type slot struct {
	dir    string // absolute maildir root
	uniq   string
	inCur  bool
	flags  string // already in canonical ASCII order
}

func (s *slot) subdir() string {
	if s.inCur {
		return dirCur
	}
	return dirNew
}

func (s *slot) filename() string {
	if s.inCur {
		return s.uniq + ":2," + s.flags
	}
	return s.uniq
}

func (s *slot) path() string {
	return filepath.Join(s.dir, s.subdir(), s.filename())
}

// Maildir is a Folder backed by a new/cur/tmp directory triad.
type Maildir struct {
	*folder.Base

	dir   string
	slots []*slot
}

// Detect reports whether path is a maildir: a directory containing
// all three of new/, cur/ and tmp/.
func Detect(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	for _, sub := range []string{dirNew, dirCur, dirTmp} {
		info, err := os.Stat(filepath.Join(path, sub))
		if err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}

func (md *Maildir) Organization() folder.Organization { return folder.DIRECTORY }

// Open parses dir as a maildir, loading new/ and cur/ messages; lock
// strategy defaults to none, since maildir's atomic-rename protocol is
// lock-free by design per spec.md §4.5.
func Open(dir string, opts folder.Options) (*Maildir, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) && opts.Create {
			for _, sub := range []string{dirNew, dirCur, dirTmp} {
				if mkErr := os.MkdirAll(filepath.Join(dir, sub), 0o755); mkErr != nil {
					return nil, exterrors.IoError("maildir.Open", dir, mkErr)
				}
			}
		} else {
			return nil, exterrors.IoError("maildir.Open", dir, err)
		}
	}

	md := &Maildir{
		Base: folder.NewBase(dir, opts.Access, opts),
		dir:  dir,
	}

	filter := opts.FieldFilter
	if filter == nil {
		filter = folder.DefaultFieldFilter
	}
	extract := opts.Extract
	if extract == nil {
		extract = folder.Lazy
	}

	for _, inCur := range []bool{false, true} {
		sub := dirNew
		if inCur {
			sub = dirCur
		}
		entries, err := os.ReadDir(filepath.Join(dir, sub))
		if err != nil {
			return nil, exterrors.IoError("maildir.Open", filepath.Join(dir, sub), err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			sl := parseSlot(dir, sub, name, inCur)
			m, err := md.loadMessage(sl, filter, extract)
			if err != nil {
				return nil, err
			}
			applyFlagLabels(m, sl.flags, inCur)
			md.Append(m)
			md.slots = append(md.slots, sl)
		}
	}
	return md, nil
}

// parseSlot splits "uniq:2,FLAGS" (cur/) or a bare "uniq" (new/) per
// spec.md §4.8's filename grammar, tolerating anything an unfamiliar
// MUA might have produced: an unparseable suffix is kept as part of
// uniq rather than rejected.
func parseSlot(dir, sub, name string, inCur bool) *slot {
	sl := &slot{dir: dir, inCur: inCur}
	if !inCur {
		sl.uniq = name
		return sl
	}
	uniq, info, ok := strings.Cut(name, ":2,")
	if !ok {
		sl.uniq = name
		return sl
	}
	sl.uniq = uniq
	sl.flags = canonicalizeFlags(info)
	return sl
}

func canonicalizeFlags(raw string) string {
	present := map[byte]bool{}
	for i := 0; i < len(raw); i++ {
		present[raw[i]] = true
	}
	var b strings.Builder
	for _, f := range flagOrder {
		if present[f] {
			b.WriteByte(f)
		}
	}
	for i := 0; i < len(raw); i++ {
		if _, known := flagToLabel[raw[i]]; !known {
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}

func applyFlagLabels(m *message.Message, flags string, inCur bool) {
	for i := 0; i < len(flags); i++ {
		if label, ok := flagToLabel[flags[i]]; ok {
			_ = m.SetLabel(label, true)
		}
	}
	// A message sitting in new/ has not yet been accepted by any MUA.
	if !inCur {
		_ = m.SetLabel("recent", true)
	}
}

func (md *Maildir) loadMessage(sl *slot, filter folder.FieldFilter, extract folder.ExtractPolicy) (*message.Message, error) {
	f, err := os.Open(sl.path())
	if err != nil {
		return nil, exterrors.IoError("maildir.Open", sl.path(), err)
	}
	defer f.Close()

	p := parser.New(f)
	rawFields, _, headEnd, err := p.ReadHeader()
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
		h = head.NewSubset(kept, md.realizeHead(sl))
	}

	contentLength, linesHint := guessHints(h)
	var bd *body.Body
	if extract.ShouldExtract(h, linesHint) {
		lines, bBegin, bEnd, err := p.BodyAsLines(contentLength, linesHint)
		if err != nil {
			return nil, err
		}
		bd = body.NewLines(lines, contentInfo(h), bBegin, bEnd)
	} else {
		bd = body.NewDelayed(headEnd, 0, md.realizeBody(sl, h))
	}

	return message.New(h, bd), nil
}

func (md *Maildir) realizeHead(sl *slot) head.RealizeFunc {
	return func() ([]*field.Field, error) {
		metrics.DelayedRealisations.WithLabelValues("head").Inc()
		f, err := os.Open(sl.path())
		if err != nil {
			return nil, exterrors.IoError("maildir.realizeHead", sl.path(), err)
		}
		defer f.Close()
		p := parser.New(f)
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

func (md *Maildir) realizeBody(sl *slot, h *head.Head) body.RealizeFunc {
	return func() (*body.Body, error) {
		metrics.DelayedRealisations.WithLabelValues("body").Inc()
		f, err := os.Open(sl.path())
		if err != nil {
			return nil, exterrors.IoError("maildir.realizeBody", sl.path(), err)
		}
		defer f.Close()
		p := parser.New(f)
		if _, _, _, err := p.ReadHeader(); err != nil {
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

// ReceivedTime returns the best-effort delivery time for message i:
// the Date header if present, else the leading integer encoded in its
// <uniq> filename component (spec.md §4.8's guess_timestamp()
// fallback, needed because other MUAs' maildir files carry no
// Message-internal delivery timestamp at all).
func (md *Maildir) ReceivedTime(i int) (time.Time, error) {
	m, err := md.Message(i)
	if err != nil {
		return time.Time{}, err
	}
	h, err := m.Head()
	if err != nil {
		return time.Time{}, err
	}
	if f, err := h.Get("date"); err == nil && f != nil {
		if t, perr := mail.ParseDate(f.Body()); perr == nil {
			return t, nil
		}
	}
	if i < len(md.slots) && md.slots[i] != nil {
		if ts := guessTimestamp(md.slots[i].uniq); ts > 0 {
			return time.Unix(ts, 0), nil
		}
	}
	return time.Time{}, nil
}

func (md *Maildir) DetermineBodyType(h *head.Head) string {
	if f, err := h.Get("content-type"); err == nil && f != nil && strings.HasPrefix(f.Body(), "multipart/") {
		return "multipart"
	}
	return "lines"
}

// guessTimestamp extracts the leading decimal integer from a <uniq>
// string, per spec.md §4.8's "guess_timestamp() falls back to the
// leading integer in the filename" fallback for MUA-generated names
// that don't follow this library's own uuid-based scheme.
func guessTimestamp(uniq string) int64 {
	i := 0
	for i < len(uniq) && uniq[i] >= '0' && uniq[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0
	}
	n, err := strconv.ParseInt(uniq[:i], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// newUniq generates a fresh <uniq> for a message created by this
// library, per SPEC_FULL.md's wiring table: a UUID is opaque, unique
// without coordination, and collision-free across processes, unlike
// the traditional "<time>.<pid>_<seq>.<host>" scheme that assumes a
// single writer process.
func newUniq() string {
	return uuid.NewString()
}

// AddMessage appends m and assigns it a slot only on Write, mirroring
// MH: in-memory-only messages are delivered into cur/ once persisted.
func (md *Maildir) AddMessage(m *message.Message) (*message.Message, error) {
	before := len(md.Messages())
	added := md.Append(m)
	if len(md.Messages()) > before {
		md.slots = append(md.slots, nil)
	}
	return added, nil
}

func (md *Maildir) Close(opts folder.CloseOptions) error {
	var err error
	if opts.Write {
		_, err = md.Write(opts.Policy)
	}
	return err
}
