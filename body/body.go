// Package body implements the message payload and its storage
// realisations (lines, single string, owned temp file, delayed,
// multipart, nested), per spec.md §3/§4.4/§4.5.
package body

import (
	"io"

	"github.com/markov2/go-mailbox/buffer"
	"github.com/markov2/go-mailbox/parser"
)

// Kind is the storage realisation a Body currently holds.
type Kind int

const (
	Lines Kind = iota
	String
	File
	Delayed
	Multipart
	Nested
)

func (k Kind) String() string {
	switch k {
	case Lines:
		return "lines"
	case String:
		return "string"
	case File:
		return "file"
	case Delayed:
		return "delayed"
	case Multipart:
		return "multipart"
	case Nested:
		return "nested"
	default:
		return "unknown"
	}
}

// ContentInfo is the MIME triple every Body carries, per spec.md §3.
type ContentInfo struct {
	MimeType         string
	Charset          string
	TransferEncoding string
}

// Part is the minimal surface a Body's Multipart/Nested realisation
// needs from a message: Body does not import the message package
// (which itself embeds a Body), so the dependency runs through this
// interface instead of a concrete type, per spec.md §9's
// "forbid cycles by construction".
type Part interface {
	Print(w io.Writer) error
	Size() (int, error)
}

// RealizeFunc is the owning Message's hook for turning a Delayed body
// into a concrete realisation: it reparses the body from the message's
// file location using the folder's determine_body_type policy.
type RealizeFunc func() (*Body, error)

// Body is a handle: Realize swaps its internal state in place so every
// holder of the same *Body observes the realisation, mirroring Head's
// handle design (spec.md §9).
type Body struct {
	kind Kind
	info ContentInfo

	disposition string
	checked     bool
	modified    bool

	begin, end int64 // byte range in the source file; end<0 means "not from disk"
	eol        parser.EOL

	lines []parser.Line
	data  []byte
	buf   buffer.Buffer

	realize RealizeFunc

	preamble *Body
	parts    []Part
	epilogue *Body
	boundary string

	nested Part
}

// NewDelayed returns a body that realises via fn on first content
// access, keyed to the byte range [begin,end) it was seen at.
func NewDelayed(begin, end int64, fn RealizeFunc) *Body {
	return &Body{kind: Delayed, begin: begin, end: end, realize: fn}
}

// NewLines builds a Lines-realised body from already-read lines.
func NewLines(lines []parser.Line, info ContentInfo, begin, end int64) *Body {
	return &Body{kind: Lines, lines: lines, info: info, begin: begin, end: end, eol: dominantEOL(lines)}
}

// NewString builds a String-realised body from an in-memory buffer.
func NewString(data []byte, info ContentInfo) *Body {
	return &Body{kind: String, data: data, info: info, end: -1}
}

// NewFile builds a File-realised body backed by buf.
func NewFile(buf buffer.Buffer, info ContentInfo, begin, end int64) *Body {
	return &Body{kind: File, buf: buf, info: info, begin: begin, end: end}
}

func dominantEOL(lines []parser.Line) parser.EOL {
	if len(lines) == 0 {
		return parser.EOLNative
	}
	return lines[0].EOL
}

func (b *Body) Kind() Kind              { return b.kind }
func (b *Body) IsDelayed() bool         { return b.kind == Delayed }
func (b *Body) IsMultipart() bool       { return b.kind == Multipart }
func (b *Body) IsNested() bool          { return b.kind == Nested }
func (b *Body) IsBinary() bool          { return b.info.TransferEncoding == "binary" }
func (b *Body) ContentInfo() ContentInfo { return b.info }
func (b *Body) Disposition() string     { return b.disposition }
func (b *Body) Checked() bool           { return b.checked }
func (b *Body) Modified() bool          { return b.modified }
func (b *Body) ByteRange() (begin, end int64, fromDisk bool) {
	return b.begin, b.end, b.end >= 0 && b.kind != String
}
func (b *Body) EOL() parser.EOL { return b.eol }

// SetDisposition sets the Content-Disposition value and marks the body
// modified.
func (b *Body) SetDisposition(d string) {
	b.disposition = d
	b.modified = true
}

// SetChecked records that the payload has been validated against its
// declared transfer encoding (set by a successful codec Check/Decode).
func (b *Body) SetChecked(v bool) { b.checked = v }

// ensureRealized swaps in the Complete realisation if this body is
// still Delayed.
func (b *Body) ensureRealized() error {
	if b.kind != Delayed {
		return nil
	}
	fresh, err := b.realize()
	if err != nil {
		return err
	}
	begin, end := b.begin, b.end
	*b = *fresh
	if b.begin == 0 && b.end == 0 {
		b.begin, b.end = begin, end
	}
	return nil
}
