// Package parser implements the byte-range-aware scanner that sits
// underneath Head, Body and the folder backends: it turns a seekable
// byte stream into separator offsets, folded header fields and body
// byte ranges, and lets a Message re-read itself later by file offset.
package parser

import (
	"bufio"
	"io"
	"regexp"

	"github.com/markov2/go-mailbox/exterrors"
)

const bufSize = 64 * 1024

// Parser scans one underlying file. It is not safe for concurrent use
// from multiple goroutines: the library has no internal mutex, per
// design, and a Folder is expected to serialise access to its Parser.
type Parser struct {
	f        io.ReadSeeker
	br       *bufio.Reader
	pos      int64
	pushback []byte

	seps []*regexp.Regexp
}

// New wraps f for scanning starting at its current position.
func New(f io.ReadSeeker) *Parser {
	return &Parser{f: f, br: bufio.NewReaderSize(f, bufSize)}
}

// PushSeparator installs re as the new top-of-stack message separator
// pattern. Mbox folders push `^From `; MH and Maildir never push one,
// since each of their files holds exactly one message.
func (p *Parser) PushSeparator(re *regexp.Regexp) {
	p.seps = append(p.seps, re)
}

// PopSeparator removes the top-of-stack separator pattern, if any.
func (p *Parser) PopSeparator() {
	if n := len(p.seps); n > 0 {
		p.seps = p.seps[:n-1]
	}
}

func (p *Parser) topSeparator() *regexp.Regexp {
	if n := len(p.seps); n > 0 {
		return p.seps[n-1]
	}
	return nil
}

// FilePosition returns the current logical read offset.
func (p *Parser) FilePosition() int64 { return p.pos }

// SeekTo repositions the parser at an absolute byte offset, discarding
// any buffered read-ahead. Used to re-read a delayed head or body.
func (p *Parser) SeekTo(offset int64) error {
	if _, err := p.f.Seek(offset, io.SeekStart); err != nil {
		return exterrors.IoError("parser.SeekTo", "", err)
	}
	p.br = bufio.NewReaderSize(p.f, bufSize)
	p.pushback = nil
	p.pos = offset
	return nil
}

// rawLine is one physical line as read from the stream: Content holds
// the bytes without their terminator, EOL records what the terminator
// was (EOLNative when the line had none, i.e. EOF with no trailing
// newline), and raw is the exact byte slice consumed including the
// terminator so it can be pushed back unchanged.
type rawLine struct {
	content []byte
	eol     EOL
	raw     []byte
}

// nextRaw reads one line, consuming a prior pushback first.
func (p *Parser) nextRaw() (rawLine, error) {
	if p.pushback != nil {
		raw := p.pushback
		p.pushback = nil
		p.pos += int64(len(raw))
		return splitLine(raw), nil
	}

	raw, err := p.br.ReadBytes('\n')
	if len(raw) == 0 {
		return rawLine{}, err
	}
	p.pos += int64(len(raw))
	return splitLine(raw), err
}

// unread pushes line's raw bytes back so the next nextRaw call returns
// it again, and rewinds the logical position accordingly.
func (p *Parser) unread(line rawLine) {
	p.pushback = line.raw
	p.pos -= int64(len(line.raw))
}

func splitLine(raw []byte) rawLine {
	content := raw
	eol := EOLNative
	if n := len(content); n > 0 && content[n-1] == '\n' {
		content = content[:n-1]
		if m := len(content); m > 0 && content[m-1] == '\r' {
			content = content[:m-1]
			eol = EOLCRLF
		} else {
			eol = EOLLF
		}
	}
	return rawLine{content: content, eol: eol, raw: raw}
}

// ReadSeparator scans forward for the next line matching the
// top-of-stack separator pattern, returning its starting byte offset
// and text. err is io.EOF when no further separator is found.
func (p *Parser) ReadSeparator() (offset int64, line string, err error) {
	sep := p.topSeparator()
	if sep == nil {
		return 0, "", io.EOF
	}
	for {
		start := p.pos
		ln, err := p.nextRaw()
		if len(ln.raw) == 0 {
			return 0, "", io.EOF
		}
		if sep.Match(ln.content) {
			return start, string(ln.content), nil
		}
		if err != nil {
			return 0, "", io.EOF
		}
	}
}
