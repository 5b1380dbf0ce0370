package parser

import (
	"io"

	"github.com/markov2/go-mailbox/exterrors"
)

// Line is one line of a Lines-realised body, including its original
// terminator so the body can be re-emitted byte-for-byte.
type Line struct {
	Content []byte
	EOL     EOL
}

// Bytes returns Content followed by its terminator bytes; a line read
// without a terminator (EOLNative) gets none.
func (l Line) Bytes() []byte {
	out := append([]byte(nil), l.Content...)
	if l.EOL == EOLNative {
		return out
	}
	return append(out, l.EOL.Bytes()...)
}

// readBodyLines is the shared scan loop for all three body readers: it
// reads lines until either a line matches the top-of-stack separator
// (left unconsumed, via unread, for the next ReadSeparator/ReadHeader
// call) or EOF is reached. sizeHint/linesHint only preallocate the
// result; the scan always runs to the real boundary, so a wrong hint
// never changes the outcome, only its cost.
func (p *Parser) readBodyLines(sizeHint, linesHint int) (lines []Line, begin, end int64, err error) {
	begin = p.pos
	sep := p.topSeparator()

	if linesHint > 0 {
		lines = make([]Line, 0, linesHint)
	} else if sizeHint > 0 {
		lines = make([]Line, 0, sizeHint/40+1)
	}

	for {
		ln, rerr := p.nextRaw()
		if len(ln.raw) == 0 {
			if rerr != nil && rerr != io.EOF {
				return lines, begin, p.pos, exterrors.IoError("parser.readBodyLines", "", rerr)
			}
			break
		}
		if sep != nil && sep.Match(ln.content) {
			p.unread(ln)
			break
		}
		lines = append(lines, Line{Content: ln.content, EOL: ln.eol})
		if rerr != nil {
			if rerr != io.EOF {
				return lines, begin, p.pos, exterrors.IoError("parser.readBodyLines", "", rerr)
			}
			break
		}
	}
	return lines, begin, p.pos, nil
}

// BodyAsLines reads the body as a sequence of terminated lines,
// stopping at the next separator or EOF. size/linesHint come from a
// Content-Length/Lines header and are used only to presize the result.
func (p *Parser) BodyAsLines(sizeHint, linesHint int) (lines []Line, begin, end int64, err error) {
	return p.readBodyLines(sizeHint, linesHint)
}

// BodyAsString reads the body into one contiguous buffer, preserving
// each line's original terminator.
func (p *Parser) BodyAsString(sizeHint, linesHint int) (data []byte, begin, end int64, err error) {
	lines, begin, end, err := p.readBodyLines(sizeHint, linesHint)
	if err != nil {
		return nil, begin, end, err
	}
	total := 0
	for _, l := range lines {
		total += len(l.Content) + len(l.EOL.Bytes())
	}
	data = make([]byte, 0, total)
	for _, l := range lines {
		data = append(data, l.Bytes()...)
	}
	return data, begin, end, nil
}

// BodyAsFile streams the body directly into out, for the File storage
// realisation; it avoids holding the whole payload in memory.
func (p *Parser) BodyAsFile(out io.Writer, sizeHint, linesHint int) (begin, end int64, err error) {
	lines, begin, end, err := p.readBodyLines(sizeHint, linesHint)
	if err != nil {
		return begin, end, err
	}
	for _, l := range lines {
		if _, werr := out.Write(l.Bytes()); werr != nil {
			return begin, end, exterrors.IoError("parser.BodyAsFile", "", werr)
		}
	}
	return begin, end, nil
}
