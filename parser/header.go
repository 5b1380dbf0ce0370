package parser

import (
	"io"
	"strings"

	"github.com/markov2/go-mailbox/exterrors"
)

// RawField is one unfolded header field as produced by ReadHeader: the
// field package turns this into a structured Field (comment stripped,
// attributes parsed). Name is lower-cased; Body is the concatenation of
// the field's line and any continuation lines, joined with a single
// space and stripped of the folding whitespace.
type RawField struct {
	Name  string
	Body  string
	Begin int64
	End   int64
}

// ReadHeader consumes lines from the current position up to and
// including the first blank line, folding continuation lines (those
// starting with space or tab) into the preceding field. It returns the
// parsed fields in source order and the byte range [begin, end) of the
// header block, where end is the offset right after the terminating
// blank line, so that the body reader can start exactly there.
func (p *Parser) ReadHeader() (fields []RawField, begin, end int64, err error) {
	begin = p.pos

	var cur *RawField
	for {
		start := p.pos
		ln, rerr := p.nextRaw()
		if len(ln.raw) == 0 {
			if rerr != nil && rerr != io.EOF {
				return nil, begin, p.pos, exterrors.IoError("parser.ReadHeader", "", rerr)
			}
			return nil, begin, p.pos, exterrors.MalformedHeader("parser.ReadHeader", p.pos, "EOF before blank line")
		}

		if len(ln.content) == 0 {
			// Blank line: header is complete.
			if cur != nil {
				fields = append(fields, *cur)
			}
			return fields, begin, p.pos, nil
		}

		if (ln.content[0] == ' ' || ln.content[0] == '\t') && cur != nil {
			cur.Body += " " + strings.TrimLeft(string(ln.content), " \t")
			cur.End = p.pos
		} else {
			if cur != nil {
				fields = append(fields, *cur)
			}
			name, body, ok := splitFieldLine(string(ln.content))
			if !ok {
				return nil, begin, p.pos, exterrors.MalformedHeader("parser.ReadHeader", start, "line is neither a field nor a continuation: "+string(ln.content))
			}
			cur = &RawField{Name: strings.ToLower(name), Body: body, Begin: start, End: p.pos}
		}

		if rerr != nil {
			// Reached EOF without a blank line: treat what we have as
			// malformed, per the header error policy.
			return nil, begin, p.pos, exterrors.MalformedHeader("parser.ReadHeader", p.pos, "EOF before blank line")
		}
	}
}

// splitFieldLine splits "Name: body" into its parts. The colon is
// required; surrounding whitespace around the body is trimmed.
func splitFieldLine(line string) (name, body string, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx <= 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}
