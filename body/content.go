package body

import (
	"bytes"
	"io"

	"github.com/markov2/go-mailbox/buffer"
	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/parser"
)

// Lines returns the body content as terminated lines, realising a
// Delayed body first. Multipart/Nested bodies have no line content.
func (b *Body) Lines() ([]parser.Line, error) {
	if err := b.ensureRealized(); err != nil {
		return nil, err
	}
	switch b.kind {
	case Lines:
		return b.lines, nil
	case String:
		return linesOf(b.data), nil
	case File:
		data, err := b.readFile()
		if err != nil {
			return nil, err
		}
		return linesOf(data), nil
	default:
		return nil, exterrors.MalformedBody("body.Lines", "", "body has no line content: "+b.kind.String())
	}
}

// String returns the body content as one contiguous buffer.
func (b *Body) String() ([]byte, error) {
	if err := b.ensureRealized(); err != nil {
		return nil, err
	}
	switch b.kind {
	case String:
		return b.data, nil
	case Lines:
		var buf bytes.Buffer
		for _, l := range b.lines {
			buf.Write(l.Bytes())
		}
		return buf.Bytes(), nil
	case File:
		return b.readFile()
	default:
		return nil, exterrors.MalformedBody("body.String", "", "body has no string content: "+b.kind.String())
	}
}

// Reader opens the body content for streaming reads.
func (b *Body) Reader() (io.ReadCloser, error) {
	if err := b.ensureRealized(); err != nil {
		return nil, err
	}
	if b.kind == File {
		return b.buf.Open()
	}
	data, err := b.String()
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *Body) readFile() ([]byte, error) {
	r, err := b.buf.Open()
	if err != nil {
		return nil, exterrors.IoError("body.readFile", "", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, exterrors.IoError("body.readFile", "", err)
	}
	return data, nil
}

func linesOf(data []byte) []parser.Line {
	var out []parser.Line
	start := 0
	for i, c := range data {
		if c == '\n' {
			content := data[start:i]
			eol := parser.EOLLF
			if n := len(content); n > 0 && content[n-1] == '\r' {
				content = content[:n-1]
				eol = parser.EOLCRLF
			}
			out = append(out, parser.Line{Content: content, EOL: eol})
			start = i + 1
		}
	}
	if start < len(data) {
		out = append(out, parser.Line{Content: data[start:], EOL: parser.EOLNative})
	}
	return out
}

// Size returns the byte length of the body content, implementing the
// body.Part interface so a Body can stand in as a multipart child's
// sizing contract alongside message.Message.
func (b *Body) Size() (int, error) {
	if err := b.ensureRealized(); err != nil {
		return 0, err
	}
	switch b.kind {
	case Multipart:
		total := len(b.boundary) + 5
		if b.preamble != nil {
			if n, err := b.preamble.Size(); err == nil {
				total += n
			}
		}
		for _, p := range b.parts {
			n, err := p.Size()
			if err != nil {
				return 0, err
			}
			total += n + len(b.boundary) + 4
		}
		if b.epilogue != nil {
			if n, err := b.epilogue.Size(); err == nil {
				total += n
			}
		}
		return total, nil
	case Nested:
		return b.nested.Size()
	default:
		data, err := b.String()
		if err != nil {
			return 0, err
		}
		return len(data), nil
	}
}

// NrLines returns the number of lines the body renders to.
func (b *Body) NrLines() (int, error) {
	lines, err := b.Lines()
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}

// WrapBuffer adapts a buffer.Buffer (e.g. buffer.BufferInFile's
// result) into a File-realised Body.
func WrapBuffer(buf buffer.Buffer, info ContentInfo) *Body {
	return NewFile(buf, info, 0, -1)
}
