package body

import (
	"fmt"
	"io"
)

// Print renders the body to w. For Lines/String/File it writes the raw
// content; for Multipart it interleaves "--boundary"/"--boundary--"
// separators around each part per spec.md §3; for Nested it renders
// the wrapped message directly.
func (b *Body) Print(w io.Writer) error {
	if err := b.ensureRealized(); err != nil {
		return err
	}
	switch b.kind {
	case Lines:
		for _, l := range b.lines {
			if _, err := w.Write(l.Bytes()); err != nil {
				return err
			}
		}
		return nil
	case String:
		_, err := w.Write(b.data)
		return err
	case File:
		data, err := b.readFile()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case Multipart:
		return b.printMultipart(w)
	case Nested:
		return b.nested.Print(w)
	default:
		return fmt.Errorf("body: Print on unrealised body")
	}
}

func (b *Body) printMultipart(w io.Writer) error {
	if b.preamble != nil {
		if err := b.preamble.Print(w); err != nil {
			return err
		}
	}
	for _, p := range b.parts {
		if _, err := fmt.Fprintf(w, "--%s\n", b.boundary); err != nil {
			return err
		}
		if err := p.Print(w); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "--%s--\n", b.boundary); err != nil {
		return err
	}
	if b.epilogue != nil {
		return b.epilogue.Print(w)
	}
	return nil
}
