package body

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
)

// NewMultipart builds a Multipart-realised body. If boundary is "" or
// collides with a line already present in a part's rendered content,
// a fresh one is generated and retried until it is unique, per
// spec.md §8's boundary-escape property.
func NewMultipart(preamble *Body, parts []Part, epilogue *Body, boundary, mimeType string) (*Body, error) {
	b := &Body{
		kind:     Multipart,
		info:     ContentInfo{MimeType: mimeType},
		preamble: preamble,
		parts:    parts,
		epilogue: epilogue,
		end:      -1,
	}

	candidate := boundary
	for {
		if candidate == "" {
			candidate = generateBoundary()
		}
		collides, err := boundaryCollides(candidate, parts)
		if err != nil {
			return nil, err
		}
		if !collides {
			b.boundary = candidate
			return b, nil
		}
		candidate = ""
	}
}

func generateBoundary() string {
	return "=_" + uuid.NewString()
}

// boundaryCollides reports whether any part's rendered content
// contains a line starting with "--boundary".
func boundaryCollides(boundary string, parts []Part) (bool, error) {
	marker := []byte("--" + boundary)
	for _, p := range parts {
		var buf bytes.Buffer
		if err := p.Print(&buf); err != nil {
			return false, err
		}
		for _, line := range bytes.Split(buf.Bytes(), []byte("\n")) {
			if bytes.HasPrefix(line, marker) {
				return true, nil
			}
		}
	}
	return false, nil
}

// NewNested builds a Nested body (MIME message/rfc822) wrapping part.
func NewNested(part Part) *Body {
	return &Body{kind: Nested, info: ContentInfo{MimeType: "message/rfc822"}, nested: part, end: -1}
}

func (b *Body) Boundary() string { return b.boundary }
func (b *Body) Parts() []Part    { return append([]Part(nil), b.parts...) }
func (b *Body) Preamble() *Body  { return b.preamble }
func (b *Body) Epilogue() *Body  { return b.epilogue }
func (b *Body) Nested() Part     { return b.nested }

// AddPart appends part to a Multipart body, re-checking boundary
// uniqueness, and marks the body modified.
func (b *Body) AddPart(part Part) error {
	if b.kind != Multipart {
		return fmt.Errorf("body: AddPart on a non-multipart body (%s)", b.kind)
	}
	collides, err := boundaryCollides(b.boundary, []Part{part})
	if err != nil {
		return err
	}
	if collides {
		b.boundary = generateBoundary()
		if collides, err = boundaryCollides(b.boundary, append(b.parts, part)); err != nil {
			return err
		}
		for collides {
			b.boundary = generateBoundary()
			if collides, err = boundaryCollides(b.boundary, append(b.parts, part)); err != nil {
				return err
			}
		}
	}
	b.parts = append(b.parts, part)
	b.modified = true
	return nil
}
