// Package field implements one header field: its name, unfolded body,
// optional parenthesised comment, and any RFC 2231 attributes, plus
// wrap-aware rendering back to a folded header line.
package field

import (
	"strings"

	"github.com/markov2/go-mailbox/parser"
)

// DefaultWrap is the column at which String folds a field that carries
// no explicit wrap length of its own.
const DefaultWrap = 78

// Attribute is one `; name=value` / `; name*=charset'lang'value`
// parameter attached to a structured field (Content-Type,
// Content-Disposition).
type Attribute struct {
	Name    string
	Value   string
	Charset string // set when the value arrived RFC 2231-encoded
	Lang    string
}

// Field is immutable once constructed: Parse and String are inverses
// up to whitespace normalisation, per spec.md §3's round-trip
// invariant ("rendering a field and re-parsing it yields an equal
// field").
type Field struct {
	name    string
	body    string
	comment string
	attrs   []Attribute
	wrap    int
}

// New builds a Field directly from already-decided parts, bypassing
// comment/attribute parsing — used when a caller constructs a field
// programmatically (e.g. Status synthesis in head.Head) rather than
// from parsed text.
func New(name, body string) *Field {
	return &Field{name: strings.ToLower(name), body: strings.TrimSpace(body)}
}

// Parse turns a parser.RawField (already unfolded by parser.ReadHeader)
// into a structured Field: it strips a parenthesised comment, splits
// `;`-delimited attributes, and reassembles RFC 2231 continuations.
func Parse(raw parser.RawField) *Field {
	body, comment := stripComment(raw.Body)
	main, attrTokens := splitAttributes(body)
	f := &Field{
		name:    strings.ToLower(raw.Name),
		body:    strings.TrimSpace(main),
		comment: comment,
	}
	f.attrs = assembleAttributes(attrTokens)
	return f
}

func (f *Field) Name() string    { return f.name }
func (f *Field) Body() string    { return f.body }
func (f *Field) Comment() string { return f.comment }

func (f *Field) Attributes() []Attribute {
	out := make([]Attribute, len(f.attrs))
	copy(out, f.attrs)
	return out
}

// Attribute returns the named attribute's value and whether it was
// present; attribute names are matched case-insensitively.
func (f *Field) Attribute(name string) (string, bool) {
	for _, a := range f.attrs {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}

// WithAttribute returns a copy of f with attribute name set to value,
// replacing any existing occurrence (attributes, like Head fields, are
// "set" not "added" by name).
func (f *Field) WithAttribute(name, value string) *Field {
	cp := *f
	cp.attrs = append([]Attribute(nil), f.attrs...)
	for i, a := range cp.attrs {
		if strings.EqualFold(a.Name, name) {
			cp.attrs[i].Value = value
			return &cp
		}
	}
	cp.attrs = append(cp.attrs, Attribute{Name: name, Value: value})
	return &cp
}

// WrapLength reports the configured wrap column, or DefaultWrap if
// none was set.
func (f *Field) WrapLength() int {
	if f.wrap <= 0 {
		return DefaultWrap
	}
	return f.wrap
}

// WithWrap returns a copy of f that renders folded at the given
// column.
func (f *Field) WithWrap(n int) *Field {
	cp := *f
	cp.wrap = n
	return &cp
}

// Equal reports whether f and g are the same field modulo the
// whitespace normalisation Parse already performs — the round-trip
// invariant spec.md §3 describes.
func (f *Field) Equal(g *Field) bool {
	if f.name != g.name || f.body != g.body || f.comment != g.comment {
		return false
	}
	if len(f.attrs) != len(g.attrs) {
		return false
	}
	for i := range f.attrs {
		if f.attrs[i] != g.attrs[i] {
			return false
		}
	}
	return true
}
