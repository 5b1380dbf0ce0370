// Package head implements the ordered multimap of fields that makes up
// a message header, in its three realisations (Complete, Subset,
// Delayed) described by spec.md §3/§4.3.
package head

import (
	"fmt"
	"io"
	"strings"

	"github.com/markov2/go-mailbox/field"
)

// Variant is the realisation state of a Head.
type Variant int

const (
	// Complete heads hold every field from the source.
	Complete Variant = iota
	// Subset heads hold a known subset; a miss triggers realisation.
	Subset
	// Delayed heads hold nothing yet; any access realises them.
	Delayed
)

func (v Variant) String() string {
	switch v {
	case Subset:
		return "subset"
	case Delayed:
		return "delayed"
	default:
		return "complete"
	}
}

// RealizeFunc is the owning Message's hook for turning a Subset or
// Delayed head into a Complete one: it reparses the header from the
// message's file location and returns every field found there.
type RealizeFunc func() ([]*field.Field, error)

// Head is a handle: the caller (Message, Folder) holds one *Head for
// the life of the message, and Realize swaps its internal state in
// place rather than handing back a new value, per the "swapped
// implementation behind a handle" design in spec.md §9.
type Head struct {
	variant   Variant
	fields    []*field.Field
	noRealize map[string]bool
	modified  bool
	realize   RealizeFunc
}

// New returns an empty Complete head, for a message built in memory.
func New() *Head {
	return &Head{variant: Complete}
}

// NewComplete wraps an already-fully-parsed field list.
func NewComplete(fields []*field.Field) *Head {
	return &Head{variant: Complete, fields: append([]*field.Field(nil), fields...)}
}

// NewSubset wraps a partially-parsed field list (e.g. the folder's
// default field_filter) that realises to Complete via fn on first
// miss.
func NewSubset(fields []*field.Field, fn RealizeFunc) *Head {
	return &Head{variant: Subset, fields: append([]*field.Field(nil), fields...), realize: fn}
}

// NewDelayed returns a head with no fields at all, realising via fn on
// first access.
func NewDelayed(fn RealizeFunc) *Head {
	return &Head{variant: Delayed, realize: fn}
}

func (h *Head) Variant() Variant  { return h.variant }
func (h *Head) IsComplete() bool  { return h.variant == Complete }
func (h *Head) IsDelayed() bool   { return h.variant == Delayed }
func (h *Head) IsSubset() bool    { return h.variant == Subset }
func (h *Head) Modified() bool    { return h.modified }
func (h *Head) ClearModified()    { h.modified = false }

func (h *Head) firstOf(name string) *field.Field {
	for _, f := range h.fields {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func (h *Head) allOf(name string) []*field.Field {
	var out []*field.Field
	for _, f := range h.fields {
		if f.Name() == name {
			out = append(out, f)
		}
	}
	return out
}

// realizeNow performs the realisation swap, preserving fields that
// were stashed via SetNoRealize.
func (h *Head) realizeNow() error {
	if h.variant == Complete {
		return nil
	}
	fresh, err := h.realize()
	if err != nil {
		return err
	}

	if len(h.noRealize) > 0 {
		var kept []*field.Field
		for _, f := range fresh {
			if !h.noRealize[f.Name()] {
				kept = append(kept, f)
			}
		}
		for _, f := range h.fields {
			if h.noRealize[f.Name()] {
				kept = append(kept, f)
			}
		}
		fresh = kept
	}

	h.fields = fresh
	h.variant = Complete
	h.realize = nil
	return nil
}

// Get returns the first occurrence of name, realising the head first
// if it is not Complete and name is not already known.
func (h *Head) Get(name string) (*field.Field, error) {
	name = strings.ToLower(name)
	if f := h.firstOf(name); f != nil {
		return f, nil
	}
	if h.variant != Complete {
		if err := h.realizeNow(); err != nil {
			return nil, err
		}
		return h.firstOf(name), nil
	}
	return nil, nil
}

// GetAt returns the idx'th (0-based) occurrence of name.
func (h *Head) GetAt(name string, idx int) (*field.Field, error) {
	name = strings.ToLower(name)
	all := h.allOf(name)
	if idx >= len(all) && h.variant != Complete {
		if err := h.realizeNow(); err != nil {
			return nil, err
		}
		all = h.allOf(name)
	}
	if idx < 0 || idx >= len(all) {
		return nil, nil
	}
	return all[idx], nil
}

// All returns every occurrence of name, in source order.
func (h *Head) All(name string) ([]*field.Field, error) {
	name = strings.ToLower(name)
	all := h.allOf(name)
	if len(all) == 0 && h.variant != Complete {
		if err := h.realizeNow(); err != nil {
			return nil, err
		}
		all = h.allOf(name)
	}
	return all, nil
}

// Count returns the number of occurrences of name.
func (h *Head) Count(name string) (int, error) {
	all, err := h.All(name)
	return len(all), err
}

// Names returns every distinct field name, in first-occurrence order.
// A non-Complete head always realises first: a partial name list would
// misrepresent the header.
func (h *Head) Names() ([]string, error) {
	if h.variant != Complete {
		if err := h.realizeNow(); err != nil {
			return nil, err
		}
	}
	seen := map[string]bool{}
	var out []string
	for _, f := range h.fields {
		if !seen[f.Name()] {
			seen[f.Name()] = true
			out = append(out, f.Name())
		}
	}
	return out, nil
}

// Add appends f as an additional occurrence of its name.
func (h *Head) Add(f *field.Field) error {
	if h.variant != Complete {
		if err := h.realizeNow(); err != nil {
			return err
		}
	}
	h.fields = append(h.fields, f)
	h.modified = true
	return nil
}

// Set replaces every occurrence of f.Name() with just f.
func (h *Head) Set(f *field.Field) error {
	if h.variant != Complete {
		if err := h.realizeNow(); err != nil {
			return err
		}
	}
	h.resetLocked(f.Name())
	h.fields = append(h.fields, f)
	h.modified = true
	return nil
}

// Reset removes every occurrence of name.
func (h *Head) Reset(name string) error {
	if h.variant != Complete {
		if err := h.realizeNow(); err != nil {
			return err
		}
	}
	h.resetLocked(name)
	h.modified = true
	return nil
}

func (h *Head) resetLocked(name string) {
	name = strings.ToLower(name)
	out := h.fields[:0:0]
	for _, f := range h.fields {
		if f.Name() != name {
			out = append(out, f)
		}
	}
	h.fields = out
}

// Delete removes the idx'th occurrence of name.
func (h *Head) Delete(name string, idx int) error {
	if h.variant != Complete {
		if err := h.realizeNow(); err != nil {
			return err
		}
	}
	name = strings.ToLower(name)
	n := -1
	out := h.fields[:0:0]
	for _, f := range h.fields {
		if f.Name() == name {
			n++
			if n == idx {
				continue
			}
		}
		out = append(out, f)
	}
	h.fields = out
	h.modified = true
	return nil
}

// SetNoRealize stashes f into a Subset/Delayed head without forcing
// realisation and without setting modified; a later realisation keeps
// f (and any other no-realize field of the same name) instead of
// whatever the fresh parse produced for that name. Used by index
// loaders (MH's .index cache) that know a field's value without
// wanting to force a full reparse.
func (h *Head) SetNoRealize(f *field.Field) {
	if h.noRealize == nil {
		h.noRealize = map[string]bool{}
	}
	h.noRealize[f.Name()] = true
	h.fields = append(h.fields, f)
}

// Size returns the rendered byte size of the header fields, realising
// first; the blank line that Print writes after them is not counted.
func (h *Head) Size() (int, error) {
	if h.variant != Complete {
		if err := h.realizeNow(); err != nil {
			return 0, err
		}
	}
	total := 0
	for _, f := range h.fields {
		total += len(f.String()) + 1
	}
	return total, nil
}

// NrLines returns the number of physical lines the header renders to.
func (h *Head) NrLines() (int, error) {
	if h.variant != Complete {
		if err := h.realizeNow(); err != nil {
			return 0, err
		}
	}
	n := 0
	for _, f := range h.fields {
		n += strings.Count(f.String(), "\n") + 1 // +1 for the field's own line; f.String() has no trailing "\n"
	}
	return n, nil
}

// Print renders every field followed by the blank line that ends a
// header block.
func (h *Head) Print(w io.Writer) error {
	if h.variant != Complete {
		if err := h.realizeNow(); err != nil {
			return err
		}
	}
	for _, f := range h.fields {
		if _, err := fmt.Fprintf(w, "%s\n", f.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}
