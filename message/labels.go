package message

import (
	"strconv"
	"time"

	"github.com/markov2/go-mailbox/exterrors"
)

// Canonical label names, per spec.md §3.
const (
	LabelSeen    = "seen"
	LabelReplied = "replied"
	LabelFlagged = "flagged"
	LabelDraft   = "draft"
	LabelDeleted = "deleted"
	LabelOld     = "old"
	LabelCurrent = "current"
)

// HasLabel reports whether name is set (any non-empty stored value
// counts as true).
func (m *Message) HasLabel(name string) bool {
	return m.labels[name] != ""
}

// Label returns the raw stored value for name (a timestamp string for
// "deleted", "1" for a plain boolean label, "" if unset).
func (m *Message) Label(name string) string {
	return m.labels[name]
}

// Labels returns a copy of the full label map.
func (m *Message) Labels() map[string]string {
	out := make(map[string]string, len(m.labels))
	for k, v := range m.labels {
		out[k] = v
	}
	return out
}

// SetLabel sets name to true (or clears it when value is false). A
// destructed or read-only message refuses any label except "deleted",
// which per spec.md §7 "may always be set" — soft-deletion must work
// even on a folder opened read-only, since it only affects in-memory
// state until a write that never happens.
func (m *Message) SetLabel(name string, value bool) error {
	if name != LabelDeleted && (m.destructed || m.readOnly) {
		return exterrors.LabelsReadOnly("message.SetLabel")
	}
	if !value {
		delete(m.labels, name)
		return nil
	}
	if name == LabelDeleted {
		m.labels[name] = strconv.FormatInt(time.Now().Unix(), 10)
		return nil
	}
	m.labels[name] = "1"
	return nil
}

// SetLabels merges a batch of label values, e.g. when a folder backend
// translates its on-disk flags into the canonical label set on open.
func (m *Message) SetLabels(values map[string]bool) error {
	for name, v := range values {
		if err := m.SetLabel(name, v); err != nil {
			return err
		}
	}
	return nil
}

// IsDeleted reports whether the "deleted" label is set, the only
// query legal on a destructed message per spec.md §3.
func (m *Message) IsDeleted() bool {
	return m.labels[LabelDeleted] != ""
}
