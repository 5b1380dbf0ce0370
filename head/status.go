package head

import (
	"strings"

	"github.com/markov2/go-mailbox/field"
)

// StatusLabels reads the mbox/MIME Status header and translates it
// into the label deltas it carries, per spec.md §4.3: `R` means
// seen=true, `O` means old=true. Any other letter is left alone — the
// specification only names these two.
func StatusLabels(h *Head) (map[string]bool, error) {
	f, err := h.Get("status")
	if err != nil || f == nil {
		return nil, err
	}
	labels := map[string]bool{}
	body := f.Body()
	if strings.Contains(body, "R") {
		labels["seen"] = true
	}
	if strings.Contains(body, "O") {
		labels["old"] = true
	}
	return labels, nil
}

// ApplyLabelsToStatus re-derives the Status header from the current
// label set, so the label map round-trips through an Mbox write/read
// cycle (spec.md testable property 3).
func ApplyLabelsToStatus(h *Head, labels map[string]bool) error {
	var status string
	if labels["seen"] {
		status += "R"
	}
	if labels["old"] {
		status += "O"
	}
	if status == "" {
		return h.Reset("status")
	}
	return h.Set(field.New("Status", status))
}
