package message

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/markov2/go-mailbox/field"
	"github.com/markov2/go-mailbox/head"
	"github.com/markov2/go-mailbox/parser"
)

var idCounter uint64

// NewID synthesises a fresh, process-unique Message-Id value:
// "<uuid>.<pid>.<counter>@<hostname>". The uuid supplies the entropy
// spec.md §6's "<seconds>" component is there for (uniqueness across
// restarts without a shared clock or disk state); pid and a per-
// process counter disambiguate two ids minted within the same
// nanosecond by concurrent Managers in the same host.
func NewID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	n := atomic.AddUint64(&idCounter, 1)
	return fmt.Sprintf("%s.%d.%d@%s", uuid.NewString(), os.Getpid(), n, host)
}

// idFromHeaderOrNew returns the header's Message-Id body (angle
// brackets stripped) if present and non-empty, otherwise a fresh id.
func idFromHeaderOrNew(h *head.Head) string {
	f, err := h.Get("message-id")
	if err == nil && f != nil {
		if id := strings.Trim(strings.TrimSpace(f.Body()), "<>"); id != "" {
			return id
		}
	}
	return NewID()
}

// EnsureID sets the Message-Id header to m's id if the header does not
// already carry one, per spec.md §6: the synthesised id "is ... stored
// back into the header (unless the folder is read-only, in which case
// it lives only in memory)".
func (m *Message) EnsureID(readOnly bool) error {
	h, err := m.Head()
	if err != nil {
		return err
	}
	f, err := h.Get("message-id")
	if err != nil {
		return err
	}
	if f != nil && strings.TrimSpace(f.Body()) != "" {
		return nil
	}
	if readOnly {
		return nil
	}
	return h.Set(field.Parse(parser.RawField{Name: "message-id", Body: "<" + m.id + ">"}))
}
