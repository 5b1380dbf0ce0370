package mbox

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/markov2/go-mailbox/exterrors"
	"github.com/markov2/go-mailbox/head"
	"github.com/markov2/go-mailbox/message"
)

// asctimeLayout matches C's asctime(3) format, the traditional Mbox
// From-line date, e.g. "Mon Jan  2 15:04:05 2006".
const asctimeLayout = "Mon Jan _2 15:04:05 2006"

// fromLineFor returns the From line to re-emit for m: the verbatim
// line from the original entry when one exists (spec.md §4.8's
// "each message keeps its from_line verbatim and re-emits it on
// write"), or a freshly synthesised "From <addr> <asctime(gmt)>" line
// for a message that was built in memory.
func (mb *Mbox) fromLineFor(m *message.Message, h *head.Head, orig *entry) string {
	if orig != nil && orig.fromLine != "" {
		return orig.fromLine
	}
	return synthesizeFromLine(h)
}

func synthesizeFromLine(h *head.Head) string {
	addr := senderAddress(h)
	ts := guessTimestamp(h)
	return fmt.Sprintf("From %s %s", addr, ts.UTC().Format(asctimeLayout))
}

func senderAddress(h *head.Head) string {
	f, err := h.Get("from")
	if err != nil || f == nil || f.Body() == "" {
		return "-"
	}
	return extractAddr(f.Body())
}

// extractAddr pulls the bare address out of a From header body that
// may carry a display name, e.g. `"Jane Doe" <jane@example.com>`.
func extractAddr(s string) string {
	if i := strings.IndexByte(s, '<'); i != -1 {
		if j := strings.IndexByte(s[i:], '>'); j != -1 {
			return s[i+1 : i+j]
		}
	}
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i != -1 {
		s = s[:i]
	}
	if s == "" {
		return "-"
	}
	return s
}

func guessTimestamp(h *head.Head) time.Time {
	for _, name := range []string{"date", "resent-date"} {
		if f, err := h.Get(name); err == nil && f != nil {
			if t, perr := mail.ParseDate(f.Body()); perr == nil {
				return t
			}
		}
	}
	return time.Now()
}

// escapeFromLines writes raw to w, prefixing any line that begins
// with "From " (or an already-escaped run of ">From ") with one more
// ">", per the opt-in Mbox "From " escaping strategy.
func escapeFromLines(w io.Writer, raw []byte) error {
	bw := bufio.NewWriter(w)
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if needsEscape(line) {
			line = ">" + line
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return exterrors.IoError("mbox.escapeFromLines", "", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return exterrors.IoError("mbox.escapeFromLines", "", err)
	}
	return bw.Flush()
}

func needsEscape(line string) bool {
	rest := line
	for strings.HasPrefix(rest, ">") {
		rest = rest[1:]
	}
	return strings.HasPrefix(rest, "From ")
}
