package field

import (
	"fmt"
	"strings"
)

// String renders the field as "Name: body (comment); attr=value…",
// folded to the field's wrap length. Folding breaks at whitespace or,
// failing that, after a comma, per spec.md §4.1.
func (f *Field) String() string {
	head := capitalize(f.name) + ": "
	body := f.body
	if f.comment != "" {
		body += " (" + f.comment + ")"
	}

	wrap := f.WrapLength()
	folded := foldBody(head, body, wrap)

	for _, a := range f.attrs {
		folded += renderAttribute(a, wrap)
	}
	return folded
}

func capitalize(name string) string {
	parts := strings.Split(name, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "-")
}

// foldBody wraps head+body at wrap columns, breaking at spaces and, if
// a single token is still too long, after a comma. Continuation lines
// start with a single tab, the conventional unfold-safe indent.
func foldBody(head, body string, wrap int) string {
	full := head + body
	if len(full) <= wrap {
		return full
	}

	tokens := breakTokens(body)
	var lines []string
	cur := head
	for i, tok := range tokens {
		candidate := cur
		if cur != head && cur != "" {
			candidate += " "
		}
		candidate += tok
		if len(candidate) > wrap && cur != head {
			lines = append(lines, cur)
			cur = tok
		} else {
			cur = candidate
		}
		if i == len(tokens)-1 {
			lines = append(lines, cur)
		}
	}
	if len(lines) == 0 {
		return head
	}
	return strings.Join(lines, "\n\t")
}

// breakTokens splits on whitespace first; any resulting token that
// still contains commas is further split right after each comma, so a
// long structured list (addresses, Received clauses) can still fold.
func breakTokens(body string) []string {
	words := strings.Fields(body)
	var out []string
	for _, w := range words {
		if !strings.Contains(w, ",") {
			out = append(out, w)
			continue
		}
		parts := strings.SplitAfter(w, ",")
		for _, p := range parts {
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func renderAttribute(a Attribute, wrap int) string {
	plain := fmt.Sprintf(`%s="%s"`, a.Name, a.Value)
	if a.Charset == "" && len(plain)+2 <= wrap {
		return "; " + plain
	}

	charset := a.Charset
	if charset == "" {
		charset = "utf-8"
	}
	encoded := percentEncode(a.Value)
	single := fmt.Sprintf("%s*=%s'%s'%s", a.Name, charset, a.Lang, encoded)
	if len(single)+2 <= wrap {
		return "; " + single
	}
	return renderContinuations(a.Name, charset, a.Lang, encoded, wrap)
}

// renderContinuations splits an over-long RFC 2231 extended value into
// `name*0*=charset'lang'chunk`, `name*1*=chunk`, … segments, never
// cutting a "%XX" escape across a chunk boundary.
func renderContinuations(name, charset, lang, encoded string, wrap int) string {
	chunkSize := wrap - len(name) - 10
	if chunkSize < 10 {
		chunkSize = 10
	}

	var parts []string
	idx := 0
	for start := 0; start < len(encoded); {
		end := start + chunkSize
		if end > len(encoded) {
			end = len(encoded)
		}
		for end > start+2 && end < len(encoded) && encoded[end-2] == '%' {
			end--
		}
		for end > start+1 && end < len(encoded) && encoded[end-1] == '%' {
			end--
		}
		chunk := encoded[start:end]
		if idx == 0 {
			parts = append(parts, fmt.Sprintf("; %s*%d*=%s'%s'%s", name, idx, charset, lang, chunk))
		} else {
			parts = append(parts, fmt.Sprintf("; %s*%d*=%s", name, idx, chunk))
		}
		idx++
		start = end
	}
	return strings.Join(parts, "\n\t")
}

func percentEncode(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xF])
		}
	}
	return b.String()
}
