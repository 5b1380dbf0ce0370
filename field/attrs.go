package field

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// splitAttributes splits a structured field body on top-level
// semicolons (outside double-quoted strings) into the main value and
// the raw `name=value` attribute segments that follow it.
func splitAttributes(s string) (main string, segments []string) {
	var parts []string
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '"' && (i == 0 || s[i-1] != '\\'):
			inQuote = !inQuote
		case s[i] == ';' && !inQuote:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])

	main = strings.TrimSpace(parts[0])
	return main, parts[1:]
}

var attrNameRe = regexp.MustCompile(`^\s*([A-Za-z0-9\-]+)(?:\*(\d+))?(\*)?\s*=\s*(.*)$`)

type attrToken struct {
	name     string
	index    int // -1 when the attribute has no continuation index
	extended bool
	value    string // raw value, still quoted/percent-encoded as found
}

func parseAttrToken(segment string) (attrToken, bool) {
	m := attrNameRe.FindStringSubmatch(segment)
	if m == nil {
		return attrToken{}, false
	}
	idx := -1
	if m[2] != "" {
		idx, _ = strconv.Atoi(m[2])
	}
	return attrToken{
		name:     strings.ToLower(m[1]),
		index:    idx,
		extended: m[3] == "*",
		value:    unquote(strings.TrimSpace(m[4])),
	}, true
}

func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	inner := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}

// assembleAttributes groups raw tokens by name and reassembles RFC
// 2231 continuations (`name*0*`, `name*1*`, …) in ascending index
// order, per spec.md §4.2. A missing continuation index leaves the
// literal marker "[continuation missing]" at the gap, also per
// spec.md §4.2.
func assembleAttributes(tokens []attrToken) []Attribute {
	order := []string{}
	byName := map[string][]attrToken{}
	for _, tok := range tokens {
		if _, ok := byName[tok.name]; !ok {
			order = append(order, tok.name)
		}
		byName[tok.name] = append(byName[tok.name], tok)
	}

	var out []Attribute
	for _, name := range order {
		group := byName[name]
		if len(group) == 1 && group[0].index == -1 {
			out = append(out, decodeSimple(name, group[0]))
			continue
		}
		out = append(out, decodeContinuation(name, group))
	}
	return out
}

func decodeSimple(name string, tok attrToken) Attribute {
	if !tok.extended {
		return Attribute{Name: name, Value: tok.value}
	}
	charset, lang, rest := splitExtendedInitial(tok.value)
	val := percentDecode(rest)
	if charset != "" {
		if decoded, err := decodeCharset(charset, val); err == nil {
			val = decoded
		}
	}
	return Attribute{Name: name, Value: val, Charset: charset, Lang: lang}
}

func decodeContinuation(name string, group []attrToken) Attribute {
	sort.Slice(group, func(i, j int) bool { return group[i].index < group[j].index })

	var b strings.Builder
	var charset, lang string
	next := 0
	for _, tok := range group {
		if tok.index < 0 {
			continue
		}
		for next < tok.index {
			b.WriteString("[continuation missing]")
			next++
		}
		raw := tok.value
		if tok.index == 0 && tok.extended {
			c, l, rest := splitExtendedInitial(raw)
			charset, lang, raw = c, l, rest
		}
		if tok.extended {
			raw = percentDecode(raw)
		}
		b.WriteString(raw)
		next = tok.index + 1
	}

	val := b.String()
	if charset != "" {
		if decoded, err := decodeCharset(charset, val); err == nil {
			val = decoded
		}
	}
	return Attribute{Name: name, Value: val, Charset: charset, Lang: lang}
}

// splitExtendedInitial parses the `charset'lang'value` prefix that
// opens an RFC 2231 extended attribute value (index 0, trailing `*`).
func splitExtendedInitial(s string) (charset, lang, value string) {
	parts := strings.SplitN(s, "'", 3)
	if len(parts) != 3 {
		return "", "", s
	}
	return parts[0], parts[1], parts[2]
}

func percentDecode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if hi, ok1 := hexVal(s[i+1]); ok1 {
				if lo, ok2 := hexVal(s[i+2]); ok2 {
					b.WriteByte(hi<<4 | lo)
					i += 2
					continue
				}
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	default:
		return 0, false
	}
}

// decodeCharset converts bytes that were percent-decoded from an
// RFC 2231 extended value (nominally in charset) into a UTF-8 string.
func decodeCharset(charset string, s string) (string, error) {
	if strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "us-ascii") {
		return s, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return s, err
	}
	decoded, err := enc.NewDecoder().String(s)
	if err != nil {
		return s, err
	}
	return decoded, nil
}
