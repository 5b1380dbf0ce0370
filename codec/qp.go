package codec

import "fmt"

// QuotedPrintable implements RFC 2045 §6.7 with 76-column encoded lines.
type QuotedPrintable struct{}

func (QuotedPrintable) Name() string { return "quoted-printable" }

// Check never fails: any byte sequence is legal input to Encode, that is
// the point of the encoding.
func (QuotedPrintable) Check([]byte) error { return nil }

const qpLineWidth = 76

func hexUpper(b byte) [3]byte {
	const hex = "0123456789ABCDEF"
	return [3]byte{'=', hex[b>>4], hex[b&0xF]}
}

type qpLine struct {
	content []byte
	hasNL   bool
}

// splitLines splits data on '\n' keeping track of which lines were
// terminated by one, so Encode can tell a genuine hard break from the
// final, possibly unterminated, line.
func splitLines(data []byte) []qpLine {
	var out []qpLine
	start := 0
	for i, b := range data {
		if b == '\n' {
			out = append(out, qpLine{content: data[start:i], hasNL: true})
			start = i + 1
		}
	}
	if start < len(data) {
		out = append(out, qpLine{content: data[start:], hasNL: false})
	}
	return out
}

// encodeLineTokens turns one hard-broken line into the sequence of
// encoded tokens (either a single literal byte, or a 3-byte "=XX" escape),
// escaping trailing whitespace since it would otherwise be invisible.
func encodeLineTokens(line []byte) [][]byte {
	tokens := make([][]byte, 0, len(line))
	lastSignificant := len(line)
	for lastSignificant > 0 && (line[lastSignificant-1] == ' ' || line[lastSignificant-1] == '\t') {
		lastSignificant--
	}
	for i, b := range line {
		trailingWS := i >= lastSignificant && (b == ' ' || b == '\t')
		switch {
		case b == '=' || trailingWS || b < 33 || b > 126:
			h := hexUpper(b)
			tokens = append(tokens, []byte{h[0], h[1], h[2]})
		default:
			tokens = append(tokens, []byte{b})
		}
	}
	return tokens
}

func wrapTokens(tokens [][]byte) []byte {
	var out []byte
	col := 0
	for i, tok := range tokens {
		// +1 reserves room for a soft '=' if we need to break after this token.
		if col+len(tok) > qpLineWidth-1 && i != len(tokens)-1 {
			out = append(out, '=', '\n')
			col = 0
		}
		out = append(out, tok...)
		col += len(tok)
	}
	return out
}

// Encode implements RFC 2045 §6.7: printable ASCII passes through, '='
// and non-printable bytes are escaped, trailing line whitespace is
// escaped so it survives transport, and encoded lines are folded to 76
// columns with a soft "=\n" break.
func (QuotedPrintable) Encode(data []byte) ([]byte, error) {
	var out []byte
	for _, ln := range splitLines(data) {
		tokens := encodeLineTokens(ln.content)
		out = append(out, wrapTokens(tokens)...)
		if ln.hasNL {
			out = append(out, '\n')
		}
	}
	return out, nil
}

// Decode reverses Encode. It tolerates soft line breaks ("=\n") and a
// trailing "=0D" immediately before a real line break (some encoders emit
// an explicit encoded CR before the transport's own line terminator).
func (QuotedPrintable) Decode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b != '=' {
			out = append(out, b)
			continue
		}

		if i+1 >= len(data) {
			return nil, fmt.Errorf("codec: quoted-printable: dangling '=' at end of input")
		}

		// Soft line break: "=\n" is dropped entirely.
		if data[i+1] == '\n' {
			i++
			continue
		}
		// "=0D" directly before a real line break is a defensively
		// encoded CR that belongs to the line ending, not the payload.
		if i+3 < len(data) && data[i+1] == '0' && (data[i+2] == 'D' || data[i+2] == 'd') && data[i+3] == '\n' {
			i += 2
			continue
		}
		// "=0D" as the very last bytes of input (no line break follows).
		if i+2 == len(data)-1 && data[i+1] == '0' && (data[i+2] == 'D' || data[i+2] == 'd') {
			i += 2
			continue
		}

		if i+2 >= len(data) {
			return nil, fmt.Errorf("codec: quoted-printable: truncated escape at offset %d", i)
		}
		hi, ok1 := hexVal(data[i+1])
		lo, ok2 := hexVal(data[i+2])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("codec: quoted-printable: invalid escape %q at offset %d", data[i:i+3], i)
		}
		out = append(out, hi<<4|lo)
		i += 2
	}
	return out, nil
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
