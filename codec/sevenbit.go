package codec

import "fmt"

const maxLineLength = 998

// SevenBit implements the "7bit" Content-Transfer-Encoding: every octet is
// already in the 7-bit ASCII range, no NUL/VT, and lines are bounded.
type SevenBit struct{}

func (SevenBit) Name() string { return "7bit" }

func (SevenBit) Check(data []byte) error {
	return checkLines(data, false)
}

// Decode is the identity transform: 7bit carries no wire encoding of its
// own beyond the restrictions Check enforces.
func (SevenBit) Decode(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

// Encode clears the high bit of any byte >= 128 and splits lines longer
// than 998 bytes, per spec.md §4.4. It never fails; a caller that needs to
// know whether the input already was clean 7bit should call Check first.
func (SevenBit) Encode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	lineLen := 0
	for _, b := range data {
		if b == '\n' {
			out = append(out, b)
			lineLen = 0
			continue
		}
		if b == 0 || b == 0x0B {
			// NUL and VT are dropped: there is no legal 7bit
			// representation of them.
			continue
		}
		if b >= 128 {
			b &= 0x7F
		}
		if lineLen >= maxLineLength {
			out = append(out, '\n')
			lineLen = 0
		}
		out = append(out, b)
		lineLen++
	}
	return out, nil
}

func checkLines(data []byte, allowHighBit bool) error {
	lineLen := 0
	for i, b := range data {
		if b == '\n' {
			lineLen = 0
			continue
		}
		lineLen++
		if lineLen > maxLineLength {
			return fmt.Errorf("codec: line exceeds %d bytes at offset %d", maxLineLength, i)
		}
		if b == 0 {
			return fmt.Errorf("codec: NUL byte at offset %d", i)
		}
		if b == 0x0B {
			return fmt.Errorf("codec: VT byte at offset %d", i)
		}
		if !allowHighBit && b >= 128 {
			return fmt.Errorf("codec: byte >= 128 at offset %d", i)
		}
	}
	return nil
}
