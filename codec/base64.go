package codec

import (
	"encoding/base64"
	"fmt"
)

// Base64 implements RFC 2045 §6.8.
type Base64 struct{}

func (Base64) Name() string { return "base64" }

func (Base64) Check([]byte) error { return nil }

func isBase64Alphabet(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9', b == '+', b == '/':
		return true
	default:
		return false
	}
}

// Decode strips anything that isn't a base64 alphabet character or the
// padding character before decoding, so that line wrapping, stray
// whitespace, and the occasional MUA mangling don't break it. If the
// filtered input is not a multiple of 4 bytes long, decoding aborts: the
// caller should downgrade the declared transfer-encoding to "none" and
// log a warning, per spec.md §4.4.
func (Base64) Decode(data []byte) ([]byte, error) {
	filtered := make([]byte, 0, len(data))
	for _, b := range data {
		if isBase64Alphabet(b) || b == '=' {
			filtered = append(filtered, b)
		}
	}

	if len(filtered)%4 != 0 {
		return nil, fmt.Errorf("codec: base64: %d bytes after filtering is not a multiple of 4", len(filtered))
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	out := make([]byte, base64.StdEncoding.DecodedLen(len(filtered)))
	n, err := base64.StdEncoding.Decode(out, filtered)
	if err != nil {
		return nil, fmt.Errorf("codec: base64: %w", err)
	}
	return out[:n], nil
}

const base64LineWidth = 76

// Encode produces standard base64 with padding, wrapped to 76-column
// lines separated by "\n".
func (Base64) Encode(data []byte) ([]byte, error) {
	encoded := base64.StdEncoding.EncodeToString(data)
	if len(encoded) <= base64LineWidth {
		return []byte(encoded), nil
	}

	out := make([]byte, 0, len(encoded)+len(encoded)/base64LineWidth+1)
	for len(encoded) > base64LineWidth {
		out = append(out, encoded[:base64LineWidth]...)
		out = append(out, '\n')
		encoded = encoded[base64LineWidth:]
	}
	out = append(out, encoded...)
	return out, nil
}
