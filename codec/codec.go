// Package codec implements the Content-Transfer-Encoding layer (spec.md
// §4.4): 7bit, 8bit, binary, quoted-printable and base64. Each Codec
// operates on a plain byte slice; it never mutates its input, it always
// returns a freshly allocated result, matching the Body contract that
// Encode/Decode derive a new Body rather than rewrite one in place.
package codec

// Codec is one Content-Transfer-Encoding.
type Codec interface {
	// Name is the canonical, lower-case token used in a
	// Content-Transfer-Encoding header (e.g. "quoted-printable").
	Name() string

	// Check reports whether data is legal input for Encode: i.e. whether a
	// body already claiming this encoding actually satisfies it. It does
	// not touch the encoded-on-the-wire form, only the semantic domain
	// (7bit's Check rejects bytes >= 128, for example).
	Check(data []byte) error

	// Decode reverses the wire encoding, returning the raw payload.
	Decode(data []byte) ([]byte, error)

	// Encode applies the wire encoding to raw payload data.
	Encode(data []byte) ([]byte, error)
}

// registry holds the five codecs named by spec.md §4.4, keyed by their
// canonical name plus the common aliases folders will see on disk.
var registry = map[string]Codec{}

func register(c Codec, aliases ...string) {
	registry[c.Name()] = c
	for _, a := range aliases {
		registry[a] = c
	}
}

func init() {
	register(SevenBit{}, "7-bit")
	register(EightBit{}, "8-bit")
	register(Binary{})
	register(QuotedPrintable{}, "quoted printable")
	register(Base64{}, "base-64")
}

// Lookup returns the Codec registered for name, case-insensitively, or nil
// if name is not a known Content-Transfer-Encoding. An empty name is
// treated as "7bit", the RFC 2045 default.
func Lookup(name string) Codec {
	if name == "" {
		return registry["7bit"]
	}
	if c, ok := registry[normalize(name)]; ok {
		return c
	}
	return nil
}

func normalize(name string) string {
	b := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b = append(b, c)
	}
	return string(b)
}
