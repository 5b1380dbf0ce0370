package codec

// Binary implements the "binary" Content-Transfer-Encoding: no
// restriction at all, the payload passes through unchanged.
type Binary struct{}

func (Binary) Name() string { return "binary" }

func (Binary) Check([]byte) error { return nil }

func (Binary) Decode(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

func (Binary) Encode(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}
