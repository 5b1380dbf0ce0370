package body

import (
	"github.com/markov2/go-mailbox/codec"
	"github.com/markov2/go-mailbox/exterrors"
)

// basedOn copies the content-info triple from b except for
// transfer_encoding, per spec.md §4.4's "based_on preserves the
// content-info triple except for transfer_encoding".
func (b *Body) basedOn(data []byte, newEncoding string) *Body {
	info := b.info
	info.TransferEncoding = newEncoding
	return &Body{kind: String, data: data, info: info, disposition: b.disposition, end: -1}
}

// Decode applies the codec named by the body's current
// transfer_encoding and returns a new body holding the decoded bytes
// with transfer_encoding cleared to "none". It never mutates b.
//
// A codec failure (malformed base64 length, for instance) is recovered
// locally per spec.md §7's propagation policy: the returned body still
// has transfer_encoding downgraded to "none", but holds the original,
// un-decoded bytes, and the error is still returned so the caller can
// log a warning.
func (b *Body) Decode() (*Body, error) {
	raw, err := b.String()
	if err != nil {
		return nil, err
	}
	c := codec.Lookup(b.info.TransferEncoding)
	if c == nil {
		c = codec.Lookup("")
	}
	decoded, err := c.Decode(raw)
	if err != nil {
		fallback := b.basedOn(raw, "none")
		fallback.checked = false
		return fallback, exterrors.MalformedBody("body.Decode", b.info.TransferEncoding, err.Error())
	}
	out := b.basedOn(decoded, "none")
	out.checked = true
	return out, nil
}

// Encode applies the named codec to the body's current raw content and
// returns a new body with transfer_encoding set to name.
func (b *Body) Encode(name string) (*Body, error) {
	raw, err := b.String()
	if err != nil {
		return nil, err
	}
	c := codec.Lookup(name)
	if c == nil {
		return nil, exterrors.MalformedBody("body.Encode", name, "unknown transfer encoding")
	}
	encoded, err := c.Encode(raw)
	if err != nil {
		return nil, exterrors.MalformedBody("body.Encode", name, err.Error())
	}
	out := b.basedOn(encoded, name)
	out.checked = true
	return out, nil
}
