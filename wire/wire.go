package wire

import (
	"bytes"
	"io"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Encoder is a MessagePack stream encoder. Type alias so consumers import
// only wire, not vmihailenco/msgpack directly.
type Encoder = msgpack.Encoder

// Decoder is a MessagePack stream decoder.
type Decoder = msgpack.Decoder

// RawMessage is a pre-encoded MessagePack value.
type RawMessage = msgpack.RawMessage

// Codec encodes and decodes values of one Go type.
type Codec interface {
	// Encode writes v to e. v has the codec's Go type.
	Encode(e *Encoder, v reflect.Value) error

	// Decode reads one value from d into v. v is settable.
	Decode(d *Decoder, v reflect.Value) error
}

// Resolver yields the codec for a Go type.
type Resolver interface {
	CodecFor(t reflect.Type) (Codec, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(t reflect.Type) (Codec, error)

// CodecFor calls f(t).
func (f ResolverFunc) CodecFor(t reflect.Type) (Codec, error) {
	return f(t)
}

// NewEncoder returns an encoder writing to w with the module's standard
// configuration.
func NewEncoder(w io.Writer) *Encoder {
	enc := msgpack.NewEncoder(w)
	configureEncoder(enc)
	return enc
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return msgpack.NewDecoder(r)
}

func configureEncoder(enc *Encoder) {
	enc.UseCompactInts(true)
	enc.UseCompactFloats(true)
	enc.SetSortMapKeys(true)
}

// Marshal encodes v with c into a new byte slice.
func Marshal(c Codec, v reflect.Value) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	enc := NewEncoder(buf)
	if err := c.Encode(enc, v); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Unmarshal decodes data with c into v, which must be settable.
func Unmarshal(c Codec, data []byte, v reflect.Value) error {
	return c.Decode(NewDecoder(bytes.NewReader(data)), v)
}

// PeekNil reports whether the next value in d is nil without consuming it.
func PeekNil(d *Decoder) (bool, error) {
	code, err := d.PeekCode()
	if err != nil {
		return false, err
	}
	return code == msgpcode.Nil, nil
}

// PeekString reports whether the next value in d is a string.
func PeekString(d *Decoder) (bool, error) {
	code, err := d.PeekCode()
	if err != nil {
		return false, err
	}
	return msgpcode.IsString(code), nil
}
