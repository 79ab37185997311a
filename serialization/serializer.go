package serialization

import (
	"context"
	"io"
	"reflect"

	"github.com/wippyai/codecgen/errors"
	"github.com/wippyai/codecgen/shape"
	"github.com/wippyai/codecgen/wire"
)

// Serializer encodes and decodes values of T.
type Serializer[T any] struct {
	codec wire.Codec
	typ   reflect.Type
}

// Get provisions T and its type graph and returns its serializer. Struct
// metadata for T is scanned into the sentinel cache first.
func Get[T any](c *Context) (*Serializer[T], error) {
	t := reflect.TypeFor[T]()
	shape.Warm[T]()
	if err := c.Provision(context.Background(), t); err != nil {
		return nil, err
	}
	codec, err := c.CodecFor(t)
	if err != nil {
		return nil, err
	}
	return &Serializer[T]{codec: codec, typ: t}, nil
}

// Codec returns the underlying codec.
func (s *Serializer[T]) Codec() wire.Codec { return s.codec }

func (s *Serializer[T]) Marshal(v T) ([]byte, error) {
	return wire.Marshal(s.codec, reflect.ValueOf(&v).Elem())
}

func (s *Serializer[T]) Unmarshal(data []byte, out *T) error {
	if out == nil {
		return errors.NilPointer(errors.PhaseDecode, nil, s.typ.String())
	}
	return wire.Unmarshal(s.codec, data, reflect.ValueOf(out).Elem())
}

// Encode writes v to w.
func (s *Serializer[T]) Encode(w io.Writer, v T) error {
	return s.codec.Encode(wire.NewEncoder(w), reflect.ValueOf(&v).Elem())
}

// Decode reads one value from r into out.
func (s *Serializer[T]) Decode(r io.Reader, out *T) error {
	if out == nil {
		return errors.NilPointer(errors.PhaseDecode, nil, s.typ.String())
	}
	return s.codec.Decode(wire.NewDecoder(r), reflect.ValueOf(out).Elem())
}
