package wire

import (
	"reflect"
	"sync/atomic"

	"github.com/wippyai/codecgen/errors"
)

// Lazy returns a codec that resolves the codec for t through r on first use.
// A failed resolution is retried on the next call; a successful one is kept.
// Deferring resolution lets self-referential types refer to their own codec.
func Lazy(r Resolver, t reflect.Type) Codec {
	return &lazyCodec{resolver: r, typ: t}
}

type lazyCodec struct {
	resolver Resolver
	typ      reflect.Type
	codec    atomic.Pointer[Codec]
}

func (l *lazyCodec) resolve() (Codec, error) {
	if c := l.codec.Load(); c != nil {
		return *c, nil
	}
	if l.resolver == nil {
		return nil, errors.NotFound(errors.PhaseLookup, "codec resolver for", l.typ.String())
	}
	c, err := l.resolver.CodecFor(l.typ)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.NotFound(errors.PhaseLookup, "codec", l.typ.String())
	}
	l.codec.Store(&c)
	return c, nil
}

func (l *lazyCodec) Encode(e *Encoder, v reflect.Value) error {
	c, err := l.resolve()
	if err != nil {
		return err
	}
	return c.Encode(e, v)
}

func (l *lazyCodec) Decode(d *Decoder, v reflect.Value) error {
	c, err := l.resolve()
	if err != nil {
		return err
	}
	return c.Decode(d, v)
}
