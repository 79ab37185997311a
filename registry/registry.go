// Package registry holds the built-in codecs for well-known primitive types.
//
// Lookups match exact type identity; a named type with a built-in
// underlying kind is not a built-in.
package registry

import (
	"reflect"
	"sync"
	"time"

	"github.com/wippyai/codecgen/errors"
	"github.com/wippyai/codecgen/shape"
	"github.com/wippyai/codecgen/wire"
)

// Registry maps exact Go types to codecs. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[reflect.Type]wire.Codec
}

// New returns a registry populated with the built-in codecs.
func New() *Registry {
	r := &Registry{codecs: make(map[reflect.Type]wire.Codec, len(builtins))}
	for t, c := range builtins {
		r.codecs[t] = c
	}
	return r
}

var builtins = map[reflect.Type]wire.Codec{
	reflect.TypeFor[bool]():            wire.Bool,
	reflect.TypeFor[int]():             wire.Int,
	reflect.TypeFor[int8]():            wire.Int,
	reflect.TypeFor[int16]():           wire.Int,
	reflect.TypeFor[int32]():           wire.Int,
	reflect.TypeFor[int64]():           wire.Int,
	reflect.TypeFor[uint]():            wire.Uint,
	reflect.TypeFor[uint8]():           wire.Uint,
	reflect.TypeFor[uint16]():          wire.Uint,
	reflect.TypeFor[uint32]():          wire.Uint,
	reflect.TypeFor[uint64]():          wire.Uint,
	reflect.TypeFor[float32]():         wire.Float32,
	reflect.TypeFor[float64]():         wire.Float64,
	reflect.TypeFor[string]():          wire.String,
	reflect.TypeFor[[]byte]():          wire.Bytes,
	reflect.TypeFor[time.Time]():       wire.Time,
	reflect.TypeFor[time.Duration]():   wire.Int,
	reflect.TypeFor[any]():             wire.Dynamic,
	reflect.TypeFor[wire.RawMessage](): wire.Raw,
}

// Contains reports whether a codec is registered for exactly t.
func (r *Registry) Contains(t reflect.Type) bool {
	if t == nil {
		return false
	}
	r.mu.RLock()
	_, ok := r.codecs[t]
	r.mu.RUnlock()
	return ok
}

// Lookup returns the codec registered for t.
func (r *Registry) Lookup(t reflect.Type) (wire.Codec, bool) {
	if t == nil {
		return nil, false
	}
	r.mu.RLock()
	c, ok := r.codecs[t]
	r.mu.RUnlock()
	return c, ok
}

// Register adds a user codec for t. Registering a type twice fails.
func (r *Registry) Register(t reflect.Type, c wire.Codec) error {
	if t == nil || c == nil {
		return errors.InvalidArgument(errors.PhaseLookup, "register requires a type and a codec")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codecs[t]; ok {
		return errors.DuplicateGeneration(errors.PhaseLookup, shape.Identity(t))
	}
	r.codecs[t] = c
	return nil
}

// Len returns the number of registered codecs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.codecs)
}
