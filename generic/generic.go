// Package generic derives codecs for structurally recognized container
// shapes: sequences, fixed arrays, mappings, sets and nullable pointers.
//
// Element codecs are resolved lazily through a wire.Resolver, so a container
// may refer to types that are provisioned after it.
package generic

import (
	"github.com/wippyai/codecgen/errors"
	"github.com/wippyai/codecgen/shape"
	"github.com/wippyai/codecgen/wire"
)

// Resolver synthesizes codecs for container shapes. The zero value is ready
// to use.
type Resolver struct{}

// New returns a generic shape resolver.
func New() *Resolver {
	return &Resolver{}
}

// Supports reports whether a generic codec can serve desc. It is always
// false when specialized codecs are preferred.
func (r *Resolver) Supports(desc *shape.Descriptor, traits shape.Traits, preferSpecialized bool) bool {
	if preferSpecialized || desc == nil || desc.IsEnumeration() {
		return false
	}
	return traits.Kind.IsContainer()
}

// Build returns the generic codec for desc. Element codecs come from
// resolver on first use.
func (r *Resolver) Build(desc *shape.Descriptor, traits shape.Traits, resolver wire.Resolver) (wire.Codec, error) {
	if err := desc.Valid(); err != nil {
		return nil, err
	}
	if !r.Supports(desc, traits, false) {
		return nil, errors.New(errors.PhaseLookup, errors.KindUnsupported).
			GoType(desc.Identity).
			Detail("no generic shape for %s", traits.Kind).
			Build()
	}

	t := desc.Type
	switch traits.Kind {
	case shape.KindSequence, shape.KindArray:
		return wire.Sequence(t, wire.Lazy(resolver, traits.Elem)), nil
	case shape.KindMapping:
		return wire.Mapping(t, wire.Lazy(resolver, traits.Key), wire.Lazy(resolver, traits.Elem)), nil
	case shape.KindSet:
		return wire.Set(t, wire.Lazy(resolver, traits.Key)), nil
	default: // shape.KindNullable
		return wire.Nullable(t, wire.Lazy(resolver, traits.Elem)), nil
	}
}
