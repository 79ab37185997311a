package shape

import (
	"context"
	"reflect"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Traits is the structural information analysis derives from a descriptor.
type Traits struct {
	// Elem is the element type of sequences, arrays, sets and nullables,
	// and the value type of mappings.
	Elem reflect.Type
	// Key is the key type of mappings and sets.
	Key    reflect.Type
	Kind   Kind
	Length int // arrays only
}

// Countable reports whether values of the shape carry an element count.
func (t Traits) Countable() bool {
	switch t.Kind {
	case KindSequence, KindArray, KindMapping, KindSet, KindBytes:
		return true
	default:
		return false
	}
}

// KeyValuePairs reports whether elements of the shape are key/value pairs.
func (t Traits) KeyValuePairs() bool {
	return t.Kind == KindMapping
}

var emptyStruct = reflect.TypeFor[struct{}]()

// Analyze derives the traits of d. It has no side effects.
func Analyze(d *Descriptor) (Traits, error) {
	if err := d.Valid(); err != nil {
		return Traits{}, err
	}
	if d.IsEnumeration() {
		return Traits{Kind: KindEnumeration}, nil
	}
	return analyzeType(d.Type), nil
}

// AnalyzeType derives traits from a bare Go type, ignoring enumeration
// symbols.
func AnalyzeType(t reflect.Type) Traits {
	if t == nil {
		return Traits{Kind: KindNone}
	}
	return analyzeType(t)
}

func analyzeType(t reflect.Type) Traits {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return Traits{Kind: KindScalar}

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return Traits{Kind: KindBytes, Elem: t.Elem()}
		}
		return Traits{Kind: KindSequence, Elem: t.Elem()}

	case reflect.Array:
		return Traits{Kind: KindArray, Elem: t.Elem(), Length: t.Len()}

	case reflect.Map:
		if t.Elem() == emptyStruct {
			return Traits{Kind: KindSet, Key: t.Key(), Elem: t.Key()}
		}
		return Traits{Kind: KindMapping, Key: t.Key(), Elem: t.Elem()}

	case reflect.Pointer:
		return Traits{Kind: KindNullable, Elem: t.Elem()}

	case reflect.Struct:
		return Traits{Kind: KindRecord}

	case reflect.Interface:
		return Traits{Kind: KindDynamic}

	default:
		// func, chan, complex, uintptr, unsafe.Pointer
		return Traits{Kind: KindUnsupported}
	}
}

// AnalyzeAll analyzes descriptors in parallel. Results are positional; the
// first error cancels the remaining work.
func AnalyzeAll(ctx context.Context, descs []*Descriptor) ([]Traits, error) {
	out := make([]Traits, len(descs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, d := range descs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tr, err := Analyze(d)
			if err != nil {
				return err
			}
			out[i] = tr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
