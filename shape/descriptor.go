package shape

import (
	"reflect"
	"strings"

	"github.com/wippyai/codecgen/errors"
)

// Symbol is one named value of an enumeration.
type Symbol struct {
	Name  string
	Value int64
}

// Enumerated is implemented by finite symbolic value types. The receiver
// value is ignored; only the symbol table matters.
type Enumerated interface {
	EnumSymbols() []Symbol
}

var enumeratedType = reflect.TypeFor[Enumerated]()

// Descriptor identifies a type being provisioned. It is immutable once built.
type Descriptor struct {
	Type     reflect.Type
	Identity string
	Symbols  []Symbol
}

// Option configures Describe.
type Option func(*Descriptor)

// WithSymbols marks the type as an enumeration with the given symbols,
// overriding any symbols the type declares itself.
func WithSymbols(symbols ...Symbol) Option {
	return func(d *Descriptor) {
		d.Symbols = append([]Symbol(nil), symbols...)
	}
}

// Describe builds the descriptor for t.
func Describe(t reflect.Type, opts ...Option) (*Descriptor, error) {
	if t == nil {
		return nil, errors.InvalidArgument(errors.PhaseAnalyze, "type cannot be nil")
	}

	d := &Descriptor{
		Type:     t,
		Identity: Identity(t),
		Symbols:  declaredSymbols(t),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.Symbols != nil {
		if err := validateSymbols(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// DescribeOf builds the descriptor for T.
func DescribeOf[T any](opts ...Option) (*Descriptor, error) {
	return Describe(reflect.TypeFor[T](), opts...)
}

// Valid reports an InvalidArgument error for an absent or unresolvable descriptor.
func (d *Descriptor) Valid() error {
	if d == nil {
		return errors.InvalidArgument(errors.PhaseLookup, "type descriptor is nil")
	}
	if d.Type == nil {
		return errors.InvalidArgument(errors.PhaseLookup, "type descriptor has no type")
	}
	if d.Identity == "" {
		return errors.New(errors.PhaseLookup, errors.KindInvalidArgument).
			GoType(d.Type.String()).
			Detail("type descriptor has no identity").
			Build()
	}
	return nil
}

// IsEnumeration reports whether the descriptor carries a symbol table.
func (d *Descriptor) IsEnumeration() bool {
	return len(d.Symbols) > 0
}

// SymbolByValue returns the symbol with the given value.
func (d *Descriptor) SymbolByValue(v int64) (Symbol, bool) {
	for _, s := range d.Symbols {
		if s.Value == v {
			return s, true
		}
	}
	return Symbol{}, false
}

func (d *Descriptor) String() string {
	if d == nil {
		return "<nil>"
	}
	return d.Identity
}

// Identity returns the stable identity string of t: the package-qualified
// name for named types, the type literal otherwise.
func Identity(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func declaredSymbols(t reflect.Type) []Symbol {
	switch {
	case t.Kind() == reflect.Interface, t.Kind() == reflect.Pointer:
		return nil
	case t.Implements(enumeratedType):
		return reflect.Zero(t).Interface().(Enumerated).EnumSymbols()
	case reflect.PointerTo(t).Implements(enumeratedType):
		return reflect.New(t).Interface().(Enumerated).EnumSymbols()
	default:
		return nil
	}
}

func validateSymbols(d *Descriptor) error {
	if !isInteger(d.Type.Kind()) {
		return errors.New(errors.PhaseAnalyze, errors.KindInvalidArgument).
			GoType(d.Type.String()).
			Detail("enumeration symbols need an integer kind, got %s", d.Type.Kind()).
			Build()
	}

	names := make(map[string]bool, len(d.Symbols))
	values := make(map[int64]bool, len(d.Symbols))
	for _, s := range d.Symbols {
		if strings.TrimSpace(s.Name) == "" {
			return errors.New(errors.PhaseAnalyze, errors.KindInvalidArgument).
				GoType(d.Type.String()).
				Detail("enumeration symbol with empty name").
				Build()
		}
		if names[s.Name] || values[s.Value] {
			return errors.New(errors.PhaseAnalyze, errors.KindInvalidArgument).
				GoType(d.Type.String()).
				Detail("duplicate enumeration symbol %s=%d", s.Name, s.Value).
				Build()
		}
		names[s.Name] = true
		values[s.Value] = true
	}
	return nil
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}
