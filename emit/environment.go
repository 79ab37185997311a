// Package emit is the Emission Environment: it prepares an Output Unit for
// generated codecs and creates the emitters that produce codec programs.
//
// Two emitter families exist. FieldBasedObject serializes records member by
// member and also covers containers and named scalars. Enumeration
// serializes finite symbolic value types by symbol name or by value.
//
// An emitter moves through Created, Emitted and Finalized. Finalize appends
// the program to the unit and returns the compiled codec.
package emit

import (
	"strconv"
	"sync"

	"github.com/wippyai/codecgen/errors"
	"github.com/wippyai/codecgen/program"
	"github.com/wippyai/codecgen/shape"
	"github.com/wippyai/codecgen/unit"
	"github.com/wippyai/codecgen/wire"
)

// Generator is the value of the generator attribute.
const Generator = "codecgen"

// Family selects an emitter implementation.
type Family = program.Family

const (
	FieldBasedObject = program.FamilyFieldBased
	Enumeration      = program.FamilyEnumeration
)

// Policy controls wire layouts of emitted programs.
type Policy struct {
	Method     program.Layout // LayoutArray or LayoutMap for records
	EnumMethod program.Layout // LayoutName or LayoutValue for enumerations
}

// DefaultPolicy writes records as arrays and enumerations by name.
func DefaultPolicy() Policy {
	return Policy{Method: program.LayoutArray, EnumMethod: program.LayoutName}
}

func (p Policy) normalize() (Policy, error) {
	if p.Method == program.LayoutNone {
		p.Method = program.LayoutArray
	}
	if p.EnumMethod == program.LayoutNone {
		p.EnumMethod = program.LayoutName
	}
	if p.Method != program.LayoutArray && p.Method != program.LayoutMap {
		return p, errors.InvalidArgument(errors.PhaseEmit, "record method must be array or map, got "+p.Method.String())
	}
	if p.EnumMethod != program.LayoutName && p.EnumMethod != program.LayoutValue {
		return p, errors.InvalidArgument(errors.PhaseEmit, "enum method must be name or value, got "+p.EnumMethod.String())
	}
	return p, nil
}

// Option configures an Environment.
type Option func(*Environment)

// WithCompression sets the compression attribute written by Prepare.
func WithCompression(c string) Option {
	return func(e *Environment) {
		e.compression = c
	}
}

// Environment prepares one Output Unit and creates emitters bound to it.
type Environment struct {
	mu          sync.Mutex
	unit        *unit.Unit
	compression string
	prepared    bool
}

// NewEnvironment returns an environment bound to u.
func NewEnvironment(u *unit.Unit, opts ...Option) *Environment {
	e := &Environment{unit: u, compression: unit.CompressionNone}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Unit returns the bound Output Unit.
func (e *Environment) Unit() *unit.Unit {
	return e.unit
}

// Attributes returns the attributes Prepare sets.
func (e *Environment) Attributes() map[string]string {
	return map[string]string{
		unit.AttrFormatVersion: strconv.Itoa(program.FormatVersion),
		unit.AttrGenerator:     Generator,
		unit.AttrVisibility:    "public",
		unit.AttrWireFormat:    "msgpack",
		unit.AttrCompression:   e.compression,
	}
}

// Prepare sets the unit's compatibility attributes. Calling it again with
// the same unit leaves the attributes unchanged; any other unit is rejected.
func (e *Environment) Prepare(u *unit.Unit) error {
	if u == nil {
		return errors.InvalidArgument(errors.PhaseEmit, "prepare requires a unit")
	}
	if u != e.unit {
		return errors.InvalidArgument(errors.PhaseEmit, "unit "+u.Name()+" is not bound to this environment")
	}
	if e.compression != unit.CompressionNone && e.compression != unit.CompressionZstd {
		return errors.InvalidArgument(errors.PhaseEmit, "unknown compression "+e.compression)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range e.Attributes() {
		if err := u.SetAttribute(k, v); err != nil {
			return err
		}
	}
	e.prepared = true
	return nil
}

// Prepared reports whether Prepare has run.
func (e *Environment) Prepared() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prepared
}

// EmitterFor creates an emitter of the given family for desc. resolver
// supplies codecs for members and elements when the emitted codec runs.
func (e *Environment) EmitterFor(desc *shape.Descriptor, family Family, resolver wire.Resolver, policy Policy) (Emitter, error) {
	if err := desc.Valid(); err != nil {
		return nil, err
	}
	policy, err := policy.normalize()
	if err != nil {
		return nil, err
	}
	if !e.Prepared() {
		return nil, errors.InvalidSessionState(errors.PhaseEmit, "environment not prepared")
	}

	base := &emitter{desc: desc, unit: e.unit, resolver: resolver, policy: policy}

	switch family {
	case Enumeration:
		if !desc.IsEnumeration() {
			return nil, errors.UnsupportedFamily(desc.Identity, family.String(), "type has no enumeration symbols")
		}
		base.family = Enumeration
		return &enumEmitter{emitter: base}, nil

	case FieldBasedObject:
		if desc.IsEnumeration() {
			return nil, errors.UnsupportedFamily(desc.Identity, family.String(), "enumeration types use the enumeration family")
		}
		traits, err := shape.Analyze(desc)
		if err != nil {
			return nil, err
		}
		switch traits.Kind {
		case shape.KindUnsupported, shape.KindDynamic, shape.KindNone:
			return nil, errors.UnsupportedFamily(desc.Identity, family.String(), "no field-based layout for "+desc.Type.Kind().String())
		}
		base.family = FieldBasedObject
		return &fieldEmitter{emitter: base, traits: traits}, nil

	default:
		return nil, errors.UnsupportedFamily(desc.Identity, family.String(), "unknown emitter family")
	}
}
