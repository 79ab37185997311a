package emit

import (
	"reflect"
	"sync"

	"github.com/wippyai/codecgen/errors"
	"github.com/wippyai/codecgen/program"
	"github.com/wippyai/codecgen/shape"
	"github.com/wippyai/codecgen/unit"
	"github.com/wippyai/codecgen/wire"
)

// State is an emitter lifecycle state.
type State uint8

const (
	StateCreated State = iota
	StateEmitted
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateEmitted:
		return "emitted"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Emitter produces the encode and decode routines for one type.
type Emitter interface {
	// EmitRoutines builds the encode and decode routines.
	EmitRoutines() error

	// Finalize appends the program to the unit and returns the compiled
	// codec. It fails if routines have not been emitted.
	Finalize() (wire.Codec, error)

	Descriptor() *shape.Descriptor
	Family() Family
	State() State

	// Program returns the emitted program, or nil before EmitRoutines.
	Program() *program.Program
}

// emitter holds the lifecycle shared by both families.
type emitter struct {
	mu       sync.Mutex
	desc     *shape.Descriptor
	unit     *unit.Unit
	resolver wire.Resolver
	prog     *program.Program
	policy   Policy
	state    State
	family   Family
}

func (e *emitter) Descriptor() *shape.Descriptor { return e.desc }

func (e *emitter) Family() Family { return e.family }

func (e *emitter) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *emitter) Program() *program.Program {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.prog == nil {
		return nil
	}
	return e.prog.Clone()
}

// emit runs build once, moving Created to Emitted.
func (e *emitter) emit(build func() (*program.Program, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateCreated {
		return errors.InvalidSessionState(errors.PhaseEmit, "routines for "+e.desc.Identity+" already emitted")
	}

	p, err := build()
	if err != nil {
		return err
	}
	p.Identity = e.desc.Identity
	p.Family = e.family
	if p.Shape == "" {
		p.Shape = witShape(e.desc)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	e.prog = p
	e.state = StateEmitted
	return nil
}

func (e *emitter) Finalize() (wire.Codec, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateCreated:
		return nil, errors.IncompleteGeneration([]string{e.desc.Identity})
	case StateFinalized:
		return nil, errors.InvalidSessionState(errors.PhaseFinalize, "emitter for "+e.desc.Identity+" already finalized")
	}

	codec, err := program.Compile(e.prog, e.desc.Type, e.resolver)
	if err != nil {
		return nil, err
	}
	if err := e.unit.Append(e.prog); err != nil {
		return nil, err
	}
	e.state = StateFinalized
	return codec, nil
}

func witShape(desc *shape.Descriptor) string {
	t, err := shape.WIT(desc)
	if err != nil {
		return ""
	}
	return shape.FormatWIT(t)
}

// fieldEmitter emits records, containers and named scalars.
type fieldEmitter struct {
	*emitter
	traits shape.Traits
}

func (f *fieldEmitter) EmitRoutines() error {
	return f.emit(f.build)
}

func (f *fieldEmitter) build() (*program.Program, error) {
	t := f.desc.Type
	var single program.Instr

	switch f.traits.Kind {
	case shape.KindRecord:
		return f.record(t)

	case shape.KindSequence:
		single = program.Instr{Op: program.OpSequence, Type: shape.Identity(f.traits.Elem), Arg: -1}
	case shape.KindArray:
		single = program.Instr{Op: program.OpSequence, Type: shape.Identity(f.traits.Elem), Arg: int64(f.traits.Length)}
	case shape.KindMapping:
		single = program.Instr{Op: program.OpMapping, Key: shape.Identity(f.traits.Key), Type: shape.Identity(f.traits.Elem)}
	case shape.KindSet:
		single = program.Instr{Op: program.OpSet, Key: shape.Identity(f.traits.Key)}
	case shape.KindNullable:
		single = program.Instr{Op: program.OpNullable, Type: shape.Identity(f.traits.Elem)}
	case shape.KindScalar, shape.KindBytes:
		single = program.Instr{Op: program.OpScalar, Arg: int64(t.Kind())}

	default:
		return nil, errors.UnsupportedFamily(f.desc.Identity, f.family.String(), "no field-based layout for "+f.traits.Kind.String())
	}

	return &program.Program{
		Encode: []program.Instr{single},
		Decode: []program.Instr{single},
	}, nil
}

func (f *fieldEmitter) record(t reflect.Type) (*program.Program, error) {
	members, err := shape.Members(t)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		switch shape.AnalyzeType(m.Type).Kind {
		case shape.KindUnsupported:
			return nil, errors.UnsupportedFamily(f.desc.Identity, f.family.String(),
				"member "+m.Field+" has unserializable type "+m.Type.String())
		}
	}

	n := int64(len(members))
	p := &program.Program{Layout: f.policy.Method}

	fieldInstr := func(m shape.Member) program.Instr {
		return program.Instr{Op: program.OpField, Name: m.Name, Index: m.Index, Type: shape.Identity(m.Type)}
	}
	keyInstr := func(m shape.Member) program.Instr {
		return program.Instr{Op: program.OpKey, Name: m.Name}
	}

	if f.policy.Method == program.LayoutMap {
		p.Encode = append(p.Encode, program.Instr{Op: program.OpMapHeader, Arg: n})
		p.Decode = append(p.Decode,
			program.Instr{Op: program.OpMapHeader, Arg: n},
			program.Instr{Op: program.OpDispatch, Arg: n})
		for _, m := range members {
			p.Encode = append(p.Encode, keyInstr(m), fieldInstr(m))
			p.Decode = append(p.Decode, keyInstr(m), fieldInstr(m))
		}
	} else {
		p.Encode = append(p.Encode, program.Instr{Op: program.OpArrayHeader, Arg: n})
		p.Decode = append(p.Decode, program.Instr{Op: program.OpArrayHeader, Arg: n})
		for _, m := range members {
			p.Encode = append(p.Encode, fieldInstr(m))
			p.Decode = append(p.Decode, fieldInstr(m))
		}
	}
	p.Decode = append(p.Decode, program.Instr{Op: program.OpSkipRest})
	return p, nil
}

// enumEmitter emits enumerations.
type enumEmitter struct {
	*emitter
}

func (en *enumEmitter) EmitRoutines() error {
	return en.emit(func() (*program.Program, error) {
		return &program.Program{
			Layout:  en.policy.EnumMethod,
			Symbols: append([]shape.Symbol(nil), en.desc.Symbols...),
			Encode:  []program.Instr{{Op: program.OpEnum}},
			Decode:  []program.Instr{{Op: program.OpEnum}},
		}, nil
	})
}
