package program

import (
	"fmt"

	"github.com/wippyai/codecgen/errors"
	"github.com/wippyai/codecgen/shape"
)

// Op is a program instruction code.
type Op uint8

const (
	OpArrayHeader Op = iota + 1 // Arg: member count
	OpMapHeader                 // Arg: member count
	OpKey                       // Name: wire key
	OpField                     // Name: wire name, Index: field index, Type: field type identity
	OpSkipRest                  // skip surplus elements or entries
	OpDispatch                  // Arg: number of (OpKey, OpField) pairs that follow
	OpSequence                  // Type: element identity, Arg: array length or -1 for slices
	OpMapping                   // Key: key identity, Type: value identity
	OpSet                       // Key: key identity
	OpNullable                  // Type: element identity
	OpScalar                    // Arg: reflect.Kind of the underlying type
	OpEnum                      // symbol table from the program
)

var opNames = [...]string{
	OpArrayHeader: "array-header",
	OpMapHeader:   "map-header",
	OpKey:         "key",
	OpField:       "field",
	OpSkipRest:    "skip-rest",
	OpDispatch:    "dispatch",
	OpSequence:    "sequence",
	OpMapping:     "mapping",
	OpSet:         "set",
	OpNullable:    "nullable",
	OpScalar:      "scalar",
	OpEnum:        "enum",
}

func (o Op) String() string {
	if o > 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

func (o Op) valid() bool {
	return o >= OpArrayHeader && o <= OpEnum
}

// Family is the kind of emitter that produced a program.
type Family uint8

const (
	FamilyFieldBased Family = iota + 1
	FamilyEnumeration
)

func (f Family) String() string {
	switch f {
	case FamilyFieldBased:
		return "field-based"
	case FamilyEnumeration:
		return "enumeration"
	default:
		return fmt.Sprintf("family(%d)", uint8(f))
	}
}

// Layout selects how a program lays out its value on the wire.
type Layout uint8

const (
	LayoutNone  Layout = iota
	LayoutArray        // records as positional arrays
	LayoutMap          // records as key/value maps
	LayoutName         // enumerations by symbol name
	LayoutValue        // enumerations by underlying value
)

var layoutNames = [...]string{
	LayoutNone:  "none",
	LayoutArray: "array",
	LayoutMap:   "map",
	LayoutName:  "name",
	LayoutValue: "value",
}

func (l Layout) String() string {
	if int(l) < len(layoutNames) {
		return layoutNames[l]
	}
	return fmt.Sprintf("layout(%d)", uint8(l))
}

// Instr is one program instruction.
type Instr struct {
	Name  string
	Key   string
	Type  string
	Index []int
	Arg   int64
	Op    Op
}

func (in Instr) String() string {
	switch in.Op {
	case OpArrayHeader, OpMapHeader, OpDispatch:
		return fmt.Sprintf("%s %d", in.Op, in.Arg)
	case OpKey:
		return fmt.Sprintf("%s %q", in.Op, in.Name)
	case OpField:
		return fmt.Sprintf("%s %q %v %s", in.Op, in.Name, in.Index, in.Type)
	case OpSequence:
		return fmt.Sprintf("%s %s %d", in.Op, in.Type, in.Arg)
	case OpMapping:
		return fmt.Sprintf("%s %s %s", in.Op, in.Key, in.Type)
	case OpSet:
		return fmt.Sprintf("%s %s", in.Op, in.Key)
	case OpNullable:
		return fmt.Sprintf("%s %s", in.Op, in.Type)
	case OpScalar:
		return fmt.Sprintf("%s %d", in.Op, in.Arg)
	default:
		return in.Op.String()
	}
}

// Program is the emitted encode and decode routines for one type.
type Program struct {
	Identity string
	Shape    string // WIT rendering of the type, informational
	Encode   []Instr
	Decode   []Instr
	Symbols  []shape.Symbol
	Family   Family
	Layout   Layout
}

// Validate checks the program is structurally well formed. It does not bind
// the program to a Go type; Compile does that.
func (p *Program) Validate() error {
	if p == nil {
		return errors.InvalidArgument(errors.PhaseCompile, "program is nil")
	}
	if p.Identity == "" {
		return errors.InvalidData(errors.PhaseCompile, nil, "program has no type identity")
	}
	if p.Family != FamilyFieldBased && p.Family != FamilyEnumeration {
		return p.invalid("unknown family %s", p.Family)
	}
	if len(p.Encode) == 0 || len(p.Decode) == 0 {
		return p.invalid("program has empty routines")
	}
	for _, routine := range [][]Instr{p.Encode, p.Decode} {
		for _, in := range routine {
			if !in.Op.valid() {
				return p.invalid("unknown instruction %s", in.Op)
			}
			if in.Op == OpField && len(in.Index) == 0 {
				return p.invalid("field %q has no index", in.Name)
			}
		}
	}
	if p.Family == FamilyEnumeration && len(p.Symbols) == 0 {
		return p.invalid("enumeration program has no symbols")
	}
	return nil
}

// Clone returns a deep copy of the program.
func (p *Program) Clone() *Program {
	cp := *p
	cp.Encode = cloneInstrs(p.Encode)
	cp.Decode = cloneInstrs(p.Decode)
	cp.Symbols = append([]shape.Symbol(nil), p.Symbols...)
	return &cp
}

func cloneInstrs(in []Instr) []Instr {
	if in == nil {
		return nil
	}
	out := make([]Instr, len(in))
	for i, ins := range in {
		ins.Index = append([]int(nil), ins.Index...)
		out[i] = ins
	}
	return out
}

func (p *Program) invalid(format string, args ...any) error {
	return errors.New(errors.PhaseCompile, errors.KindInvalidData).
		GoType(p.Identity).
		Detail(format, args...).
		Build()
}
