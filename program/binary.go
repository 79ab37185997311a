package program

import (
	"github.com/wippyai/codecgen/errors"
	"github.com/wippyai/codecgen/internal/binary"
	"github.com/wippyai/codecgen/shape"
)

// FormatVersion is the version byte leading every encoded program.
const FormatVersion = 1

// MarshalBinary encodes the program.
func (p *Program) MarshalBinary() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	w := binary.NewWriter()
	w.Byte(FormatVersion)
	w.WriteName(p.Identity)
	w.Byte(byte(p.Family))
	w.Byte(byte(p.Layout))
	w.WriteName(p.Shape)

	w.WriteU32(uint32(len(p.Symbols)))
	for _, s := range p.Symbols {
		w.WriteName(s.Name)
		w.WriteS64(s.Value)
	}

	writeInstrs(w, p.Encode)
	writeInstrs(w, p.Decode)
	return w.Bytes(), nil
}

func writeInstrs(w *binary.Writer, instrs []Instr) {
	w.WriteU32(uint32(len(instrs)))
	for _, in := range instrs {
		w.Byte(byte(in.Op))
		w.WriteS64(in.Arg)
		w.WriteName(in.Name)
		w.WriteName(in.Key)
		w.WriteName(in.Type)
		w.WriteU32(uint32(len(in.Index)))
		for _, idx := range in.Index {
			w.WriteU32(uint32(idx))
		}
	}
}

// UnmarshalBinary decodes a program encoded by MarshalBinary.
func (p *Program) UnmarshalBinary(data []byte) error {
	r := binary.NewReader(data)
	out, err := readProgram(r)
	if err != nil {
		return errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Detail("malformed program at offset %d", r.Position()).
			Cause(err).
			Build()
	}
	if r.Remaining() != 0 {
		return errors.InvalidData(errors.PhaseLoad, nil, "trailing bytes after program")
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*p = *out
	return nil
}

func readProgram(r *binary.Reader) (*Program, error) {
	version, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, errors.Unsupported(errors.PhaseLoad, "program format version")
	}

	p := &Program{}
	if p.Identity, err = r.ReadName(); err != nil {
		return nil, err
	}
	family, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	layout, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	p.Family, p.Layout = Family(family), Layout(layout)
	if p.Shape, err = r.ReadName(); err != nil {
		return nil, err
	}

	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if int(n) > r.Remaining() {
		return nil, errors.InvalidData(errors.PhaseLoad, nil, "symbol count exceeds input")
	}
	if n > 0 {
		p.Symbols = make([]shape.Symbol, n)
	}
	for i := range p.Symbols {
		if p.Symbols[i].Name, err = r.ReadName(); err != nil {
			return nil, err
		}
		if p.Symbols[i].Value, err = r.ReadS64(); err != nil {
			return nil, err
		}
	}

	if p.Encode, err = readInstrs(r); err != nil {
		return nil, err
	}
	if p.Decode, err = readInstrs(r); err != nil {
		return nil, err
	}
	return p, nil
}

func readInstrs(r *binary.Reader) ([]Instr, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	// each instruction takes at least six bytes
	if int(n) > r.Remaining()/6+1 {
		return nil, errors.InvalidData(errors.PhaseLoad, nil, "instruction count exceeds input")
	}

	instrs := make([]Instr, n)
	for i := range instrs {
		in := &instrs[i]
		op, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		in.Op = Op(op)
		if in.Arg, err = r.ReadS64(); err != nil {
			return nil, err
		}
		if in.Name, err = r.ReadName(); err != nil {
			return nil, err
		}
		if in.Key, err = r.ReadName(); err != nil {
			return nil, err
		}
		if in.Type, err = r.ReadName(); err != nil {
			return nil, err
		}
		depth, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		if int(depth) > r.Remaining() {
			return nil, errors.InvalidData(errors.PhaseLoad, nil, "field index depth exceeds input")
		}
		if depth > 0 {
			in.Index = make([]int, depth)
		}
		for j := range in.Index {
			idx, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			in.Index[j] = int(idx)
		}
	}
	return instrs, nil
}
