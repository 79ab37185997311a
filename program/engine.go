package program

import (
	stderrors "errors"
	"math"
	"reflect"
	"slices"

	"github.com/wippyai/codecgen/errors"
	"github.com/wippyai/codecgen/shape"
	"github.com/wippyai/codecgen/wire"
)

// Compile binds p to Go type t and returns a codec that executes it.
// Nested codecs for members and elements are resolved through r on first
// use, so recursive types compile.
func Compile(p *Program, t reflect.Type, r wire.Resolver) (wire.Codec, error) {
	if t == nil {
		return nil, errors.InvalidArgument(errors.PhaseCompile, "compile requires a type")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if id := shape.Identity(t); id != p.Identity {
		return nil, errors.TypeMismatch(errors.PhaseCompile, nil, id, p.Identity)
	}

	c := &compiler{prog: p, typ: t, resolver: r}
	if p.Family == FamilyEnumeration {
		return c.enum()
	}

	switch p.Encode[0].Op {
	case OpArrayHeader, OpMapHeader:
		return c.record()
	default:
		return c.single()
	}
}

type compiler struct {
	resolver wire.Resolver
	typ      reflect.Type
	prog     *Program
}

func (c *compiler) mismatch(path []string, want string) error {
	return errors.TypeMismatch(errors.PhaseCompile, path, c.typ.String(), want)
}

func (c *compiler) invalid(format string, args ...any) error {
	return c.prog.invalid(format, args...)
}

// single compiles a one-instruction container or scalar program.
func (c *compiler) single() (wire.Codec, error) {
	if len(c.prog.Encode) != 1 || len(c.prog.Decode) != 1 {
		return nil, c.invalid("container program must have one instruction per routine")
	}
	enc, dec := c.prog.Encode[0], c.prog.Decode[0]
	if enc.Op != dec.Op || enc.Arg != dec.Arg || enc.Key != dec.Key || enc.Type != dec.Type {
		return nil, c.invalid("encode %s and decode %s disagree", enc, dec)
	}

	t := c.typ
	switch enc.Op {
	case OpSequence:
		if enc.Arg < 0 {
			if t.Kind() != reflect.Slice {
				return nil, c.mismatch(nil, "sequence")
			}
		} else if t.Kind() != reflect.Array || int64(t.Len()) != enc.Arg {
			return nil, c.mismatch(nil, "array")
		}
		if err := c.checkIdentity(t.Elem(), enc.Type, "[elem]"); err != nil {
			return nil, err
		}
		return wire.Sequence(t, wire.Lazy(c.resolver, t.Elem())), nil

	case OpMapping:
		if t.Kind() != reflect.Map {
			return nil, c.mismatch(nil, "mapping")
		}
		if err := c.checkIdentity(t.Key(), enc.Key, "[key]"); err != nil {
			return nil, err
		}
		if err := c.checkIdentity(t.Elem(), enc.Type, "[value]"); err != nil {
			return nil, err
		}
		return wire.Mapping(t, wire.Lazy(c.resolver, t.Key()), wire.Lazy(c.resolver, t.Elem())), nil

	case OpSet:
		if shape.AnalyzeType(t).Kind != shape.KindSet {
			return nil, c.mismatch(nil, "set")
		}
		if err := c.checkIdentity(t.Key(), enc.Key, "[key]"); err != nil {
			return nil, err
		}
		return wire.Set(t, wire.Lazy(c.resolver, t.Key())), nil

	case OpNullable:
		if t.Kind() != reflect.Pointer {
			return nil, c.mismatch(nil, "nullable")
		}
		if err := c.checkIdentity(t.Elem(), enc.Type, "[elem]"); err != nil {
			return nil, err
		}
		return wire.Nullable(t, wire.Lazy(c.resolver, t.Elem())), nil

	case OpScalar:
		kind := reflect.Kind(enc.Arg)
		if t.Kind() != kind || (kind == reflect.Slice && t.Elem().Kind() != reflect.Uint8) {
			return nil, c.mismatch(nil, kind.String())
		}
		codec, ok := wire.ScalarCodec(kind)
		if !ok {
			return nil, c.invalid("no scalar codec for %s", kind)
		}
		return codec, nil

	default:
		return nil, c.invalid("unexpected leading instruction %s", enc.Op)
	}
}

func (c *compiler) checkIdentity(t reflect.Type, want, seg string) error {
	if got := shape.Identity(t); got != want {
		return errors.TypeMismatch(errors.PhaseCompile, []string{seg}, got, want)
	}
	return nil
}

// field is a record member bound to its Go field.
type field struct {
	codec wire.Codec
	name  string
	index []int
}

// step is an executable instruction.
type step struct {
	field    *field
	dispatch map[string]*field
	name     string
	arg      int64
	op       Op
}

func (c *compiler) record() (wire.Codec, error) {
	if c.typ.Kind() != reflect.Struct {
		return nil, c.mismatch(nil, "record")
	}

	fields := make(map[string]*field)
	bind := func(in Instr) (*field, error) {
		if f, ok := fields[in.Name]; ok {
			if !slices.Equal(f.index, in.Index) {
				return nil, c.invalid("field %q bound to both %v and %v", in.Name, f.index, in.Index)
			}
			return f, nil
		}
		sf, ok := fieldByIndex(c.typ, in.Index)
		if !ok {
			return nil, c.invalid("field %q index %v out of range", in.Name, in.Index)
		}
		if got := shape.Identity(sf.Type); got != in.Type {
			return nil, errors.TypeMismatch(errors.PhaseCompile, []string{in.Name}, got, in.Type)
		}
		f := &field{name: in.Name, index: sf.Index, codec: wire.Lazy(c.resolver, sf.Type)}
		fields[in.Name] = f
		return f, nil
	}

	enc, err := c.steps(c.prog.Encode, bind)
	if err != nil {
		return nil, err
	}
	dec, err := c.steps(c.prog.Decode, bind)
	if err != nil {
		return nil, err
	}
	if enc[0].op != dec[0].op {
		return nil, c.invalid("encode and decode layouts disagree")
	}
	return &recordCodec{typ: c.typ, enc: enc, dec: dec}, nil
}

func (c *compiler) steps(instrs []Instr, bind func(Instr) (*field, error)) ([]step, error) {
	out := make([]step, 0, len(instrs))
	for i := 0; i < len(instrs); i++ {
		in := instrs[i]
		s := step{op: in.Op, arg: in.Arg, name: in.Name}

		switch in.Op {
		case OpArrayHeader, OpMapHeader:
			if i != 0 {
				return nil, c.invalid("%s must lead the routine", in.Op)
			}
		case OpKey, OpSkipRest:
		case OpField:
			f, err := bind(in)
			if err != nil {
				return nil, err
			}
			s.field = f
		case OpDispatch:
			pairs := int(in.Arg)
			if pairs < 0 || i+2*pairs >= len(instrs) {
				return nil, c.invalid("dispatch over %d pairs runs past the routine", pairs)
			}
			s.dispatch = make(map[string]*field, pairs)
			for j := 0; j < pairs; j++ {
				key, member := instrs[i+1+2*j], instrs[i+2+2*j]
				if key.Op != OpKey || member.Op != OpField {
					return nil, c.invalid("dispatch pair %d is %s, %s", j, key.Op, member.Op)
				}
				f, err := bind(member)
				if err != nil {
					return nil, err
				}
				s.dispatch[key.Name] = f
			}
			i += 2 * pairs
		default:
			return nil, c.invalid("%s is not valid in a record routine", in.Op)
		}
		out = append(out, s)
	}
	return out, nil
}

func fieldByIndex(t reflect.Type, index []int) (reflect.StructField, bool) {
	var sf reflect.StructField
	for i, idx := range index {
		if t.Kind() != reflect.Struct || idx < 0 || idx >= t.NumField() {
			return reflect.StructField{}, false
		}
		sf = t.Field(idx)
		if i < len(index)-1 {
			t = sf.Type
		}
	}
	if !sf.IsExported() {
		return reflect.StructField{}, false
	}
	sf.Index = append([]int(nil), index...)
	return sf, true
}

// recordCodec interprets record routines.
type recordCodec struct {
	typ reflect.Type
	enc []step
	dec []step
}

func (c *recordCodec) Encode(e *wire.Encoder, v reflect.Value) error {
	for _, s := range c.enc {
		var err error
		switch s.op {
		case OpArrayHeader:
			err = e.EncodeArrayLen(int(s.arg))
		case OpMapHeader:
			err = e.EncodeMapLen(int(s.arg))
		case OpKey:
			err = e.EncodeString(s.name)
		case OpField:
			err = wire.WithPath(s.field.codec.Encode(e, v.FieldByIndex(s.field.index)), s.field.name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *recordCodec) Decode(d *wire.Decoder, v reflect.Value) error {
	var n, consumed int
	for _, s := range c.dec {
		var err error
		switch s.op {
		case OpArrayHeader:
			n, err = d.DecodeArrayLen()
		case OpMapHeader:
			n, err = d.DecodeMapLen()
		case OpField:
			if consumed < n {
				err = wire.WithPath(s.field.codec.Decode(d, v.FieldByIndex(s.field.index)), s.field.name)
				consumed++
			}
		case OpDispatch:
			err = c.dispatch(d, v, s.dispatch, n-consumed)
			consumed = n
		case OpSkipRest:
			for ; consumed < n && err == nil; consumed++ {
				err = d.Skip()
			}
		}
		if err != nil {
			return c.decodeErr(err)
		}
		if (s.op == OpArrayHeader || s.op == OpMapHeader) && !c.begin(v, n) {
			return nil
		}
	}
	return nil
}

// begin resets v before members are filled. It reports false for a wire nil.
func (c *recordCodec) begin(v reflect.Value, n int) bool {
	v.SetZero()
	return n >= 0
}

func (c *recordCodec) dispatch(d *wire.Decoder, v reflect.Value, table map[string]*field, n int) error {
	for i := 0; i < n; i++ {
		isString, err := wire.PeekString(d)
		if err != nil {
			return err
		}
		if !isString {
			if err := d.Skip(); err != nil {
				return err
			}
			if err := d.Skip(); err != nil {
				return err
			}
			continue
		}

		key, err := d.DecodeString()
		if err != nil {
			return err
		}
		f, ok := table[key]
		if !ok {
			if err := d.Skip(); err != nil {
				return err
			}
			continue
		}
		if err := f.codec.Decode(d, v.FieldByIndex(f.index)); err != nil {
			return wire.WithPath(err, f.name)
		}
	}
	return nil
}

func (c *recordCodec) decodeErr(err error) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return err
	}
	return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
		GoType(c.typ.String()).
		WireType("record").
		Cause(err).
		Build()
}

func (c *compiler) enum() (wire.Codec, error) {
	t := c.typ
	signed := false
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		signed = true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return nil, c.mismatch(nil, "enumeration")
	}
	if len(c.prog.Encode) != 1 || c.prog.Encode[0].Op != OpEnum ||
		len(c.prog.Decode) != 1 || c.prog.Decode[0].Op != OpEnum {
		return nil, c.invalid("enumeration routines must be a single %s", OpEnum)
	}
	if c.prog.Layout != LayoutName && c.prog.Layout != LayoutValue {
		return nil, c.invalid("enumeration layout %s", c.prog.Layout)
	}

	ec := &enumCodec{
		typ:     t,
		signed:  signed,
		byName:  c.prog.Layout == LayoutName,
		names:   make(map[int64]string, len(c.prog.Symbols)),
		values:  make(map[string]int64, len(c.prog.Symbols)),
		display: c.prog.Identity,
	}
	for _, s := range c.prog.Symbols {
		if signed && reflect.Zero(t).OverflowInt(s.Value) ||
			!signed && (s.Value < 0 || reflect.Zero(t).OverflowUint(uint64(s.Value))) {
			return nil, errors.Overflow(errors.PhaseCompile, []string{s.Name}, s.Value, t.String())
		}
		ec.names[s.Value] = s.Name
		ec.values[s.Name] = s.Value
	}
	return ec, nil
}

// enumCodec writes enumerations by symbol name or underlying value. Decoding
// accepts either form but rejects values outside the symbol table.
type enumCodec struct {
	typ     reflect.Type
	names   map[int64]string
	values  map[string]int64
	display string
	signed  bool
	byName  bool
}

func (c *enumCodec) value(v reflect.Value) (int64, bool) {
	if c.signed {
		return v.Int(), true
	}
	u := v.Uint()
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

func (c *enumCodec) set(v reflect.Value, n int64) {
	if c.signed {
		v.SetInt(n)
		return
	}
	v.SetUint(uint64(n))
}

func (c *enumCodec) Encode(e *wire.Encoder, v reflect.Value) error {
	n, ok := c.value(v)
	name, known := c.names[n]
	if !ok || !known {
		return errors.InvalidEnum(errors.PhaseEncode, nil, v.Interface(), c.display)
	}
	if c.byName {
		return e.EncodeString(name)
	}
	return e.EncodeInt(n)
}

func (c *enumCodec) Decode(d *wire.Decoder, v reflect.Value) error {
	isNil, err := wire.PeekNil(d)
	if err != nil {
		return c.decodeErr(err)
	}
	if isNil {
		if err := d.DecodeNil(); err != nil {
			return c.decodeErr(err)
		}
		v.SetZero()
		return nil
	}

	isString, err := wire.PeekString(d)
	if err != nil {
		return c.decodeErr(err)
	}
	if isString {
		name, err := d.DecodeString()
		if err != nil {
			return c.decodeErr(err)
		}
		n, ok := c.values[name]
		if !ok {
			return errors.InvalidEnum(errors.PhaseDecode, nil, name, c.display)
		}
		c.set(v, n)
		return nil
	}

	n, err := d.DecodeInt64()
	if err != nil {
		return c.decodeErr(err)
	}
	if _, ok := c.names[n]; !ok {
		return errors.InvalidEnum(errors.PhaseDecode, nil, n, c.display)
	}
	c.set(v, n)
	return nil
}

func (c *enumCodec) decodeErr(err error) error {
	return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
		GoType(c.typ.String()).
		WireType("enumeration").
		Cause(err).
		Build()
}
