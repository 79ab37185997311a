package wire

import (
	stderrors "errors"
	"io"
	"reflect"
	"time"

	"github.com/wippyai/codecgen/errors"
)

// Codecs for exact well-known types. Kind-based codecs also serve named
// types with the same underlying kind.
var (
	Bool    Codec = boolCodec{}
	Int     Codec = intCodec{}
	Uint    Codec = uintCodec{}
	Float32 Codec = floatCodec{bits: 32}
	Float64 Codec = floatCodec{bits: 64}
	String  Codec = stringCodec{}
	Bytes   Codec = bytesCodec{}
	Time    Codec = timeCodec{}
	Dynamic Codec = dynamicCodec{}
	Raw     Codec = rawCodec{}
)

var timeType = reflect.TypeFor[time.Time]()

// ScalarCodec returns the codec for values of kind k. reflect.Slice yields
// the byte string codec and is only valid for byte slices.
func ScalarCodec(k reflect.Kind) (Codec, bool) {
	switch k {
	case reflect.Bool:
		return Bool, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Uint, true
	case reflect.Float32:
		return Float32, true
	case reflect.Float64:
		return Float64, true
	case reflect.String:
		return String, true
	case reflect.Slice:
		return Bytes, true
	default:
		return nil, false
	}
}

type boolCodec struct{}

func (boolCodec) Encode(e *Encoder, v reflect.Value) error {
	return e.EncodeBool(v.Bool())
}

func (boolCodec) Decode(d *Decoder, v reflect.Value) error {
	if done, err := decodeNil(d, v); done || err != nil {
		return err
	}
	b, err := d.DecodeBool()
	if err != nil {
		return decodeErr(v.Type(), err)
	}
	v.SetBool(b)
	return nil
}

type intCodec struct{}

func (intCodec) Encode(e *Encoder, v reflect.Value) error {
	return e.EncodeInt(v.Int())
}

func (intCodec) Decode(d *Decoder, v reflect.Value) error {
	if done, err := decodeNil(d, v); done || err != nil {
		return err
	}
	n, err := d.DecodeInt64()
	if err != nil {
		return decodeErr(v.Type(), err)
	}
	if v.OverflowInt(n) {
		return errors.Overflow(errors.PhaseDecode, nil, n, v.Type().String())
	}
	v.SetInt(n)
	return nil
}

type uintCodec struct{}

func (uintCodec) Encode(e *Encoder, v reflect.Value) error {
	return e.EncodeUint(v.Uint())
}

func (uintCodec) Decode(d *Decoder, v reflect.Value) error {
	if done, err := decodeNil(d, v); done || err != nil {
		return err
	}
	n, err := d.DecodeUint64()
	if err != nil {
		return decodeErr(v.Type(), err)
	}
	if v.OverflowUint(n) {
		return errors.Overflow(errors.PhaseDecode, nil, n, v.Type().String())
	}
	v.SetUint(n)
	return nil
}

type floatCodec struct {
	bits int
}

func (c floatCodec) Encode(e *Encoder, v reflect.Value) error {
	if c.bits == 32 {
		return e.EncodeFloat32(float32(v.Float()))
	}
	return e.EncodeFloat64(v.Float())
}

func (floatCodec) Decode(d *Decoder, v reflect.Value) error {
	if done, err := decodeNil(d, v); done || err != nil {
		return err
	}
	f, err := d.DecodeFloat64()
	if err != nil {
		return decodeErr(v.Type(), err)
	}
	if v.OverflowFloat(f) {
		return errors.Overflow(errors.PhaseDecode, nil, f, v.Type().String())
	}
	v.SetFloat(f)
	return nil
}

type stringCodec struct{}

func (stringCodec) Encode(e *Encoder, v reflect.Value) error {
	return e.EncodeString(v.String())
}

func (stringCodec) Decode(d *Decoder, v reflect.Value) error {
	if done, err := decodeNil(d, v); done || err != nil {
		return err
	}
	s, err := d.DecodeString()
	if err != nil {
		return decodeErr(v.Type(), err)
	}
	v.SetString(s)
	return nil
}

type bytesCodec struct{}

func (bytesCodec) Encode(e *Encoder, v reflect.Value) error {
	return e.EncodeBytes(v.Bytes())
}

func (bytesCodec) Decode(d *Decoder, v reflect.Value) error {
	b, err := d.DecodeBytes()
	if err != nil {
		return decodeErr(v.Type(), err)
	}
	v.SetBytes(b)
	return nil
}

type timeCodec struct{}

func (timeCodec) Encode(e *Encoder, v reflect.Value) error {
	return e.EncodeTime(v.Interface().(time.Time))
}

func (timeCodec) Decode(d *Decoder, v reflect.Value) error {
	if done, err := decodeNil(d, v); done || err != nil {
		return err
	}
	t, err := d.DecodeTime()
	if err != nil {
		return decodeErr(timeType, err)
	}
	v.Set(reflect.ValueOf(t))
	return nil
}

type dynamicCodec struct{}

func (dynamicCodec) Encode(e *Encoder, v reflect.Value) error {
	if v.IsNil() {
		return e.EncodeNil()
	}
	return e.Encode(v.Interface())
}

func (dynamicCodec) Decode(d *Decoder, v reflect.Value) error {
	x, err := d.DecodeInterface()
	if err != nil {
		return decodeErr(v.Type(), err)
	}
	if x == nil {
		v.SetZero()
		return nil
	}
	xv := reflect.ValueOf(x)
	if !xv.Type().AssignableTo(v.Type()) {
		return errors.TypeMismatch(errors.PhaseDecode, nil, v.Type().String(), xv.Type().String())
	}
	v.Set(xv)
	return nil
}

type rawCodec struct{}

func (rawCodec) Encode(e *Encoder, v reflect.Value) error {
	if v.Len() == 0 {
		return e.EncodeNil()
	}
	return e.Encode(RawMessage(v.Bytes()))
}

func (rawCodec) Decode(d *Decoder, v reflect.Value) error {
	raw, err := d.DecodeRaw()
	if err != nil {
		return decodeErr(v.Type(), err)
	}
	v.SetBytes(raw)
	return nil
}

// decodeNil consumes a nil and zeroes v. It reports whether it did.
func decodeNil(d *Decoder, v reflect.Value) (bool, error) {
	isNil, err := PeekNil(d)
	if err != nil {
		return false, decodeErr(v.Type(), err)
	}
	if !isNil {
		return false, nil
	}
	if err := d.DecodeNil(); err != nil {
		return false, decodeErr(v.Type(), err)
	}
	v.SetZero()
	return true, nil
}

// decodeErr converts a MessagePack decoding failure into a structured
// error. Structured errors from nested codecs pass through unchanged.
func decodeErr(t reflect.Type, err error) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return err
	}
	if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			GoType(t.String()).
			Detail("truncated input").
			Cause(err).
			Build()
	}
	return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
		GoType(t.String()).
		Cause(err).
		Build()
}

// WithPath prefixes the path of a structured error with seg. Other errors
// are returned unchanged.
func WithPath(err error, seg string) error {
	var e *errors.Error
	if err == nil || !stderrors.As(err, &e) {
		return err
	}
	cp := *e
	cp.Path = append([]string{seg}, e.Path...)
	return &cp
}
