package wire

import (
	"cmp"
	"reflect"
	"slices"
	"strconv"
)

// Sequence returns the codec for slice or array type t encoding each element
// with elem. Arrays decode leniently: missing elements stay zero and
// surplus elements are skipped.
func Sequence(t reflect.Type, elem Codec) Codec {
	return &sequenceCodec{typ: t, elem: elem, array: t.Kind() == reflect.Array}
}

type sequenceCodec struct {
	typ   reflect.Type
	elem  Codec
	array bool
}

func (c *sequenceCodec) Encode(e *Encoder, v reflect.Value) error {
	if !c.array && v.IsNil() {
		return e.EncodeNil()
	}
	n := v.Len()
	if err := e.EncodeArrayLen(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := c.elem.Encode(e, v.Index(i)); err != nil {
			return WithPath(err, indexSeg(i))
		}
	}
	return nil
}

func (c *sequenceCodec) Decode(d *Decoder, v reflect.Value) error {
	n, err := d.DecodeArrayLen()
	if err != nil {
		return decodeErr(c.typ, err)
	}
	if n < 0 {
		v.SetZero()
		return nil
	}

	if c.array {
		v.SetZero()
		for i := 0; i < n; i++ {
			if i >= v.Len() {
				if err := d.Skip(); err != nil {
					return decodeErr(c.typ, err)
				}
				continue
			}
			if err := c.elem.Decode(d, v.Index(i)); err != nil {
				return WithPath(err, indexSeg(i))
			}
		}
		return nil
	}

	s := reflect.MakeSlice(c.typ, n, n)
	for i := 0; i < n; i++ {
		if err := c.elem.Decode(d, s.Index(i)); err != nil {
			return WithPath(err, indexSeg(i))
		}
	}
	v.Set(s)
	return nil
}

// Mapping returns the codec for map type t. Entries are written in sorted
// key order when the key kind is ordered.
func Mapping(t reflect.Type, key, elem Codec) Codec {
	return &mappingCodec{typ: t, key: key, elem: elem}
}

type mappingCodec struct {
	typ  reflect.Type
	key  Codec
	elem Codec
}

func (c *mappingCodec) Encode(e *Encoder, v reflect.Value) error {
	if v.IsNil() {
		return e.EncodeNil()
	}
	if err := e.EncodeMapLen(v.Len()); err != nil {
		return err
	}
	for _, k := range SortedKeys(v) {
		if err := c.key.Encode(e, k); err != nil {
			return WithPath(err, "[key]")
		}
		if err := c.elem.Encode(e, v.MapIndex(k)); err != nil {
			return WithPath(err, keySeg(k))
		}
	}
	return nil
}

func (c *mappingCodec) Decode(d *Decoder, v reflect.Value) error {
	n, err := d.DecodeMapLen()
	if err != nil {
		return decodeErr(c.typ, err)
	}
	if n < 0 {
		v.SetZero()
		return nil
	}

	m := reflect.MakeMapWithSize(c.typ, n)
	for i := 0; i < n; i++ {
		k := reflect.New(c.typ.Key()).Elem()
		if err := c.key.Decode(d, k); err != nil {
			return WithPath(err, "[key]")
		}
		val := reflect.New(c.typ.Elem()).Elem()
		if err := c.elem.Decode(d, val); err != nil {
			return WithPath(err, keySeg(k))
		}
		m.SetMapIndex(k, val)
	}
	v.Set(m)
	return nil
}

// Set returns the codec for map[K]struct{} type t, written as an array of
// keys.
func Set(t reflect.Type, key Codec) Codec {
	return &setCodec{typ: t, key: key}
}

type setCodec struct {
	typ reflect.Type
	key Codec
}

func (c *setCodec) Encode(e *Encoder, v reflect.Value) error {
	if v.IsNil() {
		return e.EncodeNil()
	}
	if err := e.EncodeArrayLen(v.Len()); err != nil {
		return err
	}
	for i, k := range SortedKeys(v) {
		if err := c.key.Encode(e, k); err != nil {
			return WithPath(err, indexSeg(i))
		}
	}
	return nil
}

func (c *setCodec) Decode(d *Decoder, v reflect.Value) error {
	n, err := d.DecodeArrayLen()
	if err != nil {
		return decodeErr(c.typ, err)
	}
	if n < 0 {
		v.SetZero()
		return nil
	}

	m := reflect.MakeMapWithSize(c.typ, n)
	present := reflect.Zero(c.typ.Elem())
	for i := 0; i < n; i++ {
		k := reflect.New(c.typ.Key()).Elem()
		if err := c.key.Decode(d, k); err != nil {
			return WithPath(err, indexSeg(i))
		}
		m.SetMapIndex(k, present)
	}
	v.Set(m)
	return nil
}

// Nullable returns the codec for pointer type t. A nil pointer is written as
// nil; a wire nil decodes to a nil pointer.
func Nullable(t reflect.Type, elem Codec) Codec {
	return &nullableCodec{typ: t, elem: elem}
}

type nullableCodec struct {
	typ  reflect.Type
	elem Codec
}

func (c *nullableCodec) Encode(e *Encoder, v reflect.Value) error {
	if v.IsNil() {
		return e.EncodeNil()
	}
	return c.elem.Encode(e, v.Elem())
}

func (c *nullableCodec) Decode(d *Decoder, v reflect.Value) error {
	if done, err := decodeNil(d, v); done || err != nil {
		return err
	}
	if v.IsNil() {
		v.Set(reflect.New(c.typ.Elem()))
	}
	return c.elem.Decode(d, v.Elem())
}

// SortedKeys returns the keys of map v, ordered when the key kind supports
// it so encoding is deterministic.
func SortedKeys(v reflect.Value) []reflect.Value {
	keys := v.MapKeys()
	switch v.Type().Key().Kind() {
	case reflect.String:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.String(), b.String()) })
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Int(), b.Int()) })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Uint(), b.Uint()) })
	case reflect.Float32, reflect.Float64:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Float(), b.Float()) })
	case reflect.Bool:
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return cmp.Compare(boolRank(a.Bool()), boolRank(b.Bool()))
		})
	}
	return keys
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func indexSeg(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

func keySeg(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return "[" + k.Type().String() + "]"
}
