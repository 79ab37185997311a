package wire

import (
	"bytes"
	"reflect"
	"testing"
)

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	data, err := Marshal(String, reflect.ValueOf("hello"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out string
	if err := Unmarshal(String, data, reflect.ValueOf(&out).Elem()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != "hello" {
		t.Errorf("roundtrip = %q, want %q", out, "hello")
	}
}

func TestMarshalDoesNotAliasPool(t *testing.T) {
	first, err := Marshal(String, reflect.ValueOf("first"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	saved := bytes.Clone(first)

	if _, err := Marshal(String, reflect.ValueOf("second!")); err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, saved) {
		t.Errorf("first result changed after pooled buffer reuse: %x != %x", first, saved)
	}
}

func TestCompactInts(t *testing.T) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).EncodeInt(7); err != nil {
		t.Fatalf("EncodeInt: %v", err)
	}
	if buf.Len() != 1 {
		t.Errorf("small int encoded in %d bytes, want 1 (positive fixint)", buf.Len())
	}
}

func TestPeekNil(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := enc.EncodeNil(); err != nil {
		t.Fatal(err)
	}
	if err := enc.EncodeString("x"); err != nil {
		t.Fatal(err)
	}

	dec := NewDecoder(&buf)
	isNil, err := PeekNil(dec)
	if err != nil || !isNil {
		t.Fatalf("PeekNil = %v, %v; want true", isNil, err)
	}
	if err := dec.DecodeNil(); err != nil {
		t.Fatal(err)
	}

	isString, err := PeekString(dec)
	if err != nil || !isString {
		t.Fatalf("PeekString = %v, %v; want true", isString, err)
	}
}

func TestResolverFunc(t *testing.T) {
	r := ResolverFunc(func(reflect.Type) (Codec, error) { return String, nil })
	c, err := r.CodecFor(reflect.TypeOf(""))
	if err != nil || c == nil {
		t.Fatalf("CodecFor = %v, %v", c, err)
	}
}
