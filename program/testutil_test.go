package program

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/wippyai/codecgen/registry"
	"github.com/wippyai/codecgen/wire"
)

type point struct {
	X int
	Y int `msgpack:"y"`
}

const pointID = "github.com/wippyai/codecgen/program.point"

func arrayPointProgram() *Program {
	return &Program{
		Identity: pointID,
		Family:   FamilyFieldBased,
		Layout:   LayoutArray,
		Encode: []Instr{
			{Op: OpArrayHeader, Arg: 2},
			{Op: OpField, Name: "X", Index: []int{0}, Type: "int"},
			{Op: OpField, Name: "y", Index: []int{1}, Type: "int"},
		},
		Decode: []Instr{
			{Op: OpArrayHeader, Arg: 2},
			{Op: OpField, Name: "X", Index: []int{0}, Type: "int"},
			{Op: OpField, Name: "y", Index: []int{1}, Type: "int"},
			{Op: OpSkipRest},
		},
	}
}

func mapPointProgram() *Program {
	return &Program{
		Identity: pointID,
		Family:   FamilyFieldBased,
		Layout:   LayoutMap,
		Encode: []Instr{
			{Op: OpMapHeader, Arg: 2},
			{Op: OpKey, Name: "X"},
			{Op: OpField, Name: "X", Index: []int{0}, Type: "int"},
			{Op: OpKey, Name: "y"},
			{Op: OpField, Name: "y", Index: []int{1}, Type: "int"},
		},
		Decode: []Instr{
			{Op: OpMapHeader, Arg: 2},
			{Op: OpDispatch, Arg: 2},
			{Op: OpKey, Name: "X"},
			{Op: OpField, Name: "X", Index: []int{0}, Type: "int"},
			{Op: OpKey, Name: "y"},
			{Op: OpField, Name: "y", Index: []int{1}, Type: "int"},
			{Op: OpSkipRest},
		},
	}
}

// builtins resolves only registry codecs.
func builtins() wire.Resolver {
	reg := registry.New()
	return wire.ResolverFunc(func(t reflect.Type) (wire.Codec, error) {
		c, ok := reg.Lookup(t)
		if !ok {
			return nil, nil
		}
		return c, nil
	})
}

func compile(t *testing.T, p *Program, typ reflect.Type, r wire.Resolver) wire.Codec {
	t.Helper()
	c, err := Compile(p, typ, r)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return c
}

// encodeRaw writes a wire value with the given steps.
func encodeRaw(t *testing.T, fn func(e *wire.Encoder) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := fn(wire.NewEncoder(&buf)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
