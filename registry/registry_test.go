package registry

import (
	stderrors "errors"
	"reflect"
	"testing"
	"time"

	"github.com/wippyai/codecgen/errors"
	"github.com/wippyai/codecgen/wire"
)

type celsius float64

type point struct{ X, Y int }

func TestContains(t *testing.T) {
	r := New()

	tests := []struct {
		typ  reflect.Type
		want bool
	}{
		{reflect.TypeFor[int32](), true},
		{reflect.TypeFor[string](), true},
		{reflect.TypeFor[[]byte](), true},
		{reflect.TypeFor[time.Time](), true},
		{reflect.TypeFor[time.Duration](), true},
		{reflect.TypeFor[any](), true},
		{reflect.TypeFor[wire.RawMessage](), true},
		{reflect.TypeFor[celsius](), false},
		{reflect.TypeFor[[]int](), false},
		{reflect.TypeFor[point](), false},
		{reflect.TypeFor[*int](), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.typ); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestLookup(t *testing.T) {
	r := New()
	c, ok := r.Lookup(reflect.TypeFor[uint16]())
	if !ok || c != wire.Uint {
		t.Errorf("Lookup(uint16) = %v, %v", c, ok)
	}
	if _, ok := r.Lookup(reflect.TypeFor[point]()); ok {
		t.Error("Lookup(point) should miss")
	}
}

func TestRegister(t *testing.T) {
	r := New()
	before := r.Len()

	if err := r.Register(reflect.TypeFor[celsius](), wire.Float64); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !r.Contains(reflect.TypeFor[celsius]()) || r.Len() != before+1 {
		t.Error("registered codec not visible")
	}

	err := r.Register(reflect.TypeFor[celsius](), wire.Float64)
	if !stderrors.Is(err, errors.ErrDuplicateGeneration) {
		t.Errorf("second Register: expected duplicate generation, got %v", err)
	}
	if err := r.Register(reflect.TypeFor[string](), wire.String); !stderrors.Is(err, errors.ErrDuplicateGeneration) {
		t.Errorf("overriding a built-in: expected duplicate generation, got %v", err)
	}
	if err := r.Register(nil, wire.String); !stderrors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("nil type: expected invalid argument, got %v", err)
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	if err := a.Register(reflect.TypeFor[point](), wire.Dynamic); err != nil {
		t.Fatal(err)
	}
	if b.Contains(reflect.TypeFor[point]()) {
		t.Error("registration leaked into another registry")
	}
}
