package wire

import (
	"bytes"
	stderrors "errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/wippyai/codecgen/errors"
)

type celsius float64

func roundtrip[T any](t *testing.T, c Codec, in T) T {
	t.Helper()
	data, err := Marshal(c, reflect.ValueOf(in))
	if err != nil {
		t.Fatalf("Marshal(%v): %v", in, err)
	}
	var out T
	if err := Unmarshal(c, data, reflect.ValueOf(&out).Elem()); err != nil {
		t.Fatalf("Unmarshal(%v): %v", in, err)
	}
	return out
}

func TestScalarRoundtrip(t *testing.T) {
	if got := roundtrip(t, Bool, true); !got {
		t.Error("bool roundtrip")
	}
	if got := roundtrip(t, Int, int64(math.MinInt64)); got != math.MinInt64 {
		t.Errorf("int64 roundtrip = %d", got)
	}
	if got := roundtrip(t, Int, int8(-5)); got != -5 {
		t.Errorf("int8 roundtrip = %d", got)
	}
	if got := roundtrip(t, Uint, uint64(math.MaxUint64)); got != math.MaxUint64 {
		t.Errorf("uint64 roundtrip = %d", got)
	}
	if got := roundtrip(t, Float32, float32(1.5)); got != 1.5 {
		t.Errorf("float32 roundtrip = %v", got)
	}
	if got := roundtrip(t, Float64, celsius(-40.25)); got != -40.25 {
		t.Errorf("named float roundtrip = %v", got)
	}
	if got := roundtrip(t, String, "héllo"); got != "héllo" {
		t.Errorf("string roundtrip = %q", got)
	}
	if got := roundtrip(t, Bytes, []byte{1, 2, 3}); !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("bytes roundtrip = %v", got)
	}

	now := time.Unix(1700000000, 123).UTC()
	if got := roundtrip(t, Time, now); !got.Equal(now) {
		t.Errorf("time roundtrip = %v, want %v", got, now)
	}
	if got := roundtrip(t, Int, 3*time.Second); got != 3*time.Second {
		t.Errorf("duration roundtrip = %v", got)
	}
}

func TestIntOverflow(t *testing.T) {
	data, err := Marshal(Int, reflect.ValueOf(int64(300)))
	if err != nil {
		t.Fatal(err)
	}
	var out int8
	err = Unmarshal(Int, data, reflect.ValueOf(&out).Elem())
	if !stderrors.Is(err, &errors.Error{Kind: errors.KindOverflow}) {
		t.Errorf("expected overflow, got %v", err)
	}
}

func TestScalarTypeMismatch(t *testing.T) {
	data, _ := Marshal(String, reflect.ValueOf("nope"))
	var out int
	err := Unmarshal(Int, data, reflect.ValueOf(&out).Elem())
	if !stderrors.Is(err, errors.ErrTypeMismatch) {
		t.Errorf("expected type mismatch, got %v", err)
	}
}

func TestTruncatedInput(t *testing.T) {
	var out string
	err := Unmarshal(String, nil, reflect.ValueOf(&out).Elem())
	if !stderrors.Is(err, errors.ErrInvalidData) {
		t.Errorf("expected invalid data, got %v", err)
	}
}

func TestNilDecodesToZero(t *testing.T) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).EncodeNil(); err != nil {
		t.Fatal(err)
	}
	out := 42
	if err := Unmarshal(Int, buf.Bytes(), reflect.ValueOf(&out).Elem()); err != nil {
		t.Fatal(err)
	}
	if out != 0 {
		t.Errorf("nil decoded to %d, want 0", out)
	}
}

func TestDynamicAndRaw(t *testing.T) {
	var in any = "dyn"
	data, err := Marshal(Dynamic, reflect.ValueOf(&in).Elem())
	if err != nil {
		t.Fatal(err)
	}
	var out any
	if err := Unmarshal(Dynamic, data, reflect.ValueOf(&out).Elem()); err != nil {
		t.Fatal(err)
	}
	if out != "dyn" {
		t.Errorf("dynamic roundtrip = %v", out)
	}

	var none any
	data, err = Marshal(Dynamic, reflect.ValueOf(&none).Elem())
	if err != nil {
		t.Fatal(err)
	}
	out = "stale"
	if err := Unmarshal(Dynamic, data, reflect.ValueOf(&out).Elem()); err != nil {
		t.Fatal(err)
	}
	if out != nil {
		t.Errorf("nil dynamic decoded to %v", out)
	}

	raw := RawMessage(data)
	got := roundtrip(t, Raw, raw)
	if !bytes.Equal(got, raw) {
		t.Errorf("raw roundtrip = %x, want %x", got, raw)
	}
}

func TestSequence(t *testing.T) {
	c := Sequence(reflect.TypeFor[[]int](), Int)
	if got := roundtrip(t, c, []int{3, 1, 2}); !reflect.DeepEqual(got, []int{3, 1, 2}) {
		t.Errorf("slice roundtrip = %v", got)
	}
	if got := roundtrip(t, c, []int(nil)); got != nil {
		t.Errorf("nil slice decoded to %v", got)
	}
}

func TestArrayLenient(t *testing.T) {
	long, err := Marshal(Sequence(reflect.TypeFor[[]int](), Int), reflect.ValueOf([]int{1, 2, 3, 4}))
	if err != nil {
		t.Fatal(err)
	}
	arr := Sequence(reflect.TypeFor[[2]int](), Int)
	var two [2]int
	if err := Unmarshal(arr, long, reflect.ValueOf(&two).Elem()); err != nil {
		t.Fatal(err)
	}
	if two != [2]int{1, 2} {
		t.Errorf("surplus elements: got %v", two)
	}

	short, _ := Marshal(Sequence(reflect.TypeFor[[]int](), Int), reflect.ValueOf([]int{9}))
	three := [3]int{7, 7, 7}
	if err := Unmarshal(Sequence(reflect.TypeFor[[3]int](), Int), short, reflect.ValueOf(&three).Elem()); err != nil {
		t.Fatal(err)
	}
	if three != [3]int{9, 0, 0} {
		t.Errorf("missing elements: got %v", three)
	}
}

func TestMappingDeterministic(t *testing.T) {
	c := Mapping(reflect.TypeFor[map[string]int](), String, Int)
	m := map[string]int{"b": 2, "a": 1, "c": 3}

	first, err := Marshal(c, reflect.ValueOf(m))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, _ := Marshal(c, reflect.ValueOf(m))
		if !bytes.Equal(first, again) {
			t.Fatal("map encoding is not deterministic")
		}
	}

	if got := roundtrip(t, c, m); !reflect.DeepEqual(got, m) {
		t.Errorf("map roundtrip = %v", got)
	}
}

func TestSetAndNullable(t *testing.T) {
	set := Set(reflect.TypeFor[map[int]struct{}](), Int)
	in := map[int]struct{}{5: {}, 1: {}}
	if got := roundtrip(t, set, in); !reflect.DeepEqual(got, in) {
		t.Errorf("set roundtrip = %v", got)
	}

	ptr := Nullable(reflect.TypeFor[*string](), String)
	s := "x"
	if got := roundtrip(t, ptr, &s); got == nil || *got != "x" {
		t.Errorf("pointer roundtrip = %v", got)
	}
	if got := roundtrip(t, ptr, (*string)(nil)); got != nil {
		t.Errorf("nil pointer decoded to %v", *got)
	}
}

func TestErrorPath(t *testing.T) {
	wrong, _ := Marshal(Sequence(reflect.TypeFor[[]string](), String), reflect.ValueOf([]string{"a"}))
	var out []int
	err := Unmarshal(Sequence(reflect.TypeFor[[]int](), Int), wrong, reflect.ValueOf(&out).Elem())

	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected structured error, got %v", err)
	}
	if len(e.Path) != 1 || e.Path[0] != "[0]" {
		t.Errorf("path = %v, want [[0]]", e.Path)
	}
}

func TestLazy(t *testing.T) {
	calls := 0
	fail := true
	r := ResolverFunc(func(reflect.Type) (Codec, error) {
		calls++
		if fail {
			return nil, errors.NotFound(errors.PhaseLookup, "codec", "int")
		}
		return Int, nil
	})

	c := Lazy(r, reflect.TypeFor[int]())
	if _, err := Marshal(c, reflect.ValueOf(1)); err == nil {
		t.Fatal("expected resolution failure")
	}

	fail = false
	if got := roundtrip(t, c, 11); got != 11 {
		t.Errorf("lazy roundtrip = %d", got)
	}
	if calls != 2 {
		t.Errorf("resolver called %d times, want 2", calls)
	}

	var nilResolver Resolver
	if _, err := Marshal(Lazy(nilResolver, reflect.TypeFor[int]()), reflect.ValueOf(1)); !stderrors.Is(err, &errors.Error{Kind: errors.KindNotFound}) {
		t.Errorf("expected not found, got %v", err)
	}
}
