package shape

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/wippyai/codecgen/errors"
)

type UserRecord struct {
	UserID  uint32
	Tags    []string
	Home    *point
	Scores  map[string]float64
	Hue     color
	Payload []byte
	Extra   any
}

func TestWIT(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		want string
	}{
		{reflect.TypeFor[bool](), "bool"},
		{reflect.TypeFor[int](), "s64"},
		{reflect.TypeFor[uint16](), "u16"},
		{reflect.TypeFor[[]int32](), "list<s32>"},
		{reflect.TypeFor[[2]float32](), "list<f32>"},
		{reflect.TypeFor[map[string]int](), "list<tuple<string, s64>>"},
		{reflect.TypeFor[map[uint8]struct{}](), "list<u8>"},
		{reflect.TypeFor[[]*point](), "list<option<point>>"},
		{reflect.TypeFor[point](), "record point { x: s64, y: s64 }"},
		{reflect.TypeFor[color](), "enum color { red, green, blue }"},
		{reflect.TypeFor[struct{ A string }](), "record { a: string }"},
		{reflect.TypeFor[any](), "value"},
		{
			reflect.TypeFor[UserRecord](),
			"record user-record { user-id: u32, tags: list<string>, home: option<point>, " +
				"scores: list<tuple<string, f64>>, hue: color, payload: list<u8>, extra: value }",
		},
	}
	for _, tt := range tests {
		d, err := Describe(tt.typ)
		if err != nil {
			t.Fatalf("Describe(%v): %v", tt.typ, err)
		}
		wt, err := WIT(d)
		if err != nil {
			t.Fatalf("WIT(%v): %v", tt.typ, err)
		}
		if got := FormatWIT(wt); got != tt.want {
			t.Errorf("FormatWIT(%v) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestWIT_SymbolsOverride(t *testing.T) {
	d, err := DescribeOf[int](WithSymbols(Symbol{Name: "Off", Value: 0}, Symbol{Name: "StandBy", Value: 1}))
	if err != nil {
		t.Fatal(err)
	}
	wt, err := WIT(d)
	if err != nil {
		t.Fatal(err)
	}
	if got := FormatWIT(wt); got != "enum { off, stand-by }" {
		t.Errorf("got %q", got)
	}
}

func TestWIT_Unsupported(t *testing.T) {
	d, _ := DescribeOf[struct{ F func() }]()
	_, err := WIT(d)
	if !stderrors.Is(err, &errors.Error{Kind: errors.KindUnsupported}) {
		t.Errorf("expected unsupported, got %v", err)
	}
}

func TestWitName(t *testing.T) {
	tests := map[string]string{
		"Point":      "point",
		"HTTPServer": "http-server",
		"UserID":     "user-id",
		"snake_case": "snake-case",
		"x2Y":        "x2-y",
		"already":    "already",
	}
	for in, want := range tests {
		if got := witName(in); got != want {
			t.Errorf("witName(%q) = %q, want %q", in, got, want)
		}
	}
}
