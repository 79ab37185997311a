package shape

import (
	"context"
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/wippyai/codecgen/errors"
)

type intList []int

func TestAnalyze(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		kind Kind
	}{
		{reflect.TypeFor[bool](), KindScalar},
		{reflect.TypeFor[float32](), KindScalar},
		{reflect.TypeFor[string](), KindScalar},
		{reflect.TypeFor[[]byte](), KindBytes},
		{reflect.TypeFor[[]int](), KindSequence},
		{reflect.TypeFor[intList](), KindSequence},
		{reflect.TypeFor[[4]string](), KindArray},
		{reflect.TypeFor[map[string]int](), KindMapping},
		{reflect.TypeFor[map[int]struct{}](), KindSet},
		{reflect.TypeFor[*point](), KindNullable},
		{reflect.TypeFor[*level](), KindNullable},
		{reflect.TypeFor[point](), KindRecord},
		{reflect.TypeFor[color](), KindEnumeration},
		{reflect.TypeFor[any](), KindDynamic},
		{reflect.TypeFor[func()](), KindUnsupported},
		{reflect.TypeFor[chan int](), KindUnsupported},
		{reflect.TypeFor[complex128](), KindUnsupported},
	}
	for _, tt := range tests {
		d, err := Describe(tt.typ)
		if err != nil {
			t.Fatalf("Describe(%v): %v", tt.typ, err)
		}
		tr, err := Analyze(d)
		if err != nil {
			t.Fatalf("Analyze(%v): %v", tt.typ, err)
		}
		if tr.Kind != tt.kind {
			t.Errorf("Analyze(%v).Kind = %s, want %s", tt.typ, tr.Kind, tt.kind)
		}
	}
}

func TestAnalyze_ElementTypes(t *testing.T) {
	tr := AnalyzeType(reflect.TypeFor[map[string]*point]())
	if tr.Key != reflect.TypeFor[string]() || tr.Elem != reflect.TypeFor[*point]() {
		t.Errorf("mapping key/elem = %v/%v", tr.Key, tr.Elem)
	}
	if !tr.Countable() || !tr.KeyValuePairs() {
		t.Error("mapping should be countable key/value")
	}

	arr := AnalyzeType(reflect.TypeFor[[3]uint16]())
	if arr.Length != 3 || arr.Elem != reflect.TypeFor[uint16]() {
		t.Errorf("array traits = %+v", arr)
	}

	set := AnalyzeType(reflect.TypeFor[map[string]struct{}]())
	if set.KeyValuePairs() {
		t.Error("set should not be key/value")
	}

	if AnalyzeType(nil).Kind != KindNone {
		t.Error("nil type should have KindNone")
	}
	if AnalyzeType(reflect.TypeFor[*int]()).Countable() {
		t.Error("nullable should not be countable")
	}
}

func TestAnalyze_InvalidDescriptor(t *testing.T) {
	_, err := Analyze(nil)
	if !stderrors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}

func TestAnalyzeAll(t *testing.T) {
	types := []reflect.Type{
		reflect.TypeFor[[]int](),
		reflect.TypeFor[point](),
		reflect.TypeFor[map[int]struct{}](),
		reflect.TypeFor[*string](),
	}
	descs := make([]*Descriptor, len(types))
	for i, typ := range types {
		d, err := Describe(typ)
		if err != nil {
			t.Fatal(err)
		}
		descs[i] = d
	}

	traits, err := AnalyzeAll(context.Background(), descs)
	if err != nil {
		t.Fatal(err)
	}
	want := []Kind{KindSequence, KindRecord, KindSet, KindNullable}
	for i, k := range want {
		if traits[i].Kind != k {
			t.Errorf("traits[%d].Kind = %s, want %s", i, traits[i].Kind, k)
		}
	}
}

func TestAnalyzeAll_Errors(t *testing.T) {
	good, _ := DescribeOf[int]()

	if _, err := AnalyzeAll(context.Background(), []*Descriptor{good, nil}); !stderrors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := AnalyzeAll(ctx, []*Descriptor{good}); !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestKind_String(t *testing.T) {
	if KindSet.String() != "set" {
		t.Errorf("KindSet.String() = %q", KindSet.String())
	}
	if Kind(200).String() != "unknown" {
		t.Errorf("out of range kind = %q", Kind(200).String())
	}
	if !KindNullable.IsContainer() || KindRecord.IsContainer() {
		t.Error("IsContainer mismatch")
	}
}
