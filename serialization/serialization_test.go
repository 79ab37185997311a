package serialization

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/sentinel"

	"github.com/wippyai/codecgen/codegen"
	"github.com/wippyai/codecgen/config"
	"github.com/wippyai/codecgen/errors"
	"github.com/wippyai/codecgen/shape"
	"github.com/wippyai/codecgen/unit"
	"github.com/wippyai/codecgen/wire"
)

type Point struct {
	X int `msgpack:"x"`
	Y int `msgpack:"y"`
}

type Color uint8

func (Color) EnumSymbols() []shape.Symbol {
	return []shape.Symbol{{Name: "Red", Value: 1}, {Name: "Green", Value: 2}, {Name: "Blue", Value: 3}}
}

type IntList []int

type Order struct {
	ID       string            `msgpack:"id"`
	Placed   time.Time         `msgpack:"placed"`
	Route    []Point           `msgpack:"route"`
	Tint     Color             `msgpack:"tint"`
	Counts   IntList           `msgpack:"counts"`
	Labels   map[string]string `msgpack:"labels"`
	Backup   *Point            `msgpack:"backup"`
	Internal string            `msgpack:"-"`
}

type Node struct {
	Value    int
	Children []*Node
}

type Callback struct {
	Name string
	Fn   func()
}

func testConfig(t *testing.T, prefer bool) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Session.Name = "orders"
	cfg.Session.OutputDir = t.TempDir()
	cfg.Policy.PreferSpecialized = prefer
	return cfg
}

func sampleOrder() Order {
	return Order{
		ID:     "o-17",
		Placed: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
		Route:  []Point{{1, 2}, {3, 4}},
		Tint:   3,
		Counts: IntList{1, 1, 2},
		Labels: map[string]string{"a": "b"},
		Backup: &Point{X: -1},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, prefer := range []bool{false, true} {
		c, err := New(testConfig(t, prefer))
		require.NoError(t, err)

		s, err := Get[Order](c)
		require.NoError(t, err)

		in := sampleOrder()
		data, err := s.Marshal(in)
		require.NoError(t, err)

		var out Order
		require.NoError(t, s.Unmarshal(data, &out))
		if diff := cmp.Diff(in, out); diff != "" {
			t.Errorf("prefer=%v roundtrip mismatch (-want +got):\n%s", prefer, diff)
		}
	}
}

func TestStrategiesFollowPolicy(t *testing.T) {
	tests := []struct {
		prefer bool
		typ    reflect.Type
		want   codegen.Strategy
	}{
		{false, reflect.TypeFor[IntList](), codegen.GenericShape},
		{true, reflect.TypeFor[IntList](), codegen.Specialized},
		{false, reflect.TypeFor[time.Time](), codegen.BuiltIn},
		{true, reflect.TypeFor[string](), codegen.BuiltIn},
		{false, reflect.TypeFor[Point](), codegen.Specialized},
		{false, reflect.TypeFor[Color](), codegen.Specialized},
	}
	for _, tt := range tests {
		c, err := New(testConfig(t, tt.prefer))
		require.NoError(t, err)
		require.NoError(t, c.Provision(context.Background(), reflect.TypeFor[Order]()))

		d, err := shape.Describe(tt.typ)
		require.NoError(t, err)
		st, ok := c.Session().Strategy(d)
		require.True(t, ok, "%v not provisioned", tt.typ)
		require.Equal(t, tt.want, st, "%v prefer=%v", tt.typ, tt.prefer)
		require.Equal(t, codegen.Finalized, c.Session().State(d))
	}
}

func TestProvisionIsIdempotent(t *testing.T) {
	c, err := New(testConfig(t, true))
	require.NoError(t, err)
	require.NoError(t, c.Provision(context.Background(), reflect.TypeFor[Order]()))
	n := c.Session().Unit().Len()
	require.Positive(t, n)

	require.NoError(t, c.Provision(context.Background(), reflect.TypeFor[Order](), reflect.TypeFor[Point]()))
	_, err = Get[Order](c)
	require.NoError(t, err)
	require.Equal(t, n, c.Session().Unit().Len())
}

func TestGetWarmsMetadata(t *testing.T) {
	c, err := New(testConfig(t, false))
	require.NoError(t, err)
	_, err = Get[Order](c)
	require.NoError(t, err)

	rt := reflect.TypeFor[Order]()
	meta, ok := sentinel.Lookup(rt.Name())
	require.True(t, ok, "Order metadata should be cached after Get")
	require.Equal(t, rt.PkgPath(), meta.PackageName)

	members, err := shape.Members(rt)
	require.NoError(t, err)
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	require.Equal(t, []string{"id", "placed", "route", "tint", "counts", "labels", "backup"}, names)
}

func TestRecursiveType(t *testing.T) {
	c, err := New(testConfig(t, true))
	require.NoError(t, err)
	s, err := Get[Node](c)
	require.NoError(t, err)

	in := Node{Value: 1, Children: []*Node{{Value: 2}, {Value: 3, Children: []*Node{{Value: 4}}}}}
	data, err := s.Marshal(in)
	require.NoError(t, err)
	var out Node
	require.NoError(t, s.Unmarshal(data, &out))
	require.Equal(t, in, out)
}

func TestStreaming(t *testing.T) {
	c, err := New(testConfig(t, false))
	require.NoError(t, err)
	s, err := Get[Point](c)
	require.NoError(t, err)

	var buf bytes.Buffer
	points := []Point{{1, 2}, {3, 4}, {5, 6}}
	for _, p := range points {
		require.NoError(t, s.Encode(&buf, p))
	}

	r := bytes.NewReader(buf.Bytes())
	for _, want := range points {
		var got Point
		require.NoError(t, s.Decode(r, &got))
		require.Equal(t, want, got)
	}
}

func TestNilTarget(t *testing.T) {
	c, err := New(testConfig(t, false))
	require.NoError(t, err)
	s, err := Get[Point](c)
	require.NoError(t, err)

	nilPointer := &errors.Error{Kind: errors.KindNilPointer}
	require.ErrorIs(t, s.Unmarshal([]byte{0x90}, nil), nilPointer)
	require.ErrorIs(t, s.Decode(bytes.NewReader(nil), nil), nilPointer)
}

func TestUnserializableMember(t *testing.T) {
	c, err := New(testConfig(t, false))
	require.NoError(t, err)
	_, err = Get[Callback](c)
	require.ErrorIs(t, err, errors.ErrUnsupportedFamily)
}

func TestProvisionCanceled(t *testing.T) {
	c, err := New(testConfig(t, false))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.Provision(ctx, reflect.TypeFor[Order]()), context.Canceled)
}

func TestRegisteredCodecWins(t *testing.T) {
	c, err := New(testConfig(t, true))
	require.NoError(t, err)
	require.NoError(t, c.Registry().Register(reflect.TypeFor[IntList](), wire.Raw))

	d, err := shape.DescribeOf[IntList]()
	require.NoError(t, err)
	_, err = Get[Order](c)
	require.NoError(t, err)
	st, _ := c.Session().Strategy(d)
	require.Equal(t, codegen.BuiltIn, st)
}

func TestGenerateAndLoad(t *testing.T) {
	cfg := testConfig(t, true)
	cfg.Session.Verify = true
	c, err := New(cfg)
	require.NoError(t, err)
	s, err := Get[Order](c)
	require.NoError(t, err)

	in := sampleOrder()
	data, err := s.Marshal(in)
	require.NoError(t, err)

	paths, err := c.Generate()
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Equal(t, filepath.Join(cfg.Session.OutputDir, "orders.wasm"), paths[0])

	_, err = c.Generate()
	require.ErrorIs(t, err, errors.ErrInvalidSessionState)

	// a fresh context reuses the programs instead of generating
	fresh := testConfig(t, false)
	fresh.Session.Name = "reader"
	c2, err := New(fresh)
	require.NoError(t, err)
	require.NoError(t, c2.Load(context.Background(), paths[0],
		reflect.TypeFor[Order](), reflect.TypeFor[Point](), reflect.TypeFor[Color]()))

	s2, err := Get[Order](c2)
	require.NoError(t, err)
	var out Order
	require.NoError(t, s2.Unmarshal(data, &out))
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("loaded codec mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 0, c2.Session().Unit().Len(), "loaded types must not be generated again")

	d, _ := shape.DescribeOf[Order]()
	require.Equal(t, codegen.Unresolved, c2.Session().State(d))
}

func TestLoadErrors(t *testing.T) {
	cfg := testConfig(t, true)
	c, err := New(cfg)
	require.NoError(t, err)
	_, err = Get[Point](c)
	require.NoError(t, err)
	paths, err := c.Generate()
	require.NoError(t, err)

	t.Run("missing file", func(t *testing.T) {
		c2, _ := New(testConfig(t, false))
		err := c2.Load(context.Background(), filepath.Join(t.TempDir(), "nope.wasm"), reflect.TypeFor[Point]())
		require.ErrorIs(t, err, errors.ErrIOFailure)
	})

	t.Run("not a module", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "junk.wasm")
		require.NoError(t, os.WriteFile(path, []byte("not wasm"), 0o644))
		c2, _ := New(testConfig(t, false))
		require.Error(t, c2.Load(context.Background(), path, reflect.TypeFor[Point]()))
	})

	t.Run("unknown program", func(t *testing.T) {
		c2, _ := New(testConfig(t, false))
		err := c2.Load(context.Background(), paths[0], reflect.TypeFor[Order]())
		require.ErrorIs(t, err, &errors.Error{Kind: errors.KindNotFound})
	})

	t.Run("already installed", func(t *testing.T) {
		c2, _ := New(testConfig(t, false))
		require.NoError(t, c2.Load(context.Background(), paths[0], reflect.TypeFor[Point]()))
		err := c2.Load(context.Background(), paths[0], reflect.TypeFor[Point]())
		require.ErrorIs(t, err, errors.ErrDuplicateGeneration)
	})

	t.Run("tampered program", func(t *testing.T) {
		raw, err := os.ReadFile(paths[0])
		require.NoError(t, err)
		raw[len(raw)-1] ^= 0xff
		path := filepath.Join(t.TempDir(), "tampered.wasm")
		require.NoError(t, os.WriteFile(path, raw, 0o644))

		_, err = unit.Decode(raw)
		require.ErrorIs(t, err, errors.ErrInvalidData)
		c2, _ := New(testConfig(t, false))
		require.ErrorIs(t, c2.Load(context.Background(), path, reflect.TypeFor[Point]()), errors.ErrInvalidData)
	})
}

func TestNilType(t *testing.T) {
	c, err := New(testConfig(t, false))
	require.NoError(t, err)
	_, err = c.CodecFor(nil)
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
	require.ErrorIs(t, c.Provision(context.Background(), nil), errors.ErrInvalidArgument)
}
