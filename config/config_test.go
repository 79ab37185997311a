package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/codecgen/errors"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codecgen.yaml")
	src := `
session:
  name: orders
  output_dir: out
  verify: true
  compression: zstd
policy:
  prefer_specialized: true
  method: map
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		Session: Session{Name: "orders", OutputDir: "out", Verify: true, Compression: "zstd"},
		Policy:  Policy{PreferSpecialized: true, Method: MethodMap, EnumMethod: EnumByName},
		Log:     Log{Level: "debug"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadJSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codecgen.jsonc")
	src := `{
  // generated codecs for the billing service
  "session": {"name": "billing", "compression": "none",},
  /* values instead of names */
  "policy": {"enum_method": "value"},
}`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Session.Name != "billing" || cfg.Policy.EnumMethod != EnumByValue {
		t.Errorf("got %+v", cfg)
	}
	if cfg.Session.OutputDir != "." || cfg.Policy.Method != MethodArray || cfg.Log.Level != "info" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !stderrors.Is(err, errors.ErrIOFailure) {
		t.Fatalf("expected io failure, got %v", err)
	}
	if !stderrors.Is(err, os.ErrNotExist) {
		t.Errorf("cause should be kept, got %v", err)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown key", "session:\n  name: a\n  colour: red\n"},
		{"empty name", "session:\n  name: \"\"\n"},
		{"path name", "session:\n  name: a/b\n"},
		{"bad compression", "session:\n  compression: gzip\n"},
		{"bad method", "policy:\n  method: tuple\n"},
		{"bad enum method", "policy:\n  enum_method: ordinal\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"not yaml", "session: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if !stderrors.Is(err, errors.ErrInvalidArgument) {
				t.Errorf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("empty input should yield defaults (-want +got):\n%s", diff)
	}
}

func TestLogBuild(t *testing.T) {
	for _, dev := range []bool{false, true} {
		l, err := Log{Level: "warn", Development: dev}.Build()
		if err != nil {
			t.Fatal(err)
		}
		if l.Core().Enabled(-1) {
			t.Errorf("development=%v: debug should be disabled at warn", dev)
		}
	}
	if _, err := (Log{Level: "chatty"}).Build(); err == nil {
		t.Error("expected error for unknown level")
	}
}
