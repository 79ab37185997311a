// Package config holds the settings of a codec generation run.
//
// A configuration is loaded from YAML, or from JSON with comments when the
// file ends in .json or .jsonc. Zero fields are filled from Default.
package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/codecgen/errors"
	"github.com/wippyai/codecgen/unit"
)

// Record and enumeration layouts accepted in Policy.
const (
	MethodArray = "array"
	MethodMap   = "map"

	EnumByName  = "name"
	EnumByValue = "value"
)

// Config holds the settings of one generation session.
type Config struct {
	Session Session `yaml:"session"`
	Policy  Policy  `yaml:"policy"`
	Log     Log     `yaml:"log"`
}

// Session names the output unit and where it is written.
type Session struct {
	// Name is the unit name; the artifact is <Name>.wasm.
	Name string `yaml:"name"`
	// OutputDir receives the artifact. Default: current directory.
	OutputDir string `yaml:"output_dir"`
	// Verify compiles the artifact with wazero before writing it.
	Verify bool `yaml:"verify"`
	// Compression is "none" or "zstd".
	Compression string `yaml:"compression"`
}

// Policy controls strategy selection and emitted layouts.
type Policy struct {
	// PreferSpecialized disables generic shape codecs so every non built-in
	// type gets a generated program.
	PreferSpecialized bool   `yaml:"prefer_specialized"`
	Method            string `yaml:"method"`
	EnumMethod        string `yaml:"enum_method"`
}

// Log configures the zap logger built by Build.
type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Session: Session{
			Name:        "codecs",
			OutputDir:   ".",
			Compression: unit.CompressionNone,
		},
		Policy: Policy{
			Method:     MethodArray,
			EnumMethod: EnumByName,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads the configuration at path and validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.IOFailure(errors.PhaseConfig, path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}
	return Parse(data)
}

// Parse decodes YAML (or plain JSON) over Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidArgument, err, "parse config")
	}
	cfg.fill()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) fill() {
	d := Default()
	if c.Session.OutputDir == "" {
		c.Session.OutputDir = d.Session.OutputDir
	}
	if c.Session.Compression == "" {
		c.Session.Compression = d.Session.Compression
	}
	if c.Policy.Method == "" {
		c.Policy.Method = d.Policy.Method
	}
	if c.Policy.EnumMethod == "" {
		c.Policy.EnumMethod = d.Policy.EnumMethod
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// Validate reports the first bad value as an invalid_argument error.
func (c Config) Validate() error {
	if err := unit.ValidateName(c.Session.Name); err != nil {
		return err
	}
	switch c.Session.Compression {
	case unit.CompressionNone, unit.CompressionZstd:
	default:
		return invalid("session.compression must be none or zstd, got %q", c.Session.Compression)
	}
	switch c.Policy.Method {
	case MethodArray, MethodMap:
	default:
		return invalid("policy.method must be array or map, got %q", c.Policy.Method)
	}
	switch c.Policy.EnumMethod {
	case EnumByName, EnumByValue:
	default:
		return invalid("policy.enum_method must be name or value, got %q", c.Policy.EnumMethod)
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return invalid("log.level %q: %v", c.Log.Level, err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidArgument).Detail(format, args...).Build()
}

// Build returns a logger for these settings.
func (l Log) Build() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, invalid("log.level %q: %v", l.Level, err)
	}
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
