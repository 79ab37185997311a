package unit

import (
	"maps"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wippyai/codecgen/errors"
	"github.com/wippyai/codecgen/program"
)

// Well-known attribute keys.
const (
	AttrFormatVersion = "format-version"
	AttrGenerator     = "generator"
	AttrVisibility    = "visibility"
	AttrWireFormat    = "wire-format"
	AttrCompression   = "compression"
)

// Compression attribute values.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
)

// Extension is the file extension of a persisted unit.
const Extension = ".wasm"

// Unit is an append-only set of codec programs plus attribute metadata.
// Safe for concurrent use.
type Unit struct {
	mu       sync.RWMutex
	attrs    map[string]string
	index    map[string]int
	name     string
	programs []*program.Program
}

// New creates an empty unit. The name must be usable as a plain file name.
func New(name string) (*Unit, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return &Unit{
		name:  name,
		attrs: make(map[string]string),
		index: make(map[string]int),
	}, nil
}

// ValidateName reports whether name can name a unit.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.InvalidArgument(errors.PhaseConfig, "unit name cannot be empty")
	case name == "." || name == "..":
		return errors.InvalidArgument(errors.PhaseConfig, "unit name cannot be a relative directory")
	case strings.ContainsAny(name, `/\`) || filepath.Base(name) != name:
		return errors.InvalidArgument(errors.PhaseConfig, "unit name must be a plain file name: "+name)
	}
	return nil
}

// Name returns the unit name.
func (u *Unit) Name() string {
	return u.name
}

// FileName returns the artifact file name, <name>.wasm.
func (u *Unit) FileName() string {
	return u.name + Extension
}

// SetAttribute sets a metadata attribute.
func (u *Unit) SetAttribute(key, value string) error {
	if key == "" {
		return errors.InvalidArgument(errors.PhaseEmit, "attribute key cannot be empty")
	}
	u.mu.Lock()
	u.attrs[key] = value
	u.mu.Unlock()
	return nil
}

// Attribute returns one attribute.
func (u *Unit) Attribute(key string) (string, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	v, ok := u.attrs[key]
	return v, ok
}

// Attributes returns a copy of all attributes.
func (u *Unit) Attributes() map[string]string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return maps.Clone(u.attrs)
}

// Append adds a program. A second program for the same type identity is a
// DuplicateGeneration error; programs are never replaced or removed.
func (u *Unit) Append(p *program.Program) error {
	if err := p.Validate(); err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.index[p.Identity]; ok {
		return errors.DuplicateGeneration(errors.PhaseFinalize, p.Identity)
	}
	u.index[p.Identity] = len(u.programs)
	u.programs = append(u.programs, p.Clone())
	return nil
}

// Program returns the program for a type identity.
func (u *Unit) Program(identity string) (*program.Program, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	i, ok := u.index[identity]
	if !ok {
		return nil, false
	}
	return u.programs[i].Clone(), true
}

// Programs returns copies of all programs in append order.
func (u *Unit) Programs() []*program.Program {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]*program.Program, len(u.programs))
	for i, p := range u.programs {
		out[i] = p.Clone()
	}
	return out
}

// Len returns the number of programs.
func (u *Unit) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.programs)
}
