package unit

import (
	"os"
	"path/filepath"

	"github.com/wippyai/codecgen/errors"
)

// Save writes the encoded unit to dir/<name>.wasm and returns the path.
// Write failures are IOFailure errors wrapping the OS error.
func (u *Unit) Save(dir string) (string, error) {
	data, err := u.Encode()
	if err != nil {
		return "", err
	}
	return WriteFile(dir, u.FileName(), data)
}

// WriteFile writes pre-encoded artifact bytes to dir/name.
func WriteFile(dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.IOFailure(errors.PhaseFinalize, dir, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.IOFailure(errors.PhaseFinalize, path, err)
	}
	return path, nil
}

// Load reads and decodes the artifact at path.
func Load(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOFailure(errors.PhaseLoad, path, err)
	}
	return Decode(data)
}
