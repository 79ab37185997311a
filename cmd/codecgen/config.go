package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/codecgen/config"
)

// printConfig loads path with defaults applied and writes it back as YAML.
func printConfig(w io.Writer, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return enc.Close()
}
