package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/wippyai/codecgen/unit"
)

func main() {
	var (
		artifact    = pflag.StringP("artifact", "a", "", "Path to a generated codec artifact (.wasm)")
		verify      = pflag.Bool("verify", false, "Compile the artifact with wazero before printing")
		asJSON      = pflag.Bool("json", false, "Print the manifest as JSON")
		dump        = pflag.Bool("dump", false, "Print the encode and decode routines of every codec")
		interactive = pflag.BoolP("interactive", "i", false, "Browse codecs in a table")
		cfgPath     = pflag.StringP("config", "c", "", "Print the resolved generation config from a YAML or JSONC file")
	)
	pflag.Parse()

	if *cfgPath != "" {
		if err := printConfig(os.Stdout, *cfgPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if *artifact == "" && pflag.NArg() == 0 {
			return
		}
	}

	if *artifact == "" && pflag.NArg() > 0 {
		*artifact = pflag.Arg(0)
	}
	if *artifact == "" {
		fmt.Fprintln(os.Stderr, "Usage: codecgen --artifact <file.wasm> [--verify] [--json] [--dump]")
		fmt.Fprintln(os.Stderr, "       codecgen --artifact <file.wasm> -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       codecgen --config <codecgen.yaml>")
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*artifact); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	styled := !*asJSON && term.IsTerminal(int(os.Stdout.Fd()))
	if err := run(os.Stdout, *artifact, options{verify: *verify, json: *asJSON, dump: *dump, styled: styled}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	verify bool
	json   bool
	dump   bool
	styled bool
}

func run(w io.Writer, path string, opts options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	if opts.verify {
		if err := unit.Verify(context.Background(), data); err != nil {
			return fmt.Errorf("verify: %w", err)
		}
	}

	if opts.json {
		m, err := unit.ReadManifest(data)
		if err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}

	u, err := unit.Decode(data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	m, err := u.Manifest()
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}

	r := newReport(path, m, opts.verify)
	if opts.dump {
		r.programs = u.Programs()
	}
	_, err = io.WriteString(w, r.render(opts.styled))
	return err
}
