package main

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/codecgen/program"
	"github.com/wippyai/codecgen/unit"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	shapeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	okStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// report is the printable view of one artifact.
type report struct {
	path     string
	manifest *unit.Manifest
	verified bool
	programs []*program.Program
}

func newReport(path string, m *unit.Manifest, verified bool) *report {
	return &report{path: path, manifest: m, verified: verified}
}

func (r *report) render(styled bool) string {
	style := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	b.WriteString(style(titleStyle, "Codec unit"))
	fmt.Fprintf(&b, " %s (%s)\n", r.manifest.Name, r.path)
	if r.verified {
		b.WriteString(style(okStyle, "verified: loadable module"))
		b.WriteString("\n")
	}

	b.WriteString("\nAttributes:\n")
	keys := make([]string, 0, len(r.manifest.Attributes))
	for k := range r.manifest.Attributes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s = %s\n", k, r.manifest.Attributes[k])
	}

	fmt.Fprintf(&b, "\nCodecs: %d\n", len(r.manifest.Codecs))
	for _, c := range r.manifest.Codecs {
		fmt.Fprintf(&b, "  %s [%s/%s] %s\n",
			style(nameStyle, c.Identity), c.Family, c.Layout, shortFingerprint(c.Fingerprint))
		if c.Shape != "" {
			fmt.Fprintf(&b, "    %s\n", style(shapeStyle, c.Shape))
		}
	}

	for _, p := range r.programs {
		fmt.Fprintf(&b, "\n%s\n", style(nameStyle, p.Identity))
		writeRoutine(&b, "encode", p.Encode)
		writeRoutine(&b, "decode", p.Decode)
	}
	return b.String()
}

func writeRoutine(b *strings.Builder, name string, instrs []program.Instr) {
	fmt.Fprintf(b, "  %s:\n", name)
	for i, in := range instrs {
		fmt.Fprintf(b, "    %3d  %s\n", i, in)
	}
}

func shortFingerprint(fp []byte) string {
	s := hex.EncodeToString(fp)
	if len(s) > 16 {
		s = s[:16]
	}
	return s
}
