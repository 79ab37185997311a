package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/codecgen/program"
	"github.com/wippyai/codecgen/unit"
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))
)

type modelState int

const (
	stateBrowse modelState = iota
	stateDetail
)

type interactiveModel struct {
	err      error
	unit     *unit.Unit
	manifest *unit.Manifest
	programs []*program.Program
	filename string
	table    table.Model
	state    modelState
}

type loadedMsg struct {
	err      error
	unit     *unit.Unit
	manifest *unit.Manifest
}

func newInteractiveModel(filename string) *interactiveModel {
	return &interactiveModel{filename: filename, state: stateBrowse}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadUnit
}

func (m *interactiveModel) loadUnit() tea.Msg {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	u, err := unit.Decode(data)
	if err != nil {
		return loadedMsg{err: err}
	}
	man, err := u.Manifest()
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{unit: u, manifest: man}
}

func codecTable(man *unit.Manifest) table.Model {
	columns := []table.Column{
		{Title: "Identity", Width: 40},
		{Title: "Family", Width: 12},
		{Title: "Layout", Width: 8},
		{Title: "Fingerprint", Width: 18},
	}
	rows := make([]table.Row, len(man.Codecs))
	for i, c := range man.Codecs {
		rows[i] = table.Row{c.Identity, c.Family, c.Layout, shortFingerprint(c.Fingerprint)}
	}

	height := len(rows) + 1
	if height > 15 {
		height = 15
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#666666")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "enter":
			if m.state == stateBrowse && len(m.programs) > 0 {
				m.state = stateDetail
			}
			return m, nil

		case "esc":
			m.state = stateBrowse
			return m, nil
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.unit = msg.unit
		m.manifest = msg.manifest
		m.programs = msg.unit.Programs()
		m.table = codecTable(msg.manifest)
		return m, nil
	}

	if m.state == stateBrowse && m.manifest != nil {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.manifest == nil {
		return "Loading artifact..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Codec unit"))
	b.WriteString(" ")
	b.WriteString(m.manifest.Name)
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse:
		b.WriteString(borderStyle.Render(m.table.View()))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter routines • q quit"))

	case stateDetail:
		p := m.programs[m.table.Cursor()]
		b.WriteString(nameStyle.Render(p.Identity))
		b.WriteString("\n")
		if p.Shape != "" {
			b.WriteString(shapeStyle.Render(p.Shape))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		writeRoutine(&b, "encode", p.Encode)
		writeRoutine(&b, "decode", p.Decode)
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back • q quit"))
	}
	return b.String()
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newInteractiveModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
