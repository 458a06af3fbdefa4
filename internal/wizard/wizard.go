// Package wizard is an interactive composer for the pattern library: it
// walks the user through picking a migration pattern and its parameters,
// then emits the resulting migration document.
package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dimensigon/schemashift/internal/builder"
	"github.com/dimensigon/schemashift/internal/patterns"
)

type state int

const (
	statePickPattern state = iota
	stateFillFields
	stateDone
	stateAborted
)

// patternSpec names a pattern and the fields it needs.
type patternSpec struct {
	ID     string
	Title  string
	Fields []string
	Build  func(values []string) *builder.Builder
}

var patternSpecs = []patternSpec{
	{
		ID: "add-nullable-column", Title: "Add nullable column",
		Fields: []string{"table", "column", "data type"},
		Build: func(v []string) *builder.Builder {
			return patterns.AddNullableColumn(v[0], v[1], v[2])
		},
	},
	{
		ID: "add-required-column", Title: "Add required column (backfilled)",
		Fields: []string{"table", "column", "data type", "default value"},
		Build: func(v []string) *builder.Builder {
			return patterns.AddRequiredColumn(v[0], v[1], v[2], v[3])
		},
	},
	{
		ID: "remove-column", Title: "Remove column (with grace period)",
		Fields: []string{"table", "column"},
		Build: func(v []string) *builder.Builder {
			return patterns.RemoveColumn(v[0], v[1])
		},
	},
	{
		ID: "rename-column", Title: "Rename column (dual-write)",
		Fields: []string{"table", "old column", "new column", "data type"},
		Build: func(v []string) *builder.Builder {
			return patterns.SafeRenameColumn(v[0], v[1], v[2], v[3])
		},
	},
	{
		ID: "change-column-type", Title: "Change column type (shadow column)",
		Fields: []string{"table", "column", "new type", "conversion expression (optional)"},
		Build: func(v []string) *builder.Builder {
			return patterns.ChangeColumnType(v[0], v[1], v[2], v[3])
		},
	},
	{
		ID: "concurrent-index", Title: "Add concurrent index",
		Fields: []string{"table", "index name", "columns (comma-separated)"},
		Build: func(v []string) *builder.Builder {
			return patterns.AddConcurrentIndex(v[0], v[1], splitColumns(v[2])...)
		},
	},
}

// Model is the Bubble Tea model for the wizard.
type Model struct {
	state        state
	patternIndex int
	fieldIndex   int
	input        textinput.Model
	values       []string

	// YAML holds the generated document once the wizard completes.
	YAML []byte
	Err  error
}

// New creates a wizard model positioned at pattern selection.
func New() Model {
	ti := textinput.New()
	ti.CharLimit = 128
	return Model{input: ti}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc":
		m.state = stateAborted
		return m, tea.Quit

	case "up", "k":
		if m.state == statePickPattern && m.patternIndex > 0 {
			m.patternIndex--
		}
		return m, nil

	case "down", "j":
		if m.state == statePickPattern && m.patternIndex < len(patternSpecs)-1 {
			m.patternIndex++
		}
		return m, nil

	case "enter":
		return m.handleEnter()

	default:
		if m.state == stateFillFields {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.state {
	case statePickPattern:
		m.state = stateFillFields
		m.fieldIndex = 0
		m.values = nil
		m.input.SetValue("")
		m.input.Placeholder = patternSpecs[m.patternIndex].Fields[0]
		m.input.Focus()
		return m, textinput.Blink

	case stateFillFields:
		spec := patternSpecs[m.patternIndex]
		value := strings.TrimSpace(m.input.Value())
		if value == "" && !strings.Contains(spec.Fields[m.fieldIndex], "optional") {
			return m, nil
		}
		m.values = append(m.values, value)
		m.fieldIndex++
		if m.fieldIndex < len(spec.Fields) {
			m.input.SetValue("")
			m.input.Placeholder = spec.Fields[m.fieldIndex]
			return m, nil
		}

		m.YAML, m.Err = spec.Build(m.values).YAML()
		m.state = stateDone
		return m, tea.Quit

	default:
		return m, tea.Quit
	}
}

func (m Model) View() string {
	var sb strings.Builder

	switch m.state {
	case statePickPattern:
		sb.WriteString("Pick a migration pattern:\n\n")
		for i, spec := range patternSpecs {
			cursor := "  "
			if i == m.patternIndex {
				cursor = "> "
			}
			fmt.Fprintf(&sb, "%s%s\n", cursor, spec.Title)
		}
		sb.WriteString("\n(enter to select, q/esc to quit)\n")

	case stateFillFields:
		spec := patternSpecs[m.patternIndex]
		fmt.Fprintf(&sb, "%s\n\n", spec.Title)
		for i, value := range m.values {
			fmt.Fprintf(&sb, "  %s: %s\n", spec.Fields[i], value)
		}
		fmt.Fprintf(&sb, "\n%s:\n%s\n", spec.Fields[m.fieldIndex], m.input.View())

	case stateDone:
		sb.WriteString("Migration generated.\n")

	case stateAborted:
		sb.WriteString("Cancelled.\n")
	}

	return sb.String()
}

// Aborted reports whether the user quit before finishing.
func (m Model) Aborted() bool {
	return m.state != stateDone
}

func splitColumns(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
