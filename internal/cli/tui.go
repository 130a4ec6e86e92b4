package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/beetree/pkg/hierarchy"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// SpeciesListModel - Interactive species selection
// =============================================================================

// SpeciesListModel is the bubbletea model for picking a species. Typing
// narrows the list to ids containing the typed text.
type SpeciesListModel struct {
	Nodes    []*hierarchy.Node
	Filter   string
	Cursor   int
	Offset   int
	Height   int
	Selected *hierarchy.Node

	visible []*hierarchy.Node
}

// NewSpeciesListModel creates a list over nodes, which are shown in the
// given order.
func NewSpeciesListModel(nodes []*hierarchy.Node) SpeciesListModel {
	m := SpeciesListModel{Nodes: nodes, Height: 15}
	m.applyFilter()
	return m
}

func (m *SpeciesListModel) applyFilter() {
	m.visible = nil
	needle := strings.ToLower(m.Filter)
	for _, n := range m.Nodes {
		if needle == "" || strings.Contains(strings.ToLower(n.ID), needle) {
			m.visible = append(m.visible, n)
		}
	}
	m.Cursor, m.Offset = 0, 0
}

func (m SpeciesListModel) Init() tea.Cmd {
	return nil
}

func (m SpeciesListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case tea.KeyDown:
			if m.Cursor < len(m.visible)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case tea.KeyEnter:
			if len(m.visible) == 0 {
				return m, nil
			}
			m.Selected = m.visible[m.Cursor]
			return m, tea.Quit
		case tea.KeyBackspace:
			if m.Filter != "" {
				m.Filter = m.Filter[:len(m.Filter)-1]
				m.applyFilter()
			}
		case tea.KeyRunes, tea.KeySpace:
			m.Filter += string(msg.Runes)
			m.applyFilter()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m SpeciesListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Species"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("type to filter  ↑/↓ navigate  ⏎ select  esc quit"))
	b.WriteString("\n")
	b.WriteString(StyleHighlight.Render("> ") + StyleValue.Render(m.Filter))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.visible))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.visible[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, n.ID, n.Mod, strconv.Itoa(n.Generation)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Species", "Mod", "Gen").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 2 || col == 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	pos := 0
	if len(m.visible) > 0 {
		pos = m.Cursor + 1
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", pos, len(m.visible))))

	return b.String()
}
