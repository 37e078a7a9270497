package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/matsen/skilltree/internal/graph"
	"github.com/matsen/skilltree/internal/skill"
	"github.com/matsen/skilltree/internal/view"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))
)

// canvasStyles derives the per-cell styles from the shared view palette.
func canvasStyles(s view.Style) map[string]lipgloss.Style {
	styles := map[string]lipgloss.Style{
		styleEdge:  lipgloss.NewStyle().Foreground(lipgloss.Color(s.EdgeColor)),
		styleLabel: lipgloss.NewStyle(),
		styleFocus: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(s.FocusColor)),
		"kind:" + string(graph.KindRoot): lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(s.RootColor)),
		"kind:" + string(graph.KindCategory): lipgloss.NewStyle().
			Foreground(lipgloss.Color(s.CategoryColor)),
	}
	for _, l := range skill.Levels {
		styles["level:"+string(l)] = lipgloss.NewStyle().Foreground(lipgloss.Color(s.LevelColors[l]))
	}
	// Nodes with an unrecognized level render like the default level.
	styles["level:"] = styles["level:"+string(skill.DefaultLevel)]
	return styles
}

// keyMap defines the key bindings of the graph screen.
type keyMap struct {
	Next    key.Binding
	Add     key.Binding
	Edit    key.Binding
	LevelUp key.Binding
	LevelDn key.Binding
	Delete  key.Binding
	Reheat  key.Binding
	Quit    key.Binding
	Help    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Accept  key.Binding
	Decline key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "focus next"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add skill"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e", "rename"),
		),
		LevelUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+/-", "level"),
		),
		LevelDn: key.NewBinding(
			key.WithKeys("-", "_"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Reheat: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reheat"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
		),
		Accept: key.NewBinding(
			key.WithKeys("y", "Y"),
		),
		Decline: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Add, k.LevelUp, k.Delete, k.Quit, k.Help}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Add, k.Edit},
		{k.LevelUp, k.Delete, k.Reheat},
		{k.Help, k.Quit},
	}
}
