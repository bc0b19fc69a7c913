package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard keybindings.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	NextPane    key.Binding
	Prompt      key.Binding
	Accept      key.Binding
	ForceAccept key.Binding
	Reject      key.Binding
	ToggleDiff  key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the standard dashboard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		NextPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Prompt: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "write prompt"),
		),
		Accept: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "accept change"),
		),
		ForceAccept: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "accept (overwrite local edit)"),
		),
		Reject: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reject change"),
		),
		ToggleDiff: key.NewBinding(
			key.WithKeys("enter", "d"),
			key.WithHelp("enter/d", "show diff"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
