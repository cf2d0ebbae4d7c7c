package preview

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the preview.
type KeyMap struct {
	// Selection
	Next key.Binding
	Prev key.Binding

	// Anchor movement
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding

	// Actions
	ToggleOpen key.Binding
	ToggleFlip key.Binding
	Step       key.Binding
	Reload     key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.ToggleOpen, k.Step, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev},
		{k.Up, k.Down, k.Left, k.Right},
		{k.ToggleOpen, k.ToggleFlip, k.Step},
		{k.Reload, k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next popover"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous popover"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move anchor up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move anchor down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "move anchor left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "move anchor right"),
		),
		ToggleOpen: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "toggle open"),
		),
		ToggleFlip: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "toggle flip-always"),
		),
		Step: key.NewBinding(
			key.WithKeys("n", " "),
			key.WithHelp("n", "next step"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload scene"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}
