package browser

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/mattsolo1/grove-core/tui/keymap"
)

// KeyMap defines the keybindings for the fault tree browser
type KeyMap struct {
	keymap.Base
	Search     key.Binding
	Expand     key.Binding
	Collapse   key.Binding
	LoadAll    key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	GoToTop    key.Binding
	GoToBottom key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	baseHelp := k.Base.FullHelp()
	return append(baseHelp, []key.Binding{
		k.Search,
		k.Expand,
		k.Collapse,
		k.LoadAll,
	}, []key.Binding{
		k.PageUp,
		k.PageDown,
		k.GoToTop,
		k.GoToBottom,
	})
}

// Bindings lists every binding, for help output outside the TUI.
func (k KeyMap) Bindings() []key.Binding {
	var all []key.Binding
	for _, group := range k.FullHelp() {
		all = append(all, group...)
	}
	return all
}

// Keys returns the browser keymap.
func Keys() KeyMap { return keys }

var keys = KeyMap{
	Base: keymap.NewBase(),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search (esc clears)"),
	),
	Expand: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "expand folder"),
	),
	Collapse: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "collapse / go to parent"),
	),
	LoadAll: key.NewBinding(
		key.WithKeys("E"),
		key.WithHelp("E", "load every folder"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u"),
		key.WithHelp("ctrl+u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "page down"),
	),
	GoToTop: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("gg", "go to top"),
	),
	GoToBottom: key.NewBinding(
		key.WithKeys("G"),
		key.WithHelp("G", "go to bottom"),
	),
}
