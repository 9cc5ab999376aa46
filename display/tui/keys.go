package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings for the TUI application.
// It implements the help.KeyMap interface for bubbles/help integration.
type keyMap struct {
	Quit        key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	GoTop       key.Binding
	GoBottom    key.Binding
	SortCPU     key.Binding
	SortMemory  key.Binding
	ToggleOrder key.Binding
	ToggleGroup key.Binding
	Filter      key.Binding
	Kill        key.Binding
	ForceKill   key.Binding
	Refresh     key.Binding
	Help        key.Binding
}

// ShortHelp returns the compact set of keybindings shown by default in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Filter, k.Kill, k.Quit}
}

// FullHelp returns the expanded keybinding groups shown when help is toggled.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ScrollUp, k.ScrollDown, k.PageUp, k.PageDown, k.GoTop, k.GoBottom},
		{k.SortCPU, k.SortMemory, k.ToggleOrder, k.ToggleGroup, k.Filter},
		{k.Kill, k.ForceKill, k.Refresh, k.Help, k.Quit},
	}
}

// keys holds the default key bindings used by the application.
var keys = keyMap{
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	ScrollUp:    key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/up", "scroll up")),
	ScrollDown:  key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/dn", "scroll down")),
	PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	GoTop:       key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	GoBottom:    key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
	SortCPU:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "sort by cpu")),
	SortMemory:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "sort by memory")),
	ToggleOrder: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "flip order")),
	ToggleGroup: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "group by app")),
	Filter:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	Kill:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "terminate")),
	ForceKill:   key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "force kill")),
	Refresh:     key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}
