package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Submit    key.Binding
	Reconnect key.Binding
	Refresh   key.Binding
	Clear     key.Binding
	ScrollUp  key.Binding
	ScrollDn  key.Binding
	Quit      key.Binding
}

var Keys = KeyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	Reconnect: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("C-r", "reconnect"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("C-s", "refresh status"),
	),
	Clear: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("C-l", "clear"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "scroll up"),
	),
	ScrollDn: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "scroll down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
}

// ShortHelp lists the bindings shown in the footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Reconnect, k.Refresh, k.Clear, k.Quit}
}
