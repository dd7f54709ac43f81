package model

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Exit     key.Binding
	Clear    key.Binding
	Pause    key.Binding
	Search   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Bottom   key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Exit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "exit")),
		Clear:    key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		Pause:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "down")),
		Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end", "follow")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Exit, k.Clear, k.Pause, k.Search, k.PageUp, k.PageDown, k.Bottom}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
