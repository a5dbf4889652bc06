package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	selected key.Binding
	write    key.Binding
	save     key.Binding
	rescan   key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "songs")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		selected: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "selected only")),
		write:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "write files")),
		save:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "save to history")),
		rescan:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.selected, k.write, k.save},
		{k.rescan, k.quit},
	}
}
