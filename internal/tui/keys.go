package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Approve  key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Search   key.Binding
	Refresh  key.Binding
	Filter   key.Binding
	Agents   key.Binding
	QueueTab key.Binding
	ChatTab  key.Binding
	Voice    key.Binding
	StopTTS  key.Binding
	Quit     key.Binding
	Cancel   key.Binding
	Confirm  key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Approve:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "approve")),
	Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Filter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	Agents:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "agents")),
	QueueTab: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "queue")),
	ChatTab:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "chat")),
	Voice:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "auto-play")),
	StopTTS:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop voice")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Confirm:  key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "confirm")),
}
