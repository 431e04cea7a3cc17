package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Tab       key.Binding
	Enter     key.Binding
	Add       key.Binding
	Done      key.Binding
	Delete    key.Binding
	Edit      key.Binding
	Project   key.Binding
	Rename    key.Binding
	Completed key.Binding
	MoveUp    key.Binding
	MoveDown  key.Binding
	Help      key.Binding
	Quit      key.Binding
	Escape    key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left pane")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right pane")),
	Tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select/toggle")),
	Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
	Done:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle done")),
	Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit task")),
	Project:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "new project")),
	Rename:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename project")),
	Completed: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "show completed")),
	MoveUp:    key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "move project up")),
	MoveDown:  key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "move project down")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}
