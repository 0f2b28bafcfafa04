package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	Help     key.Binding
	Cancel   key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Timebox  key.Binding
	Kanban   key.Binding
	Sidebar  key.Binding
	Up       key.Binding
	Down     key.Binding
	PrevAct  key.Binding
	NextAct  key.Binding
	PrevWeek key.Binding
	NextWeek key.Binding
	Complete key.Binding
	Delete   key.Binding
	Add      key.Binding
	Reset    key.Binding
	Theme    key.Binding
	Yank     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag")),
		NextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		PrevTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev view")),
		Timebox:  key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "timebox")),
		Kanban:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "todos")),
		Sidebar:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "sidebar")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
		PrevAct:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev activity")),
		NextAct:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next activity")),
		PrevWeek: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev week")),
		NextWeek: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next week")),
		Complete: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "toggle done")),
		Delete:   key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
		Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add card")),
		Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset order")),
		Theme:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "dark sidebar")),
		Yank:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy snapshot")),
	}
}

// viewKeys narrows the bindings shown in the help line to one view.
type viewKeys struct {
	km   keyMap
	view string
}

func (v viewKeys) ShortHelp() []key.Binding {
	switch v.view {
	case viewKanban:
		return []key.Binding{v.km.Add, v.km.Delete, v.km.NextTab, v.km.Help, v.km.Quit}
	case viewSidebar:
		return []key.Binding{v.km.Reset, v.km.Theme, v.km.NextTab, v.km.Help, v.km.Quit}
	default:
		return []key.Binding{v.km.PrevAct, v.km.NextAct, v.km.PrevWeek, v.km.NextWeek, v.km.Complete, v.km.Delete, v.km.Help, v.km.Quit}
	}
}

func (v viewKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{v.km.NextTab, v.km.PrevTab, v.km.Timebox, v.km.Kanban, v.km.Sidebar},
		{v.km.PrevAct, v.km.NextAct, v.km.PrevWeek, v.km.NextWeek, v.km.Up, v.km.Down},
		{v.km.Complete, v.km.Delete, v.km.Add, v.km.Reset, v.km.Theme},
		{v.km.Cancel, v.km.Yank, v.km.Help, v.km.Quit},
	}
}
