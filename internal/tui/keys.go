package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Inc      key.Binding
	Dec      key.Binding
	Rename   key.Binding
	Split    key.Binding
	Collapse key.Binding
	Add      key.Binding
	Remove   key.Binding
	Copy     key.Binding
	Edit     key.Binding
	Save     key.Binding
	Cancel   key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Inc:      key.NewBinding(key.WithKeys("+", "=", "right", "l"), key.WithHelp("+", "more")),
	Dec:      key.NewBinding(key.WithKeys("-", "left", "h"), key.WithHelp("-", "less")),
	Rename:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
	Split:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "split")),
	Collapse: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "merge")),
	Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Remove:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
	Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy message")),
	Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit json")),
	Save:     key.NewBinding(key.WithKeys("enter", "ctrl+s"), key.WithHelp("enter", "save")),
	Cancel:   key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("esc", "cancel")),
}

func (k keyMap) helpLine() string {
	bs := []key.Binding{k.Up, k.Down, k.Inc, k.Dec, k.Rename, k.Split, k.Collapse, k.Add, k.Remove, k.Copy, k.Edit, k.Save, k.Cancel}
	out := ""
	for i, b := range bs {
		if i > 0 {
			out += "  "
		}
		h := b.Help()
		out += h.Key + " " + h.Desc
	}
	return out
}
