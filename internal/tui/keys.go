package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextTab   key.Binding
	PrevTab   key.Binding
	PrevChip  key.Binding
	NextChip  key.Binding
	Open      key.Binding
	DateRange key.Binding
	Clear     key.Binding
	Apply     key.Binding
	Reset     key.Binding
	Help      key.Binding
	Quit      key.Binding

	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Close  key.Binding
	Submit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		PrevChip:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "filter")),
		NextChip:  key.NewBinding(key.WithKeys("right", "l")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit filter")),
		DateRange: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "date range")),
		Clear:     key.NewBinding(key.WithKeys("x", "backspace"), key.WithHelp("x", "clear filter")),
		Apply:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "apply")),
		Reset:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Up:     key.NewBinding(key.WithKeys("up", "ctrl+k"), key.WithHelp("↑/↓", "move")),
		Down:   key.NewBinding(key.WithKeys("down", "ctrl+j")),
		Toggle: key.NewBinding(key.WithKeys("tab", "ctrl+@"), key.WithHelp("tab", "toggle")),
		Close:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "done")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.PrevChip, k.Open, k.DateRange, k.Apply, k.Reset, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab},
		{k.PrevChip, k.Open, k.Clear},
		{k.DateRange, k.Apply, k.Reset},
		{k.Help, k.Quit},
	}
}

// pickerHelp is shown while the option picker is open.
type pickerHelp keyMap

func (k pickerHelp) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Toggle, k.Submit, k.Close}
}

func (k pickerHelp) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }
