package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the player's key bindings.
type keyMap struct {
	Toggle      key.Binding
	Stop        key.Binding
	SkipBack    key.Binding
	SkipForward key.Binding
	PrevChapter key.Binding
	NextChapter key.Binding
	PrevItem    key.Binding
	NextItem    key.Binding
	SlowDown    key.Binding
	SpeedUp     key.Binding
	Repeat      key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Stop:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		SkipBack:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "skip back")),
		SkipForward: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "skip ahead")),
		PrevChapter: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev chapter")),
		NextChapter: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next chapter")),
		PrevItem:    key.NewBinding(key.WithKeys("P", "["), key.WithHelp("P", "prev document")),
		NextItem:    key.NewBinding(key.WithKeys("N", "]"), key.WithHelp("N", "next document")),
		SlowDown:    key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "slower")),
		SpeedUp:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
		Repeat:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat mode")),
		Top:         key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:      key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp is the single-line hint shown under the status bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.SkipBack, k.SkipForward, k.NextChapter, k.Help, k.Quit}
}

// FullHelp is the expanded help grid.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Stop, k.SkipBack, k.SkipForward},
		{k.PrevChapter, k.NextChapter, k.PrevItem, k.NextItem},
		{k.SlowDown, k.SpeedUp, k.Repeat},
		{k.Top, k.Bottom, k.Help, k.Quit},
	}
}
