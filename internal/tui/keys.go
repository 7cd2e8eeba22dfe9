package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left        key.Binding
	Right       key.Binding
	CoarseLeft  key.Binding
	CoarseRight key.Binding
	Switch      key.Binding
	Replay      key.Binding
	Next        key.Binding
	Finish      key.Binding
	Begin       key.Binding
	Abort       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "adjust")),
		Right:       key.NewBinding(key.WithKeys("right", "l")),
		CoarseLeft:  key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("shift+←/→", "adjust ×10")),
		CoarseRight: key.NewBinding(key.WithKeys("shift+right", "L")),
		Switch:      key.NewBinding(key.WithKeys("tab", "shift+tab", "up", "down"), key.WithHelp("tab", "switch A/B")),
		Replay:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "replay video")),
		Next:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		Finish:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "finish")),
		Begin:       key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "begin")),
		Abort:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "abort")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.CoarseLeft, k.Switch, k.Replay, k.Next, k.Finish, k.Abort}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.CoarseLeft, k.Switch},
		{k.Replay, k.Next, k.Finish, k.Abort},
	}
}
