package main

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	SubmitMessage      key.Binding
	ToggleRecording    key.Binding
	ManualPlay         key.Binding
	NewConversation    key.Binding
	NextConversation   key.Binding
	DeleteConversation key.Binding
	ClearHistory       key.Binding
	ToggleVoice        key.Binding
	ScrollUp           key.Binding
	ScrollDown         key.Binding
	Quit               key.Binding
}

var DefaultKeyMap = KeyMap{
	SubmitMessage:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
	ToggleRecording:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "record")),
	ManualPlay:         key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "play")),
	NewConversation:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new")),
	NextConversation:   key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "next")),
	DeleteConversation: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "delete")),
	ClearHistory:       key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "clear")),
	ToggleVoice:        key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "voice")),
	ScrollUp:           key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
	ScrollDown:         key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdown", "scroll down")),
	Quit:               key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.SubmitMessage, k.ToggleRecording, k.ManualPlay, k.NewConversation,
		k.NextConversation, k.DeleteConversation, k.ClearHistory, k.ToggleVoice, k.Quit,
	}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.ScrollUp, k.ScrollDown}}
}
