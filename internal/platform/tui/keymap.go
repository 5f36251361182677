package tui

import "github.com/charmbracelet/bubbles/key"

// BattleKeyMap defines the key bindings for the live battle screen.
type BattleKeyMap struct {
	Accept  key.Binding
	Decline key.Binding
	Up      key.Binding
	Down    key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k BattleKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k BattleKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Accept, k.Decline},
		{k.Up, k.Down, k.Quit},
	}
}

// DefaultBattleKeyMap returns default key bindings.
func DefaultBattleKeyMap() BattleKeyMap {
	return BattleKeyMap{
		Accept: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "accept"),
		),
		Decline: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "decline"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// RouletteKeyMap defines the key bindings for the roulette screen.
type RouletteKeyMap struct {
	Accept    key.Binding
	Decline   key.Binding
	Shoot     key.Binding
	ShootSelf key.Binding
	Pass      key.Binding
	Quit      key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k RouletteKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Shoot, k.ShootSelf, k.Pass, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k RouletteKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Accept, k.Decline},
		{k.Shoot, k.ShootSelf, k.Pass},
		{k.Quit},
	}
}

// DefaultRouletteKeyMap returns default key bindings.
func DefaultRouletteKeyMap() RouletteKeyMap {
	return RouletteKeyMap{
		Accept: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "accept"),
		),
		Decline: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "decline"),
		),
		Shoot: key.NewBinding(
			key.WithKeys("s", "enter"),
			key.WithHelp("s", "shoot opponent"),
		),
		ShootSelf: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "shoot self"),
		),
		Pass: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pass"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
