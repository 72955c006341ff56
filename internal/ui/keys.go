package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the dashboard.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Refresh    key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding

	// View switching
	ViewOverview  key.Binding
	ViewFriends   key.Binding
	ViewRevisions key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Revision outcomes
	Solved      key.Binding
	SolvedHints key.Binding
	Failed      key.Binding
	Skip        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh now"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next view"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous view"),
		),

		ViewOverview: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Overview"),
		),
		ViewFriends: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Friends"),
		),
		ViewRevisions: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Revisions"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		Solved: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Solved"),
		),
		SolvedHints: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Solved with hints"),
		),
		Failed: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Failed"),
		),
		Skip: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Skip"),
		),
	}
}

// ShortHelp returns key bindings for the command bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Tab, k.Help, k.Quit}
}

// FullHelp returns key bindings for the help overlay, one group per section.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.ViewOverview, k.ViewFriends, k.ViewRevisions},
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Solved, k.SolvedHints, k.Failed, k.Skip},
		{k.Refresh, k.CycleTheme, k.Help, k.Quit},
	}
}
