package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sadopc/oraterm/internal/schema"
)

// KeyMap defines all application keybindings.
type KeyMap struct {
	// Navigation
	FocusNext key.Binding
	FocusPrev key.Binding
	Close     key.Binding

	// Browsing
	Search       key.Binding
	ToggleType   [5]key.Binding
	OnlyPrograms key.Binding
	OnlyPackages key.Binding
	PickSchema   key.Binding
	Refresh      key.Binding

	// Output
	Copy   key.Binding
	Export key.Binding

	// SQL panel
	ToggleSQL    key.Binding
	ExecuteQuery key.Binding
	CancelQuery  key.Binding
	History      key.Binding
	Complete     key.Binding

	// App
	Quit key.Binding
	Help key.Binding
}

// DefaultKeyMap returns the keybindings of the explorer.
func DefaultKeyMap() KeyMap {
	km := KeyMap{
		FocusNext: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next pane"),
		),
		FocusPrev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev pane"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close / clear search"),
		),
		Search: key.NewBinding(
			key.WithKeys("/", "ctrl+s"),
			key.WithHelp("/", "search"),
		),
		OnlyPrograms: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "procedures + functions"),
		),
		OnlyPackages: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("ctrl+k", "packages + bodies"),
		),
		PickSchema: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "switch schema"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "refresh"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy as markdown"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "export rows to CSV"),
		),
		ToggleSQL: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "SQL panel"),
		),
		ExecuteQuery: key.NewBinding(
			key.WithKeys("ctrl+enter", "f5", "ctrl+g"),
			key.WithHelp("f5/ctrl+g", "run statement"),
		),
		CancelQuery: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "cancel statement"),
		),
		History: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "statement history"),
		),
		Complete: key.NewBinding(
			key.WithKeys("ctrl+@"),
			key.WithHelp("ctrl+space", "complete"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
	}
	for i, t := range schema.ObjectTypes {
		n := string(rune('1' + i))
		km.ToggleType[i] = key.NewBinding(
			key.WithKeys(n),
			key.WithHelp(n, "toggle "+strings.ToLower(t.String())),
		)
	}
	return km
}

// typeForKey returns the object type toggled by k.
func (k KeyMap) typeForKey(s string) (schema.ObjectType, bool) {
	for i, b := range k.ToggleType {
		for _, bk := range b.Keys() {
			if bk == s {
				return schema.ObjectTypes[i], true
			}
		}
	}
	return 0, false
}

// ShortHelp returns a subset of keybindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Search, k.PickSchema, k.ToggleSQL, k.FocusNext, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.PickSchema, k.Refresh, k.OnlyPrograms, k.OnlyPackages},
		k.ToggleType[:],
		{k.ToggleSQL, k.ExecuteQuery, k.CancelQuery, k.History, k.Complete},
		{k.Copy, k.Export, k.FocusNext, k.FocusPrev, k.Close, k.Help, k.Quit},
	}
}
