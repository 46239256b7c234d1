package shared

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the TUI
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Escape   key.Binding
	Quit     key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Chat     key.Binding
	Filter   key.Binding
	Reviewed key.Binding
	Edit     key.Binding
	Story    key.Binding
	Refresh  key.Binding
	Confirm  key.Binding
	Cancel   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "open"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("Tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-Tab", "previous tab"),
		),
		Chat: key.NewBinding(
			key.WithKeys("i", "c"),
			key.WithHelp("i", "chat"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Reviewed: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "mark reviewed"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit section"),
		),
		Story: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "create story"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R", "ctrl+r"),
			key.WithHelp("R", "reload"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "apply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "discard"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+b"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+f"),
			key.WithHelp("PgDn", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("Home/g", "top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("End/G", "bottom"),
		),
	}
}

// OverviewHelp returns help text for the overview tab
func OverviewHelp() string {
	return " [Tab] next tab  [i] chat  [R] reload  [q] quit"
}

// SectionsHelp returns help text for the BRD sections list
func SectionsHelp(approved bool) string {
	if approved {
		return " [↑/k] up  [↓/j] down  [i] chat  [Tab] next tab  [q] quit"
	}
	return " [↑/k] up  [↓/j] down  [r] mark reviewed  [e] edit section  [i] chat  [q] quit"
}

// PagesHelp returns help text for the wiki pages list
func PagesHelp() string {
	return " [↑/k] up  [↓/j] down  [Enter] open  [s] create story  [i] chat  [q] quit"
}

// IssuesHelp returns help text for the Jira issues list
func IssuesHelp() string {
	return " [↑/k] up  [↓/j] down  [Enter] details  [/] filter  [i] chat  [q] quit"
}

// FilterHelp returns help text while typing a filter
func FilterHelp() string {
	return " [Enter] keep filter  [Esc] clear"
}

// ChatHelp returns help text while the chat input is focused
func ChatHelp(busy bool) string {
	if busy {
		return " waiting for reply...  [Esc] back"
	}
	return " [Enter] send  [Esc] back"
}

// DetailHelp returns help text for a detail modal
func DetailHelp() string {
	return " [↑/↓] scroll  [Esc] close"
}

// DiffPreviewHelp returns help text for the diff preview modal
func DiffPreviewHelp() string {
	return " [y] apply edit  [n/Esc] discard"
}
