package dashboard

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every key binding of the dashboard. Screens match against
// the package-level keys value.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Edit     key.Binding
	New      key.Binding
	Delete   key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Back     key.Binding
	Refresh  key.Binding

	Dashboard key.Binding
	Events    key.Binding
	Users     key.Binding
	Logout    key.Binding
	Quit      key.Binding

	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
	Cancel    key.Binding
	ResetLink key.Binding

	Confirm key.Binding
	Deny    key.Binding
}

var keys = DefaultKeyMap()

// DefaultKeyMap returns the dashboard key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next page"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "dashboard"),
		),
		Events: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "events"),
		),
		Users: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "users"),
		),
		Logout: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "logout"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		ResetLink: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "forgot password"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
	}
}

// bindingHelp is a help.KeyMap over a fixed set of bindings.
type bindingHelp struct {
	groups [][]key.Binding
}

// ShortHelp returns every binding in one row.
func (h bindingHelp) ShortHelp() []key.Binding {
	var all []key.Binding
	for _, g := range h.groups {
		all = append(all, g...)
	}
	return all
}

// FullHelp returns the bindings grouped for expanded help.
func (h bindingHelp) FullHelp() [][]key.Binding {
	return h.groups
}
