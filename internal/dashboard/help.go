package dashboard

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// globalBindings are available on every authenticated page that is not
// capturing text.
func globalBindings() []key.Binding {
	return []key.Binding{keys.Dashboard, keys.Events, keys.Users, keys.Refresh, keys.Logout, keys.Quit}
}

// pageHelp returns help for a browsing page: its own bindings first,
// then the global ones.
func pageHelp(own ...key.Binding) help.KeyMap {
	return bindingHelp{groups: [][]key.Binding{own, globalBindings()}}
}

// formHelp returns help for a page with focused text inputs.
func formHelp() help.KeyMap {
	return bindingHelp{groups: [][]key.Binding{
		{keys.NextField, keys.PrevField},
		{keys.Submit, keys.Cancel},
	}}
}

// loginHelp returns help for the login page.
func loginHelp() help.KeyMap {
	return bindingHelp{groups: [][]key.Binding{
		{keys.NextField, keys.Submit},
		{keys.ResetLink},
	}}
}

// confirmHelp returns help while a confirmation prompt is open.
func confirmHelp() help.KeyMap {
	return bindingHelp{groups: [][]key.Binding{{keys.Confirm, keys.Deny}}}
}
