package dashboard

import (
	"testing"

	"github.com/charmbracelet/bubbles/help"
)

func TestPageHelp_OwnBindingsThenGlobals(t *testing.T) {
	// Given: help for a page with its own bindings
	km := pageHelp(keys.Up, keys.Down)
	allKeys := collectKeys(km.ShortHelp())

	// Then: both the page keys and the global keys are present
	for _, want := range []string{"up", "down", "1", "2", "3", "o", "r", "q"} {
		if !containsKey(allKeys, want) {
			t.Errorf("page help missing key %q, got %v", want, allKeys)
		}
	}
	if groups := km.FullHelp(); len(groups) != 2 || len(groups[0]) != 2 {
		t.Errorf("FullHelp groups = %v, want own bindings first", groups)
	}
}

func TestFormHelp_HasNoGlobals(t *testing.T) {
	// Given: help for a form
	allKeys := collectKeys(formHelp().ShortHelp())

	// Then: tab, enter and esc are listed but not page shortcuts
	for _, want := range []string{"tab", "enter", "esc"} {
		if !containsKey(allKeys, want) {
			t.Errorf("form help missing key %q", want)
		}
	}
	if containsKey(allKeys, "q") {
		t.Error("form help should not list q while typing")
	}
}

func TestLoginHelp_ListsResetLink(t *testing.T) {
	// Given: help for the login page
	allKeys := collectKeys(loginHelp().ShortHelp())

	// Then: the reset shortcut is present
	if !containsKey(allKeys, "ctrl+r") {
		t.Errorf("login help missing ctrl+r, got %v", allKeys)
	}
}

func TestConfirmHelp_YesNo(t *testing.T) {
	// Given: help for a confirmation prompt
	allKeys := collectKeys(confirmHelp().ShortHelp())

	// Then: only y and n/esc are offered
	if !containsKey(allKeys, "y") || !containsKey(allKeys, "n") {
		t.Errorf("confirm help = %v, want y and n", allKeys)
	}
	if containsKey(allKeys, "d") {
		t.Error("confirm help should not list delete")
	}
}

func TestHelpMaps_ImplementKeyMap(t *testing.T) {
	// Then: every help constructor satisfies help.KeyMap
	for name, km := range map[string]help.KeyMap{
		"page":    pageHelp(),
		"form":    formHelp(),
		"login":   loginHelp(),
		"confirm": confirmHelp(),
	} {
		if len(km.ShortHelp()) == 0 {
			t.Errorf("%s help has no bindings", name)
		}
	}
}
