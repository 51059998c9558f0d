package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// field is one labeled text input of a form.
type field struct {
	label string
	input textinput.Model
}

// form is an ordered set of text inputs with one focused at a time.
type form struct {
	fields []field
	focus  int
}

func newForm(labels ...string) form {
	f := form{fields: make([]field, len(labels))}
	for i, l := range labels {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		f.fields[i] = field{label: l, input: in}
	}
	if len(f.fields) > 0 {
		f.fields[0].input.Focus()
	}
	return f
}

// value returns the trimmed content of field i.
func (f form) value(i int) string {
	return strings.TrimSpace(f.fields[i].input.Value())
}

// raw returns the untrimmed content of field i, for passwords.
func (f form) raw(i int) string {
	return f.fields[i].input.Value()
}

func (f *form) set(i int, v string) {
	f.fields[i].input.SetValue(v)
}

func (f *form) mask(i int) {
	f.fields[i].input.EchoMode = textinput.EchoPassword
	f.fields[i].input.EchoCharacter = '•'
}

func (f *form) placeholder(i int, p string) {
	f.fields[i].input.Placeholder = p
}

func (f *form) move(delta int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	f.fields[f.focus].input.Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	return f.fields[f.focus].input.Focus()
}

// update moves focus on field navigation keys and otherwise feeds msg to
// the focused input.
func (f form) update(msg tea.Msg) (form, tea.Cmd) {
	if len(f.fields) == 0 {
		return f, nil
	}
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.NextField):
			cmd := f.move(1)
			return f, cmd
		case key.Matches(km, keys.PrevField):
			cmd := f.move(-1)
			return f, cmd
		}
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return f, cmd
}

func (f form) view() string {
	width := 0
	for _, fl := range f.fields {
		width = max(width, len(fl.label))
	}
	var b strings.Builder
	for i, fl := range f.fields {
		marker := "  "
		if i == f.focus {
			marker = CursorMarker
		}
		fmt.Fprintf(&b, "%s%-*s  %s\n", marker, width, fl.label, fl.input.View())
	}
	return b.String()
}
