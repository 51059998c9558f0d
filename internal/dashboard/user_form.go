package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/eventadmin/internal/api"
	"github.com/smileynet/eventadmin/internal/nav"
	"github.com/smileynet/eventadmin/internal/query"
)

// userFormState creates a user, or edits one when id is set. The
// password field exists only on create.
type userFormState struct {
	d          *deps
	id         string
	userID     int64
	form       form
	fields     userFields
	entry      query.Entry
	loaded     bool
	err        string
	submitting bool
}

// userFields maps form rows to inputs; password is -1 when absent.
type userFields struct {
	username, email, mobile, password, role int
}

func newUserFormState(d *deps, id string) userFormState {
	var f form
	var uf userFields
	if id == "" {
		f = newForm("Username", "Email", "Mobile", "Password", "Role")
		uf = userFields{username: 0, email: 1, mobile: 2, password: 3, role: 4}
		f.mask(uf.password)
	} else {
		f = newForm("Username", "Email", "Mobile", "Role")
		uf = userFields{username: 0, email: 1, mobile: 2, password: -1, role: 3}
	}
	f.placeholder(uf.role, "USER or ADMIN")
	f.set(uf.role, string(api.RoleUser))
	return userFormState{d: d, id: id, form: f, fields: uf}
}

func (s userFormState) editing() bool { return s.id != "" }

func (s userFormState) keys() []query.Key {
	if !s.editing() {
		return nil
	}
	return []query.Key{userKey(s.id)}
}

func (s userFormState) apply(e query.Entry) screen {
	s.entry = e
	if s.loaded {
		return s
	}
	if u, ok := query.Value[api.User](e); ok {
		s.userID = u.ID
		s.form.set(s.fields.username, u.Username)
		s.form.set(s.fields.email, u.Email)
		s.form.set(s.fields.mobile, u.Mobile)
		s.form.set(s.fields.role, string(u.Role))
		s.loaded = true
	}
	return s
}

func (s userFormState) typing() bool      { return true }
func (s userFormState) help() help.KeyMap { return formHelp() }

func (s userFormState) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case MutationMsg:
		if msg.Kind != query.CreateUser && msg.Kind != query.UpdateUser {
			return s, nil
		}
		s.submitting = false
		if msg.Err != nil {
			s.err = msg.Err.Error()
			return s, nil
		}
		return s, navigate(nav.PageUsers, nav.Params{})

	case tea.KeyMsg:
		if s.submitting {
			return s, nil
		}
		switch {
		case key.Matches(msg, keys.Cancel):
			return s, navigate(nav.PageUsers, nav.Params{})
		case key.Matches(msg, keys.Submit):
			if s.editing() && !s.loaded {
				return s, nil
			}
			in, err := s.input()
			if err != nil {
				s.err = err.Error()
				return s, nil
			}
			s.err = ""
			s.submitting = true
			kind := query.CreateUser
			if in.ID != nil {
				kind = query.UpdateUser
			}
			b := s.d.backend
			return s, s.d.write(kind, func(ctx context.Context) (any, error) {
				return b.UpsertUser(ctx, in)
			})
		}
	}
	var cmd tea.Cmd
	s.form, cmd = s.form.update(msg)
	return s, cmd
}

// input validates the form and builds the upsert body.
func (s userFormState) input() (api.UserInput, error) {
	in := api.UserInput{
		Username: s.form.value(s.fields.username),
		Email:    s.form.value(s.fields.email),
		Mobile:   s.form.value(s.fields.mobile),
		Role:     api.Role(strings.ToUpper(s.form.value(s.fields.role))),
	}
	if s.editing() {
		id := s.userID
		in.ID = &id
	}
	switch {
	case in.Username == "":
		return in, errors.New("username is required")
	case in.Email == "":
		return in, errors.New("email is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return in, fmt.Errorf("invalid email %q", in.Email)
	}
	if in.Role != api.RoleUser && in.Role != api.RoleAdmin {
		return in, fmt.Errorf("role must be %s or %s", api.RoleUser, api.RoleAdmin)
	}
	if s.fields.password >= 0 {
		in.Password = s.form.raw(s.fields.password)
		if in.Password == "" {
			return in, errors.New("password is required")
		}
	}
	return in, nil
}

func (s userFormState) view(_ int, spin string) string {
	title := "Create User"
	if s.editing() {
		title = "Edit User"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	if s.editing() && !s.loaded {
		ph, _ := placeholder(s.entry, spin, "Loading user...", "Failed to load user")
		b.WriteString(ph)
		return b.String()
	}
	b.WriteString(s.form.view())
	b.WriteByte('\n')
	switch {
	case s.submitting:
		b.WriteString(spin + " Saving...")
	case s.err != "":
		b.WriteString(errorText.Render(s.err))
	}
	return b.String()
}

// invalidState renders a page that was requested without its id.
type invalidState struct {
	page nav.Invalid
}

func (s invalidState) keys() []query.Key              { return nil }
func (s invalidState) apply(query.Entry) screen         { return s }
func (s invalidState) typing() bool                     { return false }
func (s invalidState) help() help.KeyMap                { return pageHelp() }
func (s invalidState) update(tea.Msg) (screen, tea.Cmd) { return s, nil }

func (s invalidState) view(int, string) string {
	return errorText.Render(s.page.Reason)
}
