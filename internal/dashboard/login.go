package dashboard

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/eventadmin/internal/nav"
	"github.com/smileynet/eventadmin/internal/query"
)

// User-visible auth messages.
const (
	MsgLoginFailed       = "Invalid email or password"
	MsgCredentials       = "Email and password are required"
	MsgResetSent         = "If an account with that email exists, a password reset link has been sent."
	MsgResetFailed       = "Failed to send reset link. Please check the email."
	MsgResetEmailMissing = "Email is required"
)

const (
	loginEmail = iota
	loginPassword
)

// loginState is the login page.
type loginState struct {
	d          *deps
	form       form
	err        string
	submitting bool
}

func newLoginState(d *deps) loginState {
	f := newForm("Email", "Password")
	f.mask(loginPassword)
	f.placeholder(loginEmail, "admin@example.com")
	return loginState{d: d, form: f}
}

func (s loginState) keys() []query.Key      { return nil }
func (s loginState) apply(query.Entry) screen { return s }
func (s loginState) typing() bool           { return true }
func (s loginState) help() help.KeyMap      { return loginHelp() }

func (s loginState) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case LoginResultMsg:
		s.submitting = false
		if !msg.OK {
			s.err = MsgLoginFailed
			s.form.set(loginPassword, "")
		}
		return s, nil

	case tea.KeyMsg:
		if s.submitting {
			return s, nil
		}
		switch {
		case key.Matches(msg, keys.ResetLink):
			return s, navigate(nav.PageResetPassword, nav.Params{})
		case key.Matches(msg, keys.Submit):
			email, password := s.form.value(loginEmail), s.form.raw(loginPassword)
			if email == "" || password == "" {
				s.err = MsgCredentials
				return s, nil
			}
			s.err = ""
			s.submitting = true
			d := s.d
			return s, func() tea.Msg {
				return LoginResultMsg{OK: d.session.Login(d.ctx, email, password)}
			}
		}
	}
	var cmd tea.Cmd
	s.form, cmd = s.form.update(msg)
	return s, cmd
}

func (s loginState) view(_ int, spin string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Admin Login"))
	b.WriteString("\n\n")
	b.WriteString(s.form.view())
	b.WriteByte('\n')
	switch {
	case s.submitting:
		b.WriteString(spin + " Signing in...")
	case s.err != "":
		b.WriteString(errorText.Render(s.err))
	}
	b.WriteString("\n\n")
	b.WriteString(mutedText.Render("Forgot password? Press ctrl+r"))
	return b.String()
}

// resetState is the reset-password page.
type resetState struct {
	d          *deps
	form       form
	message    string
	err        string
	submitting bool
}

func newResetState(d *deps) resetState {
	return resetState{d: d, form: newForm("Email Address")}
}

func (s resetState) keys() []query.Key      { return nil }
func (s resetState) apply(query.Entry) screen { return s }
func (s resetState) typing() bool           { return true }
func (s resetState) help() help.KeyMap {
	return bindingHelp{groups: [][]key.Binding{{keys.Submit, keys.Back}}}
}

func (s resetState) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case ResetResultMsg:
		s.submitting = false
		if msg.OK {
			s.message = MsgResetSent
		} else {
			s.err = MsgResetFailed
		}
		return s, nil

	case tea.KeyMsg:
		if s.submitting {
			return s, nil
		}
		switch {
		case key.Matches(msg, keys.Back):
			return s, navigate(nav.PageLogin, nav.Params{})
		case key.Matches(msg, keys.Submit):
			email := s.form.value(0)
			s.message, s.err = "", ""
			if email == "" {
				s.err = MsgResetEmailMissing
				return s, nil
			}
			s.submitting = true
			d := s.d
			return s, func() tea.Msg {
				return ResetResultMsg{OK: d.session.ResetPassword(d.ctx, email)}
			}
		}
	}
	var cmd tea.Cmd
	s.form, cmd = s.form.update(msg)
	return s, cmd
}

func (s resetState) view(_ int, spin string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Reset Password"))
	b.WriteString("\n\n")
	b.WriteString(s.form.view())
	b.WriteByte('\n')
	switch {
	case s.submitting:
		b.WriteString(spin + " Sending...")
	case s.message != "":
		b.WriteString(successText.Render(s.message))
	case s.err != "":
		b.WriteString(errorText.Render(s.err))
	}
	b.WriteString("\n\n")
	b.WriteString(mutedText.Render("Press esc to return to login"))
	return b.String()
}
