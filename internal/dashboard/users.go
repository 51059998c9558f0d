package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/eventadmin/internal/api"
	"github.com/smileynet/eventadmin/internal/nav"
	"github.com/smileynet/eventadmin/internal/query"
)

// User list messages.
const (
	MsgConfirmDelete = "Are you sure you want to delete this user? This will also remove them from all registered events."
	MsgUserDeleted   = "User deleted successfully!"
	MsgDeleteFailed  = "Failed to delete user: "
)

// usersState lists users and owns the delete confirmation.
type usersState struct {
	d          *deps
	entry      query.Entry
	cursor     int
	confirming *api.User
	deleting   bool
	notice     string
	failed     bool
}

func newUsersState(d *deps) usersState {
	return usersState{d: d}
}

func (s usersState) keys() []query.Key { return []query.Key{usersKey()} }

func (s usersState) apply(e query.Entry) screen {
	s.entry = e
	if n := len(s.users()); s.cursor >= n {
		s.cursor = max(n-1, 0)
	}
	return s
}

// typing holds every key while the delete prompt is open.
func (s usersState) typing() bool { return s.confirming != nil }

func (s usersState) help() help.KeyMap {
	if s.confirming != nil {
		return confirmHelp()
	}
	return pageHelp(keys.Up, keys.Down, keys.Edit, keys.New, keys.Delete)
}

func (s usersState) users() []api.User {
	users, _ := query.Value[[]api.User](s.entry)
	return users
}

func (s usersState) selected() (api.User, bool) {
	users := s.users()
	if s.cursor < 0 || s.cursor >= len(users) {
		return api.User{}, false
	}
	return users[s.cursor], true
}

func (s usersState) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case MutationMsg:
		if msg.Kind != query.DeleteUser {
			return s, nil
		}
		s.deleting = false
		if msg.Err != nil {
			s.notice, s.failed = MsgDeleteFailed+msg.Err.Error(), true
		} else {
			s.notice, s.failed = MsgUserDeleted, false
		}
		return s, nil

	case tea.KeyMsg:
		if s.deleting {
			return s, nil
		}
		if s.confirming != nil {
			return s.confirm(msg)
		}
		s.notice = ""
		users := s.users()
		switch {
		case key.Matches(msg, keys.Up):
			if len(users) > 0 {
				s.cursor = (s.cursor - 1 + len(users)) % len(users)
			}
		case key.Matches(msg, keys.Down):
			if len(users) > 0 {
				s.cursor = (s.cursor + 1) % len(users)
			}
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Open):
			if u, ok := s.selected(); ok {
				return s, navigate(nav.PageEditUser, nav.Params{UserID: strconv.FormatInt(u.ID, 10)})
			}
		case key.Matches(msg, keys.New):
			return s, navigate(nav.PageCreateUser, nav.Params{})
		case key.Matches(msg, keys.Delete):
			if u, ok := s.selected(); ok {
				s.confirming = &u
			}
		}
	}
	return s, nil
}

// confirm handles keys while the delete prompt is open.
func (s usersState) confirm(km tea.KeyMsg) (screen, tea.Cmd) {
	switch {
	case key.Matches(km, keys.Confirm):
		id := strconv.FormatInt(s.confirming.ID, 10)
		s.confirming = nil
		s.deleting = true
		b := s.d.backend
		return s, s.d.write(query.DeleteUser, func(ctx context.Context) (any, error) {
			return b.DeleteUser(ctx, id)
		})
	case key.Matches(km, keys.Deny):
		s.confirming = nil
	}
	return s, nil
}

func (s usersState) view(width int, spin string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Users"))
	b.WriteString("\n\n")

	if ph, ok := placeholder(s.entry, spin, "Loading users...", "Error loading users data."); ok {
		b.WriteString(ph)
		return b.String()
	}

	users := s.users()
	if len(users) == 0 {
		b.WriteString(mutedText.Render("No users found in the system."))
		b.WriteString("\n\nPress n to create a user")
	} else {
		col := max(12, min(28, (width-24)/2))
		fmt.Fprintf(&b, "  %-*s  %-*s  %-6s  %s\n", col, "Name", col, "Email", "Role", "Invitation")
		for i, u := range users {
			marker := "  "
			name := fmt.Sprintf("%-*s", col, truncate(u.Username, col))
			if i == s.cursor {
				marker = CursorMarker
				name = selectedItem.Render(name)
			}
			fmt.Fprintf(&b, "%s%s  %-*s  %-6s  %s\n", marker, name, col, truncate(u.Email, col), u.Role, InvitationBadge(u.Invitation))
		}
	}

	switch {
	case s.confirming != nil:
		fmt.Fprintf(&b, "\n%s\n%s", headerStyle.Render("Delete "+s.confirming.Username+"?"), MsgConfirmDelete)
		b.WriteString("\n" + mutedText.Render("y to confirm, n to cancel"))
	case s.deleting:
		b.WriteString("\n" + spin + " Deleting...")
	case s.notice != "" && s.failed:
		b.WriteString("\n" + errorText.Render(s.notice))
	case s.notice != "":
		b.WriteString("\n" + successText.Render(s.notice))
	}
	if note := freshness(s.entry); note != "" {
		b.WriteString("\n" + note)
	}
	return b.String()
}
