package mockapi

import (
	"fmt"
	"time"

	"github.com/smileynet/eventadmin/internal/api"
)

// Account is a seeded user with its login password.
type Account struct {
	User     api.User
	Password string
}

// Data is the content of a Server.
type Data struct {
	Accounts []Account
	Events   []api.EventDetails
}

// Seed admin credentials.
const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "admin123"
)

// Seed returns demo data: an admin, a few users, and eight events around now
// so the event list spans two pages at the default limit.
func Seed(now time.Time) Data {
	now = now.UTC().Truncate(time.Hour)
	users := []Account{
		{User: api.User{ID: 1, Username: "admin", Email: AdminEmail, Role: api.RoleAdmin, Invitation: api.InvitationSent}, Password: AdminPassword},
		{User: api.User{ID: 2, Username: "alice", Email: "alice@example.com", Mobile: "555-0101", Role: api.RoleUser, Invitation: api.InvitationSent}, Password: "alice123"},
		{User: api.User{ID: 3, Username: "bob", Email: "bob@example.com", Mobile: "555-0102", Role: api.RoleUser, Invitation: api.InvitationReady, IsFirstLogin: true}, Password: "bob123"},
		{User: api.User{ID: 4, Username: "carol", Email: "carol@example.com", Role: api.RoleUser, Invitation: api.InvitationSent}, Password: "carol123"},
	}
	for i := range users {
		users[i].User.CreatedAt = now.Add(-30 * 24 * time.Hour)
		users[i].User.UpdatedAt = now.Add(-30 * 24 * time.Hour)
		users[i].User.CreatedBy = api.RoleAdmin
		users[i].User.UpdatedBy = api.RoleAdmin
	}

	types := []string{"Conference", "Workshop", "Meetup", "Webinar"}
	var events []api.EventDetails
	for i := 1; i <= 8; i++ {
		day := now.Add(time.Duration(i-3) * 7 * 24 * time.Hour)
		status := api.EventActive
		if day.Before(now) {
			status = api.EventCompleted
		}
		if i == 8 {
			status = api.EventCancelled
		}
		e := api.EventDetails{
			Event: api.Event{
				ID:               int64(i),
				Name:             fmt.Sprintf("%s #%d", types[i%len(types)], i),
				Description:      "Community gathering for event admins.",
				EventDate:        day,
				StartTime:        day.Add(9 * time.Hour),
				EndTime:          day.Add(17 * time.Hour),
				Address:          fmt.Sprintf("%d Main Street", 100+i),
				EventType:        types[i%len(types)],
				EventStatus:      status,
				OrganizerName:    "Events Team",
				OrganizerContact: "events@example.com",
			},
		}
		for _, a := range users[1:] {
			rs := api.Registered
			if (int(a.User.ID)+i)%4 == 0 {
				rs = api.Unregistered
			}
			e.RegisteredUsers = append(e.RegisteredUsers, api.RegisteredUser{
				ID:                 a.User.ID,
				Username:           a.User.Username,
				Email:              a.User.Email,
				Mobile:             a.User.Mobile,
				RegistrationStatus: rs,
				RegistrationDate:   day.Add(-14 * 24 * time.Hour),
			})
		}
		events = append(events, e)
	}
	return Data{Accounts: users, Events: events}
}

// load replaces the server's content with d.
func (s *Server) load(d Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[int64]*api.User, len(d.Accounts))
	s.password = make(map[int64]string, len(d.Accounts))
	s.events = make(map[int64]*api.EventDetails, len(d.Events))
	s.nextUser, s.nextEvt = 0, 0
	for _, a := range d.Accounts {
		u := a.User
		s.users[u.ID] = &u
		s.password[u.ID] = a.Password
		s.nextUser = max(s.nextUser, u.ID)
	}
	for _, e := range d.Events {
		cp := e
		cp.RegisteredUsers = append([]api.RegisteredUser(nil), e.RegisteredUsers...)
		s.events[e.ID] = &cp
		s.nextEvt = max(s.nextEvt, e.ID)
	}
}
