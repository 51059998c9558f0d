package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/eventadmin/internal/api"
	"github.com/smileynet/eventadmin/internal/nav"
	"github.com/smileynet/eventadmin/internal/query"
)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	var out []byte
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 'A' || s[j] > 'Z') && (s[j] < 'a' || s[j] > 'z') {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
		} else {
			out = append(out, s[i])
			i++
		}
	}
	return string(out)
}

// containsPlainText checks if s contains sub after stripping ANSI escapes.
func containsPlainText(s, sub string) bool {
	return strings.Contains(stripANSI(s), sub)
}

// execBatch executes a tea.Cmd, handling both single commands and batch
// commands. It returns all resulting messages. Spinner ticks are skipped
// to avoid infinite recursion.
func execBatch(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			if c != nil {
				result := c()
				// Skip spinner ticks to avoid recursion.
				if _, isTick := result.(spinner.TickMsg); !isTick {
					msgs = append(msgs, result)
				}
			}
		}
		return msgs
	}
	return []tea.Msg{msg}
}

// stubBackend is an in-memory Backend. Fetches run on cache goroutines,
// so every method locks.
type stubBackend struct {
	mu        sync.Mutex
	events    []api.EventDetails
	users     []api.User
	usersErr  error
	deleteErr error
	nextID    int64
	created   []api.EventInput
	deleted   []string
	calls     map[string]int
}

func newStubBackend(now time.Time) *stubBackend {
	b := &stubBackend{nextID: 100, calls: map[string]int{}}
	midnight := now.Truncate(24 * time.Hour)
	for i := 1; i <= 8; i++ {
		day := midnight.Add(time.Duration(i-4) * 24 * time.Hour)
		status := api.EventActive
		if i == 8 {
			status = api.EventCancelled
		}
		b.events = append(b.events, api.EventDetails{
			Event: api.Event{
				ID: int64(i), Name: fmt.Sprintf("Event %d", i), EventDate: day,
				StartTime: day.Add(10 * time.Hour), EndTime: day.Add(12 * time.Hour),
				EventStatus: status,
			},
			RegisteredUsers: []api.RegisteredUser{
				{ID: 2, Username: "alice", RegistrationStatus: api.Registered},
				{ID: 3, Username: "bob", RegistrationStatus: api.Unregistered},
			},
		})
	}
	b.users = []api.User{
		{ID: 1, Username: "admin", Email: "admin@example.com", Role: api.RoleAdmin, Invitation: api.InvitationSent},
		{ID: 2, Username: "alice", Email: "alice@example.com", Role: api.RoleUser, Invitation: api.InvitationSent},
		{ID: 3, Username: "bob", Email: "bob@example.com", Role: api.RoleUser, Invitation: api.InvitationReady},
	}
	return b
}

func (b *stubBackend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func (b *stubBackend) ListEvents(_ context.Context, p api.ListEventsParams) api.EventsPage {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["ListEvents"]++
	out := api.EventsPage{Page: p.Page, Limit: p.Limit, Total: len(b.events), Events: []api.Event{}}
	out.TotalPages = (len(b.events) + p.Limit - 1) / p.Limit
	start := (p.Page - 1) * p.Limit
	for i := start; i < len(b.events) && i < start+p.Limit; i++ {
		out.Events = append(out.Events, b.events[i].Event)
	}
	return out
}

func (b *stubBackend) EventDetails(_ context.Context, id string) (api.EventDetails, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["EventDetails"]++
	for _, e := range b.events {
		if strconv.FormatInt(e.ID, 10) == id {
			return e, nil
		}
	}
	return api.EventDetails{}, errors.New("event not found")
}

func (b *stubBackend) CreateEvent(_ context.Context, in api.EventInput) (api.MutationResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.created = append(b.created, in)
	b.events = append(b.events, api.EventDetails{Event: api.Event{
		ID: b.nextID, Name: in.Name, EventDate: in.EventDate,
		StartTime: in.StartTime, EndTime: in.EndTime, EventStatus: api.EventActive,
	}})
	return api.MutationResult{ID: b.nextID, Message: "Event created"}, nil
}

func (b *stubBackend) UpdateEvent(_ context.Context, id string, in api.EventInput) (api.MutationResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.events {
		if strconv.FormatInt(e.ID, 10) == id {
			b.events[i].Name = in.Name
			if in.EventStatus != "" {
				b.events[i].EventStatus = in.EventStatus
			}
			return api.MutationResult{ID: e.ID, Message: "Event updated"}, nil
		}
	}
	return api.MutationResult{}, errors.New("event not found")
}

func (b *stubBackend) ListUsers(context.Context) ([]api.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls["ListUsers"]++
	if b.usersErr != nil {
		return nil, b.usersErr
	}
	return append([]api.User(nil), b.users...), nil
}

func (b *stubBackend) UserDetails(_ context.Context, id string) (api.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if strconv.FormatInt(u.ID, 10) == id {
			return u, nil
		}
	}
	return api.User{}, errors.New("user not found")
}

func (b *stubBackend) UpsertUser(_ context.Context, in api.UserInput) (api.MutationResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if in.ID != nil {
		for i, u := range b.users {
			if u.ID == *in.ID {
				b.users[i].Username, b.users[i].Email, b.users[i].Role = in.Username, in.Email, in.Role
				return api.MutationResult{ID: u.ID, Message: "User updated"}, nil
			}
		}
		return api.MutationResult{}, errors.New("user not found")
	}
	b.nextID++
	b.users = append(b.users, api.User{ID: b.nextID, Username: in.Username, Email: in.Email, Role: in.Role})
	return api.MutationResult{ID: b.nextID, Message: "User created"}, nil
}

func (b *stubBackend) DeleteUser(_ context.Context, id string) (api.DeleteResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleteErr != nil {
		return api.DeleteResult{}, b.deleteErr
	}
	b.deleted = append(b.deleted, id)
	for i, u := range b.users {
		if strconv.FormatInt(u.ID, 10) == id {
			b.users = append(b.users[:i], b.users[i+1:]...)
			break
		}
	}
	return api.DeleteResult{Message: "User deleted"}, nil
}

// stubSession accepts one password.
type stubSession struct {
	mu       sync.Mutex
	authed   bool
	password string
	logouts  int
	resetOK  bool
}

func (s *stubSession) Login(_ context.Context, _, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if password != s.password {
		return false
	}
	s.authed = true
	return true
}

func (s *stubSession) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authed = false
	s.logouts++
}

func (s *stubSession) ResetPassword(context.Context, string) bool { return s.resetOK }

func (s *stubSession) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authed
}

func (s *stubSession) setAuthenticated(a bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authed = a
}

func (s *stubSession) User() *api.User {
	if !s.Authenticated() {
		return nil
	}
	return &api.User{ID: 1, Username: "admin", Role: api.RoleAdmin}
}

// harness drives a Model the way a running program would: commands are
// executed and their messages fed back until nothing is pending. Cache
// notifications arrive as CacheUpdatedMsg.
type harness struct {
	t       *testing.T
	m       Model
	backend *stubBackend
	session *stubSession
	cache   *query.Cache
	updates chan query.Entry
	quit    bool
}

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, authed bool) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		backend: newStubBackend(testNow),
		session: &stubSession{authed: authed, password: "secret"},
		// No refresh windows, so no tick commands block the drain.
		cache:   query.New(query.WithRefresh(nil)),
		updates: make(chan query.Entry, 1024),
	}
	h.cache.OnUpdate(func(e query.Entry) {
		select {
		case h.updates <- e:
		default:
		}
	})
	h.m = NewModel(
		WithBackend(h.backend),
		WithSession(h.session),
		WithCache(h.cache),
		WithClock(func() time.Time { return testNow }),
	)
	h.run(h.m.initCmd)
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

func (h *harness) send(msg tea.Msg) {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	h.run(cmd)
}

func (h *harness) press(k string) {
	h.t.Helper()
	h.send(keyMsg(k))
}

func (h *harness) typeText(s string) {
	h.t.Helper()
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; ; steps++ {
		if steps > 1000 {
			h.t.Fatal("commands did not settle")
		}
		if len(queue) == 0 {
			select {
			case e := <-h.updates:
				queue = append(queue, func() tea.Msg { return CacheUpdatedMsg{Entry: e} })
				continue
			default:
				return
			}
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case tea.QuitMsg:
			h.quit = true
		case QueryMsg, CacheUpdatedMsg, NavigateMsg, LoginResultMsg, ResetResultMsg, MutationMsg, AuthChangedMsg:
			next, cmd := h.m.Update(msg)
			h.m = next.(Model)
			queue = append(queue, cmd)
		}
	}
}

// page returns the id of the visible page.
func (h *harness) page() nav.PageID {
	return h.m.nav.Visible().ID()
}

// main renders the current screen wide enough that nothing wraps.
func (h *harness) main() string {
	return stripANSI(h.m.screen.view(200, "*"))
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}
