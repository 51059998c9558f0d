// Package dashboard implements the interactive admin TUI: a sidebar menu
// and a main pane rendering the current page from the query cache.
package dashboard

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/eventadmin/internal/api"
	"github.com/smileynet/eventadmin/internal/nav"
	"github.com/smileynet/eventadmin/internal/query"
)

// --- Consumer-side interfaces ---

// Backend is the remote API as the dashboard uses it.
type Backend interface {
	ListEvents(ctx context.Context, p api.ListEventsParams) api.EventsPage
	EventDetails(ctx context.Context, id string) (api.EventDetails, error)
	CreateEvent(ctx context.Context, in api.EventInput) (api.MutationResult, error)
	UpdateEvent(ctx context.Context, id string, in api.EventInput) (api.MutationResult, error)
	ListUsers(ctx context.Context) ([]api.User, error)
	UserDetails(ctx context.Context, id string) (api.User, error)
	UpsertUser(ctx context.Context, in api.UserInput) (api.MutationResult, error)
	DeleteUser(ctx context.Context, id string) (api.DeleteResult, error)
}

// Session is the auth gate as the dashboard uses it.
type Session interface {
	Login(ctx context.Context, email, password string) bool
	Logout()
	ResetPassword(ctx context.Context, email string) bool
	Authenticated() bool
	User() *api.User
}

// --- tea.Msg types ---

// QueryMsg carries a cache entry read or awaited by a command.
type QueryMsg struct {
	Key   query.Key
	Entry query.Entry
}

// CacheUpdatedMsg forwards a query.Cache update notification into the
// program. Wire it with Forward.
type CacheUpdatedMsg struct {
	Entry query.Entry
}

// AuthChangedMsg forwards an authentication status change, such as a
// session expiring on a 401, into the program.
type AuthChangedMsg struct {
	Authenticated bool
}

// ChangeNotifier reports authentication status changes.
type ChangeNotifier interface {
	OnChange(fn func(authenticated bool))
}

// Forward sends cache updates and auth changes to a running program.
// Logout and refresh fire these listeners from inside Update, while
// Program.Send blocks until the event loop reads, so every message is
// sent from its own goroutine.
func Forward(cache *query.Cache, auth ChangeNotifier, send func(tea.Msg)) {
	cache.OnUpdate(func(e query.Entry) {
		go send(CacheUpdatedMsg{Entry: e})
	})
	auth.OnChange(func(authenticated bool) {
		go send(AuthChangedMsg{Authenticated: authenticated})
	})
}

// NavigateMsg asks the root model to change page.
type NavigateMsg struct {
	Page   nav.PageID
	Params nav.Params
}

// LoginResultMsg carries the outcome of a login attempt.
type LoginResultMsg struct {
	OK bool
}

// ResetResultMsg carries the outcome of a password reset request.
type ResetResultMsg struct {
	OK bool
}

// MutationMsg carries the outcome of a write through the query cache.
type MutationMsg struct {
	Kind   query.MutationKind
	Result any
	Err    error
}

// refreshTickMsg fires on a page's refresh interval. gen ties it to the
// page visit that scheduled it.
type refreshTickMsg struct {
	gen int
}
