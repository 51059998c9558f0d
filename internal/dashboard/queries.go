package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/eventadmin/internal/api"
	"github.com/smileynet/eventadmin/internal/nav"
	"github.com/smileynet/eventadmin/internal/query"
)

var errUnknownKey = errors.New("dashboard: no fetcher for key")

func eventsKey(page, limit int) query.Key {
	return query.K(query.ClassEvents, strconv.Itoa(page), strconv.Itoa(limit))
}

func eventKey(id string) query.Key { return query.K(query.ClassEvent, id) }

func usersKey() query.Key { return query.K(query.ClassUsers) }

func userKey(id string) query.Key { return query.K(query.ClassUsers, id) }

// deps is shared by every screen. Screens hold a pointer so that the
// root model can be copied by value.
type deps struct {
	ctx     context.Context
	backend Backend
	session Session
	cache   *query.Cache
	now     func() time.Time
	logger  *slog.Logger

	// Size of the main pane's content area, updated on resize.
	width, height int
}

// fetcher maps a key built by the helpers above to its API call.
func (d *deps) fetcher(key query.Key) query.FetchFunc {
	switch {
	case key.Class() == query.ClassEvents && len(key) == 3:
		page, _ := strconv.Atoi(key[1])
		limit, _ := strconv.Atoi(key[2])
		return query.Fetcher(func(ctx context.Context) (api.EventsPage, error) {
			return d.backend.ListEvents(ctx, api.ListEventsParams{Page: page, Limit: limit}), nil
		})
	case key.Class() == query.ClassEvent && len(key) == 2:
		return query.Fetcher(func(ctx context.Context) (api.EventDetails, error) {
			return d.backend.EventDetails(ctx, key[1])
		})
	case key.Equal(usersKey()):
		return query.Fetcher(d.backend.ListUsers)
	case key.Class() == query.ClassUsers && len(key) == 2:
		return query.Fetcher(func(ctx context.Context) (api.User, error) {
			return d.backend.UserDetails(ctx, key[1])
		})
	}
	return func(context.Context) (any, error) {
		return nil, errUnknownKey
	}
}

// load reads key through the cache, waiting only for a first fetch.
func (d *deps) load(key query.Key) tea.Cmd {
	return func() tea.Msg {
		return QueryMsg{Key: key, Entry: d.cache.Load(d.ctx, key, d.fetcher(key))}
	}
}

// wait reports key again once its in-flight refetch settles.
func (d *deps) wait(key query.Key) tea.Cmd {
	return func() tea.Msg {
		e, _ := d.cache.Wait(d.ctx, key)
		return QueryMsg{Key: key, Entry: e}
	}
}

// write runs mutate through the cache so that its invalidations apply.
func (d *deps) write(kind query.MutationKind, mutate query.MutateFunc) tea.Cmd {
	return func() tea.Msg {
		v, err := d.cache.Write(d.ctx, kind, mutate)
		if err != nil {
			d.logger.Info("mutation failed", "kind", string(kind), "error", err)
		}
		return MutationMsg{Kind: kind, Result: v, Err: err}
	}
}

func navigate(id nav.PageID, params nav.Params) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Page: id, Params: params} }
}
