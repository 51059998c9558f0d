package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smileynet/eventadmin/internal/api"
	"github.com/smileynet/eventadmin/internal/mockapi"
)

type tokenBox struct{ v atomic.Value }

func (b *tokenBox) Token() string {
	s, _ := b.v.Load().(string)
	return s
}

func (b *tokenBox) Set(s string) { b.v.Store(s) }

func newClient(t *testing.T, opts ...api.Option) (*api.Client, *mockapi.Server, *tokenBox) {
	t.Helper()
	mock := mockapi.New()
	srv := httptest.NewServer(mock)
	t.Cleanup(srv.Close)

	box := &tokenBox{}
	opts = append([]api.Option{api.WithTokenSource(box)}, opts...)
	c, err := api.New(srv.URL+"/api", opts...)
	require.NoError(t, err)
	return c, mock, box
}

func loggedIn(t *testing.T, opts ...api.Option) (*api.Client, *mockapi.Server) {
	t.Helper()
	c, mock, box := newClient(t, opts...)
	resp, err := c.Login(context.Background(), mockapi.AdminEmail, mockapi.AdminPassword)
	require.NoError(t, err)
	box.Set(resp.Token)
	return c, mock
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := api.New("/api")
	assert.Error(t, err)
}

func TestLogin_Success(t *testing.T) {
	c, _, _ := newClient(t)
	resp, err := c.Login(context.Background(), mockapi.AdminEmail, mockapi.AdminPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, "admin", resp.User.Username)
}

func TestLogin_BadCredentialsDoNotFireExpiryHook(t *testing.T) {
	var fired atomic.Bool
	c, _, _ := newClient(t, api.WithUnauthorizedHook(func() { fired.Store(true) }))

	_, err := c.Login(context.Background(), mockapi.AdminEmail, "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.False(t, fired.Load(), "login 401 carries no token and must not look like an expiry")
}

func TestLogin_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"token":""}`))
	}))
	t.Cleanup(srv.Close)
	c, err := api.New(srv.URL)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "a@b.c", "x")
	assert.ErrorIs(t, err, api.ErrMalformedResponse)
}

func TestListEvents_DegradesWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := api.New(url + "/api")
	require.NoError(t, err)

	page := c.ListEvents(context.Background(), api.ListEventsParams{Page: 1, Limit: 6})
	assert.Equal(t, api.EventsPage{
		Events:     []api.Event{},
		Page:       1,
		Limit:      6,
		Total:      0,
		TotalPages: 0,
		Message:    "No events found",
	}, page)
}

func TestListEvents_DegradeDefaultsPageAndLimit(t *testing.T) {
	c, _, _ := newClient(t)
	// No token: the server answers 401 and the listing degrades.
	page := c.ListEvents(context.Background(), api.ListEventsParams{})
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 6, page.Limit)
	assert.Empty(t, page.Events)
	assert.Equal(t, api.NoEventsMessage, page.Message)
}

func TestListEvents_SendsQueryAndBearer(t *testing.T) {
	var gotAuth, gotQuery, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		gotReqID = r.Header.Get(api.RequestIDHeader)
		_, _ = w.Write([]byte(`{"events":[],"page":2,"limit":3,"total":0,"totalPages":0,"message":"ok"}`))
	}))
	t.Cleanup(srv.Close)

	c, err := api.New(srv.URL, api.WithTokenSource(api.TokenFunc(func() string { return "tok" })))
	require.NoError(t, err)

	page := c.ListEvents(context.Background(), api.ListEventsParams{Page: 2, Limit: 3, Search: "meet", SortBy: "name", SortOrder: api.SortDesc})
	assert.Equal(t, "ok", page.Message)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "limit=3&page=2&search=meet&sortBy=name&sortOrder=desc", gotQuery)
	assert.NotEmpty(t, gotReqID)
}

func TestEventDetails(t *testing.T) {
	c, _ := loggedIn(t)
	d, err := c.EventDetails(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.ID)
	assert.NotEmpty(t, d.RegisteredUsers)

	stats := d.Stats()
	assert.Equal(t, len(d.RegisteredUsers), stats.Total)
	assert.Equal(t, stats.Total, stats.Registered+stats.Cancelled)

	_, err = c.EventDetails(context.Background(), "999")
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "event not found", se.Message)

	_, err = c.EventDetails(context.Background(), "")
	assert.ErrorIs(t, err, api.ErrMissingID)
}

func TestCreateEvent_RequiresToken(t *testing.T) {
	c, mock, _ := newClient(t)
	_, err := c.CreateEvent(context.Background(), api.EventInput{Name: "x"})
	assert.ErrorIs(t, err, api.ErrNoToken)
	assert.Zero(t, mock.Hits("POST /events"), "no request should be sent without a token")
}

func TestCreateAndUpdateEvent(t *testing.T) {
	c, _ := loggedIn(t)
	ctx := context.Background()

	res, err := c.CreateEvent(ctx, api.EventInput{Name: "Launch", Address: "1 Way"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.ID)

	_, err = c.UpdateEvent(ctx, "9", api.EventInput{Name: "Launch v2"})
	require.NoError(t, err)

	d, err := c.EventDetails(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, "Launch v2", d.Name)
	assert.True(t, d.Editable())
}

func TestUsers(t *testing.T) {
	c, _ := loggedIn(t)
	ctx := context.Background()

	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)

	res, err := c.UpsertUser(ctx, api.UserInput{Username: "erin", Email: "erin@example.com", Role: api.RoleUser})
	require.NoError(t, err)

	u, err := c.UserDetails(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, res.ID, u.ID)
	assert.Equal(t, "erin", u.Username)

	_, err = c.DeleteUser(ctx, "5")
	require.NoError(t, err)

	users, err = c.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)
}

func TestUnauthorizedFiresHookWhenTokenRejected(t *testing.T) {
	var fired atomic.Int32
	c, _, box := newClient(t, api.WithUnauthorizedHook(func() { fired.Add(1) }))
	box.Set("not-a-jwt")

	_, err := c.ListUsers(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrUnauthorized))
	assert.Equal(t, int32(1), fired.Load())
}

func TestForbiddenIsUnauthorized(t *testing.T) {
	for _, tt := range []struct {
		name      string
		status    int
		wantAuth  bool
		wantFired int32
	}{
		{"forbidden", http.StatusForbidden, true, 1},
		{"server error", http.StatusInternalServerError, false, 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			t.Cleanup(srv.Close)

			var fired atomic.Int32
			box := &tokenBox{}
			box.Set("token")
			c, err := api.New(srv.URL+"/api",
				api.WithTokenSource(box),
				api.WithUnauthorizedHook(func() { fired.Add(1) }),
			)
			require.NoError(t, err)

			_, err = c.ListUsers(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantAuth, errors.Is(err, api.ErrUnauthorized))
			assert.Equal(t, tt.wantFired, fired.Load())
			if !tt.wantAuth {
				var se *api.StatusError
				assert.ErrorAs(t, err, &se)
			}
		})
	}
}

func TestResetPassword(t *testing.T) {
	c, _, _ := newClient(t)
	ok, err := c.ResetPassword(context.Background(), mockapi.AdminEmail)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ResetPassword(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}
