// Package api is the client for the remote events/users admin REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for caller-checkable conditions.
var (
	ErrUnauthorized      = errors.New("api: unauthorized")
	ErrNoToken           = errors.New("api: bearer token required")
	ErrMalformedResponse = errors.New("api: malformed response")
	ErrMissingID         = errors.New("api: id is required")
)

// StatusError is a non-2xx response other than 401.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("api: status %d: %s", e.Code, e.Message)
}

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token returns f().
func (f TokenFunc) Token() string { return f() }

// RequestIDHeader carries a per-call correlation id.
const RequestIDHeader = "X-Request-ID"

// Client calls the admin API over HTTP.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	tokens         TokenSource
	logger         *slog.Logger
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUnauthorizedHook registers fn to run when an authenticated call
// is rejected with 401, i.e. the session token expired or was revoked.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a Client rooted at baseURL (e.g. http://localhost:8000/api).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parsing base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api: base url %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  TokenFunc(func() string { return "" }),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Login exchanges credentials for a user and bearer token.
// A 2xx body without both user and token is ErrMalformedResponse.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   LoginRequest{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return LoginResponse{}, err
	}
	if resp.User == nil || resp.Token == "" {
		return LoginResponse{}, fmt.Errorf("%w: login response missing user or token", ErrMalformedResponse)
	}
	return resp, nil
}

// ResetPassword asks the API to send a password reset email.
func (c *Client) ResetPassword(ctx context.Context, email string) (bool, error) {
	var resp ResetResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/reset",
		body:   ResetRequest{Email: email},
	}, &resp)
	if err != nil {
		return false, err
	}
	return resp.Success, nil
}

// ListEvents fetches one page of events. Any failure degrades to an
// empty page (see EmptyEventsPage) so callers can render "no events".
func (c *Client) ListEvents(ctx context.Context, p ListEventsParams) EventsPage {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sortOrder", string(p.SortOrder))
	}

	var resp EventsPage
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/events",
		query:  q,
		auth:   true,
	}, &resp)
	if err != nil {
		c.logger.Warn("listing events failed, returning empty page", "error", err)
		return EmptyEventsPage(p)
	}
	if resp.Events == nil {
		resp.Events = []Event{}
	}
	return resp
}

// EventDetails fetches one event with its roster.
func (c *Client) EventDetails(ctx context.Context, id string) (EventDetails, error) {
	if id == "" {
		return EventDetails{}, ErrMissingID
	}
	var resp eventDetailsEnvelope
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/events/" + url.PathEscape(id) + "/details",
		auth:   true,
	}, &resp)
	if err != nil {
		return EventDetails{}, err
	}
	if resp.Event == nil {
		return EventDetails{}, fmt.Errorf("%w: event details missing event", ErrMalformedResponse)
	}
	return *resp.Event, nil
}

// CreateEvent creates an event. Requires a bearer token.
func (c *Client) CreateEvent(ctx context.Context, in EventInput) (MutationResult, error) {
	var resp MutationResult
	err := c.do(ctx, request{
		method:       http.MethodPost,
		path:         "/events",
		body:         in,
		auth:         true,
		requireToken: true,
	}, &resp)
	if err != nil {
		return MutationResult{}, err
	}
	if resp.ID <= 0 {
		return MutationResult{}, fmt.Errorf("%w: create event response missing id", ErrMalformedResponse)
	}
	return resp, nil
}

// UpdateEvent replaces the event with the given id. Requires a bearer token.
func (c *Client) UpdateEvent(ctx context.Context, id string, in EventInput) (MutationResult, error) {
	if id == "" {
		return MutationResult{}, ErrMissingID
	}
	var resp MutationResult
	err := c.do(ctx, request{
		method:       http.MethodPut,
		path:         "/events/" + url.PathEscape(id),
		body:         in,
		auth:         true,
		requireToken: true,
	}, &resp)
	if err != nil {
		return MutationResult{}, err
	}
	return resp, nil
}

// ListUsers fetches all users.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var resp usersEnvelope
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/admin/users",
		auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Users == nil {
		return []User{}, nil
	}
	return resp.Users, nil
}

// UserDetails fetches one user.
func (c *Client) UserDetails(ctx context.Context, id string) (User, error) {
	if id == "" {
		return User{}, ErrMissingID
	}
	var resp userEnvelope
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/admin/users/" + url.PathEscape(id) + "/details",
		auth:   true,
	}, &resp)
	if err != nil {
		return User{}, err
	}
	if resp.User == nil {
		return User{}, fmt.Errorf("%w: user details missing user", ErrMalformedResponse)
	}
	return *resp.User, nil
}

// UpsertUser creates a user, or updates it when in.ID is set.
func (c *Client) UpsertUser(ctx context.Context, in UserInput) (MutationResult, error) {
	var resp MutationResult
	err := c.do(ctx, request{
		method:       http.MethodPost,
		path:         "/admin/users/upsert",
		body:         in,
		auth:         true,
		requireToken: true,
	}, &resp)
	if err != nil {
		return MutationResult{}, err
	}
	return resp, nil
}

// DeleteUser removes a user, which also drops them from event rosters.
func (c *Client) DeleteUser(ctx context.Context, id string) (DeleteResult, error) {
	if id == "" {
		return DeleteResult{}, ErrMissingID
	}
	var resp DeleteResult
	err := c.do(ctx, request{
		method:       http.MethodDelete,
		path:         "/admin/users/" + url.PathEscape(id),
		auth:         true,
		requireToken: true,
	}, &resp)
	if err != nil {
		return DeleteResult{}, err
	}
	return resp, nil
}

// request describes one API call.
type request struct {
	method       string
	path         string
	query        url.Values
	body         any
	auth         bool // attach the bearer token when one is available
	requireToken bool // fail with ErrNoToken instead of calling without one
}

// do performs r and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, r request, out any) error {
	u := *c.baseURL
	u.Path = u.Path + r.path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("api: encoding %s %s: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("api: building %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	var token string
	if r.auth {
		token = c.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else if r.requireToken {
		return ErrNoToken
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api call failed", "method", r.method, "path", r.path, "request_id", reqID, "error", err)
		return fmt.Errorf("api: %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api call",
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration", time.Since(start),
	)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: reading %s %s: %w", r.method, r.path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if token != "" && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return fmt.Errorf("%w: %s", ErrUnauthorized, messageOf(data))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Message: messageOf(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		if out != nil {
			return fmt.Errorf("%w: empty body from %s %s", ErrMalformedResponse, r.method, r.path)
		}
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, r.method, r.path, err)
	}
	return nil
}

// messageOf extracts the server's message from an error body, if any.
func messageOf(data []byte) string {
	var m messageBody
	if err := json.Unmarshal(data, &m); err != nil {
		return strings.TrimSpace(string(data))
	}
	if m.Message != "" {
		return m.Message
	}
	return m.Error
}
