// Package auth derives authentication status from the persisted session
// and exposes the login, logout, and password reset flows.
package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smileynet/eventadmin/internal/api"
	"github.com/smileynet/eventadmin/internal/session"
)

// Authenticator is the remote side of the auth flows.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.LoginResponse, error)
	ResetPassword(ctx context.Context, email string) (bool, error)
}

// Gate owns the in-memory Session and keeps Storage in step with it.
// It is safe for concurrent use.
type Gate struct {
	mu        sync.Mutex
	sess      session.Session
	store     session.Storage
	authn     Authenticator
	logger    *slog.Logger
	now       func() time.Time
	listeners []func(authenticated bool)
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) { g.logger = l }
}

// WithClock overrides the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// NewGate creates an unauthenticated Gate. Call Restore to pick up a
// persisted session.
func NewGate(store session.Storage, authn Authenticator, opts ...Option) *Gate {
	g := &Gate{
		store:  store,
		authn:  authn,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// OnChange registers fn to be called after every change of
// authentication status. fn runs on the goroutine that caused the change.
func (g *Gate) OnChange(fn func(authenticated bool)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// Restore loads the persisted session without any network call.
// A session whose token has expired is discarded.
func (g *Gate) Restore() bool {
	sess, ok, err := g.store.Load()
	if err != nil {
		g.logger.Warn("restoring session failed", "error", err)
		ok = false
	}
	if ok && TokenExpired(sess.Token, g.now()) {
		g.logger.Info("persisted session token expired")
		if err := g.store.Clear(); err != nil {
			g.logger.Warn("clearing expired session failed", "error", err)
		}
		ok = false
	}
	if !ok {
		sess = session.Session{}
	}
	g.set(sess)
	return sess.Authenticated()
}

// Login authenticates against the API. On success the session is
// persisted and true returned. Every failure returns false and leaves
// the current session untouched.
func (g *Gate) Login(ctx context.Context, email, password string) bool {
	if g.authn == nil {
		return false
	}
	resp, err := g.authn.Login(ctx, email, password)
	if err != nil {
		g.logger.Info("login failed", "email", email, "error", err)
		return false
	}
	if resp.User == nil || resp.Token == "" {
		g.logger.Info("login failed", "email", email, "error", errors.New("incomplete login response"))
		return false
	}

	u := *resp.User
	sess := session.Session{Token: resp.Token, User: &u}
	if err := g.store.Save(sess); err != nil {
		g.logger.Error("persisting session failed", "error", err)
		return false
	}
	g.set(sess)
	g.logger.Info("logged in", "user", u.Username)
	return true
}

// Logout clears the session in memory and in storage. Calling it when
// already logged out is a no-op.
func (g *Gate) Logout() {
	g.clear("logged out")
}

// Expire ends the session because the API rejected its token.
func (g *Gate) Expire() {
	if !g.Authenticated() {
		return
	}
	g.clear("session expired")
}

// CheckExpiry expires the session if its token's exp claim has passed.
// It reports whether the session is still authenticated.
func (g *Gate) CheckExpiry() bool {
	g.mu.Lock()
	token := g.sess.Token
	g.mu.Unlock()
	if token != "" && TokenExpired(token, g.now()) {
		g.clear("session expired")
		return false
	}
	return token != ""
}

// ResetPassword requests a reset email. Failures are reported as false.
func (g *Gate) ResetPassword(ctx context.Context, email string) bool {
	if g.authn == nil {
		return false
	}
	ok, err := g.authn.ResetPassword(ctx, email)
	if err != nil {
		g.logger.Info("password reset failed", "email", email, "error", err)
		return false
	}
	return ok
}

// Token returns the bearer token, or "" when logged out.
func (g *Gate) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sess.Token
}

// User returns a copy of the logged-in user, or nil.
func (g *Gate) User() *api.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sess.User == nil {
		return nil
	}
	u := *g.sess.User
	return &u
}

// Authenticated reports whether a session is active.
func (g *Gate) Authenticated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sess.Authenticated()
}

// Session returns a copy of the current session.
func (g *Gate) Session() session.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.sess
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func (g *Gate) clear(reason string) {
	if err := g.store.Clear(); err != nil {
		g.logger.Warn("clearing persisted session failed", "error", err)
	}
	if g.set(session.Session{}) {
		g.logger.Info(reason)
	}
}

// set replaces the session and notifies listeners when the
// authentication status changed. It reports whether it did.
func (g *Gate) set(sess session.Session) bool {
	g.mu.Lock()
	was := g.sess.Authenticated()
	g.sess = sess
	now := sess.Authenticated()
	listeners := append([]func(bool){}, g.listeners...)
	g.mu.Unlock()

	if was == now {
		return false
	}
	for _, fn := range listeners {
		fn(now)
	}
	return true
}

// TokenExpired reports whether token is a JWT whose exp claim is at or
// before now. Opaque tokens never expire client-side.
func TokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time)
}
