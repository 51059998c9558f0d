package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smileynet/eventadmin/internal/api"
	"github.com/smileynet/eventadmin/internal/session"
)

// stubAuthn implements Authenticator for tests.
type stubAuthn struct {
	resp     api.LoginResponse
	err      error
	resetOK  bool
	resetErr error
	calls    int
}

func (s *stubAuthn) Login(context.Context, string, string) (api.LoginResponse, error) {
	s.calls++
	return s.resp, s.err
}

func (s *stubAuthn) ResetPassword(context.Context, string) (bool, error) {
	return s.resetOK, s.resetErr
}

func okAuthn(token string) *stubAuthn {
	return &stubAuthn{resp: api.LoginResponse{
		Token: token,
		User:  &api.User{ID: 1, Username: "admin", Email: "admin@example.com", Role: api.RoleAdmin},
	}}
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

func TestLogin_Success(t *testing.T) {
	store := &session.MemoryStore{}
	g := NewGate(store, okAuthn("tok"))

	var events []bool
	g.OnChange(func(a bool) { events = append(events, a) })

	require.True(t, g.Login(context.Background(), "admin@example.com", "pw"))
	assert.True(t, g.Authenticated())
	assert.Equal(t, "tok", g.Token())
	assert.Equal(t, "admin", g.User().Username)
	assert.Equal(t, []bool{true}, events)

	persisted, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok", persisted.Token)
}

func TestLogin_FailureLeavesSessionUnchanged(t *testing.T) {
	tests := map[string]*stubAuthn{
		"network error":   {err: errors.New("dial tcp: refused")},
		"bad credentials": {err: api.ErrUnauthorized},
		"missing user":    {resp: api.LoginResponse{Token: "tok"}},
		"missing token":   {resp: api.LoginResponse{User: &api.User{ID: 1}}},
	}
	for name, authn := range tests {
		t.Run(name, func(t *testing.T) {
			store := &session.MemoryStore{}
			g := NewGate(store, authn)

			assert.False(t, g.Login(context.Background(), "a@b.c", "pw"))
			assert.False(t, g.Authenticated())
			assert.Empty(t, g.Token())
			assert.Nil(t, g.User())
			_, ok, _ := store.Load()
			assert.False(t, ok)
		})
	}
}

func TestLogin_FailureKeepsExistingSession(t *testing.T) {
	store := &session.MemoryStore{}
	authn := okAuthn("first")
	g := NewGate(store, authn)
	require.True(t, g.Login(context.Background(), "admin@example.com", "pw"))

	authn.err = errors.New("boom")
	assert.False(t, g.Login(context.Background(), "admin@example.com", "pw"))
	assert.Equal(t, "first", g.Token())
}

func TestLogin_PersistFailureIsLoginFailure(t *testing.T) {
	store := &session.MemoryStore{Err: errors.New("disk full")}
	g := NewGate(store, okAuthn("tok"))

	assert.False(t, g.Login(context.Background(), "admin@example.com", "pw"))
	assert.False(t, g.Authenticated())
}

func TestLoginThenRestore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	g := NewGate(session.NewFileStore(path), okAuthn("tok-rt"))
	require.True(t, g.Login(context.Background(), "admin@example.com", "pw"))
	want := g.Session()

	// Simulate a reload: a fresh gate over the same storage.
	reloaded := NewGate(session.NewFileStore(path), nil)
	require.True(t, reloaded.Restore())

	got := reloaded.Session()
	assert.Equal(t, want.Token, got.Token)
	assert.Equal(t, *want.User, *got.User)
}

func TestRestore_Empty(t *testing.T) {
	g := NewGate(&session.MemoryStore{}, nil)
	assert.False(t, g.Restore())
	assert.False(t, g.Authenticated())
}

func TestRestore_StorageErrorIsUnauthenticated(t *testing.T) {
	g := NewGate(&session.MemoryStore{Err: errors.New("io")}, nil)
	assert.False(t, g.Restore())
}

func TestRestore_DiscardsExpiredToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &session.MemoryStore{}
	require.NoError(t, store.Save(session.Session{
		Token: signed(t, now.Add(-time.Minute)),
		User:  &api.User{ID: 1, Username: "admin"},
	}))

	g := NewGate(store, nil, WithClock(func() time.Time { return now }))
	assert.False(t, g.Restore())

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok, "expired session should be removed from storage")
}

func TestRestore_KeepsUnexpiredToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &session.MemoryStore{}
	require.NoError(t, store.Save(session.Session{
		Token: signed(t, now.Add(time.Hour)),
		User:  &api.User{ID: 1, Username: "admin"},
	}))

	g := NewGate(store, nil, WithClock(func() time.Time { return now }))
	assert.True(t, g.Restore())
}

func TestLogout_Idempotent(t *testing.T) {
	store := &session.MemoryStore{}
	g := NewGate(store, okAuthn("tok"))
	require.True(t, g.Login(context.Background(), "admin@example.com", "pw"))

	var events []bool
	g.OnChange(func(a bool) { events = append(events, a) })

	g.Logout()
	once := g.Session()
	g.Logout()
	twice := g.Session()

	assert.Equal(t, once, twice)
	assert.Equal(t, session.Session{}, twice)
	assert.Equal(t, []bool{false}, events, "second logout must not notify")
	_, ok, _ := store.Load()
	assert.False(t, ok)
}

func TestExpire(t *testing.T) {
	g := NewGate(&session.MemoryStore{}, okAuthn("tok"))
	require.True(t, g.Login(context.Background(), "admin@example.com", "pw"))

	var got []bool
	g.OnChange(func(a bool) { got = append(got, a) })
	g.Expire()
	g.Expire()

	assert.False(t, g.Authenticated())
	assert.Equal(t, []bool{false}, got)
}

func TestCheckExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	authn := &stubAuthn{resp: api.LoginResponse{
		Token: signed(t, now.Add(time.Minute)),
		User:  &api.User{ID: 1, Username: "admin"},
	}}
	g := NewGate(&session.MemoryStore{}, authn, WithClock(func() time.Time { return clock }))
	require.True(t, g.Login(context.Background(), "admin@example.com", "pw"))

	assert.True(t, g.CheckExpiry())
	clock = now.Add(2 * time.Minute)
	assert.False(t, g.CheckExpiry())
	assert.False(t, g.Authenticated())
}

func TestResetPassword(t *testing.T) {
	g := NewGate(&session.MemoryStore{}, &stubAuthn{resetOK: true})
	assert.True(t, g.ResetPassword(context.Background(), "a@b.c"))

	g = NewGate(&session.MemoryStore{}, &stubAuthn{resetOK: true, resetErr: errors.New("down")})
	assert.False(t, g.ResetPassword(context.Background(), "a@b.c"))

	g = NewGate(&session.MemoryStore{}, nil)
	assert.False(t, g.ResetPassword(context.Background(), "a@b.c"))
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.False(t, TokenExpired("opaque-token", now))
	assert.False(t, TokenExpired(signed(t, now.Add(time.Second)), now))
	assert.True(t, TokenExpired(signed(t, now), now))
	assert.True(t, TokenExpired(signed(t, now.Add(-time.Hour)), now))
}
