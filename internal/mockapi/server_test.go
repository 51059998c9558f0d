package mockapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smileynet/eventadmin/internal/api"
)

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, s *Server) string {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/auth/login", "", api.LoginRequest{Email: AdminEmail, Password: AdminPassword})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)
	return resp.Token
}

func TestLogin(t *testing.T) {
	s := New()
	token := login(t, s)
	assert.NotEmpty(t, token)

	rec := do(t, s, http.MethodPost, "/api/auth/login", "", api.LoginRequest{Email: AdminEmail, Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := New()
	for _, path := range []string{"/api/events", "/api/admin/users", "/api/events/1/details"} {
		rec := do(t, s, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := now
	s := New(WithClock(func() time.Time { return clock }), WithTokenTTL(time.Hour))
	token := login(t, s)

	clock = now.Add(2 * time.Hour)
	rec := do(t, s, http.MethodGet, "/api/admin/users", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListEventsPaginates(t *testing.T) {
	s := New()
	token := login(t, s)

	rec := do(t, s, http.MethodGet, "/api/events?page=2&limit=6", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page api.EventsPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 8, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Events, 2)
	assert.Equal(t, 1, s.Hits("GET /events"))
}

func TestDeleteUserRemovesFromRosters(t *testing.T) {
	s := New()
	token := login(t, s)

	rec := do(t, s, http.MethodDelete, "/api/admin/users/2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/events/1/details", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Event api.EventDetails `json:"event"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	for _, ru := range body.Event.RegisteredUsers {
		assert.NotEqual(t, int64(2), ru.ID)
	}
	assert.Equal(t, 1, s.Hits("GET /events/{id}/details"))
}

func TestUpsertUser(t *testing.T) {
	s := New()
	token := login(t, s)

	rec := do(t, s, http.MethodPost, "/api/admin/users/upsert", token, api.UserInput{Username: "dave", Email: "dave@example.com", Role: api.RoleUser})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created api.MutationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(5), created.ID)

	rec = do(t, s, http.MethodPost, "/api/admin/users/upsert", token, api.UserInput{ID: &created.ID, Username: "david", Email: "dave@example.com", Role: api.RoleAdmin})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/admin/users/upsert", token, api.UserInput{Username: "dup", Email: "dave@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateEventValidates(t *testing.T) {
	s := New()
	token := login(t, s)

	rec := do(t, s, http.MethodPost, "/api/events", token, api.EventInput{Name: " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
