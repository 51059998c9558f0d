// Package mockapi serves an in-memory implementation of the admin API.
// It backs the mock-api command and the HTTP-level tests of other packages.
package mockapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/smileynet/eventadmin/internal/api"
)

// Server is an in-memory admin API.
type Server struct {
	mu       sync.Mutex
	users    map[int64]*api.User
	password map[int64]string
	events   map[int64]*api.EventDetails
	nextUser int64
	nextEvt  int64
	hits     map[string]int

	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
	logger   *slog.Logger
	router   *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithSecret sets the HMAC secret used to sign tokens.
func WithSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

// WithTokenTTL sets how long issued tokens stay valid.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithData replaces the seed data.
func WithData(d Data) Option {
	return func(s *Server) { s.load(d) }
}

// New creates a Server loaded with Seed data.
func New(opts ...Option) *Server {
	s := &Server{
		secret:   []byte("eventadmin-mock-secret"),
		tokenTTL: 24 * time.Hour,
		now:      time.Now,
		logger:   slog.New(slog.DiscardHandler),
		hits:     make(map[string]int),
	}
	s.load(Seed(time.Now()))
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler. Routes live under /api.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Hits returns how many requests the named route has served.
// Route names are "METHOD path-template", e.g. "GET /events" or
// "GET /events/{id}/details".
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// IssueToken signs a token for userID, as login does.
func (s *Server) IssueToken(userID int64) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) routes() *mux.Router {
	root := mux.NewRouter()
	r := root.PathPrefix("/api").Subrouter()
	r.Use(s.countHits)

	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/reset", s.handleReset).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.requireToken)
	authed.HandleFunc("/events", s.handleListEvents).Methods(http.MethodGet)
	authed.HandleFunc("/events", s.handleCreateEvent).Methods(http.MethodPost)
	authed.HandleFunc("/events/{id:[0-9]+}/details", s.handleEventDetails).Methods(http.MethodGet)
	authed.HandleFunc("/events/{id:[0-9]+}", s.handleUpdateEvent).Methods(http.MethodPut)
	authed.HandleFunc("/admin/users", s.handleListUsers).Methods(http.MethodGet)
	authed.HandleFunc("/admin/users/upsert", s.handleUpsertUser).Methods(http.MethodPost)
	authed.HandleFunc("/admin/users/{id:[0-9]+}/details", s.handleUserDetails).Methods(http.MethodGet)
	authed.HandleFunc("/admin/users/{id:[0-9]+}", s.handleDeleteUser).Methods(http.MethodDelete)

	return root
}

// countHits records each matched request under its route template.
func (s *Server) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.Method + " " + r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				name = r.Method + " " + strings.ReplaceAll(strings.TrimPrefix(tpl, "/api"), ":[0-9]+", "")
			}
		}
		s.mu.Lock()
		s.hits[name]++
		s.mu.Unlock()
		s.logger.Debug("mock api request", "route", name, "request_id", r.Header.Get(api.RequestIDHeader))
		next.ServeHTTP(w, r)
	})
}

// requireToken rejects requests without a valid, unexpired bearer token.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		var claims jwt.RegisteredClaims
		_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(s.now),
		)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	var found *api.User
	for id, u := range s.users {
		if strings.EqualFold(u.Email, req.Email) && s.password[id] == req.Password {
			cp := *u
			found = &cp
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	token, err := s.IssueToken(found.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "issuing token")
		return
	}
	writeJSON(w, http.StatusOK, api.LoginResponse{User: found, Token: token})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req api.ResetRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, req.Email) {
			writeJSON(w, http.StatusOK, api.ResetResponse{Success: true, Message: "Reset link sent"})
			return
		}
	}
	writeJSON(w, http.StatusOK, api.ResetResponse{Success: false, Message: "No account with that email"})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), api.DefaultPage)
	limit := atoiDefault(q.Get("limit"), api.DefaultLimit)
	search := strings.ToLower(q.Get("search"))

	s.mu.Lock()
	events := make([]api.Event, 0, len(s.events))
	for _, e := range s.events {
		if search != "" && !strings.Contains(strings.ToLower(e.Name), search) {
			continue
		}
		events = append(events, e.Event)
	}
	s.mu.Unlock()

	sortEvents(events, q.Get("sortBy"), api.SortOrder(q.Get("sortOrder")))

	total := len(events)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	msg := "Events fetched successfully"
	if total == 0 {
		msg = api.NoEventsMessage
	}
	writeJSON(w, http.StatusOK, api.EventsPage{
		Events:     events[start:end],
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		Message:    msg,
	})
}

func sortEvents(events []api.Event, by string, order api.SortOrder) {
	less := func(a, b api.Event) bool { return a.ID < b.ID }
	switch by {
	case "name":
		less = func(a, b api.Event) bool { return a.Name < b.Name }
	case "eventDate":
		less = func(a, b api.Event) bool { return a.EventDate.Before(b.EventDate) }
	}
	sort.SliceStable(events, func(i, j int) bool {
		if order == api.SortDesc {
			return less(events[j], events[i])
		}
		return less(events[i], events[j])
	})
}

func (s *Server) handleEventDetails(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	e, ok := s.events[id]
	var cp api.EventDetails
	if ok {
		cp = *e
		cp.RegisteredUsers = append([]api.RegisteredUser(nil), e.RegisteredUsers...)
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": cp, "message": "Event fetched successfully"})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in api.EventInput
	if !decode(w, r, &in) {
		return
	}
	if err := validateEvent(in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	s.nextEvt++
	id := s.nextEvt
	s.events[id] = &api.EventDetails{Event: eventFromInput(id, in, api.EventActive)}
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, api.MutationResult{ID: id, Message: "Event created successfully"})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var in api.EventInput
	if !decode(w, r, &in) {
		return
	}
	if err := validateEvent(in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	status := e.EventStatus
	if in.EventStatus != "" {
		status = in.EventStatus
	}
	e.Event = eventFromInput(id, in, status)
	writeJSON(w, http.StatusOK, api.MutationResult{ID: id, Message: "Event updated successfully"})
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	users := make([]api.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	s.mu.Unlock()
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	writeJSON(w, http.StatusOK, map[string]any{"users": users, "message": "Users fetched successfully"})
}

func (s *Server) handleUserDetails(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	u, ok := s.users[id]
	var cp api.User
	if ok {
		cp = *u
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": cp, "message": "User fetched successfully"})
}

func (s *Server) handleUpsertUser(w http.ResponseWriter, r *http.Request) {
	var in api.UserInput
	if !decode(w, r, &in) {
		return
	}
	if in.Username == "" || in.Email == "" {
		writeError(w, http.StatusBadRequest, "username and email are required")
		return
	}
	if in.Role == "" {
		in.Role = api.RoleUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()

	if in.ID != nil {
		u, ok := s.users[*in.ID]
		if !ok {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		u.Username, u.Email, u.Mobile, u.Role = in.Username, in.Email, in.Mobile, in.Role
		u.UpdatedAt, u.UpdatedBy = now, api.RoleAdmin
		if in.Password != "" {
			s.password[u.ID] = in.Password
		}
		writeJSON(w, http.StatusOK, api.MutationResult{ID: u.ID, Message: "User updated successfully"})
		return
	}

	for _, u := range s.users {
		if strings.EqualFold(u.Email, in.Email) {
			writeError(w, http.StatusConflict, "email already in use")
			return
		}
	}
	s.nextUser++
	id := s.nextUser
	s.users[id] = &api.User{
		ID: id, Username: in.Username, Email: in.Email, Mobile: in.Mobile, Role: in.Role,
		Invitation: api.InvitationReady, CreatedBy: api.RoleAdmin, CreatedAt: now,
		UpdatedBy: api.RoleAdmin, UpdatedAt: now, IsFirstLogin: true,
	}
	s.password[id] = in.Password
	writeJSON(w, http.StatusCreated, api.MutationResult{ID: id, Message: "User created successfully"})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	delete(s.users, id)
	delete(s.password, id)
	for _, e := range s.events {
		kept := e.RegisteredUsers[:0]
		for _, ru := range e.RegisteredUsers {
			if ru.ID != id {
				kept = append(kept, ru)
			}
		}
		e.RegisteredUsers = kept
	}
	writeJSON(w, http.StatusOK, api.DeleteResult{Message: "User deleted successfully"})
}

func validateEvent(in api.EventInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return errors.New("name is required")
	case in.EndTime.Before(in.StartTime):
		return errors.New("end time must not be before start time")
	}
	switch in.EventStatus {
	case "", api.EventActive, api.EventCompleted, api.EventCancelled:
	default:
		return fmt.Errorf("unknown event status %q", in.EventStatus)
	}
	return nil
}

func eventFromInput(id int64, in api.EventInput, status api.EventStatus) api.Event {
	return api.Event{
		ID: id, Name: in.Name, Description: in.Description, EventDate: in.EventDate,
		StartTime: in.StartTime, EndTime: in.EndTime, Address: in.Address,
		EventType: in.EventType, EventStatus: status, OrganizerName: in.OrganizerName,
		OrganizerContact: in.OrganizerContact, ImageURL: in.ImageURL,
	}
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
