package api

import "time"

// Role is a user's role on the remote API.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// InvitationStatus reports whether a user's invitation email went out.
type InvitationStatus string

const (
	InvitationReady InvitationStatus = "READY"
	InvitationSent  InvitationStatus = "SENT"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventActive    EventStatus = "ACTIVE"
	EventCompleted EventStatus = "COMPLETED"
	EventCancelled EventStatus = "CANCELLED"
)

// RegistrationStatus is a registered user's status on an event roster.
type RegistrationStatus string

const (
	Registered   RegistrationStatus = "REGISTERED"
	Unregistered RegistrationStatus = "CANCELLED"
)

// User is an account managed by the admin API.
type User struct {
	ID           int64            `json:"id"`
	Username     string           `json:"username"`
	Email        string           `json:"email"`
	Mobile       string           `json:"mobile,omitempty"`
	Role         Role             `json:"role"`
	Invitation   InvitationStatus `json:"invitation"`
	CreatedBy    Role             `json:"createdBy,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedBy    Role             `json:"updatedBy,omitempty"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	IsFirstLogin bool             `json:"isFirstLogin"`
}

// Event is the list representation of an event.
type Event struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	Description      string      `json:"description,omitempty"`
	EventDate        time.Time   `json:"eventDate"`
	StartTime        time.Time   `json:"startTime"`
	EndTime          time.Time   `json:"endTime"`
	Address          string      `json:"address"`
	EventType        string      `json:"eventType"`
	EventStatus      EventStatus `json:"eventStatus"`
	OrganizerName    string      `json:"organizerName"`
	OrganizerContact string      `json:"organizerContact"`
	ImageURL         string      `json:"imageUrl,omitempty"`
}

// RegisteredUser is one entry of an event's roster.
type RegisteredUser struct {
	ID                 int64              `json:"id"`
	Username           string             `json:"username"`
	Email              string             `json:"email"`
	Mobile             string             `json:"mobile"`
	RegistrationStatus RegistrationStatus `json:"registrationStatus"`
	RegistrationDate   time.Time          `json:"registrationDate"`
}

// EventDetails is an event together with its roster.
type EventDetails struct {
	Event
	RegisteredUsers []RegisteredUser `json:"registeredUsers"`
}

// RosterStats counts roster entries by registration status.
type RosterStats struct {
	Total      int
	Registered int
	Cancelled  int
}

// Stats summarizes the roster.
func (d EventDetails) Stats() RosterStats {
	s := RosterStats{Total: len(d.RegisteredUsers)}
	for _, u := range d.RegisteredUsers {
		switch u.RegistrationStatus {
		case Registered:
			s.Registered++
		case Unregistered:
			s.Cancelled++
		}
	}
	return s
}

// Editable reports whether the event may still be changed.
func (e Event) Editable() bool {
	return e.EventStatus == EventActive
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// ResetRequest is the body of POST /auth/reset.
type ResetRequest struct {
	Email string `json:"email"`
}

// ResetResponse is returned by POST /auth/reset.
type ResetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SortOrder is the direction of an event listing.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Default page parameters for event listings.
const (
	DefaultPage  = 1
	DefaultLimit = 6
)

// ListEventsParams filters and paginates GET /events.
// Zero values are omitted from the query string.
type ListEventsParams struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder SortOrder
}

// EventsPage is the response of GET /events.
type EventsPage struct {
	Events     []Event `json:"events"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Total      int     `json:"total"`
	TotalPages int     `json:"totalPages"`
	Message    string  `json:"message"`
}

// NoEventsMessage is the message of a degraded event listing.
const NoEventsMessage = "No events found"

// EmptyEventsPage is the degraded listing returned when the API is unreachable.
func EmptyEventsPage(p ListEventsParams) EventsPage {
	page, limit := p.Page, p.Limit
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return EventsPage{
		Events:  []Event{},
		Page:    page,
		Limit:   limit,
		Message: NoEventsMessage,
	}
}

// EventInput is the body of event create and update calls.
type EventInput struct {
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	EventDate        time.Time `json:"eventDate"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	Address          string    `json:"address"`
	EventType        string    `json:"eventType"`
	OrganizerName    string    `json:"organizerName"`
	OrganizerContact string    `json:"organizerContact"`
	ImageURL         string    `json:"imageUrl,omitempty"`
	// EventStatus is honored on update only; new events start ACTIVE.
	EventStatus EventStatus `json:"eventStatus,omitempty"`
}

// UserInput is the body of POST /admin/users/upsert.
// A non-nil ID requests an update, otherwise a create.
type UserInput struct {
	ID       *int64 `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile,omitempty"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
}

// MutationResult is returned by create, update and upsert calls.
type MutationResult struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// DeleteResult is returned by DELETE /admin/users/{id}.
type DeleteResult struct {
	Message string `json:"message"`
}

type eventDetailsEnvelope struct {
	Event   *EventDetails `json:"event"`
	Message string        `json:"message"`
}

type usersEnvelope struct {
	Users   []User `json:"users"`
	Message string `json:"message"`
}

type userEnvelope struct {
	User    *User  `json:"user"`
	Message string `json:"message"`
}

type messageBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
