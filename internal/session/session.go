// Package session persists the authenticated admin session.
package session

import (
	"github.com/smileynet/eventadmin/internal/api"
)

// Storage keys of the persisted session document.
const (
	TokenKey = "token"
	UserKey  = "adminUser"
)

// Session is the authentication token and the identity it belongs to.
// A valid Session has both or neither.
type Session struct {
	Token string    `json:"token,omitempty"`
	User  *api.User `json:"adminUser,omitempty"`
}

// Authenticated reports whether s carries both a token and a user.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// Valid reports whether s is either fully present or fully empty.
func (s Session) Valid() bool {
	return (s.Token == "") == (s.User == nil)
}

// Storage persists a Session across process restarts.
type Storage interface {
	// Load returns the persisted session. Missing or unusable data
	// is reported as (zero, false, nil).
	Load() (Session, bool, error)
	Save(Session) error
	Clear() error
}
