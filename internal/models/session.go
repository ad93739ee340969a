package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionData is the server-side session payload stored per session id.
type SessionData struct {
	ID          string     `json:"id"`
	Principal   *Principal `json:"principal,omitempty"`
	ReturnTo    string     `json:"return_to,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	RefreshedAt time.Time  `json:"refreshed_at"`
}

// Authenticated reports whether a principal is attached.
func (s *SessionData) Authenticated() bool {
	return s != nil && s.Principal != nil && s.Principal.ID != ""
}

// SessionClaims are the signed claims carried by the session cookie.
type SessionClaims struct {
	SessionID string `json:"sid"`
	UserID    string `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

// AccessContext is what the status guard attaches for downstream handlers.
type AccessContext struct {
	Principal      Principal `json:"principal"`
	ReadOnly       bool      `json:"read_only"`
	AllowedModules ModuleSet `json:"-"`
}

// SessionView is the session payload shape exposed to views.
type SessionView struct {
	ID             string        `json:"id"`
	Role           Role          `json:"role"`
	Status         AccountStatus `json:"status"`
	ReadOnly       bool          `json:"readOnly"`
	AllowedModules []ModuleKey   `json:"allowedModules"`
}

// View renders the access context in the exposed session payload shape.
// AllowedModules is nil when unrestricted.
func (a AccessContext) View() SessionView {
	return SessionView{
		ID:             a.Principal.ID,
		Role:           a.Principal.Role,
		Status:         a.Principal.Status,
		ReadOnly:       a.ReadOnly,
		AllowedModules: a.AllowedModules.Keys(),
	}
}
