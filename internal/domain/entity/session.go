package entity

import "github.com/sangkips/billdesk/internal/domain/enum"

// SessionState is derived from the session fields
type SessionState string

const (
	SessionAnonymous     SessionState = "anonymous"
	SessionPendingOTP    SessionState = "pending_otp"
	SessionAuthenticated SessionState = "authenticated"
)

// Session is the authentication state of the process
type Session struct {
	CurrentUser          *User  `json:"current_user,omitempty"`
	AccessToken          string `json:"-"`
	RefreshToken         string `json:"-"`
	IsAuthenticated      bool   `json:"is_authenticated"`
	IsLoading            bool   `json:"is_loading"`
	PendingAdminUsername string `json:"pending_admin_username,omitempty"`
}

// State returns the state machine position of s
func (s *Session) State() SessionState {
	switch {
	case s.IsAuthenticated:
		return SessionAuthenticated
	case s.PendingAdminUsername != "":
		return SessionPendingOTP
	default:
		return SessionAnonymous
	}
}

// Role is the role of the signed-in user, empty when anonymous
func (s *Session) Role() enum.Role {
	if !s.IsAuthenticated || s.CurrentUser == nil {
		return ""
	}
	return s.CurrentUser.EffectiveRole()
}

// Clone returns a deep copy safe to hand to views
func (s *Session) Clone() Session {
	out := *s
	if s.CurrentUser != nil {
		u := *s.CurrentUser
		out.CurrentUser = &u
	}
	return out
}
