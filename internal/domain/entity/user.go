package entity

import "github.com/sangkips/billdesk/internal/domain/enum"

// User is the signed-in account as returned by the auth endpoints
type User struct {
	ID       ID        `json:"id"`
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
	Name     string    `json:"name,omitempty"`
	Email    string    `json:"email"`
	Role     enum.Role `json:"role"`
	IsAdmin  bool      `json:"is_admin"`
}

// DisplayName prefers the full name, then the short name, then the username
func (u *User) DisplayName() string {
	switch {
	case u.FullName != "":
		return u.FullName
	case u.Name != "":
		return u.Name
	default:
		return u.Username
	}
}

// EffectiveRole falls back to the is_admin flag when role is missing
func (u *User) EffectiveRole() enum.Role {
	if u.Role.IsValid() {
		return u.Role
	}
	if u.IsAdmin {
		return enum.RoleAdmin
	}
	return enum.RoleDRA
}

// Employee is an assignable user from the users listing
type Employee struct {
	ID       ID        `json:"id"`
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Role     enum.Role `json:"role"`
	IsAdmin  bool      `json:"is_admin"`
}

// IsAssignable reports whether bills can be assigned to e
func (e Employee) IsAssignable() bool {
	return !e.IsAdmin && e.Role != enum.RoleAdmin
}

// LoginResponse is the body of a successful login or OTP verification.
// Access is empty when the server asks for OTP step-up.
type LoginResponse struct {
	User        *User  `json:"user"`
	Access      string `json:"access"`
	Refresh     string `json:"refresh"`
	RequiresOTP bool   `json:"requires_otp"`
}

// TokenPair is the body of a token refresh. Refresh is empty when the server
// does not rotate refresh tokens.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
