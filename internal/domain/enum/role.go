package enum

// Role is the dashboard role of a user
type Role string

const (
	RoleAdmin Role = "admin"
	RoleDRA   Role = "dra"
)

func (r Role) String() string {
	return string(r)
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleDRA
}
