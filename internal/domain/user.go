package domain

import "time"

// Role tags a user with the part they play in the triage workflow.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleBusiness Role = "business"
	RoleVendor   Role = "vendor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleBusiness, RoleVendor:
		return true
	}
	return false
}

// User is a directory entry. Usernames are unique display names.
type User struct {
	ID        string
	Username  string
	Role      Role
	CreatedAt time.Time
}
