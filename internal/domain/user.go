package domain

import "time"

// Role drives governance checks.
type Role string

const (
	RoleStudent         Role = "student"
	RoleResponseOfficer Role = "response_officer"
	RoleSupervisor      Role = "supervisor"
	// RoleSystem marks automated actors in the audit trail. Never issued at login.
	RoleSystem Role = "system"
)

// Staff reports whether the role belongs to campus response staff.
func (r Role) Staff() bool {
	return r == RoleResponseOfficer || r == RoleSupervisor
}

// User is the authenticated caller.
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Role            Role       `json:"role"`
	LastRequestTime *time.Time `json:"lastRequestTime,omitempty"`
}
