package domain

import "time"

// UserRole separates support staff from regular collaborators.
type UserRole string

const (
	RoleSupport      UserRole = "suporte"
	RoleCollaborator UserRole = "colaborador"
)

// Access-code bands. 100000-199999 registers support staff; every other
// 6-digit code registers a collaborator.
const (
	AccessCodeMin        = 100000
	AccessCodeMax        = 999999
	SupportCodeRangeFrom = 100000
	SupportCodeRangeTo   = 199999
)

// RoleFromAccessCode derives the role once, at registration. The role stays
// immutable afterwards.
func RoleFromAccessCode(code int) UserRole {
	if code >= SupportCodeRangeFrom && code <= SupportCodeRangeTo {
		return RoleSupport
	}
	return RoleCollaborator
}

// User is an account that opens tickets or staffs the helpdesk.
type User struct {
	ID             string
	Username       string
	AccessCodeHash string
	Role           UserRole
	CreatedAt      time.Time
}

// IsSupport reports whether the user belongs to the support staff.
func (u *User) IsSupport() bool {
	return u != nil && u.Role == RoleSupport
}

// CanManageNotifications is the capability check for notification management
// (mark read, mark all read, trim). Collaborators only ever read
// notifications through the tickets they own.
func CanManageNotifications(role UserRole) bool {
	return role == RoleSupport
}
