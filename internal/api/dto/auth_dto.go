package dto

import (
	"time"

	"github.com/suportebot/helpdesk/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Username   string `json:"username"`
	AccessCode string `json:"access_code"`
}

// LoginRequest payload.
type LoginRequest struct {
	Username   string `json:"username"`
	AccessCode string `json:"access_code"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Role      domain.UserRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// FromUser converts the domain user.
func FromUser(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
