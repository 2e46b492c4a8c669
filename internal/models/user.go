package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleAdmin  = "admin"
	RoleBuyer  = "buyer"
	RoleWorker = "worker"
)

// Starting coin grants per role, applied once per role per user.
const (
	StartingCoinsWorker = 10
	StartingCoinsBuyer  = 50
	StartingCoinsAdmin  = 0
)

// ValidRole reports whether role is one of admin, buyer, worker.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleBuyer || role == RoleWorker
}

// StartingCoins returns the baseline coin grant for a role.
func StartingCoins(role string) int {
	switch role {
	case RoleWorker:
		return StartingCoinsWorker
	case RoleBuyer:
		return StartingCoinsBuyer
	default:
		return StartingCoinsAdmin
	}
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	Skills       []string  `json:"skills,omitempty"`
	Role         string    `json:"role"`
	Coins        int       `json:"coins"`
	Earnings     float64   `json:"earnings"`
	GrantedRoles []string  `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	LastLoginAt  time.Time `json:"last_login_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasRoleGrant reports whether the user already received the starting grant
// for the given role. Role reassignment never re-applies a grant.
func (u *User) HasRoleGrant(role string) bool {
	for _, r := range u.GrantedRoles {
		if r == role {
			return true
		}
	}
	return false
}
