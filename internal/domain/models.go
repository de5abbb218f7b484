package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Actor is the caller identity handed to every operation by the identity
// collaborator.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type UserSummary struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
}

// TrustBasis is the raw input to the trust tier: the live approved count and
// the accumulated reduction offset.
type TrustBasis struct {
	ApprovedCount int `json:"approved_count"`
	Offset        int `json:"trust_offset"`
}

func (b TrustBasis) Effective() int {
	n := b.ApprovedCount - b.Offset
	if n < 0 {
		return 0
	}
	return n
}
