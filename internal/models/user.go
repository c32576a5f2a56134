package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account roles. A profile's role is chosen once,
// when the profile is completed, and never changes afterwards.
type Role string

const (
	// RoleStudent uploads practice answers and reads feedback.
	RoleStudent Role = "student"
	// RoleMarker claims pending submissions and reviews them.
	RoleMarker Role = "marker"
)

// ParseRole normalizes and validates a role value.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleMarker:
		return RoleMarker, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// UserProfile mirrors the identity provider's account record with the
// application-owned attributes layered on top. The ID matches the JWT subject.
type UserProfile struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName  string    `gorm:"size:255" json:"full_name"`
	AvatarURL string    `gorm:"size:512" json:"avatar_url"`
	Role      Role      `gorm:"size:16" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasRole reports whether the profile has been completed with a role.
func (u UserProfile) HasRole() bool {
	return u.Role == RoleStudent || u.Role == RoleMarker
}
