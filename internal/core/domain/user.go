package domain

import (
	"strings"
	"time"
)

// Role is the closed set of privilege levels a user can hold.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// roleRank orders roles by privilege. Unknown roles are absent and rank below everything.
var roleRank = map[Role]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

// Roles returns every valid role in ascending privilege order.
func Roles() []Role {
	return []Role{RoleUser, RoleAdmin}
}

// ParseRole converts a case-insensitive role name into a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := roleRank[r]
	return r, ok
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Allows reports whether a holder of r may access something that requires the given role.
func (r Role) Allows(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	need, ok := roleRank[required]
	if !ok {
		return false
	}
	return have >= need
}

func (r Role) String() string { return string(r) }

// User models a registered account.
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Role            Role      `json:"role"`
	Enabled         bool      `json:"enabled"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// SetRole changes the role in place and bumps UpdatedAt.
func (u *User) SetRole(role Role, now time.Time) {
	u.Role = role
	u.UpdatedAt = now.UTC()
}

// SetProfileImage replaces the image reference and returns the previous one.
func (u *User) SetProfileImage(url string, now time.Time) (previous string) {
	previous = u.ProfileImageURL
	u.ProfileImageURL = url
	u.UpdatedAt = now.UTC()
	return previous
}

// IsAdmin is a shorthand used by ownership checks.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
