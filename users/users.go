package users

import (
	"strings"

	"github.com/jrsteele09/marketplace-client/internal/jsontime"
)

// Role is the marketplace role carried by a profile.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleBuyer  Role = "BUYER"
	RoleSolver Role = "SOLVER"

	// RoleAnonymous stands for "no principal".
	RoleAnonymous Role = ""
)

// Known reports whether r is one of the roles the marketplace issues.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleBuyer, RoleSolver:
		return true
	}
	return false
}

// ParseRole accepts any casing. Unknown strings come back as-is so callers
// can still display them.
func ParseRole(s string) Role {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r
}

// Profile is the confirmed identity returned by GET /auth/me and the /users
// endpoints.
type Profile struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Name      string         `json:"name"`
	AvatarURL *string        `json:"avatar_url,omitempty"`
	Bio       *string        `json:"bio,omitempty"`
	Skills    []string       `json:"skills,omitempty"`
	Role      Role           `json:"role"`
	CreatedAt *jsontime.Time `json:"created_at,omitempty"`
}

// HasRole is nil-safe; a nil profile has no role.
func (p *Profile) HasRole(role Role) bool {
	return p != nil && p.Role == role
}

// ProfileUpdate is the body of PATCH /users/me/profile. Nil fields are left
// untouched by the server.
type ProfileUpdate struct {
	Bio    *string   `json:"bio,omitempty"`
	Skills *[]string `json:"skills,omitempty"`
}

// RoleUpdate is the body of PATCH /users/{id}/role.
type RoleUpdate struct {
	Role Role `json:"role"`
}
