package enums

import (
	"fmt"
	"strings"
)

// Role is the access role carried in access tokens.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	// RoleGuest is never persisted on a profile.
	RoleGuest Role = "guest"
)

var persistedRoles = []Role{RoleAdmin, RoleUser}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is any known role, guest included.
func (r Role) IsValid() bool {
	return r == RoleGuest || r.IsPersisted()
}

// IsPersisted reports whether the role may be stored on a profile.
func (r Role) IsPersisted() bool {
	for _, candidate := range persistedRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseProfileRole converts raw input into a role that can be stored on a profile.
func ParseProfileRole(value string) (Role, error) {
	normalized := Role(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsPersisted() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid role %q", value)
}
