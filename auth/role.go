package auth

import (
	"fmt"
	"strings"
)

// Higher roles include lower roles.
type Role string

const (
	SuperAdmin  Role = "super_admin"
	Editor      Role = "editor"
	Journalist  Role = "journalist"
	Contributor Role = "contributor"
	Subscriber  Role = "subscriber"
)

// Roles returns all defined roles, highest first.
func Roles() []Role {
	return []Role{SuperAdmin, Editor, Journalist, Contributor, Subscriber}
}

// Level returns the position of the role in the hierarchy. Unknown roles have level 0.
func Level(r Role) int {
	switch r {
	case SuperAdmin:
		return 5
	case Editor:
		return 4
	case Journalist:
		return 3
	case Contributor:
		return 2
	case Subscriber:
		return 1
	}
	return 0
}

// Dominates returns whether a is at least as privileged as b.
// Unknown roles satisfy no defined role.
func Dominates(a, b Role) bool {
	return Level(a) >= Level(b)
}

// ParseRole accepts the role names as they are stored, case-insensitively.
func ParseRole(s string) (Role, error) {
	var r = Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %s", s)
	}
	return r, nil
}

func (r Role) String() string {
	return string(r)
}

// Title returns a display name like "Super Admin".
func (r Role) Title() string {
	switch r {
	case SuperAdmin:
		return "Super Admin"
	case Editor:
		return "Editor"
	case Journalist:
		return "Journalist"
	case Contributor:
		return "Contributor"
	case Subscriber:
		return "Subscriber"
	}
	return "unknown"
}

func (r Role) Valid() bool {
	return Level(r) > 0
}
