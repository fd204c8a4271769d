package core

import (
	"fmt"
	"strings"
)

// Status is the position of an article in its lifecycle.
type Status string

const (
	Draft     Status = "draft"
	Pending   Status = "pending" // waiting for review
	Approved  Status = "approved"
	Published Status = "published" // the only status which is visible to the public
	Rejected  Status = "rejected"
	Archived  Status = "archived"
)

// Statuses returns all statuses in lifecycle order.
func Statuses() []Status {
	return []Status{Draft, Pending, Approved, Published, Rejected, Archived}
}

func ParseStatus(s string) (Status, error) {
	var status = Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown status: %s", s)
	}
	return status, nil
}

func (s Status) String() string {
	return string(s)
}

// Title returns a display name.
func (s Status) Title() string {
	switch s {
	case Draft:
		return "Draft"
	case Pending:
		return "Waiting for review"
	case Approved:
		return "Approved"
	case Published:
		return "Published"
	case Rejected:
		return "Rejected"
	case Archived:
		return "Archived"
	}
	return "unknown"
}

func (s Status) Valid() bool {
	switch s {
	case Draft, Pending, Approved, Published, Rejected, Archived:
		return true
	default:
		return false
	}
}
