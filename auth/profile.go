package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	// ErrPolicy is returned by a ProfileDB if its access rules contradict each other, e.g. a policy refers to itself.
	ErrPolicy = errors.New("profile store policy error")
)

// A Profile is the editorial identity of a user. UserID refers to the Identity of the authentication provider.
type Profile struct {
	ID            string
	UserID        string
	FullName      string
	Role          Role
	Bio           string
	AvatarURL     string
	Phone         string
	Address       string
	IsActive      bool
	LastLoginAt   time.Time // zero if never
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Synthesized is true if the profile was derived from the email address and does not exist in the ProfileDB.
	Synthesized bool
}

// ProfileUpdate contains the fields a user may change. Nil fields are left alone.
type ProfileUpdate struct {
	FullName  *string
	Bio       *string
	AvatarURL *string
	Phone     *string
	Address   *string
}

// Empty returns true if the update would not change anything.
func (u ProfileUpdate) Empty() bool {
	return u.FullName == nil && u.Bio == nil && u.AvatarURL == nil && u.Phone == nil && u.Address == nil
}

type ProfileDB interface {
	GetAllProfiles(ctx context.Context, limit, offset int) ([]*Profile, error)
	// GetProfile returns ErrProfileNotFound if there is no profile for the user.
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	InsertProfile(ctx context.Context, p *Profile) error
	TouchLastLogin(ctx context.Context, userID string, ts time.Time) error
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*Profile, error)
	// SetRole is not available to users, only to the command line.
	SetRole(ctx context.Context, userID string, role Role) error
}
