package core

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptyPassword = errors.New("refusing to set empty password")
	ErrEmailTaken    = errors.New("email address is already registered")
)

// A User is an account of the password store.
type User struct {
	ID            string
	Email         string
	EmailVerified bool
	CreatedAt     time.Time
}

// UserDB stores accounts and their password hashes. Methods return ErrNotFound if the user does not exist,
// and auth.ErrAuth if a password is wrong.
type UserDB interface {
	ChangePassword(ctx context.Context, id, old, new string) error
	GetAllUsers(ctx context.Context, limit, offset int) ([]*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	InsertUser(ctx context.Context, email, password string) (*User, error) // returns ErrEmailTaken if the email exists
	LoginUser(ctx context.Context, email, password string) (*User, error)
	SetEmailVerified(ctx context.Context, id string, verified bool) error
	SetPassword(ctx context.Context, id, password string) error
}

// SetPassword shadows UserDB.SetPassword.
func (c *CoreDB) SetPassword(ctx context.Context, id, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	return c.UserDB.SetPassword(ctx, id, password)
}
