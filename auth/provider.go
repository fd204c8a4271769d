package auth

import (
	"context"
	"errors"
)

// ErrAuth is returned by a Provider if the credentials are wrong. The message is shown to the user.
var ErrAuth = errors.New("wrong email or password")

// An Identity is a user as the authentication provider knows it.
type Identity struct {
	ID            string
	Email         string
	EmailVerified bool // attested by the provider
}

type EventKind int

const (
	EventSignedIn EventKind = iota + 1
	EventSignedUp
	EventSessionRestored
	EventTokenRefreshed
	EventSignedOut
)

func (k EventKind) String() string {
	switch k {
	case EventSignedIn:
		return "signed in"
	case EventSignedUp:
		return "signed up"
	case EventSessionRestored:
		return "session restored"
	case EventTokenRefreshed:
		return "token refreshed"
	case EventSignedOut:
		return "signed out"
	}
	return "unknown"
}

// An Event is emitted by a Provider. Identity is nil for EventSignedOut.
type Event struct {
	Kind     EventKind
	Identity *Identity
}

// A Provider authenticates the user of one client session.
type Provider interface {
	SignUp(ctx context.Context, email, password, fullName string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
	// CurrentIdentity returns nil if nobody is signed in.
	CurrentIdentity(ctx context.Context) (*Identity, error)
	// Subscribe registers a func which is called synchronously on every auth change.
	Subscribe(func(context.Context, Event)) (unsubscribe func())
}
