package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/alexedwards/scs/v2"
	"github.com/wansing/newsroom/auth"
	"github.com/wansing/newsroom/util"
)

const sessionUserKey = "uid"

// authClient implements auth.Provider on top of a UserDB and a cookie session.
// The session data is taken from the context, so a context of the same HTTP request must be passed to every method.
type authClient struct {
	users    UserDB
	sessions *scs.SessionManager

	mu        sync.Mutex
	listeners map[int]func(context.Context, auth.Event)
	nextID    int
}

func newAuthClient(users UserDB, sessions *scs.SessionManager) *authClient {
	return &authClient{
		users:     users,
		sessions:  sessions,
		listeners: make(map[int]func(context.Context, auth.Event)),
	}
}

func identityOf(u *User) *auth.Identity {
	return &auth.Identity{
		ID:            u.ID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
	}
}

func (c *authClient) emit(ctx context.Context, ev auth.Event) {
	c.mu.Lock()
	var listeners = make([]func(context.Context, auth.Event), 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(ctx, ev)
	}
}

func (c *authClient) Subscribe(f func(context.Context, auth.Event)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var id = c.nextID
	c.nextID++
	c.listeners[id] = f
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *authClient) CurrentIdentity(ctx context.Context) (*auth.Identity, error) {

	var uid = c.sessions.GetString(ctx, sessionUserKey)
	if uid == "" {
		return nil, nil
	}

	u, err := c.users.GetUser(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		c.sessions.Remove(ctx, sessionUserKey) // user has been deleted
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return identityOf(u), nil
}

// SignUp creates an account. It does not sign in.
func (c *authClient) SignUp(ctx context.Context, email, password, fullName string) (*auth.Identity, error) {

	email = strings.TrimSpace(email)

	if !util.IsValidEmail(email) {
		return nil, errors.New("invalid email address")
	}
	if problems := util.ValidatePassword(password); len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, ", "))
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, errors.New("name is required")
	}

	u, err := c.users.InsertUser(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return identityOf(u), nil
}

func (c *authClient) SignIn(ctx context.Context, email, password string) (*auth.Identity, error) {

	u, err := c.users.LoginUser(ctx, email, password)
	if err != nil {
		return nil, err // is auth.ErrAuth if email or password is wrong
	}

	if err := c.sessions.RenewToken(ctx); err != nil {
		return nil, err
	}
	c.sessions.Put(ctx, sessionUserKey, u.ID)

	var identity = identityOf(u)
	c.emit(ctx, auth.Event{Kind: auth.EventSignedIn, Identity: identity})
	return identity, nil
}

func (c *authClient) SignOut(ctx context.Context) error {
	c.sessions.Remove(ctx, sessionUserKey)
	var err = c.sessions.RenewToken(ctx)
	c.emit(ctx, auth.Event{Kind: auth.EventSignedOut})
	return err
}
