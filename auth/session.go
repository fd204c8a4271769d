package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const DefaultProfileTimeout = 10 * time.Second

var ErrNoUser = errors.New("no user logged in")

// A SessionManager holds the identity and the profile of one client session.
//
// Call Start before anything else and Dispose when the session is gone.
type SessionManager struct {
	provider Provider
	profiles ProfileDB
	policy   FallbackPolicy
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu          sync.Mutex
	generation  uint64 // incremented by every auth event
	identity    *Identity
	profile     *Profile
	loading     bool
	unsubscribe func()
}

func NewSessionManager(provider Provider, profiles ProfileDB, policy FallbackPolicy) *SessionManager {
	return &SessionManager{
		provider: provider,
		profiles: profiles,
		policy:   policy,
		timeout:  DefaultProfileTimeout,
		logger:   slog.Default(),
		now:      time.Now,
	}
}

// WithLogger sets the logger and returns the receiver.
func (m *SessionManager) WithLogger(l *slog.Logger) *SessionManager {
	m.logger = l
	return m
}

// WithTimeout sets how long the ProfileDB is waited for. Non-positive values are ignored.
func (m *SessionManager) WithTimeout(d time.Duration) *SessionManager {
	if d > 0 {
		m.timeout = d
	}
	return m
}

// Start subscribes to the provider and restores the current session, if there is one.
func (m *SessionManager) Start(ctx context.Context) error {

	m.mu.Lock()
	if m.unsubscribe == nil {
		m.unsubscribe = m.provider.Subscribe(m.OnAuthEvent)
	}
	m.mu.Unlock()

	identity, err := m.provider.CurrentIdentity(ctx)
	if err != nil {
		return err
	}
	if identity != nil {
		m.OnAuthEvent(ctx, Event{Kind: EventSessionRestored, Identity: identity})
	}
	return nil
}

// Dispose unsubscribes from the provider and clears the session.
func (m *SessionManager) Dispose() {
	m.mu.Lock()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.mu.Unlock()
	m.clear()
}

// OnAuthEvent processes an auth event. It blocks until the profile is resolved.
// Resolution never fails: if the ProfileDB can't deliver, a fallback profile is synthesized.
func (m *SessionManager) OnAuthEvent(ctx context.Context, ev Event) {

	if ev.Kind == EventSignedOut || ev.Identity == nil {
		m.clear()
		return
	}

	var identity = *ev.Identity

	m.mu.Lock()
	m.generation++
	var generation = m.generation
	if m.profile != nil && m.profile.UserID != identity.ID {
		m.profile = nil // never show the profile of another user
	}
	m.identity = &identity
	m.loading = true
	m.mu.Unlock()

	var profile = m.resolve(ctx, identity)

	m.mu.Lock()
	defer m.mu.Unlock()

	if generation != m.generation {
		m.logger.Debug("discarding superseded profile", "user", identity.ID, "event", ev.Kind.String())
		return
	}

	m.profile = profile
	m.loading = false
}

// resolve races the ProfileDB against the timeout.
func (m *SessionManager) resolve(ctx context.Context, identity Identity) *Profile {

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	type result struct {
		profile *Profile
		err     error
	}

	var done = make(chan result, 1) // buffered, so a late fetch can finish without a receiver

	go func() {
		p, err := m.profiles.GetProfile(ctx, identity.ID)
		done <- result{p, err}
	}()

	select {
	case res := <-done:
		switch {
		case res.err == nil && res.profile != nil:
			return res.profile
		case res.err == nil || errors.Is(res.err, ErrProfileNotFound):
			m.logger.Info("no profile found, using fallback profile", "user", identity.ID)
		case errors.Is(res.err, ErrPolicy):
			m.logger.Warn("profile store policy error, using fallback profile", "user", identity.ID, "err", res.err)
		default:
			m.logger.Warn("error fetching profile, using fallback profile", "user", identity.ID, "err", res.err)
		}
	case <-ctx.Done():
		m.logger.Warn("profile fetch timed out, using fallback profile", "user", identity.ID, "timeout", m.timeout)
	}

	var fallback = m.policy.Synthesize(identity, m.now())
	m.logger.Info("fallback profile created", "user", identity.ID, "role", fallback.Role.String())
	return fallback
}

func (m *SessionManager) clear() {
	m.mu.Lock()
	m.generation++
	m.identity = nil
	m.profile = nil
	m.loading = false
	m.mu.Unlock()
}

// Identity returns a copy of the authenticated identity, or nil.
func (m *SessionManager) Identity() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil
	}
	var id = *m.identity
	return &id
}

// Loading returns true while a profile is being resolved.
func (m *SessionManager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Profile returns a copy of the active profile, or nil.
func (m *SessionManager) Profile() *Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return nil
	}
	var p = *m.profile
	return &p
}

// SignUp creates an account and a persisted subscriber profile. It does not sign in.
// A failure to store the profile is logged only, because the SessionManager can fall back later.
func (m *SessionManager) SignUp(ctx context.Context, email, password, fullName string) error {

	identity, err := m.provider.SignUp(ctx, email, password, fullName)
	if err != nil {
		return err
	}

	var now = m.now()
	var profile = &Profile{
		UserID:        identity.ID,
		FullName:      fullName,
		Role:          Subscriber,
		IsActive:      true,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := m.profiles.InsertProfile(ctx, profile); err != nil {
		m.logger.Error("error creating profile", "user", identity.ID, "err", err)
	}
	return nil
}

// SignIn authenticates the user. The provider emits EventSignedIn, which resolves the profile.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) error {

	identity, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	var now = m.now()

	if err := m.profiles.TouchLastLogin(ctx, identity.ID, now); err != nil {
		m.logger.Warn("error updating last login", "user", identity.ID, "err", err)
		return nil
	}

	m.mu.Lock()
	if m.profile != nil && !m.profile.Synthesized && m.profile.UserID == identity.ID {
		var p = *m.profile
		p.LastLoginAt = now
		m.profile = &p
	}
	m.mu.Unlock()

	return nil
}

// SignOut signs out at the provider and clears the session, even if the provider fails.
func (m *SessionManager) SignOut(ctx context.Context) error {
	var err = m.provider.SignOut(ctx)
	m.clear()
	return err
}

// UpdateProfile stores the update and adopts the stored profile.
func (m *SessionManager) UpdateProfile(ctx context.Context, update ProfileUpdate) error {

	var identity = m.Identity()
	if identity == nil {
		return ErrNoUser
	}

	profile, err := m.profiles.UpdateProfile(ctx, identity.ID, update)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.identity != nil && m.identity.ID == identity.ID {
		m.profile = profile
	}
	m.mu.Unlock()

	return nil
}
