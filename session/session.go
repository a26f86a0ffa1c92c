// Package session owns the authentication lifecycle: login, registration,
// logout, profile refresh and restoring a persisted session at startup.
// It is the single writer of the client's bearer token and the persisted
// token/user pair.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	pointsnav "github.com/pointsnav/go-pointsnav"
	"github.com/pointsnav/go-pointsnav/events"
	"github.com/pointsnav/go-pointsnav/models"
	"github.com/pointsnav/go-pointsnav/store"
)

// ErrInvalidCredentials is returned for any failed login. The message stays
// generic on purpose; the underlying server error is still reachable via
// errors.Unwrap for logging.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrRegistration is returned when account creation is rejected (for
// example a duplicate email).
var ErrRegistration = errors.New("registration failed")

// State is the session lifecycle state.
type State int

const (
	// StateInitializing is the state before Restore has run.
	StateInitializing State = iota
	// StateUnauthenticated means no session exists.
	StateUnauthenticated
	// StateProvisional means a stored session was restored from disk but
	// has not yet been confirmed by the server. It is treated as valid
	// until the next unauthorized response.
	StateProvisional
	// StateAuthenticated means the session was confirmed by a successful
	// login, registration or profile refresh.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateProvisional:
		return "provisional"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Manager coordinates the session across the API client, the durable store
// and the event bus. It registers itself as the client's unauthorized
// hook, so any 401 anywhere tears the session down exactly once.
type Manager struct {
	api    *pointsnav.Client
	store  *store.Store
	events *events.Manager
	logger *slog.Logger

	mu    sync.Mutex
	state State
	user  *models.User
}

// NewManager wires a session manager to its collaborators. A nil logger
// falls back to slog.Default().
func NewManager(api *pointsnav.Client, st *store.Store, ev *events.Manager, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		api:    api,
		store:  st,
		events: ev,
		logger: logger,
		state:  StateInitializing,
	}

	api.SetUnauthorizedHook(m.expire)

	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// User returns the cached profile, or nil when unauthenticated.
func (m *Manager) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Authenticated reports whether a session exists. A provisional session
// (restored from disk, not yet confirmed) counts as authenticated; callers
// needing the stronger guarantee check State() == StateAuthenticated.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateAuthenticated || m.state == StateProvisional
}

// IsAdmin reports whether the cached profile carries the ADMIN role.
func (m *Manager) IsAdmin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil && m.user.Role == models.RoleAdmin
}

// Restore runs once at process start. With no stored token the session is
// unauthenticated. With a stored token the session becomes provisional
// immediately, then a profile refresh is attempted: success confirms the
// session, failure leaves it provisional (still treated as valid until the
// next unauthorized response).
func (m *Manager) Restore(ctx context.Context) (State, error) {
	token, user, err := m.store.LoadSession()
	if err != nil {
		m.setState(StateUnauthenticated, nil)
		return StateUnauthenticated, fmt.Errorf("failed to restore session: %w", err)
	}
	if token == "" {
		m.setState(StateUnauthenticated, nil)
		return StateUnauthenticated, nil
	}

	m.api.SetToken(token)
	m.setState(StateProvisional, user)

	fresh, err := m.api.Me(ctx)
	if err != nil {
		// A 401 already tore the session down through the hook; anything
		// else keeps the provisional session and the stale profile.
		m.logger.Warn("session refresh failed during restore", "error", err)
		return m.State(), nil
	}

	if err := m.store.SaveUser(fresh); err != nil {
		m.logger.Warn("failed to persist refreshed user", "error", err)
	}
	m.confirm(fresh)

	return m.State(), nil
}

// Login authenticates with the API, fetches the profile and persists
// token and user together. Any failure comes back as
// ErrInvalidCredentials with the cause wrapped.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	m.api.SetToken(resp.Token)

	user, err := m.api.Me(ctx)
	if err != nil {
		m.api.SetToken("")
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	if err := m.store.SaveSession(resp.Token, user); err != nil {
		m.logger.Error("failed to persist session", "error", err)
	}

	m.setState(StateAuthenticated, user)
	m.events.Publish(events.TypeLoggedIn, events.LoggedInData{User: *user})

	return nil
}

// Register creates an account and logs in with the same credentials.
func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) error {
	if err := m.api.Register(ctx, req); err != nil {
		return fmt.Errorf("%w: %w", ErrRegistration, err)
	}

	return m.Login(ctx, req.Email, req.Password)
}

// Logout clears the persisted token and user synchronously. No server call
// is made; subsequent protected operations fail as unauthenticated.
func (m *Manager) Logout() {
	if err := m.store.ClearSession(); err != nil {
		m.logger.Error("failed to clear persisted session", "error", err)
	}

	m.api.SetToken("")
	m.setState(StateUnauthenticated, nil)
	m.events.Publish(events.TypeLoggedOut, nil)
}

// RefreshUser re-fetches the profile and updates the persisted copy. A
// failed refresh is logged, not surfaced: the stale cached profile is
// returned instead.
func (m *Manager) RefreshUser(ctx context.Context) *models.User {
	fresh, err := m.api.Me(ctx)
	if err != nil {
		m.logger.Warn("failed to refresh user; keeping cached profile", "error", err)
		return m.User()
	}

	if err := m.store.SaveUser(fresh); err != nil {
		m.logger.Warn("failed to persist refreshed user", "error", err)
	}
	m.confirm(fresh)

	return m.User()
}

// UpdateProfile edits the profile server-side and keeps the cached and
// persisted copies in sync.
func (m *Manager) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := m.api.UpdateMe(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := m.store.SaveUser(user); err != nil {
		m.logger.Warn("failed to persist updated user", "error", err)
	}
	m.confirm(user)

	return m.User(), nil
}

// ChangePassword rotates the password. The session stays valid.
func (m *Manager) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error {
	return m.api.ChangePassword(ctx, req)
}

// ForgotPassword and ResetPassword are unauthenticated pass-throughs.

func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	return m.api.ForgotPassword(ctx, email)
}

func (m *Manager) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	return m.api.ResetPassword(ctx, req)
}

// expire is the unauthorized hook: any 401 forces an immediate,
// unconditional logout and announces the expiry so the presentation layer
// can redirect to the login view.
func (m *Manager) expire() {
	m.mu.Lock()
	if m.state != StateAuthenticated && m.state != StateProvisional {
		m.mu.Unlock()
		return
	}
	m.state = StateUnauthenticated
	m.user = nil
	m.mu.Unlock()

	if err := m.store.ClearSession(); err != nil {
		m.logger.Error("failed to clear persisted session", "error", err)
	}
	m.api.SetToken("")

	m.events.Publish(events.TypeSessionExpired, nil)
}

// confirm promotes the session to authenticated with a fresh profile,
// unless it was torn down in the meantime.
func (m *Manager) confirm(user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateUnauthenticated {
		return
	}
	m.state = StateAuthenticated
	m.user = user
}

func (m *Manager) setState(s State, user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	m.user = user
}
