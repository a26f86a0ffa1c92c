// Package events is a small typed pub/sub used to surface session and
// notification lifecycle changes to the presentation layer. The forced
// logout on an expired session is delivered through here, so a UI
// subscribes once for its redirect-to-login behavior instead of checking
// after every call.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pointsnav/go-pointsnav/models"
)

// Type identifies a lifecycle event.
type Type string

const (
	// TypeLoggedIn is published after a successful login or registration.
	TypeLoggedIn Type = "session.logged_in"
	// TypeLoggedOut is published after an explicit logout.
	TypeLoggedOut Type = "session.logged_out"
	// TypeSessionExpired is published when any API call is rejected as
	// unauthorized and the session is force-cleared. Subscribers should
	// navigate to the login view.
	TypeSessionExpired Type = "session.expired"
	// TypeNotificationsRead is published after notifications are marked read.
	TypeNotificationsRead Type = "notifications.read"
)

// Event is a published lifecycle event.
type Event struct {
	Type      Type
	Timestamp time.Time
	Data      any
}

// LoggedInData accompanies TypeLoggedIn.
type LoggedInData struct {
	User models.User
}

// NotificationsReadData accompanies TypeNotificationsRead.
type NotificationsReadData struct {
	// IDs of the notifications marked read; empty means all of them.
	IDs []string
}

// Handler handles a published event. Returned errors are logged, never
// propagated back to the publisher.
type Handler func(Event) error

// Manager fans events out to subscribed handlers. Handlers run
// synchronously on the publishing goroutine, matching the cooperative
// event-loop model of the callers.
type Manager struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	logger   *slog.Logger
}

// NewManager creates an event manager. A nil logger falls back to
// slog.Default().
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		handlers: make(map[Type][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event type.
func (m *Manager) Subscribe(t Type, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers[t] = append(m.handlers[t], h)
}

// Publish delivers an event to every handler subscribed to its type.
func (m *Manager) Publish(t Type, data any) {
	m.mu.RLock()
	handlers := m.handlers[t]
	m.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	event := Event{
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
	}

	for _, h := range handlers {
		if err := h(event); err != nil {
			m.logger.Error("event handler failed", "event", string(t), "error", err)
		}
	}
}
