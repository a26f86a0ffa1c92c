// Package notify aggregates the user's notifications: it keeps the local
// list and the unread counter in sync with the server, mutating local
// state only after the server has confirmed a change.
package notify

import (
	"context"
	"log/slog"
	"sync"

	pointsnav "github.com/pointsnav/go-pointsnav"
	"github.com/pointsnav/go-pointsnav/events"
	"github.com/pointsnav/go-pointsnav/models"
	"github.com/pointsnav/go-pointsnav/session"
)

// Aggregator tracks the notification list and unread count for the current
// session. The unread count always equals the number of locally held
// unread notifications, except transiently while a fetch is in flight.
type Aggregator struct {
	api     *pointsnav.Client
	session *session.Manager
	events  *events.Manager
	logger  *slog.Logger

	mu            sync.Mutex
	notifications []models.Notification
	unread        int
}

// New creates an aggregator. A nil logger falls back to slog.Default().
func New(api *pointsnav.Client, sess *session.Manager, ev *events.Manager, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		api:     api,
		session: sess,
		events:  ev,
		logger:  logger,
	}
}

// FetchAll retrieves the notification list and recomputes the unread
// count. When no session exists it is a no-op returning an empty result
// and no error. On a fetch failure local state is left unchanged and the
// error is returned for the caller to degrade to the stale view.
func (a *Aggregator) FetchAll(ctx context.Context) ([]models.Notification, error) {
	if !a.session.Authenticated() {
		return nil, nil
	}

	list, err := a.api.Notifications(ctx)
	if err != nil {
		a.logger.Warn("failed to fetch notifications", "error", err)
		return nil, err
	}

	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		}
	}

	a.mu.Lock()
	a.notifications = list
	a.unread = unread
	a.mu.Unlock()

	return a.Notifications(), nil
}

// MarkRead marks one notification read server-side, then updates the local
// copy. The unread count drops by exactly one when the local copy was
// unread, and is floored at zero; marking an already-read notification is
// a safe no-op. On failure local state is untouched and the error logged
// and returned.
func (a *Aggregator) MarkRead(ctx context.Context, id string) error {
	if _, err := a.api.MarkNotificationRead(ctx, id); err != nil {
		a.logger.Warn("failed to mark notification read", "id", id, "error", err)
		return err
	}

	a.mu.Lock()
	for i := range a.notifications {
		if a.notifications[i].ID != id {
			continue
		}
		if !a.notifications[i].Read {
			a.notifications[i].Read = true
			if a.unread > 0 {
				a.unread--
			}
		}
		break
	}
	a.mu.Unlock()

	a.events.Publish(events.TypeNotificationsRead, events.NotificationsReadData{IDs: []string{id}})

	return nil
}

// MarkAllRead marks every notification read server-side, then sets each
// local copy read and the unread count to zero. Calling it again is an
// idempotent confirmation of the already-zero state.
func (a *Aggregator) MarkAllRead(ctx context.Context) error {
	if err := a.api.MarkAllNotificationsRead(ctx); err != nil {
		a.logger.Warn("failed to mark all notifications read", "error", err)
		return err
	}

	a.mu.Lock()
	for i := range a.notifications {
		a.notifications[i].Read = true
	}
	a.unread = 0
	a.mu.Unlock()

	a.events.Publish(events.TypeNotificationsRead, events.NotificationsReadData{})

	return nil
}

// UnreadCount returns the locally tracked unread counter.
func (a *Aggregator) UnreadCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unread
}

// Notifications returns a copy of the locally held list.
func (a *Aggregator) Notifications() []models.Notification {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.Notification, len(a.notifications))
	copy(out, a.notifications)
	return out
}
