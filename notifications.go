package pointsnav

import (
	"context"
	"net/http"

	"github.com/pointsnav/go-pointsnav/models"
)

// Notifications lists the authenticated user's notifications, newest
// first.
func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	var out []models.Notification
	if err := c.do(ctx, http.MethodGet, "/notifications", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkNotificationRead marks one notification read and returns the updated
// copy.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) (*models.Notification, error) {
	var out models.Notification
	if err := c.do(ctx, http.MethodPatch, "/notifications/"+id+"/read", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkAllNotificationsRead marks every notification read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPatch, "/notifications/read-all", nil, nil)
}

// UnreadNotificationCount fetches the server-side unread counter.
func (c *Client) UnreadNotificationCount(ctx context.Context) (int, error) {
	var out models.UnreadCountResponse
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}
