package pointsnav

import (
	"context"
	"net/http"

	"github.com/pointsnav/go-pointsnav/models"
)

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMe edits the authenticated user's profile and returns the updated
// copy.
func (c *Client) UpdateMe(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPut, "/users/me", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword rotates the authenticated user's password.
func (c *Client) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error {
	return c.do(ctx, http.MethodPut, "/users/me/password", req, nil)
}
