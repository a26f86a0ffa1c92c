package pointsnav

import (
	"context"
	"net/http"

	"github.com/pointsnav/go-pointsnav/models"
)

// Login exchanges credentials for a bearer token. The token is NOT
// installed on the client; the session manager decides that after the
// profile fetch succeeds.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.doPublic(ctx, http.MethodPost, "/auth/login", models.LoginRequest{
		Email:    email,
		Password: password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a new account. Callers log in separately afterwards.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) error {
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	return c.doPublic(ctx, http.MethodPost, "/auth/register", req, nil)
}

// ForgotPassword starts a password reset flow for the given email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.doPublic(ctx, http.MethodPost, "/auth/forgot-password", models.ForgotPasswordRequest{Email: email}, nil)
}

// ResetPassword completes a password reset flow.
func (c *Client) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	return c.doPublic(ctx, http.MethodPost, "/auth/reset-password", req, nil)
}
