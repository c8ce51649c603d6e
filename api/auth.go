package api

import (
	"context"

	"clinicbook/models"
)

// Login exchanges credentials for a token and identity.
func (c *Client) Login(ctx context.Context, email, password string) (models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, "POST", "/auth/login", models.LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

// Register creates an account and returns a token and identity.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, "POST", "/auth/register", req, &out)
	return out, err
}
