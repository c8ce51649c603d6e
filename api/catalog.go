package api

import (
	"context"
	"net/url"

	"clinicbook/models"
)

// Services lists every clinic service.
func (c *Client) Services(ctx context.Context) ([]models.Service, error) {
	var out []models.Service
	err := c.do(ctx, "GET", "/services", nil, &out)
	return out, err
}

// CreateService adds a service (admin only).
func (c *Client) CreateService(ctx context.Context, svc models.Service) (models.Service, error) {
	var out models.Service
	err := c.do(ctx, "POST", "/services", svc, &out)
	return out, err
}

// UpdateService replaces a service's fields (admin only).
func (c *Client) UpdateService(ctx context.Context, id string, svc models.Service) (models.Service, error) {
	var out models.Service
	err := c.do(ctx, "PUT", "/services/"+url.PathEscape(id), svc, &out)
	return out, err
}

// DeleteService removes a service (admin only).
func (c *Client) DeleteService(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", "/services/"+url.PathEscape(id), nil, nil)
}

// Doctors lists all doctors with their offered-services sets.
func (c *Client) Doctors(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := c.do(ctx, "GET", "/doctors", nil, &out)
	return out, err
}

// Me returns the authenticated doctor's own profile.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var out models.User
	err := c.do(ctx, "GET", "/doctors/me", nil, &out)
	return out, err
}

// SetMyServices replaces the authenticated doctor's offered-services set.
func (c *Client) SetMyServices(ctx context.Context, serviceIDs []string) (models.User, error) {
	var out models.User
	err := c.do(ctx, "PUT", "/doctors/me/services", map[string][]string{"serviceIds": serviceIDs}, &out)
	return out, err
}
