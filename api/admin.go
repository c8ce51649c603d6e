package api

import (
	"context"
	"net/url"

	"clinicbook/models"
)

// AdminUsers lists every account (admin only).
func (c *Client) AdminUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := c.do(ctx, "GET", "/admin/users", nil, &out)
	return out, err
}

// AdminAppointments lists every appointment across users (admin only).
func (c *Client) AdminAppointments(ctx context.Context) ([]models.Appointment, error) {
	var out []models.Appointment
	err := c.do(ctx, "GET", "/admin/appointments", nil, &out)
	return out, err
}

// AdminAssignServices replaces a doctor's offered-services set (admin only).
func (c *Client) AdminAssignServices(ctx context.Context, userID string, serviceIDs []string) (models.User, error) {
	var out models.User
	err := c.do(ctx, "PUT", "/admin/users/"+url.PathEscape(userID)+"/services",
		map[string][]string{"serviceIds": serviceIDs}, &out)
	return out, err
}
