package api

import (
	"context"
	"net/url"

	"clinicbook/models"
)

// MyAppointments lists the authenticated patient's appointments.
func (c *Client) MyAppointments(ctx context.Context) ([]models.Appointment, error) {
	var out []models.Appointment
	err := c.do(ctx, "GET", "/appointments/mine", nil, &out)
	return out, err
}

// Book creates an appointment for the authenticated patient.
func (c *Client) Book(ctx context.Context, req models.BookingRequest) (models.Appointment, error) {
	var out models.Appointment
	err := c.do(ctx, "POST", "/appointments", req, &out)
	return out, err
}

// CancelAppointment deletes the patient's appointment, freeing its slot.
func (c *Client) CancelAppointment(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", "/appointments/"+url.PathEscape(id), nil, nil)
}

// DoctorAppointments lists appointments for the authenticated doctor.
func (c *Client) DoctorAppointments(ctx context.Context) ([]models.Appointment, error) {
	var out []models.Appointment
	err := c.do(ctx, "GET", "/appointments/doctor/mine", nil, &out)
	return out, err
}

// UpdateDoctorAppointment writes the doctor-editable fields of an appointment.
func (c *Client) UpdateDoctorAppointment(ctx context.Context, id string, upd models.AppointmentUpdate) (models.Appointment, error) {
	var out models.Appointment
	err := c.do(ctx, "PUT", "/appointments/doctor/"+url.PathEscape(id), upd, &out)
	return out, err
}
