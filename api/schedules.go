package api

import (
	"context"
	"fmt"
	"net/url"

	"clinicbook/models"
)

// MySchedule fetches the authenticated doctor's schedule.
func (c *Client) MySchedule(ctx context.Context) (models.Schedule, error) {
	var out models.Schedule
	err := c.do(ctx, "GET", "/schedules/mine", nil, &out)
	return out, err
}

// DoctorSchedule fetches a doctor's schedule by id.
func (c *Client) DoctorSchedule(ctx context.Context, doctorID string) (models.Schedule, error) {
	var out models.Schedule
	err := c.do(ctx, "GET", "/schedules/doctor/"+url.PathEscape(doctorID), nil, &out)
	return out, err
}

// AddSlots appends slot ranges to the authenticated doctor's schedule. The
// authority rejects overlapping ranges with a conflict.
func (c *Client) AddSlots(ctx context.Context, ranges []models.SlotRange) (models.Schedule, error) {
	var out models.Schedule
	err := c.do(ctx, "POST", "/schedules", map[string][]models.SlotRange{"slots": ranges}, &out)
	return out, err
}

// DeleteSlot removes the slot at index from the given schedule.
func (c *Client) DeleteSlot(ctx context.Context, scheduleID string, index int) error {
	path := fmt.Sprintf("/schedules/%s/slot/%d", url.PathEscape(scheduleID), index)
	return c.do(ctx, "DELETE", path, nil, nil)
}
