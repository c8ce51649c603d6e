// Package booking drives the patient-side booking flow: availability
// resolution over a fetched schedule and the selection/submission state
// machine for creating and cancelling appointments.
package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"clinicbook/api"
	"clinicbook/models"

	"go.uber.org/zap"
)

// State of a booking attempt.
type State int

const (
	StateIdle State = iota
	StateSelecting
	StateSubmitting
	StateConfirmed
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelecting:
		return "selecting"
	case StateSubmitting:
		return "submitting"
	case StateConfirmed:
		return "confirmed"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Selection is the funnel state: service, then doctor, then date, then slot.
// Changing an earlier stage invalidates everything after it.
type Selection struct {
	ServiceID string
	DoctorID  string
	Date      string
	SlotStart string
}

// AppointmentAPI is the slice of the authority the coordinator talks to.
type AppointmentAPI interface {
	MyAppointments(ctx context.Context) ([]models.Appointment, error)
	Book(ctx context.Context, req models.BookingRequest) (models.Appointment, error)
	CancelAppointment(ctx context.Context, id string) error
}

// ScheduleSource loads, exposes and invalidates doctor schedules.
type ScheduleSource interface {
	Load(ctx context.Context, doctorID string) (models.Schedule, error)
	Current() (models.Schedule, string, bool)
	Invalidate()
}

// Gate is the role check consulted before booking or cancelling.
type Gate interface {
	RequirePatient() error
}

// Coordinator runs the booking state machine for one patient session. It is
// caller-driven: every transition happens on a method call, and a single
// in-flight flag serializes book/cancel so rapid repeated submissions cannot
// race each other client-side. The authority still arbitrates conflicts
// between patients; a rejection is surfaced verbatim and answered with a
// refresh, never a blind retry.
type Coordinator struct {
	api       AppointmentAPI
	schedules ScheduleSource
	resolver  *Resolver
	gate      Gate
	logger    *zap.Logger
	now       func() time.Time

	mu           sync.Mutex
	state        State
	sel          Selection
	schedule     models.Schedule
	hasSchedule  bool
	dates        []string
	slots        []models.Slot
	appointments []models.Appointment
	busy         bool
	lastError    string
}

// NewCoordinator builds a Coordinator.
func NewCoordinator(a AppointmentAPI, schedules ScheduleSource, resolver *Resolver, gate Gate, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		api:       a,
		schedules: schedules,
		resolver:  resolver,
		gate:      gate,
		logger:    logger,
		now:       time.Now,
		state:     StateIdle,
	}
}

// State returns the current state of the booking attempt.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Selection returns the current funnel selection.
func (c *Coordinator) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

// LastError returns the authority's message from the most recent rejection.
func (c *Coordinator) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// AvailableDates returns the dates derived from the selected doctor's
// schedule snapshot.
func (c *Coordinator) AvailableDates() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.dates...)
}

// Slots returns the free slots for the selected date.
func (c *Coordinator) Slots() []models.Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Slot(nil), c.slots...)
}

// EligibleDoctors filters doctors to those offering the selected service.
func (c *Coordinator) EligibleDoctors(doctors []models.User) []models.User {
	serviceID := c.Selection().ServiceID
	if serviceID == "" {
		return nil
	}
	var out []models.User
	for _, d := range doctors {
		if d.Role == models.RoleDoctor && d.OffersService(serviceID) {
			out = append(out, d)
		}
	}
	return out
}

// SelectService starts or restarts the funnel. Doctor eligibility and slot
// availability both depend on the service, so every downstream choice resets.
func (c *Coordinator) SelectService(serviceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateSelecting
	c.sel = Selection{ServiceID: serviceID}
	c.schedule = models.Schedule{}
	c.hasSchedule = false
	c.dates = nil
	c.slots = nil
	c.lastError = ""
}

// SelectDoctor fetches the doctor's schedule and derives the date list from
// that single snapshot. Date and slot selection reset.
func (c *Coordinator) SelectDoctor(ctx context.Context, doctorID string) ([]string, error) {
	c.mu.Lock()
	if c.sel.ServiceID == "" {
		c.mu.Unlock()
		return nil, api.NewValidationError("select a service first")
	}
	c.sel.DoctorID = doctorID
	c.sel.Date = ""
	c.sel.SlotStart = ""
	c.dates = nil
	c.slots = nil
	c.hasSchedule = false
	c.mu.Unlock()

	if doctorID == "" {
		return nil, nil
	}

	sched, err := c.schedules.Load(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.schedule = sched
	c.hasSchedule = true
	c.dates = c.resolver.DatesWithAvailability(sched, c.now())
	return append([]string(nil), c.dates...), nil
}

// SelectDate filters the snapshot to the given date's free slots and resets
// the slot selection.
func (c *Coordinator) SelectDate(date string) ([]models.Slot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasSchedule {
		return nil, api.NewValidationError("select a doctor first")
	}
	c.sel.Date = date
	c.sel.SlotStart = ""
	c.slots = c.resolver.SlotsOnDate(c.schedule, c.now(), date)
	return append([]models.Slot(nil), c.slots...), nil
}

// SelectSlot arms submission with one of the offered slots.
func (c *Coordinator) SelectSlot(slotStart string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.slots {
		if s.Start == slotStart {
			c.sel.SlotStart = slotStart
			return nil
		}
	}
	return api.NewValidationError("slot %q is not offered on the selected date", slotStart)
}

// Submit books the selected slot. Service, doctor and slot must all be chosen
// (checked locally, before any network call). On success the selection clears
// and both the doctor's schedule and the patient's appointment list are
// re-fetched so neither view can show stale state. On rejection the
// authority's message is surfaced verbatim; the slot becomes selectable again
// only after a fresh schedule fetch.
func (c *Coordinator) Submit(ctx context.Context) (models.Appointment, error) {
	if err := c.gate.RequirePatient(); err != nil {
		return models.Appointment{}, err
	}

	c.mu.Lock()
	sel := c.sel
	if sel.ServiceID == "" || sel.DoctorID == "" || sel.SlotStart == "" {
		c.mu.Unlock()
		return models.Appointment{}, api.NewValidationError("service, doctor and slot must all be selected")
	}
	if c.busy {
		c.mu.Unlock()
		return models.Appointment{}, api.NewInvalidStateError("a booking is already in progress")
	}
	c.busy = true
	c.state = StateSubmitting
	c.mu.Unlock()
	defer c.clearBusy()

	appt, err := c.api.Book(ctx, models.BookingRequest{
		ServiceID: sel.ServiceID,
		DoctorID:  sel.DoctorID,
		SlotStart: sel.SlotStart,
	})
	if err != nil {
		c.mu.Lock()
		c.state = StateRejected
		c.lastError = err.Error()
		c.mu.Unlock()
		c.logger.Warn("booking rejected", zap.String("doctorID", sel.DoctorID), zap.Error(err))
		return models.Appointment{}, err
	}

	c.mu.Lock()
	c.state = StateConfirmed
	c.sel = Selection{}
	c.schedule = models.Schedule{}
	c.hasSchedule = false
	c.dates = nil
	c.slots = nil
	c.lastError = ""
	c.mu.Unlock()

	c.refreshAfterMutation(ctx, sel.DoctorID)
	return appt, nil
}

// Cancel deletes one of the patient's appointments. Only a booked appointment
// whose start is strictly in the future may be cancelled; that is enforced
// locally before any request. On success the appointment list is re-fetched
// and, if a schedule is loaded for that doctor, it is re-fetched too so the
// freed slot reappears as available.
func (c *Coordinator) Cancel(ctx context.Context, appt models.Appointment) error {
	if err := c.gate.RequirePatient(); err != nil {
		return err
	}
	if appt.Status != models.StatusBooked {
		return api.NewInvalidStateError("only booked appointments can be cancelled")
	}
	start, err := time.Parse(time.RFC3339, appt.Start)
	if err != nil {
		return api.NewValidationError("appointment has an invalid start time %q", appt.Start)
	}
	if !start.After(c.now()) {
		return api.NewInvalidStateError("past appointments cannot be cancelled")
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return api.NewInvalidStateError("a booking action is already in progress")
	}
	c.busy = true
	c.mu.Unlock()
	defer c.clearBusy()

	if err := c.api.CancelAppointment(ctx, appt.ID); err != nil {
		return err
	}

	doctorID := ""
	if appt.Doctor != nil {
		doctorID = appt.Doctor.ID
	}
	c.refreshAfterMutation(ctx, doctorID)
	return nil
}

// MyAppointments fetches and caches the patient's appointments, ascending by
// start time.
func (c *Coordinator) MyAppointments(ctx context.Context) ([]models.Appointment, error) {
	if err := c.gate.RequirePatient(); err != nil {
		return nil, err
	}
	appts, err := c.api.MyAppointments(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(appts, func(i, j int) bool {
		return appts[i].Start < appts[j].Start
	})
	c.mu.Lock()
	c.appointments = appts
	c.mu.Unlock()
	return appts, nil
}

// refreshAfterMutation re-fetches the views a successful mutation staled. The
// schedule is reloaded only when the store currently holds that doctor's
// schedule; a copy of some other doctor is left alone. When the funnel is
// still pointed at the same doctor the cached snapshot is recomputed too, so
// a freed slot reappears in the date and slot lists without a new selection.
// A failed refresh is logged and the cached copies are dropped, so the next
// read fetches fresh state instead of serving the stale one.
func (c *Coordinator) refreshAfterMutation(ctx context.Context, doctorID string) {
	if doctorID != "" {
		if _, current, ok := c.schedules.Current(); ok && current == doctorID {
			sched, err := c.schedules.Load(ctx, doctorID)
			if err != nil {
				c.schedules.Invalidate()
				c.logger.Warn("schedule refresh after booking change failed", zap.Error(err))
			} else {
				c.mu.Lock()
				if c.hasSchedule && c.sel.DoctorID == doctorID {
					c.schedule = sched
					c.dates = c.resolver.DatesWithAvailability(sched, c.now())
					if c.sel.Date != "" {
						c.slots = c.resolver.SlotsOnDate(sched, c.now(), c.sel.Date)
					}
				}
				c.mu.Unlock()
			}
		}
	}
	appts, err := c.api.MyAppointments(ctx)
	if err != nil {
		c.mu.Lock()
		c.appointments = nil
		c.mu.Unlock()
		c.logger.Warn("appointment refresh after booking change failed", zap.Error(err))
		return
	}
	sort.SliceStable(appts, func(i, j int) bool {
		return appts[i].Start < appts[j].Start
	})
	c.mu.Lock()
	c.appointments = appts
	c.mu.Unlock()
}

// Appointments returns the cached appointment list from the last refresh.
func (c *Coordinator) Appointments() []models.Appointment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Appointment(nil), c.appointments...)
}

func (c *Coordinator) clearBusy() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}
