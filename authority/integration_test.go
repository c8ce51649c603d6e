package authority_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"clinicbook/api"
	"clinicbook/authority"
	"clinicbook/models"
	"clinicbook/services/booking"
	"clinicbook/services/doctor"
	"clinicbook/services/schedule"
	"clinicbook/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// actor is one authenticated user with its own session and client stack.
type actor struct {
	session *session.Session
	client  *api.Client
}

func newActor(t *testing.T, baseURL string) *actor {
	t.Helper()
	logger := zap.NewNop()
	sess := session.New(filepath.Join(t.TempDir(), "credentials.json"), logger)
	return &actor{
		session: sess,
		client:  api.NewClient(baseURL, sess, logger),
	}
}

func register(t *testing.T, a *actor, req models.RegisterRequest) models.User {
	t.Helper()
	user, err := a.session.Register(context.Background(), a.client, req)
	require.NoError(t, err)
	return user
}

// clinic is a fully seeded test deployment: one service, one doctor offering
// it with two free slots tomorrow, one patient.
type clinic struct {
	srv     *httptest.Server
	admin   *actor
	doctor  *actor
	patient *actor
	service models.Service
	docUser models.User
	slot1   string
	slot2   string
}

func newClinic(t *testing.T) *clinic {
	t.Helper()
	ctx := context.Background()
	srv := httptest.NewServer(authority.New(zap.NewNop()).Handler())
	t.Cleanup(srv.Close)

	cl := &clinic{srv: srv}
	cl.admin = newActor(t, srv.URL)
	cl.doctor = newActor(t, srv.URL)
	cl.patient = newActor(t, srv.URL)

	register(t, cl.admin, models.RegisterRequest{
		Name: "Root", Email: "root@clinic.test", Password: "pw", Role: models.RoleAdmin,
	})
	cl.docUser = register(t, cl.doctor, models.RegisterRequest{
		Name: "Dr. Bold", Email: "bold@clinic.test", Password: "pw",
		Role: models.RoleDoctor, Specialization: "Cardiology",
	})
	register(t, cl.patient, models.RegisterRequest{
		Name: "Ana", Email: "ana@clinic.test", Password: "pw", Role: models.RolePatient,
	})

	svc, err := cl.admin.client.CreateService(ctx, models.Service{
		Name: "Checkup", DurationMin: 30, Fee: 25,
	})
	require.NoError(t, err)
	cl.service = svc

	_, err = cl.admin.client.AdminAssignServices(ctx, cl.docUser.ID, []string{svc.ID})
	require.NoError(t, err)

	tomorrow := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	cl.slot1 = tomorrow.UTC().Format(time.RFC3339)
	cl.slot2 = tomorrow.Add(30 * time.Minute).UTC().Format(time.RFC3339)
	_, err = cl.doctor.client.AddSlots(ctx, []models.SlotRange{
		{Start: cl.slot1, End: cl.slot2},
		{Start: cl.slot2, End: tomorrow.Add(time.Hour).UTC().Format(time.RFC3339)},
	})
	require.NoError(t, err)

	return cl
}

func newPatientCoordinator(a *actor) (*booking.Coordinator, *schedule.Store) {
	logger := zap.NewNop()
	store := schedule.NewStore(a.client, a.session, logger)
	resolver := booking.NewResolver(logger)
	return booking.NewCoordinator(a.client, store, resolver, a.session, logger), store
}

func TestBookingLifecycle(t *testing.T) {
	ctx := context.Background()
	cl := newClinic(t)
	coord, store := newPatientCoordinator(cl.patient)

	// The doctor is eligible for the seeded service.
	doctors, err := cl.patient.client.Doctors(ctx)
	require.NoError(t, err)
	coord.SelectService(cl.service.ID)
	eligible := coord.EligibleDoctors(doctors)
	require.Len(t, eligible, 1)
	require.Equal(t, cl.docUser.ID, eligible[0].ID)

	dates, err := coord.SelectDoctor(ctx, cl.docUser.ID)
	require.NoError(t, err)
	require.Len(t, dates, 1)

	slots, err := coord.SelectDate(dates[0])
	require.NoError(t, err)
	require.Len(t, slots, 2)
	require.NoError(t, coord.SelectSlot(cl.slot1))

	appt, err := coord.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBooked, appt.Status)
	assert.Equal(t, "Checkup", appt.Service.Name())
	assert.Equal(t, booking.StateConfirmed, coord.State())
	assert.Equal(t, booking.Selection{}, coord.Selection())

	// The refreshed schedule shows the slot as booked.
	sched, _, ok := store.Current()
	require.True(t, ok)
	var bookedCount int
	for _, s := range sched.Slots {
		if s.Booked {
			bookedCount++
			assert.Equal(t, cl.slot1, s.Start)
		}
	}
	assert.Equal(t, 1, bookedCount)

	// The appointment list was re-fetched too.
	require.Len(t, coord.Appointments(), 1)
}

func TestConcurrentBookingLosesWithConflict(t *testing.T) {
	ctx := context.Background()
	cl := newClinic(t)

	first, _ := newPatientCoordinator(cl.patient)
	first.SelectService(cl.service.ID)
	_, err := first.SelectDoctor(ctx, cl.docUser.ID)
	require.NoError(t, err)

	rival := newActor(t, cl.srv.URL)
	register(t, rival, models.RegisterRequest{
		Name: "Bolor", Email: "bolor@clinic.test", Password: "pw", Role: models.RolePatient,
	})
	second, _ := newPatientCoordinator(rival)
	second.SelectService(cl.service.ID)
	_, err = second.SelectDoctor(ctx, cl.docUser.ID)
	require.NoError(t, err)

	// Both patients saw the same free slot; only the first submit wins.
	dates := first.AvailableDates()
	_, err = first.SelectDate(dates[0])
	require.NoError(t, err)
	require.NoError(t, first.SelectSlot(cl.slot1))
	_, err = second.SelectDate(dates[0])
	require.NoError(t, err)
	require.NoError(t, second.SelectSlot(cl.slot1))

	_, err = first.Submit(ctx)
	require.NoError(t, err)

	_, err = second.Submit(ctx)
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))
	assert.Equal(t, "slot already booked", err.Error())
	assert.Equal(t, booking.StateRejected, second.State())

	// After a fresh fetch the loser no longer sees the slot.
	dates, err = second.SelectDoctor(ctx, cl.docUser.ID)
	require.NoError(t, err)
	slots, err := second.SelectDate(dates[0])
	require.NoError(t, err)
	for _, s := range slots {
		assert.NotEqual(t, cl.slot1, s.Start)
	}
}

func TestCancellationFreesTheSlot(t *testing.T) {
	ctx := context.Background()
	cl := newClinic(t)
	coord, _ := newPatientCoordinator(cl.patient)

	coord.SelectService(cl.service.ID)
	dates, err := coord.SelectDoctor(ctx, cl.docUser.ID)
	require.NoError(t, err)
	_, err = coord.SelectDate(dates[0])
	require.NoError(t, err)
	require.NoError(t, coord.SelectSlot(cl.slot1))
	appt, err := coord.Submit(ctx)
	require.NoError(t, err)

	appt.Doctor = &models.UserRef{ID: cl.docUser.ID}
	require.NoError(t, coord.Cancel(ctx, appt))

	assert.Empty(t, coord.Appointments())

	// The freed slot is offered again.
	coord.SelectService(cl.service.ID)
	dates, err = coord.SelectDoctor(ctx, cl.docUser.ID)
	require.NoError(t, err)
	slots, err := coord.SelectDate(dates[0])
	require.NoError(t, err)
	starts := make([]string, len(slots))
	for i, s := range slots {
		starts[i] = s.Start
	}
	assert.Contains(t, starts, cl.slot1)
}

func TestDoctorCannotDeleteBookedSlot(t *testing.T) {
	ctx := context.Background()
	cl := newClinic(t)
	coord, _ := newPatientCoordinator(cl.patient)

	coord.SelectService(cl.service.ID)
	dates, err := coord.SelectDoctor(ctx, cl.docUser.ID)
	require.NoError(t, err)
	_, err = coord.SelectDate(dates[0])
	require.NoError(t, err)
	require.NoError(t, coord.SelectSlot(cl.slot1))
	_, err = coord.Submit(ctx)
	require.NoError(t, err)

	docStore := schedule.NewStore(cl.doctor.client, cl.doctor.session, zap.NewNop())
	sched, err := docStore.LoadMine(ctx)
	require.NoError(t, err)

	bookedIdx := -1
	for i, s := range sched.Slots {
		if s.Booked {
			bookedIdx = i
		}
	}
	require.GreaterOrEqual(t, bookedIdx, 0)

	// Blocked locally before any request reaches the authority.
	_, err = docStore.DeleteSlot(ctx, sched.ID, bookedIdx)
	assert.True(t, api.IsInvalidState(err))

	// Deleting the free slot works and the re-fetched schedule shrinks.
	freeIdx := 1 - bookedIdx
	after, err := docStore.DeleteSlot(ctx, sched.ID, freeIdx)
	require.NoError(t, err)
	assert.Len(t, after.Slots, 1)
	assert.True(t, after.Slots[0].Booked)
}

func TestOverlappingSlotAddRejected(t *testing.T) {
	ctx := context.Background()
	cl := newClinic(t)

	// cl already has a slot covering slot1..slot2; adding an overlapping
	// range is refused by the authority.
	overlapEnd := mustShift(t, cl.slot1, 15*time.Minute)
	_, err := cl.doctor.client.AddSlots(ctx, []models.SlotRange{
		{Start: cl.slot1, End: overlapEnd},
	})
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))
}

func TestDoctorRecordsVisitOutcome(t *testing.T) {
	ctx := context.Background()
	cl := newClinic(t)
	coord, _ := newPatientCoordinator(cl.patient)

	coord.SelectService(cl.service.ID)
	dates, err := coord.SelectDoctor(ctx, cl.docUser.ID)
	require.NoError(t, err)
	_, err = coord.SelectDate(dates[0])
	require.NoError(t, err)
	require.NoError(t, coord.SelectSlot(cl.slot1))
	appt, err := coord.Submit(ctx)
	require.NoError(t, err)

	next := mustShift(t, cl.slot1, 7*24*time.Hour)
	updated, err := cl.doctor.client.UpdateDoctorAppointment(ctx, appt.ID, models.AppointmentUpdate{
		Diagnosis:   "Hypertension stage 1",
		Notes:       "Recheck blood pressure",
		Status:      models.StatusCompleted,
		NextVisitAt: next,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, "Hypertension stage 1", updated.Diagnosis)

	// The patient sees the outcome on their own list.
	appts, err := coord.MyAppointments(ctx)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, models.StatusCompleted, appts[0].Status)
	assert.Equal(t, next, appts[0].NextVisitAt)
}

func TestDoctorManagesOwnServices(t *testing.T) {
	ctx := context.Background()
	cl := newClinic(t)

	extra, err := cl.admin.client.CreateService(ctx, models.Service{
		Name: "Follow-up", DurationMin: 15, Fee: 10,
	})
	require.NoError(t, err)

	docSvc := doctor.NewService(cl.doctor.client, cl.doctor.session, zap.NewNop())
	updated, err := docSvc.SetServices(ctx, []string{cl.service.ID, extra.ID})
	require.NoError(t, err)
	require.Len(t, updated.Services, 2)

	profile, err := docSvc.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, cl.docUser.ID, profile.ID)
	assert.True(t, profile.OffersService(extra.ID))
	var names []string
	for _, ref := range profile.Services {
		names = append(names, ref.Name())
	}
	assert.Contains(t, names, "Follow-up")

	// Patients can now funnel into the new service with this doctor.
	doctors, err := cl.patient.client.Doctors(ctx)
	require.NoError(t, err)
	coord, _ := newPatientCoordinator(cl.patient)
	coord.SelectService(extra.ID)
	eligible := coord.EligibleDoctors(doctors)
	require.Len(t, eligible, 1)
	assert.Equal(t, cl.docUser.ID, eligible[0].ID)

	// Unknown service ids are refused by the authority.
	_, err = docSvc.SetServices(ctx, []string{"no-such-service"})
	assert.True(t, api.IsValidation(err))

	// The doctor surface is gated on the doctor role.
	patientSvc := doctor.NewService(cl.patient.client, cl.patient.session, zap.NewNop())
	_, err = patientSvc.SetServices(ctx, []string{extra.ID})
	assert.True(t, api.IsAuth(err))
}

func TestPatientCannotManageSchedules(t *testing.T) {
	ctx := context.Background()
	cl := newClinic(t)

	store := schedule.NewStore(cl.patient.client, cl.patient.session, zap.NewNop())
	_, err := store.AddSlots(ctx, []models.SlotRange{
		{Start: cl.slot1, End: cl.slot2},
	})
	assert.True(t, api.IsAuth(err))

	// The authority enforces it too, independent of the local gate.
	_, err = cl.patient.client.AddSlots(ctx, []models.SlotRange{
		{Start: cl.slot1, End: cl.slot2},
	})
	assert.True(t, api.IsAuth(err))
}

func mustShift(t *testing.T, stamp string, d time.Duration) string {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, stamp)
	require.NoError(t, err)
	return parsed.Add(d).UTC().Format(time.RFC3339)
}
