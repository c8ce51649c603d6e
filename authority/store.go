package authority

import (
	"sync"
	"time"

	"clinicbook/models"

	"github.com/google/uuid"
)

// account pairs a user with its password hash.
type account struct {
	user models.User
	hash []byte
}

// appointmentRecord is the stored shape of an appointment: bare ids that get
// populated into documents at read time, the way the real authority populates
// references.
type appointmentRecord struct {
	ID          string
	PatientID   string
	DoctorID    string
	ServiceID   string
	Start       string
	End         string
	Status      string
	Diagnosis   string
	Notes       string
	NextVisitAt string
	CreatedAt   time.Time
}

// store is the authority's whole state. Everything lives behind one mutex;
// the tests and the devserver need hermetic state, not a database.
type store struct {
	mu           sync.Mutex
	accounts     map[string]*account           // by user id
	byEmail      map[string]string             // email -> user id
	services     map[string]*models.Service    // by service id
	schedules    map[string]*models.Schedule   // by doctor id
	appointments map[string]*appointmentRecord // by appointment id
}

func newStore() *store {
	return &store{
		accounts:     make(map[string]*account),
		byEmail:      make(map[string]string),
		services:     make(map[string]*models.Service),
		schedules:    make(map[string]*models.Schedule),
		appointments: make(map[string]*appointmentRecord),
	}
}

// addAccount registers a user, creating an empty schedule for doctors.
func (st *store) addAccount(user models.User, hash []byte) models.User {
	user.ID = uuid.New().String()
	st.accounts[user.ID] = &account{user: user, hash: hash}
	st.byEmail[user.Email] = user.ID
	if user.Role == models.RoleDoctor {
		st.schedules[user.ID] = &models.Schedule{
			ID:       uuid.New().String(),
			DoctorID: user.ID,
			Slots:    []models.Slot{},
		}
	}
	return user
}

// populateServices resolves a user's service id refs into documents. The
// slice is copied so the stored account keeps bare ids.
func (st *store) populateServices(user models.User) models.User {
	if len(user.Services) == 0 {
		return user
	}
	refs := make([]models.ServiceRef, len(user.Services))
	for i, ref := range user.Services {
		if svc, ok := st.services[ref.ID]; ok {
			copied := *svc
			refs[i] = models.ServiceRef{ID: svc.ID, Service: &copied}
		} else {
			refs[i] = ref
		}
	}
	user.Services = refs
	return user
}

// populateAppointment resolves an appointment record's refs into documents.
func (st *store) populateAppointment(rec *appointmentRecord) models.Appointment {
	appt := models.Appointment{
		ID:          rec.ID,
		Start:       rec.Start,
		Status:      rec.Status,
		Diagnosis:   rec.Diagnosis,
		Notes:       rec.Notes,
		NextVisitAt: rec.NextVisitAt,
	}
	if acc, ok := st.accounts[rec.PatientID]; ok {
		patient := acc.user
		appt.Patient = &models.UserRef{ID: patient.ID, User: &patient}
	} else {
		appt.Patient = &models.UserRef{ID: rec.PatientID}
	}
	if acc, ok := st.accounts[rec.DoctorID]; ok {
		doc := acc.user
		appt.Doctor = &models.UserRef{ID: doc.ID, User: &doc}
	} else {
		appt.Doctor = &models.UserRef{ID: rec.DoctorID}
	}
	if svc, ok := st.services[rec.ServiceID]; ok {
		copied := *svc
		appt.Service = &models.ServiceRef{ID: svc.ID, Service: &copied}
	} else {
		appt.Service = &models.ServiceRef{ID: rec.ServiceID}
	}
	return appt
}
