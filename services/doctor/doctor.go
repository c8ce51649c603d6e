// Package doctor covers the doctor-side operations: managing the own schedule
// through the slot store and maintaining patient appointment records.
package doctor

import (
	"context"
	"sync"
	"time"

	"clinicbook/api"
	"clinicbook/models"

	"go.uber.org/zap"
)

// API is the slice of the authority the doctor service talks to.
type API interface {
	Me(ctx context.Context) (models.User, error)
	SetMyServices(ctx context.Context, serviceIDs []string) (models.User, error)
	DoctorAppointments(ctx context.Context) ([]models.Appointment, error)
	UpdateDoctorAppointment(ctx context.Context, id string, upd models.AppointmentUpdate) (models.Appointment, error)
}

// Gate is the role check consulted before doctor operations.
type Gate interface {
	RequireDoctor() error
}

// Service wraps the doctor-side API with local validation and the same
// one-mutation-at-a-time serialization the other stores use.
type Service struct {
	api    API
	gate   Gate
	logger *zap.Logger

	mu   sync.Mutex
	busy bool
}

// NewService builds a doctor service.
func NewService(a API, gate Gate, logger *zap.Logger) *Service {
	return &Service{api: a, gate: gate, logger: logger}
}

// Profile fetches the doctor's own profile.
func (s *Service) Profile(ctx context.Context) (models.User, error) {
	if err := s.gate.RequireDoctor(); err != nil {
		return models.User{}, err
	}
	return s.api.Me(ctx)
}

// SetServices replaces the doctor's offered-services set and returns the
// updated profile.
func (s *Service) SetServices(ctx context.Context, serviceIDs []string) (models.User, error) {
	if err := s.gate.RequireDoctor(); err != nil {
		return models.User{}, err
	}
	if err := s.begin(); err != nil {
		return models.User{}, err
	}
	defer s.end()
	return s.api.SetMyServices(ctx, serviceIDs)
}

// Appointments lists the doctor's patient appointments.
func (s *Service) Appointments(ctx context.Context) ([]models.Appointment, error) {
	if err := s.gate.RequireDoctor(); err != nil {
		return nil, err
	}
	return s.api.DoctorAppointments(ctx)
}

// UpdateAppointment writes diagnosis, notes, status and next visit for one of
// the doctor's appointments. Status and next-visit time are validated locally
// before the request.
func (s *Service) UpdateAppointment(ctx context.Context, id string, upd models.AppointmentUpdate) (models.Appointment, error) {
	if err := s.gate.RequireDoctor(); err != nil {
		return models.Appointment{}, err
	}
	if id == "" {
		return models.Appointment{}, api.NewValidationError("appointment id is required")
	}
	if upd.Status != "" && !models.ValidStatus(upd.Status) {
		return models.Appointment{}, api.NewValidationError("unknown status %q", upd.Status)
	}
	if upd.NextVisitAt != "" {
		if _, err := time.Parse(time.RFC3339, upd.NextVisitAt); err != nil {
			return models.Appointment{}, api.NewValidationError("invalid next visit time %q", upd.NextVisitAt)
		}
	}
	if err := s.begin(); err != nil {
		return models.Appointment{}, err
	}
	defer s.end()
	return s.api.UpdateDoctorAppointment(ctx, id, upd)
}

func (s *Service) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return api.NewInvalidStateError("another update is still in progress")
	}
	s.busy = true
	return nil
}

func (s *Service) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}
