// Package admin covers service CRUD, cross-user listings and doctor service
// assignment. Everything here is gated on the admin role.
package admin

import (
	"context"

	"clinicbook/api"
	"clinicbook/models"

	"go.uber.org/zap"
)

// API is the slice of the authority the admin service talks to.
type API interface {
	Services(ctx context.Context) ([]models.Service, error)
	CreateService(ctx context.Context, svc models.Service) (models.Service, error)
	UpdateService(ctx context.Context, id string, svc models.Service) (models.Service, error)
	DeleteService(ctx context.Context, id string) error
	AdminUsers(ctx context.Context) ([]models.User, error)
	AdminAppointments(ctx context.Context) ([]models.Appointment, error)
	AdminAssignServices(ctx context.Context, userID string, serviceIDs []string) (models.User, error)
}

// Gate is the role check consulted before admin operations.
type Gate interface {
	RequireAdmin() error
}

// Service is the admin-facing surface.
type Service struct {
	api    API
	gate   Gate
	logger *zap.Logger
}

// NewService builds an admin service.
func NewService(a API, gate Gate, logger *zap.Logger) *Service {
	return &Service{api: a, gate: gate, logger: logger}
}

// Users lists every account.
func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	if err := s.gate.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.api.AdminUsers(ctx)
}

// Appointments lists every appointment across users.
func (s *Service) Appointments(ctx context.Context) ([]models.Appointment, error) {
	if err := s.gate.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.api.AdminAppointments(ctx)
}

// CreateService adds a clinic service after local field validation.
func (s *Service) CreateService(ctx context.Context, svc models.Service) (models.Service, error) {
	if err := s.gate.RequireAdmin(); err != nil {
		return models.Service{}, err
	}
	if err := validateService(svc); err != nil {
		return models.Service{}, err
	}
	return s.api.CreateService(ctx, svc)
}

// UpdateService replaces a clinic service's fields.
func (s *Service) UpdateService(ctx context.Context, id string, svc models.Service) (models.Service, error) {
	if err := s.gate.RequireAdmin(); err != nil {
		return models.Service{}, err
	}
	if id == "" {
		return models.Service{}, api.NewValidationError("service id is required")
	}
	if err := validateService(svc); err != nil {
		return models.Service{}, err
	}
	return s.api.UpdateService(ctx, id, svc)
}

// DeleteService removes a clinic service.
func (s *Service) DeleteService(ctx context.Context, id string) error {
	if err := s.gate.RequireAdmin(); err != nil {
		return err
	}
	if id == "" {
		return api.NewValidationError("service id is required")
	}
	return s.api.DeleteService(ctx, id)
}

// AssignServices replaces a doctor's offered-services set.
func (s *Service) AssignServices(ctx context.Context, userID string, serviceIDs []string) (models.User, error) {
	if err := s.gate.RequireAdmin(); err != nil {
		return models.User{}, err
	}
	if userID == "" {
		return models.User{}, api.NewValidationError("user id is required")
	}
	return s.api.AdminAssignServices(ctx, userID, serviceIDs)
}

func validateService(svc models.Service) error {
	if svc.Name == "" {
		return api.NewValidationError("service name is required")
	}
	if svc.DurationMin <= 0 {
		return api.NewValidationError("service duration must be positive")
	}
	if svc.Fee < 0 {
		return api.NewValidationError("service fee cannot be negative")
	}
	return nil
}
