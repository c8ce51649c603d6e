// Package schedule is the client-side slot store: a disposable in-memory copy
// of one doctor's schedule, replaced wholesale on every fetch. The authority
// stays authoritative; after any mutation the store re-fetches rather than
// trusting its local state.
package schedule

import (
	"context"
	"sync"
	"time"

	"clinicbook/api"
	"clinicbook/models"

	"go.uber.org/zap"
)

// API is the slice of the authority the store talks to.
type API interface {
	MySchedule(ctx context.Context) (models.Schedule, error)
	DoctorSchedule(ctx context.Context, doctorID string) (models.Schedule, error)
	AddSlots(ctx context.Context, ranges []models.SlotRange) (models.Schedule, error)
	DeleteSlot(ctx context.Context, scheduleID string, index int) error
}

// Gate is the role check the store consults before mutating.
type Gate interface {
	RequireDoctor() error
}

// Store caches the most recently loaded schedule. A single in-flight flag
// serializes mutations so rapid repeated actions cannot double-submit.
type Store struct {
	api    API
	gate   Gate
	logger *zap.Logger

	mu       sync.Mutex
	busy     bool
	current  models.Schedule
	loaded   bool
	doctorID string // "" when the loaded schedule is the doctor's own
}

// NewStore builds a slot store over the given authority client and role gate.
func NewStore(a API, gate Gate, logger *zap.Logger) *Store {
	return &Store{api: a, gate: gate, logger: logger}
}

// Load fetches a doctor's schedule, fully replacing any prior copy.
func (s *Store) Load(ctx context.Context, doctorID string) (models.Schedule, error) {
	if doctorID == "" {
		return models.Schedule{}, api.NewValidationError("doctor id is required")
	}
	sched, err := s.api.DoctorSchedule(ctx, doctorID)
	if err != nil {
		return models.Schedule{}, err
	}
	s.replace(sched, doctorID)
	return sched, nil
}

// LoadMine fetches the authenticated doctor's own schedule.
func (s *Store) LoadMine(ctx context.Context) (models.Schedule, error) {
	if err := s.gate.RequireDoctor(); err != nil {
		return models.Schedule{}, err
	}
	sched, err := s.api.MySchedule(ctx)
	if err != nil {
		return models.Schedule{}, err
	}
	s.replace(sched, "")
	return sched, nil
}

// Current returns the cached schedule and the doctor id it was loaded for
// ("" for the doctor's own). The copy is stale from the moment any mutation
// is issued until its implicit re-load completes.
func (s *Store) Current() (models.Schedule, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.doctorID, s.loaded
}

// Invalidate drops the cached copy so the next read must re-fetch.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.current = models.Schedule{}
	s.loaded = false
	s.doctorID = ""
	s.mu.Unlock()
}

// AddSlots appends the given ranges to the doctor's own schedule. Each range
// is validated locally (parseable timestamps, end after start) before any
// request; overlap detection stays with the authority, which rejects with a
// conflict. On success the schedule is re-fetched.
func (s *Store) AddSlots(ctx context.Context, ranges []models.SlotRange) (models.Schedule, error) {
	if err := s.gate.RequireDoctor(); err != nil {
		return models.Schedule{}, err
	}
	if len(ranges) == 0 {
		return models.Schedule{}, api.NewValidationError("at least one slot range is required")
	}
	for _, r := range ranges {
		start, err := time.Parse(time.RFC3339, r.Start)
		if err != nil {
			return models.Schedule{}, api.NewValidationError("invalid start time %q", r.Start)
		}
		end, err := time.Parse(time.RFC3339, r.End)
		if err != nil {
			return models.Schedule{}, api.NewValidationError("invalid end time %q", r.End)
		}
		if !end.After(start) {
			return models.Schedule{}, api.NewValidationError("slot end must be after start")
		}
	}

	if err := s.begin(); err != nil {
		return models.Schedule{}, err
	}
	defer s.end()

	if _, err := s.api.AddSlots(ctx, ranges); err != nil {
		return models.Schedule{}, err
	}
	return s.reloadMine(ctx)
}

// DeleteSlot removes the slot at index from the doctor's own schedule. The
// schedule is re-fetched immediately before the checks: the index refers to a
// position in the authority's current slot list, and a patient may have
// booked the slot since the last load. A booked slot is refused locally and
// no delete request is issued. On success the schedule is re-fetched again.
func (s *Store) DeleteSlot(ctx context.Context, scheduleID string, index int) (models.Schedule, error) {
	if err := s.gate.RequireDoctor(); err != nil {
		return models.Schedule{}, err
	}

	sched, err := s.LoadMine(ctx)
	if err != nil {
		return models.Schedule{}, err
	}
	if scheduleID == "" {
		scheduleID = sched.ID
	}
	if scheduleID != sched.ID {
		return models.Schedule{}, api.NewValidationError("unknown schedule %q", scheduleID)
	}
	if index < 0 || index >= len(sched.Slots) {
		return models.Schedule{}, api.NewValidationError("slot index %d out of range", index)
	}
	if sched.Slots[index].Booked {
		return models.Schedule{}, api.NewInvalidStateError("slot is booked and cannot be deleted")
	}

	if err := s.begin(); err != nil {
		return models.Schedule{}, err
	}
	defer s.end()

	if err := s.api.DeleteSlot(ctx, scheduleID, index); err != nil {
		return models.Schedule{}, err
	}
	return s.reloadMine(ctx)
}

func (s *Store) reloadMine(ctx context.Context) (models.Schedule, error) {
	sched, err := s.api.MySchedule(ctx)
	if err != nil {
		// The mutation committed but the re-load failed; drop the stale copy
		// so the next read fetches fresh state.
		s.Invalidate()
		s.logger.Warn("schedule re-load after mutation failed", zap.Error(err))
		return models.Schedule{}, err
	}
	s.replace(sched, "")
	return sched, nil
}

func (s *Store) replace(sched models.Schedule, doctorID string) {
	s.mu.Lock()
	s.current = sched
	s.loaded = true
	s.doctorID = doctorID
	s.mu.Unlock()
}

func (s *Store) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return api.NewInvalidStateError("another schedule change is still in progress")
	}
	s.busy = true
	return nil
}

func (s *Store) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}
