package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
	apperrors "github.com/attendlab/clinic-noshow-sim/pkg/errors"
)

// AppointmentStore is the in-memory AppointmentRepository. All entities are
// cloned on the way in and out, so callers never observe a torn write.
type AppointmentStore struct {
	mu           sync.RWMutex
	appointments map[string]*entities.Appointment
}

// NewAppointmentStore creates an empty in-memory appointment store
func NewAppointmentStore() repositories.AppointmentRepository {
	return &AppointmentStore{
		appointments: make(map[string]*entities.Appointment),
	}
}

// Create creates a new appointment
func (s *AppointmentStore) Create(ctx context.Context, appointment *entities.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.appointments[appointment.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("appointment with id %s already exists", appointment.ID))
	}
	s.appointments[appointment.ID] = appointment.Clone()
	return nil
}

// GetByID retrieves an appointment by ID
func (s *AppointmentStore) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointment, ok := s.appointments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	return appointment.Clone(), nil
}

// Update overwrites an existing appointment
func (s *AppointmentStore) Update(ctx context.Context, appointment *entities.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[appointment.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", appointment.ID))
	}
	s.appointments[appointment.ID] = appointment.Clone()
	return nil
}

// ListByDay retrieves a day's appointments ordered by scheduled time ascending
func (s *AppointmentStore) ListByDay(ctx context.Context, dayIndex int) ([]*entities.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointments := []*entities.Appointment{}
	for _, a := range s.appointments {
		if a.DayIndex == dayIndex {
			appointments = append(appointments, a.Clone())
		}
	}
	sortBySchedule(appointments)
	return appointments, nil
}

// ListAll retrieves every appointment in the book
func (s *AppointmentStore) ListAll(ctx context.Context) ([]*entities.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointments := make([]*entities.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		appointments = append(appointments, a.Clone())
	}
	sortBySchedule(appointments)
	return appointments, nil
}

func sortBySchedule(appointments []*entities.Appointment) {
	sort.Slice(appointments, func(i, j int) bool {
		if appointments[i].ScheduledAt.Equal(appointments[j].ScheduledAt) {
			return appointments[i].ID < appointments[j].ID
		}
		return appointments[i].ScheduledAt.Before(appointments[j].ScheduledAt)
	})
}
