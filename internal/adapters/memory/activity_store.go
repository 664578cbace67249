package memory

import (
	"context"
	"sync"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
)

// ActivityStore is the in-memory, append-only ActivityRepository. Entries are
// kept in append order, which is also timestamp order.
type ActivityStore struct {
	mu      sync.RWMutex
	entries []*entities.ActivityEntry
}

// NewActivityStore creates an empty in-memory activity store
func NewActivityStore() repositories.ActivityRepository {
	return &ActivityStore{}
}

// Append records an activity entry
func (s *ActivityStore) Append(ctx context.Context, entry *entities.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry.Clone())
	return nil
}

// ListByAppointmentDay retrieves entries whose appointment falls on the given day
func (s *ActivityStore) ListByAppointmentDay(ctx context.Context, dayIndex int) ([]*entities.ActivityEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := []*entities.ActivityEntry{}
	for _, entry := range s.entries {
		if entry.AppointmentDayIndex == dayIndex {
			entries = append(entries, entry.Clone())
		}
	}
	return entries, nil
}

// ListByAppointment retrieves entries for one appointment
func (s *ActivityStore) ListByAppointment(ctx context.Context, appointmentID string) ([]*entities.ActivityEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := []*entities.ActivityEntry{}
	for _, entry := range s.entries {
		if entry.AppointmentID == appointmentID {
			entries = append(entries, entry.Clone())
		}
	}
	return entries, nil
}
