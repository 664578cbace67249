package memory

import (
	"context"
	"sync"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
)

// ClockStore is the in-memory ClockRepository
type ClockStore struct {
	mu    sync.RWMutex
	clock *entities.SimulationClock
}

// NewClockStore creates a clock store initialized with the given clock
func NewClockStore(clock *entities.SimulationClock) repositories.ClockRepository {
	return &ClockStore{clock: clock.Clone()}
}

// Get retrieves the current clock
func (s *ClockStore) Get(ctx context.Context) (*entities.SimulationClock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock.Clone(), nil
}

// Save persists the clock
func (s *ClockStore) Save(ctx context.Context, clock *entities.SimulationClock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock.Clone()
	return nil
}
