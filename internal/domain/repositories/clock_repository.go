package repositories

import (
	"context"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
)

// ClockRepository holds the simulation clock. The clock is initialized once
// at process start and only its TodayIndex ever changes.
type ClockRepository interface {
	// Get retrieves the current clock
	Get(ctx context.Context) (*entities.SimulationClock, error)

	// Save persists the clock
	Save(ctx context.Context, clock *entities.SimulationClock) error
}
