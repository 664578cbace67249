package repositories

import (
	"context"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
)

// StrategyRepository defines the interface for strategy data operations
type StrategyRepository interface {
	// Create creates a new strategy
	Create(ctx context.Context, strategy *entities.Strategy) error

	// GetByID retrieves a strategy by ID
	GetByID(ctx context.Context, id string) (*entities.Strategy, error)

	// Update overwrites an existing strategy
	Update(ctx context.Context, strategy *entities.Strategy) error

	// List retrieves all strategies
	List(ctx context.Context) ([]*entities.Strategy, error)
}
