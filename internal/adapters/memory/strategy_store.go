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

// StrategyStore is the in-memory StrategyRepository
type StrategyStore struct {
	mu         sync.RWMutex
	strategies map[string]*entities.Strategy
}

// NewStrategyStore creates an empty in-memory strategy store
func NewStrategyStore() repositories.StrategyRepository {
	return &StrategyStore{
		strategies: make(map[string]*entities.Strategy),
	}
}

// Create creates a new strategy
func (s *StrategyStore) Create(ctx context.Context, strategy *entities.Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.strategies[strategy.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("strategy with id %s already exists", strategy.ID))
	}
	s.strategies[strategy.ID] = strategy.Clone()
	return nil
}

// GetByID retrieves a strategy by ID
func (s *StrategyStore) GetByID(ctx context.Context, id string) (*entities.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	strategy, ok := s.strategies[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("strategy with id %s not found", id))
	}
	return strategy.Clone(), nil
}

// Update overwrites an existing strategy
func (s *StrategyStore) Update(ctx context.Context, strategy *entities.Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.strategies[strategy.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("strategy with id %s not found", strategy.ID))
	}
	s.strategies[strategy.ID] = strategy.Clone()
	return nil
}

// List retrieves all strategies ordered by creation time
func (s *StrategyStore) List(ctx context.Context) ([]*entities.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	strategies := make([]*entities.Strategy, 0, len(s.strategies))
	for _, strategy := range s.strategies {
		strategies = append(strategies, strategy.Clone())
	}
	sort.Slice(strategies, func(i, j int) bool {
		if strategies[i].CreatedAt.Equal(strategies[j].CreatedAt) {
			return strategies[i].ID < strategies[j].ID
		}
		return strategies[i].CreatedAt.Before(strategies[j].CreatedAt)
	})
	return strategies, nil
}
