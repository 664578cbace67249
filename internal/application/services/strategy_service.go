package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/observability"
)

// StrategyService manages the strategy library. Editing a strategy never
// re-touches appointments it was already deployed to; only a new deployment
// picks up the edit.
type StrategyService struct {
	strategyRepo repositories.StrategyRepository
	guard        *ExecutionGuard
}

// NewStrategyService creates a new strategy service
func NewStrategyService(strategyRepo repositories.StrategyRepository, guard *ExecutionGuard) *StrategyService {
	return &StrategyService{
		strategyRepo: strategyRepo,
		guard:        guard,
	}
}

// CreateStrategy validates and stores a new strategy
func (s *StrategyService) CreateStrategy(ctx context.Context, strategy *entities.Strategy) (*entities.Strategy, error) {
	if err := strategy.Validate(); err != nil {
		return nil, err
	}

	if strategy.ID == "" {
		strategy.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	strategy.CreatedAt = now
	strategy.UpdatedAt = now

	s.guard.Lock()
	defer s.guard.Unlock()

	if err := s.strategyRepo.Create(ctx, strategy); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("strategy_id", strategy.ID).
		Str("name", strategy.Name).
		Bool("is_default", strategy.IsDefault).
		Msg("strategy created")

	return strategy, nil
}

// UpdateStrategy validates and overwrites an existing strategy
func (s *StrategyService) UpdateStrategy(ctx context.Context, strategy *entities.Strategy) (*entities.Strategy, error) {
	if err := strategy.Validate(); err != nil {
		return nil, err
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	strategy.UpdatedAt = time.Now().UTC()
	if err := s.strategyRepo.Update(ctx, strategy); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("strategy_id", strategy.ID).
		Msg("strategy updated")

	return strategy, nil
}

// GetStrategy retrieves a strategy by ID
func (s *StrategyService) GetStrategy(ctx context.Context, id string) (*entities.Strategy, error) {
	s.guard.RLock()
	defer s.guard.RUnlock()

	return s.strategyRepo.GetByID(ctx, id)
}

// ListStrategies retrieves every strategy in the library
func (s *StrategyService) ListStrategies(ctx context.Context) ([]*entities.Strategy, error) {
	s.guard.RLock()
	defer s.guard.RUnlock()

	return s.strategyRepo.List(ctx)
}
