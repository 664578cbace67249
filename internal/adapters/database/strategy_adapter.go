package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/clients/postgres"
	apperrors "github.com/attendlab/clinic-noshow-sim/pkg/errors"
)

// StrategyAdapter implements the StrategyRepository interface on PostgreSQL
type StrategyAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewStrategyAdapter creates a new strategy adapter
func NewStrategyAdapter(client *postgres.Client) repositories.StrategyRepository {
	return &StrategyAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func strategyRecord(strategy *entities.Strategy) (goqu.Record, error) {
	var segment []byte
	if strategy.Segment != nil {
		encoded, err := json.Marshal(strategy.Segment)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal segment: %w", err)
		}
		segment = encoded
	}

	variantA, err := json.Marshal(strategy.VariantA)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal variant A: %w", err)
	}
	variantB, err := json.Marshal(strategy.VariantB)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal variant B: %w", err)
	}

	return goqu.Record{
		"id":         strategy.ID,
		"name":       strategy.Name,
		"is_default": strategy.IsDefault,
		"segment":    segment,
		"split":      strategy.Split,
		"variant_a":  variantA,
		"variant_b":  variantB,
		"created_at": strategy.CreatedAt,
		"updated_at": strategy.UpdatedAt,
	}, nil
}

func scanStrategy(row interface {
	Scan(dest ...interface{}) error
}) (*entities.Strategy, error) {
	strategy := &entities.Strategy{}
	var segment, variantA, variantB []byte

	err := row.Scan(
		&strategy.ID,
		&strategy.Name,
		&strategy.IsDefault,
		&segment,
		&strategy.Split,
		&variantA,
		&variantB,
		&strategy.CreatedAt,
		&strategy.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(segment) > 0 {
		strategy.Segment = &entities.Segment{}
		if err := json.Unmarshal(segment, strategy.Segment); err != nil {
			return nil, fmt.Errorf("failed to unmarshal segment: %w", err)
		}
	}
	if err := json.Unmarshal(variantA, &strategy.VariantA); err != nil {
		return nil, fmt.Errorf("failed to unmarshal variant A: %w", err)
	}
	if err := json.Unmarshal(variantB, &strategy.VariantB); err != nil {
		return nil, fmt.Errorf("failed to unmarshal variant B: %w", err)
	}

	return strategy, nil
}

// Create creates a new strategy
func (a *StrategyAdapter) Create(ctx context.Context, strategy *entities.Strategy) error {
	record, err := strategyRecord(strategy)
	if err != nil {
		return apperrors.NewInternalError("failed to encode strategy", err)
	}

	query, args, err := a.db.Insert("strategies").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create strategy", err)
	}

	return nil
}

// GetByID retrieves a strategy by ID
func (a *StrategyAdapter) GetByID(ctx context.Context, id string) (*entities.Strategy, error) {
	query, args, err := a.db.Select(
		"id", "name", "is_default", "segment", "split",
		"variant_a", "variant_b", "created_at", "updated_at",
	).From("strategies").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	strategy, err := scanStrategy(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("strategy with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get strategy", err)
	}

	return strategy, nil
}

// Update overwrites an existing strategy
func (a *StrategyAdapter) Update(ctx context.Context, strategy *entities.Strategy) error {
	strategy.UpdatedAt = time.Now().UTC()

	record, err := strategyRecord(strategy)
	if err != nil {
		return apperrors.NewInternalError("failed to encode strategy", err)
	}
	delete(record, "id")
	delete(record, "created_at")

	query, args, err := a.db.Update("strategies").
		Set(record).
		Where(goqu.Ex{"id": strategy.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update strategy", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("strategy with id %s not found", strategy.ID))
	}

	return nil
}

// List retrieves all strategies ordered by creation time
func (a *StrategyAdapter) List(ctx context.Context) ([]*entities.Strategy, error) {
	query, args, err := a.db.Select(
		"id", "name", "is_default", "segment", "split",
		"variant_a", "variant_b", "created_at", "updated_at",
	).From("strategies").
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list strategies", err)
	}
	defer rows.Close()

	strategies := []*entities.Strategy{}
	for rows.Next() {
		strategy, err := scanStrategy(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan strategy", err)
		}
		strategies = append(strategies, strategy)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate strategies", err)
	}

	return strategies, nil
}
