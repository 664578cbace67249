package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/clients/postgres"
	apperrors "github.com/attendlab/clinic-noshow-sim/pkg/errors"
)

// clockRowID is the single row the simulation clock lives in
const clockRowID = "clock"

// ClockAdapter implements the ClockRepository interface on PostgreSQL.
// The clock is a single row in simulation_state.
type ClockAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewClockAdapter creates a new clock adapter
func NewClockAdapter(client *postgres.Client) repositories.ClockRepository {
	return &ClockAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Get retrieves the current clock
func (a *ClockAdapter) Get(ctx context.Context) (*entities.SimulationClock, error) {
	query, args, err := a.db.Select("today_index", "start_date").
		From("simulation_state").
		Where(goqu.Ex{"id": clockRowID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	clock := &entities.SimulationClock{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&clock.TodayIndex, &clock.StartDate)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("simulation clock not initialized")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get simulation clock", err)
	}

	return clock, nil
}

// Save persists the clock, creating the row on first save
func (a *ClockAdapter) Save(ctx context.Context, clock *entities.SimulationClock) error {
	query := `
		INSERT INTO simulation_state (id, today_index, start_date)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET today_index = $2, start_date = $3
	`

	_, err := a.client.DB().ExecContext(ctx, query, clockRowID, clock.TodayIndex, clock.StartDate)
	if err != nil {
		return apperrors.NewInternalError("failed to save simulation clock", err)
	}

	return nil
}
