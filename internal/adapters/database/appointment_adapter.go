package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/clients/postgres"
	apperrors "github.com/attendlab/clinic-noshow-sim/pkg/errors"
)

// AppointmentAdapter implements the AppointmentRepository interface on
// PostgreSQL. Nested structures (features, comms log, applied strategy IDs)
// are stored as JSONB.
type AppointmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client *postgres.Client) repositories.AppointmentRepository {
	return &AppointmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func appointmentRecord(appointment *entities.Appointment) (goqu.Record, error) {
	features, err := json.Marshal(appointment.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal features: %w", err)
	}

	strategyIDs := appointment.AppliedStrategyIDs
	if strategyIDs == nil {
		strategyIDs = []string{}
	}
	appliedIDs, err := json.Marshal(strategyIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal applied strategy ids: %w", err)
	}

	commsLog := appointment.CommsLog
	if commsLog == nil {
		commsLog = []entities.CommsEntry{}
	}
	comms, err := json.Marshal(commsLog)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal comms log: %w", err)
	}

	return goqu.Record{
		"id":                   appointment.ID,
		"patient_name":         appointment.PatientName,
		"day_index":            appointment.DayIndex,
		"scheduled_at":         appointment.ScheduledAt,
		"features":             features,
		"baseline_risk":        appointment.BaselineRisk,
		"live_risk":            appointment.LiveRisk,
		"variant":              string(appointment.Variant),
		"applied_strategy_ids": appliedIDs,
		"comms_log":            comms,
		"outcome":              string(appointment.Outcome),
		"created_at":           appointment.CreatedAt,
		"updated_at":           appointment.UpdatedAt,
	}, nil
}

func scanAppointment(row interface {
	Scan(dest ...interface{}) error
}) (*entities.Appointment, error) {
	appointment := &entities.Appointment{}
	var features, appliedIDs, comms []byte
	var variant, outcome string

	err := row.Scan(
		&appointment.ID,
		&appointment.PatientName,
		&appointment.DayIndex,
		&appointment.ScheduledAt,
		&features,
		&appointment.BaselineRisk,
		&appointment.LiveRisk,
		&variant,
		&appliedIDs,
		&comms,
		&outcome,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	appointment.Variant = entities.Variant(variant)
	appointment.Outcome = entities.Outcome(outcome)

	if err := json.Unmarshal(features, &appointment.Features); err != nil {
		return nil, fmt.Errorf("failed to unmarshal features: %w", err)
	}
	if err := json.Unmarshal(appliedIDs, &appointment.AppliedStrategyIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal applied strategy ids: %w", err)
	}
	if err := json.Unmarshal(comms, &appointment.CommsLog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comms log: %w", err)
	}

	return appointment, nil
}

// Create creates a new appointment
func (a *AppointmentAdapter) Create(ctx context.Context, appointment *entities.Appointment) error {
	record, err := appointmentRecord(appointment)
	if err != nil {
		return apperrors.NewInternalError("failed to encode appointment", err)
	}

	query, args, err := a.db.Insert("appointments").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create appointment", err)
	}

	return nil
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	query, args, err := a.db.Select(
		"id", "patient_name", "day_index", "scheduled_at", "features",
		"baseline_risk", "live_risk", "variant", "applied_strategy_ids",
		"comms_log", "outcome", "created_at", "updated_at",
	).From("appointments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment, err := scanAppointment(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}

	return appointment, nil
}

// Update overwrites an existing appointment
func (a *AppointmentAdapter) Update(ctx context.Context, appointment *entities.Appointment) error {
	appointment.UpdatedAt = time.Now().UTC()

	record, err := appointmentRecord(appointment)
	if err != nil {
		return apperrors.NewInternalError("failed to encode appointment", err)
	}
	delete(record, "id")
	delete(record, "created_at")

	query, args, err := a.db.Update("appointments").
		Set(record).
		Where(goqu.Ex{"id": appointment.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update appointment", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %s not found", appointment.ID))
	}

	return nil
}

// ListByDay retrieves a day's appointments ordered by scheduled time ascending
func (a *AppointmentAdapter) ListByDay(ctx context.Context, dayIndex int) ([]*entities.Appointment, error) {
	query, args, err := a.db.Select(
		"id", "patient_name", "day_index", "scheduled_at", "features",
		"baseline_risk", "live_risk", "variant", "applied_strategy_ids",
		"comms_log", "outcome", "created_at", "updated_at",
	).From("appointments").
		Where(goqu.Ex{"day_index": dayIndex}).
		Order(goqu.I("scheduled_at").Asc(), goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryAppointments(ctx, query, args)
}

// ListAll retrieves every appointment in the book
func (a *AppointmentAdapter) ListAll(ctx context.Context) ([]*entities.Appointment, error) {
	query, args, err := a.db.Select(
		"id", "patient_name", "day_index", "scheduled_at", "features",
		"baseline_risk", "live_risk", "variant", "applied_strategy_ids",
		"comms_log", "outcome", "created_at", "updated_at",
	).From("appointments").
		Order(goqu.I("day_index").Asc(), goqu.I("scheduled_at").Asc(), goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryAppointments(ctx, query, args)
}

func (a *AppointmentAdapter) queryAppointments(ctx context.Context, query string, args []interface{}) ([]*entities.Appointment, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	defer rows.Close()

	appointments := []*entities.Appointment{}
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment", err)
		}
		appointments = append(appointments, appointment)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate appointments", err)
	}

	return appointments, nil
}
