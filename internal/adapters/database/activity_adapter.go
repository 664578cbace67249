package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/clients/postgres"
	apperrors "github.com/attendlab/clinic-noshow-sim/pkg/errors"
)

// ActivityAdapter implements the ActivityRepository interface on PostgreSQL
type ActivityAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewActivityAdapter creates a new activity adapter
func NewActivityAdapter(client *postgres.Client) repositories.ActivityRepository {
	return &ActivityAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Append records an activity entry
func (a *ActivityAdapter) Append(ctx context.Context, entry *entities.ActivityEntry) error {
	record := goqu.Record{
		"id":                    entry.ID,
		"ts":                    entry.Timestamp,
		"send_day_index":        entry.SendDayIndex,
		"appointment_day_index": entry.AppointmentDayIndex,
		"appointment_id":        entry.AppointmentID,
		"patient_name":          entry.PatientName,
		"type":                  string(entry.Type),
		"variant":               string(entry.Variant),
		"message":               entry.Message,
		"reply":                 string(entry.Reply),
		"outcome":               string(entry.Outcome),
	}

	query, args, err := a.db.Insert("activity_log").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to append activity entry", err)
	}

	return nil
}

// ListByAppointmentDay retrieves entries whose appointment falls on the given day
func (a *ActivityAdapter) ListByAppointmentDay(ctx context.Context, dayIndex int) ([]*entities.ActivityEntry, error) {
	query, args, err := a.selectEntries().
		Where(goqu.Ex{"appointment_day_index": dayIndex}).
		Order(goqu.I("ts").Asc(), goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryEntries(ctx, query, args)
}

// ListByAppointment retrieves entries for one appointment
func (a *ActivityAdapter) ListByAppointment(ctx context.Context, appointmentID string) ([]*entities.ActivityEntry, error) {
	query, args, err := a.selectEntries().
		Where(goqu.Ex{"appointment_id": appointmentID}).
		Order(goqu.I("ts").Asc(), goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryEntries(ctx, query, args)
}

func (a *ActivityAdapter) selectEntries() *goqu.SelectDataset {
	return a.db.Select(
		"id", "ts", "send_day_index", "appointment_day_index", "appointment_id",
		"patient_name", "type", "variant", "message", "reply", "outcome",
	).From("activity_log")
}

func (a *ActivityAdapter) queryEntries(ctx context.Context, query string, args []interface{}) ([]*entities.ActivityEntry, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list activity entries", err)
	}
	defer rows.Close()

	entries := []*entities.ActivityEntry{}
	for rows.Next() {
		entry := &entities.ActivityEntry{}
		var entryType, variant, reply, outcome string
		err := rows.Scan(
			&entry.ID,
			&entry.Timestamp,
			&entry.SendDayIndex,
			&entry.AppointmentDayIndex,
			&entry.AppointmentID,
			&entry.PatientName,
			&entryType,
			&variant,
			&entry.Message,
			&reply,
			&outcome,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan activity entry", err)
		}
		entry.Type = entities.ActivityType(entryType)
		entry.Variant = entities.Variant(variant)
		entry.Reply = entities.ReplyStatus(reply)
		entry.Outcome = entities.Outcome(outcome)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate activity entries", err)
	}

	return entries, nil
}
