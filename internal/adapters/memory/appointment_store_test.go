package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendlab/clinic-noshow-sim/internal/adapters/memory"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	apperrors "github.com/attendlab/clinic-noshow-sim/pkg/errors"
)

func newAppointment(id string, day int, scheduledAt time.Time) *entities.Appointment {
	return &entities.Appointment{
		ID:          id,
		PatientName: "Patient " + id,
		DayIndex:    day,
		ScheduledAt: scheduledAt,
		Outcome:     entities.OutcomePending,
	}
}

func TestAppointmentStore_CreateAndGet(t *testing.T) {
	store := memory.NewAppointmentStore()
	ctx := context.Background()

	scheduled := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Create(ctx, newAppointment("a1", 0, scheduled)))

	got, err := store.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)
	assert.Equal(t, scheduled, got.ScheduledAt)
}

func TestAppointmentStore_CreateDuplicateConflicts(t *testing.T) {
	store := memory.NewAppointmentStore()
	ctx := context.Background()

	scheduled := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Create(ctx, newAppointment("a1", 0, scheduled)))

	err := store.Create(ctx, newAppointment("a1", 0, scheduled))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
}

func TestAppointmentStore_GetMissingNotFound(t *testing.T) {
	store := memory.NewAppointmentStore()

	_, err := store.GetByID(context.Background(), "nope")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestAppointmentStore_UpdateMissingNotFound(t *testing.T) {
	store := memory.NewAppointmentStore()

	err := store.Update(context.Background(), newAppointment("nope", 0, time.Now()))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestAppointmentStore_Update(t *testing.T) {
	store := memory.NewAppointmentStore()
	ctx := context.Background()

	appointment := newAppointment("a1", 0, time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))
	require.NoError(t, store.Create(ctx, appointment))

	appointment.LiveRisk = 0.75
	appointment.Outcome = entities.OutcomeNoShow
	require.NoError(t, store.Update(ctx, appointment))

	got, err := store.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 0.75, got.LiveRisk)
	assert.Equal(t, entities.OutcomeNoShow, got.Outcome)
}

func TestAppointmentStore_ListByDayOrdering(t *testing.T) {
	store := memory.NewAppointmentStore()
	ctx := context.Background()

	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Create(ctx, newAppointment("b", 0, day.Add(10*time.Hour))))
	require.NoError(t, store.Create(ctx, newAppointment("c", 0, day.Add(9*time.Hour))))
	require.NoError(t, store.Create(ctx, newAppointment("a", 0, day.Add(10*time.Hour))))
	require.NoError(t, store.Create(ctx, newAppointment("d", 1, day.Add(25*time.Hour))))

	appointments, err := store.ListByDay(ctx, 0)
	require.NoError(t, err)
	require.Len(t, appointments, 3)

	// Scheduled time ascending, ID breaking ties
	assert.Equal(t, "c", appointments[0].ID)
	assert.Equal(t, "a", appointments[1].ID)
	assert.Equal(t, "b", appointments[2].ID)
}

func TestAppointmentStore_ClonesIsolateCallers(t *testing.T) {
	store := memory.NewAppointmentStore()
	ctx := context.Background()

	appointment := newAppointment("a1", 0, time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))
	appointment.AppliedStrategyIDs = []string{"s1"}
	require.NoError(t, store.Create(ctx, appointment))

	// Mutating the original after Create must not leak into the store
	appointment.AppliedStrategyIDs[0] = "mutated"
	appointment.LiveRisk = 0.9

	got, err := store.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.AppliedStrategyIDs[0])
	assert.Zero(t, got.LiveRisk)

	// Mutating a fetched copy must not leak either
	got.AppliedStrategyIDs[0] = "mutated"

	again, err := store.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "s1", again.AppliedStrategyIDs[0])
}
