package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendlab/clinic-noshow-sim/internal/adapters/memory"
	"github.com/attendlab/clinic-noshow-sim/internal/application/services"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
	apperrors "github.com/attendlab/clinic-noshow-sim/pkg/errors"
)

// seqRand replays a fixed sequence of draws
type seqRand struct {
	vals []float64
	i    int
}

func (r *seqRand) Float64() float64 {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

var engineStart = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

type engine struct {
	appointments repositories.AppointmentRepository
	strategies   repositories.StrategyRepository
	deployments  repositories.DeploymentRepository
	clock        repositories.ClockRepository
	activity     repositories.ActivityRepository
	service      *services.SimulationService
}

func newEngine(rand *seqRand) *engine {
	e := &engine{
		appointments: memory.NewAppointmentStore(),
		strategies:   memory.NewStrategyStore(),
		deployments:  memory.NewDeploymentStore(),
		clock:        memory.NewClockStore(&entities.SimulationClock{TodayIndex: 0, StartDate: engineStart}),
		activity:     memory.NewActivityStore(),
	}
	e.service = services.NewSimulationService(
		e.clock, e.appointments, e.strategies, e.deployments, e.activity,
		rand, services.NewRiskAdjuster(), nil, nil, services.NewExecutionGuard(),
	)
	return e
}

func (e *engine) putAppointment(t *testing.T, day, hour int, risk float64) *entities.Appointment {
	t.Helper()

	scheduled := engineStart.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
	appointment := &entities.Appointment{
		ID:           uuid.New().String(),
		PatientName:  "Test Patient",
		DayIndex:     day,
		ScheduledAt:  scheduled,
		Features:     entities.PatientFeatures{Age: 40, SlotHour: hour},
		BaselineRisk: risk,
		LiveRisk:     risk,
		Outcome:      entities.OutcomePending,
		CreatedAt:    scheduled.Add(-72 * time.Hour),
		UpdatedAt:    scheduled.Add(-72 * time.Hour),
	}
	require.NoError(t, e.appointments.Create(context.Background(), appointment))
	return appointment
}

func (e *engine) putStrategy(t *testing.T, strategy *entities.Strategy) *entities.Strategy {
	t.Helper()

	if strategy.ID == "" {
		strategy.ID = uuid.New().String()
	}
	require.NoError(t, e.strategies.Create(context.Background(), strategy))
	return strategy
}

func smsStrategy(offsets ...int) *entities.Strategy {
	return &entities.Strategy{
		Name:      "SMS reminder",
		IsDefault: true,
		Split:     1.0,
		VariantA:  entities.VariantDefinition{Channel: entities.ChannelSMS, ActionOffsets: offsets},
		VariantB:  entities.VariantDefinition{Channel: entities.ChannelSMS, ActionOffsets: offsets},
	}
}

func TestDeploy_UnknownStrategyLeavesBookUntouched(t *testing.T) {
	ctx := context.Background()
	e := newEngine(&seqRand{vals: []float64{0.5}})

	appointment := e.putAppointment(t, 2, 9, 0.5)
	strategy := e.putStrategy(t, smsStrategy(0))

	_, err := e.service.Deploy(ctx, 2, []string{strategy.ID, "missing"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	reloaded, err := e.appointments.GetByID(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.VariantUnassigned, reloaded.Variant)
	assert.Empty(t, reloaded.AppliedStrategyIDs)

	deployments, err := e.deployments.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, deployments)
}

func TestDeploy_RejectsEmptyStrategyList(t *testing.T) {
	e := newEngine(&seqRand{vals: []float64{0.5}})

	_, err := e.service.Deploy(context.Background(), 2, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDeploy_RejectsTwoDefaults(t *testing.T) {
	ctx := context.Background()
	e := newEngine(&seqRand{vals: []float64{0.5}})

	first := e.putStrategy(t, smsStrategy(0))
	second := e.putStrategy(t, smsStrategy(0))

	_, err := e.service.Deploy(ctx, 2, []string{first.ID, second.ID})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
}

func TestDeploy_RejectsInsufficientLeadTime(t *testing.T) {
	ctx := context.Background()
	e := newEngine(&seqRand{vals: []float64{0.5}})

	strategy := e.putStrategy(t, smsStrategy(-2))

	_, err := e.service.Deploy(ctx, 1, []string{strategy.ID})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))

	_, err = e.service.Deploy(ctx, 2, []string{strategy.ID})
	assert.NoError(t, err)
}

func TestDeploy_RejectsPastDay(t *testing.T) {
	ctx := context.Background()
	e := newEngine(&seqRand{vals: []float64{0.99}})
	strategy := e.putStrategy(t, smsStrategy(0))

	_, err := e.service.AdvanceDay(ctx)
	require.NoError(t, err)

	_, err = e.service.Deploy(ctx, 0, []string{strategy.ID})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDeploy_DefaultClaimsOnlyUnmatched(t *testing.T) {
	ctx := context.Background()
	e := newEngine(&seqRand{vals: []float64{0.5}})

	highRisk := e.putAppointment(t, 2, 9, 0.8)
	lowRisk := e.putAppointment(t, 2, 10, 0.2)

	segmented := e.putStrategy(t, &entities.Strategy{
		Name:     "High risk outreach",
		Segment:  &entities.Segment{AgeMin: 0, AgeMax: 120, RiskMin: 0.5, RiskMax: 1.0},
		Split:    1.0,
		VariantA: entities.VariantDefinition{Channel: entities.ChannelCall, ActionOffsets: []int{-1}},
		VariantB: entities.VariantDefinition{Channel: entities.ChannelCall, ActionOffsets: []int{-1}},
	})
	fallback := e.putStrategy(t, smsStrategy(-1))

	_, err := e.service.Deploy(ctx, 2, []string{segmented.ID, fallback.ID})
	require.NoError(t, err)

	reloadedHigh, err := e.appointments.GetByID(ctx, highRisk.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{segmented.ID}, reloadedHigh.AppliedStrategyIDs)

	reloadedLow, err := e.appointments.GetByID(ctx, lowRisk.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{fallback.ID}, reloadedLow.AppliedStrategyIDs)
}

func TestDeploy_SplitOneAssignsEveryoneToA(t *testing.T) {
	ctx := context.Background()
	e := newEngine(&seqRand{vals: []float64{0.999}})

	for hour := 9; hour < 14; hour++ {
		e.putAppointment(t, 2, hour, 0.5)
	}
	strategy := e.putStrategy(t, smsStrategy(0))

	_, err := e.service.Deploy(ctx, 2, []string{strategy.ID})
	require.NoError(t, err)

	appointments, err := e.appointments.ListByDay(ctx, 2)
	require.NoError(t, err)
	for _, appointment := range appointments {
		assert.Equal(t, entities.VariantA, appointment.Variant)
	}
}

// Ten appointments at risk 0.50 with a same-day SMS strategy: after one day
// advance every appointment has exactly one communication, live risk 0.45,
// and a resolved outcome, and the clock sits at day 1.
func TestAdvanceDay_FullPipeline(t *testing.T) {
	ctx := context.Background()
	e := newEngine(&seqRand{vals: []float64{0.99}})

	for hour := 8; hour < 18; hour++ {
		e.putAppointment(t, 0, hour, 0.5)
	}
	strategy := e.putStrategy(t, smsStrategy(0))

	_, err := e.service.Deploy(ctx, 0, []string{strategy.ID})
	require.NoError(t, err)

	status, err := e.service.AdvanceDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.TodayIndex)

	appointments, err := e.appointments.ListByDay(ctx, 0)
	require.NoError(t, err)
	require.Len(t, appointments, 10)

	for _, appointment := range appointments {
		require.Len(t, appointment.CommsLog, 1)
		assert.Equal(t, entities.ChannelSMS, appointment.CommsLog[0].Channel)
		assert.Equal(t, entities.ReplyNone, appointment.CommsLog[0].Reply)
		assert.Equal(t, 0.45, appointment.LiveRisk)
		// Draw 0.99 is above every live risk, so everyone attends
		assert.Equal(t, entities.OutcomeAttended, appointment.Outcome)
	}
}

func TestAdvanceDay_OffsetFiresOnlyOnMatchingClosingDay(t *testing.T) {
	ctx := context.Background()
	e := newEngine(&seqRand{vals: []float64{0.99}})

	appointment := e.putAppointment(t, 2, 9, 0.5)
	strategy := e.putStrategy(t, smsStrategy(-1))

	_, err := e.service.Deploy(ctx, 2, []string{strategy.ID})
	require.NoError(t, err)

	// Closing day 0: offset -1 does not match 0 - 2
	_, err = e.service.AdvanceDay(ctx)
	require.NoError(t, err)
	reloaded, err := e.appointments.GetByID(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.CommsLog)

	// Closing day 1: offset -1 matches 1 - 2, the reminder fires
	_, err = e.service.AdvanceDay(ctx)
	require.NoError(t, err)
	reloaded, err = e.appointments.GetByID(ctx, appointment.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.CommsLog, 1)
	assert.Equal(t, 1, reloaded.CommsLog[0].SendDayIndex)
	assert.Equal(t, 0.45, reloaded.LiveRisk)

	// Closing day 2 settles the appointment without another send
	_, err = e.service.AdvanceDay(ctx)
	require.NoError(t, err)
	reloaded, err = e.appointments.GetByID(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.CommsLog, 1)
	assert.NotEqual(t, entities.OutcomePending, reloaded.Outcome)
}

func TestAdvanceDay_DrawEqualToRiskMeansAttended(t *testing.T) {
	ctx := context.Background()
	e := newEngine(&seqRand{vals: []float64{0.45}})

	appointment := e.putAppointment(t, 0, 9, 0.45)

	_, err := e.service.AdvanceDay(ctx)
	require.NoError(t, err)

	reloaded, err := e.appointments.GetByID(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.OutcomeAttended, reloaded.Outcome)
}

func TestAdvanceDay_SameDayLiftOnNewToday(t *testing.T) {
	ctx := context.Background()
	e := newEngine(&seqRand{vals: []float64{0.99}})

	tomorrow := e.putAppointment(t, 1, 9, 0.5)

	_, err := e.service.AdvanceDay(ctx)
	require.NoError(t, err)

	// Day 1 became today; silence lifted the risky appointment
	reloaded, err := e.appointments.GetByID(ctx, tomorrow.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.55, reloaded.LiveRisk)
	assert.Equal(t, entities.OutcomePending, reloaded.Outcome)
}

func TestTick_ResolvesOnePendingAtATime(t *testing.T) {
	ctx := context.Background()
	e := newEngine(&seqRand{vals: []float64{0.99}})

	first := e.putAppointment(t, 0, 9, 0.5)
	second := e.putAppointment(t, 0, 10, 0.5)

	result, err := e.service.Tick(ctx)
	require.NoError(t, err)
	require.NotNil(t, result.Processed)
	assert.Equal(t, first.ID, result.Processed.ID)
	assert.Equal(t, 1, result.Remaining)

	reloadedSecond, err := e.appointments.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.OutcomePending, reloadedSecond.Outcome)

	result, err = e.service.Tick(ctx)
	require.NoError(t, err)
	require.NotNil(t, result.Processed)
	assert.Equal(t, second.ID, result.Processed.ID)
	assert.Equal(t, 0, result.Remaining)

	result, err = e.service.Tick(ctx)
	require.NoError(t, err)
	assert.Nil(t, result.Processed)
}

// Draining a day through Tick and then closing it with AdvanceDay must not
// re-resolve anything: outcomes drawn intraday stay exactly as drawn.
func TestAdvanceDay_AfterFullDrainChangesNoOutcomes(t *testing.T) {
	ctx := context.Background()
	// The first two draws settle the ticks; the trailing 0.01 would flip
	// the attended appointment to a no-show if settlement ran again.
	e := newEngine(&seqRand{vals: []float64{0.5, 0.95, 0.01}})

	highRisk := e.putAppointment(t, 0, 9, 0.99)
	lowRisk := e.putAppointment(t, 0, 10, 0.1)

	for {
		result, err := e.service.Tick(ctx)
		require.NoError(t, err)
		if result.Processed == nil {
			break
		}
	}

	drainedHigh, err := e.appointments.GetByID(ctx, highRisk.ID)
	require.NoError(t, err)
	drainedLow, err := e.appointments.GetByID(ctx, lowRisk.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.OutcomeNoShow, drainedHigh.Outcome)
	assert.Equal(t, entities.OutcomeAttended, drainedLow.Outcome)

	status, err := e.service.AdvanceDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.TodayIndex)

	reloadedHigh, err := e.appointments.GetByID(ctx, highRisk.ID)
	require.NoError(t, err)
	reloadedLow, err := e.appointments.GetByID(ctx, lowRisk.ID)
	require.NoError(t, err)

	assert.Equal(t, drainedHigh.Outcome, reloadedHigh.Outcome)
	assert.Equal(t, drainedHigh.LiveRisk, reloadedHigh.LiveRisk)
	assert.Equal(t, drainedLow.Outcome, reloadedLow.Outcome)
	assert.Equal(t, drainedLow.LiveRisk, reloadedLow.LiveRisk)
}

func TestRecordComms_ManualSMSLowersRisk(t *testing.T) {
	ctx := context.Background()
	e := newEngine(&seqRand{vals: []float64{0.99}})

	appointment := e.putAppointment(t, 5, 9, 0.5)

	updated, err := e.service.RecordComms(ctx, appointment.ID, entities.ChannelSMS, "")
	require.NoError(t, err)

	assert.Equal(t, 0.45, updated.LiveRisk)
	require.Len(t, updated.CommsLog, 1)
	assert.Equal(t, "manual send", updated.CommsLog[0].Note)
	assert.Equal(t, entities.ReplyPending, updated.CommsLog[0].Reply)
}

func TestRecordComms_RejectsUnknownChannel(t *testing.T) {
	e := newEngine(&seqRand{vals: []float64{0.5}})

	_, err := e.service.RecordComms(context.Background(), "any", "email", "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestRecordComms_ConfirmedSameDaySMSCompounds(t *testing.T) {
	ctx := context.Background()
	// Draw 0.1 < 0.35 simulates an immediate confirmation
	e := newEngine(&seqRand{vals: []float64{0.1}})

	appointment := e.putAppointment(t, 0, 9, 0.5)

	updated, err := e.service.RecordComms(ctx, appointment.ID, entities.ChannelSMS, "nudge")
	require.NoError(t, err)

	require.Len(t, updated.CommsLog, 1)
	assert.Equal(t, entities.ReplyConfirmed, updated.CommsLog[0].Reply)
	// 0.5 * 0.9 = 0.45 from the send, then * 0.6 = 0.27 from the same-day
	// confirmation
	assert.Equal(t, 0.27, updated.LiveRisk)
}
