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
)

type summaryFixture struct {
	appointments repositories.AppointmentRepository
	strategies   repositories.StrategyRepository
	clock        repositories.ClockRepository
	service      *services.SummaryService
}

func newSummaryFixture(todayIndex int) *summaryFixture {
	f := &summaryFixture{
		appointments: memory.NewAppointmentStore(),
		strategies:   memory.NewStrategyStore(),
		clock: memory.NewClockStore(&entities.SimulationClock{
			TodayIndex: todayIndex,
			StartDate:  time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		}),
	}
	f.service = services.NewSummaryService(f.clock, f.appointments, f.strategies, nil, services.NewExecutionGuard())
	return f
}

func (f *summaryFixture) put(t *testing.T, day, hour int, live float64, outcome entities.Outcome, variant entities.Variant, strategyIDs ...string) *entities.Appointment {
	t.Helper()

	scheduled := time.Date(2025, 1, 6+day, hour, 0, 0, 0, time.UTC)
	appointment := &entities.Appointment{
		ID:                 uuid.New().String(),
		PatientName:        "Patient",
		DayIndex:           day,
		ScheduledAt:        scheduled,
		BaselineRisk:       live,
		LiveRisk:           live,
		Variant:            variant,
		AppliedStrategyIDs: strategyIDs,
		Outcome:            outcome,
	}
	require.NoError(t, f.appointments.Create(context.Background(), appointment))
	return appointment
}

func TestSummarize_EmptyDay(t *testing.T) {
	f := newSummaryFixture(0)

	summary, err := f.service.Summarize(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.DayIndex)
	assert.Equal(t, "2025-01-06", summary.Date)
	assert.Zero(t, summary.AvgBaselineRisk)
	assert.Zero(t, summary.AvgLiveRisk)

	require.Len(t, summary.LiveRiskBuckets, 5)
	for _, bucket := range summary.LiveRiskBuckets {
		assert.Zero(t, bucket.Count)
	}

	require.NotNil(t, summary.ResolvedToday)
	assert.Zero(t, *summary.ResolvedToday)
	assert.Nil(t, summary.AccuracyToday)
	assert.Nil(t, summary.TodayPredVsObs)
	assert.Nil(t, summary.PrevDayPredVsObs)
}

func TestSummarize_HistogramBuckets(t *testing.T) {
	f := newSummaryFixture(5)

	risks := []float64{0.05, 0.25, 0.45, 0.65, 0.85, 0.99}
	for i, risk := range risks {
		f.put(t, 0, 8+i, risk, entities.OutcomeAttended, entities.VariantUnassigned)
	}

	summary, err := f.service.Summarize(context.Background(), 0)
	require.NoError(t, err)

	counts := make([]int, 5)
	for i, bucket := range summary.LiveRiskBuckets {
		counts[i] = bucket.Count
	}
	assert.Equal(t, []int{1, 1, 1, 1, 2}, counts)
}

func TestSummarize_TodayRunningStats(t *testing.T) {
	f := newSummaryFixture(3)

	// Two resolved, one still pending. Risks 0.6 and 0.2 predict one
	// no-show; the observed outcomes match both predictions.
	f.put(t, 3, 9, 0.6, entities.OutcomeNoShow, entities.VariantUnassigned)
	f.put(t, 3, 10, 0.2, entities.OutcomeAttended, entities.VariantUnassigned)
	f.put(t, 3, 11, 0.5, entities.OutcomePending, entities.VariantUnassigned)

	summary, err := f.service.Summarize(context.Background(), 3)
	require.NoError(t, err)

	require.NotNil(t, summary.ResolvedToday)
	assert.Equal(t, 2, *summary.ResolvedToday)

	require.NotNil(t, summary.AccuracyToday)
	assert.Equal(t, 1.0, *summary.AccuracyToday)

	require.NotNil(t, summary.TodayPredVsObs)
	assert.Equal(t, 2, summary.TodayPredVsObs.Completed)
	assert.Equal(t, 0.4, summary.TodayPredVsObs.PredictedNoShowRate)
	assert.Equal(t, 0.5, summary.TodayPredVsObs.ObservedNoShowRate)
}

func TestSummarize_PrevDayRequiresFullSettlement(t *testing.T) {
	f := newSummaryFixture(4)

	f.put(t, 3, 9, 0.6, entities.OutcomeNoShow, entities.VariantUnassigned)
	f.put(t, 3, 10, 0.3, entities.OutcomePending, entities.VariantUnassigned)

	summary, err := f.service.Summarize(context.Background(), 4)
	require.NoError(t, err)
	assert.Nil(t, summary.PrevDayPredVsObs)
}

func TestSummarize_PrevDaySettledComparison(t *testing.T) {
	f := newSummaryFixture(4)

	strategy := &entities.Strategy{
		ID:       uuid.New().String(),
		Name:     "Reminder",
		Split:    0.5,
		VariantA: entities.VariantDefinition{Channel: entities.ChannelSMS, ActionOffsets: []int{-1}},
		VariantB: entities.VariantDefinition{Channel: entities.ChannelCall, ActionOffsets: []int{-1}},
	}
	require.NoError(t, f.strategies.Create(context.Background(), strategy))

	f.put(t, 3, 9, 0.6, entities.OutcomeNoShow, entities.VariantA, strategy.ID)
	f.put(t, 3, 10, 0.6, entities.OutcomeAttended, entities.VariantA, strategy.ID)
	f.put(t, 3, 11, 0.3, entities.OutcomeAttended, entities.VariantB, strategy.ID)
	f.put(t, 3, 12, 0.3, entities.OutcomeAttended, entities.VariantB, strategy.ID)

	summary, err := f.service.Summarize(context.Background(), 4)
	require.NoError(t, err)

	// Predicted rate is the mean live risk: (0.6+0.6+0.3+0.3)/4
	require.NotNil(t, summary.PrevDayPredVsObs)
	assert.Equal(t, 3, summary.PrevDayPredVsObs.DayIndex)
	assert.Equal(t, 0.45, summary.PrevDayPredVsObs.PredictedNoShowRate)
	assert.Equal(t, 0.25, summary.PrevDayPredVsObs.ObservedNoShowRate)

	require.Len(t, summary.StrategyOutcomes, 1)
	outcome := summary.StrategyOutcomes[0]
	assert.Equal(t, strategy.ID, outcome.StrategyID)
	require.Len(t, outcome.VariantStats, 2)

	armA := outcome.VariantStats[0]
	assert.Equal(t, entities.VariantA, armA.Variant)
	assert.Equal(t, 2, armA.Count)
	assert.Equal(t, 0.6, armA.PredictedNoShowRate)
	assert.Equal(t, 0.5, armA.ObservedNoShowRate)

	armB := outcome.VariantStats[1]
	assert.Equal(t, entities.VariantB, armB.Variant)
	assert.Equal(t, 2, armB.Count)
	assert.Equal(t, 0.3, armB.PredictedNoShowRate)
	assert.Zero(t, armB.ObservedNoShowRate)
}

func TestSummarize_PrevDayPredictedRateIsMeanLiveRisk(t *testing.T) {
	f := newSummaryFixture(1)

	// Both live risks sit below the prediction threshold; a threshold
	// fraction would report zero, the mean reports 0.35.
	f.put(t, 0, 9, 0.3, entities.OutcomeAttended, entities.VariantUnassigned)
	f.put(t, 0, 10, 0.4, entities.OutcomeAttended, entities.VariantUnassigned)

	summary, err := f.service.Summarize(context.Background(), 1)
	require.NoError(t, err)

	require.NotNil(t, summary.PrevDayPredVsObs)
	assert.Equal(t, 0.35, summary.PrevDayPredVsObs.PredictedNoShowRate)
	assert.Zero(t, summary.PrevDayPredVsObs.ObservedNoShowRate)
}

func TestSummarize_TodayStrategyProgress(t *testing.T) {
	f := newSummaryFixture(2)

	strategy := &entities.Strategy{
		ID:       uuid.New().String(),
		Name:     "Reminder",
		Split:    0.5,
		VariantA: entities.VariantDefinition{Channel: entities.ChannelSMS, ActionOffsets: []int{-1}},
		VariantB: entities.VariantDefinition{Channel: entities.ChannelSMS, ActionOffsets: []int{-1}},
	}
	require.NoError(t, f.strategies.Create(context.Background(), strategy))

	f.put(t, 2, 9, 0.4, entities.OutcomeAttended, entities.VariantA, strategy.ID)
	f.put(t, 2, 10, 0.6, entities.OutcomePending, entities.VariantA, strategy.ID)
	// Unassigned variant counts toward arm A
	f.put(t, 2, 11, 0.2, entities.OutcomePending, entities.VariantUnassigned, strategy.ID)
	f.put(t, 2, 12, 0.8, entities.OutcomeNoShow, entities.VariantB, strategy.ID)

	summary, err := f.service.Summarize(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, summary.StrategyProgress, 1)
	progress := summary.StrategyProgress[0]

	assert.Equal(t, 3, progress.A.Total)
	assert.Equal(t, 1, progress.A.Completed)
	assert.Equal(t, 1.0, progress.A.ObservedAttendanceRate)
	assert.Equal(t, 0.4, progress.A.MeanLiveRisk)

	assert.Equal(t, 1, progress.B.Total)
	assert.Equal(t, 1, progress.B.Completed)
	assert.Zero(t, progress.B.ObservedAttendanceRate)
	assert.Equal(t, 0.8, progress.B.MeanLiveRisk)
}

func TestSummarize_TodayArmMeanExcludesPending(t *testing.T) {
	f := newSummaryFixture(2)

	strategy := &entities.Strategy{
		ID:       uuid.New().String(),
		Name:     "Reminder",
		Split:    0.5,
		VariantA: entities.VariantDefinition{Channel: entities.ChannelSMS, ActionOffsets: []int{-1}},
		VariantB: entities.VariantDefinition{Channel: entities.ChannelSMS, ActionOffsets: []int{-1}},
	}
	require.NoError(t, f.strategies.Create(context.Background(), strategy))

	f.put(t, 2, 9, 0.2, entities.OutcomeAttended, entities.VariantA, strategy.ID)
	f.put(t, 2, 10, 0.8, entities.OutcomePending, entities.VariantA, strategy.ID)

	summary, err := f.service.Summarize(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, summary.StrategyProgress, 1)
	progress := summary.StrategyProgress[0]

	// Mean live risk covers completed appointments only
	assert.Equal(t, 2, progress.A.Total)
	assert.Equal(t, 1, progress.A.Completed)
	assert.Equal(t, 0.2, progress.A.MeanLiveRisk)
}
