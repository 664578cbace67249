package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/providers"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/observability"
)

// summaryCacheTTL is how long a settled day's summary stays cached, in seconds
const summaryCacheTTL = 3600

var riskBucketLabels = [5]string{"0.0-0.2", "0.2-0.4", "0.4-0.6", "0.6-0.8", "0.8-1.0"}

// SummaryService aggregates one simulated day for display. Days behind the
// clock are fully settled and immutable, so their summaries are served from
// cache when one is configured.
type SummaryService struct {
	clockRepo       repositories.ClockRepository
	appointmentRepo repositories.AppointmentRepository
	strategyRepo    repositories.StrategyRepository
	cache           providers.CacheProvider
	guard           *ExecutionGuard
}

// NewSummaryService creates a new summary service. cache may be nil.
func NewSummaryService(
	clockRepo repositories.ClockRepository,
	appointmentRepo repositories.AppointmentRepository,
	strategyRepo repositories.StrategyRepository,
	cache providers.CacheProvider,
	guard *ExecutionGuard,
) *SummaryService {
	return &SummaryService{
		clockRepo:       clockRepo,
		appointmentRepo: appointmentRepo,
		strategyRepo:    strategyRepo,
		cache:           cache,
		guard:           guard,
	}
}

// Summarize builds the day summary for the given day index
func (s *SummaryService) Summarize(ctx context.Context, dayIndex int) (*entities.DaySummary, error) {
	s.guard.RLock()
	defer s.guard.RUnlock()

	clock, err := s.clockRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	settled := dayIndex < clock.TodayIndex
	cacheKey := fmt.Sprintf("day_summary:%d", dayIndex)

	if settled && s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			summary := &entities.DaySummary{}
			if err := json.Unmarshal(data, summary); err == nil {
				summary.TodayIndex = clock.TodayIndex
				return summary, nil
			}
		}
	}

	summary, err := s.build(ctx, clock, dayIndex)
	if err != nil {
		return nil, err
	}

	if settled && s.cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, summaryCacheTTL); err != nil {
				observability.LoggerFromContext(ctx).Warn().
					Err(err).
					Int("day_index", dayIndex).
					Msg("failed to cache day summary")
			}
		}
	}

	return summary, nil
}

func (s *SummaryService) build(ctx context.Context, clock *entities.SimulationClock, dayIndex int) (*entities.DaySummary, error) {
	appointments, err := s.appointmentRepo.ListByDay(ctx, dayIndex)
	if err != nil {
		return nil, err
	}

	summary := &entities.DaySummary{
		DayIndex:   dayIndex,
		Date:       clock.DateForDay(dayIndex).Format("2006-01-02"),
		TodayIndex: clock.TodayIndex,
	}

	summary.LiveRiskBuckets = make([]entities.RiskBucket, len(riskBucketLabels))
	for i, label := range riskBucketLabels {
		summary.LiveRiskBuckets[i] = entities.RiskBucket{Label: label}
	}

	if len(appointments) > 0 {
		var baselineSum, liveSum float64
		for _, appointment := range appointments {
			baselineSum += appointment.BaselineRisk
			liveSum += appointment.LiveRisk

			bucket := int(appointment.LiveRisk / 0.2)
			if bucket > 4 {
				bucket = 4
			}
			summary.LiveRiskBuckets[bucket].Count++
		}
		summary.AvgBaselineRisk = entities.RoundRisk(baselineSum / float64(len(appointments)))
		summary.AvgLiveRisk = entities.RoundRisk(liveSum / float64(len(appointments)))
	}

	strategies, err := s.appliedStrategies(ctx, appointments)
	if err != nil {
		return nil, err
	}
	for _, strategy := range strategies {
		summary.StrategiesApplied = append(summary.StrategiesApplied, entities.StrategyRef{
			ID:   strategy.ID,
			Name: strategy.Name,
		})
	}

	if dayIndex == clock.TodayIndex {
		s.buildTodayStats(summary, appointments, strategies)
	}

	if err := s.buildPrevDayStats(ctx, summary, dayIndex); err != nil {
		return nil, err
	}

	return summary, nil
}

// appliedStrategies resolves every strategy referenced by the day's
// appointments, in order of first appearance. References to strategies that
// no longer exist are skipped.
func (s *SummaryService) appliedStrategies(ctx context.Context, appointments []*entities.Appointment) ([]*entities.Strategy, error) {
	seen := map[string]bool{}
	strategies := []*entities.Strategy{}

	for _, appointment := range appointments {
		for _, id := range appointment.AppliedStrategyIDs {
			if seen[id] {
				continue
			}
			seen[id] = true

			strategy, err := s.strategyRepo.GetByID(ctx, id)
			if err != nil {
				continue
			}
			strategies = append(strategies, strategy)
		}
	}

	return strategies, nil
}

func (s *SummaryService) buildTodayStats(summary *entities.DaySummary, appointments []*entities.Appointment, strategies []*entities.Strategy) {
	resolved := 0
	correct := 0
	var liveSum float64
	noShows := 0

	for _, appointment := range appointments {
		if appointment.Outcome == entities.OutcomePending {
			continue
		}
		resolved++
		liveSum += appointment.LiveRisk
		isNoShow := appointment.Outcome == entities.OutcomeNoShow
		if isNoShow {
			noShows++
		}
		if appointment.PredictedNoShow() == isNoShow {
			correct++
		}
	}

	summary.ResolvedToday = &resolved
	if resolved > 0 {
		accuracy := entities.RoundRisk(float64(correct) / float64(resolved))
		summary.AccuracyToday = &accuracy
		summary.TodayPredVsObs = &entities.RunningPredVsObs{
			Completed:           resolved,
			PredictedNoShowRate: entities.RoundRisk(liveSum / float64(resolved)),
			ObservedNoShowRate:  entities.RoundRisk(float64(noShows) / float64(resolved)),
		}
	}

	for _, strategy := range strategies {
		progress := entities.StrategyProgress{
			StrategyID:   strategy.ID,
			StrategyName: strategy.Name,
			A:            variantProgress(appointments, strategy.ID, entities.VariantA),
			B:            variantProgress(appointments, strategy.ID, entities.VariantB),
		}
		summary.StrategyProgress = append(summary.StrategyProgress, progress)
	}
}

// variantProgress computes the running state of one A/B arm. Appointments
// whose variant was never drawn count toward arm A, mirroring the fallback
// used when firing actions. Mean live risk covers completed appointments
// only, so the running comparison matches the settled one.
func variantProgress(appointments []*entities.Appointment, strategyID string, variant entities.Variant) entities.VariantProgress {
	progress := entities.VariantProgress{}
	var liveSum float64
	attended := 0

	for _, appointment := range appointments {
		if !appointment.HasAppliedStrategy(strategyID) {
			continue
		}
		arm := appointment.Variant
		if arm == entities.VariantUnassigned {
			arm = entities.VariantA
		}
		if arm != variant {
			continue
		}

		progress.Total++
		if appointment.Outcome == entities.OutcomePending {
			continue
		}
		progress.Completed++
		liveSum += appointment.LiveRisk
		if appointment.Outcome == entities.OutcomeAttended {
			attended++
		}
	}

	if progress.Completed > 0 {
		progress.MeanLiveRisk = entities.RoundRisk(liveSum / float64(progress.Completed))
		progress.ObservedAttendanceRate = entities.RoundRisk(float64(attended) / float64(progress.Completed))
	}

	return progress
}

// buildPrevDayStats attaches the settled comparison for the day before the
// summarized day, once every outcome on that day is resolved
func (s *SummaryService) buildPrevDayStats(ctx context.Context, summary *entities.DaySummary, dayIndex int) error {
	prev := dayIndex - 1
	if prev < 0 {
		return nil
	}

	appointments, err := s.appointmentRepo.ListByDay(ctx, prev)
	if err != nil {
		return err
	}
	if len(appointments) == 0 {
		return nil
	}
	for _, appointment := range appointments {
		if appointment.Outcome == entities.OutcomePending {
			return nil
		}
	}

	// Predicted rate is the mean live risk, the same convention the running
	// stats use, not the fraction above the prediction threshold.
	var liveSum float64
	observed := 0
	for _, appointment := range appointments {
		liveSum += appointment.LiveRisk
		if appointment.Outcome == entities.OutcomeNoShow {
			observed++
		}
	}

	total := float64(len(appointments))
	summary.PrevDayPredVsObs = &entities.PredVsObs{
		DayIndex:            prev,
		PredictedNoShowRate: entities.RoundRisk(liveSum / total),
		ObservedNoShowRate:  entities.RoundRisk(float64(observed) / total),
	}

	strategies, err := s.appliedStrategies(ctx, appointments)
	if err != nil {
		return err
	}
	for _, strategy := range strategies {
		outcome := entities.StrategyOutcome{
			DayIndex:     prev,
			StrategyID:   strategy.ID,
			StrategyName: strategy.Name,
		}
		for _, variant := range []entities.Variant{entities.VariantA, entities.VariantB} {
			stats := settledVariantStats(appointments, strategy.ID, variant)
			outcome.VariantStats = append(outcome.VariantStats, stats)
		}
		summary.StrategyOutcomes = append(summary.StrategyOutcomes, outcome)
	}

	return nil
}

func settledVariantStats(appointments []*entities.Appointment, strategyID string, variant entities.Variant) entities.VariantStats {
	stats := entities.VariantStats{Variant: variant}
	var liveSum float64
	observed := 0

	for _, appointment := range appointments {
		if !appointment.HasAppliedStrategy(strategyID) {
			continue
		}
		arm := appointment.Variant
		if arm == entities.VariantUnassigned {
			arm = entities.VariantA
		}
		if arm != variant {
			continue
		}

		stats.Count++
		liveSum += appointment.LiveRisk
		if appointment.Outcome == entities.OutcomeNoShow {
			observed++
		}
	}

	if stats.Count > 0 {
		stats.PredictedNoShowRate = entities.RoundRisk(liveSum / float64(stats.Count))
		stats.ObservedNoShowRate = entities.RoundRisk(float64(observed) / float64(stats.Count))
	}

	return stats
}
