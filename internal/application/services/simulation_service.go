package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/providers"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/observability"
	apperrors "github.com/attendlab/clinic-noshow-sim/pkg/errors"
)

// Reply simulation probabilities for outreach that asks for a response
const (
	replyYesProb = 0.35
	replyNoProb  = 0.10
)

// SimulationStatus is the engine's current position and intraday progress
type SimulationStatus struct {
	TodayIndex      int                          `json:"today_index"`
	TodayDate       string                       `json:"today_date_iso"`
	StartDate       string                       `json:"start_date_iso"`
	Total           int                          `json:"total"`
	Remaining       int                          `json:"remaining"`
	NextAppointment *entities.AppointmentSummary `json:"next_appointment,omitempty"`
}

// TickResult reports one intraday step
type TickResult struct {
	Processed  *entities.AppointmentSummary `json:"processed,omitempty"`
	Remaining  int                          `json:"remaining"`
	TodayIndex int                          `json:"today_index"`
}

// SimulationService drives the day-stepping engine. All mutations run under
// the write side of the execution guard, so a day advance is observed either
// not at all or in full.
type SimulationService struct {
	clockRepo       repositories.ClockRepository
	appointmentRepo repositories.AppointmentRepository
	strategyRepo    repositories.StrategyRepository
	deploymentRepo  repositories.DeploymentRepository
	activityRepo    repositories.ActivityRepository
	rand            providers.RandSource
	riskAdjuster    *RiskAdjuster
	eventBus        providers.EventBus
	metrics         *observability.Metrics
	guard           *ExecutionGuard
}

// NewSimulationService creates the engine. eventBus and metrics may be nil in
// degraded or headless runs.
func NewSimulationService(
	clockRepo repositories.ClockRepository,
	appointmentRepo repositories.AppointmentRepository,
	strategyRepo repositories.StrategyRepository,
	deploymentRepo repositories.DeploymentRepository,
	activityRepo repositories.ActivityRepository,
	rand providers.RandSource,
	riskAdjuster *RiskAdjuster,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	guard *ExecutionGuard,
) *SimulationService {
	return &SimulationService{
		clockRepo:       clockRepo,
		appointmentRepo: appointmentRepo,
		strategyRepo:    strategyRepo,
		deploymentRepo:  deploymentRepo,
		activityRepo:    activityRepo,
		rand:            rand,
		riskAdjuster:    riskAdjuster,
		eventBus:        eventBus,
		metrics:         metrics,
		guard:           guard,
	}
}

// Status reports the clock position and today's intraday progress
func (s *SimulationService) Status(ctx context.Context) (*SimulationStatus, error) {
	s.guard.RLock()
	defer s.guard.RUnlock()

	clock, err := s.clockRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	return s.statusLocked(ctx, clock)
}

// Deploy applies a list of strategies to every appointment on the target day.
// Validation is all-or-nothing: any invalid input leaves the book untouched.
// Re-deploying over an already assigned appointment redraws its variant, so
// the last assignment wins.
func (s *SimulationService) Deploy(ctx context.Context, targetDay int, strategyIDs []string) (*entities.Deployment, error) {
	if len(strategyIDs) == 0 {
		return nil, apperrors.NewValidationError("strategy_ids must not be empty")
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	clock, err := s.clockRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if targetDay < clock.TodayIndex {
		return nil, apperrors.NewValidationError("target_day must not be in the past")
	}

	strategies := make([]*entities.Strategy, 0, len(strategyIDs))
	defaults := 0
	for _, id := range strategyIDs {
		strategy, err := s.strategyRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if strategy.IsDefault {
			defaults++
		}
		// A strategy whose offsets reach further back than today cannot
		// act in full; reject the deployment up front.
		if window := strategy.MaxOffsetWindow(); window > targetDay-clock.TodayIndex {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf(
				"strategy %s needs %d days of lead time but only %d remain before day %d",
				strategy.ID, window, targetDay-clock.TodayIndex, targetDay))
		}
		strategies = append(strategies, strategy)
	}
	if defaults > 1 {
		return nil, apperrors.NewConfigurationError("a deployment may include at most one default strategy")
	}

	appointments, err := s.appointmentRepo.ListByDay(ctx, targetDay)
	if err != nil {
		return nil, err
	}

	claimed := map[string]bool{}
	modified := map[string]*entities.Appointment{}

	apply := func(strategy *entities.Strategy, appointment *entities.Appointment) {
		appointment.Variant = AssignVariant(s.rand, strategy.Split)
		if !appointment.HasAppliedStrategy(strategy.ID) {
			appointment.AppliedStrategyIDs = append(appointment.AppliedStrategyIDs, strategy.ID)
		}
		modified[appointment.ID] = appointment
	}

	for _, strategy := range strategies {
		if strategy.IsDefault {
			continue
		}
		for _, appointment := range appointments {
			if !strategy.Matches(appointment) {
				continue
			}
			claimed[appointment.ID] = true
			apply(strategy, appointment)
		}
	}
	for _, strategy := range strategies {
		if !strategy.IsDefault {
			continue
		}
		for _, appointment := range appointments {
			if claimed[appointment.ID] {
				continue
			}
			apply(strategy, appointment)
		}
	}

	for _, appointment := range appointments {
		if _, ok := modified[appointment.ID]; !ok {
			continue
		}
		if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
			return nil, err
		}
	}

	deployment := &entities.Deployment{
		ID:          uuid.New().String(),
		TargetDay:   targetDay,
		StrategyIDs: append([]string(nil), strategyIDs...),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.deploymentRepo.Create(ctx, deployment); err != nil {
		return nil, err
	}

	s.publish(ctx, &entities.SimulationEvent{
		ID:        uuid.New().String(),
		EventType: entities.EventDeploymentApplied,
		DayIndex:  targetDay,
		Timestamp: time.Now().UTC(),
	})

	observability.LoggerFromContext(ctx).Info().
		Str("deployment_id", deployment.ID).
		Int("target_day", targetDay).
		Int("appointments_touched", len(modified)).
		Msg("deployment applied")

	return deployment, nil
}

// AdvanceDay closes out today and moves the clock forward by one. The closing
// day runs its scheduled comms, fills unanswered outreach, and settles every
// pending outcome before the pointer moves.
func (s *SimulationService) AdvanceDay(ctx context.Context) (*SimulationStatus, error) {
	started := time.Now()

	s.guard.Lock()
	defer s.guard.Unlock()

	clock, err := s.clockRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	closing := clock.TodayIndex

	if err := s.runScheduledComms(ctx, closing); err != nil {
		return nil, err
	}
	if err := s.fillNoReplyEndOfDay(ctx, closing); err != nil {
		return nil, err
	}
	if err := s.settleOutcomes(ctx, closing); err != nil {
		return nil, err
	}

	clock.TodayIndex = closing + 1
	if err := s.clockRepo.Save(ctx, clock); err != nil {
		return nil, err
	}

	if err := s.applySameDayAdjustments(ctx, clock.TodayIndex); err != nil {
		return nil, err
	}

	s.publish(ctx, &entities.SimulationEvent{
		ID:        uuid.New().String(),
		EventType: entities.EventDayAdvanced,
		DayIndex:  clock.TodayIndex,
		Timestamp: time.Now().UTC(),
	})
	observability.RecordDayAdvance(ctx, s.metrics, time.Since(started))

	observability.LoggerFromContext(ctx).Info().
		Int("closed_day", closing).
		Int("today_index", clock.TodayIndex).
		Dur("took", time.Since(started)).
		Msg("day advanced")

	return s.statusLocked(ctx, clock)
}

// Tick resolves the next pending appointment on the current day without
// moving the clock
func (s *SimulationService) Tick(ctx context.Context) (*TickResult, error) {
	s.guard.Lock()
	defer s.guard.Unlock()

	clock, err := s.clockRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	appointments, err := s.appointmentRepo.ListByDay(ctx, clock.TodayIndex)
	if err != nil {
		return nil, err
	}

	pending := []*entities.Appointment{}
	for _, appointment := range appointments {
		if appointment.Outcome == entities.OutcomePending {
			pending = append(pending, appointment)
		}
	}

	result := &TickResult{TodayIndex: clock.TodayIndex}
	if len(pending) == 0 {
		return result, nil
	}

	next := pending[0]
	s.riskAdjuster.ApplyToday(next)
	s.resolveOutcome(ctx, next)
	if err := s.appointmentRepo.Update(ctx, next); err != nil {
		return nil, err
	}

	summary := SummarizeAppointment(next)
	result.Processed = &summary
	result.Remaining = len(pending) - 1

	return result, nil
}

// RecordComms sends a manual communication to one appointment. SMS outreach
// may draw a simulated reply; calls are logged without one.
func (s *SimulationService) RecordComms(ctx context.Context, appointmentID string, channel entities.Channel, note string) (*entities.Appointment, error) {
	if channel != entities.ChannelSMS && channel != entities.ChannelCall {
		return nil, apperrors.NewValidationError("channel must be sms or call")
	}
	if note == "" {
		note = "manual send"
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	clock, err := s.clockRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	s.sendComms(ctx, appointment, channel, clock.TodayIndex, note, channel == entities.ChannelSMS)
	if appointment.DayIndex == clock.TodayIndex && appointment.Outcome == entities.OutcomePending {
		s.riskAdjuster.ApplyToday(appointment)
	}

	if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
		return nil, err
	}

	return appointment, nil
}

// runScheduledComms fires every strategy action whose offset lands on the
// closing day. An offset fires when it equals closing day minus the
// appointment's day, so an offset of -1 fires the day before the visit.
func (s *SimulationService) runScheduledComms(ctx context.Context, closingDay int) error {
	appointments, err := s.appointmentRepo.ListAll(ctx)
	if err != nil {
		return err
	}

	strategies := map[string]*entities.Strategy{}
	for _, appointment := range appointments {
		if len(appointment.AppliedStrategyIDs) == 0 {
			continue
		}

		touched := false
		for _, strategyID := range appointment.AppliedStrategyIDs {
			strategy, ok := strategies[strategyID]
			if !ok {
				strategy, err = s.strategyRepo.GetByID(ctx, strategyID)
				if err != nil {
					if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
						continue
					}
					return err
				}
				strategies[strategyID] = strategy
			}

			definition := strategy.Definition(appointment.Variant)
			for _, offset := range definition.ActionOffsets {
				if offset != closingDay-appointment.DayIndex {
					continue
				}
				s.sendComms(ctx, appointment, definition.Channel, closingDay, "scheduled by "+strategy.Name, true)
				touched = true
			}
		}

		if touched {
			if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
				return err
			}
		}
	}

	return nil
}

// fillNoReplyEndOfDay marks every communication sent on the closing day that
// never got a reply
func (s *SimulationService) fillNoReplyEndOfDay(ctx context.Context, closingDay int) error {
	appointments, err := s.appointmentRepo.ListAll(ctx)
	if err != nil {
		return err
	}

	for _, appointment := range appointments {
		touched := false
		for i := range appointment.CommsLog {
			entry := &appointment.CommsLog[i]
			if entry.SendDayIndex != closingDay || entry.Reply != entities.ReplyPending {
				continue
			}
			entry.Reply = entities.ReplyNone
			touched = true
			s.logActivity(ctx, appointment, entities.ActivityReply, "no reply by end of day", closingDay, entities.ReplyNone, "")
		}
		if touched {
			if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
				return err
			}
		}
	}

	return nil
}

// settleOutcomes resolves every pending appointment on the closing day
func (s *SimulationService) settleOutcomes(ctx context.Context, closingDay int) error {
	appointments, err := s.appointmentRepo.ListByDay(ctx, closingDay)
	if err != nil {
		return err
	}

	for _, appointment := range appointments {
		if appointment.Outcome != entities.OutcomePending {
			continue
		}
		s.resolveOutcome(ctx, appointment)
		if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
			return err
		}
	}

	return nil
}

// resolveOutcome draws the final attendance of one appointment. A draw
// strictly below the live risk is a no-show.
func (s *SimulationService) resolveOutcome(ctx context.Context, appointment *entities.Appointment) {
	outcome := entities.OutcomeAttended
	if s.rand.Float64() < appointment.LiveRisk {
		outcome = entities.OutcomeNoShow
	}
	appointment.Outcome = outcome

	s.logActivity(ctx, appointment, entities.ActivityOutcome, string(outcome), appointment.DayIndex, "", outcome)
	observability.RecordOutcomeResolved(ctx, s.metrics, string(outcome))
	s.publish(ctx, &entities.SimulationEvent{
		ID:            uuid.New().String(),
		EventType:     entities.EventOutcomeResolved,
		DayIndex:      appointment.DayIndex,
		AppointmentID: appointment.ID,
		Outcome:       outcome,
		LiveRisk:      appointment.LiveRisk,
		Timestamp:     time.Now().UTC(),
	})
}

// applySameDayAdjustments runs the behavior heuristic over the new current day
func (s *SimulationService) applySameDayAdjustments(ctx context.Context, dayIndex int) error {
	appointments, err := s.appointmentRepo.ListByDay(ctx, dayIndex)
	if err != nil {
		return err
	}

	for _, appointment := range appointments {
		if appointment.Outcome != entities.OutcomePending {
			continue
		}
		before := appointment.LiveRisk
		s.riskAdjuster.ApplyToday(appointment)
		if appointment.LiveRisk == before {
			continue
		}
		if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
			return err
		}
	}

	return nil
}

// sendComms appends a communication to the appointment's log, applies the
// channel's risk reduction, and optionally draws a simulated reply. The
// caller persists the appointment.
func (s *SimulationService) sendComms(ctx context.Context, appointment *entities.Appointment, channel entities.Channel, sendDay int, note string, simulateReply bool) {
	entry := entities.CommsEntry{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		SendDayIndex: sendDay,
		Channel:      channel,
		Variant:      appointment.Variant,
		Note:         note,
		Reply:        entities.ReplyPending,
	}

	if simulateReply {
		if draw := s.rand.Float64(); draw < replyYesProb {
			entry.Reply = entities.ReplyConfirmed
		} else if draw < replyYesProb+replyNoProb {
			entry.Reply = entities.ReplyDeclined
		}
	}

	appointment.CommsLog = append(appointment.CommsLog, entry)
	s.riskAdjuster.ApplyComms(appointment, channel)

	activityType := entities.ActivitySMS
	message := "sms sent"
	if channel == entities.ChannelCall {
		activityType = entities.ActivityCall
		message = "call placed"
	}
	s.logActivity(ctx, appointment, activityType, message, sendDay, "", "")
	if entry.Reply == entities.ReplyConfirmed || entry.Reply == entities.ReplyDeclined {
		s.logActivity(ctx, appointment, entities.ActivityReply, string(entry.Reply), sendDay, entry.Reply, "")
	}

	observability.RecordCommsSent(ctx, s.metrics, string(channel))
	s.publish(ctx, &entities.SimulationEvent{
		ID:            uuid.New().String(),
		EventType:     entities.EventCommsSent,
		DayIndex:      sendDay,
		AppointmentID: appointment.ID,
		Channel:       channel,
		LiveRisk:      appointment.LiveRisk,
		Timestamp:     time.Now().UTC(),
	})
}

func (s *SimulationService) logActivity(ctx context.Context, appointment *entities.Appointment, activityType entities.ActivityType, message string, sendDay int, reply entities.ReplyStatus, outcome entities.Outcome) {
	entry := &entities.ActivityEntry{
		ID:                  uuid.New().String(),
		Timestamp:           time.Now().UTC(),
		SendDayIndex:        sendDay,
		AppointmentDayIndex: appointment.DayIndex,
		AppointmentID:       appointment.ID,
		PatientName:         appointment.PatientName,
		Type:                activityType,
		Variant:             appointment.Variant,
		Message:             message,
		Reply:               reply,
		Outcome:             outcome,
	}
	if err := s.activityRepo.Append(ctx, entry); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("appointment_id", appointment.ID).
			Msg("failed to append activity entry")
	}
}

func (s *SimulationService) publish(ctx context.Context, event *entities.SimulationEvent) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, providers.EventChannelSimulation, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("event_type", string(event.EventType)).
			Msg("failed to publish simulation event")
	}
	if event.AppointmentID != "" {
		channel := providers.GetAppointmentChannel(event.AppointmentID)
		if err := s.eventBus.Publish(ctx, channel, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("channel", channel).
				Msg("failed to publish appointment event")
		}
	}
}

// statusLocked builds a status snapshot while the guard is already held
func (s *SimulationService) statusLocked(ctx context.Context, clock *entities.SimulationClock) (*SimulationStatus, error) {
	appointments, err := s.appointmentRepo.ListByDay(ctx, clock.TodayIndex)
	if err != nil {
		return nil, err
	}

	status := &SimulationStatus{
		TodayIndex: clock.TodayIndex,
		TodayDate:  clock.DateForDay(clock.TodayIndex).Format("2006-01-02"),
		StartDate:  clock.StartDate.Format("2006-01-02"),
		Total:      len(appointments),
	}
	for _, appointment := range appointments {
		if appointment.Outcome != entities.OutcomePending {
			continue
		}
		status.Remaining++
		if status.NextAppointment == nil {
			summary := SummarizeAppointment(appointment)
			status.NextAppointment = &summary
		}
	}
	return status, nil
}
