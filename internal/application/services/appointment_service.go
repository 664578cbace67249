package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/providers"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/observability"
	apperrors "github.com/attendlab/clinic-noshow-sim/pkg/errors"
)

// CreateAppointmentRequest carries the inputs for booking a simulated
// appointment. Slot hour and weekday are derived from the scheduled time, not
// taken from the caller.
type CreateAppointmentRequest struct {
	PatientName string                   `json:"patient_name"`
	DayIndex    int                      `json:"day_index"`
	ScheduledAt time.Time                `json:"scheduled_at"`
	Features    entities.PatientFeatures `json:"features"`
}

// AppointmentService manages the appointment book. Baseline risk is scored
// exactly once, at creation, through the configured scorer.
type AppointmentService struct {
	appointmentRepo repositories.AppointmentRepository
	clockRepo       repositories.ClockRepository
	searchRepo      repositories.AppointmentSearchRepository
	scorer          providers.RiskScorer
	guard           *ExecutionGuard
}

// NewAppointmentService creates a new appointment service. searchRepo may be
// nil when no search backend is configured.
func NewAppointmentService(
	appointmentRepo repositories.AppointmentRepository,
	clockRepo repositories.ClockRepository,
	searchRepo repositories.AppointmentSearchRepository,
	scorer providers.RiskScorer,
	guard *ExecutionGuard,
) *AppointmentService {
	return &AppointmentService{
		appointmentRepo: appointmentRepo,
		clockRepo:       clockRepo,
		searchRepo:      searchRepo,
		scorer:          scorer,
		guard:           guard,
	}
}

// CreateAppointment validates, scores, and stores a new appointment. The
// scorer call happens before any lock is taken so a slow endpoint never
// stalls the rest of the engine.
func (s *AppointmentService) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*entities.Appointment, error) {
	if req.PatientName == "" {
		return nil, apperrors.NewValidationError("patient_name is required")
	}
	if req.DayIndex < 0 {
		return nil, apperrors.NewValidationError("day_index must not be negative")
	}
	if req.ScheduledAt.IsZero() {
		return nil, apperrors.NewValidationError("scheduled_at is required")
	}
	if req.Features.Age < 0 || req.Features.Age > 120 {
		return nil, apperrors.NewValidationError("age must be within [0, 120]")
	}
	if req.Features.PrevNoShows < 0 {
		return nil, apperrors.NewValidationError("prev_no_shows must not be negative")
	}
	if req.Features.DistanceKM < 0 {
		return nil, apperrors.NewValidationError("distance_km must not be negative")
	}

	clock, err := s.clockRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	scheduled := req.ScheduledAt.UTC()
	if clock.DayIndexFor(scheduled) != req.DayIndex {
		return nil, apperrors.NewValidationError("scheduled_at does not fall on day_index")
	}

	features := req.Features
	features.SlotHour = scheduled.Hour()
	features.Weekday = int(scheduled.Weekday())

	baseline, err := s.scorer.Score(ctx, features)
	if err != nil {
		return nil, err
	}
	baseline = entities.RoundRisk(entities.ClampRisk(baseline))

	now := time.Now().UTC()
	appointment := &entities.Appointment{
		ID:           uuid.New().String(),
		PatientName:  req.PatientName,
		DayIndex:     req.DayIndex,
		ScheduledAt:  scheduled,
		Features:     features,
		BaselineRisk: baseline,
		LiveRisk:     baseline,
		Variant:      entities.VariantUnassigned,
		Outcome:      entities.OutcomePending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	if err := s.appointmentRepo.Create(ctx, appointment); err != nil {
		return nil, err
	}

	if s.searchRepo != nil {
		if err := s.searchRepo.Index(ctx, appointment); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("appointment_id", appointment.ID).
				Msg("failed to index appointment for search")
		}
	}

	observability.LoggerFromContext(ctx).Info().
		Str("appointment_id", appointment.ID).
		Int("day_index", appointment.DayIndex).
		Float64("baseline_risk", appointment.BaselineRisk).
		Msg("appointment created")

	return appointment, nil
}

// GetAppointment retrieves an appointment by ID
func (s *AppointmentService) GetAppointment(ctx context.Context, id string) (*entities.Appointment, error) {
	s.guard.RLock()
	defer s.guard.RUnlock()

	return s.appointmentRepo.GetByID(ctx, id)
}

// ListDay retrieves a day's appointments ordered by scheduled time
func (s *AppointmentService) ListDay(ctx context.Context, dayIndex int) ([]*entities.Appointment, error) {
	s.guard.RLock()
	defer s.guard.RUnlock()

	return s.appointmentRepo.ListByDay(ctx, dayIndex)
}

// ListDaySummaries retrieves a day's appointment book as listing rows
func (s *AppointmentService) ListDaySummaries(ctx context.Context, dayIndex int) ([]entities.AppointmentSummary, error) {
	appointments, err := s.ListDay(ctx, dayIndex)
	if err != nil {
		return nil, err
	}

	summaries := make([]entities.AppointmentSummary, 0, len(appointments))
	for _, appointment := range appointments {
		summaries = append(summaries, SummarizeAppointment(appointment))
	}
	return summaries, nil
}

// SearchAppointments looks up appointments by patient name through the search
// backend, then re-reads each hit from the store so results reflect live state
func (s *AppointmentService) SearchAppointments(ctx context.Context, query string, limit int) ([]entities.AppointmentSummary, error) {
	if s.searchRepo == nil {
		return nil, apperrors.NewConfigurationError("appointment search is not configured")
	}
	if query == "" {
		return nil, apperrors.NewValidationError("query is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	s.guard.RLock()
	defer s.guard.RUnlock()

	ids, err := s.searchRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewExternalError("appointment search failed", err)
	}

	summaries := make([]entities.AppointmentSummary, 0, len(ids))
	for _, id := range ids {
		appointment, err := s.appointmentRepo.GetByID(ctx, id)
		if err != nil {
			// Index can lag the store; skip hits that no longer resolve.
			if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
				continue
			}
			return nil, err
		}
		summaries = append(summaries, SummarizeAppointment(appointment))
	}

	return summaries, nil
}

// SummarizeAppointment projects an appointment onto its listing row
func SummarizeAppointment(a *entities.Appointment) entities.AppointmentSummary {
	return entities.AppointmentSummary{
		ID:              a.ID,
		PatientName:     a.PatientName,
		Time:            a.ScheduledAt.UTC().Format("15:04"),
		LiveRisk:        a.LiveRisk,
		PredictedNoShow: a.PredictedNoShow(),
		Outcome:         a.Outcome,
		Variant:         a.Variant,
	}
}
