package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
)

// SummaryService defines the interface for day aggregation
type SummaryService interface {
	Summarize(ctx context.Context, dayIndex int) (*entities.DaySummary, error)
}

// DayHandler handles day summary and activity log requests
type DayHandler struct {
	summaries    SummaryService
	activityRepo repositories.ActivityRepository
}

// NewDayHandler creates a new day handler
func NewDayHandler(summaries SummaryService, activityRepo repositories.ActivityRepository) *DayHandler {
	return &DayHandler{
		summaries:    summaries,
		activityRepo: activityRepo,
	}
}

// GetDaySummary handles GET /api/days/{day}/summary
func (h *DayHandler) GetDaySummary(w http.ResponseWriter, r *http.Request) {
	dayIndex, err := strconv.Atoi(r.PathValue("day"))
	if err != nil || dayIndex < 0 {
		respondWithError(w, http.StatusBadRequest, "day must be a non-negative integer")
		return
	}

	summary, err := h.summaries.Summarize(r.Context(), dayIndex)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// GetDayLogs handles GET /api/days/{day}/logs
func (h *DayHandler) GetDayLogs(w http.ResponseWriter, r *http.Request) {
	dayIndex, err := strconv.Atoi(r.PathValue("day"))
	if err != nil || dayIndex < 0 {
		respondWithError(w, http.StatusBadRequest, "day must be a non-negative integer")
		return
	}

	entries, err := h.activityRepo.ListByAppointmentDay(r.Context(), dayIndex)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"day_index": dayIndex,
		"entries":   entries,
		"count":     len(entries),
	})
}

// GetAppointmentLogs handles GET /api/appointments/{id}/logs
func (h *DayHandler) GetAppointmentLogs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	entries, err := h.activityRepo.ListByAppointment(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"appointment_id": id,
		"entries":        entries,
		"count":          len(entries),
	})
}
