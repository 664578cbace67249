package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/attendlab/clinic-noshow-sim/internal/application/services"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
)

// AppointmentService defines the interface for appointment operations
type AppointmentService interface {
	CreateAppointment(ctx context.Context, req services.CreateAppointmentRequest) (*entities.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*entities.Appointment, error)
	ListDaySummaries(ctx context.Context, dayIndex int) ([]entities.AppointmentSummary, error)
	SearchAppointments(ctx context.Context, query string, limit int) ([]entities.AppointmentSummary, error)
}

// CommsRecorder defines the interface for manual outreach
type CommsRecorder interface {
	RecordComms(ctx context.Context, appointmentID string, channel entities.Channel, note string) (*entities.Appointment, error)
}

// AppointmentHandler handles appointment requests
type AppointmentHandler struct {
	service AppointmentService
	comms   CommsRecorder
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(service AppointmentService, comms CommsRecorder) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
		comms:   comms,
	}
}

// CreateAppointment handles POST /api/appointments
func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req services.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	appointment, err := h.service.CreateAppointment(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, appointment)
}

// GetAppointment handles GET /api/appointments/{id}
func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	appointment, err := h.service.GetAppointment(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}

// ListDayAppointments handles GET /api/days/{day}/appointments
func (h *AppointmentHandler) ListDayAppointments(w http.ResponseWriter, r *http.Request) {
	dayIndex, err := strconv.Atoi(r.PathValue("day"))
	if err != nil || dayIndex < 0 {
		respondWithError(w, http.StatusBadRequest, "day must be a non-negative integer")
		return
	}

	summaries, err := h.service.ListDaySummaries(r.Context(), dayIndex)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"day_index":    dayIndex,
		"appointments": summaries,
		"count":        len(summaries),
	})
}

// SearchAppointments handles GET /api/appointments/search
func (h *AppointmentHandler) SearchAppointments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "q query parameter is required")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	summaries, err := h.service.SearchAppointments(r.Context(), query, limit)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": summaries,
		"count":        len(summaries),
	})
}

type recordCommsRequest struct {
	Channel string `json:"channel"`
	Note    string `json:"note"`
}

// RecordComms handles POST /api/appointments/{id}/comms
func (h *AppointmentHandler) RecordComms(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	var req recordCommsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	appointment, err := h.comms.RecordComms(r.Context(), id, entities.Channel(req.Channel), req.Note)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appointment)
}
