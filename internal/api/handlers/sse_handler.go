package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/providers"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/observability"
)

// SSEHandler streams simulation events to dashboards over Server-Sent Events
type SSEHandler struct {
	eventBus providers.EventBus
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{eventBus: eventBus}
}

// StreamSimulation handles GET /api/stream/simulation
func (h *SSEHandler) StreamSimulation(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, providers.EventChannelSimulation, map[string]interface{}{
		"stream": "simulation",
	})
}

// StreamAppointment handles GET /api/stream/appointments/{id}
func (h *SSEHandler) StreamAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	h.stream(w, r, providers.GetAppointmentChannel(id), map[string]interface{}{
		"stream":         "appointment",
		"appointment_id": id,
	})
}

func (h *SSEHandler) stream(w http.ResponseWriter, r *http.Request, channel string, hello map[string]interface{}) {
	if h.eventBus == nil {
		respondWithError(w, http.StatusServiceUnavailable, "event streaming is not configured")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn().
			Err(err).
			Str("channel", channel).
			Msg("failed to subscribe to event channel")
		respondWithError(w, http.StatusServiceUnavailable, "failed to subscribe to event stream")
		return
	}

	hello["timestamp"] = time.Now().UTC()
	sendEvent(w, "connected", hello)
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			sendEvent(w, "heartbeat", map[string]interface{}{"timestamp": time.Now().UTC()})
			flusher.Flush()
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			h.sendSimulationEvent(w, event)
			flusher.Flush()
		}
	}
}

func (h *SSEHandler) sendSimulationEvent(w http.ResponseWriter, event *entities.SimulationEvent) {
	sendEvent(w, string(event.EventType), event)
}

func sendEvent(w http.ResponseWriter, name string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
}
