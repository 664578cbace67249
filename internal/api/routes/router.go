package routes

import (
	"net/http"

	"github.com/attendlab/clinic-noshow-sim/internal/api/handlers"
	"github.com/attendlab/clinic-noshow-sim/internal/api/middleware"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	appointmentHandler *handlers.AppointmentHandler
	strategyHandler    *handlers.StrategyHandler
	simulationHandler  *handlers.SimulationHandler
	dayHandler         *handlers.DayHandler
	sseHandler         *handlers.SSEHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router. sseHandler may be nil when no event bus is
// configured.
func NewRouter(
	appointmentHandler *handlers.AppointmentHandler,
	strategyHandler *handlers.StrategyHandler,
	simulationHandler *handlers.SimulationHandler,
	dayHandler *handlers.DayHandler,
	sseHandler *handlers.SSEHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		appointmentHandler: appointmentHandler,
		strategyHandler:    strategyHandler,
		simulationHandler:  simulationHandler,
		dayHandler:         dayHandler,
		sseHandler:         sseHandler,
		metrics:            metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Simulation control endpoints
	r.mux.HandleFunc("GET /api/simulation/status", r.simulationHandler.GetStatus)
	r.mux.HandleFunc("POST /api/simulation/advance-day", r.simulationHandler.AdvanceDay)
	r.mux.HandleFunc("POST /api/simulation/tick", r.simulationHandler.Tick)

	// Appointment endpoints
	r.mux.HandleFunc("POST /api/appointments", r.appointmentHandler.CreateAppointment)
	r.mux.HandleFunc("GET /api/appointments/search", r.appointmentHandler.SearchAppointments)
	r.mux.HandleFunc("GET /api/appointments/{id}", r.appointmentHandler.GetAppointment)
	r.mux.HandleFunc("POST /api/appointments/{id}/comms", r.appointmentHandler.RecordComms)
	r.mux.HandleFunc("GET /api/appointments/{id}/logs", r.dayHandler.GetAppointmentLogs)

	// Strategy endpoints
	r.mux.HandleFunc("POST /api/strategies", r.strategyHandler.CreateStrategy)
	r.mux.HandleFunc("GET /api/strategies", r.strategyHandler.ListStrategies)
	r.mux.HandleFunc("GET /api/strategies/{id}", r.strategyHandler.GetStrategy)
	r.mux.HandleFunc("PATCH /api/strategies/{id}", r.strategyHandler.UpdateStrategy)

	// Deployment endpoints
	r.mux.HandleFunc("POST /api/deployments", r.simulationHandler.Deploy)
	r.mux.HandleFunc("GET /api/deployments", r.simulationHandler.ListDeployments)

	// Day endpoints
	r.mux.HandleFunc("GET /api/days/{day}/appointments", r.appointmentHandler.ListDayAppointments)
	r.mux.HandleFunc("GET /api/days/{day}/summary", r.dayHandler.GetDaySummary)
	r.mux.HandleFunc("GET /api/days/{day}/logs", r.dayHandler.GetDayLogs)

	// Event stream endpoints
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/simulation", r.sseHandler.StreamSimulation)
		r.mux.HandleFunc("GET /api/stream/appointments/{id}", r.sseHandler.StreamAppointment)
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so error responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
