package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/attendlab/clinic-noshow-sim/internal/application/services"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/repositories"
)

// SimulationService defines the interface for engine operations
type SimulationService interface {
	Status(ctx context.Context) (*services.SimulationStatus, error)
	AdvanceDay(ctx context.Context) (*services.SimulationStatus, error)
	Tick(ctx context.Context) (*services.TickResult, error)
	Deploy(ctx context.Context, targetDay int, strategyIDs []string) (*entities.Deployment, error)
}

// SimulationHandler handles simulation control requests
type SimulationHandler struct {
	service        SimulationService
	deploymentRepo repositories.DeploymentRepository
}

// NewSimulationHandler creates a new simulation handler
func NewSimulationHandler(service SimulationService, deploymentRepo repositories.DeploymentRepository) *SimulationHandler {
	return &SimulationHandler{
		service:        service,
		deploymentRepo: deploymentRepo,
	}
}

// GetStatus handles GET /api/simulation/status
func (h *SimulationHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

// AdvanceDay handles POST /api/simulation/advance-day
func (h *SimulationHandler) AdvanceDay(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.AdvanceDay(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

// Tick handles POST /api/simulation/tick
func (h *SimulationHandler) Tick(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Tick(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

type deployRequest struct {
	TargetDay   int      `json:"target_day"`
	StrategyIDs []string `json:"strategy_ids"`
}

// Deploy handles POST /api/deployments
func (h *SimulationHandler) Deploy(w http.ResponseWriter, r *http.Request) {
	var req deployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	deployment, err := h.service.Deploy(r.Context(), req.TargetDay, req.StrategyIDs)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, deployment)
}

// ListDeployments handles GET /api/deployments
func (h *SimulationHandler) ListDeployments(w http.ResponseWriter, r *http.Request) {
	deployments, err := h.deploymentRepo.List(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"deployments": deployments,
		"count":       len(deployments),
	})
}
