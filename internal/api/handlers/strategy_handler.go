package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
)

// StrategyService defines the interface for strategy operations
type StrategyService interface {
	CreateStrategy(ctx context.Context, strategy *entities.Strategy) (*entities.Strategy, error)
	UpdateStrategy(ctx context.Context, strategy *entities.Strategy) (*entities.Strategy, error)
	GetStrategy(ctx context.Context, id string) (*entities.Strategy, error)
	ListStrategies(ctx context.Context) ([]*entities.Strategy, error)
}

// StrategyHandler handles strategy requests
type StrategyHandler struct {
	service StrategyService
}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler(service StrategyService) *StrategyHandler {
	return &StrategyHandler{service: service}
}

// CreateStrategy handles POST /api/strategies
func (h *StrategyHandler) CreateStrategy(w http.ResponseWriter, r *http.Request) {
	var strategy entities.Strategy
	if err := json.NewDecoder(r.Body).Decode(&strategy); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	created, err := h.service.CreateStrategy(r.Context(), &strategy)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// ListStrategies handles GET /api/strategies
func (h *StrategyHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	strategies, err := h.service.ListStrategies(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"strategies": strategies,
		"count":      len(strategies),
	})
}

// GetStrategy handles GET /api/strategies/{id}
func (h *StrategyHandler) GetStrategy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "strategy ID is required")
		return
	}

	strategy, err := h.service.GetStrategy(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, strategy)
}

// UpdateStrategy handles PATCH /api/strategies/{id}. Fields absent from the
// body keep their current values. Edits never re-touch appointments the
// strategy was already deployed to.
func (h *StrategyHandler) UpdateStrategy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "strategy ID is required")
		return
	}

	strategy, err := h.service.GetStrategy(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(strategy); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	strategy.ID = id

	updated, err := h.service.UpdateStrategy(r.Context(), strategy)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}
