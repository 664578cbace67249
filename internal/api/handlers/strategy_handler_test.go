package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendlab/clinic-noshow-sim/internal/api/handlers"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	apperrors "github.com/attendlab/clinic-noshow-sim/pkg/errors"
)

type stubStrategyService struct {
	strategies map[string]*entities.Strategy
	createErr  error
	updated    *entities.Strategy
}

func newStubStrategyService() *stubStrategyService {
	return &stubStrategyService{strategies: map[string]*entities.Strategy{}}
}

func (s *stubStrategyService) CreateStrategy(ctx context.Context, strategy *entities.Strategy) (*entities.Strategy, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	strategy.ID = "created-id"
	s.strategies[strategy.ID] = strategy
	return strategy, nil
}

func (s *stubStrategyService) UpdateStrategy(ctx context.Context, strategy *entities.Strategy) (*entities.Strategy, error) {
	s.updated = strategy
	return strategy, nil
}

func (s *stubStrategyService) GetStrategy(ctx context.Context, id string) (*entities.Strategy, error) {
	strategy, ok := s.strategies[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("strategy not found")
	}
	return strategy, nil
}

func (s *stubStrategyService) ListStrategies(ctx context.Context) ([]*entities.Strategy, error) {
	list := []*entities.Strategy{}
	for _, strategy := range s.strategies {
		list = append(list, strategy)
	}
	return list, nil
}

func TestStrategyHandler_Create(t *testing.T) {
	service := newStubStrategyService()
	handler := handlers.NewStrategyHandler(service)

	body := `{
		"name": "Reminder",
		"split": 0.5,
		"variant_a": {"channel": "sms", "action_offsets": [-1]},
		"variant_b": {"channel": "call", "action_offsets": [-1]}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/strategies", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.CreateStrategy(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created entities.Strategy
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "created-id", created.ID)
	assert.Equal(t, "Reminder", created.Name)
	assert.Equal(t, entities.ChannelCall, created.VariantB.Channel)
}

func TestStrategyHandler_CreateMalformedBody(t *testing.T) {
	handler := handlers.NewStrategyHandler(newStubStrategyService())

	req := httptest.NewRequest(http.MethodPost, "/api/strategies", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler.CreateStrategy(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStrategyHandler_CreateConfigurationMapsTo422(t *testing.T) {
	service := newStubStrategyService()
	service.createErr = apperrors.NewConfigurationError("split must be within [0, 1]")
	handler := handlers.NewStrategyHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/strategies", strings.NewReader(`{"name":"Bad","split":1.5}`))
	rec := httptest.NewRecorder()

	handler.CreateStrategy(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "split must be within")
}

func TestStrategyHandler_GetMissingMapsTo404(t *testing.T) {
	handler := handlers.NewStrategyHandler(newStubStrategyService())

	req := httptest.NewRequest(http.MethodGet, "/api/strategies/nope", nil)
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()

	handler.GetStrategy(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStrategyHandler_UpdateMergesPartialBody(t *testing.T) {
	service := newStubStrategyService()
	service.strategies["s1"] = &entities.Strategy{
		ID:       "s1",
		Name:     "Reminder",
		Split:    0.5,
		VariantA: entities.VariantDefinition{Channel: entities.ChannelSMS, ActionOffsets: []int{-1}},
		VariantB: entities.VariantDefinition{Channel: entities.ChannelCall, ActionOffsets: []int{-1}},
	}
	handler := handlers.NewStrategyHandler(service)

	req := httptest.NewRequest(http.MethodPatch, "/api/strategies/s1", strings.NewReader(`{"split": 0.8}`))
	req.SetPathValue("id", "s1")
	rec := httptest.NewRecorder()

	handler.UpdateStrategy(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, service.updated)

	// Absent fields keep their current values
	assert.Equal(t, "s1", service.updated.ID)
	assert.Equal(t, "Reminder", service.updated.Name)
	assert.Equal(t, 0.8, service.updated.Split)
	assert.Equal(t, entities.ChannelSMS, service.updated.VariantA.Channel)
}

func TestStrategyHandler_List(t *testing.T) {
	service := newStubStrategyService()
	service.strategies["s1"] = &entities.Strategy{ID: "s1", Name: "Reminder"}
	handler := handlers.NewStrategyHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/strategies", nil)
	rec := httptest.NewRecorder()

	handler.ListStrategies(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Strategies []*entities.Strategy `json:"strategies"`
		Count      int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.Count)
	require.Len(t, payload.Strategies, 1)
	assert.Equal(t, "s1", payload.Strategies[0].ID)
}
