package scorer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/clients/scorer"
	"github.com/attendlab/clinic-noshow-sim/pkg/config"
)

func newTestClient(url string) *scorer.Client {
	return scorer.NewClient(&config.ScorerConfig{
		Endpoint: url,
		APIKey:   "test-key",
		Timeout:  2 * time.Second,
	})
}

func TestClient_Predict(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody struct {
		Features entities.PatientFeatures `json:"features"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]float64{"risk": 0.37})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	features := entities.PatientFeatures{Age: 34, PrevNoShows: 2, DistanceKM: 5.5, SlotHour: 9, Weekday: 1}
	risk, err := client.Predict(context.Background(), features)
	require.NoError(t, err)

	assert.Equal(t, 0.37, risk)
	assert.Equal(t, "/predict", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, features, gotBody.Features)
}

func TestClient_PredictRejectsOutOfRangeRisk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]float64{"risk": 1.7})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Predict(context.Background(), entities.PatientFeatures{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside [0, 1]")
}

func TestClient_PredictSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Predict(context.Background(), entities.PatientFeatures{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestClient_PredictRetriesTransientFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "warming up", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]float64{"risk": 0.5})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	risk, err := client.Predict(context.Background(), entities.PatientFeatures{})
	require.NoError(t, err)
	assert.Equal(t, 0.5, risk)
	assert.Equal(t, 2, calls)
}
