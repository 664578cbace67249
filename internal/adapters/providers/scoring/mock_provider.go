package scoring

import (
	"context"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/providers"
)

// MockScorer is a deterministic heuristic stand-in for the hosted model, used
// when no scorer endpoint is configured. Prior no-shows, travel distance, new
// patients, and off-hours slots all push the risk up.
type MockScorer struct{}

// NewMockScorer creates the heuristic scorer
func NewMockScorer() providers.RiskScorer {
	return &MockScorer{}
}

// Score returns a heuristic no-show probability for the given features
func (s *MockScorer) Score(ctx context.Context, features entities.PatientFeatures) (float64, error) {
	risk := 0.15 + 0.05*float64(features.PrevNoShows) + 0.01*features.DistanceKM
	if features.NewPatient {
		risk += 0.06
	}
	if features.SlotHour < 9 || features.SlotHour > 16 {
		risk += 0.03
	}
	return entities.RoundRisk(entities.ClampRisk(risk)), nil
}
