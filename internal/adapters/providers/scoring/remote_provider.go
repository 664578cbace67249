package scoring

import (
	"context"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/providers"
	"github.com/attendlab/clinic-noshow-sim/internal/infrastructure/clients/scorer"
	apperrors "github.com/attendlab/clinic-noshow-sim/pkg/errors"
)

// RemoteScorer scores appointments through the hosted inference endpoint
type RemoteScorer struct {
	client *scorer.Client
}

// NewRemoteScorer creates a scorer backed by the remote endpoint client
func NewRemoteScorer(client *scorer.Client) providers.RiskScorer {
	return &RemoteScorer{client: client}
}

// Score returns the endpoint's no-show probability for the given features.
// Scorer failures are surfaced as external errors, never defaulted.
func (s *RemoteScorer) Score(ctx context.Context, features entities.PatientFeatures) (float64, error) {
	risk, err := s.client.Predict(ctx, features)
	if err != nil {
		return 0, apperrors.NewExternalError("risk scorer request failed", err)
	}
	return risk, nil
}
