package providers

import (
	"context"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
)

// RiskScorer supplies the baseline no-show risk for a new appointment. The
// engine treats the returned value as opaque; failures are surfaced to the
// caller verbatim, never replaced with a fabricated risk.
type RiskScorer interface {
	// Score returns a no-show probability in [0, 1] for the given features
	Score(ctx context.Context, features entities.PatientFeatures) (float64, error)
}
