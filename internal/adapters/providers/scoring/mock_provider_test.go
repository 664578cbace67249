package scoring_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendlab/clinic-noshow-sim/internal/adapters/providers/scoring"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
)

func TestMockScorer_Baseline(t *testing.T) {
	scorer := scoring.NewMockScorer()

	risk, err := scorer.Score(context.Background(), entities.PatientFeatures{SlotHour: 10})
	require.NoError(t, err)
	assert.Equal(t, 0.15, risk)
}

func TestMockScorer_FeatureContributions(t *testing.T) {
	scorer := scoring.NewMockScorer()

	// 0.15 + 2*0.05 + 10*0.01 + new patient 0.06 + off-hours 0.03
	risk, err := scorer.Score(context.Background(), entities.PatientFeatures{
		PrevNoShows: 2,
		DistanceKM:  10,
		NewPatient:  true,
		SlotHour:    8,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.44, risk)
}

func TestMockScorer_ClampsAtCeiling(t *testing.T) {
	scorer := scoring.NewMockScorer()

	risk, err := scorer.Score(context.Background(), entities.PatientFeatures{
		PrevNoShows: 50,
		SlotHour:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.RiskCeiling, risk)
}
