package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	apperrors "github.com/attendlab/clinic-noshow-sim/pkg/errors"
)

func validStrategy() *entities.Strategy {
	return &entities.Strategy{
		Name:  "Reminder",
		Split: 0.5,
		VariantA: entities.VariantDefinition{
			Channel:       entities.ChannelSMS,
			ActionOffsets: []int{-1},
		},
		VariantB: entities.VariantDefinition{
			Channel:       entities.ChannelCall,
			ActionOffsets: []int{-2, -1},
		},
	}
}

func TestStrategy_Validate_Valid(t *testing.T) {
	assert.NoError(t, validStrategy().Validate())
}

func TestStrategy_Validate_NameRequired(t *testing.T) {
	strategy := validStrategy()
	strategy.Name = ""

	err := strategy.Validate()
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestStrategy_Validate_SplitOutOfRange(t *testing.T) {
	for _, split := range []float64{-0.1, 1.1} {
		strategy := validStrategy()
		strategy.Split = split

		err := strategy.Validate()
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration), "split %v", split)
	}
}

func TestStrategy_Validate_DefaultMustNotHaveSegment(t *testing.T) {
	strategy := validStrategy()
	strategy.IsDefault = true
	strategy.Segment = &entities.Segment{AgeMin: 0, AgeMax: 120, RiskMin: 0, RiskMax: 1}

	err := strategy.Validate()
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
}

func TestStrategy_Validate_SegmentBounds(t *testing.T) {
	strategy := validStrategy()
	strategy.Segment = &entities.Segment{AgeMin: 40, AgeMax: 20, RiskMin: 0, RiskMax: 1}
	assert.True(t, apperrors.IsType(strategy.Validate(), apperrors.ErrorTypeConfiguration))

	strategy.Segment = &entities.Segment{AgeMin: 0, AgeMax: 120, RiskMin: 0.8, RiskMax: 0.2}
	assert.True(t, apperrors.IsType(strategy.Validate(), apperrors.ErrorTypeConfiguration))
}

func TestStrategy_Validate_Channel(t *testing.T) {
	strategy := validStrategy()
	strategy.VariantB.Channel = "email"

	err := strategy.Validate()
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
}

func TestStrategy_Matches_NilSegmentMatchesAll(t *testing.T) {
	strategy := validStrategy()
	appointment := &entities.Appointment{
		Features:     entities.PatientFeatures{Age: 99},
		BaselineRisk: 0.01,
	}

	assert.True(t, strategy.Matches(appointment))
}

func TestStrategy_Matches_UsesBaselineRisk(t *testing.T) {
	strategy := validStrategy()
	strategy.Segment = &entities.Segment{AgeMin: 18, AgeMax: 65, RiskMin: 0.5, RiskMax: 1.0}

	appointment := &entities.Appointment{
		Features:     entities.PatientFeatures{Age: 30},
		BaselineRisk: 0.6,
		LiveRisk:     0.1, // live risk has dropped but targeting still holds
	}
	assert.True(t, strategy.Matches(appointment))

	appointment.BaselineRisk = 0.3
	appointment.LiveRisk = 0.9
	assert.False(t, strategy.Matches(appointment))
}

func TestStrategy_Matches_BoundsInclusive(t *testing.T) {
	strategy := validStrategy()
	strategy.Segment = &entities.Segment{AgeMin: 18, AgeMax: 65, RiskMin: 0.5, RiskMax: 1.0}

	appointment := &entities.Appointment{
		Features:     entities.PatientFeatures{Age: 18},
		BaselineRisk: 0.5,
	}
	assert.True(t, strategy.Matches(appointment))

	appointment.Features.Age = 65
	appointment.BaselineRisk = 1.0
	assert.True(t, strategy.Matches(appointment))
}

func TestStrategy_Definition_UnassignedFallsBackToA(t *testing.T) {
	strategy := validStrategy()

	assert.Equal(t, strategy.VariantA, strategy.Definition(entities.VariantUnassigned))
	assert.Equal(t, strategy.VariantA, strategy.Definition(entities.VariantA))
	assert.Equal(t, strategy.VariantB, strategy.Definition(entities.VariantB))
}

func TestStrategy_MaxOffsetWindow(t *testing.T) {
	strategy := validStrategy()
	assert.Equal(t, 2, strategy.MaxOffsetWindow())

	strategy.VariantA.ActionOffsets = nil
	strategy.VariantB.ActionOffsets = nil
	assert.Equal(t, 0, strategy.MaxOffsetWindow())
}

func TestStrategy_Clone_Independent(t *testing.T) {
	strategy := validStrategy()
	strategy.Segment = &entities.Segment{AgeMin: 18, AgeMax: 65, RiskMin: 0, RiskMax: 1}

	clone := strategy.Clone()
	clone.Segment.AgeMax = 99
	clone.VariantA.ActionOffsets[0] = -7

	assert.Equal(t, 65, strategy.Segment.AgeMax)
	assert.Equal(t, -1, strategy.VariantA.ActionOffsets[0])
}
