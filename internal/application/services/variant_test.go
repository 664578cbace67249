package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/attendlab/clinic-noshow-sim/internal/adapters/providers/random"
	"github.com/attendlab/clinic-noshow-sim/internal/application/services"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
)

func TestAssignVariant_DegenerateSplits(t *testing.T) {
	source := random.NewSource(1)

	for i := 0; i < 100; i++ {
		assert.Equal(t, entities.VariantA, services.AssignVariant(source, 1.0))
		assert.Equal(t, entities.VariantB, services.AssignVariant(source, 0.0))
	}
}

func TestAssignVariant_SplitProportion(t *testing.T) {
	source := random.NewSource(42)

	const draws = 10000
	countA := 0
	for i := 0; i < draws; i++ {
		if services.AssignVariant(source, 0.3) == entities.VariantA {
			countA++
		}
	}

	fraction := float64(countA) / draws
	assert.InDelta(t, 0.3, fraction, 0.03)
}
