package services

import (
	"github.com/attendlab/clinic-noshow-sim/internal/domain/entities"
	"github.com/attendlab/clinic-noshow-sim/internal/domain/providers"
)

// AssignVariant draws an A/B arm from the strategy's split. The split is the
// probability of arm A, so split=1.0 sends everyone to A and split=0.0 to B.
func AssignVariant(rand providers.RandSource, split float64) entities.Variant {
	if rand.Float64() < split {
		return entities.VariantA
	}
	return entities.VariantB
}
