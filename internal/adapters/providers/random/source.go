package random

import (
	"math/rand"
	"sync"
	"time"

	"github.com/attendlab/clinic-noshow-sim/internal/domain/providers"
)

// Source is the process-wide randomness source. A fixed seed makes a whole
// simulation run reproducible; seed 0 falls back to time seeding.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource creates a seedable randomness source
func NewSource(seed int64) providers.RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

// Float64 returns a draw uniform on [0, 1)
func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
