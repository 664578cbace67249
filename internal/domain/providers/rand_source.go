package providers

// RandSource is the single source of randomness for the engine. Variant
// assignment, outcome resolution, and reply simulation all draw from it, so
// tests can substitute a deterministic sequence.
type RandSource interface {
	// Float64 returns a draw uniform on [0, 1)
	Float64() float64
}
