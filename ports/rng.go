package ports

import "math/rand"

// RNG provides seeded random number streams for deterministic operations.
// Streams with the same name and base seed must produce identical sequences
// so that a session replays exactly.
type RNG interface {
	// Stream creates a deterministic random number generator for a named
	// operation (side assignment, reference selection, simulation).
	Stream(name string) *rand.Rand
}
