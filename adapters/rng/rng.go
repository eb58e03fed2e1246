// Package rng provides seeded deterministic random streams so that a
// session replays identically for a given seed.
package rng

import (
	"hash/fnv"
	"math/rand"
)

// SeededStreams derives an independent deterministic stream per operation
// name from one base seed.
type SeededStreams struct {
	baseSeed int64
}

func New(baseSeed int64) *SeededStreams {
	return &SeededStreams{baseSeed: baseSeed}
}

// Stream creates a deterministic random number generator for a named
// operation. The same name and base seed always produce the same sequence.
func (s *SeededStreams) Stream(name string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	return rand.New(rand.NewSource(s.baseSeed ^ int64(h.Sum64())))
}
