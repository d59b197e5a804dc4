package core

import (
	"crypto/rand"
	"encoding/binary"
)

// RandomSeed generates a cryptographically secure random seed for generation.
// Returns a non-negative int64 so the value can round-trip through APIs that
// treat negative seeds as "pick one for me".
func RandomSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is effectively a broken system; a fixed seed
		// beats panicking mid-request.
		return 42
	}

	seed := int64(binary.LittleEndian.Uint64(buf[:]))
	if seed < 0 {
		seed = -seed
	}
	// -MinInt64 overflows back to MinInt64.
	if seed < 0 {
		seed = 0
	}
	return seed
}
