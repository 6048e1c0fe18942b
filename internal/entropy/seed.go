// Package entropy draws unpredictable values from the operating system for
// the few places where a run should not be reproducible.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
)

// Reader is the randomness source. Tests swap it for a fixed stream.
var Reader io.Reader = rand.Reader

// Seed returns a random non-zero terrain seed. Zero is reserved to mean
// "pick one", so it is never returned.
func Seed() (int64, error) {
	for {
		var buf [8]byte
		if _, err := io.ReadFull(Reader, buf[:]); err != nil {
			return 0, fmt.Errorf("entropy: read seed: %w", err)
		}
		// Positive 63-bit values keep seeds readable in logs and flags.
		s := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
		if s != 0 {
			return s, nil
		}
	}
}

// Float returns a uniform float64 in [0, 1), or 0.5 when the source fails.
func Float() float64 {
	var buf [8]byte
	if _, err := io.ReadFull(Reader, buf[:]); err != nil {
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// ResolveSeed returns seed unchanged unless it is 0, in which case a random
// seed is drawn.
func ResolveSeed(seed int64) (int64, error) {
	if seed != 0 {
		return seed, nil
	}
	return Seed()
}
