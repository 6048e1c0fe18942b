package world

import (
	"fmt"
	"math/rand"

	"github.com/talgya/relief/internal/grid"
)

// DiamondSquare generates a size×size midpoint-displacement heightfield.
// size must be 2^n+1. The random offset range halves after every pass.
// The result is left unnormalized, like the noise layers.
func DiamondSquare(size int, roughness float64, rng *rand.Rand) (*grid.Grid, error) {
	if size < 3 || (size-1)&(size-2) != 0 {
		return nil, fmt.Errorf("diamond-square: size %d is not 2^n+1", size)
	}

	g := grid.New(size, size)
	last := size - 1
	corner := float32(rng.Intn(256))
	g.Set(0, 0, corner)
	g.Set(0, last, corner)
	g.Set(last, 0, corner)
	g.Set(last, last, corner)

	jitter := func() float32 {
		return float32(rng.Float64()*2*roughness - roughness)
	}

	for step := last; step > 1; step /= 2 {
		half := step / 2

		// Diamond: centre of each square gets the corner average.
		for y := 0; y < last; y += step {
			for x := 0; x < last; x += step {
				avg := (g.Get(x, y) + g.Get(x+step, y) + g.Get(x, y+step) + g.Get(x+step, y+step)) / 4
				g.Set(x+half, y+half, avg+jitter())
			}
		}

		// Square: edge midpoints average whichever neighbours exist.
		for y := 0; y < size; y += half {
			for x := (y + half) % step; x < size; x += step {
				var sum float32
				n := 0
				if x >= half {
					sum += g.Get(x-half, y)
					n++
				}
				if x+half < size {
					sum += g.Get(x+half, y)
					n++
				}
				if y >= half {
					sum += g.Get(x, y-half)
					n++
				}
				if y+half < size {
					sum += g.Get(x, y+half)
					n++
				}
				g.Set(x, y, sum/float32(n)+jitter())
			}
		}

		roughness *= 0.5
	}

	return g, nil
}
