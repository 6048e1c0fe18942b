package world

import "github.com/talgya/relief/internal/grid"

// Band is an elevation class used for colouring and summaries.
type Band uint8

const (
	BandDeepWater    Band = iota // At or below ElevationMin
	BandShallowWater             // Up to 110
	BandLowland                  // Up to 135
	BandHighland                 // Up to 140
	BandIce                      // Everything above
)

// Bands lists every band in ascending elevation order.
var Bands = []Band{BandDeepWater, BandShallowWater, BandLowland, BandHighland, BandIce}

// Upper elevation bound of each band, inclusive.
const (
	DeepWaterMax    = 100
	ShallowWaterMax = 110
	LowlandMax      = 135
	HighlandMax     = 140
)

// Classify returns the band an elevation falls in.
func Classify(h float32) Band {
	switch {
	case h <= DeepWaterMax:
		return BandDeepWater
	case h <= ShallowWaterMax:
		return BandShallowWater
	case h <= LowlandMax:
		return BandLowland
	case h <= HighlandMax:
		return BandHighland
	default:
		return BandIce
	}
}

// BandName returns a human-readable name for a band.
func BandName(b Band) string {
	switch b {
	case BandDeepWater:
		return "DeepWater"
	case BandShallowWater:
		return "ShallowWater"
	case BandLowland:
		return "Lowland"
	case BandHighland:
		return "Highland"
	case BandIce:
		return "Ice"
	default:
		return "Unknown"
	}
}

// BandCounts returns how many cells of an elevation grid fall in each band.
func BandCounts(g *grid.Grid) map[Band]int {
	counts := make(map[Band]int)
	for _, h := range g.Cells() {
		counts[Classify(h)]++
	}
	return counts
}
