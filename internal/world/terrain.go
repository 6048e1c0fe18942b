package world

import (
	"fmt"

	"github.com/talgya/relief/internal/grid"
)

// Layer names as used by the API and the scene store.
const (
	LayerBase            = "base"
	LayerContinentalness = "continentalness"
	LayerErosion         = "erosion"
	LayerMap             = "map"
)

// LayerNames lists the terrain layers in storage order.
var LayerNames = []string{LayerBase, LayerContinentalness, LayerErosion, LayerMap}

// Terrain owns the three raw layers and the composed elevation map.
// All four grids share one shape and live and die together.
type Terrain struct {
	Base            *grid.Grid
	Continentalness *grid.Grid
	Erosion         *grid.Grid
	Map             *grid.Grid // Final elevation in [ElevationMin, ElevationMax]
}

// Width returns the terrain width in cells.
func (t *Terrain) Width() int { return t.Map.Width() }

// Height returns the terrain height in cells.
func (t *Terrain) Height() int { return t.Map.Height() }

// Layer returns the named grid, or nil for an unknown name.
func (t *Terrain) Layer(name string) *grid.Grid {
	switch name {
	case LayerBase:
		return t.Base
	case LayerContinentalness:
		return t.Continentalness
	case LayerErosion:
		return t.Erosion
	case LayerMap:
		return t.Map
	default:
		return nil
	}
}

// Assemble builds a Terrain from stored layers, checking that they agree in shape.
func Assemble(layers map[string]*grid.Grid) (*Terrain, error) {
	t := &Terrain{
		Base:            layers[LayerBase],
		Continentalness: layers[LayerContinentalness],
		Erosion:         layers[LayerErosion],
		Map:             layers[LayerMap],
	}
	for _, name := range LayerNames {
		g := t.Layer(name)
		if g == nil {
			return nil, fmt.Errorf("terrain: missing layer %q", name)
		}
		if !g.SameShape(t.Map) {
			return nil, fmt.Errorf("terrain: layer %q is %dx%d, map is %dx%d",
				name, g.Width(), g.Height(), t.Map.Width(), t.Map.Height())
		}
	}
	return t, nil
}

// Bytes is the memory held by all four layers.
func (t *Terrain) Bytes() uint64 {
	return t.Base.Bytes() + t.Continentalness.Bytes() + t.Erosion.Bytes() + t.Map.Bytes()
}

// String returns a summary of the terrain.
func (t *Terrain) String() string {
	min, max := t.Map.MinMax()
	return fmt.Sprintf("Terrain(%dx%d, elevation=[%.1f, %.1f])", t.Width(), t.Height(), min, max)
}
