package engine

import (
	"time"

	"github.com/talgya/relief/internal/grid"
	"github.com/talgya/relief/internal/lighting"
	"github.com/talgya/relief/internal/world"
)

// Snapshot is a self-contained copy of a scene, as stored by the scene store.
type Snapshot struct {
	ID        string // Empty until stored
	Label     string
	CreatedAt time.Time
	Gen       world.GenConfig
	Anchor    lighting.Anchor
	Light     lighting.Light
	Terrain   *world.Terrain
	Lightmap  *grid.Grid
}

// Layers returns every grid in the snapshot keyed by name, the terrain
// layers plus "lightmap" when present.
func (s *Snapshot) Layers() map[string]*grid.Grid {
	layers := make(map[string]*grid.Grid, len(world.LayerNames)+1)
	for _, name := range world.LayerNames {
		if g := s.Terrain.Layer(name); g != nil {
			layers[name] = g
		}
	}
	if s.Lightmap != nil {
		layers[LayerLightmap] = s.Lightmap
	}
	return layers
}

// LayerLightmap names the lightmap among stored layers.
const LayerLightmap = "lightmap"
