// Package lighting shades a heightfield with a single point light using
// finite-difference surface normals and a Lambertian cosine term.
package lighting

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/talgya/relief/internal/grid"
)

// Light is a point light in cell coordinates. Z is compared against
// elevation values. Intensity is carried for callers and not used by the
// shading math.
type Light struct {
	X         float64 `json:"x" yaml:"x"`
	Y         float64 `json:"y" yaml:"y"`
	Z         float64 `json:"z" yaml:"z"`
	Intensity float64 `json:"intensity" yaml:"intensity"`
}

// Anchor selects where the horizontal part of each light vector starts.
type Anchor uint8

const (
	// AnchorFixed measures every light vector from cell (1, 1); only the
	// height comes from the light. This matches the reference renderer.
	AnchorFixed Anchor = iota
	// AnchorLight measures from the light's own (x, y).
	AnchorLight
)

// String returns the config name of the anchor.
func (a Anchor) String() string {
	switch a {
	case AnchorFixed:
		return "fixed"
	case AnchorLight:
		return "light"
	default:
		return "unknown"
	}
}

// ParseAnchor converts a config name into an Anchor. Empty means fixed.
func ParseAnchor(s string) (Anchor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed":
		return AnchorFixed, nil
	case "light":
		return AnchorLight, nil
	}
	return 0, fmt.Errorf("lighting: unknown anchor %q", s)
}

// fixedAnchor is the reference point used by AnchorFixed.
const fixedAnchor = 1.0

// normalZ is the vertical component of the unnormalised surface normal.
const normalZ = 2.0

// Stats summarises one Calculate pass.
type Stats struct {
	Min     float32 `json:"min"`
	Max     float32 `json:"max"`
	Skipped bool    `json:"skipped"` // Lightmap and world shapes differ
	Dark    bool    `json:"dark"`    // Light at or below the surface under it
}

// Estimator computes lightmaps. The zero value uses AnchorFixed and no logging.
type Estimator struct {
	Anchor Anchor
	Logger *zap.Logger
}

// Calculate fills lightmap from world using the zero Estimator.
func Calculate(lightmap, world *grid.Grid, light Light) Stats {
	return Estimator{}.Calculate(lightmap, world, light)
}

// Calculate fills lightmap in place with per-cell intensity in [0, 1].
//
// A lightmap whose shape differs from world is left untouched. When the
// light sits at or below the terrain at its own rounded footprint, the whole
// lightmap is set to 0. Only world is read, so neighbour lookups always see
// the original heights.
func (e Estimator) Calculate(lightmap, world *grid.Grid, light Light) Stats {
	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if !lightmap.SameShape(world) {
		log.Warn("lightmap shape mismatch, skipping",
			zap.Int("lightmap_w", lightmap.Width()), zap.Int("lightmap_h", lightmap.Height()),
			zap.Int("world_w", world.Width()), zap.Int("world_h", world.Height()),
		)
		return Stats{Skipped: true}
	}

	zAtLight := float64(world.Get(grid.Round(light.X), grid.Round(light.Y)))
	if zAtLight >= light.Z {
		lightmap.Fill(0)
		log.Debug("light below surface", zap.Float64("light_z", light.Z), zap.Float64("surface_z", zAtLight))
		return Stats{Dark: true}
	}

	ax, ay := fixedAnchor, fixedAnchor
	if e.Anchor == AnchorLight {
		ax, ay = light.X, light.Y
	}

	w, h := world.Width(), world.Height()
	stats := Stats{Min: float32(math.Inf(1)), Max: float32(math.Inf(-1))}

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			z := world.Get(x, y)

			lx, ly, lz := normalize(float64(x)-ax, float64(y)-ay, float64(z)-light.Z)

			left, right, top, bottom := z, z, z, z
			if x > 0 {
				left = world.Get(x-1, y)
			}
			if x < w-1 {
				right = world.Get(x+1, y)
			}
			if y > 0 {
				top = world.Get(x, y-1)
			}
			if y < h-1 {
				bottom = world.Get(x, y+1)
			}
			nx, ny, nz := normalize(float64(left-right), float64(top-bottom), normalZ)

			intensity := float32(lambert(lx*nx + ly*ny + lz*nz))
			lightmap.Set(x, y, intensity)

			if intensity < stats.Min {
				stats.Min = intensity
			}
			if intensity > stats.Max {
				stats.Max = intensity
			}
		}
	}

	if w*h == 0 {
		stats.Min, stats.Max = 0, 0
	}

	log.Debug("lighting calculated",
		zap.Float32("min_intensity", stats.Min),
		zap.Float32("max_intensity", stats.Max),
		zap.Float64("light_z", light.Z),
		zap.Stringer("anchor", e.Anchor),
	)
	return stats
}

// lambert turns the dot product of the light vector and the normal into an
// intensity. The light vector points from the light to the surface, hence
// the negation. Only the lower end is clamped; NaN from a zero-length light
// vector counts as unlit.
func lambert(dot float64) float64 {
	i := -dot
	if math.IsNaN(i) || i < 0 {
		return 0
	}
	return i
}

func normalize(x, y, z float64) (float64, float64, float64) {
	l := math.Sqrt(x*x + y*y + z*z)
	return x / l, y / l, z / l
}
