// Terrain generation from three layered noise fields.
// Continentalness and erosion are broad fields that pick the elevation offset
// and the roughness envelope; base supplies the local detail.
package world

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/talgya/relief/internal/curve"
	"github.com/talgya/relief/internal/grid"
	"github.com/talgya/relief/internal/noise"
)

// Elevation range of the composed map.
const (
	ElevationMin = 100
	ElevationMax = 200
)

// OffsetCurve maps continentalness onto an additive elevation offset.
var OffsetCurve = curve.Must(
	curve.Point{X: 0.00, Y: 20.0},
	curve.Point{X: 0.80, Y: 25.0},
	curve.Point{X: 0.89, Y: 85.0},
	curve.Point{X: 0.90, Y: 90.0},
	curve.Point{X: 0.91, Y: 95.0},
)

// ErosionCurve maps erosion onto a multiplier for the base layer. Flat near
// both ends with a steep drop through the middle.
var ErosionCurve = curve.Must(
	curve.Point{X: 0.00, Y: 100.0},
	curve.Point{X: 0.10, Y: 80.0},
	curve.Point{X: 0.80, Y: 3.0},
	curve.Point{X: 0.92, Y: 2.0},
	curve.Point{X: 0.99, Y: 0.3},
)

// Layer describes how one raw noise layer is sampled and rescaled.
type Layer struct {
	Scale float64      `yaml:"scale" json:"scale"` // Coordinates are divided by this before sampling
	Noise noise.Params `yaml:"noise" json:"noise"`
	Lo    float32      `yaml:"lo" json:"lo"`
	Hi    float32      `yaml:"hi" json:"hi"`
}

// Method selects how the base detail layer is produced. Continentalness and
// erosion always come from noise.
type Method uint8

const (
	MethodLayered Method = iota // Fractal noise
	MethodDiamond               // Diamond-square midpoint displacement
)

// diamondRoughness is the initial displacement range of the diamond method.
const diamondRoughness = 128

// String returns the config name of the method.
func (m Method) String() string {
	switch m {
	case MethodLayered:
		return "layered"
	case MethodDiamond:
		return "diamond"
	default:
		return "unknown"
	}
}

// ParseMethod converts a config name into a Method. Empty means layered.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "layered", "noise":
		return MethodLayered, nil
	case "diamond", "diamond-square":
		return MethodDiamond, nil
	}
	return 0, fmt.Errorf("world: unknown method %q", s)
}

// GenConfig holds terrain generation parameters.
type GenConfig struct {
	Width   int           `json:"width"`
	Height  int           `json:"height"`
	Seed    int64         `json:"seed"`
	Backend noise.Backend `json:"-"`
	Method  Method        `json:"-"`

	Base            Layer `json:"base"`
	Continentalness Layer `json:"continentalness"`
	Erosion         Layer `json:"erosion"`
}

// DefaultLayers returns the reference layer parameters.
func DefaultLayers() (base, continentalness, erosion Layer) {
	base = Layer{
		Scale: 750,
		Noise: noise.Params{Octaves: 8, Persistence: 0.5, Lacunarity: 2.0},
		Lo:    -0.25,
		Hi:    1,
	}
	continentalness = Layer{
		Scale: 500,
		Noise: noise.Params{Octaves: 2, Persistence: 0.5, Lacunarity: 2.0},
		Lo:    0,
		Hi:    1,
	}
	erosion = Layer{
		Scale: 1000,
		Noise: noise.Params{Octaves: 1, Persistence: 2.0, Lacunarity: 1.1},
		Lo:    0,
		Hi:    1,
	}
	return base, continentalness, erosion
}

// DefaultGenConfig returns the reference configuration.
func DefaultGenConfig() GenConfig {
	base, cont, eros := DefaultLayers()
	return GenConfig{
		Width:           513,
		Height:          513,
		Seed:            42,
		Backend:         noise.BackendPerlin,
		Method:          MethodLayered,
		Base:            base,
		Continentalness: cont,
		Erosion:         eros,
	}
}

// SmallTestConfig returns a tiny world for fast tests.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Width = 65
	cfg.Height = 65
	return cfg
}

// Validate reports every problem with the configuration at once.
func (c GenConfig) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("dimensions must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.Method > MethodDiamond {
		errs = append(errs, fmt.Errorf("unknown method %d", c.Method))
	}
	for _, l := range []struct {
		name  string
		layer Layer
	}{
		{"base", c.Base},
		{"continentalness", c.Continentalness},
		{"erosion", c.Erosion},
	} {
		if l.layer.Scale <= 0 {
			errs = append(errs, fmt.Errorf("%s: scale must be > 0, got %g", l.name, l.layer.Scale))
		}
		if err := l.layer.Noise.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", l.name, err))
		}
	}
	return errors.Join(errs...)
}

// Build composes a terrain with the reference layer parameters.
func Build(gen *noise.Generator, width, height int) *Terrain {
	base, cont, eros := DefaultLayers()
	return compose(gen, width, height, base, cont, eros)
}

// Generate builds the generator described by cfg and composes a terrain.
// With MethodDiamond the base layer is a diamond-square field cropped from
// the smallest 2^n+1 square covering the map, seeded from cfg.Seed.
func Generate(cfg GenConfig) *Terrain {
	gen := noise.New(cfg.Seed, cfg.Backend)
	if cfg.Method != MethodDiamond {
		return compose(gen, cfg.Width, cfg.Height, cfg.Base, cfg.Continentalness, cfg.Erosion)
	}
	base := diamondLayer(cfg.Width, cfg.Height, cfg.Base, rand.New(rand.NewSource(cfg.Seed)))
	return composeWith(gen, cfg.Width, cfg.Height, base, cfg.Continentalness, cfg.Erosion)
}

// diamondLayer fills a w×h base layer from a diamond-square field and
// rescales it to the layer range.
func diamondLayer(w, h int, l Layer, rng *rand.Rand) *grid.Grid {
	size := 3
	for size < max(w, h) {
		size = 2*size - 1
	}
	field, err := DiamondSquare(size, diamondRoughness, rng)
	if err != nil {
		panic(err) // size is 2^n+1 by construction
	}
	g := grid.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Set(x, y, field.Get(x, y))
		}
	}
	g.Normalize(l.Lo, l.Hi)
	return g
}

func compose(gen *noise.Generator, w, h int, base, cont, eros Layer) *Terrain {
	return composeWith(gen, w, h, fillLayer(gen, w, h, base), cont, eros)
}

func composeWith(gen *noise.Generator, w, h int, base *grid.Grid, cont, eros Layer) *Terrain {
	t := &Terrain{
		Base:            base,
		Continentalness: fillLayer(gen, w, h, cont),
		Erosion:         fillLayer(gen, w, h, eros),
		Map:             grid.New(w, h),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			offset := OffsetCurve.At(float64(t.Continentalness.Get(x, y)))
			scale := ErosionCurve.At(float64(t.Erosion.Get(x, y)))
			t.Map.Set(x, y, float32(offset+scale*float64(t.Base.Get(x, y))))
		}
	}

	t.Map.Normalize(ElevationMin, ElevationMax)
	return t
}

func fillLayer(gen *noise.Generator, w, h int, l Layer) *grid.Grid {
	g := grid.New(w, h)
	gen.Fill(g, l.Scale, l.Noise)
	g.Normalize(l.Lo, l.Hi)
	return g
}
