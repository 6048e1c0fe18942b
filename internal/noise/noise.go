// Package noise samples seeded multi-octave coherent noise.
// Output is not normalized; callers rescale the filled grid themselves.
package noise

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/relief/internal/grid"
)

// Backend selects the coherent-noise primitive.
type Backend uint8

const (
	BackendPerlin Backend = iota
	BackendSimplex
)

// String returns the config name of the backend.
func (b Backend) String() string {
	switch b {
	case BackendPerlin:
		return "perlin"
	case BackendSimplex:
		return "simplex"
	default:
		return "unknown"
	}
}

// ParseBackend converts a config name into a Backend. Empty means perlin.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "perlin":
		return BackendPerlin, nil
	case "simplex", "opensimplex":
		return BackendSimplex, nil
	}
	return 0, fmt.Errorf("noise: unknown backend %q", s)
}

// Params describes one fractal sum.
type Params struct {
	Octaves     int     `yaml:"octaves" json:"octaves"`
	Persistence float64 `yaml:"persistence" json:"persistence"` // Amplitude factor per octave
	Lacunarity  float64 `yaml:"lacunarity" json:"lacunarity"`   // Frequency factor per octave
}

// Validate checks that the parameters describe a usable sum.
func (p Params) Validate() error {
	var errs []error
	if p.Octaves < 1 {
		errs = append(errs, fmt.Errorf("octaves must be >= 1, got %d", p.Octaves))
	}
	if p.Persistence <= 0 {
		errs = append(errs, fmt.Errorf("persistence must be > 0, got %g", p.Persistence))
	}
	if p.Lacunarity <= 0 {
		errs = append(errs, fmt.Errorf("lacunarity must be > 0, got %g", p.Lacunarity))
	}
	return errors.Join(errs...)
}

// Generator is a seeded noise source. Everything it produces is a pure
// function of (seed, backend, params, x, y).
type Generator struct {
	seed    int64
	backend Backend

	mu      sync.Mutex
	perlins map[Params]*perlin.Perlin
	simplex opensimplex.Noise
}

// New creates a generator for the given seed and backend.
func New(seed int64, backend Backend) *Generator {
	g := &Generator{
		seed:    seed,
		backend: backend,
		perlins: make(map[Params]*perlin.Perlin),
	}
	if backend == BackendSimplex {
		g.simplex = opensimplex.New(seed)
	}
	return g
}

// Seed returns the generator seed.
func (g *Generator) Seed() int64 { return g.seed }

// Backend returns the noise primitive in use.
func (g *Generator) Backend() Backend { return g.backend }

// Sample returns the fractal noise value at (x, y). Octave i contributes at
// frequency lacunarity^i and amplitude persistence^i.
func (g *Generator) Sample(x, y float64, p Params) float64 {
	if g.backend == BackendSimplex {
		return g.sampleSimplex(x, y, p)
	}
	return g.perlinFor(p).Noise2D(x, y)
}

// perlinFor returns the cached perlin instance for p. go-perlin fixes octave
// parameters at construction, and every instance is built from the same seed
// so all layers share one permutation table.
func (g *Generator) perlinFor(p Params) *perlin.Perlin {
	g.mu.Lock()
	defer g.mu.Unlock()

	if pn, ok := g.perlins[p]; ok {
		return pn
	}
	// go-perlin divides each octave by alpha^i.
	pn := perlin.NewPerlin(1/p.Persistence, p.Lacunarity, int32(p.Octaves), g.seed)
	g.perlins[p] = pn
	return pn
}

func (g *Generator) sampleSimplex(x, y float64, p Params) float64 {
	total := 0.0
	amplitude := 1.0
	frequency := 1.0

	for i := 0; i < p.Octaves; i++ {
		total += g.simplex.Eval2(x*frequency, y*frequency) * amplitude
		amplitude *= p.Persistence
		frequency *= p.Lacunarity
	}
	return total
}

// Fill samples every cell of dst at (x/scale, y/scale).
func (g *Generator) Fill(dst *grid.Grid, scale float64, p Params) {
	if scale == 0 {
		scale = 1
	}
	for y := 0; y < dst.Height(); y++ {
		for x := 0; x < dst.Width(); x++ {
			v := g.Sample(float64(x)/scale, float64(y)/scale, p)
			dst.Set(x, y, float32(v))
		}
	}
}
