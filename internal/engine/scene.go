// Package engine owns the live scene: one generated terrain, its lightmap and
// the light that produced it. The HTTP API reads it concurrently while light
// moves are serialised.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/talgya/relief/internal/grid"
	"github.com/talgya/relief/internal/lighting"
	"github.com/talgya/relief/internal/world"
)

// Scene is a terrain lit by a single point light.
type Scene struct {
	mu sync.RWMutex

	gen       world.GenConfig
	terrain   *world.Terrain
	lightmap  *grid.Grid
	light     lighting.Light
	stats     lighting.Stats
	estimator lighting.Estimator
	created   time.Time
	moves     uint64 // Light moves since the scene was built

	log *zap.Logger
}

// CellInfo is every value the scene holds for one cell.
type CellInfo struct {
	X               int     `json:"x"`
	Y               int     `json:"y"`
	InBounds        bool    `json:"in_bounds"`
	Elevation       float32 `json:"elevation"`
	Base            float32 `json:"base"`
	Continentalness float32 `json:"continentalness"`
	Erosion         float32 `json:"erosion"`
	Intensity       float32 `json:"intensity"`
	Band            string  `json:"band"`
}

// Status summarises the scene for monitoring.
type Status struct {
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Seed      int64          `json:"seed"`
	Backend   string         `json:"backend"`
	Method    string         `json:"method"`
	Anchor    string         `json:"anchor"`
	Light     lighting.Light `json:"light"`
	Lighting  lighting.Stats `json:"lighting"`
	MinElev   float32        `json:"min_elevation"`
	MaxElev   float32        `json:"max_elevation"`
	Bands     map[string]int `json:"bands"`
	Moves     uint64         `json:"moves"`
	Memory    string         `json:"memory"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewScene generates terrain from cfg and lights it once.
func NewScene(cfg world.GenConfig, light lighting.Light, anchor lighting.Anchor, log *zap.Logger) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	start := time.Now()
	terrain := world.Generate(cfg)
	log.Info("terrain generated",
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Int64("seed", cfg.Seed),
		zap.Stringer("noise", cfg.Backend),
		zap.Stringer("method", cfg.Method),
		zap.String("memory", humanize.IBytes(terrain.Bytes())),
		zap.Duration("elapsed", time.Since(start)),
	)

	s := newScene(cfg, terrain, grid.New(cfg.Width, cfg.Height), anchor, log)
	s.stats = s.estimator.Calculate(s.lightmap, s.terrain.Map, light)
	s.light = light
	return s, nil
}

// RestoreScene rebuilds a scene from a snapshot without regenerating noise.
// A stored lightmap is reused as is; a missing one is recalculated.
func RestoreScene(snap *Snapshot, log *zap.Logger) (*Scene, error) {
	if snap == nil || snap.Terrain == nil {
		return nil, fmt.Errorf("engine: snapshot has no terrain")
	}
	if log == nil {
		log = zap.NewNop()
	}
	t := snap.Terrain
	if _, err := world.Assemble(map[string]*grid.Grid{
		world.LayerBase:            t.Base,
		world.LayerContinentalness: t.Continentalness,
		world.LayerErosion:         t.Erosion,
		world.LayerMap:             t.Map,
	}); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	gen := snap.Gen
	gen.Width, gen.Height = t.Width(), t.Height()

	lightmap := snap.Lightmap
	recalc := lightmap == nil || !lightmap.SameShape(t.Map)
	if recalc {
		lightmap = grid.New(t.Width(), t.Height())
	} else {
		lightmap = lightmap.Clone()
	}

	s := newScene(gen, cloneTerrain(t), lightmap, snap.Anchor, log)
	s.light = snap.Light
	if !snap.CreatedAt.IsZero() {
		s.created = snap.CreatedAt
	}
	if recalc {
		s.stats = s.estimator.Calculate(s.lightmap, s.terrain.Map, s.light)
	} else {
		min, max := s.lightmap.MinMax()
		s.stats = lighting.Stats{Min: min, Max: max}
	}

	log.Info("scene restored",
		zap.String("id", snap.ID),
		zap.Int("width", gen.Width),
		zap.Int("height", gen.Height),
		zap.Bool("relit", recalc),
	)
	return s, nil
}

func newScene(gen world.GenConfig, t *world.Terrain, lightmap *grid.Grid, anchor lighting.Anchor, log *zap.Logger) *Scene {
	return &Scene{
		gen:       gen,
		terrain:   t,
		lightmap:  lightmap,
		estimator: lighting.Estimator{Anchor: anchor, Logger: log.Named("lighting")},
		created:   time.Now().UTC(),
		log:       log,
	}
}

// MoveLight places the light and recalculates the lightmap.
func (s *Scene) MoveLight(l lighting.Light) lighting.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moveLocked(l)
}

// UpdateLight applies fn to a copy of the current light and moves the light
// there. Reading and writing happen under one lock, so concurrent partial
// updates do not overwrite each other.
func (s *Scene) UpdateLight(fn func(*lighting.Light)) (lighting.Light, lighting.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.light
	fn(&l)
	return l, s.moveLocked(l)
}

// moveLocked needs s.mu held for writing.
func (s *Scene) moveLocked(l lighting.Light) lighting.Stats {
	s.light = l
	s.stats = s.estimator.Calculate(s.lightmap, s.terrain.Map, l)
	s.moves++
	s.log.Debug("light moved",
		zap.Float64("x", l.X), zap.Float64("y", l.Y), zap.Float64("z", l.Z),
		zap.Bool("dark", s.stats.Dark),
	)
	return s.stats
}

// Light returns the current light.
func (s *Scene) Light() lighting.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.light
}

// Stats returns the result of the latest lighting pass.
func (s *Scene) Stats() lighting.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Anchor returns the light vector anchor in use.
func (s *Scene) Anchor() lighting.Anchor {
	return s.estimator.Anchor
}

// Config returns the generation parameters.
func (s *Scene) Config() world.GenConfig {
	return s.gen
}

// Cell returns every layer value at (x, y). Out-of-range cells read as zero.
func (s *Scene) Cell(x, y int) CellInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.terrain
	elev := t.Map.Get(x, y)
	info := CellInfo{
		X:               x,
		Y:               y,
		InBounds:        t.Map.InBounds(x, y),
		Elevation:       elev,
		Base:            t.Base.Get(x, y),
		Continentalness: t.Continentalness.Get(x, y),
		Erosion:         t.Erosion.Get(x, y),
		Intensity:       s.lightmap.Get(x, y),
	}
	if info.InBounds {
		info.Band = world.BandName(world.Classify(elev))
	}
	return info
}

// Status summarises the scene.
func (s *Scene) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	min, max := s.terrain.Map.MinMax()
	bands := make(map[string]int, len(world.Bands))
	for b, n := range world.BandCounts(s.terrain.Map) {
		bands[world.BandName(b)] = n
	}
	return Status{
		Width:     s.terrain.Width(),
		Height:    s.terrain.Height(),
		Seed:      s.gen.Seed,
		Backend:   s.gen.Backend.String(),
		Method:    s.gen.Method.String(),
		Anchor:    s.estimator.Anchor.String(),
		Light:     s.light,
		Lighting:  s.stats,
		MinElev:   min,
		MaxElev:   max,
		Bands:     bands,
		Moves:     s.moves,
		Memory:    humanize.IBytes(s.terrain.Bytes() + s.lightmap.Bytes()),
		CreatedAt: s.created,
	}
}

// View runs fn with read access to the terrain and lightmap. fn must not
// keep references to the grids after it returns.
func (s *Scene) View(fn func(t *world.Terrain, lightmap *grid.Grid)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.terrain, s.lightmap)
}

// Snapshot returns a deep copy of the scene.
func (s *Scene) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Snapshot{
		CreatedAt: s.created,
		Gen:       s.gen,
		Anchor:    s.estimator.Anchor,
		Light:     s.light,
		Terrain:   cloneTerrain(s.terrain),
		Lightmap:  s.lightmap.Clone(),
	}
}

func cloneTerrain(t *world.Terrain) *world.Terrain {
	return &world.Terrain{
		Base:            t.Base.Clone(),
		Continentalness: t.Continentalness.Clone(),
		Erosion:         t.Erosion.Clone(),
		Map:             t.Map.Clone(),
	}
}
