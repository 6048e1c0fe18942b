package engine

import (
	"sync"
	"testing"

	"github.com/talgya/relief/internal/grid"
	"github.com/talgya/relief/internal/lighting"
	"github.com/talgya/relief/internal/world"
)

func testScene(t *testing.T) *Scene {
	t.Helper()
	cfg := world.DefaultGenConfig()
	cfg.Width, cfg.Height = 33, 33
	s, err := NewScene(cfg, lighting.Light{X: 16, Y: 16, Z: 300, Intensity: 1}, lighting.AnchorLight, nil)
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	return s
}

func TestNewSceneLightsTerrain(t *testing.T) {
	s := testScene(t)
	st := s.Stats()
	if st.Dark || st.Skipped {
		t.Fatalf("unexpected stats %+v", st)
	}
	if st.Max <= 0 || st.Max > 1 {
		t.Errorf("max intensity %v outside (0, 1]", st.Max)
	}

	status := s.Status()
	if status.Width != 33 || status.Height != 33 || status.Seed != 42 {
		t.Errorf("status = %+v", status)
	}
	total := 0
	for _, n := range status.Bands {
		total += n
	}
	if total != 33*33 {
		t.Errorf("band counts sum to %d, expected %d", total, 33*33)
	}
	if status.MinElev < world.ElevationMin || status.MaxElev > world.ElevationMax {
		t.Errorf("elevation [%v, %v] outside range", status.MinElev, status.MaxElev)
	}
}

func TestNewSceneRejectsBadConfig(t *testing.T) {
	cfg := world.DefaultGenConfig()
	cfg.Width = 0
	if _, err := NewScene(cfg, lighting.Light{}, lighting.AnchorFixed, nil); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestMoveLightRecalculates(t *testing.T) {
	s := testScene(t)

	stats := s.MoveLight(lighting.Light{X: 16, Y: 16, Z: 50})
	if !stats.Dark {
		t.Fatalf("light under the terrain should be dark, got %+v", stats)
	}
	if s.Cell(10, 10).Intensity != 0 {
		t.Error("expected zero intensity after dark move")
	}
	if s.Light().Z != 50 {
		t.Errorf("Light() = %+v", s.Light())
	}

	stats = s.MoveLight(lighting.Light{X: 16, Y: 16, Z: 400})
	if stats.Dark || s.Status().Moves != 2 {
		t.Errorf("stats %+v moves %d", stats, s.Status().Moves)
	}
}

func TestCell(t *testing.T) {
	s := testScene(t)
	c := s.Cell(5, 7)
	if !c.InBounds || c.Band == "" {
		t.Errorf("in-range cell = %+v", c)
	}
	if c.Elevation < world.ElevationMin || c.Elevation > world.ElevationMax {
		t.Errorf("elevation %v outside range", c.Elevation)
	}

	out := s.Cell(-1, 100)
	if out.InBounds || out.Elevation != 0 || out.Intensity != 0 || out.Band != "" {
		t.Errorf("out-of-range cell = %+v, expected zeros", out)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := testScene(t)
	snap := s.Snapshot()
	snap.Terrain.Map.Set(0, 0, -999)
	snap.Lightmap.Set(0, 0, -1)

	if s.Cell(0, 0).Elevation == -999 || s.Cell(0, 0).Intensity == -1 {
		t.Error("snapshot shares grids with the scene")
	}
}

func TestRestoreScene(t *testing.T) {
	s := testScene(t)
	s.MoveLight(lighting.Light{X: 3, Y: 30, Z: 260})
	snap := s.Snapshot()
	snap.ID = "abc"

	r, err := RestoreScene(snap, nil)
	if err != nil {
		t.Fatalf("RestoreScene: %v", err)
	}
	if r.Light() != s.Light() || r.Anchor() != lighting.AnchorLight {
		t.Errorf("restored light %+v anchor %v", r.Light(), r.Anchor())
	}
	for _, xy := range [][2]int{{0, 0}, {3, 30}, {32, 32}} {
		if a, b := s.Cell(xy[0], xy[1]), r.Cell(xy[0], xy[1]); a != b {
			t.Errorf("cell %v: %+v vs %+v", xy, a, b)
		}
	}

	// Without a lightmap the restored scene relights itself to the same result.
	snap.Lightmap = nil
	r, err = RestoreScene(snap, nil)
	if err != nil {
		t.Fatalf("RestoreScene: %v", err)
	}
	if a, b := s.Cell(12, 12).Intensity, r.Cell(12, 12).Intensity; a != b {
		t.Errorf("relit intensity %v, expected %v", b, a)
	}
}

func TestRestoreSceneRejectsMismatchedLayers(t *testing.T) {
	snap := testScene(t).Snapshot()
	snap.Terrain.Erosion = grid.New(4, 4)
	if _, err := RestoreScene(snap, nil); err == nil {
		t.Error("expected error for mismatched layer")
	}
	if _, err := RestoreScene(&Snapshot{}, nil); err == nil {
		t.Error("expected error for empty snapshot")
	}
}

func TestConcurrentReadersAndMoves(t *testing.T) {
	s := testScene(t)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				s.MoveLight(lighting.Light{X: float64(i * 8), Y: float64(j), Z: 300})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = s.Status()
				v := s.Cell(j, j).Intensity
				if v < 0 || v > 1 {
					t.Errorf("intensity %v outside [0, 1]", v)
				}
			}
		}()
	}
	wg.Wait()
	if s.Status().Moves != 40 {
		t.Errorf("moves = %d, expected 40", s.Status().Moves)
	}
}

func TestUpdateLightKeepsConcurrentFields(t *testing.T) {
	s := testScene(t)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for j := 1; j <= 50; j++ {
			s.UpdateLight(func(l *lighting.Light) { l.X = float64(j) })
		}
	}()
	go func() {
		defer wg.Done()
		for j := 1; j <= 50; j++ {
			s.UpdateLight(func(l *lighting.Light) { l.Z = float64(300 + j) })
		}
	}()
	wg.Wait()

	l := s.Light()
	if l.X != 50 || l.Z != 350 || l.Y != 16 || l.Intensity != 1 {
		t.Errorf("light = %+v, expected x=50 y=16 z=350 intensity=1", l)
	}
	if s.Status().Moves != 100 {
		t.Errorf("moves = %d, expected 100", s.Status().Moves)
	}
}

func TestUpdateLightReturnsMovedLight(t *testing.T) {
	s := testScene(t)
	l, stats := s.UpdateLight(func(l *lighting.Light) { l.Z = 50 })
	if l != s.Light() || l.X != 16 || l.Z != 50 {
		t.Errorf("light = %+v, scene light %+v", l, s.Light())
	}
	if stats != s.Stats() || !stats.Dark {
		t.Errorf("stats = %+v, expected the dark pass the scene holds", stats)
	}
}

func TestSnapshotLayers(t *testing.T) {
	snap := testScene(t).Snapshot()
	layers := snap.Layers()
	if len(layers) != 5 {
		t.Fatalf("got %d layers, expected 5", len(layers))
	}
	if layers[LayerLightmap] != snap.Lightmap || layers[world.LayerMap] != snap.Terrain.Map {
		t.Error("layers do not point at the snapshot grids")
	}
}
