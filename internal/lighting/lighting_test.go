package lighting

import (
	"math"
	"math/rand"
	"testing"

	"github.com/talgya/relief/internal/grid"
	"github.com/talgya/relief/internal/noise"
	"github.com/talgya/relief/internal/world"
)

func flatWorld(w, h int, z float32) *grid.Grid {
	g := grid.New(w, h)
	g.Fill(z)
	return g
}

func TestLightAtOrBelowSurfaceIsDark(t *testing.T) {
	for _, z := range []float64{150, 149.9, 0, -20} {
		wld := flatWorld(9, 9, 150)
		lm := grid.New(9, 9)
		lm.Fill(0.5)

		stats := Calculate(lm, wld, Light{X: 4, Y: 4, Z: z, Intensity: 1})
		if !stats.Dark {
			t.Errorf("z=%v: expected Dark stats", z)
		}
		for i, v := range lm.Cells() {
			if v != 0 {
				t.Fatalf("z=%v: cell %d = %v, expected exactly 0", z, i, v)
			}
		}
	}
}

func TestFootprintUsesRoundedPosition(t *testing.T) {
	wld := flatWorld(8, 8, 100)
	wld.Set(4, 0, 300)
	lm := grid.New(8, 8)

	// 3.5 rounds away from zero onto the tall cell.
	if stats := Calculate(lm, wld, Light{X: 3.5, Y: 0.2, Z: 200}); !stats.Dark {
		t.Error("expected light over the tall cell to be dark")
	}
	// 3.4 rounds onto the low cell.
	if stats := Calculate(lm, wld, Light{X: 3.4, Y: 0.2, Z: 200}); stats.Dark {
		t.Error("expected light over the low cell to shine")
	}
}

func TestLightOffGridUsesZeroFootprint(t *testing.T) {
	wld := flatWorld(6, 6, 150)
	lm := grid.New(6, 6)
	// Off-grid footprint reads 0, so any positive height shines.
	stats := Calculate(lm, wld, Light{X: -10, Y: -10, Z: 5})
	if stats.Dark || stats.Skipped {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestIntensityNeverNegative(t *testing.T) {
	tr := world.Build(noise.New(17, noise.BackendPerlin), 40, 40)
	rng := rand.New(rand.NewSource(4))

	for _, anchor := range []Anchor{AnchorFixed, AnchorLight} {
		for i := 0; i < 10; i++ {
			light := Light{X: rng.Float64() * 40, Y: rng.Float64() * 40, Z: 201 + rng.Float64()*300}
			lm := grid.New(40, 40)
			stats := Estimator{Anchor: anchor}.Calculate(lm, tr.Map, light)
			if stats.Dark || stats.Skipped {
				t.Fatalf("%s: light %+v should shine, got %+v", anchor, light, stats)
			}
			for j, v := range lm.Cells() {
				if v < 0 || v > 1 || math.IsNaN(float64(v)) {
					t.Fatalf("%s: cell %d = %v outside [0, 1]", anchor, j, v)
				}
			}
			if stats.Min < 0 || stats.Max > 1 || stats.Min > stats.Max {
				t.Errorf("%s: bad stats %+v", anchor, stats)
			}
		}
	}
}

func TestFlatTerrainUnderLight(t *testing.T) {
	wld := flatWorld(9, 9, 150)
	lm := grid.New(9, 9)
	Estimator{Anchor: AnchorLight}.Calculate(lm, wld, Light{X: 4, Y: 4, Z: 300, Intensity: 1})

	centre := lm.Get(4, 4)
	if math.Abs(float64(centre)-1) > 1e-6 {
		t.Errorf("centre intensity = %v, expected 1", centre)
	}
	for _, c := range [][2]int{{0, 0}, {8, 0}, {0, 8}, {8, 8}} {
		if v := lm.Get(c[0], c[1]); !(v < centre) {
			t.Errorf("corner (%d, %d) = %v, expected below centre %v", c[0], c[1], v, centre)
		}
	}
	for i, v := range lm.Cells() {
		if v < 0 || v > 1 {
			t.Errorf("cell %d = %v outside [0, 1]", i, v)
		}
	}
}

func TestFixedAnchorMeasuresFromCellOneOne(t *testing.T) {
	wld := flatWorld(9, 9, 150)
	lm := grid.New(9, 9)
	Calculate(lm, wld, Light{X: 4, Y: 4, Z: 300})

	// The brightest cell is (1, 1) regardless of where the light is, so the
	// (0, 0) corner outshines the cell under the light.
	if v := lm.Get(1, 1); math.Abs(float64(v)-1) > 1e-6 {
		t.Errorf("(1, 1) intensity = %v, expected 1", v)
	}
	if !(lm.Get(0, 0) > lm.Get(4, 4)) {
		t.Errorf("expected (0, 0)=%v brighter than (4, 4)=%v", lm.Get(0, 0), lm.Get(4, 4))
	}
	if !(lm.Get(8, 8) < lm.Get(4, 4)) {
		t.Errorf("expected (8, 8)=%v darker than (4, 4)=%v", lm.Get(8, 8), lm.Get(4, 4))
	}

	// Moving the light horizontally changes nothing.
	moved := grid.New(9, 9)
	Calculate(moved, wld, Light{X: 7, Y: 2, Z: 300})
	for i, v := range lm.Cells() {
		if moved.Cells()[i] != v {
			t.Fatalf("cell %d changed with horizontal light move: %v vs %v", i, v, moved.Cells()[i])
		}
	}
}

func TestExactIntensity(t *testing.T) {
	wld := flatWorld(9, 9, 150)
	lm := grid.New(9, 9)
	Estimator{Anchor: AnchorLight}.Calculate(lm, wld, Light{X: 4, Y: 4, Z: 300})

	// Flat normal is (0, 0, 1), so intensity is -lz of the unit light vector.
	want := 150 / math.Sqrt(16+16+150*150)
	if got := float64(lm.Get(0, 0)); math.Abs(got-want) > 1e-6 {
		t.Errorf("corner intensity = %v, expected %v", got, want)
	}
}

func TestSlopeFacingAwayIsDarker(t *testing.T) {
	// Ramp rising along x: normal tilts towards -x.
	wld := grid.New(11, 11)
	for y := 0; y < 11; y++ {
		for x := 0; x < 11; x++ {
			wld.Set(x, y, 100+float32(x)*5)
		}
	}
	lm := grid.New(11, 11)
	e := Estimator{Anchor: AnchorLight}

	// Light far to the -x side shines on the face pointing at it.
	e.Calculate(lm, wld, Light{X: -200, Y: 5, Z: 400})
	facing := lm.Get(5, 5)
	e.Calculate(lm, wld, Light{X: 210, Y: 5, Z: 400})
	away := lm.Get(5, 5)
	if !(facing > away) {
		t.Errorf("facing slope %v should be brighter than averted %v", facing, away)
	}
}

func TestShapeMismatchIsNoop(t *testing.T) {
	wld := flatWorld(9, 9, 150)
	for _, lm := range []*grid.Grid{grid.New(8, 9), grid.New(3, 27), grid.New(0, 0)} {
		lm.Fill(0.25)
		before := lm.Clone()
		stats := Calculate(lm, wld, Light{X: 4, Y: 4, Z: 300})
		if !stats.Skipped {
			t.Errorf("%dx%d: expected Skipped", lm.Width(), lm.Height())
		}
		for i, v := range lm.Cells() {
			if v != before.Cells()[i] {
				t.Fatalf("%dx%d: cell %d changed", lm.Width(), lm.Height(), i)
			}
		}
	}
}

func TestWorldIsNotModified(t *testing.T) {
	tr := world.Build(noise.New(23, noise.BackendPerlin), 16, 16)
	before := tr.Map.Clone()
	Calculate(grid.New(16, 16), tr.Map, Light{X: 8, Y: 8, Z: 500})
	for i, v := range before.Cells() {
		if tr.Map.Cells()[i] != v {
			t.Fatalf("world cell %d modified", i)
		}
	}
}

func TestZeroLengthLightVectorIsUnlit(t *testing.T) {
	// Cell (1, 1) sits exactly at the light height under the fixed anchor.
	wld := flatWorld(4, 4, 100)
	wld.Set(1, 1, 250)
	lm := grid.New(4, 4)
	Calculate(lm, wld, Light{X: 3, Y: 3, Z: 250})
	if v := lm.Get(1, 1); v != 0 {
		t.Errorf("degenerate cell intensity = %v, expected 0", v)
	}
	for i, v := range lm.Cells() {
		if math.IsNaN(float64(v)) {
			t.Fatalf("cell %d is NaN", i)
		}
	}
}

func TestParseAnchor(t *testing.T) {
	for in, want := range map[string]Anchor{"": AnchorFixed, "fixed": AnchorFixed, "LIGHT": AnchorLight} {
		got, err := ParseAnchor(in)
		if err != nil || got != want {
			t.Errorf("ParseAnchor(%q) = %v, %v; expected %v", in, got, err, want)
		}
	}
	if _, err := ParseAnchor("sun"); err == nil {
		t.Error("expected error for unknown anchor")
	}
}
