package render

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/talgya/relief/internal/grid"
	"github.com/talgya/relief/internal/world"
)

func TestLitMidpointKeepsColour(t *testing.T) {
	c := BandColor(world.BandLowland)
	got := Lit(c, 0.5)
	if got.DistanceRgb(c) > 1e-9 {
		t.Errorf("Lit(c, 0.5) = %v, expected %v", got, c)
	}
}

func TestLitExtremes(t *testing.T) {
	c := BandColor(world.BandHighland)
	if got := Lit(c, 0); got.DistanceRgb(black) > 1e-9 {
		t.Errorf("Lit(c, 0) = %v, expected black", got)
	}
	if got := Lit(c, 1); got.DistanceRgb(white) > 1e-9 {
		t.Errorf("Lit(c, 1) = %v, expected white", got)
	}
	// Out-of-range intensities clamp instead of overshooting.
	if got := Lit(c, 3); got.DistanceRgb(white) > 1e-9 {
		t.Errorf("Lit(c, 3) = %v, expected white", got)
	}
}

func TestLitMatchesBrightnessFactor(t *testing.T) {
	c := rgb255(200, 100, 50)
	// Intensity 0.25 is brightness -0.5: every channel halves.
	got := Lit(c, 0.25)
	want := rgb255(100, 50, 25)
	if math.Abs(got.R-want.R) > 1e-9 || math.Abs(got.G-want.G) > 1e-9 || math.Abs(got.B-want.B) > 1e-9 {
		t.Errorf("Lit(c, 0.25) = %v, expected %v", got, want)
	}
}

func TestElevationUsesBands(t *testing.T) {
	g := grid.New(5, 1)
	for i, v := range []float32{100, 105, 130, 139, 180} {
		g.Cells()[i] = v
	}
	img := Elevation(g)
	for i, b := range world.Bands {
		r, gg, bb := BandColor(b).RGB255()
		px := img.RGBAAt(i, 0)
		if px.R != r || px.G != gg || px.B != bb || px.A != 255 {
			t.Errorf("pixel %d = %v, expected band %s colour", i, px, world.BandName(b))
		}
	}
}

func TestShadedShapeMismatch(t *testing.T) {
	if _, err := Shaded(grid.New(3, 3), grid.New(3, 4)); err == nil {
		t.Error("expected shape mismatch error")
	}
}

func TestShadedDarkLightmapIsBlack(t *testing.T) {
	elev := grid.New(4, 4)
	elev.Fill(150)
	img, err := Shaded(elev, grid.New(4, 4))
	if err != nil {
		t.Fatalf("Shaded: %v", err)
	}
	px := img.RGBAAt(2, 2)
	if px.R != 0 || px.G != 0 || px.B != 0 {
		t.Errorf("unlit pixel = %v, expected black", px)
	}
}

func TestGray(t *testing.T) {
	g := grid.New(3, 1)
	for i, v := range []float32{-1, 0, 1} {
		g.Cells()[i] = v
	}
	img := Gray(g)
	if img.GrayAt(0, 0).Y != 0 || img.GrayAt(2, 0).Y != 255 || img.GrayAt(1, 0).Y != 128 {
		t.Errorf("unexpected grey ramp: %v %v %v", img.GrayAt(0, 0), img.GrayAt(1, 0), img.GrayAt(2, 0))
	}

	flat := grid.New(2, 2)
	flat.Fill(7)
	if Gray(flat).GrayAt(1, 1).Y != 128 {
		t.Error("flat grid should render mid-grey")
	}
}

func TestMask(t *testing.T) {
	g := grid.New(3, 1)
	for i, v := range []float32{100, 110, 150} {
		g.Cells()[i] = v
	}
	img := Mask(g, 110)
	if img.GrayAt(0, 0).Y != 0 || img.GrayAt(1, 0).Y != 0 || img.GrayAt(2, 0).Y != 255 {
		t.Errorf("mask = %v %v %v, expected 0 0 255", img.GrayAt(0, 0), img.GrayAt(1, 0), img.GrayAt(2, 0))
	}
	if g.Get(0, 0) != 100 || g.Get(2, 0) != 150 {
		t.Error("Mask modified its input")
	}

	flat := grid.New(2, 2)
	flat.Fill(120)
	if Mask(flat, 110).GrayAt(1, 1).Y != 255 {
		t.Error("flat grid above threshold should render white")
	}
}

func TestWritePNGRoundTrip(t *testing.T) {
	g := grid.New(6, 4)
	g.SeqFill()
	var buf bytes.Buffer
	if err := WritePNG(&buf, Gray(g)); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 6 || b.Dy() != 4 {
		t.Errorf("decoded bounds %v, expected 6x4", b)
	}
}
