// Package render turns elevation and light grids into preview images.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/talgya/relief/internal/grid"
	"github.com/talgya/relief/internal/world"
)

var (
	black = colorful.Color{R: 0, G: 0, B: 0}
	white = colorful.Color{R: 1, G: 1, B: 1}
)

// palette holds the base colour of each elevation band.
var palette = map[world.Band]colorful.Color{
	world.BandDeepWater:    rgb255(20, 50, 250),
	world.BandShallowWater: rgb255(20, 130, 200),
	world.BandLowland:      rgb255(20, 200, 130),
	world.BandHighland:     rgb255(200, 200, 50),
	world.BandIce:          rgb255(200, 200, 200),
}

func rgb255(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// BandColor returns the unlit colour of an elevation band.
func BandColor(b world.Band) colorful.Color {
	if c, ok := palette[b]; ok {
		return c
	}
	return black
}

// Lit applies a light intensity to a colour. Intensity 0.5 leaves the colour
// as is; lower values darken towards black, higher ones brighten towards white.
func Lit(c colorful.Color, intensity float32) colorful.Color {
	f := grid.Remap(float64(intensity), 0, 1, -1, 1)
	switch {
	case f < -1:
		f = -1
	case f > 1:
		f = 1
	}
	if f < 0 {
		return c.BlendRgb(black, -f)
	}
	return c.BlendRgb(white, f)
}

// Elevation colours every cell by its band, without lighting.
func Elevation(elev *grid.Grid) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, elev.Width(), elev.Height()))
	for y := 0; y < elev.Height(); y++ {
		for x := 0; x < elev.Width(); x++ {
			img.SetRGBA(x, y, toRGBA(BandColor(world.Classify(elev.Get(x, y)))))
		}
	}
	return img
}

// Shaded colours every cell by its band and applies the lightmap.
func Shaded(elev, lightmap *grid.Grid) (*image.RGBA, error) {
	if !elev.SameShape(lightmap) {
		return nil, fmt.Errorf("render: elevation %dx%d and lightmap %dx%d differ",
			elev.Width(), elev.Height(), lightmap.Width(), lightmap.Height())
	}
	img := image.NewRGBA(image.Rect(0, 0, elev.Width(), elev.Height()))
	for y := 0; y < elev.Height(); y++ {
		for x := 0; x < elev.Width(); x++ {
			c := BandColor(world.Classify(elev.Get(x, y)))
			img.SetRGBA(x, y, toRGBA(Lit(c, lightmap.Get(x, y))))
		}
	}
	return img, nil
}

// Gray renders any grid as greyscale, stretched between its own min and max.
// A flat grid renders mid-grey.
func Gray(g *grid.Grid) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width(), g.Height()))
	min, max := g.MinMax()
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			v := uint8(128)
			if max > min {
				v = uint8(grid.Remap(float64(g.Get(x, y)), float64(min), float64(max), 0, 255) + 0.5)
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

// Mask renders cells above t white and the rest black. g is not modified.
func Mask(g *grid.Grid, t float32) *image.Gray {
	m := g.Clone()
	m.Threshold(t)
	img := image.NewGray(image.Rect(0, 0, m.Width(), m.Height()))
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(m.Get(x, y) * 255)})
		}
	}
	return img
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
