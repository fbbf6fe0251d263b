// Package wheel maps points on a square color-wheel canvas to hue/saturation
// pairs and back, and rasterizes the wheel itself.
//
// Angle encodes hue and distance from the center encodes saturation. Value is
// not spatial; callers supply it separately and it only enters the final
// HSV to RGB conversion.
package wheel

import (
	"image"
	"math"

	"github.com/MeKo-Tech/posterize/internal/colorspace"
)

// Background fills canvas pixels that fall outside the wheel disk.
var Background = colorspace.Color{R: 36, G: 36, B: 36}

// edgeTolerance absorbs rounding when Place puts a fully saturated color on the
// rim and Locate reads it back.
const edgeTolerance = 1e-9

// DefaultSize is the side of the picker canvas in pixels.
const DefaultSize = 300

// Mapper converts between canvas coordinates and hue/saturation for a square
// canvas of side Size.
type Mapper struct {
	Size int
}

// NewMapper returns a mapper for a canvas of the given side; non-positive sizes
// fall back to DefaultSize.
func NewMapper(size int) Mapper {
	if size <= 0 {
		size = DefaultSize
	}
	return Mapper{Size: size}
}

// Radius returns the wheel radius in pixels.
func (m Mapper) Radius() float64 {
	return float64(m.Size) / 2
}

// Locate returns the hue and saturation under canvas point (x, y).
// ok is false when the point lies outside the wheel.
func (m Mapper) Locate(x, y float64) (hue, sat float64, ok bool) {
	r0 := m.Radius()
	if r0 <= 0 {
		return 0, 0, false
	}

	dx := x - r0
	dy := y - r0
	r := math.Hypot(dx, dy) / r0
	if r > 1+edgeTolerance {
		return 0, 0, false
	}
	if r > 1 {
		r = 1
	}

	theta := math.Atan2(dy, dx)
	hue = (theta + math.Pi) / (2 * math.Pi)
	if hue >= 1 {
		hue = 0
	}
	return hue, r, true
}

// Place returns the canvas point for a hue/saturation pair. It is the inverse
// of Locate; at sat == 0 every hue maps to the center.
func (m Mapper) Place(hue, sat float64) (x, y float64) {
	r0 := m.Radius()
	theta := hue * 2 * math.Pi
	x = r0 + (sat*r0)*-math.Cos(theta)
	y = r0 + (sat*r0)*-math.Sin(theta)
	return x, y
}

// Color returns the color under (x, y) at the given value.
func (m Mapper) Color(x, y, value float64) (colorspace.Color, bool) {
	hue, sat, ok := m.Locate(x, y)
	if !ok {
		return colorspace.Color{}, false
	}
	return colorspace.HSVToRGB(hue, sat, value), true
}

// Render rasterizes the full wheel at value 1.0. Pixels outside the disk get
// Background.
func Render(size int) *image.NRGBA {
	m := NewMapper(size)
	img := image.NewNRGBA(image.Rect(0, 0, m.Size, m.Size))

	bg := Background.NRGBA()
	for y := 0; y < m.Size; y++ {
		for x := 0; x < m.Size; x++ {
			c, ok := m.Color(float64(x), float64(y), 1.0)
			if !ok {
				img.SetNRGBA(x, y, bg)
				continue
			}
			img.SetNRGBA(x, y, c.NRGBA())
		}
	}

	return img
}
