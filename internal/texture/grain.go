package texture

import (
	"image"
	"image/color"
	"math"

	"github.com/aquilax/go-perlin"
)

// DefaultGrainScale is the noise feature size in pixels.
const DefaultGrainScale = 3.0

// GrainParams controls the paper grain overlay.
type GrainParams struct {
	Strength float64 // 0 disables, 1 darkens/lightens by up to half the range
	Scale    float64 // noise feature size in pixels (<=0 uses DefaultGrainScale)
	Seed     int64
}

// GenerateNoise returns a grayscale perlin noise field centered around 128.
func GenerateNoise(width, height int, scale float64, seed int64) *image.Gray {
	if scale <= 0 {
		scale = DefaultGrainScale
	}
	p := perlin.NewPerlin(2.0, 2.0, 3, seed)

	noise := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			val := p.Noise2D(float64(x)/scale, float64(y)/scale)
			normalized := (val + 1.0) / 2.0
			noise.SetGray(x, y, color.Gray{Y: uint8(math.Max(0, math.Min(255, normalized*255)))})
		}
	}
	return noise
}

// ApplyGrain perturbs each channel of img by the noise field, in place.
// Alpha is preserved. A zero strength leaves img untouched.
func ApplyGrain(img *image.NRGBA, p GrainParams) {
	if img == nil || p.Strength <= 0 {
		return
	}
	strength := math.Min(p.Strength, 1)

	bounds := img.Bounds()
	noise := GenerateNoise(bounds.Dx(), bounds.Dy(), p.Scale, p.Seed)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			delta := (float64(noise.GrayAt(x-bounds.Min.X, y-bounds.Min.Y).Y) - 128.0) * strength

			c := img.NRGBAAt(x, y)
			shift := func(v uint8) uint8 {
				return uint8(math.Round(math.Max(0, math.Min(255, float64(v)+delta))))
			}
			img.SetNRGBA(x, y, color.NRGBA{R: shift(c.R), G: shift(c.G), B: shift(c.B), A: c.A})
		}
	}
}
