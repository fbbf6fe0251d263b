// Package texture builds the flat "paper" layers that bands are cut from, and
// an optional perlin grain that makes the flat colors look printed.
package texture

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/MeKo-Tech/posterize/internal/colorspace"
)

// Paper returns a uniform, fully opaque layer of c covering bounds.
func Paper(bounds image.Rectangle, c colorspace.Color) *image.NRGBA {
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, &image.Uniform{C: c.NRGBA()}, image.Point{}, draw.Src)
	return dst
}

// ApplyMask uses a grayscale mask as the alpha channel of paper. RGB comes
// from the paper; pixels where the mask is black become fully transparent.
func ApplyMask(paper *image.NRGBA, mask *image.Gray) *image.NRGBA {
	if paper == nil || mask == nil {
		return nil
	}

	bounds := mask.Bounds().Intersect(paper.Bounds())
	dst := image.NewNRGBA(mask.Bounds())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := paper.NRGBAAt(x, y)
			c.A = mask.GrayAt(x, y).Y
			if c.A == 0 {
				continue
			}
			dst.SetNRGBA(x, y, c)
		}
	}

	return dst
}

// Flatten copies every non-transparent pixel of layer onto dst. Masked band
// layers never overlap, so no blending is needed.
func Flatten(dst *image.NRGBA, layer *image.NRGBA) {
	bounds := dst.Bounds().Intersect(layer.Bounds())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := layer.NRGBAAt(x, y)
			if c.A == 0 {
				continue
			}
			dst.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
}
