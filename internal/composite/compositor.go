// Package composite turns a grayscale image and a set of tone bands into a
// flat-colored poster.
package composite

import (
	"errors"
	"fmt"
	"image"

	"github.com/MeKo-Tech/posterize/internal/bandset"
	"github.com/MeKo-Tech/posterize/internal/mask"
	"github.com/MeKo-Tech/posterize/internal/texture"
)

// ErrDimensionMismatch reports bands that do not partition [0,255] or layers
// whose bounds disagree with the source image.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Bands is anything that can describe its tone ranges. *bandset.BandSet
// satisfies it.
type Bands interface {
	Bands() []bandset.Band
}

// Options tunes a render. The zero value renders plain flat colors.
type Options struct {
	Grain float64
	Seed  int64
}

// Render colors every pixel of img with the color of the band its gray value
// falls in. The result has img's bounds and is fully opaque.
func Render(img *image.Gray, bs Bands) (*image.NRGBA, error) {
	return RenderWithOptions(img, bs, Options{})
}

// RenderImage converts img to grayscale and renders it.
func RenderImage(img image.Image, bs Bands) (*image.NRGBA, error) {
	return Render(mask.ToGray(img), bs)
}

// RenderWithOptions renders img and then applies the paper grain when
// opts.Grain is positive.
func RenderWithOptions(img *image.Gray, bs Bands, opts Options) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrDimensionMismatch)
	}
	if bs == nil {
		return nil, fmt.Errorf("%w: nil bands", ErrDimensionMismatch)
	}

	bands := bs.Bands()
	if err := checkPartition(bands); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	dst := image.NewNRGBA(bounds)

	for i, band := range bands {
		paper := texture.Paper(bounds, band.Color)
		m := mask.RangeMask(img, band.Low, band.High)
		if m.Bounds() != bounds {
			return nil, fmt.Errorf("%w: band %d mask bounds %v do not match image %v", ErrDimensionMismatch, i, m.Bounds(), bounds)
		}

		layer := texture.ApplyMask(paper, m)
		if layer.Bounds() != bounds {
			return nil, fmt.Errorf("%w: band %d layer bounds %v do not match image %v", ErrDimensionMismatch, i, layer.Bounds(), bounds)
		}
		texture.Flatten(dst, layer)
	}

	if opts.Grain > 0 {
		texture.ApplyGrain(dst, texture.GrainParams{Strength: opts.Grain, Seed: opts.Seed})
	}

	return dst, nil
}

// checkPartition verifies the bands are non-empty, contiguous, disjoint and
// cover [0,255] exactly, so every pixel is claimed by exactly one band.
func checkPartition(bands []bandset.Band) error {
	if len(bands) == 0 {
		return fmt.Errorf("%w: no bands", ErrDimensionMismatch)
	}
	if bands[0].Low != 0 {
		return fmt.Errorf("%w: first band starts at %d, not 0", ErrDimensionMismatch, bands[0].Low)
	}

	next := 0
	for i, b := range bands {
		if int(b.Low) != next {
			return fmt.Errorf("%w: band %d starts at %d, expected %d", ErrDimensionMismatch, i, b.Low, next)
		}
		if b.High < b.Low {
			return fmt.Errorf("%w: band %d is empty [%d,%d]", ErrDimensionMismatch, i, b.Low, b.High)
		}
		next = int(b.High) + 1
	}

	if next != bandset.MaxTone+1 {
		return fmt.Errorf("%w: last band ends at %d, not %d", ErrDimensionMismatch, next-1, bandset.MaxTone)
	}
	return nil
}
