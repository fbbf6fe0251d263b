// Package palette suggests band colors from a reference image and band
// breaks from the tone distribution of a target image.
package palette

import (
	"errors"
	"fmt"
	"image"
	"math"
	"slices"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/MeKo-Tech/posterize/internal/bandset"
	"github.com/MeKo-Tech/posterize/internal/colorspace"
)

// Method selects the color extraction algorithm.
type Method int

const (
	MethodDominant Method = iota
	MethodKMeans
)

// maxSamples caps the pixels fed to k-means.
const maxSamples = 12000

// ErrEmptyImage is returned when an image yields no usable pixels.
var ErrEmptyImage = errors.New("image has no opaque pixels")

func (m Method) String() string {
	switch m {
	case MethodKMeans:
		return "kmeans"
	default:
		return "dominant"
	}
}

// ParseMethod accepts "dominant" (or "dominantcolor") and "kmeans".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dominant", "dominantcolor":
		return MethodDominant, nil
	case "kmeans", "k-means":
		return MethodKMeans, nil
	default:
		return 0, fmt.Errorf("unknown palette method %q (want dominant or kmeans)", s)
	}
}

// Extract returns up to k colors from img, ordered dark to light.
func Extract(img image.Image, k int, m Method) ([]colorspace.Color, error) {
	if k < bandset.MinColors {
		return nil, fmt.Errorf("need at least %d colors, got %d", bandset.MinColors, k)
	}

	var out []colorspace.Color
	var err error
	switch m {
	case MethodKMeans:
		out, err = KMeans(img, k)
	default:
		out, err = Dominant(img, k)
	}
	if err != nil {
		return nil, err
	}
	SortByLuma(out)
	return out, nil
}

// Dominant returns the k heaviest colors reported by dominantcolor.
func Dominant(img image.Image, k int) ([]colorspace.Color, error) {
	found := dominantcolor.FindWeight(img, k)
	if len(found) == 0 {
		return nil, ErrEmptyImage
	}

	slices.SortStableFunc(found, func(a, b dominantcolor.Color) int {
		switch {
		case a.Weight > b.Weight:
			return -1
		case a.Weight < b.Weight:
			return 1
		}
		return 0
	})

	out := make([]colorspace.Color, 0, k)
	for _, c := range found {
		if len(out) == k {
			break
		}
		out = append(out, colorspace.FromColor(c.RGBA))
	}
	return out, nil
}

// KMeans clusters a subsample of img in RGB space and returns the centers of
// the non-empty clusters.
func KMeans(img image.Image, k int) ([]colorspace.Color, error) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil, ErrEmptyImage
	}

	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / 65535.0,
				float64(g16) / 65535.0,
				float64(b16) / 65535.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil, ErrEmptyImage
	}

	cc, err := kmeans.New().Partition(dataset, min(k, len(dataset)))
	if err != nil {
		return nil, fmt.Errorf("failed to cluster colors: %w", err)
	}

	out := make([]colorspace.Color, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		r, g, bl := col.RGB255()
		out = append(out, colorspace.Color{R: r, G: g, B: bl})
	}
	if len(out) == 0 {
		return nil, ErrEmptyImage
	}
	return out, nil
}

// SortByLuma orders colors from darkest to brightest so the first color lands
// on the shadow band.
func SortByLuma(colors []colorspace.Color) {
	slices.SortStableFunc(colors, func(a, b colorspace.Color) int {
		la, lb := colorspace.Luma(a), colorspace.Luma(b)
		switch {
		case la < lb:
			return -1
		case la > lb:
			return 1
		}
		return 0
	})
}
