package palette

import (
	"fmt"
	"image"

	"gonum.org/v1/gonum/stat"

	"github.com/MeKo-Tech/posterize/internal/bandset"
	"github.com/MeKo-Tech/posterize/internal/colorspace"
	"github.com/MeKo-Tech/posterize/internal/mask"
)

// QuantileBreaks splits the tone distribution of gray into n bands holding
// roughly equal pixel counts. The result always satisfies the band set
// invariants, even for flat images where many quantiles coincide.
func QuantileBreaks(gray *image.Gray, n int) ([]int, error) {
	if n < bandset.MinColors {
		return nil, fmt.Errorf("need at least %d bands, got %d", bandset.MinColors, n)
	}
	if n-1 > bandset.Ceiling-bandset.Floor {
		return nil, fmt.Errorf("at most %d bands fit the tone range, got %d", bandset.Ceiling-bandset.Floor+1, n)
	}

	hist := mask.Histogram(gray)
	var tones, weights []float64
	for v, count := range hist {
		if count == 0 {
			continue
		}
		tones = append(tones, float64(v))
		weights = append(weights, float64(count))
	}
	if len(tones) == 0 {
		return nil, ErrEmptyImage
	}

	breaks := make([]int, n-1)
	for i := range breaks {
		p := float64(i+1) / float64(n)
		breaks[i] = int(stat.Quantile(p, stat.Empirical, tones, weights))
	}

	spread(breaks)
	if err := bandset.Validate(breaks, make([]colorspace.Color, n)); err != nil {
		return nil, err
	}
	return breaks, nil
}

// spread clamps breaks into [Floor+1, Ceiling] and pushes duplicates apart so
// the sequence is strictly increasing.
func spread(breaks []int) {
	last := len(breaks) - 1
	for i := range breaks {
		lo := bandset.Floor + 1 + i
		hi := bandset.Ceiling - (last - i)
		if i > 0 && breaks[i] <= breaks[i-1] {
			breaks[i] = breaks[i-1] + 1
		}
		breaks[i] = min(max(breaks[i], lo), hi)
	}
}
