package mask

import (
	"image"
	"image/color"

	"github.com/disintegration/gift"
)

// Selected and Cleared are the two values a binary mask holds.
const (
	Selected uint8 = 255
	Cleared  uint8 = 0
)

// ToGray returns img as an 8-bit grayscale image with its origin at (0,0).
// *image.Gray inputs that already start at the origin are returned as is.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}

	f := gift.New(gift.Grayscale())
	dst := image.NewGray(f.Bounds(img.Bounds()))
	f.Draw(dst, img)
	return dst
}

// RangeMask selects every pixel whose gray value lies in [low, high],
// inclusive at both ends. Selected pixels are white (255), all others black.
func RangeMask(gray *image.Gray, low, high uint8) *image.Gray {
	bounds := gray.Bounds()
	mask := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := gray.GrayAt(x, y).Y
			if v >= low && v <= high {
				mask.SetGray(x, y, color.Gray{Y: Selected})
			}
		}
	}

	return mask
}

// Histogram counts how many pixels hold each gray value.
func Histogram(gray *image.Gray) [256]int {
	var hist [256]int
	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
		}
	}
	return hist
}

// Count returns the number of selected pixels in a binary mask.
func Count(mask *image.Gray) int {
	n := 0
	bounds := mask.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if mask.GrayAt(x, y).Y != Cleared {
				n++
			}
		}
	}
	return n
}
