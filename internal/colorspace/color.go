// Package colorspace provides the RGB color type used by band sets and the
// hex and HSV conversions the color picker relies on.
package colorspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrFormat is matched by every *FormatError.
var ErrFormat = errors.New("malformed hex color")

// FormatError reports a hex string that is not exactly 6 hex digits after an
// optional leading '#'.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %q", ErrFormat.Error(), e.Input)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// Color is an opaque 8-bit RGB triple.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// RGB is shorthand for Color{R: r, G: g, B: b}.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// RGBA implements color.Color. The color is always fully opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// NRGBA returns the color as an opaque color.NRGBA.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// String returns the canonical hex form, e.g. "#1f6aa5".
func (c Color) String() string {
	return RGBToHex(c)
}

// MarshalJSON encodes the color as [r,g,b], the shape used by preset documents.
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{int(c.R), int(c.G), int(c.B)})
}

// UnmarshalJSON accepts [r,g,b] with every channel in [0,255].
func (c *Color) UnmarshalJSON(data []byte) error {
	var ch []int
	if err := json.Unmarshal(data, &ch); err != nil {
		return fmt.Errorf("color must be an [r,g,b] array: %w", err)
	}
	if len(ch) != 3 {
		return fmt.Errorf("color must have 3 channels, got %d", len(ch))
	}
	for i, v := range ch {
		if v < 0 || v > 255 {
			return fmt.Errorf("channel %d out of range: %d", i, v)
		}
	}
	*c = Color{R: uint8(ch[0]), G: uint8(ch[1]), B: uint8(ch[2])}
	return nil
}

// FromColor converts any color.Color, dropping alpha.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B}
}

// HexToRGB parses "rrggbb" or "#rrggbb" (either case).
func HexToRGB(s string) (Color, error) {
	digits := strings.TrimPrefix(s, "#")
	if len(digits) != 6 {
		return Color{}, &FormatError{Input: s}
	}
	for i := 0; i < len(digits); i++ {
		if !isHexDigit(digits[i]) {
			return Color{}, &FormatError{Input: s}
		}
	}

	var ch [3]uint8
	for i := range ch {
		v, err := strconv.ParseUint(digits[2*i:2*i+2], 16, 8)
		if err != nil {
			return Color{}, &FormatError{Input: s}
		}
		ch[i] = uint8(v)
	}
	return Color{R: ch[0], G: ch[1], B: ch[2]}, nil
}

// RGBToHex formats c as a lowercase, zero-padded "#rrggbb" string.
func RGBToHex(c Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGBToHSV returns hue, saturation and value in [0,1]. Hue is 0 for grays.
func RGBToHSV(c Color) (h, s, v float64) {
	h, s, v = toColorful(c).Hsv()
	h /= 360.0
	if h >= 1 {
		h = 0
	}
	return h, s, v
}

// HSVToRGB converts a hue/saturation/value triple to RGB.
// Hue wraps modulo 1; saturation and value are clamped to [0,1].
// Channels are rounded to the nearest integer.
func HSVToRGB(h, s, v float64) Color {
	c := colorful.Hsv(WrapHue(h)*360.0, clamp01(s), clamp01(v)).Clamped()
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}
}

// WrapHue maps any hue onto [0,1).
func WrapHue(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	h = math.Mod(h, 1)
	if h < 0 {
		h++
	}
	if h >= 1 {
		h = 0
	}
	return h
}

// Luma returns the Rec. 709 relative luminance of c in [0,1].
func Luma(c Color) float64 {
	r, g, b := toColorful(c).LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

func toColorful(c Color) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

func clamp01(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func isHexDigit(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		return true
	case b >= 'a' && b <= 'f':
		return true
	case b >= 'A' && b <= 'F':
		return true
	}
	return false
}
