// Package picker tracks the derived state of one color-picking interaction:
// the HSV triple, the wheel marker and the hex text field.
package picker

import (
	"strings"

	"github.com/MeKo-Tech/posterize/internal/colorspace"
	"github.com/MeKo-Tech/posterize/internal/wheel"
)

// hexLen is the length of a complete hex entry including the leading '#'.
const hexLen = 7

// Session is owned by a single caller. Its hex text always matches the HSV
// triple except while an entry is being typed.
type Session struct {
	mapper wheel.Mapper

	hue, sat, val float64
	text          string
	last          colorspace.Color
}

// NewSession starts picking from c on a wheel canvas of the given side.
func NewSession(c colorspace.Color, size int) *Session {
	s := &Session{mapper: wheel.NewMapper(size)}
	s.setColor(c)
	return s
}

func (s *Session) setColor(c colorspace.Color) {
	s.hue, s.sat, s.val = colorspace.RGBToHSV(c)
	s.sync()
}

// sync recomputes the canonical hex text and last valid color from HSV.
func (s *Session) sync() {
	s.last = colorspace.HSVToRGB(s.hue, s.sat, s.val)
	s.text = colorspace.RGBToHex(s.last)
}

// Pick moves the selection to canvas point (x, y). Points outside the wheel
// are ignored and Pick returns false.
func (s *Session) Pick(x, y float64) bool {
	hue, sat, ok := s.mapper.Locate(x, y)
	if !ok {
		return false
	}
	s.hue, s.sat = hue, sat
	s.sync()
	return true
}

// SetValue sets the brightness, clamped to [0,1].
func (s *Session) SetValue(v float64) {
	s.val = min(max(v, 0), 1)
	s.sync()
}

// TypeRune appends r to the hex entry.
func (s *Session) TypeRune(r rune) {
	s.SetText(s.text + string(r))
}

// Backspace removes the last character of the hex entry.
func (s *Session) Backspace() {
	if s.text == "" {
		return
	}
	runes := []rune(s.text)
	s.SetText(string(runes[:len(runes)-1]))
}

// SetText replaces the hex entry. A missing leading '#' is inserted. Once the
// entry is exactly seven characters it is parsed; on success HSV and the
// marker follow it, on failure the previous color is kept and the text stays
// as typed.
func (s *Session) SetText(text string) {
	if !strings.HasPrefix(text, "#") {
		text = "#" + text
	}
	s.text = text

	if len(text) != hexLen {
		return
	}
	c, err := colorspace.HexToRGB(text)
	if err != nil {
		return
	}
	s.hue, s.sat, s.val = colorspace.RGBToHSV(c)
	s.last = c
}

// Apply commits the hex entry. An unparsable entry is replaced by the last
// valid color, which is returned.
func (s *Session) Apply() colorspace.Color {
	if c, err := colorspace.HexToRGB(s.text); err == nil {
		s.setColor(c)
		s.last = c
		s.text = colorspace.RGBToHex(c)
		return c
	}
	s.text = colorspace.RGBToHex(s.last)
	return s.last
}

// HSV returns the current hue, saturation and value.
func (s *Session) HSV() (hue, sat, val float64) {
	return s.hue, s.sat, s.val
}

// Hex returns the canonical hex encoding of the current color.
func (s *Session) Hex() string {
	return colorspace.RGBToHex(s.last)
}

// Text returns the hex entry as typed.
func (s *Session) Text() string {
	return s.text
}

// Marker returns the canvas point of the current hue and saturation.
func (s *Session) Marker() (x, y float64) {
	return s.mapper.Place(s.hue, s.sat)
}

// Color returns the last valid color.
func (s *Session) Color() colorspace.Color {
	return s.last
}

// Mapper exposes the wheel geometry the session picks on.
func (s *Session) Mapper() wheel.Mapper {
	return s.mapper
}
