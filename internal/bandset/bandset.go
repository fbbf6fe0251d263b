// Package bandset holds the ordered tone-range boundaries and flat colors that
// define a posterized image.
//
// A BandSet with N colors has N-1 strictly increasing integer breaks. Band 0
// covers [0, breaks[0]], band i covers (breaks[i-1], breaks[i]] and the last
// band covers (breaks[N-2], 255]. Each break value therefore belongs to the
// band below it. All mutations keep the ordering intact; callers never touch
// the underlying slices.
package bandset

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/posterize/internal/colorspace"
)

const (
	// MinColors is the smallest legal number of bands.
	MinColors = 2

	// Floor and Ceiling bound every break from below and above (exclusive).
	Floor   = 0
	Ceiling = 254

	// MaxTone is the brightest gray value.
	MaxTone = 255
)

// ErrInvalid is wrapped by every validation failure in FromPreset.
var ErrInvalid = errors.New("invalid band set")

// DefaultBreaks and DefaultColors describe a fresh two-band set: blue shadows,
// red highlights, split at 120.
var (
	DefaultBreaks = []int{120}
	DefaultColors = []colorspace.Color{
		{R: 0, G: 0, B: 255},
		{R: 255, G: 0, B: 0},
	}
)

// Band is one contiguous, inclusive tone range and its color.
type Band struct {
	Low   uint8
	High  uint8
	Color colorspace.Color
}

// Contains reports whether gray value v falls inside the band.
func (b Band) Contains(v uint8) bool {
	return v >= b.Low && v <= b.High
}

// BandSet is the invariant-preserving state machine over breaks and colors.
// The zero value is not usable; use New or FromPreset.
type BandSet struct {
	breaks   []int
	colors   []colorspace.Color
	selected int

	// undo holds the breaks as they were before each AddColor still on top
	// of the set; RemoveColor restores them. Any boundary adjustment clears it.
	undo []snapshot
}

type snapshot struct {
	breaks   []int
	selected int
}

// New returns the default two-band set.
func New() *BandSet {
	return &BandSet{
		breaks: append([]int(nil), DefaultBreaks...),
		colors: append([]colorspace.Color(nil), DefaultColors...),
	}
}

// FromPreset builds a BandSet from a persisted (breaks, colors) pair.
func FromPreset(breaks []int, colors []colorspace.Color) (*BandSet, error) {
	if err := Validate(breaks, colors); err != nil {
		return nil, err
	}
	return &BandSet{
		breaks: append([]int(nil), breaks...),
		colors: append([]colorspace.Color(nil), colors...),
	}, nil
}

// EvenBreaks spreads n-1 breaks evenly over the tone range. n must be in
// [MinColors, Ceiling-Floor+1]; other values return nil.
func EvenBreaks(n int) []int {
	if n < MinColors || n > Ceiling-Floor+1 {
		return nil
	}
	breaks := make([]int, n-1)
	for i := range breaks {
		breaks[i] = ((i+1)*MaxTone + n/2) / n
	}
	return breaks
}

// Validate checks a (breaks, colors) pair against the BandSet invariants.
func Validate(breaks []int, colors []colorspace.Color) error {
	if len(colors) < MinColors {
		return fmt.Errorf("%w: need at least %d colors, got %d", ErrInvalid, MinColors, len(colors))
	}
	if len(breaks) != len(colors)-1 {
		return fmt.Errorf("%w: %d colors need %d breaks, got %d", ErrInvalid, len(colors), len(colors)-1, len(breaks))
	}
	for i, b := range breaks {
		if b <= Floor || b >= MaxTone {
			return fmt.Errorf("%w: break %d out of range (%d,%d): %d", ErrInvalid, i, Floor, MaxTone, b)
		}
		if i > 0 && breaks[i-1] >= b {
			return fmt.Errorf("%w: breaks must be strictly increasing: %d then %d", ErrInvalid, breaks[i-1], b)
		}
	}
	return nil
}

// Len returns the number of colors (bands).
func (s *BandSet) Len() int {
	return len(s.colors)
}

// Breaks returns a copy of the boundaries.
func (s *BandSet) Breaks() []int {
	return append([]int(nil), s.breaks...)
}

// Colors returns a copy of the band colors.
func (s *BandSet) Colors() []colorspace.Color {
	return append([]colorspace.Color(nil), s.colors...)
}

// Color returns the color of band i.
func (s *BandSet) Color(i int) (colorspace.Color, bool) {
	if i < 0 || i >= len(s.colors) {
		return colorspace.Color{}, false
	}
	return s.colors[i], true
}

// SetColor replaces the color of band i.
func (s *BandSet) SetColor(i int, c colorspace.Color) error {
	if i < 0 || i >= len(s.colors) {
		return fmt.Errorf("color index %d out of range [0,%d)", i, len(s.colors))
	}
	s.colors[i] = c
	return nil
}

// Clone returns an independent copy.
func (s *BandSet) Clone() *BandSet {
	c := &BandSet{
		breaks:   s.Breaks(),
		colors:   s.Colors(),
		selected: s.selected,
	}
	for _, u := range s.undo {
		c.undo = append(c.undo, snapshot{breaks: append([]int(nil), u.breaks...), selected: u.selected})
	}
	return c
}

// CanAdd reports whether another band fits; every break needs its own value
// in [Floor+1, Ceiling].
func (s *BandSet) CanAdd() bool {
	return len(s.breaks) < Ceiling-Floor
}

// AddColor appends a copy of the last color and a new final break at Ceiling.
// Trailing breaks already packed against the top of the range (Ceiling, then
// Ceiling-1, ...) are each pushed down by one to make room. The new break
// becomes the selected one. It returns false when the tone range is full.
func (s *BandSet) AddColor() bool {
	if !s.CanAdd() {
		return false
	}

	s.undo = append(s.undo, snapshot{breaks: s.Breaks(), selected: s.selected})
	s.colors = append(s.colors, s.colors[len(s.colors)-1])

	for k := 0; k < len(s.breaks); k++ {
		i := len(s.breaks) - 1 - k
		if s.breaks[i] != Ceiling-k {
			break
		}
		s.breaks[i]--
	}
	s.breaks = append(s.breaks, Ceiling)
	s.selected = len(s.breaks) - 1
	return true
}

// RemoveColor drops the last color and break. It is a no-op returning false
// when only MinColors remain. Directly after AddColor it restores the breaks
// that AddColor pushed down.
func (s *BandSet) RemoveColor() bool {
	if len(s.colors) <= MinColors {
		return false
	}
	s.colors = s.colors[:len(s.colors)-1]
	s.breaks = s.breaks[:len(s.breaks)-1]

	if n := len(s.undo); n > 0 {
		u := s.undo[n-1]
		s.undo = s.undo[:n-1]
		if len(u.breaks) == len(s.breaks) {
			copy(s.breaks, u.breaks)
			s.selected = u.selected
		}
	}
	if s.selected >= len(s.breaks) {
		s.selected = len(s.breaks) - 1
	}
	return true
}

// AdjustBoundary moves break index toward proposed, clamped strictly between
// its neighbours (or Floor/Ceiling at the ends). It returns the stored value,
// or -1 when index is out of range. A last break left at Ceiling by AddColor
// with its neighbour at Ceiling-1 has no room to move and stays put.
func (s *BandSet) AdjustBoundary(index, proposed int) int {
	if index < 0 || index >= len(s.breaks) {
		return -1
	}

	lo, hi := s.limits(index)
	if hi-lo < 2 {
		return s.breaks[index]
	}

	s.undo = nil
	if proposed <= lo {
		proposed = lo + 1
	}
	if proposed >= hi {
		proposed = hi - 1
	}
	s.breaks[index] = proposed
	return proposed
}

// Limits returns the exclusive bounds a break may move within.
func (s *BandSet) Limits(index int) (lo, hi int) {
	if index < 0 || index >= len(s.breaks) {
		return Floor, Ceiling
	}
	return s.limits(index)
}

func (s *BandSet) limits(index int) (lo, hi int) {
	lo, hi = Floor, Ceiling
	if index > 0 {
		lo = s.breaks[index-1]
	}
	if index < len(s.breaks)-1 {
		hi = s.breaks[index+1]
	}
	return lo, hi
}

// Select makes index the break targeted by AdjustSelected.
func (s *BandSet) Select(index int) bool {
	if index < 0 || index >= len(s.breaks) {
		return false
	}
	s.selected = index
	return true
}

// Selected returns the index of the selected break.
func (s *BandSet) Selected() int {
	return s.selected
}

// AdjustSelected is AdjustBoundary on the selected break.
func (s *BandSet) AdjustSelected(proposed int) int {
	return s.AdjustBoundary(s.selected, proposed)
}

// Bands returns the derived tone ranges. They are contiguous, disjoint and
// cover [0,255] exactly.
func (s *BandSet) Bands() []Band {
	bands := make([]Band, len(s.colors))
	low := 0
	for i := range s.colors {
		high := MaxTone
		if i < len(s.breaks) {
			high = s.breaks[i]
		}
		bands[i] = Band{Low: uint8(low), High: uint8(high), Color: s.colors[i]}
		low = high + 1
	}
	return bands
}

// Preset returns copies of the (breaks, colors) pair for persistence.
func (s *BandSet) Preset() ([]int, []colorspace.Color) {
	return s.Breaks(), s.Colors()
}

// Equal reports whether two sets hold the same breaks and colors.
func (s *BandSet) Equal(o *BandSet) bool {
	if len(s.breaks) != len(o.breaks) || len(s.colors) != len(o.colors) {
		return false
	}
	for i := range s.breaks {
		if s.breaks[i] != o.breaks[i] {
			return false
		}
	}
	for i := range s.colors {
		if s.colors[i] != o.colors[i] {
			return false
		}
	}
	return true
}
