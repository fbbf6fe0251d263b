package composite

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/posterize/internal/bandset"
	"github.com/MeKo-Tech/posterize/internal/colorspace"
	"github.com/stretchr/testify/require"
)

type staticBands []bandset.Band

func (s staticBands) Bands() []bandset.Band { return s }

func grayRow(values ...uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, len(values), 1))
	for x, v := range values {
		img.SetGray(x, 0, color.Gray{Y: v})
	}
	return img
}

func expectColor(t *testing.T, got color.NRGBA, want color.NRGBA, context string) {
	t.Helper()
	if got != want {
		t.Fatalf("%s: expected %+v, got %+v", context, want, got)
	}
}

func TestRenderDefaultBlueRed(t *testing.T) {
	img := grayRow(120, 121, 0, 255)

	out, err := Render(img, bandset.New())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	blue := color.NRGBA{B: 255, A: 255}
	red := color.NRGBA{R: 255, A: 255}
	expectColor(t, out.NRGBAAt(0, 0), blue, "gray 120 belongs to the lower band")
	expectColor(t, out.NRGBAAt(1, 0), red, "gray 121")
	expectColor(t, out.NRGBAAt(2, 0), blue, "gray 0")
	expectColor(t, out.NRGBAAt(3, 0), red, "gray 255")
}

func TestRenderEveryToneClaimedOnce(t *testing.T) {
	values := make([]uint8, 256)
	for i := range values {
		values[i] = uint8(i)
	}
	img := grayRow(values...)

	bs, err := bandset.FromPreset([]int{40, 90, 200}, []colorspace.Color{
		{R: 1}, {R: 2}, {R: 3}, {R: 4},
	})
	require.NoError(t, err)

	out, err := Render(img, bs)
	require.NoError(t, err)
	require.Equal(t, img.Bounds(), out.Bounds())

	for v := 0; v < 256; v++ {
		var want uint8
		switch {
		case v <= 40:
			want = 1
		case v <= 90:
			want = 2
		case v <= 200:
			want = 3
		default:
			want = 4
		}
		got := out.NRGBAAt(v, 0)
		require.Equal(t, want, got.R, "gray %d", v)
		require.Equal(t, uint8(255), got.A, "gray %d must be opaque", v)
	}
}

func TestRenderPreservesBounds(t *testing.T) {
	img := image.NewGray(image.Rect(3, 4, 10, 9))
	out, err := Render(img, bandset.New())
	require.NoError(t, err)
	require.Equal(t, img.Bounds(), out.Bounds())
}

func TestRenderRejectsBadPartition(t *testing.T) {
	c := colorspace.Color{}
	tests := []struct {
		name  string
		bands staticBands
	}{
		{name: "empty", bands: staticBands{}},
		{name: "gap", bands: staticBands{{Low: 0, High: 100, Color: c}, {Low: 102, High: 255, Color: c}}},
		{name: "overlap", bands: staticBands{{Low: 0, High: 100, Color: c}, {Low: 100, High: 255, Color: c}}},
		{name: "starts late", bands: staticBands{{Low: 1, High: 255, Color: c}}},
		{name: "ends early", bands: staticBands{{Low: 0, High: 100, Color: c}, {Low: 101, High: 254, Color: c}}},
		{name: "inverted", bands: staticBands{{Low: 0, High: 100, Color: c}, {Low: 101, High: 50, Color: c}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(grayRow(0, 128, 255), tt.bands)
			if !errors.Is(err, ErrDimensionMismatch) {
				t.Fatalf("expected ErrDimensionMismatch, got %v", err)
			}
		})
	}
}

func TestRenderSingleBandAllowed(t *testing.T) {
	out, err := Render(grayRow(0, 255), staticBands{{Low: 0, High: 255, Color: colorspace.Color{G: 7}}})
	require.NoError(t, err)
	expectColor(t, out.NRGBAAt(1, 0), color.NRGBA{G: 7, A: 255}, "single band")
}

func TestRenderImageConvertsToGray(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	out, err := RenderImage(src, bandset.New())
	require.NoError(t, err)
	expectColor(t, out.NRGBAAt(0, 0), color.NRGBA{B: 255, A: 255}, "black")
	expectColor(t, out.NRGBAAt(1, 0), color.NRGBA{R: 255, A: 255}, "white")
}

func TestRenderWithOptionsZeroGrainMatchesRender(t *testing.T) {
	img := grayRow(0, 50, 100, 150, 200, 250)
	plain, err := Render(img, bandset.New())
	require.NoError(t, err)

	opt, err := RenderWithOptions(img, bandset.New(), Options{Seed: 99})
	require.NoError(t, err)
	require.Equal(t, plain.Pix, opt.Pix)
}

func TestRenderNilInputs(t *testing.T) {
	_, err := Render(nil, bandset.New())
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = Render(grayRow(1), nil)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestRenderAfterAddsAndAdjustingLastBreak(t *testing.T) {
	bs := bandset.New()
	require.True(t, bs.AddColor())
	require.True(t, bs.AddColor())
	require.NoError(t, bs.SetColor(2, colorspace.Color{G: 255}))
	require.NoError(t, bs.SetColor(3, colorspace.Color{R: 255, G: 255, B: 255}))
	bs.AdjustSelected(10)

	values := make([]uint8, 256)
	for i := range values {
		values[i] = uint8(i)
	}
	out, err := Render(grayRow(values...), bs)
	require.NoError(t, err)

	expectColor(t, out.NRGBAAt(120, 0), color.NRGBA{B: 255, A: 255}, "gray 120")
	expectColor(t, out.NRGBAAt(253, 0), color.NRGBA{R: 255, A: 255}, "gray 253")
	expectColor(t, out.NRGBAAt(254, 0), color.NRGBA{G: 255, A: 255}, "gray 254")
	expectColor(t, out.NRGBAAt(255, 0), color.NRGBA{R: 255, G: 255, B: 255, A: 255}, "gray 255")
}
