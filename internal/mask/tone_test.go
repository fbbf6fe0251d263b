package mask

import (
	"image"
	"image/color"
	"testing"
)

func grayRamp() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(y*16 + x)})
		}
	}
	return img
}

func TestRangeMaskInclusive(t *testing.T) {
	img := grayRamp()

	m := RangeMask(img, 120, 130)
	for v := 0; v < 256; v++ {
		x, y := v%16, v/16
		got := m.GrayAt(x, y).Y
		want := Cleared
		if v >= 120 && v <= 130 {
			want = Selected
		}
		if got != want {
			t.Fatalf("value %d: expected %d, got %d", v, want, got)
		}
	}

	if n := Count(m); n != 11 {
		t.Fatalf("expected 11 selected pixels, got %d", n)
	}
}

func TestRangeMaskExtremes(t *testing.T) {
	img := grayRamp()

	if n := Count(RangeMask(img, 0, 255)); n != 256 {
		t.Fatalf("full range should select every pixel, got %d", n)
	}
	if n := Count(RangeMask(img, 0, 0)); n != 1 {
		t.Fatalf("[0,0] should select one pixel, got %d", n)
	}
	if n := Count(RangeMask(img, 255, 255)); n != 1 {
		t.Fatalf("[255,255] should select one pixel, got %d", n)
	}
	if n := Count(RangeMask(img, 10, 9)); n != 0 {
		t.Fatalf("inverted range should select nothing, got %d", n)
	}
}

func TestToGray(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{A: 255})

	g := ToGray(src)
	if g.Bounds() != image.Rect(0, 0, 2, 1) {
		t.Fatalf("unexpected bounds %v", g.Bounds())
	}
	if got := g.GrayAt(0, 0).Y; got != 255 {
		t.Fatalf("white should stay 255, got %d", got)
	}
	if got := g.GrayAt(1, 0).Y; got != 0 {
		t.Fatalf("black should stay 0, got %d", got)
	}
}

func TestToGrayPassesThroughGray(t *testing.T) {
	img := grayRamp()
	if ToGray(img) != img {
		t.Fatal("expected *image.Gray at origin to be returned unchanged")
	}
}

func TestToGrayRebasesOrigin(t *testing.T) {
	img := image.NewGray(image.Rect(5, 5, 8, 7))
	img.SetGray(5, 5, color.Gray{Y: 200})

	g := ToGray(img)
	if g.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("expected rebased bounds, got %v", g.Bounds())
	}
	if got := g.GrayAt(0, 0).Y; got != 200 {
		t.Fatalf("expected 200 at origin, got %d", got)
	}
}

func TestHistogram(t *testing.T) {
	hist := Histogram(grayRamp())
	for v, n := range hist {
		if n != 1 {
			t.Fatalf("value %d: expected count 1, got %d", v, n)
		}
	}
}
