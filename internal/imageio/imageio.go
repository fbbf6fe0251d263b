// Package imageio loads source photographs, fits them for preview and writes
// rendered posters.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/MeKo-Tech/posterize/internal/mask"
)

// DefaultJPEGQuality is used when saving .jpg/.jpeg outputs.
const DefaultJPEGQuality = 92

// ErrUnsupportedFormat is returned for output extensions that cannot be encoded.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Load decodes the image at path, honoring EXIF orientation.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	return img, nil
}

// Decode reads an image from r.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// LoadGray loads path and converts it to grayscale.
func LoadGray(path string) (*image.Gray, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	return mask.ToGray(img), nil
}

// Fit scales img down to fit inside maxWidth x maxHeight, keeping the aspect
// ratio. Images that already fit, or non-positive limits, are returned as is.
func Fit(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 && maxHeight <= 0 {
		return img
	}
	if maxWidth <= 0 {
		maxWidth = b.Dx()
	}
	if maxHeight <= 0 {
		maxHeight = b.Dy()
	}
	if b.Dx() <= maxWidth && b.Dy() <= maxHeight {
		return img
	}

	g := gift.New(gift.ResizeToFit(maxWidth, maxHeight, gift.LanczosResampling))
	dst := image.NewNRGBA(g.Bounds(b))
	g.Draw(dst, img)
	return dst
}

// FormatFromPath returns the encoder format for a file name.
func FormatFromPath(path string) (imaging.Format, error) {
	f, err := imaging.FormatFromFilename(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return f, nil
}

// ParseFormat maps a short name such as "png" or "jpeg" to an encoder format.
func ParseFormat(name string) (imaging.Format, error) {
	f, err := imaging.FormatFromExtension(strings.TrimPrefix(name, "."))
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	return f, nil
}

// Save writes img to path, choosing the encoder from the extension.
func Save(img image.Image, path string) error {
	if _, err := FormatFromPath(path); err != nil {
		return err
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(DefaultJPEGQuality)); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format imaging.Format) error {
	if err := imaging.Encode(w, img, format, imaging.JPEGQuality(DefaultJPEGQuality)); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// ContentType returns the MIME type for an encoder format.
func ContentType(format imaging.Format) string {
	switch format {
	case imaging.JPEG:
		return "image/jpeg"
	case imaging.GIF:
		return "image/gif"
	case imaging.TIFF:
		return "image/tiff"
	case imaging.BMP:
		return "image/bmp"
	default:
		return "image/png"
	}
}
