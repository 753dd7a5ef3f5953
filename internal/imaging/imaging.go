// Package imaging turns uploaded pictures into the encoded bytes stored in the
// catalog.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension = 1024
	DefaultJPEGQuality  = 80
	DefaultMaxPixels    = 50_000_000
)

// ErrTooManyPixels matches every PixelLimitError via errors.Is.
var ErrTooManyPixels = errors.New("image has too many pixels")

// PixelLimitError reports an image whose declared dimensions exceed the
// configured pixel budget. It is returned before any pixel data is decoded.
type PixelLimitError struct {
	Width  int
	Height int
	Limit  int64
}

func (e *PixelLimitError) Error() string {
	return fmt.Sprintf("image is %dx%d, more than %d pixels", e.Width, e.Height, e.Limit)
}

func (e *PixelLimitError) Is(target error) bool {
	return target == ErrTooManyPixels
}

// Size is a target bounding box in pixels.
type Size struct {
	Width  int
	Height int
}

// Options controls Prepare.
type Options struct {
	Target    Size
	Quality   int
	MaxPixels int64 // width*height cap on input; zero means DefaultMaxPixels
}

// DefaultOptions returns a square bounding box of DefaultMaxDimension.
func DefaultOptions() Options {
	return Options{
		Target:    Size{Width: DefaultMaxDimension, Height: DefaultMaxDimension},
		Quality:   DefaultJPEGQuality,
		MaxPixels: DefaultMaxPixels,
	}
}

// Decode reads any registered image format.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// Fit scales img down to fit within target, keeping its aspect ratio. Images
// already inside the box are returned unchanged.
func Fit(img image.Image, target Size) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 || target.Width <= 0 || target.Height <= 0 {
		return img
	}
	if w <= target.Width && h <= target.Height {
		return img
	}

	scale := min(float64(target.Width)/float64(w), float64(target.Height)/float64(h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}

// EncodeJPEG encodes img at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// CheckPixels reads only the header of data and rejects images larger than
// maxPixels. A non-positive maxPixels means DefaultMaxPixels.
func CheckPixels(data []byte, maxPixels int64) error {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("decode image: invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width) > maxPixels/int64(cfg.Height) {
		return &PixelLimitError{Width: cfg.Width, Height: cfg.Height, Limit: maxPixels}
	}
	return nil
}

// Prepare reads r, fits it to opts.Target and encodes it as JPEG.
func Prepare(r io.Reader, opts Options) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return PrepareBytes(data, opts)
}

// PrepareBytes is Prepare for input already held in memory. The header is
// checked against opts.MaxPixels before the pixels are decoded.
func PrepareBytes(input []byte, opts Options) ([]byte, error) {
	if err := CheckPixels(input, opts.MaxPixels); err != nil {
		return nil, err
	}
	img, _, err := Decode(bytes.NewReader(input))
	if err != nil {
		return nil, err
	}
	data, err := EncodeJPEG(Fit(img, opts.Target), opts.Quality)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("encode jpeg: empty output")
	}
	return data, nil
}
