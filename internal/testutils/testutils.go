// Package testutils provides image fixtures, fake collaborators and clocks for tests
package testutils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// SolidImage returns a w×h image filled with c
func SolidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// GradientImage returns a w×h image whose pixels are all distinct enough to make
// crops distinguishable.
func GradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 11), B: uint8((x + y) * 3), A: 255})
		}
	}
	return img
}

// WithChangedPixels returns a copy of img where the first n pixels (row-major)
// have their red channel inverted.
func WithChangedPixels(img *image.NRGBA, n int) *image.NRGBA {
	out := image.NewNRGBA(img.Bounds())
	copy(out.Pix, img.Pix)

	b := out.Bounds()
	changed := 0
	for y := b.Min.Y; y < b.Max.Y && changed < n; y++ {
		for x := b.Min.X; x < b.Max.X && changed < n; x++ {
			c := out.NRGBAAt(x, y)
			c.R = 255 - c.R
			out.SetNRGBA(x, y, c)
			changed++
		}
	}
	return out
}

// EncodePNG encodes img as PNG
func EncodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// WritePNG writes img to path, creating parent directories
func WritePNG(t testing.TB, path string, img image.Image) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, EncodePNG(t, img), 0644))
}

// ReadPNG decodes the PNG at path
func ReadPNG(t testing.TB, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

// FakeCapturer serves a fixed frame and element bounds
type FakeCapturer struct {
	Frame      []byte
	Elements   map[string]image.Rectangle
	CaptureErr error

	mu       sync.Mutex
	captures int
}

// NewFakeCapturer creates a capturer returning img as PNG
func NewFakeCapturer(t testing.TB, img image.Image) *FakeCapturer {
	return &FakeCapturer{Frame: EncodePNG(t, img), Elements: map[string]image.Rectangle{}}
}

// CaptureSurface returns the configured frame
func (f *FakeCapturer) CaptureSurface(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captures++
	if f.CaptureErr != nil {
		return nil, f.CaptureErr
	}
	return append([]byte(nil), f.Frame...), nil
}

// ElementBounds returns the configured rectangle for selector
func (f *FakeCapturer) ElementBounds(ctx context.Context, selector string) (image.Rectangle, error) {
	r, ok := f.Elements[selector]
	if !ok {
		return image.Rectangle{}, os.ErrNotExist
	}
	return r, nil
}

// Captures returns how many frames were taken
func (f *FakeCapturer) Captures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.captures
}

// FilesUnder lists regular files below root, relative to it
func FilesUnder(t testing.TB, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	return files
}
