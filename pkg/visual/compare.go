package visual

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
)

// ComparisonResult holds the outcome of one pixel comparison
type ComparisonResult struct {
	DifferentPixels int
	TotalPixels     int

	// Percentage is DifferentPixels as a share of TotalPixels, 0..100
	Percentage float64
}

// Exceeds reports whether the result is over tolerance (in percent)
func (r ComparisonResult) Exceeds(tolerance float64) bool {
	return r.Percentage > tolerance
}

// Compare counts pixels whose NRGBA value differs between actual and baseline.
// Both images must have the same size.
func Compare(actual, baseline image.Image) (ComparisonResult, error) {
	a, b := toNRGBA(actual), toNRGBA(baseline)
	as, bs := a.Bounds().Size(), b.Bounds().Size()
	if as != bs {
		return ComparisonResult{}, &DimensionMismatchError{Actual: as, Baseline: bs}
	}

	total := as.X * as.Y
	diff := 0
	for y := 0; y < as.Y; y++ {
		ra := a.Pix[y*a.Stride : y*a.Stride+as.X*4]
		rb := b.Pix[y*b.Stride : y*b.Stride+as.X*4]
		if bytes.Equal(ra, rb) {
			continue
		}
		for x := 0; x < as.X*4; x += 4 {
			if ra[x] != rb[x] || ra[x+1] != rb[x+1] || ra[x+2] != rb[x+2] || ra[x+3] != rb[x+3] {
				diff++
			}
		}
	}

	result := ComparisonResult{DifferentPixels: diff, TotalPixels: total}
	if total > 0 {
		result.Percentage = float64(diff) * 100 / float64(total)
	}
	return result, nil
}

// DiffMask renders differing pixels in solid red over a dimmed greyscale copy of
// the baseline. The images must have the same size.
func DiffMask(actual, baseline image.Image) (*image.NRGBA, error) {
	a, b := toNRGBA(actual), toNRGBA(baseline)
	size := a.Bounds().Size()
	if size != b.Bounds().Size() {
		return nil, &DimensionMismatchError{Actual: size, Baseline: b.Bounds().Size()}
	}

	mask := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			ca := a.NRGBAAt(a.Rect.Min.X+x, a.Rect.Min.Y+y)
			cb := b.NRGBAAt(b.Rect.Min.X+x, b.Rect.Min.Y+y)
			if ca != cb {
				mask.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
				continue
			}
			// luma of the baseline at a third of its brightness
			grey := uint8((299*uint32(cb.R) + 587*uint32(cb.G) + 114*uint32(cb.B)) / 1000 / 3)
			mask.SetNRGBA(x, y, color.NRGBA{R: grey, G: grey, B: grey, A: 255})
		}
	}
	return mask, nil
}

// Crop copies the part of img inside rect into a new image anchored at 0,0
func Crop(img image.Image, rect image.Rectangle) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out
}

// DecodePNG decodes raster bytes
func DecodePNG(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode png: %w", err)
	}
	return img, nil
}

// EncodePNG encodes img as PNG
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// toNRGBA returns img as *image.NRGBA, converting when needed
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	bounds := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)
	return out
}
