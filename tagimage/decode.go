package tagimage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strings"

	_ "image/jpeg" // register JPEG decoding
	_ "image/png"  // register PNG decoding

	_ "golang.org/x/image/webp" // register WEBP decoding
)

// Decode errors.
var (
	// ErrEmptyData is returned when the image data is empty.
	ErrEmptyData = errors.New("tagimage: empty data")

	// ErrBadDimensions is returned when a decoded image has a
	// non-positive width or height.
	ErrBadDimensions = errors.New("tagimage: bad image dimensions")
)

// Image is a decoded, registration-ready image payload.
type Image struct {
	// Key is the path or identifier the image is registered under. For
	// file images this is the resolved filesystem path, which can
	// differ from the reference string that produced it.
	Key string

	// BasenameLower is the case-folded filename, used for attachment
	// matching.
	BasenameLower string

	// Format is the format derived from the reference extension, not
	// from the decoded container.
	Format Format

	Width  int
	Height int
	Stride int // bytes per row, >= Width*4

	// RGBA holds Stride*Height bytes, top-to-bottom rows, four bytes
	// per pixel with un-premultiplied alpha in the fourth byte.
	RGBA []byte
}

// Decode decodes a supported container format into a fixed RGBA raster.
// Sources without an alpha channel come out fully opaque. Decode never
// returns an Image with invalid dimensions or a short pixel buffer.
func Decode(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("tagimage: decode: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, ErrBadDimensions
	}

	// NRGBA is exactly the registration wire format: interleaved
	// 8-bit RGBA, alpha straight (not premultiplied). The conversion
	// forces alpha to 255 for source models without an alpha channel.
	nrgba, ok := src.(*image.NRGBA)
	if !ok || bounds.Min != (image.Point{}) {
		converted := image.NewNRGBA(image.Rect(0, 0, width, height))
		draw.Draw(converted, converted.Bounds(), src, bounds.Min, draw.Src)
		nrgba = converted
	}

	if len(nrgba.Pix) != nrgba.Stride*height {
		nrgba.Pix = nrgba.Pix[:nrgba.Stride*height]
	}

	return &Image{
		Width:  width,
		Height: height,
		Stride: nrgba.Stride,
		RGBA:   nrgba.Pix,
	}, nil
}

// DecodeReference decodes data on behalf of a reference string, filling
// in the key, case-folded basename, and extension-derived format.
func DecodeReference(ref string, data []byte) (*Image, error) {
	format, ok := ParseFormat(ref)
	if !ok {
		return nil, fmt.Errorf("tagimage: %q: unsupported extension", ref)
	}

	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	img.Key = ref
	img.BasenameLower = strings.ToLower(Basename(ref))
	img.Format = format
	return img, nil
}
