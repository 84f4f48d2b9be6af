package tagimage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// encodePNG builds a PNG from an NRGBA image for decode tests.
func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// TestDecodePNGRoundTrip tests that a small PNG decodes to the exact
// RGBA bytes.
func TestDecodePNGRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	src.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255})
	src.SetNRGBA(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 128})

	img, err := Decode(encodePNG(t, src))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Width != 2 || img.Height != 2 {
		t.Fatalf("Expected 2x2, got %dx%d", img.Width, img.Height)
	}
	if img.Stride < 8 {
		t.Fatalf("Expected stride >= 8, got %d", img.Stride)
	}
	if len(img.RGBA) != img.Stride*img.Height {
		t.Fatalf("Expected %d pixel bytes, got %d", img.Stride*img.Height, len(img.RGBA))
	}

	px := func(x, y int) []byte {
		off := y*img.Stride + x*4
		return img.RGBA[off : off+4]
	}
	if got := px(0, 0); got[0] != 255 || got[1] != 0 || got[2] != 0 || got[3] != 255 {
		t.Errorf("Expected opaque red at (0,0), got %v", got)
	}
	if got := px(1, 0); got[1] != 255 || got[3] != 255 {
		t.Errorf("Expected opaque green at (1,0), got %v", got)
	}
	if got := px(1, 1); got[3] != 128 {
		t.Errorf("Expected straight alpha 128 preserved at (1,1), got %v", got)
	}
}

// TestDecodeOpaqueAlpha tests that sources without an alpha channel
// come out fully opaque.
func TestDecodeOpaqueAlpha(t *testing.T) {
	// JPEG has no alpha channel.
	src := image.NewYCbCr(image.Rect(0, 0, 3, 3), image.YCbCrSubsampleRatio444)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	img, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if a := img.RGBA[y*img.Stride+x*4+3]; a != 255 {
				t.Fatalf("Expected opaque alpha at (%d,%d), got %d", x, y, a)
			}
		}
	}
}

// TestDecodeErrors tests the failure paths.
func TestDecodeErrors(t *testing.T) {
	if _, err := Decode(nil); !errors.Is(err, ErrEmptyData) {
		t.Errorf("Expected ErrEmptyData for empty input, got %v", err)
	}
	if _, err := Decode([]byte("not an image")); err == nil {
		t.Error("Expected an error for garbage input")
	}
	// Truncated PNG: magic only.
	if _, err := Decode([]byte("\x89PNG\r\n\x1a\n")); err == nil {
		t.Error("Expected an error for a truncated container")
	}
}

// TestDecodeReference tests reference metadata filling.
func TestDecodeReference(t *testing.T) {
	data := encodePNG(t, image.NewNRGBA(image.Rect(0, 0, 1, 1)))

	img, err := DecodeReference(`pics/Logo.PNG`, data)
	if err != nil {
		t.Fatalf("DecodeReference failed: %v", err)
	}
	if img.Key != "pics/Logo.PNG" {
		t.Errorf("Expected key preserved as given, got %q", img.Key)
	}
	if img.BasenameLower != "logo.png" {
		t.Errorf("Expected case-folded basename, got %q", img.BasenameLower)
	}
	if img.Format != FormatPNG {
		t.Errorf("Expected FormatPNG, got %v", img.Format)
	}

	// Unsupported extension fails before any decoding.
	if _, err := DecodeReference("a.gif", data); err == nil {
		t.Error("Expected an error for an unsupported extension")
	}
}
