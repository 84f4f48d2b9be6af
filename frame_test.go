package subrender

import "testing"

func newTestFrame(w, h int, fill byte) *VideoFrame {
	f := &VideoFrame{Width: w, Height: h, Data: make([]byte, w*h*4)}
	for i := range f.Data {
		f.Data[i] = fill
	}
	return f
}

// TestCompositeRGBAOpaque tests that a fully opaque premultiplied
// pixel replaces the destination.
func TestCompositeRGBAOpaque(t *testing.T) {
	frame := newTestFrame(2, 2, 0)
	res := &RenderResult{
		UseRGBA: true,
		RGBA: []RGBAImage{{
			W: 1, H: 1, Stride: 4,
			// Premultiplied red, alpha 255.
			RGBA: []byte{255, 0, 0, 255},
			DstX: 1, DstY: 0,
		}},
	}
	Composite(frame, res)

	// Frame is BGRA; pixel (1,0) starts at offset 4.
	if frame.Data[4] != 0 || frame.Data[5] != 0 || frame.Data[6] != 255 {
		t.Errorf("Expected pure red at (1,0), got BGR %v", frame.Data[4:7])
	}
	// Other pixels untouched.
	if frame.Data[0] != 0 || frame.Data[8] != 0 {
		t.Error("Expected pixels outside the image untouched")
	}
}

// TestCompositeRGBABlend tests the over blend with partial alpha.
func TestCompositeRGBABlend(t *testing.T) {
	frame := newTestFrame(1, 1, 100)
	res := &RenderResult{
		UseRGBA: true,
		RGBA: []RGBAImage{{
			W: 1, H: 1, Stride: 4,
			// 50% white, premultiplied: channel 128, alpha 128.
			RGBA: []byte{128, 128, 128, 128},
		}},
	}
	Composite(frame, res)

	// dst = src + dst*(255-128)/255 = 128 + 100*127/255 = 177
	for ch := 0; ch < 3; ch++ {
		if got := frame.Data[ch]; got != 177 {
			t.Errorf("Expected channel %d = 177 after blend, got %d", ch, got)
		}
	}
}

// TestCompositeAlphaMask tests the legacy colored alpha-mask path.
func TestCompositeAlphaMask(t *testing.T) {
	frame := newTestFrame(1, 1, 0)
	res := &RenderResult{
		Alpha: []AlphaImage{{
			W: 1, H: 1, Stride: 1,
			Bitmap: []byte{255},
			// Red, fully opaque (transparency byte 0).
			Color: 0xFF000000,
		}},
	}
	Composite(frame, res)

	if frame.Data[2] != 255 {
		t.Errorf("Expected red channel 255, got %d", frame.Data[2])
	}
	if frame.Data[0] != 0 || frame.Data[1] != 0 {
		t.Errorf("Expected blue/green 0, got %d/%d", frame.Data[0], frame.Data[1])
	}
}

// TestCompositeAlphaTransparency tests that the color's transparency
// byte scales the mask.
func TestCompositeAlphaTransparency(t *testing.T) {
	frame := newTestFrame(1, 1, 0)
	res := &RenderResult{
		Alpha: []AlphaImage{{
			W: 1, H: 1, Stride: 1,
			Bitmap: []byte{255},
			// White with transparency 255: fully invisible.
			Color: 0xFFFFFFFF,
		}},
	}
	Composite(frame, res)

	for ch := 0; ch < 3; ch++ {
		if frame.Data[ch] != 0 {
			t.Errorf("Expected fully transparent overlay to leave channel %d at 0, got %d", ch, frame.Data[ch])
		}
	}
}

// TestCompositeFlipped tests that a flipped frame writes rows bottom
// up.
func TestCompositeFlipped(t *testing.T) {
	frame := &VideoFrame{Width: 1, Height: 2, Flipped: true, Data: make([]byte, 8)}
	res := &RenderResult{
		UseRGBA: true,
		RGBA: []RGBAImage{{
			W: 1, H: 1, Stride: 4,
			RGBA: []byte{255, 255, 255, 255},
			DstY: 0, // picture top row
		}},
	}
	Composite(frame, res)

	// Picture row 0 lives in the second buffer row of a flipped frame.
	if frame.Data[4] != 255 {
		t.Error("Expected flipped frame to write the top picture row at the buffer bottom")
	}
	if frame.Data[0] != 0 {
		t.Error("Expected first buffer row untouched for a flipped frame")
	}
}

// TestCompositeRGBAPreferred tests that the RGBA list wins when both
// lists are present.
func TestCompositeRGBAPreferred(t *testing.T) {
	frame := newTestFrame(1, 1, 0)
	res := &RenderResult{
		UseRGBA: true,
		RGBA: []RGBAImage{{
			W: 1, H: 1, Stride: 4, RGBA: []byte{0, 255, 0, 255},
		}},
		Alpha: []AlphaImage{{
			W: 1, H: 1, Stride: 1, Bitmap: []byte{255}, Color: 0xFF000000,
		}},
	}
	Composite(frame, res)

	if frame.Data[2] != 0 || frame.Data[1] != 255 {
		t.Errorf("Expected the RGBA list to be composited, got BGR %v", frame.Data[0:3])
	}
}

// TestCompositeNil tests nil and empty argument handling.
func TestCompositeNil(t *testing.T) {
	Composite(nil, &RenderResult{})
	Composite(&VideoFrame{}, nil)
	Composite(newTestFrame(1, 1, 0), nil)
}
