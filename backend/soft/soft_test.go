package soft

import (
	"testing"

	"github.com/subgo/subrender/backend"
)

// fontlessBackend builds a soft backend that indexes no fonts, which
// exercises the image-only render path.
func fontlessBackend(t *testing.T) *Backend {
	t.Helper()
	b := New(Options{FontDirs: []string{t.TempDir()}})
	if err := b.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return b
}

const trackScript = `[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: 0,0:00:01.00,0:00:03.00,Default,,0,0,0,,first
Dialogue: 0,0:00:02.00,0:00:04.00,Default,,0,0,0,,second
`

// TestNewTrack tests script parsing into a track.
func TestNewTrack(t *testing.T) {
	b := fontlessBackend(t)
	tr, err := b.NewTrack([]byte(trackScript))
	if err != nil {
		t.Fatalf("NewTrack failed: %v", err)
	}
	defer tr.Close()

	track := tr.(*Track)
	if len(track.Events()) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(track.Events()))
	}
	if track.Events()[0].Text != "first" {
		t.Errorf("Expected first event text, got %q", track.Events()[0].Text)
	}
}

// TestRegisterImageValidation tests the registration input checks.
func TestRegisterImageValidation(t *testing.T) {
	b := fontlessBackend(t)
	r, err := b.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	defer r.Close()
	reg := r.(*Renderer)

	valid := make([]byte, 2*2*4)
	if err := reg.RegisterImage("a.png", 1, 2, 2, 8, valid); err != nil {
		t.Errorf("Expected valid registration to succeed, got %v", err)
	}

	cases := []struct {
		name                   string
		key                    string
		w, h, stride, buffered int
	}{
		{"empty key", "", 2, 2, 8, 16},
		{"zero width", "k", 0, 2, 8, 16},
		{"zero height", "k", 2, 0, 8, 16},
		{"stride too small", "k", 2, 2, 4, 16},
		{"short buffer", "k", 2, 2, 8, 8},
	}
	for _, c := range cases {
		err := reg.RegisterImage(c.key, 1, c.w, c.h, c.stride, make([]byte, c.buffered))
		if err == nil {
			t.Errorf("Expected %s to be rejected", c.name)
		}
	}
}

// TestRenderFrameImagePlacement tests that a registered image lands at
// its tag position, premultiplied.
func TestRenderFrameImagePlacement(t *testing.T) {
	b := fontlessBackend(t)
	tr, err := b.NewTrack([]byte(`[Events]
Dialogue: 0,0:00:01.00,0:00:03.00,Default,,0,0,0,,{\img(logo.png,10,20)}
`))
	if err != nil {
		t.Fatalf("NewTrack failed: %v", err)
	}
	rend, err := b.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	r := rend.(*Renderer)
	r.SetFrameSize(100, 100)
	r.SetStorageSize(100, 100)

	// 1x1 half-transparent red, straight alpha.
	if err := r.RegisterImage("logo.png", 1, 1, 1, 4, []byte{255, 0, 0, 128}); err != nil {
		t.Fatalf("RegisterImage failed: %v", err)
	}

	res, err := r.RenderFrame(tr, 2000)
	if err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	if !res.UseRGBA {
		t.Error("Expected the soft backend to emit the RGBA list")
	}
	if len(res.RGBA) != 1 {
		t.Fatalf("Expected 1 image, got %d", len(res.RGBA))
	}

	img := res.RGBA[0]
	if img.DstX != 10 || img.DstY != 20 {
		t.Errorf("Expected placement (10,20), got (%d,%d)", img.DstX, img.DstY)
	}
	// Premultiplied: 255*128/255 = 128.
	if img.RGBA[0] != 128 || img.RGBA[3] != 128 {
		t.Errorf("Expected premultiplied pixel {128,0,0,128}, got %v", img.RGBA[0:4])
	}
}

// TestRenderFrameTimeWindow tests event activation boundaries.
func TestRenderFrameTimeWindow(t *testing.T) {
	b := fontlessBackend(t)
	tr, err := b.NewTrack([]byte(`[Events]
Dialogue: 0,0:00:01.00,0:00:03.00,Default,,0,0,0,,{\img(logo.png)}
`))
	if err != nil {
		t.Fatalf("NewTrack failed: %v", err)
	}
	rend, _ := b.NewRenderer()
	r := rend.(*Renderer)
	r.SetFrameSize(100, 100)
	r.RegisterImage("logo.png", 1, 1, 1, 4, []byte{255, 255, 255, 255})

	cases := []struct {
		at   int64
		want int
	}{
		{999, 0},  // before start
		{1000, 1}, // inclusive start
		{2999, 1},
		{3000, 0}, // exclusive end
	}
	for _, c := range cases {
		res, err := r.RenderFrame(tr, c.at)
		if err != nil {
			t.Fatalf("RenderFrame(%d) failed: %v", c.at, err)
		}
		if len(res.RGBA) != c.want {
			t.Errorf("Expected %d images at %dms, got %d", c.want, c.at, len(res.RGBA))
		}
	}
}

// TestRenderFrameCropping tests clipping of out-of-bounds placements.
func TestRenderFrameCropping(t *testing.T) {
	b := fontlessBackend(t)
	tr, _ := b.NewTrack([]byte(`[Events]
Dialogue: 0,0:00:01.00,0:00:03.00,Default,,0,0,0,,{\img(a.png,-2,0)}{\img(b.png,500,0)}
`))
	rend, _ := b.NewRenderer()
	r := rend.(*Renderer)
	r.SetFrameSize(100, 100)

	pix := make([]byte, 4*4*4)
	r.RegisterImage("a.png", 1, 4, 4, 16, pix)
	r.RegisterImage("b.png", 1, 4, 4, 16, pix)

	res, err := r.RenderFrame(tr, 2000)
	if err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	// a.png is partially visible, b.png entirely off frame.
	if len(res.RGBA) != 1 {
		t.Fatalf("Expected 1 visible image, got %d", len(res.RGBA))
	}
	img := res.RGBA[0]
	if img.DstX != 0 || img.W != 2 {
		t.Errorf("Expected left-cropped image at x=0 width 2, got x=%d width %d", img.DstX, img.W)
	}
}

// TestClearImages tests that cleared images stop rendering.
func TestClearImages(t *testing.T) {
	b := fontlessBackend(t)
	tr, _ := b.NewTrack([]byte(`[Events]
Dialogue: 0,0:00:01.00,0:00:03.00,Default,,0,0,0,,{\img(a.png)}
`))
	rend, _ := b.NewRenderer()
	r := rend.(*Renderer)
	r.SetFrameSize(100, 100)
	r.RegisterImage("a.png", 1, 1, 1, 4, []byte{1, 2, 3, 255})

	r.ClearImages()
	res, _ := r.RenderFrame(tr, 2000)
	if len(res.RGBA) != 0 {
		t.Errorf("Expected no images after ClearImages, got %d", len(res.RGBA))
	}
}

// TestRenderFrameBadTrack tests track type validation.
func TestRenderFrameBadTrack(t *testing.T) {
	b := fontlessBackend(t)
	rend, _ := b.NewRenderer()
	r := rend.(*Renderer)

	if _, err := r.RenderFrame(nil, 0); err != backend.ErrBadTrack {
		t.Errorf("Expected ErrBadTrack for a foreign track, got %v", err)
	}
}
