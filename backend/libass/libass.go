//go:build linux || darwin

// Package libass renders subtitles through a dynamically loaded
// native library. The library is probed at Init time; when it or a
// required symbol is missing the backend reports itself unavailable
// and the registry falls through to the next backend.
//
// Two API levels exist in the wild. Core builds render text only;
// extended builds additionally export a tag-image registration API.
// The probe distinguishes the two and degrades gracefully: on a core
// build image registration becomes a once-logged no-op.
package libass

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/subgo/subrender"
	"github.com/subgo/subrender/backend"
	"github.com/subgo/subrender/tagimage"
)

func init() {
	backend.Register(backend.NameLibass, func() backend.Backend {
		return &Backend{}
	})
}

// assImage mirrors the library's legacy image node: a monochrome
// bitmap plus an RGBT color, linked into a list that stays valid only
// until the next render call.
type assImage struct {
	W, H, Stride int32
	_            int32
	Bitmap       *byte
	Color        uint32
	DstX, DstY   int32
	Next         *assImage
	Type         int32
	_            int32
}

// Backend renders through the dynamic library.
type Backend struct{}

func (*Backend) Name() string { return backend.NameLibass }

// Init probes the library. It is cheap after the first call; the
// process-wide handle is shared by every Backend value.
func (*Backend) Init() error {
	if err := ensureAPI(); err != nil {
		return fmt.Errorf("%w: %v", backend.ErrBackendNotAvailable, err)
	}
	return nil
}

var primeOnce sync.Once

// PrimeFonts warms the library's font index in the background by
// rendering a dummy track, so the first real render does not pay for
// the index build.
func (*Backend) PrimeFonts() {
	primeOnce.Do(func() {
		go func() {
			if ensureAPI() != nil {
				return
			}
			globalMu.Lock()
			defer globalMu.Unlock()

			r := api.rendererInit(library)
			if r == 0 {
				return
			}
			api.setFonts(r, "", "Sans", 1, "", 1)
			script := []byte("[Events]\nDialogue: ,0:00:00.00,0:00:05.00,Default,,0,0,0,,warmup\n")
			if t := api.readMemory(library, &script[0], uintptr(len(script)), nil); t != 0 {
				api.setFrameSize(r, 64, 64)
				var changed int32
				api.renderFrame(r, t, 0, &changed)
				api.freeTrack(t)
			}
			api.rendererDone(r)
			subrender.Logger().Debug("font index primed")
		}()
	})
}

// NewTrack parses subtitle data into a native track.
func (*Backend) NewTrack(data []byte) (backend.Track, error) {
	if err := ensureAPI(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, backend.ErrBadTrack
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	t := api.readMemory(library, &data[0], uintptr(len(data)), nil)
	if t == 0 {
		return nil, fmt.Errorf("%w: track rejected by parser", backend.ErrBadTrack)
	}
	return &Track{ptr: t}, nil
}

// NewRenderer creates a renderer bound to the process-wide library
// handle, with font autodetection enabled.
func (*Backend) NewRenderer() (backend.Renderer, error) {
	if err := ensureAPI(); err != nil {
		return nil, err
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	r := api.rendererInit(library)
	if r == 0 {
		return nil, fmt.Errorf("libass: renderer initialization failed")
	}
	api.setFontScale(r, 1.0)
	api.setFonts(r, "", "Sans", 1, "", 1)
	core := &Renderer{ptr: r}
	if api.capability == CapabilityTagImages {
		return &TagRenderer{Renderer: core}, nil
	}
	return core, nil
}

// Track wraps a native subtitle track.
type Track struct {
	ptr uintptr
}

func (t *Track) Close() {
	if t.ptr == 0 {
		return
	}
	globalMu.Lock()
	api.freeTrack(t.ptr)
	globalMu.Unlock()
	t.ptr = 0
}

// Renderer is the core-capability renderer. It produces legacy
// alpha-mask lists and does not accept image registration.
type Renderer struct {
	ptr uintptr
}

func (r *Renderer) SetFrameSize(w, h int) {
	globalMu.Lock()
	api.setFrameSize(r.ptr, int32(w), int32(h))
	globalMu.Unlock()
}

func (r *Renderer) SetStorageSize(w, h int) {
	globalMu.Lock()
	api.setStorageSize(r.ptr, int32(w), int32(h))
	globalMu.Unlock()
}

// RenderFrame renders the track at the given time. The native list is
// only valid until the next call into the library, so bitmaps are
// copied out under the lock.
func (r *Renderer) RenderFrame(track backend.Track, timeMillis int64) (*subrender.RenderResult, error) {
	t, ok := track.(*Track)
	if !ok || t.ptr == 0 {
		return nil, backend.ErrBadTrack
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	var changed int32
	head := api.renderFrame(r.ptr, t.ptr, timeMillis, &changed)
	res := &subrender.RenderResult{}
	for p := (*assImage)(unsafe.Pointer(head)); p != nil; p = p.Next {
		if p.W <= 0 || p.H <= 0 {
			continue
		}
		n := int(p.Stride) * int(p.H)
		bitmap := make([]byte, n)
		copy(bitmap, unsafe.Slice(p.Bitmap, n))
		res.Alpha = append(res.Alpha, subrender.AlphaImage{
			W:      int(p.W),
			H:      int(p.H),
			Stride: int(p.Stride),
			Bitmap: bitmap,
			Color:  p.Color,
			DstX:   int(p.DstX),
			DstY:   int(p.DstY),
		})
	}
	return res, nil
}

func (r *Renderer) Close() {
	if r.ptr == 0 {
		return
	}
	globalMu.Lock()
	api.rendererDone(r.ptr)
	globalMu.Unlock()
	r.ptr = 0
}

// TagRenderer extends Renderer with the tag-image registration API.
// It is returned only when the probe resolved the optional symbols,
// so registrars see the registration surface exactly when the library
// supports it.
type TagRenderer struct {
	*Renderer
}

// ClearImages drops every registered image from the renderer.
func (r *TagRenderer) ClearImages() {
	globalMu.Lock()
	api.clearTagImages(r.ptr)
	globalMu.Unlock()
}

// RegisterImage implements tagimage.Target, handing decoded RGBA
// pixels to the renderer under the given key.
func (r *TagRenderer) RegisterImage(key string, format tagimage.Format, width, height, stride int, rgba []byte) error {
	if key == "" || width <= 0 || height <= 0 || len(rgba) < stride*height {
		return backend.ErrBadTrack
	}
	globalMu.Lock()
	rc := api.setTagImageRGBA(r.ptr, key, nativeFormat(format), int32(width), int32(height), int32(stride), &rgba[0])
	globalMu.Unlock()
	if rc != 0 {
		return fmt.Errorf("libass: image registration failed for %q (code %d)", key, rc)
	}
	return nil
}

func nativeFormat(format tagimage.Format) int32 {
	switch format {
	case tagimage.FormatPNG:
		return tagImagePNG
	case tagimage.FormatJPEG:
		return tagImageJPEG
	case tagimage.FormatWEBP:
		return tagImageWEBP
	default:
		return 0
	}
}
