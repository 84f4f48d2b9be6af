package soft

import (
	"github.com/subgo/subrender"
	"github.com/subgo/subrender/backend"
	"github.com/subgo/subrender/internal/assparse"
	"github.com/subgo/subrender/tagimage"
)

// regImage is one registered tag image. Pixel data is straight
// (un-premultiplied) RGBA exactly as registered.
type regImage struct {
	format tagimage.Format
	width  int
	height int
	stride int
	rgba   []byte
}

// Renderer is a soft renderer instance. It is confined to one
// provider and not safe for concurrent use.
type Renderer struct {
	b *Backend

	frameW, frameH     int
	storageW, storageH int

	images map[string]*regImage

	text *textRenderer
}

func newRenderer(b *Backend) *Renderer {
	return &Renderer{
		b:      b,
		images: make(map[string]*regImage),
		text:   newTextRenderer(b.defaultFont()),
	}
}

// SetFrameSize sets the output frame dimensions.
func (r *Renderer) SetFrameSize(width, height int) {
	r.frameW, r.frameH = width, height
}

// SetStorageSize sets the video storage dimensions.
func (r *Renderer) SetStorageSize(width, height int) {
	r.storageW, r.storageH = width, height
}

// Close releases the renderer instance.
func (r *Renderer) Close() {
	r.images = nil
}

// ClearImages implements tagimage.Target.
func (r *Renderer) ClearImages() {
	r.images = make(map[string]*regImage)
}

// RegisterImage implements tagimage.Target.
func (r *Renderer) RegisterImage(key string, format tagimage.Format, width, height, stride int, rgba []byte) error {
	if key == "" || width <= 0 || height <= 0 || stride < width*4 {
		return backend.ErrBadTrack
	}
	if len(rgba) < stride*height {
		return backend.ErrBadTrack
	}
	r.images[key] = &regImage{
		format: format,
		width:  width,
		height: height,
		stride: stride,
		rgba:   rgba,
	}
	return nil
}

// lookupImage finds a registered image for a tag argument, trying the
// stripped key then its double-quoted variant, the same two forms the
// registrar pushes.
func (r *Renderer) lookupImage(path string) *regImage {
	clean := tagimage.StripQuotes(path)
	if clean == "" {
		return nil
	}
	if img, ok := r.images[clean]; ok {
		return img
	}
	if img, ok := r.images[tagimage.Quote(clean)]; ok {
		return img
	}
	return nil
}

// RenderFrame renders every event active at timeMillis. Output is the
// RGBA image list; the soft backend never produces the legacy colored
// alpha-mask form.
func (r *Renderer) RenderFrame(track backend.Track, timeMillis int64) (*subrender.RenderResult, error) {
	t, ok := track.(*Track)
	if !ok {
		return nil, backend.ErrBadTrack
	}

	res := &subrender.RenderResult{UseRGBA: true}

	// Dialogue text stacks upward from the bottom margin.
	marginV := r.frameH / 24
	bottom := r.frameH - marginV

	for _, ev := range t.events {
		if timeMillis < ev.Start || timeMillis >= ev.End {
			continue
		}

		for _, p := range imgPlacements(ev.Text) {
			img := r.lookupImage(p.path)
			if img == nil {
				continue
			}
			r.appendImage(res, img, p.x, p.y)
		}

		visible := assparse.StripTags(ev.Text)
		if visible == "" {
			continue
		}
		line := r.text.renderLine(visible, r.fontSize())
		if line == nil {
			continue
		}
		x := (r.frameW - line.W) / 2
		y := bottom - line.H
		bottom = y - marginV/2
		r.appendCropped(res, &subrender.RGBAImage{
			W:      line.W,
			H:      line.H,
			Stride: line.Stride,
			RGBA:   line.RGBA,
		}, x, y)
	}

	return res, nil
}

// fontSize is derived from the frame height; the soft backend does not
// read style definitions.
func (r *Renderer) fontSize() float64 {
	size := float64(r.frameH) / 14
	if size < 12 {
		size = 12
	}
	return size
}

// appendImage premultiplies a registered image and appends it at the
// given placement.
func (r *Renderer) appendImage(res *subrender.RenderResult, img *regImage, x, y int) {
	out := subrender.RGBAImage{
		W:      img.width,
		H:      img.height,
		Stride: img.width * 4,
		RGBA:   make([]byte, img.width*img.height*4),
	}
	for row := 0; row < img.height; row++ {
		src := img.rgba[row*img.stride:]
		dst := out.RGBA[row*out.Stride:]
		for col := 0; col < img.width; col++ {
			a := uint32(src[col*4+3])
			dst[col*4+0] = byte(uint32(src[col*4+0]) * a / 255)
			dst[col*4+1] = byte(uint32(src[col*4+1]) * a / 255)
			dst[col*4+2] = byte(uint32(src[col*4+2]) * a / 255)
			dst[col*4+3] = byte(a)
		}
	}
	r.appendCropped(res, &out, x, y)
}

// appendCropped clips an image to the frame and appends it if anything
// remains visible. The compositor does no bounds checking; clipping
// here is the renderer's job.
func (r *Renderer) appendCropped(res *subrender.RenderResult, img *subrender.RGBAImage, x, y int) {
	cropX, cropY := 0, 0
	w, h := img.W, img.H

	if x < 0 {
		cropX = -x
		w -= cropX
		x = 0
	}
	if y < 0 {
		cropY = -y
		h -= cropY
		y = 0
	}
	if x+w > r.frameW {
		w = r.frameW - x
	}
	if y+h > r.frameH {
		h = r.frameH - y
	}
	if w <= 0 || h <= 0 {
		return
	}

	res.RGBA = append(res.RGBA, subrender.RGBAImage{
		W:      w,
		H:      h,
		Stride: img.Stride,
		RGBA:   img.RGBA[cropY*img.Stride+cropX*4:],
		DstX:   x,
		DstY:   y,
	})
}
