package subrender

// VideoFrame is a host-owned BGRA8 pixel buffer that subtitles are
// composited onto in place. Data is row-major with a stride of
// Width*4 bytes. When Flipped is set the first row in Data is the
// bottom row of the picture.
type VideoFrame struct {
	Width   int
	Height  int
	Flipped bool
	Data    []byte
}

// AlphaImage is a rendered monochrome glyph run: an alpha mask plus a
// packed fill color, the legacy renderer output form.
type AlphaImage struct {
	W, H   int
	Stride int    // bytes per mask row
	Bitmap []byte // W×H coverage values, Stride apart
	// Color is packed RGBA: red in the top byte, transparency (not
	// opacity) in the low byte.
	Color      uint32
	DstX, DstY int
}

// RGBAImage is a rendered full-color image with premultiplied alpha.
type RGBAImage struct {
	W, H       int
	Stride     int // bytes per pixel row, >= W*4
	RGBA       []byte
	DstX, DstY int
}

// RenderResult is the output of rendering one frame: either a list of
// premultiplied RGBA images or the legacy colored alpha-mask list.
// UseRGBA selects which list the compositor consumes.
type RenderResult struct {
	UseRGBA bool
	RGBA    []RGBAImage
	Alpha   []AlphaImage
}

// Composite alpha-blends a render result onto the frame in place.
//
// Placement is taken as-is: images positioned out of bounds are the
// renderer's responsibility and are not validated here.
func Composite(frame *VideoFrame, res *RenderResult) {
	if frame == nil || res == nil || len(frame.Data) == 0 {
		return
	}

	if res.UseRGBA && len(res.RGBA) > 0 {
		for i := range res.RGBA {
			compositeRGBA(frame, &res.RGBA[i])
		}
		return
	}
	for i := range res.Alpha {
		compositeAlpha(frame, &res.Alpha[i])
	}
}

// frameRow returns the byte offset of picture row y, honoring Flipped.
func frameRow(frame *VideoFrame, y int) int {
	if frame.Flipped {
		y = frame.Height - 1 - y
	}
	return y * frame.Width * 4
}

// compositeRGBA blends one premultiplied RGBA image over the BGRA frame.
func compositeRGBA(frame *VideoFrame, img *RGBAImage) {
	for y := 0; y < img.H; y++ {
		src := img.RGBA[y*img.Stride:]
		dst := frame.Data[frameRow(frame, img.DstY+y)+img.DstX*4:]
		for x := 0; x < img.W; x++ {
			sr := uint32(src[x*4+0])
			sg := uint32(src[x*4+1])
			sb := uint32(src[x*4+2])
			inv := 255 - uint32(src[x*4+3])

			d := dst[x*4 : x*4+4 : x*4+4]
			d[0] = byte(sb + uint32(d[0])*inv/255)
			d[1] = byte(sg + uint32(d[1])*inv/255)
			d[2] = byte(sr + uint32(d[2])*inv/255)
			d[3] = 0
		}
	}
}

// compositeAlpha blends one colored alpha mask over the BGRA frame.
func compositeAlpha(frame *VideoFrame, img *AlphaImage) {
	opacity := 255 - (img.Color & 0xFF)
	r := (img.Color >> 24) & 0xFF
	g := (img.Color >> 16) & 0xFF
	b := (img.Color >> 8) & 0xFF

	for y := 0; y < img.H; y++ {
		src := img.Bitmap[y*img.Stride:]
		dst := frame.Data[frameRow(frame, img.DstY+y)+img.DstX*4:]
		for x := 0; x < img.W; x++ {
			k := uint32(src[x]) * opacity / 255
			ck := 255 - k

			d := dst[x*4 : x*4+4 : x*4+4]
			d[0] = byte((k*b + ck*uint32(d[0])) / 255)
			d[1] = byte((k*g + ck*uint32(d[1])) / 255)
			d[2] = byte((k*r + ck*uint32(d[2])) / 255)
			d[3] = 0
		}
	}
}
