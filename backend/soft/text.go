package soft

import (
	"image"
	"image/draw"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// textRenderer shapes and rasterizes one line of dialogue text at a
// time. It owns mutable shaper and sfnt state and is confined to one
// Renderer.
type textRenderer struct {
	font   *loadedFont
	shaper shaping.HarfbuzzShaper
	buf    sfnt.Buffer
}

func newTextRenderer(f *loadedFont) *textRenderer {
	return &textRenderer{font: f}
}

// renderLine shapes text at the given pixel size and rasterizes the
// shaped glyphs into a white premultiplied RGBA image. Returns nil
// when there is nothing to draw (no font, empty shape output).
func (t *textRenderer) renderLine(text string, size float64) *rendered {
	if t.font == nil || text == "" {
		return nil
	}

	runes := []rune(text)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      font.NewFace(t.font.shape),
		Size:      fixed.Int26_6(size * 64),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}
	out := t.shaper.Shape(input)
	if len(out.Glyphs) == 0 {
		return nil
	}

	ascent := out.LineBounds.Ascent
	descent := out.LineBounds.Descent // negative below the baseline

	var width fixed.Int26_6
	for _, g := range out.Glyphs {
		width += g.XAdvance
	}

	w := (width + 63).Ceil() + 2
	h := (ascent - descent + 63).Ceil() + 2
	if w <= 0 || h <= 0 {
		return nil
	}

	rast := vector.NewRasterizer(w, h)
	rast.DrawOp = draw.Src

	baseline := float32(ascent.Round())
	var pen fixed.Int26_6
	ppem := fixed.Int26_6(size * 64)

	for _, g := range out.Glyphs {
		segs, err := t.font.outline.LoadGlyph(&t.buf, sfnt.GlyphIndex(g.GlyphID), ppem, nil)
		if err == nil && len(segs) > 0 {
			gx := float32((pen + g.XOffset).Round())
			gy := baseline - float32(g.YOffset.Round())
			traceSegments(rast, segs, gx, gy)
		}
		pen += g.XAdvance
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	rast.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	return maskToWhite(mask)
}

// traceSegments replays sfnt glyph segments into the rasterizer.
// Segment coordinates are 26.6 pixels relative to the glyph origin,
// with Y growing downward.
func traceSegments(rast *vector.Rasterizer, segs sfnt.Segments, dx, dy float32) {
	px := func(p fixed.Point26_6) (float32, float32) {
		return dx + float32(p.X)/64, dy + float32(p.Y)/64
	}
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			x, y := px(seg.Args[0])
			rast.MoveTo(x, y)
		case sfnt.SegmentOpLineTo:
			x, y := px(seg.Args[0])
			rast.LineTo(x, y)
		case sfnt.SegmentOpQuadTo:
			cx, cy := px(seg.Args[0])
			x, y := px(seg.Args[1])
			rast.QuadTo(cx, cy, x, y)
		case sfnt.SegmentOpCubeTo:
			c1x, c1y := px(seg.Args[0])
			c2x, c2y := px(seg.Args[1])
			x, y := px(seg.Args[2])
			rast.CubeTo(c1x, c1y, c2x, c2y, x, y)
		}
	}
	rast.ClosePath()
}

// rendered is a rasterized line ready for placement.
type rendered struct {
	W, H   int
	Stride int
	RGBA   []byte
}

// maskToWhite converts an alpha mask into premultiplied white RGBA.
func maskToWhite(mask *image.Alpha) *rendered {
	w := mask.Bounds().Dx()
	h := mask.Bounds().Dy()
	out := &rendered{W: w, H: h, Stride: w * 4, RGBA: make([]byte, w*h*4)}
	for y := 0; y < h; y++ {
		src := mask.Pix[y*mask.Stride:]
		dst := out.RGBA[y*out.Stride:]
		for x := 0; x < w; x++ {
			a := src[x]
			dst[x*4+0] = a
			dst[x*4+1] = a
			dst[x*4+2] = a
			dst[x*4+3] = a
		}
	}
	return out
}

// detectScript returns the script of the first non-space rune,
// defaulting to Latin.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
