package flicker

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Canvas draws paths, bitmaps and layers onto a premultiplied RGBA surface
// in device coordinates. The surface's Rect may start anywhere; device
// points map straight to its pixels. A stack of alpha masks clips every
// drawing operation.
type Canvas struct {
	img   *image.RGBA
	ras   vector.Rasterizer
	cov   *image.Alpha
	clips []*image.Alpha
}

// NewCanvas wraps img.
func NewCanvas(img *image.RGBA) *Canvas {
	return &Canvas{img: img, cov: image.NewAlpha(img.Rect)}
}

// Image returns the target surface.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Bounds returns the target's pixel rectangle.
func (c *Canvas) Bounds() image.Rectangle { return c.img.Rect }

// Clear fills the surface with transparent black, ignoring clips.
func (c *Canvas) Clear() {
	clear(c.img.Pix)
}

// Fill paints the whole surface with col, ignoring clips.
func (c *Canvas) Fill(col color.RGBA) {
	draw.Draw(c.img, c.img.Rect, image.NewUniform(col), image.Point{}, draw.Src)
}

// --- Clipping ---

// PushClip intersects the current clip with the alpha channel of mask.
// Pixels outside mask's rectangle are clipped out.
func (c *Canvas) PushClip(mask *image.RGBA) {
	next := image.NewAlpha(c.img.Rect)
	top := c.Clip()
	r := mask.Rect.Intersect(c.img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		si := mask.PixOffset(r.Min.X, y)
		di := next.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x, si, di = x+1, si+4, di+1 {
			a := uint32(mask.Pix[si+3])
			if top != nil {
				a = a * uint32(top.Pix[top.PixOffset(x, y)]) / 255
			}
			next.Pix[di] = uint8(a)
		}
	}
	c.clips = append(c.clips, next)
}

// PopClip restores the previous clip. Popping an empty stack is a no-op.
func (c *Canvas) PopClip() {
	if len(c.clips) == 0 {
		return
	}
	c.clips[len(c.clips)-1] = nil
	c.clips = c.clips[:len(c.clips)-1]
}

// Clip returns the effective clip mask, or nil when unclipped.
func (c *Canvas) Clip() *image.Alpha {
	if len(c.clips) == 0 {
		return nil
	}
	return c.clips[len(c.clips)-1]
}

// ClipDepth returns the number of pushed clips.
func (c *Canvas) ClipDepth() int { return len(c.clips) }

// --- Paths ---

// DrawRecords fills then strokes every record under m and ct.
func (c *Canvas) DrawRecords(records []ShapeRecord, m Matrix, ct ColorTransform) {
	for i := range records {
		rec := &records[i]
		if rec.Fill != nil {
			c.FillPath(rec.Path, m, rec.Fill, ct)
		}
		if rec.Line != nil {
			c.StrokePath(rec.Path, m, rec.Line, ct)
		}
	}
}

// FillPath fills p, transformed by m, with f.
func (c *Canvas) FillPath(p Path, m Matrix, f *FillStyle, ct ColorTransform) {
	lines := flattenPath(p, m, flattenTolerance)
	mask, r := c.coverage(lines)
	if r.Empty() {
		return
	}
	draw.DrawMask(c.img, r, paintSource(f, m, ct), r.Min, mask, r.Min, draw.Over)
}

// StrokePath strokes p with ls. The outline is built in p's space and
// mapped through m so the stroke scales with the shape; hairlines stay one
// device pixel wide.
func (c *Canvas) StrokePath(p Path, m Matrix, ls *LineStyle, ct ColorTransform) {
	lines := strokeOutline(p, m, ls.Width)
	mask, r := c.coverage(lines)
	if r.Empty() {
		return
	}
	f := ls.Fill
	if f == nil {
		f = SolidFill(ls.Color)
	}
	draw.DrawMask(c.img, r, paintSource(f, m, ct), r.Min, mask, r.Min, draw.Over)
}

// strokeOutline returns device-space stroke polygons for p.
func strokeOutline(p Path, m Matrix, width float64) []polyline {
	local := flattenPath(p, IdentityMatrix, localTolerance(m))
	var out []polyline
	strokePolygons(local, strokeWidth(width, m), func(pts []Vec2) {
		dev := make([]Vec2, len(pts))
		for i, v := range pts {
			x, y := m.Apply(v.X, v.Y)
			dev[i] = Vec2{x, y}
		}
		out = append(out, polyline{pts: dev, closed: true})
	})
	return out
}

// coverage rasterizes closed polylines into the scratch mask, applies the
// clip, and returns the mask with the touched rectangle.
func (c *Canvas) coverage(lines []polyline) (*image.Alpha, image.Rectangle) {
	r := polylineBounds(lines).Intersect(c.img.Rect)
	if r.Empty() {
		return nil, r
	}
	c.ras.Reset(r.Dx(), r.Dy())
	c.ras.DrawOp = draw.Src
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	for _, l := range lines {
		c.ras.MoveTo(float32(l.pts[0].X-ox), float32(l.pts[0].Y-oy))
		for _, p := range l.pts[1:] {
			c.ras.LineTo(float32(p.X-ox), float32(p.Y-oy))
		}
		c.ras.ClosePath()
	}
	c.ras.Draw(c.cov, r, image.Opaque, image.Point{})
	if clip := c.Clip(); clip != nil {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			ci := c.cov.PixOffset(r.Min.X, y)
			ki := clip.PixOffset(r.Min.X, y)
			for x := r.Min.X; x < r.Max.X; x, ci, ki = x+1, ci+1, ki+1 {
				c.cov.Pix[ci] = uint8(uint32(c.cov.Pix[ci]) * uint32(clip.Pix[ki]) / 255)
			}
		}
	}
	return c.cov, r
}

// polylineBounds returns the integer rectangle covering every point.
func polylineBounds(lines []polyline) image.Rectangle {
	var b boundsBuilder
	for _, l := range lines {
		for _, p := range l.pts {
			if isFinite(p.X) && isFinite(p.Y) {
				b.add(p.X, p.Y)
			}
		}
	}
	if !b.any {
		return image.Rectangle{}
	}
	return pixelRect(b.rect())
}

// pixelRect rounds r outward to whole pixels.
func pixelRect(r Rect) image.Rectangle {
	const lim = 1 << 24
	clampI := func(v float64) int { return int(math.Max(-lim, math.Min(lim, v))) }
	return image.Rect(
		clampI(math.Floor(r.X)),
		clampI(math.Floor(r.Y)),
		clampI(math.Ceil(r.X+r.Width)),
		clampI(math.Ceil(r.Y+r.Height)),
	)
}

// --- Bitmaps and layers ---

// DrawImage draws src under m, which maps src's pixel coordinates to
// device space. Integer translations are copied exactly; everything else
// is resampled.
func (c *Canvas) DrawImage(src *image.RGBA, m Matrix, smooth bool) {
	if m.IsLinearIdentity() && m[4] == math.Trunc(m[4]) && m[5] == math.Trunc(m[5]) {
		at := src.Rect.Min.Add(image.Pt(int(m[4]), int(m[5])))
		compositeImage(c.img, src, at, OpSourceOver, 1, c.Clip())
		return
	}
	var interp draw.Interpolator = draw.NearestNeighbor
	if smooth {
		interp = draw.ApproxBiLinear
	}
	var opts *draw.Options
	if clip := c.Clip(); clip != nil {
		opts = &draw.Options{DstMask: clip, DstMaskP: image.Point{}}
	}
	interp.Transform(c.img, toAff3(m), src, src.Rect, draw.Over, opts)
}

// Composite merges src, whose top-left lands at at, with op and alpha.
func (c *Canvas) Composite(src *image.RGBA, at image.Point, op CompositeOp, alpha float64) {
	compositeImage(c.img, src, at, op, alpha, c.Clip())
}

// CompositeBlend merges a layer with a blend mode's compositing recipe.
func (c *Canvas) CompositeBlend(src *image.RGBA, at image.Point, mode BlendMode) {
	compositeBlend(c.img, src, at, mode, 1, c.Clip())
}
