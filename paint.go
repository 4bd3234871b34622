package flicker

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/math/f64"
)

// paintBounds is the nominal extent of procedural paint images.
var paintBounds = image.Rect(-1<<24, -1<<24, 1<<24, 1<<24)

// paintSource returns a premultiplied image in device coordinates that
// paints f under the shape matrix m and color transform ct.
func paintSource(f *FillStyle, m Matrix, ct ColorTransform) image.Image {
	switch f.Kind {
	case FillLinearGradient, FillRadialGradient:
		if f.Gradient == nil || len(f.Gradient.Stops) == 0 {
			return image.Transparent
		}
		return newGradientPaint(f, m, ct)
	case FillBitmap:
		if f.Bitmap == nil || f.Bitmap.pixels() == nil {
			return image.Transparent
		}
		return newBitmapPaint(f.Bitmap, m, ct)
	default:
		return image.NewUniform(premultiply(ct.Apply(f.Color)))
	}
}

// toAff3 converts an affine matrix to the x/image layout.
func toAff3(m Matrix) f64.Aff3 {
	return f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
}

// gradientPaint evaluates a gradient through a 256-entry color ramp.
type gradientPaint struct {
	inv    f64.Aff3
	radial bool
	focal  float64
	spread SpreadMode
	ramp   [256]color.RGBA
}

func newGradientPaint(f *FillStyle, m Matrix, ct ColorTransform) *gradientPaint {
	g := f.Gradient
	inv, _ := ConcatMatrix(m, g.Matrix).Invert()
	p := &gradientPaint{
		inv:    toAff3(inv),
		radial: f.Kind == FillRadialGradient,
		focal:  math.Max(-1, math.Min(1, g.FocalPoint)),
		spread: g.Spread,
	}
	buildRamp(&p.ramp, g.Stops, ct)
	return p
}

// buildRamp samples stops at 256 evenly spaced ratios.
func buildRamp(ramp *[256]color.RGBA, stops []GradientStop, ct ColorTransform) {
	for i := range ramp {
		ramp[i] = premultiply(ct.Apply(sampleStops(stops, float64(i)/255)))
	}
}

func sampleStops(stops []GradientStop, t float64) color.NRGBA {
	if t <= stops[0].Ratio {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t <= b.Ratio {
			span := b.Ratio - a.Ratio
			if span <= 0 {
				return b.Color
			}
			return lerpColor(a.Color, b.Color, (t-a.Ratio)/span)
		}
	}
	return stops[len(stops)-1].Color
}

func (p *gradientPaint) ColorModel() color.Model { return color.RGBAModel }
func (p *gradientPaint) Bounds() image.Rectangle { return paintBounds }

func (p *gradientPaint) At(x, y int) color.Color {
	px, py := float64(x)+0.5, float64(y)+0.5
	gx := p.inv[0]*px + p.inv[1]*py + p.inv[2]
	gy := p.inv[3]*px + p.inv[4]*py + p.inv[5]
	var t float64
	switch {
	case !p.radial:
		t = (gx + gradientHalfSize) / (2 * gradientHalfSize)
	case p.focal == 0:
		t = math.Hypot(gx, gy) / gradientHalfSize
	default:
		t = focalRatio(gx/gradientHalfSize, gy/gradientHalfSize, p.focal)
	}
	t = p.spread.clamp(t)
	return p.ramp[int(math.Round(t*255))]
}

// focalRatio returns the gradient ratio of (x, y) in the unit circle for a
// focus at (f, 0): the fraction of the way from the focus to the circle
// along the ray through the point.
func focalRatio(x, y, f float64) float64 {
	dx, dy := x-f, y
	dd := dx*dx + dy*dy
	if dd == 0 {
		return 0
	}
	fd := f * dx
	disc := fd*fd - dd*(f*f-1)
	if disc < 0 {
		return 1
	}
	s := (-fd + math.Sqrt(disc)) / dd
	if s <= 0 {
		return 1
	}
	return 1 / s
}

// clamp maps t into [0, 1] by the spread rule.
func (s SpreadMode) clamp(t float64) float64 {
	if t >= 0 && t <= 1 {
		return t
	}
	if math.IsNaN(t) {
		return 0
	}
	switch s {
	case SpreadRepeat:
		return t - math.Floor(t)
	case SpreadReflect:
		t = math.Abs(t)
		if int64(t)&1 == 0 {
			return t - math.Floor(t)
		}
		return math.Ceil(t) - t
	default:
		return math.Max(0, math.Min(1, t))
	}
}

// bitmapPaint samples a bitmap fill through the inverse placement.
type bitmapPaint struct {
	src    *image.RGBA
	inv    f64.Aff3
	repeat bool
	smooth bool
}

func newBitmapPaint(b *BitmapFill, m Matrix, ct ColorTransform) *bitmapPaint {
	inv, _ := ConcatMatrix(m, b.Matrix).Invert()
	src := b.pixels()
	if !ct.IsIdentity() {
		src = colorizeRGBA(src, ct)
	}
	return &bitmapPaint{src: src, inv: toAff3(inv), repeat: b.Repeat, smooth: b.Smooth}
}

func (p *bitmapPaint) ColorModel() color.Model { return color.RGBAModel }
func (p *bitmapPaint) Bounds() image.Rectangle { return paintBounds }

func (p *bitmapPaint) At(x, y int) color.Color {
	px, py := float64(x)+0.5, float64(y)+0.5
	u := p.inv[0]*px + p.inv[1]*py + p.inv[2]
	v := p.inv[3]*px + p.inv[4]*py + p.inv[5]
	if !p.smooth {
		return p.texel(int(math.Floor(u)), int(math.Floor(v)))
	}
	u -= 0.5
	v -= 0.5
	x0, y0 := math.Floor(u), math.Floor(v)
	fx, fy := u-x0, v-y0
	ix, iy := int(x0), int(y0)
	c00, c10 := p.texel(ix, iy), p.texel(ix+1, iy)
	c01, c11 := p.texel(ix, iy+1), p.texel(ix+1, iy+1)
	mix := func(a, b, c, d uint8) uint8 {
		top := float64(a)*(1-fx) + float64(b)*fx
		bot := float64(c)*(1-fx) + float64(d)*fx
		return uint8(top*(1-fy) + bot*fy + 0.5)
	}
	return color.RGBA{
		R: mix(c00.R, c10.R, c01.R, c11.R),
		G: mix(c00.G, c10.G, c01.G, c11.G),
		B: mix(c00.B, c10.B, c01.B, c11.B),
		A: mix(c00.A, c10.A, c01.A, c11.A),
	}
}

// texel reads a pixel, wrapping or clamping out-of-range coordinates.
func (p *bitmapPaint) texel(x, y int) color.RGBA {
	r := p.src.Rect
	w, h := r.Dx(), r.Dy()
	if w == 0 || h == 0 {
		return color.RGBA{}
	}
	x -= r.Min.X
	y -= r.Min.Y
	if p.repeat {
		x = ((x % w) + w) % w
		y = ((y % h) + h) % h
	} else {
		x = max(0, min(x, w-1))
		y = max(0, min(y, h-1))
	}
	return p.src.RGBAAt(r.Min.X+x, r.Min.Y+y)
}

// colorizeRGBA returns a copy of src with ct applied to every pixel.
func colorizeRGBA(src *image.RGBA, ct ColorTransform) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	applyColorTransform(dst, ct)
	return dst
}

// applyColorTransform transforms a premultiplied image in place.
func applyColorTransform(img *image.RGBA, ct ColorTransform) {
	if ct.IsIdentity() {
		return
	}
	for i := 0; i+3 < len(img.Pix); i += 4 {
		p := img.Pix[i : i+4 : i+4]
		c := ct.Apply(unpremultiply(color.RGBA{p[0], p[1], p[2], p[3]}))
		pc := premultiply(c)
		p[0], p[1], p[2], p[3] = pc.R, pc.G, pc.B, pc.A
	}
}

// unpremultiply converts a premultiplied color to straight alpha.
func unpremultiply(c color.RGBA) color.NRGBA {
	switch c.A {
	case 0:
		return color.NRGBA{}
	case 255:
		return color.NRGBA{c.R, c.G, c.B, 255}
	}
	a := uint32(c.A)
	return color.NRGBA{
		R: uint8(min(255, (uint32(c.R)*255+a/2)/a)),
		G: uint8(min(255, (uint32(c.G)*255+a/2)/a)),
		B: uint8(min(255, (uint32(c.B)*255+a/2)/a)),
		A: c.A,
	}
}
