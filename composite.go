package flicker

import (
	"image"
	"math"
)

// CompositeOp is a compositing operator over premultiplied pixels. The
// Porter-Duff operators and the separable blend modes follow the canvas
// compositing model.
type CompositeOp uint8

const (
	OpSourceOver CompositeOp = iota
	OpSourceAtop
	OpDestinationOver
	OpDestinationOut
	OpDestinationIn
	OpXor
	OpLighter
	OpCopy
	OpMultiply
	OpScreen
	OpLighten
	OpDarken
	OpDifference
	OpOverlay
	OpHardLight
	OpColorBurn
	OpSubtract
	OpInvert
)

var compositeOpNames = [...]string{
	OpSourceOver:      "source-over",
	OpSourceAtop:      "source-atop",
	OpDestinationOver: "destination-over",
	OpDestinationOut:  "destination-out",
	OpDestinationIn:   "destination-in",
	OpXor:             "xor",
	OpLighter:         "lighter",
	OpCopy:            "copy",
	OpMultiply:        "multiply",
	OpScreen:          "screen",
	OpLighten:         "lighten",
	OpDarken:          "darken",
	OpDifference:      "difference",
	OpOverlay:         "overlay",
	OpHardLight:       "hard-light",
	OpColorBurn:       "color-burn",
	OpSubtract:        "subtract",
	OpInvert:          "invert",
}

func (op CompositeOp) String() string {
	if int(op) < len(compositeOpNames) {
		return compositeOpNames[op]
	}
	return "unknown"
}

// pixel is a premultiplied color with channels in [0, 1].
type pixel struct {
	r, g, b, a float64
}

func loadPixel(p []uint8) pixel {
	return pixel{
		r: float64(p[0]) / 255,
		g: float64(p[1]) / 255,
		b: float64(p[2]) / 255,
		a: float64(p[3]) / 255,
	}
}

func storePixel(p []uint8, c pixel) {
	a := clampUnit(c.a)
	p[3] = uint8(a*255 + 0.5)
	// Premultiplied color never exceeds alpha.
	p[0] = uint8(math.Min(clampUnit(c.r), a)*255 + 0.5)
	p[1] = uint8(math.Min(clampUnit(c.g), a)*255 + 0.5)
	p[2] = uint8(math.Min(clampUnit(c.b), a)*255 + 0.5)
}

// apply combines source s onto backdrop d.
func (op CompositeOp) apply(s, d pixel) pixel {
	switch op {
	case OpSourceOver:
		k := 1 - s.a
		return pixel{s.r + d.r*k, s.g + d.g*k, s.b + d.b*k, s.a + d.a*k}
	case OpSourceAtop:
		k := 1 - s.a
		return pixel{s.r*d.a + d.r*k, s.g*d.a + d.g*k, s.b*d.a + d.b*k, d.a}
	case OpDestinationOver:
		k := 1 - d.a
		return pixel{s.r*k + d.r, s.g*k + d.g, s.b*k + d.b, s.a*k + d.a}
	case OpDestinationOut:
		k := 1 - s.a
		return pixel{d.r * k, d.g * k, d.b * k, d.a * k}
	case OpDestinationIn:
		return pixel{d.r * s.a, d.g * s.a, d.b * s.a, d.a * s.a}
	case OpXor:
		ks, kd := 1-d.a, 1-s.a
		return pixel{s.r*ks + d.r*kd, s.g*ks + d.g*kd, s.b*ks + d.b*kd, s.a*ks + d.a*kd}
	case OpLighter:
		return pixel{
			math.Min(1, s.r+d.r),
			math.Min(1, s.g+d.g),
			math.Min(1, s.b+d.b),
			math.Min(1, s.a+d.a),
		}
	case OpCopy:
		return s
	case OpSubtract:
		// Coverage is the backdrop's; premultiplied source color already
		// carries the source alpha.
		return pixel{
			math.Max(0, d.r-s.r),
			math.Max(0, d.g-s.g),
			math.Max(0, d.b-s.b),
			d.a,
		}
	case OpInvert:
		k := 1 - s.a
		return pixel{
			d.r*k + (d.a-d.r)*s.a,
			d.g*k + (d.a-d.g)*s.a,
			d.b*k + (d.a-d.b)*s.a,
			d.a,
		}
	default:
		return blendSeparable(op, s, d)
	}
}

// blendSeparable applies a separable blend function B(cb, cs) using the
// general formula co = cs(1-ab) + cb(1-as) + as*ab*B(Cb, Cs).
func blendSeparable(op CompositeOp, s, d pixel) pixel {
	f := blendFunc(op)
	both := s.a * d.a
	ch := func(cs, cb float64) float64 {
		v := cs*(1-d.a) + cb*(1-s.a)
		if both > 0 {
			v += both * f(cb/d.a, cs/s.a)
		}
		return v
	}
	return pixel{
		ch(s.r, d.r),
		ch(s.g, d.g),
		ch(s.b, d.b),
		s.a + d.a - both,
	}
}

func blendFunc(op CompositeOp) func(cb, cs float64) float64 {
	switch op {
	case OpMultiply:
		return func(cb, cs float64) float64 { return cb * cs }
	case OpScreen:
		return screen
	case OpLighten:
		return math.Max
	case OpDarken:
		return math.Min
	case OpDifference:
		return func(cb, cs float64) float64 { return math.Abs(cb - cs) }
	case OpOverlay:
		return func(cb, cs float64) float64 { return hardLight(cs, cb) }
	case OpHardLight:
		return hardLight
	case OpColorBurn:
		return colorBurn
	default:
		return func(_, cs float64) float64 { return cs }
	}
}

func screen(cb, cs float64) float64 { return cb + cs - cb*cs }

func hardLight(cb, cs float64) float64 {
	if cs <= 0.5 {
		return cb * 2 * cs
	}
	return screen(cb, 2*cs-1)
}

func colorBurn(cb, cs float64) float64 {
	switch {
	case cb >= 1:
		return 1
	case cs <= 0:
		return 0
	default:
		return 1 - math.Min(1, (1-cb)/cs)
	}
}

// compositeImage draws src onto dst with src.Rect.Min placed at at (in dst
// coordinates). The source is scaled by alpha. When clip is non-nil its
// coverage, in dst coordinates, limits the effect of the operator. Pixels
// outside the source rectangle are left untouched for every operator.
func compositeImage(dst, src *image.RGBA, at image.Point, op CompositeOp, alpha float64, clip *image.Alpha) {
	alpha = clampUnit(alpha)
	if alpha == 0 && (op == OpSourceOver || op == OpLighter || op == OpDestinationOver) {
		return
	}
	off := at.Sub(src.Rect.Min)
	r := src.Rect.Add(off).Intersect(dst.Rect)
	if clip != nil {
		r = r.Intersect(clip.Rect)
	}
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		di := dst.PixOffset(r.Min.X, y)
		si := src.PixOffset(r.Min.X-off.X, y-off.Y)
		for x := r.Min.X; x < r.Max.X; x, di, si = x+1, di+4, si+4 {
			s := loadPixel(src.Pix[si : si+4])
			if alpha != 1 {
				s = pixel{s.r * alpha, s.g * alpha, s.b * alpha, s.a * alpha}
			}
			writeComposite(dst.Pix[di:di+4], s, op, clipCoverage(clip, x, y))
		}
	}
}

func writeComposite(p []uint8, s pixel, op CompositeOp, cov float64) {
	if cov <= 0 {
		return
	}
	if op == OpSourceOver && s.a == 0 {
		return
	}
	d := loadPixel(p)
	out := op.apply(s, d)
	if cov < 1 {
		out = pixel{
			d.r + (out.r-d.r)*cov,
			d.g + (out.g-d.g)*cov,
			d.b + (out.b-d.b)*cov,
			d.a + (out.a-d.a)*cov,
		}
	}
	storePixel(p, out)
}

func clipCoverage(clip *image.Alpha, x, y int) float64 {
	if clip == nil {
		return 1
	}
	return float64(clip.Pix[clip.PixOffset(x, y)]) / 255
}

// compositeBlend merges a detour surface into dst using the operator of
// the blend mode. Pixels outside the surface are never touched.
func compositeBlend(dst, src *image.RGBA, at image.Point, mode BlendMode, alpha float64, clip *image.Alpha) {
	compositeImage(dst, src, at, mode.compositeOp(), alpha, clip)
}
