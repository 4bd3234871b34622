package flicker

import (
	"image/color"
	"math"
)

// ColorTransform is a multiply+add map over RGBA channels:
// [rMul, gMul, bMul, aMul, rAdd, gAdd, bAdd, aAdd]. RGB adds are on the
// 0..255 scale; the alpha add is on the 0..1 scale.
type ColorTransform [8]float64

// IdentityColorTransform leaves every channel unchanged.
var IdentityColorTransform = ColorTransform{1, 1, 1, 1, 0, 0, 0, 0}

// AlphaColorTransform returns a transform that only scales alpha.
func AlphaColorTransform(alpha float64) ColorTransform {
	return ColorTransform{1, 1, 1, alpha, 0, 0, 0, 0}
}

// ConcatColorTransform composes parent and child: multipliers multiply
// pairwise and the child's additive terms are folded through the parent's
// multipliers (add = parent.mul*child.add + parent.add).
func ConcatColorTransform(p, c ColorTransform) ColorTransform {
	return ColorTransform{
		p[0] * c[0],
		p[1] * c[1],
		p[2] * c[2],
		p[3] * c[3],
		p[0]*c[4] + p[4],
		p[1]*c[5] + p[5],
		p[2]*c[6] + p[6],
		p[3]*c[7] + p[7],
	}
}

// IsIdentity reports whether the transform leaves colors unchanged.
func (ct ColorTransform) IsIdentity() bool {
	return ct == IdentityColorTransform
}

// Alpha returns the alpha multiplier.
func (ct ColorTransform) Alpha() float64 { return ct[3] }

// IsInvisible reports whether every color ends with zero alpha.
func (ct ColorTransform) IsInvisible() bool {
	return ct[7] <= 0 && ct[3]+ct[7] <= 0
}

// Apply transforms a straight-alpha color with clamping.
func (ct ColorTransform) Apply(c color.NRGBA) color.NRGBA {
	if ct.IsIdentity() {
		return c
	}
	a := clampUnit(float64(c.A)/255*ct[3] + ct[7])
	return color.NRGBA{
		R: clampByte(float64(c.R)*ct[0] + ct[4]),
		G: clampByte(float64(c.G)*ct[1] + ct[5]),
		B: clampByte(float64(c.B)*ct[2] + ct[6]),
		A: uint8(math.Round(a * 255)),
	}
}

// RGBAColor converts a 0xRRGGBB color and a 0..1 alpha to color.NRGBA.
func RGBAColor(rgb uint32, alpha float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(rgb >> 16),
		G: uint8(rgb >> 8),
		B: uint8(rgb),
		A: uint8(math.Round(clampUnit(alpha) * 255)),
	}
}

func clampByte(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

func clampUnit(v float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return 1
	}
	return v
}

// premultiply converts a straight-alpha color to premultiplied color.RGBA.
func premultiply(c color.NRGBA) color.RGBA {
	a := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R)*a + 127) / 255),
		G: uint8((uint32(c.G)*a + 127) / 255),
		B: uint8((uint32(c.B)*a + 127) / 255),
		A: c.A,
	}
}
