package flicker

import (
	"image"
	"image/color"
	"math"
)

// Filter is a bitmap effect applied to a node's detour surface. Surfaces
// are premultiplied and positioned in device space through their Rect.
type Filter interface {
	// Active reports whether the filter changes its input. Inactive filters
	// are skipped and never force a detour.
	Active() bool
	// Padding returns how many device pixels the effect can reach past its
	// input on each side at the given device scale.
	Padding(scale float64) (px, py int)
	// Apply filters src. It returns src modified in place, or a new pooled
	// surface after releasing src.
	Apply(src *image.RGBA, env *FilterEnv) *image.RGBA
}

// FilterEnv carries what a filter needs from the render pass.
type FilterEnv struct {
	pool  *SurfacePool
	scale float64
}

// NewFilterEnv returns an environment drawing surfaces from pool at the
// given device scale.
func NewFilterEnv(pool *SurfacePool, scale float64) *FilterEnv {
	return &FilterEnv{pool: pool, scale: scale}
}

// Pool returns the surface pool. Filters that return a new surface acquire
// it here and release their input.
func (e *FilterEnv) Pool() *SurfacePool { return e.pool }

// Scale returns the device scale that filter radii and offsets are
// multiplied by.
func (e *FilterEnv) Scale() float64 { return e.scale }

// layer acquires a cleared surface covering r.
func (e *FilterEnv) layer(r image.Rectangle) *image.RGBA {
	img := e.pool.AcquireRect(r)
	clear(img.Pix)
	return img
}

// FilterImplemented reports whether f has a working implementation.
// Unimplemented filters keep their parameters and pass input through.
func FilterImplemented(f Filter) bool {
	if u, ok := f.(interface{ Implemented() bool }); ok {
		return u.Implemented()
	}
	return true
}

// hasActiveFilters reports whether any filter in the chain is active.
func hasActiveFilters(filters []Filter) bool {
	for _, f := range filters {
		if f != nil && f.Active() {
			return true
		}
	}
	return false
}

// filterChainPadding returns the cumulative padding of the active filters.
// The detour surface is sized for the whole chain up front.
func filterChainPadding(filters []Filter, scale float64) (px, py int) {
	for _, f := range filters {
		if f == nil || !f.Active() {
			continue
		}
		x, y := f.Padding(scale)
		px += x
		py += y
	}
	return px, py
}

// applyFilters runs the active filters in order.
func applyFilters(filters []Filter, src *image.RGBA, env *FilterEnv) *image.RGBA {
	for _, f := range filters {
		if f != nil && f.Active() {
			src = f.Apply(src, env)
		}
	}
	return src
}

// --- BlurFilter ---

// BlurFilter blurs with Quality passes of a box filter. BlurX and BlurY are
// in pixels at scale 1.
type BlurFilter struct {
	BlurX, BlurY float64
	Quality      int
}

// NewBlurFilter creates a blur filter.
func NewBlurFilter(blurX, blurY float64, quality int) *BlurFilter {
	return &BlurFilter{BlurX: blurX, BlurY: blurY, Quality: quality}
}

// Active reports whether the blur has any extent.
func (f *BlurFilter) Active() bool {
	return f.Quality > 0 && (f.BlurX > 0 || f.BlurY > 0)
}

// Padding returns the blur's reach: one radius per pass.
func (f *BlurFilter) Padding(scale float64) (int, int) {
	return blurPadding(f.BlurX, f.BlurY, f.Quality, scale)
}

// Apply blurs src in place.
func (f *BlurFilter) Apply(src *image.RGBA, env *FilterEnv) *image.RGBA {
	boxBlur(src, blurRadius(f.BlurX, f.Quality, env.scale), blurRadius(f.BlurY, f.Quality, env.scale), f.Quality)
	return src
}

func blurPadding(bx, by float64, quality int, scale float64) (int, int) {
	passes := max(0, min(quality, len(blurStepFactor)))
	return blurRadius(bx, quality, scale) * passes, blurRadius(by, quality, scale) * passes
}

// --- Shadow family ---

// shadowClass selects how the effect layer is merged with the object.
type shadowClass uint8

const (
	shadowOuter shadowClass = iota
	shadowInner
	shadowFull
)

// BevelType positions a bevel or gradient effect.
type BevelType uint8

const (
	BevelInner BevelType = iota
	BevelOuter
	BevelFull
)

func (t BevelType) class() shadowClass {
	switch t {
	case BevelOuter:
		return shadowOuter
	case BevelFull:
		return shadowFull
	default:
		return shadowInner
	}
}

// shadowSpec is the shared description of blur-based effects.
type shadowSpec struct {
	blurX, blurY float64
	quality      int
	strength     float64
	distance     float64
	angle        float64 // degrees
	class        shadowClass
	knockout     bool
	hideObject   bool
}

func (s *shadowSpec) active() bool {
	return s.strength > 0 && s.quality > 0
}

// offset returns the integer displacement of the effect layer.
func (s *shadowSpec) offset(scale float64) image.Point {
	sin, cos := sinCosDeg(s.angle)
	return image.Pt(
		int(math.Ceil(cos*s.distance*scale)),
		int(math.Ceil(sin*s.distance*scale)),
	)
}

func (s *shadowSpec) padding(scale float64) (int, int) {
	px, py := blurPadding(s.blurX, s.blurY, s.quality, scale)
	d := s.offset(scale)
	return px + abs(d.X), py + abs(d.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// effectLayer returns a blurred copy of src recolored through ramp, which
// maps alpha (inverted for inner effects) to a premultiplied color after the
// strength adjustment.
func (s *shadowSpec) effectLayer(src *image.RGBA, env *FilterEnv, ramp *[256]color.RGBA) *image.RGBA {
	l := env.layer(src.Rect)
	copy(l.Pix, src.Pix)
	boxBlur(l, blurRadius(s.blurX, s.quality, env.scale), blurRadius(s.blurY, s.quality, env.scale), s.quality)
	inner := s.class == shadowInner
	for i := 0; i+3 < len(l.Pix); i += 4 {
		a := l.Pix[i+3]
		if inner {
			a = 255 - a
		}
		v := float64(a) * s.strength
		c := ramp[uint8(math.Min(255, v+0.5))]
		l.Pix[i], l.Pix[i+1], l.Pix[i+2], l.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return l
}

// merge combines the object with an effect layer drawn at offset d and
// returns the result in a fresh surface. src and effect are released.
func (s *shadowSpec) merge(src, effect *image.RGBA, d image.Point, env *FilterEnv) *image.RGBA {
	moved := rebase(effect, effect.Rect.Min.Add(d))
	out := env.layer(src.Rect.Union(moved.Rect))
	switch {
	case s.class == shadowInner && (s.knockout || s.hideObject):
		compositeImage(out, moved, moved.Rect.Min, OpSourceOver, 1, nil)
		compositeImage(out, src, src.Rect.Min, OpDestinationIn, 1, nil)
	case s.hideObject:
		compositeImage(out, moved, moved.Rect.Min, OpSourceOver, 1, nil)
	case s.class == shadowInner:
		compositeImage(out, src, src.Rect.Min, OpCopy, 1, nil)
		compositeImage(out, moved, moved.Rect.Min, OpSourceAtop, 1, nil)
	case s.class == shadowFull:
		compositeImage(out, src, src.Rect.Min, OpCopy, 1, nil)
		compositeImage(out, moved, moved.Rect.Min, OpSourceOver, 1, nil)
		if s.knockout {
			compositeImage(out, src, src.Rect.Min, OpDestinationOut, 1, nil)
		}
	default:
		compositeImage(out, src, src.Rect.Min, OpCopy, 1, nil)
		compositeImage(out, moved, moved.Rect.Min, OpDestinationOver, 1, nil)
		if s.knockout {
			compositeImage(out, src, src.Rect.Min, OpDestinationOut, 1, nil)
		}
	}
	env.pool.Release(effect)
	env.pool.Release(src)
	return out
}

// solidRamp maps alpha to a premultiplied color of constant hue.
func solidRamp(rgb uint32, alpha float64) *[256]color.RGBA {
	var ramp [256]color.RGBA
	base := RGBAColor(rgb, 1)
	alpha = clampUnit(alpha)
	for i := range ramp {
		c := base
		c.A = uint8(math.Round(float64(i) * alpha))
		ramp[i] = premultiply(c)
	}
	return &ramp
}

// gradientRamp maps alpha to a color sampled from stops.
func gradientRamp(stops []GradientStop) *[256]color.RGBA {
	var ramp [256]color.RGBA
	if len(stops) == 0 {
		return &ramp
	}
	buildRamp(&ramp, stops, IdentityColorTransform)
	return &ramp
}

// DropShadowFilter casts a blurred, offset, single-color copy of the object.
type DropShadowFilter struct {
	Distance   float64
	Angle      float64 // degrees
	Color      uint32  // 0xRRGGBB
	Alpha      float64
	BlurX      float64
	BlurY      float64
	Strength   float64
	Quality    int
	Inner      bool
	Knockout   bool
	HideObject bool
}

// NewDropShadowFilter returns a drop shadow with the authoring tool's
// defaults: 4px at 45 degrees, black, 4x4 blur, one pass.
func NewDropShadowFilter() *DropShadowFilter {
	return &DropShadowFilter{Distance: 4, Angle: 45, Alpha: 1, BlurX: 4, BlurY: 4, Strength: 1, Quality: 1}
}

func (f *DropShadowFilter) shadow() *shadowSpec {
	s := &shadowSpec{
		blurX: f.BlurX, blurY: f.BlurY, quality: f.Quality, strength: f.Strength,
		distance: f.Distance, angle: f.Angle, knockout: f.Knockout, hideObject: f.HideObject,
	}
	if f.Inner {
		s.class = shadowInner
	}
	return s
}

// Active reports whether the shadow has any visible effect.
func (f *DropShadowFilter) Active() bool { return f.shadow().active() }

// Padding returns blur reach plus offset.
func (f *DropShadowFilter) Padding(scale float64) (int, int) { return f.shadow().padding(scale) }

// Apply draws the shadow: blur, recolor, offset, composite.
func (f *DropShadowFilter) Apply(src *image.RGBA, env *FilterEnv) *image.RGBA {
	s := f.shadow()
	effect := s.effectLayer(src, env, solidRamp(f.Color, f.Alpha))
	return s.merge(src, effect, s.offset(env.scale), env)
}

// GlowFilter surrounds (or fills the inside edge of) the object with a
// blurred single color.
type GlowFilter struct {
	Color    uint32
	Alpha    float64
	BlurX    float64
	BlurY    float64
	Strength float64
	Quality  int
	Inner    bool
	Knockout bool
}

// NewGlowFilter returns a glow with the authoring tool's defaults.
func NewGlowFilter(rgb uint32) *GlowFilter {
	return &GlowFilter{Color: rgb, Alpha: 1, BlurX: 6, BlurY: 6, Strength: 2, Quality: 1}
}

func (f *GlowFilter) shadow() *shadowSpec {
	s := &shadowSpec{blurX: f.BlurX, blurY: f.BlurY, quality: f.Quality, strength: f.Strength, knockout: f.Knockout}
	if f.Inner {
		s.class = shadowInner
	}
	return s
}

// Active reports whether the glow has any visible effect.
func (f *GlowFilter) Active() bool { return f.shadow().active() }

// Padding returns the blur reach.
func (f *GlowFilter) Padding(scale float64) (int, int) { return f.shadow().padding(scale) }

// Apply draws the glow.
func (f *GlowFilter) Apply(src *image.RGBA, env *FilterEnv) *image.RGBA {
	s := f.shadow()
	effect := s.effectLayer(src, env, solidRamp(f.Color, f.Alpha))
	return s.merge(src, effect, image.Point{}, env)
}

// GradientGlowFilter is a glow whose color is looked up from a gradient by
// the blurred alpha.
type GradientGlowFilter struct {
	Distance float64
	Angle    float64
	Stops    []GradientStop
	BlurX    float64
	BlurY    float64
	Strength float64
	Quality  int
	Type     BevelType
	Knockout bool
}

func (f *GradientGlowFilter) shadow() *shadowSpec {
	return &shadowSpec{
		blurX: f.BlurX, blurY: f.BlurY, quality: f.Quality, strength: f.Strength,
		distance: f.Distance, angle: f.Angle, class: f.Type.class(), knockout: f.Knockout,
	}
}

// Active reports whether the glow has stops and any visible effect.
func (f *GradientGlowFilter) Active() bool { return len(f.Stops) > 0 && f.shadow().active() }

// Padding returns blur reach plus offset.
func (f *GradientGlowFilter) Padding(scale float64) (int, int) { return f.shadow().padding(scale) }

// Apply draws the gradient glow.
func (f *GradientGlowFilter) Apply(src *image.RGBA, env *FilterEnv) *image.RGBA {
	s := f.shadow()
	effect := s.effectLayer(src, env, gradientRamp(f.Stops))
	return s.merge(src, effect, s.offset(env.scale), env)
}

// BevelFilter lights one side of the object's edge and shades the other.
type BevelFilter struct {
	Distance       float64
	Angle          float64
	HighlightColor uint32
	HighlightAlpha float64
	ShadowColor    uint32
	ShadowAlpha    float64
	BlurX          float64
	BlurY          float64
	Strength       float64
	Quality        int
	Type           BevelType
	Knockout       bool
}

// NewBevelFilter returns a bevel with the authoring tool's defaults.
func NewBevelFilter() *BevelFilter {
	return &BevelFilter{
		Distance: 4, Angle: 45,
		HighlightColor: 0xFFFFFF, HighlightAlpha: 1,
		ShadowColor: 0x000000, ShadowAlpha: 1,
		BlurX: 4, BlurY: 4, Strength: 1, Quality: 1,
	}
}

func (f *BevelFilter) shadow() *shadowSpec {
	return &shadowSpec{
		blurX: f.BlurX, blurY: f.BlurY, quality: f.Quality, strength: f.Strength,
		distance: f.Distance, angle: f.Angle, class: f.Type.class(), knockout: f.Knockout,
	}
}

// Active reports whether the bevel has any visible effect.
func (f *BevelFilter) Active() bool { return f.shadow().active() }

// Padding returns blur reach plus offset.
func (f *BevelFilter) Padding(scale float64) (int, int) { return f.shadow().padding(scale) }

// Apply XORs a highlight copy shifted against the light direction with a
// shadow copy shifted along it, then merges the pair with the object.
func (f *BevelFilter) Apply(src *image.RGBA, env *FilterEnv) *image.RGBA {
	s := f.shadow()
	d := s.offset(env.scale)
	hi := s.effectLayer(src, env, solidRamp(f.HighlightColor, f.HighlightAlpha))
	sh := s.effectLayer(src, env, solidRamp(f.ShadowColor, f.ShadowAlpha))
	hiMoved := rebase(hi, hi.Rect.Min.Sub(d))
	shMoved := rebase(sh, sh.Rect.Min.Add(d))
	bevel := env.layer(hiMoved.Rect.Union(shMoved.Rect))
	compositeImage(bevel, hiMoved, hiMoved.Rect.Min, OpCopy, 1, nil)
	compositeImage(bevel, shMoved, shMoved.Rect.Min, OpXor, 1, nil)
	env.pool.Release(hi)
	env.pool.Release(sh)
	return s.merge(src, bevel, image.Point{}, env)
}

// --- Unimplemented filters ---

// ConvolutionFilter carries a convolution matrix. Not implemented: it
// passes input through unchanged.
type ConvolutionFilter struct {
	MatrixX, MatrixY int
	Matrix           []float64
	Divisor          float64
	Bias             float64
	PreserveAlpha    bool
	Clamp            bool
	Color            uint32
	Alpha            float64
}

// Active reports false so the filter never forces a detour.
func (f *ConvolutionFilter) Active() bool { return false }

// Padding reports no reach.
func (f *ConvolutionFilter) Padding(float64) (int, int) { return 0, 0 }

// Apply returns src unchanged.
func (f *ConvolutionFilter) Apply(src *image.RGBA, _ *FilterEnv) *image.RGBA { return src }

// Implemented reports false.
func (f *ConvolutionFilter) Implemented() bool { return false }

// ColorMatrixFilter carries a 4x5 color matrix in row-major order. Not
// implemented: it passes input through unchanged.
type ColorMatrixFilter struct {
	Matrix [20]float64
}

// Active reports false so the filter never forces a detour.
func (f *ColorMatrixFilter) Active() bool { return false }

// Padding reports no reach.
func (f *ColorMatrixFilter) Padding(float64) (int, int) { return 0, 0 }

// Apply returns src unchanged.
func (f *ColorMatrixFilter) Apply(src *image.RGBA, _ *FilterEnv) *image.RGBA { return src }

// Implemented reports false.
func (f *ColorMatrixFilter) Implemented() bool { return false }

// GradientBevelFilter carries gradient bevel parameters. Not implemented:
// it passes input through unchanged.
type GradientBevelFilter struct {
	Distance float64
	Angle    float64
	Stops    []GradientStop
	BlurX    float64
	BlurY    float64
	Strength float64
	Quality  int
	Type     BevelType
	Knockout bool
}

// Active reports false so the filter never forces a detour.
func (f *GradientBevelFilter) Active() bool { return false }

// Padding reports no reach.
func (f *GradientBevelFilter) Padding(float64) (int, int) { return 0, 0 }

// Apply returns src unchanged.
func (f *GradientBevelFilter) Apply(src *image.RGBA, _ *FilterEnv) *image.RGBA { return src }

// Implemented reports false.
func (f *GradientBevelFilter) Implemented() bool { return false }
