package flicker

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Viewport maps root space to device space: the stage is scrolled so that
// (X, Y) sits at the top-left, rotated, then scaled. Its matrix is the base
// every render and hit test starts from.
type Viewport struct {
	// X and Y are the root-space point shown at the device origin.
	X, Y float64
	// Zoom multiplies the stage's device scale (1 = no zoom).
	Zoom float64
	// Rotation is the view rotation in degrees (clockwise).
	Rotation float64

	scale float64

	scroll *scrollAnim
	zoom   *gween.Tween
}

// newViewport creates a viewport for a stage rendered at scale.
func newViewport(scale float64) *Viewport {
	return &Viewport{Zoom: 1, scale: scale}
}

// Scale returns the effective device scale.
func (v *Viewport) Scale() float64 { return v.scale * v.Zoom }

// Matrix returns Scale(scale*zoom) * Rotate(-rotation) * Translate(-X, -Y).
func (v *Viewport) Matrix() Matrix {
	s := v.Scale()
	m := ConcatMatrix(ScaleMatrix(s, s), RotateMatrix(-v.Rotation))
	return ConcatMatrix(m, TranslateMatrix(-v.X, -v.Y))
}

// ScrollTo animates X and Y to the given root-space point over duration
// seconds.
func (v *Viewport) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	v.scroll = &scrollAnim{
		tweenX: gween.New(float32(v.X), float32(x), duration, easeFn),
		tweenY: gween.New(float32(v.Y), float32(y), duration, easeFn),
	}
}

// ZoomTo animates Zoom to z over duration seconds.
func (v *Viewport) ZoomTo(z float64, duration float32, easeFn ease.TweenFunc) {
	if !(z > 0) || !isFinite(z) {
		return
	}
	v.zoom = gween.New(float32(v.Zoom), float32(z), duration, easeFn)
}

// Animating reports whether a scroll or zoom tween is running.
func (v *Viewport) Animating() bool { return v.scroll != nil || v.zoom != nil }

// Update advances running tweens by dt seconds.
func (v *Viewport) Update(dt float32) {
	if v.scroll != nil {
		if !v.scroll.doneX {
			val, done := v.scroll.tweenX.Update(dt)
			v.X = float64(val)
			v.scroll.doneX = done
		}
		if !v.scroll.doneY {
			val, done := v.scroll.tweenY.Update(dt)
			v.Y = float64(val)
			v.scroll.doneY = done
		}
		if v.scroll.doneX && v.scroll.doneY {
			v.scroll = nil
		}
	}
	if v.zoom != nil {
		val, done := v.zoom.Update(dt)
		v.Zoom = float64(val)
		if done {
			v.zoom = nil
		}
	}
}

// WorldToScreen converts root-space coordinates to device coordinates.
func (v *Viewport) WorldToScreen(wx, wy float64) (sx, sy float64) {
	return v.Matrix().Apply(wx, wy)
}

// ScreenToWorld converts device coordinates to root-space coordinates.
func (v *Viewport) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	inv, _ := v.Matrix().Invert()
	return inv.Apply(sx, sy)
}

// VisibleBounds returns the root-space AABB of a device rectangle of size
// w x h at the origin.
func (v *Viewport) VisibleBounds(w, h int) Rect {
	inv, _ := v.Matrix().Invert()
	return inv.TransformRect(Rect{Width: float64(w), Height: float64(h)})
}
