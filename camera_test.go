package flicker

import (
	"math"
	"testing"

	"github.com/tanema/gween/ease"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestViewportDefaults(t *testing.T) {
	v := newViewport(1)
	if v.Zoom != 1 {
		t.Errorf("Zoom = %f, want 1", v.Zoom)
	}
	assertMatrix(t, "Matrix", v.Matrix(), IdentityMatrix)
	if v.Animating() {
		t.Error("new viewport is animating")
	}
}

func TestViewportScaleIncludesZoom(t *testing.T) {
	v := newViewport(2)
	v.Zoom = 1.5
	assertNear(t, "Scale", v.Scale(), 3)
}

func TestViewportWorldScreenRoundTrip(t *testing.T) {
	v := newViewport(2)
	v.X, v.Y = 30, -10
	v.Zoom = 1.25
	v.Rotation = 30

	sx, sy := v.WorldToScreen(55, 70)
	wx, wy := v.ScreenToWorld(sx, sy)
	assertNear(t, "wx", wx, 55)
	assertNear(t, "wy", wy, 70)
}

func TestViewportScrollMovesOrigin(t *testing.T) {
	v := newViewport(1)
	v.X, v.Y = 100, 50
	sx, sy := v.WorldToScreen(100, 50)
	assertNear(t, "sx", sx, 0)
	assertNear(t, "sy", sy, 0)
}

func TestViewportVisibleBounds(t *testing.T) {
	v := newViewport(2)
	v.X, v.Y = 10, 20
	r := v.VisibleBounds(200, 100)
	assertNear(t, "X", r.X, 10)
	assertNear(t, "Y", r.Y, 20)
	assertNear(t, "Width", r.Width, 100)
	assertNear(t, "Height", r.Height, 50)
}

func TestViewportScrollTo(t *testing.T) {
	v := newViewport(1)
	v.ScrollTo(100, 200, 1.0, ease.Linear)
	if !v.Animating() {
		t.Fatal("ScrollTo did not start a tween")
	}
	v.Update(0.5)
	if !approxEqual(v.X, 50, 0.5) || !approxEqual(v.Y, 100, 0.5) {
		t.Errorf("halfway = (%f, %f), want (~50, ~100)", v.X, v.Y)
	}
	v.Update(0.5)
	if !approxEqual(v.X, 100, 0.01) || !approxEqual(v.Y, 200, 0.01) {
		t.Errorf("end = (%f, %f), want (100, 200)", v.X, v.Y)
	}
	if v.Animating() {
		t.Error("still animating after the full duration")
	}
}

func TestViewportZoomTo(t *testing.T) {
	v := newViewport(1)
	v.ZoomTo(3, 1.0, ease.Linear)
	v.Update(0.5)
	v.Update(0.5)
	if !approxEqual(v.Zoom, 3, 0.01) {
		t.Errorf("Zoom = %f, want 3", v.Zoom)
	}

	v.ZoomTo(0, 1.0, ease.Linear)
	v.ZoomTo(math.NaN(), 1.0, ease.Linear)
	if v.Animating() {
		t.Error("invalid zoom targets started a tween")
	}
}

func TestStageUpdateDrivesViewport(t *testing.T) {
	s := newTestStage(t)
	s.Viewport().ScrollTo(40, 0, 0.5, ease.Linear)
	s.Update(0.25)
	s.Update(0.25)
	if !approxEqual(s.Viewport().X, 40, 0.01) {
		t.Errorf("X = %f, want 40", s.Viewport().X)
	}
}
