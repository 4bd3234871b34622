package flicker

import (
	"image"
	"image/color"
	"log/slog"
	"testing"
)

func newTestRenderer() *renderer {
	return &renderer{
		cache:   NewCacheStore(0),
		pool:    NewSurfacePool(nil),
		base:    IdentityMatrix,
		scale:   1,
		maxArea: 1 << 20,
		logger:  slog.New(slog.DiscardHandler),
	}
}

func drawBox(r *renderer, cv *Canvas, s *Shape, m Matrix, ct ColorTransform) (string, *image.RGBA) {
	return r.renderShape(cv, CacheKindShape, s.Namespace, s.CharacterID, s.Records, s.Bounds(), m, ct, 0)
}

func TestRenderShapeDirect(t *testing.T) {
	r := newTestRenderer()
	target := image.NewRGBA(image.Rect(0, 0, 40, 40))
	cv := NewCanvas(target)
	s := rectShape(1, 0, 0, 10, 10, red)

	key, surf := drawBox(r, cv, s, TranslateMatrix(5, 5), IdentityColorTransform)

	if key != "" || surf != nil {
		t.Errorf("direct draw returned key %q and surface %v, want empty", key, surf)
	}
	if r.pool.Allocated() != 0 {
		t.Errorf("pool Allocated = %d, want 0", r.pool.Allocated())
	}
	if r.cache.Len() != 0 {
		t.Errorf("cache Len = %d, want 0", r.cache.Len())
	}
	if r.stats.DirectDraws != 1 {
		t.Errorf("DirectDraws = %d, want 1", r.stats.DirectDraws)
	}
	if got := target.RGBAAt(10, 10); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("pixel = %v, want opaque red", got)
	}
	if got := target.RGBAAt(2, 2); got.A != 0 {
		t.Errorf("pixel outside shape = %v, want transparent", got)
	}
}

func TestRenderShapeCacheHit(t *testing.T) {
	r := newTestRenderer()
	cv := NewCanvas(image.NewRGBA(image.Rect(0, 0, 64, 64)))
	s := rectShape(1, 0, 0, 10, 10, red)
	m := ConcatMatrix(TranslateMatrix(5, 5), ScaleMatrix(2, 2))

	key1, surf1 := drawBox(r, cv, s, m, IdentityColorTransform)
	key2, surf2 := drawBox(r, cv, s, m, IdentityColorTransform)

	if key1 == "" || surf1 == nil {
		t.Fatal("scaled shape was not cached")
	}
	if key1 != key2 {
		t.Errorf("keys differ: %q vs %q", key1, key2)
	}
	if surf1 != surf2 {
		t.Error("second render returned a fresh surface")
	}
	if r.stats.CacheMisses != 1 || r.stats.CacheHits != 1 {
		t.Errorf("misses/hits = %d/%d, want 1/1", r.stats.CacheMisses, r.stats.CacheHits)
	}
	if r.pool.Allocated() != 0 {
		t.Errorf("pool Allocated = %d, want 0", r.pool.Allocated())
	}
}

func TestRenderShapeSteppedScaleSharesEntry(t *testing.T) {
	r := newTestRenderer()
	cv := NewCanvas(image.NewRGBA(image.Rect(0, 0, 64, 64)))
	s := rectShape(1, 0, 0, 10, 10, red)

	_, a := drawBox(r, cv, s, ScaleMatrix(2, 2), IdentityColorTransform)
	_, b := drawBox(r, cv, s, ScaleMatrix(1.9, 1.9), IdentityColorTransform)
	if a != b {
		t.Error("scales within one step did not share a cache entry")
	}
	_, c := drawBox(r, cv, s, ScaleMatrix(2.5, 2.5), IdentityColorTransform)
	if c == a {
		t.Error("scale one step up reused the smaller entry")
	}
}

func TestRenderShapeColorTransformIsCached(t *testing.T) {
	r := newTestRenderer()
	target := image.NewRGBA(image.Rect(0, 0, 40, 40))
	cv := NewCanvas(target)
	s := rectShape(1, 0, 0, 10, 10, red)

	key, surf := drawBox(r, cv, s, TranslateMatrix(5, 5), AlphaColorTransform(0.5))
	if key == "" || surf == nil {
		t.Fatal("color-transformed shape was not cached")
	}
	got := target.RGBAAt(10, 10)
	if got.A < 127 || got.A > 129 || got.G != 0 {
		t.Errorf("pixel = %v, want half transparent red", got)
	}

	other, _ := drawBox(r, cv, s, TranslateMatrix(5, 5), AlphaColorTransform(0.25))
	if other == key {
		t.Error("different color transforms shared a key")
	}
}

func TestRenderShapeOversizedFallsBack(t *testing.T) {
	r := newTestRenderer()
	r.maxArea = 16
	target := image.NewRGBA(image.Rect(0, 0, 40, 40))
	s := rectShape(1, 0, 0, 10, 10, red)

	key, surf := drawBox(r, NewCanvas(target), s, ScaleMatrix(2, 2), IdentityColorTransform)
	if key != "" || surf != nil {
		t.Errorf("oversized shape returned key %q", key)
	}
	if r.stats.Fallbacks != 1 {
		t.Errorf("Fallbacks = %d, want 1", r.stats.Fallbacks)
	}
	if target.RGBAAt(15, 15).A != 255 {
		t.Error("fallback did not draw the shape")
	}
}

func TestRenderKeyNamespace(t *testing.T) {
	r := newTestRenderer()
	if got := r.keyNamespace("lib"); got != "lib" {
		t.Errorf("keyNamespace = %q, want lib", got)
	}
	r.namespace = "stage1"
	if got := r.keyNamespace("lib"); got != "stage1/lib" {
		t.Errorf("keyNamespace = %q, want stage1/lib", got)
	}
}

func TestRasterizeRecordsPositionsAtScaledBounds(t *testing.T) {
	s := rectShape(1, 10, 20, 10, 10, red)
	img := rasterizeRecords(s.Records, s.Bounds(), 2, 2, IdentityColorTransform, 0)
	if want := image.Rect(19, 39, 41, 61); img.Rect != want {
		t.Errorf("Rect = %v, want %v", img.Rect, want)
	}
	if img.RGBAAt(30, 50).A != 255 {
		t.Error("interior not filled")
	}
	if rasterizeRecords(s.Records, s.Bounds(), 2, 2, IdentityColorTransform, 100) != nil {
		t.Error("surface over the area limit was returned")
	}
}

func TestRenderChildrenClipScope(t *testing.T) {
	r := newTestRenderer()
	reg := NewRegistry()
	root := reg.NewContainerNode("root")
	c := root.Container()
	clipper := reg.NewShapeNode("clipper", rectShape(1, 0, 0, 10, 10, red))
	clipper.SetClipDepth(2)
	c.AddChild(1, clipper)
	c.AddChild(2, reg.NewShapeNode("clipped", rectShape(2, 0, 0, 30, 30, red)))
	after := reg.NewShapeNode("after", rectShape(3, 0, 0, 5, 5, red))
	after.SetX(30)
	c.AddChild(3, after)

	target := image.NewRGBA(image.Rect(0, 0, 40, 40))
	cv := NewCanvas(target)
	r.renderNode(root, renderState{canvas: cv, matrix: IdentityMatrix, ct: IdentityColorTransform})

	if target.RGBAAt(5, 5).A != 255 {
		t.Error("clipped child missing inside the clip")
	}
	if target.RGBAAt(20, 20).A != 0 {
		t.Error("clipped child drawn outside the clip")
	}
	if target.RGBAAt(32, 2).A != 255 {
		t.Error("sibling past the clip depth was clipped")
	}
	if cv.ClipDepth() != 0 {
		t.Errorf("ClipDepth = %d after render, want 0", cv.ClipDepth())
	}
	if r.pool.Outstanding() != 0 {
		t.Errorf("Outstanding = %d, want 0", r.pool.Outstanding())
	}
}

func TestRenderNodeDetourReleasesSurfaces(t *testing.T) {
	r := newTestRenderer()
	reg := NewRegistry()
	n := reg.NewShapeNode("box", rectShape(1, 0, 0, 10, 10, red))
	n.SetFilters(NewDropShadowFilter())
	target := image.NewRGBA(image.Rect(0, 0, 40, 40))

	r.renderNode(n, renderState{canvas: NewCanvas(target), matrix: IdentityMatrix, ct: IdentityColorTransform})

	if r.stats.Detours != 1 {
		t.Errorf("Detours = %d, want 1", r.stats.Detours)
	}
	if r.pool.Outstanding() != 0 {
		t.Errorf("Outstanding = %d, want 0", r.pool.Outstanding())
	}
	if got := target.RGBAAt(12, 12); got.A == 0 || got.R != 0 {
		t.Errorf("shadow pixel = %v, want black coverage", got)
	}
	if got := target.RGBAAt(5, 5); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("object pixel = %v, want opaque red", got)
	}
}

func TestRenderNodeInactiveFilterSkipsDetour(t *testing.T) {
	r := newTestRenderer()
	reg := NewRegistry()
	n := reg.NewShapeNode("box", rectShape(1, 0, 0, 10, 10, red))
	off := NewDropShadowFilter()
	off.Strength = 0
	n.SetFilters(off)

	r.renderNode(n, renderState{canvas: NewCanvas(image.NewRGBA(image.Rect(0, 0, 20, 20))), matrix: IdentityMatrix, ct: IdentityColorTransform})

	if r.stats.Detours != 0 || r.pool.Allocated() != 0 {
		t.Errorf("Detours = %d, Allocated = %d, want 0, 0", r.stats.Detours, r.pool.Allocated())
	}
}

func TestRenderNodeDetourTooLarge(t *testing.T) {
	r := newTestRenderer()
	r.maxArea = 10
	reg := NewRegistry()
	n := reg.NewShapeNode("box", rectShape(1, 0, 0, 10, 10, red))
	n.SetBlendMode(BlendMultiply)
	target := image.NewRGBA(image.Rect(0, 0, 20, 20))

	r.renderNode(n, renderState{canvas: NewCanvas(target), matrix: IdentityMatrix, ct: IdentityColorTransform})

	if r.stats.Detours != 0 || r.stats.Fallbacks != 1 {
		t.Errorf("Detours = %d, Fallbacks = %d, want 0, 1", r.stats.Detours, r.stats.Fallbacks)
	}
	if target.RGBAAt(5, 5).A != 255 {
		t.Error("fallback did not draw the node")
	}
}

func TestRenderNodeInvisibleColorTransform(t *testing.T) {
	r := newTestRenderer()
	reg := NewRegistry()
	n := reg.NewShapeNode("box", rectShape(1, 0, 0, 10, 10, red))
	n.SetAlpha(0)
	target := image.NewRGBA(image.Rect(0, 0, 20, 20))

	r.renderNode(n, renderState{canvas: NewCanvas(target), matrix: IdentityMatrix, ct: IdentityColorTransform})

	if target.RGBAAt(5, 5).A != 0 {
		t.Error("fully transparent node drew pixels")
	}
	if r.stats.DirectDraws+r.stats.CacheMisses != 0 {
		t.Error("fully transparent node reached the shape renderer")
	}
}

func TestRenderMorphShapeUsesRatio(t *testing.T) {
	r := newTestRenderer()
	reg := NewRegistry()
	blue := color.NRGBA{B: 255, A: 255}
	m := &MorphShape{
		CharacterID: 1,
		Start:       []ShapeRecord{{Path: RectPath(0, 0, 10, 10), Fill: SolidFill(red)}},
		End:         []ShapeRecord{{Path: RectPath(0, 0, 10, 10), Fill: SolidFill(blue)}},
	}
	n := reg.NewNode("morph", m)
	n.SetRatio(1)
	target := image.NewRGBA(image.Rect(0, 0, 20, 20))

	r.renderNode(n, renderState{canvas: NewCanvas(target), matrix: IdentityMatrix, ct: IdentityColorTransform})

	if got := target.RGBAAt(5, 5); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("pixel at ratio 1 = %v, want blue", got)
	}
}
