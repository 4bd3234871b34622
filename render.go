package flicker

import (
	"image"
	"log/slog"
	"slices"
)

// maskColorTransform paints every covered pixel opaque white so a mask
// subtree contributes coverage only.
var maskColorTransform = ColorTransform{0, 0, 0, 0, 255, 255, 255, 1}

// renderer holds the shared resources and counters of one render pass.
type renderer struct {
	cache   *CacheStore
	pool    *SurfacePool
	base    Matrix
	scale   float64
	maxArea int
	logger  *slog.Logger
	stats   FrameStats

	// namespace prefixes every cache key namespace.
	namespace string
}

func (r *renderer) keyNamespace(ns string) string {
	if r.namespace == "" {
		return ns
	}
	return r.namespace + "/" + ns
}

// renderState is what a node inherits from its parent during traversal.
type renderState struct {
	canvas *Canvas
	matrix Matrix
	ct     ColorTransform
	inMask bool
}

// renderNode runs the three phases for n: pre-render computes the
// effective transforms and the detour decision, render draws content into
// the selected surface, and post-render filters and composites the detour
// back into the parent surface.
func (r *renderer) renderNode(n *Node, parent renderState) {
	if !parent.inMask && (!n.Visible() || n.usedAsMask) {
		return
	}
	r.stats.Nodes++

	// Pre-render.
	st := renderState{
		canvas: parent.canvas,
		matrix: ConcatMatrix(parent.matrix, n.Matrix()),
		ct:     ConcatColorTransform(parent.ct, n.ColorTransform()),
		inMask: parent.inMask,
	}
	if st.ct.IsInvisible() {
		return
	}
	filters := n.Filters()
	blend := n.BlendMode()
	needsDetour := !st.inMask && (hasActiveFilters(filters) || blend != BlendNormal)

	masked := false
	if mk := n.Mask(); mk != nil && !st.inMask {
		masked = r.pushMask(st.canvas, mk, ConcatMatrix(r.base, mk.WorldMatrix()))
	}

	var surf *image.RGBA
	if needsDetour {
		surf = r.acquireDetour(n, st)
	}

	// Render.
	if surf != nil {
		r.stats.Detours++
		target := st
		target.canvas = NewCanvas(surf)
		r.renderContent(n, target)

		// Post-render.
		out := applyFilters(filters, surf, NewFilterEnv(r.pool, r.scale))
		st.canvas.CompositeBlend(out, out.Rect.Min, blend)
		r.pool.Release(out)
	} else {
		r.renderContent(n, st)
	}

	if masked {
		st.canvas.PopClip()
	}
}

// acquireDetour sizes and allocates the offscreen surface for n. It returns
// nil when the node draws nothing or the surface would be too large, in
// which case the node is drawn directly.
func (r *renderer) acquireDetour(n *Node, st renderState) *image.RGBA {
	b, ok := visualBounds(n, st.matrix, r.scale)
	if !ok {
		return nil
	}
	px, py := filterChainPadding(n.Filters(), r.scale)
	limit := st.canvas.Bounds().Inset(-max(px, py))
	rect := pixelRect(b).Intersect(limit)
	if rect.Empty() {
		return nil
	}
	if r.maxArea > 0 && rect.Dx()*rect.Dy() > r.maxArea {
		r.stats.Fallbacks++
		r.logger.Debug("detour surface too large, drawing directly",
			"node", n.Name, "id", n.ID, "width", rect.Dx(), "height", rect.Dy())
		return nil
	}
	surf := r.pool.AcquireRect(rect)
	clear(surf.Pix)
	return surf
}

// renderContent draws n's payload with the already effective transforms.
func (r *renderer) renderContent(n *Node, st renderState) {
	switch c := n.Content.(type) {
	case *Shape:
		r.renderShape(st.canvas, CacheKindShape, r.keyNamespace(c.Namespace), c.CharacterID, c.Records, c.Bounds(), st.matrix, st.ct, 0)
	case *MorphShape:
		ratio := n.Ratio()
		records := c.RecordsAt(ratio)
		r.renderShape(st.canvas, CacheKindMorph, r.keyNamespace(c.Namespace), c.CharacterID, records, recordsBounds(records), st.matrix, st.ct, ratio)
	case *Container:
		r.renderChildren(c, st)
	case *Button:
		if s := c.current(); s != nil {
			r.renderNode(s, st)
		}
	}
}

// clipScope is an open clip started by a clip-mask definer.
type clipScope struct {
	node      *Node
	matrix    Matrix
	clipDepth int
}

// renderChildren draws children in depth order. A clip-mask definer opens
// a clip scope covering every later sibling up to its clip depth. Scopes
// may overlap without nesting, so when any scope ends the clip stack is
// rebuilt from the scopes still open.
func (r *renderer) renderChildren(c *Container, st renderState) {
	var scopes []clipScope
	for _, ch := range c.Children() {
		d := ch.Depth()
		if slices.ContainsFunc(scopes, func(s clipScope) bool { return d > s.clipDepth }) {
			for range scopes {
				st.canvas.PopClip()
			}
			open := scopes[:0]
			for _, s := range scopes {
				if d <= s.clipDepth && r.pushMask(st.canvas, s.node, s.matrix) {
					open = append(open, s)
				}
			}
			scopes = open
		}
		if cd := ch.ClipDepth(); cd > 0 {
			m := ConcatMatrix(st.matrix, ch.Matrix())
			if r.pushMask(st.canvas, ch, m) {
				scopes = append(scopes, clipScope{node: ch, matrix: m, clipDepth: cd})
			}
			continue
		}
		r.renderNode(ch, st)
	}
	for range scopes {
		st.canvas.PopClip()
	}
}

func (r *renderer) pushMask(cv *Canvas, mask *Node, m Matrix) bool {
	surf := r.pool.AcquireRect(cv.Bounds())
	clear(surf.Pix)
	r.renderContent(mask, renderState{
		canvas: NewCanvas(surf),
		matrix: m,
		ct:     maskColorTransform,
		inMask: true,
	})
	cv.PushClip(surf)
	r.pool.Release(surf)
	return true
}

// renderShape draws shape records under m and ct. Shapes whose effective
// matrix has no scale, rotation or skew and whose color transform is the
// identity are drawn straight into the target and report an empty key.
// Everything else is rasterized once at the stepped scale into the cache
// and blitted; the cache key and surface are returned.
func (r *renderer) renderShape(cv *Canvas, kind, ns string, id int, records []ShapeRecord, bounds Rect, m Matrix, ct ColorTransform, ratio float64) (string, *image.RGBA) {
	if m.IsLinearIdentity() && ct.IsIdentity() {
		r.stats.DirectDraws++
		cv.DrawRecords(records, m, ct)
		return "", nil
	}
	sx, sy := stepScale(m.ScaleX()), stepScale(m.ScaleY())
	key := CacheKey(kind, ns, id, sx, sy, ct, ratio)
	img, hit := r.cache.GetOrRender(key, func() *image.RGBA {
		return rasterizeRecords(records, bounds, sx, sy, ct, r.maxArea)
	})
	if img == nil {
		r.stats.Fallbacks++
		cv.DrawRecords(records, m, ct)
		return "", nil
	}
	if hit {
		r.stats.CacheHits++
	} else {
		r.stats.CacheMisses++
	}
	cv.DrawImage(img, ConcatMatrix(m, ScaleMatrix(1/sx, 1/sy)), true)
	return key, img
}

// rasterizeRecords draws records at scale (sx, sy) into a new surface
// positioned at the scaled bounds. It returns nil for empty or oversized
// results.
func rasterizeRecords(records []ShapeRecord, bounds Rect, sx, sy float64, ct ColorTransform, maxArea int) *image.RGBA {
	s := ScaleMatrix(sx, sy)
	rect := pixelRect(s.TransformRect(bounds).Pad(1, 1))
	if rect.Empty() || (maxArea > 0 && rect.Dx()*rect.Dy() > maxArea) {
		return nil
	}
	img := image.NewRGBA(rect)
	NewCanvas(img).DrawRecords(records, s, ct)
	return img
}
