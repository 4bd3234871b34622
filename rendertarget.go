package flicker

import (
	"image"
	"log/slog"
)

// poolIdleFrames is how many frames a size bucket may go unused before its
// surfaces are dropped.
const poolIdleFrames = 120

// SurfacePool recycles scratch surfaces keyed by exact size. Surfaces
// handed out by Acquire are NOT guaranteed to be clear: callers overwrite
// every pixel they read. The pool is confined to the render goroutine; a
// host driving stages from several goroutines must serialize access.
type SurfacePool struct {
	buckets     map[uint64][]*image.RGBA
	lastUsed    map[uint64]uint64
	frame       uint64
	allocated   int
	outstanding int
	logger      *slog.Logger
}

// NewSurfacePool creates an empty pool. A nil logger discards output.
func NewSurfacePool(logger *slog.Logger) *SurfacePool {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SurfacePool{
		buckets:  make(map[uint64][]*image.RGBA),
		lastUsed: make(map[uint64]uint64),
		logger:   logger,
	}
}

// poolKey packs width and height into a single uint64.
func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(uint32(h))
}

// Acquire returns a w x h surface with its origin at (0, 0), reusing a
// released one when available.
func (p *SurfacePool) Acquire(w, h int) *image.RGBA {
	w, h = max(w, 1), max(h, 1)
	key := poolKey(w, h)
	p.lastUsed[key] = p.frame
	p.outstanding++
	if stack := p.buckets[key]; len(stack) > 0 {
		img := stack[len(stack)-1]
		stack[len(stack)-1] = nil
		p.buckets[key] = stack[:len(stack)-1]
		return img
	}
	p.allocated++
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// AcquireRect returns a surface whose pixel rectangle is r, so drawing in
// device coordinates lands inside it.
func (p *SurfacePool) AcquireRect(r image.Rectangle) *image.RGBA {
	img := p.Acquire(r.Dx(), r.Dy())
	return rebase(img, r.Min)
}

// Release clears img to transparent and returns it to the pool.
func (p *SurfacePool) Release(img *image.RGBA) {
	if img == nil {
		return
	}
	img = rebase(img, image.Point{})
	clear(img.Pix)
	key := poolKey(img.Rect.Dx(), img.Rect.Dy())
	p.buckets[key] = append(p.buckets[key], img)
	p.outstanding--
}

// EndFrame reports surfaces still checked out and drops buckets that have
// been idle for a while.
func (p *SurfacePool) EndFrame() {
	if p.outstanding > 0 {
		p.logger.Warn("surface pool leak", "frame", p.frame, "outstanding", p.outstanding)
	}
	for key, last := range p.lastUsed {
		if p.frame-last > poolIdleFrames {
			delete(p.buckets, key)
			delete(p.lastUsed, key)
		}
	}
	p.frame++
}

// Allocated returns how many surfaces the pool has ever created.
func (p *SurfacePool) Allocated() int { return p.allocated }

// Outstanding returns how many acquired surfaces have not been released.
func (p *SurfacePool) Outstanding() int { return p.outstanding }

// Idle returns the number of pooled surfaces ready for reuse.
func (p *SurfacePool) Idle() int {
	n := 0
	for _, s := range p.buckets {
		n += len(s)
	}
	return n
}

// rebase returns img viewed with its top-left pixel at origin. The pixel
// buffer is shared.
func rebase(img *image.RGBA, origin image.Point) *image.RGBA {
	if img.Rect.Min == origin {
		return img
	}
	return &image.RGBA{
		Pix:    img.Pix,
		Stride: img.Stride,
		Rect:   image.Rectangle{Min: origin, Max: origin.Add(img.Rect.Size())},
	}
}

// --- Subtree bounds ---

// visualBounds returns the device-space bounds of n's subtree drawn under
// m, including the padding of every filter inside it at the device scale.
// Clip-mask definers contribute nothing.
func visualBounds(n *Node, m Matrix, scale float64) (Rect, bool) {
	if !n.Visible() || n.IsClipMask() {
		return Rect{}, false
	}
	var r Rect
	ok := false
	switch c := n.Content.(type) {
	case *Container:
		for _, ch := range c.Children() {
			b, has := visualBounds(ch, ConcatMatrix(m, ch.Matrix()), scale)
			if !has {
				continue
			}
			if ok {
				r = rectUnion(r, b)
			} else {
				r, ok = b, true
			}
		}
	case *Button:
		if s := c.current(); s != nil {
			r, ok = visualBounds(s, ConcatMatrix(m, s.Matrix()), scale)
		}
	default:
		b := n.Bounds()
		if !b.Empty() {
			// One pixel for antialiased edges and hairlines.
			r, ok = m.TransformRect(b).Pad(1, 1), true
		}
	}
	if !ok {
		return r, false
	}
	px, py := filterChainPadding(n.Filters(), scale)
	return r.Pad(float64(px), float64(py)), true
}
