package flicker

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"
)

// ErrStopped is returned by Render after Stop.
var ErrStopped = errors.New("flicker: stage stopped")

// Stage is the top-level object that owns the node tree, the viewport, the
// shape cache and the surface pool. A stage is driven from one goroutine:
// the host calls Render once per frame.
type Stage struct {
	cfg      Config
	registry *Registry
	root     *Node
	cache    *CacheStore
	pool     *SurfacePool
	viewport *Viewport
	logger   *slog.Logger

	frame     uint64
	stopped   bool
	lastStats FrameStats
}

// StageOption customizes NewStage.
type StageOption func(*Stage)

// WithCache makes the stage use c instead of a private cache. Stages sharing
// a cache must be rendered from the same goroutine.
func WithCache(c *CacheStore) StageOption {
	return func(s *Stage) { s.cache = c }
}

// WithSurfacePool makes the stage use p instead of a private pool.
func WithSurfacePool(p *SurfacePool) StageOption {
	return func(s *Stage) { s.pool = p }
}

// WithLogger routes stage logging to l.
func WithLogger(l *slog.Logger) StageOption {
	return func(s *Stage) { s.logger = l }
}

// WithRegistry builds the stage tree in an existing registry.
func WithRegistry(r *Registry) StageOption {
	return func(s *Stage) { s.registry = r }
}

// NewStage creates a stage with an empty root container.
func NewStage(cfg Config, opts ...StageOption) (*Stage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Stage{cfg: cfg, viewport: newViewport(cfg.Scale)}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		if cfg.Debug {
			s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		} else {
			s.logger = slog.New(slog.DiscardHandler)
		}
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.cache == nil {
		s.cache = NewCacheStore(cfg.CacheBudget)
	}
	if s.pool == nil {
		s.pool = NewSurfacePool(s.logger)
	}
	s.root = s.registry.NewContainerNode("root")
	return s, nil
}

// Root returns the stage's root container node.
func (s *Stage) Root() *Node { return s.root }

// Registry returns the registry the stage tree lives in.
func (s *Stage) Registry() *Registry { return s.registry }

// Cache returns the shape cache.
func (s *Stage) Cache() *CacheStore { return s.cache }

// Pool returns the surface pool.
func (s *Stage) Pool() *SurfacePool { return s.pool }

// Viewport returns the stage viewport.
func (s *Stage) Viewport() *Viewport { return s.viewport }

// Config returns the stage configuration.
func (s *Stage) Config() Config { return s.cfg }

// Logger returns the stage logger.
func (s *Stage) Logger() *slog.Logger { return s.logger }

// Frame returns the number of frames rendered.
func (s *Stage) Frame() uint64 { return s.frame }

// Stats returns the counters of the last rendered frame.
func (s *Stage) Stats() FrameStats { return s.lastStats }

// Update advances viewport tweens by dt seconds.
func (s *Stage) Update(dt float32) {
	s.viewport.Update(dt)
}

// NewFrame allocates a target sized to the stage in device pixels.
func (s *Stage) NewFrame() *image.RGBA {
	w, h := s.cfg.DeviceSize()
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// Render clears target to the background color and draws the tree into
// it. Rendering itself never fails; errors report misuse.
func (s *Stage) Render(target *image.RGBA) error {
	if s.stopped {
		return ErrStopped
	}
	if target == nil {
		return fmt.Errorf("flicker: render frame %d: nil target", s.frame)
	}
	start := time.Now()
	bg, _ := s.cfg.BackgroundColor()
	cv := NewCanvas(target)
	cv.Fill(premultiply(bg))

	r := s.newRenderer()
	r.renderNode(s.root, renderState{
		canvas: cv,
		matrix: r.base,
		ct:     IdentityColorTransform,
	})
	s.pool.EndFrame()

	r.stats.Allocated = s.pool.Allocated()
	r.stats.Elapsed = time.Since(start)
	s.lastStats = r.stats
	if s.cfg.Debug {
		s.debugLog(r.stats)
		s.debugCheckTree(s.root, 1)
	}
	s.frame++
	return nil
}

// RenderNode draws n's subtree, positioned as it is in the tree, into a
// new surface covering its visual bounds in device space. It returns nil
// when nothing would be drawn.
func (s *Stage) RenderNode(n *Node) *image.RGBA {
	r := s.newRenderer()
	pm := r.base
	if n.Parent != nil {
		pm = ConcatMatrix(pm, n.Parent.WorldMatrix())
	}
	b, ok := visualBounds(n, ConcatMatrix(pm, n.Matrix()), r.scale)
	if !ok {
		return nil
	}
	rect := pixelRect(b)
	if rect.Empty() || rect.Dx()*rect.Dy() > r.maxArea {
		return nil
	}
	img := image.NewRGBA(rect)
	r.renderNode(n, renderState{
		canvas: NewCanvas(img),
		matrix: pm,
		ct:     IdentityColorTransform,
	})
	return img
}

// HitTest returns the topmost node under the device point (x, y), or nil.
func (s *Stage) HitTest(x, y float64) *Node {
	base := s.viewport.Matrix()
	t := hitTester{base: base, x: x, y: y}
	return t.hit(s.root, base)
}

func (s *Stage) newRenderer() *renderer {
	return &renderer{
		cache:     s.cache,
		pool:      s.pool,
		base:      s.viewport.Matrix(),
		scale:     s.viewport.Scale(),
		maxArea:   s.cfg.surfaceLimit(),
		namespace: s.cfg.Namespace,
		logger:    s.logger,
	}
}

// Stop makes later Render calls return ErrStopped. A frame in progress is
// not interrupted.
func (s *Stage) Stop() { s.stopped = true }

// Stopped reports whether Stop has been called.
func (s *Stage) Stopped() bool { return s.stopped }

// Destroy stops the stage, disposes its tree and drops every cache entry.
func (s *Stage) Destroy() {
	s.stopped = true
	s.root.Dispose()
	s.cache.Reset()
}
