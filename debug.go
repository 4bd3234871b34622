package flicker

import (
	"log/slog"
	"time"
)

// FrameStats holds per-frame render counters.
type FrameStats struct {
	Nodes       int // nodes visited
	Detours     int // offscreen surfaces used for filters or blends
	DirectDraws int // shapes drawn straight into their target
	CacheHits   int
	CacheMisses int
	Fallbacks   int // oversized surfaces replaced by direct drawing
	Allocated   int // pool surfaces created so far
	Elapsed     time.Duration
}

// LogValue implements slog.LogValuer.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("nodes", s.Nodes),
		slog.Int("detours", s.Detours),
		slog.Int("direct", s.DirectDraws),
		slog.Int("cache_hits", s.CacheHits),
		slog.Int("cache_misses", s.CacheMisses),
		slog.Int("fallbacks", s.Fallbacks),
		slog.Int("pool_allocated", s.Allocated),
		slog.Duration("elapsed", s.Elapsed),
	)
}

// debugLog writes one frame's stats at debug level.
func (s *Stage) debugLog(stats FrameStats) {
	if !s.cfg.Debug {
		return
	}
	s.logger.Debug("frame", "frame", s.frame, "stats", stats)
}

const debugMaxTreeDepth = 32

const debugMaxChildCount = 1000

// debugCheckTree warns when the tree gets deeper than debugMaxTreeDepth or
// a container holds more than debugMaxChildCount children on its current
// frame.
func (s *Stage) debugCheckTree(n *Node, depth int) {
	if depth == debugMaxTreeDepth+1 {
		s.logger.Warn("tree depth exceeds threshold",
			"node", n.Name, "depth", depth, "threshold", debugMaxTreeDepth)
	}
	c := containerOf(n)
	if c == nil {
		return
	}
	children := c.Children()
	if len(children) > debugMaxChildCount {
		s.logger.Warn("container child count exceeds threshold",
			"node", n.Name, "children", len(children), "threshold", debugMaxChildCount)
	}
	for _, ch := range children {
		s.debugCheckTree(ch, depth+1)
	}
}
