package flicker

import "math"

// Rect is an axis-aligned rectangle in pixels. The coordinate system has its
// origin at the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Pad grows the rectangle by dx horizontally and dy vertically on each side.
func (r Rect) Pad(dx, dy float64) Rect {
	return Rect{X: r.X - dx, Y: r.Y - dy, Width: r.Width + 2*dx, Height: r.Height + 2*dy}
}

// rectUnion returns the smallest Rect containing both a and b.
func rectUnion(a, b Rect) Rect {
	minX := math.Min(a.X, b.X)
	minY := math.Min(a.Y, b.Y)
	maxX := math.Max(a.X+a.Width, b.X+b.Width)
	maxY := math.Max(a.Y+a.Height, b.Y+b.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// boundsBuilder accumulates an AABB from points.
type boundsBuilder struct {
	minX, minY, maxX, maxY float64
	any                    bool
}

func (b *boundsBuilder) add(x, y float64) {
	if !b.any {
		b.minX, b.maxX, b.minY, b.maxY = x, x, y, y
		b.any = true
		return
	}
	b.minX = math.Min(b.minX, x)
	b.maxX = math.Max(b.maxX, x)
	b.minY = math.Min(b.minY, y)
	b.maxY = math.Max(b.maxY, y)
}

func (b *boundsBuilder) rect() Rect {
	if !b.any {
		return Rect{}
	}
	return Rect{X: b.minX, Y: b.minY, Width: b.maxX - b.minX, Height: b.maxY - b.minY}
}

// BlendMode selects how a node's rendered output is merged into its parent.
type BlendMode uint8

const (
	BlendNormal     BlendMode = iota // source-over
	BlendLayer                       // source-over, always isolated
	BlendMultiply                    // multiply
	BlendScreen                      // screen
	BlendLighten                     // lighten
	BlendDarken                      // darken
	BlendDifference                  // difference
	BlendAdd                         // lighter
	BlendSubtract                    // backdrop minus source, weighted by source alpha
	BlendInvert                      // inverts the backdrop under source coverage
	BlendAlpha                       // destination-in
	BlendErase                       // destination-out
	BlendOverlay                     // overlay
	BlendHardLight                   // hard-light
)

var blendModeNames = [...]string{
	BlendNormal:     "normal",
	BlendLayer:      "layer",
	BlendMultiply:   "multiply",
	BlendScreen:     "screen",
	BlendLighten:    "lighten",
	BlendDarken:     "darken",
	BlendDifference: "difference",
	BlendAdd:        "add",
	BlendSubtract:   "subtract",
	BlendInvert:     "invert",
	BlendAlpha:      "alpha",
	BlendErase:      "erase",
	BlendOverlay:    "overlay",
	BlendHardLight:  "hardlight",
}

// String returns the blend mode name as it appears in authoring tools.
func (b BlendMode) String() string {
	if int(b) < len(blendModeNames) {
		return blendModeNames[b]
	}
	return "normal"
}

// ParseBlendMode maps a blend mode name to its value. Unknown names map to
// BlendNormal and ok=false.
func ParseBlendMode(name string) (mode BlendMode, ok bool) {
	for i, n := range blendModeNames {
		if n == name {
			return BlendMode(i), true
		}
	}
	return BlendNormal, false
}

// compositeOp returns the operator that merges a detour surface drawn
// with blend mode b into its parent.
func (b BlendMode) compositeOp() CompositeOp {
	switch b {
	case BlendMultiply:
		return OpMultiply
	case BlendScreen:
		return OpScreen
	case BlendLighten:
		return OpLighten
	case BlendDarken:
		return OpDarken
	case BlendDifference:
		return OpDifference
	case BlendAdd:
		return OpLighter
	case BlendSubtract:
		return OpSubtract
	case BlendInvert:
		return OpInvert
	case BlendAlpha:
		return OpDestinationIn
	case BlendErase:
		return OpDestinationOut
	case BlendOverlay:
		return OpOverlay
	case BlendHardLight:
		return OpHardLight
	default:
		return OpSourceOver
	}
}
