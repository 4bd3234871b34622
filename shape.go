package flicker

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/clone"
)

// Vec2 is a 2D vector used for path points and offsets.
type Vec2 struct {
	X, Y float64
}

// PathOp identifies a path command.
type PathOp uint8

const (
	PathMoveTo  PathOp = iota // start a new subpath at Points[0]
	PathLineTo                // straight line to Points[0]
	PathQuadTo                // quadratic curve: control Points[0], end Points[1]
	PathCubicTo               // cubic curve: controls Points[0..1], end Points[2]
	PathClose                 // close the current subpath
)

// PathCommand is a single recorded drawing command in local pixels.
type PathCommand struct {
	Op     PathOp
	Points [3]Vec2
}

// end returns the command's end point.
func (c PathCommand) end() Vec2 {
	switch c.Op {
	case PathQuadTo:
		return c.Points[1]
	case PathCubicTo:
		return c.Points[2]
	default:
		return c.Points[0]
	}
}

// pointCount returns how many of Points the command uses.
func (c PathCommand) pointCount() int {
	switch c.Op {
	case PathMoveTo, PathLineTo:
		return 1
	case PathQuadTo:
		return 2
	case PathCubicTo:
		return 3
	default:
		return 0
	}
}

// Path is an ordered list of path commands.
type Path []PathCommand

// MoveTo appends a move command.
func (p Path) MoveTo(x, y float64) Path {
	return append(p, PathCommand{Op: PathMoveTo, Points: [3]Vec2{{x, y}}})
}

// LineTo appends a line command.
func (p Path) LineTo(x, y float64) Path {
	return append(p, PathCommand{Op: PathLineTo, Points: [3]Vec2{{x, y}}})
}

// QuadTo appends a quadratic curve command.
func (p Path) QuadTo(cx, cy, x, y float64) Path {
	return append(p, PathCommand{Op: PathQuadTo, Points: [3]Vec2{{cx, cy}, {x, y}}})
}

// CubicTo appends a cubic curve command.
func (p Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) Path {
	return append(p, PathCommand{Op: PathCubicTo, Points: [3]Vec2{{c1x, c1y}, {c2x, c2y}, {x, y}}})
}

// Close appends a close command.
func (p Path) Close() Path {
	return append(p, PathCommand{Op: PathClose})
}

// RectPath returns a closed rectangle path.
func RectPath(x, y, w, h float64) Path {
	return Path{}.MoveTo(x, y).LineTo(x+w, y).LineTo(x+w, y+h).LineTo(x, y+h).Close()
}

// EllipsePath returns a closed ellipse made of four cubic arcs.
func EllipsePath(cx, cy, rx, ry float64) Path {
	const k = 0.5522847498307936
	return Path{}.
		MoveTo(cx+rx, cy).
		CubicTo(cx+rx, cy+ry*k, cx+rx*k, cy+ry, cx, cy+ry).
		CubicTo(cx-rx*k, cy+ry, cx-rx, cy+ry*k, cx-rx, cy).
		CubicTo(cx-rx, cy-ry*k, cx-rx*k, cy-ry, cx, cy-ry).
		CubicTo(cx+rx*k, cy-ry, cx+rx, cy-ry*k, cx+rx, cy).
		Close()
}

// bounds returns the AABB of every point the path references, control
// points included.
func (p Path) bounds() Rect {
	var b boundsBuilder
	for _, c := range p {
		for i := 0; i < c.pointCount(); i++ {
			b.add(c.Points[i].X, c.Points[i].Y)
		}
	}
	return b.rect()
}

// FillKind distinguishes fill styles.
type FillKind uint8

const (
	FillSolid          FillKind = iota // flat color
	FillLinearGradient                 // gradient along the x axis of gradient space
	FillRadialGradient                 // gradient by distance from the gradient origin
	FillBitmap                         // image placed by its own matrix
)

// SpreadMode controls how gradients extend past their 0..1 range.
type SpreadMode uint8

const (
	SpreadPad     SpreadMode = iota // clamp to the end stops
	SpreadReflect                   // mirror back and forth
	SpreadRepeat                    // wrap around
)

// GradientStop is a color at a ratio in [0, 1].
type GradientStop struct {
	Ratio float64
	Color color.NRGBA
}

// gradientHalfSize is half the side of the gradient square in pixels
// (16384 twips).
const gradientHalfSize = 16384.0 / TwipsPerPixel

// Gradient describes a linear or radial gradient. Matrix maps gradient
// space, where the gradient spans [-819.2, 819.2] pixels, to shape space.
type Gradient struct {
	Matrix Matrix
	Stops  []GradientStop
	Spread SpreadMode
	// FocalPoint shifts the radial focus along the x axis, in [-1, 1].
	FocalPoint float64
}

// BitmapFill places an image in shape space through Matrix.
type BitmapFill struct {
	Image  image.Image
	Matrix Matrix
	Repeat bool
	Smooth bool

	rgba *image.RGBA
}

// pixels returns the image as premultiplied RGBA, converting once.
func (b *BitmapFill) pixels() *image.RGBA {
	if b.rgba == nil && b.Image != nil {
		b.rgba = clone.AsRGBA(b.Image)
	}
	return b.rgba
}

// FillStyle is a solid, gradient or bitmap paint.
type FillStyle struct {
	Kind     FillKind
	Color    color.NRGBA
	Gradient *Gradient
	Bitmap   *BitmapFill
}

// SolidFill returns a flat color fill.
func SolidFill(c color.NRGBA) *FillStyle {
	return &FillStyle{Kind: FillSolid, Color: c}
}

// LinearGradientFill returns a linear gradient fill.
func LinearGradientFill(m Matrix, stops ...GradientStop) *FillStyle {
	return &FillStyle{Kind: FillLinearGradient, Gradient: &Gradient{Matrix: m, Stops: stops}}
}

// RadialGradientFill returns a radial gradient fill.
func RadialGradientFill(m Matrix, stops ...GradientStop) *FillStyle {
	return &FillStyle{Kind: FillRadialGradient, Gradient: &Gradient{Matrix: m, Stops: stops}}
}

// BitmapImageFill returns a bitmap fill.
func BitmapImageFill(img image.Image, m Matrix, repeat, smooth bool) *FillStyle {
	return &FillStyle{Kind: FillBitmap, Bitmap: &BitmapFill{Image: img, Matrix: m, Repeat: repeat, Smooth: smooth}}
}

// LineStyle strokes a path. Fill, when set, paints the stroke with a
// gradient or bitmap instead of Color.
type LineStyle struct {
	Width float64
	Color color.NRGBA
	Fill  *FillStyle
}

// ShapeRecord pairs a path with the style that paints it. A record with
// both Fill and Line is filled first, then stroked.
type ShapeRecord struct {
	Path Path
	Fill *FillStyle
	Line *LineStyle
}

// Content is the closed set of node payloads: *Shape, *MorphShape,
// *Container and *Button.
type Content interface {
	content()
}

// Shape is a static vector character.
type Shape struct {
	CharacterID int
	// Namespace identifies the source file so ids from different files do
	// not collide in the cache.
	Namespace string
	Records   []ShapeRecord

	bounds    Rect
	boundsSet bool
}

func (*Shape) content() {}

// NewShape creates a shape character from records.
func NewShape(id int, records ...ShapeRecord) *Shape {
	return &Shape{CharacterID: id, Records: records}
}

// SetBounds overrides the computed bounds with the declared bounds from the
// source file.
func (s *Shape) SetBounds(r Rect) {
	s.bounds = r
	s.boundsSet = true
}

// Bounds returns the shape's local bounds.
func (s *Shape) Bounds() Rect {
	if s.boundsSet {
		return s.bounds
	}
	s.bounds = recordsBounds(s.Records)
	s.boundsSet = true
	return s.bounds
}

// recordsBounds unions every record's path bounds, padded by half the
// stroke width.
func recordsBounds(records []ShapeRecord) Rect {
	var r Rect
	first := true
	for _, rec := range records {
		if len(rec.Path) == 0 {
			continue
		}
		b := rec.Path.bounds()
		if rec.Line != nil {
			half := rec.Line.Width / 2
			b = b.Pad(half, half)
		}
		if first {
			r = b
			first = false
		} else {
			r = rectUnion(r, b)
		}
	}
	return r
}

// MorphShape interpolates between two record sets of identical structure
// by the placement ratio.
type MorphShape struct {
	CharacterID int
	Namespace   string
	Start       []ShapeRecord
	End         []ShapeRecord
}

func (*MorphShape) content() {}

// RecordsAt returns records interpolated at ratio in [0, 1]. Records whose
// structure does not match their counterpart are taken from Start.
func (m *MorphShape) RecordsAt(ratio float64) []ShapeRecord {
	ratio = clampUnit(ratio)
	if ratio == 0 || len(m.Start) != len(m.End) {
		return m.Start
	}
	if ratio == 1 {
		return m.End
	}
	out := make([]ShapeRecord, len(m.Start))
	for i := range m.Start {
		out[i] = lerpRecord(m.Start[i], m.End[i], ratio)
	}
	return out
}

// Bounds returns the union of start and end bounds.
func (m *MorphShape) Bounds() Rect {
	s, e := recordsBounds(m.Start), recordsBounds(m.End)
	if s.Empty() {
		return e
	}
	if e.Empty() {
		return s
	}
	return rectUnion(s, e)
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(math.Round(lerp(float64(a.R), float64(b.R), t))),
		G: uint8(math.Round(lerp(float64(a.G), float64(b.G), t))),
		B: uint8(math.Round(lerp(float64(a.B), float64(b.B), t))),
		A: uint8(math.Round(lerp(float64(a.A), float64(b.A), t))),
	}
}

func lerpRecord(a, b ShapeRecord, t float64) ShapeRecord {
	if len(a.Path) != len(b.Path) {
		return a
	}
	out := ShapeRecord{Path: make(Path, len(a.Path))}
	for i, ca := range a.Path {
		cb := b.Path[i]
		if ca.Op != cb.Op {
			return a
		}
		cmd := PathCommand{Op: ca.Op}
		for j := 0; j < ca.pointCount(); j++ {
			cmd.Points[j] = Vec2{lerp(ca.Points[j].X, cb.Points[j].X, t), lerp(ca.Points[j].Y, cb.Points[j].Y, t)}
		}
		out.Path[i] = cmd
	}
	out.Fill = lerpFill(a.Fill, b.Fill, t)
	if a.Line != nil && b.Line != nil {
		out.Line = &LineStyle{
			Width: lerp(a.Line.Width, b.Line.Width, t),
			Color: lerpColor(a.Line.Color, b.Line.Color, t),
			Fill:  lerpFill(a.Line.Fill, b.Line.Fill, t),
		}
	} else {
		out.Line = a.Line
	}
	return out
}

func lerpFill(a, b *FillStyle, t float64) *FillStyle {
	if a == nil || b == nil || a.Kind != b.Kind {
		return a
	}
	switch a.Kind {
	case FillSolid:
		return SolidFill(lerpColor(a.Color, b.Color, t))
	case FillLinearGradient, FillRadialGradient:
		ga, gb := a.Gradient, b.Gradient
		if len(ga.Stops) != len(gb.Stops) {
			return a
		}
		g := &Gradient{Spread: ga.Spread, FocalPoint: lerp(ga.FocalPoint, gb.FocalPoint, t)}
		for i := range g.Matrix {
			g.Matrix[i] = lerp(ga.Matrix[i], gb.Matrix[i], t)
		}
		g.Stops = make([]GradientStop, len(ga.Stops))
		for i := range ga.Stops {
			g.Stops[i] = GradientStop{
				Ratio: lerp(ga.Stops[i].Ratio, gb.Stops[i].Ratio, t),
				Color: lerpColor(ga.Stops[i].Color, gb.Stops[i].Color, t),
			}
		}
		return &FillStyle{Kind: a.Kind, Gradient: g}
	case FillBitmap:
		bf := *a.Bitmap
		bf.rgba = nil
		for i := range bf.Matrix {
			bf.Matrix[i] = lerp(a.Bitmap.Matrix[i], b.Bitmap.Matrix[i], t)
		}
		return &FillStyle{Kind: FillBitmap, Bitmap: &bf}
	}
	return a
}
