package flicker

import "math"

// flattenTolerance is the maximum deviation, in device pixels, between a
// curve and its flattened polyline.
const flattenTolerance = 0.2

// polyline is a flattened subpath.
type polyline struct {
	pts    []Vec2
	closed bool
}

// flattenPath converts path commands to polylines with every point mapped
// through m. Curve subdivision is chosen so the error in m's output space
// stays below tol. Open subpaths are reported unclosed; fills close them
// implicitly.
func flattenPath(p Path, m Matrix, tol float64) []polyline {
	var (
		out   []polyline
		cur   polyline
		start Vec2
		pen   Vec2
		have  bool
	)
	apply := func(v Vec2) Vec2 {
		x, y := m.Apply(v.X, v.Y)
		return Vec2{x, y}
	}
	flush := func() {
		if len(cur.pts) > 1 {
			out = append(out, cur)
		}
		cur = polyline{}
	}
	ensure := func() {
		if !have {
			cur.pts = append(cur.pts, apply(pen))
			have = true
		}
	}
	for _, c := range p {
		switch c.Op {
		case PathMoveTo:
			flush()
			pen, start = c.Points[0], c.Points[0]
			cur.pts = append(cur.pts, apply(pen))
			have = true
		case PathLineTo:
			ensure()
			pen = c.Points[0]
			cur.pts = append(cur.pts, apply(pen))
		case PathQuadTo:
			ensure()
			p0, p1, p2 := pen, c.Points[0], c.Points[1]
			n := quadSegments(p0, p1, p2, m, tol)
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				u := 1 - t
				cur.pts = append(cur.pts, apply(Vec2{
					u*u*p0.X + 2*u*t*p1.X + t*t*p2.X,
					u*u*p0.Y + 2*u*t*p1.Y + t*t*p2.Y,
				}))
			}
			pen = p2
		case PathCubicTo:
			ensure()
			p0, p1, p2, p3 := pen, c.Points[0], c.Points[1], c.Points[2]
			n := cubicSegments(p0, p1, p2, p3, m, tol)
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				u := 1 - t
				a, b, cc, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
				cur.pts = append(cur.pts, apply(Vec2{
					a*p0.X + b*p1.X + cc*p2.X + d*p3.X,
					a*p0.Y + b*p1.Y + cc*p2.Y + d*p3.Y,
				}))
			}
			pen = p3
		case PathClose:
			if have {
				cur.closed = true
				flush()
			}
			pen = start
			have = false
		}
	}
	flush()
	return out
}

// localTolerance converts the device flattening tolerance into m's input
// space.
func localTolerance(m Matrix) float64 {
	s := math.Max(math.Abs(m.ScaleX()), math.Abs(m.ScaleY()))
	if s == 0 || !isFinite(s) {
		return flattenTolerance
	}
	return flattenTolerance / s
}

func linearLen(m Matrix, v Vec2) float64 {
	return math.Hypot(m[0]*v.X+m[2]*v.Y, m[1]*v.X+m[3]*v.Y)
}

func quadSegments(p0, p1, p2 Vec2, m Matrix, tol float64) int {
	e := Vec2{(p0.X - 2*p1.X + p2.X) / 4, (p0.Y - 2*p1.Y + p2.Y) / 4}
	d := linearLen(m, e)
	if d <= tol {
		return 1
	}
	return min(int(math.Ceil(math.Sqrt(d/tol))), 256)
}

func cubicSegments(p0, p1, p2, p3 Vec2, m Matrix, tol float64) int {
	d1 := Vec2{p0.X - 2*p1.X + p2.X, p0.Y - 2*p1.Y + p2.Y}
	d2 := Vec2{p1.X - 2*p2.X + p3.X, p1.Y - 2*p2.Y + p3.Y}
	d := math.Max(linearLen(m, d1), linearLen(m, d2))
	if d == 0 {
		return 1
	}
	n := math.Sqrt(3 * d / (4 * tol))
	if n <= 1 {
		return 1
	}
	return min(int(math.Ceil(n)), 256)
}

// strokeWidth returns the local stroke width used for both drawing and hit
// testing: hairlines never get thinner than one device pixel.
func strokeWidth(w float64, m Matrix) float64 {
	s := m.MinAxisScale()
	if s <= 0 {
		return w
	}
	return math.Max(w, 1/s)
}

// strokePolygons expands polylines into filled polygons: one quad per
// segment and a round cap or join disc at every vertex. Every polygon is
// emitted with positive signed area so overlapping pieces accumulate
// instead of cancelling under the rasterizer's winding sum.
func strokePolygons(lines []polyline, width float64, emit func([]Vec2)) {
	hw := width / 2
	if hw <= 0 {
		return
	}
	disc := discTemplate(hw)
	buf := make([]Vec2, 0, len(disc))
	for _, l := range lines {
		n := len(l.pts)
		segs := n - 1
		if l.closed {
			segs = n
		}
		for i := 0; i < segs; i++ {
			a, b := l.pts[i], l.pts[(i+1)%n]
			dx, dy := b.X-a.X, b.Y-a.Y
			ln := math.Hypot(dx, dy)
			if ln == 0 {
				continue
			}
			nx, ny := -dy/ln*hw, dx/ln*hw
			emit(orient([]Vec2{
				{a.X + nx, a.Y + ny},
				{b.X + nx, b.Y + ny},
				{b.X - nx, b.Y - ny},
				{a.X - nx, a.Y - ny},
			}))
		}
		for _, p := range l.pts {
			buf = buf[:0]
			for _, d := range disc {
				buf = append(buf, Vec2{p.X + d.X, p.Y + d.Y})
			}
			emit(buf)
		}
	}
}

// discTemplate returns a positively oriented polygon approximating a
// circle of radius r around the origin.
func discTemplate(r float64) []Vec2 {
	n := int(math.Ceil(math.Pi / math.Acos(math.Max(-1, 1-flattenTolerance/math.Max(r, flattenTolerance)))))
	n = max(8, min(n, 64))
	out := make([]Vec2, n)
	for i := range out {
		s, c := math.Sincos(2 * math.Pi * float64(i) / float64(n))
		out[i] = Vec2{r * c, r * s}
	}
	return out
}

func signedArea(pts []Vec2) float64 {
	var a float64
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return a / 2
}

func orient(pts []Vec2) []Vec2 {
	if signedArea(pts) < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	return pts
}

// windingNumber returns the nonzero winding number of (x, y) against
// polylines treated as closed rings.
func windingNumber(lines []polyline, x, y float64) int {
	w := 0
	for _, l := range lines {
		n := len(l.pts)
		for i := 0; i < n; i++ {
			a, b := l.pts[i], l.pts[(i+1)%n]
			if a.Y <= y {
				if b.Y > y && cross(a, b, x, y) > 0 {
					w++
				}
			} else if b.Y <= y && cross(a, b, x, y) < 0 {
				w--
			}
		}
	}
	return w
}

func cross(a, b Vec2, x, y float64) float64 {
	return (b.X-a.X)*(y-a.Y) - (x-a.X)*(b.Y-a.Y)
}

// distToPolyline returns the shortest distance from (x, y) to any segment.
func distToPolyline(lines []polyline, x, y float64) float64 {
	best := math.Inf(1)
	for _, l := range lines {
		n := len(l.pts)
		segs := n - 1
		if l.closed {
			segs = n
		}
		for i := 0; i < segs; i++ {
			best = math.Min(best, distToSegment(l.pts[i], l.pts[(i+1)%n], x, y))
		}
		if n == 1 {
			best = math.Min(best, math.Hypot(x-l.pts[0].X, y-l.pts[0].Y))
		}
	}
	return best
}

func distToSegment(a, b Vec2, x, y float64) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(x-a.X, y-a.Y)
	}
	t := ((x-a.X)*dx + (y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(x-(a.X+t*dx), y-(a.Y+t*dy))
}
