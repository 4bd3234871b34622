package flicker

import "math"

// Matrix is a 2D affine matrix [a, b, c, d, tx, ty] in pixels.
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Matrix [6]float64

// IdentityMatrix is the identity affine matrix.
var IdentityMatrix = Matrix{1, 0, 0, 1, 0, 0}

// TwipsPerPixel is the number of twips in one logical pixel.
const TwipsPerPixel = 20

// TwipsToPixels converts a twip measurement to pixels. Geometry is stored in
// pixels; the parsing layer converts at the boundary.
func TwipsToPixels(v float64) float64 { return v / TwipsPerPixel }

// PixelsToTwips converts pixels back to twips.
func PixelsToTwips(v float64) float64 { return v * TwipsPerPixel }

// MatrixFromTwips converts a matrix whose translation is in twips to pixels.
func MatrixFromTwips(m Matrix) Matrix {
	m[4] = TwipsToPixels(m[4])
	m[5] = TwipsToPixels(m[5])
	return m
}

// TranslateMatrix returns a pure translation.
func TranslateMatrix(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// ScaleMatrix returns a pure scale.
func ScaleMatrix(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// RotateMatrix returns a rotation by deg degrees.
func RotateMatrix(deg float64) Matrix {
	sin, cos := sinCosDeg(deg)
	return Matrix{cos, sin, -sin, cos, 0, 0}
}

// ConcatMatrix multiplies two affine matrices: result = parent * child.
func ConcatMatrix(p, c Matrix) Matrix {
	return Matrix{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// Invert computes the inverse matrix. Returns the identity and false if the
// matrix is singular (determinant ≈ 0).
func (m Matrix) Invert() (Matrix, bool) {
	det := m.det()
	if det > -1e-12 && det < 1e-12 {
		return IdentityMatrix, false
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Matrix{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}, true
}

func (m Matrix) det() float64 {
	return m[0]*m[3] - m[2]*m[1]
}

// Apply transforms a point.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// TransformRect returns the axis-aligned bounding box of r under m.
func (m Matrix) TransformRect(r Rect) Rect {
	var b boundsBuilder
	b.add(m.Apply(r.X, r.Y))
	b.add(m.Apply(r.X+r.Width, r.Y))
	b.add(m.Apply(r.X, r.Y+r.Height))
	b.add(m.Apply(r.X+r.Width, r.Y+r.Height))
	return b.rect()
}

// IsLinearIdentity reports whether the matrix has no scale, rotation or skew.
func (m Matrix) IsLinearIdentity() bool {
	return m[0] == 1 && m[1] == 0 && m[2] == 0 && m[3] == 1
}

// X returns the horizontal translation.
func (m Matrix) X() float64 { return m[4] }

// Y returns the vertical translation.
func (m Matrix) Y() float64 { return m[5] }

// ScaleX returns the length of the x basis vector. It is always
// non-negative; mirroring is reported through ScaleY.
func (m Matrix) ScaleX() float64 {
	return math.Hypot(m[0], m[1])
}

// ScaleY returns the length of the y basis vector, negated when the matrix
// mirrors (negative determinant).
func (m Matrix) ScaleY() float64 {
	s := math.Hypot(m[2], m[3])
	if m.det() < 0 {
		return -s
	}
	return s
}

// MinAxisScale returns the smaller absolute axis scale.
func (m Matrix) MinAxisScale() float64 {
	return math.Min(math.Abs(m.ScaleX()), math.Abs(m.ScaleY()))
}

// Rotation returns the angle of the x basis vector in degrees. When a is
// numerically zero the result snaps to exactly ±90 so rotating by 90 and
// reading back does not drift.
func (m Matrix) Rotation() float64 {
	if math.Abs(m[0]) < 1e-12 && m[1] != 0 {
		if m[1] > 0 {
			return 90
		}
		return -90
	}
	return math.Atan2(m[1], m[0]) * 180 / math.Pi
}

// skewDelta returns the angle between the y basis vector and the
// perpendicular of the x basis vector, in radians.
func (m Matrix) skewDelta() float64 {
	ax := math.Atan2(m[1], m[0])
	ay := math.Atan2(-m[2], m[3])
	if m.det() < 0 {
		ay = math.Atan2(m[2], -m[3])
	}
	return ay - ax
}

// WithScale rebuilds the matrix with new axis scales, keeping rotation,
// skew and translation.
func (m Matrix) WithScale(sx, sy float64) Matrix {
	rot := m.Rotation()
	skew := m.skewDelta()
	sin, cos := sinCosDeg(rot)
	ysin, ycos := math.Sincos(rot*math.Pi/180 + skew)
	return Matrix{sx * cos, sx * sin, -sy * ysin, sy * ycos, m[4], m[5]}
}

// WithRotation rebuilds the matrix with a new rotation in degrees, keeping
// scale, skew and translation.
func (m Matrix) WithRotation(deg float64) Matrix {
	sx, sy := m.ScaleX(), m.ScaleY()
	skew := m.skewDelta()
	sin, cos := sinCosDeg(deg)
	ysin, ycos := sin, cos
	if skew != 0 {
		ysin, ycos = math.Sincos(deg*math.Pi/180 + skew)
	}
	return Matrix{sx * cos, sx * sin, -sy * ysin, sy * ycos, m[4], m[5]}
}

// sinCosDeg returns exact values at multiples of 90 degrees.
func sinCosDeg(deg float64) (sin, cos float64) {
	if q := deg / 90; q == math.Trunc(q) {
		switch ((int64(q) % 4) + 4) % 4 {
		case 0:
			return 0, 1
		case 1:
			return 1, 0
		case 2:
			return 0, -1
		case 3:
			return -1, 0
		}
	}
	return math.Sincos(deg * math.Pi / 180)
}

// stepScale quantizes a scale factor up to the next power of sqrt(2) so that
// smooth zooms reuse a handful of cached rasterizations.
func stepScale(s float64) float64 {
	s = math.Abs(s)
	if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return 1
	}
	return math.Pow(math.Sqrt2, math.Ceil(math.Log(s)/math.Log(math.Sqrt2)-1e-9))
}

// isFinite reports whether v is neither NaN nor infinite.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
