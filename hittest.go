package flicker

// --- Hit testing ---

// hitTester replays geometry against a point. base maps root space to the
// space the point is given in; mask references are resolved through it.
type hitTester struct {
	base Matrix
	x, y float64
}

// hit returns the topmost node under the point when n is drawn under the
// parent matrix pm. Leaves and buttons report themselves; containers report
// the hit descendant. Invisible nodes, clip-mask definers and nodes used as
// masks are never hit.
func (t *hitTester) hit(n *Node, pm Matrix) *Node {
	if !n.Visible() || n.usedAsMask || n.IsClipMask() {
		return nil
	}
	m := ConcatMatrix(pm, n.Matrix())
	if mk := n.Mask(); mk != nil && !t.covers(mk, ConcatMatrix(t.base, mk.WorldMatrix())) {
		return nil
	}
	switch c := n.Content.(type) {
	case *Shape:
		if hitRecords(c.Records, c.Bounds(), m, t.x, t.y) {
			return n
		}
	case *MorphShape:
		records := c.RecordsAt(n.Ratio())
		if hitRecords(records, recordsBounds(records), m, t.x, t.y) {
			return n
		}
	case *Container:
		return t.hitChildren(c, m)
	case *Button:
		if s := c.hitNode(); s != nil && t.covers(s, ConcatMatrix(m, s.Matrix())) {
			return n
		}
	}
	return nil
}

// hitChildren walks children topmost first. A child inside a clip scope is
// only reachable where the scope's definer also covers the point.
func (t *hitTester) hitChildren(c *Container, m Matrix) *Node {
	children := c.Children()
	for i := len(children) - 1; i >= 0; i-- {
		ch := children[i]
		if !t.inClipScopes(children[:i], ch.Depth(), m) {
			continue
		}
		if h := t.hit(ch, m); h != nil {
			return h
		}
	}
	return nil
}

// inClipScopes reports whether every clip definer among the earlier
// siblings whose scope reaches depth covers the point.
func (t *hitTester) inClipScopes(earlier []*Node, depth int, m Matrix) bool {
	for _, s := range earlier {
		cd := s.ClipDepth()
		if cd <= 0 || depth > cd {
			continue
		}
		if !t.covers(s, ConcatMatrix(m, s.Matrix())) {
			return false
		}
	}
	return true
}

// covers tests n's geometry drawn under the effective matrix m, ignoring
// visibility and clip flags. Masks and clip shapes are tested this way.
func (t *hitTester) covers(n *Node, m Matrix) bool {
	switch c := n.Content.(type) {
	case *Shape:
		return hitRecords(c.Records, c.Bounds(), m, t.x, t.y)
	case *MorphShape:
		records := c.RecordsAt(n.Ratio())
		return hitRecords(records, recordsBounds(records), m, t.x, t.y)
	case *Container:
		for _, ch := range c.Children() {
			if t.covers(ch, ConcatMatrix(m, ch.Matrix())) {
				return true
			}
		}
	case *Button:
		if s := c.hitNode(); s != nil {
			return t.covers(s, ConcatMatrix(m, s.Matrix()))
		}
	}
	return false
}

// hitRecords tests the point (x, y) against records drawn under m. The
// point is mapped into local space, rejected outside bounds, then tested
// for nonzero winding against each fill and for distance against each
// stroke at the width rendering uses.
func hitRecords(records []ShapeRecord, bounds Rect, m Matrix, x, y float64) bool {
	inv, ok := m.Invert()
	if !ok {
		return false
	}
	lx, ly := inv.Apply(x, y)
	if !bounds.Contains(lx, ly) {
		return false
	}
	tol := localTolerance(m)
	for i := range records {
		rec := &records[i]
		if rec.Fill == nil && rec.Line == nil {
			continue
		}
		lines := flattenPath(rec.Path, IdentityMatrix, tol)
		if rec.Fill != nil && windingNumber(lines, lx, ly) != 0 {
			return true
		}
		if rec.Line != nil && distToPolyline(lines, lx, ly) <= strokeWidth(rec.Line.Width, m)/2 {
			return true
		}
	}
	return false
}

// HitTestPoint reports whether the root-space point (x, y) touches n. With
// shapeFlag false only the transformed bounding box is tested; otherwise
// the fills and strokes of n's subtree are replayed.
func (n *Node) HitTestPoint(x, y float64, shapeFlag bool) bool {
	if !shapeFlag {
		return n.WorldMatrix().TransformRect(n.Bounds()).Contains(x, y)
	}
	pm := IdentityMatrix
	if n.Parent != nil {
		pm = n.Parent.WorldMatrix()
	}
	t := hitTester{base: IdentityMatrix, x: x, y: y}
	return t.hit(n, pm) != nil
}
