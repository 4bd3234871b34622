package flicker

import "testing"

func newTestStage(t *testing.T) *Stage {
	t.Helper()
	s, err := NewStage(DefaultConfig())
	if err != nil {
		t.Fatalf("NewStage: %v", err)
	}
	return s
}

func TestHitTestRotatedScaledRect(t *testing.T) {
	reg := NewRegistry()
	n := reg.NewShapeNode("box", rectShape(1, 0, 0, 20, 20, red))
	n.SetX(100)
	n.SetY(50)
	n.SetRotation(45)
	n.SetScaleX(2)
	n.SetScaleY(2)

	// The untransformed center lies far from the moved silhouette.
	if n.HitTestPoint(10, 10, true) {
		t.Error("untransformed center hit")
	}
	x, y := n.LocalToWorld(10, 10)
	if !n.HitTestPoint(x, y, true) {
		t.Errorf("transformed center (%v, %v) missed", x, y)
	}
}

func TestHitTestBoundingBoxVersusShape(t *testing.T) {
	reg := NewRegistry()
	n := reg.NewShapeNode("diamond", rectShape(1, 0, 0, 20, 20, red))
	n.SetX(100)
	n.SetY(50)
	n.SetRotation(45)
	n.SetScaleX(2)
	n.SetScaleY(2)

	// Inside the axis-aligned box of the diamond but outside the diamond.
	if !n.HitTestPoint(75, 55, false) {
		t.Error("bounding box test missed a point inside the box")
	}
	if n.HitTestPoint(75, 55, true) {
		t.Error("shape test hit a point outside the silhouette")
	}
}

func TestHitTestOutsideBoundsNeverHits(t *testing.T) {
	reg := NewRegistry()
	n := reg.NewShapeNode("box", rectShape(1, 0, 0, 10, 10, red))
	for _, p := range [][2]float64{{-0.5, 5}, {10.5, 5}, {5, -1}, {5, 11}, {100, 100}} {
		if n.HitTestPoint(p[0], p[1], true) {
			t.Errorf("point %v outside bounds hit", p)
		}
		if n.HitTestPoint(p[0], p[1], false) {
			t.Errorf("point %v outside bounds hit the box", p)
		}
	}
}

func TestHitTestFillVersusStroke(t *testing.T) {
	reg := NewRegistry()
	outline := reg.NewShapeNode("outline", NewShape(1, ShapeRecord{
		Path: RectPath(0, 0, 40, 40),
		Line: &LineStyle{Width: 4, Color: red},
	}))
	if outline.HitTestPoint(20, 20, true) {
		t.Error("unfilled interior hit")
	}
	if !outline.HitTestPoint(1, 20, true) {
		t.Error("point on the stroke missed")
	}
	if !outline.HitTestPoint(-1.5, 20, true) {
		t.Error("point on the outer half of the stroke missed")
	}

	filled := reg.NewShapeNode("filled", NewShape(2, ShapeRecord{
		Path: RectPath(0, 0, 40, 40),
		Fill: SolidFill(red),
		Line: &LineStyle{Width: 1, Color: red},
	}))
	if !filled.HitTestPoint(20, 20, true) {
		t.Error("filled interior away from the stroke missed")
	}
}

func TestHitTestEllipse(t *testing.T) {
	reg := NewRegistry()
	n := reg.NewShapeNode("dot", NewShape(1, ShapeRecord{
		Path: EllipsePath(0, 0, 10, 10),
		Fill: SolidFill(red),
	}))
	if !n.HitTestPoint(0, 0, true) {
		t.Error("center missed")
	}
	if n.HitTestPoint(9, 9, true) {
		t.Error("corner of the bounding box hit")
	}
}

func TestStageHitTestTopmost(t *testing.T) {
	s := newTestStage(t)
	reg := s.Registry()
	root := s.Root().Container()
	below := reg.NewShapeNode("below", rectShape(1, 0, 0, 50, 50, red))
	above := reg.NewShapeNode("above", rectShape(2, 0, 0, 20, 20, red))
	root.AddChild(1, below)
	root.AddChild(2, above)

	if got := s.HitTest(10, 10); got != above {
		t.Errorf("HitTest(10,10) = %v, want above", got)
	}
	if got := s.HitTest(30, 30); got != below {
		t.Errorf("HitTest(30,30) = %v, want below", got)
	}
	above.SetVisible(false)
	if got := s.HitTest(10, 10); got != below {
		t.Errorf("HitTest with hidden top = %v, want below", got)
	}
	if got := s.HitTest(300, 300); got != nil {
		t.Errorf("HitTest on empty stage area = %v, want nil", got)
	}
}

func TestStageHitTestClipScope(t *testing.T) {
	s := newTestStage(t)
	reg := s.Registry()
	root := s.Root().Container()
	clipper := reg.NewShapeNode("clipper", rectShape(1, 0, 0, 10, 10, red))
	clipper.SetClipDepth(3)
	clipped := reg.NewShapeNode("clipped", rectShape(2, 0, 0, 50, 50, red))
	free := reg.NewShapeNode("free", rectShape(3, 0, 0, 50, 50, red))
	free.SetX(100)
	root.AddChild(1, clipper)
	root.AddChild(2, clipped)
	root.AddChild(4, free)

	if got := s.HitTest(5, 5); got != clipped {
		t.Errorf("HitTest inside clip = %v, want clipped", got)
	}
	if got := s.HitTest(30, 30); got != nil {
		t.Errorf("HitTest outside clip = %v, want nil", got)
	}
	if got := s.HitTest(130, 30); got != free {
		t.Errorf("HitTest past the clip scope = %v, want free", got)
	}
}

func TestStageHitTestMask(t *testing.T) {
	s := newTestStage(t)
	reg := s.Registry()
	root := s.Root().Container()
	mask := reg.NewShapeNode("mask", rectShape(1, 0, 0, 10, 10, red))
	masked := reg.NewShapeNode("masked", rectShape(2, 0, 0, 50, 50, red))
	root.AddChild(1, mask)
	root.AddChild(2, masked)
	masked.SetMask(mask)

	if got := s.HitTest(5, 5); got != masked {
		t.Errorf("HitTest inside mask = %v, want masked", got)
	}
	if got := s.HitTest(30, 30); got != nil {
		t.Errorf("HitTest outside mask = %v, want nil", got)
	}
}

func TestStageHitTestButton(t *testing.T) {
	s := newTestStage(t)
	reg := s.Registry()
	btn := NewButton()
	bn := reg.NewNode("btn", btn)
	btn.SetStateNode(ButtonUp, reg.NewShapeNode("up", rectShape(1, 0, 0, 10, 10, red)))
	btn.SetStateNode(ButtonHitTest, reg.NewShapeNode("hit", rectShape(2, 0, 0, 40, 40, red)))
	s.Root().Container().AddChild(1, bn)

	if got := s.HitTest(30, 30); got != bn {
		t.Errorf("HitTest in hit area = %v, want button", got)
	}
	if got := s.HitTest(45, 45); got != nil {
		t.Errorf("HitTest outside hit area = %v, want nil", got)
	}
}

func TestStageHitTestFollowsViewport(t *testing.T) {
	s := newTestStage(t)
	n := s.Registry().NewShapeNode("box", rectShape(1, 100, 100, 10, 10, red))
	s.Root().Container().AddChild(1, n)
	s.Viewport().X = 100
	s.Viewport().Y = 100

	if got := s.HitTest(5, 5); got != n {
		t.Errorf("HitTest after scrolling = %v, want box", got)
	}
	if got := s.HitTest(105, 105); got != nil {
		t.Errorf("HitTest at world coordinates = %v, want nil", got)
	}
}
