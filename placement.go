package flicker

// Placement is the per-frame record the timeline layer supplies for a
// child: where it sits, how it is transformed, and how it is composited.
type Placement struct {
	Depth          int
	Matrix         Matrix
	ColorTransform ColorTransform
	Ratio          float64
	HasRatio       bool
	ClipDepth      int
	Filters        []Filter
	BlendMode      BlendMode
	Hidden         bool
	Name           string
}

// NewPlacement returns a placement at depth with identity transforms.
func NewPlacement(depth int) Placement {
	return Placement{
		Depth:          depth,
		Matrix:         IdentityMatrix,
		ColorTransform: IdentityColorTransform,
	}
}

// PlacementController supplies the inherited values a node resolves when
// it has no explicit override. Containers implement it for their children;
// the timeline layer may supply its own.
type PlacementController interface {
	Placement(n *Node) (Placement, bool)
}

// StaticPlacement is a map-backed PlacementController for hand-built scenes
// and tests.
type StaticPlacement struct {
	records map[*Node]Placement
}

// NewStaticPlacement creates an empty controller.
func NewStaticPlacement() *StaticPlacement {
	return &StaticPlacement{records: make(map[*Node]Placement)}
}

// Assign stores p for n and makes the controller n's placement source.
func (s *StaticPlacement) Assign(n *Node, p Placement) {
	s.records[n] = p
	n.placement = s
}

// Placement implements PlacementController.
func (s *StaticPlacement) Placement(n *Node) (Placement, bool) {
	p, ok := s.records[n]
	return p, ok
}
