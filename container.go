package flicker

import (
	"cmp"
	"slices"
)

// allFrames keys static children that are present on every frame.
const allFrames = -1

type frameDepth struct {
	frame, depth int
}

type timelineEntry struct {
	node      *Node
	placement Placement
}

// Container holds depth-indexed children. Static children are present on
// every frame; timeline children are keyed by (frame, depth) and appear
// only while the container sits on that frame. The current frame is set
// by the external driver through GotoFrame.
type Container struct {
	owner   *Node
	entries map[frameDepth]timelineEntry
	frame   int
	frames  int

	// Derived for the current frame.
	sorted   bool
	children []*Node
	current  map[*Node]Placement
}

func (*Container) content() {}

// NewContainer creates an empty single-frame container.
func NewContainer() *Container {
	return &Container{
		entries: make(map[frameDepth]timelineEntry),
		frames:  1,
	}
}

// AddChild places child at depth on every frame with identity transforms.
// A child already at that depth is detached. Panics if child is nil or an
// ancestor of the container.
func (c *Container) AddChild(depth int, child *Node) {
	c.place(allFrames, child, NewPlacement(depth))
}

// Place records child's placement for one frame of the timeline.
func (c *Container) Place(frame int, child *Node, p Placement) {
	if frame < 0 {
		panic("flicker: frame index out of range")
	}
	c.place(frame, child, p)
	if frame >= c.frames {
		c.frames = frame + 1
	}
}

func (c *Container) place(frame int, child *Node, p Placement) {
	if child == nil {
		panic("flicker: cannot add nil child")
	}
	if c.owner != nil && isAncestor(child, c.owner) {
		panic("flicker: adding child would create a cycle")
	}
	if child.Parent != nil && (c.owner == nil || child.Parent != c.owner) {
		child.RemoveFromParent()
	}
	key := frameDepth{frame, p.Depth}
	if prev, ok := c.entries[key]; ok && prev.node != child {
		c.detachIfOrphaned(prev.node, key)
	}
	c.entries[key] = timelineEntry{node: child, placement: p}
	child.Parent = c.owner
	child.placement = c
	c.sorted = false
}

// detachIfOrphaned drops the parent link of n when key was its last entry.
func (c *Container) detachIfOrphaned(n *Node, key frameDepth) {
	delete(c.entries, key)
	for _, e := range c.entries {
		if e.node == n {
			return
		}
	}
	n.Parent = nil
	n.placement = nil
}

// RemoveChild removes every entry referencing child, on all frames.
func (c *Container) RemoveChild(child *Node) {
	found := false
	for k, e := range c.entries {
		if e.node == child {
			delete(c.entries, k)
			found = true
		}
	}
	if !found {
		return
	}
	child.Parent = nil
	child.placement = nil
	c.sorted = false
}

// RemoveChildren detaches every child on every frame.
func (c *Container) RemoveChildren() {
	for _, e := range c.entries {
		e.node.Parent = nil
		e.node.placement = nil
	}
	clear(c.entries)
	c.sorted = false
}

// GotoFrame selects the frame whose children are rendered and hit-tested.
// Out-of-range frames are clamped.
func (c *Container) GotoFrame(frame int) {
	frame = max(0, min(frame, c.frames-1))
	if frame == c.frame {
		return
	}
	c.frame = frame
	c.sorted = false
}

// Frame returns the current frame index.
func (c *Container) Frame() int { return c.frame }

// TotalFrames returns the number of frames on the timeline.
func (c *Container) TotalFrames() int { return c.frames }

// Placement implements PlacementController for the current frame.
func (c *Container) Placement(n *Node) (Placement, bool) {
	c.refresh()
	p, ok := c.current[n]
	return p, ok
}

// Children returns the current frame's children in depth order. The slice
// must not be mutated.
func (c *Container) Children() []*Node {
	c.refresh()
	return c.children
}

// NumChildren returns the number of children on the current frame.
func (c *Container) NumChildren() int {
	return len(c.Children())
}

// ChildAtDepth returns the current frame's child at depth, or nil.
func (c *Container) ChildAtDepth(depth int) *Node {
	for _, ch := range c.Children() {
		if ch.Depth() == depth {
			return ch
		}
	}
	return nil
}

// ChildByName returns the first current child whose node or placement
// name matches.
func (c *Container) ChildByName(name string) *Node {
	for _, ch := range c.Children() {
		if ch.Name == name {
			return ch
		}
		if p, ok := c.current[ch]; ok && p.Name == name {
			return ch
		}
	}
	return nil
}

// refresh rebuilds the current frame's child list and placement index.
// Timeline entries take precedence over static ones at the same depth.
func (c *Container) refresh() {
	if c.sorted {
		return
	}
	c.sorted = true
	if c.current == nil {
		c.current = make(map[*Node]Placement)
	}
	clear(c.current)
	c.children = c.children[:0]
	taken := make(map[int]bool)
	for k, e := range c.entries {
		if k.frame == c.frame {
			c.current[e.node] = e.placement
			taken[k.depth] = true
		}
	}
	for k, e := range c.entries {
		if k.frame != allFrames || taken[k.depth] {
			continue
		}
		if _, dup := c.current[e.node]; dup {
			continue
		}
		c.current[e.node] = e.placement
	}
	for n := range c.current {
		c.children = append(c.children, n)
	}
	slices.SortFunc(c.children, func(a, b *Node) int {
		if d := cmp.Compare(a.Depth(), b.Depth()); d != 0 {
			return d
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// allNodes lists each distinct child across every frame.
func (c *Container) allNodes() []*Node {
	seen := make(map[*Node]bool)
	var out []*Node
	for _, e := range c.entries {
		if !seen[e.node] {
			seen[e.node] = true
			out = append(out, e.node)
		}
	}
	return out
}

// attach binds the container to its owning node.
func (c *Container) attach(owner *Node) {
	c.owner = owner
	for _, e := range c.entries {
		e.node.Parent = owner
	}
}

// bounds unions the visible children's bounds in container space.
func (c *Container) bounds() Rect {
	var r Rect
	first := true
	for _, ch := range c.Children() {
		if !ch.Visible() {
			continue
		}
		b := ch.Bounds()
		if b.Empty() {
			continue
		}
		b = ch.Matrix().TransformRect(b)
		if first {
			r, first = b, false
		} else {
			r = rectUnion(r, b)
		}
	}
	return r
}

// ButtonState selects which state of a button is displayed.
type ButtonState uint8

const (
	ButtonUp ButtonState = iota
	ButtonOver
	ButtonDown
	ButtonHitTest
)

// Button shows one of three display states and hit-tests against a
// dedicated hit state. The driver selects the state.
type Button struct {
	owner  *Node
	states [4]*Node
	state  ButtonState
}

func (*Button) content() {}

// NewButton creates a button with no states.
func NewButton() *Button { return &Button{} }

// SetStateNode assigns the node shown for state s.
func (b *Button) SetStateNode(s ButtonState, n *Node) {
	if int(s) >= len(b.states) {
		return
	}
	if n != nil {
		if b.owner != nil && isAncestor(n, b.owner) {
			panic("flicker: adding child would create a cycle")
		}
		if n.Parent != nil && n.Parent != b.owner {
			n.RemoveFromParent()
		}
		n.Parent = b.owner
	}
	b.states[s] = n
}

// StateNode returns the node assigned to state s, or nil.
func (b *Button) StateNode(s ButtonState) *Node {
	if int(s) >= len(b.states) {
		return nil
	}
	return b.states[s]
}

// SetState selects the displayed state. ButtonHitTest is not displayable
// and is ignored.
func (b *Button) SetState(s ButtonState) {
	if s < ButtonHitTest {
		b.state = s
	}
}

// State returns the displayed state.
func (b *Button) State() ButtonState { return b.state }

// current returns the displayed state node, falling back to Up.
func (b *Button) current() *Node {
	if n := b.states[b.state]; n != nil {
		return n
	}
	return b.states[ButtonUp]
}

// hitNode returns the hit state node, falling back to Up.
func (b *Button) hitNode() *Node {
	if n := b.states[ButtonHitTest]; n != nil {
		return n
	}
	return b.states[ButtonUp]
}

func (b *Button) attach(owner *Node) {
	b.owner = owner
	for _, s := range b.states {
		if s != nil {
			s.Parent = owner
		}
	}
}
