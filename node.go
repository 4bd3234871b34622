package flicker

import "slices"

// Override is an optional per-node value. An unset override defers to the
// node's placement record.
type Override[T any] struct {
	value T
	set   bool
}

// Get returns the override value and whether it is set.
func (o Override[T]) Get() (T, bool) { return o.value, o.set }

// Set materializes the override.
func (o *Override[T]) Set(v T) {
	o.value = v
	o.set = true
}

// Clear drops the override.
func (o *Override[T]) Clear() {
	var zero T
	o.value = zero
	o.set = false
}

// Node is a scene graph element. Its payload is one of the Content
// variants; its display properties are resolved per field with a fixed
// precedence:
//
//  1. an explicit override set through a setter,
//  2. the placement record the node's PlacementController reports for the
//     current frame,
//  3. the identity default.
//
// Getters never materialize an override. Setters read the resolved value,
// modify it, and store the result as an override that stays authoritative
// until Reset.
type Node struct {
	ID      uint32
	Name    string
	Parent  *Node
	Content Content

	// UserData is an arbitrary payload for the driver.
	UserData any

	registry  *Registry
	placement PlacementController

	matrix         Override[Matrix]
	colorTransform Override[ColorTransform]
	filters        Override[[]Filter]
	blendMode      Override[BlendMode]
	mask           Override[uint32]
	visible        Override[bool]
	depth          Override[int]
	clipDepth      Override[int]
	ratio          Override[float64]

	// usedAsMask hides a node while another node references it as a mask.
	usedAsMask bool
	disposed   bool
}

// resolve applies the override precedence for one field.
func resolve[T any](o Override[T], n *Node, fromPlacement func(Placement) T, def T) T {
	if v, ok := o.Get(); ok {
		return v
	}
	if p, ok := n.Placement(); ok {
		return fromPlacement(p)
	}
	return def
}

// Placement returns the placement record for the node's current frame.
func (n *Node) Placement() (Placement, bool) {
	if n.placement == nil {
		return Placement{}, false
	}
	return n.placement.Placement(n)
}

// SetPlacementController attaches the controller that supplies the node's
// inherited values. Containers set themselves when a child is added.
func (n *Node) SetPlacementController(pc PlacementController) {
	n.placement = pc
}

// Registry returns the registry the node was created in.
func (n *Node) Registry() *Registry { return n.registry }

// --- Getters ---

// Matrix returns the local transform.
func (n *Node) Matrix() Matrix {
	return resolve(n.matrix, n, func(p Placement) Matrix { return p.Matrix }, IdentityMatrix)
}

// ColorTransform returns the local color transform.
func (n *Node) ColorTransform() ColorTransform {
	return resolve(n.colorTransform, n, func(p Placement) ColorTransform { return p.ColorTransform }, IdentityColorTransform)
}

// Filters returns the filter list. The slice must not be mutated.
func (n *Node) Filters() []Filter {
	return resolve(n.filters, n, func(p Placement) []Filter { return p.Filters }, nil)
}

// BlendMode returns the blend mode.
func (n *Node) BlendMode() BlendMode {
	return resolve(n.blendMode, n, func(p Placement) BlendMode { return p.BlendMode }, BlendNormal)
}

// Visible reports whether the node is drawn and hit-tested.
func (n *Node) Visible() bool {
	return resolve(n.visible, n, func(p Placement) bool { return !p.Hidden }, true)
}

// Depth returns the node's depth within its parent.
func (n *Node) Depth() int {
	return resolve(n.depth, n, func(p Placement) int { return p.Depth }, 0)
}

// ClipDepth returns the clip depth. A non-zero clip depth makes the node a
// clip-mask definer for later siblings up to and including that depth.
func (n *Node) ClipDepth() int {
	return resolve(n.clipDepth, n, func(p Placement) int { return p.ClipDepth }, 0)
}

// Ratio returns the morph ratio in [0, 1].
func (n *Node) Ratio() float64 {
	return resolve(n.ratio, n, func(p Placement) float64 {
		if p.HasRatio {
			return p.Ratio
		}
		return 0
	}, 0)
}

// Mask returns the node used as this node's mask, or nil.
func (n *Node) Mask() *Node {
	id, ok := n.mask.Get()
	if !ok || id == 0 || n.registry == nil {
		return nil
	}
	return n.registry.Lookup(id)
}

// IsClipMask reports whether the node defines a clip scope.
func (n *Node) IsClipMask() bool { return n.ClipDepth() > 0 }

// X returns the horizontal translation.
func (n *Node) X() float64 { return n.Matrix().X() }

// Y returns the vertical translation.
func (n *Node) Y() float64 { return n.Matrix().Y() }

// ScaleX returns the horizontal scale.
func (n *Node) ScaleX() float64 { return n.Matrix().ScaleX() }

// ScaleY returns the vertical scale.
func (n *Node) ScaleY() float64 { return n.Matrix().ScaleY() }

// Rotation returns the rotation in degrees.
func (n *Node) Rotation() float64 { return n.Matrix().Rotation() }

// Alpha returns the alpha multiplier of the color transform.
func (n *Node) Alpha() float64 { return n.ColorTransform().Alpha() }

// --- Setters ---

func (n *Node) updateMatrix(f func(Matrix) Matrix) {
	n.matrix.Set(f(n.Matrix()))
}

// SetX sets the horizontal translation.
func (n *Node) SetX(v float64) {
	if !isFinite(v) {
		return
	}
	n.updateMatrix(func(m Matrix) Matrix { m[4] = v; return m })
}

// SetY sets the vertical translation.
func (n *Node) SetY(v float64) {
	if !isFinite(v) {
		return
	}
	n.updateMatrix(func(m Matrix) Matrix { m[5] = v; return m })
}

// SetScaleX sets the horizontal scale, keeping rotation and skew.
func (n *Node) SetScaleX(v float64) {
	if !isFinite(v) {
		return
	}
	n.updateMatrix(func(m Matrix) Matrix { return m.WithScale(v, m.ScaleY()) })
}

// SetScaleY sets the vertical scale, keeping rotation and skew.
func (n *Node) SetScaleY(v float64) {
	if !isFinite(v) {
		return
	}
	n.updateMatrix(func(m Matrix) Matrix { return m.WithScale(m.ScaleX(), v) })
}

// SetRotation sets the rotation in degrees, keeping scale and skew.
func (n *Node) SetRotation(deg float64) {
	if !isFinite(deg) {
		return
	}
	n.updateMatrix(func(m Matrix) Matrix { return m.WithRotation(deg) })
}

// SetWidth scales the node so its untransformed content spans v pixels
// horizontally. Content with zero width yields a scale of zero.
func (n *Node) SetWidth(v float64) {
	if !isFinite(v) {
		return
	}
	w := n.Bounds().Width
	sx := 0.0
	if w != 0 {
		sx = v / w
	}
	n.SetScaleX(sx)
}

// SetHeight is the vertical counterpart of SetWidth.
func (n *Node) SetHeight(v float64) {
	if !isFinite(v) {
		return
	}
	h := n.Bounds().Height
	sy := 0.0
	if h != 0 {
		sy = v / h
	}
	n.SetScaleY(sy)
}

// SetAlpha sets the alpha multiplier of the color transform.
func (n *Node) SetAlpha(a float64) {
	if !isFinite(a) {
		return
	}
	ct := n.ColorTransform()
	ct[3] = a
	n.colorTransform.Set(ct)
}

// SetMatrix replaces the local transform. Matrices with non-finite
// components are ignored.
func (n *Node) SetMatrix(m Matrix) {
	for _, v := range m {
		if !isFinite(v) {
			return
		}
	}
	n.matrix.Set(m)
}

// SetColorTransform replaces the local color transform.
func (n *Node) SetColorTransform(ct ColorTransform) {
	for _, v := range ct {
		if !isFinite(v) {
			return
		}
	}
	n.colorTransform.Set(ct)
}

// SetFilters replaces the filter list. The slice is copied.
func (n *Node) SetFilters(filters ...Filter) {
	n.filters.Set(slices.Clone(filters))
}

// SetBlendMode sets the blend mode.
func (n *Node) SetBlendMode(b BlendMode) { n.blendMode.Set(b) }

// SetVisible shows or hides the node.
func (n *Node) SetVisible(v bool) { n.visible.Set(v) }

// SetMask uses m's coverage to clip this node. Pass nil to remove the mask.
func (n *Node) SetMask(m *Node) {
	if m == n {
		panic("flicker: a node cannot mask itself")
	}
	if prev := n.Mask(); prev != nil {
		prev.usedAsMask = false
	}
	if m == nil {
		n.mask.Set(0)
		return
	}
	m.usedAsMask = true
	n.mask.Set(m.ID)
}

// SetDepth moves the node to a new depth within its parent.
func (n *Node) SetDepth(d int) {
	n.depth.Set(d)
	n.markParentUnsorted()
}

// SetClipDepth makes the node a clip-mask definer up to depth d.
func (n *Node) SetClipDepth(d int) { n.clipDepth.Set(d) }

// SetRatio sets the morph ratio, clamped to [0, 1].
func (n *Node) SetRatio(r float64) {
	if !isFinite(r) {
		return
	}
	n.ratio.Set(clampUnit(r))
}

// Reset drops every override so all fields resolve from the placement
// record again.
func (n *Node) Reset() {
	n.matrix.Clear()
	n.colorTransform.Clear()
	n.filters.Clear()
	n.blendMode.Clear()
	n.mask.Clear()
	n.visible.Clear()
	hadDepth := n.depth.set
	n.depth.Clear()
	n.clipDepth.Clear()
	n.ratio.Clear()
	if hadDepth {
		n.markParentUnsorted()
	}
}

func (n *Node) markParentUnsorted() {
	if n.Parent == nil {
		return
	}
	if c, ok := n.Parent.Content.(*Container); ok {
		c.sorted = false
	}
}

// --- Bounds ---

// Bounds returns the content bounds in the node's own coordinate space.
func (n *Node) Bounds() Rect {
	switch c := n.Content.(type) {
	case *Shape:
		return c.Bounds()
	case *MorphShape:
		return recordsBounds(c.RecordsAt(n.Ratio()))
	case *Container:
		return c.bounds()
	case *Button:
		if s := c.current(); s != nil {
			return s.Matrix().TransformRect(s.Bounds())
		}
	}
	return Rect{}
}

// Width returns the width of the content bounds under the local matrix.
func (n *Node) Width() float64 {
	return n.Matrix().TransformRect(n.Bounds()).Width
}

// Height returns the height of the content bounds under the local matrix.
func (n *Node) Height() float64 {
	return n.Matrix().TransformRect(n.Bounds()).Height
}

// WorldMatrix returns the concatenation of every ancestor's matrix with the
// node's own.
func (n *Node) WorldMatrix() Matrix {
	m := n.Matrix()
	for p := n.Parent; p != nil; p = p.Parent {
		m = ConcatMatrix(p.Matrix(), m)
	}
	return m
}

// WorldToLocal converts a point in root space to the node's local space.
func (n *Node) WorldToLocal(x, y float64) (float64, float64) {
	inv, _ := n.WorldMatrix().Invert()
	return inv.Apply(x, y)
}

// LocalToWorld converts a point in the node's local space to root space.
func (n *Node) LocalToWorld(x, y float64) (float64, float64) {
	return n.WorldMatrix().Apply(x, y)
}

// --- Disposal ---

// IsDisposed reports whether Dispose has been called.
func (n *Node) IsDisposed() bool { return n.disposed }

// Dispose removes the node from its parent and the registry, and disposes
// every descendant.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	for _, child := range n.ownedNodes() {
		child.Parent = nil
		child.dispose()
	}
	if n.registry != nil {
		n.registry.remove(n)
	}
	n.placement = nil
	n.Parent = nil
}

// ownedNodes lists every node the content holds, across all frames and
// button states.
func (n *Node) ownedNodes() []*Node {
	switch c := n.Content.(type) {
	case *Container:
		return c.allNodes()
	case *Button:
		var out []*Node
		for _, s := range c.states {
			if s != nil {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// RemoveFromParent detaches the node from its parent. No-op without one.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	switch c := n.Parent.Content.(type) {
	case *Container:
		c.RemoveChild(n)
	case *Button:
		for i, s := range c.states {
			if s == n {
				c.states[i] = nil
			}
		}
	}
	n.Parent = nil
	n.placement = nil
}

func isAncestor(candidate, n *Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}
