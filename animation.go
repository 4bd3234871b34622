package flicker

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 node properties simultaneously. Create one
// via the convenience constructors (TweenPosition, TweenScale, TweenAlpha,
// TweenRotation) and call Update(dt) each frame. Values are written through
// the node setters, so they become overrides that win over the timeline
// until Reset. If the target node is disposed, the group stops immediately.
//
// There is no global animation manager; the driver calls Update.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	set    [4]func(float64)
	target *Node
	Done   bool
}

func (g *TweenGroup) add(from, to float64, duration float32, fn ease.TweenFunc, set func(float64)) {
	g.tweens[g.count] = gween.New(float32(from), float32(to), duration, fn)
	g.set[g.count] = set
	g.count++
}

// Update advances all tweens by dt seconds and writes the values to the
// target. If the target node has been disposed, Done is set to true and no
// writes occur.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target == nil || g.target.IsDisposed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		g.set[i](float64(val))
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

// TweenPosition animates the node's x and y to the given coordinates.
func TweenPosition(node *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(node.X(), toX, duration, fn, node.SetX)
	g.add(node.Y(), toY, duration, fn, node.SetY)
	return g
}

// TweenScale animates the node's scale factors.
func TweenScale(node *Node, toSX, toSY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(node.ScaleX(), toSX, duration, fn, node.SetScaleX)
	g.add(node.ScaleY(), toSY, duration, fn, node.SetScaleY)
	return g
}

// TweenAlpha animates the alpha multiplier of the node's color transform.
func TweenAlpha(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(node.Alpha(), to, duration, fn, node.SetAlpha)
	return g
}

// TweenRotation animates the node's rotation in degrees.
func TweenRotation(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(node.Rotation(), to, duration, fn, node.SetRotation)
	return g
}

// TweenRatio animates a morph shape's ratio.
func TweenRatio(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(node.Ratio(), to, duration, fn, node.SetRatio)
	return g
}
