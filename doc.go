// Package flicker renders Flash-style display lists on the CPU.
//
// A display list is a tree of [Node] values. Each node carries one
// [Content] payload ([Shape], [MorphShape], [Container] or [Button]) and
// display properties (matrix, color transform, filters, blend mode, clip
// depth, mask) that resolve per field from an explicit override, then the
// placement record of the current timeline frame, then the identity.
//
// # Quick start
//
//	stage, err := flicker.NewStage(flicker.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	reg := stage.Registry()
//
//	box := reg.NewShapeNode("box", flicker.NewShape(1, flicker.ShapeRecord{
//		Path: flicker.RectPath(0, 0, 100, 60),
//		Fill: flicker.SolidFill(color.NRGBA{R: 0x33, G: 0x99, B: 0xff, A: 0xff}),
//	}))
//	box.SetX(40)
//	box.SetFilters(flicker.NewDropShadowFilter())
//	stage.Root().Container().AddChild(1, box)
//
//	frame := stage.NewFrame()
//	if err := stage.Render(frame); err != nil {
//		log.Fatal(err)
//	}
//	_ = flicker.WritePNG("frame.png", frame)
//
// To show a stage in a window, use the ebitenview sub-package.
//
// # Rendering
//
// Rendering visits each node in three phases. Pre-render composes the
// node's matrix and color transform with its parent's and decides whether
// the node needs an offscreen detour surface: active filters or a blend
// mode other than normal require one. Render draws geometry, or children
// in depth order with clip-mask scopes, into the detour or straight into
// the parent target. Post-render runs the filter chain over the detour and
// composites it into the parent with the node's blend mode.
//
// Shapes drawn under anything but a pure translation, or with a color
// transform, are rasterized once per stepped scale into a [CacheStore] and
// blitted on later frames. Detour surfaces come from a [SurfacePool] and
// are returned to it before the frame ends.
//
// # Filters
//
// [BlurFilter], [DropShadowFilter], [GlowFilter], [GradientGlowFilter] and
// [BevelFilter] are implemented with a fixed-point box blur.
// [ConvolutionFilter], [ColorMatrixFilter] and [GradientBevelFilter] keep
// their parameters but render as a passthrough; [FilterImplemented] reports
// which is which.
//
// # Hit testing
//
// [Stage.HitTest] replays fill and stroke geometry against a device point,
// topmost first, honoring clip scopes and masks. [Node.HitTestPoint] does
// the same in root coordinates for a single subtree.
//
// # Units
//
// Everything is in pixels. [TwipsToPixels] and [MatrixFromTwips] convert
// parsed SWF data at the boundary.
package flicker
