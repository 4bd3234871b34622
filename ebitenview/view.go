// Package ebitenview presents a flicker stage inside an Ebitengine game
// loop. The stage renders on the CPU; each frame is uploaded to a GPU image
// with WritePixels and drawn to the screen.
package ebitenview

import (
	"errors"
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/flicker"
)

// RunConfig holds window settings for Run.
type RunConfig struct {
	Title   string
	ShowFPS bool
}

// View implements ebiten.Game for a stage.
type View struct {
	stage *flicker.Stage
	frame *image.RGBA
	img   *ebiten.Image

	// ShowFPS overlays the current FPS and TPS.
	ShowFPS bool
	// UpdateFunc runs once per tick before the stage advances.
	UpdateFunc func() error
	// OnClick receives the topmost node under a left click, or nil.
	OnClick func(n *flicker.Node)
}

// New creates a view for s.
func New(s *flicker.Stage) *View {
	frame := s.NewFrame()
	return &View{
		stage: s,
		frame: frame,
		img:   ebiten.NewImage(frame.Rect.Dx(), frame.Rect.Dy()),
	}
}

// Stage returns the presented stage.
func (v *View) Stage() *flicker.Stage { return v.stage }

// Update implements ebiten.Game.
func (v *View) Update() error {
	if v.stage.Stopped() {
		return ebiten.Termination
	}
	if v.UpdateFunc != nil {
		if err := v.UpdateFunc(); err != nil {
			return err
		}
	}
	if v.OnClick != nil && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		v.OnClick(v.stage.HitTest(float64(x)+0.5, float64(y)+0.5))
	}
	v.stage.Update(float32(1.0 / float64(ebiten.TPS())))
	return nil
}

// Draw implements ebiten.Game. Both the stage frame and ebiten images are
// premultiplied, so pixels are uploaded as is.
func (v *View) Draw(screen *ebiten.Image) {
	if err := v.stage.Render(v.frame); err != nil && !errors.Is(err, flicker.ErrStopped) {
		v.stage.Logger().Error("render failed", "err", err)
		return
	}
	v.img.WritePixels(v.frame.Pix)
	screen.DrawImage(v.img, nil)
	if v.ShowFPS {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
}

// Layout implements ebiten.Game. The logical screen is the stage in device
// pixels.
func (v *View) Layout(_, _ int) (int, int) {
	return v.frame.Rect.Dx(), v.frame.Rect.Dy()
}

// Run opens a window sized to the stage and runs the game loop until the
// window closes or the stage stops.
func Run(s *flicker.Stage, cfg RunConfig, setup ...func(*View)) error {
	v := New(s)
	v.ShowFPS = cfg.ShowFPS
	for _, f := range setup {
		f(v)
	}
	w, h := v.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(cfg.Title)
	if err := ebiten.RunGame(v); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("flicker: run: %w", err)
	}
	return nil
}
