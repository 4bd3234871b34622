package flicker

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// scriptTick is the time one script frame advances the stage by.
const scriptTick = float32(1.0 / 60)

// scriptStep represents a single action in a frame script.
type scriptStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Expect string  `json:"expect,omitempty"`
	Frames int     `json:"frames,omitempty"`
	Width  int     `json:"width,omitempty"`
}

// frameScript is the top-level JSON structure for a frame script.
type frameScript struct {
	Steps []scriptStep `json:"steps"`
}

// HitResult records one "hit" step.
type HitResult struct {
	Label  string
	X, Y   float64
	Node   string // name of the node hit, "" for none
	Expect string
}

// OK reports whether the hit matched the expectation.
func (h HitResult) OK() bool { return h.Expect == "" || h.Node == h.Expect }

// FrameScript replays render, hit-test and snapshot steps against a stage
// for headless regression runs. Supported actions:
//
//	render    render one frame
//	wait      render "frames" frames
//	hit       hit-test (x, y) in device space; "expect" names the node
//	snapshot  keep the last frame under "label", resized to "width" if set
//	stop      stop the stage
type FrameScript struct {
	// Dir, when set, receives every snapshot as <label>.png.
	Dir string

	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool

	frame     *image.RGBA
	hits      []HitResult
	snapshots map[string]*image.NRGBA
}

// LoadFrameScript parses a JSON frame script.
func LoadFrameScript(jsonData []byte) (*FrameScript, error) {
	var script frameScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("flicker: parse frame script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, errors.New("flicker: parse frame script: no steps")
	}
	for i, st := range script.Steps {
		switch st.Action {
		case "render", "wait", "hit", "snapshot", "stop":
		default:
			return nil, fmt.Errorf("flicker: parse frame script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &FrameScript{steps: script.Steps, snapshots: make(map[string]*image.NRGBA)}, nil
}

// Done reports whether all steps have been executed.
func (fs *FrameScript) Done() bool { return fs.done }

// Hits returns the results of every executed hit step.
func (fs *FrameScript) Hits() []HitResult { return fs.hits }

// Snapshot returns the image captured under label.
func (fs *FrameScript) Snapshot(label string) (*image.NRGBA, bool) {
	img, ok := fs.snapshots[sanitizeLabel(label)]
	return img, ok
}

// Run executes the script to completion. It returns the joined hit
// mismatches and any render or snapshot error.
func (fs *FrameScript) Run(s *Stage) error {
	for !fs.done {
		if err := fs.Step(s); err != nil {
			return err
		}
	}
	var errs []error
	for _, h := range fs.hits {
		if !h.OK() {
			errs = append(errs, fmt.Errorf("hit %q at (%g, %g): got %q, want %q", h.Label, h.X, h.Y, h.Node, h.Expect))
		}
	}
	return errors.Join(errs...)
}

// Step advances the script by one action, or one frame of a wait.
func (fs *FrameScript) Step(s *Stage) error {
	if fs.done {
		return nil
	}
	if fs.waitCount > 0 {
		fs.waitCount--
		return fs.render(s)
	}
	if fs.cursor >= len(fs.steps) {
		fs.done = true
		return nil
	}

	st := fs.steps[fs.cursor]
	fs.cursor++

	var err error
	switch st.Action {
	case "render":
		err = fs.render(s)
	case "wait":
		if st.Frames > 0 {
			fs.waitCount = st.Frames - 1
			err = fs.render(s)
		}
	case "hit":
		name := ""
		if n := s.HitTest(st.X, st.Y); n != nil {
			name = n.Name
		}
		fs.hits = append(fs.hits, HitResult{Label: st.Label, X: st.X, Y: st.Y, Node: name, Expect: st.Expect})
	case "snapshot":
		err = fs.snapshot(s, st)
	case "stop":
		s.Stop()
		fs.done = true
		return nil
	}
	if fs.cursor >= len(fs.steps) && fs.waitCount == 0 {
		fs.done = true
	}
	return err
}

func (fs *FrameScript) render(s *Stage) error {
	if fs.frame == nil {
		fs.frame = s.NewFrame()
	}
	s.Update(scriptTick)
	return s.Render(fs.frame)
}

func (fs *FrameScript) snapshot(s *Stage, st scriptStep) error {
	if fs.frame == nil {
		if err := fs.render(s); err != nil {
			return err
		}
	}
	img := ToNRGBA(fs.frame)
	if st.Width > 0 && st.Width != img.Rect.Dx() {
		img = imaging.Resize(img, st.Width, 0, imaging.Linear)
	}
	label := sanitizeLabel(st.Label)
	fs.snapshots[label] = img
	if fs.Dir == "" {
		return nil
	}
	if err := imaging.Save(img, filepath.Join(fs.Dir, label+".png")); err != nil {
		return fmt.Errorf("flicker: snapshot %s: %w", label, err)
	}
	return nil
}
