package flicker

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strings"
)

// ToNRGBA converts a premultiplied frame to straight alpha.
func ToNRGBA(src *image.RGBA) *image.NRGBA {
	b := src.Rect
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		di := y * img.Stride
		for x := 0; x < b.Dx(); x, si, di = x+1, si+4, di+4 {
			r, g, bl, a := src.Pix[si], src.Pix[si+1], src.Pix[si+2], src.Pix[si+3]
			if a > 0 && a < 255 {
				r = uint8(min(int(r)*255/int(a), 255))
				g = uint8(min(int(g)*255/int(a), 255))
				bl = uint8(min(int(bl)*255/int(a), 255))
			}
			img.Pix[di] = r
			img.Pix[di+1] = g
			img.Pix[di+2] = bl
			img.Pix[di+3] = a
		}
	}
	return img
}

// EncodePNG writes frame to w as a straight-alpha PNG.
func EncodePNG(w io.Writer, frame *image.RGBA) error {
	if err := png.Encode(w, ToNRGBA(frame)); err != nil {
		return fmt.Errorf("flicker: encode png: %w", err)
	}
	return nil
}

// WritePNG encodes frame to a PNG file at path.
func WritePNG(path string, frame *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("flicker: create %s: %w", path, err)
	}
	if err := EncodePNG(f, frame); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
