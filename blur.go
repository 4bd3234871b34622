package flicker

import (
	"image"
	"math"
)

// maxBlurRadius bounds the box radius; the reciprocal tables cover it.
const maxBlurRadius = 255

// blurStepFactor converts a blur amount into a box radius for each quality
// level 1..15. Repeated box passes approximate a gaussian; the factors are
// visual calibration, not derived.
var blurStepFactor = [15]float64{0.5, 1.05, 1.35, 1.55, 1.75, 1.9, 2, 2.1, 2.2, 2.3, 2.5, 3, 3, 3.5, 3.5}

// blurMul and blurShg replace division by the window size 2r+1 with a
// multiply and right shift. For every sum a window can hold,
// (sum*blurMul[r])>>blurShg[r] == sum/(2r+1) exactly.
var blurMul, blurShg [maxBlurRadius + 1]int64

func init() {
	for r := range blurMul {
		div := int64(2*r + 1)
		shg := int64(0)
		for int64(1)<<shg <= 255*div*div {
			shg++
		}
		blurMul[r] = (int64(1)<<shg + div - 1) / div
		blurShg[r] = shg
	}
}

// blurRadius converts a blur amount to a box radius at a device scale.
func blurRadius(amount float64, quality int, scale float64) int {
	if amount <= 0 || quality <= 0 || !isFinite(amount) {
		return 0
	}
	q := min(quality, len(blurStepFactor))
	r := math.Ceil(amount * blurStepFactor[q-1] * scale)
	return int(math.Max(0, math.Min(r, maxBlurRadius)))
}

// boxBlur runs passes rounds of a separable box blur with radii rx and ry
// over a premultiplied image in place. Edges are clamped. After the last
// pass fully transparent pixels carry no color and color never exceeds
// alpha.
func boxBlur(img *image.RGBA, rx, ry, passes int) {
	if (rx <= 0 && ry <= 0) || passes <= 0 {
		return
	}
	rx, ry = min(rx, maxBlurRadius), min(ry, maxBlurRadius)
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return
	}
	ring := make([]int64, 4*(2*max(rx, ry)+1))
	for range passes {
		if rx > 0 {
			for y := 0; y < h; y++ {
				blurLine(img.Pix, y*img.Stride, 4, w, rx, ring)
			}
		}
		if ry > 0 {
			for x := 0; x < w; x++ {
				blurLine(img.Pix, x*4, img.Stride, h, ry, ring)
			}
		}
	}
	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := img.Pix[i+3]
		if a == 0 {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 0, 0, 0
			continue
		}
		img.Pix[i] = min(img.Pix[i], a)
		img.Pix[i+1] = min(img.Pix[i+1], a)
		img.Pix[i+2] = min(img.Pix[i+2], a)
	}
}

// blurLine box-filters n pixels starting at pix[off], step bytes apart.
// The ring holds the 2r+1 pixels inside the window, addressed modulo its
// length, so the line can be overwritten in place as the window slides.
func blurLine(pix []uint8, off, step, n, r int, ring []int64) {
	div := 2*r + 1
	mul, shg := blurMul[r], blurShg[r]
	at := func(i int) int { return off + max(0, min(i, n-1))*step }

	var sr, sg, sb, sa int64
	for i := -r; i <= r; i++ {
		p := at(i)
		k := (i + r) * 4
		ring[k], ring[k+1], ring[k+2], ring[k+3] = int64(pix[p]), int64(pix[p+1]), int64(pix[p+2]), int64(pix[p+3])
		sr += ring[k]
		sg += ring[k+1]
		sb += ring[k+2]
		sa += ring[k+3]
	}
	head := 0
	for x := 0; x < n; x++ {
		o := off + x*step
		pix[o] = uint8((sr * mul) >> shg)
		pix[o+1] = uint8((sg * mul) >> shg)
		pix[o+2] = uint8((sb * mul) >> shg)
		pix[o+3] = uint8((sa * mul) >> shg)

		k := head * 4
		sr -= ring[k]
		sg -= ring[k+1]
		sb -= ring[k+2]
		sa -= ring[k+3]
		p := at(x + r + 1)
		ring[k], ring[k+1], ring[k+2], ring[k+3] = int64(pix[p]), int64(pix[p+1]), int64(pix[p+2]), int64(pix[p+3])
		sr += ring[k]
		sg += ring[k+1]
		sb += ring[k+2]
		sa += ring[k+3]
		head++
		if head == div {
			head = 0
		}
	}
}
