package flicker

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
)

func uniformRGBA(r image.Rectangle, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(r)
	draw.Draw(img, r, &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

func TestCompositeOp_Names(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("source-over", OpSourceOver.String())
	assert.Equal("color-burn", OpColorBurn.String())
	assert.Equal("unknown", CompositeOp(200).String())
}

func TestCompositeOp_PorterDuff(t *testing.T) {
	assert := assert.New(t)
	half := pixel{0.5, 0, 0, 0.5} // 50% red, premultiplied
	blue := pixel{0, 0, 1, 1}
	clearPx := pixel{}

	assert.Equal(pixel{0.5, 0, 0.5, 1}, OpSourceOver.apply(half, blue))
	assert.Equal(blue, OpDestinationOver.apply(half, blue))
	assert.Equal(half, OpDestinationOver.apply(half, clearPx))
	assert.Equal(pixel{0, 0, 0.5, 0.5}, OpDestinationOut.apply(half, blue))
	assert.Equal(pixel{0, 0, 0.5, 0.5}, OpDestinationIn.apply(half, blue))
	assert.Equal(pixel{0.5, 0, 0.5, 1}, OpSourceAtop.apply(half, blue))
	assert.Equal(clearPx, OpSourceAtop.apply(half, clearPx))
	assert.Equal(pixel{0, 0, 0.5, 0.5}, OpXor.apply(half, blue))
	assert.Equal(half, OpCopy.apply(half, blue))
	assert.Equal(pixel{0.5, 0, 1, 1}, OpLighter.apply(half, blue))
}

func TestCompositeOp_SeparableBlends(t *testing.T) {
	assert := assert.New(t)
	grey := pixel{0.5, 0.5, 0.5, 1}
	white := pixel{1, 1, 1, 1}
	black := pixel{0, 0, 0, 1}

	assert.InDelta(0.25, OpMultiply.apply(grey, grey).r, 1e-12)
	assert.InDelta(0.75, OpScreen.apply(grey, grey).r, 1e-12)
	assert.InDelta(0.5, OpDarken.apply(grey, white).r, 1e-12)
	assert.InDelta(1.0, OpLighten.apply(grey, white).r, 1e-12)
	assert.InDelta(0.5, OpDifference.apply(grey, white).r, 1e-12)
	assert.InDelta(1.0, OpDifference.apply(black, white).r, 1e-12)
	assert.InDelta(0.0, OpColorBurn.apply(black, grey).r, 1e-12)
	assert.InDelta(1.0, OpColorBurn.apply(grey, white).r, 1e-12)
}

func TestCompositeOp_BlendOverTransparentKeepsSource(t *testing.T) {
	s := pixel{0.2, 0.4, 0.6, 0.8}
	out := OpMultiply.apply(s, pixel{})
	assert.InDelta(t, s.r, out.r, 1e-12)
	assert.InDelta(t, s.a, out.a, 1e-12)
}

func TestStorePixel_ClampsColorToAlpha(t *testing.T) {
	p := make([]uint8, 4)
	storePixel(p, pixel{1, 0.2, -1, 0.5})
	assert.Equal(t, []uint8{128, 51, 0, 128}, p)
}

func TestCompositeImage_SourceOver(t *testing.T) {
	assert := assert.New(t)
	dst := uniformRGBA(image.Rect(0, 0, 4, 4), color.RGBA{0, 0, 255, 255})
	src := uniformRGBA(image.Rect(0, 0, 2, 2), color.RGBA{128, 0, 0, 128})

	compositeImage(dst, src, image.Pt(1, 1), OpSourceOver, 1, nil)

	assert.Equal(color.RGBA{128, 0, 127, 255}, dst.RGBAAt(1, 1))
	assert.Equal(color.RGBA{128, 0, 127, 255}, dst.RGBAAt(2, 2))
	assert.Equal(color.RGBA{0, 0, 255, 255}, dst.RGBAAt(0, 0))
	assert.Equal(color.RGBA{0, 0, 255, 255}, dst.RGBAAt(3, 3))
}

func TestCompositeImage_RebasedSource(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	src := uniformRGBA(image.Rect(5, 5, 7, 7), color.RGBA{255, 255, 255, 255})

	compositeImage(dst, src, src.Rect.Min, OpSourceOver, 1, nil)

	assert.Equal(t, uint8(255), dst.RGBAAt(5, 5).A)
	assert.Equal(t, uint8(255), dst.RGBAAt(6, 6).A)
	assert.Equal(t, uint8(0), dst.RGBAAt(4, 4).A)
	assert.Equal(t, uint8(0), dst.RGBAAt(7, 7).A)
}

func TestCompositeImage_DestinationInLeavesOutsideUntouched(t *testing.T) {
	assert := assert.New(t)
	dst := uniformRGBA(image.Rect(0, 0, 4, 4), color.RGBA{255, 0, 0, 255})
	src := image.NewRGBA(image.Rect(0, 0, 2, 2)) // fully transparent

	compositeImage(dst, src, image.Pt(0, 0), OpDestinationIn, 1, nil)

	assert.Equal(uint8(0), dst.RGBAAt(0, 0).A)
	assert.Equal(uint8(255), dst.RGBAAt(3, 3).A)
}

func TestCompositeImage_Alpha(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src := uniformRGBA(image.Rect(0, 0, 1, 1), color.RGBA{255, 255, 255, 255})
	compositeImage(dst, src, image.Pt(0, 0), OpSourceOver, 0.5, nil)
	assert.Equal(t, color.RGBA{128, 128, 128, 128}, dst.RGBAAt(0, 0))
}

func TestCompositeImage_Clip(t *testing.T) {
	assert := assert.New(t)
	dst := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src := uniformRGBA(image.Rect(0, 0, 2, 1), color.RGBA{0, 255, 0, 255})
	clip := image.NewAlpha(image.Rect(0, 0, 2, 1))
	clip.Pix[0] = 255
	clip.Pix[1] = 0

	compositeImage(dst, src, image.Pt(0, 0), OpSourceOver, 1, clip)

	assert.Equal(color.RGBA{0, 255, 0, 255}, dst.RGBAAt(0, 0))
	assert.Equal(color.RGBA{}, dst.RGBAAt(1, 0))
}

func TestCompositeBlend_Multiply(t *testing.T) {
	dst := uniformRGBA(image.Rect(0, 0, 2, 2), color.RGBA{255, 128, 0, 255})
	src := uniformRGBA(image.Rect(0, 0, 2, 2), color.RGBA{128, 255, 255, 255})

	compositeBlend(dst, src, image.Pt(0, 0), BlendMultiply, 1, nil)

	assert.Equal(t, color.RGBA{128, 128, 0, 255}, dst.RGBAAt(1, 1))
}

func TestCompositeOp_SubtractAndInvert(t *testing.T) {
	assert := assert.New(t)
	bg := pixel{40.0 / 255, 80.0 / 255, 120.0 / 255, 1}
	red := pixel{1, 0, 0, 1}
	halfRed := pixel{0.5, 0, 0, 0.5}

	assert.Equal(pixel{0, 80.0 / 255, 120.0 / 255, 1}, OpSubtract.apply(red, bg))
	assert.Equal(bg, OpSubtract.apply(pixel{}, bg))

	inv := OpInvert.apply(red, bg)
	assert.InDelta(215.0/255, inv.r, 1e-12)
	assert.InDelta(175.0/255, inv.g, 1e-12)
	assert.InDelta(135.0/255, inv.b, 1e-12)
	assert.Equal(1.0, inv.a)
	assert.Equal(bg, OpInvert.apply(pixel{}, bg))

	// Half coverage inverts halfway.
	assert.InDelta(0.5, OpInvert.apply(halfRed, pixel{0, 0, 0, 1}).g, 1e-12)
}

func TestCompositeBlend_SubtractAndInvertPixels(t *testing.T) {
	assert := assert.New(t)
	bg := color.RGBA{40, 80, 120, 255}
	// A detour surface with an opaque red core and a transparent border.
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 1; y < 3; y++ {
		for x := 1; x < 3; x++ {
			src.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
		}
	}

	dst := uniformRGBA(image.Rect(0, 0, 6, 6), bg)
	compositeBlend(dst, src, image.Pt(1, 1), BlendSubtract, 1, nil)
	assert.Equal(color.RGBA{0, 80, 120, 255}, dst.RGBAAt(2, 2))
	assert.Equal(bg, dst.RGBAAt(1, 1), "transparent border")
	assert.Equal(bg, dst.RGBAAt(0, 0), "outside the surface")

	dst = uniformRGBA(image.Rect(0, 0, 6, 6), bg)
	compositeBlend(dst, src, image.Pt(1, 1), BlendInvert, 1, nil)
	assert.Equal(color.RGBA{215, 175, 135, 255}, dst.RGBAAt(2, 2))
	assert.Equal(bg, dst.RGBAAt(1, 1), "transparent border")
	assert.Equal(bg, dst.RGBAAt(5, 5), "outside the surface")
}

func TestCompositeBlend_Erase(t *testing.T) {
	dst := uniformRGBA(image.Rect(0, 0, 2, 2), color.RGBA{255, 0, 0, 255})
	src := uniformRGBA(image.Rect(0, 0, 1, 1), color.RGBA{255, 255, 255, 255})
	compositeBlend(dst, src, image.Pt(0, 0), BlendErase, 1, nil)
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, dst.RGBAAt(1, 1))
}

func TestBlendMode_Parse(t *testing.T) {
	assert := assert.New(t)
	for i := range blendModeNames {
		m := BlendMode(i)
		got, ok := ParseBlendMode(m.String())
		assert.True(ok)
		assert.Equal(m, got)
	}
	got, ok := ParseBlendMode("nope")
	assert.False(ok)
	assert.Equal(BlendNormal, got)
}
