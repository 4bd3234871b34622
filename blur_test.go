package flicker

import (
	"bytes"
	"image"
	"testing"
)

func fillRGBA(img *image.RGBA, r, g, b, a uint8) {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, a
	}
}

func TestBlurZeroIsIdentity(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 7, 5))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 37)
	}
	want := bytes.Clone(img.Pix)

	boxBlur(img, blurRadius(0, 3, 1), blurRadius(0, 3, 1), 3)
	if !bytes.Equal(img.Pix, want) {
		t.Error("zero blur changed pixels")
	}
	boxBlur(img, 4, 4, 0)
	if !bytes.Equal(img.Pix, want) {
		t.Error("zero passes changed pixels")
	}
}

func TestBlurUniformColorPreserved(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	fillRGBA(img, 100, 50, 25, 200)
	boxBlur(img, 3, 2, 3)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if img.Pix[i] != 100 || img.Pix[i+1] != 50 || img.Pix[i+2] != 25 || img.Pix[i+3] != 200 {
			t.Fatalf("pixel %d = %v, want [100 50 25 200]", i/4, img.Pix[i:i+4])
		}
	}
}

func TestBlurSpreadsAndStaysPremultiplied(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 9, 1))
	img.Pix[4*4], img.Pix[4*4+3] = 255, 255 // one opaque red pixel in the middle
	boxBlur(img, 1, 0, 1)

	if a := img.Pix[3*4+3]; a != 85 {
		t.Errorf("neighbor alpha = %d, want 85", a)
	}
	if a := img.Pix[0*4+3]; a != 0 {
		t.Errorf("far alpha = %d, want 0", a)
	}
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if img.Pix[i] > img.Pix[i+3] {
			t.Errorf("pixel %d color %d exceeds alpha %d", i/4, img.Pix[i], img.Pix[i+3])
		}
	}
}

func TestBlurReciprocalTablesExact(t *testing.T) {
	for _, r := range []int{0, 1, 2, 3, 7, 31, 100, maxBlurRadius} {
		div := int64(2*r + 1)
		mul, shg := blurMul[r], blurShg[r]
		for sum := int64(0); sum <= 255*div; sum++ {
			if got := (sum * mul) >> shg; got != sum/div {
				t.Fatalf("r=%d sum=%d: got %d, want %d", r, sum, got, sum/div)
			}
		}
	}
}

func TestBlurRadius(t *testing.T) {
	tests := []struct {
		amount  float64
		quality int
		scale   float64
		want    int
	}{
		{4, 1, 1, 2},
		{4, 1, 2, 4},
		{4, 2, 1, 5},
		{0, 1, 1, 0},
		{4, 0, 1, 0},
		{1e9, 1, 1, maxBlurRadius},
	}
	for _, tt := range tests {
		if got := blurRadius(tt.amount, tt.quality, tt.scale); got != tt.want {
			t.Errorf("blurRadius(%v, %d, %v) = %d, want %d", tt.amount, tt.quality, tt.scale, got, tt.want)
		}
	}
}
