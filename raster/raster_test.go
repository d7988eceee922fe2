package raster

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"testing"
)

func makeTestImage(w, h int, seed uint64) *Image {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	img := New(w, h)
	for i := range img.Pix {
		img.Pix[i] = rng.Float64()
	}
	return img
}

func TestRotate_QuarterTurnsAreExact(t *testing.T) {
	for _, tc := range []struct {
		name string
		w, h int
	}{
		{name: "square", w: 16, h: 16},
		{name: "wide", w: 7, h: 3},
		{name: "tall", w: 2, h: 9},
	} {
		t.Run(tc.name, func(t *testing.T) {
			img := makeTestImage(tc.w, tc.h, 1)
			for _, r := range []Rotation{90, 180, 270, -90, 360} {
				back := Rotate(Rotate(img, r), -r)
				if !back.SameSize(img) {
					t.Fatalf("rotation %v: size %v, want %v", r, back.Size(), img.Size())
				}
				for i := range img.Pix {
					if back.Pix[i] != img.Pix[i] {
						t.Fatalf("rotation %v: sample %d = %v, want %v", r, i, back.Pix[i], img.Pix[i])
					}
				}
			}
		})
	}
}

func TestRotate_CounterClockwise(t *testing.T) {
	img := FromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})

	for _, tc := range []struct {
		rotation Rotation
		want     [][]float64
	}{
		{rotation: 90, want: [][]float64{{3, 6}, {2, 5}, {1, 4}}},
		{rotation: 180, want: [][]float64{{6, 5, 4}, {3, 2, 1}}},
		{rotation: 270, want: [][]float64{{4, 1}, {5, 2}, {6, 3}}},
	} {
		got := Rotate(img, tc.rotation)
		want := FromRows(tc.want)
		if !got.SameSize(want) {
			t.Fatalf("rotation %v: size %v, want %v", tc.rotation, got.Size(), want.Size())
		}
		for i := range want.Pix {
			if got.Pix[i] != want.Pix[i] {
				t.Fatalf("rotation %v: got %v, want %v", tc.rotation, got.Pix, want.Pix)
			}
		}
	}
}

func TestRotation_Inverse(t *testing.T) {
	for _, tc := range []struct{ r, want Rotation }{
		{0, 0}, {90, 270}, {180, 180}, {270, 90}, {-90, 90},
	} {
		if got := tc.r.Inverse(); got != tc.want {
			t.Fatalf("Rotation(%d).Inverse() = %d, want %d", tc.r, got, tc.want)
		}
	}

	if _, err := ParseRotation("45"); err == nil {
		t.Fatalf("expected error for 45 degrees")
	}
	if r, err := ParseRotation("-90"); err != nil || r != 270 {
		t.Fatalf("ParseRotation(-90) = %v, %v; want 270", r, err)
	}
}

func TestScale_Dimensions(t *testing.T) {
	img := makeTestImage(16, 12, 2)
	for _, tc := range []struct {
		factor float64
		w, h   int
	}{
		{factor: 0.5, w: 8, h: 6},
		{factor: 1, w: 16, h: 12},
		{factor: 2, w: 32, h: 24},
		{factor: 1.0 / 3, w: 5, h: 4},
	} {
		got := Scale(img, tc.factor)
		if got.Width() != tc.w || got.Height() != tc.h {
			t.Fatalf("Scale(%v): %dx%d, want %dx%d", tc.factor, got.Width(), got.Height(), tc.w, tc.h)
		}
	}

	// scaling back approximately recovers the original size
	back := Scale(Scale(img, 0.5), 2)
	if !back.SameSize(img) {
		t.Fatalf("round trip size %v, want %v", back.Size(), img.Size())
	}
}

func TestScale_IdentityIsExact(t *testing.T) {
	img := makeTestImage(9, 9, 3)
	got := Scale(img, 1)
	for i := range img.Pix {
		if got.Pix[i] != img.Pix[i] {
			t.Fatalf("Scale(1) changed sample %d: %v != %v", i, got.Pix[i], img.Pix[i])
		}
	}
}

func TestScale_KeepsFlatImagesFlat(t *testing.T) {
	for _, v := range []float64{0, 1} {
		img := New(16, 16)
		img.Fill(v)
		for _, f := range []float64{0.5, 2} {
			lo, hi := Scale(img, f).MinMax()
			if lo != v || hi != v {
				t.Fatalf("Scale(%v) of flat %v image spans [%v, %v]", f, v, lo, hi)
			}
		}
	}
}

func TestDownsample(t *testing.T) {
	img := makeTestImage(100, 50, 4)
	got := Downsample(img, 3)
	if got.Width() != 33 || got.Height() != 16 {
		t.Fatalf("Downsample: %dx%d, want 33x16", got.Width(), got.Height())
	}
	if same := Downsample(img, 1); !same.SameSize(img) {
		t.Fatalf("Downsample(1) changed size to %v", same.Size())
	}
}

func TestRegionAndPaste(t *testing.T) {
	img := makeTestImage(8, 8, 5)
	region := img.Region(image.Rect(2, 3, 6, 5))
	if region.Width() != 4 || region.Height() != 2 {
		t.Fatalf("region size %v, want 4x2", region.Size())
	}
	if region.Sample(0, 0) != img.Sample(2, 3) || region.Sample(3, 1) != img.Sample(5, 4) {
		t.Fatalf("region samples do not match source")
	}

	dst := New(8, 8)
	if !dst.Paste(region, 2, 3) {
		t.Fatalf("Paste should fit")
	}
	if dst.Sample(5, 4) != img.Sample(5, 4) {
		t.Fatalf("pasted sample mismatch")
	}
	if dst.Paste(region, 6, 7) {
		t.Fatalf("Paste past the bounds should be refused")
	}

	clipped := img.Region(image.Rect(6, 6, 12, 12))
	if clipped.Width() != 2 || clipped.Height() != 2 {
		t.Fatalf("clipped region size %v, want 2x2", clipped.Size())
	}
}

func TestFromImage(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(0, 0, color.Gray{Y: 0})
	gray.SetGray(1, 0, color.Gray{Y: 255})

	got := FromImage(gray, Luma)
	if got.Sample(0, 0) != 0 || got.Sample(1, 0) != 1 {
		t.Fatalf("gray conversion: %v", got.Pix)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, 3, 1))
	rgba.SetRGBA(0, 0, color.RGBA{A: 255})
	rgba.SetRGBA(1, 0, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	rgba.SetRGBA(2, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	for _, mode := range []GrayMode{Luma, Lightness} {
		got := FromImage(rgba, mode)
		black, mid, white := got.Sample(0, 0), got.Sample(1, 0), got.Sample(2, 0)
		if math.Abs(black) > 1e-6 || math.Abs(white-1) > 1e-3 {
			t.Fatalf("%v: black=%v white=%v", mode, black, white)
		}
		if !(black < mid && mid < white) {
			t.Fatalf("%v: mid gray %v not between black and white", mode, mid)
		}
	}
}

func TestGray16_RoundTrip(t *testing.T) {
	img := makeTestImage(5, 4, 6)
	back := FromImage(img.Gray16(), Luma)
	if d := MaxAbsDiff(img, back); d > 1.0/0xffff {
		t.Fatalf("16-bit round trip drifted by %v", d)
	}
}
