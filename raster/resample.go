package raster

import (
	"fmt"
	"math"

	"golang.org/x/image/draw"
)

// ScaledSize is the length of a side of n samples after scaling by factor.
func ScaledSize(n int, factor float64) int {
	return int(math.Round(float64(n) * factor))
}

// Scale resamples img by factor with bilinear interpolation. The result is
// round(h*factor) x round(w*factor). The bilinear kernel widens when shrinking,
// so downscaling is anti-aliased. A factor of 1 returns an exact copy.
func Scale(img *Image, factor float64) *Image {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		panic(fmt.Sprintf("raster: invalid scale factor %v", factor))
	}
	if factor == 1 {
		return img.Clone()
	}
	return Resize(img, ScaledSize(img.Width(), factor), ScaledSize(img.Height(), factor))
}

// Resize resamples img to width x height with bilinear interpolation.
func Resize(img *Image, width, height int) *Image {
	return resample(draw.BiLinear, img, width, height)
}

// Downsample shrinks img by an integer factor, keeping (h/factor) x
// (w/factor) samples. It uses Catmull-Rom, which keeps edges sharper than
// bilinear at the cost of slight ringing.
func Downsample(img *Image, factor int) *Image {
	if factor <= 1 {
		return img.Clone()
	}
	return resample(draw.CatmullRom, img, img.Width()/factor, img.Height()/factor)
}

func resample(scaler draw.Scaler, img *Image, width, height int) *Image {
	dest := New(width, height)
	if width == 0 || height == 0 || img.Width() == 0 || img.Height() == 0 {
		return dest
	}
	if width == img.Width() && height == img.Height() {
		return img.Clone()
	}
	scaler.Scale(dest, dest.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dest
}
