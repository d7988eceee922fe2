// Package quality measures how closely a reconstruction follows its original.
package quality

import (
	"errors"
	"fmt"
	"image"
	"math"

	"fractpic/raster"
)

// MaxValue is the peak sample value of normalized images.
const MaxValue = 1.0

var ErrShapeMismatch = errors.New("image shapes differ")

type ShapeMismatchError struct {
	Original, Reconstructed image.Point
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: %dx%d vs %dx%d", ErrShapeMismatch, e.Original.X, e.Original.Y,
		e.Reconstructed.X, e.Reconstructed.Y)
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// MSE returns the mean squared sample difference.
func MSE(original, reconstructed *raster.Image) (float64, error) {
	if !original.SameSize(reconstructed) {
		return 0, &ShapeMismatchError{Original: original.Size(), Reconstructed: reconstructed.Size()}
	}

	n := original.Width() * original.Height()
	if n == 0 {
		return 0, nil
	}

	var sum float64
	for y := range original.Height() {
		a, b := original.Row(y), reconstructed.Row(y)
		for x := range a {
			d := a[x] - b[x]
			sum += d * d
		}
	}
	return sum / float64(n), nil
}

// PSNR returns the peak signal-to-noise ratio in dB for samples in [0, 1],
// +Inf for identical images.
func PSNR(original, reconstructed *raster.Image) (float64, error) {
	return PSNRWithPeak(original, reconstructed, MaxValue)
}

func PSNRWithPeak(original, reconstructed *raster.Image, peak float64) (float64, error) {
	mse, err := MSE(original, reconstructed)
	if err != nil {
		return 0, err
	}
	if mse == 0 {
		return math.Inf(1), nil
	}
	return 20 * math.Log10(peak/math.Sqrt(mse)), nil
}
