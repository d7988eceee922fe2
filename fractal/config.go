// Package fractal encodes grayscale images as sets of self-referential block
// transforms and reconstructs images from them.
//
// Every block of a fixed grid is matched against the image itself: the block
// is resampled by each candidate scale, rotated by each quarter turn and slid
// over every position of the image. The cheapest placement becomes the
// block's Transform. Decoding applies the inverse geometry, either once
// against a known source image or repeatedly against its own output until it
// settles on a fixed point.
package fractal

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"fractpic/raster"
)

const (
	DefaultBlockSize  = 16
	DefaultDownsample = 3

	// DefaultContrast reproduces the plain sum of absolute differences
	// search. Values below 1 make the code contractive.
	DefaultContrast = 1.0
	// ContractiveContrast is the intensity gain used for codes meant to be
	// decoded iteratively.
	ContractiveContrast = 0.75
)

// DefaultScales are tried in this order, so ties favour smaller patches.
var DefaultScales = []float64{0.5, 1, 2}

type Config struct {
	// BlockSize is the side of the square target blocks.
	BlockSize int
	// Downsample is the integer shrink factor applied by Preprocess.
	Downsample int
	// Scales lists the patch scale factors to try, in search order.
	Scales []float64
	// Rotations lists the counter-clockwise quarter turns to try, in search
	// order.
	Rotations []raster.Rotation
	// Contrast is the intensity gain applied to source patches. At 1 the
	// search minimises the plain sum of absolute differences and brightness
	// stays 0; below 1 a brightness offset is fitted per candidate.
	Contrast float64
	// Workers bounds the number of concurrent block searches, 0 for
	// GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		BlockSize:  DefaultBlockSize,
		Downsample: DefaultDownsample,
		Scales:     append([]float64(nil), DefaultScales...),
		Rotations:  append([]raster.Rotation(nil), raster.Rotations...),
		Contrast:   DefaultContrast,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("block size must be positive: %d", c.BlockSize))
	}
	if c.Downsample < 0 {
		errs = append(errs, fmt.Errorf("downsample factor must not be negative: %d", c.Downsample))
	}
	if len(c.Scales) == 0 {
		errs = append(errs, errors.New("no scales given"))
	}
	for _, s := range c.Scales {
		if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			errs = append(errs, fmt.Errorf("invalid scale: %v", s))
			continue
		}
		// decoding rescales the patch by 1/s and must land on the block size
		if c.BlockSize > 0 && raster.ScaledSize(raster.ScaledSize(c.BlockSize, s), 1/s) != c.BlockSize {
			errs = append(errs, fmt.Errorf("scale %v cannot be inverted for block size %d", s, c.BlockSize))
		}
	}
	if len(c.Rotations) == 0 {
		errs = append(errs, errors.New("no rotations given"))
	}
	for _, r := range c.Rotations {
		if !r.Valid() {
			errs = append(errs, fmt.Errorf("rotation %d is not a multiple of 90 degrees", int(r)))
		}
	}
	if !(c.Contrast > 0 && c.Contrast <= 1) {
		errs = append(errs, fmt.Errorf("contrast must be in (0, 1]: %v", c.Contrast))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Preprocess shrinks img by the configured downsample factor.
func Preprocess(img *raster.Image, cfg Config) *raster.Image {
	return raster.Downsample(img, cfg.Downsample)
}
