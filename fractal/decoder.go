package fractal

import (
	"fmt"
	"log/slog"

	"fractpic/parallel"
	"fractpic/raster"
)

const (
	DefaultMaxPasses = 32
	DefaultEpsilon   = 1e-4
)

type DecodeOptions struct {
	// Seed is the starting image of iterative decoding, all zero when nil.
	Seed *raster.Image
	// MaxPasses bounds the number of iterations.
	MaxPasses int
	// Epsilon stops iterating once no sample moves more than this between
	// two passes.
	Epsilon float64
	// Workers bounds the number of transforms applied concurrently, 0 for
	// GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// Report describes how an iterative decode ended.
type Report struct {
	Passes    int
	Delta     float64
	Converged bool
}

type Decoder struct {
	opts   DecodeOptions
	logger *slog.Logger
}

func NewDecoder(opts DecodeOptions) *Decoder {
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = DefaultMaxPasses
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = DefaultEpsilon
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{opts: opts, logger: logger}
}

// Decode reconstructs the image as the fixed point of the code: starting from
// the seed, every pass applies all transforms to the previous pass's output.
// Passes run one after the other; transforms within a pass run concurrently.
func (d *Decoder) Decode(code Code) (*raster.Image, Report, error) {
	if err := code.Validate(); err != nil {
		return nil, Report{}, err
	}

	cur := raster.New(code.Width, code.Height)
	if d.opts.Seed != nil {
		if d.opts.Seed.Size() != code.Bounds().Size() {
			return nil, Report{}, fmt.Errorf("%w: seed is %v, code is %v", ErrDimensions,
				d.opts.Seed.Size(), code.Bounds().Size())
		}
		cur = d.opts.Seed.Clone()
	}

	if !contractive(code) {
		d.logger.Warn("transforms are not contractive, decoding may not leave the seed")
	}

	pool := parallel.Start(d.opts.Workers)
	defer pool.Wait(true)

	var report Report
	for report.Passes < d.opts.MaxPasses {
		next := raster.New(code.Width, code.Height)
		if err := apply(pool, code, cur, next); err != nil {
			return nil, Report{}, err
		}

		report.Passes++
		report.Delta = raster.MaxAbsDiff(cur, next)
		cur = next
		d.logger.Debug("decode pass", "pass", report.Passes, "delta", report.Delta)

		if report.Delta < d.opts.Epsilon {
			report.Converged = true
			break
		}
	}

	d.logger.Info("decoded", "width", code.Width, "height", code.Height, "passes", report.Passes,
		"delta", report.Delta, "converged", report.Converged)
	return cur, report, nil
}

// DecodeFrom applies every transform once, reading patches from source. Only
// useful when the encoded image is still at hand; Decode does not need it.
func (d *Decoder) DecodeFrom(code Code, source *raster.Image) (*raster.Image, error) {
	if err := code.Validate(); err != nil {
		return nil, err
	}
	if source.Size() != code.Bounds().Size() {
		return nil, fmt.Errorf("%w: source is %v, code is %v", ErrDimensions, source.Size(), code.Bounds().Size())
	}

	pool := parallel.Start(d.opts.Workers)
	defer pool.Wait(true)

	out := raster.New(code.Width, code.Height)
	if err := apply(pool, code, source, out); err != nil {
		return nil, err
	}
	return out, nil
}

// apply writes every transform of code, reading from src, into dst. Targets
// are disjoint, so transforms run concurrently.
func apply(pool *parallel.Pool, code Code, src, dst *raster.Image) error {
	errs := make([]error, len(code.Transforms))
	pool.ForEach(len(code.Transforms), func(i int) {
		errs[i] = applyTransform(i, code.Transforms[i], src, dst)
	})

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func applyTransform(index int, t Transform, src, dst *raster.Image) error {
	patch := src.Region(t.SourceRect())
	block := raster.Scale(raster.Rotate(patch, t.Rotation.Inverse()), 1/t.Scale)
	if block.Width() != t.BlockSize || block.Height() != t.BlockSize {
		return &TransformOutOfBoundsError{
			Index:     index,
			Transform: t,
			Reason:    fmt.Sprintf("rescaled patch is %v, target block is %d", block.Size(), t.BlockSize),
		}
	}

	for i, v := range block.Pix {
		block.Pix[i] = min(max(t.Contrast*v+t.Brightness, 0), 1)
	}

	if !dst.Paste(block, t.TargetCol, t.TargetRow) {
		return &TransformOutOfBoundsError{
			Index:     index,
			Transform: t,
			Reason:    fmt.Sprintf("target %v outside %v", t.TargetRect(), dst.Bounds()),
		}
	}
	return nil
}

func contractive(code Code) bool {
	for _, t := range code.Transforms {
		if t.Contrast >= 1 {
			return false
		}
	}
	return len(code.Transforms) > 0
}
