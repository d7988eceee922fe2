package fractal

import (
	"fmt"
	"image"
	"math"

	"fractpic/raster"
)

// Transform maps a source patch of the image onto one target block: the
// target block scaled by Scale and rotated by Rotation best matches the
// patch at (SourceRow, SourceCol). Decoding applies the inverse.
type Transform struct {
	SourceRow, SourceCol int
	Scale                float64
	Rotation             raster.Rotation
	TargetRow, TargetCol int
	BlockSize            int

	// Contrast and Brightness map patch intensities x to c*x + b.
	Contrast, Brightness float64
	// Cost is the search minimum, +Inf when no candidate fitted the image.
	Cost float64
}

// PatchSize is the side of the square source patch.
func (t Transform) PatchSize() int {
	return raster.ScaledSize(t.BlockSize, t.Scale)
}

func (t Transform) SourceRect() image.Rectangle {
	n := t.PatchSize()
	return image.Rect(t.SourceCol, t.SourceRow, t.SourceCol+n, t.SourceRow+n)
}

func (t Transform) TargetRect() image.Rectangle {
	return image.Rect(t.TargetCol, t.TargetRow, t.TargetCol+t.BlockSize, t.TargetRow+t.BlockSize)
}

func (t Transform) String() string {
	return fmt.Sprintf("(%d,%d)->(%d,%d) x%v %v", t.SourceRow, t.SourceCol,
		t.TargetRow, t.TargetCol, t.Scale, t.Rotation)
}

// Found reports whether the search placed the block at all.
func (t Transform) Found() bool {
	return !math.IsInf(t.Cost, 1)
}

// Code is the compressed form of an image: one transform per block in
// row-major block order.
type Code struct {
	Width, Height int
	BlockSize     int
	Transforms    []Transform
}

func (c Code) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.Width, c.Height)
}

// Validate checks that the code tiles a Width x Height image exactly once and
// that every transform reads and writes inside it.
func (c Code) Validate() error {
	if c.BlockSize <= 0 {
		return fmt.Errorf("%w: block size %d", ErrDimensions, c.BlockSize)
	}
	if c.Width <= 0 || c.Height <= 0 || c.Width%c.BlockSize != 0 || c.Height%c.BlockSize != 0 {
		return fmt.Errorf("%w: %dx%d with blocks of %d", ErrDimensions, c.Width, c.Height, c.BlockSize)
	}

	cols := c.Width / c.BlockSize
	rows := c.Height / c.BlockSize
	if len(c.Transforms) != rows*cols {
		return fmt.Errorf("%w: %d transforms for %d blocks", ErrCoverage, len(c.Transforms), rows*cols)
	}

	bounds := c.Bounds()
	seen := make([]bool, rows*cols)
	for i, t := range c.Transforms {
		if err := t.check(i, c.BlockSize, bounds); err != nil {
			return err
		}
		if t.TargetRow%c.BlockSize != 0 || t.TargetCol%c.BlockSize != 0 {
			return fmt.Errorf("%w: transform %d targets (%d,%d), off the block grid",
				ErrCoverage, i, t.TargetRow, t.TargetCol)
		}
		cell := (t.TargetRow/c.BlockSize)*cols + t.TargetCol/c.BlockSize
		if seen[cell] {
			return fmt.Errorf("%w: block (%d,%d) is written twice", ErrCoverage, t.TargetRow, t.TargetCol)
		}
		seen[cell] = true
	}
	return nil
}

func (t Transform) check(index, blockSize int, bounds image.Rectangle) error {
	fail := func(format string, args ...any) error {
		return &TransformOutOfBoundsError{Index: index, Transform: t, Reason: fmt.Sprintf(format, args...)}
	}

	if t.BlockSize != blockSize {
		return fail("block size %d, want %d", t.BlockSize, blockSize)
	}
	if !(t.Scale > 0) || math.IsInf(t.Scale, 0) {
		return fail("invalid scale %v", t.Scale)
	}
	if !t.Rotation.Valid() {
		return fail("rotation %d is not a multiple of 90 degrees", int(t.Rotation))
	}
	// a zero contrast would blank the block whatever the source holds
	if !(t.Contrast > 0) || math.IsInf(t.Contrast, 0) || math.IsNaN(t.Brightness) || math.IsInf(t.Brightness, 0) {
		return fail("invalid intensity map %v*x%+v", t.Contrast, t.Brightness)
	}
	if n := t.PatchSize(); n <= 0 || raster.ScaledSize(n, 1/t.Scale) != t.BlockSize {
		return fail("patch of %d samples does not rescale to the target block", n)
	}
	if src := t.SourceRect(); !src.In(bounds) {
		return fail("source %v outside %v", src, bounds)
	}
	if dst := t.TargetRect(); !dst.In(bounds) {
		return fail("target %v outside %v", dst, bounds)
	}
	return nil
}
