package fractal

import (
	"errors"
	"fmt"
)

var (
	ErrConfig      = errors.New("invalid configuration")
	ErrDimensions  = errors.New("image dimensions are not a multiple of the block size")
	ErrCoverage    = errors.New("transforms do not cover the block grid exactly once")
	ErrOutOfBounds = errors.New("transform out of bounds")
)

// TransformOutOfBoundsError reports a transform that would read or write
// outside an image.
type TransformOutOfBoundsError struct {
	Index     int
	Transform Transform
	Reason    string
}

func (e *TransformOutOfBoundsError) Error() string {
	return fmt.Sprintf("transform %d (%s): %s", e.Index, e.Transform, e.Reason)
}

func (e *TransformOutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}
