package raster

import (
	"fmt"
	"strconv"
)

// Rotation is a counter-clockwise rotation in degrees, a multiple of 90.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Rotations lists the quarter turns in ascending order.
var Rotations = []Rotation{Rotate0, Rotate90, Rotate180, Rotate270}

func ParseRotation(s string) (Rotation, error) {
	deg, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid rotation %q: %w", s, err)
	}
	r := Rotation(deg)
	if !r.Valid() {
		return 0, fmt.Errorf("invalid rotation %q: not a multiple of 90 degrees", s)
	}
	return r.Normalize(), nil
}

func (r Rotation) Valid() bool {
	return r%90 == 0
}

// Normalize maps r into [0, 360).
func (r Rotation) Normalize() Rotation {
	return ((r % 360) + 360) % 360
}

// Inverse returns the rotation undoing r.
func (r Rotation) Inverse() Rotation {
	return (360 - r.Normalize()) % 360
}

func (r Rotation) String() string {
	return strconv.Itoa(int(r)) + "°"
}

// Rotate turns img counter-clockwise by r. Quarter turns only move samples,
// so rotating back restores the input exactly. It panics if r is not a
// multiple of 90.
func Rotate(img *Image, r Rotation) *Image {
	if !r.Valid() {
		panic(fmt.Sprintf("raster: rotation %d is not a multiple of 90 degrees", int(r)))
	}

	w, h := img.Width(), img.Height()
	switch r.Normalize() {
	case Rotate90:
		out := New(h, w)
		for y := range w {
			for x := range h {
				out.SetSample(x, y, img.Sample(w-1-y, x))
			}
		}
		return out
	case Rotate180:
		out := New(w, h)
		for y := range h {
			for x := range w {
				out.SetSample(x, y, img.Sample(w-1-x, h-1-y))
			}
		}
		return out
	case Rotate270:
		out := New(h, w)
		for y := range w {
			for x := range h {
				out.SetSample(x, y, img.Sample(y, h-1-x))
			}
		}
		return out
	default:
		return img.Clone()
	}
}
