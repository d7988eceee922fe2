package raster

import (
	"fmt"
	"image"
	"image/color"

	"fractpic/okcolor"
)

// GrayMode selects how colour pixels collapse to one sample.
type GrayMode int

const (
	// Luma weights gamma encoded channels with 0.2125, 0.7154, 0.0721.
	Luma GrayMode = iota
	// Lightness uses OKLab L.
	Lightness
)

func ParseGrayMode(s string) (GrayMode, error) {
	switch s {
	case "luma", "":
		return Luma, nil
	case "oklab", "lightness":
		return Lightness, nil
	}
	return 0, fmt.Errorf("unsupported gray mode: %s", s)
}

func (g GrayMode) String() string {
	switch g {
	case Luma:
		return "luma"
	case Lightness:
		return "oklab"
	}
	return fmt.Sprintf("GrayMode(%d)", int(g))
}

// FromImage converts any image to samples in [0, 1]. Gray images are copied
// as is, whatever the mode.
func FromImage(src image.Image, mode GrayMode) *Image {
	b := src.Bounds()
	out := New(b.Dx(), b.Dy())

	switch s := src.(type) {
	case *image.Gray:
		for y := range b.Dy() {
			row := out.Row(y)
			for x := range row {
				row[x] = float64(s.GrayAt(b.Min.X+x, b.Min.Y+y).Y) / 0xff
			}
		}
		return out
	case *image.Gray16:
		for y := range b.Dy() {
			row := out.Row(y)
			for x := range row {
				row[x] = float64(s.Gray16At(b.Min.X+x, b.Min.Y+y).Y) / 0xffff
			}
		}
		return out
	case *Image:
		return s.Clone()
	}

	convert := luma
	if mode == Lightness {
		convert = okcolor.Lightness
	}
	for y := range b.Dy() {
		row := out.Row(y)
		for x := range row {
			row[x] = convert(src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

func luma(c color.Color) float64 {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return 0
	}
	// un-premultiply
	fr := float64(r) / float64(a)
	fg := float64(g) / float64(a)
	fb := float64(b) / float64(a)
	return clamp(0.2125*fr+0.7154*fg+0.0721*fb, 0, 1)
}
