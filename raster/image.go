// Package raster holds single channel float images and the geometric
// primitives applied to them: resampling, exact quarter turn rotation, cropping
// and conversion from and to the standard library image types.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

type Image struct {
	// Pix holds the samples, normally in [0, 1]. The sample at row y, column
	// x is Pix[y*Stride + x].
	Pix []float64
	// Stride is the Pix stride between vertically adjacent samples.
	Stride int
	// Rect is the image's bounds, always anchored at (0, 0).
	Rect image.Rectangle
}

func New(width, height int) *Image {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("raster: invalid dimensions %dx%d", width, height))
	}
	return &Image{
		Pix:    make([]float64, width*height),
		Stride: width,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// FromRows builds an image from row slices of equal length.
func FromRows(rows [][]float64) *Image {
	if len(rows) == 0 {
		return New(0, 0)
	}
	img := New(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != img.Stride {
			panic(fmt.Sprintf("raster: row %d has %d samples, want %d", y, len(row), img.Stride))
		}
		copy(img.Pix[y*img.Stride:], row)
	}
	return img
}

func (m *Image) Width() int  { return m.Rect.Dx() }
func (m *Image) Height() int { return m.Rect.Dy() }

// Size returns the dimensions as a point (X = width, Y = height).
func (m *Image) Size() image.Point { return m.Rect.Size() }

func (m *Image) SameSize(o *Image) bool {
	return m.Rect.Size() == o.Rect.Size()
}

func (m *Image) Sample(x, y int) float64 {
	return m.Pix[y*m.Stride+x]
}

func (m *Image) SetSample(x, y int, v float64) {
	m.Pix[y*m.Stride+x] = v
}

func (m *Image) Row(y int) []float64 {
	return m.Pix[y*m.Stride : y*m.Stride+m.Rect.Dx()]
}

func (m *Image) ColorModel() color.Model { return color.Gray16Model }

func (m *Image) Bounds() image.Rectangle { return m.Rect }

func (m *Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(m.Rect)) {
		return color.Gray16{}
	}
	return color.Gray16{Y: toGray16(m.Sample(x, y))}
}

func (m *Image) RGBA64At(x, y int) color.RGBA64 {
	if !(image.Point{X: x, Y: y}.In(m.Rect)) {
		return color.RGBA64{}
	}
	v := toGray16(m.Sample(x, y))
	return color.RGBA64{R: v, G: v, B: v, A: 0xffff}
}

func (m *Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(m.Rect)) {
		return
	}
	m.SetSample(x, y, float64(color.Gray16Model.Convert(c).(color.Gray16).Y)/0xffff)
}

func (m *Image) SetRGBA64(x, y int, c color.RGBA64) {
	m.Set(x, y, c)
}

func toGray16(v float64) uint16 {
	return uint16(math.Round(clamp(v, 0, 1) * 0xffff))
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	} else if x > hi {
		return hi
	}
	return x
}

func (m *Image) Clone() *Image {
	out := New(m.Width(), m.Height())
	for y := range m.Height() {
		copy(out.Row(y), m.Row(y))
	}
	return out
}

// Region copies the part of m inside r into a new image anchored at (0, 0).
// r is clipped to m's bounds.
func (m *Image) Region(r image.Rectangle) *Image {
	r = r.Intersect(m.Rect)
	out := New(r.Dx(), r.Dy())
	for y := range r.Dy() {
		copy(out.Row(y), m.Pix[(r.Min.Y+y)*m.Stride+r.Min.X:(r.Min.Y+y)*m.Stride+r.Max.X])
	}
	return out
}

// Crop keeps the top-left width x height samples.
func (m *Image) Crop(width, height int) *Image {
	return m.Region(image.Rect(0, 0, width, height))
}

// Paste copies src into m with its top-left corner at (x, y). It reports false
// without writing anything when src does not fit.
func (m *Image) Paste(src *Image, x, y int) bool {
	dst := image.Rect(x, y, x+src.Width(), y+src.Height())
	if !dst.In(m.Rect) {
		return false
	}
	for row := range src.Height() {
		copy(m.Pix[(y+row)*m.Stride+x:], src.Row(row))
	}
	return true
}

// Gray16 converts m to a standard library image, clamping to [0, 1].
func (m *Image) Gray16() *image.Gray16 {
	out := image.NewGray16(m.Rect)
	for y := range m.Height() {
		for x := range m.Width() {
			out.SetGray16(x, y, color.Gray16{Y: toGray16(m.Sample(x, y))})
		}
	}
	return out
}

// Fill sets every sample to v.
func (m *Image) Fill(v float64) {
	for y := range m.Height() {
		row := m.Row(y)
		for x := range row {
			row[x] = v
		}
	}
}

// MaxAbsDiff returns the largest absolute sample difference between two
// images of the same size.
func MaxAbsDiff(a, b *Image) float64 {
	var d float64
	for y := range a.Height() {
		ra, rb := a.Row(y), b.Row(y)
		for x := range ra {
			d = max(d, math.Abs(ra[x]-rb[x]))
		}
	}
	return d
}

// MinMax returns the smallest and largest sample.
func (m *Image) MinMax() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for y := range m.Height() {
		for _, v := range m.Row(y) {
			lo, hi = min(lo, v), max(hi, v)
		}
	}
	return lo, hi
}
