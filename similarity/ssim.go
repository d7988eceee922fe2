package similarity

import (
	"fmt"

	"fractpic/quality"
	"fractpic/raster"
)

const (
	ssimWindow = 7
	ssimK1     = 0.01
	ssimK2     = 0.03
)

// ssimMetric is the mean structural similarity over every 7x7 window lying
// fully inside the blocks, with sample covariances and the data range taken
// from a. A flat a uses a data range of 1.
type ssimMetric struct{}

func (ssimMetric) Method() Method { return SSIM }

func (ssimMetric) Compute(a, b *raster.Image) (float64, error) {
	if !a.SameSize(b) {
		return 0, &quality.ShapeMismatchError{Original: a.Size(), Reconstructed: b.Size()}
	}
	w, h := a.Width(), a.Height()
	if w < ssimWindow || h < ssimWindow {
		return 0, fmt.Errorf("blocks of %dx%d are smaller than the %d sample SSIM window", w, h, ssimWindow)
	}

	lo, hi := a.MinMax()
	dataRange := hi - lo
	if dataRange == 0 {
		dataRange = quality.MaxValue
	}
	c1 := (ssimK1 * dataRange) * (ssimK1 * dataRange)
	c2 := (ssimK2 * dataRange) * (ssimK2 * dataRange)

	sx := newTable(a, b, func(p, _ float64) float64 { return p })
	sy := newTable(a, b, func(_, q float64) float64 { return q })
	sxx := newTable(a, b, func(p, _ float64) float64 { return p * p })
	syy := newTable(a, b, func(_, q float64) float64 { return q * q })
	sxy := newTable(a, b, func(p, q float64) float64 { return p * q })

	const np = ssimWindow * ssimWindow
	const covNorm = float64(np) / (np - 1)

	var total float64
	var count int
	for y := 0; y+ssimWindow <= h; y++ {
		for x := 0; x+ssimWindow <= w; x++ {
			ux := sx.window(x, y) / np
			uy := sy.window(x, y) / np
			vx := covNorm * (sxx.window(x, y)/np - ux*ux)
			vy := covNorm * (syy.window(x, y)/np - uy*uy)
			vxy := covNorm * (sxy.window(x, y)/np - ux*uy)

			num := (2*ux*uy + c1) * (2*vxy + c2)
			den := (ux*ux + uy*uy + c1) * (vx + vy + c2)
			total += num / den
			count++
		}
	}
	return total / float64(count), nil
}

// table is a summed-area table of f(a, b) over two equally sized blocks.
type table struct {
	stride int
	s      []float64
}

func newTable(a, b *raster.Image, f func(p, q float64) float64) table {
	w, h := a.Width(), a.Height()
	t := table{stride: w + 1, s: make([]float64, (w+1)*(h+1))}
	for y := range h {
		ra, rb := a.Row(y), b.Row(y)
		var row float64
		for x := range ra {
			row += f(ra[x], rb[x])
			t.s[(y+1)*t.stride+x+1] = t.s[y*t.stride+x+1] + row
		}
	}
	return t
}

func (t table) window(x, y int) float64 {
	x1, y1 := x+ssimWindow, y+ssimWindow
	return t.s[y1*t.stride+x1] - t.s[y*t.stride+x1] - t.s[y1*t.stride+x] + t.s[y*t.stride+x]
}
