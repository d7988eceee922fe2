package fractal

import (
	"math"

	"fractpic/raster"
)

// Match is the placement chosen for one block.
type Match struct {
	Row, Col             int
	Scale                float64
	Rotation             raster.Rotation
	Contrast, Brightness float64
	Cost                 float64
}

// Search finds where block, scaled and rotated, best matches img. Candidates
// are enumerated by scale, then rotation, then row-major position, and only a
// strictly lower cost replaces the current best, so the first of equal
// candidates wins. When no scaled block fits inside img the result is the
// identity placement at (0, 0) with an infinite cost.
func Search(block, img *raster.Image, cfg Config) Match {
	return newSearcher(img, cfg).search(block)
}

type searcher struct {
	img       *raster.Image
	sums      *summedArea
	scales    []float64
	rotations []raster.Rotation
	contrast  float64
}

func newSearcher(img *raster.Image, cfg Config) *searcher {
	s := &searcher{
		img:       img,
		scales:    cfg.Scales,
		rotations: cfg.Rotations,
		contrast:  cfg.Contrast,
	}
	if s.contrast == 0 {
		s.contrast = 1
	}
	// region means are only needed to fit a brightness offset
	if s.contrast != 1 {
		s.sums = newSummedArea(img)
	}
	return s
}

func (s *searcher) search(block *raster.Image) Match {
	best := Match{Scale: 1, Rotation: raster.Rotate0, Contrast: 1, Cost: math.Inf(1)}
	for _, scale := range s.scales {
		scaled := raster.Scale(block, scale)
		for _, rot := range s.rotations {
			patch := raster.Rotate(scaled, rot)
			if patch.Width() > s.img.Width() || patch.Height() > s.img.Height() {
				continue
			}
			if best = s.slide(patch, scale, rot.Normalize(), best); best.Cost == 0 {
				return best
			}
		}
	}
	return best
}

// slide folds every position of patch over the image into best.
func (s *searcher) slide(patch *raster.Image, scale float64, rot raster.Rotation, best Match) Match {
	pw, ph := patch.Width(), patch.Height()
	area := float64(pw * ph)

	var patchMean float64
	if s.sums != nil {
		patchMean = sampleSum(patch) / area
	}

	for row := 0; row <= s.img.Height()-ph; row++ {
		for col := 0; col <= s.img.Width()-pw; col++ {
			var offset float64
			if s.sums != nil {
				offset = patchMean - s.contrast*s.sums.sum(col, row, pw, ph)/area
			}

			cost := s.cost(patch, row, col, offset, best.Cost)
			if cost < best.Cost {
				best = Match{
					Row:        row,
					Col:        col,
					Scale:      scale,
					Rotation:   rot,
					Contrast:   s.contrast,
					Brightness: offset,
					Cost:       cost,
				}
				if cost == 0 {
					return best
				}
			}
		}
	}
	return best
}

// cost sums |p - (contrast*r + offset)| over the patch placed at (row, col).
// It stops early once the sum reaches bound, since such a candidate can no
// longer win.
func (s *searcher) cost(patch *raster.Image, row, col int, offset, bound float64) float64 {
	var sum float64
	for y := range patch.Height() {
		src := s.img.Pix[(row+y)*s.img.Stride+col:]
		for x, p := range patch.Row(y) {
			sum += math.Abs(p - s.contrast*src[x] - offset)
		}
		if sum >= bound {
			return sum
		}
	}
	return sum
}

func sampleSum(img *raster.Image) float64 {
	var sum float64
	for y := range img.Height() {
		for _, v := range img.Row(y) {
			sum += v
		}
	}
	return sum
}

// summedArea is an integral image: s[y*(w+1)+x] holds the sum of all
// samples above and left of (x, y).
type summedArea struct {
	stride int
	s      []float64
}

func newSummedArea(img *raster.Image) *summedArea {
	w, h := img.Width(), img.Height()
	a := &summedArea{stride: w + 1, s: make([]float64, (w+1)*(h+1))}
	for y := range h {
		var rowSum float64
		for x, v := range img.Row(y) {
			rowSum += v
			a.s[(y+1)*a.stride+x+1] = a.s[y*a.stride+x+1] + rowSum
		}
	}
	return a
}

func (a *summedArea) sum(x, y, w, h int) float64 {
	return a.s[(y+h)*a.stride+x+w] - a.s[y*a.stride+x+w] - a.s[(y+h)*a.stride+x] + a.s[y*a.stride+x]
}
