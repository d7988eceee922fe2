// Package similarity scores how alike image blocks are and links similar
// blocks of an image into an undirected network.
package similarity

import (
	"errors"
	"fmt"
	"math"

	"fractpic/quality"
	"fractpic/raster"
)

var ErrInvalidMethod = errors.New("invalid similarity method, choose from mse, ssim, cosine")

type Method int

const (
	MSE Method = iota + 1
	SSIM
	Cosine
)

var methodNames = map[Method]string{
	MSE:    "mse",
	SSIM:   "ssim",
	Cosine: "cosine",
}

func ParseMethod(name string) (Method, error) {
	for m, n := range methodNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMethod, name)
}

func (m Method) String() string {
	if n, ok := methodNames[m]; ok {
		return n
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// DefaultThreshold is the similarity above which two blocks are linked.
func (m Method) DefaultThreshold() float64 {
	switch m {
	case MSE:
		return 0.2
	case SSIM:
		return 0.75
	case Cosine:
		return 0.9
	}
	return math.NaN()
}

// MinBlockSize is the smallest block side the method can score.
func (m Method) MinBlockSize() int {
	if m == SSIM {
		return ssimWindow
	}
	return 1
}

// Metric scores two blocks, higher meaning more alike.
type Metric interface {
	Method() Method
	Compute(a, b *raster.Image) (float64, error)
}

// New returns the metric called name.
func New(name string) (Metric, error) {
	m, err := ParseMethod(name)
	if err != nil {
		return nil, err
	}
	return m.Metric()
}

func (m Method) Metric() (Metric, error) {
	switch m {
	case MSE:
		return mseMetric{}, nil
	case SSIM:
		return ssimMetric{}, nil
	case Cosine:
		return cosineMetric{}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidMethod, m)
}

// mseMetric maps the mean squared error to 1/(1+mse). b is resized to a's
// dimensions first.
type mseMetric struct{}

func (mseMetric) Method() Method { return MSE }

func (mseMetric) Compute(a, b *raster.Image) (float64, error) {
	if !a.SameSize(b) {
		b = raster.Resize(b, a.Width(), a.Height())
	}
	mse, err := quality.MSE(a, b)
	if err != nil {
		return 0, err
	}
	return 1 / (1 + mse), nil
}

// cosineMetric compares the flattened blocks as vectors. A zero vector is
// dissimilar to everything.
type cosineMetric struct{}

func (cosineMetric) Method() Method { return Cosine }

func (cosineMetric) Compute(a, b *raster.Image) (float64, error) {
	if !a.SameSize(b) {
		return 0, &quality.ShapeMismatchError{Original: a.Size(), Reconstructed: b.Size()}
	}

	var dot, na, nb float64
	for y := range a.Height() {
		ra, rb := a.Row(y), b.Row(y)
		for x := range ra {
			dot += ra[x] * rb[x]
			na += ra[x] * ra[x]
			nb += rb[x] * rb[x]
		}
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}
