package similarity

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"fractpic/quality"
	"fractpic/raster"
)

func makeBlock(size int, f func(x, y int) float64) *raster.Image {
	img := raster.New(size, size)
	for y := range size {
		for x := range size {
			img.SetSample(x, y, f(x, y))
		}
	}
	return img
}

func ramp(x, y int) float64 { return float64(x+y) / 14 }
func checker(x, y int) float64 { return float64((x + y) % 2) }

func TestParseMethod(t *testing.T) {
	for _, name := range []string{"mse", "ssim", "cosine"} {
		m, err := ParseMethod(name)
		if err != nil {
			t.Fatalf("ParseMethod(%q): %v", name, err)
		}
		if m.String() != name {
			t.Fatalf("round trip of %q gave %q", name, m.String())
		}
		if math.IsNaN(m.DefaultThreshold()) {
			t.Fatalf("%v has no default threshold", m)
		}
	}

	for _, name := range []string{"", "MSE", "euclidean"} {
		if _, err := New(name); !errors.Is(err, ErrInvalidMethod) {
			t.Fatalf("New(%q): expected ErrInvalidMethod, got %v", name, err)
		}
	}
	if _, err := Method(0).Metric(); !errors.Is(err, ErrInvalidMethod) {
		t.Fatalf("zero Method: expected ErrInvalidMethod, got %v", err)
	}
}

func TestMinBlockSize(t *testing.T) {
	for _, tc := range []struct {
		m    Method
		want int
	}{{MSE, 1}, {SSIM, 7}, {Cosine, 1}} {
		if got := tc.m.MinBlockSize(); got != tc.want {
			t.Fatalf("%v: MinBlockSize = %d, want %d", tc.m, got, tc.want)
		}
	}

	m, _ := New("ssim")
	size := SSIM.MinBlockSize()
	if _, err := m.Compute(makeBlock(size, ramp), makeBlock(size, ramp)); err != nil {
		t.Fatalf("SSIM at the minimum block size: %v", err)
	}
	if _, err := m.Compute(makeBlock(size-1, ramp), makeBlock(size-1, ramp)); err == nil {
		t.Fatalf("expected an error below the minimum block size")
	}
}

func TestMetrics_IdenticalBlocks(t *testing.T) {
	a := makeBlock(8, ramp)
	for _, name := range []string{"mse", "ssim", "cosine"} {
		m, err := New(name)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		got, err := m.Compute(a, a.Clone())
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if math.Abs(got-1) > 1e-12 {
			t.Fatalf("%s of identical blocks = %v, want 1", name, got)
		}
	}
}

func TestMetrics_DifferentBlocks(t *testing.T) {
	a, b := makeBlock(8, ramp), makeBlock(8, checker)
	for _, name := range []string{"mse", "ssim", "cosine"} {
		m, _ := New(name)
		got, err := m.Compute(a, b)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got >= 1 {
			t.Fatalf("%s of different blocks = %v, want below 1", name, got)
		}
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	m, _ := New("cosine")
	got, err := m.Compute(raster.New(4, 4), makeBlock(4, ramp))
	if err != nil {
		t.Fatalf("cosine: %v", err)
	}
	if got != 0 {
		t.Fatalf("cosine with a zero block = %v, want 0", got)
	}
}

func TestMSE_ResizesSecondBlock(t *testing.T) {
	m, _ := New("mse")
	a := raster.New(8, 8)
	a.Fill(0.5)
	b := raster.New(4, 4)
	b.Fill(0.5)

	got, err := m.Compute(a, b)
	if err != nil {
		t.Fatalf("mse: %v", err)
	}
	if math.Abs(got-1) > 1e-6 {
		t.Fatalf("mse of flat blocks = %v, want 1", got)
	}
}

func TestSSIM_Errors(t *testing.T) {
	m, _ := New("ssim")
	if _, err := m.Compute(makeBlock(4, ramp), makeBlock(4, ramp)); err == nil {
		t.Fatalf("expected an error for blocks smaller than the window")
	}
	if _, err := m.Compute(makeBlock(8, ramp), makeBlock(9, ramp)); !errors.Is(err, quality.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestBlocks_ClipsAndResizesEdges(t *testing.T) {
	img := raster.New(20, 12)
	blocks := Blocks(img, 8)
	if len(blocks) != 6 {
		t.Fatalf("got %d blocks, want 6", len(blocks))
	}
	for i, b := range blocks {
		if b.Width() != 8 || b.Height() != 8 {
			t.Fatalf("block %d is %v, want 8x8", i, b.Size())
		}
	}
}

func TestBuild(t *testing.T) {
	blocks := []*raster.Image{
		makeBlock(8, ramp),
		makeBlock(8, ramp),
		makeBlock(8, checker),
	}
	metric, err := New("mse")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, workers := range []int{1, 3} {
		net, err := Build(blocks, 0.99, metric, workers)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}

		if net.Nodes() != 3 || len(net.Edges()) != 1 {
			t.Fatalf("workers=%d: %d nodes, %d edges; want 3 nodes, 1 edge", workers, net.Nodes(), len(net.Edges()))
		}
		if w, ok := net.Weight(1, 0); !ok || w != 1 {
			t.Fatalf("edge 0-1: weight %v, linked %v", w, ok)
		}
		if _, ok := net.Weight(0, 2); ok {
			t.Fatalf("blocks 0 and 2 should not be linked")
		}
		if net.Degree(0) != 1 || net.Degree(2) != 0 || net.Isolated() != 1 {
			t.Fatalf("unexpected degrees: %d %d, isolated %d", net.Degree(0), net.Degree(2), net.Isolated())
		}

		var buf bytes.Buffer
		if err := net.WriteDOT(&buf, "test"); err != nil {
			t.Fatalf("WriteDOT: %v", err)
		}
		if !strings.Contains(buf.String(), "0 -- 1") || strings.Contains(buf.String(), "-- 2") {
			t.Fatalf("unexpected DOT output:\n%s", buf.String())
		}
	}
}

func TestBuild_PropagatesMetricErrors(t *testing.T) {
	metric, _ := New("ssim")
	blocks := []*raster.Image{makeBlock(4, ramp), makeBlock(4, ramp)}
	if _, err := Build(blocks, 0.5, metric, 2); err == nil {
		t.Fatalf("expected an error from undersized SSIM blocks")
	}
}
