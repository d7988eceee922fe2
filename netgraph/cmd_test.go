package netgraph

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fractpic/parallel"
	"fractpic/picfile"
	"fractpic/raster"
)

func testCmd(scan string) *CLICmd {
	return &CLICmd{
		Scan:       scan,
		Dest:       "network",
		Gray:       "luma",
		Downsample: 1,
		BlockSize:  8,
		Method:     "mse",
		Workers:    2,
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	for _, tc := range []struct {
		name string
		edit func(c *CLICmd)
		ok   bool
	}{
		{"defaults", func(c *CLICmd) {}, true},
		{"ssim", func(c *CLICmd) { c.Method = "ssim" }, true},
		{"method", func(c *CLICmd) { c.Method = "euclidean" }, false},
		{"block_size", func(c *CLICmd) { c.BlockSize = 0 }, false},
		{"downsample", func(c *CLICmd) { c.Downsample = 0 }, false},
		{"ssim_small_blocks", func(c *CLICmd) { c.Method, c.BlockSize = "ssim", 4 }, false},
		{"ssim_window_blocks", func(c *CLICmd) { c.Method, c.BlockSize = "ssim", 7 }, true},
		{"cosine_small_blocks", func(c *CLICmd) { c.Method, c.BlockSize = "cosine", 4 }, true},
		{"dest_is_scan", func(c *CLICmd) { c.Dest = "." }, false},
		{"scan_missing", func(c *CLICmd) { c.Scan = filepath.Join(dir, "missing") }, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := testCmd(dir)
			tc.edit(c)
			err := c.Validate(nil)
			if tc.ok && err != nil {
				t.Fatalf("Validate: %v", err)
			} else if !tc.ok && err == nil {
				t.Fatalf("expected a validation error")
			}
		})
	}
}

func TestThreshold(t *testing.T) {
	c := testCmd(t.TempDir())
	c.Method = "cosine"
	if err := c.Validate(nil); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := c.threshold(); got != 0.9 {
		t.Fatalf("default cosine threshold = %v, want 0.9", got)
	}

	custom := 0.5
	c.Threshold = &custom
	if got := c.threshold(); got != 0.5 {
		t.Fatalf("threshold = %v, want the given 0.5", got)
	}
}

func TestRun(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	dir := t.TempDir()

	// left half black, right half white: two groups of identical blocks
	img := raster.New(32, 16)
	for y := range 16 {
		for x := 16; x < 32; x++ {
			img.SetSample(x, y, 1)
		}
	}
	if err := picfile.Save(img, "png", dir, "halves.png", false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	c := testCmd(dir)
	threshold := 0.99
	c.Threshold = &threshold
	if err := c.Validate(nil); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	pool := parallel.Start(2)
	if err := c.Run(pool.Do, pool.Wait); err != nil {
		t.Fatalf("Run: %v", err)
	}

	dot, err := os.ReadFile(filepath.Join(c.Dest, "halves.mse.dot"))
	if err != nil {
		t.Fatalf("could not read DOT output: %v", err)
	}
	out := string(dot)
	if !strings.HasPrefix(out, `graph "halves" {`) {
		t.Fatalf("unexpected header:\n%s", out)
	}
	// blocks 0, 1, 4, 5 are black and 2, 3, 6, 7 white
	for _, edge := range []string{"0 -- 1", "0 -- 4", "2 -- 7", "6 -- 7"} {
		if !strings.Contains(out, edge) {
			t.Fatalf("missing edge %q in:\n%s", edge, out)
		}
	}
	if strings.Contains(out, "1 -- 2 ") || strings.Contains(out, "0 -- 3 ") {
		t.Fatalf("black and white blocks should not be linked:\n%s", out)
	}
	if n := strings.Count(out, " -- "); n != 12 {
		t.Fatalf("got %d edges, want 12", n)
	}
}
