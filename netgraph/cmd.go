// Package netgraph implements the command that links similar blocks of every
// picture of a folder into a network and writes it as Graphviz DOT.
package netgraph

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"fractpic/parallel"
	"fractpic/picfile"
	"fractpic/raster"
	"fractpic/similarity"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Scan       string   `help:"Source folder to scan" default:"."`
	Dest       string   `help:"Destination folder for DOT files. Relative to scan dir if not absolute." default:"network"`
	Gray       string   `help:"Grayscale conversion of color pictures" enum:"luma,oklab" default:"luma"`
	Downsample int      `help:"Shrink factor applied before cutting blocks" default:"3"`
	BlockSize  int      `help:"Side of the compared blocks" default:"8"`
	Method     string   `help:"Similarity measure" enum:"mse,ssim,cosine" default:"mse"`
	Threshold  *float64 `help:"Minimum similarity linking two blocks. Defaults to 0.2 for mse, 0.75 for ssim and 0.9 for cosine."`
	Workers    int      `help:"Concurrent block comparisons per picture, 0 for all CPUs" default:"0"`
	Overwrite  bool     `help:"Replace existing destination files" default:"false"`

	Metric   similarity.Metric `kong:"-"`
	GrayMode raster.GrayMode   `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}
	if c.Dest == c.Scan {
		return fmt.Errorf("destination folder cannot be the scan folder")
	}

	switch {
	case c.Downsample < 1:
		return fmt.Errorf("invalid downsample factor: %d", c.Downsample)
	case c.BlockSize < 1:
		return fmt.Errorf("invalid block size: %d", c.BlockSize)
	}

	if c.GrayMode, err = raster.ParseGrayMode(c.Gray); err != nil {
		return err
	}
	if c.Metric, err = similarity.New(c.Method); err != nil {
		return err
	}
	if minSize := c.Metric.Method().MinBlockSize(); c.BlockSize < minSize {
		return fmt.Errorf("block size %d is below the %d samples %s needs", c.BlockSize, minSize, c.Method)
	}
	return nil
}

func (c *CLICmd) threshold() float64 {
	if c.Threshold != nil {
		return *c.Threshold
	}
	return c.Metric.Method().DefaultThreshold()
}

func (c *CLICmd) Run(worker parallel.WorkerFunc, wait parallel.WaitFunc) error {
	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := picfile.Scan(c.Scan)
	if err != nil {
		return err
	}

	var processedCount, errCount atomic.Uint64
	for _, file := range files {
		worker(func(fileName string) func() {
			return func() {
				filePath := filepath.Join(c.Scan, fileName)
				logger := slog.Default().With("file", filePath)

				if err := c.process(logger, fileName); err != nil {
					errCount.Add(1)
					logger.Error("could not build network", "error", err)
					return
				}
				processedCount.Add(1)
			}
		}(file))
	}

	wait(true)

	processed := processedCount.Load()
	errors := errCount.Load()
	slog.Info("stats", "processed", processed, "errors", errors,
		"total", processed+errors)

	if errors > 0 {
		return fmt.Errorf("error processing %d files", errors)
	}
	return nil
}

func (c *CLICmd) process(logger *slog.Logger, fileName string) error {
	img, _, err := picfile.Load(filepath.Join(c.Scan, fileName), c.GrayMode)
	if err != nil {
		return err
	}
	img = raster.Downsample(img, c.Downsample)

	net, err := similarity.Build(similarity.Blocks(img, c.BlockSize), c.threshold(), c.Metric, c.Workers)
	if err != nil {
		return err
	}

	maxDegree := 0
	for i := range net.Nodes() {
		maxDegree = max(maxDegree, net.Degree(i))
	}
	logger.Info("network", "method", c.Metric.Method(), "nodes", net.Nodes(), "edges", len(net.Edges()),
		"isolated", net.Isolated(), "max_degree", maxDegree)

	graphName := picfile.DestName(fileName, "")
	destName := picfile.DestName(fileName, "."+c.Method+".dot")
	err = picfile.WriteFile(c.Dest, destName, c.Overwrite, func(w io.Writer) error {
		return net.WriteDOT(w, graphName)
	})
	if err != nil {
		return fmt.Errorf("could not save network in %q: %w", c.Dest, err)
	}
	return nil
}
