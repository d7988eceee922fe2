// Package roundtrip implements the command that encodes every picture of a
// folder, decodes it back and reports how close the reconstruction is.
package roundtrip

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"

	"fractpic/fractal"
	"fractpic/parallel"
	"fractpic/picfile"
	"fractpic/quality"
	"fractpic/raster"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Scan       string    `help:"Source folder to scan" default:"."`
	Dest       string    `help:"Destination folder for reconstructed pictures. Relative to scan dir if not absolute." default:"fractal"`
	Gray       string    `help:"Grayscale conversion of color pictures" enum:"luma,oklab" default:"luma"`
	Downsample int       `help:"Shrink factor applied before encoding" default:"3" group:"encode"`
	Crop       bool      `help:"Crop pictures to a multiple of the block size instead of skipping them" default:"true" negatable:"" group:"encode"`
	BlockSize  int       `help:"Side of the encoded blocks" default:"16" group:"encode"`
	Scales     []float64 `help:"Source patch scales to search, in search order" default:"0.5,1,2" group:"encode"`
	Rotations  []int     `help:"Counter-clockwise rotations to search, in degrees" default:"0,90,180,270" group:"encode"`
	Contrast   float64   `help:"Intensity gain of every transform, 1 matches raw samples" default:"0.75" group:"encode"`
	Workers    int       `help:"Concurrent block searches per picture, 0 for all CPUs" default:"0" group:"encode"`
	Mode       string    `help:"Decode by iterating from a blank seed, or by a single pass over the original" enum:"iterative,single" default:"iterative" group:"decode"`
	Passes     int       `help:"Maximum number of iterative passes" default:"32" group:"decode"`
	Epsilon    float64   `help:"Stop iterating once no sample moves more than this" default:"0.0001" group:"decode"`
	Format     string    `help:"Output format of reconstructed pictures" enum:"png,bmp,tiff,jpeg,gif" default:"png"`
	Original   bool      `help:"Also save the preprocessed original next to the reconstruction" default:"false"`
	Overwrite  bool      `help:"Replace existing destination files" default:"false"`

	Config   fractal.Config  `kong:"-"`
	GrayMode raster.GrayMode `kong:"-"`
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

	if c.GrayMode, err = raster.ParseGrayMode(c.Gray); err != nil {
		return err
	}
	if !slices.Contains(picfile.Formats, c.Format) {
		return fmt.Errorf("unsupported output format: %s", c.Format)
	}

	switch {
	case c.Passes <= 0:
		return fmt.Errorf("invalid number of passes: %d", c.Passes)
	case !(c.Epsilon > 0):
		return fmt.Errorf("invalid epsilon: %v", c.Epsilon)
	}

	c.Config, err = c.config()
	return err
}

func (c *CLICmd) config() (fractal.Config, error) {
	rotations := make([]raster.Rotation, 0, len(c.Rotations))
	for _, deg := range c.Rotations {
		r := raster.Rotation(deg)
		if !r.Valid() {
			return fractal.Config{}, fmt.Errorf("invalid rotation %d: not a multiple of 90", deg)
		}
		rotations = append(rotations, r)
	}

	cfg := fractal.Config{
		BlockSize:  c.BlockSize,
		Downsample: c.Downsample,
		Scales:     c.Scales,
		Rotations:  rotations,
		Contrast:   c.Contrast,
		Workers:    c.Workers,
	}
	if err := cfg.Validate(); err != nil {
		return fractal.Config{}, err
	}
	return cfg, nil
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
					logger.Error("could not process image", "error", err)
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
	img, imgType, err := picfile.Load(filepath.Join(c.Scan, fileName), c.GrayMode)
	if err != nil {
		return err
	}

	cfg := c.Config
	cfg.Logger = logger
	img = fractal.Preprocess(img, cfg)
	if c.Crop {
		img = fitBlocks(logger, img, cfg.BlockSize)
	}
	logger.Debug("loaded", "type", imgType, "size", img.Size())

	enc, err := fractal.NewEncoder(cfg)
	if err != nil {
		return err
	}
	code, err := enc.Encode(img)
	if err != nil {
		return fmt.Errorf("could not encode image: %w", err)
	}

	decoded, err := c.decode(logger, code, img)
	if err != nil {
		return fmt.Errorf("could not decode image: %w", err)
	}

	psnr, err := quality.PSNR(img, decoded)
	if err != nil {
		return fmt.Errorf("could not evaluate image: %w", err)
	}
	logger.Info("reconstructed", "transforms", len(code.Transforms), "psnr", formatPSNR(psnr))

	ext := "." + c.Format
	if err = picfile.Save(decoded, c.Format, c.Dest, picfile.DestName(fileName, ext), c.Overwrite); err != nil {
		return fmt.Errorf("could not save reconstruction in %q: %w", c.Dest, err)
	}
	if c.Original {
		if err = picfile.Save(img, c.Format, c.Dest, picfile.DestName(fileName, ".orig"+ext), c.Overwrite); err != nil {
			return fmt.Errorf("could not save original in %q: %w", c.Dest, err)
		}
	}
	return nil
}

func (c *CLICmd) decode(logger *slog.Logger, code fractal.Code, img *raster.Image) (*raster.Image, error) {
	dec := fractal.NewDecoder(fractal.DecodeOptions{
		MaxPasses: c.Passes,
		Epsilon:   c.Epsilon,
		Workers:   c.Workers,
		Logger:    logger,
	})
	if c.Mode == "single" {
		return dec.DecodeFrom(code, img)
	}

	decoded, report, err := dec.Decode(code)
	if err != nil {
		return nil, err
	}
	if !report.Converged {
		logger.Warn("decoding did not converge", "passes", report.Passes, "delta", report.Delta)
	}
	return decoded, nil
}

// fitBlocks crops img to the largest multiple of size in both directions.
func fitBlocks(logger *slog.Logger, img *raster.Image, size int) *raster.Image {
	w := img.Width() - img.Width()%size
	h := img.Height() - img.Height()%size
	if w == img.Width() && h == img.Height() {
		return img
	}
	logger.Debug("cropping", "from", img.Size(), "width", w, "height", h)
	return img.Crop(w, h)
}

func formatPSNR(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}
