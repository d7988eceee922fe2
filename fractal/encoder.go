package fractal

import (
	"log/slog"

	"fractpic/parallel"
	"fractpic/raster"
)

type Encoder struct {
	cfg    Config
	logger *slog.Logger
}

func NewEncoder(cfg Config) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{cfg: cfg, logger: cfg.logger()}, nil
}

// Encode searches a transform for every block of img. Blocks are searched
// concurrently against the shared, read-only image; the result lists them in
// tile order.
func (e *Encoder) Encode(img *raster.Image) (Code, error) {
	blocks, err := Tile(img, e.cfg.BlockSize)
	if err != nil {
		return Code{}, err
	}

	s := newSearcher(img, e.cfg)
	transforms := make([]Transform, len(blocks))

	pool := parallel.Start(e.cfg.Workers)
	for i, b := range blocks {
		pool.Do(func() {
			m := s.search(b.Pixels(img))
			transforms[i] = Transform{
				SourceRow:  m.Row,
				SourceCol:  m.Col,
				Scale:      m.Scale,
				Rotation:   m.Rotation,
				TargetRow:  b.Row,
				TargetCol:  b.Col,
				BlockSize:  b.Size,
				Contrast:   m.Contrast,
				Brightness: m.Brightness,
				Cost:       m.Cost,
			}
			e.logger.Debug("block matched", "block", i, "transform", transforms[i].String(), "cost", m.Cost)
		})
	}
	pool.Wait(true)

	var unmatched int
	var total float64
	for i, t := range transforms {
		if !t.Found() {
			unmatched++
			e.logger.Warn("no candidate fits the image", "block", i, "row", t.TargetRow, "col", t.TargetCol)
			continue
		}
		total += t.Cost
	}

	e.logger.Info("encoded", "width", img.Width(), "height", img.Height(), "blocks", len(blocks),
		"unmatched", unmatched, "cost", total)

	return Code{
		Width:      img.Width(),
		Height:     img.Height(),
		BlockSize:  e.cfg.BlockSize,
		Transforms: transforms,
	}, nil
}

// Encode encodes img with the default configuration and the given block size.
func Encode(img *raster.Image, blockSize int) (Code, error) {
	cfg := DefaultConfig()
	cfg.BlockSize = blockSize

	enc, err := NewEncoder(cfg)
	if err != nil {
		return Code{}, err
	}
	return enc.Encode(img)
}
