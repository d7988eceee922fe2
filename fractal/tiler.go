package fractal

import (
	"fmt"
	"image"

	"fractpic/raster"
)

// Block is a square cell of the encoding grid.
type Block struct {
	Row, Col int
	Size     int
}

func (b Block) Rect() image.Rectangle {
	return image.Rect(b.Col, b.Row, b.Col+b.Size, b.Row+b.Size)
}

// Pixels copies the block out of img.
func (b Block) Pixels(img *raster.Image) *raster.Image {
	return img.Region(b.Rect())
}

// Tile partitions img into size x size blocks in row-major order, starting at
// (0, 0). Images whose sides are not multiples of size are rejected.
func Tile(img *raster.Image, size int) ([]Block, error) {
	return tileGrid(img.Width(), img.Height(), size)
}

func tileGrid(width, height, size int) ([]Block, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: block size %d", ErrDimensions, size)
	}
	if width == 0 || height == 0 || width%size != 0 || height%size != 0 {
		return nil, fmt.Errorf("%w: %dx%d with blocks of %d", ErrDimensions, width, height, size)
	}

	blocks := make([]Block, 0, (width/size)*(height/size))
	for row := 0; row < height; row += size {
		for col := 0; col < width; col += size {
			blocks = append(blocks, Block{Row: row, Col: col, Size: size})
		}
	}
	return blocks, nil
}
