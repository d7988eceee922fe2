package similarity

import (
	"bufio"
	"fmt"
	"image"
	"io"

	"fractpic/parallel"
	"fractpic/raster"
)

// DefaultBlockSize is the side of the blocks compared by the network.
const DefaultBlockSize = 8

// Blocks cuts img into size x size blocks in row-major order. Blocks at the
// right and bottom edges are clipped by the image and then resized back to
// size x size, so every block can be compared with every other.
func Blocks(img *raster.Image, size int) []*raster.Image {
	if size <= 0 {
		return nil
	}

	var blocks []*raster.Image
	for y := 0; y < img.Height(); y += size {
		for x := 0; x < img.Width(); x += size {
			b := img.Region(image.Rect(x, y, x+size, y+size))
			if b.Width() != size || b.Height() != size {
				b = raster.Resize(b, size, size)
			}
			blocks = append(blocks, b)
		}
	}
	return blocks
}

type Edge struct {
	From, To int
	Weight   float64
}

// Network is an undirected graph over block indices. Edges are kept in
// (From, To) order with From < To.
type Network struct {
	nodes  int
	edges  []Edge
	byPair map[[2]int]int
	adj    [][]int
}

// Build links every pair of blocks whose similarity reaches threshold. Rows of
// the pair matrix are scored concurrently on up to workers goroutines.
func Build(blocks []*raster.Image, threshold float64, metric Metric, workers int) (*Network, error) {
	n := len(blocks)
	rows := make([][]Edge, n)
	errs := make([]error, n)

	pool := parallel.Start(workers)
	pool.ForEach(n, func(i int) {
		for j := i + 1; j < n; j++ {
			s, err := metric.Compute(blocks[i], blocks[j])
			if err != nil {
				errs[i] = fmt.Errorf("could not compare blocks %d and %d: %w", i, j, err)
				return
			}
			if s >= threshold {
				rows[i] = append(rows[i], Edge{From: i, To: j, Weight: s})
			}
		}
	})
	pool.Wait(true)

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	net := &Network{
		nodes:  n,
		byPair: make(map[[2]int]int),
		adj:    make([][]int, n),
	}
	for _, row := range rows {
		for _, e := range row {
			net.byPair[[2]int{e.From, e.To}] = len(net.edges)
			net.edges = append(net.edges, e)
			net.adj[e.From] = append(net.adj[e.From], e.To)
			net.adj[e.To] = append(net.adj[e.To], e.From)
		}
	}
	return net, nil
}

func (n *Network) Nodes() int { return n.nodes }

func (n *Network) Edges() []Edge { return n.edges }

// Weight returns the similarity linking i and j, if they are linked.
func (n *Network) Weight(i, j int) (float64, bool) {
	if i > j {
		i, j = j, i
	}
	idx, ok := n.byPair[[2]int{i, j}]
	if !ok {
		return 0, false
	}
	return n.edges[idx].Weight, true
}

func (n *Network) Neighbors(i int) []int { return n.adj[i] }

func (n *Network) Degree(i int) int { return len(n.adj[i]) }

// Isolated counts nodes without any edge.
func (n *Network) Isolated() int {
	var count int
	for _, a := range n.adj {
		if len(a) == 0 {
			count++
		}
	}
	return count
}

// WriteDOT writes the network in Graphviz format.
func (n *Network) WriteDOT(w io.Writer, name string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "graph %q {\n", name)
	for i := range n.nodes {
		fmt.Fprintf(bw, "\t%d;\n", i)
	}
	for _, e := range n.edges {
		fmt.Fprintf(bw, "\t%d -- %d [weight=%.6g];\n", e.From, e.To, e.Weight)
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
