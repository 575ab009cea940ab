package layout

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/btree"
	"github.com/robert-malhotra/go-minc/internal/dtype"
	"github.com/robert-malhotra/go-minc/internal/filter"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
	"github.com/robert-malhotra/go-minc/internal/message"
)

// Chunked reads chunked storage indexed by a version 1 raw-data B-tree.
type Chunked struct {
	grid     btree.Grid
	address  uint64
	pipeline *filter.Pipeline

	// OnChunk, when set, is called for every chunk entry before the chunks
	// are decoded.
	OnChunk func(btree.ChunkEntry)
}

func newChunked(s Params) (*Chunked, error) {
	grid := btree.Grid{Type: s.Type, Dims: s.Dims, ChunkDims: s.ChunkDims}
	chunkBytes, err := grid.ChunkBytes()
	if err != nil {
		return nil, err
	}
	if chunkBytes > dtype.MaxAllocBytes {
		return nil, fmt.Errorf("%w: %d-byte chunks exceed the %d-byte allocation limit",
			hdferr.ErrMalformedInput, chunkBytes, uint64(dtype.MaxAllocBytes))
	}
	inf := s.Inflater
	if z, ok := inf.(filter.Zlib); ok && z.SizeHint == 0 {
		inf = filter.Zlib{SizeHint: int(chunkBytes)}
	}
	p, err := filter.NewPipeline(s.Filters, inf)
	if err != nil {
		return nil, err
	}
	return &Chunked{grid: grid, address: s.Address, pipeline: p}, nil
}

func (l *Chunked) Class() message.LayoutClass {
	return message.LayoutChunked
}

// Filtered reports whether chunks pass through at least one filter.
func (l *Chunked) Filtered() bool {
	return !l.pipeline.Empty()
}

func (l *Chunked) Read(c *binary.Cursor) (dtype.Array, error) {
	if c.IsUndefinedOffset(l.address) {
		n, err := l.grid.NumElements()
		if err != nil {
			return nil, err
		}
		return zeros(l.grid.Type, n)
	}
	chunks, err := btree.ReadChunks(c, l.address, len(l.grid.Dims))
	if err != nil {
		return nil, err
	}
	if l.OnChunk != nil {
		for _, ch := range chunks {
			l.OnChunk(ch)
		}
	}
	return l.grid.Fill(c, chunks, l.pipeline)
}
