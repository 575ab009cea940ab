package btree

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/dtype"
	"github.com/robert-malhotra/go-minc/internal/filter"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// ChunkEntry is one chunk referenced by a raw-data B-tree.
type ChunkEntry struct {
	// Offset holds the element coordinates of the chunk's first element,
	// one per dataset dimension. The key's trailing byte-offset entry is
	// dropped.
	Offset []uint64

	// FilterMask has bit i set when filter i was skipped for this chunk.
	FilterMask uint32

	// Size is the stored, possibly compressed, size in bytes.
	Size uint32

	Address uint64
}

/*
Raw-data key layout (type 1 nodes):
Offset  Size        Description
0       4           Chunk size in bytes
4       4           Filter mask
8       8*(rank+1)  Chunk offsets; the last is the byte offset within an
                    element and is always 0
*/

// ReadChunks walks the raw-data B-tree at addr for a dataset of the given
// rank and returns its chunks in in-order traversal order.
func ReadChunks(c *binary.Cursor, addr uint64, rank int) ([]ChunkEntry, error) {
	if rank < 1 {
		return nil, fmt.Errorf("%w: chunked dataset of rank %d", hdferr.ErrMalformedInput, rank)
	}
	var entries []ChunkEntry
	if err := readChunkNode(c, addr, rank, -1, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func readChunkNode(c *binary.Cursor, addr uint64, rank, parent int, out *[]ChunkEntry) error {
	nc, h, err := readNodeHeader(c, addr, NodeRawData)
	if err != nil {
		return err
	}
	if parent >= 0 {
		if err := checkChildLevel(addr, uint8(parent), h.level); err != nil {
			return err
		}
	}

	for i := 0; i < int(h.entries); i++ {
		key, err := readChunkKey(nc, rank)
		if err != nil {
			return fmt.Errorf("b-tree node at 0x%x key %d: %w", addr, i, err)
		}
		child, err := nc.ReadOffset()
		if err != nil {
			return err
		}
		if h.level > 0 {
			if err := readChunkNode(c, child, rank, int(h.level), out); err != nil {
				return err
			}
			continue
		}
		key.Address = child
		*out = append(*out, key)
	}
	return nil
}

func readChunkKey(c *binary.Cursor, rank int) (ChunkEntry, error) {
	var e ChunkEntry
	var err error
	if e.Size, err = c.ReadUint32(); err != nil {
		return e, err
	}
	if e.FilterMask, err = c.ReadUint32(); err != nil {
		return e, err
	}
	e.Offset = make([]uint64, rank)
	for d := range e.Offset {
		if e.Offset[d], err = c.ReadUint64(); err != nil {
			return e, err
		}
	}
	if err := c.Skip(8); err != nil {
		return e, err
	}
	return e, nil
}

// Grid describes how chunks tile a dataset.
type Grid struct {
	Type      dtype.ElementType
	Dims      []uint64
	ChunkDims []uint32
}

// NumElements returns the number of elements in the whole dataset.
func (g Grid) NumElements() (uint64, error) {
	return dtype.Count(g.Dims)
}

// ChunkBytes returns the decoded size of one full chunk.
func (g Grid) ChunkBytes() (uint64, error) {
	dims := make([]uint64, len(g.ChunkDims))
	for i, d := range g.ChunkDims {
		dims[i] = uint64(d)
	}
	n, err := dtype.Count(dims)
	if err != nil {
		return 0, err
	}
	return dtype.ByteLen(n, g.Type.Size())
}

// Fill allocates the dataset array and copies every chunk into it. Stored
// bytes are decoded through p; chunks are placed by their key offsets and
// clipped at the dataset edges. Elements no chunk covers stay zero.
func (g Grid) Fill(c *binary.Cursor, chunks []ChunkEntry, p *filter.Pipeline) (dtype.Array, error) {
	if len(g.Dims) != len(g.ChunkDims) {
		return nil, fmt.Errorf("%w: %d-d chunks for a %d-d dataset",
			hdferr.ErrMalformedInput, len(g.ChunkDims), len(g.Dims))
	}
	n, err := g.NumElements()
	if err != nil {
		return nil, err
	}
	dst, err := dtype.Make(g.Type, n)
	if err != nil {
		return nil, err
	}
	for i, ch := range chunks {
		stored, err := c.Slice(ch.Address, ch.Address+uint64(ch.Size))
		if err != nil {
			return nil, fmt.Errorf("chunk %d at 0x%x: %w", i, ch.Address, err)
		}
		data, err := p.Decode(stored, ch.FilterMask)
		if err != nil {
			return nil, fmt.Errorf("chunk %d at 0x%x: %w", i, ch.Address, err)
		}
		if err := g.Place(dst, ch.Offset, data); err != nil {
			return nil, fmt.Errorf("chunk %d at 0x%x: %w", i, ch.Address, err)
		}
	}
	return dst, nil
}

// Place copies one decoded chunk whose first element sits at off into dst.
func (g Grid) Place(dst dtype.Array, off []uint64, data []byte) error {
	rank := len(g.Dims)
	if len(off) != rank {
		return fmt.Errorf("%w: chunk offset has %d coordinates, dataset rank is %d",
			hdferr.ErrMalformedInput, len(off), rank)
	}
	need, err := g.ChunkBytes()
	if err != nil {
		return err
	}
	if uint64(len(data)) < need {
		return fmt.Errorf("%w: chunk decodes to %d bytes, want %d",
			hdferr.ErrMalformedInput, len(data), need)
	}
	for d := range off {
		if off[d] >= g.Dims[d] {
			return fmt.Errorf("%w: chunk offset %v outside dataset %v",
				hdferr.ErrMalformedInput, off, g.Dims)
		}
	}
	src, err := dtype.View(g.Type, data[:need])
	if err != nil {
		return err
	}

	last := rank - 1
	run := min(uint64(g.ChunkDims[last]), g.Dims[last]-off[last])
	rows := uint64(1)
	for _, d := range g.ChunkDims[:last] {
		rows *= uint64(d)
	}

	idx := make([]uint64, last)
	for row := uint64(0); row < rows; row++ {
		if row > 0 {
			for d := last - 1; d >= 0; d-- {
				idx[d]++
				if idx[d] < uint64(g.ChunkDims[d]) {
					break
				}
				idx[d] = 0
			}
		}
		dstOff, inside := uint64(0), true
		for d := 0; d < last; d++ {
			coord := off[d] + idx[d]
			if coord >= g.Dims[d] {
				inside = false
				break
			}
			dstOff = dstOff*g.Dims[d] + coord
		}
		if !inside {
			continue
		}
		dstOff = dstOff*g.Dims[last] + off[last]
		srcOff := row * uint64(g.ChunkDims[last])
		if err := dst.CopyFrom(int(dstOff), src, int(srcOff), int(run)); err != nil {
			return err
		}
	}
	return nil
}
