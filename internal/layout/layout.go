package layout

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/dtype"
	"github.com/robert-malhotra/go-minc/internal/filter"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
	"github.com/robert-malhotra/go-minc/internal/message"
)

// Layout reads a dataset's values.
type Layout interface {
	Class() message.LayoutClass
	Read(c *binary.Cursor) (dtype.Array, error)
}

// Params describes a dataset's storage as decoded from its object header.
type Params struct {
	Class message.LayoutClass
	Type  dtype.ElementType
	Dims  []uint64

	// Address is the data address, or the chunk B-tree root for chunked
	// storage. Size is the stored byte length, or the byte size of one
	// chunk for chunked storage.
	Address uint64
	Size    uint64

	ChunkDims []uint32
	Filters   *message.FilterPipeline

	// Inflater decodes deflate-compressed chunks.
	Inflater filter.Inflater
}

// New returns the reader for s. For chunked storage the filter pipeline is
// resolved here, so an unusable pipeline fails before any chunk is read.
func New(s Params) (Layout, error) {
	if !s.Type.IsNumeric() {
		return nil, fmt.Errorf("%w: no array representation for %s", hdferr.ErrUnsupportedEncoding, s.Type)
	}
	count, err := dtype.Count(s.Dims)
	if err != nil {
		return nil, err
	}
	switch s.Class {
	case message.LayoutCompact, message.LayoutContiguous:
		nbytes, err := dtype.ByteLen(count, s.Type.Size())
		if err != nil {
			return nil, err
		}
		return &Contiguous{
			class:   s.Class,
			typ:     s.Type,
			count:   count,
			nbytes:  nbytes,
			address: s.Address,
			size:    s.Size,
		}, nil
	case message.LayoutChunked:
		return newChunked(s)
	}
	return nil, fmt.Errorf("%w: layout %s", hdferr.ErrUnsupportedEncoding, s.Class)
}

// zeros returns the value of storage that was never allocated.
func zeros(t dtype.ElementType, n uint64) (dtype.Array, error) {
	return dtype.Make(t, n)
}
