package message

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// LayoutClass represents the storage layout class.
type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0 // Data stored in object header
	LayoutContiguous LayoutClass = 1 // Data in single contiguous block
	LayoutChunked    LayoutClass = 2 // Data in indexed chunks
)

func (c LayoutClass) String() string {
	switch c {
	case LayoutCompact:
		return "compact"
	case LayoutContiguous:
		return "contiguous"
	case LayoutChunked:
		return "chunked"
	}
	return fmt.Sprintf("layout(%d)", uint8(c))
}

// Layout describes where a dataset's raw data lives (type 0x0008).
type Layout struct {
	Version uint8
	Class   LayoutClass

	// Address is the absolute data address for compact and contiguous
	// storage, and the raw-data B-tree root for chunked storage. For compact
	// storage it points into the object header itself.
	Address uint64

	// Size is the data length in bytes for compact storage and for v3
	// contiguous storage. It is 0 when the length must be derived from the
	// dataspace and element size.
	Size uint64

	// Dims are the dimension sizes recorded by v1/v2 messages.
	Dims []uint32

	// ChunkDims and ElementSize describe one chunk. ChunkDims excludes the
	// trailing element-size dimension.
	ChunkDims   []uint32
	ElementSize uint32
}

func (m *Layout) Type() Type { return TypeDataLayout }

// ChunkBytes returns the uncompressed size of one chunk.
func (m *Layout) ChunkBytes() uint64 {
	if m.Class != LayoutChunked {
		return 0
	}
	n := uint64(m.ElementSize)
	for _, d := range m.ChunkDims {
		n *= uint64(d)
	}
	return n
}

func decodeLayout(c *binary.Cursor) (*Layout, error) {
	version, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	switch version {
	case 1, 2:
		return decodeLayoutV1(c, version)
	case 3:
		return decodeLayoutV3(c)
	}
	return nil, fmt.Errorf("%w: layout version %d", hdferr.ErrUnsupportedVersion, version)
}

/*
Layout v1/v2:
Offset  Size  Description
0       1     Version
1       1     Dimensionality
2       1     Layout class
3       5     Reserved
8       O     Data address (contiguous, chunked)
..      4*n   Dimension sizes
..      4     Element size (chunked)
..      4     Compact data size (compact)
..      var   Compact data
*/

func decodeLayoutV1(c *binary.Cursor, version uint8) (*Layout, error) {
	ndims, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	class, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	if err := c.Skip(5); err != nil {
		return nil, err
	}
	m := &Layout{Version: version, Class: LayoutClass(class)}
	if m.Class > LayoutChunked {
		return nil, fmt.Errorf("%w: layout class %d", hdferr.ErrUnsupportedEncoding, class)
	}
	if m.Class != LayoutCompact {
		if m.Address, err = c.ReadOffset(); err != nil {
			return nil, err
		}
	}
	m.Dims = make([]uint32, ndims)
	for i := range m.Dims {
		if m.Dims[i], err = c.ReadUint32(); err != nil {
			return nil, err
		}
	}
	switch m.Class {
	case LayoutChunked:
		if ndims < 2 {
			return nil, fmt.Errorf("%w: chunked layout with %d dimensions", hdferr.ErrMalformedInput, ndims)
		}
		m.ChunkDims = m.Dims[:ndims-1]
		if m.ElementSize, err = c.ReadUint32(); err != nil {
			return nil, err
		}
	case LayoutCompact:
		size, err := c.ReadUint32()
		if err != nil {
			return nil, err
		}
		m.Size = uint64(size)
		m.Address = c.Pos()
	}
	return m, nil
}

/*
Layout v3:
Offset  Size  Description
0       1     Version (3)
1       1     Layout class
2       var   Class properties:
                compact:    2-byte size, data
                contiguous: O address, L size
                chunked:    1-byte dimensionality n, O B-tree address,
                            4*(n-1) chunk dims, 4-byte element size
*/

func decodeLayoutV3(c *binary.Cursor) (*Layout, error) {
	class, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	m := &Layout{Version: 3, Class: LayoutClass(class)}
	switch m.Class {
	case LayoutCompact:
		size, err := c.ReadUint16()
		if err != nil {
			return nil, err
		}
		m.Size = uint64(size)
		m.Address = c.Pos()
	case LayoutContiguous:
		if m.Address, err = c.ReadOffset(); err != nil {
			return nil, err
		}
		if m.Size, err = c.ReadLength(); err != nil {
			return nil, err
		}
	case LayoutChunked:
		ndims, err := c.ReadUint8()
		if err != nil {
			return nil, err
		}
		if ndims < 2 {
			return nil, fmt.Errorf("%w: chunked layout with %d dimensions", hdferr.ErrMalformedInput, ndims)
		}
		if m.Address, err = c.ReadOffset(); err != nil {
			return nil, err
		}
		m.ChunkDims = make([]uint32, ndims-1)
		for i := range m.ChunkDims {
			if m.ChunkDims[i], err = c.ReadUint32(); err != nil {
				return nil, err
			}
		}
		if m.ElementSize, err = c.ReadUint32(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: layout class %d", hdferr.ErrUnsupportedEncoding, class)
	}
	return m, nil
}
