package message

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/dtype"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// DataspaceKind is the version 2 dataspace type byte. Version 1 dataspaces
// are scalar or simple by rank.
type DataspaceKind uint8

const (
	DataspaceScalar DataspaceKind = 0
	DataspaceSimple DataspaceKind = 1
	DataspaceNull   DataspaceKind = 2
)

// Dataspace describes the shape of a dataset or attribute (type 0x0001).
type Dataspace struct {
	Version     uint8
	Flags       uint8
	Kind        DataspaceKind
	Dimensions  []uint64
	MaxDims     []uint64 // nil unless flag bit 0 is set
	Permutation []uint64 // nil unless flag bit 1 is set
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// NumElements returns the product of the dimensions: 1 for a scalar, 0 for a
// null dataspace.
func (m *Dataspace) NumElements() (uint64, error) {
	if m.Kind == DataspaceNull {
		return 0, nil
	}
	return dtype.Count(m.Dimensions)
}

/*
Dataspace Layout:
Offset  Size  Description
0       1     Version (1 or 2)
1       1     Dimensionality
2       1     Flags (bit 0: max dims present, bit 1: permutation present)
3       5     Reserved (v1) / 1 type byte (v2)
..      L*n   Dimension sizes
..      L*n   Max dimension sizes (optional)
..      L*n   Permutation indices (optional, v1)
*/

func decodeDataspace(c *binary.Cursor, size uint64) (*Dataspace, error) {
	start := c.Pos()
	version, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version < 1 || version > 2 {
		return nil, fmt.Errorf("%w: dataspace version %d", hdferr.ErrUnsupportedVersion, version)
	}
	rank, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	flags, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	m := &Dataspace{Version: version, Flags: flags, Kind: DataspaceSimple}
	if rank == 0 {
		m.Kind = DataspaceScalar
	}
	if version == 1 {
		err = c.Skip(5)
	} else {
		var kind uint8
		if kind, err = c.ReadUint8(); err == nil && kind > uint8(DataspaceNull) {
			err = fmt.Errorf("%w: dataspace type %d", hdferr.ErrMalformedInput, kind)
		}
		m.Kind = DataspaceKind(kind)
	}
	if err != nil {
		return nil, err
	}
	readDims := func() ([]uint64, error) {
		dims := make([]uint64, rank)
		for i := range dims {
			if dims[i], err = c.ReadLength(); err != nil {
				return nil, err
			}
		}
		return dims, nil
	}
	if m.Dimensions, err = readDims(); err != nil {
		return nil, err
	}
	if flags&0x01 != 0 {
		if m.MaxDims, err = readDims(); err != nil {
			return nil, err
		}
	}
	if flags&0x02 != 0 {
		if m.Permutation, err = readDims(); err != nil {
			return nil, err
		}
	}
	if size > 0 {
		if err := finish(c, start, size); err != nil {
			return nil, err
		}
	}
	return m, nil
}
