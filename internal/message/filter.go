package message

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// Filter IDs
const (
	FilterDeflate     uint16 = 1 // DEFLATE (zlib)
	FilterShuffle     uint16 = 2 // Byte shuffle
	FilterFletcher32  uint16 = 3 // Fletcher32 checksum
	FilterSZIP        uint16 = 4 // SZIP compression
	FilterNBit        uint16 = 5 // N-bit packing
	FilterScaleOffset uint16 = 6 // Scale + offset
)

// FilterInfo describes a single filter in the pipeline.
type FilterInfo struct {
	ID         uint16
	Flags      uint16
	Name       string
	ClientData []uint32
}

// FilterPipeline lists the filters applied to every chunk (type 0x000B).
// Only deflate is accepted; any other filter fails decoding.
type FilterPipeline struct {
	Version uint8
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

// Deflate reports whether the pipeline contains the deflate filter.
func (m *FilterPipeline) Deflate() bool {
	for _, f := range m.Filters {
		if f.ID == FilterDeflate {
			return true
		}
	}
	return false
}

/*
Filter Pipeline Layout:
Offset  Size  Description
0       1     Version (1 or 2)
1       1     Number of filters
2       6     Reserved (v1 only)
..            Per filter:
        2       Filter ID
        2       Name length (v1, or v2 with ID >= 256)
        2       Flags
        2       Number of client data values
        var     Name
        4*n     Client data (v1: padded to an even count)
*/

func decodeFilterPipeline(c *binary.Cursor) (*FilterPipeline, error) {
	version, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version < 1 || version > 2 {
		return nil, fmt.Errorf("%w: filter pipeline version %d", hdferr.ErrUnsupportedVersion, version)
	}
	count, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version == 1 {
		if err := c.Skip(6); err != nil {
			return nil, err
		}
	}

	m := &FilterPipeline{Version: version, Filters: make([]FilterInfo, 0, count)}
	for i := 0; i < int(count); i++ {
		var f FilterInfo
		if f.ID, err = c.ReadUint16(); err != nil {
			return nil, err
		}
		if f.ID != FilterDeflate {
			return nil, fmt.Errorf("%w: filter %d", hdferr.ErrUnsupportedEncoding, f.ID)
		}
		var nameLen uint16
		if version == 1 || f.ID >= 256 {
			if nameLen, err = c.ReadUint16(); err != nil {
				return nil, err
			}
		}
		if f.Flags, err = c.ReadUint16(); err != nil {
			return nil, err
		}
		ncdv, err := c.ReadUint16()
		if err != nil {
			return nil, err
		}
		if nameLen > 0 {
			if f.Name, err = c.ReadString(uint64(nameLen)); err != nil {
				return nil, err
			}
		}
		f.ClientData = make([]uint32, ncdv)
		for j := range f.ClientData {
			if f.ClientData[j], err = c.ReadUint32(); err != nil {
				return nil, err
			}
		}
		if version == 1 && ncdv%2 == 1 {
			if err := c.Skip(4); err != nil {
				return nil, err
			}
		}
		m.Filters = append(m.Filters, f)
	}
	return m, nil
}
