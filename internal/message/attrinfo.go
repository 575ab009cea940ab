package message

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// AttributeInfo marks an object whose attributes are stored densely in a
// fractal heap indexed by a v2 B-tree (type 0x0015).
type AttributeInfo struct {
	Version                   uint8
	Flags                     uint8
	MaxCreationIndex          uint16
	FractalHeapAddress        uint64
	NameBTreeAddress          uint64
	CreationOrderBTreeAddress uint64
}

func (m *AttributeInfo) Type() Type { return TypeAttributeInfo }

func decodeAttributeInfo(c *binary.Cursor) (*AttributeInfo, error) {
	m := &AttributeInfo{}
	var err error
	if m.Version, err = c.ReadUint8(); err != nil {
		return nil, err
	}
	if m.Version != 0 {
		return nil, fmt.Errorf("%w: attribute info version %d", hdferr.ErrUnsupportedVersion, m.Version)
	}
	if m.Flags, err = c.ReadUint8(); err != nil {
		return nil, err
	}
	if m.Flags&0x01 != 0 {
		if m.MaxCreationIndex, err = c.ReadUint16(); err != nil {
			return nil, err
		}
	}
	if m.FractalHeapAddress, err = c.ReadOffset(); err != nil {
		return nil, err
	}
	if m.NameBTreeAddress, err = c.ReadOffset(); err != nil {
		return nil, err
	}
	if m.Flags&0x02 != 0 {
		if m.CreationOrderBTreeAddress, err = c.ReadOffset(); err != nil {
			return nil, err
		}
	}
	return m, nil
}
