package message

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// GroupInfo carries sizing hints for new-style groups (type 0x000A).
type GroupInfo struct {
	Version          uint8
	Flags            uint8
	MaxCompact       uint16
	MinDense         uint16
	EstimatedEntries uint16
	EstimatedNameLen uint16
}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

func decodeGroupInfo(c *binary.Cursor) (*GroupInfo, error) {
	m := &GroupInfo{EstimatedEntries: 4, EstimatedNameLen: 8}
	var err error
	if m.Version, err = c.ReadUint8(); err != nil {
		return nil, err
	}
	if m.Version != 0 {
		return nil, fmt.Errorf("%w: group info version %d", hdferr.ErrUnsupportedVersion, m.Version)
	}
	if m.Flags, err = c.ReadUint8(); err != nil {
		return nil, err
	}
	if m.Flags&0x01 != 0 {
		if m.MaxCompact, err = c.ReadUint16(); err != nil {
			return nil, err
		}
		if m.MinDense, err = c.ReadUint16(); err != nil {
			return nil, err
		}
	}
	if m.Flags&0x02 != 0 {
		if m.EstimatedEntries, err = c.ReadUint16(); err != nil {
			return nil, err
		}
		if m.EstimatedNameLen, err = c.ReadUint16(); err != nil {
			return nil, err
		}
	}
	return m, nil
}
