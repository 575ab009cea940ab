package message

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// LinkType represents the type of link.
type LinkType uint8

const (
	LinkTypeHard     LinkType = 0
	LinkTypeSoft     LinkType = 1
	LinkTypeExternal LinkType = 64
)

// Link is a named edge from a group to another object (type 0x0006).
type Link struct {
	Version       uint8
	Flags         uint8
	LinkType      LinkType
	CreationOrder uint64
	CharSet       uint8
	Name          string

	// ObjectAddress is the target header address of a hard link.
	ObjectAddress uint64
}

func (m *Link) Type() Type { return TypeLink }

// IsHard reports whether the link points directly at an object header.
func (m *Link) IsHard() bool {
	return m.LinkType == LinkTypeHard
}

/*
Link Layout:
Offset  Size  Description
0       1     Version (1)
1       1     Flags
                bits 0-1: size of the name length field (1 << value bytes)
                bit 2:    creation order present
                bit 3:    link type present
                bit 4:    character set present
..      1     Link type (if flag bit 3)
..      8     Creation order (if flag bit 2)
..      1     Character set (if flag bit 4)
..      1-8   Name length
..      var   Name (not null terminated)
..      var   Link information (hard: O address)
*/

func decodeLink(c *binary.Cursor) (*Link, error) {
	version, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, fmt.Errorf("%w: link version %d", hdferr.ErrUnsupportedVersion, version)
	}
	m := &Link{Version: version}
	if m.Flags, err = c.ReadUint8(); err != nil {
		return nil, err
	}
	if m.Flags&0x08 != 0 {
		t, err := c.ReadUint8()
		if err != nil {
			return nil, err
		}
		m.LinkType = LinkType(t)
	}
	if m.Flags&0x04 != 0 {
		if m.CreationOrder, err = c.ReadUint64(); err != nil {
			return nil, err
		}
	}
	if m.Flags&0x10 != 0 {
		if m.CharSet, err = c.ReadUint8(); err != nil {
			return nil, err
		}
	}
	nameLen, err := c.ReadUintN(1 << (m.Flags & 0x03))
	if err != nil {
		return nil, err
	}
	if m.Name, err = c.ReadString(nameLen); err != nil {
		return nil, err
	}
	if m.IsHard() {
		if m.ObjectAddress, err = c.ReadOffset(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// LinkInfo records where a group keeps densely stored links (type 0x0002).
type LinkInfo struct {
	Version                   uint8
	Flags                     uint8
	MaxCreationIndex          uint64
	FractalHeapAddress        uint64
	NameBTreeAddress          uint64
	CreationOrderBTreeAddress uint64
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

func decodeLinkInfo(c *binary.Cursor) (*LinkInfo, error) {
	m := &LinkInfo{}
	var err error
	if m.Version, err = c.ReadUint8(); err != nil {
		return nil, err
	}
	if m.Version != 0 {
		return nil, fmt.Errorf("%w: link info version %d", hdferr.ErrUnsupportedVersion, m.Version)
	}
	if m.Flags, err = c.ReadUint8(); err != nil {
		return nil, err
	}
	if m.Flags&0x01 != 0 {
		if m.MaxCreationIndex, err = c.ReadUint64(); err != nil {
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
