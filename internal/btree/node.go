package btree

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// NodeSignature marks a v1 B-tree node.
const NodeSignature = "TREE"

// Node types.
const (
	NodeGroup   uint8 = 0
	NodeRawData uint8 = 1
)

// maxLevel bounds the height of a v1 tree. Levels strictly decrease on the
// way down, so this also bounds recursion.
const maxLevel = 64

/*
V1 B-tree Node Layout:
Offset  Size  Description
0       4     Signature ("TREE")
4       1     Node type (0 = group, 1 = raw data)
5       1     Node level (0 = leaf)
6       2     Entries used
8       O     Left sibling address
8+O     O     Right sibling address
8+2O    ...   Keys and child pointers, interleaved, entries+1 keys
*/

type nodeHeader struct {
	level   uint8
	entries uint16
}

// readNodeHeader reads the node prologue at addr and leaves the returned
// cursor on the first key.
func readNodeHeader(c *binary.Cursor, addr uint64, typ uint8) (*binary.Cursor, nodeHeader, error) {
	var h nodeHeader
	nc := c.At(addr)
	if err := nc.ExpectSignature(NodeSignature); err != nil {
		return nil, h, fmt.Errorf("b-tree node at 0x%x: %w", addr, err)
	}
	got, err := nc.ReadUint8()
	if err != nil {
		return nil, h, err
	}
	if got != typ {
		return nil, h, fmt.Errorf("%w: b-tree node at 0x%x has type %d, want %d",
			hdferr.ErrMalformedInput, addr, got, typ)
	}
	if h.level, err = nc.ReadUint8(); err != nil {
		return nil, h, err
	}
	if h.level >= maxLevel {
		return nil, h, fmt.Errorf("%w: b-tree node at 0x%x claims level %d",
			hdferr.ErrMalformedInput, addr, h.level)
	}
	if h.entries, err = nc.ReadUint16(); err != nil {
		return nil, h, err
	}
	if err := nc.Skip(2 * uint64(nc.OffsetSize())); err != nil {
		return nil, h, err
	}
	return nc, h, nil
}

// checkChildLevel enforces that a child sits exactly one level below its
// parent.
func checkChildLevel(addr uint64, parent, child uint8) error {
	if child+1 != parent {
		return fmt.Errorf("%w: b-tree node at 0x%x has level %d under a level %d parent",
			hdferr.ErrMalformedInput, addr, child, parent)
	}
	return nil
}
