package btree

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
	"github.com/robert-malhotra/go-minc/internal/heap"
)

// SymbolNodeSignature marks a symbol table node.
const SymbolNodeSignature = "SNOD"

// Cache types of a symbol table entry.
const (
	CacheNone        uint32 = 0
	CacheSymbolTable uint32 = 1
	CacheSymlink     uint32 = 2
)

// GroupEntry is one member of a group stored as a symbol table.
type GroupEntry struct {
	Name          string
	ObjectAddress uint64
	CacheType     uint32

	// BTreeAddress and HeapAddress are the scratch-pad copy of the member's
	// own symbol table, valid when CacheType is CacheSymbolTable.
	BTreeAddress uint64
	HeapAddress  uint64
}

// ReadGroupEntries walks the group B-tree at addr and returns every member
// in key order. Names are resolved through lh.
func ReadGroupEntries(c *binary.Cursor, addr uint64, lh *heap.LocalHeap) ([]GroupEntry, error) {
	var entries []GroupEntry
	if err := readGroupNode(c, addr, lh, -1, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func readGroupNode(c *binary.Cursor, addr uint64, lh *heap.LocalHeap, parent int, out *[]GroupEntry) error {
	nc, h, err := readNodeHeader(c, addr, NodeGroup)
	if err != nil {
		return err
	}
	if parent >= 0 {
		if err := checkChildLevel(addr, uint8(parent), h.level); err != nil {
			return err
		}
	}

	keySize := uint64(nc.LengthSize())
	children := make([]uint64, 0, h.entries)
	for i := 0; i < int(h.entries); i++ {
		if err := nc.Skip(keySize); err != nil {
			return err
		}
		child, err := nc.ReadOffset()
		if err != nil {
			return err
		}
		children = append(children, child)
	}

	for _, child := range children {
		if h.level == 0 {
			err = readSymbolNode(c, child, lh, out)
		} else {
			err = readGroupNode(c, child, lh, int(h.level), out)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

/*
Symbol Table Node Layout:
Offset  Size  Description
0       4     Signature ("SNOD")
4       1     Version (1)
5       1     Reserved
6       2     Number of symbols
8       ...   Symbol table entries

Symbol Table Entry Layout:
0       O     Link name offset (into the local heap)
O       O     Object header address
2O      4     Cache type
2O+4    4     Reserved
2O+8    16    Scratch pad
*/

func readSymbolNode(c *binary.Cursor, addr uint64, lh *heap.LocalHeap, out *[]GroupEntry) error {
	nc := c.At(addr)
	if err := nc.ExpectSignature(SymbolNodeSignature); err != nil {
		return fmt.Errorf("symbol node at 0x%x: %w", addr, err)
	}
	version, err := nc.ReadUint8()
	if err != nil {
		return err
	}
	if version != 1 {
		return fmt.Errorf("%w: symbol node version %d", hdferr.ErrUnsupportedVersion, version)
	}
	if err := nc.Skip(1); err != nil {
		return err
	}
	count, err := nc.ReadUint16()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		e, err := readSymbolEntry(nc, lh)
		if err != nil {
			return fmt.Errorf("symbol node at 0x%x entry %d: %w", addr, i, err)
		}
		*out = append(*out, e)
	}
	return nil
}

func readSymbolEntry(c *binary.Cursor, lh *heap.LocalHeap) (GroupEntry, error) {
	var e GroupEntry
	nameOffset, err := c.ReadOffset()
	if err != nil {
		return e, err
	}
	if e.ObjectAddress, err = c.ReadOffset(); err != nil {
		return e, err
	}
	if e.CacheType, err = c.ReadUint32(); err != nil {
		return e, err
	}
	if err := c.Skip(4); err != nil {
		return e, err
	}
	scratch := c.At(c.Pos())
	if err := c.Skip(16); err != nil {
		return e, err
	}
	if e.CacheType == CacheSymbolTable {
		if e.BTreeAddress, err = scratch.ReadOffset(); err != nil {
			return e, err
		}
		if e.HeapAddress, err = scratch.ReadOffset(); err != nil {
			return e, err
		}
	}
	if e.Name, err = lh.GetString(nameOffset); err != nil {
		return e, err
	}
	return e, nil
}
