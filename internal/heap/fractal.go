package heap

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// Fractal heap signatures.
const (
	FractalHeapSignature = "FRHP"
	DirectBlockSignature = "FHDB"
)

// FractalHeap is a fractal heap header.
type FractalHeap struct {
	Address        uint64
	HeapIDLength   uint16
	IOFilterLength uint16
	Flags          uint8

	MaxManagedObjectSize uint32
	NextHugeID           uint64
	HugeBTreeAddress     uint64
	FreeSpace            uint64
	FreeSpaceAddress     uint64
	ManagedSpace         uint64
	AllocatedSpace       uint64
	IteratorOffset       uint64
	ManagedObjects       uint64
	HugeSize             uint64
	HugeObjects          uint64
	TinySize             uint64
	TinyObjects          uint64

	TableWidth         uint16
	StartBlockSize     uint64
	MaxDirectBlockSize uint64
	MaxHeapSizeBits    uint16
	StartRootRows      uint16
	RootAddress        uint64
	CurrentRootRows    uint16
}

/*
Fractal Heap Header Layout:
Offset  Size  Description
0       4     Signature ("FRHP")
4       1     Version (0)
5       2     Heap ID length
7       2     I/O filters' encoded length
9       1     Flags (bit 1: direct blocks are checksummed)
10      4     Maximum size of managed objects
14      L     Next huge object ID
..      O     v2 B-tree address of huge objects
..      L     Amount of free space in managed blocks
..      O     Address of managed block free space manager
..      L     Amount of managed space in heap
..      L     Amount of allocated managed space in heap
..      L     Offset of direct block allocation iterator
..      L     Number of managed objects in heap
..      L     Size of huge objects in heap
..      L     Number of huge objects in heap
..      L     Size of tiny objects in heap
..      L     Number of tiny objects in heap
..      2     Table width
..      L     Starting block size
..      L     Maximum direct block size
..      2     Maximum heap size (bits)
..      2     Starting number of rows in root indirect block
..      O     Address of root block
..      2     Current number of rows in root indirect block
..      4     Checksum
*/

// ReadFractalHeap reads the heap header at addr and rejects the layouts
// this reader cannot follow.
func ReadFractalHeap(c *binary.Cursor, addr uint64, verify bool) (*FractalHeap, error) {
	h, err := readFractalHeap(c.At(addr), addr, verify)
	if err != nil {
		return nil, fmt.Errorf("fractal heap at 0x%x: %w", addr, err)
	}
	return h, nil
}

func readFractalHeap(c *binary.Cursor, addr uint64, verify bool) (*FractalHeap, error) {
	if err := c.ExpectSignature(FractalHeapSignature); err != nil {
		return nil, err
	}
	version, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, fmt.Errorf("%w: fractal heap version %d", hdferr.ErrUnsupportedVersion, version)
	}

	h := &FractalHeap{Address: addr}
	if h.HeapIDLength, err = c.ReadUint16(); err != nil {
		return nil, err
	}
	if h.IOFilterLength, err = c.ReadUint16(); err != nil {
		return nil, err
	}
	if h.Flags, err = c.ReadUint8(); err != nil {
		return nil, err
	}
	if h.MaxManagedObjectSize, err = c.ReadUint32(); err != nil {
		return nil, err
	}

	fields := []struct {
		dst    *uint64
		offset bool
	}{
		{&h.NextHugeID, false},
		{&h.HugeBTreeAddress, true},
		{&h.FreeSpace, false},
		{&h.FreeSpaceAddress, true},
		{&h.ManagedSpace, false},
		{&h.AllocatedSpace, false},
		{&h.IteratorOffset, false},
		{&h.ManagedObjects, false},
		{&h.HugeSize, false},
		{&h.HugeObjects, false},
		{&h.TinySize, false},
		{&h.TinyObjects, false},
	}
	for _, f := range fields {
		if f.offset {
			*f.dst, err = c.ReadOffset()
		} else {
			*f.dst, err = c.ReadLength()
		}
		if err != nil {
			return nil, err
		}
	}

	if h.TableWidth, err = c.ReadUint16(); err != nil {
		return nil, err
	}
	if h.StartBlockSize, err = c.ReadLength(); err != nil {
		return nil, err
	}
	if h.MaxDirectBlockSize, err = c.ReadLength(); err != nil {
		return nil, err
	}
	if h.MaxHeapSizeBits, err = c.ReadUint16(); err != nil {
		return nil, err
	}
	if h.StartRootRows, err = c.ReadUint16(); err != nil {
		return nil, err
	}
	if h.RootAddress, err = c.ReadOffset(); err != nil {
		return nil, err
	}
	if h.CurrentRootRows, err = c.ReadUint16(); err != nil {
		return nil, err
	}
	if verify {
		if err := c.VerifyChecksum(addr, c.Pos()); err != nil {
			return nil, err
		}
	}
	if _, err := c.ReadUint32(); err != nil {
		return nil, err
	}

	switch {
	case h.IOFilterLength > 0:
		return nil, fmt.Errorf("%w: filtered fractal heap objects", hdferr.ErrUnsupportedEncoding)
	case h.CurrentRootRows > 0:
		return nil, fmt.Errorf("%w: fractal heap with an indirect root block", hdferr.ErrUnsupportedEncoding)
	case h.ManagedSpace > h.StartBlockSize:
		return nil, fmt.Errorf("%w: fractal heap spans %d bytes, more than one %d-byte block",
			hdferr.ErrUnsupportedEncoding, h.ManagedSpace, h.StartBlockSize)
	case h.HugeObjects > 0 || h.TinyObjects > 0:
		return nil, fmt.Errorf("%w: huge or tiny fractal heap objects", hdferr.ErrUnsupportedEncoding)
	}
	if h.ManagedObjects > 0 && c.IsUndefinedOffset(h.RootAddress) {
		return nil, fmt.Errorf("%w: %d managed objects but no root block", hdferr.ErrMalformedInput, h.ManagedObjects)
	}
	return h, nil
}

// DirectBlock is the span of a direct block that holds managed objects.
type DirectBlock struct {
	Address uint64
	// Start is the address of the first object; End bounds the block.
	Start uint64
	End   uint64
}

/*
Direct Block Layout:
Offset  Size  Description
0       4     Signature ("FHDB")
4       1     Version (0)
5       O     Heap header address
5+O     var   Block offset (max heap size / 8 bytes, rounded up)
..      4     Checksum (if heap flag bit 1)
..      var   Object data
*/

// RootBlock reads the header of the heap's root direct block. It returns nil
// for an empty heap.
func (h *FractalHeap) RootBlock(c *binary.Cursor) (*DirectBlock, error) {
	if c.IsUndefinedOffset(h.RootAddress) {
		return nil, nil
	}
	bc := c.At(h.RootAddress)
	if err := bc.ExpectSignature(DirectBlockSignature); err != nil {
		return nil, fmt.Errorf("fractal heap root block: %w", err)
	}
	version, err := bc.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, fmt.Errorf("%w: direct block version %d", hdferr.ErrUnsupportedVersion, version)
	}
	owner, err := bc.ReadOffset()
	if err != nil {
		return nil, err
	}
	if owner != h.Address {
		return nil, fmt.Errorf("%w: direct block 0x%x belongs to heap 0x%x, not 0x%x",
			hdferr.ErrMalformedInput, h.RootAddress, owner, h.Address)
	}
	if err := bc.Skip(uint64(h.MaxHeapSizeBits+7) / 8); err != nil {
		return nil, err
	}
	if h.Flags&0x02 != 0 {
		if err := bc.Skip(4); err != nil {
			return nil, err
		}
	}
	blk := &DirectBlock{Address: h.RootAddress, Start: bc.Pos(), End: h.RootAddress + h.StartBlockSize}
	if blk.End > c.Len() {
		return nil, fmt.Errorf("%w: direct block [0x%x, 0x%x) beyond end of file",
			hdferr.ErrTruncatedInput, blk.Address, blk.End)
	}
	if blk.Start > blk.End {
		return nil, fmt.Errorf("%w: direct block header larger than the block", hdferr.ErrMalformedInput)
	}
	return blk, nil
}
