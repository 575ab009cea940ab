package superblock

import (
	"github.com/robert-malhotra/go-minc/internal/binary"
)

/*
Version 0/1 Superblock Layout:
Offset  Size  Description
0       8     Signature
8       1     Version (0 or 1)
9       1     Free-space storage version
10      1     Root group symbol table entry version
11      1     Reserved
12      1     Shared header message format version
13      1     Size of offsets
14      1     Size of lengths
15      1     Reserved
16      2     Group leaf node K
18      2     Group internal node K
20      4     File consistency flags
24      2     Indexed storage K (v1 only)
26      2     Reserved (v1 only)
..      O     Base address
..      O     Free-space info address
..      O     EOF address
..      O     Driver info block address
..      var   Root group symbol table entry

Root Group Symbol Table Entry:
0       O     Link name offset
O       O     Object header address
2O      4     Cache type
2O+4    4     Reserved
2O+8    16    Scratch pad (cache type 1: B-tree address, local heap address)
*/

func readV0(c *binary.Cursor, version uint8) (*Superblock, error) {
	sb := &Superblock{Version: version}

	// free-space version, root entry version, reserved, shared header version
	if err := c.Skip(4); err != nil {
		return nil, err
	}
	var err error
	if sb.OffsetSize, err = c.ReadUint8(); err != nil {
		return nil, err
	}
	if sb.LengthSize, err = c.ReadUint8(); err != nil {
		return nil, err
	}
	if err := checkWidths(sb.OffsetSize, sb.LengthSize); err != nil {
		return nil, err
	}
	if err := c.Skip(1); err != nil {
		return nil, err
	}
	if sb.GroupLeafNodeK, err = c.ReadUint16(); err != nil {
		return nil, err
	}
	if sb.GroupInternalNodeK, err = c.ReadUint16(); err != nil {
		return nil, err
	}
	if _, err = c.ReadUint32(); err != nil { // consistency flags
		return nil, err
	}
	if version == 1 {
		if sb.IndexedStorageK, err = c.ReadUint16(); err != nil {
			return nil, err
		}
		if err := c.Skip(2); err != nil {
			return nil, err
		}
	}

	c = c.WithSizes(int(sb.OffsetSize), int(sb.LengthSize))
	if sb.BaseAddress, err = c.ReadOffset(); err != nil {
		return nil, err
	}
	if _, err = c.ReadOffset(); err != nil { // free-space info
		return nil, err
	}
	if sb.EOFAddress, err = c.ReadOffset(); err != nil {
		return nil, err
	}
	if _, err = c.ReadOffset(); err != nil { // driver info
		return nil, err
	}

	if _, err = c.ReadOffset(); err != nil { // link name offset
		return nil, err
	}
	if sb.RootAddress, err = c.ReadOffset(); err != nil {
		return nil, err
	}
	cacheType, err := c.ReadUint32()
	if err != nil {
		return nil, err
	}
	if err := c.Skip(4); err != nil {
		return nil, err
	}
	scratch, err := c.ReadBytes(16)
	if err != nil {
		return nil, err
	}
	if cacheType == 1 && 2*int(sb.OffsetSize) <= len(scratch) {
		sc := binary.NewCursor(scratch, sb.CursorConfig())
		sb.RootBTreeAddress, _ = sc.ReadOffset()
		sb.RootHeapAddress, _ = sc.ReadOffset()
		sb.HasRootSymbolTable = true
	}
	return sb, nil
}
