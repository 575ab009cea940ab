package superblock

import (
	"github.com/robert-malhotra/go-minc/internal/binary"
)

/*
Version 2 Superblock Layout:
Offset  Size  Description
0       8     Signature
8       1     Version (2)
9       1     Size of offsets
10      1     Size of lengths
11      1     File consistency flags
12      O     Base address
12+O    O     Superblock extension address
12+2O   O     EOF address
12+3O   O     Root group object header address
12+4O   4     Superblock checksum (lookup3)
*/

func readV2(c *binary.Cursor, verify bool) (*Superblock, error) {
	sb := &Superblock{Version: 2}
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
	if sb.ConsistencyFlags, err = c.ReadUint8(); err != nil {
		return nil, err
	}

	c = c.WithSizes(int(sb.OffsetSize), int(sb.LengthSize))
	if sb.BaseAddress, err = c.ReadOffset(); err != nil {
		return nil, err
	}
	if sb.ExtensionAddress, err = c.ReadOffset(); err != nil {
		return nil, err
	}
	if sb.EOFAddress, err = c.ReadOffset(); err != nil {
		return nil, err
	}
	if sb.RootAddress, err = c.ReadOffset(); err != nil {
		return nil, err
	}
	if verify {
		if err := c.VerifyChecksum(0, c.Pos()); err != nil {
			return nil, err
		}
	}
	if _, err = c.ReadUint32(); err != nil {
		return nil, err
	}
	return sb, nil
}
