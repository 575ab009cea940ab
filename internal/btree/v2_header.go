package btree

import (
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// V2HeaderSignature marks a v2 B-tree header.
const V2HeaderSignature = "BTHD"

// V2 B-tree record types relevant to attribute storage.
const (
	V2TypeAttributeName          uint8 = 8
	V2TypeAttributeCreationOrder uint8 = 9
)

// V2Header is the header of a v2 B-tree. Its nodes are not traversed.
type V2Header struct {
	Version        uint8
	Type           uint8
	NodeSize       uint32
	RecordSize     uint16
	Depth          uint16
	SplitPercent   uint8
	MergePercent   uint8
	RootAddress    uint64
	NumRootRecords uint16
	TotalRecords   uint64
}

/*
V2 B-tree Header Layout:
Offset  Size  Description
0       4     Signature ("BTHD")
4       1     Version (0)
5       1     Type
6       4     Node size
10      2     Record size
12      2     Depth
14      1     Split percent
15      1     Merge percent
16      O     Root node address
16+O    2     Records in root node
18+O    L     Total records
18+O+L  4     Checksum
*/

// ReadV2Header reads the v2 B-tree header at addr, verifying its checksum
// when verify is set.
func ReadV2Header(c *binary.Cursor, addr uint64, verify bool) (*V2Header, error) {
	hc := c.At(addr)
	if err := hc.ExpectSignature(V2HeaderSignature); err != nil {
		return nil, fmt.Errorf("v2 b-tree header at 0x%x: %w", addr, err)
	}
	h := &V2Header{}
	var err error
	if h.Version, err = hc.ReadUint8(); err != nil {
		return nil, err
	}
	if h.Version != 0 {
		return nil, fmt.Errorf("%w: v2 b-tree version %d", hdferr.ErrUnsupportedVersion, h.Version)
	}
	if h.Type, err = hc.ReadUint8(); err != nil {
		return nil, err
	}
	if h.NodeSize, err = hc.ReadUint32(); err != nil {
		return nil, err
	}
	if h.RecordSize, err = hc.ReadUint16(); err != nil {
		return nil, err
	}
	if h.Depth, err = hc.ReadUint16(); err != nil {
		return nil, err
	}
	if h.SplitPercent, err = hc.ReadUint8(); err != nil {
		return nil, err
	}
	if h.MergePercent, err = hc.ReadUint8(); err != nil {
		return nil, err
	}
	if h.RootAddress, err = hc.ReadOffset(); err != nil {
		return nil, err
	}
	if h.NumRootRecords, err = hc.ReadUint16(); err != nil {
		return nil, err
	}
	if h.TotalRecords, err = hc.ReadLength(); err != nil {
		return nil, err
	}
	if verify {
		if err := hc.VerifyChecksum(addr, hc.Pos()); err != nil {
			return nil, fmt.Errorf("v2 b-tree header at 0x%x: %w", addr, err)
		}
	}
	return h, nil
}
