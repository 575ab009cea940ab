package superblock

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// Signature is the 8-byte magic that opens every file.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// Superblock holds the global parameters of a file. It is immutable once
// read.
type Superblock struct {
	Version    uint8
	OffsetSize uint8
	LengthSize uint8

	// BaseAddress is the absolute address of byte 0 of the file.
	BaseAddress uint64

	// EOFAddress is the logical end of file.
	EOFAddress uint64

	// RootAddress is the object header address of the root group.
	RootAddress uint64

	// V0/V1 only.
	GroupLeafNodeK     uint16
	GroupInternalNodeK uint16
	IndexedStorageK    uint16

	// RootBTreeAddress and RootHeapAddress come from the root symbol table
	// entry's scratch pad (v0/v1, cache type 1). They are undefined
	// otherwise; HasRootSymbolTable reports which.
	RootBTreeAddress   uint64
	RootHeapAddress    uint64
	HasRootSymbolTable bool

	// V2 only.
	ExtensionAddress uint64
	ConsistencyFlags uint8
}

// Options controls optional superblock checks.
type Options struct {
	// VerifyChecksum checks the v2 lookup3 checksum.
	VerifyChecksum bool
}

// Read parses the superblock at offset 0 of buf.
func Read(buf []byte, opts Options) (*Superblock, error) {
	if len(buf) < len(Signature) || !bytes.Equal(buf[:len(Signature)], Signature) {
		return nil, fmt.Errorf("%w: missing HDF5 signature", hdferr.ErrUnrecognizedFormat)
	}

	c := binary.NewCursor(buf, binary.DefaultConfig())
	if err := c.Skip(uint64(len(Signature))); err != nil {
		return nil, err
	}
	version, err := c.ReadUint8()
	if err != nil {
		return nil, err
	}

	var sb *Superblock
	switch version {
	case 0, 1:
		sb, err = readV0(c, version)
	case 2:
		sb, err = readV2(c, opts.VerifyChecksum)
	default:
		return nil, fmt.Errorf("%w: superblock version %d", hdferr.ErrUnsupportedVersion, version)
	}
	if err != nil {
		return nil, fmt.Errorf("superblock v%d: %w", version, err)
	}
	return sb, nil
}

// CursorConfig returns the cursor widths declared by this superblock.
func (sb *Superblock) CursorConfig() binary.Config {
	cfg := binary.DefaultConfig()
	cfg.OffsetSize = int(sb.OffsetSize)
	cfg.LengthSize = int(sb.LengthSize)
	return cfg
}

func checkWidths(offsetSize, lengthSize uint8) error {
	for _, w := range []uint8{offsetSize, lengthSize} {
		switch w {
		case 2, 4, 8:
		default:
			return fmt.Errorf("%w: offset/length width %d", hdferr.ErrUnsupportedEncoding, w)
		}
	}
	return nil
}
