package binary

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// Lookup3 computes Bob Jenkins' lookup3 "hashlittle" with an initial value
// of zero, the checksum HDF5 stores after v2 superblocks, OHDR/OCHK blocks,
// and other version-2 metadata.
func Lookup3(data []byte) uint32 {
	a := 0xdeadbeef + uint32(len(data))
	b, c := a, a

	// The last 1..12 bytes always go through the final mix, so the loop
	// stops while more than 12 remain.
	for len(data) > 12 {
		a += binary.LittleEndian.Uint32(data[0:])
		b += binary.LittleEndian.Uint32(data[4:])
		c += binary.LittleEndian.Uint32(data[8:])
		a, b, c = lookup3Mix(a, b, c)
		data = data[12:]
	}
	if len(data) == 0 {
		return c
	}

	var tail [12]byte
	copy(tail[:], data)
	a += binary.LittleEndian.Uint32(tail[0:])
	b += binary.LittleEndian.Uint32(tail[4:])
	c += binary.LittleEndian.Uint32(tail[8:])
	_, _, c = lookup3Final(a, b, c)
	return c
}

func lookup3Mix(a, b, c uint32) (uint32, uint32, uint32) {
	a -= c
	a ^= bits.RotateLeft32(c, 4)
	c += b
	b -= a
	b ^= bits.RotateLeft32(a, 6)
	a += c
	c -= b
	c ^= bits.RotateLeft32(b, 8)
	b += a
	a -= c
	a ^= bits.RotateLeft32(c, 16)
	c += b
	b -= a
	b ^= bits.RotateLeft32(a, 19)
	a += c
	c -= b
	c ^= bits.RotateLeft32(b, 4)
	b += a
	return a, b, c
}

func lookup3Final(a, b, c uint32) (uint32, uint32, uint32) {
	c ^= b
	c -= bits.RotateLeft32(b, 14)
	a ^= c
	a -= bits.RotateLeft32(c, 11)
	b ^= a
	b -= bits.RotateLeft32(a, 25)
	c ^= b
	c -= bits.RotateLeft32(b, 16)
	a ^= c
	a -= bits.RotateLeft32(c, 4)
	b ^= a
	b -= bits.RotateLeft32(a, 14)
	c ^= b
	c -= bits.RotateLeft32(b, 24)
	return a, b, c
}

// VerifyChecksum compares the lookup3 checksum of buf[start:end] with the
// little-endian uint32 stored at end.
func (c *Cursor) VerifyChecksum(start, end uint64) error {
	body, err := c.Slice(start, end)
	if err != nil {
		return err
	}
	stored, err := c.Slice(end, end+4)
	if err != nil {
		return err
	}
	want := binary.LittleEndian.Uint32(stored)
	if got := Lookup3(body); got != want {
		return fmt.Errorf("%w: checksum mismatch at 0x%x: stored 0x%08x, computed 0x%08x",
			hdferr.ErrMalformedInput, end, want, got)
	}
	return nil
}
