package heap

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/go-minc/internal/binary"
	"github.com/robert-malhotra/go-minc/internal/hdferr"
)

// LocalHeapSignature marks a local heap.
const LocalHeapSignature = "HEAP"

// LocalHeap is a v1 local heap; it stores the names of a group's members.
type LocalHeap struct {
	DataSize    uint64
	FreeOffset  uint64
	DataAddress uint64
	data        []byte
}

/*
Local Heap Layout:
Offset  Size  Description
0       4     Signature ("HEAP")
4       1     Version (0)
5       3     Reserved
8       L     Data segment size
8+L     L     Offset to head of free list
8+2L    O     Data segment address
*/

// ReadLocalHeap reads the local heap at addr. The data segment aliases the
// cursor's buffer.
func ReadLocalHeap(c *binary.Cursor, addr uint64) (*LocalHeap, error) {
	hc := c.At(addr)
	if err := hc.ExpectSignature(LocalHeapSignature); err != nil {
		return nil, fmt.Errorf("local heap at 0x%x: %w", addr, err)
	}
	version, err := hc.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, fmt.Errorf("%w: local heap version %d", hdferr.ErrUnsupportedVersion, version)
	}
	if err := hc.Skip(3); err != nil {
		return nil, err
	}

	h := &LocalHeap{}
	if h.DataSize, err = hc.ReadLength(); err != nil {
		return nil, err
	}
	if h.FreeOffset, err = hc.ReadLength(); err != nil {
		return nil, err
	}
	if h.DataAddress, err = hc.ReadOffset(); err != nil {
		return nil, err
	}
	if h.data, err = hc.Slice(h.DataAddress, h.DataAddress+h.DataSize); err != nil {
		return nil, fmt.Errorf("local heap data segment: %w", err)
	}
	return h, nil
}

// GetString returns the null-terminated string at offset in the data
// segment. A string running to the end of the segment is returned whole.
func (h *LocalHeap) GetString(offset uint64) (string, error) {
	if offset >= uint64(len(h.data)) {
		return "", fmt.Errorf("%w: name offset %d outside %d-byte local heap",
			hdferr.ErrMalformedInput, offset, len(h.data))
	}
	b := h.data[offset:]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b), nil
}
